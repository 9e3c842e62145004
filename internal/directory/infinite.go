package directory

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"mehnda-chinji/internal/domain"
)

// PageFetcher loads one page of businesses.
type PageFetcher interface {
	ListBusinesses(ctx context.Context, filter domain.BusinessFilter, page int) (domain.BusinessPage, error)
}

// listState is what the cache stores for one list.
type listState struct {
	Pages []domain.BusinessPage `json:"pages"`
}

// InfiniteList accumulates pages of one filtered business listing.
// Concurrent fetches for the same page collapse into one request.
type InfiniteList struct {
	fetcher PageFetcher
	cache   *QueryCache
	filter  domain.BusinessFilter
	key     Key

	group singleflight.Group

	mu    sync.RWMutex
	pages []domain.BusinessPage
}

func NewInfiniteList(fetcher PageFetcher, cache *QueryCache, filter domain.BusinessFilter) *InfiniteList {
	return &InfiniteList{
		fetcher: fetcher,
		cache:   cache,
		filter:  filter,
		key:     BusinessListKey(filter),
	}
}

func (l *InfiniteList) Filter() domain.BusinessFilter {
	return l.filter
}

// Load makes sure the first page is present. Fresh cached pages are reused;
// stale or missing ones trigger a refetch of page one.
func (l *InfiniteList) Load(ctx context.Context) error {
	var cached listState
	found, fresh := l.cache.Lookup(l.key, &cached)
	if found && fresh && len(cached.Pages) > 0 {
		l.mu.Lock()
		l.pages = cached.Pages
		l.mu.Unlock()
		return nil
	}
	return l.Refresh(ctx)
}

// Refresh drops loaded pages and fetches page one again.
func (l *InfiniteList) Refresh(ctx context.Context) error {
	_, err, _ := l.group.Do("refresh", func() (any, error) {
		page, err := l.fetchPage(ctx, 1)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.pages = []domain.BusinessPage{page}
		l.mu.Unlock()
		l.store(ctx)
		return nil, nil
	})
	return err
}

// FetchNext appends the next page. It returns false when there is nothing
// more to load.
func (l *InfiniteList) FetchNext(ctx context.Context) (bool, error) {
	l.mu.RLock()
	empty := len(l.pages) == 0
	l.mu.RUnlock()
	if empty {
		if err := l.Refresh(ctx); err != nil {
			return false, err
		}
		return true, nil
	}

	next, ok := l.nextPage()
	if !ok {
		return false, nil
	}
	_, err, _ := l.group.Do(pageKey(next), func() (any, error) {
		page, err := l.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		// A refresh may have replaced the pages meanwhile.
		if len(l.pages) == next-1 {
			l.pages = append(l.pages, page)
		}
		l.mu.Unlock()
		l.store(ctx)
		return nil, nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *InfiniteList) fetchPage(ctx context.Context, page int) (domain.BusinessPage, error) {
	return retry(ctx, l.cache.cfg.Retries, l.cache.cfg.RetryDelay, func(ctx context.Context) (domain.BusinessPage, error) {
		return l.fetcher.ListBusinesses(ctx, l.filter, page)
	})
}

func (l *InfiniteList) store(ctx context.Context) {
	l.mu.RLock()
	state := listState{Pages: append([]domain.BusinessPage(nil), l.pages...)}
	l.mu.RUnlock()
	if err := l.cache.Put(ctx, l.key, state); err != nil {
		l.cache.logger.WithError(err).WithField("key", l.key.String()).Warn("cache put failed")
	}
}

func (l *InfiniteList) nextPage() (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.pages) == 0 {
		return 1, true
	}
	return NextPage(l.pages[len(l.pages)-1], len(l.pages))
}

// HasNext reports whether FetchNext would load another page.
func (l *InfiniteList) HasNext() bool {
	_, ok := l.nextPage()
	return ok
}

// Items returns every loaded business in page order.
func (l *InfiniteList) Items() []domain.Business {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.Business
	for _, p := range l.pages {
		out = append(out, p.Data...)
	}
	return out
}

// PagesLoaded returns how many pages are held.
func (l *InfiniteList) PagesLoaded() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.pages)
}

func pageKey(n int) string {
	return "page:" + strconv.Itoa(n)
}
