package directory

import (
	"context"
	"sync"

	"mehnda-chinji/internal/domain"
)

// Source is the backend the directory reads from.
type Source interface {
	PageFetcher
	BusinessStatus(ctx context.Context) ([]domain.Business, error)
}

// Directory hands out one InfiniteList per filter, sharing a QueryCache.
type Directory struct {
	source Source
	cache  *QueryCache

	mu    sync.Mutex
	lists map[string]*InfiniteList
}

func New(source Source, cache *QueryCache) *Directory {
	return &Directory{
		source: source,
		cache:  cache,
		lists:  make(map[string]*InfiniteList),
	}
}

func (d *Directory) Cache() *QueryCache {
	return d.cache
}

// List returns the list for filter, creating it on first use.
func (d *Directory) List(filter domain.BusinessFilter) *InfiniteList {
	k := BusinessListKey(filter).String()
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.lists[k]
	if !ok {
		l = NewInfiniteList(d.source, d.cache, filter)
		d.lists[k] = l
	}
	return l
}

// OwnBusinesses returns the caller's businesses through the cache.
func (d *Directory) OwnBusinesses(ctx context.Context, userID string) ([]domain.Business, error) {
	return Query(ctx, d.cache, BusinessStatusKey(userID), d.source.BusinessStatus)
}

// InvalidateBusinesses marks every cached business query stale. Lists
// refetch on their next Load.
func (d *Directory) InvalidateBusinesses(ctx context.Context) int {
	return d.cache.Invalidate(ctx, BusinessesKey())
}

// Reset forgets every list and cached query, used on logout.
func (d *Directory) Reset(ctx context.Context) {
	d.mu.Lock()
	d.lists = make(map[string]*InfiniteList)
	d.mu.Unlock()
	d.cache.Clear(ctx)
}
