package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/repository"
)

// CacheKey is where the query cache is persisted on the device.
const CacheKey = "MEHNDA_CHINJI_QUERY_CACHE"

const (
	defaultStaleTime = 5 * time.Minute
	defaultGCTime    = 24 * time.Hour
	defaultRetries   = 2
)

type CacheConfig struct {
	Store     repository.KVStore
	StaleTime time.Duration
	GCTime    time.Duration
	Retries   int
	// RetryDelay is the pause before the first retry; it doubles per attempt.
	RetryDelay time.Duration
	Logger     logrus.FieldLogger
	Now        func() time.Time
}

type cacheEntry struct {
	Key         Key             `json:"key"`
	Data        json.RawMessage `json:"data"`
	FetchedAt   time.Time       `json:"fetchedAt"`
	Invalidated bool            `json:"invalidated,omitempty"`
}

// QueryCache memoises query results by key, marks them stale after
// StaleTime and forgets them after GCTime. Its contents survive restarts
// through the device store.
type QueryCache struct {
	cfg    CacheConfig
	logger logrus.FieldLogger

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func NewQueryCache(cfg CacheConfig) *QueryCache {
	if cfg.StaleTime <= 0 {
		cfg.StaleTime = defaultStaleTime
	}
	if cfg.GCTime <= 0 {
		cfg.GCTime = defaultGCTime
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	} else if cfg.Retries == 0 {
		cfg.Retries = defaultRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &QueryCache{
		cfg:     cfg,
		logger:  cfg.Logger.WithField("component", "query-cache"),
		entries: make(map[string]*cacheEntry),
	}
}

// Lookup decodes the cached value for key into out. fresh is false when the
// entry is older than StaleTime or was invalidated.
func (c *QueryCache) Lookup(key Key, out any) (found, fresh bool) {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	var data json.RawMessage
	if ok {
		data = e.Data
		fresh = c.fresh(e)
	}
	c.mu.Unlock()
	if !ok {
		return false, false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.WithError(err).WithField("key", key.String()).Warn("drop undecodable cache entry")
		c.mu.Lock()
		delete(c.entries, key.String())
		c.mu.Unlock()
		return false, false
	}
	return true, fresh
}

// fresh must be called with c.mu held.
func (c *QueryCache) fresh(e *cacheEntry) bool {
	return !e.Invalidated && c.cfg.Now().Sub(e.FetchedAt) < c.cfg.StaleTime
}

// Put stores value under key and persists the cache.
func (c *QueryCache) Put(ctx context.Context, key Key, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	c.mu.Lock()
	c.entries[key.String()] = &cacheEntry{Key: key, Data: data, FetchedAt: c.cfg.Now()}
	c.mu.Unlock()
	c.Persist(ctx)
	return nil
}

// Invalidate marks every entry under prefix stale and returns how many
// entries it touched.
func (c *QueryCache) Invalidate(ctx context.Context, prefix Key) int {
	c.mu.Lock()
	n := 0
	for _, e := range c.entries {
		if e.Key.HasPrefix(prefix) && !e.Invalidated {
			e.Invalidated = true
			n++
		}
	}
	c.mu.Unlock()
	if n > 0 {
		c.logger.WithFields(logrus.Fields{"prefix": prefix.String(), "entries": n}).Debug("invalidated")
		c.Persist(ctx)
	}
	return n
}

// GC drops entries older than GCTime.
func (c *QueryCache) GC() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gcLocked()
}

func (c *QueryCache) gcLocked() int {
	now := c.cfg.Now()
	n := 0
	for k, e := range c.entries {
		if now.Sub(e.FetchedAt) >= c.cfg.GCTime {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Persist writes the cache to the device store. Failures are logged.
func (c *QueryCache) Persist(ctx context.Context) {
	if c.cfg.Store == nil {
		return
	}
	c.mu.Lock()
	c.gcLocked()
	list := make([]*cacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		list = append(list, e)
	}
	raw, err := json.Marshal(list)
	c.mu.Unlock()
	if err != nil {
		c.fault(err, "encode query cache")
		return
	}
	if err := c.cfg.Store.Set(ctx, CacheKey, string(raw)); err != nil {
		c.fault(err, "persist query cache")
	}
}

// Restore loads the persisted cache, skipping expired entries. A missing
// or unreadable cache leaves it empty.
func (c *QueryCache) Restore(ctx context.Context) {
	if c.cfg.Store == nil {
		return
	}
	raw, found, err := c.cfg.Store.Get(ctx, CacheKey)
	if err != nil {
		c.fault(err, "read query cache")
		return
	}
	if !found {
		return
	}
	var list []*cacheEntry
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		c.fault(err, "decode query cache")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range list {
		if e == nil || len(e.Key) == 0 {
			continue
		}
		c.entries[e.Key.String()] = e
	}
	dropped := c.gcLocked()
	c.logger.WithFields(logrus.Fields{"entries": len(c.entries), "expired": dropped}).Debug("query cache restored")
}

// Clear forgets everything, in memory and on the device.
func (c *QueryCache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
	if c.cfg.Store == nil {
		return
	}
	if err := c.cfg.Store.Remove(ctx, CacheKey); err != nil {
		c.fault(err, "remove query cache")
	}
}

func (c *QueryCache) fault(err error, msg string) {
	c.logger.WithFields(logrus.Fields{
		"storage_fault": true,
		"key":           CacheKey,
	}).WithError(err).Error(msg)
}

// Query returns the cached value for key when fresh, and otherwise runs
// fetch (retrying failures) and caches its result. When every attempt fails
// and a stale value exists, the error is returned together with it.
func Query[T any](ctx context.Context, c *QueryCache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	var cached T
	found, fresh := c.Lookup(key, &cached)
	if found && fresh {
		return cached, nil
	}

	value, err := retry(ctx, c.cfg.Retries, c.cfg.RetryDelay, fetch)
	if err != nil {
		if found {
			return cached, err
		}
		var zero T
		return zero, err
	}
	if err := c.Put(ctx, key, value); err != nil {
		c.logger.WithError(err).WithField("key", key.String()).Warn("cache put failed")
	}
	return value, nil
}

func retry[T any](ctx context.Context, retries int, delay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var (
		value T
		err   error
	)
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return value, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		value, err = fn(ctx)
		if err == nil {
			return value, nil
		}
	}
	return value, err
}
