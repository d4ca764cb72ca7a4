package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultCacheTTL = 5 * time.Minute

// Cache shares one Registry between workspaces and refreshes it after TTL.
// Concurrent misses collapse into a single backend fetch.
type Cache struct {
	svc Service
	ttl time.Duration
	now func() time.Time

	mu        sync.RWMutex
	registry  *Registry
	fetchedAt time.Time
	group     singleflight.Group
}

// CacheOption customises a Cache.
type CacheOption func(*Cache)

// WithTTL overrides the refresh interval. Non-positive values keep the default.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source (primarily for tests).
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache constructs a Cache backed by svc.
func NewCache(svc Service, opts ...CacheOption) *Cache {
	c := &Cache{svc: svc, ttl: defaultCacheTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the cached registry, fetching it when missing or stale.
func (c *Cache) Registry(ctx context.Context, token string) (*Registry, error) {
	c.mu.RLock()
	reg, fetchedAt := c.registry, c.fetchedAt
	c.mu.RUnlock()
	if reg != nil && c.now().Sub(fetchedAt) < c.ttl {
		return reg, nil
	}
	return c.Refresh(ctx, token)
}

// Refresh fetches the catalogue regardless of age. When the fetch fails and a
// registry was cached before, the stale registry is returned instead of the error.
func (c *Cache) Refresh(ctx context.Context, token string) (*Registry, error) {
	v, err, _ := c.group.Do("statuses", func() (any, error) {
		reg, err := FetchStatuses(ctx, c.svc, token)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.registry = reg
		c.fetchedAt = c.now()
		c.mu.Unlock()
		return reg, nil
	})
	if err != nil {
		c.mu.RLock()
		stale := c.registry
		c.mu.RUnlock()
		if stale != nil {
			return stale, nil
		}
		return nil, err
	}
	return v.(*Registry), nil
}

// Invalidate forces the next Registry call to fetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
}
