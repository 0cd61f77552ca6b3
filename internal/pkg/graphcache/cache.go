// Package graphcache provides a TTL cache for the assembled (pre-layout)
// entity set, so collapse toggles and quick refreshes do not re-query the
// warehouse. Nothing survives a restart; TTL <= 0 disables the cache.
package graphcache

import (
	"sync"
	"time"

	"github.com/snowviz/snowviz-backend/internal/pkg/metrics"
)

// Cache holds one value with a TTL. Thread-safe.
type Cache[T any] struct {
	ttl   time.Duration
	mu    sync.RWMutex
	value *T
	expAt time.Time
}

// New returns a cache with the given TTL. If ttl <= 0, Get always misses.
func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{ttl: ttl}
}

// Get returns the cached value if present and not expired. Records hit/miss.
func (c *Cache[T]) Get() (*T, bool) {
	if c.ttl <= 0 {
		metrics.GraphCacheMissesTotal.Inc()
		return nil, false
	}
	c.mu.RLock()
	v, expAt := c.value, c.expAt
	c.mu.RUnlock()
	if v == nil || time.Now().After(expAt) {
		metrics.GraphCacheMissesTotal.Inc()
		return nil, false
	}
	metrics.GraphCacheHitsTotal.Inc()
	return v, true
}

// Set stores the value with the configured TTL.
func (c *Cache[T]) Set(v *T) {
	if c.ttl <= 0 || v == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.expAt = time.Now().Add(c.ttl)
}

// Invalidate clears the cached value.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
}
