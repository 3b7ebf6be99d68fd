// Package cache provides a small in-memory cache with a size bound and a
// per-entry time to live.
package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

// entry is a cached value with the time it was stored
type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTLCache keeps at most size entries, each valid for ttl. Concurrent loads
// of the same missing key share one call to the loader.
type TTLCache[K comparable, V any] struct {
	cache *lru.Cache
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time

	mu     sync.Mutex
	hits   int64
	misses int64
}

// New creates a cache holding up to size entries for ttl each
func New[K comparable, V any](size int, ttl time.Duration) (*TTLCache[K, V], error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &TTLCache[K, V]{cache: c, ttl: ttl, now: time.Now}, nil
}

// Get returns the value for key if it is present and fresh
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	raw, ok := c.cache.Get(key)
	if !ok {
		c.record(false)
		return zero, false
	}
	e := raw.(entry[V])
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.cache.Remove(key)
		c.record(false)
		return zero, false
	}
	c.record(true)
	return e.value, true
}

// Set stores value under key
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.cache.Add(key, entry[V]{value: value, storedAt: c.now()})
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// Failed loads are not cached. The boolean reports a cache hit.
func (c *TTLCache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	raw, err, _ := c.group.Do(fmt.Sprint(key), func() (interface{}, error) {
		if v, ok := c.peek(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return raw.(V), false, nil
}

// Len returns the number of stored entries, fresh or not
func (c *TTLCache[K, V]) Len() int {
	return c.cache.Len()
}

// Stats returns the number of hits and misses seen by Get
func (c *TTLCache[K, V]) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// peek reads a fresh value without touching the statistics
func (c *TTLCache[K, V]) peek(key K) (V, bool) {
	var zero V
	raw, ok := c.cache.Peek(key)
	if !ok {
		return zero, false
	}
	e := raw.(entry[V])
	if c.now().Sub(e.storedAt) >= c.ttl {
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) record(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}
