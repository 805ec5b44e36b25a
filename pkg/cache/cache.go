package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type Options struct {
	TTL        time.Duration
	MaxEntries int
}

// MetricsHooks are invoked on cache events; any of them may be nil.
type MetricsHooks struct {
	OnHit   func()
	OnMiss  func()
	OnStore func()
	OnError func()
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a TTL cache with FIFO eviction. Concurrent misses for the same key
// share a single load. Failed loads are never cached.
type Cache[V any] struct {
	mu      sync.RWMutex
	items   map[string]*entry[V]
	order   []string
	opts    Options
	metrics MetricsHooks
	sf      singleflight.Group
	now     func() time.Time
}

func New[V any](opts Options, hooks MetricsHooks) *Cache[V] {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	return &Cache[V]{
		items:   make(map[string]*entry[V]),
		order:   make([]string, 0, 128),
		opts:    opts,
		metrics: hooks,
		now:     time.Now,
	}
}

type Loader[V any] func(ctx context.Context, key string) (V, error)

// Get returns the cached value for key, loading it on a miss or after expiry.
func (c *Cache[V]) Get(ctx context.Context, key string, loader Loader[V]) (V, error) {
	if v, ok := c.Peek(key); ok {
		if c.metrics.OnHit != nil {
			c.metrics.OnHit()
		}
		return v, nil
	}

	if c.metrics.OnMiss != nil {
		c.metrics.OnMiss()
	}
	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		val, loadErr := loader(ctx, key)
		if loadErr != nil {
			return val, loadErr
		}
		c.Set(key, val)
		return val, nil
	})
	if err != nil {
		if c.metrics.OnError != nil {
			c.metrics.OnError()
		}
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Peek returns a live cached value without triggering a load.
func (c *Cache[V]) Peek(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || !c.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores val under key with the configured TTL.
func (c *Cache[V]) Set(key string, val V) {
	c.mu.Lock()
	if _, exists := c.items[key]; !exists {
		c.order = append(c.order, key)
	}
	c.items[key] = &entry[V]{value: val, expiresAt: c.now().Add(c.opts.TTL)}
	c.evictIfNeeded()
	c.mu.Unlock()

	if c.metrics.OnStore != nil {
		c.metrics.OnStore()
	}
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.removeFromOrder(key)
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[V]) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *Cache[V]) evictIfNeeded() {
	if c.opts.MaxEntries <= 0 || len(c.items) <= c.opts.MaxEntries {
		return
	}
	excess := len(c.items) - c.opts.MaxEntries
	for excess > 0 && len(c.order) > 0 {
		victim := c.order[0]
		c.order = c.order[1:]
		delete(c.items, victim)
		excess--
	}
}
