// Package cache provides a generic in-memory store with per-entry TTL and
// size-capped eviction, used to memoize backend responses by request
// fingerprint.
package cache

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type entry[V any] struct {
	value        V
	expiresAt    time.Time
	lastAccessed atomic.Int64 // unix nanos, updated on read without the write lock
}

func (e *entry[V]) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Stats is a read-only snapshot of cache configuration and occupancy.
// Not designed for hot-path use.
type Stats struct {
	Entries    int
	MaxEntries int
	DefaultTTL time.Duration
}

// MemoryCache is a thread-safe key→value store with lazy expiration, a
// periodic background sweep, and least-recently-accessed eviction when the
// size cap is exceeded.
type MemoryCache[K comparable, V any] struct {
	mu         sync.RWMutex
	entries    map[K]*entry[V]
	maxEntries int
	defaultTTL time.Duration

	stop      chan struct{}
	closeOnce sync.Once
}

// Option tweaks cache construction.
type Option func(*options)

type options struct {
	sweepInterval time.Duration
}

// WithSweepInterval overrides how often the background sweep runs.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.sweepInterval = d
		}
	}
}

// New builds a MemoryCache and starts its sweeper goroutine. Callers own the
// cache lifetime and must Close it so the sweeper does not outlive them.
func New[K comparable, V any](maxEntries int, defaultTTL time.Duration, opts ...Option) *MemoryCache[K, V] {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	o := options{sweepInterval: time.Minute}
	for _, opt := range opts {
		opt(&o)
	}

	c := &MemoryCache[K, V]{
		entries:    make(map[K]*entry[V]),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		stop:       make(chan struct{}),
	}
	go c.sweepLoop(o.sweepInterval)
	return c
}

// TryGet returns the value for key if present and fresh. Expired entries are
// treated as absent and removed lazily, whether or not the sweeper has run.
func (c *MemoryCache[K, V]) TryGet(key K) (V, bool) {
	var zero V
	now := time.Now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if e.expired(now) {
		c.mu.Lock()
		// Re-check under the write lock: Set may have replaced the entry.
		if current, ok := c.entries[key]; ok && current == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	e.lastAccessed.Store(now.UnixNano())
	return e.value, true
}

// Set upserts unconditionally. A ttl of 0 uses the configured default. When
// the insert pushes the cache over its cap, least-recently-accessed entries
// are evicted down to a 10% margin below the cap so the next few inserts do
// not immediately re-trigger eviction.
func (c *MemoryCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := time.Now()
	e := &entry[V]{value: value, expiresAt: now.Add(ttl)}
	e.lastAccessed.Store(now.UnixNano())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	if len(c.entries) > c.maxEntries {
		c.evictLocked()
	}
}

// GetOrAdd returns the cached value or computes and stores one via factory.
//
// Not atomic across concurrent callers for the same key: two racing callers
// may both run factory, and the last Set wins. This is a deliberate
// simplicity/throughput trade-off (duplicate backend work under a rare race
// is cheaper than holding a lock across the factory), not a latent bug.
func (c *MemoryCache[K, V]) GetOrAdd(key K, factory func() (V, error), ttl time.Duration) (V, error) {
	if v, ok := c.TryGet(key); ok {
		return v, nil
	}
	v, err := factory()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v, ttl)
	return v, nil
}

// Remove deletes key if present.
func (c *MemoryCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *MemoryCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*entry[V])
}

// Stats snapshots entry count and configuration.
func (c *MemoryCache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries:    len(c.entries),
		MaxEntries: c.maxEntries,
		DefaultTTL: c.defaultTTL,
	}
}

// Close stops the background sweeper. Idempotent.
func (c *MemoryCache[K, V]) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
}

func (c *MemoryCache[K, V]) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

// sweep removes all expired entries. A sweep failure must never crash the
// host, so panics are swallowed.
func (c *MemoryCache[K, V]) sweep() {
	defer func() { _ = recover() }()
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}

// evictLocked removes least-recently-accessed entries until the cache sits at
// or below maxEntries minus a 10% margin. Caller holds the write lock.
func (c *MemoryCache[K, V]) evictLocked() {
	target := c.maxEntries - c.maxEntries/10
	if target < 1 {
		target = 1
	}
	if len(c.entries) <= target {
		return
	}

	type access struct {
		key  K
		last int64
	}
	ordered := make([]access, 0, len(c.entries))
	for key, e := range c.entries {
		ordered = append(ordered, access{key: key, last: e.lastAccessed.Load()})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].last < ordered[j].last })

	for _, victim := range ordered {
		if len(c.entries) <= target {
			break
		}
		delete(c.entries, victim.key)
	}
}
