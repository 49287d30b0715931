// Package ttlcache provides a bounded in-memory cache whose entries expire
// after a per-entry time-to-live.
//
// Expired entries are evicted lazily on read and on every write. When the
// number of entries exceeds the capacity the oldest entries are evicted
// first.
package ttlcache

import (
	"sort"
	"sync"
	"time"
)

const DefaultCapacity = 50

type entry[V any] struct {
	value    V
	storedAt time.Time
	ttl      time.Duration
}

func (e entry[V]) valid(now time.Time) bool {
	return now.Sub(e.storedAt) < e.ttl
}

type Opt func(*options)

type options struct {
	capacity int
	now      func() time.Time
}

// CapacityOpt sets the max number of entries. Non-positive values are ignored.
func CapacityOpt(n int) Opt {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// ClockOpt replaces the time source, used in tests.
func ClockOpt(now func() time.Time) Opt {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]entry[V]
	capacity int
	now      func() time.Time
}

func New[K comparable, V any](opts ...Opt) *Cache[K, V] {
	o := options{capacity: DefaultCapacity, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[K, V]{
		entries:  make(map[K]entry[V]),
		capacity: o.capacity,
		now:      o.now,
	}
}

// Get returns the value stored under key while it is still valid.
// An expired entry is removed.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !e.valid(c.now()) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores value for ttl. A non-positive ttl is a no-op.
func (c *Cache[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, storedAt: c.now(), ttl: ttl}
	c.evict()
}

func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// evict must be called with mu held.
func (c *Cache[K, V]) evict() {
	now := c.now()
	for k, e := range c.entries {
		if !e.valid(now) {
			delete(c.entries, k)
		}
	}

	excess := len(c.entries) - c.capacity
	if excess <= 0 {
		return
	}

	type aged struct {
		key      K
		storedAt time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{k, e.storedAt})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].storedAt.Before(all[j].storedAt)
	})
	for _, a := range all[:excess] {
		delete(c.entries, a.key)
	}
}
