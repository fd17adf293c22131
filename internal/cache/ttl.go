// Package cache holds the in-process result cache used by the fetch pipeline.
package cache

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/clock"
)

const (
	// DefaultSnapshotTTL covers one refresh burst.
	DefaultSnapshotTTL = 60 * time.Second
	// DefaultUserDataTTL is the long tier used for payloads cached through the store.
	DefaultUserDataTTL = time.Hour
)

// Entry is a cached value with the time it was stored and its lifetime.
type Entry[T any] struct {
	Value    T
	StoredAt time.Time
	TTL      time.Duration
}

// Expired reports whether the entry is logically absent at now.
func (e Entry[T]) Expired(now time.Time) bool {
	return now.Sub(e.StoredAt) > e.TTL
}

// TTL is a per-key expiring cache. Expiry is evaluated lazily on Get; Sweep
// evicts everything already expired.
type TTL[T any] struct {
	mu         sync.Mutex
	entries    map[string]Entry[T]
	clock      clock.Clock
	defaultTTL time.Duration
}

func New[T any](clk clock.Clock, defaultTTL time.Duration) *TTL[T] {
	if clk == nil {
		clk = clock.Real{}
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultSnapshotTTL
	}
	return &TTL[T]{
		entries:    make(map[string]Entry[T]),
		clock:      clk,
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value, evicting it first if it has expired.
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if e.Expired(c.clock.Now()) {
		delete(c.entries, key)
		return zero, false
	}
	return e.Value, true
}

// Put stores value under key. A non-positive ttl selects the cache default.
func (c *TTL[T]) Put(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry[T]{Value: value, StoredAt: c.clock.Now(), TTL: ttl}
}

func (c *TTL[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *TTL[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry[T])
}

// Sweep evicts all expired entries and returns how many were removed.
func (c *TTL[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0
	for key, e := range c.entries {
		if e.Expired(now) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len counts stored entries, including expired ones not yet evicted.
func (c *TTL[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
