// Package cache provides the in-memory caches that sit in front of the blog API.
//
// Timed holds a single value that is fresh for a fixed window after the fetch
// that produced it. Index holds immutable entries keyed by ID. Neither
// de-duplicates concurrent misses: two callers that miss at the same time both
// fetch, and the last fetch to complete is what stays cached.
package cache

import (
	"context"
	"sync"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// Observer is told about cache hits and misses.
type Observer interface {
	RecordCacheHit(name string)
	RecordCacheMiss(name string)
}

// Entry is a cached value with the time it was fetched.
type Entry[V any] struct {
	Value     V
	FetchedAt time.Time
}

// Timed caches one value for a fixed TTL measured from the last successful fetch.
// Expiry is not sliding and nothing refreshes in the background.
type Timed[V any] struct {
	name     string
	ttl      time.Duration
	now      Clock
	observer Observer

	mu    sync.Mutex
	entry *Entry[V]
}

// TimedOption configures a Timed cache.
type TimedOption func(*timedOptions)

type timedOptions struct {
	now      Clock
	observer Observer
}

// WithClock injects the clock used for freshness checks.
func WithClock(now Clock) TimedOption {
	return func(o *timedOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithObserver reports hits and misses to o.
func WithObserver(o Observer) TimedOption {
	return func(opts *timedOptions) { opts.observer = o }
}

// NewTimed creates an empty Timed cache.
func NewTimed[V any](name string, ttl time.Duration, opts ...TimedOption) *Timed[V] {
	o := timedOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Timed[V]{
		name:     name,
		ttl:      ttl,
		now:      o.now,
		observer: o.observer,
	}
}

// Name returns the cache name used in logs and stats.
func (c *Timed[V]) Name() string {
	return c.name
}

// Get returns the cached value when it is still fresh. Otherwise it calls
// fetch; a successful result is stored and returned, a failure is returned
// as-is and leaves the cache unchanged.
func (c *Timed[V]) Get(ctx context.Context, fetch func(context.Context) (V, error)) (V, error) {
	if v, ok := c.fresh(); ok {
		if c.observer != nil {
			c.observer.RecordCacheHit(c.name)
		}
		return v, nil
	}
	if c.observer != nil {
		c.observer.RecordCacheMiss(c.name)
	}

	// The lock is not held across fetch.
	v, err := fetch(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.entry = &Entry[V]{Value: v, FetchedAt: c.now()}
	c.mu.Unlock()
	return v, nil
}

// Peek returns the stored entry, fresh or not.
func (c *Timed[V]) Peek() (Entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return Entry[V]{}, false
	}
	return *c.entry, true
}

// Fresh reports whether a Get right now would be served from memory.
func (c *Timed[V]) Fresh() bool {
	_, ok := c.fresh()
	return ok
}

// Invalidate empties the cache; the next Get always fetches.
func (c *Timed[V]) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
}

func (c *Timed[V]) fresh() (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil || c.now().Sub(c.entry.FetchedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return c.entry.Value, true
}
