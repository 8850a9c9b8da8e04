package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchLimit bounds the number of concurrent fetches in GetMany.
const DefaultBatchLimit = 8

// Index caches entries by key. Entries are never updated once stored; they
// leave the cache only through Delete, Clear or an optional TTL.
type Index[K comparable, V any] struct {
	name     string
	items    *ttlcache.Cache[K, V]
	observer Observer
	limit    int
}

// NewIndex creates an Index. A ttl of zero keeps entries for the life of the process.
func NewIndex[K comparable, V any](name string, ttl time.Duration, observer Observer) *Index[K, V] {
	return &Index[K, V]{
		name: name,
		items: ttlcache.New(
			ttlcache.WithTTL[K, V](ttl),
			ttlcache.WithDisableTouchOnHit[K, V](),
		),
		observer: observer,
		limit:    DefaultBatchLimit,
	}
}

// Name returns the cache name used in logs and stats.
func (x *Index[K, V]) Name() string {
	return x.name
}

// Lookup returns the cached entry without fetching.
func (x *Index[K, V]) Lookup(key K) (V, bool) {
	if item := x.items.Get(key); item != nil {
		return item.Value(), true
	}
	var zero V
	return zero, false
}

// Put stores v under key.
func (x *Index[K, V]) Put(key K, v V) {
	x.items.Set(key, v, ttlcache.DefaultTTL)
}

// Get returns the entry for key, calling fetch on a miss. Only successful
// fetches are stored.
func (x *Index[K, V]) Get(ctx context.Context, key K, fetch func(context.Context, K) (V, error)) (V, error) {
	if v, ok := x.Lookup(key); ok {
		if x.observer != nil {
			x.observer.RecordCacheHit(x.name)
		}
		return v, nil
	}
	if x.observer != nil {
		x.observer.RecordCacheMiss(x.name)
	}

	v, err := fetch(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}
	x.Put(key, v)
	return v, nil
}

// GetMany looks up every key concurrently and returns the entries in input
// order. Keys whose fetch failed are left out.
func (x *Index[K, V]) GetMany(ctx context.Context, keys []K, fetch func(context.Context, K) (V, error)) []V {
	type slot struct {
		v  V
		ok bool
	}
	slots := make([]slot, len(keys))

	var g errgroup.Group
	g.SetLimit(x.limit)
	for i, key := range keys {
		g.Go(func() error {
			v, err := x.Get(ctx, key, fetch)
			if err == nil {
				slots[i] = slot{v: v, ok: true}
			}
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	out := make([]V, 0, len(keys))
	for _, s := range slots {
		if s.ok {
			out = append(out, s.v)
		}
	}
	return out
}

// Delete removes one entry.
func (x *Index[K, V]) Delete(key K) {
	x.items.Delete(key)
}

// Clear removes every entry.
func (x *Index[K, V]) Clear() {
	x.items.DeleteAll()
}

// Len returns the number of stored entries, including any not yet swept after expiry.
func (x *Index[K, V]) Len() int {
	return x.items.Len()
}
