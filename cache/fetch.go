package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultBatchDelay is the window during which concurrent lookups are
// coalesced into a single fetch.
const DefaultBatchDelay = 10 * time.Millisecond

// Fetcher resolves a batch of keys in one call. The result map contains
// only the keys it could resolve; omitting a key signals "not found", not
// an error. Returning an error fails the whole batch.
type Fetcher[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// FetchConfig configures a FetchCache.
type FetchConfig[K comparable, V any] struct {
	// Fetcher is the bulk-lookup collaborator. Required.
	Fetcher Fetcher[K, V]

	// BatchDelay is how long to collect keys before firing a fetch.
	// Default: 10ms.
	BatchDelay time.Duration

	// TTL, MaxSize, OnEvict and Now configure the inner TTLLRU store.
	TTL     time.Duration
	MaxSize int
	OnEvict func(K, V)
	Now     func() time.Time
}

// FetchCache coalesces lookups against a bulk fetcher.
//
// A miss joins the current batch; when the batch timer fires, one fetcher
// call resolves every collected key. All callers waiting on the same key
// observe the same fetch outcome, and at most one fetch is in flight per
// key at any time. Results are cached in an inner TTLLRU store.
//
// This bounds fetch calls to at most one per batch window regardless of
// concurrent request volume, trading up to BatchDelay of latency for fetch
// amplification avoidance.
type FetchCache[K comparable, V any] struct {
	store      *TTLLRU[K, V]
	fetcher    Fetcher[K, V]
	batchDelay time.Duration

	mu      sync.Mutex
	pending map[K]*pendingFetch[V]
	batch   map[K]struct{}
	timer   *time.Timer
	fetches int64
}

type pendingFetch[V any] struct {
	done  chan struct{}
	value V
	ok    bool
	err   error
}

// NewFetchCache creates a new batching fetch cache.
// Panics if config.Fetcher is nil; the cache is useless without one.
func NewFetchCache[K comparable, V any](config FetchConfig[K, V]) *FetchCache[K, V] {
	if config.Fetcher == nil {
		panic("cache: FetchConfig.Fetcher is required")
	}
	if config.BatchDelay <= 0 {
		config.BatchDelay = DefaultBatchDelay
	}

	return &FetchCache[K, V]{
		store: NewTTLLRU[K, V](TTLLRUConfig[K, V]{
			TTL:     config.TTL,
			MaxSize: config.MaxSize,
			OnEvict: config.OnEvict,
			Now:     config.Now,
		}),
		fetcher:    config.Fetcher,
		batchDelay: config.BatchDelay,
		pending:    make(map[K]*pendingFetch[V]),
		batch:      make(map[K]struct{}),
	}
}

// Get retrieves a value, fetching it through the batcher on a miss.
//
// The boolean reports whether the fetcher resolved the key; an unresolved
// key is a miss, not an error. The error is non-nil only when the batch
// fetch itself failed or ctx was done while waiting. Cancellation abandons
// the wait, not the fetch: the underlying fetch keeps running and its
// results still land in the cache for other callers.
func (c *FetchCache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	if value, ok := c.store.Get(key); ok {
		return value, true, nil
	}

	c.mu.Lock()
	p, inFlight := c.pending[key]
	if !inFlight {
		p = &pendingFetch[V]{done: make(chan struct{})}
		c.pending[key] = p
		c.batch[key] = struct{}{}
		if c.timer == nil {
			c.timer = time.AfterFunc(c.batchDelay, c.flush)
		}
	}
	c.mu.Unlock()

	select {
	case <-p.done:
		return p.value, p.ok, p.err
	case <-ctx.Done():
		var zero V
		return zero, false, ctx.Err()
	}
}

// Set stores a value directly in the inner cache, bypassing batching.
func (c *FetchCache[K, V]) Set(key K, value V) {
	c.store.Set(key, value)
}

// SetTTL stores a value with an explicit TTL, bypassing batching.
func (c *FetchCache[K, V]) SetTTL(key K, value V, ttl time.Duration) {
	c.store.SetTTL(key, value, ttl)
}

// Delete removes a key from the inner cache. In-flight fetches are unaffected.
func (c *FetchCache[K, V]) Delete(key K) {
	c.store.Delete(key)
}

// Clear empties the inner cache. In-flight fetches are unaffected.
func (c *FetchCache[K, V]) Clear() {
	c.store.Clear()
}

// Len returns the number of live entries in the inner cache.
func (c *FetchCache[K, V]) Len() int {
	return c.store.Len()
}

// Fetches returns how many fetcher calls have been issued.
func (c *FetchCache[K, V]) Fetches() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

// flush snapshots the current batch and resolves it with one fetcher call.
func (c *FetchCache[K, V]) flush() {
	c.mu.Lock()
	keys := make([]K, 0, len(c.batch))
	waiters := make(map[K]*pendingFetch[V], len(c.batch))
	for key := range c.batch {
		keys = append(keys, key)
		waiters[key] = c.pending[key]
	}
	c.batch = make(map[K]struct{})
	c.timer = nil
	c.fetches++
	c.mu.Unlock()

	if len(keys) == 0 {
		return
	}

	// Caller contexts only bound their own waits; the fetch itself is not
	// tied to any of them.
	results, err := c.fetcher(context.Background(), keys)

	if err != nil {
		c.mu.Lock()
		for key, p := range waiters {
			delete(c.pending, key)
			p.err = err
			close(p.done)
		}
		c.mu.Unlock()
		return
	}

	for key, p := range waiters {
		value, ok := results[key]
		if ok {
			c.store.Set(key, value)
		}

		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()

		p.value = value
		p.ok = ok
		close(p.done)
	}
}
