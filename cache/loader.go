package cache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadFunc resolves a single key.
type LoadFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// LoaderConfig configures a Loader.
type LoaderConfig[K comparable, V any] struct {
	// Load resolves a key on a cache miss. Required.
	Load LoadFunc[K, V]

	// TTL, MaxSize and Now configure the inner TTLLRU store.
	TTL     time.Duration
	MaxSize int
	Now     func() time.Time
}

// Loader is a single-key read-through cache. Concurrent misses for the same
// key collapse into one load call; all callers share its outcome. Errors are
// never cached.
type Loader[K comparable, V any] struct {
	store *TTLLRU[K, V]
	load  LoadFunc[K, V]
	group singleflight.Group // prevents thundering herd on a cold key
}

// NewLoader creates a new read-through loader.
// Panics if config.Load is nil.
func NewLoader[K comparable, V any](config LoaderConfig[K, V]) *Loader[K, V] {
	if config.Load == nil {
		panic("cache: LoaderConfig.Load is required")
	}

	return &Loader[K, V]{
		store: NewTTLLRU[K, V](TTLLRUConfig[K, V]{
			TTL:     config.TTL,
			MaxSize: config.MaxSize,
			Now:     config.Now,
		}),
		load: config.Load,
	}
}

// Get retrieves a value, loading it on a miss.
func (l *Loader[K, V]) Get(ctx context.Context, key K) (V, error) {
	if value, ok := l.store.Get(key); ok {
		return value, nil
	}

	v, err, _ := l.group.Do(fmt.Sprintf("%v", key), func() (any, error) {
		// Another caller may have populated the entry while we queued.
		if value, ok := l.store.Get(key); ok {
			return value, nil
		}

		value, err := l.load(ctx, key)
		if err != nil {
			return nil, err
		}

		l.store.Set(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	return v.(V), nil
}

// Invalidate removes a key so the next Get reloads it.
func (l *Loader[K, V]) Invalidate(key K) {
	l.store.Delete(key)
}

// Clear empties the cache.
func (l *Loader[K, V]) Clear() {
	l.store.Clear()
}
