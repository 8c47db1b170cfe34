package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchCache_SameKeyCoalesced(t *testing.T) {
	var calls atomic.Int64
	c := NewFetchCache[string, int](FetchConfig[string, int]{
		BatchDelay: 5 * time.Millisecond,
		Fetcher: func(_ context.Context, keys []string) (map[string]int, error) {
			calls.Add(1)
			out := make(map[string]int, len(keys))
			for _, k := range keys {
				out[k] = len(k)
			}
			return out, nil
		},
	})

	const callers = 10
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, ok, err := c.Get(context.Background(), "shared")
			if err != nil {
				t.Errorf("Get error: %v", err)
				return
			}
			if !ok {
				t.Error("Get should resolve the key")
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("fetcher calls = %d, want 1", got)
	}
	for i, v := range results {
		if v != len("shared") {
			t.Errorf("caller %d got %d, want %d", i, v, len("shared"))
		}
	}
}

func TestFetchCache_DistinctKeysOneBatch(t *testing.T) {
	var mu sync.Mutex
	var batches [][]string
	c := NewFetchCache[string, string](FetchConfig[string, string]{
		BatchDelay: 10 * time.Millisecond,
		Fetcher: func(_ context.Context, keys []string) (map[string]string, error) {
			mu.Lock()
			batches = append(batches, keys)
			mu.Unlock()
			out := make(map[string]string, len(keys))
			for _, k := range keys {
				out[k] = "v:" + k
			}
			return out, nil
		},
	})

	var wg sync.WaitGroup
	for _, key := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			v, ok, err := c.Get(context.Background(), key)
			if err != nil || !ok || v != "v:"+key {
				t.Errorf("Get(%q) = (%q, %v, %v)", key, v, ok, err)
			}
		}(key)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(batches))
	}
	if len(batches[0]) != 3 {
		t.Errorf("batch size = %d, want 3", len(batches[0]))
	}
}

func TestFetchCache_AbsentKeyIsMissNotError(t *testing.T) {
	c := NewFetchCache[string, int](FetchConfig[string, int]{
		BatchDelay: time.Millisecond,
		Fetcher: func(_ context.Context, keys []string) (map[string]int, error) {
			// Resolve nothing.
			return map[string]int{}, nil
		},
	})

	v, ok, err := c.Get(context.Background(), "ghost")
	if err != nil {
		t.Errorf("absent key should not error, got %v", err)
	}
	if ok {
		t.Error("absent key should report ok=false")
	}
	if v != 0 {
		t.Errorf("absent key should return zero value, got %d", v)
	}
}

func TestFetchCache_FetcherErrorRejectsBatch(t *testing.T) {
	fetchErr := errors.New("upstream down")
	c := NewFetchCache[string, int](FetchConfig[string, int]{
		BatchDelay: 5 * time.Millisecond,
		Fetcher: func(context.Context, []string) (map[string]int, error) {
			return nil, fetchErr
		},
	})

	var wg sync.WaitGroup
	for _, key := range []string{"a", "b"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_, _, err := c.Get(context.Background(), key)
			if !errors.Is(err, fetchErr) {
				t.Errorf("Get(%q) error = %v, want fetch error", key, err)
			}
		}(key)
	}
	wg.Wait()

	// Errors are not cached: a later Get fetches again.
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 after failed batch", c.Len())
	}
}

func TestFetchCache_CacheHitSkipsFetch(t *testing.T) {
	var calls atomic.Int64
	c := NewFetchCache[string, int](FetchConfig[string, int]{
		BatchDelay: time.Millisecond,
		Fetcher: func(_ context.Context, keys []string) (map[string]int, error) {
			calls.Add(1)
			out := make(map[string]int)
			for _, k := range keys {
				out[k] = 42
			}
			return out, nil
		},
	})

	if _, _, err := c.Get(context.Background(), "k"); err != nil {
		t.Fatalf("first Get: %v", err)
	}
	if _, _, err := c.Get(context.Background(), "k"); err != nil {
		t.Fatalf("second Get: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("fetcher calls = %d, want 1 (second Get is a cache hit)", got)
	}
}

func TestFetchCache_DirectSetBypassesBatching(t *testing.T) {
	var calls atomic.Int64
	c := NewFetchCache[string, int](FetchConfig[string, int]{
		BatchDelay: time.Millisecond,
		Fetcher: func(context.Context, []string) (map[string]int, error) {
			calls.Add(1)
			return map[string]int{}, nil
		},
	})

	c.Set("k", 7)

	v, ok, err := c.Get(context.Background(), "k")
	if err != nil || !ok || v != 7 {
		t.Errorf("Get = (%d, %v, %v), want (7, true, nil)", v, ok, err)
	}
	if calls.Load() != 0 {
		t.Errorf("fetcher calls = %d, want 0", calls.Load())
	}

	c.Delete("k")
	if _, ok, _ := c.Get(context.Background(), "k"); ok {
		t.Error("Get after Delete should fetch and miss")
	}
}

func TestFetchCache_ContextCancelAbandonsWait(t *testing.T) {
	fetchStarted := make(chan struct{})
	release := make(chan struct{})
	c := NewFetchCache[string, int](FetchConfig[string, int]{
		BatchDelay: time.Millisecond,
		Fetcher: func(_ context.Context, keys []string) (map[string]int, error) {
			close(fetchStarted)
			<-release
			return map[string]int{"k": 9}, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-fetchStarted
		cancel()
	}()

	_, _, err := c.Get(ctx, "k")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Get error = %v, want context.Canceled", err)
	}

	// The abandoned fetch still completes and lands in the cache.
	close(release)

	deadline := time.After(time.Second)
	for {
		if v, ok := c.store.Get("k"); ok {
			if v != 9 {
				t.Errorf("cached value = %d, want 9", v)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("abandoned fetch result never reached the cache")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestFetchCache_SecondWindowFetchesAgain(t *testing.T) {
	var calls atomic.Int64
	c := NewFetchCache[string, int](FetchConfig[string, int]{
		BatchDelay: time.Millisecond,
		Fetcher: func(_ context.Context, keys []string) (map[string]int, error) {
			calls.Add(1)
			// Never resolve, so nothing is cached.
			return map[string]int{}, nil
		},
	})

	c.Get(context.Background(), "k")
	c.Get(context.Background(), "k")

	if got := calls.Load(); got != 2 {
		t.Errorf("fetcher calls = %d, want 2 (one per window)", got)
	}
}
