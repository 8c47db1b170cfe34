package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoader_GetLoadsOnMiss(t *testing.T) {
	var calls atomic.Int64
	l := NewLoader[string, string](LoaderConfig[string, string]{
		Load: func(_ context.Context, key string) (string, error) {
			calls.Add(1)
			return "v:" + key, nil
		},
	})

	v, err := l.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if v != "v:a" {
		t.Errorf("Get = %q, want %q", v, "v:a")
	}

	// Second Get is a hit.
	l.Get(context.Background(), "a")
	if calls.Load() != 1 {
		t.Errorf("load calls = %d, want 1", calls.Load())
	}
}

func TestLoader_ConcurrentMissesShareOneLoad(t *testing.T) {
	var calls atomic.Int64
	started := make(chan struct{})
	l := NewLoader[string, int](LoaderConfig[string, int]{
		Load: func(context.Context, string) (int, error) {
			calls.Add(1)
			<-started
			return 1, nil
		},
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Get(context.Background(), "hot"); err != nil {
				t.Errorf("Get error: %v", err)
			}
		}()
	}

	// Let the callers pile up before releasing the load.
	time.Sleep(10 * time.Millisecond)
	close(started)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("load calls = %d, want 1", got)
	}
}

func TestLoader_ErrorsNotCached(t *testing.T) {
	var calls atomic.Int64
	loadErr := errors.New("backend unavailable")
	l := NewLoader[string, int](LoaderConfig[string, int]{
		Load: func(context.Context, string) (int, error) {
			if calls.Add(1) == 1 {
				return 0, loadErr
			}
			return 5, nil
		},
	})

	if _, err := l.Get(context.Background(), "k"); !errors.Is(err, loadErr) {
		t.Errorf("first Get error = %v, want load error", err)
	}

	v, err := l.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("second Get error: %v", err)
	}
	if v != 5 {
		t.Errorf("second Get = %d, want 5", v)
	}
}

func TestLoader_Invalidate(t *testing.T) {
	var calls atomic.Int64
	l := NewLoader[string, int](LoaderConfig[string, int]{
		Load: func(context.Context, string) (int, error) {
			return int(calls.Add(1)), nil
		},
	})

	l.Get(context.Background(), "k")
	l.Invalidate("k")

	v, _ := l.Get(context.Background(), "k")
	if v != 2 {
		t.Errorf("Get after Invalidate = %d, want 2 (reloaded)", v)
	}
}
