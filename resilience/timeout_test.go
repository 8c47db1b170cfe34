package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestTimeout_FastOperation(t *testing.T) {
	to := NewTimeout(time.Second)

	err := to.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
}

func TestTimeout_SlowOperation(t *testing.T) {
	to := NewTimeout(10 * time.Millisecond)

	err := to.Execute(context.Background(), func(ctx context.Context) error {
		time.Sleep(100 * time.Millisecond)
		return nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute() error = %v, want ErrTimeout", err)
	}
}

func TestTimeout_OperationError(t *testing.T) {
	to := NewTimeout(time.Second)
	opErr := errors.New("op failed")

	err := to.Execute(context.Background(), func(ctx context.Context) error {
		return opErr
	})
	if !errors.Is(err, opErr) {
		t.Errorf("Execute() error = %v, want op error", err)
	}
}

func TestTimeout_AbandonsDoesNotCancel(t *testing.T) {
	to := NewTimeout(10 * time.Millisecond)

	var finished atomic.Bool
	err := to.Execute(context.Background(), func(ctx context.Context) error {
		// Ignore ctx deliberately, like a transport with no cancellation.
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() error = %v, want ErrTimeout", err)
	}

	// The abandoned operation keeps running to completion.
	time.Sleep(100 * time.Millisecond)
	if !finished.Load() {
		t.Error("abandoned operation should still run to completion")
	}
}

func TestTimeout_ParentCancellation(t *testing.T) {
	to := NewTimeout(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := to.Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestTimeout_DefaultLimit(t *testing.T) {
	to := NewTimeout(0)
	if to.Limit() != DefaultTimeout {
		t.Errorf("Limit() = %v, want %v", to.Limit(), DefaultTimeout)
	}
}

func TestExecuteWithTimeout(t *testing.T) {
	err := ExecuteWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		time.Sleep(100 * time.Millisecond)
		return nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("ExecuteWithTimeout() error = %v, want ErrTimeout", err)
	}
}
