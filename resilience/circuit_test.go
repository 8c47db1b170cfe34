package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failingOp(ctx context.Context) error { return errors.New("boom") }
func okOp(ctx context.Context) error      { return nil }

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3, ResetTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cb.Execute(ctx, failingOp)
	}

	if cb.State() != StateOpen {
		t.Errorf("State = %v, want open after 3 failures", cb.State())
	}

	err := cb.Execute(ctx, okOp)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute while open = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3})
	ctx := context.Background()

	cb.Execute(ctx, failingOp)
	cb.Execute(ctx, failingOp)
	cb.Execute(ctx, okOp)
	cb.Execute(ctx, failingOp)
	cb.Execute(ctx, failingOp)

	if cb.State() != StateClosed {
		t.Errorf("State = %v, want closed: success resets the count", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
	})
	ctx := context.Background()

	cb.Execute(ctx, failingOp)
	if cb.State() != StateOpen {
		t.Fatalf("State = %v, want open", cb.State())
	}

	time.Sleep(20 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("State = %v, want half-open after reset timeout", cb.State())
	}

	if err := cb.Execute(ctx, okOp); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("State = %v, want closed after successful probe", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
	})
	ctx := context.Background()

	cb.Execute(ctx, failingOp)
	time.Sleep(20 * time.Millisecond)

	cb.Execute(ctx, failingOp)
	if cb.State() != StateOpen {
		t.Errorf("State = %v, want open after failed probe", cb.State())
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	cb.Execute(context.Background(), failingOp)
	cb.Reset()

	want := []string{"closed->open", "open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transitions[%d] = %q, want %q", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	benign := errors.New("benign")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return err != nil && !errors.Is(err, benign) },
	})
	ctx := context.Background()

	cb.Execute(ctx, func(context.Context) error { return benign })
	if cb.State() != StateClosed {
		t.Errorf("State = %v, want closed: benign errors don't count", cb.State())
	}
}

func TestCircuitBreaker_Snapshot(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 5})
	ctx := context.Background()

	cb.Execute(ctx, failingOp)
	cb.Execute(ctx, failingOp)

	snap := cb.Snapshot()
	if snap.State != StateClosed {
		t.Errorf("Snapshot.State = %v, want closed", snap.State)
	}
	if snap.Failures != 2 {
		t.Errorf("Snapshot.Failures = %d, want 2", snap.Failures)
	}
	if snap.LastFailure.IsZero() {
		t.Error("Snapshot.LastFailure should be set")
	}
}
