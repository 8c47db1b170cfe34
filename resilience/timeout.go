package resilience

import (
	"context"
	"time"
)

// Timeout bounds how long a caller waits for an operation.
//
// The operation is raced against the deadline in its own goroutine. If the
// deadline wins the caller gets ErrTimeout, but the operation is abandoned
// rather than cancelled: it keeps running until it returns on its own. Any
// side effects it produces after the race still happen.
type Timeout struct {
	limit time.Duration
}

// DefaultTimeout is the deadline used when none is configured.
const DefaultTimeout = 30 * time.Second

// NewTimeout creates a timeout wrapper. A non-positive limit uses
// DefaultTimeout.
func NewTimeout(limit time.Duration) *Timeout {
	if limit <= 0 {
		limit = DefaultTimeout
	}
	return &Timeout{limit: limit}
}

// Execute runs the operation, returning ErrTimeout if the deadline passes
// first. The operation receives a context carrying the deadline so
// cooperative callees can stop early, but it is not waited on after the
// deadline.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.limit)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

// Limit returns the configured deadline.
func (t *Timeout) Limit() time.Duration {
	return t.limit
}

// ExecuteWithTimeout runs op with a one-off deadline.
func ExecuteWithTimeout(ctx context.Context, limit time.Duration, op func(context.Context) error) error {
	return NewTimeout(limit).Execute(ctx, op)
}
