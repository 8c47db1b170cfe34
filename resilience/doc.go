// Package resilience provides the retry, timeout, rate limiting, circuit
// breaking and concurrency isolation primitives used when invoking remote
// tool-server instances.
//
// Each primitive is independently useful and can be composed with Executor:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
//	        MaxAttempts:  3,
//	        InitialDelay: 100 * time.Millisecond,
//	    })),
//	    resilience.WithTimeout(5*time.Second),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return callInstance(ctx)
//	})
//
// Retry treats the fault taxonomy as its default gate: errors classified as
// not retryable (conflicts, validation failures) are surfaced immediately.
//
// Timeout has "abandon, don't cancel" semantics: when the deadline passes
// the caller gets ErrTimeout, but the operation keeps running in the
// background since the underlying transport offers no cancellation
// primitive.
package resilience
