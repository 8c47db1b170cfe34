package instance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/toolfleet/toolfleet/fault"
	"github.com/toolfleet/toolfleet/health"
	"github.com/toolfleet/toolfleet/observe"
	"github.com/toolfleet/toolfleet/resilience"
)

// Operation is a remote call against a selected instance. It may return any
// error; errors are converted into the shared taxonomy before surfacing.
type Operation func(ctx context.Context, inst *Instance) (any, error)

// Stats holds request statistics for one instance.
type Stats struct {
	TotalRequests   int64
	SuccessCount    int64
	FailureCount    int64
	AvgResponseTime time.Duration
	LastError       error
	LastSuccess     time.Time
	LastFailure     time.Time
}

// InFlight is the number of started but not yet completed requests.
func (s Stats) InFlight() int64 {
	return s.TotalRequests - s.SuccessCount - s.FailureCount
}

// Instance is one managed endpoint: its configuration, health state,
// administrative enable flag, and request statistics.
type Instance struct {
	config       EndpointConfig
	executor     *resilience.Executor
	probeRetry   *resilience.Retry
	probeTimeout time.Duration
	logger       observe.Logger
	metrics      observe.Metrics

	mu      sync.Mutex
	health  health.Status
	enabled bool
	stats   Stats
	stopCh  chan struct{}
}

func newInstance(cfg EndpointConfig, rcfg Config) *Instance {
	opts := []resilience.ExecutorOption{
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{})),
	}
	if !rcfg.Failover.Disabled {
		opts = append(opts, resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  rcfg.Failover.MaxFailures,
			ResetTimeout: rcfg.Failover.RetryInterval,
		})))
	}
	if cfg.MaxConcurrent > 0 {
		opts = append(opts, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: cfg.MaxConcurrent,
		})))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, resilience.WithTimeout(cfg.Timeout))
	}

	return &Instance{
		config:   cfg,
		executor: resilience.NewExecutor(opts...),
		probeRetry: resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts: rcfg.HealthCheck.Retries,
		}),
		probeTimeout: rcfg.HealthCheck.Timeout,
		logger:       rcfg.Logger.WithComponent("instance"),
		metrics:      rcfg.Metrics,
		health:       health.StatusUnknown,
		enabled:      true,
	}
}

// Name returns the instance's unique name.
func (inst *Instance) Name() string { return inst.config.Name }

// URL returns the configured endpoint URL.
func (inst *Instance) URL() string { return inst.config.URL }

// Config returns a copy of the endpoint configuration.
func (inst *Instance) Config() EndpointConfig { return inst.config }

// Health returns the current health status.
func (inst *Instance) Health() health.Status {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.health
}

// Enabled reports whether the instance is administratively enabled.
func (inst *Instance) Enabled() bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.enabled
}

// SetEnabled enables or disables the instance administratively. Disabled
// instances are never selected and fail Execute immediately.
func (inst *Instance) SetEnabled(enabled bool) {
	inst.mu.Lock()
	inst.enabled = enabled
	inst.mu.Unlock()

	inst.logger.Info(context.Background(), "instance enabled state changed",
		observe.Field{Key: "name", Value: inst.config.Name},
		observe.Field{Key: "enabled", Value: enabled},
	)
}

// Available reports whether the instance may serve requests: it must be
// enabled and not known to be unhealthy. Unknown health counts as available
// so freshly registered instances can take traffic before the first check.
func (inst *Instance) Available() bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.availableLocked()
}

func (inst *Instance) availableLocked() bool {
	return inst.enabled && inst.health != health.StatusUnhealthy
}

// Stats returns a copy of the request statistics.
func (inst *Instance) Stats() Stats {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.stats
}

// LastError returns the most recent operation or probe error.
func (inst *Instance) LastError() error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.stats.LastError
}

// Execute runs the operation against this instance. Unavailable instances
// fail immediately with a connection error. The operation runs under the
// instance's retry policy, and its circuit breaker, bulkhead, and deadline
// when configured.
func (inst *Instance) Execute(ctx context.Context, op Operation) (any, error) {
	if !inst.Available() {
		return nil, fault.Connectionf("instance %q is not available", inst.config.Name)
	}

	inst.mu.Lock()
	inst.stats.TotalRequests++
	inst.mu.Unlock()

	start := time.Now()
	var (
		resultMu  sync.Mutex
		result    any
		attempts  int
		published int
	)
	err := inst.executor.Execute(ctx, func(ctx context.Context) error {
		resultMu.Lock()
		attempts++
		seq := attempts
		resultMu.Unlock()

		r, opErr := op(ctx, inst)
		if opErr != nil {
			return opErr
		}

		// An attempt abandoned by the deadline can finish after a later
		// attempt has already succeeded; its stale value must not win.
		resultMu.Lock()
		if seq > published {
			result = r
			published = seq
		}
		resultMu.Unlock()
		return nil
	})
	duration := time.Since(start)

	inst.recordOutcome(duration, err)
	inst.metrics.RecordOperation(ctx, "instance", inst.config.Name, duration, err)

	if err != nil {
		if errors.Is(err, resilience.ErrTimeout) {
			return nil, fault.Wrap(fault.KindTimeout, "operation timed out on instance "+inst.config.Name, err)
		}
		return nil, fault.Convert(err)
	}

	resultMu.Lock()
	defer resultMu.Unlock()
	return result, nil
}

// recordOutcome folds one completed operation into the statistics. The
// running average uses avg' = (avg*(n-1) + latest) / n over completed
// operations.
func (inst *Instance) recordOutcome(duration time.Duration, err error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	completed := inst.stats.SuccessCount + inst.stats.FailureCount + 1
	inst.stats.AvgResponseTime = (inst.stats.AvgResponseTime*time.Duration(completed-1) + duration) / time.Duration(completed)

	now := time.Now()
	if err != nil {
		inst.stats.FailureCount++
		inst.stats.LastFailure = now
		inst.stats.LastError = err
	} else {
		inst.stats.SuccessCount++
		inst.stats.LastSuccess = now
	}
}

// PerformHealthCheck probes the instance once and updates its health state.
// Instances with health checking disabled or no probe report healthy without
// touching state. Returns whether the instance is healthy.
func (inst *Instance) PerformHealthCheck(ctx context.Context) bool {
	if inst.config.DisableHealthCheck || inst.config.Probe == nil {
		return true
	}

	err := inst.probeRetry.Execute(ctx, func(ctx context.Context) error {
		probeCtx, cancel := context.WithTimeout(ctx, inst.probeTimeout)
		defer cancel()
		return inst.config.Probe(probeCtx)
	})

	inst.mu.Lock()
	previous := inst.health
	if err != nil {
		inst.health = health.StatusUnhealthy
		inst.stats.LastError = err
	} else {
		inst.health = health.StatusHealthy
	}
	current := inst.health
	inst.mu.Unlock()

	if current != previous {
		fields := []observe.Field{
			{Key: "name", Value: inst.config.Name},
			{Key: "health", Value: current.String()},
		}
		if err != nil {
			fields = append(fields, observe.Field{Key: "error", Value: err.Error()})
			inst.logger.Warn(ctx, "instance health changed", fields...)
		} else {
			inst.logger.Info(ctx, "instance health changed", fields...)
		}
	}

	return err == nil
}

// StartHealthCheck runs an immediate health check and then checks every
// interval until StopHealthCheck is called. Calling it on an instance whose
// checker is already running is a no-op.
func (inst *Instance) StartHealthCheck(interval time.Duration) {
	inst.mu.Lock()
	if inst.stopCh != nil {
		inst.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	inst.stopCh = stopCh
	inst.mu.Unlock()

	go func() {
		ctx := context.Background()
		inst.PerformHealthCheck(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				inst.PerformHealthCheck(ctx)
			}
		}
	}()
}

// StopHealthCheck stops the periodic health checker. Safe to call multiple
// times and on instances that never started one. Must be called before an
// instance is discarded so its timer does not leak.
func (inst *Instance) StopHealthCheck() {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.stopCh != nil {
		close(inst.stopCh)
		inst.stopCh = nil
	}
}

// Checker returns a health.Checker view of this instance for HTTP health
// endpoints.
func (inst *Instance) Checker() health.Checker {
	return health.NewCheckerFunc(inst.config.Name, func(ctx context.Context) health.Result {
		inst.mu.Lock()
		status := inst.health
		enabled := inst.enabled
		lastErr := inst.stats.LastError
		inst.mu.Unlock()

		switch {
		case !enabled:
			return health.Degraded("instance disabled")
		case status == health.StatusUnhealthy:
			return health.Unhealthy("instance unhealthy", lastErr)
		case status == health.StatusUnknown:
			return health.Unknown("instance not yet checked")
		default:
			return health.Healthy("instance healthy")
		}
	})
}
