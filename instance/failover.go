package instance

import (
	"context"
	"fmt"

	"github.com/toolfleet/toolfleet/fault"
	"github.com/toolfleet/toolfleet/observe"
)

// failover retries the operation against other instances after a failure on
// failed: first the configured backups in listed order, then every other
// available instance in registration order. Each attempt goes through that
// instance's own Execute, so it gets its own retry policy. Exhaustion
// surfaces a connection error carrying the attempt count and the original
// failure's message; intermediate errors are not preserved beyond the last.
func (r *Registry) failover(ctx context.Context, failed *Instance, op Operation, original error) (any, error) {
	tried := map[string]bool{failed.Name(): true}
	attempts := 0
	lastErr := original

	attempt := func(inst *Instance) (any, bool) {
		tried[inst.Name()] = true
		attempts++

		r.logger.Warn(ctx, "failing over",
			observe.Field{Key: "from", Value: failed.Name()},
			observe.Field{Key: "to", Value: inst.Name()},
		)

		result, err := inst.Execute(ctx, op)
		if err == nil {
			return result, true
		}
		lastErr = err
		return nil, false
	}

	for _, name := range r.config.Failover.BackupInstances {
		r.mu.Lock()
		inst := r.instances[name]
		r.mu.Unlock()
		if inst == nil || tried[name] || !inst.Available() {
			continue
		}
		if result, ok := attempt(inst); ok {
			return result, nil
		}
	}

	for _, name := range r.Names() {
		r.mu.Lock()
		inst := r.instances[name]
		r.mu.Unlock()
		if inst == nil || tried[name] || !inst.Available() {
			continue
		}
		if result, ok := attempt(inst); ok {
			return result, nil
		}
	}

	return nil, fault.Wrap(fault.KindConnection,
		fmt.Sprintf("failover exhausted after %d attempts (original error: %s)", attempts, original.Error()),
		lastErr)
}
