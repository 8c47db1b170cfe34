package instance

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/toolfleet/toolfleet/fault"
	"github.com/toolfleet/toolfleet/health"
	"github.com/toolfleet/toolfleet/observe"
)

// Registry holds named instances, tracks a current instance, and selects
// among the available ones for execution.
type Registry struct {
	config Config
	logger observe.Logger

	mu        sync.Mutex
	instances map[string]*Instance
	order     []string // registration order
	current   string
	rrCounter uint64 // monotonic, never reset
}

// NewRegistry creates a registry with the given configuration.
func NewRegistry(config Config) (*Registry, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()

	return &Registry{
		config:    config,
		logger:    config.Logger.WithComponent("registry"),
		instances: make(map[string]*Instance),
	}, nil
}

// Add registers a new instance. Duplicate names are a conflict. The first
// registered instance, or the one matching Config.DefaultInstance, becomes
// current. Health checking starts automatically when enabled and the
// instance has a probe.
func (r *Registry) Add(cfg EndpointConfig) (*Instance, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, exists := r.instances[cfg.Name]; exists {
		r.mu.Unlock()
		return nil, fault.Conflictf("instance %q already registered", cfg.Name)
	}

	inst := newInstance(cfg, r.config)
	r.instances[cfg.Name] = inst
	r.order = append(r.order, cfg.Name)
	if r.current == "" || cfg.Name == r.config.DefaultInstance {
		r.current = cfg.Name
	}
	startCheck := !r.config.HealthCheck.Disabled && !cfg.DisableHealthCheck && cfg.Probe != nil
	interval := r.config.HealthCheck.Interval
	r.mu.Unlock()

	if startCheck {
		inst.StartHealthCheck(interval)
	}

	r.logger.Info(context.Background(), "instance added",
		observe.Field{Key: "name", Value: cfg.Name},
		observe.Field{Key: "url", Value: cfg.URL},
	)
	return inst, nil
}

// Remove deletes an instance, stopping its health checker first. When the
// removed instance was current, current moves to the first remaining
// available instance or is cleared.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	inst, ok := r.instances[name]
	if !ok {
		r.mu.Unlock()
		return fault.NotFoundf("instance %q not registered", name)
	}

	delete(r.instances, name)
	if i := slices.Index(r.order, name); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	if r.current == name {
		r.current = ""
		for _, n := range r.order {
			if r.instances[n].Available() {
				r.current = n
				break
			}
		}
	}
	r.mu.Unlock()

	inst.StopHealthCheck()

	r.logger.Info(context.Background(), "instance removed",
		observe.Field{Key: "name", Value: name},
	)
	return nil
}

// Get returns the named instance.
func (r *Registry) Get(name string) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances[name]
	if !ok {
		return nil, fault.NotFoundf("instance %q not registered", name)
	}
	return inst, nil
}

// Names returns all instance names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

// Instances returns all instances in registration order.
func (r *Registry) Instances() []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	instances := make([]*Instance, 0, len(r.order))
	for _, name := range r.order {
		instances = append(instances, r.instances[name])
	}
	return instances
}

// Current returns the current instance, or nil when none is set.
func (r *Registry) Current() *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == "" {
		return nil
	}
	return r.instances[r.current]
}

// SetCurrent points the current instance at the named one.
func (r *Registry) SetCurrent(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.instances[name]; !ok {
		return fault.NotFoundf("instance %q not registered", name)
	}
	r.current = name
	return nil
}

// ExecuteOptions controls instance resolution for Registry.Execute.
type ExecuteOptions struct {
	// Instance pins the operation to a named instance instead of selecting.
	Instance string

	// Tags filters selection when Instance is empty.
	Tags []string

	// DisableFailover skips failover for this call even when the registry
	// has it enabled.
	DisableFailover bool
}

// Execute resolves an instance (explicit name or via Select) and runs the
// operation against it. On failure it fails over to other instances unless
// failover is disabled.
func (r *Registry) Execute(ctx context.Context, op Operation, opts ExecuteOptions) (any, error) {
	var inst *Instance
	var err error
	if opts.Instance != "" {
		inst, err = r.Get(opts.Instance)
	} else {
		inst, err = r.Select(opts.Tags...)
	}
	if err != nil {
		return nil, err
	}

	result, err := inst.Execute(ctx, op)
	if err == nil {
		return result, nil
	}

	if r.config.Failover.Disabled || opts.DisableFailover {
		return nil, err
	}
	return r.failover(ctx, inst, op, err)
}

// CheckAll runs one health check on every instance in parallel and reports
// healthiness by name.
func (r *Registry) CheckAll(ctx context.Context) map[string]bool {
	instances := r.Instances()

	results := make(map[string]bool, len(instances))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, inst := range instances {
		wg.Add(1)
		go func(inst *Instance) {
			defer wg.Done()
			healthy := inst.PerformHealthCheck(ctx)
			mu.Lock()
			results[inst.Name()] = healthy
			mu.Unlock()
		}(inst)
	}
	wg.Wait()

	return results
}

// Close stops every instance's health checker. The registry must not be
// used afterwards.
func (r *Registry) Close() {
	for _, inst := range r.Instances() {
		inst.StopHealthCheck()
	}
}

// Checker returns a health.Checker summarizing fleet availability, for use
// with the health package's HTTP handlers.
func (r *Registry) Checker() health.Checker {
	return health.NewCheckerFunc("instances", func(ctx context.Context) health.Result {
		instances := r.Instances()
		if len(instances) == 0 {
			return health.Unknown("no instances registered")
		}

		available := 0
		details := make(map[string]any, len(instances))
		for _, inst := range instances {
			if inst.Available() {
				available++
			}
			details[inst.Name()] = map[string]any{
				"health":    inst.Health().String(),
				"available": inst.Available(),
			}
		}

		summary := fmt.Sprintf("%d/%d instances available", available, len(instances))
		switch available {
		case len(instances):
			return health.Healthy(summary).WithDetails(details)
		case 0:
			return health.Unhealthy(summary, nil).WithDetails(details)
		default:
			return health.Degraded(summary).WithDetails(details)
		}
	})
}
