package instance

import (
	"time"

	"github.com/toolfleet/toolfleet/fault"
	"github.com/toolfleet/toolfleet/health"
	"github.com/toolfleet/toolfleet/observe"
)

// Strategy selects how the registry picks among available instances.
type Strategy string

const (
	// StrategyRoundRobin cycles through the candidate list.
	StrategyRoundRobin Strategy = "round-robin"
	// StrategyPriority picks the candidate with the highest priority.
	StrategyPriority Strategy = "priority"
	// StrategyLeastConnections picks the candidate with the fewest
	// in-flight requests.
	StrategyLeastConnections Strategy = "least-connections"
	// StrategyRandom picks a uniformly random candidate.
	StrategyRandom Strategy = "random"
)

func (s Strategy) valid() bool {
	switch s {
	case StrategyRoundRobin, StrategyPriority, StrategyLeastConnections, StrategyRandom:
		return true
	}
	return false
}

// HealthCheckConfig configures periodic health checking.
type HealthCheckConfig struct {
	// Interval between checks. Default: 30 seconds
	Interval time.Duration

	// Timeout for a single probe invocation. Default: 5 seconds
	Timeout time.Duration

	// Retries is the number of probe attempts per check. Default: 3
	Retries int

	// Disabled turns off periodic health checking for the whole registry.
	Disabled bool
}

// LoadBalancingConfig configures instance selection.
type LoadBalancingConfig struct {
	// Strategy picks among available instances. Default: round-robin
	Strategy Strategy

	// StickySession makes Select keep returning the current instance
	// while it stays available. Default: false
	StickySession bool
}

// FailoverConfig configures failover on operation failure.
type FailoverConfig struct {
	// Disabled turns off failover entirely.
	Disabled bool

	// MaxFailures is the consecutive-failure count that trips an
	// instance's circuit breaker. Default: 3
	MaxFailures int

	// RetryInterval is how long a tripped instance stays rejected before
	// a probe request is allowed through. Default: 60 seconds
	RetryInterval time.Duration

	// BackupInstances are tried first, in listed order, when an
	// operation fails.
	BackupInstances []string
}

// Config configures a Registry.
type Config struct {
	// DefaultInstance names the instance that becomes current when
	// registered. When empty the first registered instance is current.
	DefaultInstance string

	HealthCheck   HealthCheckConfig
	LoadBalancing LoadBalancingConfig
	Failover      FailoverConfig

	// Logger receives structured registry events. Default: discard
	Logger observe.Logger

	// Metrics receives per-operation measurements. Default: discard
	Metrics observe.Metrics
}

func (c Config) withDefaults() Config {
	if c.HealthCheck.Interval <= 0 {
		c.HealthCheck.Interval = 30 * time.Second
	}
	if c.HealthCheck.Timeout <= 0 {
		c.HealthCheck.Timeout = 5 * time.Second
	}
	if c.HealthCheck.Retries <= 0 {
		c.HealthCheck.Retries = 3
	}
	if c.LoadBalancing.Strategy == "" {
		c.LoadBalancing.Strategy = StrategyRoundRobin
	}
	if c.Failover.MaxFailures <= 0 {
		c.Failover.MaxFailures = 3
	}
	if c.Failover.RetryInterval <= 0 {
		c.Failover.RetryInterval = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = observe.NopLogger()
	}
	if c.Metrics == nil {
		c.Metrics = observe.NopMetrics()
	}
	return c
}

// Validate reports configuration mistakes that cannot be defaulted away.
func (c Config) Validate() error {
	if c.LoadBalancing.Strategy != "" && !c.LoadBalancing.Strategy.valid() {
		return fault.Validationf("unknown load balancing strategy %q", c.LoadBalancing.Strategy)
	}
	return nil
}

// EndpointConfig describes one instance to register.
type EndpointConfig struct {
	// Name uniquely identifies the instance within its registry.
	Name string

	// URL is the instance endpoint, passed through to operations.
	URL string

	// Tags restrict selection: Select(tags...) only considers instances
	// whose tag set intersects the requested tags.
	Tags []string

	// Priority orders instances under the priority strategy. Higher wins.
	// Default: 0
	Priority int

	// Timeout bounds each operation against this instance. Zero means
	// no per-operation deadline.
	Timeout time.Duration

	// MaxConcurrent bounds in-flight operations against this instance.
	// Zero means unbounded.
	MaxConcurrent int

	// DisableHealthCheck turns off periodic health checking for this
	// instance only.
	DisableHealthCheck bool

	// Probe reports whether the instance is reachable. Instances without
	// a probe report healthy.
	Probe health.Probe
}

func (c EndpointConfig) validate() error {
	if c.Name == "" {
		return fault.Validation("instance name is required")
	}
	return nil
}

// hasAnyTag reports whether the instance's tag set intersects tags.
// An empty filter matches everything.
func (c EndpointConfig) hasAnyTag(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, have := range c.Tags {
			if want == have {
				return true
			}
		}
	}
	return false
}
