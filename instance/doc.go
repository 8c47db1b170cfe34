// Package instance manages a fleet of named service instances: registration,
// health checking, load-balanced selection, and failover execution.
//
// An Instance wraps one endpoint with its health state, administrative
// enable/disable flag, and request statistics. A Registry holds instances by
// unique name, tracks a current instance, and selects among the available
// ones using a configurable strategy. When an operation against the selected
// instance fails, the registry can fail over to backup instances and then to
// every other available instance.
//
//	reg, err := instance.NewRegistry(instance.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reg.Add(instance.EndpointConfig{Name: "primary", URL: "http://primary:9000"})
//	reg.Add(instance.EndpointConfig{Name: "backup", URL: "http://backup:9000"})
//	defer reg.Close()
//
//	result, err := reg.Execute(ctx, func(ctx context.Context, inst *instance.Instance) (any, error) {
//	    return client.Call(ctx, inst.URL())
//	}, instance.ExecuteOptions{})
//
// Health checking is driven by a per-instance probe collaborator. Instances
// without a probe report healthy. Probe timers must be stopped before
// shutdown; Registry.Close and Registry.Remove do this.
package instance
