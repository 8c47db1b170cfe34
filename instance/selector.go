package instance

import (
	"math/rand/v2"

	"github.com/toolfleet/toolfleet/fault"
)

// Select picks an available instance, optionally filtered to those whose
// tags intersect the requested ones, using the configured strategy. With
// sticky sessions enabled the current instance is returned as long as it
// stays available and matches the filter.
func (r *Registry) Select(tags ...string) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config.LoadBalancing.StickySession && r.current != "" {
		if inst := r.instances[r.current]; inst != nil && inst.Available() && inst.config.hasAnyTag(tags) {
			return inst, nil
		}
	}

	candidates := make([]*Instance, 0, len(r.order))
	for _, name := range r.order {
		inst := r.instances[name]
		if inst.Available() && inst.config.hasAnyTag(tags) {
			candidates = append(candidates, inst)
		}
	}
	if len(candidates) == 0 {
		return nil, fault.Connection("no available instances match the request")
	}

	switch r.config.LoadBalancing.Strategy {
	case StrategyPriority:
		return selectPriority(candidates), nil
	case StrategyLeastConnections:
		return selectLeastConnections(candidates), nil
	case StrategyRandom:
		return candidates[rand.IntN(len(candidates))], nil
	default:
		// Round-robin over the current candidate list. The counter is
		// monotonic and deliberately not normalized when the candidate
		// set changes size, so the cyclic position can jump.
		idx := int(r.rrCounter % uint64(len(candidates)))
		r.rrCounter++
		return candidates[idx], nil
	}
}

// selectPriority returns the candidate with the highest configured
// priority. Ties go to the earliest registered.
func selectPriority(candidates []*Instance) *Instance {
	best := candidates[0]
	for _, inst := range candidates[1:] {
		if inst.config.Priority > best.config.Priority {
			best = inst
		}
	}
	return best
}

// selectLeastConnections returns the candidate with the fewest in-flight
// requests. Ties go to the earliest registered.
func selectLeastConnections(candidates []*Instance) *Instance {
	best := candidates[0]
	bestInFlight := best.Stats().InFlight()
	for _, inst := range candidates[1:] {
		if inFlight := inst.Stats().InFlight(); inFlight < bestInFlight {
			best = inst
			bestInFlight = inFlight
		}
	}
	return best
}
