// Package fault provides the shared error taxonomy for toolfleet components.
//
// Errors carry a Kind, a human-readable message, optional structured details,
// and a retryability hint. Components classify failures with the constructors
// here instead of defining their own error hierarchies, so callers can make
// retry and failover decisions uniformly:
//
//	inst, err := registry.Select()
//	if fault.KindIs(err, fault.KindConnection) {
//	    // no instance available right now
//	}
//
// Arbitrary errors crossing a component boundary are normalized with Convert.
package fault
