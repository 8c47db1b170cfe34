// Package observe provides observability primitives for instance fleets.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wire the observer into the instance
// registry or their own middleware.
package observe
