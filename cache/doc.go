// Package cache provides the caching primitives shared by toolfleet servers.
//
// Four cache strategies are available, imported à la carte:
//
//   - Expiring: per-entry TTL with lazy expiry on read.
//   - LRU: fixed capacity, least-recently-used eviction.
//   - TTLLRU: both policies combined; expiry wins over capacity, and the
//     capacity-eviction candidate is the entry closest to expiring.
//   - FetchCache: a TTLLRU front for a bulk fetcher, coalescing concurrent
//     lookups issued within a short window into a single batched fetch.
//
// Loader adds single-key read-through loading with request deduplication.
// For caching tool execution results, Middleware wraps an executor with a
// byte-oriented Cache, deterministic SHA-256 keys (Keyer), and TTL policy.
//
// All caches are safe for concurrent use. A miss is a valid return value,
// never an error. Expiry is enforced lazily on read or explicit Cleanup;
// no cache runs a background timer of its own.
package cache
