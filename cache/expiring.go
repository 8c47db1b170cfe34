package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the entry lifetime used when a cache is configured without one.
const DefaultTTL = 5 * time.Minute

// ExpiringConfig configures an Expiring cache.
type ExpiringConfig struct {
	// DefaultTTL is the lifetime applied by Set. Default: 5 minutes.
	DefaultTTL time.Duration

	// Now is the clock source used for expiry decisions.
	// Default: time.Now. Injected so tests can run on a fake clock.
	Now func() time.Time
}

// Expiring is a key/value store with per-entry expiry.
//
// Expiry is lazy: an expired entry is purged when it is read or when
// Cleanup runs. Len, Keys and Values run Cleanup first so they report
// accurate counts despite the lazy policy.
type Expiring[K comparable, V any] struct {
	mu         sync.Mutex
	entries    map[K]expiringEntry[V]
	defaultTTL time.Duration
	now        func() time.Time
}

type expiringEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewExpiring creates a new expiring cache.
func NewExpiring[K comparable, V any](config ExpiringConfig) *Expiring[K, V] {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Expiring[K, V]{
		entries:    make(map[K]expiringEntry[V]),
		defaultTTL: config.DefaultTTL,
		now:        config.Now,
	}
}

// Set stores a value with the default TTL, overwriting any existing entry.
func (c *Expiring[K, V]) Set(key K, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores a value with an explicit TTL, overwriting any existing entry.
// A non-positive ttl falls back to the default.
func (c *Expiring[K, V]) SetTTL(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	c.entries[key] = expiringEntry[V]{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

// Get retrieves a value. Returns (zero, false) on miss or expiry.
// Reading an expired key purges it.
func (c *Expiring[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}

	return entry.value, true
}

// Has reports whether a live entry exists for key.
// Like Get, it purges the entry if it has expired.
func (c *Expiring[K, V]) Has(key K) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes an entry. Idempotent.
func (c *Expiring[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all entries.
func (c *Expiring[K, V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[K]expiringEntry[V])
	c.mu.Unlock()
}

// Cleanup removes all expired entries in one scan.
func (c *Expiring[K, V]) Cleanup() {
	c.mu.Lock()
	c.cleanupLocked()
	c.mu.Unlock()
}

func (c *Expiring[K, V]) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of live entries, purging expired ones first.
func (c *Expiring[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	return len(c.entries)
}

// Keys returns the keys of all live entries, purging expired ones first.
func (c *Expiring[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	keys := make([]K, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// Values returns the values of all live entries, purging expired ones first.
func (c *Expiring[K, V]) Values() []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	values := make([]V, 0, len(c.entries))
	for _, entry := range c.entries {
		values = append(values, entry.value)
	}
	return values
}
