package cache

import (
	"container/list"
	"sync"
	"time"
)

// TTLLRUConfig configures a TTLLRU cache.
type TTLLRUConfig[K comparable, V any] struct {
	// TTL is the default entry lifetime. Default: 5 minutes.
	TTL time.Duration

	// MaxSize is the entry capacity. Default: 1000.
	MaxSize int

	// OnEvict is called for entries removed by Cleanup or by capacity
	// eviction. It is NOT called when Get discards an entry it found
	// expired; only the cleanup and capacity paths report evictions.
	// The callback runs after the cache lock is released and may use
	// the cache.
	OnEvict func(K, V)

	// Now is the clock source used for expiry decisions. Default: time.Now.
	Now func() time.Time
}

// TTLLRU combines expiry and capacity bounds. Expiry dominates: Set purges
// expired entries before considering capacity, and when the cache is still
// full the eviction candidate is the entry with the earliest expiry, not the
// least recently used one. Recency is tracked on Get and Set but serves only
// as bookkeeping.
type TTLLRU[K comparable, V any] struct {
	mu      sync.Mutex
	items   map[K]*list.Element
	order   *list.List // front is least recently used
	ttl     time.Duration
	maxSize int
	onEvict func(K, V)
	now     func() time.Time
}

type ttlEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// NewTTLLRU creates a new combined TTL+LRU cache.
func NewTTLLRU[K comparable, V any](config TTLLRUConfig[K, V]) *TTLLRU[K, V] {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultMaxSize
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &TTLLRU[K, V]{
		items:   make(map[K]*list.Element),
		order:   list.New(),
		ttl:     config.TTL,
		maxSize: config.MaxSize,
		onEvict: config.OnEvict,
		now:     config.Now,
	}
}

// Set stores a value with the default TTL.
func (c *TTLLRU[K, V]) Set(key K, value V) {
	c.SetTTL(key, value, c.ttl)
}

// SetTTL stores a value with an explicit TTL. Expired entries are purged
// first; if the cache is still at capacity and the key is new, the entry
// closest to expiring is evicted to make room.
func (c *TTLLRU[K, V]) SetTTL(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	evicted := c.cleanupLocked()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*ttlEntry[K, V])
		entry.value = value
		entry.expiresAt = c.now().Add(ttl)
		c.order.MoveToBack(elem)
		c.mu.Unlock()
		c.fireEvictions(evicted)
		return
	}

	if c.order.Len() >= c.maxSize {
		if victim := c.evictNearestExpiryLocked(); victim != nil {
			evicted = append(evicted, *victim)
		}
	}

	c.items[key] = c.order.PushBack(&ttlEntry[K, V]{
		key:       key,
		value:     value,
		expiresAt: c.now().Add(ttl),
	})
	c.mu.Unlock()

	c.fireEvictions(evicted)
}

// Get retrieves a value, marking the key most recently used on a hit.
// An expired entry is deleted and reported as a miss; the eviction callback
// is not invoked on this path.
func (c *TTLLRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	entry := elem.Value.(*ttlEntry[K, V])
	if c.now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.items, key)
		var zero V
		return zero, false
	}

	c.order.MoveToBack(elem)
	return entry.value, true
}

// Has reports whether a live entry exists for key.
func (c *TTLLRU[K, V]) Has(key K) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes an entry without invoking the eviction callback. Idempotent.
func (c *TTLLRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.Remove(elem)
		delete(c.items, key)
	}
}

// Clear removes all entries without invoking the eviction callback.
func (c *TTLLRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.order.Init()
}

// Cleanup removes all expired entries, invoking the eviction callback for
// each one purged.
func (c *TTLLRU[K, V]) Cleanup() {
	c.mu.Lock()
	evicted := c.cleanupLocked()
	c.mu.Unlock()

	c.fireEvictions(evicted)
}

// Len returns the number of live entries, purging expired ones first.
func (c *TTLLRU[K, V]) Len() int {
	c.mu.Lock()
	evicted := c.cleanupLocked()
	n := c.order.Len()
	c.mu.Unlock()

	c.fireEvictions(evicted)
	return n
}

// Keys returns the live keys ordered from least to most recently used,
// purging expired entries first.
func (c *TTLLRU[K, V]) Keys() []K {
	c.mu.Lock()
	evicted := c.cleanupLocked()
	keys := make([]K, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*ttlEntry[K, V]).key)
	}
	c.mu.Unlock()

	c.fireEvictions(evicted)
	return keys
}

// cleanupLocked purges expired entries and returns them so the caller can
// fire the eviction callback once the lock is released.
func (c *TTLLRU[K, V]) cleanupLocked() []ttlEntry[K, V] {
	var evicted []ttlEntry[K, V]
	now := c.now()
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		entry := elem.Value.(*ttlEntry[K, V])
		if now.After(entry.expiresAt) {
			c.order.Remove(elem)
			delete(c.items, entry.key)
			if c.onEvict != nil {
				evicted = append(evicted, *entry)
			}
		}
		elem = next
	}
	return evicted
}

// evictNearestExpiryLocked scans all entries and removes the one with the
// earliest expiry, returning it for the caller to report.
func (c *TTLLRU[K, V]) evictNearestExpiryLocked() *ttlEntry[K, V] {
	var victim *list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if victim == nil || elem.Value.(*ttlEntry[K, V]).expiresAt.Before(victim.Value.(*ttlEntry[K, V]).expiresAt) {
			victim = elem
		}
	}
	if victim == nil {
		return nil
	}

	entry := victim.Value.(*ttlEntry[K, V])
	c.order.Remove(victim)
	delete(c.items, entry.key)
	return entry
}

func (c *TTLLRU[K, V]) fireEvictions(entries []ttlEntry[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, entry := range entries {
		c.onEvict(entry.key, entry.value)
	}
}
