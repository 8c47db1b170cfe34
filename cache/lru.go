package cache

import (
	"container/list"
	"sync"
)

// DefaultMaxSize is the capacity used when a bounded cache is configured
// without one.
const DefaultMaxSize = 1000

// LRU is a fixed-capacity key/value store that evicts the least-recently-used
// entry on overflow. Get and Set on an existing key mark it most recently
// used; every other operation leaves recency untouched. Entries never expire.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	items   map[K]*list.Element
	order   *list.List // front is least recently used
	onEvict func(K, V)
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU creates an LRU cache holding at most maxSize entries.
// onEvict, if non-nil, is called with the evicted key and value after the
// cache lock is released, so the callback may use the cache. A non-positive
// maxSize uses DefaultMaxSize.
func NewLRU[K comparable, V any](maxSize int, onEvict func(K, V)) *LRU[K, V] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	return &LRU[K, V]{
		maxSize: maxSize,
		items:   make(map[K]*list.Element),
		order:   list.New(),
		onEvict: onEvict,
	}
}

// Set stores a value, marking the key most recently used.
// Inserting a new key at capacity evicts the least-recently-used entry first.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruEntry[K, V]).value = value
		c.order.MoveToBack(elem)
		c.mu.Unlock()
		return
	}

	var evicted *lruEntry[K, V]
	if c.order.Len() >= c.maxSize {
		evicted = c.evictOldestLocked()
	}

	c.items[key] = c.order.PushBack(&lruEntry[K, V]{key: key, value: value})
	c.mu.Unlock()

	if evicted != nil && c.onEvict != nil {
		c.onEvict(evicted.key, evicted.value)
	}
}

// Get retrieves a value, marking the key most recently used on a hit.
// A miss has no side effect.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	c.order.MoveToBack(elem)
	return elem.Value.(*lruEntry[K, V]).value, true
}

// Has reports whether key is present, without touching recency.
func (c *LRU[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[key]
	return ok
}

// Delete removes an entry without invoking the eviction callback. Idempotent.
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.Remove(elem)
		delete(c.items, key)
	}
}

// Clear removes all entries without invoking the eviction callback.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.order.Init()
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Keys returns all keys ordered from least to most recently used.
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*lruEntry[K, V]).key)
	}
	return keys
}

// Values returns all values ordered from least to most recently used.
func (c *LRU[K, V]) Values() []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	values := make([]V, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		values = append(values, elem.Value.(*lruEntry[K, V]).value)
	}
	return values
}

// evictOldestLocked removes the least-recently-used entry and returns it so
// the caller can fire the eviction callback once the lock is released.
func (c *LRU[K, V]) evictOldestLocked() *lruEntry[K, V] {
	oldest := c.order.Front()
	if oldest == nil {
		return nil
	}

	entry := oldest.Value.(*lruEntry[K, V])
	c.order.Remove(oldest)
	delete(c.items, entry.key)
	return entry
}
