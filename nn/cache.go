package nn

import (
	"container/list"
	"sync"

	"mctscore/position"
)

// CacheEntry is one evaluated position's result, immutable once inserted
// (matching lc0's CachedNNRequest: once a hash is in cache, its Q/P never
// change for the lifetime of the entry).
type CacheEntry struct {
	Q float64
	P map[uint16]float64
}

// Cache is a capacity-bounded, position-hash-keyed LRU. Grounded on the
// teacher's pack neighbors: the stripe-locked transposition table idiom in
// TheKrainBow-gomoku's backend/tt.go and the pooled-entry LRU in
// other_examples/freeeve-chessgraph's tablebase_pool.go. No example in the
// pack ships an importable generic LRU package, so this is built on
// container/list + sync, the same combination the teacher itself reaches
// for whenever it needs anything list-like (stdlib by necessity, not by
// default).
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[position.Hash]*list.Element
	order    *list.List // front = most recently used
}

type cacheItem struct {
	key   position.Hash
	entry CacheEntry
}

// NewCache creates a cache holding at most capacity entries.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[position.Hash]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get looks up a hash, promoting it to most-recently-used on a hit.
func (c *Cache) Get(h position.Hash) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[h]
	if !ok {
		return CacheEntry{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheItem).entry, true
}

// Put inserts or overwrites an entry, evicting the least-recently-used
// entry if the cache is at capacity. Overwriting an existing hash is only
// expected for cache warm-up races, not as normal operation (entries are
// immutable once inserted in practice).
func (c *Cache) Put(h position.Hash, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[h]; ok {
		el.Value.(*cacheItem).entry = entry
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		back := c.order.Back()
		if back != nil {
			c.order.Remove(back)
			delete(c.entries, back.Value.(*cacheItem).key)
		}
	}

	el := c.order.PushFront(&cacheItem{key: h, entry: entry})
	c.entries[h] = el
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the configured maximum entry count.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Hashfull reports fullness per mille (0-1000), the unit the host protocol
// reports cache occupancy in (search.cc's SendUciInfo: cache.size*1000 /
// max(capacity,1)).
func (c *Cache) Hashfull() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capacity == 0 {
		return 0
	}
	return c.order.Len() * 1000 / c.capacity
}
