// Package lockcache provides an exact-LRU cache behind a single lock.
//
// It is the comparison baseline for the sharded engine in package cache:
// a hash map plus a doubly linked recency list, every operation serialized
// by one mutex. Recency order is exact, and every access pays for it.
package lockcache

import (
	"container/list"
	"sync"
)

// entry is the payload stored in each recency-list element.
type entry struct {
	key   uint64
	value uint64
}

// Cache is a fixed-capacity key/value cache with exact LRU eviction.
// All operations, reads included, take the cache-wide lock: a Get moves the
// entry to the front of the recency list, which is a mutation.
type Cache struct {
	capacity int
	mu       sync.Mutex
	items    map[uint64]*list.Element
	order    *list.List // front = most recent, back = least recent
}

// New creates a cache holding at most capacity entries.
// Panics if capacity == 0.
func New(capacity int) *Cache {
	if capacity <= 0 {
		panic("lockcache: capacity must be positive")
	}
	return &Cache{
		capacity: capacity,
		items:    make(map[uint64]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the value stored under key and marks it most recently used.
func (c *Cache) Get(key uint64) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return 0, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*entry).value, true
}

// Put stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *Cache) Put(key, value uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*entry).value = value
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}

	c.items[key] = c.order.PushFront(&entry{key: key, value: value})
}

// Remove deletes key and returns the value it held.
func (c *Cache) Remove(key uint64) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return 0, false
	}
	c.order.Remove(elem)
	delete(c.items, key)
	return elem.Value.(*entry).value, true
}

// Contains reports whether key is present without touching recency order.
func (c *Cache) Contains(key uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[key]
	return ok
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// IsEmpty reports whether the cache holds no entries.
func (c *Cache) IsEmpty() bool { return c.Len() == 0 }

// Capacity returns the fixed maximum number of entries.
func (c *Cache) Capacity() int { return c.capacity }

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[uint64]*list.Element, c.capacity)
	c.order.Init()
}
