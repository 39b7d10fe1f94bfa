package cache

import (
	"math"
	"sync/atomic"
)

// Stats is a point-in-time snapshot of cache-wide counters. The counters are
// maintained with atomic adds on the hot paths, so a snapshot taken under
// concurrent load is approximate across fields but never torn within one.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Puts      uint64 `json:"puts"`
	Evictions uint64 `json:"evictions"`
	Removes   uint64 `json:"removes"`
}

// Entry is a copied-out view of one occupied slot. Entries are values, never
// references into the slot table.
type Entry struct {
	Key   uint64 `json:"key"`
	Value uint64 `json:"value"`
	Hits  uint64 `json:"hits"`
}

// Cache is a fixed-capacity, concurrently accessible key/value cache.
//
// The slot table is partitioned into folds, each guarded by its own mutex.
// Reads route to a fold and scan it without locking: the key is loaded, the
// value is loaded, and the key is loaded again; the value is accepted only if
// both key loads agree. Writes hold the fold lock and publish in three
// phases (clear key, store value, store key), so a concurrent reader can see
// a slot as empty, fully old, or fully new, but never as a mismatched pair.
//
// Eviction is approximate LRU: each slot counts hits since it was last
// occupied, and a full fold evicts the slot with the fewest hits. A key read
// heavily long ago can therefore outlive a key written recently; that is the
// price of keeping the read path free of any ordering structure.
//
// Key 0 is reserved as the empty-slot sentinel. Operations given key 0
// behave as if the key were absent.
type Cache struct {
	capacity int
	slots    []slot
	folds    []fold
	route    Router

	hits      atomic.Uint64
	misses    atomic.Uint64
	puts      atomic.Uint64
	evictions atomic.Uint64
	removes   atomic.Uint64
}

// New creates a cache with the given total capacity split across numFolds
// folds. A nil router falls back to DefaultRouter.
//
// Panics if capacity == 0, numFolds == 0, or capacity < numFolds; every fold
// must own at least one slot.
func New(capacity, numFolds int, router Router) *Cache {
	if capacity <= 0 {
		panic("cache: capacity must be positive")
	}
	if numFolds <= 0 {
		panic("cache: numFolds must be positive")
	}
	if capacity < numFolds {
		panic("cache: capacity must be >= numFolds")
	}
	if router == nil {
		router = DefaultRouter
	}

	return &Cache{
		capacity: capacity,
		slots:    make([]slot, capacity),
		folds:    foldRanges(capacity, numFolds),
		route:    router,
	}
}

func (c *Cache) foldFor(key uint64) *fold {
	return &c.folds[c.route(key)%uint64(len(c.folds))]
}

// Get returns the value stored under key. It never blocks and never acquires
// a lock: the key's fold is scanned with a double-checked load protocol, and
// a slot repurposed mid-read is treated as a miss for that slot rather than
// retried. A race with a writer can cost a spurious miss, never a torn or
// cross-key value.
func (c *Cache) Get(key uint64) (uint64, bool) {
	if key == emptyKey {
		return 0, false
	}

	f := c.foldFor(key)
	for i := f.start; i < f.end; i++ {
		s := &c.slots[i]

		k1 := s.key.Load()
		if k1 != key {
			continue
		}
		v := s.value.Load()
		if s.key.Load() != k1 {
			// The slot was repurposed between the two key loads; the value
			// read above may belong to another key. Discard it.
			continue
		}

		s.hits.Add(1)
		c.hits.Add(1)
		return v, true
	}

	c.misses.Add(1)
	return 0, false
}

// Contains reports whether key is currently present. It performs only key
// loads: no value read, no hit-count update, no lock.
func (c *Cache) Contains(key uint64) bool {
	if key == emptyKey {
		return false
	}

	f := c.foldFor(key)
	for i := f.start; i < f.end; i++ {
		if c.slots[i].key.Load() == key {
			return true
		}
	}
	return false
}

// Put stores value under key, evicting the least-hit slot of the key's fold
// if the fold is full. Writers to other folds proceed in parallel; readers
// of the same fold are never blocked.
//
// Put with key 0 is a no-op.
func (c *Cache) Put(key, value uint64) {
	if key == emptyKey {
		return
	}

	f := c.foldFor(key)
	f.mu.Lock()
	defer f.mu.Unlock()

	emptyIdx := -1
	victimIdx := f.start
	victimHits := uint64(math.MaxUint64)

	for i := f.start; i < f.end; i++ {
		s := &c.slots[i]

		switch k := s.key.Load(); {
		case k == key:
			// Same key: update in place, no occupancy change.
			s.value.Store(value)
			s.hits.Add(1)
			c.puts.Add(1)
			return
		case k == emptyKey:
			if emptyIdx < 0 {
				emptyIdx = i
			}
		default:
			// Strict less-than keeps the first slot with the minimum hit
			// count as the victim when counts tie.
			if h := s.hits.Load(); h < victimHits {
				victimHits = h
				victimIdx = i
			}
		}
	}

	target := victimIdx
	if emptyIdx >= 0 {
		target = emptyIdx
	} else {
		c.evictions.Add(1)
	}

	// Three-phase publish. Clearing the key first makes the slot look empty
	// to concurrent readers while the value changes, so no reader can pair
	// the old key with the new value or the new key with the old one.
	s := &c.slots[target]
	s.key.Store(emptyKey)
	s.value.Store(value)
	s.key.Store(key)
	s.hits.Store(1)
	c.puts.Add(1)
}

// Remove deletes key from the cache and returns the value it held. Vacating
// a slot only clears the key, so no mismatched key/value pair can become
// visible and the three-phase protocol is not needed here.
func (c *Cache) Remove(key uint64) (uint64, bool) {
	if key == emptyKey {
		return 0, false
	}

	f := c.foldFor(key)
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := f.start; i < f.end; i++ {
		s := &c.slots[i]
		if s.key.Load() != key {
			continue
		}

		v := s.value.Load()
		s.key.Store(emptyKey)
		s.hits.Store(0)
		c.removes.Add(1)
		return v, true
	}
	return 0, false
}

// Clear empties the cache fold by fold, in index order, holding one fold
// lock at a time. Concurrent writers to a not-yet-cleared fold may still
// complete first, and concurrent readers may observe a partially cleared
// cache; Clear offers no atomicity across folds.
func (c *Cache) Clear() {
	for fi := range c.folds {
		f := &c.folds[fi]
		f.mu.Lock()
		for i := f.start; i < f.end; i++ {
			c.slots[i].key.Store(emptyKey)
			c.slots[i].hits.Store(0)
		}
		f.mu.Unlock()
	}
}

// Len counts occupied slots across the whole table without locking. Under
// concurrent mutation the count is an approximation, bounded above by the
// capacity; callers must not treat it as exact.
func (c *Cache) Len() int {
	n := 0
	for i := range c.slots {
		if c.slots[i].key.Load() != emptyKey {
			n++
		}
	}
	return n
}

// IsEmpty reports whether Len is zero, with the same approximation caveat.
func (c *Cache) IsEmpty() bool { return c.Len() == 0 }

// Capacity returns the fixed total number of slots.
func (c *Cache) Capacity() int { return c.capacity }

// Folds returns the number of folds the slot table is partitioned into.
func (c *Cache) Folds() int { return len(c.folds) }

// Stats returns the cache-wide counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Puts:      c.puts.Load(),
		Evictions: c.evictions.Load(),
		Removes:   c.removes.Load(),
	}
}

// Snapshot copies out every occupied slot using the same double-checked
// protocol as Get, without bumping hit counters. Like Len, the result is not
// a consistent cross-fold snapshot under concurrent writes.
func (c *Cache) Snapshot() []Entry {
	entries := make([]Entry, 0, c.capacity)
	for i := range c.slots {
		s := &c.slots[i]

		k := s.key.Load()
		if k == emptyKey {
			continue
		}
		v := s.value.Load()
		h := s.hits.Load()
		if s.key.Load() != k {
			continue
		}

		entries = append(entries, Entry{Key: k, Value: v, Hits: h})
	}
	return entries
}
