package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	c := New(10, 4, nil)
	if c == nil {
		t.Fatal("New returned nil")
	}
	if c.Capacity() != 10 {
		t.Errorf("Expected capacity 10, got %d", c.Capacity())
	}
	if c.Folds() != 4 {
		t.Errorf("Expected 4 folds, got %d", c.Folds())
	}
	if !c.IsEmpty() {
		t.Error("New cache should be empty")
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cases := []struct {
		name     string
		capacity int
		folds    int
	}{
		{"zero capacity", 0, 1},
		{"zero folds", 10, 0},
		{"more folds than slots", 2, 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("New(%d, %d) should panic", tc.capacity, tc.folds)
				}
			}()
			New(tc.capacity, tc.folds, nil)
		})
	}
}

func TestFoldRanges(t *testing.T) {
	// 10 slots over 4 folds: 2,2,2 and the last fold absorbs the remainder.
	folds := foldRanges(10, 4)

	if len(folds) != 4 {
		t.Fatalf("Expected 4 folds, got %d", len(folds))
	}

	expected := [][2]int{{0, 2}, {2, 4}, {4, 6}, {6, 10}}
	for i, want := range expected {
		if folds[i].start != want[0] || folds[i].end != want[1] {
			t.Errorf("Fold %d: expected [%d,%d), got [%d,%d)",
				i, want[0], want[1], folds[i].start, folds[i].end)
		}
	}
}

func TestPutGet(t *testing.T) {
	c := New(8, 2, nil)

	c.Put(1, 100)
	v, ok := c.Get(1)
	if !ok {
		t.Fatal("Get(1) should hit after Put(1, 100)")
	}
	if v != 100 {
		t.Errorf("Expected 100, got %d", v)
	}

	if _, ok := c.Get(2); ok {
		t.Error("Get(2) should miss")
	}
}

func TestPutUpdatesExistingKey(t *testing.T) {
	c := New(4, 1, IdentityRouter)

	c.Put(1, 100)
	c.Put(1, 200)

	if v, _ := c.Get(1); v != 200 {
		t.Errorf("Expected updated value 200, got %d", v)
	}
	if c.Len() != 1 {
		t.Errorf("Update should not add a slot, len = %d", c.Len())
	}
}

func TestSentinelKeyRejected(t *testing.T) {
	c := New(4, 2, nil)

	c.Put(0, 42)
	if c.Len() != 0 {
		t.Error("Put(0, ...) must not store anything")
	}
	if _, ok := c.Get(0); ok {
		t.Error("Get(0) must report absent")
	}
	if _, ok := c.Remove(0); ok {
		t.Error("Remove(0) must report absent")
	}
	if c.Contains(0) {
		t.Error("Contains(0) must be false")
	}
}

func TestContains(t *testing.T) {
	c := New(4, 2, nil)

	c.Put(7, 70)
	if !c.Contains(7) {
		t.Error("Contains(7) should be true")
	}
	if c.Contains(8) {
		t.Error("Contains(8) should be false")
	}
}

func TestRemove(t *testing.T) {
	c := New(4, 2, nil)

	c.Put(5, 50)
	v, ok := c.Remove(5)
	if !ok {
		t.Fatal("Remove(5) should find the key")
	}
	if v != 50 {
		t.Errorf("Remove(5) should return 50, got %d", v)
	}
	if _, ok := c.Get(5); ok {
		t.Error("Get(5) should miss after Remove")
	}
	if c.Len() != 0 {
		t.Errorf("Expected empty cache, len = %d", c.Len())
	}

	if _, ok := c.Remove(5); ok {
		t.Error("Second Remove(5) should report absent")
	}
}

func TestEvictionTieBreaksOnLowestIndex(t *testing.T) {
	c := New(2, 1, IdentityRouter)

	c.Put(1, 100)
	if v, _ := c.Get(1); v != 100 {
		t.Fatal("Get(1) should return 100")
	}
	c.Put(2, 200)
	if v, _ := c.Get(2); v != 200 {
		t.Fatal("Get(2) should return 200")
	}

	// Both slots now carry hit count 2 (publish sets 1, the Get adds 1).
	// The tie must break toward the lower index, evicting key 1.
	c.Put(3, 300)

	if _, ok := c.Get(1); ok {
		t.Error("Key 1 should have been evicted")
	}
	if v, _ := c.Get(2); v != 200 {
		t.Error("Key 2 should have survived")
	}
	if v, _ := c.Get(3); v != 300 {
		t.Error("Key 3 should be present")
	}
}

func TestEvictionPrefersFewestHits(t *testing.T) {
	c := New(2, 1, IdentityRouter)

	c.Put(1, 100)
	c.Put(2, 200)

	// Pull key 2's hit count ahead so key 1 becomes the victim even though
	// it sits at the lower index.
	c.Get(2)
	c.Get(2)
	c.Get(1)

	c.Put(3, 300)

	if _, ok := c.Get(1); ok {
		t.Error("Key 1 had the fewest hits and should have been evicted")
	}
	if !c.Contains(2) {
		t.Error("Key 2 should have survived")
	}
}

func TestSingleSlotEviction(t *testing.T) {
	c := New(1, 1, IdentityRouter)

	c.Put(1, 100)
	c.Put(2, 200)

	if _, ok := c.Get(1); ok {
		t.Error("Key 1 should have been evicted from the only slot")
	}
	if v, _ := c.Get(2); v != 200 {
		t.Errorf("Expected 200 for key 2, got %d", v)
	}
}

func TestEvictionStaysWithinFold(t *testing.T) {
	// Identity routing: even keys land in fold 0, odd keys in fold 1.
	c := New(4, 2, IdentityRouter)

	c.Put(2, 20)
	c.Put(4, 40)
	c.Put(1, 10)

	// Fold 0 is full; a third even key must evict an even key, never an odd.
	c.Put(6, 60)

	if !c.Contains(1) {
		t.Error("Eviction in fold 0 must not touch fold 1")
	}
	if !c.Contains(6) {
		t.Error("Key 6 should be present after eviction")
	}
	if c.Contains(2) && c.Contains(4) {
		t.Error("One of the even keys should have been evicted")
	}
}

func TestCapacityBound(t *testing.T) {
	c := New(8, 4, nil)

	for k := uint64(1); k <= 100; k++ {
		c.Put(k, k)
		if n := c.Len(); n > c.Capacity() {
			t.Fatalf("Len %d exceeds capacity %d", n, c.Capacity())
		}
	}
}

func TestClear(t *testing.T) {
	c := New(8, 4, nil)

	for k := uint64(1); k <= 8; k++ {
		c.Put(k, k*10)
	}
	if c.Len() == 0 {
		t.Fatal("Cache should be populated before Clear")
	}

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Expected len 0 after Clear, got %d", c.Len())
	}
	for k := uint64(1); k <= 8; k++ {
		if _, ok := c.Get(k); ok {
			t.Errorf("Key %d should be absent after Clear", k)
		}
	}

	// Clear on an empty cache is a no-op.
	c.Clear()
	if c.Len() != 0 {
		t.Error("Second Clear should leave the cache empty")
	}
}

func TestStats(t *testing.T) {
	c := New(2, 1, IdentityRouter)

	c.Put(1, 100)
	c.Get(1)
	c.Get(9)
	c.Put(2, 200)
	c.Put(3, 300) // evicts
	c.Remove(3)

	s := c.Stats()
	if s.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", s.Hits)
	}
	if s.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", s.Misses)
	}
	if s.Puts != 3 {
		t.Errorf("Expected 3 puts, got %d", s.Puts)
	}
	if s.Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", s.Evictions)
	}
	if s.Removes != 1 {
		t.Errorf("Expected 1 remove, got %d", s.Removes)
	}
}

func TestSnapshot(t *testing.T) {
	c := New(4, 2, nil)

	c.Put(1, 10)
	c.Put(2, 20)
	c.Get(2)

	entries := c.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	byKey := make(map[uint64]Entry, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e
	}
	if byKey[1].Value != 10 {
		t.Errorf("Entry for key 1: expected value 10, got %d", byKey[1].Value)
	}
	if byKey[2].Value != 20 {
		t.Errorf("Entry for key 2: expected value 20, got %d", byKey[2].Value)
	}
	if byKey[2].Hits != 2 {
		t.Errorf("Entry for key 2: expected 2 hits, got %d", byKey[2].Hits)
	}
}

func TestDefaultRouterDeterministic(t *testing.T) {
	for k := uint64(1); k < 1000; k++ {
		if DefaultRouter(k) != DefaultRouter(k) {
			t.Fatalf("DefaultRouter not deterministic for key %d", k)
		}
	}
}

func TestConcurrentNoCrossKeyLeakage(t *testing.T) {
	const (
		capacity = 64
		keySpace = 256
		writers  = 8
		readers  = 8
		iters    = 5000
	)

	c := New(capacity, 8, nil)
	var wg sync.WaitGroup

	// Every key k is only ever written with value k+1000, so any hit must
	// return exactly that; anything else is cross-key leakage or tearing.
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			state := seed + 123456789
			for i := 0; i < iters; i++ {
				state = state*6364136223846793005 + 1
				k := (state>>32)%keySpace + 1
				c.Put(k, k+1000)
			}
		}(uint64(w))
	}

	errCh := make(chan error, readers)
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			state := seed + 987654321
			for i := 0; i < iters; i++ {
				state = state*6364136223846793005 + 1
				k := (state>>32)%keySpace + 1
				if v, ok := c.Get(k); ok && v != k+1000 {
					select {
					case errCh <- &leakError{key: k, value: v}:
					default:
					}
					return
				}
			}
		}(uint64(r))
	}

	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		t.Fatal(err)
	}

	if n := c.Len(); n > capacity {
		t.Errorf("Len %d exceeds capacity %d", n, capacity)
	}
}

type leakError struct {
	key, value uint64
}

func (e *leakError) Error() string {
	return fmt.Sprintf("cross-key leakage: Get(%d) returned %d, which was never written under that key", e.key, e.value)
}

func TestConcurrentMixedOperations(t *testing.T) {
	c := New(32, 4, nil)
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			for i := uint64(0); i < 2000; i++ {
				k := (i+id)%128 + 1
				switch i % 5 {
				case 0, 1:
					c.Put(k, k)
				case 2, 3:
					c.Get(k)
				case 4:
					c.Remove(k)
				}
			}
		}(uint64(w))
	}

	// One goroutine clears while others churn; nothing may deadlock or
	// exceed the capacity bound.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			c.Clear()
			c.Len()
		}
	}()

	wg.Wait()

	if n := c.Len(); n > c.Capacity() {
		t.Errorf("Len %d exceeds capacity %d", n, c.Capacity())
	}
}
