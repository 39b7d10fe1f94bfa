package cache

import (
	"sync"
	"sync/atomic"
)

// emptyKey is the reserved sentinel marking an unoccupied slot. Callers can
// never store it as a user key.
const emptyKey uint64 = 0

// slot is one fixed storage cell. All fields are accessed atomically so the
// read path never takes a lock; a reader detects concurrent repurposing by
// re-loading the key after loading the value.
type slot struct {
	key   atomic.Uint64
	value atomic.Uint64
	hits  atomic.Uint64
}

// fold is an independently locked, contiguous sub-range of the slot table.
// The range is fixed at construction. The mutex guards mutation only; reads
// scan the range without it.
type fold struct {
	start int
	end   int // exclusive
	mu    sync.Mutex
}

// foldRanges splits capacity slots into numFolds contiguous, non-overlapping
// ranges. Every fold gets capacity/numFolds slots; the last fold additionally
// absorbs the remainder.
func foldRanges(capacity, numFolds int) []fold {
	folds := make([]fold, numFolds)
	size := capacity / numFolds
	for i := range folds {
		folds[i].start = i * size
		folds[i].end = (i + 1) * size
	}
	folds[numFolds-1].end = capacity
	return folds
}
