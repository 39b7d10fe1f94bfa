// Package cache provides a fixed-capacity key/value cache with
// approximate-LRU eviction and lock-free reads.
//
// This package implements:
//   - A flat slot table partitioned into independently locked folds
//   - A double-checked, non-blocking read protocol
//   - A three-phase invalidate/publish write protocol
//   - Eviction by per-slot hit counters instead of a recency list
package cache
