package cache

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Router maps a key to a fold selector. The cache reduces the returned value
// modulo its fold count, so any deterministic function of the key is a valid
// router. A router must be pure: the same key must always select the same
// fold, or lookups will miss values published through a different fold.
type Router func(key uint64) uint64

// DefaultRouter hashes the key with xxhash so that dense key ranges spread
// evenly across folds instead of clustering in a few.
func DefaultRouter(key uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	return xxhash.Sum64(buf[:])
}

// IdentityRouter routes a key by its own value. Useful when the caller
// already controls key distribution, and in tests that need deterministic
// slot placement.
func IdentityRouter(key uint64) uint64 { return key }
