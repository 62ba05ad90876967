package hashtable

import (
	"encoding/binary"
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// A Hasher defines a hash function and an equivalence relation over keys of
// type K. Hash must return the same value for keys that are Equal, and both
// must stay stable for as long as a key is stored in a table.
//
// Hashers are stateless: a table uses the zero value of its hasher type, so
// the hashing strategy is fixed by the table's type.
type Hasher[K any] interface {
	Hash(key K) uint64
	Equal(a, b K) bool
}

var comparableSeed = maphash.MakeSeed()

// ComparableHasher hashes any comparable key with hash/maphash. The seed is
// chosen once per process, so bucket placement differs between runs.
type ComparableHasher[K comparable] struct{}

func (ComparableHasher[K]) Hash(key K) uint64 {
	return maphash.Comparable(comparableSeed, key)
}

func (ComparableHasher[K]) Equal(a, b K) bool {
	return a == b
}

// StringHasher hashes strings with xxhash. Placement is stable across runs.
type StringHasher struct{}

func (StringHasher) Hash(key string) uint64 {
	return xxhash.Sum64String(key)
}

func (StringHasher) Equal(a, b string) bool {
	return a == b
}

type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// IntegerHasher hashes the little-endian 64-bit encoding of an integer with
// xxhash. Negative values are hashed by their two's complement bits.
type IntegerHasher[I Integer] struct{}

func (IntegerHasher[I]) Hash(key I) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))
	return xxhash.Sum64(buf[:])
}

func (IntegerHasher[I]) Equal(a, b I) bool {
	return a == b
}
