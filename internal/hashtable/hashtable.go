// Package hashtable implements a map from keys to values backed by a
// resizable array of buckets, resolving collisions by separate chaining.
//
// The table keeps its load factor between MinLoadFactor and MaxLoadFactor by
// doubling or halving the bucket array and rehashing every entry. It is not
// safe for concurrent use; callers that share a table must serialize access.
package hashtable

import "iter"

const (
	InitialCapacity = 16
	MinCapacity     = 4

	MaxLoadFactor = 0.75
	MinLoadFactor = 0.25
)

// Table maps keys of type K to values of type V. Keys are hashed and compared
// with the hasher type H.
//
// A Table must be created with New or NewComparable. The zero value has no
// buckets, and its lookup and mutation methods panic with an integer divide
// by zero.
type Table[K, V any, H Hasher[K]] struct {
	hasher  H
	count   int
	buckets bucketArray[K, V]
}

// New returns an empty table with InitialCapacity buckets.
func New[K, V any, H Hasher[K]]() *Table[K, V, H] {
	return &Table[K, V, H]{
		buckets: newBucketArray[K, V](InitialCapacity),
	}
}

// NewComparable returns an empty table hashing its keys with ComparableHasher.
func NewComparable[K comparable, V any]() *Table[K, V, ComparableHasher[K]] {
	return New[K, V, ComparableHasher[K]]()
}

// Len returns the number of stored entries.
func (t *Table[K, V, H]) Len() int {
	return t.count
}

// Cap returns the number of buckets.
func (t *Table[K, V, H]) Cap() int {
	return len(t.buckets)
}

func (t *Table[K, V, H]) LoadFactor() float64 {
	return float64(t.count) / float64(len(t.buckets))
}

// index maps key to a bucket for the current capacity. The result changes
// whenever the table is rehashed.
func (t *Table[K, V, H]) index(key K) int {
	return int(t.hasher.Hash(key) % uint64(len(t.buckets)))
}

func (t *Table[K, V, H]) Get(key K) (V, bool) {
	b := t.buckets[t.index(key)]
	if i := b.find(t.hasher, key); i >= 0 {
		return b[i].value, true
	}
	var zero V
	return zero, false
}

func (t *Table[K, V, H]) Contains(key K) bool {
	_, ok := t.Get(key)
	return ok
}

// Insert stores value under key, overwriting the value of an existing entry
// in place. Adding a new key may grow the table.
func (t *Table[K, V, H]) Insert(key K, value V) {
	idx := t.index(key)
	if i := t.buckets[idx].find(t.hasher, key); i >= 0 {
		t.buckets[idx][i].value = value
		return
	}
	t.buckets[idx] = append(t.buckets[idx], entry[K, V]{key: key, value: value})
	t.count++
	t.maybeGrow()
}

// WeakInsert stores value under key only if key is absent. It reports
// whether the entry was added.
func (t *Table[K, V, H]) WeakInsert(key K, value V) bool {
	if t.Contains(key) {
		return false
	}
	t.Insert(key, value)
	return true
}

// Remove deletes the entry for key and reports whether one existed. Removing
// an entry may shrink the table.
func (t *Table[K, V, H]) Remove(key K) bool {
	idx := t.index(key)
	i := t.buckets[idx].find(t.hasher, key)
	if i < 0 {
		return false
	}
	t.buckets[idx] = t.buckets[idx].removeAt(i)
	t.count--
	t.maybeShrink()
	return true
}

// Clear removes every entry and resets the table to InitialCapacity.
func (t *Table[K, V, H]) Clear() {
	t.buckets = newBucketArray[K, V](InitialCapacity)
	t.count = 0
}

// All yields every entry in no particular order. The table must not be
// modified while iterating.
func (t *Table[K, V, H]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, b := range t.buckets {
			for _, e := range b {
				if !yield(e.key, e.value) {
					return
				}
			}
		}
	}
}

func (t *Table[K, V, H]) Keys() []K {
	keys := make([]K, 0, t.count)
	for k := range t.All() {
		keys = append(keys, k)
	}
	return keys
}

func (t *Table[K, V, H]) Values() []V {
	values := make([]V, 0, t.count)
	for _, v := range t.All() {
		values = append(values, v)
	}
	return values
}

func (t *Table[K, V, H]) maybeGrow() {
	if t.LoadFactor() <= MaxLoadFactor {
		return
	}
	t.rehash(len(t.buckets) * 2)
}

func (t *Table[K, V, H]) maybeShrink() {
	if t.LoadFactor() >= MinLoadFactor {
		return
	}
	t.rehash(max(len(t.buckets)/2, MinCapacity))
}

// rehash moves every entry into a fresh bucket array of the given capacity.
// The old array is drained as it is replayed, so no entry is reachable from
// both arrays once rehash returns.
func (t *Table[K, V, H]) rehash(capacity int) {
	if capacity == len(t.buckets) {
		return
	}
	old := t.buckets
	t.buckets = newBucketArray[K, V](capacity)
	t.count = 0
	for i := range old {
		for _, e := range old[i] {
			t.place(e)
		}
		old[i] = nil
	}
}

// place appends an entry whose key is known to be absent, without consulting
// the resize policy. Only rehash uses it.
func (t *Table[K, V, H]) place(e entry[K, V]) {
	idx := t.index(e.key)
	t.buckets[idx] = append(t.buckets[idx], e)
	t.count++
}

// bucketLens reports the length of every bucket.
func (t *Table[K, V, H]) bucketLens() []int {
	lens := make([]int, len(t.buckets))
	for i, b := range t.buckets {
		lens[i] = len(b)
	}
	return lens
}
