package hashtable

type entry[K, V any] struct {
	key   K
	value V
}

// bucket holds the entries whose keys hash to the same index. Order inside a
// bucket carries no meaning.
type bucket[K, V any] []entry[K, V]

type bucketArray[K, V any] []bucket[K, V]

func newBucketArray[K, V any](capacity int) bucketArray[K, V] {
	return make(bucketArray[K, V], capacity)
}

func (b bucket[K, V]) find(h Hasher[K], key K) int {
	for i := range b {
		if h.Equal(b[i].key, key) {
			return i
		}
	}
	return -1
}

// removeAt swaps the last entry into slot i and clears the vacated slot so
// the removed key and value can be collected.
func (b bucket[K, V]) removeAt(i int) bucket[K, V] {
	last := len(b) - 1
	b[i] = b[last]
	b[last] = entry[K, V]{}
	return b[:last]
}
