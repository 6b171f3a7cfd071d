package queue

import (
	"fmt"
	"math/bits"
)

// numBuckets covers every possible bit length of a uint64 XOR, plus bucket 0
// for keys equal to the last extracted minimum.
const numBuckets = 65

// RadixHeap is a monotone priority queue over uint64 keys.
//
// Bucket i holds keys whose highest bit differing from lastMin is bit i-1.
// When bucket 0 runs dry the lowest non-empty bucket is redistributed around
// its own minimum; every item moves to a strictly lower bucket, which gives
// amortized O(1) push and pop for integer Dijkstra.
type RadixHeap struct {
	buckets [numBuckets][]Item
	lastMin uint64
	size    int
}

// NewRadixHeap creates an empty heap.
func NewRadixHeap() *RadixHeap {
	return &RadixHeap{}
}

func bucketIndex(lastMin, key uint64) int {
	return bits.Len64(lastMin ^ key)
}

// Push inserts vertex with key. It panics if key is below the last
// extracted minimum.
func (h *RadixHeap) Push(vertex uint32, key uint64) {
	if key < h.lastMin {
		panic(fmt.Sprintf("queue: radix heap push of key %d below last minimum %d", key, h.lastMin))
	}
	b := bucketIndex(h.lastMin, key)
	h.buckets[b] = append(h.buckets[b], Item{Vertex: vertex, Key: key})
	h.size++
}

func (h *RadixHeap) Peek() Item {
	h.pull()
	bucket := h.buckets[0]
	return bucket[len(bucket)-1]
}

func (h *RadixHeap) Pop() Item {
	h.pull()
	bucket := h.buckets[0]
	item := bucket[len(bucket)-1]
	h.buckets[0] = bucket[:len(bucket)-1]
	h.size--
	return item
}

func (h *RadixHeap) Empty() bool { return h.size == 0 }

func (h *RadixHeap) Len() int { return h.size }

// LastMin returns the key of the most recent redistribution, the floor for
// future pushes.
func (h *RadixHeap) LastMin() uint64 { return h.lastMin }

// Clear empties every bucket and resets the key floor to 0.
func (h *RadixHeap) Clear() {
	for i := range h.buckets {
		h.buckets[i] = shrink(h.buckets[i])
	}
	h.lastMin = 0
	h.size = 0
}

// pull makes bucket 0 non-empty by redistributing the lowest non-empty bucket.
func (h *RadixHeap) pull() {
	if h.size == 0 {
		panic("queue: radix heap is empty")
	}
	if len(h.buckets[0]) > 0 {
		return
	}

	i := 1
	for len(h.buckets[i]) == 0 {
		i++
	}

	bucket := h.buckets[i]
	newMin := bucket[0].Key
	for _, it := range bucket[1:] {
		newMin = min(newMin, it.Key)
	}
	h.lastMin = newMin

	for _, it := range bucket {
		b := bucketIndex(newMin, it.Key)
		h.buckets[b] = append(h.buckets[b], it)
	}
	h.buckets[i] = shrink(bucket)
}

// shrink empties a bucket, dropping its storage if it grew past the floor.
func shrink(bucket []Item) []Item {
	if cap(bucket) > floorCapacity {
		return make([]Item, 0, floorCapacity)
	}
	return bucket[:0]
}
