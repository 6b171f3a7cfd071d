// Package queue provides the monotone priority queues that drive traversals:
// a radix heap for integer-weighted Dijkstra and a FIFO for breadth-first search.
package queue

// Item is a queue entry.
type Item struct {
	Vertex uint32
	Key    uint64
}

// Monotone is a min-priority queue whose extracted keys never decrease.
// Pushing a key smaller than the last extracted one is a programming error.
type Monotone interface {
	Push(vertex uint32, key uint64)
	// Peek returns the minimum without removing it. The queue must not be empty.
	Peek() Item
	// Pop removes and returns the minimum. The queue must not be empty.
	Pop() Item
	Empty() bool
	Len() int
	Clear()
}

// floorCapacity is the capacity queues start with and shrink back to.
const floorCapacity = 1024

var (
	_ Monotone = (*RadixHeap)(nil)
	_ Monotone = (*FIFO)(nil)
)
