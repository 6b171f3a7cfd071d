package queue

// FIFO is a growable circular buffer. Keys are carried but not compared:
// breadth-first search pushes in hop order, so insertion order is key order.
type FIFO struct {
	items []Item
	head  int
	size  int
}

// NewFIFO creates an empty FIFO with the default capacity.
func NewFIFO() *FIFO {
	return &FIFO{items: make([]Item, floorCapacity)}
}

func (q *FIFO) Push(vertex uint32, key uint64) {
	if q.size == len(q.items) {
		q.grow()
	}
	q.items[(q.head+q.size)%len(q.items)] = Item{Vertex: vertex, Key: key}
	q.size++
}

func (q *FIFO) Peek() Item {
	if q.size == 0 {
		panic("queue: Peek on empty FIFO")
	}
	return q.items[q.head]
}

func (q *FIFO) Pop() Item {
	if q.size == 0 {
		panic("queue: Pop on empty FIFO")
	}
	item := q.items[q.head]
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return item
}

func (q *FIFO) Empty() bool { return q.size == 0 }

func (q *FIFO) Len() int { return q.size }

// Clear empties the queue and releases storage grown past the default capacity.
func (q *FIFO) Clear() {
	if len(q.items) > floorCapacity {
		q.items = make([]Item, floorCapacity)
	}
	q.head = 0
	q.size = 0
}

// grow doubles the buffer, unwrapping the contents to start at index 0.
func (q *FIFO) grow() {
	n := len(q.items) * 2
	if n == 0 {
		n = floorCapacity
	}
	items := make([]Item, n)
	k := copy(items, q.items[q.head:])
	copy(items[k:], q.items[:q.head])
	q.items = items
	q.head = 0
}
