// Package traversal runs resumable single-source shortest-path searches over
// a CSR graph: Dijkstra with a radix heap when the graph carries weights,
// breadth-first search with a FIFO otherwise.
package traversal

import (
	"math"

	"spfw/pkg/graph"
	"spfw/pkg/queue"
)

// Infinity is the distance of a vertex that has not been reached.
const Infinity = math.MaxUint64

// noVertex marks a vertex without a parent.
const noVertex = ^uint32(0)

// Mode selects the cost model and queue of an engine.
type Mode uint8

const (
	ModeBFS Mode = iota
	ModeDijkstra
)

func (m Mode) String() string {
	if m == ModeDijkstra {
		return "dijkstra"
	}
	return "bfs"
}

// State is the lifecycle of the current traversal.
type State uint8

const (
	Uninitialized State = iota
	Initialized
	Running
	EarlyExit
	Exhausted
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case EarlyExit:
		return "early-exit"
	case Exhausted:
		return "exhausted"
	default:
		return "uninitialized"
	}
}

// Stats counts work done by an engine over its lifetime.
type Stats struct {
	Inits   int // traversals started
	Settled int // vertices popped with their final distance
	Relaxed int // successful edge relaxations
	Stale   int // superseded queue entries discarded
}

// Engine owns the working arrays of one traversal context. The arrays are
// sized to the graph once and reused by every Init.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	g     *graph.Graph
	mode  Mode
	queue queue.Monotone

	dist    []uint64
	parent  []uint32
	edge    []uint32 // EdgeID of the edge used to reach each vertex
	settled []bool
	touched []uint32 // vertices written since the last Init

	source uint32
	state  State
	stats  Stats
}

// New creates an engine over g. The graph must satisfy its CSR invariants.
func New(g *graph.Graph) *Engine {
	n := g.NumVertices
	e := &Engine{
		g:       g,
		dist:    make([]uint64, n),
		parent:  make([]uint32, n),
		edge:    make([]uint32, n),
		settled: make([]bool, n),
		touched: make([]uint32, 0, 1024),
	}
	for i := range e.dist {
		e.dist[i] = Infinity
		e.parent[i] = noVertex
		e.edge[i] = graph.NoEdge
	}
	if g.Weighted() {
		e.mode = ModeDijkstra
		e.queue = queue.NewRadixHeap()
	} else {
		e.mode = ModeBFS
		e.queue = queue.NewFIFO()
	}
	return e
}

// Mode returns the traversal mode chosen for the graph.
func (e *Engine) Mode() Mode { return e.mode }

// Graph returns the graph the engine traverses.
func (e *Engine) Graph() *graph.Graph { return e.g }

// Init starts a new traversal from source. Only the entries written by the
// previous traversal are reset.
func (e *Engine) Init(source uint32) {
	for _, v := range e.touched {
		e.dist[v] = Infinity
		e.parent[v] = noVertex
		e.edge[v] = graph.NoEdge
		e.settled[v] = false
	}
	e.touched = e.touched[:0]
	e.queue.Clear()

	e.source = source
	e.touch(source, 0)
	e.queue.Push(source, 0)
	e.state = Initialized
	e.stats.Inits++
}

func (e *Engine) touch(v uint32, d uint64) {
	if e.dist[v] == Infinity {
		e.touched = append(e.touched, v)
	}
	e.dist[v] = d
}

// RunUntil advances the traversal until target's distance is final or the
// reachable set is exhausted. It reports the distance and whether the target
// is reachable.
//
// The search stops when target is at the front of the queue, leaving it
// queued, so a later call for another destination resumes from the same
// frontier. Calling RunUntil before Init panics.
func (e *Engine) RunUntil(target uint32) (uint64, bool) {
	if e.state == Uninitialized {
		panic("traversal: RunUntil before Init")
	}
	if e.Resolved(target) {
		return e.dist[target], true
	}

	e.state = Running
	for !e.queue.Empty() {
		top := e.queue.Peek()
		if top.Key > e.dist[top.Vertex] {
			e.queue.Pop()
			e.stats.Stale++
			continue
		}
		if top.Vertex == target {
			e.state = EarlyExit
			e.settle(target)
			return top.Key, true
		}
		// Keys only ever decrease for a vertex, so the entry matching its
		// distance is unique. A target settled by an earlier early exit is
		// expanded here.
		e.queue.Pop()
		e.settle(top.Vertex)
		e.relax(top.Vertex, top.Key)
	}

	e.state = Exhausted
	return Infinity, false
}

func (e *Engine) settle(v uint32) {
	if !e.settled[v] {
		e.settled[v] = true
		e.stats.Settled++
	}
}

// relax scans the outgoing edges of u, whose distance d is final.
func (e *Engine) relax(u uint32, d uint64) {
	g := e.g
	start, end := g.EdgesFrom(u)
	for i := start; i < end; i++ {
		v := g.Dest[i]
		nd := d + g.Cost(i)
		if nd >= e.dist[v] {
			continue
		}
		e.touch(v, nd)
		e.parent[v] = u
		e.edge[v] = g.EdgeID[i]
		e.queue.Push(v, nd)
		e.stats.Relaxed++
	}
}

// Resolved reports whether v's distance is final for the current source.
// Breadth-first search assigns final distances on discovery; Dijkstra only
// when the vertex is settled.
func (e *Engine) Resolved(v uint32) bool {
	if e.dist[v] == Infinity {
		return false
	}
	return e.mode == ModeBFS || e.settled[v]
}

// Distance returns the best known distance to v, Infinity if unreached.
func (e *Engine) Distance(v uint32) uint64 { return e.dist[v] }

// Source returns the source of the current traversal.
func (e *Engine) Source() uint32 { return e.source }

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Stats returns the cumulative counters.
func (e *Engine) Stats() Stats { return e.stats }

// Path appends the edge ids of the shortest path from the source to target to
// buf, in source-to-target order, and returns the extended buffer. The target
// must be resolved; an unreachable target appends nothing.
func (e *Engine) Path(target uint32, buf []uint32) []uint32 {
	if e.dist[target] == Infinity {
		return buf
	}
	start := len(buf)
	for v := target; v != e.source; v = e.parent[v] {
		buf = append(buf, e.edge[v])
	}
	// Reverse the appended segment.
	for i, j := start, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

// PathVertices returns the vertices of the shortest path from the source to
// target inclusive, or nil if the target is unreachable.
func (e *Engine) PathVertices(target uint32) []uint32 {
	if e.dist[target] == Infinity {
		return nil
	}
	var out []uint32
	for v := target; ; v = e.parent[v] {
		out = append(out, v)
		if v == e.source {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
