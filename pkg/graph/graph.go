package graph

import (
	"fmt"
	"iter"
)

// NoEdge marks a vertex that was reached without traversing an edge (the source).
const NoEdge = ^uint32(0)

// Graph is an immutable directed graph in CSR (Compressed Sparse Row) format.
//
// Outgoing edges of vertex v occupy the half-open range
// [Offsets[v-1], Offsets[v]) of the edge arrays, with Offsets[-1] taken as 0.
// The graph borrows its arrays; it never copies or mutates them.
type Graph struct {
	NumVertices uint32
	Offsets     []uint32 // len: NumVertices; prefix sum of out-degrees
	Dest        []uint32 // len: NumEdges; target vertex of each edge
	EdgeID      []uint32 // len: NumEdges; identifier of the edge in the loader's input
	Weight      []uint32 // len: NumEdges, or nil for an unweighted graph

	// Optional vertex coordinates, only used for snapping.
	NodeLat []float64
	NodeLon []float64
}

// Edge is a single outgoing edge as seen from its source vertex.
type Edge struct {
	Dest   uint32
	Weight uint32
	ID     uint32
}

// NumEdges returns the number of edges, 0 for an empty graph.
func (g *Graph) NumEdges() uint32 {
	if g.NumVertices == 0 {
		return 0
	}
	return g.Offsets[g.NumVertices-1]
}

// Weighted reports whether the graph carries edge weights.
func (g *Graph) Weighted() bool {
	return g.Weight != nil
}

// HasCoordinates reports whether vertex coordinates are available.
func (g *Graph) HasCoordinates() bool {
	return g.NumVertices > 0 && uint32(len(g.NodeLat)) == g.NumVertices && uint32(len(g.NodeLon)) == g.NumVertices
}

// EdgesFrom returns the range of edge indices for edges originating from v.
func (g *Graph) EdgesFrom(v uint32) (start, end uint32) {
	if v > 0 {
		start = g.Offsets[v-1]
	}
	return start, g.Offsets[v]
}

// Cost returns the cost of edge e: its weight, or 1 when the graph is unweighted.
func (g *Graph) Cost(e uint32) uint64 {
	if g.Weight == nil {
		return 1
	}
	return uint64(g.Weight[e])
}

// Neighbors enumerates the outgoing edges of v.
func (g *Graph) Neighbors(v uint32) iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		start, end := g.EdgesFrom(v)
		for e := start; e < end; e++ {
			edge := Edge{Dest: g.Dest[e], Weight: 1, ID: g.EdgeID[e]}
			if g.Weight != nil {
				edge.Weight = g.Weight[e]
			}
			if !yield(edge) {
				return
			}
		}
	}
}

// WithWeights returns a view of g that shares its topology and uses w as the
// edge weights. A nil w yields an unweighted view.
func (g *Graph) WithWeights(w []uint32) *Graph {
	view := *g
	view.Weight = w
	return &view
}

// Validate checks the CSR invariants. The traversal code trusts them, so
// loaders call this once before handing a graph to the engine.
func (g *Graph) Validate() error {
	if uint32(len(g.Offsets)) != g.NumVertices {
		return fmt.Errorf("Offsets length %d != NumVertices %d", len(g.Offsets), g.NumVertices)
	}
	numEdges := g.NumEdges()
	for v := uint32(1); v < g.NumVertices; v++ {
		if g.Offsets[v] < g.Offsets[v-1] {
			return fmt.Errorf("Offsets not monotonic at %d: %d < %d", v, g.Offsets[v], g.Offsets[v-1])
		}
	}
	if uint32(len(g.Dest)) != numEdges {
		return fmt.Errorf("Dest length %d != NumEdges %d", len(g.Dest), numEdges)
	}
	if uint32(len(g.EdgeID)) != numEdges {
		return fmt.Errorf("EdgeID length %d != NumEdges %d", len(g.EdgeID), numEdges)
	}
	if g.Weight != nil && uint32(len(g.Weight)) != numEdges {
		return fmt.Errorf("Weight length %d != NumEdges %d", len(g.Weight), numEdges)
	}
	for i, d := range g.Dest {
		if d >= g.NumVertices {
			return fmt.Errorf("Dest[%d]=%d >= NumVertices=%d", i, d, g.NumVertices)
		}
	}
	if len(g.NodeLat) != len(g.NodeLon) {
		return fmt.Errorf("NodeLat length %d != NodeLon length %d", len(g.NodeLat), len(g.NodeLon))
	}
	return nil
}
