package graph

import (
	"sort"

	"github.com/paulmach/osm"

	osmparser "spfw/pkg/osm"
)

// RawEdge is a directed edge between dense vertex indices, as produced by a loader.
type RawEdge struct {
	From   uint32
	To     uint32
	Weight uint32
}

// Build creates a CSR Graph from a list of edges over vertices [0, numVertices).
//
// Edges are sorted by (From, To); the sort is stable so parallel edges keep
// their input order. EdgeID[i] is the position of edge i in the input list.
// The returned permutation maps CSR positions to input positions and can be
// applied to further weight columns with Permute.
func Build(numVertices uint32, edges []RawEdge, weighted bool) (*Graph, []uint32) {
	if numVertices == 0 {
		return &Graph{}, nil
	}

	// Step 1: Sort edge positions by source, then target.
	perm := make([]uint32, len(edges))
	for i := range perm {
		perm[i] = uint32(i)
	}
	sort.SliceStable(perm, func(a, b int) bool {
		ea, eb := &edges[perm[a]], &edges[perm[b]]
		if ea.From != eb.From {
			return ea.From < eb.From
		}
		return ea.To < eb.To
	})

	// Step 2: Lay out the edge arrays in CSR order.
	numEdges := len(edges)
	dest := make([]uint32, numEdges)
	ids := make([]uint32, numEdges)
	var weight []uint32
	if weighted {
		weight = make([]uint32, numEdges)
	}
	for i, p := range perm {
		dest[i] = edges[p].To
		ids[i] = p
		if weighted {
			weight[i] = edges[p].Weight
		}
	}

	// Step 3: Count out-degrees, then prefix sum.
	offsets := make([]uint32, numVertices)
	for i := range edges {
		offsets[edges[i].From]++
	}
	for v := uint32(1); v < numVertices; v++ {
		offsets[v] += offsets[v-1]
	}

	return &Graph{
		NumVertices: numVertices,
		Offsets:     offsets,
		Dest:        dest,
		EdgeID:      ids,
		Weight:      weight,
	}, perm
}

// Permute reorders a per-edge column from input order into CSR order.
func Permute(values, perm []uint32) []uint32 {
	out := make([]uint32, len(perm))
	for i, p := range perm {
		out[i] = values[p]
	}
	return out
}

// FromOSM creates a Dataset from parsed OSM edges. OSM node ids are remapped
// to dense vertex indices in order of first appearance; the dataset carries
// the distance and duration weight sets in CSR order.
func FromOSM(result *osmparser.ParseResult) *Dataset {
	edges := result.Edges
	if len(edges) == 0 {
		return NewDataset(&Graph{})
	}

	// Step 1: Build a compact node id mapping.
	nodeSet := make(map[osm.NodeID]uint32)
	var nodeIDs []osm.NodeID

	addNode := func(id osm.NodeID) uint32 {
		if idx, ok := nodeSet[id]; ok {
			return idx
		}
		idx := uint32(len(nodeIDs))
		nodeSet[id] = idx
		nodeIDs = append(nodeIDs, id)
		return idx
	}

	// Step 2: Remap edges and collect the weight columns in input order.
	raw := make([]RawEdge, len(edges))
	distance := make([]uint32, len(edges))
	duration := make([]uint32, len(edges))
	for i, e := range edges {
		raw[i] = RawEdge{From: addNode(e.FromNodeID), To: addNode(e.ToNodeID)}
		distance[i] = e.DistanceMM
		duration[i] = e.DurationMS
	}

	numVertices := uint32(len(nodeIDs))
	g, perm := Build(numVertices, raw, false)

	// Step 3: Populate vertex coordinates.
	g.NodeLat = make([]float64, numVertices)
	g.NodeLon = make([]float64, numVertices)
	for idx, id := range nodeIDs {
		g.NodeLat[idx] = result.NodeLat[id]
		g.NodeLon[idx] = result.NodeLon[id]
	}

	ds := NewDataset(g)
	ds.Weights[WeightDistance] = Permute(distance, perm)
	ds.Weights[WeightDuration] = Permute(duration, perm)
	return ds
}
