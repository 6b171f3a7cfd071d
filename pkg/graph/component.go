package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // ranks stay below 32
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// LargestComponent returns the vertices of the largest weakly connected
// component (edge direction ignored), in increasing order.
func LargestComponent(g *Graph) []uint32 {
	if g.NumVertices == 0 {
		return nil
	}

	uf := NewUnionFind(g.NumVertices)
	for u := uint32(0); u < g.NumVertices; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			uf.Union(u, g.Dest[e])
		}
	}

	bestRoot := uint32(0)
	bestSize := uint32(0)
	for v := uint32(0); v < g.NumVertices; v++ {
		root := uf.Find(v)
		if uf.size[root] > bestSize {
			bestRoot = root
			bestSize = uf.size[root]
		}
	}

	nodes := make([]uint32, 0, bestSize)
	for v := uint32(0); v < g.NumVertices; v++ {
		if uf.Find(v) == bestRoot {
			nodes = append(nodes, v)
		}
	}
	return nodes
}

// FilterToComponent creates a new dataset restricted to the given vertices.
// Vertices are renumbered in the order given; edge ids are kept so paths
// computed on the result still name edges of the loader's input.
func FilterToComponent(ds *Dataset, nodes []uint32) *Dataset {
	g := ds.Graph
	if len(nodes) == 0 {
		return NewDataset(&Graph{})
	}

	oldToNew := make(map[uint32]uint32, len(nodes))
	for newIdx, oldIdx := range nodes {
		oldToNew[oldIdx] = uint32(newIdx)
	}

	// Keep the edges fully inside the component. Visiting sources in their
	// new order keeps the kept edges grouped by source.
	numVertices := uint32(len(nodes))
	offsets := make([]uint32, numVertices)
	var dest, ids, kept []uint32
	for newU, oldU := range nodes {
		start, end := g.EdgesFrom(oldU)
		for e := start; e < end; e++ {
			newV, ok := oldToNew[g.Dest[e]]
			if !ok {
				continue
			}
			dest = append(dest, newV)
			ids = append(ids, g.EdgeID[e])
			kept = append(kept, e)
		}
		offsets[newU] = uint32(len(dest))
	}

	out := &Graph{
		NumVertices: numVertices,
		Offsets:     offsets,
		Dest:        dest,
		EdgeID:      ids,
	}
	if g.Weight != nil {
		out.Weight = Permute(g.Weight, kept)
	}
	if g.HasCoordinates() {
		out.NodeLat = make([]float64, numVertices)
		out.NodeLon = make([]float64, numVertices)
		for newIdx, oldIdx := range nodes {
			out.NodeLat[newIdx] = g.NodeLat[oldIdx]
			out.NodeLon[newIdx] = g.NodeLon[oldIdx]
		}
	}

	res := NewDataset(out)
	for name, w := range ds.Weights {
		res.Weights[name] = Permute(w, kept)
	}
	return res
}
