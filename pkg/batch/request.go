package batch

// ShortestPathRequest asks for the cost, and optionally the path, of every
// matched pair of a batch under one weight column.
type ShortestPathRequest struct {
	// Weights holds one weight per edge in CSR order. Nil means hop counts.
	Weights []uint32
	// WeightName labels the weights in logs and responses.
	WeightName string
	// ComputePath requests the edge ids of every path.
	ComputePath bool

	costs []uint64
	paths PathColumn
}

// Costs returns one cost per matched pair, in emission order.
func (r *ShortestPathRequest) Costs() []uint64 { return r.costs }

// Paths returns the path of every matched pair. It panics with
// ErrPathNotRequested if ComputePath was not set.
func (r *ShortestPathRequest) Paths() *PathColumn {
	if !r.ComputePath {
		panic(ErrPathNotRequested)
	}
	return &r.paths
}

// Len returns the number of rows produced.
func (r *ShortestPathRequest) Len() int { return len(r.costs) }

func (r *ShortestPathRequest) reset() {
	r.costs = r.costs[:0]
	r.paths.reset()
}

func (r *ShortestPathRequest) append(cost uint64, path []uint32) {
	r.costs = append(r.costs, cost)
	if r.ComputePath {
		r.paths.Append(path)
	}
}

// duplicateTail repeats the last n rows.
func (r *ShortestPathRequest) duplicateTail(n int) {
	r.costs = append(r.costs, r.costs[len(r.costs)-n:]...)
	if r.ComputePath {
		r.paths.DuplicateTail(n)
	}
}

// sameWeights reports whether two requests traverse the same weight column.
// Columns are compared by identity, not content.
func sameWeights(a, b []uint32) bool {
	if len(a) != len(b) || (a == nil) != (b == nil) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

// PathColumn stores variable-length edge id sequences back to back.
type PathColumn struct {
	Edges []uint32
	Ends  []uint32 // Ends[i] is the end offset of row i in Edges
}

// Append adds one row.
func (c *PathColumn) Append(path []uint32) {
	c.Edges = append(c.Edges, path...)
	c.Ends = append(c.Ends, uint32(len(c.Edges)))
}

// Len returns the number of rows.
func (c *PathColumn) Len() int { return len(c.Ends) }

// At returns row i. The slice aliases the column.
func (c *PathColumn) At(i int) []uint32 {
	var start uint32
	if i > 0 {
		start = c.Ends[i-1]
	}
	return c.Edges[start:c.Ends[i]]
}

// Rows returns every row as its own slice aliasing the column.
func (c *PathColumn) Rows() [][]uint32 {
	rows := make([][]uint32, c.Len())
	for i := range rows {
		rows[i] = c.At(i)
	}
	return rows
}

// DuplicateTail repeats the last n rows.
func (c *PathColumn) DuplicateTail(n int) {
	first := len(c.Ends) - n
	for i := first; i < first+n; i++ {
		c.Append(c.At(i))
	}
}

func (c *PathColumn) reset() {
	c.Edges = c.Edges[:0]
	c.Ends = c.Ends[:0]
}
