package batch

// JoinResult is the reshaped output of a batch.
type JoinResult struct {
	// Left holds the left candidate of every matched pair.
	Left []uint64
	// Right holds the right candidate of every matched pair (join mode only).
	Right []uint64
	// Src and Dst are the matched pairs as a one-to-one query, kept only when
	// the joiner compacts for further traversal sets.
	Src []uint32
	Dst []uint32
	// Copied reports whether fresh buffers were allocated. A filter batch in
	// which every matched row is a prefix of the input reuses the input arrays.
	Copied bool
}

// Joiner collects matched (left, right) row pairs.
//
// In filter mode it starts as a view of the input: while the matched rows are
// exactly 0, 1, 2, ... nothing is copied. The first gap switches it to owned
// buffers, irreversibly. Join mode always owns its buffers.
type Joiner struct {
	q       *Query
	compact bool

	last    int  // rows 0..last-1 matched contiguously
	changes bool // owned buffers are in use

	left  []uint64
	right []uint64
	src   []uint32
	dst   []uint32

	finalized bool
}

// NewJoiner creates a joiner for q. With compact set it also records the
// matched pairs as a filter query so another pass can revisit them.
func NewJoiner(q *Query, compact bool) *Joiner {
	j := &Joiner{q: q, compact: compact}
	if q.Mode == Join {
		j.changes = true
	}
	return j
}

// Emit records that left row l reaches right row r. In filter mode r must
// equal l.
func (j *Joiner) Emit(l, r int) {
	if j.finalized {
		panic(ErrAlreadyFinalized)
	}
	if !j.changes {
		if l == j.last {
			j.last++
			return
		}
		j.initChanges()
	}

	j.left = append(j.left, j.q.LeftCandidate(l))
	if j.q.Mode == Join {
		j.right = append(j.right, j.q.RightCandidate(r))
	}
	if j.compact {
		j.src = append(j.src, j.q.Src[l])
		j.dst = append(j.dst, j.q.Dst[r])
	}
}

// initChanges switches to owned buffers, copying the contiguous prefix.
func (j *Joiner) initChanges() {
	j.changes = true
	j.left = make([]uint64, j.last, max(j.last*2, 64))
	for i := range j.last {
		j.left[i] = j.q.LeftCandidate(i)
	}
	if j.compact {
		j.src = append(make([]uint32, 0, cap(j.left)), j.q.Src[:j.last]...)
		j.dst = append(make([]uint32, 0, cap(j.left)), j.q.Dst[:j.last]...)
	}
}

// Len returns the number of pairs emitted so far.
func (j *Joiner) Len() int {
	if j.changes {
		return len(j.left)
	}
	return j.last
}

// Finalize returns the result. Calling it twice panics with
// ErrAlreadyFinalized.
func (j *Joiner) Finalize() *JoinResult {
	if j.finalized {
		panic(ErrAlreadyFinalized)
	}
	j.finalized = true

	if j.changes {
		return &JoinResult{Left: j.left, Right: j.right, Src: j.src, Dst: j.dst, Copied: true}
	}

	res := &JoinResult{}
	if j.q.CandidatesLeft != nil {
		res.Left = j.q.CandidatesLeft[:j.last]
	} else {
		// Dense row positions have no backing array to share.
		res.Left = make([]uint64, j.last)
		for i := range res.Left {
			res.Left[i] = uint64(i)
		}
	}
	if j.compact {
		res.Src = j.q.Src[:j.last]
		res.Dst = j.q.Dst[:j.last]
	}
	return res
}

// Close finalizes the joiner if that has not happened yet. It is safe to
// defer alongside an explicit Finalize.
func (j *Joiner) Close() {
	if !j.finalized {
		j.Finalize()
	}
}
