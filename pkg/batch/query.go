// Package batch answers batches of (source, destination) shortest-path
// queries. Rows sharing a source share one traversal; the matched pairs are
// reshaped into a filtered list or a cross-product join.
package batch

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrLengthMismatch is returned when the arrays of a query do not line up.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrVertexOutOfRange is returned when a query names a vertex the graph lacks.
	ErrVertexOutOfRange = errors.New("vertex out of range")
	// ErrWeightsMismatch is returned when a request's weights do not cover every edge.
	ErrWeightsMismatch = errors.New("weights length does not match edge count")
	// ErrTooManyPairs is returned when a batch exceeds the configured pair limit.
	ErrTooManyPairs = errors.New("too many pairs")

	// ErrAlreadyFinalized is the panic value of a second Joiner.Finalize.
	ErrAlreadyFinalized = errors.New("joiner already finalized")
	// ErrPathNotRequested is the panic value when reading paths of a cost-only request.
	ErrPathNotRequested = errors.New("path was not requested")
)

// Mode selects how the sources and destinations of a Query are paired.
type Mode uint8

const (
	// Filter pairs Src[i] with Dst[i].
	Filter Mode = iota
	// Join pairs every Src with every Dst.
	Join
)

func (m Mode) String() string {
	if m == Join {
		return "join"
	}
	return "filter"
}

// ParseMode converts "filter" or "join" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "filter", "":
		return Filter, nil
	case "join":
		return Join, nil
	}
	return Filter, fmt.Errorf("unknown operation %q", s)
}

// Query is a batch of vertex pairs.
//
// In filter mode Src, Dst and CandidatesLeft are parallel. In join mode Src
// and CandidatesLeft describe the left rows, Dst and CandidatesRight the right
// rows. Candidates identify rows in the output; nil means row positions.
type Query struct {
	Mode            Mode
	Src             []uint32
	Dst             []uint32
	CandidatesLeft  []uint64
	CandidatesRight []uint64
}

// NumLeft returns the number of left rows.
func (q *Query) NumLeft() int { return len(q.Src) }

// NumRight returns the number of right rows (the destinations).
func (q *Query) NumRight() int { return len(q.Dst) }

// NumPairs returns the number of pairs the query asks about.
func (q *Query) NumPairs() int {
	if q.Mode == Join {
		return len(q.Src) * len(q.Dst)
	}
	return len(q.Src)
}

// LeftCandidate returns the identifier of left row i.
func (q *Query) LeftCandidate(i int) uint64 {
	if q.CandidatesLeft == nil {
		return uint64(i)
	}
	return q.CandidatesLeft[i]
}

// RightCandidate returns the identifier of right row i.
func (q *Query) RightCandidate(i int) uint64 {
	if q.CandidatesRight == nil {
		return uint64(i)
	}
	return q.CandidatesRight[i]
}

// Validate checks array lengths and vertex ranges against a graph with
// numVertices vertices.
func (q *Query) Validate(numVertices uint32) error {
	switch q.Mode {
	case Filter:
		if len(q.Src) != len(q.Dst) {
			return fmt.Errorf("%w: %d sources, %d destinations", ErrLengthMismatch, len(q.Src), len(q.Dst))
		}
		if q.CandidatesRight != nil {
			return fmt.Errorf("%w: right candidates given in filter mode", ErrLengthMismatch)
		}
	case Join:
		if q.CandidatesRight != nil && len(q.CandidatesRight) != len(q.Dst) {
			return fmt.Errorf("%w: %d right candidates, %d destinations", ErrLengthMismatch, len(q.CandidatesRight), len(q.Dst))
		}
	default:
		return fmt.Errorf("unknown mode %d", q.Mode)
	}
	if q.CandidatesLeft != nil && len(q.CandidatesLeft) != len(q.Src) {
		return fmt.Errorf("%w: %d left candidates, %d sources", ErrLengthMismatch, len(q.CandidatesLeft), len(q.Src))
	}

	for i, v := range q.Src {
		if v >= numVertices {
			return fmt.Errorf("%w: source %d at row %d (graph has %d vertices)", ErrVertexOutOfRange, v, i, numVertices)
		}
	}
	for i, v := range q.Dst {
		if v >= numVertices {
			return fmt.Errorf("%w: destination %d at row %d (graph has %d vertices)", ErrVertexOutOfRange, v, i, numVertices)
		}
	}
	return nil
}

// GroupBySource reorders the left rows so equal sources are adjacent, keeping
// the relative order of rows with the same source. Candidates move with their
// rows; nil candidates are materialized first so rows keep their identity.
// In filter mode the destinations move too.
func (q *Query) GroupBySource() {
	n := len(q.Src)
	if n < 2 || sort.SliceIsSorted(q.Src, func(a, b int) bool { return q.Src[a] < q.Src[b] }) {
		return
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool { return q.Src[perm[a]] < q.Src[perm[b]] })

	src := make([]uint32, n)
	cand := make([]uint64, n)
	for i, p := range perm {
		src[i] = q.Src[p]
		cand[i] = q.LeftCandidate(p)
	}
	if q.Mode == Filter {
		dst := make([]uint32, n)
		for i, p := range perm {
			dst[i] = q.Dst[p]
		}
		q.Dst = dst
	}
	q.Src = src
	q.CandidatesLeft = cand
}

// isGrouped reports whether equal sources are already adjacent.
func (q *Query) isGrouped() bool {
	seen := make(map[uint32]struct{})
	for i, v := range q.Src {
		if i > 0 && q.Src[i-1] == v {
			continue
		}
		if _, dup := seen[v]; dup {
			return false
		}
		seen[v] = struct{}{}
	}
	return true
}
