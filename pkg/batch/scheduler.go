package batch

import (
	"context"
	"fmt"

	"spfw/pkg/graph"
	"spfw/pkg/traversal"
)

// SchedulerStats counts the work of one or more scheduler runs.
type SchedulerStats struct {
	Inits      int // traversals started
	Single     int // source runs with one destination
	Multi      int // source runs with several destinations
	Duplicated int // join rows served by copying the previous row's results
	Matched    int // pairs emitted
	Settled    int // vertices settled by the engines
}

func (s *SchedulerStats) add(o SchedulerStats) {
	s.Inits += o.Inits
	s.Single += o.Single
	s.Multi += o.Multi
	s.Duplicated += o.Duplicated
	s.Matched += o.Matched
	s.Settled += o.Settled
}

// traversalSet is a group of requests that share a weight column and thus a
// single traversal per source.
type traversalSet struct {
	weights  []uint32
	requests []*ShortestPathRequest
	needPath bool
}

func (ts *traversalSet) name() string {
	if ts.weights == nil {
		return "hops"
	}
	for _, r := range ts.requests {
		if r.WeightName != "" {
			return r.WeightName
		}
	}
	return "weights"
}

// Scheduler drives one engine over the rows of a query, one Init per run of
// equal consecutive sources.
type Scheduler struct {
	engine  *traversal.Engine
	set     *traversalSet
	joiner  *Joiner
	pathBuf []uint32
	lastRun []int // right rows matched by the previous join row
	stats   SchedulerStats
}

func newScheduler(g *graph.Graph, set *traversalSet, joiner *Joiner) *Scheduler {
	return &Scheduler{
		engine: traversal.New(g.WithWeights(set.weights)),
		set:    set,
		joiner: joiner,
	}
}

// Stats returns the counters of the run.
func (s *Scheduler) Stats() SchedulerStats {
	st := s.stats
	st.Settled = s.engine.Stats().Settled
	return st
}

// Run processes every row of q. The context is checked before each source
// run; a traversal in progress is never interrupted.
func (s *Scheduler) Run(ctx context.Context, q *Query) error {
	if q.Mode == Join {
		return s.runJoin(ctx, q)
	}
	return s.runFilter(ctx, q)
}

func (s *Scheduler) runFilter(ctx context.Context, q *Query) error {
	n := len(q.Src)
	for i := 0; i < n; {
		if err := ctx.Err(); err != nil {
			return err
		}
		j := i + 1
		for j < n && q.Src[j] == q.Src[i] {
			j++
		}
		if j-i == 1 {
			s.singleDestination(q, i)
		} else {
			s.multiDestination(q, i, j)
		}
		i = j
	}
	return nil
}

// singleDestination answers row i with its own traversal.
func (s *Scheduler) singleDestination(q *Query, i int) {
	s.init(q.Src[i])
	s.stats.Single++
	if cost, ok := s.engine.RunUntil(q.Dst[i]); ok {
		s.emit(i, i, q.Dst[i], cost)
	} else {
		s.unmatched(q, i, i)
	}
}

// multiDestination answers rows [from, to), which share a source, with one
// traversal resumed for each destination not yet resolved.
func (s *Scheduler) multiDestination(q *Query, from, to int) {
	s.init(q.Src[from])
	s.stats.Multi++
	for i := from; i < to; i++ {
		dst := q.Dst[i]
		cost, ok := s.engine.Distance(dst), true
		if !s.engine.Resolved(dst) {
			cost, ok = s.engine.RunUntil(dst)
		}
		if ok {
			s.emit(i, i, dst, cost)
		} else {
			s.unmatched(q, i, i)
		}
	}
}

func (s *Scheduler) runJoin(ctx context.Context, q *Query) error {
	for l := range q.Src {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l > 0 && q.Src[l] == q.Src[l-1] {
			s.duplicate(l)
			continue
		}

		s.init(q.Src[l])
		s.stats.Multi++
		s.lastRun = s.lastRun[:0]
		for r, dst := range q.Dst {
			cost, ok := s.engine.Distance(dst), true
			if !s.engine.Resolved(dst) {
				cost, ok = s.engine.RunUntil(dst)
			}
			if ok {
				s.emit(l, r, dst, cost)
				s.lastRun = append(s.lastRun, r)
			}
		}
	}
	return nil
}

// duplicate serves left row l from the previous row's results, which had the
// same source.
func (s *Scheduler) duplicate(l int) {
	s.stats.Duplicated++
	n := len(s.lastRun)
	if n == 0 {
		return
	}
	for _, req := range s.set.requests {
		req.duplicateTail(n)
	}
	if s.joiner != nil {
		for _, r := range s.lastRun {
			s.joiner.Emit(l, r)
		}
	}
	s.stats.Matched += n
}

func (s *Scheduler) init(source uint32) {
	s.engine.Init(source)
	s.stats.Inits++
}

// emit records a matched pair in the joiner and in every request of the set.
func (s *Scheduler) emit(l, r int, dst uint32, cost uint64) {
	if s.joiner != nil {
		s.joiner.Emit(l, r)
	}
	var path []uint32
	if s.set.needPath {
		s.pathBuf = s.engine.Path(dst, s.pathBuf[:0])
		path = s.pathBuf
	}
	for _, req := range s.set.requests {
		req.append(cost, path)
	}
	s.stats.Matched++
}

// unmatched handles an unreachable pair. Without a joiner the query was
// compacted by an earlier pass and every pair is known to be reachable.
func (s *Scheduler) unmatched(q *Query, l, r int) {
	if s.joiner == nil {
		panic(fmt.Sprintf("batch: compacted pair %d -> %d became unreachable", q.Src[l], q.Dst[r]))
	}
}
