package batch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"spfw/pkg/graph"
)

// Result is the outcome of Execute.
type Result struct {
	// Left and Right identify the matched pairs; Right is set in join mode.
	Left  []uint64
	Right []uint64
	// Requests are the caller's requests, in the caller's order, with their
	// outputs filled in row for row with Left.
	Requests []*ShortestPathRequest
	// Reused reports that Left aliases the query's own candidate array.
	Reused bool
	Stats  SchedulerStats
}

// Option configures Execute.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	maxPairs int
	group    bool
}

// WithLogger sets the logger for batch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxPairs rejects batches asking about more than n pairs. Zero disables
// the limit.
func WithMaxPairs(n int) Option {
	return func(o *options) { o.maxPairs = n }
}

// WithGroupBySource reorders the query with Query.GroupBySource before
// running it. Output rows follow the new order.
func WithGroupBySource() Option {
	return func(o *options) { o.group = true }
}

// Execute answers every pair of q against g for each request.
//
// Requests with the same weight column share a traversal set. The first set
// runs the filter or join and, when more sets follow, compacts the matched
// pairs into a filter query that the remaining sets replay. Hop-count sets run
// first and cost-only requests before path requests. Without requests only
// connectivity is computed.
//
// The context is checked between source runs. A canceled batch returns the
// context error and no partial result.
func Execute(ctx context.Context, g *graph.Graph, q *Query, reqs []*ShortestPathRequest, opts ...Option) (res *Result, err error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := otel.Tracer("spfw").Start(ctx, "batch.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("mode", q.Mode.String()),
		attribute.Int("rows_left", q.NumLeft()),
		attribute.Int("rows_right", q.NumRight()),
		attribute.Int("requests", len(reqs)),
	)

	start := time.Now()
	outcome := "ok"
	defer func() {
		batchesTotal.WithLabelValues(q.Mode.String(), outcome).Inc()
		batchDuration.WithLabelValues(q.Mode.String()).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
	}()

	if err := validate(g, q, reqs); err != nil {
		outcome = "invalid"
		return nil, err
	}
	if o.maxPairs > 0 && q.NumPairs() > o.maxPairs {
		outcome = "rejected"
		return nil, fmt.Errorf("%w: %d pairs, limit %d", ErrTooManyPairs, q.NumPairs(), o.maxPairs)
	}
	if o.group {
		q.GroupBySource()
	} else if !q.isGrouped() {
		o.logger.Debug("sources are not grouped, repeated sources will be traversed again",
			"mode", q.Mode.String(), "rows", q.NumLeft())
	}

	sets := planSets(reqs)
	for _, r := range reqs {
		r.reset()
	}

	res = &Result{Requests: reqs}

	// First set: filter or join.
	first := sets[0]
	joiner := NewJoiner(q, len(sets) > 1)
	defer joiner.Close()

	sched := newScheduler(g, first, joiner)
	if err := sched.Run(ctx, q); err != nil {
		outcome = "canceled"
		return nil, fmt.Errorf("batch canceled: %w", err)
	}
	jr := joiner.Finalize()
	res.Left, res.Right = jr.Left, jr.Right
	res.Reused = !jr.Copied
	res.Stats.add(sched.Stats())
	o.logger.Debug("traversal set done", "weights", first.name(), "requests", len(first.requests),
		"inits", sched.stats.Inits, "matched", sched.stats.Matched)

	// Remaining sets replay the compacted pairs.
	if len(sets) > 1 {
		compacted := &Query{Mode: Filter, Src: jr.Src, Dst: jr.Dst}
		for _, set := range sets[1:] {
			sched := newScheduler(g, set, nil)
			if err := sched.Run(ctx, compacted); err != nil {
				outcome = "canceled"
				return nil, fmt.Errorf("batch canceled: %w", err)
			}
			st := sched.Stats()
			st.Matched = 0 // already counted by the first set
			res.Stats.add(st)
			o.logger.Debug("traversal set done", "weights", set.name(), "requests", len(set.requests),
				"inits", sched.stats.Inits)
		}
	}

	traversalsTotal.Add(float64(res.Stats.Inits))
	duplicatedRowsTotal.Add(float64(res.Stats.Duplicated))
	matchedPairsTotal.Add(float64(res.Stats.Matched))
	settledVerticesTotal.Add(float64(res.Stats.Settled))

	span.SetAttributes(
		attribute.Int("matched", res.Stats.Matched),
		attribute.Int("inits", res.Stats.Inits),
		attribute.Int("duplicated", res.Stats.Duplicated),
	)
	span.SetStatus(codes.Ok, "")
	return res, nil
}

func validate(g *graph.Graph, q *Query, reqs []*ShortestPathRequest) error {
	if err := q.Validate(g.NumVertices); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	numEdges := g.NumEdges()
	for i, r := range reqs {
		if r.Weights != nil && uint32(len(r.Weights)) != numEdges {
			return fmt.Errorf("request %d: %w: %d weights, %d edges", i, ErrWeightsMismatch, len(r.Weights), numEdges)
		}
	}
	return nil
}

// planSets orders the requests (hop counts first, then cost-only before
// path) and groups those sharing a weight column. With no requests it
// returns a single connectivity-only set.
func planSets(reqs []*ShortestPathRequest) []*traversalSet {
	if len(reqs) == 0 {
		return []*traversalSet{{}}
	}

	ordered := slices.Clone(reqs)
	slices.SortStableFunc(ordered, func(a, b *ShortestPathRequest) int {
		return requestRank(a) - requestRank(b)
	})

	var sets []*traversalSet
	for _, r := range ordered {
		idx := slices.IndexFunc(sets, func(s *traversalSet) bool { return sameWeights(s.weights, r.Weights) })
		if idx < 0 {
			sets = append(sets, &traversalSet{weights: r.Weights})
			idx = len(sets) - 1
		}
		sets[idx].requests = append(sets[idx].requests, r)
		sets[idx].needPath = sets[idx].needPath || r.ComputePath
	}
	return sets
}

func requestRank(r *ShortestPathRequest) int {
	rank := 0
	if r.Weights != nil {
		rank += 2
	}
	if r.ComputePath {
		rank++
	}
	return rank
}
