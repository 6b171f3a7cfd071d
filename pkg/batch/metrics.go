package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// batchesTotal counts executed batches.
	// Labels: mode (filter, join), outcome (ok, invalid, canceled, rejected)
	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spfw",
		Subsystem: "batch",
		Name:      "batches_total",
		Help:      "Total batches executed",
	}, []string{"mode", "outcome"})

	// batchDuration measures end-to-end batch execution time.
	batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spfw",
		Subsystem: "batch",
		Name:      "duration_seconds",
		Help:      "Batch execution time in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"mode"})

	traversalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spfw",
		Subsystem: "batch",
		Name:      "traversals_total",
		Help:      "Traversals started (one per distinct consecutive source)",
	})

	duplicatedRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spfw",
		Subsystem: "batch",
		Name:      "duplicated_rows_total",
		Help:      "Join rows answered by copying the previous row's results",
	})

	matchedPairsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spfw",
		Subsystem: "batch",
		Name:      "matched_pairs_total",
		Help:      "Reachable pairs emitted by the first traversal set",
	})

	settledVerticesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spfw",
		Subsystem: "batch",
		Name:      "settled_vertices_total",
		Help:      "Vertices settled across all traversals",
	})
)
