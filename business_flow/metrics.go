package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recalculations partitioned by outcome
	recalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_recalculations_total",
			Help: "Total number of price record recalculations",
		},
		[]string{"status"},
	)

	// Solver rounds spent per recalculated record, all three targets together
	solverRounds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricing_solver_rounds",
			Help:    "Solver rounds spent per recalculated record",
			Buckets: []float64{3, 4, 6, 9, 12, 18, 24, 30},
		},
	)

	// Solves that hit the round cap
	solverNotConverged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_solver_not_converged_total",
			Help: "Number of recalculations where a solve hit the round cap",
		},
	)

	historyEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_history_entries_total",
			Help: "Number of price history snapshots written",
		},
	)

	// Cascade runs partitioned by triggering change kind
	cascadeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricing_cascade_duration_seconds",
			Help:    "Duration of recalculation cascades",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	cascadeRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_cascade_records_total",
			Help: "Records processed by cascades partitioned by outcome",
		},
		[]string{"kind", "status"},
	)
)
