package job

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postpilot_sweep_runs_total",
		Help: "Number of due-post sweeps started",
	})

	sweepPostsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postpilot_sweep_posts_total",
			Help: "Posts handled by the sweep, by outcome",
		},
		[]string{"outcome"},
	)

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "postpilot_sweep_duration_seconds",
		Help:    "Wall time of a full sweep",
		Buckets: prometheus.DefBuckets,
	})

	sweepLastRun = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postpilot_sweep_last_run_timestamp_seconds",
		Help: "Unix time the last sweep finished",
	})
)
