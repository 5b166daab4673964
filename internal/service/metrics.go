package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postpilot_dispatches_total",
			Help: "Dispatch attempts by trigger and result",
		},
		[]string{"trigger", "result"},
	)

	dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postpilot_dispatch_duration_seconds",
			Help:    "Time spent waiting on the publishing workflow",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 9),
		},
		[]string{"trigger"},
	)

	captionFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postpilot_caption_failures_total",
			Help: "Caption generations that fell back to an empty caption",
		},
	)
)
