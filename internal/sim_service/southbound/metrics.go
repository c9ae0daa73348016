package southbound

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchTotalCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sim_gateway",
			Name:      "southbound_dispatch_total",
			Help:      "Total southbound dispatch attempts.",
		},
		[]string{"destination", "protocol", "outcome"}, // outcome: "success", "failure", "swallowed_failure"
	)

	dispatchDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sim_gateway",
			Name:      "southbound_dispatch_duration_seconds",
			Help:      "Duration of southbound HTTP calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"destination", "protocol"},
	)
)
