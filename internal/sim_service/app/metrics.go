package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsCreatedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sim_gateway",
			Name:      "records_created_total",
			Help:      "Total SIM records created.",
		},
		[]string{"dispatch_outcome"}, // "success", "failure"
	)

	recordsDeletedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sim_gateway",
			Name:      "records_deleted_total",
			Help:      "Total SIM records deleted.",
		},
	)

	createRejectedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sim_gateway",
			Name:      "creates_rejected_total",
			Help:      "Total create requests rejected before persistence.",
		},
		[]string{"reason"}, // "missing_field", "invalid_format", "duplicate"
	)
)
