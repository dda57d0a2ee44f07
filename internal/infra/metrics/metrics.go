package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "batchflow"

var (
	BatchesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_created_total",
		Help:      "Batch registrations by outcome.",
	}, []string{"outcome"})

	BidsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bids_submitted_total",
		Help:      "Bid submissions by stage and outcome.",
	}, []string{"stage", "outcome"})

	BidsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bids_resolved_total",
		Help:      "Accept/reject decisions by stage, action and outcome.",
	}, []string{"stage", "action", "outcome"})

	StageAdvances = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stage_advances_total",
		Help:      "Batches moved from material sourcing to logistics-ready.",
	})

	ShipmentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipments_created_total",
		Help:      "Shipments materialized by logistics awards.",
	})

	TxConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tx_conflicts_total",
		Help:      "Serialization failures per operation, each followed by a retry or an error.",
	}, []string{"op"})

	TxDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tx_duration_seconds",
		Help:      "Wall time of write operations including retries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "code"})

	NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_failed_total",
		Help:      "Notifications that could not be delivered.",
	})
)
