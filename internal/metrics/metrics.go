package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts served requests by method, route group and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "HTTP requests served by the ledger service.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by route group.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// SweepEvents counts events whose reservations were reclaimed.
	SweepEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_sweep_events_total",
		Help: "Ended events processed by the reclaim sweep.",
	})

	// SweepQuantityReturned counts equipment quantity credited back by the sweep.
	SweepQuantityReturned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_sweep_quantity_returned_total",
		Help: "Equipment quantity returned to the pool by the reclaim sweep.",
	})
)
