package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DistanceComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transport_distance_computations_total",
		Help: "Distance aggregations by outcome (ok, error).",
	}, []string{"outcome"})

	StaleDistanceResults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transport_distance_stale_results_total",
		Help: "Distance results dropped because a newer request or a reset superseded them.",
	})

	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transport_submissions_total",
		Help: "Transport request submissions by outcome (ok, invalid, error).",
	}, []string{"outcome"})

	RoutingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transport_routing_provider_seconds",
		Help:    "Latency of routing provider calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
)
