// Package metrics holds the Prometheus collectors for searches and oracle
// refinement.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refinement outcome labels.
const (
	OutcomeAccepted    = "accepted"
	OutcomeRejected    = "rejected"
	OutcomeMalformed   = "malformed"
	OutcomeUnavailable = "unavailable"
	OutcomeCached      = "cached"
)

var (
	SolvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colsolve_solves_total",
		Help: "Completed solves by status",
	}, []string{"status"})

	OrdersEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "colsolve_orders_evaluated_total",
		Help: "Column orders read and scored",
	})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "colsolve_search_duration_seconds",
		Help:    "Time spent in the n-gram search",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})

	OracleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colsolve_oracle_requests_total",
		Help: "Oracle calls by provider and result",
	}, []string{"provider", "result"})

	RefineOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colsolve_refine_outcomes_total",
		Help: "Refinement outcomes per candidate",
	}, []string{"outcome"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
