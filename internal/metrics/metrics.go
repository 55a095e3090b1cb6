// Package metrics provides Prometheus metrics for the evaluation core:
//   - medsafe_evaluations_total: Counter with kind and outcome labels
//   - medsafe_evaluation_duration_seconds: Histogram with kind label
//   - medsafe_risk_tier_total: Counter with tier label
//   - medsafe_dosage_status_total: Counter with status label
//   - medsafe_catalog_cache_requests_total: Counter with result label
//
// All metrics are registered with the Prometheus default registry during package
// initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome label values
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
)

var (
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medsafe_evaluations_total",
			Help: "Total evaluations by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	EvaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medsafe_evaluation_duration_seconds",
			Help:    "Evaluation latency",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"kind"},
	)

	RiskTierTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medsafe_risk_tier_total",
			Help: "Age-safety verdicts by risk tier",
		},
		[]string{"tier"},
	)

	DosageStatusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medsafe_dosage_status_total",
			Help: "Dosage verdicts by status",
		},
		[]string{"status"},
	)

	CatalogCacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medsafe_catalog_cache_requests_total",
			Help: "Catalog lookup cache requests by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(EvaluationsTotal)
	prometheus.MustRegister(EvaluationDuration)
	prometheus.MustRegister(RiskTierTotal)
	prometheus.MustRegister(DosageStatusTotal)
	prometheus.MustRegister(CatalogCacheRequests)
}
