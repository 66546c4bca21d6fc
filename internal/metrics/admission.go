package metrics

import "github.com/prometheus/client_golang/prometheus"

// Admission Prometheus metrics.
var (
	AdmissionDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quotaguard",
			Name:      "admission_decisions_total",
			Help:      "Total admission decisions by outcome",
		},
		[]string{"outcome", "bucket"},
	)

	AdmissionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quotaguard",
			Name:      "admission_tokens_total",
			Help:      "Total tokens debited by admitted requests",
		},
		[]string{"bucket"},
	)

	BucketTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "quotaguard",
			Name:      "bucket_tokens_remaining",
			Help:      "Remaining daily tokens per bucket",
		},
		[]string{"bucket"},
	)

	PlanTokensRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "quotaguard",
			Name:      "plan_tokens_remaining",
			Help:      "Remaining plan allowance gating the daily buckets",
		},
	)
)

var admissionMetricsRegistered bool

// RegisterAdmissionMetrics registers the admission metrics. Must be
// called once from the serve entrypoint; one-shot CLI commands skip it.
func RegisterAdmissionMetrics() {
	if admissionMetricsRegistered {
		return
	}
	prometheus.MustRegister(AdmissionDecisionsTotal)
	prometheus.MustRegister(AdmissionTokensTotal)
	prometheus.MustRegister(BucketTokensRemaining)
	prometheus.MustRegister(PlanTokensRemaining)
	admissionMetricsRegistered = true
}
