package metrics

import "github.com/prometheus/client_golang/prometheus"

// Generation and quota Prometheus metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postgen",
			Name:      "generation_requests_total",
			Help:      "Total number of text generation requests",
		},
		[]string{"provider", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "postgen",
			Name:      "generation_request_duration_seconds",
			Help:      "Text generation request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postgen",
			Name:      "generation_tokens_total",
			Help:      "Total generation tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	GenerationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postgen",
			Name:      "generation_errors_total",
			Help:      "Total text generation errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	QuotaDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postgen",
			Name:      "quota_decisions_total",
			Help:      "Request gate decisions by reason",
		},
		[]string{"reason"},
	)

	QuotaLedgerClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "postgen",
			Name:      "quota_ledger_clients",
			Help:      "Client identifiers currently held in the quota ledger",
		},
	)

	QuotaSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "postgen",
			Name:      "quota_swept_total",
			Help:      "Stale ledger records evicted by the sweeper",
		},
	)
)

var genMetricsRegistered bool

// RegisterGenerationMetrics registers generation and quota metrics. Must be called once from main.
func RegisterGenerationMetrics() {
	if genMetricsRegistered {
		return
	}
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(GenerationTokensTotal)
	prometheus.MustRegister(GenerationErrorsTotal)
	prometheus.MustRegister(QuotaDecisionsTotal)
	prometheus.MustRegister(QuotaLedgerClients)
	prometheus.MustRegister(QuotaSweptTotal)
	genMetricsRegistered = true
}
