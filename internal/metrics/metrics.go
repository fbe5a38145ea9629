package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors registered with the default registry and served on /metrics.
var (
	// HTTP surface
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Search provider calls by provider and outcome
	SearchRequestsTotal *prometheus.CounterVec

	// Per-candidate outcome of the validate+scrape pass
	CandidateOutcomesTotal *prometheus.CounterVec

	// End-to-end enrichment duration
	PipelineDuration prometheus.Histogram

	// Token exchange attempts by decision
	TokenExchangeAttemptsTotal *prometheus.CounterVec
)

func init() {
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serprelay",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "serprelay",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serprelay",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search provider calls",
		},
		[]string{"provider", "status"},
	)

	CandidateOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serprelay",
			Subsystem: "pipeline",
			Name:      "candidate_outcomes_total",
			Help:      "Candidates by outcome (kept, unreachable, empty)",
		},
		[]string{"outcome"},
	)

	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "serprelay",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Time to validate and scrape all candidates of one query",
			Buckets:   []float64{0.5, 1, 2, 3, 5, 8, 13},
		},
	)

	TokenExchangeAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serprelay",
			Subsystem: "oauth",
			Name:      "exchange_attempts_total",
			Help:      "Authorization code exchange attempts by result",
		},
		[]string{"result"},
	)

	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(CandidateOutcomesTotal)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(TokenExchangeAttemptsTotal)
}

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, route, status string, durationSec float64) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSec)
}

// RecordSearch records a provider call; status is "ok" or "error".
func RecordSearch(provider, status string) {
	SearchRequestsTotal.WithLabelValues(provider, status).Inc()
}

// RecordCandidate records the outcome tag of one candidate.
func RecordCandidate(outcome string) {
	CandidateOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordPipeline records the duration of one enrichment pass.
func RecordPipeline(durationSec float64) {
	PipelineDuration.Observe(durationSec)
}

// RecordTokenExchange records one exchange attempt; result is "ok", "retry" or "abort".
func RecordTokenExchange(result string) {
	TokenExchangeAttemptsTotal.WithLabelValues(result).Inc()
}
