package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stock-insight/internal/errs"
)

// Registry holds every collector of the process. It is separate from the
// default registry so tests can gather it without global side effects.
var Registry = prometheus.NewRegistry()

var (
	Analyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_analyses_total",
			Help: "Total number of analyses by outcome",
		},
		[]string{"status"}, // ok|invalid_input|no_data|upstream|domain|internal
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insight_analysis_duration_seconds",
			Help:    "End-to-end analysis duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	Recommendations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_recommendations_total",
			Help: "Recommendations issued",
		},
		[]string{"recommendation"},
	)

	RiskTiers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_risk_total",
			Help: "Risk tiers assigned",
		},
		[]string{"risk"},
	)

	NarrationCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_narration_calls_total",
			Help: "Narration requests by status",
		},
		[]string{"status"}, // success|error
	)

	NarrationLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insight_narration_latency_seconds",
			Help:    "Narration latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_upstream_errors_total",
			Help: "Collaborator fetch failures",
		},
		[]string{"collaborator", "operation"},
	)

	SentimentFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_sentiment_fallbacks_total",
			Help: "Company sentiment resolved by a fallback instead of a computed score",
		},
		[]string{"reason"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Analyses,
		AnalysisDuration,
		Recommendations,
		RiskTiers,
		NarrationCalls,
		NarrationLatency,
		UpstreamErrors,
		SentimentFallbacks,
	)
}

// Handler returns the Prometheus HTTP handler for Registry
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// RecordAnalysis records the outcome of one analysis. recommendation and risk
// are ignored when err is not nil.
func RecordAnalysis(duration time.Duration, recommendation, risk string, err error) {
	Analyses.WithLabelValues(errs.KindName(err)).Inc()
	AnalysisDuration.Observe(duration.Seconds())
	if err != nil {
		return
	}
	Recommendations.WithLabelValues(recommendation).Inc()
	RiskTiers.WithLabelValues(risk).Inc()
}

func RecordNarration(latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	NarrationCalls.WithLabelValues(status).Inc()
	NarrationLatency.Observe(latency.Seconds())
}

func RecordUpstreamError(collaborator, operation string) {
	UpstreamErrors.WithLabelValues(collaborator, operation).Inc()
}

func RecordFallback(reason string) {
	SentimentFallbacks.WithLabelValues(reason).Inc()
}
