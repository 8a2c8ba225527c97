package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	UploadsCounter     = prometheus.NewCounter(prometheus.CounterOpts{Name: "contracts_uploaded_total", Help: "Contracts accepted for processing"})
	RateLimitRejects   = prometheus.NewCounter(prometheus.CounterOpts{Name: "contracts_rate_limit_rejects_total", Help: "Uploads rejected by the rate limiter"})
	CompletedCounter   = prometheus.NewCounter(prometheus.CounterOpts{Name: "contracts_completed_total", Help: "Contracts processed successfully"})
	FailedCounter      = prometheus.NewCounter(prometheus.CounterOpts{Name: "contracts_failed_total", Help: "Contracts whose processing failed"})
	InFlightGauge      = prometheus.NewGauge(prometheus.GaugeOpts{Name: "contracts_processing", Help: "Contracts currently being processed"})
	ScoreHistogram     = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "contracts_score", Help: "Weighted completeness score of completed contracts", Buckets: prometheus.LinearBuckets(0, 10, 11)})
	LLMLatency         = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "contracts_llm_request_seconds", Help: "Latency of LLM field-group extraction calls", Buckets: prometheus.DefBuckets}, []string{"group", "outcome"})
	TextExtractLatency = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "contracts_text_extract_seconds", Help: "Latency of PDF text extraction", Buckets: prometheus.DefBuckets})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			UploadsCounter,
			RateLimitRejects,
			CompletedCounter,
			FailedCounter,
			InFlightGauge,
			ScoreHistogram,
			LLMLatency,
			TextExtractLatency,
		)
	})
	return promhttp.Handler()
}
