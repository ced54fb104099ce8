// Package metrics exposes Prometheus instrumentation for the translation
// pipeline and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing,
// so tests and the CLI can run without a registry.
type Metrics struct {
	translations   *prometheus.CounterVec
	verdicts       *prometheus.CounterVec
	llmDuration    *prometheus.HistogramVec
	llmFailures    *prometheus.CounterVec
	executorErrors prometheus.Counter
	toolCalls      *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		translations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nl2sql_translations_total",
				Help: "Translations by method (model, pattern-fallback, none) and outcome.",
			},
			[]string{"method", "outcome"},
		),
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nl2sql_verdicts_total",
				Help: "Safety verdicts by reason; safe verdicts use reason=safe.",
			},
			[]string{"reason"},
		),
		llmDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nl2sql_llm_request_duration_seconds",
				Help:    "Language model call latency.",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
			},
			[]string{"provider", "outcome"},
		),
		llmFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nl2sql_llm_failures_total",
				Help: "Language model failures by classified error type.",
			},
			[]string{"type"},
		),
		executorErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nl2sql_executor_errors_total",
				Help: "Errors returned by the SQL executor.",
			},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nl2sql_mcp_tool_calls_total",
				Help: "MCP tool calls by tool and outcome.",
			},
			[]string{"tool", "outcome"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	reg.MustRegister(
		m.translations,
		m.verdicts,
		m.llmDuration,
		m.llmFailures,
		m.executorErrors,
		m.toolCalls,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveTranslation(method, outcome string) {
	if m == nil {
		return
	}
	m.translations.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) ObserveVerdict(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "safe"
	}
	m.verdicts.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveLLMCall(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.llmDuration.WithLabelValues(provider, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLLMFailure(errType string) {
	if m == nil {
		return
	}
	m.llmFailures.WithLabelValues(errType).Inc()
}

func (m *Metrics) IncExecutorError() {
	if m == nil {
		return
	}
	m.executorErrors.Inc()
}

func (m *Metrics) ObserveToolCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

// HTTPMiddleware records request counts and latency. The path label is the
// matched route pattern when the mux provides one.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		}
		status := strconv.Itoa(recorder.status)
		m.httpRequests.WithLabelValues(r.Method, path, status).Inc()
		m.httpDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps streaming responses (MCP) working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
