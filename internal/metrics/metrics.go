package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Chat turn metrics
	TurnsTotal          *prometheus.CounterVec
	TurnDurationSeconds *prometheus.HistogramVec

	// Intent gate metrics
	IntentTotal *prometheus.CounterVec

	// Tool pipeline metrics
	ToolRunsTotal          *prometheus.CounterVec
	ToolDurationSeconds    *prometheus.HistogramVec
	ValidationFailuresTotal *prometheus.CounterVec

	// Model gateway metrics
	GatewayRequestsTotal   *prometheus.CounterVec
	GatewayDurationSeconds *prometheus.HistogramVec

	// Retrieval metrics
	SearchesTotal    *prometheus.CounterVec
	BroadenedTotal   prometheus.Counter
	EmbeddingRetries prometheus.Counter

	// Document generation metrics
	DocumentsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterWaitDuration *prometheus.HistogramVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Index build metrics
	IndexBuildDuration prometheus.Histogram
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		TurnsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assist_turns_total",
				Help: "Total number of chat turns by outcome",
			},
			[]string{"outcome"}, // outcome: answer, ask, refusal, general, error
		),

		TurnDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assist_turn_duration_seconds",
				Help:    "End-to-end chat turn duration in seconds by route",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60}, // matches the 60s turn deadline
			},
			[]string{"route"}, // route: general_chat, blocked, tool name
		),

		IntentTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assist_intent_total",
				Help: "Total number of gate decisions by intent and tool",
			},
			[]string{"intent", "tool"},
		),

		ToolRunsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assist_tool_runs_total",
				Help: "Total number of tool pipeline runs by tool and result mode",
			},
			[]string{"tool", "mode"}, // mode: answer, ask, wrong_tool, error
		),

		ToolDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assist_tool_duration_seconds",
				Help:    "Tool pipeline duration in seconds by tool",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"tool"},
		),

		ValidationFailuresTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assist_validation_failures_total",
				Help: "Total extraction validation failures by tool and field",
			},
			[]string{"tool", "field"},
		),

		GatewayRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assist_gateway_requests_total",
				Help: "Total model gateway requests by provider and status",
			},
			[]string{"provider", "status"}, // status: success, error, timeout
		),

		GatewayDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assist_gateway_duration_seconds",
				Help:    "Model gateway request duration in seconds by provider",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"provider"},
		),

		SearchesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assist_searches_total",
				Help: "Total retrieval searches by kind and outcome",
			},
			[]string{"kind", "outcome"}, // kind: material, notice; outcome: hit, empty
		),

		BroadenedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "assist_searches_broadened_total",
				Help: "Total material searches that fell back to broad matching",
			},
		),

		EmbeddingRetries: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "assist_embedding_retries_total",
				Help: "Total embedding requests retried after a retryable failure",
			},
		),

		DocumentsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assist_documents_total",
				Help: "Total generated documents by kind and status",
			},
			[]string{"kind", "status"}, // kind: cover, marksheet
		),

		RateLimiterWaitDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assist_rate_limiter_wait_duration_seconds",
				Help:    "Time spent waiting for a rate limiter token by limiter type",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"limiter_type"}, // limiter_type: embedding
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assist_http_errors_total",
				Help: "Total HTTP errors by type and endpoint",
			},
			[]string{"error_type", "endpoint"},
		),

		IndexBuildDuration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assist_index_build_duration_seconds",
				Help:    "Duration of startup retrieval index builds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
	}

	return m
}

// RecordTurn records one completed chat turn
func (m *Metrics) RecordTurn(route, outcome string, duration float64) {
	m.TurnsTotal.WithLabelValues(outcome).Inc()
	m.TurnDurationSeconds.WithLabelValues(route).Observe(duration)
}

// RecordIntent records a gate decision
func (m *Metrics) RecordIntent(intent, tool string) {
	m.IntentTotal.WithLabelValues(intent, tool).Inc()
}

// RecordToolRun records a tool pipeline run
func (m *Metrics) RecordToolRun(tool, mode string, duration float64) {
	m.ToolRunsTotal.WithLabelValues(tool, mode).Inc()
	m.ToolDurationSeconds.WithLabelValues(tool).Observe(duration)
}

// RecordValidationFailure records an extraction field rejected by validation
func (m *Metrics) RecordValidationFailure(tool, field string) {
	m.ValidationFailuresTotal.WithLabelValues(tool, field).Inc()
}

// RecordGatewayRequest records a model gateway request
func (m *Metrics) RecordGatewayRequest(provider, status string, duration float64) {
	m.GatewayRequestsTotal.WithLabelValues(provider, status).Inc()
	m.GatewayDurationSeconds.WithLabelValues(provider).Observe(duration)
}

// RecordSearch records a retrieval search outcome
func (m *Metrics) RecordSearch(kind string, hits int, broadened bool) {
	outcome := "hit"
	if hits == 0 {
		outcome = "empty"
	}
	m.SearchesTotal.WithLabelValues(kind, outcome).Inc()
	if broadened {
		m.BroadenedTotal.Inc()
	}
}

// RecordEmbeddingRetry records one embedding retry
func (m *Metrics) RecordEmbeddingRetry() {
	m.EmbeddingRetries.Inc()
}

// RecordDocument records a generated document
func (m *Metrics) RecordDocument(kind, status string) {
	m.DocumentsTotal.WithLabelValues(kind, status).Inc()
}

// RecordRateLimiterWait records time spent waiting for a rate limiter token
func (m *Metrics) RecordRateLimiterWait(limiterType string, duration float64) {
	m.RateLimiterWaitDuration.WithLabelValues(limiterType).Observe(duration)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(errorType, endpoint string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordIndexBuild records a startup index build duration
func (m *Metrics) RecordIndexBuild(duration float64) {
	m.IndexBuildDuration.Observe(duration)
}
