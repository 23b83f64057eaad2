package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sandevgo/piichat/internal/core"
)

// Message outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeEmpty          = "empty"
	OutcomeDetectionError = "detection_error"
	OutcomeTransportError = "transport_error"
)

// Metrics holds the Prometheus collectors of the chat pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	messagesTotal       *prometheus.CounterVec
	redactedEntities    *prometheus.CounterVec
	llmRequestDuration  *prometheus.HistogramVec
	detectionDuration   prometheus.Histogram
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		messagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "piichat_messages_total",
				Help: "User submissions by outcome",
			},
			[]string{"outcome"},
		),

		redactedEntities: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "piichat_redacted_entities_total",
				Help: "Entities replaced by a placeholder, by kind",
			},
			[]string{"kind"},
		),

		llmRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "piichat_llm_request_duration_seconds",
				Help:    "Language model request latency in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"provider"},
		),

		detectionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "piichat_detection_duration_seconds",
				Help:    "PII detection latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "piichat_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"method", "route", "status_code"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "piichat_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.messagesTotal,
		m.redactedEntities,
		m.llmRequestDuration,
		m.detectionDuration,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) RecordMessage(outcome string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(outcome).Inc()
}

// RecordRedaction records detector latency and the number of replaced spans per kind.
func (m *Metrics) RecordRedaction(duration time.Duration, counts map[core.EntityKind]int) {
	if m == nil {
		return
	}
	m.detectionDuration.Observe(duration.Seconds())
	for kind, n := range counts {
		m.redactedEntities.WithLabelValues(string(kind)).Add(float64(n))
	}
}

func (m *Metrics) RecordLLMRequest(provider string, duration time.Duration) {
	if m == nil {
		return
	}
	m.llmRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
