// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cdim_evaluator"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Evaluation metrics
	EvaluationsTotal    *prometheus.CounterVec
	ViolationsTotal     *prometheus.CounterVec
	DocumentBytes       prometheus.Histogram
	ValidationLatency   *prometheus.HistogramVec
	SessionsActive      prometheus.Gauge
	ViewUpdates         *prometheus.CounterVec
	SchemaRevisionsSeen *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Ingest metrics
	IngestMessages *prometheus.CounterVec
	IngestErrors   *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Evaluation metrics
		EvaluationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total number of evaluation documents processed",
		}, []string{"origin", "result"}),
		ViolationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_violations_total",
			Help:      "Total number of schema violations found in rejected documents",
		}, []string{"revision", "code"}),
		DocumentBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_bytes",
			Help:      "Size of received evaluation documents in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 2, 12),
		}),
		ValidationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_latency_seconds",
			Help:      "Time to parse and validate a document in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"result"}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Whether an evaluation is currently loaded (0 or 1)",
		}),
		ViewUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_updates_total",
			Help:      "Total number of view state changes",
		}, []string{"action"}),
		SchemaRevisionsSeen: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_revisions_total",
			Help:      "Documents received per schema revision",
		}, []string{"revision"}),

		// HTTP metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		// Kafka publish metrics
		KafkaPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		// Ingest metrics
		IngestMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_messages_total",
			Help:      "Total number of documents received from ingest sources",
		}, []string{"source"}),
		IngestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_errors_total",
			Help:      "Total number of ingest source errors",
		}, []string{"source"}),
	}
}

// RecordEvaluation records the outcome of one load attempt.
func (m *Metrics) RecordEvaluation(origin, result string, sizeBytes int, latencySeconds float64) {
	m.EvaluationsTotal.WithLabelValues(origin, result).Inc()
	m.DocumentBytes.Observe(float64(sizeBytes))
	m.ValidationLatency.WithLabelValues(result).Observe(latencySeconds)
}

// RecordRevision records which schema revision a document used.
func (m *Metrics) RecordRevision(revision string) {
	m.SchemaRevisionsSeen.WithLabelValues(revision).Inc()
}

// RecordViolation records one schema violation.
func (m *Metrics) RecordViolation(revision, code string) {
	m.ViolationsTotal.WithLabelValues(revision, code).Inc()
}

// SetSessionActive sets the active session gauge.
func (m *Metrics) SetSessionActive(active bool) {
	if active {
		m.SessionsActive.Set(1)
	} else {
		m.SessionsActive.Set(0)
	}
}

// RecordViewUpdate records a view state change.
func (m *Metrics) RecordViewUpdate(action string) {
	m.ViewUpdates.WithLabelValues(action).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, latencySeconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPLatency.WithLabelValues(method, route).Observe(latencySeconds)
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordIngest records a document received from an ingest source.
func (m *Metrics) RecordIngest(source string) {
	m.IngestMessages.WithLabelValues(source).Inc()
}

// RecordIngestError records an ingest source error.
func (m *Metrics) RecordIngestError(source string) {
	m.IngestErrors.WithLabelValues(source).Inc()
}
