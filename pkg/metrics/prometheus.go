// Package metrics provides Prometheus metrics for the courtside scoreboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the courtside service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Match state
	courtsTotal         prometheus.Gauge
	votesSubmitted      prometheus.Counter
	votesRejected       *prometheus.CounterVec
	decisions           *prometheus.CounterVec
	decisionsAmbiguous  prometheus.Counter
	duplicateSubmission prometheus.Counter

	// Broadcast fan-out
	subscribers        prometheus.Gauge
	broadcastPublished prometheus.Counter
	broadcastDropped   prometheus.Counter
	broadcastSendErrs  prometheus.Counter
	deliveryLatency    prometheus.Histogram
	wsConnections      prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "courtside",
		subsystem:        "scoreboard",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.courtsTotal = m.gauge("courts", "Number of live courts")
	m.votesSubmitted = m.counter("votes_submitted_total", "Referee votes appended to a ledger")
	m.votesRejected = m.counterVec("votes_rejected_total", "Referee votes rejected before reaching a ledger", "reason")
	m.decisions = m.counterVec("decisions_total", "Round decisions that incremented a total score", "player")
	m.decisionsAmbiguous = m.counter("decisions_ambiguous_total", "Recomputes where both competitors reached the threshold")
	m.duplicateSubmission = m.counter("duplicate_submissions_total", "Submissions ignored because their id was already accepted")

	m.subscribers = m.gauge("subscribers", "Active scoreboard subscriptions across all courts")
	m.broadcastPublished = m.counter("broadcast_published_total", "Snapshots enqueued for a subscriber")
	m.broadcastDropped = m.counter("broadcast_dropped_total", "Snapshots dropped because a subscriber queue was full")
	m.broadcastSendErrs = m.counter("broadcast_send_errors_total", "Snapshot deliveries that failed at the sink")
	m.wsConnections = m.gauge("ws_connections", "Open WebSocket connections")

	m.deliveryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "delivery_latency_milliseconds",
		Help:        "Time from publish to sink write completion",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP error responses by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// UpdateCourtCount sets the number of live courts.
func UpdateCourtCount(n int) { globalManager.courtsTotal.Set(float64(n)) }

// RecordVoteSubmitted counts an appended vote.
func RecordVoteSubmitted() { globalManager.votesSubmitted.Inc() }

// RecordVoteRejected counts a vote rejected for reason.
func RecordVoteRejected(reason string) { globalManager.votesRejected.WithLabelValues(reason).Inc() }

// RecordDecision counts a realized decision for player.
func RecordDecision(player string) { globalManager.decisions.WithLabelValues(player).Inc() }

// RecordAmbiguousDecision counts a double-threshold recompute.
func RecordAmbiguousDecision() { globalManager.decisionsAmbiguous.Inc() }

// RecordDuplicateSubmission counts a replayed submission id.
func RecordDuplicateSubmission() { globalManager.duplicateSubmission.Inc() }

// AddSubscribers adjusts the subscriber gauge by delta.
func AddSubscribers(delta int) { globalManager.subscribers.Add(float64(delta)) }

// RecordBroadcastPublished counts a snapshot enqueued for one subscriber.
func RecordBroadcastPublished() { globalManager.broadcastPublished.Inc() }

// RecordBroadcastDropped counts a snapshot dropped on a full queue.
func RecordBroadcastDropped() { globalManager.broadcastDropped.Inc() }

// RecordBroadcastSendError counts a failed sink write.
func RecordBroadcastSendError() { globalManager.broadcastSendErrs.Inc() }

// RecordDeliveryLatency observes publish-to-write latency.
func RecordDeliveryLatency(latencyMs float64) { globalManager.deliveryLatency.Observe(latencyMs) }

// AddWSConnections adjusts the open WebSocket connection gauge.
func AddWSConnections(delta int) { globalManager.wsConnections.Add(float64(delta)) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage updates system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount updates goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the custom metrics registry.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
