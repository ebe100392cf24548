// Package metrics provides Prometheus metrics for the BrokerFlow renewal service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline metrics
	policiesAdded       prometheus.Counter
	policiesRemoved     prometheus.Counter
	policiesTotal       prometheus.Gauge
	statusTransitions   *prometheus.CounterVec
	rejectedTransitions *prometheus.CounterVec

	// Ranking metrics
	rankComputations prometheus.Counter
	rankLatency      prometheus.Histogram

	// Brief generation metrics
	briefsRequested  prometheus.Counter
	briefOutcomes    *prometheus.CounterVec
	briefLatency     prometheus.Histogram
	briefQueueLength prometheus.Gauge
	briefQueueErrors *prometheus.CounterVec

	// Side-channel metrics
	notifications *prometheus.CounterVec
	rewardBalance prometheus.Gauge

	// Persistence metrics
	storeOperations *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "brokerflow",
		subsystem:        "renewals",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.policiesAdded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "policies_added_total",
		Help:      "Total number of policies created through the store",
	})

	m.policiesRemoved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "policies_removed_total",
		Help:      "Total number of policies deleted from the store",
	})

	m.policiesTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "policies",
		Help:      "Number of policies currently tracked",
	})

	m.statusTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "status_transitions_total",
		Help:      "Applied renewal status changes by origin and target status",
	}, []string{"from", "to"})

	m.rejectedTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "status_transitions_rejected_total",
		Help:      "Status changes refused by the pipeline",
	}, []string{"from", "to"})

	m.rankComputations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rank_computations_total",
		Help:      "Number of times the ranking view was recomputed",
	})

	m.rankLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rank_latency_milliseconds",
		Help:      "Time spent scoring and sorting the policy list",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50},
	})

	m.briefsRequested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "briefs_requested_total",
		Help:      "Brief generations submitted",
	})

	m.briefOutcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "brief_outcomes_total",
		Help:      "Brief generations by outcome: parsed, fallback, failed, superseded",
	}, []string{"outcome"})

	m.briefLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "brief_latency_milliseconds",
		Help:      "Latency of the external brief generation call",
		Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})

	m.briefQueueLength = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "brief_queue_length",
		Help:      "Brief jobs waiting for the worker",
	})

	m.briefQueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "brief_queue_errors_total",
		Help:      "Brief jobs refused by the queue",
	}, []string{"reason"})

	m.notifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_total",
		Help:      "Notifications emitted by severity",
	}, []string{"severity"})

	m.rewardBalance = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reward_balance",
		Help:      "Current broker reward balance",
	})

	m.storeOperations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "kv_operations_total",
		Help:      "Key-value persistence operations by backend, operation and result",
	}, []string{"backend", "op", "result"})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "kv_latency_milliseconds",
		Help:      "Key-value persistence latency",
		Buckets:   m.histogramBuckets,
	}, []string{"backend", "op"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordPolicyAdded increments the created-policies counter.
func RecordPolicyAdded() {
	globalManager.policiesAdded.Inc()
}

// RecordPolicyRemoved increments the removed-policies counter.
func RecordPolicyRemoved() {
	globalManager.policiesRemoved.Inc()
}

// UpdatePolicyCount sets the tracked-policies gauge.
func UpdatePolicyCount(n int) {
	globalManager.policiesTotal.Set(float64(n))
}

// RecordStatusTransition counts an applied status change.
func RecordStatusTransition(from, to string) {
	globalManager.statusTransitions.WithLabelValues(from, to).Inc()
}

// RecordRejectedTransition counts a refused status change.
func RecordRejectedTransition(from, to string) {
	globalManager.rejectedTransitions.WithLabelValues(from, to).Inc()
}

// RecordRankComputation records one ranking pass and its latency.
func RecordRankComputation(latencyMs float64) {
	globalManager.rankComputations.Inc()
	globalManager.rankLatency.Observe(latencyMs)
}

// RecordBriefRequested counts a submitted brief generation.
func RecordBriefRequested() {
	globalManager.briefsRequested.Inc()
}

// RecordBriefOutcome counts a finished brief generation.
func RecordBriefOutcome(outcome string) {
	globalManager.briefOutcomes.WithLabelValues(outcome).Inc()
}

// RecordBriefLatency records the external call latency in milliseconds.
func RecordBriefLatency(latencyMs float64) {
	globalManager.briefLatency.Observe(latencyMs)
}

// UpdateBriefQueueLength sets the brief queue gauge.
func UpdateBriefQueueLength(n int) {
	globalManager.briefQueueLength.Set(float64(n))
}

// RecordBriefQueueError counts a refused enqueue.
func RecordBriefQueueError(reason string) {
	globalManager.briefQueueErrors.WithLabelValues(reason).Inc()
}

// RecordNotification counts an emitted notification.
func RecordNotification(severity string) {
	globalManager.notifications.WithLabelValues(severity).Inc()
}

// UpdateRewardBalance sets the reward balance gauge.
func UpdateRewardBalance(balance int) {
	globalManager.rewardBalance.Set(float64(balance))
}

// RecordStoreOperation counts a KV operation and observes its latency.
func RecordStoreOperation(backend, op, result string, latencyMs float64) {
	globalManager.storeOperations.WithLabelValues(backend, op, result).Inc()
	globalManager.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
