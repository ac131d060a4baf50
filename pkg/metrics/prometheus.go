// Package metrics provides Prometheus metrics for the site scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Core Business Metrics - scoring outcomes
	scoresComputed      prometheus.Counter
	computeLatency      prometheus.Histogram
	gradeDistribution   *prometheus.CounterVec
	dataQualityWarnings prometheus.Counter
	lowConfidence       prometheus.Counter
	recommendations     *prometheus.CounterVec
	rankedSites         prometheus.Gauge

	// Cache Metrics
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	cacheInvalidations *prometheus.CounterVec

	// Persistence Metrics - site snapshot writes
	snapshotWrites prometheus.Counter
	snapshotErrors prometheus.Counter

	// Upstream Metrics - metrics repository calls
	fetchLatency prometheus.Histogram
	fetchErrors  *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue Metrics - batch recalculation backlog
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	jobsDuplicate      prometheus.Counter

	// Worker Metrics
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sitescore",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Core Business Metrics
	m.scoresComputed = auto.NewCounter(m.counterOpts("scores_computed_total", "Total number of composite scores computed"))
	m.computeLatency = auto.NewHistogram(m.histogramOpts("compute_latency_milliseconds",
		"Histogram of end-to-end site scoring latency in milliseconds", m.histogramBuckets))
	m.gradeDistribution = auto.NewCounterVec(m.counterOpts("grades_total", "Computed scores by letter grade"), []string{"grade"})
	m.dataQualityWarnings = auto.NewCounter(m.counterOpts("data_quality_warnings_total",
		"Metrics with missing or non-numeric values substituted with the neutral score"))
	m.lowConfidence = auto.NewCounter(m.counterOpts("low_confidence_total", "Scores computed for sites without any metrics"))
	m.recommendations = auto.NewCounterVec(m.counterOpts("recommendations_total", "Recommendations produced by tier"), []string{"tier"})
	m.rankedSites = auto.NewGauge(m.gaugeOpts("ranked_sites", "Number of sites in the portfolio ranking"))

	// Cache Metrics
	m.cacheHits = auto.NewCounterVec(m.counterOpts("cache_hits_total", "Score cache hits"), []string{"backend"})
	m.cacheMisses = auto.NewCounterVec(m.counterOpts("cache_misses_total", "Score cache misses"), []string{"backend"})
	m.cacheInvalidations = auto.NewCounterVec(m.counterOpts("cache_invalidations_total",
		"Score cache invalidations on explicit recalculation"), []string{"backend"})

	// Persistence Metrics
	m.snapshotWrites = auto.NewCounter(m.counterOpts("snapshot_writes_total", "Site score snapshots written"))
	m.snapshotErrors = auto.NewCounter(m.counterOpts("snapshot_errors_total", "Failed site score snapshot operations"))

	// Upstream Metrics
	m.fetchLatency = auto.NewHistogram(m.histogramOpts("metrics_fetch_latency_milliseconds",
		"Metrics repository fetch latency in milliseconds", []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}))
	m.fetchErrors = auto.NewCounterVec(m.counterOpts("metrics_fetch_errors_total", "Metrics repository fetch failures by reason"), []string{"reason"})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	// Queue Metrics
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of pending recalculation jobs"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum number of pending recalculation jobs"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue size divided by capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Recalculation jobs enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Recalculation jobs dequeued by workers"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Recalculation jobs rejected by the queue"))
	m.jobsDuplicate = auto.NewCounter(m.counterOpts("jobs_duplicate_total", "Recalculation requests skipped because the site was already pending"))

	// Worker Metrics
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of running recalculation workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Recalculation job processing latency in milliseconds", m.histogramBuckets))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Recalculation jobs that failed"))

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component and type"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total",
		"Errors by type and severity"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Errors by HTTP endpoint, method and type"), []string{"endpoint", "method", "error_type"})

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Allocated heap memory in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"Average GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Business Metrics Functions.

// RecordScoreComputed records one composite score and its grade.
func RecordScoreComputed(grade string, latencyMs float64) {
	globalManager.scoresComputed.Inc()
	globalManager.gradeDistribution.WithLabelValues(grade).Inc()
	globalManager.computeLatency.Observe(latencyMs)
}

// RecordDataQualityWarnings adds n substituted metrics.
func RecordDataQualityWarnings(n int) {
	if n > 0 {
		globalManager.dataQualityWarnings.Add(float64(n))
	}
}

// RecordLowConfidence increments the low-confidence counter.
func RecordLowConfidence() {
	globalManager.lowConfidence.Inc()
}

// RecordRecommendation increments the recommendation counter for a tier.
func RecordRecommendation(tier string) {
	globalManager.recommendations.WithLabelValues(tier).Inc()
}

// UpdateRankedSites sets the number of ranked sites.
func UpdateRankedSites(count int) {
	globalManager.rankedSites.Set(float64(count))
}

// Cache Metrics Functions.

// RecordCacheHit increments the hit counter for a cache backend.
func RecordCacheHit(backend string) {
	globalManager.cacheHits.WithLabelValues(backend).Inc()
}

// RecordCacheMiss increments the miss counter for a cache backend.
func RecordCacheMiss(backend string) {
	globalManager.cacheMisses.WithLabelValues(backend).Inc()
}

// RecordCacheInvalidation increments the invalidation counter for a cache backend.
func RecordCacheInvalidation(backend string) {
	globalManager.cacheInvalidations.WithLabelValues(backend).Inc()
}

// Persistence Metrics Functions.

// RecordSnapshotWrite increments the snapshot write counter.
func RecordSnapshotWrite() {
	globalManager.snapshotWrites.Inc()
}

// RecordSnapshotError increments the snapshot error counter.
func RecordSnapshotError() {
	globalManager.snapshotErrors.Inc()
}

// Upstream Metrics Functions.

// RecordFetchLatency records metrics repository latency in milliseconds.
func RecordFetchLatency(latencyMs float64) {
	globalManager.fetchLatency.Observe(latencyMs)
}

// RecordFetchError increments the fetch error counter for a reason.
func RecordFetchError(reason string) {
	globalManager.fetchErrors.WithLabelValues(reason).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordJobDuplicate increments the duplicate job counter.
func RecordJobDuplicate() {
	globalManager.jobsDuplicate.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
