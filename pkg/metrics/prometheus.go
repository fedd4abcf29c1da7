// Package metrics provides Prometheus metrics for the bathlog service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBuckets are in milliseconds.
var defaultLatencyBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000}

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	latencyBuckets []float64
	constLabels     map[string]string
	registry         prometheus.Registerer

	// Event store
	eventsLogged     *prometheus.CounterVec
	eventsDeleted    prometheus.Counter
	storeEvents      prometheus.Gauge
	storeLoadLatency prometheus.Histogram
	storeSaveLatency prometheus.Histogram
	snapshots        *prometheus.CounterVec
	snapshotBytes    prometheus.Gauge

	// Widget queue
	queueLength   prometheus.Gauge
	queueAppends  prometheus.Counter
	queueDebounce prometheus.Counter
	queueInvalid  prometheus.Counter

	// Reconciliation
	syncRuns     *prometheus.CounterVec
	syncPromoted prometheus.Counter
	syncLatency  prometheus.Histogram

	// Aggregation and export
	aggregations       *prometheus.CounterVec
	aggregationLatency prometheus.Histogram
	exports            *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Change stream
	streamSubscribers prometheus.Gauge
	streamDropped     prometheus.Counter

	errorsByComponent *prometheus.CounterVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bathlog",
		subsystem:        "",
		latencyBuckets: defaultLatencyBuckets,
		constLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics on the configured registry.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.eventsLogged = auto.NewCounterVec(m.counterOpts("events_logged_total", "Events written to the store, by type and source"), []string{"type", "source"})
	m.eventsDeleted = auto.NewCounter(m.counterOpts("events_deleted_total", "Events removed from the store"))
	m.storeEvents = auto.NewGauge(m.gaugeOpts("store_events", "Events currently held by the store"))
	m.storeLoadLatency = auto.NewHistogram(m.histogramOpts("store_load_latency_milliseconds", "Event store load latency"))
	m.storeSaveLatency = auto.NewHistogram(m.histogramOpts("store_save_latency_milliseconds", "Event store save latency"))
	m.snapshots = auto.NewCounterVec(m.counterOpts("snapshots_total", "Compressed snapshots written or restored"), []string{"op"})
	m.snapshotBytes = auto.NewGauge(m.gaugeOpts("snapshot_last_bytes", "Size of the last snapshot written"))

	m.queueLength = auto.NewGauge(m.gaugeOpts("widget_queue_length", "Events waiting in the widget queue"))
	m.queueAppends = auto.NewCounter(m.counterOpts("widget_queue_appends_total", "Widget taps accepted into the queue"))
	m.queueDebounce = auto.NewCounter(m.counterOpts("widget_queue_debounced_total", "Widget taps rejected by the debounce window"))
	m.queueInvalid = auto.NewCounter(m.counterOpts("widget_queue_invalid_entries_total", "Queued entries skipped by strict decoding"))

	m.syncRuns = auto.NewCounterVec(m.counterOpts("sync_runs_total", "Queue reconciliation runs by outcome"), []string{"outcome"})
	m.syncPromoted = auto.NewCounter(m.counterOpts("sync_promoted_events_total", "Queued events promoted into the store"))
	m.syncLatency = auto.NewHistogram(m.histogramOpts("sync_latency_milliseconds", "Queue reconciliation latency"))

	m.aggregations = auto.NewCounterVec(m.counterOpts("aggregations_total", "Chart aggregations computed, by range"), []string{"range"})
	m.aggregationLatency = auto.NewHistogram(m.histogramOpts("aggregation_latency_milliseconds", "Bucket and aggregate computation latency"))
	m.exports = auto.NewCounterVec(m.counterOpts("exports_total", "Export documents produced, by format"), []string{"format"})

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.streamSubscribers = auto.NewGauge(m.gaugeOpts("stream_subscribers", "Connected change stream clients"))
	m.streamDropped = auto.NewCounter(m.counterOpts("stream_dropped_total", "Change notifications dropped for slow clients"))

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Current number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause time"))
}

// Event store metrics.

// RecordEventLogged counts one stored event of the given type and source.
func RecordEventLogged(eventType, source string) {
	globalManager.eventsLogged.WithLabelValues(eventType, source).Inc()
}

// RecordEventsDeleted counts removed events.
func RecordEventsDeleted(n int) {
	if n > 0 {
		globalManager.eventsDeleted.Add(float64(n))
	}
}

// UpdateStoreEvents sets the stored event count.
func UpdateStoreEvents(n int) {
	globalManager.storeEvents.Set(float64(n))
}

// RecordStoreLoadLatency records a store load duration.
func RecordStoreLoadLatency(latencyMs float64) {
	globalManager.storeLoadLatency.Observe(latencyMs)
}

// RecordStoreSaveLatency records a store save duration.
func RecordStoreSaveLatency(latencyMs float64) {
	globalManager.storeSaveLatency.Observe(latencyMs)
}

// RecordSnapshot counts a snapshot operation ("write" or "read") and, for
// writes, the compressed size.
func RecordSnapshot(op string, bytes int64) {
	globalManager.snapshots.WithLabelValues(op).Inc()
	if op == "write" {
		globalManager.snapshotBytes.Set(float64(bytes))
	}
}

// Widget queue metrics.

// UpdateQueueLength sets the pending widget queue length.
func UpdateQueueLength(n int) {
	globalManager.queueLength.Set(float64(n))
}

// RecordQueueAppend counts an accepted widget tap.
func RecordQueueAppend() {
	globalManager.queueAppends.Inc()
}

// RecordQueueDebounced counts a tap dropped by the debounce window.
func RecordQueueDebounced() {
	globalManager.queueDebounce.Inc()
}

// RecordQueueInvalidEntries counts queued entries that failed validation.
func RecordQueueInvalidEntries(n int) {
	if n > 0 {
		globalManager.queueInvalid.Add(float64(n))
	}
}

// Reconciliation metrics.

// RecordSyncRun counts a reconciliation run by outcome
// (noop, cleared, merged, skipped, failed).
func RecordSyncRun(outcome string) {
	globalManager.syncRuns.WithLabelValues(outcome).Inc()
}

// RecordSyncPromoted counts events promoted from the queue.
func RecordSyncPromoted(n int) {
	if n > 0 {
		globalManager.syncPromoted.Add(float64(n))
	}
}

// RecordSyncLatency records a reconciliation duration.
func RecordSyncLatency(latencyMs float64) {
	globalManager.syncLatency.Observe(latencyMs)
}

// Aggregation and export metrics.

// RecordAggregation counts a chart computation for a range.
func RecordAggregation(rangeName string, latencyMs float64) {
	globalManager.aggregations.WithLabelValues(rangeName).Inc()
	globalManager.aggregationLatency.Observe(latencyMs)
}

// RecordExport counts an export document.
func RecordExport(format string) {
	globalManager.exports.WithLabelValues(format).Inc()
}

// HTTP metrics.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Change stream metrics.

// UpdateStreamSubscribers sets the connected stream client count.
func UpdateStreamSubscribers(n int) {
	globalManager.streamSubscribers.Set(float64(n))
}

// RecordStreamDropped counts notifications that a client missed.
func RecordStreamDropped(n int64) {
	if n > 0 {
		globalManager.streamDropped.Add(float64(n))
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// Process metrics.

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutineCount.Set(float64(n))
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.systemGCPauseTime.Observe(ms)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
