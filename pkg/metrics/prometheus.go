// Package metrics provides Prometheus metrics for the podium leaderboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the podium service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Refresh cycle metrics
	refreshes        *prometheus.CounterVec
	refreshDuration  prometheus.Histogram
	fetchDuration    *prometheus.HistogramVec
	recordsIngested  prometheus.Gauge
	recordsSkipped   *prometheus.GaugeVec
	snapshotLastUnix prometheus.Gauge

	// Leaderboard shape
	competitors    prometheus.Gauge
	seasons        prometheus.Gauge
	assetsIndexed  prometheus.Gauge
	imagesAttached prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "podium",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.refreshes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("refreshes_total"),
		Help:        "Refresh cycles by outcome (ok, schema_error, fetch_error)",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.refreshDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("refresh_duration_milliseconds"),
		Help:        "Duration of a full refresh cycle in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.fetchDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("fetch_duration_milliseconds"),
		Help:        "Dataset fetch duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"dataset"})

	m.recordsIngested = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("records"),
		Help:        "Placement records in the current snapshot",
		ConstLabels: labels,
	})

	m.recordsSkipped = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("records_skipped"),
		Help:        "Records that earned no medal in the current snapshot, by reason",
		ConstLabels: labels,
	}, []string{"reason"})

	m.snapshotLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("snapshot_last_unix"),
		Help:        "Unix timestamp of the last published snapshot",
		ConstLabels: labels,
	})

	m.competitors = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("competitors"),
		Help:        "Competitors with at least one medal",
		ConstLabels: labels,
	})

	m.seasons = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("seasons"),
		Help:        "Distinct seasons in the history view",
		ConstLabels: labels,
	})

	m.assetsIndexed = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("assets_indexed"),
		Help:        "Image assets indexed by folded name",
		ConstLabels: labels,
	})

	m.imagesAttached = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("images_attached"),
		Help:        "Leaderboard entries with an image",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_component_total"),
		Help:        "Errors by component and error type",
		ConstLabels: labels,
	}, []string{"component", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_type_total"),
		Help:        "Errors by type and severity",
		ConstLabels: labels,
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_endpoint_total"),
		Help:        "Errors by HTTP endpoint, method and error type",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})
}

// RecordRefresh counts one refresh cycle with its outcome and duration.
func RecordRefresh(outcome string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.refreshes.WithLabelValues(outcome).Inc()
	globalManager.refreshDuration.Observe(durationMs)
}

// RecordFetchDuration records how long fetching a dataset took.
func RecordFetchDuration(dataset string, durationMs float64) {
	globalManager.fetchDuration.WithLabelValues(dataset).Observe(durationMs)
}

// UpdateRecords sets the record count of the current snapshot.
func UpdateRecords(count int) {
	globalManager.recordsIngested.Set(float64(count))
}

// UpdateRecordsSkipped replaces the skipped-record counts. Reasons missing
// from counts drop out of the gauge.
func UpdateRecordsSkipped(counts map[string]int) {
	globalManager.recordsSkipped.Reset()
	for reason, n := range counts {
		globalManager.recordsSkipped.WithLabelValues(reason).Set(float64(n))
	}
}

// RefreshInterval is how often process-level gauges should be sampled.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// UpdateSnapshotLastUnix records when the last snapshot was published.
func UpdateSnapshotLastUnix(ts float64) {
	globalManager.snapshotLastUnix.Set(ts)
}

// UpdateCompetitors sets the number of ranked competitors.
func UpdateCompetitors(count int) {
	globalManager.competitors.Set(float64(count))
}

// UpdateSeasons sets the number of distinct seasons.
func UpdateSeasons(count int) {
	globalManager.seasons.Set(float64(count))
}

// UpdateAssets sets the indexed and attached image counts.
func UpdateAssets(indexed, attached int) {
	globalManager.assetsIndexed.Set(float64(indexed))
	globalManager.imagesAttached.Set(float64(attached))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage updates system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
