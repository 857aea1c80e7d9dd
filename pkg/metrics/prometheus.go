// Package metrics provides Prometheus metrics for the designer assignment engine.
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

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Evaluation Metrics - one per Evaluate call
	evaluations       *prometheus.CounterVec
	evaluationLatency prometheus.Histogram
	partitionSize     *prometheus.CounterVec
	reshuffles        prometheus.Counter

	// Scorer Metrics - external skill oracle
	scorerCalls    *prometheus.CounterVec
	scorerRetries  prometheus.Counter
	scorerLatency  prometheus.Histogram
	scorerDegraded *prometheus.CounterVec

	// Repository Metrics - commitment reads
	commitmentFetchLatency prometheus.Histogram
	commitmentFetchErrors  *prometheus.CounterVec
	unresolvedDesigners    prometheus.Counter
	availabilityWorkers    prometheus.Gauge
	rosterSize             prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

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

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before metrics are recorded or served.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// Enabled reports whether the global manager records anything.
func Enabled() bool {
	return globalManager.enabled
}

// RefreshInterval is how often gauge metrics such as system memory should
// be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tms",
		subsystem:        "assignment",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
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
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.evaluations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("evaluations_total"),
		Help:        "Total number of designer evaluations by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.evaluationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("evaluation_latency_milliseconds"),
		Help:        "Histogram of end-to-end evaluation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.partitionSize = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("designers_partitioned_total"),
		Help:        "Designers placed into each partition",
		ConstLabels: labels,
	}, []string{"partition"})

	m.reshuffles = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("reshuffle_suggestions_total"),
		Help:        "Total number of reshuffle suggestions produced",
		ConstLabels: labels,
	})

	m.scorerCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("scorer_calls_total"),
		Help:        "Skill oracle calls by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.scorerRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("scorer_retries_total"),
		Help:        "Skill oracle retry attempts",
		ConstLabels: labels,
	})

	m.scorerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("scorer_latency_milliseconds"),
		Help:        "Histogram of skill oracle latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.scorerDegraded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("scorer_degraded_total"),
		Help:        "Evaluations that fell back to default scores, by reason",
		ConstLabels: labels,
	}, []string{"reason"})

	m.commitmentFetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("commitment_fetch_latency_milliseconds"),
		Help:        "Histogram of per-designer schedule lookup latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.commitmentFetchErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("commitment_fetch_errors_total"),
		Help:        "Schedule lookups that failed after retries, by operation",
		ConstLabels: labels,
	}, []string{"operation"})

	m.unresolvedDesigners = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("unresolved_designers_total"),
		Help:        "Designers not found in the scheduling system (data quality)",
		ConstLabels: labels,
	})

	m.availabilityWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("availability_workers"),
		Help:        "Configured concurrency limit for availability checks",
		ConstLabels: labels,
	})

	m.rosterSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("roster_size"),
		Help:        "Number of designers in the last loaded roster snapshot",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_component_total"),
			Help:        "Total errors by component and error type",
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_type_total"),
			Help:        "Total errors by error type and severity",
			ConstLabels: labels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Total errors by HTTP endpoint, method and error type",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("error_latency_milliseconds"),
			Help:        "Latency of operations that resulted in errors",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "Current memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Current number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "Average GC pause time in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})
}

// Evaluation Metrics Functions.

// RecordEvaluation increments the evaluation counter for the given outcome
// ("ok", "degraded", "invalid", "cancelled").
func RecordEvaluation(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.evaluations.WithLabelValues(outcome).Inc()
}

// RecordEvaluationLatency records end-to-end evaluation latency.
func RecordEvaluationLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.evaluationLatency.Observe(latencyMs)
}

// RecordPartition adds n designers to the named partition counter.
func RecordPartition(partition string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.partitionSize.WithLabelValues(partition).Add(float64(n))
}

// RecordReshuffleSuggestion increments the reshuffle suggestion counter.
func RecordReshuffleSuggestion() {
	if !globalManager.enabled {
		return
	}
	globalManager.reshuffles.Inc()
}

// Scorer Metrics Functions.

// RecordScorerCall increments the scorer call counter for the given outcome.
func RecordScorerCall(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.scorerCalls.WithLabelValues(outcome).Inc()
}

// RecordScorerRetry increments the scorer retry counter.
func RecordScorerRetry() {
	if !globalManager.enabled {
		return
	}
	globalManager.scorerRetries.Inc()
}

// RecordScorerLatency records the latency of one oracle attempt.
func RecordScorerLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.scorerLatency.Observe(latencyMs)
}

// RecordScorerDegraded increments the degraded-scoring counter.
func RecordScorerDegraded(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.scorerDegraded.WithLabelValues(reason).Inc()
}

// Repository Metrics Functions.

// RecordCommitmentFetchLatency records a schedule lookup latency.
func RecordCommitmentFetchLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.commitmentFetchLatency.Observe(latencyMs)
}

// RecordCommitmentFetchError increments the failed lookup counter.
func RecordCommitmentFetchError(operation string) {
	if !globalManager.enabled {
		return
	}
	globalManager.commitmentFetchErrors.WithLabelValues(operation).Inc()
}

// RecordUnresolvedDesigner increments the unresolved designer counter.
func RecordUnresolvedDesigner() {
	if !globalManager.enabled {
		return
	}
	globalManager.unresolvedDesigners.Inc()
}

// UpdateAvailabilityWorkers sets the availability concurrency limit gauge.
func UpdateAvailabilityWorkers(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.availabilityWorkers.Set(float64(count))
}

// UpdateRosterSize sets the roster size gauge.
func UpdateRosterSize(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.rosterSize.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
