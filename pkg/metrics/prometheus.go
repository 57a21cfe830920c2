// Package metrics provides Prometheus metrics for the pitching decision service.
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

	// Game processing
	gamesProcessed     *prometheus.CounterVec
	gamesDuplicate     prometheus.Counter
	decisionsAwarded   *prometheus.CounterVec
	decisionLatency    prometheus.Histogram
	playsByRule        *prometheus.CounterVec
	coverageGaps       *prometheus.CounterVec
	outDrift           prometheus.Counter
	correctionsApplied prometheus.Counter
	reviewFlags        *prometheus.CounterVec

	// Standings store
	standingsRecords          prometheus.Gauge
	standingsUpdateLatency    prometheus.Histogram
	standingsQueryLatency     prometheus.Histogram
	standingsSnapshotDuration prometheus.Histogram
	standingsSnapshotLastUnix prometheus.Gauge
	standingsSnapshotCount    prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerBusy              prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Ledger
	ledgerWrites *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemGoroutines  prometheus.Gauge
	systemMemoryBytes prometheus.Gauge
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
		namespace:        "pitchrecord",
		subsystem:        "decisions",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
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

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.gamesProcessed = m.counterVec("games_processed_total", "Games run through decision attribution, by outcome status", "status")
	m.gamesDuplicate = m.counter("games_duplicate_total", "Game submissions dropped as already processed")
	m.decisionsAwarded = m.counterVec("decisions_awarded_total", "Pitching decisions awarded, by stat", "stat")
	m.decisionLatency = m.histogram("decision_latency_milliseconds", "Time to reconstruct and attribute one game")
	m.playsByRule = m.counterVec("plays_by_rule_total", "Plays simulated, by the rule that resolved them", "rule")
	m.coverageGaps = m.counterVec("unknown_play_codes_total", "Plays no simulation rule covered, by era and code", "era", "code")
	m.outDrift = m.counter("out_drift_total", "Plays whose logged outs disagree with the replay")
	m.correctionsApplied = m.counter("corrections_applied_total", "Known log corrections applied")
	m.reviewFlags = m.counterVec("review_flags_total", "Games flagged for review, by reason", "reason")

	m.standingsRecords = m.gauge("standings_records", "Pitcher rows across all standings boards")
	m.standingsUpdateLatency = m.histogram("standings_update_latency_milliseconds", "Standings update latency")
	m.standingsQueryLatency = m.histogram("standings_query_latency_milliseconds", "Standings query latency")
	m.standingsSnapshotDuration = m.histogram("standings_snapshot_rebuild_duration_milliseconds", "Standings snapshot rebuild duration")
	m.standingsSnapshotLastUnix = m.gauge("standings_snapshot_last_unix", "Unix time of the last standings snapshot")
	m.standingsSnapshotCount = m.counter("standings_snapshot_count_total", "Standings snapshots published")

	m.queueSize = m.gauge("queue_size", "Games waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Games enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Games dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Rejected enqueues")

	m.workerCount = m.gauge("worker_count", "Workers in the pool")
	m.workerBusy = m.gauge("worker_busy_count", "Workers currently processing a game")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker time per game, including sinks")
	m.workerErrors = m.counter("worker_errors_total", "Games whose sink failed")

	m.ledgerWrites = m.counterVec("ledger_writes_total", "Rows written to the ledger, by table", "table")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")

	m.systemGoroutines = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemMemoryBytes = m.gauge("system_memory_usage_bytes", "Heap bytes in use")
}

// RecordGameProcessed counts a processed game by decision status.
func RecordGameProcessed(status string) { globalManager.gamesProcessed.WithLabelValues(status).Inc() }

// RecordGameDuplicate counts a duplicate submission.
func RecordGameDuplicate() { globalManager.gamesDuplicate.Inc() }

// RecordDecisionAwarded counts one awarded decision.
func RecordDecisionAwarded(stat string) { globalManager.decisionsAwarded.WithLabelValues(stat).Inc() }

// RecordDecisionLatency records attribution latency in milliseconds.
func RecordDecisionLatency(latencyMs float64) { globalManager.decisionLatency.Observe(latencyMs) }

// RecordPlayRule counts a simulated play by rule name.
func RecordPlayRule(rule string) { globalManager.playsByRule.WithLabelValues(rule).Inc() }

// RecordCoverageGap counts an uncovered play.
func RecordCoverageGap(era, code string) { globalManager.coverageGaps.WithLabelValues(era, code).Inc() }

// RecordOutDrift adds plays with out drift.
func RecordOutDrift(n int) { globalManager.outDrift.Add(float64(n)) }

// RecordCorrectionsApplied adds applied log corrections.
func RecordCorrectionsApplied(n int) { globalManager.correctionsApplied.Add(float64(n)) }

// RecordReviewFlag counts a review flag by reason.
func RecordReviewFlag(reason string) { globalManager.reviewFlags.WithLabelValues(reason).Inc() }

// UpdateStandingsRecords sets the number of standings rows.
func UpdateStandingsRecords(count int) { globalManager.standingsRecords.Set(float64(count)) }

// RecordStandingsUpdateLatency records a standings write in milliseconds.
func RecordStandingsUpdateLatency(latencyMs float64) {
	globalManager.standingsUpdateLatency.Observe(latencyMs)
}

// RecordStandingsQueryLatency records a standings read in milliseconds.
func RecordStandingsQueryLatency(latencyMs float64) {
	globalManager.standingsQueryLatency.Observe(latencyMs)
}

// RecordStandingsSnapshot records a published snapshot.
func RecordStandingsSnapshot(durationMs float64, unix int64) {
	globalManager.standingsSnapshotDuration.Observe(durationMs)
	globalManager.standingsSnapshotLastUnix.Set(float64(unix))
	globalManager.standingsSnapshotCount.Inc()
}

// UpdateQueueSize sets the queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue counts an enqueue.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeue.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the pool size.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// AddWorkerBusy moves the busy worker gauge by delta.
func AddWorkerBusy(delta int) { globalManager.workerBusy.Add(float64(delta)) }

// RecordWorkerProcessingLatency records per-game worker latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a worker failure.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordLedgerWrite counts rows written to a ledger table.
func RecordLedgerWrite(table string, rows int) {
	globalManager.ledgerWrites.WithLabelValues(table).Add(float64(rows))
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystem sets the goroutine and heap gauges.
func UpdateSystem(goroutines int, heapBytes uint64) {
	globalManager.systemGoroutines.Set(float64(goroutines))
	globalManager.systemMemoryBytes.Set(float64(heapBytes))
}

// GetRegistry returns the registry the global metrics are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
