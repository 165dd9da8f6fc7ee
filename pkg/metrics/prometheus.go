// Package metrics provides Prometheus metrics for the SENSEI inference engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Pipeline metrics
	batchCycles        prometheus.Counter
	batchCycleDuration prometheus.Histogram
	realtimeEvents     prometheus.Counter
	suggestionsTotal   prometheus.Counter
	scoringLatency     prometheus.Histogram
	scoringErrors      prometheus.Counter
	insufficientData   prometheus.Counter

	// Connector metrics
	connectorHealthy  *prometheus.GaugeVec
	connectorFailures *prometheus.CounterVec
	queryErrors       *prometheus.CounterVec
	pullLatency       *prometheus.HistogramVec

	// Cache metrics
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheErrors prometheus.Counter

	// Dispatch metrics
	eventsDispatched *prometheus.CounterVec
	subscriberCount  prometheus.Gauge

	// On-demand analysis metrics
	analysisRequests *prometheus.CounterVec
}

var defaultManager *Manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	defaultManager = NewManager()
}

// NewManager creates a metrics manager with configuration options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sensei",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.batchCycles = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_cycles_total",
		Help:      "Total number of completed batch analysis cycles.",
	})

	m.batchCycleDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_cycle_duration_seconds",
		Help:      "Duration of batch analysis cycles.",
		Buckets:   m.histogramBuckets,
	})

	m.realtimeEvents = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "realtime_events_total",
		Help:      "Total number of real-time records consumed from streaming connectors.",
	})

	m.suggestionsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "suggestions_total",
		Help:      "Total number of level suggestions produced.",
	})

	m.scoringLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_seconds",
		Help:      "Latency of scoring engine runs per employee.",
		Buckets:   m.histogramBuckets,
	})

	m.scoringErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_errors_total",
		Help:      "Total number of scoring engine failures.",
	})

	m.insufficientData = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "insufficient_data_total",
		Help:      "Total number of analyses skipped because the employee had no activities.",
	})

	m.connectorHealthy = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "connector_healthy",
		Help:      "Connector health from the last health check (1 healthy, 0 unhealthy).",
	}, []string{"connector"})

	m.connectorFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "connector_failures_total",
		Help:      "Total number of connector connection failures.",
	}, []string{"connector"})

	m.queryErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "query_errors_total",
		Help:      "Total number of failed connector pulls by capability.",
	}, []string{"connector", "capability"})

	m.pullLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pull_latency_seconds",
		Help:      "Latency of connector pulls by capability.",
		Buckets:   m.histogramBuckets,
	}, []string{"connector", "capability"})

	m.cacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Total number of suggestion cache hits.",
	})

	m.cacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Total number of suggestion cache misses.",
	})

	m.cacheErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_errors_total",
		Help:      "Total number of cache transport errors (treated as misses).",
	})

	m.eventsDispatched = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_dispatched_total",
		Help:      "Total number of events dispatched to subscribers by type.",
	}, []string{"event_type"})

	m.subscriberCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subscribers",
		Help:      "Number of registered event subscribers.",
	})

	m.analysisRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysis_requests_total",
		Help:      "Total number of on-demand analysis requests by kind.",
	}, []string{"kind"})
}

// Package-level helpers recording against the default manager.

func RecordBatchCycle()                    { defaultManager.batchCycles.Inc() }
func RecordBatchCycleDuration(sec float64) { defaultManager.batchCycleDuration.Observe(sec) }
func RecordRealtimeEvent()                 { defaultManager.realtimeEvents.Inc() }
func RecordSuggestions(n int)              { defaultManager.suggestionsTotal.Add(float64(n)) }
func RecordScoringLatency(sec float64)     { defaultManager.scoringLatency.Observe(sec) }
func RecordScoringError()                  { defaultManager.scoringErrors.Inc() }
func RecordInsufficientData()              { defaultManager.insufficientData.Inc() }

func UpdateConnectorHealth(connector string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	defaultManager.connectorHealthy.WithLabelValues(connector).Set(v)
}

func RecordConnectorFailure(connector string) {
	defaultManager.connectorFailures.WithLabelValues(connector).Inc()
}

func RecordQueryError(connector, capability string) {
	defaultManager.queryErrors.WithLabelValues(connector, capability).Inc()
}

func RecordPullLatency(connector, capability string, sec float64) {
	defaultManager.pullLatency.WithLabelValues(connector, capability).Observe(sec)
}

func RecordCacheHit()   { defaultManager.cacheHits.Inc() }
func RecordCacheMiss()  { defaultManager.cacheMisses.Inc() }
func RecordCacheError() { defaultManager.cacheErrors.Inc() }

func RecordEventDispatched(eventType string) {
	defaultManager.eventsDispatched.WithLabelValues(eventType).Inc()
}

func UpdateSubscriberCount(n int) { defaultManager.subscriberCount.Set(float64(n)) }

func RecordAnalysisRequest(kind string) {
	defaultManager.analysisRequests.WithLabelValues(kind).Inc()
}

// GetRegistry returns the registry backing the default manager, for
// serving via promhttp.
func GetRegistry() *prometheus.Registry {
	return defaultManager.registry
}
