package reactive

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics for a Runtime.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "cellgraph").
	Namespace string

	// Subsystem is the metrics subsystem (default: "reactive").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for batch flush sizes.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the runtime metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the flush size histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "cellgraph",
		Subsystem: "reactive",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors updated by a Runtime.
// A nil *Metrics is valid and records nothing.
//
// Metrics collected:
//   - cellgraph_reactive_cell_writes_total: writes by result (changed, unchanged)
//   - cellgraph_reactive_effect_runs_total: effect runs, including the first
//   - cellgraph_reactive_cleanup_errors_total: recovered cleanup panics by observer kind
//   - cellgraph_reactive_batch_flushes_total: outermost batch exits that ran effects
//   - cellgraph_reactive_batch_flush_size: effects run per flush
//   - cellgraph_reactive_observers: live observers by kind
type Metrics struct {
	cellWrites    *prometheus.CounterVec
	effectRuns    prometheus.Counter
	cleanupErrors *prometheus.CounterVec
	batchFlushes  prometheus.Counter
	flushSize     prometheus.Histogram
	observers     *prometheus.GaugeVec
}

// NewMetrics creates and registers the runtime collectors. Share one
// *Metrics between runtimes that report into the same registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		cellWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cell_writes_total",
			Help:        "Total number of cell writes by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		effectRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of effect runs",
			ConstLabels: config.ConstLabels,
		}),

		cleanupErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cleanup_errors_total",
			Help:        "Total number of recovered cleanup panics",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		batchFlushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_flushes_total",
			Help:        "Total number of batch flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_flush_size",
			Help:        "Number of effects run per batch flush",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		observers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observers",
			Help:        "Number of live observers by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}
}

func (m *Metrics) cellWrite(changed bool) {
	if m == nil {
		return
	}
	result := "unchanged"
	if changed {
		result = "changed"
	}
	m.cellWrites.WithLabelValues(result).Inc()
}

func (m *Metrics) effectRun() {
	if m == nil {
		return
	}
	m.effectRuns.Inc()
}

func (m *Metrics) cleanupFailed(kind ObserverKind) {
	if m == nil {
		return
	}
	m.cleanupErrors.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) batchFlushed(size int) {
	if m == nil {
		return
	}
	m.batchFlushes.Inc()
	m.flushSize.Observe(float64(size))
}

func (m *Metrics) observerCreated(kind ObserverKind) {
	if m == nil {
		return
	}
	m.observers.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) observerDisposed(kind ObserverKind) {
	if m == nil {
		return
	}
	m.observers.WithLabelValues(kind.String()).Dec()
}
