package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/hookbind/pkg/hook"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "hookbind").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for write duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
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

// WithBuckets sets the write duration histogram buckets.
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
		Namespace: "hookbind",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a hook.Observer recording engine activity as Prometheus
// metrics.
type Metrics struct {
	config  MetricsConfig
	factory promauto.Factory

	writesTotal    *prometheus.CounterVec
	emitsTotal     *prometheus.CounterVec
	callbackErrors *prometheus.CounterVec
	activeBindings *prometheus.GaugeVec
	destroyedTotal *prometheus.CounterVec
	fanoutSize     prometheus.Histogram
	writeDuration  *prometheus.HistogramVec
}

// NewMetrics registers the engine metrics and returns an observer feeding
// them.
//
// Metrics collected:
//   - hookbind_writes_total: Counter of store writes by op
//   - hookbind_emits_total: Counter of emissions by binding kind and status
//     (ok, skipped, error)
//   - hookbind_callback_errors_total: Counter of failed emissions by kind
//   - hookbind_active_bindings: Gauge of live bindings by kind
//   - hookbind_destroyed_total: Counter of destroyed bindings by reason
//   - hookbind_fanout_size: Histogram of subscribers per write
//   - hookbind_write_duration_seconds: Histogram of write fan-out duration
//
// Registering twice on the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		config:  config,
		factory: factory,

		writesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "writes_total",
			Help:        "Total number of store writes",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		emitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "emits_total",
			Help:        "Total number of binding emissions",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "status"}),

		callbackErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "callback_errors_total",
			Help:        "Total number of failed binding emissions",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		activeBindings: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_bindings",
			Help:        "Number of live bindings",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		destroyedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "destroyed_total",
			Help:        "Total number of destroyed bindings",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		fanoutSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fanout_size",
			Help:        "Number of subscribers notified per write",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),

		writeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "write_duration_seconds",
			Help:        "Write fan-out duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),
	}
}

// TrackRegistrar exports the registrar's tracked and unbound binding counts
// as gauges.
func (m *Metrics) TrackRegistrar(r *hook.Registrar) {
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   m.config.Namespace,
		Subsystem:   m.config.Subsystem,
		Name:        "owned_bindings",
		Help:        "Number of bindings with at least one live owner",
		ConstLabels: m.config.ConstLabels,
	}, func() float64 { return float64(r.Tracked()) })

	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   m.config.Namespace,
		Subsystem:   m.config.Subsystem,
		Name:        "unbound_bindings",
		Help:        "Number of callback bindings never attached to an owner (debug mode only)",
		ConstLabels: m.config.ConstLabels,
	}, func() float64 { return float64(r.UnboundCount()) })
}

// OnWrite implements hook.Observer.
func (m *Metrics) OnWrite(ev hook.WriteEvent) func() {
	op := ev.Op.String()
	m.writesTotal.WithLabelValues(op).Inc()
	m.fanoutSize.Observe(float64(ev.Subscribers))

	start := time.Now()
	return func() {
		m.writeDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// OnEmit implements hook.Observer.
func (m *Metrics) OnEmit(ev hook.EmitEvent) {
	kind := ev.Kind.String()
	status := "ok"
	switch {
	case ev.Err != nil:
		status = "error"
		m.callbackErrors.WithLabelValues(kind).Inc()
	case ev.Skipped:
		status = "skipped"
	}
	m.emitsTotal.WithLabelValues(kind, status).Inc()
}

// OnBind implements hook.Observer.
func (m *Metrics) OnBind(ev hook.BindEvent) {
	m.activeBindings.WithLabelValues(ev.Kind.String()).Inc()
}

// OnDestroy implements hook.Observer.
func (m *Metrics) OnDestroy(ev hook.DestroyEvent) {
	m.activeBindings.WithLabelValues(ev.Kind.String()).Dec()
	m.destroyedTotal.WithLabelValues(ev.Reason.String()).Inc()
}
