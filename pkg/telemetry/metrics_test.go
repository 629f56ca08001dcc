package telemetry

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/vango-dev/hookbind/pkg/hook"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func newObservedStore(t *testing.T, obs hook.Observer, m map[string]any) *hook.Store[string] {
	t.Helper()
	s, err := hook.Wrap[string](m, hook.WithObserver(obs), hook.WithRegistrar(hook.NewRegistrar()), hook.WithName("videos"))
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestMetricsRecordsWritesAndEmits(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	s := newObservedStore(t, m, map[string]any{"views": 0})

	info, _ := hook.Key(s, "views")
	ok := info.BindToCallback(func(any) {})
	bad := info.BindToCallback(func(any) { panic(errors.New("boom")) })
	vb := info.BindToValue(hook.MapTarget{}, "views")

	s.Set("views", 1)
	s.Set("views", 2)

	if got := metricCounterValue(t, m.writesTotal.WithLabelValues("set")); got != 2 {
		t.Errorf("writes_total{op=set} = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.emitsTotal.WithLabelValues("callback", "ok")); got != 2 {
		t.Errorf("emits_total{callback,ok} = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.emitsTotal.WithLabelValues("callback", "error")); got != 2 {
		t.Errorf("emits_total{callback,error} = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.emitsTotal.WithLabelValues("value", "ok")); got != 2 {
		t.Errorf("emits_total{value,ok} = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.callbackErrors.WithLabelValues("callback")); got != 2 {
		t.Errorf("callback_errors_total{callback} = %v, want 2", got)
	}
	if got := metricHistogramCount(t, m.fanoutSize); got != 2 {
		t.Errorf("fanout_size count = %v, want 2", got)
	}
	if got := metricHistogramCount(t, m.writeDuration.WithLabelValues("set")); got != 2 {
		t.Errorf("write_duration_seconds count = %v, want 2", got)
	}
	if got := metricGaugeValue(t, m.activeBindings.WithLabelValues("callback")); got != 2 {
		t.Errorf("active_bindings{callback} = %v, want 2", got)
	}

	ok.Destroy()
	bad.Destroy()
	s.Delete("views")

	if got := metricGaugeValue(t, m.activeBindings.WithLabelValues("callback")); got != 0 {
		t.Errorf("active_bindings{callback} = %v, want 0", got)
	}
	if got := metricGaugeValue(t, m.activeBindings.WithLabelValues("value")); got != 0 {
		t.Errorf("active_bindings{value} = %v, want 0", got)
	}
	if got := metricCounterValue(t, m.destroyedTotal.WithLabelValues("explicit")); got != 2 {
		t.Errorf("destroyed_total{explicit} = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.destroyedTotal.WithLabelValues("key_deleted")); got != 1 {
		t.Errorf("destroyed_total{key_deleted} = %v, want 1", got)
	}
	if !vb.Destroyed() {
		t.Error("value binding should be destroyed by Delete")
	}
}

func TestMetricsNamespaceAndGather(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(
		WithRegistry(reg),
		WithNamespace("player"),
		WithSubsystem("engine"),
		WithConstLabels(prometheus.Labels{"app": "demo"}),
		WithBuckets([]float64{0.001, 0.01}),
	)
	s := newObservedStore(t, m, nil)
	s.Set("k", 1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() != "player_engine_writes_total" {
			continue
		}
		found = true
		labels := mf.GetMetric()[0].GetLabel()
		hasApp := false
		for _, l := range labels {
			if l.GetName() == "app" && l.GetValue() == "demo" {
				hasApp = true
			}
		}
		if !hasApp {
			t.Errorf("const label app=demo missing from %v", labels)
		}
	}
	if !found {
		t.Error("player_engine_writes_total not gathered")
	}
}

func TestMetricsTrackRegistrar(t *testing.T) {
	hook.DebugMode = true
	defer func() { hook.DebugMode = false }()

	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	s := newObservedStore(t, m, nil)
	m.TrackRegistrar(s.Registrar())

	info, _ := hook.Key(s, "k")
	info.BindToCallback(func(any) {})
	info.BindToCallback(func(any) {}).BindDestroy(hook.NewOwner(nil))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	want := map[string]float64{
		"hookbind_owned_bindings":   1,
		"hookbind_unbound_bindings": 1,
	}
	for _, mf := range families {
		w, ok := want[mf.GetName()]
		if !ok {
			continue
		}
		if got := mf.GetMetric()[0].GetGauge().GetValue(); got != w {
			t.Errorf("%s = %v, want %v", mf.GetName(), got, w)
		}
		delete(want, mf.GetName())
	}
	if len(want) != 0 {
		t.Errorf("gauges not gathered: %v", want)
	}
}
