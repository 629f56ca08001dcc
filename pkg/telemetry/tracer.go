package telemetry

import (
	"context"
	"sync"

	"github.com/vango-dev/hookbind/pkg/hook"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for hookbind.
const defaultTracerName = "hookbind"

// TraceConfig configures the OpenTelemetry observer.
type TraceConfig struct {
	// TracerName is the name of the tracer (default: "hookbind").
	TracerName string

	// Provider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider().
	Provider trace.TracerProvider

	// Filter determines which writes to trace.
	// If nil, all writes are traced.
	Filter func(ev hook.WriteEvent) bool
}

// TraceOption configures the OpenTelemetry observer.
type TraceOption func(*TraceConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TraceOption {
	return func(c *TraceConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TraceOption {
	return func(c *TraceConfig) {
		c.Provider = tp
	}
}

// WithWriteFilter sets a filter function for writes.
func WithWriteFilter(filter func(ev hook.WriteEvent) bool) TraceOption {
	return func(c *TraceConfig) {
		c.Filter = filter
	}
}

// Tracer is a hook.Observer creating one span per store write.
//
// A write performed by a subscriber of another write (a store chained with
// hook.StoreTarget, for instance) becomes a child span. Failed emissions
// are recorded as errors on the span of the write that triggered them.
// Spans are tracked as a single stack, so writes should come from one
// goroutine at a time, as the engine expects.
type Tracer struct {
	config TraceConfig
	tracer trace.Tracer

	mu    sync.Mutex
	stack []*writeSpan
}

type writeSpan struct {
	ctx    context.Context
	span   trace.Span
	failed int
}

// NewTracer creates the OpenTelemetry observer.
//
// Span names are "hookbind.set" and "hookbind.delete", with attributes:
//   - hookbind.store: store name
//   - hookbind.store_id: store ID
//   - hookbind.key: written key
//   - hookbind.fanout: number of subscribers notified
//   - hookbind.failed_emits: number of failed emissions
func NewTracer(opts ...TraceOption) *Tracer {
	config := TraceConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracer{
		config: config,
		tracer: provider.Tracer(config.TracerName),
	}
}

// OnWrite implements hook.Observer.
func (t *Tracer) OnWrite(ev hook.WriteEvent) func() {
	if t.config.Filter != nil && !t.config.Filter(ev) {
		return nil
	}

	t.mu.Lock()
	parent := context.Background()
	if top := t.top(); top != nil {
		parent = top.ctx
	}
	t.mu.Unlock()

	ctx, span := t.tracer.Start(parent, "hookbind."+ev.Op.String(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("hookbind.store", ev.Store),
			attribute.Int64("hookbind.store_id", int64(ev.StoreID)),
			attribute.String("hookbind.key", ev.Key),
			attribute.Int("hookbind.fanout", ev.Subscribers),
		),
	)
	ws := &writeSpan{ctx: ctx, span: span}

	t.mu.Lock()
	t.stack = append(t.stack, ws)
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		for i := len(t.stack) - 1; i >= 0; i-- {
			if t.stack[i] == ws {
				t.stack = append(t.stack[:i], t.stack[i+1:]...)
				break
			}
		}

		failed := ws.failed
		t.mu.Unlock()

		span.SetAttributes(attribute.Int("hookbind.failed_emits", failed))
		if failed > 0 {
			span.SetStatus(codes.Error, "binding emission failed")
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// OnEmit implements hook.Observer.
func (t *Tracer) OnEmit(ev hook.EmitEvent) {
	if ev.Err == nil {
		return
	}
	t.mu.Lock()
	ws := t.top()
	if ws != nil {
		ws.failed++
	}
	t.mu.Unlock()
	if ws == nil {
		return
	}
	ws.span.RecordError(ev.Err, trace.WithAttributes(
		attribute.Int64("hookbind.binding_id", int64(ev.BindingID)),
		attribute.String("hookbind.binding_kind", ev.Kind.String()),
	))
}

// OnBind implements hook.Observer.
func (t *Tracer) OnBind(hook.BindEvent) {}

// OnDestroy implements hook.Observer. Destructions happening during a write,
// such as those caused by a delete, are added to its span as events.
func (t *Tracer) OnDestroy(ev hook.DestroyEvent) {
	t.mu.Lock()
	ws := t.top()
	t.mu.Unlock()
	if ws == nil {
		return
	}
	ws.span.AddEvent("hookbind.destroy", trace.WithAttributes(
		attribute.Int64("hookbind.binding_id", int64(ev.BindingID)),
		attribute.String("hookbind.reason", ev.Reason.String()),
	))
}

// top returns the innermost open write. Caller holds mu.
func (t *Tracer) top() *writeSpan {
	if n := len(t.stack); n > 0 {
		return t.stack[n-1]
	}
	return nil
}
