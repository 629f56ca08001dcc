package main

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// logSpanProcessor writes ended spans to a logger at debug level.
type logSpanProcessor struct {
	logger *slog.Logger
}

func (p logSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p logSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	attrs := []any{
		"trace", s.SpanContext().TraceID().String(),
		"span", s.SpanContext().SpanID().String(),
		"duration", s.EndTime().Sub(s.StartTime()),
		"status", s.Status().Code.String(),
	}
	if s.Parent().IsValid() {
		attrs = append(attrs, "parent", s.Parent().SpanID().String())
	}
	for _, kv := range s.Attributes() {
		attrs = append(attrs, string(kv.Key), kv.Value.Emit())
	}
	p.logger.Debug("span "+s.Name(), attrs...)
}

func (p logSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p logSpanProcessor) ForceFlush(context.Context) error { return nil }

// newTracerProvider returns a provider sampling every span and logging it.
func newTracerProvider(logger *slog.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(logSpanProcessor{logger: logger}),
	)
}
