package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName identifies spans emitted by the pipeline.
const TracerName = "github.com/jonathan/rfp-agent"

// Tracer wraps an OpenTelemetry tracer for pipeline stages.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer backed by tp. A nil provider uses the global one.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// StartStage opens a span for one pipeline stage. A nil Tracer returns a
// no-op span so ending it never touches a span owned by the caller.
func (t *Tracer) StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t == nil || t.tracer == nil {
		return ctx, noop.Span{}
	}
	return t.tracer.Start(ctx, stage, trace.WithAttributes(attrs...))
}

// EndStage records err on the span, if any, and ends it.
func EndStage(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RunAttrs are the attributes attached to every run span.
func RunAttrs(runID, title string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("rfp.run_id", runID),
		attribute.String("rfp.title", title),
	}
}
