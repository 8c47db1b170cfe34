package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with fleet-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for an operation against an instance.
	// instance may be empty when no instance has been selected yet.
	StartSpan(ctx context.Context, component, instance string) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a span named "fleet.op.<component>" with component and
// instance attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, component, instance string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("component", component),
		attribute.Bool("op.error", false), // updated in EndSpan on error
	}
	if instance != "" {
		attrs = append(attrs, attribute.String("instance", instance))
	}

	return t.tracer.Start(ctx, "fleet.op."+component,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("op.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer creates a no-op tracer.
func NewNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, component, instance string) (context.Context, trace.Span) {
	return t.noop.Start(ctx, "fleet.op."+component)
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
