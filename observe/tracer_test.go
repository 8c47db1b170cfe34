package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewTracer(tp.Tracer("test")), recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, attr := range span.Attributes() {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracer_StartSpan(t *testing.T) {
	tracer, recorder := newRecordingTracer()

	ctx, span := tracer.StartSpan(context.Background(), "cache", "primary")
	tracer.EndSpan(span, nil)

	if ctx == nil {
		t.Fatal("StartSpan returned nil context")
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded spans = %d, want 1", len(spans))
	}

	got := spans[0]
	if got.Name() != "fleet.op.cache" {
		t.Errorf("span name = %q, want fleet.op.cache", got.Name())
	}
	if v, ok := spanAttr(got, "component"); !ok || v.AsString() != "cache" {
		t.Errorf("component attr = %v, want cache", v.AsString())
	}
	if v, ok := spanAttr(got, "instance"); !ok || v.AsString() != "primary" {
		t.Errorf("instance attr = %v, want primary", v.AsString())
	}
	if got.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status().Code)
	}
}

func TestTracer_StartSpanWithoutInstance(t *testing.T) {
	tracer, recorder := newRecordingTracer()

	_, span := tracer.StartSpan(context.Background(), "registry", "")
	tracer.EndSpan(span, nil)

	got := recorder.Ended()[0]
	if _, ok := spanAttr(got, "instance"); ok {
		t.Error("instance attr should be omitted when empty")
	}
}

func TestTracer_EndSpanWithError(t *testing.T) {
	tracer, recorder := newRecordingTracer()
	opErr := errors.New("connection refused")

	_, span := tracer.StartSpan(context.Background(), "cache", "primary")
	tracer.EndSpan(span, opErr)

	got := recorder.Ended()[0]
	if got.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", got.Status().Code)
	}
	if got.Status().Description != "connection refused" {
		t.Errorf("description = %q, want connection refused", got.Status().Description)
	}
	if v, ok := spanAttr(got, "op.error"); !ok || !v.AsBool() {
		t.Error("op.error attr should be true")
	}
	if len(got.Events()) == 0 {
		t.Error("error should be recorded as span event")
	}
}

func TestNoopTracer(t *testing.T) {
	tracer := NewNoopTracer()

	ctx, span := tracer.StartSpan(context.Background(), "cache", "primary")
	if ctx == nil {
		t.Fatal("StartSpan returned nil context")
	}

	// Must not panic.
	tracer.EndSpan(span, errors.New("boom"))
}
