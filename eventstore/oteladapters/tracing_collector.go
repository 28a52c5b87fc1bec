package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

// TracingCollector opens one OpenTelemetry span per event store operation.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector uses tracer, typically otel.Tracer(name) or a TracerProvider's Tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts an internal span carrying attrs as string attributes.
func (t *TracingCollector) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, eventstore.SpanContext) {

	spanCtx, span := t.tracer.Start(
		ctx,
		name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attributeSet(attrs).ToSlice()...),
	)

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan sets attrs and status, then ends the span.
// Span contexts not created by a TracingCollector are ignored.
func (t *TracingCollector) FinishSpan(spanCtx eventstore.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	if errorType, ok := attrs["error_type"]; ok {
		otelSpanCtx.errorType = errorType
	}

	otelSpanCtx.span.SetAttributes(attributeSet(attrs).ToSlice()...)
	otelSpanCtx.SetStatus(status)
	otelSpanCtx.span.End()
}

var _ eventstore.TracingCollector = (*TracingCollector)(nil)

// OTelSpanContext is the eventstore.SpanContext of an OpenTelemetry span.
type OTelSpanContext struct {
	span      trace.Span
	errorType string
}

// Span exposes the wrapped span, e.g. to add events.
func (s *OTelSpanContext) Span() trace.Span {
	return s.span
}

// SetStatus maps "success" to codes.Ok and "error" to codes.Error, the error_type attribute becomes the description.
// Other values are kept as "status" attribute.
func (s *OTelSpanContext) SetStatus(status string) {
	switch status {
	case "success":
		s.span.SetStatus(codes.Ok, "")
	case "error":
		description := "event store operation failed"
		if s.errorType != "" {
			description += ": " + s.errorType
		}

		s.span.SetStatus(codes.Error, description)
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

// AddAttribute sets a string attribute on the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	if key == "error_type" {
		s.errorType = value
	}

	s.span.SetAttributes(attribute.String(key, value))
}

var _ eventstore.SpanContext = (*OTelSpanContext)(nil)
