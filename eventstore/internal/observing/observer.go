// Package observing bundles the optional logging, metrics, and tracing hooks shared by all engines.
package observing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

const (
	MetricAppendDuration = "eventstore_append_duration_seconds"
	MetricQueryDuration  = "eventstore_query_duration_seconds"
	MetricEventsAppended = "eventstore_events_appended_total"
	MetricEventsQueried  = "eventstore_events_queried_total"
	MetricErrors         = "eventstore_errors_total"

	SpanNameAppend = "eventstore.append"
	SpanNameQuery  = "eventstore.query"

	OperationAppend = "append"
	OperationQuery  = "query"

	StatusSuccess = "success"
	StatusError   = "error"

	AttrOperation  = "operation"
	AttrStatus     = "status"
	AttrErrorType  = "error_type"
	AttrEventType  = "event_type"
	AttrEventCount = "event_count"
	AttrStream     = "stream"
	AttrDurationMS = "duration_ms"
	AttrEngine     = "engine"

	LogMsgOperation = "eventstore operation: "
	LogAttrError    = "error"
)

// Observer holds the optional collectors, every one of them may be nil.
type Observer struct {
	Engine           string
	Logger           eventstore.Logger
	ContextualLogger eventstore.ContextualLogger
	Metrics          eventstore.MetricsCollector
	Tracing          eventstore.TracingCollector
}

// Debug logs at debug level to all configured loggers.
func (o *Observer) Debug(ctx context.Context, msg string, args ...any) {
	if o.Logger != nil {
		o.Logger.Debug(msg, args...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.DebugContext(ctx, msg, args...)
	}
}

// Warn logs at warn level to all configured loggers.
func (o *Observer) Warn(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{LogAttrError, err.Error()}, args...)

	if o.Logger != nil {
		o.Logger.Warn(msg, allArgs...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.WarnContext(ctx, msg, allArgs...)
	}
}

// Error logs at error level to all configured loggers, the error text is added as attribute.
func (o *Observer) Error(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{LogAttrError, err.Error()}, args...)

	if o.Logger != nil {
		o.Logger.Error(msg, allArgs...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}

// Operation logs operational information at info level, action is prefixed with "eventstore operation: ".
func (o *Observer) Operation(ctx context.Context, action string, args ...any) {
	if o.Logger != nil {
		o.Logger.Info(LogMsgOperation+action, args...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.InfoContext(ctx, LogMsgOperation+action, args...)
	}
}

// StartAppend opens the observation of one append.
func (o *Observer) StartAppend(ctx context.Context, eventType string, stream string) (context.Context, *Observation) {
	return o.start(ctx, OperationAppend, SpanNameAppend, map[string]string{
		AttrOperation: OperationAppend,
		AttrEventType: eventType,
		AttrStream:    stream,
	})
}

// StartQuery opens the observation of one query.
func (o *Observer) StartQuery(ctx context.Context) (context.Context, *Observation) {
	return o.start(ctx, OperationQuery, SpanNameQuery, map[string]string{
		AttrOperation: OperationQuery,
	})
}

func (o *Observer) start(
	ctx context.Context,
	operation string,
	spanName string,
	spanAttrs map[string]string,
) (context.Context, *Observation) {

	if o.Engine != "" {
		spanAttrs[AttrEngine] = o.Engine
	}

	var span eventstore.SpanContext
	if o.Tracing != nil {
		ctx, span = o.Tracing.StartSpan(ctx, spanName, spanAttrs)
	}

	return ctx, &Observation{
		observer:  o,
		ctx:       ctx,
		operation: operation,
		span:      span,
		startedAt: time.Now(),
	}
}

// Observation records the outcome of one operation exactly once.
type Observation struct {
	observer  *Observer
	ctx       context.Context
	operation string
	span      eventstore.SpanContext
	startedAt time.Time
}

// Elapsed returns the time since the observation started.
func (ob *Observation) Elapsed() time.Duration {
	return time.Since(ob.startedAt)
}

// Succeed records duration, event count, and a successful span end.
func (ob *Observation) Succeed(eventCount int) time.Duration {
	duration := ob.Elapsed()

	ob.recordDuration(duration, StatusSuccess)
	ob.recordValue(ob.countMetric(), float64(eventCount), StatusSuccess)

	if ob.observer.Tracing != nil && ob.span != nil {
		ob.span.SetStatus(StatusSuccess)
		ob.span.AddAttribute(AttrDurationMS, fmt.Sprintf("%.2f", ToMilliseconds(duration)))
		ob.observer.Tracing.FinishSpan(ob.span, StatusSuccess, map[string]string{
			AttrEventCount: fmt.Sprintf("%d", eventCount),
		})
	}

	return duration
}

// Fail records duration, the error counter, and a failed span end.
func (ob *Observation) Fail(errorType string) time.Duration {
	duration := ob.Elapsed()

	ob.recordDuration(duration, StatusError)
	ob.incrementErrors(errorType)

	if ob.observer.Tracing != nil && ob.span != nil {
		ob.span.SetStatus(StatusError)
		ob.span.AddAttribute(AttrErrorType, errorType)
		ob.span.AddAttribute(AttrDurationMS, fmt.Sprintf("%.2f", ToMilliseconds(duration)))
		ob.observer.Tracing.FinishSpan(ob.span, StatusError, map[string]string{
			AttrErrorType: errorType,
		})
	}

	return duration
}

func (ob *Observation) countMetric() string {
	if ob.operation == OperationAppend {
		return MetricEventsAppended
	}

	return MetricEventsQueried
}

func (ob *Observation) durationMetric() string {
	if ob.operation == OperationAppend {
		return MetricAppendDuration
	}

	return MetricQueryDuration
}

func (ob *Observation) labels(status string) map[string]string {
	labels := map[string]string{
		AttrOperation: ob.operation,
		AttrStatus:    status,
	}

	if ob.observer.Engine != "" {
		labels[AttrEngine] = ob.observer.Engine
	}

	return labels
}

func (ob *Observation) recordDuration(duration time.Duration, status string) {
	collector := ob.observer.Metrics
	if collector == nil {
		return
	}

	if contextual, ok := collector.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ob.ctx, ob.durationMetric(), duration, ob.labels(status))
		return
	}

	collector.RecordDuration(ob.durationMetric(), duration, ob.labels(status))
}

func (ob *Observation) recordValue(metric string, value float64, status string) {
	collector := ob.observer.Metrics
	if collector == nil {
		return
	}

	if contextual, ok := collector.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ob.ctx, metric, value, ob.labels(status))
		return
	}

	collector.RecordValue(metric, value, ob.labels(status))
}

func (ob *Observation) incrementErrors(errorType string) {
	collector := ob.observer.Metrics
	if collector == nil {
		return
	}

	labels := ob.labels(StatusError)
	labels[AttrErrorType] = errorType

	if contextual, ok := collector.(eventstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ob.ctx, MetricErrors, labels)
		return
	}

	collector.IncrementCounter(MetricErrors, labels)
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func ToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
