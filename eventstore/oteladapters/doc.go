// Package oteladapters connects the observability hooks of the event store engines to OpenTelemetry.
//
// SlogBridgeLogger and OTelLogger satisfy eventstore.Logger and eventstore.ContextualLogger,
// MetricsCollector satisfies eventstore.ContextualMetricsCollector,
// TracingCollector satisfies eventstore.TracingCollector.
//
// Wiring all three into the in-memory engine:
//
//	store, err := memoryengine.NewEventStore(
//		memoryengine.WithContextualLogger(oteladapters.NewSlogBridgeLogger("bank")),
//		memoryengine.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter("bank"))),
//		memoryengine.WithTracing(oteladapters.NewTracingCollector(otel.Tracer("bank"))),
//	)
package oteladapters
