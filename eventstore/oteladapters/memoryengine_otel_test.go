package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore/oteladapters"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/testutil/fixtures"
)

func Test_MemoryEngine_Reports_Through_OpenTelemetry(t *testing.T) {
	// setup
	exporter := tracetest.NewInMemoryExporter()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tracerProvider.Shutdown(context.Background()) })

	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	var logs bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&logs, nil))

	store, err := memoryengine.NewEventStore(
		memoryengine.WithContextualLogger(logger),
		memoryengine.WithMetrics(oteladapters.NewMetricsCollector(meterProvider.Meter("test"))),
		memoryengine.WithTracing(oteladapters.NewTracingCollector(tracerProvider.Tracer("test"))),
	)
	require.NoError(t, err)
	ctx := context.Background()

	// act
	_, err = store.Append(ctx, fixtures.SomethingHappened{ID: "1", Amount: 5}, "s")
	require.NoError(t, err)
	_, err = store.Append(ctx, fixtures.Unmarshalable{}, "s")
	require.ErrorIs(t, err, eventstore.ErrStoreFailure)
	found, err := store.GetAll(ctx, fixtures.SomethingHappenedEventType)
	require.NoError(t, err)
	require.Len(t, found, 1)

	// assert: spans
	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "eventstore.append", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, "memory", attributesOf(spans[0])["engine"])
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "marshal", attributesOf(spans[1])["error_type"])
	assert.Equal(t, "eventstore.query", spans[2].Name)
	assert.Equal(t, "1", attributesOf(spans[2])["event_count"])

	// assert: metrics
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	appendDurations, ok := findMetric(t, rm, "eventstore_append_duration_seconds").Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, appendDurations.DataPoints, 2)

	appended, ok := findMetric(t, rm, "eventstore_events_appended_total").Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, appended.DataPoints, 1)
	assert.InDelta(t, 1.0, appended.DataPoints[0].Value, 0.0001)

	errorsTotal, ok := findMetric(t, rm, "eventstore_errors_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errorsTotal.DataPoints, 1)
	assert.Equal(t, int64(1), errorsTotal.DataPoints[0].Value)

	// assert: logs
	assert.Contains(t, logs.String(), "eventstore operation: events appended")
	assert.Contains(t, logs.String(), "eventstore operation: query completed")
}
