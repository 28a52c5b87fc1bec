package oteladapters

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

var descriptions = map[string]string{
	"eventstore_append_duration_seconds": "Duration of appending one event",
	"eventstore_query_duration_seconds":  "Duration of one event query",
	"eventstore_events_appended_total":   "Number of appended events",
	"eventstore_events_queried_total":    "Number of events returned by queries",
	"eventstore_errors_total":            "Number of failed event store operations",
}

// MetricsCollector records event store metrics with OpenTelemetry instruments, created on first use:
//   - RecordDuration: Float64Histogram in seconds
//   - IncrementCounter: Int64Counter
//   - RecordValue: Float64Counter for names ending in "_total", Float64Gauge otherwise
//
// It is safe for concurrent use.
type MetricsCollector struct {
	meter metric.Meter

	mu         sync.Mutex
	histograms map[string]metric.Float64Histogram
	counters   map[string]metric.Int64Counter
	sums       map[string]metric.Float64Counter
	gauges     map[string]metric.Float64Gauge
}

// NewMetricsCollector creates instruments with meter.
func NewMetricsCollector(meter metric.Meter) *MetricsCollector {
	return &MetricsCollector{
		meter:      meter,
		histograms: make(map[string]metric.Float64Histogram),
		counters:   make(map[string]metric.Int64Counter),
		sums:       make(map[string]metric.Float64Counter),
		gauges:     make(map[string]metric.Float64Gauge),
	}
}

func (m *MetricsCollector) RecordDuration(metricName string, duration time.Duration, labels map[string]string) {
	m.RecordDurationContext(context.Background(), metricName, duration, labels)
}

func (m *MetricsCollector) RecordDurationContext(
	ctx context.Context,
	metricName string,
	duration time.Duration,
	labels map[string]string,
) {

	histogram, err := instrument(m, m.histograms, metricName, func() (metric.Float64Histogram, error) {
		return m.meter.Float64Histogram(metricName, metric.WithDescription(describe(metricName)), metric.WithUnit("s"))
	})
	if err != nil {
		return
	}

	histogram.Record(ctx, duration.Seconds(), withLabels(labels))
}

func (m *MetricsCollector) IncrementCounter(metricName string, labels map[string]string) {
	m.IncrementCounterContext(context.Background(), metricName, labels)
}

func (m *MetricsCollector) IncrementCounterContext(ctx context.Context, metricName string, labels map[string]string) {
	counter, err := instrument(m, m.counters, metricName, func() (metric.Int64Counter, error) {
		return m.meter.Int64Counter(metricName, metric.WithDescription(describe(metricName)))
	})
	if err != nil {
		return
	}

	counter.Add(ctx, 1, withLabels(labels))
}

func (m *MetricsCollector) RecordValue(metricName string, value float64, labels map[string]string) {
	m.RecordValueContext(context.Background(), metricName, value, labels)
}

func (m *MetricsCollector) RecordValueContext(
	ctx context.Context,
	metricName string,
	value float64,
	labels map[string]string,
) {

	if strings.HasSuffix(metricName, "_total") {
		sum, err := instrument(m, m.sums, metricName, func() (metric.Float64Counter, error) {
			return m.meter.Float64Counter(metricName, metric.WithDescription(describe(metricName)))
		})
		if err != nil || value < 0 {
			return
		}

		sum.Add(ctx, value, withLabels(labels))

		return
	}

	gauge, err := instrument(m, m.gauges, metricName, func() (metric.Float64Gauge, error) {
		return m.meter.Float64Gauge(metricName, metric.WithDescription(describe(metricName)))
	})
	if err != nil {
		return
	}

	gauge.Record(ctx, value, withLabels(labels))
}

// instrument returns the cached instrument for name or creates and caches it.
// A failed creation is not cached, the next call tries again.
func instrument[I any](m *MetricsCollector, cache map[string]I, name string, create func() (I, error)) (I, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := cache[name]; ok {
		return existing, nil
	}

	created, err := create()
	if err != nil {
		return created, err
	}

	cache[name] = created

	return created, nil
}

func describe(metricName string) string {
	if description, ok := descriptions[metricName]; ok {
		return description
	}

	return "EventStore " + strings.ReplaceAll(metricName, "_", " ")
}

func withLabels(labels map[string]string) metric.MeasurementOption {
	return metric.WithAttributeSet(attributeSet(labels))
}

func attributeSet(labels map[string]string) attribute.Set {
	kvs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		kvs = append(kvs, attribute.String(key, value))
	}

	return attribute.NewSet(kvs...)
}

var _ eventstore.ContextualMetricsCollector = (*MetricsCollector)(nil)
