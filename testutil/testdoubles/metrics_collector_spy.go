package testdoubles

import (
	"context"
	"maps"
	"sync"
	"time"
)

type DurationRecord struct {
	Metric   string
	Duration time.Duration
	Labels   map[string]string
}

type CounterRecord struct {
	Metric string
	Labels map[string]string
}

type ValueRecord struct {
	Metric string
	Value  float64
	Labels map[string]string
}

// MetricsCollectorSpy captures calls to eventstore.MetricsCollector.
type MetricsCollectorSpy struct {
	durations []DurationRecord
	counters  []CounterRecord
	values    []ValueRecord
	mu        sync.Mutex
}

func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durations = append(s.durations, DurationRecord{Metric: metric, Duration: duration, Labels: maps.Clone(labels)})
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters = append(s.counters, CounterRecord{Metric: metric, Labels: maps.Clone(labels)})
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = append(s.values, ValueRecord{Metric: metric, Value: value, Labels: maps.Clone(labels)})
}

func (s *MetricsCollectorSpy) Durations() []DurationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]DurationRecord(nil), s.durations...)
}

func (s *MetricsCollectorSpy) Counters() []CounterRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]CounterRecord(nil), s.counters...)
}

func (s *MetricsCollectorSpy) Values() []ValueRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]ValueRecord(nil), s.values...)
}

// HasDuration reports whether a duration with this metric and status label was recorded.
func (s *MetricsCollectorSpy) HasDuration(metric string, status string) bool {
	for _, r := range s.Durations() {
		if r.Metric == metric && r.Labels["status"] == status {
			return true
		}
	}

	return false
}

// HasCounter reports whether a counter with this metric was incremented.
func (s *MetricsCollectorSpy) HasCounter(metric string) bool {
	for _, r := range s.Counters() {
		if r.Metric == metric {
			return true
		}
	}

	return false
}

// ValueOf returns the last recorded value for this metric.
func (s *MetricsCollectorSpy) ValueOf(metric string) (float64, bool) {
	values := s.Values()
	for i := len(values) - 1; i >= 0; i-- {
		if values[i].Metric == metric {
			return values[i].Value, true
		}
	}

	return 0, false
}

// ContextualMetricsCollectorSpy additionally implements eventstore.ContextualMetricsCollector
// and remembers the contexts it was called with.
type ContextualMetricsCollectorSpy struct {
	*MetricsCollectorSpy
	contexts []context.Context
	mu       sync.Mutex
}

func NewContextualMetricsCollectorSpy() *ContextualMetricsCollectorSpy {
	return &ContextualMetricsCollectorSpy{MetricsCollectorSpy: NewMetricsCollectorSpy()}
}

func (s *ContextualMetricsCollectorSpy) RecordDurationContext(
	ctx context.Context,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {
	s.remember(ctx)
	s.RecordDuration(metric, duration, labels)
}

func (s *ContextualMetricsCollectorSpy) IncrementCounterContext(ctx context.Context, metric string, labels map[string]string) {
	s.remember(ctx)
	s.IncrementCounter(metric, labels)
}

func (s *ContextualMetricsCollectorSpy) RecordValueContext(
	ctx context.Context,
	metric string,
	value float64,
	labels map[string]string,
) {
	s.remember(ctx)
	s.RecordValue(metric, value, labels)
}

func (s *ContextualMetricsCollectorSpy) remember(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contexts = append(s.contexts, ctx)
}

// ContextCalls returns how many context-aware calls were made.
func (s *ContextualMetricsCollectorSpy) ContextCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.contexts)
}
