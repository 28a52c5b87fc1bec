package testdoubles

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

// SpanSpy implements eventstore.SpanContext.
type SpanSpy struct {
	name       string
	status     string
	attributes map[string]string
	mu         sync.Mutex
}

func (c *SpanSpy) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = status
}

func (c *SpanSpy) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attributes == nil {
		c.attributes = make(map[string]string)
	}

	c.attributes[key] = value
}

func (c *SpanSpy) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

func (c *SpanSpy) Attributes() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return maps.Clone(c.attributes)
}

// SpanRecord is one span captured by the TracingCollectorSpy.
type SpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool
	Span            *SpanSpy
}

// TracingCollectorSpy captures calls to eventstore.TracingCollector.
type TracingCollectorSpy struct {
	spans []*SpanRecord
	mu    sync.Mutex
}

func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, eventstore.SpanContext) {

	s.mu.Lock()
	defer s.mu.Unlock()

	span := &SpanSpy{name: name}
	s.spans = append(s.spans, &SpanRecord{Name: name, StartAttributes: maps.Clone(attrs), Span: span})

	return ctx, span
}

func (s *TracingCollectorSpy) FinishSpan(spanCtx eventstore.SpanContext, status string, attrs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.spans {
		if record.Span == spanCtx {
			record.Status = status
			record.EndAttributes = maps.Clone(attrs)
			record.Finished = true

			return
		}
	}
}

// Spans returns copies of all captured span records.
func (s *TracingCollectorSpy) Spans() []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	spans := make([]SpanRecord, 0, len(s.spans))
	for _, record := range s.spans {
		spans = append(spans, *record)
	}

	return spans
}

// SpansNamed returns copies of all captured span records with this name.
func (s *TracingCollectorSpy) SpansNamed(name string) []SpanRecord {
	spans := make([]SpanRecord, 0)
	for _, record := range s.Spans() {
		if record.Name == name {
			spans = append(spans, record)
		}
	}

	return spans
}
