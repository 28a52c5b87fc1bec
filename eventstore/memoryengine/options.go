package memoryengine

import (
	"errors"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

var ErrNilClock = errors.New("clock must not be nil")
var ErrNilIDGenerator = errors.New("id generator must not be nil")

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithClock replaces the clock used to stamp CloudEvent(s) at append time.
func WithClock(clock eventstore.Clock) Option {
	return func(es *EventStore) error {
		if clock == nil {
			return ErrNilClock
		}

		es.clock = clock

		return nil
	}
}

// WithIDGenerator replaces the generator of CloudEvent ids, it must return unique values.
func WithIDGenerator(generator eventstore.IDGenerator) Option {
	return func(es *EventStore) error {
		if generator == nil {
			return ErrNilIDGenerator
		}

		es.newID = generator

		return nil
	}
}

// WithLogger sets the logger for the EventStore.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) error {
		es.observer.Logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the EventStore.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) error {
		es.observer.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the EventStore.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(es *EventStore) error {
		es.observer.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the EventStore.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(es *EventStore) error {
		es.observer.Tracing = collector
		return nil
	}
}
