package postgresengine

import (
	"errors"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

var ErrNilClock = errors.New("clock must not be nil")
var ErrNilIDGenerator = errors.New("id generator must not be nil")

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithTableName sets the table name for the EventStore.
func WithTableName(tableName string) Option {
	return func(es *EventStore) error {
		if tableName == "" {
			return eventstore.ErrEmptyEventsTableName
		}

		es.eventTableName = tableName

		return nil
	}
}

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

// WithIDGenerator replaces the generator of CloudEvent ids, it must return UUID strings (event_id is a uuid column).
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
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Event counts and durations (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) error {
		es.observer.Logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the EventStore.
// Log records carry the operation's context, so trace/span correlation works when tracing is enabled.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) error {
		es.observer.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the EventStore.
// It receives query/append durations, event counts, and database errors.
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
