package httpengine

import (
	"errors"
	"net/http"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

var ErrNilHTTPClient = errors.New("http client must not be nil")
var ErrNilClock = errors.New("clock must not be nil")
var ErrNilIDGenerator = errors.New("id generator must not be nil")

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(client *http.Client) Option {
	return func(es *EventStore) error {
		if client == nil {
			return ErrNilHTTPClient
		}

		es.client = client

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

// WithIDGenerator replaces the generator of CloudEvent ids.
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
//
// Debug level: request URL, status, and timing
// Info level: appended events with durations
// Warn level: failures to drain or close response bodies
// Error level: rejected or failed requests.
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
