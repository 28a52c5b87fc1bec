package eventstore

import (
	"context"
	"time"
)

// Appender wraps an Event into a CloudEvent, durably records it, and returns the recorded CloudEvent.
//
// On failure it returns an error matching ErrStoreFailure, nothing is recorded in that case.
type Appender interface {
	Append(ctx context.Context, event Event, stream string) (CloudEvent, error)
}

// Querier reads copies of recorded CloudEvent(s), always in append order.
type Querier interface {
	// GetAll returns all CloudEvent(s) whose Type equals eventType.
	GetAll(ctx context.Context, eventType string) (CloudEvents, error)

	// GetFrom is GetAll restricted to Time >= start.
	GetFrom(ctx context.Context, eventType string, start time.Time) (CloudEvents, error)

	// GetRange is GetAll restricted to start <= Time <= end.
	GetRange(ctx context.Context, eventType string, start time.Time, end time.Time) (CloudEvents, error)

	// Query returns all CloudEvent(s) matching the Filter.
	Query(ctx context.Context, filter Filter) (CloudEvents, error)
}

// EventStore is an append-only log of CloudEvent(s). Implementations are safe for concurrent use.
type EventStore interface {
	Appender
	Querier
}

// Clock returns the current time, engines use it to stamp CloudEvent(s) at append time.
type Clock func() time.Time

// IDGenerator returns a fresh, unique CloudEvent id.
type IDGenerator func() string

// UTCClock is the default Clock, it returns the current time in UTC without a monotonic clock reading.
func UTCClock() time.Time {
	return time.Now().UTC()
}
