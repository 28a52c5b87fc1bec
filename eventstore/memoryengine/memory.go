package memoryengine

import (
	"context"
	"sync"
	"time"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore/internal/observing"
)

const (
	engineName           = "memory"
	logMsgEventsAppended = "events appended"
	logMsgQueryCompleted = "query completed"
	logMsgAppendFailed   = "failed to build cloud event for append"
	logAttrEventType     = "event_type"
	logAttrEventID       = "event_id"
	logAttrEventCount    = "event_count"
	logAttrDurationMS    = "duration_ms"
	errTypeMarshal       = "marshal"
	errTypeCanceled      = "canceled"
)

// EventStore is an in-process, mutex-guarded, append-only log of CloudEvent(s).
type EventStore struct {
	mu       sync.Mutex
	log      []eventstore.CloudEvent
	clock    eventstore.Clock
	newID    eventstore.IDGenerator
	observer observing.Observer
}

// NewEventStore creates an empty EventStore with optional configuration.
func NewEventStore(options ...Option) (*EventStore, error) {
	es := &EventStore{
		clock:    eventstore.UTCClock,
		newID:    eventstore.NewEventID,
		observer: observing.Observer{Engine: engineName},
	}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// Append wraps the event into a CloudEvent, pushes it onto the log, and returns a copy of it.
//
// The stream name is accepted for contract compatibility, the in-process log is a single sequence.
func (es *EventStore) Append(ctx context.Context, event eventstore.Event, stream string) (eventstore.CloudEvent, error) {
	ctx, observation := es.observer.StartAppend(ctx, event.EventType(), stream)

	if err := ctx.Err(); err != nil {
		observation.Fail(errTypeCanceled)
		return eventstore.CloudEvent{}, eventstore.StoreFailure("append canceled", err)
	}

	ce, err := eventstore.BuildCloudEvent(event, es.newID(), es.clock())
	if err != nil {
		observation.Fail(errTypeMarshal)
		es.observer.Error(ctx, logMsgAppendFailed, err, logAttrEventType, event.EventType())

		return eventstore.CloudEvent{}, eventstore.StoreFailure("cannot wrap event", err)
	}

	es.mu.Lock()
	es.log = append(es.log, ce)
	es.mu.Unlock()

	duration := observation.Succeed(1)
	es.observer.Operation(
		ctx,
		logMsgEventsAppended,
		logAttrEventType, ce.Type,
		logAttrEventID, ce.ID,
		logAttrDurationMS, observing.ToMilliseconds(duration),
	)

	return ce.Clone(), nil
}

// GetAll returns copies of all CloudEvent(s) of exactly this type, in append order.
func (es *EventStore) GetAll(ctx context.Context, eventType string) (eventstore.CloudEvents, error) {
	if eventType == "" {
		return eventstore.CloudEvents{}, nil
	}

	return es.Query(ctx, eventstore.FilterForEventType(eventType))
}

// GetFrom returns copies of all CloudEvent(s) of exactly this type with Time >= start, in append order.
func (es *EventStore) GetFrom(ctx context.Context, eventType string, start time.Time) (eventstore.CloudEvents, error) {
	if eventType == "" {
		return eventstore.CloudEvents{}, nil
	}

	return es.Query(ctx, eventstore.FilterForEventTypeFrom(eventType, start))
}

// GetRange returns copies of all CloudEvent(s) of exactly this type with start <= Time <= end, in append order.
func (es *EventStore) GetRange(
	ctx context.Context,
	eventType string,
	start time.Time,
	end time.Time,
) (eventstore.CloudEvents, error) {

	if eventType == "" || end.Before(start) {
		return eventstore.CloudEvents{}, nil
	}

	return es.Query(ctx, eventstore.FilterForEventTypeBetween(eventType, start, end))
}

// Query returns copies of all CloudEvent(s) matching the filter, in append order.
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (eventstore.CloudEvents, error) {
	ctx, observation := es.observer.StartQuery(ctx)

	if err := ctx.Err(); err != nil {
		observation.Fail(errTypeCanceled)
		return nil, eventstore.StoreFailure("query canceled", err)
	}

	result := make(eventstore.CloudEvents, 0)

	es.mu.Lock()
	for _, ce := range es.log {
		if filter.Matches(ce) {
			result = append(result, ce.Clone())
		}
	}
	es.mu.Unlock()

	duration := observation.Succeed(len(result))
	es.observer.Operation(
		ctx,
		logMsgQueryCompleted,
		logAttrEventCount, len(result),
		logAttrDurationMS, observing.ToMilliseconds(duration),
	)

	return result, nil
}

// Len returns the number of recorded CloudEvent(s).
func (es *EventStore) Len() int {
	es.mu.Lock()
	defer es.mu.Unlock()

	return len(es.log)
}
