package httpengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore/internal/observing"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 2113

	// ContentTypeEvents is the media type EventStoreDB expects for a batch of events.
	ContentTypeEvents = "application/vnd.eventstore.events+json"

	engineName             = "http"
	maxDrainBytes          = 64 << 10
	logMsgEventsAppended   = "events appended"
	logMsgRequestSent      = "posted events to: "
	logMsgAppendFailed     = "failed to post to event store"
	logMsgBuildFailed      = "failed to build event store request"
	logMsgCloseBodyFailed  = "failed to close response body"
	logAttrEventType       = "event_type"
	logAttrEventID         = "event_id"
	logAttrStream          = "stream"
	logAttrURL             = "url"
	logAttrStatus          = "status"
	logAttrDurationMS      = "duration_ms"
	errTypeMarshal         = "marshal"
	errTypeRequest         = "request"
	errTypeTransport       = "transport"
	errTypeStatus          = "status"
	errTypeInvalidStream   = "invalid_stream"
	errTypeQueryNotAllowed = "query_not_supported"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// storeEvent is one element of the EventStoreDB request body.
type storeEvent struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

// EventStore is a client for the EventStoreDB HTTP API. It is safe for concurrent use.
type EventStore struct {
	baseURL  string
	client   *http.Client
	clock    eventstore.Clock
	newID    eventstore.IDGenerator
	observer observing.Observer
}

// NewEventStore creates a client for the remote store at host:port with optional configuration.
func NewEventStore(host string, port uint16, options ...Option) (*EventStore, error) {
	es := &EventStore{
		baseURL:  "http://" + net.JoinHostPort(host, strconv.Itoa(int(port))),
		client:   http.DefaultClient,
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

// NewDefaultEventStore creates a client for localhost:2113, the default EventStoreDB address.
func NewDefaultEventStore(options ...Option) (*EventStore, error) {
	return NewEventStore(DefaultHost, DefaultPort, options...)
}

// StreamURL returns the URL events for this stream are posted to.
func (es *EventStore) StreamURL(stream string) string {
	return es.baseURL + "/streams/" + url.PathEscape(stream)
}

// Append posts the event to the stream and returns its CloudEvent once the remote store answered 201 Created.
//
// A failed Append leaves nothing behind from this client's perspective, so the caller may retry it.
func (es *EventStore) Append(ctx context.Context, event eventstore.Event, stream string) (eventstore.CloudEvent, error) {
	ctx, observation := es.observer.StartAppend(ctx, event.EventType(), stream)

	if stream == "" {
		observation.Fail(errTypeInvalidStream)
		return eventstore.CloudEvent{}, eventstore.StoreFailure("cannot post to event store", eventstore.ErrEmptyStreamName)
	}

	ce, err := eventstore.BuildCloudEvent(event, es.newID(), es.clock())
	if err != nil {
		observation.Fail(errTypeMarshal)
		es.observer.Error(ctx, logMsgBuildFailed, err, logAttrEventType, event.EventType())

		return eventstore.CloudEvent{}, eventstore.StoreFailure("cannot wrap event", err)
	}

	body, err := jsonAPI.Marshal([]storeEvent{{EventID: ce.ID, EventType: ce.Type, Data: ce.Data}})
	if err != nil {
		observation.Fail(errTypeMarshal)
		es.observer.Error(ctx, logMsgBuildFailed, err, logAttrEventType, ce.Type)

		return eventstore.CloudEvent{}, eventstore.StoreFailure("cannot encode request body", errors.Join(eventstore.ErrMarshalingEventFailed, err))
	}

	streamURL := es.StreamURL(stream)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, streamURL, bytes.NewReader(body))
	if err != nil {
		observation.Fail(errTypeRequest)
		es.observer.Error(ctx, logMsgBuildFailed, err, logAttrURL, streamURL)

		return eventstore.CloudEvent{}, eventstore.StoreFailure("cannot build request", err)
	}

	request.Header.Set("Content-Type", ContentTypeEvents)

	start := time.Now()
	response, err := es.client.Do(request)
	if err != nil {
		observation.Fail(errTypeTransport)
		es.observer.Error(ctx, logMsgAppendFailed, err, logAttrURL, streamURL, logAttrEventID, ce.ID)

		return eventstore.CloudEvent{}, eventstore.StoreFailure(fmt.Sprintf("failed to post to event store %s", streamURL), err)
	}
	defer es.closeBody(ctx, response.Body)

	es.observer.Debug(
		ctx,
		logMsgRequestSent+streamURL,
		logAttrStatus, response.StatusCode,
		logAttrDurationMS, observing.ToMilliseconds(time.Since(start)),
	)

	if response.StatusCode != http.StatusCreated {
		statusErr := fmt.Errorf("%w: %d %s", eventstore.ErrUnexpectedStatus, response.StatusCode, http.StatusText(response.StatusCode))

		observation.Fail(errTypeStatus)
		es.observer.Error(ctx, logMsgAppendFailed, statusErr, logAttrURL, streamURL, logAttrStatus, response.StatusCode)

		return eventstore.CloudEvent{}, eventstore.StoreFailure(
			fmt.Sprintf("failed to post to event store (%d)", response.StatusCode),
			statusErr,
		)
	}

	duration := observation.Succeed(1)
	es.observer.Operation(
		ctx,
		logMsgEventsAppended,
		logAttrEventType, ce.Type,
		logAttrEventID, ce.ID,
		logAttrStream, stream,
		logAttrDurationMS, observing.ToMilliseconds(duration),
	)

	return ce, nil
}

func (es *EventStore) closeBody(ctx context.Context, body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))

	if err := body.Close(); err != nil {
		es.observer.Warn(ctx, logMsgCloseBodyFailed, err)
	}
}

// GetAll is not supported by the remote store.
func (es *EventStore) GetAll(ctx context.Context, _ string) (eventstore.CloudEvents, error) {
	return es.Query(ctx, eventstore.Filter{})
}

// GetFrom is not supported by the remote store.
func (es *EventStore) GetFrom(ctx context.Context, _ string, _ time.Time) (eventstore.CloudEvents, error) {
	return es.Query(ctx, eventstore.Filter{})
}

// GetRange is not supported by the remote store.
func (es *EventStore) GetRange(ctx context.Context, _ string, _ time.Time, _ time.Time) (eventstore.CloudEvents, error) {
	return es.Query(ctx, eventstore.Filter{})
}

// Query is not supported by the remote store.
func (es *EventStore) Query(ctx context.Context, _ eventstore.Filter) (eventstore.CloudEvents, error) {
	_, observation := es.observer.StartQuery(ctx)
	observation.Fail(errTypeQueryNotAllowed)

	return nil, eventstore.StoreFailure("remote event store is append-only", eventstore.ErrQueryNotSupported)
}
