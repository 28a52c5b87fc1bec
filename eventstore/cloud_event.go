package eventstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

const (
	// SpecVersion is the CloudEvents specification version every envelope carries.
	SpecVersion = "1.0"

	// ContentTypeJSON is the only data content type produced by this package.
	ContentTypeJSON = "application/json"
)

var ErrInvalidDataJSON = errors.New("event data is not valid JSON")
var ErrUnmarshalingCloudEventFailed = errors.New("unmarshaling cloud event failed")

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// CloudEvent is the self-describing envelope around a domain Event, used for storage and transport.
//
// Data holds the event payload as an inline JSON value, so consumers can inspect fields without double-decoding.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	Type            string          `json:"type"`
	TypeVersion     string          `json:"typeversion"`
	Source          string          `json:"source"`
	ID              string          `json:"id"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
}

// CloudEvents is a slice of CloudEvent.
type CloudEvents = []CloudEvent

// BuildCloudEvent wraps an Event into a CloudEvent with the given id and time.
//
// Engines call it at append time, id and occurredAt are never chosen by the caller of Append.
func BuildCloudEvent(event Event, id string, occurredAt time.Time) (CloudEvent, error) {
	data, err := jsonAPI.Marshal(event)
	if err != nil {
		return CloudEvent{}, errors.Join(ErrMarshalingEventFailed, err)
	}

	return BuildCloudEventFromJSON(event.EventType(), event.EventTypeVersion(), event.EventSource(), id, occurredAt, data)
}

// BuildCloudEventFromJSON builds a CloudEvent from already serialized data.
//
// It returns ErrInvalidDataJSON if data is not a valid JSON value.
func BuildCloudEventFromJSON(
	eventType string,
	typeVersion string,
	source string,
	id string,
	occurredAt time.Time,
	data []byte,
) (CloudEvent, error) {

	if !jsonAPI.Valid(data) {
		return CloudEvent{}, ErrInvalidDataJSON
	}

	return CloudEvent{
		SpecVersion:     SpecVersion,
		Type:            eventType,
		TypeVersion:     typeVersion,
		Source:          source,
		ID:              id,
		Time:            occurredAt,
		DataContentType: ContentTypeJSON,
		Data:            slices.Clone(data),
	}, nil
}

// MarshalCloudEvent serializes a CloudEvent to its JSON wire form.
func MarshalCloudEvent(ce CloudEvent) ([]byte, error) {
	b, err := jsonAPI.Marshal(ce)
	if err != nil {
		return nil, errors.Join(ErrMarshalingEventFailed, err)
	}

	return b, nil
}

// UnmarshalCloudEvent parses the JSON wire form of a CloudEvent.
func UnmarshalCloudEvent(b []byte) (CloudEvent, error) {
	var ce CloudEvent

	if err := jsonAPI.Unmarshal(b, &ce); err != nil {
		return CloudEvent{}, errors.Join(ErrUnmarshalingCloudEventFailed, err)
	}

	return ce, nil
}

// DataAs decodes the payload of a CloudEvent into E.
func DataAs[E any](ce CloudEvent) (E, error) {
	var event E

	if err := jsonAPI.Unmarshal(ce.Data, &event); err != nil {
		return event, errors.Join(ErrUnmarshalingCloudEventFailed, err)
	}

	return event, nil
}

// Clone returns a deep copy, the copy shares no memory with the receiver.
func (ce CloudEvent) Clone() CloudEvent {
	ce.Data = slices.Clone(ce.Data)

	return ce
}

// Equal reports whether both envelopes carry the same metadata, the same instant, and byte-identical data.
func (ce CloudEvent) Equal(other CloudEvent) bool {
	return ce.SpecVersion == other.SpecVersion &&
		ce.Type == other.Type &&
		ce.TypeVersion == other.TypeVersion &&
		ce.Source == other.Source &&
		ce.ID == other.ID &&
		ce.Time.Equal(other.Time) &&
		ce.DataContentType == other.DataContentType &&
		bytes.Equal(ce.Data, other.Data)
}

// NewEventID generates a random (v4) UUID string.
func NewEventID() string {
	return uuid.NewString()
}
