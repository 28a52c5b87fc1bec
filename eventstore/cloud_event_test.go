package eventstore_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/testutil/fixtures"
)

func Test_BuildCloudEvent_Wraps_Event_Metadata_And_Data(t *testing.T) {
	// arrange
	occurredAt := time.Date(2025, 3, 14, 15, 9, 26, 535897932, time.UTC)
	event := fixtures.SomethingHappened{ID: "42", Label: "answer", Amount: 500, Ratio: 0.1}

	// act
	ce, err := eventstore.BuildCloudEvent(event, "id-1", occurredAt)

	// assert
	require.NoError(t, err)
	assert.Equal(t, eventstore.SpecVersion, ce.SpecVersion)
	assert.Equal(t, fixtures.SomethingHappenedEventType, ce.Type)
	assert.Equal(t, fixtures.FixtureEventVersion, ce.TypeVersion)
	assert.Equal(t, fixtures.FixtureEventSource, ce.Source)
	assert.Equal(t, "id-1", ce.ID)
	assert.Equal(t, occurredAt, ce.Time)
	assert.Equal(t, eventstore.ContentTypeJSON, ce.DataContentType)
	assert.JSONEq(t, `{"id":"42","label":"answer","amount":500,"ratio":0.1}`, string(ce.Data))
}

func Test_BuildCloudEvent_Fails_When_Event_Cannot_Be_Marshaled(t *testing.T) {
	_, err := eventstore.BuildCloudEvent(fixtures.Unmarshalable{}, "id-1", time.Now())

	assert.ErrorIs(t, err, eventstore.ErrMarshalingEventFailed)
}

func Test_BuildCloudEventFromJSON_Rejects_Invalid_JSON(t *testing.T) {
	_, err := eventstore.BuildCloudEventFromJSON("a.b", "1", "src", "id", time.Now(), []byte(`{"broken":`))

	assert.ErrorIs(t, err, eventstore.ErrInvalidDataJSON)
}

func Test_MarshalCloudEvent_Produces_Wire_Shape_With_Inline_Data(t *testing.T) {
	// arrange
	occurredAt := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	ce, err := eventstore.BuildCloudEvent(fixtures.SomethingHappened{ID: "42", Amount: 7}, "id-1", occurredAt)
	require.NoError(t, err)

	// act
	b, err := eventstore.MarshalCloudEvent(ce)
	require.NoError(t, err)

	// assert
	var wire map[string]any
	require.NoError(t, json.Unmarshal(b, &wire))

	assert.Equal(t, "1.0", wire["specversion"])
	assert.Equal(t, fixtures.SomethingHappenedEventType, wire["type"])
	assert.Equal(t, fixtures.FixtureEventVersion, wire["typeversion"])
	assert.Equal(t, fixtures.FixtureEventSource, wire["source"])
	assert.Equal(t, "id-1", wire["id"])
	assert.Equal(t, "2025-03-14T15:09:26Z", wire["time"])
	assert.Equal(t, "application/json", wire["datacontenttype"])

	data, isObject := wire["data"].(map[string]any)
	require.True(t, isObject, "data must be an inline JSON object, not an escaped string")
	assert.Equal(t, "42", data["id"])
	assert.InDelta(t, 7, data["amount"], 0)
}

func Test_CloudEvent_RoundTrip_Reproduces_Envelope_And_Event(t *testing.T) {
	// arrange
	occurredAt := time.Date(2025, 3, 14, 15, 9, 26, 535897932, time.UTC)
	event := fixtures.SomethingHappened{ID: "42", Label: "ünïcödé \"quoted\"", Amount: 1<<53 + 1, Ratio: 0.30000000000000004}
	ce, err := eventstore.BuildCloudEvent(event, eventstore.NewEventID(), occurredAt)
	require.NoError(t, err)

	// act
	b, err := eventstore.MarshalCloudEvent(ce)
	require.NoError(t, err)
	decoded, err := eventstore.UnmarshalCloudEvent(b)
	require.NoError(t, err)
	decodedEvent, err := eventstore.DataAs[fixtures.SomethingHappened](decoded)
	require.NoError(t, err)

	// assert
	assert.True(t, ce.Equal(decoded))
	assert.Equal(t, ce, decoded)
	assert.Equal(t, event, decodedEvent)
}

func Test_UnmarshalCloudEvent_Fails_For_Garbage(t *testing.T) {
	_, err := eventstore.UnmarshalCloudEvent([]byte(`not json`))

	assert.ErrorIs(t, err, eventstore.ErrUnmarshalingCloudEventFailed)
}

func Test_CloudEvent_Clone_Shares_No_Data(t *testing.T) {
	ce, err := eventstore.BuildCloudEvent(fixtures.SomethingElseHappened{ID: "1"}, "id", time.Now().UTC())
	require.NoError(t, err)

	clone := ce.Clone()
	clone.Data[0] = 'X'

	assert.NotEqual(t, ce.Data, clone.Data)
	assert.JSONEq(t, `{"id":"1"}`, string(ce.Data))
}

func Test_NewEventID_Is_Unique_UUID(t *testing.T) {
	seen := make(map[string]struct{})

	for range 1000 {
		id := eventstore.NewEventID()
		assert.Len(t, id, 36)
		seen[id] = struct{}{}
	}

	assert.Len(t, seen, 1000)
}

func Test_EventTypeOf_Lowercases_Aggregate_And_Variant(t *testing.T) {
	assert.Equal(t, "bankevent.fundsdeposited", eventstore.EventTypeOf("BankEvent", "FundsDeposited"))
	assert.Equal(t, "combatevent.unitevent", eventstore.EventTypeOf("CombatEvent", "UnitEvent"))
}

func Test_StoreFailure_Matches_Sentinel_And_Cause(t *testing.T) {
	cause := eventstore.ErrUnexpectedStatus

	err := eventstore.StoreFailure("remote rejected", cause)

	assert.ErrorIs(t, err, eventstore.ErrStoreFailure)
	assert.ErrorIs(t, err, eventstore.ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "remote rejected")
	assert.ErrorIs(t, eventstore.StoreFailure("plain", nil), eventstore.ErrStoreFailure)
}
