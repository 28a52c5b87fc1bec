package httpengine_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore/httpengine"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/testutil/fixtures"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/testutil/testdoubles"
)

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// fakeEventStoreDB answers every request with the configured status and records what it received.
type fakeEventStoreDB struct {
	server   *httptest.Server
	status   int
	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeEventStoreDB(t *testing.T, status int) *fakeEventStoreDB {
	t.Helper()

	fake := &fakeEventStoreDB{status: status}
	fake.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		fake.mu.Lock()
		fake.requests = append(fake.requests, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.EscapedPath(),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		fake.mu.Unlock()

		w.WriteHeader(fake.status)
	}))
	t.Cleanup(fake.server.Close)

	return fake
}

func (f *fakeEventStoreDB) hostPort(t *testing.T) (string, uint16) {
	t.Helper()

	u, err := url.Parse(f.server.URL)
	require.NoError(t, err)
	host, portString, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.ParseUint(portString, 10, 16)
	require.NoError(t, err)

	return host, uint16(port)
}

func (f *fakeEventStoreDB) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]recordedRequest(nil), f.requests...)
}

func newStore(t *testing.T, fake *fakeEventStoreDB, options ...httpengine.Option) *httpengine.EventStore {
	t.Helper()

	host, port := fake.hostPort(t)
	store, err := httpengine.NewEventStore(host, port, options...)
	require.NoError(t, err)

	return store
}

func Test_Append_Posts_One_Event_In_EventStoreDB_Format(t *testing.T) {
	// setup
	fake := newFakeEventStoreDB(t, http.StatusCreated)
	occurredAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	store := newStore(t, fake,
		httpengine.WithClock(func() time.Time { return occurredAt }),
		httpengine.WithIDGenerator(func() string { return "6f1c1a32-4d9b-4d4e-9a55-8a3c2f0f0b11" }),
	)

	// act
	ce, err := store.Append(context.Background(), fixtures.SomethingHappened{ID: "1", Amount: 500}, "accounts")

	// assert
	require.NoError(t, err)
	assert.Equal(t, "6f1c1a32-4d9b-4d4e-9a55-8a3c2f0f0b11", ce.ID)
	assert.Equal(t, occurredAt, ce.Time)
	assert.Equal(t, fixtures.SomethingHappenedEventType, ce.Type)

	requests := fake.recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, "/streams/accounts", requests[0].Path)
	assert.Equal(t, httpengine.ContentTypeEvents, requests[0].ContentType)
	assert.JSONEq(t, `[{
		"eventId": "6f1c1a32-4d9b-4d4e-9a55-8a3c2f0f0b11",
		"eventType": "fixtureevent.somethinghappened",
		"data": {"id": "1", "label": "", "amount": 500, "ratio": 0}
	}]`, string(requests[0].Body))
}

func Test_Append_Data_Is_A_Structured_Value(t *testing.T) {
	fake := newFakeEventStoreDB(t, http.StatusCreated)
	store := newStore(t, fake)

	_, err := store.Append(context.Background(), fixtures.SomethingElseHappened{ID: "x"}, "s")
	require.NoError(t, err)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(fake.recorded()[0].Body, &body))
	require.Len(t, body, 1)
	_, isObject := body[0]["data"].(map[string]any)
	assert.True(t, isObject)
}

func Test_Append_Fails_With_Status_In_Message_For_Non_Created(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		t.Run(strconv.Itoa(status), func(t *testing.T) {
			fake := newFakeEventStoreDB(t, status)
			store := newStore(t, fake)

			_, err := store.Append(context.Background(), fixtures.SomethingElseHappened{ID: "x"}, "s")

			assert.ErrorIs(t, err, eventstore.ErrStoreFailure)
			assert.ErrorIs(t, err, eventstore.ErrUnexpectedStatus)
			assert.Contains(t, err.Error(), strconv.Itoa(status))
			assert.Len(t, fake.recorded(), 1)
		})
	}
}

func Test_Append_Fails_With_StoreFailure_When_Unreachable(t *testing.T) {
	// setup: a closed server leaves a port nobody listens on
	fake := newFakeEventStoreDB(t, http.StatusCreated)
	host, port := fake.hostPort(t)
	fake.server.Close()

	store, err := httpengine.NewEventStore(host, port, httpengine.WithHTTPClient(&http.Client{Timeout: 2 * time.Second}))
	require.NoError(t, err)

	// act
	_, err = store.Append(context.Background(), fixtures.SomethingElseHappened{ID: "x"}, "s")

	// assert
	assert.ErrorIs(t, err, eventstore.ErrStoreFailure)
	assert.Contains(t, err.Error(), "failed to post to event store")

	var netErr net.Error
	assert.ErrorAs(t, err, &netErr)
}

func Test_Append_Honors_Canceled_Context(t *testing.T) {
	fake := newFakeEventStoreDB(t, http.StatusCreated)
	store := newStore(t, fake)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Append(ctx, fixtures.SomethingElseHappened{ID: "x"}, "s")

	assert.ErrorIs(t, err, eventstore.ErrStoreFailure)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.recorded())
}

func Test_Append_Rejects_Empty_Stream_Without_Request(t *testing.T) {
	fake := newFakeEventStoreDB(t, http.StatusCreated)
	store := newStore(t, fake)

	_, err := store.Append(context.Background(), fixtures.SomethingElseHappened{ID: "x"}, "")

	assert.ErrorIs(t, err, eventstore.ErrStoreFailure)
	assert.ErrorIs(t, err, eventstore.ErrEmptyStreamName)
	assert.Empty(t, fake.recorded())
}

func Test_Append_Fails_Without_Request_When_Event_Cannot_Be_Marshaled(t *testing.T) {
	fake := newFakeEventStoreDB(t, http.StatusCreated)
	store := newStore(t, fake)

	_, err := store.Append(context.Background(), fixtures.Unmarshalable{}, "s")

	assert.ErrorIs(t, err, eventstore.ErrStoreFailure)
	assert.ErrorIs(t, err, eventstore.ErrMarshalingEventFailed)
	assert.Empty(t, fake.recorded())
}

func Test_StreamURL(t *testing.T) {
	store, err := httpengine.NewDefaultEventStore()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:2113/streams/combat", store.StreamURL("combat"))
	assert.Equal(t, "http://localhost:2113/streams/a%2Fb", store.StreamURL("a/b"))
}

func Test_Queries_Are_Not_Supported(t *testing.T) {
	store, err := httpengine.NewDefaultEventStore()
	require.NoError(t, err)
	ctx := context.Background()

	_, errAll := store.GetAll(ctx, "a.b")
	_, errFrom := store.GetFrom(ctx, "a.b", time.Now())
	_, errRange := store.GetRange(ctx, "a.b", time.Now(), time.Now())

	for _, err := range []error{errAll, errFrom, errRange} {
		assert.ErrorIs(t, err, eventstore.ErrStoreFailure)
		assert.ErrorIs(t, err, eventstore.ErrQueryNotSupported)
	}
}

func Test_NewEventStore_Rejects_Nil_Options(t *testing.T) {
	_, err := httpengine.NewDefaultEventStore(httpengine.WithHTTPClient(nil))
	assert.ErrorIs(t, err, httpengine.ErrNilHTTPClient)

	_, err = httpengine.NewDefaultEventStore(httpengine.WithClock(nil))
	assert.ErrorIs(t, err, httpengine.ErrNilClock)

	_, err = httpengine.NewDefaultEventStore(httpengine.WithIDGenerator(nil))
	assert.ErrorIs(t, err, httpengine.ErrNilIDGenerator)
}

func Test_Observability_Is_Reported(t *testing.T) {
	// setup
	logger := testdoubles.NewLoggerSpy()
	metrics := testdoubles.NewMetricsCollectorSpy()
	tracing := testdoubles.NewTracingCollectorSpy()

	created := newFakeEventStoreDB(t, http.StatusCreated)
	rejected := newFakeEventStoreDB(t, http.StatusServiceUnavailable)
	options := []httpengine.Option{
		httpengine.WithLogger(logger),
		httpengine.WithMetrics(metrics),
		httpengine.WithTracing(tracing),
	}

	// act
	_, err := newStore(t, created, options...).Append(context.Background(), fixtures.SomethingElseHappened{ID: "1"}, "s")
	require.NoError(t, err)
	_, err = newStore(t, rejected, options...).Append(context.Background(), fixtures.SomethingElseHappened{ID: "2"}, "s")
	require.Error(t, err)

	// assert
	assert.True(t, logger.HasMessage(testdoubles.LevelDebug, "posted events to: "))
	assert.True(t, logger.HasMessage(testdoubles.LevelInfo, "eventstore operation: events appended"))
	assert.True(t, logger.HasMessage(testdoubles.LevelError, "failed to post to event store"))
	assert.True(t, metrics.HasDuration("eventstore_append_duration_seconds", "success"))
	assert.True(t, metrics.HasDuration("eventstore_append_duration_seconds", "error"))
	assert.True(t, metrics.HasCounter("eventstore_errors_total"))

	spans := tracing.SpansNamed("eventstore.append")
	require.Len(t, spans, 2)
	assert.Equal(t, "success", spans[0].Status)
	assert.Equal(t, "error", spans[1].Status)
	assert.Equal(t, "status", spans[1].EndAttributes["error_type"])
	assert.Equal(t, "http", spans[1].StartAttributes["engine"])
}
