package aggregate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/aggregate"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/testutil/testdoubles"
)

func newMemoryStore(t *testing.T) *memoryengine.EventStore {
	t.Helper()

	store, err := memoryengine.NewEventStore()
	require.NoError(t, err)

	return store
}

func Test_Dispatch_Appends_Every_Decided_Event_In_Order(t *testing.T) {
	// setup
	store := newMemoryStore(t)

	// act
	results := aggregate.Dispatch(context.Background(), validCounter, counterState{}, increment{By: 2, Times: 3}, store, "counter-1")

	// assert
	require.Len(t, results, 3)
	assert.False(t, results.Failed())
	assert.Nil(t, results.Err())
	assert.Empty(t, results.Errors())

	stored, err := store.GetAll(context.Background(), "counterevent.incremented")
	require.NoError(t, err)
	require.Len(t, stored, 3)

	for i, result := range results {
		assert.True(t, result.OK())
		assert.Equal(t, stored[i], result.Event)
		assert.JSONEq(t, `{"by":2}`, string(result.Event.Data))
	}
}

func Test_Dispatch_Continues_After_A_Failed_Append(t *testing.T) {
	// setup
	store := newMemoryStore(t)
	appender := testdoubles.NewFailingAppender(store, 2)

	// act
	results := aggregate.Dispatch(context.Background(), validCounter, counterState{}, increment{By: 1, Times: 3}, appender, "counter-1")

	// assert
	require.Len(t, results, 3)
	assert.True(t, results.Failed())

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, eventstore.ErrStoreFailure)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, eventstore.CloudEvent{}, results[1].Event)

	assert.Len(t, results.Errors(), 1)
	assert.ErrorIs(t, results.Err(), eventstore.ErrStoreFailure)
	assert.Len(t, results.Events(), 2)
	assert.Equal(t, 3, appender.Calls())
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, []string{"counter-1", "counter-1", "counter-1"}, appender.Streams())
}

func Test_Dispatch_With_All_Appends_Failing(t *testing.T) {
	appender := testdoubles.NewFailingAppender(newMemoryStore(t), 1, 2)

	results := aggregate.Dispatch(context.Background(), validCounter, counterState{}, increment{By: 1, Times: 2}, appender, "s")

	require.Len(t, results, 2)
	assert.Len(t, results.Errors(), 2)
	assert.Empty(t, results.Events())
}

func Test_Dispatch_Returns_Single_CommandFailure_Without_Store_Calls(t *testing.T) {
	// setup
	appender := testdoubles.NewFailingAppender(newMemoryStore(t))
	logger := testdoubles.NewLoggerSpy()
	dispatcher := aggregate.NewDispatcher(validCounter, aggregate.WithLogger[counterState, increment, counterEvent](logger))

	// act
	results := dispatcher.Dispatch(context.Background(), counterState{}, increment{By: -1, Times: 5}, appender, "s")

	// assert
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, aggregate.ErrCommandFailure)
	assert.Contains(t, results[0].Err.Error(), "cannot increment by -1")
	assert.Zero(t, appender.Calls())
	assert.True(t, logger.HasMessage(testdoubles.LevelError, "dispatch: command rejected"))
}

func Test_Dispatch_With_No_Decided_Events_Returns_No_Results(t *testing.T) {
	appender := testdoubles.NewFailingAppender(newMemoryStore(t))

	results := aggregate.Dispatch(context.Background(), validCounter, counterState{}, increment{By: 1, Times: 0}, appender, "s")

	assert.Empty(t, results)
	assert.False(t, results.Failed())
	assert.Zero(t, appender.Calls())
}

func Test_Dispatcher_Logs_Failed_Appends(t *testing.T) {
	logger := testdoubles.NewLoggerSpy()
	appender := testdoubles.NewFailingAppender(newMemoryStore(t), 1)
	dispatcher := aggregate.NewDispatcher(validCounter, aggregate.WithLogger[counterState, increment, counterEvent](logger))

	results := dispatcher.Dispatch(context.Background(), counterState{}, increment{By: 1, Times: 1}, appender, "s")

	require.Len(t, results, 1)
	assert.True(t, logger.HasMessage(testdoubles.LevelError, "dispatch: append failed"))
	assert.True(t, logger.HasAttr(testdoubles.LevelError, "event_type"))
}
