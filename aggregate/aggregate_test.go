package aggregate_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/aggregate"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

const counterSource = "events://counter"

type counterEvent interface {
	eventstore.Event
	isCounterEvent()
}

type incremented struct {
	By int `json:"by"`
}

func (incremented) EventType() string        { return "counterevent.incremented" }
func (incremented) EventTypeVersion() string { return "1.0" }
func (incremented) EventSource() string      { return counterSource }
func (incremented) isCounterEvent()          {}

type rejected struct{}

func (rejected) EventType() string        { return "counterevent.rejected" }
func (rejected) EventTypeVersion() string { return "1.0" }
func (rejected) EventSource() string      { return counterSource }
func (rejected) isCounterEvent()          {}

type counterState struct {
	Value int
	Gen   uint64
}

func (s counterState) Generation() uint64 { return s.Gen }

type increment struct {
	By    int
	Times int
}

// counter applies incremented events. generationStep lets tests break the generation rule.
type counter struct {
	generationStep uint64
}

func (c counter) Decide(state counterState, command increment) ([]counterEvent, error) {
	if command.By <= 0 {
		return nil, aggregate.CommandFailure(fmt.Sprintf("cannot increment by %d", command.By))
	}

	events := make([]counterEvent, 0, command.Times)
	for range command.Times {
		events = append(events, incremented{By: command.By})
	}

	return events, nil
}

func (c counter) Apply(state counterState, event counterEvent) (counterState, error) {
	e, ok := event.(incremented)
	if !ok {
		return counterState{}, aggregate.ApplicationFailure("unsupported event " + event.EventType())
	}

	step := c.generationStep
	if step == 0 {
		step = 1
	}

	return counterState{Value: state.Value + e.By, Gen: state.Gen + step}, nil
}

var validCounter aggregate.Aggregate[counterState, increment, counterEvent] = counter{}

func Test_Apply_Increments_Generation_By_Exactly_One(t *testing.T) {
	// arrange
	state := counterState{Value: 1, Gen: 7}

	// act
	next, err := aggregate.Apply(validCounter, state, counterEvent(incremented{By: 2}))

	// assert
	require.NoError(t, err)
	assert.Equal(t, counterState{Value: 3, Gen: 8}, next)
	assert.Equal(t, counterState{Value: 1, Gen: 7}, state)
}

func Test_Apply_Rejects_Skipped_Or_Repeated_Generations(t *testing.T) {
	for _, step := range []uint64{2, 10} {
		t.Run(fmt.Sprintf("step_%d", step), func(t *testing.T) {
			var broken aggregate.Aggregate[counterState, increment, counterEvent] = counter{generationStep: step}

			next, err := aggregate.Apply(broken, counterState{Gen: 3}, counterEvent(incremented{By: 1}))

			assert.ErrorIs(t, err, aggregate.ErrApplicationFailure)
			assert.Contains(t, err.Error(), "from 3 to")
			assert.Equal(t, counterState{}, next)
		})
	}
}

type stuckCounter struct{ counter }

func (stuckCounter) Apply(state counterState, _ counterEvent) (counterState, error) {
	return state, nil
}

func Test_Apply_Rejects_Unchanged_Generation(t *testing.T) {
	var stuck aggregate.Aggregate[counterState, increment, counterEvent] = stuckCounter{}

	_, err := aggregate.Apply(stuck, counterState{Gen: 3}, counterEvent(incremented{By: 1}))

	assert.ErrorIs(t, err, aggregate.ErrApplicationFailure)
}

func Test_Apply_Marks_Foreign_Errors_As_ApplicationFailure(t *testing.T) {
	var failing aggregate.Aggregate[counterState, increment, counterEvent] = failingApply{}

	_, err := aggregate.Apply(failing, counterState{}, counterEvent(incremented{By: 1}))

	assert.ErrorIs(t, err, aggregate.ErrApplicationFailure)
	assert.ErrorIs(t, err, errBoom)
}

var errBoom = fmt.Errorf("boom")

type failingApply struct{ counter }

func (failingApply) Apply(counterState, counterEvent) (counterState, error) {
	return counterState{}, errBoom
}

func Test_ApplyAll_Equals_Left_Fold_Of_Apply(t *testing.T) {
	// arrange
	initial := counterState{Value: 10, Gen: 1}
	events := []counterEvent{incremented{By: 1}, incremented{By: 2}, incremented{By: 3}}

	expected := initial
	for _, event := range events {
		var err error
		expected, err = aggregate.Apply(validCounter, expected, event)
		require.NoError(t, err)
	}

	// act
	folded, err := aggregate.ApplyAll(validCounter, initial, events)

	// assert
	require.NoError(t, err)
	assert.Equal(t, expected, folded)
	assert.Equal(t, counterState{Value: 16, Gen: 4}, folded)
}

func Test_ApplyAll_With_No_Events_Returns_Initial_State(t *testing.T) {
	initial := counterState{Value: 5, Gen: 2}

	folded, err := aggregate.ApplyAll(validCounter, initial, nil)

	require.NoError(t, err)
	assert.Equal(t, initial, folded)
}

func Test_ApplyAll_Stops_At_First_Failure_Without_Partial_State(t *testing.T) {
	// arrange
	events := []counterEvent{incremented{By: 1}, rejected{}, incremented{By: 100}}

	// act
	folded, err := aggregate.ApplyAll(validCounter, counterState{}, events)

	// assert
	assert.ErrorIs(t, err, aggregate.ErrApplicationFailure)
	assert.Contains(t, err.Error(), "applying event 1 (counterevent.rejected)")
	assert.Equal(t, counterState{}, folded)
}

func Test_Failure_Constructors_Keep_Reason(t *testing.T) {
	commandErr := aggregate.CommandFailure("insufficient funds")
	applicationErr := aggregate.ApplicationFailure("overdraft")

	assert.ErrorIs(t, commandErr, aggregate.ErrCommandFailure)
	assert.NotErrorIs(t, commandErr, aggregate.ErrApplicationFailure)
	assert.Contains(t, commandErr.Error(), "insufficient funds")
	assert.ErrorIs(t, applicationErr, aggregate.ErrApplicationFailure)
	assert.Contains(t, applicationErr.Error(), "overdraft")
}
