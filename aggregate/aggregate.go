package aggregate

import (
	"errors"
	"fmt"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

// State is a snapshot of an aggregate. Generation counts the events applied to reach it.
type State interface {
	Generation() uint64
}

// Aggregate couples a state type S, a command type C, and an event type E.
//
// Decide must not modify state and returns the events in the order they should be applied,
// or an error wrapping ErrCommandFailure.
// Apply returns a new state with generation state.Generation()+1,
// or an error wrapping ErrApplicationFailure.
type Aggregate[S State, C any, E eventstore.Event] interface {
	Decide(state S, command C) ([]E, error)
	Apply(state S, event E) (S, error)
}

// Apply applies one event through agg and checks the generation of the result.
func Apply[S State, C any, E eventstore.Event](agg Aggregate[S, C, E], state S, event E) (S, error) {
	var zero S

	next, err := agg.Apply(state, event)
	if err != nil {
		if !errors.Is(err, ErrApplicationFailure) {
			err = fmt.Errorf("%w: %w", ErrApplicationFailure, err)
		}

		return zero, err
	}

	if want := state.Generation() + 1; next.Generation() != want {
		return zero, ApplicationFailure(
			fmt.Sprintf("%s moved generation from %d to %d", event.EventType(), state.Generation(), next.Generation()),
		)
	}

	return next, nil
}

// ApplyAll folds events into state from left to right.
// On the first failure it returns the zero state and an error naming the failing event.
func ApplyAll[S State, C any, E eventstore.Event](agg Aggregate[S, C, E], state S, events []E) (S, error) {
	var zero S

	current := state
	for i, event := range events {
		next, err := Apply(agg, current, event)
		if err != nil {
			return zero, fmt.Errorf("applying event %d (%s): %w", i, event.EventType(), err)
		}

		current = next
	}

	return current, nil
}
