package aggregate

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

// Replay queries the envelopes matching filter, decodes them with registry, and folds them into initial.
//
// Store failures are returned as they are. An envelope that decodes to an event
// the aggregate does not accept is an ApplicationFailure.
func Replay[S State, C any, E eventstore.Event](
	ctx context.Context,
	agg Aggregate[S, C, E],
	initial S,
	querier eventstore.Querier,
	registry *eventstore.EventRegistry,
	filter eventstore.Filter,
) (S, error) {

	var zero S

	envelopes, err := querier.Query(ctx, filter)
	if err != nil {
		return zero, err
	}

	decoded, err := registry.DecodeAll(envelopes)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrApplicationFailure, err)
	}

	events := make([]E, 0, len(decoded))
	for i, event := range decoded {
		typed, ok := event.(E)
		if !ok {
			return zero, ApplicationFailure(
				fmt.Sprintf("event %d (%s) does not belong to this aggregate: %T", i, event.EventType(), event),
			)
		}

		events = append(events, typed)
	}

	return ApplyAll(agg, initial, events)
}
