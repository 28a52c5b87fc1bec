package eventstore

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var ErrUnknownEventType = errors.New("unknown event type")

// EventFactory decodes the payload of a CloudEvent into the concrete domain Event.
type EventFactory func(ce CloudEvent) (Event, error)

// EventRegistry maps event type names to factories, so that stored CloudEvent(s) can be turned back into Event(s).
//
// It is safe for concurrent use.
type EventRegistry struct {
	mu        sync.RWMutex
	factories map[string]EventFactory
}

func NewEventRegistry() *EventRegistry {
	return &EventRegistry{factories: make(map[string]EventFactory)}
}

// Register adds or replaces the factory for eventType.
func (r *EventRegistry) Register(eventType string, factory EventFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[eventType] = factory
}

// RegisterType registers a factory that decodes the data into E, keyed by the EventType of an empty E.
//
// E may be a value type or a pointer type, for a pointer type the EventType is read from a freshly allocated value.
func RegisterType[E Event](r *EventRegistry) {
	r.Register(emptyEvent[E]().EventType(), func(ce CloudEvent) (Event, error) {
		return DataAs[E](ce)
	})
}

func emptyEvent[E Event]() E {
	var empty E

	if t := reflect.TypeFor[E](); t.Kind() == reflect.Pointer {
		empty, _ = reflect.New(t.Elem()).Interface().(E)
	}

	return empty
}

// Decode turns a CloudEvent back into its domain Event.
func (r *EventRegistry) Decode(ce CloudEvent) (Event, error) {
	r.mu.RLock()
	factory, ok := r.factories[ce.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, ce.Type)
	}

	return factory(ce)
}

// DecodeAll decodes all CloudEvent(s) in order, it stops at the first failure.
func (r *EventRegistry) DecodeAll(ces CloudEvents) (Events, error) {
	events := make(Events, 0, len(ces))

	for i, ce := range ces {
		event, err := r.Decode(ce)
		if err != nil {
			return nil, fmt.Errorf("decoding event %d (%s): %w", i, ce.ID, err)
		}

		events = append(events, event)
	}

	return events, nil
}
