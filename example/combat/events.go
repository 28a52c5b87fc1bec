package combat

import (
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

const (
	EventSource      = "events://github.com/pholactery/eventsourcing/samples/combat"
	EventTypeVersion = "1.0"
)

var (
	EntityAttackedEventType = eventstore.EventTypeOf("CombatEvent", "EntityAttacked")
	RandomEventEventType    = eventstore.EventTypeOf("CombatEvent", "RandomEvent")
	UnitEventEventType      = eventstore.EventTypeOf("CombatEvent", "UnitEvent")
)

// Event is implemented by all combat events.
type Event interface {
	eventstore.Event
	isCombatEvent()
}

type EntityAttacked struct {
	EntityID string `json:"entity"`
	Points   uint32 `json:"pts"`
}

func (e EntityAttacked) EventType() string        { return EntityAttackedEventType }
func (e EntityAttacked) EventTypeVersion() string { return EventTypeVersion }
func (e EntityAttacked) EventSource() string      { return EventSource }
func (e EntityAttacked) isCombatEvent()           {}

type RandomEvent struct {
	A uint32 `json:"a"`
	B uint32 `json:"b"`
}

func (e RandomEvent) EventType() string        { return RandomEventEventType }
func (e RandomEvent) EventTypeVersion() string { return EventTypeVersion }
func (e RandomEvent) EventSource() string      { return EventSource }
func (e RandomEvent) isCombatEvent()           {}

// UnitEvent carries no fields, its data is the JSON string "UnitEvent".
type UnitEvent struct{}

var unitEventJSON = []byte(`"UnitEvent"`)

func (e UnitEvent) MarshalJSON() ([]byte, error) {
	return unitEventJSON, nil
}

func (e *UnitEvent) UnmarshalJSON(data []byte) error {
	if string(data) != string(unitEventJSON) {
		return eventstore.ErrInvalidDataJSON
	}

	return nil
}

func (e UnitEvent) EventType() string        { return UnitEventEventType }
func (e UnitEvent) EventTypeVersion() string { return EventTypeVersion }
func (e UnitEvent) EventSource() string      { return EventSource }
func (e UnitEvent) isCombatEvent()           {}

// RegisterEvents makes the combat events decodable by registry.
func RegisterEvents(registry *eventstore.EventRegistry) {
	eventstore.RegisterType[EntityAttacked](registry)
	eventstore.RegisterType[RandomEvent](registry)
	eventstore.RegisterType[UnitEvent](registry)
}

// EntityHistory selects the attacks on one entity plus all events without an entity.
func EntityHistory(entityID string) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(EntityAttackedEventType).
		AndAnyPredicateOf(eventstore.P("entity", entityID)).
		OrMatching().
		AnyEventTypeOf(RandomEventEventType, UnitEventEventType).
		Finalize()
}
