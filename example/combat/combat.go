package combat

import (
	"fmt"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/aggregate"
)

// Command is implemented by Attack.
type Command interface {
	isCombatCommand()
}

// Attack deals Points of damage to EntityID.
type Attack struct {
	EntityID string
	Points   uint32
}

func (Attack) isCombatCommand() {}

// State is the entity under attack.
type State struct {
	EntityID   string
	Hitpoints  uint32
	generation uint64
}

func NewState(entityID string, hitpoints uint32, generation uint64) State {
	return State{EntityID: entityID, Hitpoints: hitpoints, generation: generation}
}

func (s State) Generation() uint64 {
	return s.generation
}

// Combat is the combat aggregate.
var Combat aggregate.Aggregate[State, Command, Event] = combat{}

type combat struct{}

func (combat) Decide(state State, command Command) ([]Event, error) {
	attack, ok := command.(Attack)
	if !ok {
		return nil, aggregate.CommandFailure(fmt.Sprintf("unsupported command %T", command))
	}

	if attack.EntityID != state.EntityID {
		return nil, aggregate.CommandFailure(fmt.Sprintf("attack on %s sent to %s", attack.EntityID, state.EntityID))
	}

	if state.Hitpoints == 0 {
		return nil, aggregate.CommandFailure(state.EntityID + " is already defeated")
	}

	return []Event{EntityAttacked{EntityID: attack.EntityID, Points: attack.Points}}, nil
}

// Apply lowers the hitpoints on EntityAttacked, never below zero.
// RandomEvent and UnitEvent only advance the generation.
func (combat) Apply(state State, event Event) (State, error) {
	next := state
	next.generation++

	switch e := event.(type) {
	case EntityAttacked:
		if e.EntityID != state.EntityID {
			return State{}, aggregate.ApplicationFailure(
				fmt.Sprintf("attack on %s applied to %s", e.EntityID, state.EntityID),
			)
		}

		next.Hitpoints -= min(e.Points, state.Hitpoints)

	case RandomEvent, UnitEvent:

	default:
		return State{}, aggregate.ApplicationFailure(fmt.Sprintf("unsupported event %T", event))
	}

	return next, nil
}
