// Package fixtures provides small domain events for engine and aggregate tests.
package fixtures

import (
	"errors"
	"sync"
	"time"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

const (
	FixtureEventSource  = "events://github.com/AntonStoeckl/cloudevents-eventsourcing-go/testutil/fixtures"
	FixtureEventVersion = "1.0"
)

var (
	SomethingHappenedEventType     = eventstore.EventTypeOf("FixtureEvent", "SomethingHappened")
	SomethingElseHappenedEventType = eventstore.EventTypeOf("FixtureEvent", "SomethingElseHappened")
)

type SomethingHappened struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Amount uint64  `json:"amount"`
	Ratio  float64 `json:"ratio"`
}

func (e SomethingHappened) EventType() string        { return SomethingHappenedEventType }
func (e SomethingHappened) EventTypeVersion() string { return FixtureEventVersion }
func (e SomethingHappened) EventSource() string      { return FixtureEventSource }

type SomethingElseHappened struct {
	ID string `json:"id"`
}

func (e SomethingElseHappened) EventType() string        { return SomethingElseHappenedEventType }
func (e SomethingElseHappened) EventTypeVersion() string { return FixtureEventVersion }
func (e SomethingElseHappened) EventSource() string      { return FixtureEventSource }

var ErrCannotMarshal = errors.New("fixture cannot be marshaled")

// Unmarshalable cannot be serialized to JSON, it exercises the marshaling failure paths.
type Unmarshalable struct{}

func (e Unmarshalable) MarshalJSON() ([]byte, error) { return nil, ErrCannotMarshal }

func (e Unmarshalable) EventType() string        { return "fixtureevent.unmarshalable" }
func (e Unmarshalable) EventTypeVersion() string { return FixtureEventVersion }
func (e Unmarshalable) EventSource() string      { return FixtureEventSource }

// StepClock returns a clock that starts at start and advances by step on every call.
func StepClock(start time.Time, step time.Duration) eventstore.Clock {
	var mu sync.Mutex
	next := start

	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()

		now := next
		next = next.Add(step)

		return now
	}
}
