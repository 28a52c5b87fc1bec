package location

import (
	"fmt"
	"math"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/aggregate"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

const (
	EventSource      = "events://github.com/pholactery/eventsourcing/samples/location"
	EventTypeVersion = "1.0"

	LocationUpdatedEventType = "locationevent.locationupdated"
)

type Event interface {
	eventstore.Event
	isLocationEvent()
}

type LocationUpdated struct {
	Lat  float32 `json:"lat"`
	Long float32 `json:"long"`
	Alt  float32 `json:"alt"`
}

func (e LocationUpdated) EventType() string        { return LocationUpdatedEventType }
func (e LocationUpdated) EventTypeVersion() string { return EventTypeVersion }
func (e LocationUpdated) EventSource() string      { return EventSource }
func (e LocationUpdated) isLocationEvent()         {}

type Command interface {
	isLocationCommand()
}

type UpdateLocation struct {
	Lat  float32
	Long float32
	Alt  float32
}

func (UpdateLocation) isLocationCommand() {}

// Data is the last known position.
type Data struct {
	Lat        float32
	Long       float32
	Alt        float32
	generation uint64
}

func NewData(lat, long, alt float32, generation uint64) Data {
	return Data{Lat: lat, Long: long, Alt: alt, generation: generation}
}

func (d Data) Generation() uint64 {
	return d.generation
}

// Location is the location aggregate.
var Location aggregate.Aggregate[Data, Command, Event] = location{}

type location struct{}

// Decide accepts latitudes in [-90, 90] and longitudes in [-180, 180].
func (location) Decide(_ Data, command Command) ([]Event, error) {
	update, ok := command.(UpdateLocation)
	if !ok {
		return nil, aggregate.CommandFailure(fmt.Sprintf("unsupported command %T", command))
	}

	if !inRange(update.Lat, 90) || !inRange(update.Long, 180) || !isFinite(update.Alt) {
		return nil, aggregate.CommandFailure(
			fmt.Sprintf("invalid position %g/%g/%g", update.Lat, update.Long, update.Alt),
		)
	}

	return []Event{LocationUpdated(update)}, nil
}

func (location) Apply(state Data, event Event) (Data, error) {
	updated, ok := event.(LocationUpdated)
	if !ok {
		return Data{}, aggregate.ApplicationFailure(fmt.Sprintf("unsupported event %T", event))
	}

	return Data{
		Lat:        updated.Lat,
		Long:       updated.Long,
		Alt:        updated.Alt,
		generation: state.generation + 1,
	}, nil
}

func inRange(v float32, limit float32) bool {
	return isFinite(v) && v >= -limit && v <= limit
}

func isFinite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}
