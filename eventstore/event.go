package eventstore

import (
	"strings"
)

// Event is implemented by every domain event that can be wrapped into a CloudEvent.
//
// Implementations must be JSON-serializable, immutable once constructed, and expose three stable facets:
//   - EventType: conventionally "<aggregate>.<variant>" lower-cased, see EventTypeOf
//   - EventTypeVersion: a version string fixed per domain
//   - EventSource: a URI identifying the producing domain
type Event interface {
	EventType() string
	EventTypeVersion() string
	EventSource() string
}

// Events is a slice of Event.
type Events = []Event

// EventTypeOf builds the conventional event type name "<aggregate>.<variant>" in lower case.
//
//	EventTypeOf("BankEvent", "FundsDeposited") == "bankevent.fundsdeposited"
func EventTypeOf(aggregateName string, variantName string) string {
	return strings.ToLower(aggregateName) + "." + strings.ToLower(variantName)
}
