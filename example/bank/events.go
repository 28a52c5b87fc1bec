package bank

import (
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

const (
	EventSource      = "events://github.com/pholactery/eventsourcing/samples/bank"
	EventTypeVersion = "1.0"

	FundsDepositedEventType = "bankevent.fundsdeposited"
	FundsWithdrawnEventType = "bankevent.fundswithdrawn"
)

// Event is implemented by all bank events.
type Event interface {
	eventstore.Event
	AccountNumber() string
	isBankEvent()
}

// FundsDeposited means Amount was added to the account.
type FundsDeposited struct {
	Account string `json:"acct"`
	Amount  uint32 `json:"amount"`
}

func (e FundsDeposited) EventType() string        { return FundsDepositedEventType }
func (e FundsDeposited) EventTypeVersion() string { return EventTypeVersion }
func (e FundsDeposited) EventSource() string      { return EventSource }
func (e FundsDeposited) AccountNumber() string    { return e.Account }
func (e FundsDeposited) isBankEvent()             {}

// FundsWithdrawn means Amount was taken from the account.
type FundsWithdrawn struct {
	Account string `json:"acct"`
	Amount  uint32 `json:"amount"`
}

func (e FundsWithdrawn) EventType() string        { return FundsWithdrawnEventType }
func (e FundsWithdrawn) EventTypeVersion() string { return EventTypeVersion }
func (e FundsWithdrawn) EventSource() string      { return EventSource }
func (e FundsWithdrawn) AccountNumber() string    { return e.Account }
func (e FundsWithdrawn) isBankEvent()             {}

// RegisterEvents makes the bank events decodable by registry.
func RegisterEvents(registry *eventstore.EventRegistry) {
	eventstore.RegisterType[FundsDeposited](registry)
	eventstore.RegisterType[FundsWithdrawn](registry)
}

// AccountHistory selects all bank events of one account.
func AccountHistory(account string) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(FundsDepositedEventType, FundsWithdrawnEventType).
		AndAnyPredicateOf(eventstore.P("acct", account)).
		Finalize()
}
