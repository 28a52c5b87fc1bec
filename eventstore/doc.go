// Package eventstore defines the CloudEvent envelope and the append-only store contract of the event-sourcing core.
//
// Domain events implement Event. An EventStore wraps each appended Event into a CloudEvent,
// stamping a fresh UUID and the append time, and returns copies of stored envelopes only:
//
//	ce, err := store.Append(ctx, bank.FundsDeposited{Account: "SAVINGS100", Amount: 500}, "SAVINGS100")
//	deposits, err := store.GetRange(ctx, bank.FundsDepositedEventType, from, until)
//
// Queries beyond a single event type use a Filter:
//
//	filter := BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(bank.FundsDepositedEventType, bank.FundsWithdrawnEventType).
//		AndAnyPredicateOf(P("acct", "SAVINGS100")).
//		OccurredFrom(from).
//		Finalize()
//
//	history, err := store.Query(ctx, filter)
//
// An EventRegistry turns stored envelopes back into domain events.
//
// Engines live in sub packages: memoryengine (in-process), httpengine (EventStoreDB HTTP API),
// and postgresengine (PostgreSQL).
package eventstore
