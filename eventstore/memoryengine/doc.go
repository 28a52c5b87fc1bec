// Package memoryengine provides an in-process eventstore.EventStore.
//
// The log lives in memory under a single exclusive lock: Append locks, pushes one CloudEvent, and unlocks;
// queries lock, filter with a linear scan, copy the matching CloudEvent(s) out, and unlock.
// Nothing survives a process restart.
//
// Usage:
//
//	store, err := memoryengine.NewEventStore(memoryengine.WithLogger(slog.Default()))
//	if err != nil {
//		// handle error
//	}
//
//	ce, err := store.Append(ctx, event, "accounts")
//	deposits, err := store.GetAll(ctx, bank.FundsDepositedEventType)
package memoryengine
