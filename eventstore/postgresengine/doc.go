// Package postgresengine provides a durable PostgreSQL implementation of eventstore.EventStore.
//
// Every CloudEvent is one row of the cloud_events table (see Schema), Append is a single INSERT, so a failed
// Append never leaves a partial row. Queries are built with goqu and return rows ordered by sequence_number,
// which is the append order. JSON predicates of an eventstore.Filter are translated to jsonb containment (@>).
//
// Three connection types are supported through internal adapters: pgxpool.Pool, sql.DB, and sqlx.DB.
//
// Note that jsonb normalizes whitespace and key order, so queried CloudEvent(s) carry semantically equal,
// not byte-identical, Data.
//
// Usage:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(
//		pool,
//		postgresengine.WithLogger(slog.Default()),
//	)
//
//	ce, err := store.Append(ctx, event, "accounts")
//	deposits, err := store.GetRange(ctx, bank.FundsDepositedEventType, from, until)
package postgresengine
