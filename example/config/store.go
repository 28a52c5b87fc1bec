package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the "postgres" driver for database/sql
	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore/httpengine"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore/oteladapters"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore/postgresengine"
)

const instrumentationName = "github.com/AntonStoeckl/cloudevents-eventsourcing-go/example"

// NewLogger returns a JSON logger writing to w, filtered by the configured level.
func NewLogger(w io.Writer, cfg Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel}))
}

// observers are the engine independent observability hooks.
type observers struct {
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metrics          eventstore.MetricsCollector
	tracing          eventstore.TracingCollector
}

func newObservers(cfg Config, logger *slog.Logger) observers {
	if !cfg.OTelEnabled {
		return observers{logger: logger}
	}

	// The global providers stay no-ops until the embedding program installs SDK providers.
	return observers{
		contextualLogger: oteladapters.NewSlogBridgeLogger(instrumentationName),
		metrics:          oteladapters.NewMetricsCollector(otel.Meter(instrumentationName)),
		tracing:          oteladapters.NewTracingCollector(otel.Tracer(instrumentationName)),
	}
}

// OpenEventStore opens the configured engine. The returned close function releases its resources.
func OpenEventStore(ctx context.Context, cfg Config, logger *slog.Logger) (eventstore.EventStore, func(), error) {
	obs := newObservers(cfg, logger)
	noop := func() {}

	switch cfg.Engine {
	case EngineHTTP:
		store, err := httpengine.NewEventStore(
			cfg.StoreHost,
			cfg.StorePort,
			httpengine.WithLogger(obs.logger),
			httpengine.WithContextualLogger(obs.contextualLogger),
			httpengine.WithMetrics(obs.metrics),
			httpengine.WithTracing(obs.tracing),
		)

		if err != nil {
			return nil, nil, err
		}

		return store, noop, nil

	case EnginePostgres:
		return openPostgres(ctx, cfg, obs)

	default:
		store, err := memoryengine.NewEventStore(
			memoryengine.WithLogger(obs.logger),
			memoryengine.WithContextualLogger(obs.contextualLogger),
			memoryengine.WithMetrics(obs.metrics),
			memoryengine.WithTracing(obs.tracing),
		)
		if err != nil {
			return nil, nil, err
		}

		return store, noop, nil
	}
}

func openPostgres(ctx context.Context, cfg Config, obs observers) (eventstore.EventStore, func(), error) {
	options := []postgresengine.Option{
		postgresengine.WithTableName(cfg.EventsTable),
		postgresengine.WithLogger(obs.logger),
		postgresengine.WithContextualLogger(obs.contextualLogger),
		postgresengine.WithMetrics(obs.metrics),
		postgresengine.WithTracing(obs.tracing),
	}

	switch cfg.DBAdapter {
	case AdapterSQL:
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sql.DB: %w", err)
		}

		if err = migrate(ctx, cfg, func(ctx context.Context, stmt string) error {
			_, execErr := db.ExecContext(ctx, stmt)
			return execErr
		}); err != nil {
			return nil, nil, errors.Join(err, db.Close())
		}

		if cfg.PostgresReplicaDSN == "" {
			store, err := postgresengine.NewEventStoreFromSQLDB(db, options...)
			if err != nil {
				return nil, nil, errors.Join(err, db.Close())
			}

			return store, func() { _ = db.Close() }, nil
		}

		replica, err := sql.Open("postgres", cfg.PostgresReplicaDSN)
		if err != nil {
			return nil, nil, errors.Join(fmt.Errorf("open replica sql.DB: %w", err), db.Close())
		}

		store, err := postgresengine.NewEventStoreFromSQLDBAndReplica(db, replica, options...)
		if err != nil {
			return nil, nil, errors.Join(err, replica.Close(), db.Close())
		}

		return store, func() { _ = replica.Close(); _ = db.Close() }, nil

	case AdapterSQLX:
		db, err := sqlx.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlx.DB: %w", err)
		}

		if err = migrate(ctx, cfg, func(ctx context.Context, stmt string) error {
			_, execErr := db.ExecContext(ctx, stmt)
			return execErr
		}); err != nil {
			return nil, nil, errors.Join(err, db.Close())
		}

		if cfg.PostgresReplicaDSN == "" {
			store, err := postgresengine.NewEventStoreFromSQLX(db, options...)
			if err != nil {
				return nil, nil, errors.Join(err, db.Close())
			}

			return store, func() { _ = db.Close() }, nil
		}

		replica, err := sqlx.Open("postgres", cfg.PostgresReplicaDSN)
		if err != nil {
			return nil, nil, errors.Join(fmt.Errorf("open replica sqlx.DB: %w", err), db.Close())
		}

		store, err := postgresengine.NewEventStoreFromSQLXAndReplica(db, replica, options...)
		if err != nil {
			return nil, nil, errors.Join(err, replica.Close(), db.Close())
		}

		return store, func() { _ = replica.Close(); _ = db.Close() }, nil

	default:
		pool, err := newPGXPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}

		if err = migrate(ctx, cfg, func(ctx context.Context, stmt string) error {
			_, execErr := pool.Exec(ctx, stmt)
			return execErr
		}); err != nil {
			pool.Close()
			return nil, nil, err
		}

		if cfg.PostgresReplicaDSN == "" {
			store, err := postgresengine.NewEventStoreFromPGXPool(pool, options...)
			if err != nil {
				pool.Close()
				return nil, nil, err
			}

			return store, pool.Close, nil
		}

		replica, err := newPGXPool(ctx, cfg.PostgresReplicaDSN)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		store, err := postgresengine.NewEventStoreFromPGXPoolAndReplica(pool, replica, options...)
		if err != nil {
			replica.Close()
			pool.Close()
			return nil, nil, err
		}

		return store, func() { replica.Close(); pool.Close() }, nil
	}
}

func newPGXPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	poolConfig.MaxConns = 4
	poolConfig.MinConns = 1
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return pool, nil
}

// migrate creates the default table. Custom tables are expected to exist.
func migrate(ctx context.Context, cfg Config, exec func(ctx context.Context, stmt string) error) error {
	if cfg.EventsTable != postgresengine.DefaultEventsTableName {
		return nil
	}

	if err := exec(ctx, postgresengine.Schema); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}

	return nil
}
