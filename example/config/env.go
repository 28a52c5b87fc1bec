package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

const (
	EngineMemory   = "memory"
	EngineHTTP     = "http"
	EnginePostgres = "postgres"

	AdapterPGX   = "pgx"
	AdapterSQL   = "sql"
	AdapterSQLX  = "sqlx"
)

// Config holds the demo settings.
type Config struct {
	Engine             string     `env:"EVENTSOURCING_ENGINE"       envDefault:"memory"`
	StoreHost          string     `env:"EVENTSOURCING_STORE_HOST"   envDefault:"localhost"`
	StorePort          uint16     `env:"EVENTSOURCING_STORE_PORT"   envDefault:"2113"`
	Stream             string     `env:"EVENTSOURCING_STREAM"`
	PostgresDSN        string     `env:"EVENTSOURCING_POSTGRES_DSN"`
	PostgresReplicaDSN string     `env:"EVENTSOURCING_POSTGRES_REPLICA_DSN"`
	DBAdapter          string     `env:"EVENTSOURCING_DB_ADAPTER"   envDefault:"pgx"`
	EventsTable        string     `env:"EVENTSOURCING_EVENTS_TABLE" envDefault:"cloud_events"`
	LogLevel           slog.Level `env:"EVENTSOURCING_LOG_LEVEL"    envDefault:"info"`
	OTelEnabled        bool       `env:"EVENTSOURCING_OTEL_ENABLED"`
}

// Load parses the environment and validates the combination of settings.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// StreamOr returns the configured stream, or fallback if none is set.
func (c Config) StreamOr(fallback string) string {
	if c.Stream == "" {
		return fallback
	}

	return c.Stream
}

func (c Config) validate() error {
	switch c.Engine {
	case EngineMemory, EngineHTTP:
		return nil
	case EnginePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("engine %s needs EVENTSOURCING_POSTGRES_DSN", c.Engine)
		}

		switch c.DBAdapter {
		case AdapterPGX, AdapterSQL, AdapterSQLX:
			return nil
		default:
			return fmt.Errorf("unknown db adapter %q (supported: pgx, sql, sqlx)", c.DBAdapter)
		}
	default:
		return fmt.Errorf("unknown engine %q (supported: memory, http, postgres)", c.Engine)
	}
}
