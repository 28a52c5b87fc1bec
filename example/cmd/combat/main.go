// Command combat attacks an ogre and reports the dispatch results.
//
// With EVENTSOURCING_ENGINE=http it posts to an EventStoreDB at EVENTSOURCING_STORE_HOST:EVENTSOURCING_STORE_PORT.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/aggregate"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/example/combat"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/example/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err.Error())
		os.Exit(2)
	}

	logger := config.NewLogger(os.Stdout, cfg)

	if err = run(ctx, cfg, logger); err != nil {
		logger.Error("combat demo failed", "error", err.Error())
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, closeStore, err := config.OpenEventStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	logger.Info("event types",
		"random", combat.RandomEvent{A: 12, B: 13}.EventType(),
		"unit", combat.UnitEvent{}.EventType(),
	)

	state := combat.NewState("ogre", 900, 0)
	swing := combat.Attack{EntityID: "ogre", Points: 150}

	results := aggregate.Dispatch(ctx, combat.Combat, state, combat.Command(swing), store, cfg.StreamOr("ogre"))
	for i, result := range results {
		if result.Err != nil {
			logger.Error("dispatch result", "index", i, "error", result.Err.Error())
			continue
		}

		logger.Info("dispatch result", "index", i, "id", result.Event.ID, "type", result.Event.Type, "data", string(result.Event.Data))
	}

	if cfg.Engine == config.EngineHTTP {
		return results.Err()
	}

	stored, err := store.GetAll(ctx, combat.EntityAttackedEventType)
	if err != nil {
		return err
	}

	logger.Info("store contents", "type", combat.EntityAttackedEventType, "count", len(stored))

	return results.Err()
}
