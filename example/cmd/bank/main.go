// Command bank deposits into and withdraws from a sample account through the configured event store.
//
// Configuration is read from EVENTSOURCING_* environment variables, see package config.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/aggregate"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/example/bank"
	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/example/config"
)

const accountNumber = "SAVINGS100"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err.Error())
		os.Exit(2)
	}

	logger := config.NewLogger(os.Stderr, cfg)

	if err = run(ctx, cfg, logger); err != nil {
		logger.Error("bank demo failed", "error", err.Error())
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

	stream := cfg.StreamOr(accountNumber)
	dispatcher := aggregate.NewDispatcher(bank.Account, aggregate.WithLogger[bank.AccountData, bank.Command, bank.Event](logger))
	state := bank.NewAccountData(accountNumber, 800, 1)

	for _, command := range []bank.Command{
		bank.DepositFunds{Account: accountNumber, Amount: 500},
		bank.WithdrawFunds{Account: accountNumber, Amount: 2000},
		bank.WithdrawFunds{Account: accountNumber, Amount: 300},
	} {
		state, err = handle(ctx, dispatcher, state, command, store, stream, logger)
		if err != nil {
			return err
		}
	}

	if cfg.Engine == config.EngineHTTP {
		return nil
	}

	registry := eventstore.NewEventRegistry()
	bank.RegisterEvents(registry)

	replayed, err := aggregate.Replay(ctx, bank.Account, bank.NewAccountData(accountNumber, 800, 1), store, registry,
		bank.AccountHistory(accountNumber))
	if err != nil {
		return err
	}

	logger.Info("account replayed from store",
		"account", replayed.AccountNumber,
		"balance", replayed.Balance,
		"generation", replayed.Generation(),
		"matches_live_state", replayed == state,
	)

	return nil
}

// handle dispatches one command and applies what was stored. Rejected commands are logged and leave the state unchanged.
func handle(
	ctx context.Context,
	dispatcher aggregate.Dispatcher[bank.AccountData, bank.Command, bank.Event],
	state bank.AccountData,
	command bank.Command,
	store eventstore.Appender,
	stream string,
	logger *slog.Logger,
) (bank.AccountData, error) {

	results := dispatcher.Dispatch(ctx, state, command, store, stream)

	if err := results.Err(); err != nil {
		if errors.Is(err, aggregate.ErrCommandFailure) {
			logger.Warn("command rejected", "command", fmt.Sprintf("%T%+v", command, command), "error", err.Error())
			return state, nil
		}

		return state, err
	}

	events, err := bank.Account.Decide(state, command)
	if err != nil {
		return state, err
	}

	next, err := aggregate.ApplyAll(bank.Account, state, events)
	if err != nil {
		return state, err
	}

	for _, ce := range results.Events() {
		logger.Info("event stored", "id", ce.ID, "type", ce.Type, "time", ce.Time, "data", string(ce.Data))
	}

	logger.Info("account updated", "balance", next.Balance, "generation", next.Generation())

	return next, nil
}
