package bank

import (
	"fmt"
	"math"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/aggregate"
)

// Command is implemented by DepositFunds and WithdrawFunds.
type Command interface {
	isBankCommand()
}

type DepositFunds struct {
	Account string
	Amount  uint32
}

type WithdrawFunds struct {
	Account string
	Amount  uint32
}

func (DepositFunds) isBankCommand()  {}
func (WithdrawFunds) isBankCommand() {}

// AccountData is the state of one account.
type AccountData struct {
	AccountNumber string
	Balance       uint32
	generation    uint64
}

// NewAccountData returns the state of an account at the given generation.
func NewAccountData(accountNumber string, balance uint32, generation uint64) AccountData {
	return AccountData{AccountNumber: accountNumber, Balance: balance, generation: generation}
}

func (s AccountData) Generation() uint64 {
	return s.generation
}

// Account is the bank aggregate.
var Account aggregate.Aggregate[AccountData, Command, Event] = account{}

type account struct{}

func (account) Decide(state AccountData, command Command) ([]Event, error) {
	switch c := command.(type) {
	case DepositFunds:
		if err := checkCommand(state, c.Account, c.Amount); err != nil {
			return nil, err
		}

		if uint64(state.Balance)+uint64(c.Amount) > math.MaxUint32 {
			return nil, aggregate.CommandFailure("deposit exceeds the maximum balance")
		}

		return []Event{FundsDeposited{Account: c.Account, Amount: c.Amount}}, nil

	case WithdrawFunds:
		if err := checkCommand(state, c.Account, c.Amount); err != nil {
			return nil, err
		}

		if c.Amount > state.Balance {
			return nil, aggregate.CommandFailure(
				fmt.Sprintf("insufficient funds: balance %d, requested %d", state.Balance, c.Amount),
			)
		}

		return []Event{FundsWithdrawn{Account: c.Account, Amount: c.Amount}}, nil

	default:
		return nil, aggregate.CommandFailure(fmt.Sprintf("unsupported command %T", command))
	}
}

func (account) Apply(state AccountData, event Event) (AccountData, error) {
	if state.AccountNumber != "" && event.AccountNumber() != state.AccountNumber {
		return AccountData{}, aggregate.ApplicationFailure(
			fmt.Sprintf("event for account %s applied to account %s", event.AccountNumber(), state.AccountNumber),
		)
	}

	next := AccountData{
		AccountNumber: event.AccountNumber(),
		Balance:       state.Balance,
		generation:    state.generation + 1,
	}

	switch e := event.(type) {
	case FundsDeposited:
		if uint64(state.Balance)+uint64(e.Amount) > math.MaxUint32 {
			return AccountData{}, aggregate.ApplicationFailure("balance overflow")
		}

		next.Balance += e.Amount

	case FundsWithdrawn:
		if e.Amount > state.Balance {
			return AccountData{}, aggregate.ApplicationFailure(
				fmt.Sprintf("overdraft: balance %d, withdrawn %d", state.Balance, e.Amount),
			)
		}

		next.Balance -= e.Amount

	default:
		return AccountData{}, aggregate.ApplicationFailure(fmt.Sprintf("unsupported event %T", event))
	}

	return next, nil
}

func checkCommand(state AccountData, accountNumber string, amount uint32) error {
	if amount == 0 {
		return aggregate.CommandFailure("amount must be positive")
	}

	if accountNumber != state.AccountNumber {
		return aggregate.CommandFailure(
			fmt.Sprintf("command for account %s sent to account %s", accountNumber, state.AccountNumber),
		)
	}

	return nil
}
