package aggregate

import (
	"errors"
)

// ErrCommandFailure marks a command rejected by Decide.
var ErrCommandFailure = errors.New("command failure")

// ErrApplicationFailure marks an event that cannot be applied to a state.
var ErrApplicationFailure = errors.New("application failure")

// CommandFailure returns an error wrapping ErrCommandFailure with the given reason.
func CommandFailure(reason string) error {
	return errors.Join(ErrCommandFailure, errors.New(reason))
}

// ApplicationFailure returns an error wrapping ErrApplicationFailure with the given reason.
func ApplicationFailure(reason string) error {
	return errors.Join(ErrApplicationFailure, errors.New(reason))
}
