package aggregate

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

// Result is the outcome of one dispatched event: the stored envelope or the error.
type Result struct {
	Event eventstore.CloudEvent
	Err   error
}

// OK reports whether the result holds a stored envelope.
func (r Result) OK() bool {
	return r.Err == nil
}

// Results are ordered like the events Decide returned.
type Results []Result

// Failed reports whether any result holds an error.
func (rs Results) Failed() bool {
	for _, r := range rs {
		if r.Err != nil {
			return true
		}
	}

	return false
}

// Errors returns the errors of all failed results, nil if none failed.
func (rs Results) Errors() []error {
	var errs []error
	for _, r := range rs {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}

	return errs
}

// Err joins all errors, nil if none failed.
func (rs Results) Err() error {
	return errors.Join(rs.Errors()...)
}

// Events returns the stored envelopes of all successful results.
func (rs Results) Events() eventstore.CloudEvents {
	ces := make(eventstore.CloudEvents, 0, len(rs))
	for _, r := range rs {
		if r.Err == nil {
			ces = append(ces, r.Event)
		}
	}

	return ces
}

// Dispatch runs Decide and appends every resulting event to stream.
//
// A Decide failure yields exactly one failed Result and the store is not called.
// Otherwise there is one Result per event, an append failure does not stop the following appends.
func Dispatch[S State, C any, E eventstore.Event](
	ctx context.Context,
	agg Aggregate[S, C, E],
	state S,
	command C,
	store eventstore.Appender,
	stream string,
) Results {

	return NewDispatcher(agg).Dispatch(ctx, state, command, store, stream)
}

// Dispatcher binds Dispatch to one aggregate.
type Dispatcher[S State, C any, E eventstore.Event] struct {
	agg    Aggregate[S, C, E]
	logger eventstore.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption[S State, C any, E eventstore.Event] func(*Dispatcher[S, C, E])

// WithLogger logs rejected commands and failed appends.
func WithLogger[S State, C any, E eventstore.Event](logger eventstore.Logger) DispatcherOption[S, C, E] {
	return func(d *Dispatcher[S, C, E]) {
		d.logger = logger
	}
}

func NewDispatcher[S State, C any, E eventstore.Event](
	agg Aggregate[S, C, E],
	options ...DispatcherOption[S, C, E],
) Dispatcher[S, C, E] {

	d := Dispatcher[S, C, E]{agg: agg}
	for _, option := range options {
		option(&d)
	}

	return d
}

// Dispatch is the bound form of the package level Dispatch.
func (d Dispatcher[S, C, E]) Dispatch(
	ctx context.Context,
	state S,
	command C,
	store eventstore.Appender,
	stream string,
) Results {

	events, err := d.agg.Decide(state, command)
	if err != nil {
		if !errors.Is(err, ErrCommandFailure) {
			err = errors.Join(ErrCommandFailure, err)
		}

		d.logError("command rejected", err, "stream", stream)

		return Results{{Err: err}}
	}

	results := make(Results, 0, len(events))
	for _, event := range events {
		ce, appendErr := store.Append(ctx, event, stream)
		if appendErr != nil {
			d.logError("append failed", appendErr, "stream", stream, "event_type", event.EventType())
		}

		results = append(results, Result{Event: ce, Err: appendErr})
	}

	return results
}

func (d Dispatcher[S, C, E]) logError(msg string, err error, args ...any) {
	if d.logger == nil {
		return
	}

	d.logger.Error("dispatch: "+msg, append([]any{"error", err.Error()}, args...)...)
}
