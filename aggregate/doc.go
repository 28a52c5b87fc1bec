// Package aggregate holds the decide/apply contract of event-sourced aggregates.
//
// An aggregate never mutates state in place. Decide turns a command into events,
// Apply folds one event into a new state whose generation is exactly one higher.
// ApplyAll folds a sequence, Replay folds what a store returns, Dispatch decides
// and appends each resulting event independently.
package aggregate
