// Package testdoubles provides spies for the observability interfaces of package eventstore
// and a configurable failing Appender, for use in tests only.
package testdoubles
