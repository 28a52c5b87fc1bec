// Package config reads the environment of the demo programs and opens the event store they write to.
package config
