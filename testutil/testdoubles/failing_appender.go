package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore"
)

// FailingAppender delegates to an inner eventstore.Appender but fails the configured calls (1-based)
// with an eventstore.ErrStoreFailure, without touching the inner Appender.
type FailingAppender struct {
	inner   eventstore.Appender
	failOn  map[int]bool
	calls   int
	streams []string
	mu      sync.Mutex
}

func NewFailingAppender(inner eventstore.Appender, failOnCalls ...int) *FailingAppender {
	failOn := make(map[int]bool, len(failOnCalls))
	for _, call := range failOnCalls {
		failOn[call] = true
	}

	return &FailingAppender{inner: inner, failOn: failOn}
}

func (a *FailingAppender) Append(ctx context.Context, event eventstore.Event, stream string) (eventstore.CloudEvent, error) {
	a.mu.Lock()
	a.calls++
	call := a.calls
	a.streams = append(a.streams, stream)
	fail := a.failOn[call]
	a.mu.Unlock()

	if fail {
		return eventstore.CloudEvent{}, eventstore.StoreFailure("injected failure", nil)
	}

	return a.inner.Append(ctx, event, stream)
}

// Calls returns how many times Append was called.
func (a *FailingAppender) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.calls
}

// Streams returns the stream names of all Append calls in order.
func (a *FailingAppender) Streams() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.streams...)
}
