package eventstore

import (
	"errors"
	"fmt"
)

// ErrStoreFailure marks every error that means persistence could not complete.
// Engines always return errors for which errors.Is(err, ErrStoreFailure) holds.
var ErrStoreFailure = errors.New("store failure")

var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrEmptyEventsTableName = errors.New("events table name must not be empty")
var ErrEmptyStreamName = errors.New("stream name must not be empty")
var ErrMarshalingEventFailed = errors.New("marshaling event failed")
var ErrBuildingQueryFailed = errors.New("building query failed")
var ErrQueryingEventsFailed = errors.New("querying events failed")
var ErrScanningDBRowFailed = errors.New("scanning db row failed")
var ErrAppendingEventFailed = errors.New("appending event failed")
var ErrUnexpectedStatus = errors.New("unexpected response status")
var ErrQueryNotSupported = errors.New("query not supported by this event store")

// StoreFailure builds an error that matches ErrStoreFailure, carries a human-readable reason,
// and keeps the optional cause reachable for errors.Is / errors.As.
func StoreFailure(reason string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrStoreFailure, reason)
	}

	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, reason, cause)
}
