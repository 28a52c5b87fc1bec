// Package httpengine appends CloudEvent(s) to a remote EventStoreDB (eventstore.org) over its HTTP API.
//
// Every Append is exactly one request:
//
//	POST http://{host}:{port}/streams/{stream}
//	Content-Type: application/vnd.eventstore.events+json
//
//	[{"eventId":"<uuid>","eventType":"<type>","data":{...}}]
//
// The remote store answers 201 Created on success. Any other status, and any transport failure, is
// returned as an error matching eventstore.ErrStoreFailure. There is no retry and no read support,
// the Querier methods always fail with eventstore.ErrQueryNotSupported.
//
// The engine imposes no timeout of its own, use a context deadline or WithHTTPClient.
package httpengine
