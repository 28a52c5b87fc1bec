package adapters

import "context"

// DBAdapter is the minimal surface the CloudEvent store needs from a database connection.
//
// Every adapter can be given a read replica: Query is then served by the replica,
// Exec always runs on the primary.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows iterates over query results, Err must be checked after Next returned false.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult reports the outcome of an Exec.
type DBResult interface {
	RowsAffected() (int64, error)
}

// readerOf returns the replica if there is one, otherwise the primary.
func readerOf[DB any](primary *DB, replica *DB) *DB {
	if replica != nil {
		return replica
	}

	return primary
}
