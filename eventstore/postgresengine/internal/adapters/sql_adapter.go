package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter implements DBAdapter for *sql.DB, any registered postgres driver (lib/pq, pgx/stdlib) works.
type SQLAdapter struct {
	primary *sql.DB
	replica *sql.DB
}

func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{primary: db}
}

// NewSQLAdapterWithReplica sends queries to the replica and appends to the primary.
func NewSQLAdapterWithReplica(primary *sql.DB, replica *sql.DB) *SQLAdapter {
	return &SQLAdapter{primary: primary, replica: replica}
}

func (s *SQLAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := s.reader().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

func (s *SQLAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	result, err := s.primary.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}

func (s *SQLAdapter) reader() *sql.DB {
	return readerOf(s.primary, s.replica)
}
