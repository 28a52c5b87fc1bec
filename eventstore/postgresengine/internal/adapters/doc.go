// Package adapters lets the postgres engine run on pgxpool.Pool, sql.DB, or sqlx.DB behind one DBAdapter interface.
package adapters
