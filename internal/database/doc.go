// Package database provides storage connectivity for the expense API.
//
// Two families of backends are supported:
//
//   - SurrealDB, through the Database interface and its SurrealDB implementation.
//     Query returns the raw per-statement results; QueryOne unwraps the first
//     record of the first statement.
//   - SQL (SQLite via modernc.org/sqlite, PostgreSQL via lib/pq), opened with
//     OpenSQL and brought to the current schema with Migrate, which runs the
//     embedded goose migrations for the dialect.
//
// # Error Types
//
// Driver errors are translated into package sentinels and wrapped with %w:
//
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Primary key or unique constraint violation
//   - ErrConnection: Connection failed or was lost
//   - ErrQuery: Query execution failed
//
//	if errors.Is(err, database.ErrDuplicate) {
//	    // id clash
//	}
package database
