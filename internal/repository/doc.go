// Package repository implements expense storage for the expense API.
//
// Three implementations share one contract (service.ExpenseRepository):
//
//   - MemoryExpenseRepository: a mutex-guarded table kept in id order
//   - SQLExpenseRepository: database/sql over SQLite or PostgreSQL
//   - SurrealExpenseRepository: SurrealQL over database.Database
//
// # Contract
//
//   - Create inserts a new record and fails with database.ErrDuplicate on an id clash
//   - GetByID returns (nil, nil) when the id is unknown
//   - Update replaces a stored record and fails with database.ErrNotFound when missing
//   - Delete returns the removed record, or (nil, nil) when the id is unknown
//   - List returns every record ordered by id, never nil
//
// Filtering and aggregation happen in the service layer so every backend
// answers queries identically.
package repository
