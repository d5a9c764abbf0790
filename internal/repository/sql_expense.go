package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/forgo/expenses/internal/database"
	"github.com/forgo/expenses/internal/model"
)

const expenseColumns = `id, amount, category, recipient, description, status, created_at, updated_at`

// SQLExpenseRepository stores expenses in a SQL table through database/sql.
type SQLExpenseRepository struct {
	db     *sql.DB
	driver database.Driver
}

// NewSQLExpenseRepository creates a repository over an already migrated pool
func NewSQLExpenseRepository(db *sql.DB, driver database.Driver) *SQLExpenseRepository {
	return &SQLExpenseRepository{db: db, driver: driver}
}

func (r *SQLExpenseRepository) q(query string) string {
	return database.Rebind(r.driver, query)
}

// Create inserts a new expense
func (r *SQLExpenseRepository) Create(ctx context.Context, e *model.Expense) error {
	query := r.q(`INSERT INTO expenses (` + expenseColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Amount, e.Category, e.Recipient, e.Description, e.Status, e.Time.UTC(), nullTime(e),
	)
	if err != nil {
		return fmt.Errorf("insert expense %s: %w", e.ID, database.TranslateSQLError(err))
	}
	return nil
}

// GetByID retrieves an expense by id
func (r *SQLExpenseRepository) GetByID(ctx context.Context, id string) (*model.Expense, error) {
	query := r.q(`SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`)

	e, err := scanExpense(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, database.TranslateSQLError(err)
	}
	return e, nil
}

// Update replaces the mutable columns of a stored expense
func (r *SQLExpenseRepository) Update(ctx context.Context, e *model.Expense) error {
	query := r.q(`UPDATE expenses
		SET amount = ?, category = ?, recipient = ?, description = ?, status = ?, updated_at = ?
		WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query,
		e.Amount, e.Category, e.Recipient, e.Description, e.Status, nullTime(e), e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense %s: %w", e.ID, database.TranslateSQLError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return database.TranslateSQLError(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: expense %s", database.ErrNotFound, e.ID)
	}
	return nil
}

// Delete removes an expense and returns it
func (r *SQLExpenseRepository) Delete(ctx context.Context, id string) (*model.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, database.TranslateSQLError(err)
	}
	defer func() { _ = tx.Rollback() }()

	e, err := scanExpense(tx.QueryRowContext(ctx, r.q(`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, database.TranslateSQLError(err)
	}

	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM expenses WHERE id = ?`), id); err != nil {
		return nil, fmt.Errorf("delete expense %s: %w", id, database.TranslateSQLError(err))
	}
	if err := tx.Commit(); err != nil {
		return nil, database.TranslateSQLError(err)
	}
	return e, nil
}

// List returns every expense ordered by id
func (r *SQLExpenseRepository) List(ctx context.Context) ([]*model.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY id`)
	if err != nil {
		return nil, database.TranslateSQLError(err)
	}
	defer func() { _ = rows.Close() }()

	expenses := make([]*model.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, database.TranslateSQLError(err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, database.TranslateSQLError(err)
	}
	return expenses, nil
}

// Ping checks the connection pool
func (r *SQLExpenseRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", database.ErrConnection, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*model.Expense, error) {
	var (
		e         model.Expense
		updatedAt sql.NullTime
	)
	if err := row.Scan(
		&e.ID, &e.Amount, &e.Category, &e.Recipient, &e.Description, &e.Status, &e.Time, &updatedAt,
	); err != nil {
		return nil, err
	}

	e.Time = e.Time.UTC()
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		e.UpdatedAt = &t
	}
	return &e, nil
}

func nullTime(e *model.Expense) sql.NullTime {
	if e.UpdatedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: e.UpdatedAt.UTC(), Valid: true}
}
