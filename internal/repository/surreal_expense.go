package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/expenses/internal/database"
	"github.com/forgo/expenses/internal/model"
)

const surrealExpenseFields = `meta::id(id) AS id, amount, category, recipient, description, status, time, updated_at`

// SurrealExpenseRepository stores expenses in the SurrealDB "expense" table.
type SurrealExpenseRepository struct {
	db database.Database
}

// NewSurrealExpenseRepository creates a new SurrealDB expense repository
func NewSurrealExpenseRepository(db database.Database) *SurrealExpenseRepository {
	return &SurrealExpenseRepository{db: db}
}

// Create inserts a new expense under its own record id
func (r *SurrealExpenseRepository) Create(ctx context.Context, e *model.Expense) error {
	query := `
		CREATE type::thing("expense", $id) CONTENT {
			amount: $amount,
			category: $category,
			recipient: $recipient,
			description: $description,
			status: $status,
			time: <datetime>$time,
			updated_at: NONE
		} RETURN NONE
	`

	if err := r.db.Execute(ctx, query, expenseVars(e)); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("%w: expense %s", database.ErrDuplicate, e.ID)
		}
		return err
	}
	return nil
}

// GetByID retrieves an expense by id
func (r *SurrealExpenseRepository) GetByID(ctx context.Context, id string) (*model.Expense, error) {
	query := `SELECT ` + surrealExpenseFields + ` FROM type::thing("expense", $id)`

	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseExpenseResult(result)
}

// Update overwrites the mutable fields of a stored expense
func (r *SurrealExpenseRepository) Update(ctx context.Context, e *model.Expense) error {
	query := `
		UPDATE type::thing("expense", $id) SET
			amount = $amount,
			category = $category,
			recipient = $recipient,
			description = $description,
			status = $status,
			updated_at = IF $updated_at THEN <datetime>$updated_at ELSE NONE END
		WHERE time != NONE
		RETURN ` + surrealExpenseFields + `
	`

	records, err := r.db.Records(ctx, query, expenseVars(e))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: expense %s", database.ErrNotFound, e.ID)
	}
	return nil
}

// Delete removes an expense and returns its last state
func (r *SurrealExpenseRepository) Delete(ctx context.Context, id string) (*model.Expense, error) {
	query := `DELETE type::thing("expense", $id) RETURN BEFORE`

	records, err := r.db.Records(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return parseExpenseResult(records[0])
}

// List returns every expense ordered by id
func (r *SurrealExpenseRepository) List(ctx context.Context) ([]*model.Expense, error) {
	query := `SELECT ` + surrealExpenseFields + ` FROM expense ORDER BY id`

	records, err := r.db.Records(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	expenses := make([]*model.Expense, 0, len(records))
	for _, rec := range records {
		e, err := parseExpenseResult(rec)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

// Ping checks the SurrealDB connection
func (r *SurrealExpenseRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func expenseVars(e *model.Expense) map[string]interface{} {
	vars := map[string]interface{}{
		"id":          e.ID,
		"amount":      e.Amount.String(),
		"category":    e.Category,
		"recipient":   e.Recipient,
		"description": e.Description,
		"status":      e.Status,
		"time":        formatTime(e.Time),
	}
	if e.UpdatedAt != nil {
		vars["updated_at"] = formatTime(*e.UpdatedAt)
	}
	return vars
}

func parseExpenseResult(result interface{}) (*model.Expense, error) {
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: unexpected expense record %T", database.ErrQuery, result)
	}

	amount, err := getDecimal(data, "amount")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}

	e := &model.Expense{
		ID:          recordKey(data["id"]),
		Amount:      amount,
		Category:    getString(data, "category"),
		Recipient:   getString(data, "recipient"),
		Description: getString(data, "description"),
		Status:      getBool(data, "status"),
		UpdatedAt:   getTime(data, "updated_at"),
	}
	if t := getTime(data, "time"); t != nil {
		e.Time = *t
	}
	return e, nil
}
