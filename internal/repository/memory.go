package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/forgo/expenses/internal/database"
	"github.com/forgo/expenses/internal/model"
)

// MemoryExpenseRepository keeps expenses in process memory, ordered by id.
type MemoryExpenseRepository struct {
	mu   sync.RWMutex
	rows map[string]model.Expense
	keys []string
}

// NewMemoryExpenseRepository creates an empty in-memory table
func NewMemoryExpenseRepository() *MemoryExpenseRepository {
	return &MemoryExpenseRepository{rows: make(map[string]model.Expense)}
}

// Create inserts a new expense
func (r *MemoryExpenseRepository) Create(_ context.Context, e *model.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rows[e.ID]; exists {
		return fmt.Errorf("%w: expense %s", database.ErrDuplicate, e.ID)
	}

	r.rows[e.ID] = cloneExpense(e)
	i := sort.SearchStrings(r.keys, e.ID)
	r.keys = append(r.keys, "")
	copy(r.keys[i+1:], r.keys[i:])
	r.keys[i] = e.ID
	return nil
}

// GetByID retrieves an expense by id
func (r *MemoryExpenseRepository) GetByID(_ context.Context, id string) (*model.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	c := cloneExpense(&row)
	return &c, nil
}

// Update replaces a stored expense
func (r *MemoryExpenseRepository) Update(_ context.Context, e *model.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[e.ID]; !ok {
		return fmt.Errorf("%w: expense %s", database.ErrNotFound, e.ID)
	}
	r.rows[e.ID] = cloneExpense(e)
	return nil
}

// Delete removes an expense and returns it
func (r *MemoryExpenseRepository) Delete(_ context.Context, id string) (*model.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}

	delete(r.rows, id)
	i := sort.SearchStrings(r.keys, id)
	r.keys = append(r.keys[:i], r.keys[i+1:]...)
	return &row, nil
}

// List returns a snapshot of every expense in id order
func (r *MemoryExpenseRepository) List(_ context.Context) ([]*model.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	expenses := make([]*model.Expense, 0, len(r.keys))
	for _, id := range r.keys {
		row := r.rows[id]
		c := cloneExpense(&row)
		expenses = append(expenses, &c)
	}
	return expenses, nil
}

// Ping always succeeds for the in-memory table
func (r *MemoryExpenseRepository) Ping(context.Context) error {
	return nil
}

// cloneExpense copies e so callers cannot mutate stored rows through shared pointers
func cloneExpense(e *model.Expense) model.Expense {
	c := *e
	if e.UpdatedAt != nil {
		t := *e.UpdatedAt
		c.UpdatedAt = &t
	}
	return c
}
