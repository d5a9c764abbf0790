package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forgo/expenses/internal/database"
	"github.com/forgo/expenses/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseRepository defines the interface for expense storage
type ExpenseRepository interface {
	Create(ctx context.Context, e *model.Expense) error
	// GetByID returns (nil, nil) when the id is unknown.
	GetByID(ctx context.Context, id string) (*model.Expense, error)
	Update(ctx context.Context, e *model.Expense) error
	// Delete returns the removed record, or (nil, nil) when the id is unknown.
	Delete(ctx context.Context, id string) (*model.Expense, error)
	List(ctx context.Context) ([]*model.Expense, error)
	Ping(ctx context.Context) error
}

// Clock returns the current instant.
type Clock func() time.Time

// IDGenerator returns a fresh record id.
type IDGenerator func() string

// SystemClock is the default Clock: UTC wall time at millisecond resolution.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NewUUID is the default IDGenerator.
func NewUUID() string {
	return uuid.NewString()
}

// ExpenseService handles expense business logic
type ExpenseService struct {
	repo  ExpenseRepository
	now   Clock
	newID IDGenerator
}

// ExpenseServiceConfig holds configuration for the expense service
type ExpenseServiceConfig struct {
	Repo  ExpenseRepository
	Clock Clock
	IDs   IDGenerator
}

// NewExpenseService creates a new expense service
func NewExpenseService(cfg ExpenseServiceConfig) *ExpenseService {
	s := &ExpenseService{
		repo:  cfg.Repo,
		now:   cfg.Clock,
		newID: cfg.IDs,
	}
	if s.now == nil {
		s.now = SystemClock
	}
	if s.newID == nil {
		s.newID = NewUUID
	}
	return s
}

// Create validates and stores a new expense. id and time are assigned here.
func (s *ExpenseService) Create(ctx context.Context, req *model.CreateExpenseRequest) (*model.Expense, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	e := &model.Expense{
		ID:   s.newID(),
		Time: s.timestamp(),
	}
	req.Apply(e)

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}
	return e, nil
}

// List returns all expenses, or those whose category or recipient contains
// search case-insensitively.
func (s *ExpenseService) List(ctx context.Context, search string) ([]*model.Expense, error) {
	return s.filter(ctx, func(e *model.Expense) bool {
		return e.MatchesSearch(search)
	})
}

// Get retrieves an expense by id
func (s *ExpenseService) Get(ctx context.Context, id string) (*model.Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, &ExpenseNotFoundError{ID: id}
	}
	return e, nil
}

// Update merges the supplied fields into a stored expense and stamps updatedAt.
// Concurrent updates are last-writer-wins.
func (s *ExpenseService) Update(ctx context.Context, id string, req *model.UpdateExpenseRequest) (*model.Expense, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(e)
	updatedAt := s.timestamp()
	e.UpdatedAt = &updatedAt

	if err := s.repo.Update(ctx, e); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, &ExpenseNotFoundError{ID: id}
		}
		return nil, fmt.Errorf("updating expense: %w", err)
	}
	return e, nil
}

// Delete removes an expense and returns it
func (s *ExpenseService) Delete(ctx context.Context, id string) (*model.Expense, error) {
	e, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("deleting expense: %w", err)
	}
	if e == nil {
		return nil, &ExpenseNotFoundError{ID: id}
	}
	return e, nil
}

// Balance sums invoices minus payments. Other categories are ignored.
func (s *ExpenseService) Balance(ctx context.Context) (*model.Balance, error) {
	expenses, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, e := range expenses {
		switch e.Category {
		case model.CategoryInvoice:
			total = total.Add(e.Amount)
		case model.CategoryPayment:
			total = total.Sub(e.Amount)
		}
	}
	return &model.Balance{TotalBalance: total}, nil
}

// ListByStatus returns expenses whose status equals status
func (s *ExpenseService) ListByStatus(ctx context.Context, status bool) ([]*model.Expense, error) {
	return s.filter(ctx, func(e *model.Expense) bool {
		return e.Status == status
	})
}

// ListByDateRange returns expenses created within [start, end]. An inverted
// range matches nothing.
func (s *ExpenseService) ListByDateRange(ctx context.Context, start, end time.Time) ([]*model.Expense, error) {
	return s.filter(ctx, func(e *model.Expense) bool {
		return e.InRange(start, end)
	})
}

// Ping reports whether the backing store is reachable
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *ExpenseService) filter(ctx context.Context, keep func(*model.Expense) bool) ([]*model.Expense, error) {
	expenses, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*model.Expense, 0, len(expenses))
	for _, e := range expenses {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *ExpenseService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
