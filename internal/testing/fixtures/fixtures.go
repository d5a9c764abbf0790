package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/forgo/expenses/internal/model"
	"github.com/forgo/expenses/internal/service"
	"github.com/shopspring/decimal"
)

// Factory creates test expenses in a repository
type Factory struct {
	repo service.ExpenseRepository
	base time.Time
	seq  int
}

// New creates a new fixture factory. Expenses get strictly increasing
// creation times starting at 2024-01-01T00:00:00Z, one minute apart.
func New(repo service.ExpenseRepository) *Factory {
	return &Factory{
		repo: repo,
		base: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ============================================================================
// Expense Fixtures
// ============================================================================

// ExpenseOpts customizes expense creation
type ExpenseOpts struct {
	ID          string
	Amount      decimal.Decimal
	Category    string
	Recipient   string
	Description string
	Status      bool
	Time        time.Time
	UpdatedAt   *time.Time
}

// WithCategory sets the category
func WithCategory(category string) func(*ExpenseOpts) {
	return func(o *ExpenseOpts) { o.Category = category }
}

// WithRecipient sets the recipient
func WithRecipient(recipient string) func(*ExpenseOpts) {
	return func(o *ExpenseOpts) { o.Recipient = recipient }
}

// WithAmount sets the amount from its decimal text
func WithAmount(amount string) func(*ExpenseOpts) {
	return func(o *ExpenseOpts) { o.Amount = decimal.RequireFromString(amount) }
}

// WithStatus sets the status flag
func WithStatus(status bool) func(*ExpenseOpts) {
	return func(o *ExpenseOpts) { o.Status = status }
}

// WithTime sets the creation time
func WithTime(t time.Time) func(*ExpenseOpts) {
	return func(o *ExpenseOpts) { o.Time = t }
}

// WithID sets the record id
func WithID(id string) func(*ExpenseOpts) {
	return func(o *ExpenseOpts) { o.ID = id }
}

// Build returns an expense with defaults applied without storing it
func (f *Factory) Build(opts ...func(*ExpenseOpts)) *model.Expense {
	f.seq++
	o := &ExpenseOpts{
		ID:          fmt.Sprintf("exp_%04d_%s", f.seq, randomID()),
		Amount:      decimal.NewFromInt(int64(f.seq * 10)),
		Category:    "misc",
		Recipient:   fmt.Sprintf("recipient_%d", f.seq),
		Description: "fixture",
		Time:        f.base.Add(time.Duration(f.seq) * time.Minute),
	}
	for _, fn := range opts {
		fn(o)
	}

	return &model.Expense{
		ID:          o.ID,
		Amount:      o.Amount,
		Category:    o.Category,
		Recipient:   o.Recipient,
		Description: o.Description,
		Status:      o.Status,
		Time:        o.Time,
		UpdatedAt:   o.UpdatedAt,
	}
}

// CreateExpense stores an expense with optional customizations
func (f *Factory) CreateExpense(t *testing.T, opts ...func(*ExpenseOpts)) *model.Expense {
	t.Helper()

	e := f.Build(opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := f.repo.Create(ctx, e); err != nil {
		t.Fatalf("fixtures: failed to create expense: %v", err)
	}
	return e
}

// CreateInvoice stores an invoice for amount
func (f *Factory) CreateInvoice(t *testing.T, amount string) *model.Expense {
	t.Helper()
	return f.CreateExpense(t, WithCategory(model.CategoryInvoice), WithAmount(amount))
}

// CreatePayment stores a payment for amount
func (f *Factory) CreatePayment(t *testing.T, amount string) *model.Expense {
	t.Helper()
	return f.CreateExpense(t, WithCategory(model.CategoryPayment), WithAmount(amount))
}
