package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/forgo/expenses/internal/database"
	"github.com/forgo/expenses/internal/model"
	"github.com/forgo/expenses/internal/repository"
	"github.com/shopspring/decimal"
)

// ============================================================================
// Mock Repository
// ============================================================================

type mockExpenseRepo struct {
	createFunc  func(ctx context.Context, e *model.Expense) error
	getByIDFunc func(ctx context.Context, id string) (*model.Expense, error)
	updateFunc  func(ctx context.Context, e *model.Expense) error
	deleteFunc  func(ctx context.Context, id string) (*model.Expense, error)
	listFunc    func(ctx context.Context) ([]*model.Expense, error)
	pingFunc    func(ctx context.Context) error
}

func (m *mockExpenseRepo) Create(ctx context.Context, e *model.Expense) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, e)
	}
	return nil
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, id string) (*model.Expense, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockExpenseRepo) Update(ctx context.Context, e *model.Expense) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, e)
	}
	return nil
}

func (m *mockExpenseRepo) Delete(ctx context.Context, id string) (*model.Expense, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockExpenseRepo) List(ctx context.Context) ([]*model.Expense, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []*model.Expense{}, nil
}

func (m *mockExpenseRepo) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 123456789, time.UTC)

func fixedClock() time.Time { return fixedNow }

func sequentialIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestService(repo ExpenseRepository) *ExpenseService {
	return NewExpenseService(ExpenseServiceConfig{
		Repo:  repo,
		Clock: fixedClock,
		IDs:   sequentialIDs(),
	})
}

func createReq(t *testing.T, body string) *model.CreateExpenseRequest {
	t.Helper()
	var req model.CreateExpenseRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal create body: %v", err)
	}
	return &req
}

func updateReq(t *testing.T, body string) *model.UpdateExpenseRequest {
	t.Helper()
	var req model.UpdateExpenseRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal update body: %v", err)
	}
	return &req
}

func mustCreate(t *testing.T, svc *ExpenseService, body string) *model.Expense {
	t.Helper()
	e, err := svc.Create(context.Background(), createReq(t, body))
	if err != nil {
		t.Fatalf("Create(%s): %v", body, err)
	}
	return e
}

func ids(expenses []*model.Expense) []string {
	out := make([]string, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, e.ID)
	}
	return out
}

// ============================================================================
// Create Tests
// ============================================================================

func TestExpenseService_Create_AssignsIDAndTime(t *testing.T) {
	t.Parallel()

	var stored *model.Expense
	repo := &mockExpenseRepo{
		createFunc: func(_ context.Context, e *model.Expense) error {
			stored = e
			return nil
		},
	}
	svc := newTestService(repo)

	e, err := svc.Create(context.Background(), createReq(t,
		`{"id":"client","time":"1999-01-01T00:00:00Z","category":"invoice","recipient":"ACME","amount":100,"status":false}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if e.ID != "id-001" {
		t.Errorf("expected generated id, got %q", e.ID)
	}
	if want := fixedNow.Truncate(time.Millisecond); !e.Time.Equal(want) {
		t.Errorf("expected time %v, got %v", want, e.Time)
	}
	if e.UpdatedAt != nil {
		t.Error("expected no updatedAt on create")
	}
	if stored != e {
		t.Error("expected the created record to be persisted")
	}
}

func TestExpenseService_Create_ValidationError_StoresNothing(t *testing.T) {
	t.Parallel()

	called := false
	repo := &mockExpenseRepo{
		createFunc: func(context.Context, *model.Expense) error {
			called = true
			return nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), createReq(t, `{"category":"invoice","recipient":"ACME","amount":"100","status":false}`))

	if !errors.Is(err, ErrInvalidExpense) {
		t.Fatalf("expected ErrInvalidExpense, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Errors) != 1 || ve.Errors[0].Field != "amount" {
		t.Errorf("expected single amount field error, got %v", err)
	}
	if called {
		t.Error("repository should not be called for invalid input")
	}
}

func TestExpenseService_Create_RepositoryError(t *testing.T) {
	t.Parallel()

	repo := &mockExpenseRepo{
		createFunc: func(context.Context, *model.Expense) error {
			return database.ErrConnection
		},
	}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), createReq(t, `{"category":"a","recipient":"b","amount":1,"status":true}`))
	if !errors.Is(err, database.ErrConnection) {
		t.Errorf("expected wrapped ErrConnection, got %v", err)
	}
}

func TestExpenseService_Create_UniqueIDs(t *testing.T) {
	t.Parallel()

	svc := NewExpenseService(ExpenseServiceConfig{Repo: repository.NewMemoryExpenseRepository()})

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		e := mustCreate(t, svc, `{"category":"a","recipient":"b","amount":1,"status":true}`)
		if e.ID == "" || seen[e.ID] {
			t.Fatalf("id %q empty or reused", e.ID)
		}
		seen[e.ID] = true
	}
}

// ============================================================================
// Get Tests
// ============================================================================

func TestExpenseService_Get_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService(repository.NewMemoryExpenseRepository())
	created := mustCreate(t, svc, `{"category":"invoice","recipient":"ACME","amount":12.34,"description":"March","status":true}`)

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.ID != created.ID || got.Category != "invoice" || got.Recipient != "ACME" ||
		got.Description != "March" || !got.Status || !got.Amount.Equal(decimal.RequireFromString("12.34")) ||
		!got.Time.Equal(created.Time) {
		t.Errorf("round trip mismatch: created %+v, got %+v", created, got)
	}
}

func TestExpenseService_Get_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockExpenseRepo{})

	_, err := svc.Get(context.Background(), "nope")

	if !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}
	if err.Error() != "Expense with id=nope not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

// ============================================================================
// Update Tests
// ============================================================================

func TestExpenseService_Update_MergesSuppliedFields(t *testing.T) {
	t.Parallel()

	clock := fixedNow
	svc := NewExpenseService(ExpenseServiceConfig{
		Repo:  repository.NewMemoryExpenseRepository(),
		Clock: func() time.Time { return clock },
		IDs:   sequentialIDs(),
	})
	created := mustCreate(t, svc, `{"category":"payment","recipient":"Landlord","amount":900,"description":"rent","status":false}`)

	clock = fixedNow.Add(time.Hour)
	updated, err := svc.Update(context.Background(), created.ID,
		updateReq(t, `{"status":true,"id":"hijack","time":"2000-01-01T00:00:00Z"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !updated.Status {
		t.Error("expected status to be updated")
	}
	if updated.ID != created.ID {
		t.Errorf("id changed to %q", updated.ID)
	}
	if !updated.Time.Equal(created.Time) {
		t.Errorf("time changed from %v to %v", created.Time, updated.Time)
	}
	if updated.Category != "payment" || updated.Recipient != "Landlord" || updated.Description != "rent" ||
		!updated.Amount.Equal(decimal.NewFromInt(900)) {
		t.Errorf("unsupplied fields changed: %+v", updated)
	}
	if updated.UpdatedAt == nil || !updated.UpdatedAt.Equal(clock.Truncate(time.Millisecond)) {
		t.Errorf("expected updatedAt %v, got %v", clock, updated.UpdatedAt)
	}

	stored, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored.Status || stored.UpdatedAt == nil {
		t.Errorf("update not persisted: %+v", stored)
	}
}

func TestExpenseService_Update_NotFound(t *testing.T) {
	t.Parallel()

	updateCalled := false
	repo := &mockExpenseRepo{
		updateFunc: func(context.Context, *model.Expense) error {
			updateCalled = true
			return nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), "missing", updateReq(t, `{"status":true}`))

	if !errors.Is(err, ErrExpenseNotFound) {
		t.Errorf("expected ErrExpenseNotFound, got %v", err)
	}
	if updateCalled {
		t.Error("repository update should not be called")
	}
}

func TestExpenseService_Update_DeletedConcurrently(t *testing.T) {
	t.Parallel()

	repo := &mockExpenseRepo{
		getByIDFunc: func(_ context.Context, id string) (*model.Expense, error) {
			return &model.Expense{ID: id}, nil
		},
		updateFunc: func(context.Context, *model.Expense) error {
			return fmt.Errorf("%w: gone", database.ErrNotFound)
		},
	}
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), "x", updateReq(t, `{"amount":1}`))
	if !errors.Is(err, ErrExpenseNotFound) {
		t.Errorf("expected ErrExpenseNotFound, got %v", err)
	}
}

func TestExpenseService_Update_ValidationError(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockExpenseRepo{
		getByIDFunc: func(context.Context, string) (*model.Expense, error) {
			t.Error("repository should not be consulted for invalid input")
			return nil, nil
		},
	})

	_, err := svc.Update(context.Background(), "x", updateReq(t, `{"status":"yes"}`))
	if !errors.Is(err, ErrInvalidExpense) {
		t.Errorf("expected ErrInvalidExpense, got %v", err)
	}
}

// ============================================================================
// Delete Tests
// ============================================================================

func TestExpenseService_Delete_ThenGetNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(repository.NewMemoryExpenseRepository())
	created := mustCreate(t, svc, `{"category":"a","recipient":"b","amount":1,"status":true}`)

	deleted, err := svc.Delete(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted.ID != created.ID {
		t.Errorf("expected deleted record %q, got %q", created.ID, deleted.ID)
	}

	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, ErrExpenseNotFound) {
		t.Errorf("expected ErrExpenseNotFound after delete, got %v", err)
	}
	if _, err := svc.Delete(context.Background(), created.ID); !errors.Is(err, ErrExpenseNotFound) {
		t.Errorf("expected ErrExpenseNotFound on second delete, got %v", err)
	}
}

// ============================================================================
// Balance Tests
// ============================================================================

func TestExpenseService_Balance(t *testing.T) {
	t.Parallel()

	repo := &mockExpenseRepo{
		listFunc: func(context.Context) ([]*model.Expense, error) {
			return []*model.Expense{
				{ID: "1", Category: "invoice", Amount: decimal.NewFromInt(100)},
				{ID: "2", Category: "payment", Amount: decimal.NewFromInt(40)},
				{ID: "3", Category: "misc", Amount: decimal.NewFromInt(999)},
				{ID: "4", Category: "Invoice", Amount: decimal.NewFromInt(5)},
			}, nil
		},
	}
	svc := newTestService(repo)

	b, err := svc.Balance(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.TotalBalance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected balance 60, got %s", b.TotalBalance)
	}
}

func TestExpenseService_Balance_ExactDecimals(t *testing.T) {
	t.Parallel()

	repo := &mockExpenseRepo{
		listFunc: func(context.Context) ([]*model.Expense, error) {
			return []*model.Expense{
				{ID: "1", Category: "invoice", Amount: decimal.RequireFromString("0.1")},
				{ID: "2", Category: "invoice", Amount: decimal.RequireFromString("0.2")},
			}, nil
		},
	}
	svc := newTestService(repo)

	b, err := svc.Balance(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.TotalBalance.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("expected exactly 0.3, got %s", b.TotalBalance)
	}
}

func TestExpenseService_Balance_Empty(t *testing.T) {
	t.Parallel()

	b, err := newTestService(&mockExpenseRepo{}).Balance(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.TotalBalance.IsZero() {
		t.Errorf("expected zero balance, got %s", b.TotalBalance)
	}
}

// ============================================================================
// List / Filter Tests
// ============================================================================

func seededService(t *testing.T) *ExpenseService {
	t.Helper()
	svc := newTestService(repository.NewMemoryExpenseRepository())
	mustCreate(t, svc, `{"category":"Rent","recipient":"Landlord","amount":900,"status":true}`)
	mustCreate(t, svc, `{"category":"food","recipient":"Parent Co","amount":20,"status":false}`)
	mustCreate(t, svc, `{"category":"invoice","recipient":"Bob","amount":50,"status":true}`)
	return svc
}

func TestExpenseService_List_All(t *testing.T) {
	t.Parallel()

	got, err := seededService(t).List(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(ids(got)) != "[id-001 id-002 id-003]" {
		t.Errorf("expected all records in id order, got %v", ids(got))
	}
}

func TestExpenseService_List_Search(t *testing.T) {
	t.Parallel()

	got, err := seededService(t).List(context.Background(), "rent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "Rent" category and "Parent Co" recipient both contain "rent".
	if fmt.Sprint(ids(got)) != "[id-001 id-002]" {
		t.Errorf("unexpected search result %v", ids(got))
	}
}

func TestExpenseService_List_EmptyStoreIsEmptySlice(t *testing.T) {
	t.Parallel()

	got, err := newTestService(repository.NewMemoryExpenseRepository()).List(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestExpenseService_ListByStatus(t *testing.T) {
	t.Parallel()

	svc := seededService(t)

	done, err := svc.ListByStatus(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(ids(done)) != "[id-001 id-003]" {
		t.Errorf("unexpected status=true result %v", ids(done))
	}

	open, err := svc.ListByStatus(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(ids(open)) != "[id-002]" {
		t.Errorf("unexpected status=false result %v", ids(open))
	}
}

func TestExpenseService_ListByDateRange(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC) }
	repo := &mockExpenseRepo{
		listFunc: func(context.Context) ([]*model.Expense, error) {
			return []*model.Expense{
				{ID: "a", Time: day(1)},
				{ID: "b", Time: day(10)},
				{ID: "c", Time: day(20)},
			}, nil
		},
	}
	svc := newTestService(repo)

	tests := []struct {
		name       string
		start, end time.Time
		want       string
	}{
		{"inclusive bounds", day(1), day(10), "[a b]"},
		{"middle", day(5), day(15), "[b]"},
		{"everything", day(1), day(31), "[a b c]"},
		{"inverted", day(20), day(1), "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListByDateRange(context.Background(), tt.start, tt.end)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fmt.Sprint(ids(got)) != tt.want {
				t.Errorf("expected %s, got %v", tt.want, ids(got))
			}
		})
	}
}

func TestExpenseService_List_RepositoryError(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockExpenseRepo{
		listFunc: func(context.Context) ([]*model.Expense, error) {
			return nil, database.ErrQuery
		},
	})

	if _, err := svc.List(context.Background(), ""); !errors.Is(err, database.ErrQuery) {
		t.Errorf("expected ErrQuery, got %v", err)
	}
	if _, err := svc.Balance(context.Background()); !errors.Is(err, database.ErrQuery) {
		t.Errorf("expected ErrQuery from Balance, got %v", err)
	}
}

// ============================================================================
// Defaults
// ============================================================================

func TestNewExpenseService_Defaults(t *testing.T) {
	t.Parallel()

	svc := NewExpenseService(ExpenseServiceConfig{Repo: &mockExpenseRepo{}})

	e, err := svc.Create(context.Background(), createReq(t, `{"category":"a","recipient":"b","amount":1,"status":true}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.ID) != 36 {
		t.Errorf("expected uuid id, got %q", e.ID)
	}
	if e.Time.Location() != time.UTC || e.Time.Nanosecond()%int(time.Millisecond) != 0 {
		t.Errorf("expected UTC millisecond time, got %v", e.Time)
	}
}
