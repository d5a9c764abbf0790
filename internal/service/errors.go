package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/forgo/expenses/internal/model"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Expense Errors =====
var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrInvalidExpense  = errors.New("invalid expense")
)

// ExpenseNotFoundError reports a missing expense id. It matches
// ErrExpenseNotFound under errors.Is.
type ExpenseNotFoundError struct {
	ID string
}

func (e *ExpenseNotFoundError) Error() string {
	return fmt.Sprintf("Expense with id=%s not found", e.ID)
}

func (e *ExpenseNotFoundError) Is(target error) bool {
	return target == ErrExpenseNotFound
}

// ValidationError carries the field errors of a rejected request body. It
// matches ErrInvalidExpense under errors.Is.
type ValidationError struct {
	Errors []model.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return "invalid expense: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidExpense
}
