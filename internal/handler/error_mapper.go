package handler

import (
	"errors"

	"github.com/forgo/expenses/internal/database"
	"github.com/forgo/expenses/internal/model"
	"github.com/forgo/expenses/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Anything the service layer does not name maps to an opaque 500.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var validation *service.ValidationError
	var notFound *service.ExpenseNotFoundError

	switch {
	// ===== Validation Errors → 400 =====
	case errors.As(err, &validation):
		return model.NewValidationError(validation.Errors)
	case errors.Is(err, service.ErrInvalidExpense):
		return model.NewValidationError(nil)

	// ===== Not Found Errors → 404 =====
	case errors.As(err, &notFound):
		return model.NewNotFoundError("Expense with id=" + notFound.ID)
	case errors.Is(err, service.ErrExpenseNotFound):
		return model.NewNotFoundError("Expense")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, database.ErrDuplicate):
		return model.NewConflictError("Expense already exists")

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
