// Package model defines the expense entity, request bodies and API errors.
//
// # Expense
//
// Expense is the stored record. Amount is a shopspring/decimal value that
// is written to JSON as a bare number:
//
//	{"id":"...","amount":12.5,"category":"invoice","recipient":"ACME",
//	 "description":"","time":"2024-01-01T09:00:00Z","status":false}
//
// updatedAt appears only after the first update.
//
// # Request Bodies
//
// CreateExpenseRequest and UpdateExpenseRequest decode through
// ExpenseFields, which type-checks the writable fields (amount, category,
// recipient, description, status) and drops everything else. Validate
// returns the FieldErrors for a body; create additionally requires every
// field except description.
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	type ProblemDetails struct {
//	    Type    string    `json:"type"`
//	    Title   string    `json:"title"`
//	    Status  int       `json:"status"`
//	    Detail  string    `json:"detail"`
//	}
package model
