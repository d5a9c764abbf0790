// Package service implements the business logic layer for the expense API.
//
// ExpenseService owns the expense rules: request validation, id and
// timestamp assignment, allow-list merging on update, search and filters,
// and the invoice/payment balance. It depends on an ExpenseRepository that
// it defines itself, so storage backends and test doubles plug in freely.
//
// # Construction
//
//	svc := service.NewExpenseService(service.ExpenseServiceConfig{
//	    Repo:  repo,
//	    Clock: service.SystemClock, // optional
//	    IDs:   service.NewUUID,     // optional
//	})
//
// # Error Handling
//
// Services return domain errors defined in errors.go:
//
//   - *ValidationError (matches ErrInvalidExpense) carries per-field problems
//   - *ExpenseNotFoundError (matches ErrExpenseNotFound) names the missing id
//
// Anything else is a storage failure and surfaces as an internal error.
package service
