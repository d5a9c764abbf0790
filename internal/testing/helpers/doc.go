// Package helpers provides HTTP test utilities for the expense API.
//
// # Request Builder
//
//	rr := helpers.NewRequest(t, http.MethodPost, "/expenses").
//	    WithBody(map[string]any{"category": "invoice", "amount": 10}).
//	    WithHeader("Idempotency-Key", "k1").
//	    Do(router)
//
// # Assertion Helpers
//
//	helpers.AssertStatus(t, rr, http.StatusOK)
//	helpers.AssertProblemDetails(t, rr, http.StatusNotFound, model.ErrCodeNotFound)
//	helpers.AssertValidationError(t, rr, "amount")
//	expenses := helpers.DecodeExpenses(t, rr)
package helpers
