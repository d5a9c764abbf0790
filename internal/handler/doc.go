// Package handler provides HTTP request handlers for the expense API.
//
// # Handler Pattern
//
//   - Constructor function (NewXxxHandler) accepts its dependencies
//   - Methods handle specific HTTP endpoints and are registered on a
//     net/http ServeMux with method-qualified patterns
//   - Successful responses are the bare JSON record or array
//   - Errors are mapped to RFC 9457 Problem Details by MapServiceError
//
// # Example Usage
//
//	mux := http.NewServeMux()
//	handler.NewExpenseHandler(expenseService).RegisterRoutes(mux)
//	mux.HandleFunc("GET /health", handler.NewHealthHandler(repo).Health)
package handler
