// Package middleware provides HTTP middleware for the expense API.
//
// # Available Middleware
//
//   - RequestID: assigns or propagates X-Request-ID
//   - Logger: one structured slog line per request
//   - Recovery: turns panics into a 500 problem response
//   - CORS: origin allow-list and preflight handling
//   - Compress: gzip for clients that accept it
//   - Idempotency: replays POST responses for a repeated Idempotency-Key
//
// Compose them with Chain; the first middleware listed runs outermost:
//
//	h := middleware.Chain(mux,
//	    middleware.RequestID,
//	    middleware.Logger,
//	    middleware.Recovery,
//	)
//
// # Idempotency
//
// A POST carrying Idempotency-Key is fingerprinted with BLAKE2b over the
// client host, the key, the method, the path and the body. A retry with
// the same fingerprint within the TTL receives the stored response with
// X-Idempotency-Replayed: true. Concurrent retries wait for the first
// request to finish. 5xx responses are not stored.
//
// # Context Values
//
//   - GetRequestID(ctx): the request identifier set by RequestID
package middleware
