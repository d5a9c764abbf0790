// Package config manages application configuration for the expense API.
//
// Configuration comes from environment variables. If the file named by
// ENV_FILE (default .env) exists it is loaded first with godotenv; variables
// already set in the process environment take precedence.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: port, environment, timeouts, CORS origins
//   - StoreConfig: STORE_DRIVER (memory, sqlite, postgres, surrealdb)
//   - PostgresConfig: PG_* connection parts, rendered by DSN()
//   - SurrealConfig: SURREAL_* connection settings
//   - IdempotencyConfig: Idempotency-Key replay window
//
// Validate reports every problem at once through errors.Join. Backend
// settings are only checked for the selected driver.
package config
