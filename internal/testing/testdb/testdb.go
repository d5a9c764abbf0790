package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/forgo/expenses/internal/database"
	"github.com/forgo/expenses/internal/repository"
	"github.com/forgo/expenses/internal/service"
)

// Environment variables enabling the server-backed stores
const (
	EnvPostgresDSN = "TEST_PG_DSN"
	EnvSurrealHost = "TEST_SURREAL_HOST"
)

// Backend names one storage implementation and how to build a fresh instance.
type Backend struct {
	Name string
	New  func(t *testing.T) service.ExpenseRepository
}

var (
	// counterMu protects the namespace counter
	counterMu sync.Mutex
	counter   int64
)

// Backends lists every storage backend. Server-backed entries skip the
// calling test when they are not configured.
func Backends(t *testing.T) []Backend {
	t.Helper()
	return []Backend{
		{Name: "memory", New: func(t *testing.T) service.ExpenseRepository {
			return repository.NewMemoryExpenseRepository()
		}},
		{Name: "sqlite", New: func(t *testing.T) service.ExpenseRepository {
			return repository.NewSQLExpenseRepository(NewSQLite(t), database.DriverSQLite)
		}},
		{Name: "postgres", New: func(t *testing.T) service.ExpenseRepository {
			return repository.NewSQLExpenseRepository(NewPostgres(t), database.DriverPostgres)
		}},
		{Name: "surrealdb", New: func(t *testing.T) service.ExpenseRepository {
			return repository.NewSurrealExpenseRepository(NewSurreal(t))
		}},
	}
}

// Ctx returns a context with a reasonable timeout for test operations.
func Ctx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// NewSQLite opens a migrated in-memory SQLite database closed at test end.
func NewSQLite(t *testing.T) *sql.DB {
	t.Helper()

	ctx := Ctx(t)
	db, err := database.OpenSQL(ctx, database.SQLConfig{Driver: database.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("testdb: failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(ctx, db, database.DriverSQLite); err != nil {
		t.Fatalf("testdb: sqlite migration failed: %v", err)
	}
	return db
}

// NewPostgres opens the database named by TEST_PG_DSN, migrates it and
// empties the expenses table. Skips when TEST_PG_DSN is unset.
func NewPostgres(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv(EnvPostgresDSN)
	if dsn == "" {
		t.Skipf("testdb: %s not set", EnvPostgresDSN)
	}

	ctx := Ctx(t)
	db, err := database.OpenSQL(ctx, database.SQLConfig{Driver: database.DriverPostgres, DSN: dsn, MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("testdb: failed to open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(ctx, db, database.DriverPostgres); err != nil {
		t.Fatalf("testdb: postgres migration failed: %v", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM expenses"); err != nil {
		t.Fatalf("testdb: failed to reset expenses: %v", err)
	}
	return db
}

// NewSurreal connects to the SurrealDB server at TEST_SURREAL_HOST using a
// unique namespace that is removed at test end. Skips when the host is unset.
func NewSurreal(t *testing.T) database.Database {
	t.Helper()

	host := os.Getenv(EnvSurrealHost)
	if host == "" {
		t.Skipf("testdb: %s not set", EnvSurrealHost)
	}

	cfg := database.Config{
		Host:      host,
		Port:      getEnv("TEST_SURREAL_PORT", "8000"),
		User:      getEnv("TEST_SURREAL_USER", "root"),
		Password:  getEnv("TEST_SURREAL_PASSWORD", "root"),
		Namespace: uniqueNamespace(),
		Database:  "test",
	}

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(Ctx(t)); err != nil {
		t.Fatalf("testdb: failed to connect to surrealdb: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Execute(ctx, fmt.Sprintf("REMOVE NAMESPACE %s", cfg.Namespace), nil)
		_ = db.Close()
	})
	return db
}

// uniqueNamespace generates a unique namespace for test isolation
func uniqueNamespace() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
