package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Driver names a database/sql driver supported by OpenSQL.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

//go:embed migrations
var migrations embed.FS

// SQLConfig describes a database/sql connection.
type SQLConfig struct {
	Driver       Driver
	DSN          string
	MaxOpenConns int
}

// OpenSQL opens and pings a database/sql pool for the given driver.
// An in-memory SQLite database is pinned to a single connection, since every
// new connection would otherwise see its own empty database.
func OpenSQL(ctx context.Context, cfg SQLConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrConnection, cfg.Driver)
	}

	db, err := sql.Open(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	switch {
	case cfg.Driver == DriverSQLite && isMemoryDSN(cfg.DSN):
		db.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return db, nil
}

// Migrate applies all pending embedded migrations for the driver's dialect.
func Migrate(ctx context.Context, db *sql.DB, driver Driver) error {
	var dialect goose.Dialect
	switch driver {
	case DriverSQLite:
		dialect = goose.DialectSQLite3
	case DriverPostgres:
		dialect = goose.DialectPostgres
	default:
		return fmt.Errorf("%w: unsupported driver %q", ErrQuery, driver)
	}

	dir, err := fs.Sub(migrations, "migrations/"+string(driver))
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, db, dir)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Rebind rewrites ? placeholders into the driver's bind syntax.
func Rebind(driver Driver, query string) string {
	if driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// TranslateSQLError maps driver errors onto the package sentinels.
func TranslateSQLError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Message)
		}
		if pqErr.Code.Class() == "08" {
			return fmt.Errorf("%w: %s", ErrConnection, pqErr.Message)
		}
		return fmt.Errorf("%w: %s", ErrQuery, pqErr.Message)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %v", ErrDuplicate, liteErr)
		}
		return fmt.Errorf("%w: %v", ErrQuery, liteErr)
	}

	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return fmt.Errorf("%w: %v", ErrQuery, err)
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
