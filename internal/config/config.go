package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORE_DRIVER
const (
	StoreMemory    = "memory"
	StoreSQLite    = "sqlite"
	StorePostgres  = "postgres"
	StoreSurrealDB = "surrealdb"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Store       StoreConfig
	Postgres    PostgresConfig
	Surreal     SurrealConfig
	Idempotency IdempotencyConfig
	LogLevel    string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// StoreConfig selects the expense storage backend
type StoreConfig struct {
	Driver       string
	SQLitePath   string
	MaxOpenConns int
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// SurrealConfig holds SurrealDB connection settings
type SurrealConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// IdempotencyConfig holds the Idempotency-Key replay window
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Variables from ENV_FILE (default .env) are applied first when the file exists;
// values already present in the environment win.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Store: StoreConfig{
			Driver:       strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
			SQLitePath:   getEnv("SQLITE_PATH", "expenses.db"),
			MaxOpenConns: getIntEnv("SQL_MAX_OPEN_CONNS", 10),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			User:     getEnv("PG_USER", "postgres"),
			Password: getEnv("PG_PASSWORD", "postgres"),
			Database: getEnv("PG_DATABASE", "expenses"),
			SSLMode:  getEnv("PG_SSLMODE", "disable"),
		},
		Surreal: SurrealConfig{
			Host:      getEnv("SURREAL_HOST", "localhost"),
			Port:      getEnv("SURREAL_PORT", "8000"),
			Namespace: getEnv("SURREAL_NAMESPACE", "expenses"),
			Database:  getEnv("SURREAL_DATABASE", "main"),
			User:      getEnv("SURREAL_USER", "root"),
			Password:  getEnv("SURREAL_PASSWORD", "root"),
		},
		Idempotency: IdempotencyConfig{
			Enabled: getBoolEnv("IDEMPOTENCY_ENABLED", true),
			TTL:     getDurationEnv("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// SlogLevel converts LOG_LEVEL to a slog.Level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DSN renders a postgres:// URL for lib/pq. Credentials and the database
// name are escaped, so they may contain spaces or quotes.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return u.String()
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got '%s'", c.LogLevel))
	}

	if c.Idempotency.Enabled && c.Idempotency.TTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}

	// Store validation
	if c.Store.MaxOpenConns <= 0 {
		errs = append(errs, errors.New("SQL_MAX_OPEN_CONNS must be positive"))
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when STORE_DRIVER is sqlite"))
		}
	case StorePostgres:
		if err := c.Postgres.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	case StoreSurrealDB:
		if err := c.Surreal.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("surrealdb: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of memory, sqlite, postgres, surrealdb, got '%s'", c.Store.Driver))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks that all required PostgreSQL fields are present
func (p PostgresConfig) Validate() error {
	var missing []string
	if p.Host == "" {
		missing = append(missing, "PG_HOST")
	}
	if p.Port == "" {
		missing = append(missing, "PG_PORT")
	}
	if p.User == "" {
		missing = append(missing, "PG_USER")
	}
	if p.Database == "" {
		missing = append(missing, "PG_DATABASE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks that all required SurrealDB fields are present
func (s SurrealConfig) Validate() error {
	var missing []string
	if s.Host == "" {
		missing = append(missing, "SURREAL_HOST")
	}
	if s.Port == "" {
		missing = append(missing, "SURREAL_PORT")
	}
	if s.Namespace == "" {
		missing = append(missing, "SURREAL_NAMESPACE")
	}
	if s.Database == "" {
		missing = append(missing, "SURREAL_DATABASE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
