package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/forgo/expenses/internal/config"
	"github.com/forgo/expenses/internal/database"
	"github.com/forgo/expenses/internal/handler"
	"github.com/forgo/expenses/internal/middleware"
	"github.com/forgo/expenses/internal/repository"
	"github.com/forgo/expenses/internal/service"
)

func main() {
	// Initialize structured logging; the level is raised or lowered once
	// configuration is known.
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: &logLevel,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logLevel.Set(cfg.SlogLevel())
	if cfg.IsDevelopment() {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: &logLevel,
		})))
	}
	if cfg.IsProduction() && slices.Contains(cfg.Server.AllowedOrigins, "*") {
		slog.Warn("CORS allows any origin in production")
	}

	// Initialize storage
	ctx := context.Background()
	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store",
			slog.String("driver", cfg.Store.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Warn("failed to close store", slog.String("error", err.Error()))
		}
	}()

	slog.Info("store ready", slog.String("driver", cfg.Store.Driver))

	// Initialize services
	expenseService := service.NewExpenseService(service.ExpenseServiceConfig{
		Repo: repo,
	})

	// Initialize idempotency store
	var idempotencyStore *middleware.IdempotencyStore
	if cfg.Idempotency.Enabled {
		idempotencyStore = middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
			TTL: cfg.Idempotency.TTL,
		})
		defer idempotencyStore.Stop()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      newRouter(cfg, expenseService, repo, idempotencyStore),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		slog.Error("server error", slog.String("error", err.Error()))
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

// newRouter registers every route and wraps the mux in the global
// middleware chain. idempotency may be nil to disable key replay.
func newRouter(cfg *config.Config, expenses handler.ExpenseService, store handler.Pinger, idempotency *middleware.IdempotencyStore) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", handler.NewHealthHandler(store).Health)

	// Expense endpoints
	handler.NewExpenseHandler(expenses).RegisterRoutes(mux)

	chain := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Compress,
	}
	if idempotency != nil {
		chain = append(chain, middleware.Idempotency(idempotency))
	}

	return middleware.Chain(mux, chain...)
}

// openStore builds the repository selected by STORE_DRIVER. The returned
// func releases its connections.
func openStore(ctx context.Context, cfg *config.Config) (service.ExpenseRepository, func() error, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return repository.NewMemoryExpenseRepository(), func() error { return nil }, nil

	case config.StoreSQLite:
		return openSQLStore(ctx, database.DriverSQLite, cfg.Store.SQLitePath, cfg.Store.MaxOpenConns)

	case config.StorePostgres:
		return openSQLStore(ctx, database.DriverPostgres, cfg.Postgres.DSN(), cfg.Store.MaxOpenConns)

	case config.StoreSurrealDB:
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.Surreal.Host,
			Port:      cfg.Surreal.Port,
			User:      cfg.Surreal.User,
			Password:  cfg.Surreal.Password,
			Namespace: cfg.Surreal.Namespace,
			Database:  cfg.Surreal.Database,
		})
		if err := db.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return repository.NewSurrealExpenseRepository(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func openSQLStore(ctx context.Context, driver database.Driver, dsn string, maxOpenConns int) (service.ExpenseRepository, func() error, error) {
	db, err := database.OpenSQL(ctx, database.SQLConfig{
		Driver:       driver,
		DSN:          dsn,
		MaxOpenConns: maxOpenConns,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db, driver); err != nil {
		return nil, nil, errors.Join(err, db.Close())
	}
	return repository.NewSQLExpenseRepository(db, driver), db.Close, nil
}
