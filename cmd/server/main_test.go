package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/forgo/expenses/internal/config"
	"github.com/forgo/expenses/internal/middleware"
	"github.com/forgo/expenses/internal/model"
	"github.com/forgo/expenses/internal/service"
	"github.com/forgo/expenses/internal/testing/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"https://app.example.com"}},
		Store: config.StoreConfig{
			Driver:       driver,
			SQLitePath:   ":memory:",
			MaxOpenConns: 1,
		},
	}
}

func newTestRouter(t *testing.T, driver string, withIdempotency bool) http.Handler {
	t.Helper()
	cfg := testConfig(driver)

	repo, closeStore, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeStore() })

	var store *middleware.IdempotencyStore
	if withIdempotency {
		store = middleware.NewIdempotencyStore(middleware.IdempotencyConfig{TTL: time.Hour})
		t.Cleanup(store.Stop)
	}

	svc := service.NewExpenseService(service.ExpenseServiceConfig{Repo: repo})
	return newRouter(cfg, svc, repo, store)
}

var invoice = map[string]interface{}{
	"category":    "invoice",
	"recipient":   "ACME",
	"amount":      100,
	"description": "consulting",
	"status":      false,
}

func TestOpenStore_UnsupportedDriver(t *testing.T) {
	_, _, err := openStore(context.Background(), testConfig("dynamo"))
	assert.Error(t, err)
}

func TestRouter_EndToEnd(t *testing.T) {
	for _, driver := range []string{config.StoreMemory, config.StoreSQLite} {
		t.Run(driver, func(t *testing.T) {
			router := newTestRouter(t, driver, false)

			rr := helpers.NewRequest(t, http.MethodPost, "/expenses").WithBody(invoice).Do(router)
			helpers.AssertStatus(t, rr, http.StatusOK)
			var created model.Expense
			helpers.DecodeResponse(t, rr, &created)
			require.NotEmpty(t, created.ID)

			payment := map[string]interface{}{"category": "payment", "recipient": "Rent Co", "amount": 40, "status": true}
			helpers.AssertStatus(t, helpers.NewRequest(t, http.MethodPost, "/expenses").WithBody(payment).Do(router), http.StatusOK)

			rr = helpers.NewRequest(t, http.MethodGet, "/balance").Do(router)
			helpers.AssertStatus(t, rr, http.StatusOK)
			assert.JSONEq(t, `{"totalBalance":60}`, rr.Body.String())

			rr = helpers.NewRequest(t, http.MethodGet, "/expenses/status/true").Do(router)
			helpers.AssertStatus(t, rr, http.StatusOK)
			assert.Len(t, helpers.DecodeExpenses(t, rr), 1)

			rr = helpers.NewRequest(t, http.MethodGet, "/expenses?search=RENT").Do(router)
			assert.Len(t, helpers.DecodeExpenses(t, rr), 1)

			start := created.Time.Add(-time.Minute).Format(time.RFC3339)
			end := created.Time.Add(time.Hour).Format(time.RFC3339)
			rr = helpers.NewRequest(t, http.MethodGet, "/expenses/date-range?start="+start+"&end="+end).Do(router)
			helpers.AssertStatus(t, rr, http.StatusOK)
			assert.Len(t, helpers.DecodeExpenses(t, rr), 2)

			rr = helpers.NewRequest(t, http.MethodPut, "/expenses/"+created.ID).
				WithBody(map[string]interface{}{"amount": 150.25}).
				Do(router)
			helpers.AssertStatus(t, rr, http.StatusOK)
			helpers.AssertJSONContains(t, rr, map[string]interface{}{"amount": 150.25, "recipient": "ACME"})

			rr = helpers.NewRequest(t, http.MethodDelete, "/expenses/"+created.ID).Do(router)
			helpers.AssertStatus(t, rr, http.StatusOK)

			rr = helpers.NewRequest(t, http.MethodGet, "/expenses/"+created.ID).Do(router)
			helpers.AssertProblemDetails(t, rr, http.StatusNotFound, model.ErrCodeNotFound)

			rr = helpers.NewRequest(t, http.MethodGet, "/health").Do(router)
			helpers.AssertStatus(t, rr, http.StatusOK)
		})
	}
}

func TestRouter_IdempotentCreate(t *testing.T) {
	router := newTestRouter(t, config.StoreMemory, true)

	first := helpers.NewRequest(t, http.MethodPost, "/expenses").
		WithBody(invoice).
		WithHeader("Idempotency-Key", "order-42").
		Do(router)
	second := helpers.NewRequest(t, http.MethodPost, "/expenses").
		WithBody(invoice).
		WithHeader("Idempotency-Key", "order-42").
		Do(router)

	helpers.AssertStatus(t, first, http.StatusOK)
	helpers.AssertStatus(t, second, http.StatusOK)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(middleware.ReplayedHeader))
	assert.NotEmpty(t, second.Header().Get("X-Request-ID"))

	rr := helpers.NewRequest(t, http.MethodGet, "/expenses").Do(router)
	assert.Len(t, helpers.DecodeExpenses(t, rr), 1)
}

func TestRouter_GlobalMiddleware(t *testing.T) {
	router := newTestRouter(t, config.StoreMemory, true)

	rr := helpers.NewRequest(t, http.MethodGet, "/expenses").
		WithHeader("Origin", "https://app.example.com").
		WithHeader("X-Request-ID", "trace-1").
		Do(router)

	helpers.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "trace-1", rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, config.StoreMemory, false)

	rr := helpers.NewRequest(t, http.MethodPatch, "/expenses/abc").Do(router)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
