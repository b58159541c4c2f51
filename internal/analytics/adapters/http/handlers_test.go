package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dejobratic/puravida/internal/analytics"
	analyticshttp "github.com/dejobratic/puravida/internal/analytics/adapters/http"
	catalogmemory "github.com/dejobratic/puravida/internal/catalog/adapters/memory"
	catalog "github.com/dejobratic/puravida/internal/catalog/domain"
	"github.com/dejobratic/puravida/internal/clock"
	customermemory "github.com/dejobratic/puravida/internal/customers/adapters/memory"
	customers "github.com/dejobratic/puravida/internal/customers/domain"
	ordermemory "github.com/dejobratic/puravida/internal/orders/adapters/memory"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()

	products := catalogmemory.NewRepository()
	require.NoError(t, products.Create(ctx, catalog.Product{Code: "P001", Name: "Café", Price: 10, Stock: 2}))

	people := customermemory.NewRepository()
	require.NoError(t, people.Create(ctx, customers.Customer{ID: "1", Name: "Ana"}))

	orders := ordermemory.NewRepository()

	r := chi.NewRouter()
	analyticshttp.NewHandler(
		analytics.NewDashboard(products, people, orders, 0, 0),
		analytics.NewLoyaltyTask(people, orders, clock.NewSystem(), analytics.LoyaltyOptions{}),
	).Register(r)
	return r
}

func TestDashboardEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analytics/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "• Café (P001): 2")
}

func TestLoyaltyEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/analytics/loyalty", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var result analytics.LoyaltyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Customers, 1)
	assert.Equal(t, analytics.TierRegular, result.Customers[0].Tier)
}
