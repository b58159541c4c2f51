package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dejobratic/puravida/internal/catalog/adapters/memory"
	"github.com/dejobratic/puravida/internal/catalog/app"
	"github.com/dejobratic/puravida/internal/catalog/domain"
	"github.com/dejobratic/puravida/internal/catalog/ports"
	"github.com/dejobratic/puravida/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T, products ...domain.Product) *app.Service {
	t.Helper()
	svc := app.NewService(memory.NewRepository(), clock.NewFixed(testNow))
	for _, p := range products {
		_, err := svc.Add(context.Background(), p)
		require.NoError(t, err)
	}
	return svc
}

func codes(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Code
	}
	return out
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps and trims new products", func(t *testing.T) {
		svc := newService(t)

		p, err := svc.Add(ctx, domain.Product{Code: " P001 ", Name: " Café ", Price: 100, Stock: 10})
		require.NoError(t, err)

		assert.Equal(t, "P001", p.Code)
		assert.Equal(t, "Café", p.Name)
		assert.Equal(t, testNow, p.CreatedAt)
	})

	t.Run("rejects duplicate codes", func(t *testing.T) {
		svc := newService(t, domain.Product{Code: "P001", Name: "Café", Price: 100})

		_, err := svc.Add(ctx, domain.Product{Code: "P001", Name: "Otro", Price: 1})
		assert.ErrorIs(t, err, app.ErrDuplicateProduct)
	})

	tests := []struct {
		name    string
		product domain.Product
	}{
		{"missing code", domain.Product{Name: "Café", Price: 1}},
		{"missing name", domain.Product{Code: "P1", Price: 1}},
		{"zero price", domain.Product{Code: "P1", Name: "Café"}},
		{"negative stock", domain.Product{Code: "P1", Name: "Café", Price: 1, Stock: -1}},
		{"negative minimum", domain.Product{Code: "P1", Name: "Café", Price: 1, MinStock: -1}},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := newService(t).Add(ctx, tt.product)
			assert.ErrorIs(t, err, app.ErrInvalidProduct)
		})
	}
}

func TestService_UpdateKeepsCreationTime(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()

	_, err := app.NewService(repo, clock.NewFixed(testNow)).Add(ctx, domain.Product{Code: "P001", Name: "Café", Price: 100})
	require.NoError(t, err)

	later := testNow.Add(time.Hour)
	updated, err := app.NewService(repo, clock.NewFixed(later)).Update(ctx, domain.Product{Code: "P001", Name: "Café tostado", Price: 120})
	require.NoError(t, err)

	assert.Equal(t, testNow, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)

	_, err = app.NewService(repo, clock.NewFixed(later)).Update(ctx, domain.Product{Code: "NOPE", Name: "x", Price: 1})
	assert.ErrorIs(t, err, app.ErrProductNotFound)
}

func TestService_SearchAndSort(t *testing.T) {
	svc := newService(t,
		domain.Product{Code: "P003", Name: "Arroz", Price: 2, Stock: 50},
		domain.Product{Code: "P001", Name: "Café", Price: 100, Stock: 10},
		domain.Product{Code: "P002", Name: "Café molido", Price: 5, Stock: 1},
	)
	ctx := context.Background()

	found, err := svc.Search(ctx, "CAFÉ")
	require.NoError(t, err)
	assert.Equal(t, []string{"P001", "P002"}, codes(found))

	byPrice, err := svc.List(ctx, ports.ListFilter{Sort: ports.SortByPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"P003", "P002", "P001"}, codes(byPrice))

	byStock, err := svc.List(ctx, ports.ListFilter{Sort: ports.SortByStockDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"P003", "P001", "P002"}, codes(byStock))

	_, err = svc.List(ctx, ports.ListFilter{Sort: "name"})
	assert.ErrorIs(t, err, app.ErrInvalidProduct)
}

func TestService_Critical(t *testing.T) {
	svc := newService(t,
		domain.Product{Code: "P001", Name: "Café", Price: 100, Stock: 4},
		domain.Product{Code: "P002", Name: "Azúcar", Price: 1, Stock: 0},
		domain.Product{Code: "P003", Name: "Arroz", Price: 2, Stock: 5},
	)

	critical, err := svc.Critical(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"P002", "P001"}, codes(critical))

	critical, err = svc.Critical(context.Background(), 6)
	require.NoError(t, err)
	assert.Len(t, critical, 3)
}

func TestService_Delete(t *testing.T) {
	svc := newService(t, domain.Product{Code: "P001", Name: "Café", Price: 100})
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "P001"))

	_, err := svc.Get(ctx, "P001")
	assert.True(t, errors.Is(err, app.ErrProductNotFound))
	assert.ErrorIs(t, svc.Delete(ctx, "P001"), app.ErrProductNotFound)
}

func TestService_ImportCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("creates, updates and reports bad lines", func(t *testing.T) {
		svc := newService(t, domain.Product{Code: "P001", Name: "Café", Price: 90, Stock: 1})

		input := strings.Join([]string{
			"codigo,nombre,categoria,precio,stock_minimo,stock_actual",
			"P001,Café,Bebidas,100,2,10",
			"P002,Azúcar,Abarrotes,1.5,5,40",
			"P003,Arroz,Granos,abc,1,1",
			"P004,,Granos,2,1,1",
			"P005,Frijoles,Granos,3,1",
		}, "\n")

		report, err := svc.ImportCSV(ctx, strings.NewReader(input))
		require.NoError(t, err)

		assert.Equal(t, 1, report.Created)
		assert.Equal(t, 1, report.Updated)
		require.Len(t, report.Errors, 3)
		assert.True(t, strings.HasPrefix(report.Errors[0], "line 4:"), report.Errors[0])
		assert.True(t, strings.HasPrefix(report.Errors[1], "line 5:"), report.Errors[1])
		assert.True(t, strings.HasPrefix(report.Errors[2], "line 6:"), report.Errors[2])

		updated, err := svc.Get(ctx, "P001")
		require.NoError(t, err)
		assert.Equal(t, 100.0, updated.Price)
		assert.Equal(t, 10, updated.Stock)
		assert.Equal(t, "Bebidas", updated.Category)
	})

	t.Run("rejects a wrong header", func(t *testing.T) {
		_, err := newService(t).ImportCSV(ctx, strings.NewReader("code,name\nP1,x\n"))
		assert.ErrorIs(t, err, app.ErrInvalidProduct)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := newService(t).ImportCSV(ctx, strings.NewReader(""))
		assert.ErrorIs(t, err, app.ErrInvalidProduct)
	})
}
