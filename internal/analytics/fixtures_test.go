package analytics_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	catalogmemory "github.com/dejobratic/puravida/internal/catalog/adapters/memory"
	catalog "github.com/dejobratic/puravida/internal/catalog/domain"
	customermemory "github.com/dejobratic/puravida/internal/customers/adapters/memory"
	customers "github.com/dejobratic/puravida/internal/customers/domain"
	ordermemory "github.com/dejobratic/puravida/internal/orders/adapters/memory"
	orders "github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/payment"
	"github.com/stretchr/testify/require"
)

var (
	cafe   = catalog.Product{Code: "P001", Name: "Café", Price: 10, Stock: 40}
	azucar = catalog.Product{Code: "P002", Name: "Azúcar", Price: 2, Stock: 3}
	arroz  = catalog.Product{Code: "P003", Name: "Arroz", Price: 1, Stock: 0}
)

type fixture struct {
	products  *catalogmemory.Repository
	customers *customermemory.Repository
	orders    *ordermemory.Repository
	seq       int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		products:  catalogmemory.NewRepository(),
		customers: customermemory.NewRepository(),
		orders:    ordermemory.NewRepository(),
	}
	ctx := context.Background()
	for _, p := range []catalog.Product{cafe, azucar, arroz} {
		require.NoError(t, f.products.Create(ctx, p))
	}
	return f
}

func (f *fixture) customer(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, f.customers.Create(context.Background(), customers.Customer{ID: id, Name: name}))
}

// order stores an order for customer holding one line per product.
func (f *fixture) order(t *testing.T, customerID, customerName string, invoiced bool, lines map[catalog.Product]int) {
	t.Helper()
	f.seq++
	created := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Minute)

	order, err := orders.NewOrder(
		fmt.Sprintf("ORD-%03d", f.seq),
		orders.CustomerRef{ID: customerID, Name: customerName},
		payment.Cash{},
		created,
	)
	require.NoError(t, err)
	for product, qty := range lines {
		require.NoError(t, order.AddItem(product, qty))
	}
	if invoiced {
		require.NoError(t, order.ProcessPayment())
		require.NoError(t, order.MarkInvoiced(created))
	}
	require.NoError(t, f.orders.Save(context.Background(), order))
}
