// Package analytics derives sales reports from the catalog, the customer
// registry and invoiced orders.
package analytics

import (
	"context"
	"fmt"

	catalog "github.com/dejobratic/puravida/internal/catalog/domain"
	catalogports "github.com/dejobratic/puravida/internal/catalog/ports"
	customers "github.com/dejobratic/puravida/internal/customers/domain"
	orders "github.com/dejobratic/puravida/internal/orders/domain"
	ordersports "github.com/dejobratic/puravida/internal/orders/ports"
)

type ProductLister interface {
	List(ctx context.Context, filter catalogports.ListFilter) ([]catalog.Product, error)
}

type CustomerLister interface {
	List(ctx context.Context) ([]customers.Customer, error)
}

type OrderLister interface {
	List(ctx context.Context, filter ordersports.ListFilter) ([]*orders.Order, error)
}

const orderPageSize = 100

// invoicedOrders walks every page of invoiced orders.
func invoicedOrders(ctx context.Context, lister OrderLister) ([]*orders.Order, error) {
	status := orders.StatusInvoiced
	var all []*orders.Order
	for page := 1; ; page++ {
		batch, err := lister.List(ctx, ordersports.ListFilter{Status: &status, Page: page, PageSize: orderPageSize})
		if err != nil {
			return nil, fmt.Errorf("list invoiced orders page %d: %w", page, err)
		}
		all = append(all, batch...)
		if len(batch) < orderPageSize {
			return all, nil
		}
	}
}
