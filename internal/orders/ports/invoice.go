package ports

import (
	"context"

	"github.com/dejobratic/puravida/internal/orders/domain"
)

// InvoiceWriter renders and persists the receipt of an order. Discard removes
// a receipt whose order could not be marked invoiced.
type InvoiceWriter interface {
	Write(ctx context.Context, order *domain.Order, path string) (domain.Invoice, error)
	Discard(ctx context.Context, invoice domain.Invoice) error
}

// InvoiceLog keeps an append-only record of issued invoices.
type InvoiceLog interface {
	Append(ctx context.Context, invoice domain.Invoice) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.Invoice, error)
}
