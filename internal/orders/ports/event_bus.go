package ports

import "context"

// EventBus defines the contract for publishing order lifecycle events.
type EventBus interface {
	PublishOrderCreated(ctx context.Context, orderID string) error
	PublishOrderInvoiced(ctx context.Context, orderID string, total float64) error
	PublishPaymentDeclined(ctx context.Context, orderID string, reason string) error
}
