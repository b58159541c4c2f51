// Package events publishes order lifecycle events.
package events

import (
	"context"
	"log/slog"
)

const (
	TopicOrderCreated    = "order.created"
	TopicOrderInvoiced   = "order.invoiced"
	TopicPaymentDeclined = "payment.declined"
)

// LogBus writes events to the structured log. It stands in for a broker in a
// single-process deployment.
type LogBus struct {
	logger *slog.Logger
}

// NewLogBus returns a bus logging at debug level through logger, or the default logger when nil.
func NewLogBus(logger *slog.Logger) *LogBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogBus{logger: logger}
}

func (b *LogBus) PublishOrderCreated(ctx context.Context, orderID string) error {
	b.logger.DebugContext(ctx, "event::"+TopicOrderCreated, "order_id", orderID)
	return nil
}

func (b *LogBus) PublishOrderInvoiced(ctx context.Context, orderID string, total float64) error {
	b.logger.DebugContext(ctx, "event::"+TopicOrderInvoiced, "order_id", orderID, "total", total)
	return nil
}

func (b *LogBus) PublishPaymentDeclined(ctx context.Context, orderID string, reason string) error {
	b.logger.DebugContext(ctx, "event::"+TopicPaymentDeclined, "order_id", orderID, "reason", reason)
	return nil
}
