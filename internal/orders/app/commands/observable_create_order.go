package commands

import (
	"context"
	"log/slog"

	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/metrics"
	"github.com/dejobratic/puravida/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCreateOrderHandler struct {
	handler CreateOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCreateOrderHandler(handler CreateOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCreateOrderHandler {
	return &ObservableCreateOrderHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateOrderCommand.Handle")
	defer span.End()

	var success bool
	defer func() {
		o.metrics.RecordOrderCreated(ctx, success)
	}()

	o.logger.InfoContext(ctx, "creating order",
		"order_id", cmd.OrderID,
		"customer_id", cmd.Customer.ID,
		"payment_method", cmd.PaymentMethod,
	)

	order, err := o.handler.Handle(ctx, cmd)

	if err != nil && order == nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to create order",
			"error", err,
			"order_id", cmd.OrderID,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("order.customer_id", order.Customer.ID),
		attribute.String("order.payment_method", order.Payment().Method()),
		attribute.String("order.status", string(order.Status)),
	)

	success = true

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.WarnContext(ctx, "order created with errors", "order_id", order.ID, "error", err)
		return order, err
	}

	o.logger.InfoContext(ctx, "order created successfully", "order_id", order.ID)
	telemetry.SetSpanSuccess(span)

	return order, nil
}
