package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/metrics"
	"github.com/dejobratic/puravida/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableFinalizeOrderHandler struct {
	handler FinalizeOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableFinalizeOrderHandler(handler FinalizeOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableFinalizeOrderHandler {
	return &ObservableFinalizeOrderHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableFinalizeOrderHandler) Handle(ctx context.Context, cmd FinalizeOrderCommand) (*FinalizeResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "FinalizeOrderCommand.Handle")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.String("order.id", cmd.OrderID))

	start := time.Now()
	status := "error"
	defer func() {
		o.metrics.RecordOrderFinalized(ctx, status, time.Since(start).Seconds())
	}()

	o.logger.InfoContext(ctx, "finalizing order",
		"order_id", cmd.OrderID,
		"invoice_path", cmd.InvoicePath,
	)

	result, err := o.handler.Handle(ctx, cmd)

	if result == nil {
		if errors.Is(err, domain.ErrPaymentDeclined) {
			status = string(domain.StatusFailed)
		}
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to finalize order",
			"error", err,
			"order_id", cmd.OrderID,
			"io_failure", errors.Is(err, domain.ErrIOFailure),
		)
		return nil, err
	}

	status = string(result.Order.Status)
	telemetry.AddSpanAttributes(span,
		attribute.String("order.status", status),
		attribute.Float64("order.total", result.Invoice.Total),
	)
	telemetry.AddSpanEvent(span, "invoice.issued", attribute.String("invoice.path", result.Invoice.Path))

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.WarnContext(ctx, "order invoiced with errors", "order_id", cmd.OrderID, "error", err)
		return result, err
	}

	o.logger.InfoContext(ctx, "order invoiced",
		"order_id", result.Order.ID,
		"total", result.Invoice.Total,
		"invoice_path", result.Invoice.Path,
	)
	telemetry.SetSpanSuccess(span)

	return result, nil
}
