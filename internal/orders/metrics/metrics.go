package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	ordersCreatedTotal    metric.Int64Counter
	ordersFinalizedTotal  metric.Int64Counter
	paymentAuthorizations metric.Int64Counter
	orderFinalizeDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.ordersFinalizedTotal, err = meter.Int64Counter(
		"orders_finalized_total",
		metric.WithDescription("Finalize attempts by outcome"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_finalized_total counter: %w", err)
	}

	m.paymentAuthorizations, err = meter.Int64Counter(
		"payment_authorizations_total",
		metric.WithDescription("Payment authorization decisions by method"),
		metric.WithUnit("{payment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create payment_authorizations_total counter: %w", err)
	}

	m.orderFinalizeDuration, err = meter.Float64Histogram(
		"order_finalize_duration_seconds",
		metric.WithDescription("Duration of order finalize operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_finalize_duration histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, success bool) {
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", outcome(success)),
	))
}

// RecordOrderFinalized counts a finalize attempt. status is the resulting
// order status, or "error" when the attempt failed before any transition.
func (m *Metrics) RecordOrderFinalized(ctx context.Context, status string, durationSeconds float64) {
	m.ordersFinalizedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
	m.orderFinalizeDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordPaymentAuthorization(ctx context.Context, method string, approved bool) {
	result := "approved"
	if !approved {
		result = "declined"
	}
	m.paymentAuthorizations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("result", result),
	))
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
