package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/puravida/internal/events"
	"github.com/dejobratic/puravida/internal/orders/ports"
	"github.com/dejobratic/puravida/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *events.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *events.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderCreated(ctx context.Context, orderID string) error {
	return e.observe(ctx, "EventBus.PublishOrderCreated", events.TopicOrderCreated, orderID,
		func(ctx context.Context) error {
			return e.bus.PublishOrderCreated(ctx, orderID)
		})
}

func (e *ObservableEventBus) PublishOrderInvoiced(ctx context.Context, orderID string, total float64) error {
	return e.observe(ctx, "EventBus.PublishOrderInvoiced", events.TopicOrderInvoiced, orderID,
		func(ctx context.Context) error {
			return e.bus.PublishOrderInvoiced(ctx, orderID, total)
		},
		attribute.Float64("order.total", total))
}

func (e *ObservableEventBus) PublishPaymentDeclined(ctx context.Context, orderID string, reason string) error {
	return e.observe(ctx, "EventBus.PublishPaymentDeclined", events.TopicPaymentDeclined, orderID,
		func(ctx context.Context) error {
			return e.bus.PublishPaymentDeclined(ctx, orderID, reason)
		},
		attribute.String("failure.reason", reason))
}

func (e *ObservableEventBus) observe(
	ctx context.Context,
	spanName, topic, orderID string,
	publish func(context.Context) error,
	extra ...attribute.KeyValue,
) error {
	ctx, span := telemetry.StartSpan(ctx, spanName, trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", orderID),
		attribute.String("event.type", topic),
		attribute.String("topic", topic),
	)
	telemetry.AddSpanAttributes(span, extra...)

	start := time.Now()
	err := publish(ctx)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, topic, duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
