package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func TestSpanHelpers(t *testing.T) {
	exp := installRecorder(t)

	ctx, span := StartSpan(context.Background(), "FinalizeOrderCommand.Handle")
	if TraceID(ctx) == "" || SpanID(ctx) == "" {
		t.Fatal("expected trace and span ids on the span context")
	}
	AddSpanAttributes(span, attribute.String("order.id", "ORD-001"))
	AddSpanEvent(span, "invoice.issued", attribute.String("invoice.path", "ORD-001.txt"))
	SetSpanSuccess(span)
	span.End()

	_, failed := StartSpan(context.Background(), "OrderRepository.Save")
	RecordSpanError(failed, errors.New("connection reset"))
	failed.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	ok := spans[0]
	if ok.Status.Code != codes.Ok {
		t.Errorf("expected ok status, got %v", ok.Status)
	}
	if len(ok.Attributes) != 1 || ok.Attributes[0].Value.AsString() != "ORD-001" {
		t.Errorf("unexpected attributes %v", ok.Attributes)
	}
	if len(ok.Events) != 1 || ok.Events[0].Name != "invoice.issued" {
		t.Errorf("unexpected events %v", ok.Events)
	}

	bad := spans[1]
	if bad.Status.Code != codes.Error || bad.Status.Description != "connection reset" {
		t.Errorf("expected error status, got %v", bad.Status)
	}
	if len(bad.Events) != 1 || bad.Events[0].Name != "exception" {
		t.Errorf("expected recorded exception event, got %v", bad.Events)
	}
}

func TestSpanHelpersTolerateNil(t *testing.T) {
	AddSpanAttributes(nil, attribute.Bool("x", true))
	AddSpanEvent(nil, "noop")
	RecordSpanError(nil, errors.New("ignored"))
	SetSpanSuccess(nil)

	if TraceID(context.Background()) != "" || SpanID(context.Background()) != "" {
		t.Error("expected empty ids without an active span")
	}
}
