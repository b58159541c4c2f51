package database

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	backend       string
	queryDuration metric.Float64Histogram
	queryErrors   metric.Int64Counter
}

// NewMetrics creates query instruments labelled with the storage backend
// (memory or postgres).
func NewMetrics(meter metric.Meter, backend string) (*Metrics, error) {
	m := &Metrics{backend: backend}

	var err error

	m.queryDuration, err = meter.Float64Histogram(
		"db_query_duration_seconds",
		metric.WithDescription("Repository operation duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_duration histogram: %w", err)
	}

	m.queryErrors, err = meter.Int64Counter(
		"db_query_errors_total",
		metric.WithDescription("Repository operations that returned an error"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_errors counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordQuery(ctx context.Context, operation string, durationSeconds float64, err error) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("backend", m.backend),
	)
	m.queryDuration.Record(ctx, durationSeconds, attrs)
	if err != nil {
		m.queryErrors.Add(ctx, 1, attrs)
	}
}
