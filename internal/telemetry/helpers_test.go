package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type discardMetricExporter struct{}

func (discardMetricExporter) Temporality(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (discardMetricExporter) Aggregation(sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.AggregationDefault{}
}

func (discardMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error {
	return nil
}

func (discardMetricExporter) ForceFlush(context.Context) error {
	return nil
}

func (discardMetricExporter) Shutdown(context.Context) error {
	return nil
}

func validConfig() Config {
	return Config{
		ServiceName:    "puravida-api",
		ServiceVersion: "0.1.0",
		Environment:    "test",
		SampleRate:     1.0,
	}
}

// installRecorder swaps the global tracer provider for a synchronous
// in-memory one for the duration of the test.
func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exp := tracetest.NewInMemoryExporter()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	return exp
}
