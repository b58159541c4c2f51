package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, ErrMissingServiceName},
		{"missing version", func(c *Config) { c.ServiceVersion = "" }, ErrMissingServiceVersion},
		{"negative sample rate", func(c *Config) { c.SampleRate = -0.1 }, ErrInvalidSampleRate},
		{"sample rate above one", func(c *Config) { c.SampleRate = 1.5 }, ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, tt.want) {
				t.Errorf("expected %v wrapped in ErrInvalidConfig, got %v", tt.want, err)
			}
		})
	}
}

func TestInitializeExportsSpans(t *testing.T) {
	prevTracer, prevMeter := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTracer)
		otel.SetMeterProvider(prevMeter)
	})

	exp := tracetest.NewInMemoryExporter()
	cfg := validConfig()
	cfg.EnableTracing = true
	cfg.EnableMetrics = true

	tel, err := Initialize(context.Background(), cfg,
		WithTraceExporter(exp),
		WithMetricExporter(discardMetricExporter{}),
	)
	if err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if tel.TracerProvider() == nil || tel.MeterProvider() == nil {
		t.Fatal("expected both providers to be installed")
	}

	_, span := StartSpan(context.Background(), "orders.finalize")
	span.End()

	if err := tel.TracerProvider().ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush() failed: %v", err)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "orders.finalize" {
		t.Fatalf("expected one orders.finalize span, got %d spans", len(spans))
	}

	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}
}

func TestInitializeWithoutSignals(t *testing.T) {
	tel, err := Initialize(context.Background(), validConfig())
	if err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if tel.TracerProvider() != nil || tel.MeterProvider() != nil {
		t.Error("expected no providers when tracing and metrics are disabled")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
}

func TestInitializeRequiresEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.EnableTracing = true

	_, err := Initialize(context.Background(), cfg)
	if !errors.Is(err, ErrMissingEndpoint) {
		t.Errorf("expected ErrMissingEndpoint, got %v", err)
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0, sdktrace.NeverSample().Description()},
		{1, sdktrace.AlwaysSample().Description()},
		{0.25, sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25)).Description()},
	}

	for _, tt := range tests {
		if got := createSampler(tt.rate).Description(); got != tt.want {
			t.Errorf("createSampler(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}
