package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestLoggerFiltersByLevel(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		log   func(*slog.Logger)
		want  bool
	}{
		{"debug passes at debug", slog.LevelDebug, func(l *slog.Logger) { l.Debug("stock adjusted") }, true},
		{"debug dropped at info", slog.LevelInfo, func(l *slog.Logger) { l.Debug("stock adjusted") }, false},
		{"warn passes at warn", slog.LevelWarn, func(l *slog.Logger) { l.Warn("payment declined") }, true},
		{"info dropped at error", slog.LevelError, func(l *slog.Logger) { l.Info("order created") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewLogger(tt.level, &buf))

			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("expected output=%v, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestLoggerStampsTraceIDs(t *testing.T) {
	installRecorder(t)

	var buf bytes.Buffer
	logger := NewLogger(slog.LevelInfo, &buf)

	ctx, span := StartSpan(context.Background(), "orders.finalize")
	defer span.End()

	logger.InfoContext(ctx, "order invoiced", "order_id", "ORD-001")

	entry := decodeEntry(t, &buf)
	if entry["trace_id"] != TraceID(ctx) {
		t.Errorf("expected trace_id %s, got %v", TraceID(ctx), entry["trace_id"])
	}
	if entry["span_id"] != SpanID(ctx) {
		t.Errorf("expected span_id %s, got %v", SpanID(ctx), entry["span_id"])
	}
	if entry["order_id"] != "ORD-001" {
		t.Errorf("expected order_id ORD-001, got %v", entry["order_id"])
	}
}

func TestLoggerOmitsTraceIDsWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(slog.LevelInfo, &buf).Info("catalog imported")

	entry := decodeEntry(t, &buf)
	if _, ok := entry["trace_id"]; ok {
		t.Error("expected no trace_id")
	}
	if entry["msg"] != "catalog imported" {
		t.Errorf("unexpected msg %v", entry["msg"])
	}
}

func TestLoggerAttrsAndGroups(t *testing.T) {
	installRecorder(t)

	var buf bytes.Buffer
	logger := NewLogger(slog.LevelInfo, &buf).
		With("component", "loyalty").
		WithGroup("run").
		With("id", "r-1")

	ctx, span := StartSpan(context.Background(), "loyalty.run")
	defer span.End()

	logger.InfoContext(ctx, "progress", "percent", 50)

	entry := decodeEntry(t, &buf)
	if entry["component"] != "loyalty" {
		t.Errorf("expected top-level component, got %v", entry["component"])
	}
	if entry["trace_id"] == nil {
		t.Error("expected trace_id outside the group")
	}
	group, ok := entry["run"].(map[string]any)
	if !ok {
		t.Fatalf("expected run group, got %v", entry)
	}
	if group["id"] != "r-1" || group["percent"] != float64(50) {
		t.Errorf("unexpected group contents %v", group)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
