package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderreturns/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOTelConfigFrom(t *testing.T) {
	tests := []struct {
		name        string
		in          config.TelemetryConfig
		wantTracing bool
		wantMetrics bool
	}{
		{"disabled", config.TelemetryConfig{TraceExporter: "stdout"}, false, false},
		{"metrics only", config.TelemetryConfig{Enabled: true, TraceExporter: "none"}, false, true},
		{"stdout traces", config.TelemetryConfig{Enabled: true, TraceExporter: "stdout"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OTelConfigFrom(tt.in)
			assert.Equal(t, tt.wantTracing, got.EnableTracing)
			assert.Equal(t, tt.wantMetrics, got.EnableMetrics)
			assert.Equal(t, MeterName, got.ServiceName)
		})
	}
}

func TestMetricsFlushToTextfile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "metrics", "run.prom")
	cfg := DefaultOTelConfig()
	cfg.MetricsFile = file

	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, providers.Registry)

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordRows(ctx, metrics, "load_orders", 42)
	RecordLookupRecords(ctx, metrics, "customer_returns", 3)
	RecordStepMetrics(ctx, metrics, "aggregate", "load_orders", 10*time.Millisecond, true)
	RecordOperationMetrics(ctx, metrics, "aggregate", 20*time.Millisecond, errors.New("boom"))

	require.NoError(t, providers.Shutdown(ctx))

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "rows_processed")
	assert.Contains(t, text, "lookup_records")
	assert.Contains(t, text, "operation_errors")
	assert.Contains(t, text, "load_orders")
}

func TestStdoutTracing(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "stdout"
	cfg.TraceWriter = &buf
	cfg.EnableMetrics = false

	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)

	ctx, span := providers.Tracer.Start(context.Background(), "unit-span")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	assert.Equal(t, TraceIDFromContext(ctx), GetTraceID(ctx))
	RecordError(ctx, errors.New("failed"))
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "unit-span")
}

func TestUnsupportedTraceExporter(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "zipkin"
	_, err := InitializeOTel(cfg, quietLogger())
	assert.Error(t, err)
}

func TestNilMetricsAreIgnored(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRows(ctx, nil, "x", 1)
		RecordLookupRecords(ctx, nil, "x", 1)
		RecordStepMetrics(ctx, nil, "op", "x", time.Second, true)
		RecordOperationMetrics(ctx, nil, "op", time.Second, nil)
	})
}
