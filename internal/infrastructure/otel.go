package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"orderreturns/internal/config"
	"orderreturns/pkg/contracts"
)

const (
	ServiceVersion = contracts.Version
	MeterName      = "orderreturns"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	TraceExporter  string // "stdout", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
	// MetricsFile receives a Prometheus text snapshot on FlushMetrics.
	MetricsFile string
	// TraceWriter is where the stdout exporter writes; nil means os.Stdout.
	TraceWriter io.Writer
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Logger         *slog.Logger

	metricsFile string
}

// DefaultOTelConfig returns a configuration with tracing off and in-memory metrics.
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:    MeterName,
		ServiceVersion: ServiceVersion,
		TraceExporter:  "none",
		EnableMetrics:  true,
		EnableTracing:  false,
		SampleRatio:    1.0,
	}
}

// OTelConfigFrom maps the telemetry section of the application config.
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	out := DefaultOTelConfig()
	if cfg.ServiceName != "" {
		out.ServiceName = cfg.ServiceName
	}
	out.EnableMetrics = cfg.Enabled
	out.EnableTracing = cfg.Enabled && cfg.TraceExporter != "none" && cfg.TraceExporter != ""
	if out.EnableTracing {
		out.TraceExporter = cfg.TraceExporter
	}
	out.MetricsFile = cfg.MetricsFile
	return out
}

// InitializeOTel installs global tracer and meter providers.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx := context.Background()
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	providers := &OTelProviders{
		Logger:      logger,
		metricsFile: cfg.MetricsFile,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}
	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.Bool("tracing_enabled", providers.TracerProvider != nil),
		slog.Bool("metrics_enabled", providers.MeterProvider != nil))
	return providers, nil
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		w := cfg.TraceWriter
		if w == nil {
			w = os.Stdout
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w))
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetMeterProvider(mp)

	providers.Logger.DebugContext(ctx, "Metrics initialized",
		slog.String("metrics_file", cfg.MetricsFile))
	return nil
}

// FlushMetrics writes the current metric values to the configured textfile.
// It is a no-op when metrics are disabled or no file is configured.
func (p *OTelProviders) FlushMetrics() error {
	if p.Registry == nil || p.metricsFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.metricsFile), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(p.metricsFile, p.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// Shutdown flushes metrics and shuts down the providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if err := p.FlushMetrics(); err != nil {
		errs = append(errs, err)
	}
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}
	p.Logger.DebugContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// PipelineMetrics holds the instruments recorded by operations and steps.
type PipelineMetrics struct {
	OperationExecutionsTotal   metric.Int64Counter
	OperationExecutionDuration metric.Float64Histogram
	OperationErrors            metric.Int64Counter
	StepsTotal                 metric.Int64Counter
	StepDuration               metric.Float64Histogram
	RowsProcessed              metric.Int64Counter
	LookupRecords              metric.Int64Counter
}

// CreatePipelineMetrics creates the pipeline instruments on meter.
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	var err error

	if m.OperationExecutionsTotal, err = meter.Int64Counter(
		"operation_executions_total",
		metric.WithDescription("Total number of operation executions"),
	); err != nil {
		return nil, err
	}
	if m.OperationExecutionDuration, err = meter.Float64Histogram(
		"operation_execution_duration_seconds",
		metric.WithDescription("Operation execution duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.OperationErrors, err = meter.Int64Counter(
		"operation_errors_total",
		metric.WithDescription("Total number of operation errors"),
	); err != nil {
		return nil, err
	}
	if m.StepsTotal, err = meter.Int64Counter(
		"operation_steps_total",
		metric.WithDescription("Total number of operation steps executed"),
	); err != nil {
		return nil, err
	}
	if m.StepDuration, err = meter.Float64Histogram(
		"operation_step_duration_seconds",
		metric.WithDescription("Operation step execution duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.RowsProcessed, err = meter.Int64Counter(
		"rows_processed_total",
		metric.WithDescription("Order rows read or written by a step"),
	); err != nil {
		return nil, err
	}
	if m.LookupRecords, err = meter.Int64Counter(
		"lookup_records_total",
		metric.WithDescription("Lookup records built or loaded, by table"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// TraceIDFromContext extracts the span trace ID from context.
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// RecordOperationMetrics records metrics for one operation execution.
func RecordOperationMetrics(ctx context.Context, metrics *PipelineMetrics, operationType string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.String("operation.type", operationType)}
	metrics.OperationExecutionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	status := "success"
	if err != nil {
		status = "failure"
		metrics.OperationErrors.Add(ctx, 1, metric.WithAttributes(
			append(attrs, attribute.String("error.type", fmt.Sprintf("%T", err)))...))
	}
	metrics.OperationExecutionDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(append(attrs, attribute.String("status", status))...))
}

// RecordStepMetrics records metrics for one step execution.
func RecordStepMetrics(ctx context.Context, metrics *PipelineMetrics, operationType, stepID string, duration time.Duration, success bool) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation.type", operationType),
		attribute.String("step.id", stepID),
	}
	metrics.StepsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	status := "success"
	if !success {
		status = "failure"
	}
	metrics.StepDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(append(attrs, attribute.String("status", status))...))
}

// RecordRows counts rows handled by a step.
func RecordRows(ctx context.Context, metrics *PipelineMetrics, stepID string, rows int) {
	if metrics == nil || rows <= 0 {
		return
	}
	metrics.RowsProcessed.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("step.id", stepID)))
}

// RecordLookupRecords counts lookup records for a table.
func RecordLookupRecords(ctx context.Context, metrics *PipelineMetrics, table string, n int) {
	if metrics == nil || n <= 0 {
		return
	}
	metrics.LookupRecords.Add(ctx, int64(n), metric.WithAttributes(attribute.String("table", table)))
}
