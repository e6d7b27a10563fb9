package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"orderreturns/internal/infrastructure"
)

const (
	TracerName = "orderreturns.operation"
)

// OperationTracer provides OpenTelemetry instrumentation for operations and steps
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer recording on meter. A nil meter uses the global provider.
func NewOperationTracer(meter metric.Meter) (*OperationTracer, error) {
	if meter == nil {
		meter = otel.Meter(infrastructure.MeterName)
	}
	metrics, err := infrastructure.CreatePipelineMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	return &OperationTracer{
		tracer:  otel.Tracer(TracerName),
		metrics: metrics,
	}, nil
}

// Metrics returns the instruments shared with steps.
func (t *OperationTracer) Metrics() *infrastructure.PipelineMetrics {
	if t == nil {
		return nil
	}
	return t.metrics
}

// StartOperation opens the span covering a whole operation
func (t *OperationTracer) StartOperation(ctx context.Context, operationID, operationType string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "operation."+operationType,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("operation.type", operationType),
		),
	)
}

// EndOperation records operation metrics and closes its span
func (t *OperationTracer) EndOperation(ctx context.Context, span trace.Span, operationType string, duration time.Duration, err error) {
	if t == nil {
		return
	}
	infrastructure.RecordOperationMetrics(ctx, t.metrics, operationType, duration, err)
	finishSpan(span, duration, err)
}

// StartStep opens a child span for one step
func (t *OperationTracer) StartStep(ctx context.Context, operationID, stepID string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stepID),
		),
	)
}

// EndStep records step metrics and closes its span
func (t *OperationTracer) EndStep(ctx context.Context, span trace.Span, operationType, stepID string, duration time.Duration, err error) {
	if t == nil {
		return
	}
	infrastructure.RecordStepMetrics(ctx, t.metrics, operationType, stepID, duration, err == nil)
	finishSpan(span, duration, err)
}

func finishSpan(span trace.Span, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
