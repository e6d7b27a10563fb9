package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"orderreturns/internal/errors"
)

const instrumentationName = "orderreturns/dataprocessing"

// Requirement names a column a stage reads and the state it must be in.
// Kinds lists the accepted kinds; empty accepts any. WrittenBy, when set,
// requires that the named stage was the last one to write the column.
type Requirement struct {
	Column    string
	Kinds     []Kind
	WrittenBy string
}

// StageOrderError reports a stage applied to a table that lacks one of its inputs.
type StageOrderError struct {
	Stage  string
	Column string
	Want   string
	Got    string
}

func (e *StageOrderError) Error() string {
	return fmt.Sprintf("stage %s: column %s must be %s, got %s", e.Stage, e.Column, e.Want, e.Got)
}

// Stage is one pure transformation over a table. Apply receives a private copy
// of its input and returns the transformed table. Produces lists the columns
// the stage adds; they must not exist beforehand.
type Stage struct {
	Name     string
	Requires []Requirement
	Produces []string
	Apply    func(t *Table) (*Table, error)
}

// Check verifies that t satisfies every requirement of the stage.
func (s Stage) Check(t *Table) error {
	for _, req := range s.Requires {
		col, ok := t.Column(req.Column)
		if !ok {
			return s.orderError(req.Column, "present", "missing")
		}
		if len(req.Kinds) > 0 && !kindIn(col.Kind, req.Kinds) {
			return s.orderError(req.Column, kindList(req.Kinds), col.Kind.String())
		}
		if req.WrittenBy != "" && col.Source != req.WrittenBy {
			got := col.Source
			if got == "" {
				got = "raw input"
			}
			return s.orderError(req.Column, "written by "+req.WrittenBy, "written by "+got)
		}
	}
	for _, name := range s.Produces {
		if t.Has(name) {
			return s.orderError(name, "absent", "present")
		}
	}
	return nil
}

func (s Stage) orderError(column, want, got string) error {
	cause := &StageOrderError{Stage: s.Name, Column: column, Want: want, Got: got}
	return errors.NewStageOrderError(fmt.Sprintf("stage %s cannot run", s.Name), cause).
		WithContext("column", column)
}

// Run checks the stage's inputs and applies it to a copy of t. t is never modified.
func (s Stage) Run(t *Table) (*Table, error) {
	if err := s.Check(t); err != nil {
		return nil, err
	}
	out, err := s.Apply(t.Clone())
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", s.Name, err)
	}
	if out.Len() != t.Len() {
		return nil, fmt.Errorf("stage %s changed row count from %d to %d", s.Name, t.Len(), out.Len())
	}
	return out, nil
}

func kindIn(k Kind, kinds []Kind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func kindList(kinds []Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = k.String()
	}
	return strings.Join(parts, " or ")
}

// Pipeline applies stages in a fixed order.
type Pipeline struct {
	stages   []Stage
	logger   *slog.Logger
	duration metric.Float64Histogram
}

// NewPipeline composes stages in the order given.
func NewPipeline(logger *slog.Logger, stages ...Stage) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	duration, _ := otel.Meter(instrumentationName).Float64Histogram(
		"stage_duration_seconds",
		metric.WithDescription("Time spent applying one transformation stage"),
		metric.WithUnit("s"),
	)
	return &Pipeline{stages: stages, logger: logger, duration: duration}
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run applies every stage to in and returns the final table.
func (p *Pipeline) Run(ctx context.Context, in *Table) (*Table, error) {
	tracer := otel.Tracer(instrumentationName)
	current := in
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, span := tracer.Start(ctx, "stage."+s.Name)
		span.SetAttributes(attribute.String("stage", s.Name), attribute.Int("rows", current.Len()))

		start := time.Now()
		next, err := s.Run(current)
		elapsed := time.Since(start)
		if p.duration != nil {
			p.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("stage", s.Name)))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			p.logger.ErrorContext(ctx, "Stage failed",
				slog.String("stage", s.Name),
				slog.String("error", err.Error()))
			return nil, err
		}
		span.End()

		p.logger.DebugContext(ctx, "Stage applied",
			slog.String("stage", s.Name),
			slog.Int("rows", next.Len()),
			slog.Int("columns", len(next.Columns())),
			slog.Duration("elapsed", elapsed))
		current = next
	}
	return current, nil
}
