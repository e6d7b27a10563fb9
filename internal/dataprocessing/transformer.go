package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"orderreturns/internal/errors"
	"orderreturns/pkg/contracts/domain"
)

// Lookups holds the join indexes the transformer enriches orders with.
// SalesClass is only consulted when the sales-class join is enabled.
type Lookups struct {
	Customer     domain.HistoryIndex
	Item         domain.HistoryIndex
	Manufacturer domain.HistoryIndex
	SalesClass   domain.SalesClassIndex
}

// History returns the index for entity.
func (l Lookups) History(entity domain.Entity) domain.HistoryIndex {
	switch entity {
	case domain.EntityCustomer:
		return l.Customer
	case domain.EntityItem:
		return l.Item
	case domain.EntityManufacturer:
		return l.Manufacturer
	}
	return nil
}

// TransformerOptions configures the feature stages.
type TransformerOptions struct {
	SentinelDate         string
	MissingColor         string
	IncludeDaysToDeliver bool
	IncludeSalesClass    bool
	BatchSize            int
	Workers              int
}

// DefaultTransformerOptions returns the canonical stage configuration.
func DefaultTransformerOptions() TransformerOptions {
	return TransformerOptions{
		SentinelDate: domain.DefaultSentinelDate,
		MissingColor: domain.DefaultMissingColor,
		BatchSize:    50000,
		Workers:      4,
	}
}

// RecordTransformer turns raw order rows into model features.
type RecordTransformer struct {
	pipeline *Pipeline
	opts     TransformerOptions
	logger   *slog.Logger
}

// NewRecordTransformer builds the stage pipeline over the given lookups.
func NewRecordTransformer(lookups Lookups, opts TransformerOptions, logger *slog.Logger) (*RecordTransformer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, e := range domain.Entities() {
		if lookups.History(e) == nil {
			return nil, errors.NewAppValidationError(fmt.Sprintf("missing %s history lookup", e))
		}
	}
	if opts.IncludeSalesClass && lookups.SalesClass == nil {
		return nil, errors.NewAppValidationError("sales-class join enabled without a sales-class lookup")
	}
	if opts.SentinelDate == "" {
		opts.SentinelDate = domain.DefaultSentinelDate
	}
	if opts.MissingColor == "" {
		opts.MissingColor = domain.DefaultMissingColor
	}

	stages := []Stage{
		RepairSentinelDates(opts.SentinelDate),
		ParseDates(),
		NormalizeIdentifiers(),
		FillMissingColor(opts.MissingColor),
		CustomerAge(),
		AccountAge(),
		OrderMonth(),
	}
	if opts.IncludeDaysToDeliver {
		stages = append(stages, DaysToDeliver())
	}
	stages = append(stages, IsDelivered(), TrimSize(), MapSize())
	for _, e := range domain.Entities() {
		stages = append(stages, JoinHistory(e, lookups.History(e)))
	}
	if opts.IncludeSalesClass {
		stages = append(stages, JoinSalesClass(lookups.SalesClass))
	}
	stages = append(stages, PruneColumns())

	return &RecordTransformer{
		pipeline: NewPipeline(logger, stages...),
		opts:     opts,
		logger:   logger,
	}, nil
}

// Stages returns the stage names in execution order.
func (rt *RecordTransformer) Stages() []string {
	return rt.pipeline.Stages()
}

// Transform applies every stage to orders. The input table is never modified
// and the output has exactly one row per input row, in input order.
func (rt *RecordTransformer) Transform(ctx context.Context, orders *Table) (*Table, error) {
	out, err := rt.pipeline.Run(ctx, orders)
	if err != nil {
		return nil, err
	}
	rt.logger.InfoContext(ctx, "Orders transformed",
		slog.Int("rows", out.Len()),
		slog.Int("features", len(out.Columns())))
	return out, nil
}

// TransformBatches splits orders into fixed-size batches, transforms them
// concurrently and reassembles the result in input order.
func (rt *RecordTransformer) TransformBatches(ctx context.Context, orders *Table) (*Table, error) {
	size := rt.opts.BatchSize
	if size <= 0 || orders.Len() <= size {
		return rt.Transform(ctx, orders)
	}

	n := (orders.Len() + size - 1) / size
	results := make([]*Table, n)

	g, gctx := errgroup.WithContext(ctx)
	if rt.opts.Workers > 0 {
		g.SetLimit(rt.opts.Workers)
	}
	for b := 0; b < n; b++ {
		b := b
		start := b * size
		end := min(start+size, orders.Len())
		g.Go(func() error {
			out, err := rt.pipeline.Run(gctx, orders.Slice(start, end))
			if err != nil {
				return fmt.Errorf("batch %d: %w", b, err)
			}
			results[b] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out, err := Concat(results...)
	if err != nil {
		return nil, err
	}
	rt.logger.InfoContext(ctx, "Orders transformed",
		slog.Int("rows", out.Len()),
		slog.Int("batches", n),
		slog.Int("features", len(out.Columns())))
	return out, nil
}
