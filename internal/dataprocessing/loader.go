package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	"orderreturns/internal/errors"
	"orderreturns/pkg/contracts/domain"
)

// TrainingSet pairs model inputs with their binary labels, row for row.
type TrainingSet struct {
	Features *Table
	Labels   []int
}

// TrainingSetLoader reads a labelled order file and separates features from labels.
type TrainingSetLoader struct {
	logger      *slog.Logger
	idColumn    string
	labelColumn string
	options     ParseOptions
}

// NewTrainingSetLoader creates a loader for the given id and label columns.
func NewTrainingSetLoader(logger *slog.Logger, idColumn, labelColumn string) *TrainingSetLoader {
	if logger == nil {
		logger = slog.Default()
	}
	if idColumn == "" {
		idColumn = domain.ColID
	}
	if labelColumn == "" {
		labelColumn = domain.ColReturn
	}
	opts := DefaultParseOptions()
	opts.IntColumns = appendUnique(opts.IntColumns, labelColumn)
	return &TrainingSetLoader{logger: logger, idColumn: idColumn, labelColumn: labelColumn, options: opts}
}

// IDColumn names the row identifier column.
func (l *TrainingSetLoader) IDColumn() string { return l.idColumn }

// LabelColumn names the binary label column.
func (l *TrainingSetLoader) LabelColumn() string { return l.labelColumn }

// ReadOrders parses the raw order file without splitting it.
func (l *TrainingSetLoader) ReadOrders(ctx context.Context, path string) (*Table, error) {
	t, err := ParseFile(path, l.options)
	if err != nil {
		return nil, err
	}
	l.logger.InfoContext(ctx, "Orders loaded",
		slog.String("file", path),
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(t.Columns())))
	return t, nil
}

// Load reads path and splits it into features and labels.
func (l *TrainingSetLoader) Load(ctx context.Context, path string) (*TrainingSet, error) {
	t, err := l.ReadOrders(ctx, path)
	if err != nil {
		return nil, err
	}
	return l.Split(t)
}

// Split drops the id column and moves the label column out of the feature table.
// The input table is not modified.
func (l *TrainingSetLoader) Split(t *Table) (*TrainingSet, error) {
	labels, ok := t.Column(l.labelColumn)
	if !ok {
		return nil, errors.NewAppValidationError(fmt.Sprintf("training data has no %s column", l.labelColumn))
	}
	y := make([]int, t.Len())
	for i := range y {
		v, ok := labels.Int(i)
		if !ok || (v != 0 && v != 1) {
			return nil, errors.NewAppValidationError(
				fmt.Sprintf("row %d: label %v is not 0 or 1", i, labels.Values[i]))
		}
		y[i] = int(v)
	}

	features := t.Clone()
	features.Drop(l.idColumn, l.labelColumn)
	return &TrainingSet{Features: features, Labels: y}, nil
}

// FilterMaxPrice keeps rows whose price is known and does not exceed max.
func FilterMaxPrice(ts *TrainingSet, max float64) (*TrainingSet, error) {
	prices, ok := ts.Features.Column(domain.ColPrice)
	if !ok {
		return nil, errors.NewAppValidationError("training data has no price column")
	}
	rows := make([]int, 0, ts.Features.Len())
	labels := make([]int, 0, len(ts.Labels))
	for i := 0; i < ts.Features.Len(); i++ {
		if p, ok := prices.Float(i); ok && p <= max {
			rows = append(rows, i)
			labels = append(labels, ts.Labels[i])
		}
	}
	return &TrainingSet{Features: ts.Features.Select(rows), Labels: labels}, nil
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
