package model

import (
	"context"
	"fmt"
	"log/slog"

	"orderreturns/internal/dataprocessing"
	"orderreturns/internal/errors"
)

// Classifier learns binary return labels from a prepared feature table.
type Classifier interface {
	Fit(ctx context.Context, X *dataprocessing.Table, y []int) error
	Predict(ctx context.Context, X *dataprocessing.Table) ([]int, error)
}

// Options are the baseline classifier hyper-parameters.
type Options struct {
	LearningRate float64
	Iterations   int
	L2           float64
	Threshold    float64
}

// DefaultOptions returns the hyper-parameters used when none are configured.
func DefaultOptions() Options {
	return Options{
		LearningRate: 0.1,
		Iterations:   300,
		L2:           0.0001,
		Threshold:    0.5,
	}
}

// BaselineClassifier chains the Preprocessor and a LogisticRegression.
type BaselineClassifier struct {
	pre    *Preprocessor
	lr     *LogisticRegression
	logger *slog.Logger
}

// NewBaselineClassifier creates an unfitted baseline classifier.
func NewBaselineClassifier(opts Options, logger *slog.Logger) *BaselineClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BaselineClassifier{
		pre:    NewPreprocessor(),
		lr:     NewLogisticRegression(opts),
		logger: logger,
	}
}

// Fit learns the preprocessing statistics and the regression weights.
func (c *BaselineClassifier) Fit(ctx context.Context, X *dataprocessing.Table, y []int) error {
	if X.Len() != len(y) {
		return errors.NewAppValidationError(
			fmt.Sprintf("feature rows (%d) and labels (%d) differ", X.Len(), len(y)))
	}
	if err := c.pre.Fit(X); err != nil {
		return err
	}
	m, err := c.pre.Transform(X)
	if err != nil {
		return err
	}
	if err := c.lr.Fit(ctx, m, y); err != nil {
		return err
	}

	acc, err := Accuracy(c.lr.Predict(m), y)
	if err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Classifier fitted",
		slog.Int("rows", X.Len()),
		slog.Int("encoded_features", c.pre.Width()),
		slog.Float64("training_accuracy", acc))
	return nil
}

// Predict returns one 0/1 label per row of X, in row order.
func (c *BaselineClassifier) Predict(ctx context.Context, X *dataprocessing.Table) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if X.Len() == 0 {
		return []int{}, nil
	}
	m, err := c.pre.Transform(X)
	if err != nil {
		return nil, err
	}
	if !c.lr.Fitted() {
		return nil, errors.NewAppValidationError("classifier is not fitted")
	}
	return c.lr.Predict(m), nil
}

// Accuracy is the share of predictions equal to the truth.
func Accuracy(pred, truth []int) (float64, error) {
	if len(pred) != len(truth) {
		return 0, errors.NewAppValidationError(
			fmt.Sprintf("prediction count %d does not match label count %d", len(pred), len(truth)))
	}
	if len(pred) == 0 {
		return 0, errors.NewArithmeticError("accuracy of an empty prediction set")
	}
	hits := 0
	for i := range pred {
		if pred[i] == truth[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(pred)), nil
}
