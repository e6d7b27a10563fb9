package model

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"orderreturns/internal/errors"
)

// LogisticRegression is a binary logistic model fitted by full-batch
// gradient descent with an L2 penalty on the weights.
type LogisticRegression struct {
	opts    Options
	weights *mat.VecDense
	bias    float64
}

// NewLogisticRegression creates an unfitted model. Zero options take defaults.
func NewLogisticRegression(opts Options) *LogisticRegression {
	def := DefaultOptions()
	if opts.LearningRate <= 0 {
		opts.LearningRate = def.LearningRate
	}
	if opts.Iterations <= 0 {
		opts.Iterations = def.Iterations
	}
	if opts.L2 < 0 {
		opts.L2 = def.L2
	}
	if opts.Threshold <= 0 || opts.Threshold >= 1 {
		opts.Threshold = def.Threshold
	}
	return &LogisticRegression{opts: opts}
}

// Fitted reports whether Fit has completed.
func (m *LogisticRegression) Fitted() bool { return m.weights != nil }

// Weights returns a copy of the fitted weights and the bias.
func (m *LogisticRegression) Weights() ([]float64, float64) {
	if m.weights == nil {
		return nil, 0
	}
	return mat.Col(nil, 0, m.weights), m.bias
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Fit learns weights from X and 0/1 labels y.
func (m *LogisticRegression) Fit(ctx context.Context, X mat.Matrix, y []int) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewAppValidationError("cannot fit on an empty matrix")
	}
	if r != len(y) {
		return errors.NewAppValidationError(fmt.Sprintf("matrix rows (%d) and labels (%d) differ", r, len(y)))
	}
	target := make([]float64, r)
	for i, v := range y {
		if v != 0 && v != 1 {
			return errors.NewAppValidationError(fmt.Sprintf("label %d at row %d is not 0 or 1", v, i))
		}
		target[i] = float64(v)
	}

	w := mat.NewVecDense(c, nil)
	z := mat.NewVecDense(r, nil)
	grad := mat.NewVecDense(c, nil)
	resid := make([]float64, r)
	residVec := mat.NewVecDense(r, resid)
	bias := 0.0
	n := float64(r)

	for it := 0; it < m.opts.Iterations; it++ {
		if it%50 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		z.MulVec(X, w)
		for i := 0; i < r; i++ {
			resid[i] = sigmoid(z.AtVec(i)+bias) - target[i]
		}
		grad.MulVec(X.T(), residVec)
		grad.ScaleVec(1/n, grad)
		grad.AddScaledVec(grad, m.opts.L2, w)

		w.AddScaledVec(w, -m.opts.LearningRate, grad)
		bias -= m.opts.LearningRate * floats.Sum(resid) / n
	}

	m.weights = w
	m.bias = bias
	return nil
}

// PredictProba returns P(return = 1) per row.
func (m *LogisticRegression) PredictProba(X mat.Matrix) []float64 {
	r, _ := X.Dims()
	z := mat.NewVecDense(r, nil)
	z.MulVec(X, m.weights)
	out := make([]float64, r)
	for i := range out {
		out[i] = sigmoid(z.AtVec(i) + m.bias)
	}
	return out
}

// Predict thresholds PredictProba into 0/1 labels.
func (m *LogisticRegression) Predict(X mat.Matrix) []int {
	proba := m.PredictProba(X)
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= m.opts.Threshold {
			out[i] = 1
		}
	}
	return out
}
