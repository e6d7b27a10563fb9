package model

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"orderreturns/internal/dataprocessing"
	"orderreturns/internal/errors"
)

type categoricalFeature struct {
	name   string
	mode   string
	levels []string
	index  map[string]int
}

type numericFeature struct {
	name string
	mean float64
}

// Preprocessor turns a feature table into a dense matrix. Categorical
// columns are imputed with their most frequent value and one-hot encoded;
// unseen categories encode as all zeros. Numeric columns are imputed with
// their mean and each row of the numeric block is scaled by its largest
// absolute value. Categorical blocks come first, then numeric columns.
type Preprocessor struct {
	categorical []categoricalFeature
	numeric     []numericFeature
	width       int
	fitted      bool
}

// NewPreprocessor creates an unfitted preprocessor.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

func isNumeric(k dataprocessing.Kind) bool {
	return k == dataprocessing.KindFloat || k == dataprocessing.KindInt
}

// Fit learns imputation values and category levels from t.
func (p *Preprocessor) Fit(t *dataprocessing.Table) error {
	if t.Len() == 0 {
		return errors.NewAppValidationError("cannot fit preprocessor on an empty table")
	}

	p.categorical = nil
	p.numeric = nil
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		if isNumeric(col.Kind) {
			p.numeric = append(p.numeric, fitNumeric(col))
		} else {
			p.categorical = append(p.categorical, fitCategorical(col))
		}
	}

	p.width = len(p.numeric)
	for _, c := range p.categorical {
		p.width += len(c.levels)
	}
	if p.width == 0 {
		return errors.NewAppValidationError("feature table encodes to zero columns")
	}
	p.fitted = true
	return nil
}

func fitNumeric(col *dataprocessing.Column) numericFeature {
	var sum float64
	n := 0
	for i := 0; i < col.Len(); i++ {
		if v, ok := col.Float(i); ok {
			sum += v
			n++
		}
	}
	f := numericFeature{name: col.Name}
	if n > 0 {
		f.mean = sum / float64(n)
	}
	return f
}

func categoryOf(col *dataprocessing.Column, i int) (string, bool) {
	s := col.Format(i)
	return s, s != ""
}

func fitCategorical(col *dataprocessing.Column) categoricalFeature {
	counts := make(map[string]int)
	for i := 0; i < col.Len(); i++ {
		if v, ok := categoryOf(col, i); ok {
			counts[v]++
		}
	}
	levels := make([]string, 0, len(counts))
	for v := range counts {
		levels = append(levels, v)
	}
	sort.Strings(levels)

	f := categoricalFeature{name: col.Name, levels: levels, index: make(map[string]int, len(levels))}
	best := -1
	for i, v := range levels {
		f.index[v] = i
		// levels are sorted, so ties keep the smallest value
		if counts[v] > best {
			best = counts[v]
			f.mode = v
		}
	}
	return f
}

// Width is the number of encoded columns.
func (p *Preprocessor) Width() int { return p.width }

// FeatureNames lists encoded columns in matrix order.
func (p *Preprocessor) FeatureNames() []string {
	names := make([]string, 0, p.width)
	for _, c := range p.categorical {
		for _, level := range c.levels {
			names = append(names, c.name+"="+level)
		}
	}
	for _, n := range p.numeric {
		names = append(names, n.name)
	}
	return names
}

// Transform encodes t with the fitted statistics. Columns not seen during Fit
// are ignored; a fitted column missing from t is an error.
func (p *Preprocessor) Transform(t *dataprocessing.Table) (*mat.Dense, error) {
	if !p.fitted {
		return nil, errors.NewAppValidationError("preprocessor is not fitted")
	}
	if t.Len() == 0 {
		return nil, errors.NewAppValidationError("cannot transform an empty table")
	}

	rows := t.Len()
	data := make([]float64, rows*p.width)
	offset := 0

	for _, f := range p.categorical {
		col, ok := t.Column(f.name)
		if !ok {
			return nil, errors.NewAppValidationError(fmt.Sprintf("feature %s missing from input", f.name))
		}
		for i := 0; i < rows; i++ {
			v, ok := categoryOf(col, i)
			if !ok {
				v = f.mode
			}
			if j, known := f.index[v]; known {
				data[i*p.width+offset+j] = 1
			}
		}
		offset += len(f.levels)
	}

	numStart := offset
	for _, f := range p.numeric {
		col, ok := t.Column(f.name)
		if !ok {
			return nil, errors.NewAppValidationError(fmt.Sprintf("feature %s missing from input", f.name))
		}
		for i := 0; i < rows; i++ {
			v, ok := col.Float(i)
			if !ok {
				v = f.mean
			}
			data[i*p.width+offset] = v
		}
		offset++
	}

	if len(p.numeric) > 0 {
		for i := 0; i < rows; i++ {
			block := data[i*p.width+numStart : (i+1)*p.width]
			if norm := floats.Norm(block, math.Inf(1)); norm > 0 {
				floats.Scale(1/norm, block)
			}
		}
	}

	return mat.NewDense(rows, p.width, data), nil
}
