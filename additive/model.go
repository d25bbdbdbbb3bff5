// Package additive provides a generalized additive scoring model: a bias plus
// one shape function per feature and optional shape functions over feature
// pairs, followed by a link function.
//
// Its main-effect terms are known exactly, which makes it a convenient
// ground truth when checking attribution estimates.
package additive

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/marginal/core/parallel"
	"github.com/YuminosukeSato/marginal/pkg/errors"
)

// Term is one additive component of the model.
type Term struct {
	Features []int
	Shape    Shape
}

// Name returns "3" for a main term and "1_2" for an interaction.
func (t Term) Name() string {
	if len(t.Features) == 1 {
		return fmt.Sprint(t.Features[0])
	}
	return fmt.Sprintf("%d_%d", t.Features[0], t.Features[1])
}

func (t Term) eval(row []float64, buf []float64) float64 {
	for i, f := range t.Features {
		buf[i] = row[f]
	}
	return t.Shape.Eval(buf[:len(t.Features)])
}

// Option configures a Model.
type Option func(*Model)

// WithBias sets the constant added before the link.
func WithBias(b float64) Option {
	return func(m *Model) {
		m.bias = b
	}
}

// WithLink sets the output link. The default is Identity.
func WithLink(l Link) Option {
	return func(m *Model) {
		m.link = l
	}
}

// WithIgnoredInteractions lists feature pairs that may not carry an
// interaction term.
func WithIgnoredInteractions(pairs ...[2]int) Option {
	return func(m *Model) {
		for _, p := range pairs {
			m.ignored[orderedPair(p[0], p[1])] = true
		}
	}
}

// Model is a generalized additive model over a fixed number of features.
type Model struct {
	nFeatures int
	bias      float64
	link      Link
	terms     []Term
	ignored   map[[2]int]bool
}

// New creates a model over nFeatures columns with no terms.
func New(nFeatures int, opts ...Option) (*Model, error) {
	if nFeatures <= 0 {
		return nil, errors.NewValidationError("n_features", "must be positive", nFeatures)
	}
	m := &Model{
		nFeatures: nFeatures,
		link:      Identity,
		ignored:   make(map[[2]int]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.link != Identity && m.link != Sigmoid {
		return nil, errors.NewValidationError("link", "must be identity or sigmoid", string(m.link))
	}
	return m, nil
}

// NFeatures returns the number of input columns.
func (m *Model) NFeatures() int { return m.nFeatures }

// Terms returns the model terms in insertion order.
func (m *Model) Terms() []Term {
	return append([]Term(nil), m.terms...)
}

// AddMain adds a shape function over a single feature.
func (m *Model) AddMain(feature int, shape Shape) error {
	if err := m.checkFeature(feature); err != nil {
		return err
	}
	if shape == nil {
		return errors.NewValidationError("shape", "must not be nil", nil)
	}
	m.terms = append(m.terms, Term{Features: []int{feature}, Shape: shape})
	return nil
}

// AddInteraction adds a shape function over the pair (i, j).
func (m *Model) AddInteraction(i, j int, shape Shape) error {
	if err := m.checkFeature(i); err != nil {
		return err
	}
	if err := m.checkFeature(j); err != nil {
		return err
	}
	if i == j {
		return errors.NewValidationError("interaction", "needs two distinct features", [2]int{i, j})
	}
	if m.ignored[orderedPair(i, j)] {
		return errors.NewValidationError("interaction", "pair is listed in interactions to ignore", [2]int{i, j})
	}
	if shape == nil {
		return errors.NewValidationError("shape", "must not be nil", nil)
	}
	m.terms = append(m.terms, Term{Features: []int{i, j}, Shape: shape})
	return nil
}

func (m *Model) checkFeature(f int) error {
	if f < 0 || f >= m.nFeatures {
		return errors.NewValidationError("feature", fmt.Sprintf("must be in [0, %d)", m.nFeatures), f)
	}
	return nil
}

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// Predict は各行に対して link(bias + Σ term) を返す（r×1 行列）
func (m *Model) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if c != m.nFeatures {
		return nil, errors.NewDimensionError("additive.Predict", m.nFeatures, c, 1)
	}
	out := mat.NewVecDense(r, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		row := make([]float64, c)
		buf := make([]float64, 2)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			v := m.bias
			for _, t := range m.terms {
				v += t.eval(row, buf)
			}
			out.SetVec(i, m.link.apply(v))
		}
	})
	return out, nil
}

// MainEffect returns, for every row of X, the sum of the main terms over
// feature before the link is applied. It is zero when the feature has no
// main term.
func (m *Model) MainEffect(feature int, X mat.Matrix) (*mat.VecDense, error) {
	if err := m.checkFeature(feature); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != m.nFeatures {
		return nil, errors.NewDimensionError("additive.MainEffect", m.nFeatures, c, 1)
	}
	out := mat.NewVecDense(r, nil)
	row := make([]float64, c)
	buf := make([]float64, 2)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		var v float64
		for _, t := range m.terms {
			if len(t.Features) == 1 && t.Features[0] == feature {
				v += t.eval(row, buf)
			}
		}
		out.SetVec(i, v)
	}
	return out, nil
}

func orderedPair(i, j int) [2]int {
	if i > j {
		i, j = j, i
	}
	return [2]int{i, j}
}
