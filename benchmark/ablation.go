// Package benchmark evaluates attributions by ablation: the features an
// explainer ranks highest for an example are replaced by their background
// mean and the change in the model output is measured. A good attribution
// moves the output the most when its most important features are removed
// first.
package benchmark

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/marginal/core/model"
	"github.com/YuminosukeSato/marginal/metrics"
	"github.com/YuminosukeSato/marginal/pkg/errors"
	"github.com/YuminosukeSato/marginal/pkg/log"
)

// Order selects which end of the ranking is removed first.
type Order int

const (
	// MostImportantFirst removes the largest |effect| first.
	MostImportantFirst Order = iota
	// LeastImportantFirst removes the smallest |effect| first.
	LeastImportantFirst
)

func (o Order) String() string {
	if o == LeastImportantFirst {
		return "least_important_first"
	}
	return "most_important_first"
}

// MarshalText implements encoding.TextMarshaler.
func (o Order) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// AblationCurve holds, for k = 0..K removed features, the error between the
// masked and the unmasked model outputs.
type AblationCurve struct {
	Order   Order     `json:"order" yaml:"order"`
	Removed []int     `json:"removed" yaml:"removed"`
	MSE     []float64 `json:"mse" yaml:"mse"`
	MAE     []float64 `json:"mae" yaml:"mae"`
}

// AUC is the trapezoidal area under the MSE curve.
func (c *AblationCurve) AUC() float64 {
	if len(c.Removed) < 2 {
		return 0
	}
	x := make([]float64, len(c.Removed))
	for i, k := range c.Removed {
		x[i] = float64(k)
	}
	return integrate.Trapezoidal(x, c.MSE)
}

// Option configures Ablate.
type Option func(*config)

type config struct {
	maxFeatures int
	order       Order
	logger      log.Logger
}

// WithMaxFeatures limits the curve to k <= n removed features.
func WithMaxFeatures(n int) Option {
	return func(c *config) {
		c.maxFeatures = n
	}
}

// WithOrder sets the removal order. The default is MostImportantFirst.
func WithOrder(o Order) Option {
	return func(c *config) {
		c.order = o
	}
}

// WithLogger sets the logger for per-step messages.
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Ablate masks features of X in the order given by |effects| and reports
// how far the model output moves. effects must have one row per row of X
// and one column per feature, as returned by an explainer over single
// features.
func Ablate(m model.Predictor, background, X, effects mat.Matrix, opts ...Option) (*AblationCurve, error) {
	cfg := config{order: MostImportantFirst}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.GetLoggerWithName("benchmark")
	}
	if m == nil {
		return nil, errors.NewValidationError("model", "must not be nil", nil)
	}

	r, c := X.Dims()
	if _, bc := background.Dims(); bc != c {
		return nil, errors.NewDimensionError("Ablate", c, bc, 1)
	}
	if er, ec := effects.Dims(); er != r || ec != c {
		if er != r {
			return nil, errors.NewDimensionError("Ablate", r, er, 0)
		}
		return nil, errors.NewDimensionError("Ablate", c, ec, 1)
	}
	maxK := cfg.maxFeatures
	if maxK <= 0 || maxK > c {
		maxK = c
	}

	means := make([]float64, c)
	for j := range means {
		means[j] = stat.Mean(mat.Col(nil, j, background), nil)
	}
	rankings := rankFeatures(effects, cfg.order)

	base, err := predictScores(m, X)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger.With(log.OperationKey, log.OperationAblate)
	start := time.Now()
	curve := &AblationCurve{Order: cfg.order}
	masked := mat.DenseCopyOf(X)
	for k := 0; k <= maxK; k++ {
		if k > 0 {
			for i := 0; i < r; i++ {
				j := rankings[i][k-1]
				masked.Set(i, j, means[j])
			}
		}
		scores, err := predictScores(m, masked)
		if err != nil {
			return nil, err
		}
		mse, err := metrics.MSE(base, scores)
		if err != nil {
			return nil, err
		}
		mae, err := metrics.MAE(base, scores)
		if err != nil {
			return nil, err
		}
		curve.Removed = append(curve.Removed, k)
		curve.MSE = append(curve.MSE, mse)
		curve.MAE = append(curve.MAE, mae)
		logger.Debug("ablation step", "removed", k, log.LossKey, mse)
	}

	logger.Info("ablation finished",
		log.SamplesKey, r,
		log.FeaturesKey, maxK,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return curve, nil
}

// rankFeatures returns, per row, the column indices ordered by |effect|.
// Ties keep column order.
func rankFeatures(effects mat.Matrix, order Order) [][]int {
	r, c := effects.Dims()
	out := make([][]int, r)
	key := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := math.Abs(effects.At(i, j))
			if order == MostImportantFirst {
				v = -v
			}
			key[j] = v
		}
		out[i] = make([]int, c)
		floats.ArgsortStable(key, out[i])
	}
	return out
}

func predictScores(m model.Predictor, X mat.Matrix) (*mat.VecDense, error) {
	rows, _ := X.Dims()
	out, err := m.Predict(X)
	if err != nil {
		return nil, errors.Wrap(err, "benchmark: predict")
	}
	if out == nil {
		return nil, errors.NewModelError("Predict", "model returned no output", nil)
	}
	if r, _ := out.Dims(); r != rows {
		return nil, errors.NewDimensionError("Ablate", rows, r, 0)
	}
	return metrics.RowSums(out), nil
}
