package marginal

import (
	"context"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/marginal/pkg/errors"
)

// runningMean accumulates a mean one value at a time so that no batch-sized
// sum is ever scaled back up.
type runningMean struct {
	n    int
	mean float64
}

func (m *runningMean) add(x float64) {
	m.n++
	m.mean += (x - m.mean) / float64(m.n)
}

// scoreRows calls the model on X and reduces each output row to its sum.
func (e *Explainer) scoreRows(X mat.Matrix) ([]float64, error) {
	rows, _ := X.Dims()
	var out mat.Matrix
	err := errors.SafeExecute("marginal.Predict", func() error {
		var err error
		out, err = e.model.Predict(X)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "marginal: scoring %d rows", rows)
	}
	if out == nil {
		return nil, errors.NewModelError("Predict", "model returned no output", nil)
	}
	r, c := out.Dims()
	if r != rows {
		return nil, errors.NewDimensionError("Predict", rows, r, 0)
	}
	scores := make([]float64, r)
	for i := 0; i < r; i++ {
		var s float64
		for j := 0; j < c; j++ {
			s += out.At(i, j)
		}
		scores[i] = s
	}
	return scores, nil
}

// estimate computes the main effect of feature for one target example.
// fTarget is the model score of target and is only read for co-Möbius.
func (e *Explainer) estimate(ctx context.Context, target []float64, fTarget float64,
	feature FeatureIndex, src rand.Source, batchSize int) (float64, error) {
	var ranked []int
	if e.dependence == Dependent {
		ranked = rankByDissimilarity(e.data, target, feature, e.nsamples)
	}

	var mobius, comobius runningMean
	for offset := 0; offset < e.nsamples; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return 0, errors.WithStack(err)
		}
		n := min(e.nsamples, offset+batchSize) - offset

		var rows []int
		if ranked != nil {
			rows = ranked[offset : offset+n]
		} else {
			rows = drawIndependent(e.nsamples, n, src)
		}

		batch, layout := constructBatch(e.pool, e.data, rows, target, feature, e.representation)
		scores, err := e.scoreRows(batch.Dense)
		batch.Release()
		if err != nil {
			return 0, err
		}

		for i := 0; i < n; i++ {
			if layout.mobius >= 0 {
				mobius.add(scores[layout.mobius+i] - scores[layout.background+i])
			}
			if layout.comobius >= 0 {
				comobius.add(fTarget - scores[layout.comobius+i])
			}
		}
	}

	switch e.representation {
	case Comobius:
		return comobius.mean, nil
	case Average:
		return (mobius.mean + comobius.mean) / 2, nil
	default:
		return mobius.mean, nil
	}
}
