package marginal

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/marginal/performance"
)

// batchLayout gives the first row of each block in a constructed batch, or
// -1 when the representation does not need the block.
type batchLayout struct {
	background int
	mobius     int
	comobius   int
}

func layoutFor(rep Representation, n int) (batchLayout, int) {
	switch rep {
	case Comobius:
		return batchLayout{background: -1, mobius: -1, comobius: 0}, n
	case Average:
		return batchLayout{background: 0, mobius: n, comobius: 2 * n}, 3 * n
	default:
		return batchLayout{background: 0, mobius: n, comobius: -1}, 2 * n
	}
}

// constructBatch stacks, for the drawn background rows, the raw rows, their
// Möbius vectors and their co-Möbius vectors (as needed by rep) into one
// pooled matrix so the model is called once per batch. Neither background
// nor target is modified. The caller must Release the result.
func constructBatch(pool *performance.MatrixPool, background mat.Matrix, rows []int, target []float64,
	feature FeatureIndex, rep Representation) (*performance.PooledMatrix, batchLayout) {
	n := len(rows)
	_, cols := background.Dims()
	layout, total := layoutFor(rep, n)
	buf := pool.Get(total, cols)

	for i, r := range rows {
		if layout.background >= 0 {
			for c := 0; c < cols; c++ {
				buf.Set(layout.background+i, c, background.At(r, c))
			}
		}
		if layout.mobius >= 0 {
			// background row, feature columns from the target
			for c := 0; c < cols; c++ {
				buf.Set(layout.mobius+i, c, background.At(r, c))
			}
			for _, c := range feature {
				buf.Set(layout.mobius+i, c, target[c])
			}
		}
		if layout.comobius >= 0 {
			// target row, feature columns from the background
			buf.SetRow(layout.comobius+i, target)
			for _, c := range feature {
				buf.Set(layout.comobius+i, c, background.At(r, c))
			}
		}
	}
	return buf, layout
}
