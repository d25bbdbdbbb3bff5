package marginal

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// drawIndependent returns n distinct row indices drawn uniformly from
// [0, nsamples). n must be in [1, nsamples].
func drawIndependent(nsamples, n int, src rand.Source) []int {
	idx := make([]int, n)
	sampleuv.WithoutReplacement(idx, nsamples, src)
	return idx
}

// rankByDissimilarity orders every background row by the L1 distance
// between the row and target on the columns of feature, nearest first, and
// returns the first limit rows. Equal distances keep row order.
func rankByDissimilarity(background mat.Matrix, target []float64, feature FeatureIndex, limit int) []int {
	rows, _ := background.Dims()
	dist := make([]float64, rows)
	for r := 0; r < rows; r++ {
		var d float64
		for _, c := range feature {
			d += math.Abs(target[c] - background.At(r, c))
		}
		dist[r] = d
	}
	order := make([]int, rows)
	floats.ArgsortStable(dist, order)
	return order[:limit]
}
