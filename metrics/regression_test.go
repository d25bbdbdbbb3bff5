package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/marginal/pkg/errors"
)

type metricFunc func(yTrue, yPred mat.Vector) (float64, error)

func vec(v ...float64) *mat.VecDense { return mat.NewVecDense(len(v), v) }

func TestRegressionMetrics(t *testing.T) {
	tests := []struct {
		name   string
		metric metricFunc
		yTrue  *mat.VecDense
		yPred  *mat.VecDense
		want   float64
		tol    float64
	}{
		{"MSE perfect", MSE, vec(1, 2, 3, 4, 5), vec(1, 2, 3, 4, 5), 0, 1e-12},
		{"MSE simple", MSE, vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5), 0.25, 1e-12},
		{"MSE larger errors", MSE, vec(10, 20, 30), vec(12, 18, 33), 17.0 / 3.0, 1e-10},
		{"RMSE unit offset", RMSE, vec(0, 0, 0, 0), vec(1, 1, 1, 1), 1, 1e-12},
		{"MAE simple", MAE, vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5), 0.5, 1e-12},
		{"MAE mixed signs", MAE, vec(1, 2, 3, 4), vec(2, 1, 4, 3), 1, 1e-12},
		{"R2 perfect", R2Score, vec(1, 2, 3, 4, 5), vec(1, 2, 3, 4, 5), 1, 1e-12},
		{"R2 worse than mean", R2Score, vec(1, 2, 3, 4), vec(4, 3, 2, 1), -3, 1e-10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.metric(tt.yTrue, tt.yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tt.tol)
		})
	}
}

func TestRegressionMetricErrors(t *testing.T) {
	metrics := map[string]metricFunc{"MSE": MSE, "RMSE": RMSE, "MAE": MAE, "R2Score": R2Score}
	for name, metric := range metrics {
		t.Run(name, func(t *testing.T) {
			_, err := metric(vec(1, 2, 3), vec(1, 2))
			var de *errors.DimensionError
			assert.True(t, errors.As(err, &de))

			_, err = metric(&mat.VecDense{}, &mat.VecDense{})
			var ve *errors.ValueError
			assert.True(t, errors.As(err, &ve))
		})
	}

	_, err := R2Score(vec(3, 3, 3, 3, 3), vec(2, 3, 4, 3, 3))
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve), "constant target has no variance")
}

func TestRowSums(t *testing.T) {
	got := RowSums(mat.NewDense(3, 2, []float64{
		1, 2,
		-1, 1,
		0.5, 0.25,
	}))
	assert.Equal(t, []float64{3, 0, 0.75}, got.RawVector().Data)
}

func BenchmarkMSE(b *testing.B) {
	size := 10000
	yTrue := mat.NewVecDense(size, nil)
	yPred := mat.NewVecDense(size, nil)
	for i := 0; i < size; i++ {
		yTrue.SetVec(i, float64(i))
		yPred.SetVec(i, float64(i)+0.1*float64(i%10))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
