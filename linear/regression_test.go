package linear

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/marginal/core/model"
	"github.com/YuminosukeSato/marginal/marginal"
	"github.com/YuminosukeSato/marginal/pkg/errors"
)

// createBenchmarkData はテスト・ベンチマーク用のデータを生成する
// y = 1 + Σ 0.5*(j+1)*x_j + noise
func createBenchmarkData(rows, cols int, noise float64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(42, 42))

	X := mat.NewDense(rows, cols, nil)
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		sum := 1.0
		for j := 0; j < cols; j++ {
			v := rng.Float64()*2.0 - 1.0
			X.Set(i, j, v)
			sum += v * float64(j+1) * 0.5
		}
		sum += (rng.Float64() - 0.5) * noise
		y.Set(i, 0, sum)
	}
	return X, y
}

func TestLinearRegressionFit(t *testing.T) {
	X, y := createBenchmarkData(200, 3, 0)

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))
	assert.True(t, lr.IsFitted())
	assert.Equal(t, 3, lr.NFeatures())

	assert.InDelta(t, 1.0, lr.GetIntercept(), 1e-8)
	assert.InDeltaSlice(t, []float64{0.5, 1.0, 1.5}, lr.GetWeights(), 1e-8)

	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-10)
}

func TestLinearRegressionWithoutIntercept(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	lr := NewLinearRegression(WithFitIntercept(false))
	require.NoError(t, lr.Fit(X, y))
	assert.Equal(t, 0.0, lr.GetIntercept())
	assert.InDeltaSlice(t, []float64{2}, lr.GetWeights(), 1e-10)
}

func TestLinearRegressionErrors(t *testing.T) {
	t.Run("predict before fit", func(t *testing.T) {
		_, err := NewLinearRegression().Predict(mat.NewDense(1, 2, nil))
		var nfe *errors.NotFittedError
		assert.True(t, errors.As(err, &nfe))
	})

	t.Run("row mismatch", func(t *testing.T) {
		err := NewLinearRegression().Fit(mat.NewDense(3, 1, nil), mat.NewDense(2, 1, nil))
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("singular design", func(t *testing.T) {
		X := mat.NewDense(3, 2, []float64{1, 2, 2, 4, 3, 6})
		err := NewLinearRegression().Fit(X, mat.NewDense(3, 1, []float64{1, 2, 3}))
		assert.True(t, errors.Is(err, errors.ErrSingularMatrix))
	})

	t.Run("feature mismatch", func(t *testing.T) {
		lr, err := NewLinearRegressionFromWeights([]float64{1, 2}, 0)
		require.NoError(t, err)
		_, err = lr.Predict(mat.NewDense(1, 3, nil))
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("empty weights", func(t *testing.T) {
		_, err := NewLinearRegressionFromWeights(nil, 1)
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	})
}

func TestLinearRegressionWeightsRoundTrip(t *testing.T) {
	lr, err := NewLinearRegressionFromWeights([]float64{2, -1}, 0.5, WithFeatureNames("age", "income"))
	require.NoError(t, err)

	pred, err := lr.Predict(mat.NewDense(2, 2, []float64{1, 1, 0, 2}))
	require.NoError(t, err)
	assert.Equal(t, 1.5, pred.At(0, 0))
	assert.Equal(t, -1.5, pred.At(1, 0))

	mw, err := lr.ToWeights()
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "income"}, mw.Features)

	restored, err := FromWeights(mw)
	require.NoError(t, err)
	assert.Equal(t, lr.GetWeights(), restored.GetWeights())
	assert.Equal(t, lr.GetIntercept(), restored.GetIntercept())

	_, err = FromWeights(&model.ModelWeights{ModelType: "additive", Coefficients: []float64{1}})
	assert.Error(t, err)

	_, err = NewLinearRegression().ToWeights()
	assert.Error(t, err)
}

// The Möbius main effect of a linear model is w_j * (x_j - mean(background_j)).
func TestLinearMainEffects(t *testing.T) {
	weights := []float64{2, -3, 0.5}
	lr, err := NewLinearRegressionFromWeights(weights, 4)
	require.NoError(t, err)

	background, _ := createBenchmarkData(64, 3, 0)
	X := mat.NewDense(2, 3, []float64{
		1, 0, -1,
		0.3, 0.2, 0.1,
	})

	ex, err := marginal.NewExplainer(lr, background, 64, marginal.WithRandomState(1))
	require.NoError(t, err)
	effects, err := ex.Explain(X, marginal.WithBatchSize(64))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			want := weights[j] * (X.At(i, j) - stat.Mean(mat.Col(nil, j, background), nil))
			assert.InDelta(t, want, effects.At(i, j), 1e-9, "example %d feature %d", i, j)
		}
	}
}

func BenchmarkLinearRegressionFit(b *testing.B) {
	sizes := []struct {
		name string
		rows int
		cols int
	}{
		{"Small_500x10", 500, 10},
		{"Medium_2000x10", 2000, 10}, // 並列処理の閾値を超える
		{"Large_10000x20", 10000, 20},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			X, y := createBenchmarkData(size.rows, size.cols, 0.1)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := NewLinearRegression().Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkLinearRegressionPredict(b *testing.B) {
	X, y := createBenchmarkData(5000, 20, 0.1)
	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := lr.Predict(X); err != nil {
			b.Fatal(err)
		}
	}
}
