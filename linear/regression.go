// Package linear provides an ordinary least squares model that can be used
// as a scoring function for marginal effect estimation.
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/marginal/core/model"
	"github.com/YuminosukeSato/marginal/core/parallel"
	"github.com/YuminosukeSato/marginal/metrics"
	"github.com/YuminosukeSato/marginal/pkg/errors"
)

// ModelType is the ModelWeights.ModelType written and accepted by this package.
const ModelType = "linear"

// LinearRegression は線形回帰モデル
type LinearRegression struct {
	model.BaseEstimator
	Weights   *mat.VecDense // 重み（係数）
	Intercept float64       // 切片

	fitIntercept bool
	featureNames []string
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{fitIntercept: true}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// NewLinearRegressionFromWeights は学習済みの係数と切片からモデルを作成する
func NewLinearRegressionFromWeights(weights []float64, intercept float64, opts ...Option) (*LinearRegression, error) {
	if len(weights) == 0 {
		return nil, errors.NewValidationError("weights", "must not be empty", weights)
	}
	lr := NewLinearRegression(opts...)
	w := make([]float64, len(weights))
	copy(w, weights)
	lr.Weights = mat.NewVecDense(len(w), w)
	lr.Intercept = intercept
	lr.SetFitted(len(w))
	return lr, nil
}

// FromWeights restores a model from serialized weights.
func FromWeights(mw *model.ModelWeights) (*LinearRegression, error) {
	if err := mw.Validate(); err != nil {
		return nil, err
	}
	if mw.ModelType != ModelType {
		return nil, errors.NewValidationError("model_type", "expected "+ModelType, mw.ModelType)
	}
	return NewLinearRegressionFromWeights(mw.Coefficients, mw.Intercept, WithFeatureNames(mw.Features...))
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 w = (X^T * X)^(-1) * X^T * y を使用
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}

	offset := 0
	if lr.fitIntercept {
		offset = 1
	}

	// 切片項のために X に 1 の列を追加
	design := mat.NewDense(r, c+offset, nil)

	// 並列処理の閾値（この値以下の行数では逐次処理を使用）
	const parallelThreshold = 1000

	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			if offset == 1 {
				design.Set(i, 0, 1.0)
			}
			for j := 0; j < c; j++ {
				design.Set(i, j+offset, X.At(i, j))
			}
		}
	})

	var XTX mat.Dense
	XTX.Mul(design.T(), design)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, mat.Col(nil, 0, y))
	var XTy mat.VecDense
	XTy.MulVec(design.T(), yVec)

	var coef mat.VecDense
	coef.MulVec(&XTXInv, &XTy)

	lr.Intercept = 0
	if offset == 1 {
		lr.Intercept = coef.AtVec(0)
	}
	lr.Weights = mat.NewVecDense(c, nil)
	for i := 0; i < c; i++ {
		lr.Weights.SetVec(i, coef.AtVec(i+offset))
	}

	lr.SetFitted(c)
	return nil
}

// Predict は入力データに対する予測を行う（r×1 行列）
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := lr.CheckInput("LinearRegression", "Predict", c); err != nil {
		return nil, err
	}

	r, _ := X.Dims()
	out := mat.NewVecDense(r, nil)
	out.MulVec(X, lr.Weights)
	for i := 0; i < r; i++ {
		out.SetVec(i, out.AtVec(i)+lr.Intercept)
	}
	return out, nil
}

// GetWeights は学習された重み（係数）を返す
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	return mat.Col(nil, 0, lr.Weights)
}

// GetIntercept は学習された切片を返す
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	r, _ := y.Dims()
	pr, _ := yPred.Dims()
	if r != pr {
		return 0, errors.NewDimensionError("LinearRegression.Score", pr, r, 0)
	}
	return metrics.R2Score(mat.NewVecDense(r, mat.Col(nil, 0, y)), metrics.RowSums(yPred))
}

// ToWeights exports the fitted coefficients.
func (lr *LinearRegression) ToWeights() (*model.ModelWeights, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "ToWeights")
	}
	return &model.ModelWeights{
		ModelType:    ModelType,
		Coefficients: lr.GetWeights(),
		Intercept:    lr.Intercept,
		Features:     lr.featureNames,
	}, nil
}
