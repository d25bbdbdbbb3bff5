// Package model defines the interfaces shared by the models that can be
// explained and the explainers themselves.
package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
//
// Predict must return one row per input row. Multi-output models may return
// several columns; explainers sum a row's columns into a single score.
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// PredictorFunc adapts an ordinary function to the Predictor interface.
type PredictorFunc func(X mat.Matrix) (mat.Matrix, error)

// Predict calls f(X).
func (f PredictorFunc) Predict(X mat.Matrix) (mat.Matrix, error) {
	return f(X)
}

// Regressor は学習と予測の両方が可能なモデル
type Regressor interface {
	Fitter
	Predictor
}
