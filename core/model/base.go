package model

import (
	"github.com/YuminosukeSato/marginal/pkg/errors"
)

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
)

// BaseEstimator は全てのモデルの基底となる構造体
type BaseEstimator struct {
	state     EstimatorState
	nFeatures int
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted はモデルを学習済み状態に設定し、入力の特徴量数を記録する
func (e *BaseEstimator) SetFitted(nFeatures int) {
	e.state = Fitted
	e.nFeatures = nFeatures
}

// NFeatures は学習時の特徴量数を返す（未学習なら0）
func (e *BaseEstimator) NFeatures() int {
	return e.nFeatures
}

// Reset はモデルを初期状態にリセットする
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
	e.nFeatures = 0
}

// CheckInput returns a NotFittedError before fitting and a DimensionError
// when X does not have the fitted number of columns.
func (e *BaseEstimator) CheckInput(modelName, method string, nCols int) error {
	if !e.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	if nCols != e.nFeatures {
		return errors.NewDimensionError(modelName+"."+method, e.nFeatures, nCols, 1)
	}
	return nil
}
