package model

import (
	"encoding/json"

	"github.com/YuminosukeSato/marginal/pkg/errors"
)

// ModelWeights はモデルの重みを表す構造体（シリアライゼーション用）
//
// Both JSON and YAML tags are provided so the same document can be embedded
// in the CLI configuration file.
type ModelWeights struct {
	// ModelType はモデルの種類（linear, additive）
	ModelType string `json:"model_type" yaml:"model_type"`

	// Coefficients は重み係数
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`

	// Intercept は切片
	Intercept float64 `json:"intercept" yaml:"intercept"`

	// Features は特徴量の名前（オプション）
	Features []string `json:"features,omitempty" yaml:"features,omitempty"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(mw, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "model weights: marshal")
	}
	return data, nil
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "model weights: unmarshal")
	}
	return nil
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if len(mw.Coefficients) == 0 {
		return errors.NewValidationError("coefficients", "must not be empty", mw.Coefficients)
	}
	if len(mw.Features) > 0 && len(mw.Features) != len(mw.Coefficients) {
		return errors.NewDimensionError("ModelWeights.Validate", len(mw.Coefficients), len(mw.Features), 1)
	}
	return nil
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:    mw.ModelType,
		Intercept:    mw.Intercept,
		Coefficients: make([]float64, len(mw.Coefficients)),
	}
	copy(clone.Coefficients, mw.Coefficients)
	if mw.Features != nil {
		clone.Features = make([]string, len(mw.Features))
		copy(clone.Features, mw.Features)
	}
	return clone
}
