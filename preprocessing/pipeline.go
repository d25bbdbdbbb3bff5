package preprocessing

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/marginal/core/model"
	"github.com/YuminosukeSato/marginal/pkg/errors"
)

// Pipeline transforms its input before handing it to the model.
type Pipeline struct {
	Transformer Transformer
	Model       model.Predictor
}

// NewPipeline returns a predictor computing m.Predict(t.Transform(X)).
// t must already be fitted.
func NewPipeline(t Transformer, m model.Predictor) (*Pipeline, error) {
	if t == nil {
		return nil, errors.NewValidationError("transformer", "must not be nil", nil)
	}
	if m == nil {
		return nil, errors.NewValidationError("model", "must not be nil", nil)
	}
	return &Pipeline{Transformer: t, Model: m}, nil
}

// Predict implements model.Predictor.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	Xt, err := p.Transformer.Transform(X)
	if err != nil {
		return nil, errors.Wrap(err, "pipeline: transform")
	}
	return p.Model.Predict(Xt)
}

// NewScaler returns an unfitted scaler by name: "standard" or "minmax".
func NewScaler(kind string) (Transformer, error) {
	switch kind {
	case "standard":
		return NewStandardScalerDefault(), nil
	case "minmax":
		return NewMinMaxScalerDefault(), nil
	default:
		return nil, errors.NewValidationError("scaler", "must be one of standard, minmax", kind)
	}
}
