package cli

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/marginal/additive"
	"github.com/YuminosukeSato/marginal/core/model"
	"github.com/YuminosukeSato/marginal/linear"
	"github.com/YuminosukeSato/marginal/marginal"
	"github.com/YuminosukeSato/marginal/pkg/errors"
)

// Config is the YAML document read with --config.
//
//	model:
//	  type: linear
//	  linear:
//	    model_type: linear
//	    coefficients: [1, 1]
//	data:
//	  background: background.csv
//	  targets: targets.csv
//	explainer:
//	  nsamples: 100
//	  representation: mobius
type Config struct {
	Model     ModelConfig     `yaml:"model" json:"model"`
	Data      DataConfig      `yaml:"data" json:"data"`
	Explainer ExplainerConfig `yaml:"explainer" json:"explainer"`
}

// ModelConfig selects the scoring model. Exactly one of Linear and Additive
// is read, depending on Type.
type ModelConfig struct {
	Type     string              `yaml:"type" json:"type"`
	Linear   *model.ModelWeights `yaml:"linear,omitempty" json:"linear,omitempty"`
	Additive *additive.Config    `yaml:"additive,omitempty" json:"additive,omitempty"`
}

// DataConfig points at the CSV files holding the background and the targets.
// When Scale is set, a scaler of that kind is fitted on the background and
// applied in front of the model, so effects stay in the CSV units.
type DataConfig struct {
	Background string `yaml:"background" json:"background"`
	Targets    string `yaml:"targets" json:"targets"`
	Header     bool   `yaml:"header" json:"header"`
	Scale      string `yaml:"scale,omitempty" json:"scale,omitempty"`
}

// ExplainerConfig mirrors the explainer options.
type ExplainerConfig struct {
	NSamples          int    `yaml:"nsamples" json:"nsamples"`
	BatchSize         int    `yaml:"batch_size" json:"batch_size"`
	Representation    string `yaml:"representation" json:"representation"`
	FeatureDependence string `yaml:"feature_dependence" json:"feature_dependence"`
	Features          string `yaml:"features,omitempty" json:"features,omitempty"`
	Seed              *int64 `yaml:"seed,omitempty" json:"seed,omitempty"`
	Jobs              int    `yaml:"jobs" json:"jobs"`
}

func defaultConfig() *Config {
	return &Config{
		Explainer: ExplainerConfig{
			BatchSize:         marginal.DefaultBatchSize,
			Representation:    marginal.Mobius.String(),
			FeatureDependence: marginal.Independent.String(),
			Jobs:              1,
		},
	}
}

func loadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// buildModel returns the scoring function described by mc.
func buildModel(mc ModelConfig) (model.Predictor, error) {
	switch mc.Type {
	case linear.ModelType:
		if mc.Linear == nil {
			return nil, errors.NewValidationError("model.linear", "is required for a linear model", nil)
		}
		w := mc.Linear.Clone()
		if w.ModelType == "" {
			w.ModelType = linear.ModelType
		}
		return linear.FromWeights(w)
	case "additive":
		if mc.Additive == nil {
			return nil, errors.NewValidationError("model.additive", "is required for an additive model", nil)
		}
		return additive.FromConfig(*mc.Additive)
	case "":
		return nil, errors.NewValidationError("model.type", "is required", mc.Type)
	default:
		return nil, errors.NewValidationError("model.type", "must be one of linear, additive", mc.Type)
	}
}

// options converts the explainer settings into constructor and explain
// options for a background with nFeatures columns. It also returns the
// feature groups that will be explained.
func (ec ExplainerConfig) options(nFeatures int) ([]marginal.Option, []marginal.ExplainOption, []marginal.FeatureIndex, error) {
	rep, err := marginal.ParseRepresentation(ec.Representation)
	if err != nil {
		return nil, nil, nil, err
	}
	dep, err := marginal.ParseFeatureDependence(ec.FeatureDependence)
	if err != nil {
		return nil, nil, nil, err
	}
	opts := []marginal.Option{
		marginal.WithRepresentation(rep),
		marginal.WithFeatureDependence(dep),
		marginal.WithNJobs(ec.Jobs),
	}
	if ec.Seed != nil {
		opts = append(opts, marginal.WithRandomState(*ec.Seed))
	}

	features := marginal.AllFeatures(nFeatures)
	if ec.Features != "" {
		if features, err = marginal.ParseFeatureIndices(ec.Features); err != nil {
			return nil, nil, nil, err
		}
	}
	explainOpts := []marginal.ExplainOption{
		marginal.WithBatchSize(ec.BatchSize),
		marginal.WithFeatureIndices(features...),
	}
	return opts, explainOpts, features, nil
}
