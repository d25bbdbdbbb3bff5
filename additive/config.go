package additive

import (
	"fmt"

	"github.com/YuminosukeSato/marginal/pkg/errors"
)

// TermConfig describes one term in a configuration file.
//
//	- features: [0]
//	  kind: polynomial
//	  coefficients: [0, 1, 0.5]
//	- features: [1, 2]
//	  kind: product
//	  scale: 2
type TermConfig struct {
	Features     []int     `yaml:"features" json:"features"`
	Kind         string    `yaml:"kind" json:"kind"`
	Coefficients []float64 `yaml:"coefficients,omitempty" json:"coefficients,omitempty"`
	Scale        float64   `yaml:"scale,omitempty" json:"scale,omitempty"`
	Frequency    float64   `yaml:"frequency,omitempty" json:"frequency,omitempty"`
}

// Config describes a Model in a configuration file.
type Config struct {
	NFeatures            int          `yaml:"n_features" json:"n_features"`
	Bias                 float64      `yaml:"bias" json:"bias"`
	Link                 string       `yaml:"link,omitempty" json:"link,omitempty"`
	InteractionsToIgnore [][2]int     `yaml:"interactions_to_ignore,omitempty" json:"interactions_to_ignore,omitempty"`
	Terms                []TermConfig `yaml:"terms" json:"terms"`
}

// FromConfig builds a Model from cfg.
func FromConfig(cfg Config) (*Model, error) {
	opts := []Option{WithBias(cfg.Bias), WithIgnoredInteractions(cfg.InteractionsToIgnore...)}
	if cfg.Link != "" {
		opts = append(opts, WithLink(Link(cfg.Link)))
	}
	m, err := New(cfg.NFeatures, opts...)
	if err != nil {
		return nil, err
	}

	for i, tc := range cfg.Terms {
		shape, err := tc.shape()
		if err != nil {
			return nil, errors.Wrapf(err, "additive: term %d", i)
		}
		switch len(tc.Features) {
		case 1:
			err = m.AddMain(tc.Features[0], shape)
		case 2:
			err = m.AddInteraction(tc.Features[0], tc.Features[1], shape)
		default:
			err = errors.NewValidationError("features", "a term needs one or two features", tc.Features)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "additive: term %d", i)
		}
	}
	return m, nil
}

func (tc TermConfig) shape() (Shape, error) {
	switch tc.Kind {
	case "polynomial":
		if len(tc.Coefficients) == 0 {
			return nil, errors.NewValidationError("coefficients", "polynomial needs at least one coefficient", tc.Coefficients)
		}
		return Polynomial(tc.Coefficients...), nil
	case "product":
		scale := tc.Scale
		if scale == 0 {
			scale = 1
		}
		return Product(scale), nil
	case "sine":
		amp, freq := tc.Scale, tc.Frequency
		if amp == 0 {
			amp = 1
		}
		if freq == 0 {
			freq = 1
		}
		return Sine(amp, freq), nil
	default:
		return nil, errors.NewValidationError("kind", fmt.Sprintf("unknown term kind %q", tc.Kind), tc.Kind)
	}
}
