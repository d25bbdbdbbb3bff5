package marginal

import (
	"strings"

	"github.com/YuminosukeSato/marginal/pkg/errors"
)

// Representation selects which conditional expectation is estimated.
type Representation string

const (
	// Mobius holds the feature at the target's value and integrates the
	// remaining features over the background.
	Mobius Representation = "mobius"
	// Comobius holds every other feature at the target's values and
	// integrates the feature itself over the background.
	Comobius Representation = "comobius"
	// Average is the arithmetic mean of Mobius and Comobius on the same draws.
	Average Representation = "average"
)

func (r Representation) String() string { return string(r) }

func (r Representation) valid() bool {
	switch r {
	case Mobius, Comobius, Average:
		return true
	}
	return false
}

// ParseRepresentation parses "mobius", "comobius" or "average" (case-insensitive).
func ParseRepresentation(s string) (Representation, error) {
	r := Representation(strings.ToLower(strings.TrimSpace(s)))
	if !r.valid() {
		return "", unknownMode("representation", "must be one of mobius, comobius, average", s)
	}
	return r, nil
}

// FeatureDependence selects how background rows are drawn.
type FeatureDependence string

const (
	// Independent draws background rows uniformly without replacement.
	Independent FeatureDependence = "independent"
	// Dependent takes the background rows nearest to the target on the
	// explained feature.
	Dependent FeatureDependence = "dependent"
)

func (d FeatureDependence) String() string { return string(d) }

func (d FeatureDependence) valid() bool {
	return d == Independent || d == Dependent
}

// ParseFeatureDependence parses "independent" or "dependent" (case-insensitive).
func ParseFeatureDependence(s string) (FeatureDependence, error) {
	d := FeatureDependence(strings.ToLower(strings.TrimSpace(s)))
	if !d.valid() {
		return "", unknownMode("feature_dependence", "must be one of independent, dependent", s)
	}
	return d, nil
}

func unknownMode(param, reason string, value interface{}) error {
	return errors.Mark(errors.NewValidationError(param, reason, value), errors.ErrUnknownMode)
}
