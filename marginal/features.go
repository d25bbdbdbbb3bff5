package marginal

import (
	"strconv"
	"strings"

	"github.com/YuminosukeSato/marginal/pkg/errors"
)

// FeatureIndex names the column (or group of columns) whose main effect is
// estimated. A group is treated jointly: every listed column is taken from
// the same source row.
type FeatureIndex []int

// Single returns the index of one feature.
func Single(i int) FeatureIndex { return FeatureIndex{i} }

// Pair returns a joint index over two features.
func Pair(i, j int) FeatureIndex { return FeatureIndex{i, j} }

// AllFeatures returns Single(0) .. Single(n-1).
func AllFeatures(n int) []FeatureIndex {
	out := make([]FeatureIndex, n)
	for i := range out {
		out[i] = Single(i)
	}
	return out
}

// String formats the index as "3" or "1:2".
func (f FeatureIndex) String() string {
	parts := make([]string, len(f))
	for i, c := range f {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ":")
}

func (f FeatureIndex) validate(nFeatures int) error {
	if len(f) == 0 {
		return errors.NewValidationError("feature_indices", "feature index must name at least one column", f)
	}
	for _, c := range f {
		if c < 0 || c >= nFeatures {
			return errors.NewValidationError("feature_indices",
				"column out of range [0, "+strconv.Itoa(nFeatures)+")", f.String())
		}
	}
	return nil
}

// ParseFeatureIndices parses a comma separated list of indices where a
// group is written with colons, e.g. "0,1,2:3".
func ParseFeatureIndices(s string) ([]FeatureIndex, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []FeatureIndex
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		var group FeatureIndex
		for _, part := range strings.Split(item, ":") {
			c, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, errors.NewValidationError("feature_indices", "not an integer index", item)
			}
			group = append(group, c)
		}
		out = append(out, group)
	}
	return out, nil
}
