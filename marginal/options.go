package marginal

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/marginal/pkg/log"
)

// DefaultBatchSize is the number of background draws scored per model call.
const DefaultBatchSize = 50

// Option configures an Explainer at construction.
type Option func(*Explainer)

// WithFeatureDependence selects independent (default) or dependent sampling.
func WithFeatureDependence(d FeatureDependence) Option {
	return func(e *Explainer) {
		e.dependence = d
	}
}

// WithRepresentation selects mobius (default), comobius or average.
func WithRepresentation(r Representation) Option {
	return func(e *Explainer) {
		e.representation = r
	}
}

// WithRandomState seeds sampling. Every (example, feature) pair gets its own
// stream derived from seed, so results do not depend on WithNJobs.
func WithRandomState(seed int64) Option {
	return func(e *Explainer) {
		e.seed = seed
		e.seeded = true
		e.src = nil
	}
}

// WithRandSource draws every sample from src. The source is shared, so
// explain runs sequentially regardless of WithNJobs.
func WithRandSource(src rand.Source) Option {
	return func(e *Explainer) {
		e.src = src
		e.seeded = false
	}
}

// WithNJobs sets the number of workers (example, feature) pairs are spread
// over. n <= 0 uses every CPU. The default is 1.
func WithNJobs(n int) Option {
	return func(e *Explainer) {
		e.nJobs = n
	}
}

// WithLogger sets the logger used for construction and progress messages.
func WithLogger(l log.Logger) Option {
	return func(e *Explainer) {
		e.logger = l
	}
}

// ExplainOption configures a single Explain call.
type ExplainOption func(*explainConfig)

type explainConfig struct {
	features  []FeatureIndex
	batchSize int
	verbose   bool
	progress  func(done, total int)
}

// WithFeatureIndices restricts the result to the given features, in order.
// The default is every single feature.
func WithFeatureIndices(features ...FeatureIndex) ExplainOption {
	return func(c *explainConfig) {
		c.features = features
		if c.features == nil {
			c.features = []FeatureIndex{}
		}
	}
}

// WithBatchSize sets how many background draws are scored per model call.
func WithBatchSize(n int) ExplainOption {
	return func(c *explainConfig) {
		c.batchSize = n
	}
}

// WithVerbose logs one line per finished example at info level.
func WithVerbose(v bool) ExplainOption {
	return func(c *explainConfig) {
		c.verbose = v
	}
}

// WithProgress registers a callback invoked after each (example, feature)
// estimate. Calls are serialized.
func WithProgress(fn func(done, total int)) ExplainOption {
	return func(c *explainConfig) {
		c.progress = fn
	}
}
