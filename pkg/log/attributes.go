// Package log defines standard attribute keys for attribution operations.
//
// Keys follow a hierarchical naming convention (e.g. "explain.representation",
// "data.samples") so that logs from the explainer, the ablation benchmark and
// the CLI can be filtered uniformly.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of scoring model being explained.
	// Examples: "LinearRegression", "additive.Model"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "marginal", "benchmark", "cli"
	ComponentKey = "ml.component"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// BackgroundRowsKey is the number of rows in the background dataset.
	BackgroundRowsKey = "data.background_rows"

	// BatchSizeKey indicates the number of background draws scored per model call.
	BatchSizeKey = "data.batch_size"
)

// Explainer configuration
const (
	// RepresentationKey is one of "mobius", "comobius", "average".
	RepresentationKey = "explain.representation"

	// DependenceKey is one of "independent", "dependent".
	DependenceKey = "explain.feature_dependence"

	// NSamplesKey is the sample budget per (example, feature) pair.
	NSamplesKey = "explain.nsamples"

	// FeatureKey identifies the feature index or group being attributed.
	FeatureKey = "explain.feature"

	// ExampleKey is the row index of the target example.
	ExampleKey = "explain.example"

	// WorkersKey is the number of parallel workers.
	WorkersKey = "explain.workers"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// ProgressKey records completed work units out of the total.
	ProgressKey = "perf.progress"

	// LossKey records an evaluation loss such as the ablation MSE.
	LossKey = "metrics.loss"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Standard attribute values.
const (
	OperationExplain = "explain"
	OperationAblate  = "ablate"
	OperationPredict = "predict"
	OperationFit     = "fit"

	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorInvalidConfig     = "INVALID_CONFIG"
	ErrorModelFailure      = "MODEL_FAILURE"
)
