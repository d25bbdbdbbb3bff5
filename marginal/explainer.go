package marginal

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/marginal/core/model"
	"github.com/YuminosukeSato/marginal/core/parallel"
	"github.com/YuminosukeSato/marginal/performance"
	"github.com/YuminosukeSato/marginal/pkg/errors"
	"github.com/YuminosukeSato/marginal/pkg/log"
)

// Explainer estimates per-feature main effects of a model by Monte-Carlo
// sampling from a background dataset.
//
// The model and background are held by reference and never modified. The
// model is called with pooled matrices and must not retain them after
// Predict returns.
type Explainer struct {
	model    model.Predictor
	data     mat.Matrix
	nsamples int

	dependence     FeatureDependence
	representation Representation

	seed   int64
	seeded bool
	src    rand.Source
	nJobs  int

	pool   *performance.MatrixPool
	logger log.Logger
}

// NewExplainer validates the configuration and returns an Explainer.
//
// nsamples is the number of background draws per estimate and must not
// exceed the number of background rows. Configuration problems are returned
// as *errors.ValidationError; unknown modes are additionally marked with
// errors.ErrUnknownMode and an oversized budget with
// errors.ErrInsufficientBackground.
func NewExplainer(m model.Predictor, data mat.Matrix, nsamples int, opts ...Option) (*Explainer, error) {
	e := &Explainer{
		model:          m,
		data:           data,
		nsamples:       nsamples,
		dependence:     Independent,
		representation: Mobius,
		nJobs:          1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.GetLoggerWithName("marginal")
	}

	if err := e.validate(); err != nil {
		return nil, err
	}

	if e.dependence == Dependent {
		errors.Warn(errors.NewPerformanceWarning("marginal.Explainer",
			"feature_dependence=dependent",
			"background rows are re-ranked for every example and feature"))
	}

	e.pool = performance.NewMatrixPool(0)

	rows, cols := data.Dims()
	e.logger.Debug("Explainer created",
		log.BackgroundRowsKey, rows,
		log.FeaturesKey, cols,
		log.NSamplesKey, nsamples,
		log.RepresentationKey, e.representation.String(),
		log.DependenceKey, e.dependence.String(),
		log.WorkersKey, e.nJobs,
	)
	return e, nil
}

func (e *Explainer) validate() error {
	if e.model == nil {
		return errors.NewValidationError("model", "must not be nil", nil)
	}
	if e.data == nil {
		return errors.Mark(errors.NewValidationError("data", "must not be nil", nil), errors.ErrEmptyData)
	}
	rows, cols := e.data.Dims()
	if rows == 0 || cols == 0 {
		return errors.Mark(errors.NewValidationError("data", "background must have at least one row and column", [2]int{rows, cols}), errors.ErrEmptyData)
	}
	if e.nsamples <= 0 {
		return errors.NewValidationError("nsamples", "must be positive", e.nsamples)
	}
	if e.nsamples > rows {
		return errors.Mark(
			errors.NewValidationError("nsamples", "exceeds the number of background rows", e.nsamples),
			errors.ErrInsufficientBackground)
	}
	if !e.dependence.valid() {
		return unknownMode("feature_dependence", "must be one of independent, dependent", string(e.dependence))
	}
	if !e.representation.valid() {
		return unknownMode("representation", "must be one of mobius, comobius, average", string(e.representation))
	}
	return nil
}

// NSamples returns the number of background draws per estimate.
func (e *Explainer) NSamples() int { return e.nsamples }

// Representation returns the configured representation.
func (e *Explainer) Representation() Representation { return e.representation }

// FeatureDependence returns the configured sampling mode.
func (e *Explainer) FeatureDependence() FeatureDependence { return e.dependence }

// Explain is ExplainContext with a background context.
func (e *Explainer) Explain(X mat.Matrix, opts ...ExplainOption) (*mat.Dense, error) {
	return e.ExplainContext(context.Background(), X, opts...)
}

// ExplainContext returns the main effects of the requested features for
// every row of X as a fresh rows(X)×len(features) matrix.
//
// A model error aborts the whole call and no partial result is returned.
// ctx is checked between batches.
func (e *Explainer) ExplainContext(ctx context.Context, X mat.Matrix, opts ...ExplainOption) (*mat.Dense, error) {
	cfg := explainConfig{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	nRows, features, err := e.checkExplainInput(X, &cfg)
	if err != nil {
		return nil, err
	}
	nFeat := len(features)

	logger := e.logger.With(log.OperationKey, log.OperationExplain)
	start := time.Now()

	targets := make([][]float64, nRows)
	for i := range targets {
		targets[i] = mat.Row(nil, i, X)
	}

	var fTargets []float64
	if e.representation != Mobius {
		if fTargets, err = e.scoreRows(X); err != nil {
			logger.Error("Explain failed", err)
			return nil, err
		}
	} else {
		fTargets = make([]float64, nRows)
	}

	workers := e.nJobs
	if e.src != nil {
		workers = 1
	}

	result := mat.NewDense(nRows, nFeat, nil)
	total := nRows * nFeat
	tracker := newProgressTracker(total, nFeat, cfg, logger)

	err = parallel.ParallelizeErr(ctx, total, workers, func(ctx context.Context, p int) error {
		i, k := p/nFeat, p%nFeat
		v, err := e.estimate(ctx, targets[i], fTargets[i], features[k], e.pairSource(p), cfg.batchSize)
		if err != nil {
			return err
		}
		result.Set(i, k, v)
		tracker.done(i)
		return nil
	})
	if err != nil {
		logger.Error("Explain failed", err)
		return nil, err
	}

	logger.Debug("Explain finished",
		log.SamplesKey, nRows,
		log.FeaturesKey, nFeat,
		log.BatchSizeKey, cfg.batchSize,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (e *Explainer) checkExplainInput(X mat.Matrix, cfg *explainConfig) (int, []FeatureIndex, error) {
	if X == nil {
		return 0, nil, errors.Mark(errors.NewValidationError("X", "must not be nil", nil), errors.ErrEmptyData)
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return 0, nil, errors.Mark(errors.NewValidationError("X", "must have at least one row", rows), errors.ErrEmptyData)
	}
	_, nFeatures := e.data.Dims()
	if cols != nFeatures {
		return 0, nil, errors.NewDimensionError("Explain", nFeatures, cols, 1)
	}
	if cfg.batchSize <= 0 {
		return 0, nil, errors.NewValidationError("batch_size", "must be positive", cfg.batchSize)
	}

	features := cfg.features
	if features == nil {
		features = AllFeatures(nFeatures)
	}
	if len(features) == 0 {
		return 0, nil, errors.NewValidationError("feature_indices", "at least one feature is required", 0)
	}
	for _, f := range features {
		if err := f.validate(nFeatures); err != nil {
			return 0, nil, err
		}
	}
	return rows, features, nil
}

// pairSource returns the random source for the p-th (example, feature) pair.
func (e *Explainer) pairSource(p int) rand.Source {
	switch {
	case e.src != nil:
		return e.src
	case e.seeded:
		return rand.NewPCG(uint64(e.seed), uint64(p))
	default:
		return rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
}

// progressTracker reports finished estimates through the progress callback
// and, when verbose, logs each example once all of its features are done.
type progressTracker struct {
	mu       sync.Mutex
	total    int
	finished int
	perRow   map[int]int
	nFeat    int
	cfg      explainConfig
	logger   log.Logger
}

func newProgressTracker(total, nFeat int, cfg explainConfig, logger log.Logger) *progressTracker {
	return &progressTracker{
		total:  total,
		perRow: make(map[int]int),
		nFeat:  nFeat,
		cfg:    cfg,
		logger: logger,
	}
}

func (t *progressTracker) done(row int) {
	if t.cfg.progress == nil && !t.cfg.verbose {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.finished++
	if t.cfg.progress != nil {
		t.cfg.progress(t.finished, t.total)
	}
	if !t.cfg.verbose {
		return
	}
	t.perRow[row]++
	if t.perRow[row] == t.nFeat {
		delete(t.perRow, row)
		t.logger.Info("example explained",
			log.ExampleKey, row,
			log.ProgressKey, float64(t.finished)/float64(t.total),
		)
	}
}
