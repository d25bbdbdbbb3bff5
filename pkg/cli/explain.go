package cli

import (
	"context"

	urfave "github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/marginal/core/model"
	"github.com/YuminosukeSato/marginal/marginal"
	"github.com/YuminosukeSato/marginal/pkg/errors"
	"github.com/YuminosukeSato/marginal/pkg/log"
	"github.com/YuminosukeSato/marginal/preprocessing"
)

const (
	backgroundFlag     = "background"
	targetsFlag        = "targets"
	headerFlag         = "header"
	scaleFlag          = "scale"
	nsamplesFlag       = "nsamples"
	batchSizeFlag      = "batch-size"
	representationFlag = "representation"
	dependenceFlag     = "dependence"
	featuresFlag       = "features"
	seedFlag           = "seed"
	jobsFlag           = "jobs"
)

// explainFlags are shared by every command that runs the explainer. Values
// given here override the configuration file.
func explainFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.StringFlag{Name: backgroundFlag, Aliases: []string{"b"}, Usage: "CSV file with the background rows"},
		&urfave.StringFlag{Name: targetsFlag, Aliases: []string{"t"}, Usage: "CSV file with the examples to explain"},
		&urfave.BoolFlag{Name: headerFlag, Usage: "Skip the first line of both CSV files"},
		&urfave.StringFlag{Name: scaleFlag, Usage: "Scale inputs before the model, fitted on the background [standard, minmax]"},
		&urfave.IntFlag{Name: nsamplesFlag, Aliases: []string{"n"}, Usage: "Background draws per estimate (default: all background rows)"},
		&urfave.IntFlag{Name: batchSizeFlag, Usage: "Background draws scored per model call", Value: marginal.DefaultBatchSize},
		&urfave.StringFlag{Name: representationFlag, Usage: "Representation [mobius, comobius, average]", Value: marginal.Mobius.String()},
		&urfave.StringFlag{Name: dependenceFlag, Usage: "Feature dependence [independent, dependent]", Value: marginal.Independent.String()},
		&urfave.StringFlag{Name: featuresFlag, Usage: `Features to explain, groups joined with ":" (e.g. "0,1,2:3")`},
		&urfave.Int64Flag{Name: seedFlag, Usage: "Random seed for reproducible draws"},
		&urfave.IntFlag{Name: jobsFlag, Aliases: []string{"j"}, Usage: "Parallel workers, 0 for one per CPU", Value: 1},
	}
}

func newExplainCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "explain",
		Usage: "Print the main effect of each requested feature for every target row",
		UsageText: `marginal-effects -c model.yaml explain -b background.csv -t targets.csv
   marginal-effects -c model.yaml --format yaml explain -b bg.csv -t x.csv --representation average --seed 7`,
		Flags:  explainFlags(),
		Action: cmdExplain,
	}
}

// explainOutput is the document printed by the explain command.
type explainOutput struct {
	Representation    string      `json:"representation" yaml:"representation"`
	FeatureDependence string      `json:"feature_dependence" yaml:"feature_dependence"`
	NSamples          int         `json:"nsamples" yaml:"nsamples"`
	Features          []string    `json:"features" yaml:"features"`
	Effects           [][]float64 `json:"effects" yaml:"effects"`
}

func cmdExplain(ctx context.Context, cmd *urfave.Command) error {
	run, err := explainRun(ctx, cmd)
	if err != nil {
		return err
	}

	out := explainOutput{
		Representation:    run.explainer.Representation().String(),
		FeatureDependence: run.explainer.FeatureDependence().String(),
		NSamples:          run.explainer.NSamples(),
		Features:          make([]string, len(run.features)),
		Effects:           denseRows(run.effects),
	}
	for i, f := range run.features {
		out.Features[i] = f.String()
	}

	if err := encode(cmd, out); err != nil {
		return errors.Wrap(err, "encoding result")
	}
	return nil
}

// explanation carries everything an explain run produced.
type explanation struct {
	model      model.Predictor
	background *mat.Dense
	targets    *mat.Dense
	explainer  *marginal.Explainer
	features   []marginal.FeatureIndex
	effects    *mat.Dense
}

// loadModel resolves the configuration and loads the scoring model and the
// background it is explained against.
func loadModel(cmd *urfave.Command) (Config, model.Predictor, *mat.Dense, error) {
	cfg := *getConfig(cmd).Config
	applyFlags(cmd, &cfg)

	m, err := buildModel(cfg.Model)
	if err != nil {
		return cfg, nil, nil, err
	}
	if cfg.Data.Background == "" {
		return cfg, nil, nil, errors.NewValidationError(backgroundFlag, "a background CSV file is required", "")
	}
	background, err := readCSVFile(cfg.Data.Background, cfg.Data.Header)
	if err != nil {
		return cfg, nil, nil, err
	}
	if cfg.Data.Scale != "" {
		if m, err = scaled(m, background, cfg.Data.Scale); err != nil {
			return cfg, nil, nil, err
		}
	}
	return cfg, m, background, nil
}

// newExplainer builds the explainer for cfg. nsamples defaults to every
// background row.
func newExplainer(cfg Config, m model.Predictor, background *mat.Dense, logger log.Logger) (*marginal.Explainer, []marginal.ExplainOption, []marginal.FeatureIndex, error) {
	rows, cols := background.Dims()
	nsamples := cfg.Explainer.NSamples
	if nsamples == 0 {
		nsamples = rows
	}
	opts, explainOpts, features, err := cfg.Explainer.options(cols)
	if err != nil {
		return nil, nil, nil, err
	}
	opts = append(opts, marginal.WithLogger(logger))

	e, err := marginal.NewExplainer(m, background, nsamples, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	return e, explainOpts, features, nil
}

// explainRun loads the model and the data and computes the main effects.
func explainRun(ctx context.Context, cmd *urfave.Command) (*explanation, error) {
	logger := log.GetLoggerWithName("cli").With(log.OperationKey, cmd.Name)

	cfg, m, background, err := loadModel(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Data.Targets == "" {
		return nil, errors.NewValidationError(targetsFlag, "a targets CSV file is required", "")
	}
	targets, err := readCSVFile(cfg.Data.Targets, cfg.Data.Header)
	if err != nil {
		return nil, err
	}

	e, explainOpts, features, err := newExplainer(cfg, m, background, logger)
	if err != nil {
		return nil, err
	}
	explainOpts = append(explainOpts, marginal.WithVerbose(getConfig(cmd).Verbose))
	effects, err := e.ExplainContext(ctx, targets, explainOpts...)
	if err != nil {
		return nil, err
	}

	tr, _ := targets.Dims()
	br, _ := background.Dims()
	logger.Info("explained",
		log.SamplesKey, tr,
		log.FeaturesKey, len(features),
		log.BackgroundRowsKey, br,
	)
	return &explanation{
		model:      m,
		background: background,
		targets:    targets,
		explainer:  e,
		features:   features,
		effects:    effects,
	}, nil
}

// applyFlags copies every flag the user actually set into cfg.
func applyFlags(cmd *urfave.Command, cfg *Config) {
	if cmd.IsSet(backgroundFlag) {
		cfg.Data.Background = cmd.String(backgroundFlag)
	}
	if cmd.IsSet(targetsFlag) {
		cfg.Data.Targets = cmd.String(targetsFlag)
	}
	if cmd.IsSet(headerFlag) {
		cfg.Data.Header = cmd.Bool(headerFlag)
	}
	if cmd.IsSet(scaleFlag) {
		cfg.Data.Scale = cmd.String(scaleFlag)
	}
	if cmd.IsSet(nsamplesFlag) {
		cfg.Explainer.NSamples = cmd.Int(nsamplesFlag)
	}
	if cmd.IsSet(batchSizeFlag) {
		cfg.Explainer.BatchSize = cmd.Int(batchSizeFlag)
	}
	if cmd.IsSet(representationFlag) {
		cfg.Explainer.Representation = cmd.String(representationFlag)
	}
	if cmd.IsSet(dependenceFlag) {
		cfg.Explainer.FeatureDependence = cmd.String(dependenceFlag)
	}
	if cmd.IsSet(featuresFlag) {
		cfg.Explainer.Features = cmd.String(featuresFlag)
	}
	if cmd.IsSet(seedFlag) {
		seed := cmd.Int64(seedFlag)
		cfg.Explainer.Seed = &seed
	}
	if cmd.IsSet(jobsFlag) {
		cfg.Explainer.Jobs = cmd.Int(jobsFlag)
	}
}

func scaled(m model.Predictor, background *mat.Dense, kind string) (model.Predictor, error) {
	sc, err := preprocessing.NewScaler(kind)
	if err != nil {
		return nil, err
	}
	if err := sc.Fit(background); err != nil {
		return nil, err
	}
	return preprocessing.NewPipeline(sc, m)
}

func denseRows(m mat.Matrix) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}
