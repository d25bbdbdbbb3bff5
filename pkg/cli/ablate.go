package cli

import (
	"context"

	urfave "github.com/urfave/cli/v3"

	"github.com/YuminosukeSato/marginal/benchmark"
	"github.com/YuminosukeSato/marginal/pkg/errors"
	"github.com/YuminosukeSato/marginal/pkg/log"
)

const (
	maxFeaturesFlag = "max-features"
	orderFlag       = "order"
)

func newAblateCmd() *urfave.Command {
	flags := append(explainFlags(),
		&urfave.IntFlag{Name: maxFeaturesFlag, Usage: "Largest number of removed features (default: all)"},
		&urfave.StringFlag{Name: orderFlag, Usage: "Removal order [most, least]", Value: "most"},
	)
	return &urfave.Command{
		Name:      "ablate",
		Usage:     "Explain the targets, then mask features by importance and report how far the model output moves",
		UsageText: `marginal-effects -c model.yaml ablate -b background.csv -t targets.csv --order least`,
		Flags:     flags,
		Action:    cmdAblate,
	}
}

// ablateOutput is the document printed by the ablate command.
type ablateOutput struct {
	Representation string                   `json:"representation" yaml:"representation"`
	Curve          *benchmark.AblationCurve `json:"curve" yaml:"curve"`
	AUC            float64                  `json:"auc" yaml:"auc"`
}

func parseOrder(s string) (benchmark.Order, error) {
	switch s {
	case "most", benchmark.MostImportantFirst.String():
		return benchmark.MostImportantFirst, nil
	case "least", benchmark.LeastImportantFirst.String():
		return benchmark.LeastImportantFirst, nil
	default:
		return 0, errors.NewValidationError(orderFlag, "must be one of most, least", s)
	}
}

func cmdAblate(ctx context.Context, cmd *urfave.Command) error {
	order, err := parseOrder(cmd.String(orderFlag))
	if err != nil {
		return err
	}

	run, err := explainRun(ctx, cmd)
	if err != nil {
		return err
	}
	// effects の列 j が特徴量 j に対応している必要がある
	_, c := run.background.Dims()
	if len(run.features) != c {
		return errors.NewValidationError(featuresFlag, "ablation needs every feature explained", len(run.features))
	}
	for j, f := range run.features {
		if len(f) != 1 || f[0] != j {
			return errors.NewValidationError(featuresFlag, "ablation needs single features in column order", f.String())
		}
	}

	curve, err := benchmark.Ablate(run.model, run.background, run.targets, run.effects,
		benchmark.WithMaxFeatures(cmd.Int(maxFeaturesFlag)),
		benchmark.WithOrder(order),
		benchmark.WithLogger(log.GetLoggerWithName("benchmark")),
	)
	if err != nil {
		return err
	}

	out := ablateOutput{
		Representation: run.explainer.Representation().String(),
		Curve:          curve,
		AUC:            curve.AUC(),
	}
	if err := encode(cmd, out); err != nil {
		return errors.Wrap(err, "encoding result")
	}
	return nil
}
