// Package cli implements the marginal-effects command line tool.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/marginal/pkg/errors"
	"github.com/YuminosukeSato/marginal/pkg/log"
)

const (
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"

	configFlag   = "config"
	logLevelFlag = "log-level"
	consoleFlag  = "console"
	formatFlag   = "format"
	verboseFlag  = "verbose"
)

var (
	version = "v0.0.1-default"
	commit  = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		log.GetLoggerWithName("cli").Error("fatal error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Config  *Config
	Format  string
	Verbose bool
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

// newApp builds a fresh command tree. Flags keep parse state, so every run
// gets its own.
func newApp(stdout, stderr io.Writer) *urfave.Command {
	return &urfave.Command{
		Name:            "marginal-effects",
		Version:         fmt.Sprintf("%s (%s)", version, commit),
		Usage:           "Estimate per-feature main effects of a model by Monte-Carlo sampling",
		HideHelpCommand: true,
		Writer:          stdout,
		ErrWriter:       stderr,
		Metadata:        map[string]any{},
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    configFlag,
				Aliases: []string{"c"},
				Usage:   "Path to the YAML file describing the model, data and explainer",
			},
			&urfave.StringFlag{
				Name:  logLevelFlag,
				Usage: "Log level [debug, info, warn, error]",
				Value: "warn",
			},
			&urfave.BoolFlag{
				Name:  consoleFlag,
				Usage: "Human readable logs instead of JSON lines",
			},
			&urfave.StringFlag{
				Name:  formatFlag,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
			&urfave.BoolFlag{
				Name:  verboseFlag,
				Usage: "Log one progress line per explained example (implies --log-level info)",
			},
		},
		Commands: []*urfave.Command{
			newExplainCmd(),
			newAblateCmd(),
			newServeCmd(),
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			verbose := cmd.Bool(verboseFlag)
			level := cmd.String(logLevelFlag)
			if verbose && !cmd.IsSet(logLevelFlag) {
				level = "info"
			}
			if err := log.SetupLogger(level, stderr, cmd.Bool(consoleFlag)); err != nil {
				return ctx, err
			}

			format := formatJSON
			switch f := cmd.String(formatFlag); f {
			case formatJSON:
			case formatYAML, "yml":
				format = formatYAML
			default:
				return ctx, errors.NewValidationError(formatFlag, "must be one of json, yaml", f)
			}

			cfg := defaultConfig()
			if path := cmd.String(configFlag); path != "" {
				var err error
				if cfg, err = loadConfig(path); err != nil {
					return ctx, err
				}
			}

			cmd.Root().Metadata[appConfigKey] = &appConfig{
				Config:  cfg,
				Format:  format,
				Verbose: verbose,
			}
			return ctx, nil
		},
	}
}

func encode(cmd *urfave.Command, v any) error {
	w := cmd.Root().Writer
	if getConfig(cmd).Format == formatYAML {
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
