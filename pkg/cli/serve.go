package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	urfave "github.com/urfave/cli/v3"

	"github.com/YuminosukeSato/marginal/pkg/log"
	"github.com/YuminosukeSato/marginal/pkg/server"
)

const (
	addrFlag    = "addr"
	rpsFlag     = "rps"
	burstFlag   = "burst"
	timeoutFlag = "timeout"
)

func newServeCmd() *urfave.Command {
	var flags []urfave.Flag
	for _, f := range explainFlags() {
		// 対象行はリクエストで受け取る
		if f.Names()[0] == targetsFlag {
			continue
		}
		flags = append(flags, f)
	}
	flags = append(flags,
		&urfave.StringFlag{Name: addrFlag, Usage: "Listen address", Value: ":8080"},
		&urfave.FloatFlag{Name: rpsFlag, Usage: "Explain requests admitted per second, 0 for no limit", Value: 10},
		&urfave.IntFlag{Name: burstFlag, Usage: "Burst size of the rate limiter", Value: 20},
		&urfave.DurationFlag{Name: timeoutFlag, Usage: "Upper bound for a single explain request", Value: 30 * time.Second},
	)
	return &urfave.Command{
		Name:      "serve",
		Usage:     "Serve main effects over HTTP for the configured model and background",
		UsageText: `marginal-effects -c model.yaml serve -b background.csv --addr :8080 --rps 5`,
		Flags:     flags,
		Action:    cmdServe,
	}
}

func cmdServe(ctx context.Context, cmd *urfave.Command) error {
	cfg, m, background, err := loadModel(cmd)
	if err != nil {
		return err
	}
	logger := log.GetLoggerWithName("server")
	e, _, _, err := newExplainer(cfg, m, background, logger)
	if err != nil {
		return err
	}

	_, cols := background.Dims()
	srv, err := server.New(e, cols,
		server.WithRateLimit(cmd.Float(rpsFlag), cmd.Int(burstFlag)),
		server.WithRequestTimeout(cmd.Duration(timeoutFlag)),
		server.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, cmd.String(addrFlag))
}
