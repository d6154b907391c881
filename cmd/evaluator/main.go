package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/martis-game/internal/config"
	"github.com/danielpatrickdp/martis-game/internal/evaluator"
)

// #region main
func main() {
	app := &cli.App{
		Name:      "evaluator",
		Usage:     "serve a command-backed program evaluator over gRPC",
		ArgsUsage: "-- <scorer> [args...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Value: ":50051", Usage: "gRPC listen address", EnvVars: []string{"MARTIS_EVALUATOR_ADDR"}},
			&cli.DurationFlag{Name: "timeout", Usage: "per-program scoring timeout"},
			&cli.Float64Flag{Name: "known-bad-score", Usage: "treat this score as a scorer failure"},
			&cli.IntFlag{Name: "cache-size", Value: 1024, Usage: "programs to memoize, 0 disables"},
			&cli.BoolFlag{Name: "verbose", Usage: "development logging"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// #endregion main

// #region serve
func run(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("usage: evaluator [flags] -- <scorer> [args...]", 2)
	}
	var log *zap.Logger
	var err error
	if c.Bool("verbose") {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg := config.EvaluatorConfig{
		Mode:      config.ModeCommand,
		Command:   c.Args().Slice(),
		Timeout:   c.Duration("timeout"),
		CacheSize: c.Int("cache-size"),
	}
	if c.IsSet("known-bad-score") {
		v := c.Float64("known-bad-score")
		cfg.KnownBadScore = &v
	}
	ev, closeEv, err := evaluator.FromConfig(cfg, nil, log)
	if err != nil {
		return err
	}
	defer closeEv()

	lis, err := net.Listen("tcp", c.String("listen"))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := evaluator.NewServer(ev)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("shutting down")
		srv.GracefulStop()
	}()

	log.Info("evaluator listening", zap.String("addr", lis.Addr().String()), zap.Strings("command", cfg.Command))
	return srv.Serve(lis)
}

// #endregion serve
