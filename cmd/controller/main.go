package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/martis-game/internal/config"
	"github.com/danielpatrickdp/martis-game/internal/env"
	"github.com/danielpatrickdp/martis-game/internal/evaluator"
	"github.com/danielpatrickdp/martis-game/internal/metrics"
	"github.com/danielpatrickdp/martis-game/internal/program"
	"github.com/danielpatrickdp/martis-game/internal/store"
)

// #region main
func main() {
	app := &cli.App{
		Name:      "controller",
		Usage:     "edit a program with l h k j and space, submit by moving past the last line",
		ArgsUsage: "<program file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config path"},
			&cli.StringFlag{Name: "db", Usage: "SQLite path for high scores and the episode log (overrides config)"},
			&cli.BoolFlag{Name: "no-db", Usage: "do not persist anything"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address"},
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

// #region setup
func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: controller [flags] <program file>", 2)
	}
	path := c.Args().First()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	log, err := newLogger(c.Bool("verbose"))
	if err != nil {
		return err
	}
	defer log.Sync()

	text, err := readProgram(path)
	if err != nil {
		return err
	}

	opts := env.Options{
		Program:  text,
		Reward:   cfg.Reward(),
		MaxMoves: cfg.MaxMoves,
		Logger:   log,
	}

	var hs evaluator.HighScoreStore
	if !c.Bool("no-db") && cfg.DBPath != "" {
		st, err := store.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		hs = st
		opts.DB = st.DB()
	}

	ev, closeEv, err := evaluator.FromConfig(cfg.Evaluator, hs, log)
	if err != nil {
		return err
	}
	defer closeEv()
	opts.Evaluator = ev

	reg := prometheus.NewRegistry()
	opts.Metrics = metrics.New(reg)
	if addr := c.String("metrics-addr"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Error("metrics server", zap.Error(err))
			}
		}()
	}

	e, err := env.New(opts)
	if err != nil {
		return err
	}
	return session(c.Context, os.Stdin, os.Stdout, e, path)
}

func readProgram(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return program.Skeleton, nil
	}
	if err != nil {
		return "", fmt.Errorf("read program: %w", err)
	}
	return string(data), nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// #endregion setup

// #region session
// session plays one episode from key lines on in. Each character of a line
// is one action. The program is written back to path on submission.
func session(ctx context.Context, in io.Reader, out io.Writer, e *env.Env, path string) error {
	if _, _, err := e.Reset(); err != nil {
		return err
	}
	render(out, e.Program())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		if t := strings.TrimSpace(line); t == "quit" || t == "exit" {
			return nil
		}

		for i := 0; i < len(line); i++ {
			action, ok := program.ActionFromKey(line[i])
			if !ok {
				fmt.Fprintf(out, "unknown key %q\n", line[i])
				continue
			}
			res, err := e.Step(ctx, int(action))
			if err != nil {
				return fmt.Errorf("%s: %w", action, err)
			}
			if res.Terminated {
				render(out, e.Program())
				return finish(out, res, path)
			}
		}
		render(out, e.Program())
	}
}

func finish(out io.Writer, res env.StepResult, path string) error {
	info := res.Info
	switch info.State {
	case program.Submitted:
		fmt.Fprintf(out, "submitted: score=%.6f penalty=%.6f reward=%.6f\n", info.Score, info.Penalty, res.Reward)
		if err := os.WriteFile(path, []byte(info.Program), 0644); err != nil {
			return fmt.Errorf("write program: %w", err)
		}
	default:
		fmt.Fprintf(out, "%s after %d moves: reward=%.6f\n", info.State, info.Moves, res.Reward)
	}
	return nil
}

// render prints display lines with the current line marked and a caret under
// the cursor.
func render(out io.Writer, p *program.Program) {
	for i, line := range p.Display() {
		marker := "  "
		if i == p.CurrentLine() {
			marker = "> "
		}
		fmt.Fprintf(out, "%s%s\n", marker, line)
		if i == p.CurrentLine() {
			fmt.Fprintf(out, "  %s^\n", strings.Repeat(" ", p.Current().CursorColumn()))
		}
	}
	if cur := p.Current(); cur.IsAssign() && cur.CursorPosition() == 2 {
		fmt.Fprintf(out, "increment: %g\n", cur.Increment())
	}
}

// #endregion session
