package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/martis-game/internal/logging"
	"github.com/danielpatrickdp/martis-game/internal/replay"
	"github.com/danielpatrickdp/martis-game/internal/store"
)

// #region main
func main() {
	app := &cli.App{
		Name:      "replay",
		Usage:     "replay fixtures or logged episodes and report drift",
		ArgsUsage: "[fixture.json ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "replay every *.json fixture in this directory"},
			&cli.StringFlag{Name: "db", Usage: "replay the most recent logged episodes from this database"},
			&cli.IntFlag{Name: "last", Value: 20, Usage: "number of logged episodes to replay in DB mode"},
			&cli.IntFlag{Name: "jobs", Value: runtime.NumCPU(), Usage: "concurrent replays"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// #endregion main

// #region collect
type job struct {
	name    string
	fixture *replay.Fixture
}

func run(c *cli.Context) error {
	var jobs []job
	var err error
	switch {
	case c.String("db") != "":
		jobs, err = fromDB(c.String("db"), c.Int("last"))
	default:
		paths := c.Args().Slice()
		if dir := c.String("dir"); dir != "" {
			matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
			if err != nil {
				return err
			}
			paths = append(paths, matches...)
		}
		jobs, err = fromFiles(paths)
	}
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if len(jobs) == 0 {
		return cli.Exit("usage: replay [--dir testdata | --db martis.db] [fixture.json ...]", 2)
	}

	outcomes, err := replayAll(c, jobs, c.Int("jobs"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if printComparison(jobs, outcomes) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func fromFiles(paths []string) ([]job, error) {
	jobs := make([]job, 0, len(paths))
	for _, p := range paths {
		f, err := replay.LoadFixture(p)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job{name: filepath.Base(p), fixture: f})
	}
	return jobs, nil
}

func fromDB(dbPath string, last int) ([]job, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	entries, err := logging.ListEpisodes(st.DB(), last)
	if err != nil {
		return nil, err
	}
	var jobs []job
	for _, e := range entries {
		f, err := replay.FixtureFromEpisode(e)
		if err != nil {
			// Failed episodes have nothing to compare against.
			continue
		}
		jobs = append(jobs, job{name: e.EpisodeID, fixture: f})
	}
	return jobs, nil
}

// #endregion collect

// #region replay
type outcome struct {
	result replay.Result
	diffs  []string
}

func replayAll(c *cli.Context, jobs []job, limit int) ([]outcome, error) {
	outcomes := make([]outcome, len(jobs))
	g, ctx := errgroup.WithContext(c.Context)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			r, err := replay.Replay(ctx, j.fixture)
			if err != nil {
				return fmt.Errorf("%s: %w", j.name, err)
			}
			outcomes[i] = outcome{result: r, diffs: replay.Compare(j.fixture, r)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// #endregion replay

// #region output
// printComparison outputs a comparison table and returns the number of
// diverging fixtures.
func printComparison(jobs []job, outcomes []outcome) int {
	fmt.Printf("%-38s| %-10s| %-10s| %-12s| %s\n", "Fixture", "Expected", "Replayed", "Reward", "Match")
	fmt.Printf("%-38s+%-11s+%-11s+%-13s+%s\n",
		"--------------------------------------", "-----------", "-----------", "-------------", "------")

	diverge := 0
	for i, j := range jobs {
		o := outcomes[i]
		match := "OK"
		if len(o.diffs) > 0 {
			match = "DIFF"
			diverge++
		}
		fmt.Printf("%-38s| %-10s| %-10s| %-12.6f| %s\n", j.name, j.fixture.Expected.State, o.result.State, o.result.Reward, match)
		for _, d := range o.diffs {
			fmt.Printf("    %s\n", d)
		}
	}
	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", len(jobs), len(jobs)-diverge, diverge)
	return diverge
}

// #endregion output
