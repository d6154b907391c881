package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/danielpatrickdp/martis-game/internal/logging"
	"github.com/danielpatrickdp/martis-game/internal/replay"
	"github.com/danielpatrickdp/martis-game/internal/store"
)

// #region main
func main() {
	app := &cli.App{
		Name:  "fixture-export",
		Usage: "export a logged episode as a replay fixture",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Required: true, Usage: "path to the martis database"},
			&cli.StringFlag{Name: "episode", Usage: "episode id (default: most recent replayable episode)"},
			&cli.StringFlag{Name: "out", Required: true, Usage: "output fixture JSON path"},
			&cli.StringFlag{Name: "description", Usage: "fixture description"},
		},
		Action: func(c *cli.Context) error {
			return run(c.String("db"), c.String("episode"), c.String("out"), c.String("description"))
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export
func run(dbPath, episodeID, outPath, description string) error {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	f, err := findFixture(st, episodeID)
	if err != nil {
		return err
	}
	if description != "" {
		f.Description = description
	}
	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}
	fmt.Printf("wrote %s: episode %s, %d actions, expected %s reward=%.6f\n",
		outPath, f.EpisodeID, len(f.Actions), f.Expected.State, f.Expected.Reward)
	return nil
}

// findFixture loads the named episode, or scans recent episodes for the
// newest one that can be replayed.
func findFixture(st *store.Store, episodeID string) (*replay.Fixture, error) {
	if episodeID != "" {
		e, err := logging.GetEpisode(st.DB(), episodeID)
		if err != nil {
			return nil, err
		}
		return replay.FixtureFromEpisode(e)
	}
	entries, err := logging.ListEpisodes(st.DB(), 100)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if f, err := replay.FixtureFromEpisode(e); err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no replayable episode in the last %d", len(entries))
}

// #endregion export
