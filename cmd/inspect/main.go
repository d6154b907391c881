package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/danielpatrickdp/martis-game/internal/logging"
	"github.com/danielpatrickdp/martis-game/internal/store"
)

// #region main
func main() {
	dbFlag := &cli.StringFlag{Name: "db", Value: "martis.db", Usage: "path to the martis database", EnvVars: []string{"MARTIS_DB"}}
	limitFlag := &cli.IntFlag{Name: "last", Value: 20, Usage: "show N most recent rows"}
	jsonFlag := &cli.BoolFlag{Name: "json", Usage: "output as JSON instead of table"}

	app := &cli.App{
		Name:  "inspect",
		Usage: "inspect high scores and logged episodes",
		Commands: []*cli.Command{
			{
				Name:   "scores",
				Usage:  "list recorded high scores, best first",
				Flags:  []cli.Flag{dbFlag, limitFlag, jsonFlag},
				Action: withStore(runScores),
			},
			{
				Name:   "episodes",
				Usage:  "list logged episodes, newest first",
				Flags:  []cli.Flag{dbFlag, limitFlag, jsonFlag},
				Action: withStore(runEpisodes),
			},
			{
				Name:      "episode",
				Usage:     "show one episode in detail",
				ArgsUsage: "<episode id>",
				Flags:     []cli.Flag{dbFlag, jsonFlag},
				Action:    withStore(runEpisode),
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func withStore(fn func(*cli.Context, *store.Store) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		st, err := store.NewStore(c.String("db"))
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer st.Close()
		return fn(c, st)
	}
}

// #endregion main

// #region scores
type scoreRow struct {
	ID        string    `json:"id"`
	EpisodeID string    `json:"episode_id,omitempty"`
	Score     float64   `json:"score"`
	Lines     int       `json:"lines"`
	Program   string    `json:"program"`
	CreatedAt time.Time `json:"created_at"`
}

func runScores(c *cli.Context, st *store.Store) error {
	list, err := st.ListHighScores(c.Int("last"))
	if err != nil {
		return err
	}
	rows := make([]scoreRow, len(list))
	for i, hs := range list {
		rows[i] = scoreRow{
			ID:        hs.ID,
			EpisodeID: hs.EpisodeID,
			Score:     hs.Score,
			Lines:     strings.Count(hs.Program, "\n"),
			Program:   hs.Program,
			CreatedAt: hs.CreatedAt,
		}
	}
	if c.Bool("json") {
		return printJSON(rows)
	}

	fmt.Printf("%-36s  %-10s  %-5s  %s\n", "ID", "Score", "Lines", "Created")
	for _, r := range rows {
		fmt.Printf("%-36s  %-10.6f  %-5d  %s\n", r.ID, r.Score, r.Lines, r.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// #endregion scores

// #region episodes
type episodeRow struct {
	EpisodeID string    `json:"episode_id"`
	Outcome   string    `json:"outcome"`
	Truncated bool      `json:"truncated"`
	Score     *float64  `json:"score,omitempty"`
	Reward    float64   `json:"reward"`
	Moves     int       `json:"moves"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toEpisodeRow(e logging.EpisodeEntry) episodeRow {
	return episodeRow{
		EpisodeID: e.EpisodeID,
		Outcome:   e.Outcome,
		Truncated: e.Truncated,
		Score:     e.Score,
		Reward:    e.Reward,
		Moves:     e.Moves,
		Error:     e.Error,
		CreatedAt: e.CreatedAt,
	}
}

func runEpisodes(c *cli.Context, st *store.Store) error {
	entries, err := logging.ListEpisodes(st.DB(), c.Int("last"))
	if err != nil {
		return err
	}
	rows := make([]episodeRow, len(entries))
	for i, e := range entries {
		rows[i] = toEpisodeRow(e)
	}
	if c.Bool("json") {
		return printJSON(rows)
	}

	fmt.Printf("%-36s  %-10s  %-10s  %-10s  %-5s\n", "Episode", "Outcome", "Score", "Reward", "Moves")
	for _, r := range rows {
		score := "-"
		if r.Score != nil {
			score = fmt.Sprintf("%.6f", *r.Score)
		}
		fmt.Printf("%-36s  %-10s  %-10s  %-10.6f  %-5d\n", r.EpisodeID, r.Outcome, score, r.Reward, r.Moves)
	}
	return nil
}

func runEpisode(c *cli.Context, st *store.Store) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: inspect episode --db path <episode id>", 2)
	}
	e, err := logging.GetEpisode(st.DB(), c.Args().First())
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(e)
	}
	r := toEpisodeRow(e)
	fmt.Printf("Episode:   %s\n", r.EpisodeID)
	fmt.Printf("Outcome:   %s (truncated=%v)\n", r.Outcome, r.Truncated)
	fmt.Printf("Reward:    %.6f\n", r.Reward)
	fmt.Printf("Moves:     %d\n", r.Moves)
	if r.Error != "" {
		fmt.Printf("Error:     %s\n", r.Error)
	}
	fmt.Printf("Actions:   %v\n", e.Actions)
	fmt.Printf("\n%s", e.ProgramText)
	return nil
}

// #endregion episodes

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
