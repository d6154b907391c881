package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/danielpatrickdp/martis-game/internal/logging"
	"github.com/danielpatrickdp/martis-game/internal/reward"
)

var ErrNotReplayable = errors.New("episode not replayable")

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string          `json:"description"`
	EpisodeID   string          `json:"episode_id,omitempty"`
	Program     string          `json:"program"`
	Config      FixtureConfig   `json:"config"`
	Score       float64         `json:"score"`
	Actions     []int           `json:"actions"`
	Expected    FixtureExpected `json:"expected"`
}

// FixtureConfig mirrors the reward and move-cap settings with JSON tags.
type FixtureConfig struct {
	MaxLines       int     `json:"max_lines"`
	MaxLinePenalty float64 `json:"max_line_penalty"`
	MaxMoves       int     `json:"max_moves"`
}

// FixtureExpected is the terminal outcome the actions must reproduce.
type FixtureExpected struct {
	State     string  `json:"state"`
	Reward    float64 `json:"reward"`
	Truncated bool    `json:"truncated"`
	Program   string  `json:"program"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToRewardConfig converts a FixtureConfig to the domain reward config.
func (fc *FixtureConfig) ToRewardConfig() reward.Config {
	return reward.Config{MaxLines: fc.MaxLines, MaxLinePenalty: fc.MaxLinePenalty}
}

// #endregion fixture-loader

// #region from-episode

// FixtureFromEpisode builds a fixture from a logged episode. Failed episodes
// have no score to replay against.
func FixtureFromEpisode(e logging.EpisodeEntry) (*Fixture, error) {
	if e.Outcome != "submitted" && e.Outcome != "rejected" {
		return nil, fmt.Errorf("%w: %s ended %s", ErrNotReplayable, e.EpisodeID, e.Outcome)
	}
	if e.InitialText == "" {
		return nil, fmt.Errorf("%w: %s has no initial program", ErrNotReplayable, e.EpisodeID)
	}
	var cfg logging.EpisodeConfig
	if e.ConfigJSON == "" {
		return nil, fmt.Errorf("%w: %s has no config", ErrNotReplayable, e.EpisodeID)
	}
	if err := json.Unmarshal([]byte(e.ConfigJSON), &cfg); err != nil {
		return nil, fmt.Errorf("parse episode config: %w", err)
	}

	f := &Fixture{
		Description: fmt.Sprintf("exported episode %s", e.EpisodeID),
		EpisodeID:   e.EpisodeID,
		Program:     e.InitialText,
		Config: FixtureConfig{
			MaxLines:       cfg.MaxLines,
			MaxLinePenalty: cfg.MaxLinePenalty,
			MaxMoves:       cfg.MaxMoves,
		},
		Actions: append([]int(nil), e.Actions...),
		Expected: FixtureExpected{
			State:     e.Outcome,
			Reward:    e.Reward,
			Truncated: e.Outcome == "rejected",
			Program:   e.ProgramText,
		},
	}
	if e.Score != nil {
		f.Score = *e.Score
	}
	return f, nil
}

// #endregion from-episode
