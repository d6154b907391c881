package logging

import "time"

// #region episode-entry
// EpisodeEntry is a single row in the episode_log table.
type EpisodeEntry struct {
	ID          int64
	EpisodeID   string
	InitialText string
	ProgramText string
	Actions     []int
	Outcome     string // "submitted" | "rejected" | "failed"
	Truncated   bool
	Score       *float64 // nil when the program was never scored
	Reward      float64
	Moves       int
	ConfigJSON  string
	Error       string
	CreatedAt   time.Time
}
// #endregion episode-entry

// #region episode-config
// EpisodeConfig captures the reward settings active for an episode.
// Serialized into episode_log.config_json so an episode can be replayed.
type EpisodeConfig struct {
	MaxLines       int     `json:"max_lines"`
	MaxLinePenalty float64 `json:"max_line_penalty"`
	MaxMoves       int     `json:"max_moves"`
}
// #endregion episode-config
