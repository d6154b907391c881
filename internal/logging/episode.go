package logging

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrEpisodeNotFound = errors.New("episode not found")

// #region log-episode
// LogEpisode writes a finished episode to the episode_log table.
func LogEpisode(db *sql.DB, entry EpisodeEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	actions := entry.Actions
	if actions == nil {
		actions = []int{}
	}
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}

	var score interface{}
	if entry.Score != nil {
		score = *entry.Score
	}

	_, err = db.Exec(
		`INSERT INTO episode_log (episode_id, initial_text, program_text, actions_json, outcome, truncated, score, reward, moves, config_json, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.EpisodeID,
		nullIfEmpty(entry.InitialText),
		entry.ProgramText,
		string(actionsJSON),
		entry.Outcome,
		entry.Truncated,
		score,
		entry.Reward,
		entry.Moves,
		nullIfEmpty(entry.ConfigJSON),
		nullIfEmpty(entry.Error),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log episode: %w", err)
	}
	return nil
}
// #endregion log-episode

// #region read-episodes
const selectEpisode = `SELECT id, episode_id, initial_text, program_text, actions_json, outcome, truncated, score, reward, moves, config_json, error, created_at FROM episode_log`

// GetEpisode returns the most recent row logged for episodeID.
func GetEpisode(db *sql.DB, episodeID string) (EpisodeEntry, error) {
	row := db.QueryRow(selectEpisode+` WHERE episode_id = ? ORDER BY id DESC LIMIT 1`, episodeID)
	e, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return EpisodeEntry{}, fmt.Errorf("%w: %s", ErrEpisodeNotFound, episodeID)
	}
	if err != nil {
		return EpisodeEntry{}, fmt.Errorf("get episode: %w", err)
	}
	return e, nil
}

// ListEpisodes returns the newest episodes first.
func ListEpisodes(db *sql.DB, limit int) ([]EpisodeEntry, error) {
	rows, err := db.Query(selectEpisode+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var out []EpisodeEntry
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
// #endregion read-episodes

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanEpisode(sc scanner) (EpisodeEntry, error) {
	var (
		e                            EpisodeEntry
		initial, configJSON, errText sql.NullString
		actionsJSON, createdAt       string
		score                        sql.NullFloat64
	)
	err := sc.Scan(&e.ID, &e.EpisodeID, &initial, &e.ProgramText, &actionsJSON, &e.Outcome,
		&e.Truncated, &score, &e.Reward, &e.Moves, &configJSON, &errText, &createdAt)
	if err != nil {
		return EpisodeEntry{}, err
	}
	e.InitialText = initial.String
	e.ConfigJSON = configJSON.String
	e.Error = errText.String
	if score.Valid {
		v := score.Float64
		e.Score = &v
	}
	if err := json.Unmarshal([]byte(actionsJSON), &e.Actions); err != nil {
		return EpisodeEntry{}, fmt.Errorf("unmarshal actions: %w", err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return EpisodeEntry{}, fmt.Errorf("parse created_at: %w", err)
	}
	return e, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
