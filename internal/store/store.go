package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS high_scores (
	id            TEXT PRIMARY KEY,
	episode_id    TEXT,
	program_text  TEXT NOT NULL,
	score         REAL NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS high_score_marker (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	high_score_id TEXT NOT NULL,
	FOREIGN KEY (high_score_id) REFERENCES high_scores(id)
);

CREATE TABLE IF NOT EXISTS episode_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	episode_id    TEXT NOT NULL,
	initial_text  TEXT,
	program_text  TEXT NOT NULL,
	actions_json  TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	truncated     INTEGER NOT NULL DEFAULT 0,
	score         REAL,
	reward        REAL NOT NULL,
	moves         INTEGER NOT NULL,
	config_json   TEXT,
	error         TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_episode_log_episode ON episode_log(episode_id);
`
// #endregion schema

// #region types
// HighScore is one persisted best-so-far program.
type HighScore struct {
	ID        string
	EpisodeID string
	Program   string
	Score     float64
	CreatedAt time.Time
}
// #endregion types

// #region store-struct
// Store persists high scores and the episode log in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the episode log.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #region last-high-score
// LastHighScore returns the record the marker points at. ok is false when
// nothing has been recorded yet.
func (s *Store) LastHighScore() (HighScore, bool, error) {
	return lastHighScore(s.db)
}

type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

func lastHighScore(q queryer) (HighScore, bool, error) {
	row := q.QueryRow(
		`SELECT h.id, h.episode_id, h.program_text, h.score, h.created_at
		 FROM high_score_marker m JOIN high_scores h ON h.id = m.high_score_id
		 WHERE m.id = 1`,
	)
	hs, err := scanHighScore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return HighScore{}, false, nil
	}
	if err != nil {
		return HighScore{}, false, fmt.Errorf("get marker: %w", err)
	}
	return hs, true, nil
}
// #endregion last-high-score

// #region record
// RecordIfHigher stores hs and moves the marker to it when its score beats
// the current best. Ties keep the existing record.
func (s *Store) RecordIfHigher(hs HighScore) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	last, ok, err := lastHighScore(tx)
	if err != nil {
		return false, err
	}
	if ok && hs.Score <= last.Score {
		return false, nil
	}

	if hs.ID == "" {
		hs.ID = uuid.New().String()
	}
	if hs.CreatedAt.IsZero() {
		hs.CreatedAt = time.Now().UTC()
	}

	_, err = tx.Exec(
		`INSERT INTO high_scores (id, episode_id, program_text, score, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		hs.ID, nullIfEmpty(hs.EpisodeID), hs.Program, hs.Score, hs.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("insert high score: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO high_score_marker (id, high_score_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET high_score_id = excluded.high_score_id`,
		hs.ID,
	)
	if err != nil {
		return false, fmt.Errorf("set marker: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}
// #endregion record

// #region list
// ListHighScores returns recorded high scores, best first.
func (s *Store) ListHighScores(limit int) ([]HighScore, error) {
	rows, err := s.db.Query(
		`SELECT id, episode_id, program_text, score, created_at
		 FROM high_scores ORDER BY score DESC, created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query high scores: %w", err)
	}
	defer rows.Close()

	var out []HighScore
	for rows.Next() {
		hs, err := scanHighScore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan high score: %w", err)
		}
		out = append(out, hs)
	}
	return out, rows.Err()
}
// #endregion list

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanHighScore(sc scanner) (HighScore, error) {
	var (
		hs        HighScore
		episodeID sql.NullString
		createdAt string
	)
	if err := sc.Scan(&hs.ID, &episodeID, &hs.Program, &hs.Score, &createdAt); err != nil {
		return HighScore{}, err
	}
	hs.EpisodeID = episodeID.String
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return HighScore{}, fmt.Errorf("parse created_at: %w", err)
	}
	hs.CreatedAt = t
	return hs, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
