package evaluator

import (
	"context"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/martis-game/internal/store"
)

// HighScoreStore persists a program when it beats the best score so far.
type HighScoreStore interface {
	RecordIfHigher(hs store.HighScore) (bool, error)
}

// Recorder side-logs new high scores. A failure to persist is logged and
// never changes the score returned to the caller.
type Recorder struct {
	inner Evaluator
	store HighScoreStore
	log   *zap.Logger
}

func NewRecorder(inner Evaluator, hs HighScoreStore, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{inner: inner, store: hs, log: log}
}

func (r *Recorder) Evaluate(ctx context.Context, program string) (float64, error) {
	score, err := r.inner.Evaluate(ctx, program)
	if err != nil {
		return 0, err
	}
	episodeID := EpisodeIDFrom(ctx)
	recorded, err := r.store.RecordIfHigher(store.HighScore{
		EpisodeID: episodeID,
		Program:   program,
		Score:     score,
	})
	if err != nil {
		r.log.Error("record high score", zap.String("episode", episodeID), zap.Error(err))
		return score, nil
	}
	if recorded {
		r.log.Info("new high score", zap.String("episode", episodeID), zap.Float64("score", score))
	}
	return score, nil
}
