package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// #region errors
var (
	ErrScoreOutOfRange  = errors.New("score out of range")
	ErrEvaluatorFailure = errors.New("evaluator failure")
)

// #endregion errors

// #region contract
// Evaluator scores finished program text. Scores are expected in [0, 1].
// Calls block and are never retried.
type Evaluator interface {
	Evaluate(ctx context.Context, program string) (float64, error)
}

// Func adapts a plain function to Evaluator.
type Func func(ctx context.Context, program string) (float64, error)

func (f Func) Evaluate(ctx context.Context, program string) (float64, error) {
	return f(ctx, program)
}

// Constant always returns score. Used for replay and tests.
func Constant(score float64) Evaluator {
	return Func(func(context.Context, string) (float64, error) { return score, nil })
}

// #endregion contract

// #region checked
// LegacyKnownBadScore is the value a broken upstream scorer returned for
// every program. It is only rejected when configured.
const LegacyKnownBadScore = 0.341783

// CheckConfig controls score validation.
type CheckConfig struct {
	// KnownBadScore, when set, is treated as an evaluator failure.
	KnownBadScore *float64
}

// Checked validates the scores of an inner Evaluator.
type Checked struct {
	inner  Evaluator
	config CheckConfig
}

func NewChecked(inner Evaluator, config CheckConfig) *Checked {
	return &Checked{inner: inner, config: config}
}

// Evaluate fails with ErrEvaluatorFailure when the inner evaluator errors or
// returns the known-bad score, and with ErrScoreOutOfRange outside [0, 1].
func (c *Checked) Evaluate(ctx context.Context, program string) (float64, error) {
	score, err := c.inner.Evaluate(ctx, program)
	if err != nil {
		if errors.Is(err, ErrEvaluatorFailure) || errors.Is(err, ErrScoreOutOfRange) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", ErrEvaluatorFailure, err)
	}
	if c.config.KnownBadScore != nil && score == *c.config.KnownBadScore {
		return 0, fmt.Errorf("%w: known bad score %v", ErrEvaluatorFailure, score)
	}
	if math.IsNaN(score) || score < 0 || score > 1 {
		return 0, fmt.Errorf("%w: %v not in [0, 1]", ErrScoreOutOfRange, score)
	}
	return score, nil
}

// #endregion checked

// #region episode-context
type episodeKey struct{}

// WithEpisodeID tags ctx with the episode being scored.
func WithEpisodeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, episodeKey{}, id)
}

// EpisodeIDFrom returns the episode id set by WithEpisodeID, or "".
func EpisodeIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(episodeKey{}).(string)
	return id
}

// #endregion episode-context
