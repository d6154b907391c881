package reward

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid reward config")

// #region config
// Config holds the length-penalty parameters.
type Config struct {
	MaxLines       int
	MaxLinePenalty float64
}

// DefaultMaxLinePenalty is the penalty for a program at MaxLines with a
// perfect score.
const DefaultMaxLinePenalty = 0.5

func (c Config) Validate() error {
	if c.MaxLines <= 3 {
		return fmt.Errorf("%w: max lines %d must exceed 3", ErrInvalidConfig, c.MaxLines)
	}
	if c.MaxLinePenalty < 0 {
		return fmt.Errorf("%w: negative max line penalty %v", ErrInvalidConfig, c.MaxLinePenalty)
	}
	return nil
}

// PenaltyUnit is the penalty per statement beyond the three labels.
func (c Config) PenaltyUnit() float64 {
	return c.MaxLinePenalty / float64(c.MaxLines-3)
}

// #endregion config

// #region result
// Result is the terminal reward breakdown. Score is meaningful only when
// Evaluated is set.
type Result struct {
	Reward    float64
	Penalty   float64
	Score     float64
	Evaluated bool
}

// Submitted scales the length penalty by score.
func (c Config) Submitted(lines int, score float64) Result {
	penalty := float64(lines-3) * c.PenaltyUnit() * score
	return Result{
		Reward:    score - penalty,
		Penalty:   penalty,
		Score:     score,
		Evaluated: true,
	}
}

// Rejected programs are never scored.
func (c Config) Rejected(lines int) Result {
	penalty := float64(lines-3) * c.PenaltyUnit()
	return Result{Reward: -penalty, Penalty: penalty}
}

// #endregion result
