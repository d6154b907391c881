package replay

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/martis-game/internal/env"
	"github.com/danielpatrickdp/martis-game/internal/evaluator"
	"github.com/danielpatrickdp/martis-game/internal/program"
)

// rewardTolerance absorbs float formatting in hand-written fixtures.
const rewardTolerance = 1e-9

// #region types
// StepRecord captures one replayed action.
type StepRecord struct {
	Index       int
	Action      string
	Reward      float64
	Terminated  bool
	Truncated   bool
	State       string
	CurrentLine int
	Cursor      int
}

// Result is the outcome of replaying one fixture.
type Result struct {
	Steps     []StepRecord
	State     string
	Reward    float64
	Truncated bool
	Program   string
	// Unused counts actions left over after the episode ended.
	Unused int
}

// #endregion types

// #region replay
// Replay runs the fixture's actions through a fresh environment whose
// evaluator always returns the fixture score.
func Replay(ctx context.Context, f *Fixture) (Result, error) {
	e, err := env.New(env.Options{
		Program:   f.Program,
		Reward:    f.Config.ToRewardConfig(),
		MaxMoves:  f.Config.MaxMoves,
		Evaluator: evaluator.Constant(f.Score),
		Logger:    zap.NewNop(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("replay env: %w", err)
	}
	_, info, err := e.Reset()
	if err != nil {
		return Result{}, err
	}

	res := Result{State: info.State.String(), Program: info.Program}
	for i, idx := range f.Actions {
		if e.Done() {
			res.Unused = len(f.Actions) - i
			break
		}
		step, err := e.Step(ctx, idx)
		if err != nil {
			return res, fmt.Errorf("action %d (%d): %w", i, idx, err)
		}
		res.Steps = append(res.Steps, StepRecord{
			Index:       i,
			Action:      program.Action(idx).String(),
			Reward:      step.Reward,
			Terminated:  step.Terminated,
			Truncated:   step.Truncated,
			State:       step.Info.State.String(),
			CurrentLine: step.Info.CurrentLine,
			Cursor:      step.Info.Cursor,
		})
		res.State = step.Info.State.String()
		res.Reward = step.Reward
		res.Truncated = step.Truncated
		res.Program = step.Info.Program
	}
	return res, nil
}

// Compare lists every way r differs from the fixture's expectations.
func Compare(f *Fixture, r Result) []string {
	var diffs []string
	if r.State != f.Expected.State {
		diffs = append(diffs, fmt.Sprintf("state: expected %s, got %s", f.Expected.State, r.State))
	}
	if math.Abs(r.Reward-f.Expected.Reward) > rewardTolerance {
		diffs = append(diffs, fmt.Sprintf("reward: expected %v, got %v", f.Expected.Reward, r.Reward))
	}
	if r.Truncated != f.Expected.Truncated {
		diffs = append(diffs, fmt.Sprintf("truncated: expected %v, got %v", f.Expected.Truncated, r.Truncated))
	}
	if f.Expected.Program != "" && r.Program != f.Expected.Program {
		diffs = append(diffs, fmt.Sprintf("program: expected %q, got %q", f.Expected.Program, r.Program))
	}
	if r.Unused > 0 {
		diffs = append(diffs, fmt.Sprintf("%d actions after the episode ended", r.Unused))
	}
	return diffs
}

// #endregion replay
