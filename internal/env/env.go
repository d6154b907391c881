package env

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/martis-game/internal/evaluator"
	"github.com/danielpatrickdp/martis-game/internal/logging"
	"github.com/danielpatrickdp/martis-game/internal/metrics"
	"github.com/danielpatrickdp/martis-game/internal/program"
	"github.com/danielpatrickdp/martis-game/internal/reward"
)

// #region errors
var (
	ErrNotReset    = errors.New("environment not reset")
	ErrEpisodeOver = errors.New("episode over")
)

// #endregion errors

// #region outcomes
// Episode outcomes as logged and counted.
const (
	OutcomeSubmitted = "submitted"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// #endregion outcomes

// #region types
// Options configures an Env. Evaluator is required.
type Options struct {
	Program   string // initial program text; empty means the skeleton
	Reward    reward.Config
	MaxMoves  int // 0 disables the cap
	Evaluator evaluator.Evaluator
	DB        *sql.DB // optional episode log
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// Info describes the episode after a reset or step.
type Info struct {
	EpisodeID    string
	Moves        int
	Lines        int
	CurrentLine  int
	Cursor       int
	CursorColumn int
	State        program.State
	Score        float64
	Evaluated    bool
	Penalty      float64
	Program      string
}

type StepResult struct {
	Observation []uint8
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        Info
}

// Env is a single-episode editing environment. It is not safe for
// concurrent use.
type Env struct {
	opts    Options
	log     *zap.Logger
	prog    *program.Program
	id      string
	moves   int
	actions []int
	state   program.State
	result  reward.Result
	over    bool
}

// #endregion types

// #region constructor
func New(opts Options) (*Env, error) {
	if opts.Evaluator == nil {
		return nil, fmt.Errorf("env: nil evaluator")
	}
	if err := opts.Reward.Validate(); err != nil {
		return nil, fmt.Errorf("env: %w", err)
	}
	if opts.MaxMoves < 0 {
		return nil, fmt.Errorf("env: negative max moves %d", opts.MaxMoves)
	}
	if opts.Program == "" {
		opts.Program = program.Skeleton
	}
	if _, err := program.Parse(opts.Program, opts.Reward.MaxLines); err != nil {
		return nil, fmt.Errorf("env: initial program: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Env{opts: opts, log: log}, nil
}

// #endregion constructor

// #region reset
// Reset starts a new episode from the initial program.
func (e *Env) Reset() ([]uint8, Info, error) {
	p, err := program.Parse(e.opts.Program, e.opts.Reward.MaxLines)
	if err != nil {
		return nil, Info{}, fmt.Errorf("reset: %w", err)
	}
	e.prog = p
	e.id = uuid.New().String()
	e.moves = 0
	e.actions = nil
	e.state = program.Editing
	e.result = reward.Result{}
	e.over = false
	e.log.Debug("episode reset", zap.String("episode", e.id), zap.Int("lines", p.Len()))
	return p.Observation(), e.info(), nil
}

// #endregion reset

// #region step
// Step applies one action index. Reward is non-zero only on the terminal
// transition. An evaluator error ends the episode and is returned with the
// terminated result.
func (e *Env) Step(ctx context.Context, index int) (StepResult, error) {
	if e.prog == nil {
		return StepResult{}, ErrNotReset
	}
	if e.over {
		return StepResult{}, fmt.Errorf("%w: %s", ErrEpisodeOver, e.id)
	}
	action, err := program.ActionFromIndex(index)
	if err != nil {
		return StepResult{}, err
	}

	st, err := e.prog.Step(action)
	if err != nil {
		return StepResult{}, fmt.Errorf("step %s: %w", action, err)
	}
	e.moves++
	e.actions = append(e.actions, index)
	e.state = st
	e.opts.Metrics.ObserveStep(action.String())

	truncated := false
	if st == program.Editing && e.opts.MaxMoves > 0 && e.moves >= e.opts.MaxMoves {
		e.state = program.Rejected
		truncated = true
	}

	switch e.state {
	case program.Submitted:
		return e.submit(ctx)
	case program.Rejected:
		e.result = e.opts.Reward.Rejected(e.prog.Len())
		e.finish(OutcomeRejected, truncated, nil)
		return StepResult{
			Observation: e.prog.Observation(),
			Reward:      e.result.Reward,
			Terminated:  true,
			Truncated:   true,
			Info:        e.info(),
		}, nil
	}
	return StepResult{Observation: e.prog.Observation(), Info: e.info()}, nil
}

func (e *Env) submit(ctx context.Context) (StepResult, error) {
	text := e.prog.Text()
	start := time.Now()
	score, err := e.opts.Evaluator.Evaluate(evaluator.WithEpisodeID(ctx, e.id), text)
	e.opts.Metrics.ObserveEvaluation(time.Since(start))

	res := StepResult{Observation: e.prog.Observation(), Terminated: true}
	if err != nil {
		e.finish(OutcomeFailed, false, err)
		res.Info = e.info()
		return res, fmt.Errorf("evaluate episode %s: %w", e.id, err)
	}
	e.result = e.opts.Reward.Submitted(e.prog.Len(), score)
	e.finish(OutcomeSubmitted, false, nil)
	res.Reward = e.result.Reward
	res.Info = e.info()
	return res, nil
}

// #endregion step

// #region accessors
// Program is the program being edited, nil before the first Reset.
func (e *Env) Program() *program.Program { return e.prog }

func (e *Env) EpisodeID() string { return e.id }

// Done reports whether the current episode has ended.
func (e *Env) Done() bool { return e.over }

// Actions returns the action indices applied this episode.
func (e *Env) Actions() []int {
	out := make([]int, len(e.actions))
	copy(out, e.actions)
	return out
}

// #endregion accessors

// #region helpers
func (e *Env) info() Info {
	cur := e.prog.Current()
	return Info{
		EpisodeID:    e.id,
		Moves:        e.moves,
		Lines:        e.prog.Len(),
		CurrentLine:  e.prog.CurrentLine(),
		Cursor:       cur.CursorPosition(),
		CursorColumn: cur.CursorColumn(),
		State:        e.state,
		Score:        e.result.Score,
		Evaluated:    e.result.Evaluated,
		Penalty:      e.result.Penalty,
		Program:      e.prog.Text(),
	}
}

func (e *Env) finish(outcome string, truncated bool, cause error) {
	e.over = true
	e.opts.Metrics.ObserveEpisode(outcome, e.result.Reward, cause == nil)

	fields := []zap.Field{
		zap.String("episode", e.id),
		zap.String("outcome", outcome),
		zap.Int("moves", e.moves),
		zap.Int("lines", e.prog.Len()),
	}
	if cause != nil {
		e.log.Error("episode failed", append(fields, zap.Error(cause))...)
	} else {
		e.log.Info("episode finished", append(fields, zap.Float64("reward", e.result.Reward), zap.Bool("truncated", truncated))...)
	}

	if e.opts.DB == nil {
		return
	}
	entry := logging.EpisodeEntry{
		EpisodeID:   e.id,
		InitialText: e.opts.Program,
		ProgramText: e.prog.Text(),
		Actions:     e.Actions(),
		Outcome:     outcome,
		Truncated:   truncated,
		Reward:      e.result.Reward,
		Moves:       e.moves,
	}
	if e.result.Evaluated {
		score := e.result.Score
		entry.Score = &score
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	cfgJSON, err := json.Marshal(logging.EpisodeConfig{
		MaxLines:       e.opts.Reward.MaxLines,
		MaxLinePenalty: e.opts.Reward.MaxLinePenalty,
		MaxMoves:       e.opts.MaxMoves,
	})
	if err == nil {
		entry.ConfigJSON = string(cfgJSON)
	}
	if err := logging.LogEpisode(e.opts.DB, entry); err != nil {
		e.log.Error("log episode", zap.String("episode", e.id), zap.Error(err))
	}
}

// #endregion helpers
