package env

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/martis-game/internal/evaluator"
	"github.com/danielpatrickdp/martis-game/internal/logging"
	"github.com/danielpatrickdp/martis-game/internal/metrics"
	"github.com/danielpatrickdp/martis-game/internal/program"
	"github.com/danielpatrickdp/martis-game/internal/reward"
	"github.com/danielpatrickdp/martis-game/internal/store"
)

// #region helpers
type recordingEvaluator struct {
	score    float64
	err      error
	programs []string
	episodes []string
}

func (r *recordingEvaluator) Evaluate(ctx context.Context, text string) (float64, error) {
	r.programs = append(r.programs, text)
	r.episodes = append(r.episodes, evaluator.EpisodeIDFrom(ctx))
	return r.score, r.err
}

var defaultReward = reward.Config{MaxLines: 20, MaxLinePenalty: 0.5}

func newEnv(t *testing.T, opts Options) *Env {
	t.Helper()
	if opts.Reward.MaxLines == 0 {
		opts.Reward = defaultReward
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, err := e.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	return e
}

func run(t *testing.T, e *Env, actions ...program.Action) StepResult {
	t.Helper()
	var res StepResult
	for _, a := range actions {
		var err error
		res, err = e.Step(context.Background(), int(a))
		if err != nil {
			t.Fatalf("Step(%s): %v", a, err)
		}
	}
	return res
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

// #endregion helpers

// #region scenario-tests
func TestSubmitSkeleton(t *testing.T) {
	ev := &recordingEvaluator{score: 0.8}
	e := newEnv(t, Options{Evaluator: ev})

	res := run(t, e, program.CursorRight, program.CursorRight)
	if res.Terminated || res.Reward != 0 || len(ev.programs) != 0 {
		t.Fatalf("episode ended early: %+v", res)
	}
	res = run(t, e, program.CursorRight)
	if !res.Terminated || res.Truncated {
		t.Fatalf("expected terminated, not truncated: %+v", res)
	}
	if res.Info.State != program.Submitted || !res.Info.Evaluated {
		t.Fatalf("unexpected info: %+v", res.Info)
	}
	if res.Reward != 0.8 {
		t.Fatalf("expected reward 0.8 for a 3-line program, got %v", res.Reward)
	}
	if len(ev.programs) != 1 || ev.programs[0] != "def Setup():\ndef Predict():\ndef Learn():\n" {
		t.Fatalf("unexpected evaluator calls: %q", ev.programs)
	}
	if ev.episodes[0] != e.EpisodeID() {
		t.Fatalf("evaluator context carried %q, want %q", ev.episodes[0], e.EpisodeID())
	}
}

func TestSubmitWithPenalty(t *testing.T) {
	ev := &recordingEvaluator{score: 0.6}
	e := newEnv(t, Options{Evaluator: ev})
	// Insert a let, walk past its three slots, then past Predict and Learn.
	res := run(t, e,
		program.InsertLine,
		program.CursorRight, program.CursorRight, program.CursorRight,
		program.CursorRight, program.CursorRight,
	)
	if res.Info.State != program.Submitted {
		t.Fatalf("expected submitted, got %s", res.Info.State)
	}
	penalty := 1 * (0.5 / 17) * 0.6
	if !near(res.Reward, 0.6-penalty) || !near(res.Info.Penalty, penalty) {
		t.Fatalf("expected reward %v, got %v", 0.6-penalty, res.Reward)
	}
	if res.Info.Moves != 6 || res.Info.Lines != 4 {
		t.Fatalf("unexpected info: %+v", res.Info)
	}
}

func TestRejectAtMaxLines(t *testing.T) {
	ev := &recordingEvaluator{score: 1}
	cfg := reward.Config{MaxLines: 5, MaxLinePenalty: 0.5}
	e := newEnv(t, Options{
		Program:   "Setup\ns0 = 1\ns1 = 2\nPredict\nLearn",
		Reward:    cfg,
		Evaluator: ev,
	})
	res := run(t, e, program.InsertLine)
	if !res.Terminated || !res.Truncated || res.Info.State != program.Rejected {
		t.Fatalf("expected rejected episode, got %+v", res)
	}
	want := -float64(6-3) * cfg.PenaltyUnit()
	if !near(res.Reward, want) {
		t.Fatalf("expected reward %v, got %v", want, res.Reward)
	}
	if len(ev.programs) != 0 || res.Info.Evaluated {
		t.Fatal("rejected program must not be evaluated")
	}
}

func TestEvaluatorFailureEndsEpisode(t *testing.T) {
	ev := &recordingEvaluator{err: evaluator.ErrEvaluatorFailure}
	e := newEnv(t, Options{Evaluator: ev})
	run(t, e, program.CursorRight, program.CursorRight)

	res, err := e.Step(context.Background(), int(program.CursorRight))
	if !errors.Is(err, evaluator.ErrEvaluatorFailure) {
		t.Fatalf("expected ErrEvaluatorFailure, got %v", err)
	}
	if !res.Terminated || res.Reward != 0 || res.Info.Evaluated {
		t.Fatalf("unexpected failure result: %+v", res)
	}
	if _, err := e.Step(context.Background(), int(program.CursorRight)); !errors.Is(err, ErrEpisodeOver) {
		t.Fatalf("expected ErrEpisodeOver, got %v", err)
	}
}

func TestMaxMovesTruncates(t *testing.T) {
	ev := &recordingEvaluator{score: 1}
	e := newEnv(t, Options{Evaluator: ev, MaxMoves: 2})
	res := run(t, e, program.IncrementToken)
	if res.Terminated {
		t.Fatal("terminated before the move cap")
	}
	res = run(t, e, program.IncrementToken)
	if !res.Terminated || !res.Truncated || res.Info.State != program.Rejected {
		t.Fatalf("expected truncated rejection, got %+v", res)
	}
	if res.Reward != 0 {
		t.Fatalf("expected zero rejection reward for 3 lines, got %v", res.Reward)
	}
}

// #endregion scenario-tests

// #region contract-tests
func TestStepBeforeReset(t *testing.T) {
	e, err := New(Options{Reward: defaultReward, Evaluator: evaluator.Constant(0)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Step(context.Background(), 0); !errors.Is(err, ErrNotReset) {
		t.Fatalf("expected ErrNotReset, got %v", err)
	}
}

func TestInvalidActionIndex(t *testing.T) {
	e := newEnv(t, Options{Evaluator: evaluator.Constant(0)})
	for _, idx := range []int{-1, program.NumActions} {
		if _, err := e.Step(context.Background(), idx); !errors.Is(err, program.ErrInvalidAction) {
			t.Fatalf("index %d: expected ErrInvalidAction, got %v", idx, err)
		}
	}
	if len(e.Actions()) != 0 {
		t.Fatal("invalid actions were counted")
	}
}

func TestNewValidation(t *testing.T) {
	tests := map[string]Options{
		"nil evaluator": {Reward: defaultReward},
		"bad reward":    {Reward: reward.Config{MaxLines: 3}, Evaluator: evaluator.Constant(0)},
		"bad program":   {Reward: defaultReward, Evaluator: evaluator.Constant(0), Program: "Predict\nSetup\nLearn"},
		"neg moves":     {Reward: defaultReward, Evaluator: evaluator.Constant(0), MaxMoves: -1},
	}
	for name, opts := range tests {
		if _, err := New(opts); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestResetStartsFreshEpisode(t *testing.T) {
	e := newEnv(t, Options{Evaluator: evaluator.Constant(0.5)})
	first := e.EpisodeID()
	run(t, e, program.InsertLine, program.CursorRight)

	obs, info, err := e.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if info.EpisodeID == first || info.EpisodeID == "" {
		t.Fatalf("expected new episode id, got %q", info.EpisodeID)
	}
	if info.Lines != 3 || info.Moves != 0 || info.State != program.Editing {
		t.Fatalf("unexpected info after reset: %+v", info)
	}
	if len(obs) != defaultReward.MaxLines*64 {
		t.Fatalf("unexpected observation size %d", len(obs))
	}
}

func TestInfoTracksCursor(t *testing.T) {
	e := newEnv(t, Options{Evaluator: evaluator.Constant(0)})
	res := run(t, e, program.InsertLine, program.CursorRight)
	if res.Info.CurrentLine != 1 || res.Info.Cursor != 1 || res.Info.CursorColumn != 4 {
		t.Fatalf("unexpected cursor info: %+v", res.Info)
	}
}

// #endregion contract-tests

// #region side-effect-tests
func TestEpisodeLoggedAndCounted(t *testing.T) {
	s, err := store.NewStore(filepath.Join(t.TempDir(), "env.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	e := newEnv(t, Options{Evaluator: evaluator.Constant(0.7), DB: s.DB(), Metrics: m})
	run(t, e, program.CursorRight, program.CursorRight, program.CursorRight)

	entry, err := logging.GetEpisode(s.DB(), e.EpisodeID())
	if err != nil {
		t.Fatalf("GetEpisode: %v", err)
	}
	if entry.Outcome != OutcomeSubmitted || entry.Score == nil || *entry.Score != 0.7 || entry.Moves != 3 {
		t.Fatalf("unexpected logged entry: %+v", entry)
	}
	if len(entry.Actions) != 3 || entry.InitialText != program.Skeleton {
		t.Fatalf("unexpected logged actions or initial text: %+v", entry)
	}
	if got := testutil.ToFloat64(m.Steps.WithLabelValues("right")); got != 3 {
		t.Errorf("expected 3 right steps, got %v", got)
	}
	if got := testutil.ToFloat64(m.Episodes.WithLabelValues(OutcomeSubmitted)); got != 1 {
		t.Errorf("expected 1 submitted episode, got %v", got)
	}
}

func TestFailedEpisodeLogged(t *testing.T) {
	s, err := store.NewStore(filepath.Join(t.TempDir(), "env.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()
	ev := &recordingEvaluator{err: errors.New("scorer offline")}
	e := newEnv(t, Options{Evaluator: ev, DB: s.DB()})
	run(t, e, program.CursorRight, program.CursorRight)
	e.Step(context.Background(), int(program.CursorRight))

	entry, err := logging.GetEpisode(s.DB(), e.EpisodeID())
	if err != nil {
		t.Fatalf("GetEpisode: %v", err)
	}
	if entry.Outcome != OutcomeFailed || entry.Score != nil || entry.Error == "" {
		t.Fatalf("unexpected failed entry: %+v", entry)
	}
}

// #endregion side-effect-tests
