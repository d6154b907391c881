package evaluator

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/martis-game/internal/config"
)

func TestFromConfig_Constant(t *testing.T) {
	ms := &mockStore{}
	ev, closeFn, err := FromConfig(config.EvaluatorConfig{
		Mode:          config.ModeConstant,
		ConstantScore: 0.5,
		CacheSize:     8,
	}, ms, zap.NewNop())
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer closeFn()

	got, err := ev.Evaluate(context.Background(), "p")
	if err != nil || got != 0.5 {
		t.Fatalf("expected 0.5, got %v %v", got, err)
	}
	if len(ms.records) != 1 {
		t.Fatalf("expected the first score to be recorded, got %d records", len(ms.records))
	}
}

func TestFromConfig_ChecksRange(t *testing.T) {
	ev, closeFn, err := FromConfig(config.EvaluatorConfig{Mode: config.ModeConstant, ConstantScore: 2}, nil, nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer closeFn()
	if _, err := ev.Evaluate(context.Background(), "p"); !errors.Is(err, ErrScoreOutOfRange) {
		t.Fatalf("expected ErrScoreOutOfRange, got %v", err)
	}
}

func TestFromConfig_Errors(t *testing.T) {
	for _, cfg := range []config.EvaluatorConfig{
		{Mode: "magic"},
		{Mode: config.ModeCommand},
	} {
		if _, _, err := FromConfig(cfg, nil, nil); err == nil {
			t.Errorf("mode %q: expected error", cfg.Mode)
		}
	}
}

func TestFromConfig_RemoteDialsLazily(t *testing.T) {
	_, closeFn, err := FromConfig(config.EvaluatorConfig{Mode: config.ModeRemote, Addr: "localhost:1"}, nil, nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
