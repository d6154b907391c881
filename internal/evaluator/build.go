package evaluator

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/martis-game/internal/config"
)

// FromConfig assembles the scoring chain: transport, validation, cache and,
// when hs is non-nil, high-score recording. The returned close func releases
// the transport.
func FromConfig(cfg config.EvaluatorConfig, hs HighScoreStore, log *zap.Logger) (Evaluator, func() error, error) {
	closer := func() error { return nil }

	var base Evaluator
	switch cfg.Mode {
	case config.ModeRemote:
		r, err := NewRemote(cfg.Addr)
		if err != nil {
			return nil, nil, err
		}
		base, closer = r, r.Close
	case config.ModeCommand:
		if len(cfg.Command) == 0 {
			return nil, nil, fmt.Errorf("command evaluator: empty command")
		}
		base = &Command{Path: cfg.Command[0], Args: cfg.Command[1:], Timeout: cfg.Timeout}
	case config.ModeConstant:
		base = Constant(cfg.ConstantScore)
	default:
		return nil, nil, fmt.Errorf("unknown evaluator mode %q", cfg.Mode)
	}

	var ev Evaluator = NewChecked(base, CheckConfig{KnownBadScore: cfg.KnownBadScore})
	if cfg.CacheSize > 0 {
		c, err := NewCached(ev, cfg.CacheSize)
		if err != nil {
			closer()
			return nil, nil, err
		}
		ev = c
	}
	if hs != nil {
		ev = NewRecorder(ev, hs, log)
	}
	return ev, closer, nil
}
