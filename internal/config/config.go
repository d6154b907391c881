package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/martis-game/internal/reward"
)

var ErrInvalidConfig = errors.New("invalid config")

// #region types
// Evaluator modes.
const (
	ModeRemote   = "remote"
	ModeCommand  = "command"
	ModeConstant = "constant"
)

type EvaluatorConfig struct {
	Mode          string        `yaml:"mode"`
	Addr          string        `yaml:"addr"`
	Command       []string      `yaml:"command"`
	Timeout       time.Duration `yaml:"timeout"`
	KnownBadScore *float64      `yaml:"known_bad_score"`
	CacheSize     int           `yaml:"cache_size"` // 0 disables the cache
	ConstantScore float64       `yaml:"constant_score"`
}

type Config struct {
	MaxLines       int             `yaml:"max_lines"`
	MaxLinePenalty float64         `yaml:"max_line_penalty"`
	MaxMoves       int             `yaml:"max_moves"` // 0 disables the cap
	DBPath         string          `yaml:"db_path"`
	Evaluator      EvaluatorConfig `yaml:"evaluator"`
}

// #endregion types

// #region defaults
func Default() Config {
	return Config{
		MaxLines:       20,
		MaxLinePenalty: reward.DefaultMaxLinePenalty,
		MaxMoves:       500,
		DBPath:         "martis.db",
		Evaluator: EvaluatorConfig{
			Mode:      ModeRemote,
			Addr:      "localhost:50051",
			Timeout:   30 * time.Second,
			CacheSize: 1024,
		},
	}
}

// #endregion defaults

// #region load
// Load reads a YAML file over the defaults and then applies environment
// overrides. An empty path loads defaults only.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.DBPath = envOr("MARTIS_DB", c.DBPath)
	c.Evaluator.Addr = envOr("MARTIS_EVALUATOR_ADDR", c.Evaluator.Addr)
	if v := os.Getenv("MARTIS_MAX_LINES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: MARTIS_MAX_LINES=%q: %v", ErrInvalidConfig, v, err)
		}
		c.MaxLines = n
	}
	return nil
}

// #endregion load

// #region validate
func (c Config) Validate() error {
	if err := c.Reward().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.MaxMoves < 0 {
		return fmt.Errorf("%w: negative max_moves %d", ErrInvalidConfig, c.MaxMoves)
	}
	if c.Evaluator.CacheSize < 0 {
		return fmt.Errorf("%w: negative cache_size %d", ErrInvalidConfig, c.Evaluator.CacheSize)
	}
	switch c.Evaluator.Mode {
	case ModeRemote:
		if c.Evaluator.Addr == "" {
			return fmt.Errorf("%w: remote evaluator needs addr", ErrInvalidConfig)
		}
	case ModeCommand:
		if len(c.Evaluator.Command) == 0 {
			return fmt.Errorf("%w: command evaluator needs command", ErrInvalidConfig)
		}
	case ModeConstant:
	default:
		return fmt.Errorf("%w: unknown evaluator mode %q", ErrInvalidConfig, c.Evaluator.Mode)
	}
	return nil
}

// #endregion validate

// Reward returns the penalty settings.
func (c Config) Reward() reward.Config {
	return reward.Config{MaxLines: c.MaxLines, MaxLinePenalty: c.MaxLinePenalty}
}

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
