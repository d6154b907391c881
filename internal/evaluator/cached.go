package evaluator

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached memoizes scores by program text. Failed evaluations are not cached.
type Cached struct {
	inner Evaluator
	cache *lru.Cache[string, float64]
}

func NewCached(inner Evaluator, size int) (*Cached, error) {
	cache, err := lru.New[string, float64](size)
	if err != nil {
		return nil, fmt.Errorf("score cache: %w", err)
	}
	return &Cached{inner: inner, cache: cache}, nil
}

func (c *Cached) Evaluate(ctx context.Context, program string) (float64, error) {
	if score, ok := c.cache.Get(program); ok {
		return score, nil
	}
	score, err := c.inner.Evaluate(ctx, program)
	if err != nil {
		return 0, err
	}
	c.cache.Add(program, score)
	return score, nil
}

// Len is the number of cached programs.
func (c *Cached) Len() int {
	return c.cache.Len()
}
