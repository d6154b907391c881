package token

import (
	"errors"
	"fmt"
)

// #region errors
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrValueNotFound        = errors.New("value not found")
	ErrUnsupported          = errors.New("unsupported operation")
)

// #endregion errors

// #region cycle
// Cycle is a cursor over a fixed, non-empty list of values that wraps from the
// last value back to the first on Advance.
type Cycle[T comparable] struct {
	values []T
	index  int
}

// New copies values into a fresh Cycle. An empty list is rejected.
func New[T comparable](values []T) (*Cycle[T], error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("new cycle: %w: no values", ErrInvalidConfiguration)
	}
	v := make([]T, len(values))
	copy(v, values)
	return &Cycle[T]{values: v}, nil
}

// Must is New for the package-level value tables, which are never empty.
func Must[T comparable](values []T) *Cycle[T] {
	c, err := New(values)
	if err != nil {
		panic(err)
	}
	return c
}

// Current returns the selected value. A fresh cycle selects the first value.
func (c *Cycle[T]) Current() T {
	return c.values[c.index]
}

// Position is the index of Current within Values.
func (c *Cycle[T]) Position() int {
	return c.index
}

// Advance moves to the next value, wrapping at the end, and returns it.
func (c *Cycle[T]) Advance() T {
	c.index = (c.index + 1) % len(c.values)
	return c.values[c.index]
}

// Seek advances until Current equals target.
func (c *Cycle[T]) Seek(target T) error {
	if !c.Contains(target) {
		return fmt.Errorf("seek %v: %w", target, ErrValueNotFound)
	}
	for c.Current() != target {
		c.Advance()
	}
	return nil
}

// Retreat would step backwards. The action space has no "previous" move.
func (c *Cycle[T]) Retreat() error {
	return fmt.Errorf("retreat: %w", ErrUnsupported)
}

// Contains reports whether v is one of the cycle's values.
func (c *Cycle[T]) Contains(v T) bool {
	return indexOf(c.values, v) >= 0
}

// Len is the number of values in the cycle.
func (c *Cycle[T]) Len() int {
	return len(c.values)
}

// Values returns a copy of the underlying list.
func (c *Cycle[T]) Values() []T {
	v := make([]T, len(c.values))
	copy(v, c.values)
	return v
}

func (c *Cycle[T]) String() string {
	return fmt.Sprint(c.Current())
}

// #endregion cycle

// #region helpers
func indexOf[T comparable](values []T, v T) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}

// #endregion helpers
