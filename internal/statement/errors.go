package statement

import (
	"errors"

	"github.com/danielpatrickdp/martis-game/internal/token"
)

var (
	ErrInvalidStatement      = errors.New("invalid statement")
	ErrInvalidLabel          = errors.New("invalid label")
	ErrInvalidCursorPosition = errors.New("invalid cursor position")

	// ErrUnsupported is shared with token so callers can match either.
	ErrUnsupported = token.ErrUnsupported
)
