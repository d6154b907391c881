package program

import (
	"errors"
	"fmt"
)

// #region errors
var (
	ErrInvalidProgram = errors.New("invalid program")
	ErrInvalidAction  = errors.New("invalid action")
	ErrTerminal       = errors.New("program already finished")
)

// #endregion errors

// #region state
// State is the editing lifecycle of a Program.
type State int

const (
	Editing   State = iota
	Submitted       // terminal: cursor moved past the last line
	Rejected        // terminal: more lines than the configured maximum
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitted:
		return "submitted"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further actions are accepted.
func (s State) Terminal() bool {
	return s != Editing
}

// #endregion state

// #region action
// Action is one symbol of the discrete action space.
type Action int

const (
	CursorRight Action = iota
	DeleteOrLeft
	IncrementToken
	ChangeIncrement
	InsertLine
)

// NumActions is the size of the action space.
const NumActions = 5

var actionNames = [NumActions]string{"right", "delete", "increment", "change_increment", "insert"}

// actionKeys are the editor keys for each action, in action order.
var actionKeys = [NumActions]byte{'l', 'h', 'k', 'j', ' '}

func (a Action) String() string {
	if a < 0 || int(a) >= NumActions {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// Key is the editor key bound to a.
func (a Action) Key() byte {
	return actionKeys[a]
}

// ActionFromIndex validates an agent-supplied action index.
func ActionFromIndex(i int) (Action, error) {
	if i < 0 || i >= NumActions {
		return 0, fmt.Errorf("action %d: %w", i, ErrInvalidAction)
	}
	return Action(i), nil
}

// ActionFromKey maps an editor key to its action.
func ActionFromKey(k byte) (Action, bool) {
	for i, c := range actionKeys {
		if c == k {
			return Action(i), true
		}
	}
	return 0, false
}

// #endregion action
