package program

import (
	"fmt"
	"strings"

	bitfield "github.com/prysmaticlabs/go-bitfield"

	"github.com/danielpatrickdp/martis-game/internal/statement"
	"github.com/danielpatrickdp/martis-game/internal/token"
)

// #region constants
const (
	// DefaultMaxLines is the longest program an episode may build.
	DefaultMaxLines = 20

	// Skeleton is the minimal valid program.
	Skeleton = "Setup\nPredict\nLearn"
)

// LabelCount is the number of section labels every program carries.
var LabelCount = len(token.Labels)

// #endregion constants

// #region program
// Program is an ordered list of statements with a line cursor. It is edited
// only through Step and is not safe for concurrent use.
type Program struct {
	lines    []*statement.Statement
	current  int
	maxLines int
	state    State
}

// #endregion program

// #region constructors
// Parse builds a Program from text. Comments start with '#'; blank lines are
// skipped. The result is structurally valid or an error is returned.
func Parse(text string, maxLines int) (*Program, error) {
	if maxLines <= LabelCount {
		return nil, fmt.Errorf("max lines %d: %w", maxLines, token.ErrInvalidConfiguration)
	}
	var lines []*statement.Statement
	for n, raw := range strings.Split(text, "\n") {
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		s, err := statement.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		lines = append(lines, s)
	}
	if err := Validate(lines); err != nil {
		return nil, err
	}
	if len(lines) > maxLines {
		return nil, fmt.Errorf("%w: %d lines exceeds maximum %d", ErrInvalidProgram, len(lines), maxLines)
	}
	return &Program{lines: lines, maxLines: maxLines}, nil
}

// Reset returns the Skeleton program.
func Reset(maxLines int) (*Program, error) {
	return Parse(Skeleton, maxLines)
}

// #endregion constructors

// #region validate
// Validate checks the structural contract: line 0 is Setup and exactly the
// three labels appear, in order Setup, Predict, Learn.
func Validate(lines []*statement.Statement) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: empty program", ErrInvalidProgram)
	}
	if lines[0].Label() != token.Setup {
		return fmt.Errorf("%w: first line must be a %s label", ErrInvalidProgram, token.Setup)
	}
	var labels []token.Label
	for _, s := range lines {
		if s.IsLabel() {
			labels = append(labels, s.Label())
		}
	}
	if len(labels) != LabelCount {
		return fmt.Errorf("%w: program must contain exactly %d labels, found %d", ErrInvalidProgram, LabelCount, len(labels))
	}
	for i, want := range token.Labels {
		if labels[i] != want {
			return fmt.Errorf("%w: label %d must be %s, found %s", ErrInvalidProgram, i+1, want, labels[i])
		}
	}
	return nil
}

// #endregion validate

// #region step
// Step applies one action. The returned state is terminal once the cursor
// moves past the last line (Submitted) or the program grows beyond its
// maximum length (Rejected). Errors other than ErrTerminal indicate a broken
// internal invariant.
func (p *Program) Step(a Action) (State, error) {
	if p.state.Terminal() {
		return p.state, fmt.Errorf("step %s: %w", a, ErrTerminal)
	}
	cur := p.lines[p.current]

	switch a {
	case CursorRight:
		if cur.MoveCursorRight() == statement.EndOfStatement {
			if p.current == len(p.lines)-1 {
				p.state = Submitted
				return p.state, nil
			}
			p.current++
		}
	case DeleteOrLeft:
		// Line 0 is always a label, so current never underflows.
		if !cur.IsLabel() {
			p.lines = append(p.lines[:p.current], p.lines[p.current+1:]...)
			p.current--
		}
	case IncrementToken:
		if !cur.IsLabel() {
			if err := cur.IncrementToken(); err != nil {
				return p.state, fmt.Errorf("line %d: %w", p.current, err)
			}
		}
	case ChangeIncrement:
		if cur.IsAssign() && cur.CursorPosition() == 2 {
			if err := cur.ChangeIncrement(); err != nil {
				return p.state, fmt.Errorf("line %d: %w", p.current, err)
			}
		}
	case InsertLine:
		at := p.current + 1
		p.lines = append(p.lines, nil)
		copy(p.lines[at+1:], p.lines[at:])
		p.lines[at] = statement.Default()
		p.current = at
	default:
		return p.state, fmt.Errorf("step %d: %w", int(a), ErrInvalidAction)
	}

	if len(p.lines) > p.maxLines {
		p.state = Rejected
	}
	return p.state, nil
}

// #endregion step

// #region edit-helpers
// InsertStatement places s at index at, keeping the structural contract.
func (p *Program) InsertStatement(at int, s *statement.Statement) error {
	if at < 1 || at > len(p.lines) {
		return fmt.Errorf("insert at %d: %w: index out of range", at, ErrInvalidProgram)
	}
	lines := make([]*statement.Statement, 0, len(p.lines)+1)
	lines = append(lines, p.lines[:at]...)
	lines = append(lines, s)
	lines = append(lines, p.lines[at:]...)
	if err := Validate(lines); err != nil {
		return fmt.Errorf("insert at %d: %w", at, err)
	}
	p.lines = lines
	if at <= p.current {
		p.current++
	}
	return nil
}

// #endregion edit-helpers

// #region accessors
func (p *Program) State() State { return p.state }

func (p *Program) Len() int { return len(p.lines) }

func (p *Program) MaxLines() int { return p.maxLines }

func (p *Program) CurrentLine() int { return p.current }

// Current is the statement under the line cursor.
func (p *Program) Current() *statement.Statement { return p.lines[p.current] }

// Lines returns the statements in order. The slice is a copy; the statements
// are shared.
func (p *Program) Lines() []*statement.Statement {
	out := make([]*statement.Statement, len(p.lines))
	copy(out, p.lines)
	return out
}

// #endregion accessors

// #region serialize
// Text renders the program file, one statement per line.
func (p *Program) Text() string {
	var b strings.Builder
	for _, s := range p.lines {
		b.WriteString(s.Text())
		b.WriteByte('\n')
	}
	return b.String()
}

// Display renders each line in the compact editor form.
func (p *Program) Display() []string {
	out := make([]string, len(p.lines))
	for i, s := range p.lines {
		out[i] = s.Display()
	}
	return out
}

func (p *Program) String() string {
	var b strings.Builder
	b.WriteString(p.Text())
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Current line: %d\n", p.current)
	fmt.Fprintf(&b, "Cursor: %d\n", p.Current().CursorPosition())
	return b.String()
}

// #endregion serialize

// #region observation
// Encoded returns one 64-bit block per line, padded with zero blocks up to
// MaxLines. Only the current line carries a cursor flag.
func (p *Program) Encoded() []bitfield.Bitvector64 {
	out := make([]bitfield.Bitvector64, p.maxLines)
	for i := range out {
		if i < len(p.lines) {
			out[i] = p.lines[i].Encode(i == p.current)
		} else {
			out[i] = bitfield.NewBitvector64()
		}
	}
	return out
}

// Observation flattens Encoded into MaxLines*64 values of 0 or 1.
func (p *Program) Observation() []uint8 {
	obs := make([]uint8, 0, p.maxLines*statement.Word)
	for _, v := range p.Encoded() {
		obs = append(obs, statement.Unpack(v)...)
	}
	return obs
}

// #endregion observation
