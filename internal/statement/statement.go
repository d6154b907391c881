package statement

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/martis-game/internal/token"
)

// DefaultText is the statement inserted by an InsertLine action.
const DefaultText = "let s0 = 0.000"

// #region statement
// Statement is one program line: a section label, a scalar assignment with
// an immediate, or a three-register operation. cursor selects the field an
// edit applies to.
type Statement struct {
	opcode *token.Cycle[token.Mnemonic] // nil for labels
	body   operands
	cursor int
}

// CursorMove is the outcome of MoveCursorRight.
type CursorMove int

const (
	CursorAdvanced CursorMove = iota
	EndOfStatement
)

// #endregion statement

// #region grammar
var (
	reIndex = `(\d+)`
	reReal  = `(-?\d+(?:\.\d+)?)`

	grammar = []struct {
		op Operation
		re *regexp.Regexp
	}{
		{ScalarAssign, regexp.MustCompile(`^(?:let\s+)?s` + reIndex + `\s*=\s*` + reReal + `$`)},
		{DotProduct, regexp.MustCompile(`^s` + reIndex + `\s*=\s*dot\(\s*v` + reIndex + `\s*,\s*v` + reIndex + `\s*\)$`)},
		{Subtraction, regexp.MustCompile(`^s` + reIndex + `\s*=\s*s` + reIndex + `\s*-\s*s` + reIndex + `$`)},
		{Multiplication, regexp.MustCompile(`^s` + reIndex + `\s*=\s*s` + reIndex + `\s*\*\s*s` + reIndex + `$`)},
		{VectorScalarMul, regexp.MustCompile(`^v` + reIndex + `\s*=\s*v` + reIndex + `\s*\*\s*s` + reIndex + `$`)},
		{VectorAdd, regexp.MustCompile(`^v` + reIndex + `\s*=\s*v` + reIndex + `\s*\+\s*v` + reIndex + `$`)},
		{SectionLabel, regexp.MustCompile(`^(?:def\s+)?([A-Za-z_]\w*)\s*(?:\(\s*\))?\s*:?$`)},
	}
)

// #endregion grammar

// #region parse
// Parse reads one line in either the file form or a bare label token.
func Parse(line string) (*Statement, error) {
	line = strings.TrimSpace(line)
	for _, g := range grammar {
		m := g.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		s, err := build(g.op, m[1:])
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", line, err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("parse %q: %w", line, ErrInvalidStatement)
}

// Default returns a fresh DefaultText statement.
func Default() *Statement {
	s, err := Parse(DefaultText)
	if err != nil {
		panic(err)
	}
	return s
}

func build(op Operation, groups []string) (*Statement, error) {
	if op == SectionLabel {
		if !token.IsLabel(groups[0]) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLabel, groups[0])
		}
		return &Statement{body: &labelOperands{label: token.Label(groups[0])}}, nil
	}

	tokens := make([]float64, len(groups))
	for i, g := range groups {
		v, err := parseNumber(g)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStatement, err)
		}
		tokens[i] = v
	}

	mnemonic := op.Mnemonic()
	opcode := token.NewOpcode()
	if err := opcode.Seek(mnemonic); err != nil {
		return nil, err
	}
	dest, err := indexToken(groups[0])
	if err != nil {
		return nil, err
	}

	if op == ScalarAssign {
		v := tokens[1]
		if v < -10 || v > 10 {
			return nil, fmt.Errorf("%w: immediate %v out of range [-10, 10]", ErrInvalidStatement, v)
		}
		return &Statement{
			opcode: opcode,
			body:   &assignOperands{dest: dest, value: v, step: token.NewIncrement()},
		}, nil
	}

	src1, err := indexToken(groups[1])
	if err != nil {
		return nil, err
	}
	src2, err := indexToken(groups[2])
	if err != nil {
		return nil, err
	}
	return &Statement{
		opcode: opcode,
		body:   &binaryOperands{op: op, dest: dest, src1: src1, src2: src2},
	}, nil
}

// parseNumber reads unsigned whole numbers as integers and anything with a
// sign or decimal point as a real.
func parseNumber(s string) (float64, error) {
	if !strings.ContainsAny(s, "-+.") {
		n, err := strconv.Atoi(s)
		return float64(n), err
	}
	return strconv.ParseFloat(s, 64)
}

func indexToken(s string) (*token.Cycle[int], error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: index %q", ErrInvalidStatement, s)
	}
	c, err := newIndexAt(n)
	if err != nil {
		return nil, fmt.Errorf("%w: index %d: %v", ErrInvalidStatement, n, err)
	}
	return c, nil
}

// #endregion parse

// #region serialize
// Text renders the canonical file form.
func (s *Statement) Text() string { return s.body.text() }

// Display renders the compact editor form, e.g. "add 1 2 3".
func (s *Statement) Display() string { return s.body.display() }

func (s *Statement) String() string { return s.Text() }

// #endregion serialize

// #region accessors
func (s *Statement) Operation() Operation { return s.body.operation() }

func (s *Statement) IsLabel() bool { return s.opcode == nil }

// Label is the section name, or "" for non-label statements.
func (s *Statement) Label() token.Label {
	if l, ok := s.body.(*labelOperands); ok {
		return l.label
	}
	return ""
}

func (s *Statement) IsAssign() bool {
	_, ok := s.body.(*assignOperands)
	return ok
}

// Immediate is the "let" constant, or 0 for other kinds.
func (s *Statement) Immediate() float64 {
	if a, ok := s.body.(*assignOperands); ok {
		return a.value
	}
	return 0
}

// Increment is the step a "let" IncrementToken adds, or 0 for other kinds.
func (s *Statement) Increment() float64 {
	if a, ok := s.body.(*assignOperands); ok {
		return a.step.Current()
	}
	return 0
}

func (s *Statement) CursorPosition() int { return s.cursor }

// CursorColumn is the display column of the cursor within Display. Every
// mnemonic is three characters wide and operands are single digits.
func (s *Statement) CursorColumn() int {
	if s.cursor == 0 {
		return 0
	}
	return len("mne") - 1 + len(" 1")*s.cursor
}

// #endregion accessors

// #region edit
// IncrementToken advances the field under the cursor. On a "let" immediate it
// adds the current increment and clamps the magnitude into the codec range.
func (s *Statement) IncrementToken() error {
	if s.IsLabel() {
		return nil
	}
	if s.cursor == 0 {
		s.body = reshape(s.body, s.opcode.Advance())
		return nil
	}
	return s.body.advance(s.cursor)
}

// MoveCursorRight selects the next field, or reports EndOfStatement when the
// cursor is already on the last one.
func (s *Statement) MoveCursorRight() CursorMove {
	if s.cursor >= s.body.lastCursor() {
		return EndOfStatement
	}
	s.cursor++
	return CursorAdvanced
}

// ChangeIncrement cycles the step size of a "let" statement.
func (s *Statement) ChangeIncrement() error {
	a, ok := s.body.(*assignOperands)
	if !ok {
		return fmt.Errorf("change increment on %s: %w", s.Operation(), ErrInvalidCursorPosition)
	}
	a.step.Advance()
	return nil
}

func (s *Statement) DecrementToken() error {
	return fmt.Errorf("decrement token: %w", ErrUnsupported)
}

func (s *Statement) MoveCursorLeft() error {
	return fmt.Errorf("move cursor left: %w", ErrUnsupported)
}

// #endregion edit
