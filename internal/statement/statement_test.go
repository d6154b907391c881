package statement

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/martis-game/internal/token"
)

// #region helpers
func mustParse(t *testing.T, line string) *Statement {
	t.Helper()
	s, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse(%q): %v", line, err)
	}
	return s
}

func setIncrement(t *testing.T, s *Statement, step float64) {
	t.Helper()
	for i := 0; i < 20; i++ {
		if s.Increment() == step {
			return
		}
		if err := s.ChangeIncrement(); err != nil {
			t.Fatalf("ChangeIncrement: %v", err)
		}
	}
	t.Fatalf("increment %v never selected", step)
}

func setBits(t *testing.T, s *Statement, cursor bool) []int {
	t.Helper()
	var set []int
	for i, b := range s.Bits(cursor) {
		if b == 1 {
			set = append(set, i)
		}
	}
	return set
}

// #endregion helpers

// #region parse-tests
func TestParse_GrammarForms(t *testing.T) {
	tests := []struct {
		line    string
		op      Operation
		text    string
		display string
	}{
		{"s1 = 0.5", ScalarAssign, "    s1 = 0.500", "let 1 0.500"},
		{"let s0 = 0.000", ScalarAssign, "    s0 = 0.000", "let 0 0.000"},
		{"s2 = -3", ScalarAssign, "    s2 = -3.000", "let 2 -3.000"},
		{"s3 = 7", ScalarAssign, "    s3 = 7.000", "let 3 7.000"},
		{"s1 = dot(v2, v3)", DotProduct, "    s1 = dot(v2, v3)", "dot 1 2 3"},
		{"s1=dot(v2,v3)", DotProduct, "    s1 = dot(v2, v3)", "dot 1 2 3"},
		{"s4 = s5 - s6", Subtraction, "    s4 = s5 - s6", "sub 4 5 6"},
		{"s7 = s8 * s9", Multiplication, "    s7 = s8 * s9", "mul 7 8 9"},
		{"v1 = v2 * s3", VectorScalarMul, "    v1 = v2 * s3", "muv 1 2 3"},
		{"v0 = v0 + v9", VectorAdd, "    v0 = v0 + v9", "add 0 0 9"},
		{"Setup", SectionLabel, "def Setup():", "label Setup:"},
		{"def Predict():", SectionLabel, "def Predict():", "label Predict:"},
		{"  Learn  ", SectionLabel, "def Learn():", "label Learn:"},
	}
	for _, tt := range tests {
		s := mustParse(t, tt.line)
		if s.Operation() != tt.op {
			t.Errorf("%q: expected %s, got %s", tt.line, tt.op, s.Operation())
		}
		if s.Text() != tt.text {
			t.Errorf("%q: expected text %q, got %q", tt.line, tt.text, s.Text())
		}
		if s.Display() != tt.display {
			t.Errorf("%q: expected display %q, got %q", tt.line, tt.display, s.Display())
		}
	}
}

func TestParse_TextIdempotent(t *testing.T) {
	for _, line := range []string{
		"s1 = 1.23456", "s0 = -0.001", "s1 = dot(v2, v3)", "s4 = s5 - s6",
		"s7 = s8 * s9", "v1 = v2 * s3", "v0 = v0 + v9", "Setup", "Predict", "Learn",
	} {
		once := mustParse(t, line).Text()
		twice := mustParse(t, once).Text()
		if once != twice {
			t.Errorf("%q: %q != %q", line, once, twice)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"s1 = ", ErrInvalidStatement},
		{"x1 = y2 % z3", ErrInvalidStatement},
		{"s12 = 1.0", ErrInvalidStatement},
		{"v1 = v2 + v10", ErrInvalidStatement},
		{"s1 = 11.5", ErrInvalidStatement},
		{"s1 = -10.5", ErrInvalidStatement},
		// Identifier-shaped lines are label candidates, so a misspelled
		// label is ErrInvalidLabel while a non-identifier line is not.
		{"s1 = s2 % s3", ErrInvalidStatement},
		{"Predcit", ErrInvalidLabel},
		{"foo", ErrInvalidLabel},
		{"def Train():", ErrInvalidLabel},
		{"Evaluate", ErrInvalidLabel},
	}
	for _, tt := range tests {
		_, err := Parse(tt.line)
		if !errors.Is(err, tt.want) {
			t.Errorf("%q: expected %v, got %v", tt.line, tt.want, err)
		}
	}
}

func TestDefault(t *testing.T) {
	s := Default()
	if !s.IsAssign() || s.Immediate() != 0 || s.CursorPosition() != 0 {
		t.Fatalf("unexpected default statement %q", s.Text())
	}
	if s.Text() != "    s0 = 0.000" {
		t.Errorf("unexpected default text %q", s.Text())
	}
}

func TestOperation_Mnemonic(t *testing.T) {
	for _, m := range token.Mnemonics {
		if got := operationFor(m).Mnemonic(); got != m {
			t.Errorf("%s: round-tripped to %s", m, got)
		}
	}
	if got := SectionLabel.Mnemonic(); got != token.LabelMnemonic {
		t.Errorf("expected %s for section labels, got %s", token.LabelMnemonic, got)
	}
	if token.MnemonicIndex(token.LabelMnemonic) != -1 {
		t.Errorf("label must not occupy an opcode slot")
	}
}

// #endregion parse-tests

// #region cursor-tests
func TestMoveCursorRight_LegalRange(t *testing.T) {
	tests := []struct {
		line string
		last int
	}{
		{"Setup", 0},
		{"s0 = 1.0", 2},
		{"s1 = s2 - s3", 3},
	}
	for _, tt := range tests {
		s := mustParse(t, tt.line)
		for i := 0; i < tt.last; i++ {
			if got := s.MoveCursorRight(); got != CursorAdvanced {
				t.Fatalf("%q: step %d expected CursorAdvanced", tt.line, i)
			}
		}
		if got := s.MoveCursorRight(); got != EndOfStatement {
			t.Fatalf("%q: expected EndOfStatement at position %d", tt.line, tt.last)
		}
		if s.CursorPosition() != tt.last {
			t.Errorf("%q: cursor moved past %d to %d", tt.line, tt.last, s.CursorPosition())
		}
	}
}

func TestCursorColumn(t *testing.T) {
	s := mustParse(t, "s1 = s2 - s3")
	want := []int{0, 4, 6, 8}
	for i, w := range want {
		if s.CursorColumn() != w {
			t.Errorf("position %d: expected column %d, got %d", i, w, s.CursorColumn())
		}
		s.MoveCursorRight()
	}
}

func TestUnsupportedEdits(t *testing.T) {
	s := mustParse(t, "s1 = s2 - s3")
	if err := s.DecrementToken(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	if err := s.MoveCursorLeft(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

// #endregion cursor-tests

// #region increment-tests
func TestIncrementToken_LetImmediateExact(t *testing.T) {
	s := mustParse(t, "s0 = 0.000")
	setIncrement(t, s, 1.0)
	s.MoveCursorRight()
	s.MoveCursorRight()
	if err := s.IncrementToken(); err != nil {
		t.Fatalf("IncrementToken: %v", err)
	}
	if s.Immediate() != 1.0 {
		t.Fatalf("expected immediate 1.0, got %v", s.Immediate())
	}
	if s.Text() != "    s0 = 1.000" {
		t.Errorf("unexpected text %q", s.Text())
	}
}

func TestIncrementToken_LetClampsMagnitude(t *testing.T) {
	tests := []struct {
		line string
		step float64
		want float64
	}{
		{"s0 = 9.5", 1.0, 10},
		{"s0 = -9.5", -1.0, -10},
		{"s0 = 0.0005", -0.001, -0.001},
		{"s0 = 1", -1.0, 0},
	}
	for _, tt := range tests {
		s := mustParse(t, tt.line)
		setIncrement(t, s, tt.step)
		s.MoveCursorRight()
		s.MoveCursorRight()
		if err := s.IncrementToken(); err != nil {
			t.Fatalf("%q: %v", tt.line, err)
		}
		if s.Immediate() != tt.want {
			t.Errorf("%q + %v: expected %v, got %v", tt.line, tt.step, tt.want, s.Immediate())
		}
	}
}

func TestIncrementToken_OperandsWrap(t *testing.T) {
	s := mustParse(t, "s9 = s8 * s9")
	s.MoveCursorRight()
	s.IncrementToken() // dest 9 -> 0
	s.MoveCursorRight()
	s.IncrementToken() // src1 8 -> 9
	s.MoveCursorRight()
	s.IncrementToken() // src2 9 -> 0
	if s.Text() != "    s0 = s9 * s0" {
		t.Fatalf("unexpected text %q", s.Text())
	}
}

func TestIncrementToken_LabelNoOp(t *testing.T) {
	s := mustParse(t, "Predict")
	if err := s.IncrementToken(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Text() != "def Predict():" {
		t.Fatalf("label changed: %q", s.Text())
	}
}

func TestIncrementToken_OpcodeReshapes(t *testing.T) {
	s := mustParse(t, "s3 = 1.500")
	var got []string
	for i := 0; i < 6; i++ {
		if err := s.IncrementToken(); err != nil {
			t.Fatalf("IncrementToken: %v", err)
		}
		got = append(got, s.Text())
	}
	want := []string{
		"    v3 = v0 + v0",
		"    s3 = dot(v0, v0)",
		"    s3 = s0 - s0",
		"    s3 = s0 * s0",
		"    v3 = v0 * s0",
		"    s3 = 0.000",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("opcode cycle (-want +got):\n%s", diff)
	}
}

func TestIncrementToken_OpcodeKeepsSources(t *testing.T) {
	s := mustParse(t, "s1 = s2 - s3")
	s.IncrementToken() // sub -> mul
	if s.Text() != "    s1 = s2 * s3" {
		t.Fatalf("unexpected text %q", s.Text())
	}
}

func TestChangeIncrement_NotAssign(t *testing.T) {
	s := mustParse(t, "s1 = s2 - s3")
	if err := s.ChangeIncrement(); !errors.Is(err, ErrInvalidCursorPosition) {
		t.Fatalf("expected ErrInvalidCursorPosition, got %v", err)
	}
}

// #endregion increment-tests

// #region encode-tests
func TestEncode_Label(t *testing.T) {
	s := mustParse(t, "Setup")
	if diff := cmp.Diff([]int{0, 6, 9}, setBits(t, s, true)); diff != "" {
		t.Errorf("Setup bits (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{6, 7}, setBits(t, mustParse(t, "Learn"), false)); diff != "" {
		t.Errorf("Learn bits (-want +got):\n%s", diff)
	}
}

func TestEncode_Binary(t *testing.T) {
	s := mustParse(t, "s1 = s2 - s3")
	if diff := cmp.Diff([]int{0, 4, 12, 24, 36}, setBits(t, s, true)); diff != "" {
		t.Errorf("sub bits (-want +got):\n%s", diff)
	}
}

func TestEncode_Assign(t *testing.T) {
	s := mustParse(t, "s2 = 1.000")
	s.MoveCursorRight()
	s.MoveCursorRight()
	if diff := cmp.Diff([]int{1, 13, 43, 46, 47, 48, 52}, setBits(t, s, true)); diff != "" {
		t.Errorf("let bits (-want +got):\n%s", diff)
	}
}

func TestEncode_WidthAndSingleCursorFlag(t *testing.T) {
	flags := map[string][]int{
		"Setup":        {0},
		"s0 = -2.5":    {0, 10, 43},
		"v1 = v2 * s3": {0, 10, 21, 32},
	}
	for line, slots := range flags {
		s := mustParse(t, line)
		for pos := range slots {
			if s.Encode(true).Len() != Word {
				t.Fatalf("%q: expected %d bits", line, Word)
			}
			bits := s.Bits(true)
			n := 0
			for _, f := range slots {
				n += int(bits[f])
			}
			if n != 1 || bits[slots[pos]] != 1 {
				t.Errorf("%q position %d: expected exactly flag %d set", line, pos, slots[pos])
			}
			none := s.Bits(false)
			for _, f := range slots {
				if none[f] != 0 {
					t.Errorf("%q: cursor flag %d set with cursor=false", line, f)
				}
			}
			s.MoveCursorRight()
		}
	}
}

// #endregion encode-tests
