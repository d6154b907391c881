package statement

import (
	"fmt"

	"github.com/danielpatrickdp/martis-game/internal/fpcodec"
	"github.com/danielpatrickdp/martis-game/internal/token"
)

const indent = "    "

// #region operands
// operands is the kind-specific part of a statement. Cursor slot 0 (the
// opcode) is handled by Statement; implementations own slots 1..lastCursor.
type operands interface {
	operation() Operation
	lastCursor() int
	advance(pos int) error
	text() string
	display() string
	encode(w *bitWriter, focus func(slot int) bool)
}

// #endregion operands

// #region label
type labelOperands struct {
	label token.Label
}

func (l *labelOperands) operation() Operation { return SectionLabel }
func (l *labelOperands) lastCursor() int      { return 0 }

func (l *labelOperands) advance(pos int) error {
	return fmt.Errorf("label %s slot %d: %w", l.label, pos, ErrInvalidCursorPosition)
}

func (l *labelOperands) text() string    { return fmt.Sprintf("def %s():", l.label) }
func (l *labelOperands) display() string { return fmt.Sprintf("label %s:", l.label) }

// Setup, Predict, Learn occupy one-hot slots 2, 1, 0.
func (l *labelOperands) encode(w *bitWriter, focus func(int) bool) {
	w.bit(focus(0))
	w.oneHot(opcodeWidth, token.LabelSlot)
	hot := 0
	for i, lb := range token.Labels {
		if lb == l.label {
			hot = len(token.Labels) - 1 - i
		}
	}
	w.oneHot(len(token.Labels), hot)
}

// #endregion label

// #region assign
type assignOperands struct {
	dest  *token.Cycle[int]
	value float64
	step  *token.Cycle[float64]
}

func (a *assignOperands) operation() Operation { return ScalarAssign }
func (a *assignOperands) lastCursor() int      { return 2 }

func (a *assignOperands) advance(pos int) error {
	switch pos {
	case 1:
		a.dest.Advance()
	case 2:
		a.value = fpcodec.ClampMagnitude(a.value + a.step.Current())
	default:
		return fmt.Errorf("let slot %d: %w", pos, ErrInvalidCursorPosition)
	}
	return nil
}

func (a *assignOperands) text() string {
	return fmt.Sprintf("%ss%d = %.3f", indent, a.dest.Current(), a.value)
}

func (a *assignOperands) display() string {
	return fmt.Sprintf("let %d %.3f", a.dest.Current(), a.value)
}

func (a *assignOperands) encode(w *bitWriter, focus func(int) bool) {
	w.bit(focus(0))
	w.oneHot(opcodeWidth, token.MnemonicIndex(token.Let))
	w.zeros(reservedWidth)
	w.bit(focus(1))
	w.oneHot(indexWidth, a.dest.Current())
	w.zeros(2 * (1 + indexWidth))
	w.bit(focus(2))
	w.byteMSB(fpcodec.Encode(a.value))
	w.oneHot(a.step.Len(), a.step.Position())
}

// #endregion assign

// #region binary
type binaryOperands struct {
	op               Operation
	dest, src1, src2 *token.Cycle[int]
}

func (b *binaryOperands) operation() Operation { return b.op }
func (b *binaryOperands) lastCursor() int      { return 3 }

func (b *binaryOperands) advance(pos int) error {
	switch pos {
	case 1:
		b.dest.Advance()
	case 2:
		b.src1.Advance()
	case 3:
		b.src2.Advance()
	default:
		return fmt.Errorf("%s slot %d: %w", b.op.Mnemonic(), pos, ErrInvalidCursorPosition)
	}
	return nil
}

func (b *binaryOperands) text() string {
	d, x, y := b.dest.Current(), b.src1.Current(), b.src2.Current()
	switch b.op {
	case DotProduct:
		return fmt.Sprintf("%ss%d = dot(v%d, v%d)", indent, d, x, y)
	case Subtraction:
		return fmt.Sprintf("%ss%d = s%d - s%d", indent, d, x, y)
	case Multiplication:
		return fmt.Sprintf("%ss%d = s%d * s%d", indent, d, x, y)
	case VectorScalarMul:
		return fmt.Sprintf("%sv%d = v%d * s%d", indent, d, x, y)
	default:
		return fmt.Sprintf("%sv%d = v%d + v%d", indent, d, x, y)
	}
}

func (b *binaryOperands) display() string {
	return fmt.Sprintf("%s %d %d %d", b.op.Mnemonic(), b.dest.Current(), b.src1.Current(), b.src2.Current())
}

func (b *binaryOperands) encode(w *bitWriter, focus func(int) bool) {
	w.bit(focus(0))
	w.oneHot(opcodeWidth, token.MnemonicIndex(b.op.Mnemonic()))
	w.zeros(reservedWidth)
	for slot, c := range []*token.Cycle[int]{b.dest, b.src1, b.src2} {
		w.bit(focus(slot + 1))
		w.oneHot(indexWidth, c.Current())
	}
}

// #endregion binary

// #region builders
func newIndexAt(v int) (*token.Cycle[int], error) {
	c := token.NewIndex()
	if err := c.Seek(v); err != nil {
		return nil, err
	}
	return c, nil
}

// reshape rebuilds body for a new opcode, keeping the destination index and,
// between binary forms, the source indices.
func reshape(body operands, m token.Mnemonic) operands {
	op := operationFor(m)
	var dest, src1, src2 *token.Cycle[int]
	switch b := body.(type) {
	case *assignOperands:
		dest = b.dest
	case *binaryOperands:
		dest, src1, src2 = b.dest, b.src1, b.src2
	}
	if dest == nil {
		dest = token.NewIndex()
	}
	if op == ScalarAssign {
		return &assignOperands{dest: dest, step: token.NewIncrement()}
	}
	if src1 == nil {
		src1, src2 = token.NewIndex(), token.NewIndex()
	}
	return &binaryOperands{op: op, dest: dest, src1: src1, src2: src2}
}

// #endregion builders
