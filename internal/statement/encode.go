package statement

import bitfield "github.com/prysmaticlabs/go-bitfield"

// #region layout
const (
	// Word is the width of one encoded statement.
	Word = 64

	opcodeWidth   = 6
	reservedWidth = 3
	indexWidth    = 10
)

// #endregion layout

// #region encode
// Encode returns the fixed 64-bit observation block for s. Cursor flags are
// set only when cursor is true, on the slot the statement cursor points at.
func (s *Statement) Encode(cursor bool) bitfield.Bitvector64 {
	w := &bitWriter{v: bitfield.NewBitvector64()}
	s.body.encode(w, func(slot int) bool {
		return cursor && s.cursor == slot
	})
	return w.v
}

// Bits expands Encode into one 0/1 value per bit, in layout order.
func (s *Statement) Bits(cursor bool) []uint8 {
	return Unpack(s.Encode(cursor))
}

// Unpack expands a 64-bit block into 0/1 values.
func Unpack(v bitfield.Bitvector64) []uint8 {
	out := make([]uint8, Word)
	for i := range out {
		if v.BitAt(uint64(i)) {
			out[i] = 1
		}
	}
	return out
}

// #endregion encode

// #region bit-writer
type bitWriter struct {
	v   bitfield.Bitvector64
	pos uint64
}

func (w *bitWriter) bit(b bool) {
	w.v.SetBitAt(w.pos, b)
	w.pos++
}

func (w *bitWriter) oneHot(width, hot int) {
	for i := 0; i < width; i++ {
		w.bit(i == hot)
	}
}

func (w *bitWriter) zeros(n int) {
	w.pos += uint64(n)
}

func (w *bitWriter) byteMSB(b uint8) {
	for i := 7; i >= 0; i-- {
		w.bit(b>>uint(i)&1 == 1)
	}
}

// #endregion bit-writer
