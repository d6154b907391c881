package token

// #region mnemonics
// Mnemonic names a statement opcode.
type Mnemonic string

const (
	Let Mnemonic = "let" // scalar assign
	Add Mnemonic = "add" // vector add
	Dot Mnemonic = "dot" // dot product
	Sub Mnemonic = "sub" // scalar subtraction
	Mul Mnemonic = "mul" // scalar multiplication
	Muv Mnemonic = "muv" // vector-scalar multiplication
)

// Mnemonics is the opcode order. One-hot opcode slots use these indices.
var Mnemonics = []Mnemonic{Let, Add, Dot, Sub, Mul, Muv}

// LabelSlot is the one-hot opcode index reserved for section labels.
const LabelSlot = 5

// LabelMnemonic stands in for the opcode of a section label. It is not in Mnemonics.
const LabelMnemonic Mnemonic = "label"

// #endregion mnemonics

// #region indices
// MaxIndex is the largest scalar/vector register index (single digit).
const MaxIndex = 9

// Indices lists every register index 0..MaxIndex.
var Indices = func() []int {
	v := make([]int, MaxIndex+1)
	for i := range v {
		v[i] = i
	}
	return v
}()

// #endregion indices

// #region increments
// Increments are the step magnitudes applied to a "let" immediate.
var Increments = []float64{
	-10.000, -1.000, -0.100, -0.010, -0.001,
	0.001, 0.010, 0.100, 1.000, 10.000,
}

// #endregion increments

// #region labels
// Label is a program section marker.
type Label string

const (
	Setup   Label = "Setup"
	Predict Label = "Predict"
	Learn   Label = "Learn"
)

// Labels is the order sections must appear in.
var Labels = []Label{Setup, Predict, Learn}

// IsLabel reports whether name is one of the canonical section labels.
func IsLabel(name string) bool {
	return indexOf(Labels, Label(name)) >= 0
}

// #endregion labels

// #region constructors
func NewOpcode() *Cycle[Mnemonic] { return Must(Mnemonics) }

func NewIndex() *Cycle[int] { return Must(Indices) }

func NewIncrement() *Cycle[float64] { return Must(Increments) }

// MnemonicIndex is the position of m in Mnemonics, or -1.
func MnemonicIndex(m Mnemonic) int {
	return indexOf(Mnemonics, m)
}

// #endregion constructors
