package statement

import "github.com/danielpatrickdp/martis-game/internal/token"

// #region operation
// Operation is the grammar form a statement was parsed as.
type Operation int

const (
	ScalarAssign Operation = iota
	DotProduct
	Subtraction
	Multiplication
	VectorScalarMul
	VectorAdd
	SectionLabel
)

var operationNames = [...]string{
	ScalarAssign:    "scalar_assign",
	DotProduct:      "dot_product",
	Subtraction:     "subtraction",
	Multiplication:  "multiplication",
	VectorScalarMul: "vector_scalar_mult",
	VectorAdd:       "vector_add",
	SectionLabel:    "section_label",
}

func (o Operation) String() string {
	if o < 0 || int(o) >= len(operationNames) {
		return "unknown"
	}
	return operationNames[o]
}

// #endregion operation

// #region mnemonic-map
var mnemonicOps = map[token.Mnemonic]Operation{
	token.Let: ScalarAssign,
	token.Dot: DotProduct,
	token.Sub: Subtraction,
	token.Mul: Multiplication,
	token.Muv: VectorScalarMul,
	token.Add: VectorAdd,
}

var operationMnemonics = [...]token.Mnemonic{
	ScalarAssign:    token.Let,
	DotProduct:      token.Dot,
	Subtraction:     token.Sub,
	Multiplication:  token.Mul,
	VectorScalarMul: token.Muv,
	VectorAdd:       token.Add,
	SectionLabel:    token.LabelMnemonic,
}

// Mnemonic is the opcode that selects o, or token.LabelMnemonic for section labels.
func (o Operation) Mnemonic() token.Mnemonic {
	if o < 0 || int(o) >= len(operationMnemonics) {
		return token.LabelMnemonic
	}
	return operationMnemonics[o]
}

func operationFor(m token.Mnemonic) Operation {
	return mnemonicOps[m]
}

// #endregion mnemonic-map
