package inst

// Operand is an addressing-mode tag. It names where a value comes from, never
// the value itself.
type Operand uint8

const (
	None Operand = iota

	A
	AF
	B
	C
	BC
	BCAddr // [bc]
	D
	E
	DE
	DEAddr // [de]
	H
	L
	HL
	HLAddr // [hl]

	SP
	SPPlusSImm8 // sp plus a signed 8-bit immediate

	Imm8      // unsigned 8-bit immediate
	SImm8     // signed 8-bit immediate
	Imm16     // 16-bit immediate, little-endian
	Imm16Addr // [imm16]

	FFImm8Addr // [$ff00+imm8]
	FFCAddr    // [$ff00+c]

	ZeroImm8 // implicit zero byte following stop

	OperandCount // sentinel
)

// operandWidths is the number of bytes each operand kind contributes after
// the opcode bytes.
var operandWidths = [OperandCount]int{
	Imm8:        1,
	SImm8:       1,
	ZeroImm8:    1,
	FFImm8Addr:  1,
	SPPlusSImm8: 1,
	Imm16:       2,
	Imm16Addr:   2,
}

// operandText is the canonical text of each operand; "#" stands for any
// numeric literal.
var operandText = [OperandCount]string{
	A: "a", AF: "af",
	B: "b", C: "c", BC: "bc", BCAddr: "[bc]",
	D: "d", E: "e", DE: "de", DEAddr: "[de]",
	H: "h", L: "l", HL: "hl", HLAddr: "[hl]",
	SP: "sp", SPPlusSImm8: "sp+#",
	Imm8: "#", SImm8: "#", Imm16: "#", Imm16Addr: "[#]",
	FFImm8Addr: "[#]", FFCAddr: "[c]",
}

// Placeholder is the token that stands for a numeric literal in canonical
// text.
const Placeholder = "#"

// Width returns the number of operand bytes o occupies in the encoding.
func (o Operand) Width() int {
	if o < OperandCount {
		return operandWidths[o]
	}
	return 0
}

// IsImmediate reports whether the operand's value is read from the
// instruction stream.
func (o Operand) IsImmediate() bool {
	return o.Width() > 0
}

// String returns the canonical operand text.
func (o Operand) String() string {
	if o < OperandCount {
		return operandText[o]
	}
	return "?"
}

// Registers8 lists the 8-bit registers in their opcode-field order, with
// HLAddr in slot 6 as the hardware encodes it.
var Registers8 = [8]Operand{B, C, D, E, H, L, HLAddr, A}

// IsRegister8 reports whether o names a plain 8-bit register.
func (o Operand) IsRegister8() bool {
	switch o {
	case A, B, C, D, E, H, L:
		return true
	}
	return false
}

// IsRegister16 reports whether o names a 16-bit register or pair.
func (o Operand) IsRegister16() bool {
	switch o {
	case AF, BC, DE, HL, SP:
		return true
	}
	return false
}

// IsPairAddr reports whether o is memory addressed through bc or de.
func (o Operand) IsPairAddr() bool {
	return o == BCAddr || o == DEAddr
}

// Condition is a branch condition on the flags. The zero value means the
// branch is unconditional.
type Condition uint8

const (
	Always Condition = iota
	NZ
	Z
	NC
	CY // carry set; named CY to keep it apart from register C
)

var conditionText = [...]string{Always: "", NZ: "nz", Z: "z", NC: "nc", CY: "c"}

func (c Condition) String() string {
	if int(c) < len(conditionText) {
		return conditionText[c]
	}
	return "?"
}
