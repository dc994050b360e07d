package inst

// Op identifies the abstract operation of an instruction. Operands are carried
// separately in Spec so that one Op covers every addressing form.
type Op uint8

const (
	Invalid Op = iota // explicit marker for unused opcode slots

	// Loads
	LD
	LDI // ld with post-increment of hl
	LDD // ld with post-decrement of hl

	// Stack
	PUSH
	POP

	// 8- and 16-bit arithmetic
	ADD
	ADC
	SUB
	SBC
	AND
	OR
	XOR
	CP
	INC
	DEC

	// Carry flag
	CCF
	SCF

	// Program execution
	NOP
	STOP
	HALT

	// Interrupts
	DI
	EI

	// Accumulator rotates
	RLA
	RLCA
	RRA
	RRCA

	// Jumps, calls and returns
	JR
	JP
	CALL
	RET
	RETI
	RST

	// Decimal adjust and complement
	DAA
	CPL

	// Escape into the 0xCB table
	Prefix

	// 0xCB table
	RLC
	RRC
	RL
	RR
	SLA
	SRA
	SWAP
	SRL
	BIT
	RES
	SET

	OpCount // sentinel
)

var opNames = [OpCount]string{
	Invalid: "invalid",
	LD:      "ld", LDI: "ldi", LDD: "ldd",
	PUSH: "push", POP: "pop",
	ADD: "add", ADC: "adc", SUB: "sub", SBC: "sbc",
	AND: "and", OR: "or", XOR: "xor", CP: "cp",
	INC: "inc", DEC: "dec",
	CCF: "ccf", SCF: "scf",
	NOP: "nop", STOP: "stop", HALT: "halt",
	DI: "di", EI: "ei",
	RLA: "rla", RLCA: "rlca", RRA: "rra", RRCA: "rrca",
	JR: "jr", JP: "jp", CALL: "call", RET: "ret", RETI: "reti", RST: "rst",
	DAA: "daa", CPL: "cpl",
	Prefix: "prefix",
	RLC: "rlc", RRC: "rrc", RL: "rl", RR: "rr",
	SLA: "sla", SRA: "sra", SWAP: "swap", SRL: "srl",
	BIT: "bit", RES: "res", SET: "set",
}

// String returns the lowercase mnemonic.
func (o Op) String() string {
	if o < OpCount {
		return opNames[o]
	}
	return "op?"
}

// PrefixTable selects which opcode table a spec was decoded from.
type PrefixTable uint8

const (
	PrefixNone PrefixTable = iota
	PrefixCB
)

// EscapeByte is the primary opcode that switches decoding to the 0xCB table.
const EscapeByte = 0xCB

// Spec is the abstract description of one instruction. It is a two-level
// tagged union flattened into a comparable value: the escape entry of the
// primary table has Op == Prefix, and every entry of the 0xCB table carries
// Prefix == PrefixCB around its own Op and operands.
//
// Fields that don't apply to an Op are left at their zero values, so two
// specs are the same instruction exactly when they compare equal.
type Spec struct {
	Prefix PrefixTable
	Op     Op
	Cond   Condition // jr/jp/call/ret
	Dst    Operand   // first operand, or the only one
	Src    Operand   // second operand
	Bit    uint8     // bit/res/set
	Vector uint8     // rst target address
}

// Valid reports whether s is a real instruction rather than the invalid marker.
func (s Spec) Valid() bool {
	return s.Op != Invalid
}

// IsEscape reports whether s is the primary-table entry that escapes into the
// 0xCB table.
func (s Spec) IsEscape() bool {
	return s.Prefix == PrefixNone && s.Op == Prefix
}

// Inner strips the escape wrapper, returning the spec as it would appear if
// the secondary table were the only one.
func (s Spec) Inner() Spec {
	s.Prefix = PrefixNone
	return s
}

// Operands returns the spec's operands in textual order, skipping absent ones.
func (s Spec) Operands() []Operand {
	ops := make([]Operand, 0, 2)
	if s.Dst != None {
		ops = append(ops, s.Dst)
	}
	if s.Src != None {
		ops = append(ops, s.Src)
	}
	return ops
}

// String returns the canonical text form.
func (s Spec) String() string {
	return Text(s)
}

// constructors used by the tables

func op0(o Op) Spec { return Spec{Op: o} }

func op1(o Op, a Operand) Spec { return Spec{Op: o, Dst: a} }

func op2(o Op, a, b Operand) Spec { return Spec{Op: o, Dst: a, Src: b} }

func cond(o Op, c Condition, a Operand) Spec { return Spec{Op: o, Cond: c, Dst: a} }

func rst(v uint8) Spec { return Spec{Op: RST, Vector: v} }

func bitOp(o Op, bit uint8, a Operand) Spec { return Spec{Op: o, Bit: bit, Dst: a} }

func cb(s Spec) Spec {
	s.Prefix = PrefixCB
	return s
}
