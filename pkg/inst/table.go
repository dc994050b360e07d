package inst

var invalid = Spec{}

// primary is the LR35902 opcode table, indexed by the first instruction byte.
var primary = [256]Spec{
	/* 0x00 */ op0(NOP),
	/* 0x01 */ op2(LD, BC, Imm16),
	/* 0x02 */ op2(LD, BCAddr, A),
	/* 0x03 */ op1(INC, BC),
	/* 0x04 */ op1(INC, B),
	/* 0x05 */ op1(DEC, B),
	/* 0x06 */ op2(LD, B, Imm8),
	/* 0x07 */ op0(RLCA),
	/* 0x08 */ op2(LD, Imm16Addr, SP),
	/* 0x09 */ op2(ADD, HL, BC),
	/* 0x0a */ op2(LD, A, BCAddr),
	/* 0x0b */ op1(DEC, BC),
	/* 0x0c */ op1(INC, C),
	/* 0x0d */ op1(DEC, C),
	/* 0x0e */ op2(LD, C, Imm8),
	/* 0x0f */ op0(RRCA),

	/* 0x10 */ op1(STOP, ZeroImm8),
	/* 0x11 */ op2(LD, DE, Imm16),
	/* 0x12 */ op2(LD, DEAddr, A),
	/* 0x13 */ op1(INC, DE),
	/* 0x14 */ op1(INC, D),
	/* 0x15 */ op1(DEC, D),
	/* 0x16 */ op2(LD, D, Imm8),
	/* 0x17 */ op0(RLA),
	/* 0x18 */ cond(JR, Always, SImm8),
	/* 0x19 */ op2(ADD, HL, DE),
	/* 0x1a */ op2(LD, A, DEAddr),
	/* 0x1b */ op1(DEC, DE),
	/* 0x1c */ op1(INC, E),
	/* 0x1d */ op1(DEC, E),
	/* 0x1e */ op2(LD, E, Imm8),
	/* 0x1f */ op0(RRA),

	/* 0x20 */ cond(JR, NZ, SImm8),
	/* 0x21 */ op2(LD, HL, Imm16),
	/* 0x22 */ op2(LDI, HLAddr, A),
	/* 0x23 */ op1(INC, HL),
	/* 0x24 */ op1(INC, H),
	/* 0x25 */ op1(DEC, H),
	/* 0x26 */ op2(LD, H, Imm8),
	/* 0x27 */ op0(DAA),
	/* 0x28 */ cond(JR, Z, SImm8),
	/* 0x29 */ op2(ADD, HL, HL),
	/* 0x2a */ op2(LDI, A, HLAddr),
	/* 0x2b */ op1(DEC, HL),
	/* 0x2c */ op1(INC, L),
	/* 0x2d */ op1(DEC, L),
	/* 0x2e */ op2(LD, L, Imm8),
	/* 0x2f */ op0(CPL),

	/* 0x30 */ cond(JR, NC, SImm8),
	/* 0x31 */ op2(LD, SP, Imm16),
	/* 0x32 */ op2(LDD, HLAddr, A),
	/* 0x33 */ op1(INC, SP),
	/* 0x34 */ op1(INC, HLAddr),
	/* 0x35 */ op1(DEC, HLAddr),
	/* 0x36 */ op2(LD, HLAddr, Imm8),
	/* 0x37 */ op0(SCF),
	/* 0x38 */ cond(JR, CY, SImm8),
	/* 0x39 */ op2(ADD, HL, SP),
	/* 0x3a */ op2(LDD, A, HLAddr),
	/* 0x3b */ op1(DEC, SP),
	/* 0x3c */ op1(INC, A),
	/* 0x3d */ op1(DEC, A),
	/* 0x3e */ op2(LD, A, Imm8),
	/* 0x3f */ op0(CCF),

	// 0x40-0xbf are generated in init: ld r,r (with halt at 0x76) and the
	// eight alu blocks.

	0xc0: cond(RET, NZ, None),
	/* 0xc1 */ op1(POP, BC),
	/* 0xc2 */ cond(JP, NZ, Imm16),
	/* 0xc3 */ cond(JP, Always, Imm16),
	/* 0xc4 */ cond(CALL, NZ, Imm16),
	/* 0xc5 */ op1(PUSH, BC),
	/* 0xc6 */ op2(ADD, A, Imm8),
	/* 0xc7 */ rst(0x00),
	/* 0xc8 */ cond(RET, Z, None),
	/* 0xc9 */ op0(RET),
	/* 0xca */ cond(JP, Z, Imm16),
	/* 0xcb */ op0(Prefix),
	/* 0xcc */ cond(CALL, Z, Imm16),
	/* 0xcd */ cond(CALL, Always, Imm16),
	/* 0xce */ op1(ADC, Imm8),
	/* 0xcf */ rst(0x08),

	/* 0xd0 */ cond(RET, NC, None),
	/* 0xd1 */ op1(POP, DE),
	/* 0xd2 */ cond(JP, NC, Imm16),
	/* 0xd3 */ invalid,
	/* 0xd4 */ cond(CALL, NC, Imm16),
	/* 0xd5 */ op1(PUSH, DE),
	/* 0xd6 */ op2(SUB, A, Imm8),
	/* 0xd7 */ rst(0x10),
	/* 0xd8 */ cond(RET, CY, None),
	/* 0xd9 */ op0(RETI),
	/* 0xda */ cond(JP, CY, Imm16),
	/* 0xdb */ invalid,
	/* 0xdc */ cond(CALL, CY, Imm16),
	/* 0xdd */ invalid,
	/* 0xde */ op1(SBC, Imm8),
	/* 0xdf */ rst(0x18),

	/* 0xe0 */ op2(LD, FFImm8Addr, A),
	/* 0xe1 */ op1(POP, HL),
	/* 0xe2 */ op2(LD, FFCAddr, A),
	/* 0xe3 */ invalid,
	/* 0xe4 */ invalid,
	/* 0xe5 */ op1(PUSH, HL),
	/* 0xe6 */ op1(AND, Imm8),
	/* 0xe7 */ rst(0x20),
	/* 0xe8 */ op2(ADD, SP, SImm8),
	/* 0xe9 */ cond(JP, Always, HL),
	/* 0xea */ op2(LD, Imm16Addr, A),
	/* 0xeb */ invalid,
	/* 0xec */ invalid,
	/* 0xed */ invalid,
	/* 0xee */ op1(XOR, Imm8),
	/* 0xef */ rst(0x28),

	/* 0xf0 */ op2(LD, A, FFImm8Addr),
	/* 0xf1 */ op1(POP, AF),
	/* 0xf2 */ op2(LD, A, FFCAddr),
	/* 0xf3 */ op0(DI),
	/* 0xf4 */ invalid,
	/* 0xf5 */ op1(PUSH, AF),
	/* 0xf6 */ op1(OR, Imm8),
	/* 0xf7 */ rst(0x30),
	/* 0xf8 */ op2(LD, HL, SPPlusSImm8),
	/* 0xf9 */ op2(LD, SP, HL),
	/* 0xfa */ op2(LD, A, Imm16Addr),
	/* 0xfb */ op0(EI),
	/* 0xfc */ invalid,
	/* 0xfd */ invalid,
	/* 0xfe */ op1(CP, Imm8),
	/* 0xff */ rst(0x38),
}

// secondary is the 0xCB table. Every slot is a valid instruction.
var secondary [256]Spec

func init() {
	// ld r, r: 0x40-0x7f, [hl],[hl] is halt
	for i := 0x40; i < 0x80; i++ {
		dst := Registers8[(i>>3)&7]
		src := Registers8[i&7]
		if dst == HLAddr && src == HLAddr {
			primary[i] = op0(HALT)
			continue
		}
		primary[i] = op2(LD, dst, src)
	}

	// alu a, r: 0x80-0xbf. add and sub carry the accumulator explicitly, the
	// rest name only the source operand.
	aluOps := [8]Op{ADD, ADC, SUB, SBC, AND, XOR, OR, CP}
	for i := 0x80; i < 0xc0; i++ {
		o := aluOps[(i>>3)&7]
		src := Registers8[i&7]
		if o == ADD || o == SUB {
			primary[i] = op2(o, A, src)
		} else {
			primary[i] = op1(o, src)
		}
	}

	// 0xCB table: [00 ooo rrr] rotates/shifts, [01 bbb rrr] bit,
	// [10 bbb rrr] res, [11 bbb rrr] set
	shiftOps := [8]Op{RLC, RRC, RL, RR, SLA, SRA, SWAP, SRL}
	for i := 0; i < 256; i++ {
		r := Registers8[i&7]
		n := uint8(i>>3) & 7
		switch i >> 6 {
		case 0:
			secondary[i] = cb(op1(shiftOps[n], r))
		case 1:
			secondary[i] = cb(bitOp(BIT, n, r))
		case 2:
			secondary[i] = cb(bitOp(RES, n, r))
		case 3:
			secondary[i] = cb(bitOp(SET, n, r))
		}
	}

	buildDerived()
}

// Primary returns the spec for a first instruction byte. The escape byte
// resolves to the Prefix spec; callers fetch one more byte and use Secondary.
func Primary(opcode byte) Spec {
	return primary[opcode]
}

// Secondary returns the spec for the byte following the escape byte.
func Secondary(opcode byte) Spec {
	return secondary[opcode]
}
