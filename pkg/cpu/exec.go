package cpu

import "github.com/oisee/gbcore/pkg/inst"

// --- ALU helpers ---
//
// All helpers operate on the accumulator or return the new value and set the
// flags the LR35902 defines for the operation. Half-carry is the carry out of
// bit 3 (bit 11 for 16-bit adds), carry the carry out of bit 7 (bit 15).

func execAdd(s *State, value uint8) {
	sum := uint16(s.A) + uint16(value)
	half := (s.A&0x0F)+(value&0x0F) > 0x0F
	s.A = uint8(sum)
	s.setFlags(s.A == 0, false, half, sum > 0xFF)
}

func execAdc(s *State, value uint8) {
	carry := bsel(s.FCarry(), 1, 0)
	sum := uint16(s.A) + uint16(value) + uint16(carry)
	half := (s.A&0x0F)+(value&0x0F)+carry > 0x0F
	s.A = uint8(sum)
	s.setFlags(s.A == 0, false, half, sum > 0xFF)
}

func execSub(s *State, value uint8) {
	half := s.A&0x0F < value&0x0F
	borrow := s.A < value
	s.A -= value
	s.setFlags(s.A == 0, true, half, borrow)
}

func execSbc(s *State, value uint8) {
	carry := bsel(s.FCarry(), 1, 0)
	half := int(s.A&0x0F)-int(value&0x0F)-int(carry) < 0
	diff := int(s.A) - int(value) - int(carry)
	s.A = uint8(diff)
	s.setFlags(s.A == 0, true, half, diff < 0)
}

func execAnd(s *State, value uint8) {
	s.A &= value
	s.setFlags(s.A == 0, false, true, false)
}

func execOr(s *State, value uint8) {
	s.A |= value
	s.setFlags(s.A == 0, false, false, false)
}

func execXor(s *State, value uint8) {
	s.A ^= value
	s.setFlags(s.A == 0, false, false, false)
}

func execCp(s *State, value uint8) {
	a := s.A
	execSub(s, value)
	s.A = a
}

// execAlu dispatches one of the eight accumulator operations.
func execAlu(s *State, op inst.Op, value uint8) {
	switch op {
	case inst.ADD:
		execAdd(s, value)
	case inst.ADC:
		execAdc(s, value)
	case inst.SUB:
		execSub(s, value)
	case inst.SBC:
		execSbc(s, value)
	case inst.AND:
		execAnd(s, value)
	case inst.OR:
		execOr(s, value)
	case inst.XOR:
		execXor(s, value)
	case inst.CP:
		execCp(s, value)
	default:
		panic("cpu: not an alu op: " + op.String())
	}
}

// execInc and execDec leave the carry flag untouched.
func execInc(s *State, v uint8) uint8 {
	r := v + 1
	s.F = (s.F & FlagC) | bsel(r == 0, FlagZ, 0) | bsel(v&0x0F == 0x0F, FlagH, 0)
	return r
}

func execDec(s *State, v uint8) uint8 {
	r := v - 1
	s.F = (s.F & FlagC) | FlagN | bsel(r == 0, FlagZ, 0) | bsel(v&0x0F == 0, FlagH, 0)
	return r
}

// execAddHL implements ADD HL, rr: N=0, H from bit 11, C from bit 15, Z kept.
func execAddHL(s *State, value uint16) {
	hl := s.HL()
	sum := uint32(hl) + uint32(value)
	half := (hl&0x0FFF)+(value&0x0FFF) > 0x0FFF
	s.SetHL(uint16(sum))
	s.F = (s.F & FlagZ) | bsel(half, FlagH, 0) | bsel(sum > 0xFFFF, FlagC, 0)
}

// execAddSPSigned computes SP plus a signed offset for add sp,# and
// ld hl,sp+#. Flags come from the unsigned add of the low byte; Z and N clear.
func execAddSPSigned(s *State, offset uint8) uint16 {
	sp := s.SP
	half := (sp&0x0F)+uint16(offset&0x0F) > 0x0F
	carry := (sp&0xFF)+uint16(offset) > 0xFF
	s.setFlags(false, false, half, carry)
	return sp + uint16(int16(int8(offset)))
}

func execDaa(s *State) {
	a := s.A
	carry := s.FCarry()
	if !s.FSubtract() {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if s.FHalfCarry() || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if s.FHalfCarry() {
			a -= 0x06
		}
	}
	s.A = a
	s.F = (s.F & FlagN) | bsel(a == 0, FlagZ, 0) | bsel(carry, FlagC, 0)
}

// CB-prefix rotate/shift helpers return the new value. They clear N and H,
// set C to the bit shifted out and Z from the result.

func execRlc(s *State, v uint8) uint8 {
	r := (v << 1) | (v >> 7)
	s.setFlags(r == 0, false, false, v&0x80 != 0)
	return r
}

func execRrc(s *State, v uint8) uint8 {
	r := (v >> 1) | (v << 7)
	s.setFlags(r == 0, false, false, v&0x01 != 0)
	return r
}

func execRl(s *State, v uint8) uint8 {
	r := (v << 1) | bsel(s.FCarry(), 0x01, 0)
	s.setFlags(r == 0, false, false, v&0x80 != 0)
	return r
}

func execRr(s *State, v uint8) uint8 {
	r := (v >> 1) | bsel(s.FCarry(), 0x80, 0)
	s.setFlags(r == 0, false, false, v&0x01 != 0)
	return r
}

func execSla(s *State, v uint8) uint8 {
	r := v << 1
	s.setFlags(r == 0, false, false, v&0x80 != 0)
	return r
}

func execSra(s *State, v uint8) uint8 {
	r := (v & 0x80) | (v >> 1)
	s.setFlags(r == 0, false, false, v&0x01 != 0)
	return r
}

func execSrl(s *State, v uint8) uint8 {
	r := v >> 1
	s.setFlags(r == 0, false, false, v&0x01 != 0)
	return r
}

func execSwap(s *State, v uint8) uint8 {
	r := (v << 4) | (v >> 4)
	s.setFlags(r == 0, false, false, false)
	return r
}

// execShift dispatches one of the eight 0xCB rotate/shift operations.
func execShift(s *State, op inst.Op, v uint8) uint8 {
	switch op {
	case inst.RLC:
		return execRlc(s, v)
	case inst.RRC:
		return execRrc(s, v)
	case inst.RL:
		return execRl(s, v)
	case inst.RR:
		return execRr(s, v)
	case inst.SLA:
		return execSla(s, v)
	case inst.SRA:
		return execSra(s, v)
	case inst.SWAP:
		return execSwap(s, v)
	case inst.SRL:
		return execSrl(s, v)
	}
	panic("cpu: not a shift op: " + op.String())
}

// execBit implements BIT n, r: Z set when the bit is clear, N=0, H=1, C kept.
func execBit(s *State, v uint8, bit uint8) {
	s.F = (s.F & FlagC) | FlagH | bsel(v&(1<<bit) == 0, FlagZ, 0)
}

// execBitOp applies bit, res or set and returns the (possibly) new value.
func execBitOp(s *State, op inst.Op, bit uint8, v uint8) uint8 {
	switch op {
	case inst.BIT:
		execBit(s, v, bit)
		return v
	case inst.RES:
		return v &^ (1 << bit)
	case inst.SET:
		return v | (1 << bit)
	}
	panic("cpu: not a bit op: " + op.String())
}

// condition reports whether a branch condition holds.
func condition(s *State, c inst.Condition) bool {
	switch c {
	case inst.NZ:
		return !s.FZero()
	case inst.Z:
		return s.FZero()
	case inst.NC:
		return !s.FCarry()
	case inst.CY:
		return s.FCarry()
	}
	return true
}
