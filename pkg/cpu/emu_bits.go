package cpu

import "github.com/oisee/gbcore/pkg/inst"

// Escaped instructions count cycles from the fetch of the second opcode
// byte; the prefix fetch is the CPU's own cycle.

// rlc/rrc/rl/rr/sla/sra/swap/srl r (1 cycle)
type shiftReg struct {
	op  inst.Op
	reg inst.Operand
}

func isShiftOp(o inst.Op) bool {
	switch o {
	case inst.RLC, inst.RRC, inst.RL, inst.RR, inst.SLA, inst.SRA, inst.SWAP, inst.SRL:
		return true
	}
	return false
}

func isBitOp(o inst.Op) bool {
	return o == inst.BIT || o == inst.RES || o == inst.SET
}

func matchShiftReg(s inst.Spec) Emulator {
	if s.Prefix == inst.PrefixCB && isShiftOp(s.Op) && s.Dst.IsRegister8() {
		return shiftReg{s.Op, s.Dst}
	}
	return nil
}

func (e shiftReg) Advance(s *State, mem Memory, cycle int) Result {
	r := s.Reg8(e.reg)
	*r = execShift(s, e.op, *r)
	return FetchNext
}

// rlc/rrc/rl/rr/sla/sra/swap/srl [hl] (3 cycles)
type shiftMem struct{ op inst.Op }

func matchShiftMem(s inst.Spec) Emulator {
	if s.Prefix == inst.PrefixCB && isShiftOp(s.Op) && s.Dst == inst.HLAddr {
		return shiftMem{s.Op}
	}
	return nil
}

func (e shiftMem) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1:
		return ContinueExecution
	case 2:
		s.Z = mem.Read(s.HL())
		return ContinueExecution
	}
	mem.Write(execShift(s, e.op, s.Z), s.HL())
	return FetchNext
}

// bit/res/set n, r (1 cycle)
type bitReg struct {
	op  inst.Op
	bit uint8
	reg inst.Operand
}

func matchBitReg(s inst.Spec) Emulator {
	if s.Prefix == inst.PrefixCB && isBitOp(s.Op) && s.Dst.IsRegister8() {
		return bitReg{s.Op, s.Bit, s.Dst}
	}
	return nil
}

func (e bitReg) Advance(s *State, mem Memory, cycle int) Result {
	r := s.Reg8(e.reg)
	*r = execBitOp(s, e.op, e.bit, *r)
	return FetchNext
}

// bit n, [hl] (2 cycles); res/set n, [hl] (3 cycles)
type bitMem struct {
	op  inst.Op
	bit uint8
}

func matchBitMem(s inst.Spec) Emulator {
	if s.Prefix == inst.PrefixCB && isBitOp(s.Op) && s.Dst == inst.HLAddr {
		return bitMem{s.Op, s.Bit}
	}
	return nil
}

func (e bitMem) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1:
		return ContinueExecution
	case 2:
		s.Z = mem.Read(s.HL())
		if e.op == inst.BIT {
			execBit(s, s.Z, e.bit)
			return FetchNext
		}
		return ContinueExecution
	}
	mem.Write(execBitOp(s, e.op, e.bit, s.Z), s.HL())
	return FetchNext
}
