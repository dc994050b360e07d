package cpu

import "github.com/oisee/gbcore/pkg/inst"

// alu r (1 cycle)
type aluReg struct {
	op  inst.Op
	src inst.Operand
}

func matchAluReg(s inst.Spec) Emulator {
	if src := aluSource(s); src.IsRegister8() {
		return aluReg{s.Op, src}
	}
	return nil
}

func (e aluReg) Advance(s *State, mem Memory, cycle int) Result {
	execAlu(s, e.op, *s.Reg8(e.src))
	return FetchNext
}

// alu [hl] (2 cycles)
type aluMem struct{ op inst.Op }

func matchAluMem(s inst.Spec) Emulator {
	if aluSource(s) == inst.HLAddr {
		return aluMem{s.Op}
	}
	return nil
}

func (e aluMem) Advance(s *State, mem Memory, cycle int) Result {
	if cycle == 1 {
		return ContinueExecution
	}
	execAlu(s, e.op, mem.Read(s.HL()))
	return FetchNext
}

// alu # (2 cycles)
type aluImm struct{ op inst.Op }

func matchAluImm(s inst.Spec) Emulator {
	if aluSource(s) == inst.Imm8 {
		return aluImm{s.Op}
	}
	return nil
}

func (e aluImm) Advance(s *State, mem Memory, cycle int) Result {
	if cycle == 1 {
		return ContinueExecution
	}
	execAlu(s, e.op, s.fetch(mem))
	return FetchNext
}

// inc r and dec r (1 cycle)
type incDecReg struct {
	reg inst.Operand
	dec bool
}

func matchIncDecReg(s inst.Spec) Emulator {
	if primaryOp(s, inst.INC, inst.DEC) && s.Dst.IsRegister8() {
		return incDecReg{s.Dst, s.Op == inst.DEC}
	}
	return nil
}

func (e incDecReg) Advance(s *State, mem Memory, cycle int) Result {
	r := s.Reg8(e.reg)
	if e.dec {
		*r = execDec(s, *r)
	} else {
		*r = execInc(s, *r)
	}
	return FetchNext
}

// inc [hl] and dec [hl] (3 cycles)
type incDecMem struct{ dec bool }

func matchIncDecMem(s inst.Spec) Emulator {
	if primaryOp(s, inst.INC, inst.DEC) && s.Dst == inst.HLAddr {
		return incDecMem{s.Op == inst.DEC}
	}
	return nil
}

func (e incDecMem) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1:
		return ContinueExecution
	case 2:
		s.Z = mem.Read(s.HL())
		return ContinueExecution
	}
	if e.dec {
		mem.Write(execDec(s, s.Z), s.HL())
	} else {
		mem.Write(execInc(s, s.Z), s.HL())
	}
	return FetchNext
}

// inc rr and dec rr (2 cycles, no flags)
type incDecPair struct {
	reg   inst.Operand
	delta uint16
}

func matchIncDecPair(s inst.Spec) Emulator {
	if !primaryOp(s, inst.INC, inst.DEC) || !s.Dst.IsRegister16() {
		return nil
	}
	if s.Op == inst.DEC {
		return incDecPair{s.Dst, 0xFFFF}
	}
	return incDecPair{s.Dst, 1}
}

func (e incDecPair) Advance(s *State, mem Memory, cycle int) Result {
	if cycle == 1 {
		return ContinueExecution
	}
	s.SetReg16(e.reg, s.Reg16(e.reg)+e.delta)
	return FetchNext
}

// add hl, rr (2 cycles)
type addHL struct{ src inst.Operand }

func matchAddHL(s inst.Spec) Emulator {
	if primaryOp(s, inst.ADD) && s.Dst == inst.HL && s.Src.IsRegister16() {
		return addHL{s.Src}
	}
	return nil
}

func (e addHL) Advance(s *State, mem Memory, cycle int) Result {
	if cycle == 1 {
		return ContinueExecution
	}
	execAddHL(s, s.Reg16(e.src))
	return FetchNext
}

// add sp, # (4 cycles)
type addSP struct{}

func matchAddSP(s inst.Spec) Emulator {
	if primaryOp(s, inst.ADD) && s.Dst == inst.SP && s.Src == inst.SImm8 {
		return addSP{}
	}
	return nil
}

func (addSP) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1, 3:
		return ContinueExecution
	case 2:
		s.Z = s.fetch(mem)
		return ContinueExecution
	}
	s.SP = execAddSPSigned(s, s.Z)
	return FetchNext
}

// rlca, rrca, rla, rra, daa, cpl, scf and ccf (1 cycle)
type accumulator struct{ op inst.Op }

func matchAccumulator(s inst.Spec) Emulator {
	if primaryOp(s, inst.RLCA, inst.RRCA, inst.RLA, inst.RRA, inst.DAA, inst.CPL, inst.SCF, inst.CCF) {
		return accumulator{s.Op}
	}
	return nil
}

func (e accumulator) Advance(s *State, mem Memory, cycle int) Result {
	switch e.op {
	case inst.RLCA:
		s.A = execRlc(s, s.A)
		s.SetFZero(false)
	case inst.RRCA:
		s.A = execRrc(s, s.A)
		s.SetFZero(false)
	case inst.RLA:
		s.A = execRl(s, s.A)
		s.SetFZero(false)
	case inst.RRA:
		s.A = execRr(s, s.A)
		s.SetFZero(false)
	case inst.DAA:
		execDaa(s)
	case inst.CPL:
		s.A = ^s.A
		s.F |= FlagN | FlagH
	case inst.SCF:
		s.F = (s.F & FlagZ) | FlagC
	case inst.CCF:
		s.F = (s.F & (FlagZ | FlagC)) ^ FlagC
	}
	return FetchNext
}
