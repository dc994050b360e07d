package cpu

import "github.com/oisee/gbcore/pkg/inst"

// ld r, r (1 cycle)
type ldRegReg struct{ dst, src inst.Operand }

func matchLdRegReg(s inst.Spec) Emulator {
	if primaryOp(s, inst.LD) && s.Dst.IsRegister8() && s.Src.IsRegister8() {
		return ldRegReg{s.Dst, s.Src}
	}
	return nil
}

func (e ldRegReg) Advance(s *State, mem Memory, cycle int) Result {
	*s.Reg8(e.dst) = *s.Reg8(e.src)
	return FetchNext
}

// ld r, # (2 cycles)
type ldRegImm struct{ dst inst.Operand }

func matchLdRegImm(s inst.Spec) Emulator {
	if primaryOp(s, inst.LD) && s.Dst.IsRegister8() && s.Src == inst.Imm8 {
		return ldRegImm{s.Dst}
	}
	return nil
}

func (e ldRegImm) Advance(s *State, mem Memory, cycle int) Result {
	if cycle == 1 {
		return ContinueExecution
	}
	*s.Reg8(e.dst) = s.fetch(mem)
	return FetchNext
}

// ld r, [rr] and ld [rr], r through bc, de, hl or $ff00+c (2 cycles)
type ldIndirect struct {
	reg, addr inst.Operand
	store     bool
}

func matchLdIndirect(s inst.Spec) Emulator {
	if !primaryOp(s, inst.LD) {
		return nil
	}
	switch {
	case s.Dst.IsRegister8() && isIndirect(s.Src):
		return ldIndirect{reg: s.Dst, addr: s.Src}
	case isIndirect(s.Dst) && s.Src.IsRegister8():
		return ldIndirect{reg: s.Src, addr: s.Dst, store: true}
	}
	return nil
}

func (e ldIndirect) Advance(s *State, mem Memory, cycle int) Result {
	if cycle == 1 {
		return ContinueExecution
	}
	a := indirectAddress(s, e.addr)
	if e.store {
		mem.Write(*s.Reg8(e.reg), a)
	} else {
		*s.Reg8(e.reg) = mem.Read(a)
	}
	return FetchNext
}

// ldi/ldd [hl], a and a, [hl]: hl steps after the access (2 cycles)
type ldStep struct {
	store bool
	delta uint16
}

func matchLdStep(s inst.Spec) Emulator {
	if !primaryOp(s, inst.LDI, inst.LDD) {
		return nil
	}
	delta := uint16(1)
	if s.Op == inst.LDD {
		delta = 0xFFFF
	}
	switch {
	case s.Dst == inst.HLAddr && s.Src == inst.A:
		return ldStep{store: true, delta: delta}
	case s.Dst == inst.A && s.Src == inst.HLAddr:
		return ldStep{delta: delta}
	}
	return nil
}

func (e ldStep) Advance(s *State, mem Memory, cycle int) Result {
	if cycle == 1 {
		return ContinueExecution
	}
	hl := s.HL()
	if e.store {
		mem.Write(s.A, hl)
	} else {
		s.A = mem.Read(hl)
	}
	s.SetHL(hl + e.delta)
	return FetchNext
}

// ld [hl], # (3 cycles)
type ldMemImm struct{}

func matchLdMemImm(s inst.Spec) Emulator {
	if primaryOp(s, inst.LD) && s.Dst == inst.HLAddr && s.Src == inst.Imm8 {
		return ldMemImm{}
	}
	return nil
}

func (ldMemImm) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1:
		return ContinueExecution
	case 2:
		s.Z = s.fetch(mem)
		return ContinueExecution
	}
	mem.Write(s.Z, s.HL())
	return FetchNext
}

// ld rr, # (3 cycles)
type ldPairImm struct{ dst inst.Operand }

func matchLdPairImm(s inst.Spec) Emulator {
	if primaryOp(s, inst.LD) && s.Dst.IsRegister16() && s.Src == inst.Imm16 {
		return ldPairImm{s.Dst}
	}
	return nil
}

func (e ldPairImm) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1:
		return ContinueExecution
	case 2:
		s.Z = s.fetch(mem)
		return ContinueExecution
	}
	s.W = s.fetch(mem)
	s.SetReg16(e.dst, s.WZ())
	return FetchNext
}

// ld [#], a and ld a, [#] (4 cycles)
type ldAbsolute struct{ store bool }

func matchLdAbsolute(s inst.Spec) Emulator {
	if !primaryOp(s, inst.LD) {
		return nil
	}
	switch {
	case s.Dst == inst.Imm16Addr && s.Src == inst.A:
		return ldAbsolute{store: true}
	case s.Dst == inst.A && s.Src == inst.Imm16Addr:
		return ldAbsolute{}
	}
	return nil
}

func (e ldAbsolute) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1:
		return ContinueExecution
	case 2:
		s.Z = s.fetch(mem)
		return ContinueExecution
	case 3:
		s.W = s.fetch(mem)
		return ContinueExecution
	}
	if e.store {
		mem.Write(s.A, s.WZ())
	} else {
		s.A = mem.Read(s.WZ())
	}
	return FetchNext
}

// ldh [#], a and ldh a, [#] (3 cycles)
type ldHigh struct{ store bool }

func matchLdHigh(s inst.Spec) Emulator {
	if !primaryOp(s, inst.LD) {
		return nil
	}
	switch {
	case s.Dst == inst.FFImm8Addr && s.Src == inst.A:
		return ldHigh{store: true}
	case s.Dst == inst.A && s.Src == inst.FFImm8Addr:
		return ldHigh{}
	}
	return nil
}

func (e ldHigh) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1:
		return ContinueExecution
	case 2:
		s.Z = s.fetch(mem)
		return ContinueExecution
	}
	a := 0xFF00 | uint16(s.Z)
	if e.store {
		mem.Write(s.A, a)
	} else {
		s.A = mem.Read(a)
	}
	return FetchNext
}

// ld [#], sp (5 cycles)
type storeSP struct{}

func matchStoreSP(s inst.Spec) Emulator {
	if primaryOp(s, inst.LD) && s.Dst == inst.Imm16Addr && s.Src == inst.SP {
		return storeSP{}
	}
	return nil
}

func (storeSP) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1:
		return ContinueExecution
	case 2:
		s.Z = s.fetch(mem)
		return ContinueExecution
	case 3:
		s.W = s.fetch(mem)
		return ContinueExecution
	case 4:
		mem.Write(uint8(s.SP), s.WZ())
		return ContinueExecution
	}
	mem.Write(uint8(s.SP>>8), s.WZ()+1)
	return FetchNext
}

// ld sp, hl (2 cycles)
type ldSPHL struct{}

func matchLdSPHL(s inst.Spec) Emulator {
	if primaryOp(s, inst.LD) && s.Dst == inst.SP && s.Src == inst.HL {
		return ldSPHL{}
	}
	return nil
}

func (ldSPHL) Advance(s *State, mem Memory, cycle int) Result {
	if cycle == 1 {
		return ContinueExecution
	}
	s.SP = s.HL()
	return FetchNext
}

// ld hl, sp+# (3 cycles)
type ldHLSPOffset struct{}

func matchLdHLSPOffset(s inst.Spec) Emulator {
	if primaryOp(s, inst.LD) && s.Dst == inst.HL && s.Src == inst.SPPlusSImm8 {
		return ldHLSPOffset{}
	}
	return nil
}

func (ldHLSPOffset) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1:
		return ContinueExecution
	case 2:
		s.Z = s.fetch(mem)
		return ContinueExecution
	}
	s.SetHL(execAddSPSigned(s, s.Z))
	return FetchNext
}

// push rr (4 cycles)
type pushPair struct{ src inst.Operand }

func matchPush(s inst.Spec) Emulator {
	if primaryOp(s, inst.PUSH) && s.Dst.IsRegister16() {
		return pushPair{s.Dst}
	}
	return nil
}

func (e pushPair) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1, 2:
		return ContinueExecution
	case 3:
		push(s, mem, uint8(s.Reg16(e.src)>>8))
		return ContinueExecution
	}
	push(s, mem, uint8(s.Reg16(e.src)))
	return FetchNext
}

// pop rr (3 cycles). pop af drops the low nibble of F.
type popPair struct{ dst inst.Operand }

func matchPop(s inst.Spec) Emulator {
	if primaryOp(s, inst.POP) && s.Dst.IsRegister16() {
		return popPair{s.Dst}
	}
	return nil
}

func (e popPair) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1:
		return ContinueExecution
	case 2:
		s.Z = pop(s, mem)
		return ContinueExecution
	}
	s.W = pop(s, mem)
	s.SetReg16(e.dst, s.WZ())
	return FetchNext
}
