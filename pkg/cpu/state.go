package cpu

import "github.com/oisee/gbcore/pkg/inst"

// State is the LR35902 register file. The 16-bit pairs BC, DE, HL and AF are
// views over their 8-bit halves and are never stored separately.
//
// W and Z are the CPU's internal temporaries. Multi-cycle instructions park
// operand bytes there between machine cycles so that emulators themselves
// stay stateless.
type State struct {
	A, F, B, C, D, E, H, L uint8
	SP, PC                 uint16
	Bank                   uint8 // ROM bank PC was fetched from
	IME                    bool  // interrupt master enable

	W, Z uint8
}

// Reset returns the register values the DMG boot ROM leaves behind.
func Reset() State {
	return State{
		A: 0x01, F: 0xB0,
		B: 0x00, C: 0x13,
		D: 0x00, E: 0xD8,
		H: 0x01, L: 0x4D,
		SP: 0xFFFE,
		PC: 0x0100,
	}
}

// Equal reports whether two register files hold the same values, including
// the current bank and the W/Z temporaries.
func (s State) Equal(o State) bool {
	return s == o
}

func (s *State) BC() uint16 { return uint16(s.B)<<8 | uint16(s.C) }
func (s *State) DE() uint16 { return uint16(s.D)<<8 | uint16(s.E) }
func (s *State) HL() uint16 { return uint16(s.H)<<8 | uint16(s.L) }
func (s *State) AF() uint16 { return uint16(s.A)<<8 | uint16(s.F) }

// WZ is the 16-bit value assembled from the temporaries, W high.
func (s *State) WZ() uint16 { return uint16(s.W)<<8 | uint16(s.Z) }

func (s *State) SetBC(v uint16) { s.B, s.C = uint8(v>>8), uint8(v) }
func (s *State) SetDE(v uint16) { s.D, s.E = uint8(v>>8), uint8(v) }
func (s *State) SetHL(v uint16) { s.H, s.L = uint8(v>>8), uint8(v) }

// SetAF writes the accumulator and flags. The low nibble of F does not exist
// in hardware and always reads back as zero.
func (s *State) SetAF(v uint16) { s.A, s.F = uint8(v>>8), uint8(v)&0xF0 }

// Reg8 returns a pointer to the named 8-bit register.
func (s *State) Reg8(o inst.Operand) *uint8 {
	switch o {
	case inst.A:
		return &s.A
	case inst.B:
		return &s.B
	case inst.C:
		return &s.C
	case inst.D:
		return &s.D
	case inst.E:
		return &s.E
	case inst.H:
		return &s.H
	case inst.L:
		return &s.L
	}
	panic("cpu: not an 8-bit register: " + o.String())
}

// Reg16 reads the named 16-bit register or pair.
func (s *State) Reg16(o inst.Operand) uint16 {
	switch o {
	case inst.BC:
		return s.BC()
	case inst.DE:
		return s.DE()
	case inst.HL:
		return s.HL()
	case inst.AF:
		return s.AF()
	case inst.SP:
		return s.SP
	}
	panic("cpu: not a 16-bit register: " + o.String())
}

// SetReg16 writes the named 16-bit register or pair.
func (s *State) SetReg16(o inst.Operand, v uint16) {
	switch o {
	case inst.BC:
		s.SetBC(v)
	case inst.DE:
		s.SetDE(v)
	case inst.HL:
		s.SetHL(v)
	case inst.AF:
		s.SetAF(v)
	case inst.SP:
		s.SP = v
	default:
		panic("cpu: not a 16-bit register: " + o.String())
	}
}

// fetch reads the byte at PC and advances PC.
func (s *State) fetch(mem Memory) uint8 {
	v := mem.Read(s.PC)
	s.PC++
	return v
}
