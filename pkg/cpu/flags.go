package cpu

// LR35902 flag bit positions in the F register. The low nibble is unused.
const (
	FlagC uint8 = 0x10 // Carry
	FlagH uint8 = 0x20 // Half-carry
	FlagN uint8 = 0x40 // Subtract
	FlagZ uint8 = 0x80 // Zero
)

func (s *State) flag(f uint8) bool { return s.F&f != 0 }

func (s *State) setFlag(f uint8, on bool) {
	if on {
		s.F |= f
	} else {
		s.F &^= f
	}
}

// FZero, FSubtract, FHalfCarry and FCarry read individual flags.
func (s *State) FZero() bool      { return s.flag(FlagZ) }
func (s *State) FSubtract() bool  { return s.flag(FlagN) }
func (s *State) FHalfCarry() bool { return s.flag(FlagH) }
func (s *State) FCarry() bool     { return s.flag(FlagC) }

func (s *State) SetFZero(on bool)      { s.setFlag(FlagZ, on) }
func (s *State) SetFSubtract(on bool)  { s.setFlag(FlagN, on) }
func (s *State) SetFHalfCarry(on bool) { s.setFlag(FlagH, on) }
func (s *State) SetFCarry(on bool)     { s.setFlag(FlagC, on) }

// setFlags replaces all four flags at once.
func (s *State) setFlags(z, n, h, c bool) {
	s.F = bsel(z, FlagZ, 0) | bsel(n, FlagN, 0) | bsel(h, FlagH, 0) | bsel(c, FlagC, 0)
}

// bsel returns a if cond is true, else b. Branchless flag selection.
func bsel(cond bool, a, b uint8) uint8 {
	if cond {
		return a
	}
	return b
}
