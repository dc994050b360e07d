package cpu

import "github.com/oisee/gbcore/pkg/inst"

// jr cc, # (3 taken, 2 not taken)
type jr struct{ cond inst.Condition }

func matchJr(s inst.Spec) Emulator {
	if primaryOp(s, inst.JR) && s.Dst == inst.SImm8 {
		return jr{s.Cond}
	}
	return nil
}

func (e jr) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1:
		return ContinueExecution
	case 2:
		s.Z = s.fetch(mem)
		if !condition(s, e.cond) {
			return FetchNext
		}
		return ContinueExecution
	}
	s.PC += uint16(int16(int8(s.Z)))
	return FetchNext
}

// jp cc, # (4 taken, 3 not taken)
type jp struct{ cond inst.Condition }

func matchJp(s inst.Spec) Emulator {
	if primaryOp(s, inst.JP) && s.Dst == inst.Imm16 {
		return jp{s.Cond}
	}
	return nil
}

func (e jp) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1:
		return ContinueExecution
	case 2:
		s.Z = s.fetch(mem)
		return ContinueExecution
	case 3:
		s.W = s.fetch(mem)
		if !condition(s, e.cond) {
			return FetchNext
		}
		return ContinueExecution
	}
	s.PC = s.WZ()
	return FetchNext
}

// jp hl (1 cycle)
type jpHL struct{}

func matchJpHL(s inst.Spec) Emulator {
	if primaryOp(s, inst.JP) && s.Dst == inst.HL && s.Cond == inst.Always {
		return jpHL{}
	}
	return nil
}

func (jpHL) Advance(s *State, mem Memory, cycle int) Result {
	s.PC = s.HL()
	return FetchNext
}

// call cc, # (6 taken, 3 not taken)
type call struct{ cond inst.Condition }

func matchCall(s inst.Spec) Emulator {
	if primaryOp(s, inst.CALL) && s.Dst == inst.Imm16 {
		return call{s.Cond}
	}
	return nil
}

func (e call) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1, 4:
		return ContinueExecution
	case 2:
		s.Z = s.fetch(mem)
		return ContinueExecution
	case 3:
		s.W = s.fetch(mem)
		if !condition(s, e.cond) {
			return FetchNext
		}
		return ContinueExecution
	case 5:
		push(s, mem, uint8(s.PC>>8))
		return ContinueExecution
	}
	push(s, mem, uint8(s.PC))
	s.PC = s.WZ()
	return FetchNext
}

// ret (4), ret cc (5 taken, 2 not taken) and reti (4). reti sets IME as it
// completes, with no delay.
type ret struct {
	cond inst.Condition
	reti bool
}

func matchRet(s inst.Spec) Emulator {
	if primaryOp(s, inst.RET, inst.RETI) && s.Dst == inst.None {
		return ret{s.Cond, s.Op == inst.RETI}
	}
	return nil
}

func (e ret) Advance(s *State, mem Memory, cycle int) Result {
	// the conditional form spends cycle 2 on the test
	if e.cond != inst.Always {
		switch cycle {
		case 1:
			return ContinueExecution
		case 2:
			if !condition(s, e.cond) {
				return FetchNext
			}
			return ContinueExecution
		}
		cycle--
	}
	switch cycle {
	case 1:
		return ContinueExecution
	case 2:
		s.Z = pop(s, mem)
		return ContinueExecution
	case 3:
		s.W = pop(s, mem)
		return ContinueExecution
	}
	s.PC = s.WZ()
	if e.reti {
		s.IME = true
	}
	return FetchNext
}

// rst $xx (4 cycles)
type rst struct{ vector uint16 }

func matchRst(s inst.Spec) Emulator {
	if primaryOp(s, inst.RST) {
		return rst{uint16(s.Vector)}
	}
	return nil
}

func (e rst) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1, 2:
		return ContinueExecution
	case 3:
		push(s, mem, uint8(s.PC>>8))
		return ContinueExecution
	}
	push(s, mem, uint8(s.PC))
	s.PC = e.vector
	return FetchNext
}

// serviceInterrupt is the 5-cycle interrupt dispatch the CPU runs in place of
// an instruction. The CPU leaves the handler address in Z before cycle 1.
type serviceInterrupt struct{}

func (serviceInterrupt) Advance(s *State, mem Memory, cycle int) Result {
	switch cycle {
	case 1, 2:
		return ContinueExecution
	case 3:
		push(s, mem, uint8(s.PC>>8))
		return ContinueExecution
	case 4:
		push(s, mem, uint8(s.PC))
		return ContinueExecution
	}
	s.PC = uint16(s.Z)
	return FetchNext
}
