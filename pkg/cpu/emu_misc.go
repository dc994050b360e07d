package cpu

import "github.com/oisee/gbcore/pkg/inst"

// nop, halt, di and ei take 1 cycle; stop takes 2, swallowing its zero byte.
// The CPU applies halt, stop and ei itself once they retire.
type control struct{ op inst.Op }

func matchControl(s inst.Spec) Emulator {
	if primaryOp(s, inst.NOP, inst.HALT, inst.STOP, inst.DI, inst.EI) {
		return control{s.Op}
	}
	return nil
}

func (e control) Advance(s *State, mem Memory, cycle int) Result {
	switch e.op {
	case inst.STOP:
		if cycle == 1 {
			return ContinueExecution
		}
		s.fetch(mem)
	case inst.DI:
		s.IME = false
	}
	return FetchNext
}
