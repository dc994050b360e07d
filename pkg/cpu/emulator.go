package cpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oisee/gbcore/pkg/inst"
)

// Result tells the CPU whether the instruction in flight needs more cycles.
type Result uint8

const (
	ContinueExecution Result = iota // call Advance again next cycle
	FetchNext                       // instruction complete
)

func (r Result) String() string {
	if r == FetchNext {
		return "fetch-next"
	}
	return "continue"
}

// Emulator executes one shape of instruction. Advance is called once per
// machine cycle with cycle starting at 1; the cycle in which the opcode byte
// was fetched is cycle 1. An emulator is bound to its spec at construction
// and keeps nothing between calls: anything that must survive to a later
// cycle lives in State.W and State.Z.
type Emulator interface {
	Advance(s *State, mem Memory, cycle int) Result
}

// ErrUnmatchedEmulator means a reachable spec is claimed by zero or by more
// than one emulator. It is a defect in the registry, never a runtime
// condition.
var ErrUnmatchedEmulator = errors.New("unmatched emulator")

// matcher pairs a name with a constructor. match returns nil when the spec
// does not have the shape the emulator handles.
type matcher struct {
	name  string
	match func(inst.Spec) Emulator
}

// registry lists every emulator. Order only matters for error messages:
// exactly one entry may match any reachable spec.
var registry = []matcher{
	{"control", matchControl},
	{"accumulator", matchAccumulator},
	{"ld r, r", matchLdRegReg},
	{"ld r, #", matchLdRegImm},
	{"ld indirect", matchLdIndirect},
	{"ldi/ldd", matchLdStep},
	{"ld [hl], #", matchLdMemImm},
	{"ld rr, #", matchLdPairImm},
	{"ld [#]", matchLdAbsolute},
	{"ldh [#]", matchLdHigh},
	{"ld [#], sp", matchStoreSP},
	{"ld sp, hl", matchLdSPHL},
	{"ld hl, sp+#", matchLdHLSPOffset},
	{"push", matchPush},
	{"pop", matchPop},
	{"alu r", matchAluReg},
	{"alu [hl]", matchAluMem},
	{"alu #", matchAluImm},
	{"inc/dec r", matchIncDecReg},
	{"inc/dec [hl]", matchIncDecMem},
	{"inc/dec rr", matchIncDecPair},
	{"add hl, rr", matchAddHL},
	{"add sp, #", matchAddSP},
	{"jr", matchJr},
	{"jp #", matchJp},
	{"jp hl", matchJpHL},
	{"call", matchCall},
	{"ret", matchRet},
	{"rst", matchRst},
	{"cb shift r", matchShiftReg},
	{"cb shift [hl]", matchShiftMem},
	{"cb bit r", matchBitReg},
	{"cb bit [hl]", matchBitMem},
}

// dispatchTable maps each opcode of both tables to its emulator. Invalid
// slots and the escape entry stay nil.
type dispatchTable struct {
	primary   [256]Emulator
	secondary [256]Emulator
}

var dispatch *dispatchTable

func init() {
	var err error
	dispatch, err = buildDispatch(registry)
	if err != nil {
		panic(err)
	}
}

// buildDispatch matches every reachable spec against the registry. It fails
// on the first spec claimed by zero or several emulators.
func buildDispatch(reg []matcher) (*dispatchTable, error) {
	d := &dispatchTable{}
	for i := 0; i < 256; i++ {
		s := inst.Primary(byte(i))
		if !s.Valid() || s.IsEscape() {
			continue
		}
		e, err := resolve(reg, s)
		if err != nil {
			return nil, fmt.Errorf("opcode %02x: %w", i, err)
		}
		d.primary[i] = e
	}
	for i := 0; i < 256; i++ {
		s := inst.Secondary(byte(i))
		e, err := resolve(reg, s)
		if err != nil {
			return nil, fmt.Errorf("opcode cb %02x: %w", i, err)
		}
		d.secondary[i] = e
	}
	return d, nil
}

func resolve(reg []matcher, s inst.Spec) (Emulator, error) {
	var found Emulator
	var names []string
	for _, m := range reg {
		if e := m.match(s); e != nil {
			found = e
			names = append(names, m.name)
		}
	}
	if len(names) != 1 {
		return nil, fmt.Errorf("%w: %q matched by [%s]", ErrUnmatchedEmulator, inst.Text(s), strings.Join(names, ", "))
	}
	return found, nil
}

// Check rebuilds the dispatch table and reports any spec without exactly one
// emulator.
func Check() error {
	_, err := buildDispatch(registry)
	return err
}

// EmulatorName returns the registry name of the emulator handling s.
func EmulatorName(s inst.Spec) (string, bool) {
	for _, m := range registry {
		if m.match(s) != nil {
			return m.name, true
		}
	}
	return "", false
}

// emulatorFor returns the dispatch entry for a valid spec.
func emulatorFor(s inst.Spec) Emulator {
	enc := inst.Encode(s)
	if len(enc) == 0 {
		return nil
	}
	if s.Prefix == inst.PrefixCB {
		return dispatch.secondary[enc[1]]
	}
	return dispatch.primary[enc[0]]
}

// shape helpers shared by the match functions

func primaryOp(s inst.Spec, ops ...inst.Op) bool {
	if s.Prefix != inst.PrefixNone {
		return false
	}
	for _, o := range ops {
		if s.Op == o {
			return true
		}
	}
	return false
}

func isAluOp(o inst.Op) bool {
	switch o {
	case inst.ADD, inst.ADC, inst.SUB, inst.SBC, inst.AND, inst.OR, inst.XOR, inst.CP:
		return true
	}
	return false
}

// aluSource returns the source operand of an 8-bit accumulator op. add and
// sub spell the accumulator out, the rest carry only the source. Anything
// that is not an accumulator op returns None.
func aluSource(s inst.Spec) inst.Operand {
	if s.Prefix != inst.PrefixNone || !isAluOp(s.Op) {
		return inst.None
	}
	if s.Op == inst.ADD || s.Op == inst.SUB {
		if s.Dst != inst.A {
			return inst.None
		}
		return s.Src
	}
	if s.Src != inst.None {
		return inst.None
	}
	return s.Dst
}

// indirectAddress resolves a register-addressed memory operand.
func indirectAddress(s *State, o inst.Operand) uint16 {
	switch o {
	case inst.BCAddr:
		return s.BC()
	case inst.DEAddr:
		return s.DE()
	case inst.HLAddr:
		return s.HL()
	case inst.FFCAddr:
		return 0xFF00 | uint16(s.C)
	}
	panic("cpu: not a register-addressed operand: " + o.String())
}

func isIndirect(o inst.Operand) bool {
	return o == inst.HLAddr || o.IsPairAddr() || o == inst.FFCAddr
}

// push and pop move one byte through the stack.
func push(s *State, mem Memory, v uint8) {
	s.SP--
	mem.Write(v, s.SP)
}

func pop(s *State, mem Memory) uint8 {
	v := mem.Read(s.SP)
	s.SP++
	return v
}
