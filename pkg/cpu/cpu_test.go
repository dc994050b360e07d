package cpu

import (
	"errors"
	"testing"

	"github.com/oisee/gbcore/pkg/inst"
)

// testMemory is a flat 64K address space that counts accesses.
type testMemory struct {
	data   [0x10000]uint8
	reads  int
	writes int
	bank   uint8
}

func (m *testMemory) Read(address uint16) uint8 {
	m.reads++
	return m.data[address]
}

func (m *testMemory) Write(value uint8, address uint16) {
	m.writes++
	m.data[address] = value
}

func (m *testMemory) Bank() uint8 { return m.bank }

// load copies a program to addr.
func (m *testMemory) load(addr uint16, program ...uint8) {
	copy(m.data[addr:], program)
}

func mustParse(t *testing.T, text string) inst.Spec {
	t.Helper()
	s, ok := inst.ParseText(text)
	if !ok {
		t.Fatalf("%q: not in catalog", text)
	}
	return s
}

// runEmulator drives the emulator for s from cycle 1 until it reports
// FetchNext and returns the cycle count. The opcode bytes are assumed to have
// been fetched already; operands are read from mem at s.PC.
func runEmulator(t *testing.T, st *State, mem Memory, s inst.Spec) int {
	t.Helper()
	e := emulatorFor(s)
	if e == nil {
		t.Fatalf("%s: no emulator", inst.Text(s))
	}
	for cycle := 1; cycle <= 8; cycle++ {
		if e.Advance(st, mem, cycle) == FetchNext {
			return cycle
		}
	}
	t.Fatalf("%s: still running after 8 cycles", inst.Text(s))
	return 0
}

// TestDispatchExhaustive verifies every reachable spec has exactly one
// emulator.
func TestDispatchExhaustive(t *testing.T) {
	if err := Check(); err != nil {
		t.Fatal(err)
	}
	for _, s := range inst.All() {
		var names []string
		for _, m := range registry {
			if m.match(s) != nil {
				names = append(names, m.name)
			}
		}
		if len(names) != 1 {
			t.Errorf("%s: matched by %v", inst.Text(s), names)
		}
	}
}

// TestNonMatchingIsNil verifies emulators decline specs of the wrong shape.
func TestNonMatchingIsNil(t *testing.T) {
	if e := matchAluReg(mustParse(t, "add hl, bc")); e != nil {
		t.Errorf("alu r matched add hl, bc")
	}
	if e := matchLdRegReg(mustParse(t, "ld a, [hl]")); e != nil {
		t.Errorf("ld r, r matched ld a, [hl]")
	}
	if e := matchShiftReg(inst.Spec{Op: inst.RLC, Dst: inst.B}); e != nil {
		t.Errorf("cb shift matched an unprefixed spec")
	}
}

func TestBuildDispatchRejectsOverlap(t *testing.T) {
	reg := append([]matcher{{"greedy", func(s inst.Spec) Emulator {
		if s.Op == inst.NOP {
			return control{inst.NOP}
		}
		return nil
	}}}, registry...)
	if _, err := buildDispatch(reg); !errors.Is(err, ErrUnmatchedEmulator) {
		t.Errorf("overlapping registry: got %v, want ErrUnmatchedEmulator", err)
	}
	if _, err := buildDispatch(registry[1:]); !errors.Is(err, ErrUnmatchedEmulator) {
		t.Errorf("registry missing control: got %v, want ErrUnmatchedEmulator", err)
	}
}

func TestDecB(t *testing.T) {
	for _, carry := range []bool{false, true} {
		s := State{B: 0x00}
		s.SetFCarry(carry)
		mem := &testMemory{}
		if n := runEmulator(t, &s, mem, mustParse(t, "dec b")); n != 1 {
			t.Errorf("dec b: %d cycles, want 1", n)
		}
		if s.B != 0xFF {
			t.Errorf("dec b: got B=%02X, want FF", s.B)
		}
		if s.FZero() || !s.FSubtract() || !s.FHalfCarry() || s.FCarry() != carry {
			t.Errorf("dec b (carry=%v): flags %02X", carry, s.F)
		}
	}
}

func TestRrc(t *testing.T) {
	s := State{B: 0x01}
	mem := &testMemory{}
	if n := runEmulator(t, &s, mem, mustParse(t, "rrc b")); n != 1 {
		t.Errorf("rrc b: %d cycles, want 1", n)
	}
	if s.B != 0x80 {
		t.Errorf("rrc b: got %02X, want 80", s.B)
	}
	if !s.FCarry() || s.FZero() || s.FSubtract() || s.FHalfCarry() {
		t.Errorf("rrc b: flags %02X, want only carry", s.F)
	}

	s = State{H: 0xC0, L: 0x00}
	mem.data[0xC000] = 0x01
	if n := runEmulator(t, &s, mem, mustParse(t, "rrc [hl]")); n != 3 {
		t.Errorf("rrc [hl]: %d cycles, want 3", n)
	}
	if mem.data[0xC000] != 0x80 || !s.FCarry() {
		t.Errorf("rrc [hl]: got %02X flags %02X", mem.data[0xC000], s.F)
	}
}

// TestTiming checks representative cycle counts. Branch conditions are set up
// so that conditional forms are taken.
func TestTiming(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"nop", 1},
		{"ld b, c", 1},
		{"add a, b", 1},
		{"inc a", 1},
		{"rlca", 1},
		{"daa", 1},
		{"jp hl", 1},
		{"ld b, #", 2},
		{"add a, #", 2},
		{"ld a, [hl]", 2},
		{"ld [hl], a", 2},
		{"cp [hl]", 2},
		{"ld [bc], a", 2},
		{"ld a, [de]", 2},
		{"ldi a, [hl]", 2},
		{"ldh [c], a", 2},
		{"inc bc", 2},
		{"add hl, de", 2},
		{"ld sp, hl", 2},
		{"stop", 2},
		{"ld bc, #", 3},
		{"ld [hl], #", 3},
		{"inc [hl]", 3},
		{"ldh a, [#]", 3},
		{"pop de", 3},
		{"ld hl, sp+#", 3},
		{"ld [#], a", 4},
		{"ld a, [#]", 4},
		{"push bc", 4},
		{"jp #", 4},
		{"ret", 4},
		{"reti", 4},
		{"rst $10", 4},
		{"add sp, #", 4},
		{"ld [#], sp", 5},
		{"call #", 6},
		{"jr z, #", 3},
		{"jp z, #", 4},
		{"call z, #", 6},
		{"ret z", 5},
		{"swap a", 1},
		{"bit 3, [hl]", 2},
		{"set 3, [hl]", 3},
		{"res 0, b", 1},
	}
	for _, tc := range tests {
		s := State{PC: 0x0200, SP: 0xD000, H: 0xC0, F: FlagZ}
		mem := &testMemory{}
		if n := runEmulator(t, &s, mem, mustParse(t, tc.text)); n != tc.want {
			t.Errorf("%s: %d cycles, want %d", tc.text, n, tc.want)
		}
	}
}

func TestConditionalNotTaken(t *testing.T) {
	tests := []struct {
		text   string
		want   int
		wantPC uint16
	}{
		{"jr nz, #", 2, 0x0201},
		{"jp nz, #", 3, 0x0202},
		{"call nz, #", 3, 0x0202},
		{"ret nz", 2, 0x0200},
	}
	for _, tc := range tests {
		s := State{PC: 0x0200, SP: 0xD000, F: FlagZ}
		mem := &testMemory{}
		mem.load(0x0200, 0x10, 0x30)
		if n := runEmulator(t, &s, mem, mustParse(t, tc.text)); n != tc.want {
			t.Errorf("%s: %d cycles, want %d", tc.text, n, tc.want)
		}
		if s.PC != tc.wantPC {
			t.Errorf("%s: PC=%04X, want %04X", tc.text, s.PC, tc.wantPC)
		}
		if s.SP != 0xD000 {
			t.Errorf("%s: SP moved to %04X", tc.text, s.SP)
		}
	}
}

func TestJrNegative(t *testing.T) {
	s := State{PC: 0x0201}
	mem := &testMemory{}
	mem.load(0x0201, 0xFE) // jr -2: back onto the jr itself
	runEmulator(t, &s, mem, mustParse(t, "jr #"))
	if s.PC != 0x0200 {
		t.Errorf("jr -2: PC=%04X, want 0200", s.PC)
	}
}

func TestCallRet(t *testing.T) {
	c := New()
	c.PC = 0x0200
	c.SP = 0xD000
	mem := &testMemory{}
	mem.load(0x0200, 0xCD, 0x00, 0x03) // call $0300
	mem.load(0x0300, 0xC9)             // ret

	if n, err := c.Run(mem); err != nil || n != 6 {
		t.Fatalf("call: %d cycles, err %v", n, err)
	}
	if c.PC != 0x0300 || c.SP != 0xCFFE {
		t.Fatalf("call: PC=%04X SP=%04X", c.PC, c.SP)
	}
	if mem.data[0xCFFF] != 0x02 || mem.data[0xCFFE] != 0x03 {
		t.Errorf("call: pushed %02X%02X, want 0203", mem.data[0xCFFF], mem.data[0xCFFE])
	}
	if n, err := c.Run(mem); err != nil || n != 4 {
		t.Fatalf("ret: %d cycles, err %v", n, err)
	}
	if c.PC != 0x0203 || c.SP != 0xD000 {
		t.Errorf("ret: PC=%04X SP=%04X", c.PC, c.SP)
	}
}

func TestPushPopAF(t *testing.T) {
	c := New()
	c.PC = 0x0200
	c.SP = 0xD000
	c.SetBC(0x12FF)
	mem := &testMemory{}
	mem.load(0x0200, 0xC5, 0xF1) // push bc; pop af
	for i := 0; i < 2; i++ {
		if _, err := c.Run(mem); err != nil {
			t.Fatal(err)
		}
	}
	if c.A != 0x12 || c.F != 0xF0 {
		t.Errorf("pop af: A=%02X F=%02X, want 12 F0", c.A, c.F)
	}
}

// TestWidthSum runs a straight-line program and checks PC advanced by the
// sum of the instruction widths.
func TestWidthSum(t *testing.T) {
	program := []string{
		"ld a, #", "ld bc, #", "ld hl, #", "ld [hl], a", "ldh [#], a",
		"add a, #", "ld [#], a", "ld [#], sp", "rlc b", "bit 7, [hl]",
		"stop", "inc de", "ld hl, sp+#", "xor a",
	}
	mem := &testMemory{}
	addr := uint16(0x0200)
	want := 0
	for _, text := range program {
		s := mustParse(t, text)
		enc := inst.Encode(s)
		mem.load(addr, enc...)
		// operand bytes: point every address operand into WRAM
		for i := 0; i < inst.WidthOf(s).Operand; i++ {
			mem.data[int(addr)+len(enc)+i] = 0xC0
		}
		addr += uint16(inst.ByteSize(s))
		want += inst.ByteSize(s)
	}

	c := New()
	c.PC = 0x0200
	c.SP = 0xDFF0
	for i := range program {
		if c.Halted() {
			// stop idles until an interrupt is pending
			mem.data[InterruptEnableAddress] = 0x01
			mem.data[InterruptFlagAddress] = 0x01
		}
		if _, err := c.Run(mem); err != nil {
			t.Fatalf("instruction %d (%s): %v", i, program[i], err)
		}
	}
	if got := int(c.PC - 0x0200); got != want {
		t.Errorf("consumed %d bytes, widths sum to %d", got, want)
	}
}

func TestInterruptService(t *testing.T) {
	c := New()
	c.PC = 0x0200
	c.SP = 0xD000
	c.IME = true
	mem := &testMemory{}
	mem.data[InterruptEnableAddress] = uint8(InterruptVBlank | InterruptTimer)
	RequestInterrupt(mem, InterruptTimer)
	RequestInterrupt(mem, InterruptVBlank)

	n, err := c.Run(mem)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("dispatch took %d cycles, want 5", n)
	}
	if c.PC != 0x0040 {
		t.Errorf("PC=%04X, want 0040", c.PC)
	}
	if c.IME {
		t.Error("IME still set after dispatch")
	}
	if got := mem.data[InterruptFlagAddress]; got != uint8(InterruptTimer) {
		t.Errorf("IF=%02X, want only timer left", got)
	}
	if mem.data[0xCFFF] != 0x02 || mem.data[0xCFFE] != 0x00 {
		t.Errorf("pushed %02X%02X, want 0200", mem.data[0xCFFF], mem.data[0xCFFE])
	}
}

func TestInterruptVectors(t *testing.T) {
	tests := []struct {
		i    Interrupt
		want uint16
	}{
		{InterruptVBlank, 0x40},
		{InterruptLCDStat, 0x48},
		{InterruptTimer, 0x50},
		{InterruptSerial, 0x58},
		{InterruptJoypad, 0x60},
	}
	for _, tc := range tests {
		if got := tc.i.vector(); got != tc.want {
			t.Errorf("interrupt %02X: vector %04X, want %04X", uint8(tc.i), got, tc.want)
		}
	}
}

// TestEIDelay verifies ei lets one more instruction run before interrupts
// are taken.
func TestEIDelay(t *testing.T) {
	c := New()
	c.PC = 0x0200
	c.SP = 0xD000
	mem := &testMemory{}
	mem.load(0x0200, 0xFB, 0x00, 0x00) // ei; nop; nop
	mem.data[InterruptEnableAddress] = uint8(InterruptVBlank)
	mem.data[InterruptFlagAddress] = uint8(InterruptVBlank)

	for _, want := range []uint16{0x0201, 0x0202} {
		if _, err := c.Run(mem); err != nil {
			t.Fatal(err)
		}
		if c.PC != want {
			t.Fatalf("PC=%04X, want %04X", c.PC, want)
		}
	}
	if _, err := c.Run(mem); err != nil {
		t.Fatal(err)
	}
	if c.PC != 0x0040 {
		t.Errorf("PC=%04X, want interrupt taken after the nop", c.PC)
	}
}

// TestRepeatedEI verifies a second ei does not delay interrupts past the
// instruction following the first one.
func TestRepeatedEI(t *testing.T) {
	c := New()
	c.PC = 0x0200
	c.SP = 0xD000
	mem := &testMemory{}
	mem.load(0x0200, 0xFB, 0xFB, 0x00, 0x00) // ei; ei; nop; nop
	mem.data[InterruptEnableAddress] = uint8(InterruptVBlank)
	mem.data[InterruptFlagAddress] = uint8(InterruptVBlank)

	for i := 0; i < 3; i++ {
		if _, err := c.Run(mem); err != nil {
			t.Fatal(err)
		}
	}
	if c.PC != 0x0040 {
		t.Fatalf("PC=%04X, want interrupt taken after the second ei", c.PC)
	}
	if got := uint16(mem.data[0xCFFF])<<8 | uint16(mem.data[0xCFFE]); got != 0x0202 {
		t.Errorf("pushed %04X, want 0202", got)
	}
}

func TestDICancelsEI(t *testing.T) {
	c := New()
	c.PC = 0x0200
	mem := &testMemory{}
	mem.load(0x0200, 0xFB, 0xF3, 0x00, 0x00) // ei; di; nop; nop
	mem.data[InterruptEnableAddress] = 0x1F
	mem.data[InterruptFlagAddress] = 0x1F
	for i := 0; i < 4; i++ {
		if _, err := c.Run(mem); err != nil {
			t.Fatal(err)
		}
	}
	if c.IME || c.PC != 0x0204 {
		t.Errorf("IME=%v PC=%04X, want no interrupt", c.IME, c.PC)
	}
}

func TestHaltWakesWithoutIME(t *testing.T) {
	c := New()
	c.PC = 0x0200
	mem := &testMemory{}
	mem.load(0x0200, 0x76, 0x00) // halt; nop
	mem.data[InterruptEnableAddress] = uint8(InterruptTimer)
	if _, err := c.Run(mem); err != nil {
		t.Fatal(err)
	}
	idle := c.State
	for i := 0; i < 10; i++ {
		if err := c.Step(mem); err != nil {
			t.Fatal(err)
		}
	}
	if !c.State.Equal(idle) {
		t.Errorf("halted CPU changed state: %+v, was %+v", c.State, idle)
	}
	if !c.Halted() || c.PC != 0x0201 {
		t.Fatalf("halted=%v PC=%04X, want idle at 0201", c.Halted(), c.PC)
	}
	RequestInterrupt(mem, InterruptTimer)
	if err := c.Step(mem); err != nil {
		t.Fatal(err)
	}
	if c.Halted() || c.PC != 0x0202 {
		t.Errorf("halted=%v PC=%04X, want nop executed", c.Halted(), c.PC)
	}
}

func TestInvalidOpcodeLocksUp(t *testing.T) {
	c := New()
	c.PC = 0x0200
	mem := &testMemory{bank: 3}
	mem.load(0x0200, 0xD3)
	err := c.Step(mem)
	if !errors.Is(err, inst.ErrInvalidOpcode) {
		t.Fatalf("got %v, want ErrInvalidOpcode", err)
	}
	var ioe *inst.InvalidOpcodeError
	if !errors.As(err, &ioe) || ioe.Address != 0x0200 || ioe.Bank != 3 {
		t.Errorf("error %v does not locate the opcode", err)
	}
	reads := mem.reads
	locked := c.State
	for i := 0; i < 3; i++ {
		if err2 := c.Step(mem); err2 != err {
			t.Errorf("step after lock-up: got %v", err2)
		}
	}
	if mem.reads != reads {
		t.Error("locked CPU kept reading memory")
	}
	if !c.State.Equal(locked) {
		t.Errorf("locked CPU changed state: %+v, was %+v", c.State, locked)
	}
}

func TestOnRetire(t *testing.T) {
	c := New()
	c.PC = 0x0200
	mem := &testMemory{}
	mem.load(0x0200, 0xCB, 0x37, 0x06, 0x12) // swap a; ld b, $12
	var got []string
	var cycles []int
	c.OnRetire = func(s inst.Spec, n int) {
		got = append(got, inst.Text(s))
		cycles = append(cycles, n)
	}
	for i := 0; i < 4; i++ {
		if err := c.Step(mem); err != nil {
			t.Fatal(err)
		}
	}
	if len(got) != 2 || got[0] != "swap a" || got[1] != "ld b, #" {
		t.Fatalf("retired %v", got)
	}
	if cycles[0] != 2 || cycles[1] != 2 {
		t.Errorf("cycles %v, want [2 2]", cycles)
	}
	if c.B != 0x12 {
		t.Errorf("B=%02X, want 12", c.B)
	}
}
