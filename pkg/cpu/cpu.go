package cpu

import "github.com/oisee/gbcore/pkg/inst"

// BankReporter is implemented by memories that switch ROM banks. The CPU
// records the current bank alongside PC at every opcode fetch.
type BankReporter interface {
	Bank() uint8
}

// CPU drives the fetch-decode-execute cycle. Each call to Step is one machine
// cycle: it either continues the instruction in flight or starts a new one.
type CPU struct {
	State

	// OnRetire, if set, is called as each instruction completes with its spec
	// and the machine cycles it took, escape byte included.
	OnRetire func(spec inst.Spec, cycles int)

	spec     inst.Spec
	emu      Emulator
	cycle    int
	escape   bool // prefix fetched, secondary opcode next
	halted   bool
	imeDelay int   // boundaries left until a pending ei takes effect
	locked   error // set once an invalid opcode has been fetched
	cycles   uint64
}

// New returns a CPU with the post-boot register values.
func New() *CPU {
	return &CPU{State: Reset()}
}

// Reset reinitializes registers and drops any instruction in flight.
func (c *CPU) Reset() {
	*c = CPU{State: Reset(), OnRetire: c.OnRetire}
}

// Cycles returns the number of machine cycles stepped since reset.
func (c *CPU) Cycles() uint64 { return c.cycles }

// Halted reports whether the CPU is idling in halt or stop.
func (c *CPU) Halted() bool { return c.halted }

// Locked returns the invalid opcode error that stopped the CPU, or nil.
func (c *CPU) Locked() error { return c.locked }

// AtBoundary reports whether no instruction is in flight.
func (c *CPU) AtBoundary() bool { return c.emu == nil && !c.escape }

// Step runs one machine cycle. Once an invalid opcode has been fetched the
// CPU locks up: Step returns the same *inst.InvalidOpcodeError on every call
// and does nothing else.
func (c *CPU) Step(mem Memory) error {
	if c.locked != nil {
		return c.locked
	}
	c.cycles++

	if c.emu != nil {
		c.cycle++
		c.advance(mem)
		return nil
	}

	if c.escape {
		c.escape = false
		op := c.fetch(mem)
		c.begin(mem, inst.Secondary(op), dispatch.secondary[op])
		return nil
	}

	if c.halted {
		if pendingInterrupts(mem) == 0 {
			return nil
		}
		c.halted = false
	}

	if c.imeDelay > 0 {
		c.imeDelay--
		if c.imeDelay == 0 {
			c.IME = true
		}
	}

	if c.IME {
		if p := pendingInterrupts(mem); p != 0 {
			i := Interrupt(p & -p)
			c.IME = false
			mem.Write(mem.Read(InterruptFlagAddress)&^uint8(i), InterruptFlagAddress)
			c.Z = uint8(i.vector())
			c.begin(mem, inst.Spec{}, serviceInterrupt{})
			return nil
		}
	}

	pc := c.PC
	if b, ok := mem.(BankReporter); ok {
		c.Bank = b.Bank()
	}
	op := c.fetch(mem)
	s := inst.Primary(op)
	switch {
	case s.IsEscape():
		c.escape = true
		return nil
	case !s.Valid():
		c.locked = &inst.InvalidOpcodeError{Bank: c.Bank, Address: pc, Bytes: []byte{op}}
		return c.locked
	}
	c.begin(mem, s, dispatch.primary[op])
	return nil
}

func (c *CPU) begin(mem Memory, s inst.Spec, e Emulator) {
	c.spec = s
	c.emu = e
	c.cycle = 1
	c.advance(mem)
}

func (c *CPU) advance(mem Memory) {
	if c.emu.Advance(&c.State, mem, c.cycle) == FetchNext {
		c.retire()
	}
}

func (c *CPU) retire() {
	switch c.spec.Op {
	case inst.HALT, inst.STOP:
		c.halted = true
	case inst.EI:
		// a second ei must not push back the one already pending
		if c.imeDelay == 0 && !c.IME {
			c.imeDelay = 2
		}
	case inst.DI:
		c.imeDelay = 0
	}
	if c.OnRetire != nil && c.spec.Valid() {
		n := c.cycle
		if c.spec.Prefix == inst.PrefixCB {
			n++
		}
		c.OnRetire(c.spec, n)
	}
	c.emu = nil
}

// Run steps until the current instruction retires and returns the cycles it
// took. It is meant for tests and single-stepping, not for the frame loop.
func (c *CPU) Run(mem Memory) (int, error) {
	start := c.cycles
	for {
		if err := c.Step(mem); err != nil {
			return int(c.cycles - start), err
		}
		if c.AtBoundary() {
			return int(c.cycles - start), nil
		}
	}
}
