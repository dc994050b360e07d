// Package gameboy wires the CPU, the LCD controller and the memory router
// into a machine that advances one machine cycle at a time.
package gameboy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oisee/gbcore/pkg/cpu"
	"github.com/oisee/gbcore/pkg/inst"
	"github.com/oisee/gbcore/pkg/lcd"
	"github.com/oisee/gbcore/pkg/memory"
	"github.com/oisee/gbcore/pkg/profile"
)

// FrameCycles is the number of machine cycles in one full frame.
const FrameCycles = 114 * lcd.TotalLines

// Config controls how a Machine is built.
type Config struct {
	Logger *slog.Logger // nil means slog.Default()

	// Profile, if set, records every retired instruction.
	Profile *profile.Table

	// SkipBoot starts at 0x0100 with the registers and I/O values the boot
	// ROM leaves behind. Without it the machine starts at 0x0000 with
	// cleared registers and SP at 0xFFFE, which suits raw assembled
	// programs.
	SkipBoot bool

	// Strict makes the router fault on unusable addresses; see
	// memory.Router.Strict.
	Strict bool
}

// Machine is a DMG with one cartridge inserted.
type Machine struct {
	CPU    *cpu.CPU
	LCD    *lcd.Controller
	Memory *memory.Router

	log *slog.Logger
	err error // sticky fault from the router
}

// New builds a machine around rom.
func New(rom []uint8, cfg Config) (*Machine, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	l := lcd.New()
	l.Logger = cfg.Logger
	mem, err := memory.New(rom, l)
	if err != nil {
		return nil, fmt.Errorf("load rom: %w", err)
	}
	mem.Strict = cfg.Strict

	c := cpu.New()
	if cfg.SkipBoot {
		mem.ApplyPostBoot()
	} else {
		c.State = cpu.State{SP: 0xFFFE}
	}
	if cfg.Profile != nil {
		c.OnRetire = cfg.Profile.Record
	}

	m := &Machine{CPU: c, LCD: l, Memory: mem, log: cfg.Logger}
	m.log.Debug("machine created",
		"title", mem.Title(),
		"banks", mem.Banks(),
		"skip_boot", cfg.SkipBoot,
		"strict", cfg.Strict)
	return m, nil
}

// Step runs one machine cycle: one CPU step, then one LCD step. A router
// fault is returned as *memory.AccessError and, like an invalid opcode,
// stops the machine for good.
func (m *Machine) Step() (err error) {
	if m.err != nil {
		return m.err
	}
	defer func() {
		if r := recover(); r != nil {
			ae, ok := r.(*memory.AccessError)
			if !ok {
				panic(r)
			}
			m.err = ae
			err = ae
		}
	}()
	if err := m.CPU.Step(m.Memory); err != nil {
		return err
	}
	m.LCD.Advance(m.Memory)
	return nil
}

// StepInstruction steps until the CPU reaches the next instruction boundary
// and returns the cycles that took.
func (m *Machine) StepInstruction() (int, error) {
	n := 0
	for {
		if err := m.Step(); err != nil {
			return n, err
		}
		n++
		if m.CPU.AtBoundary() {
			return n, nil
		}
	}
}

// Run steps for the given number of machine cycles, or until ctx is done when
// cycles is 0. ctx is checked between frames. It returns the cycles run.
func (m *Machine) Run(ctx context.Context, cycles uint64) (uint64, error) {
	m.log.Info("machine started", "cycles", cycles, "pc", fmt.Sprintf("%04x", m.CPU.PC))
	var n uint64
	for cycles == 0 || n < cycles {
		if n%FrameCycles == 0 {
			if err := ctx.Err(); err != nil {
				m.log.Info("machine interrupted", "cycles", n, "frames", m.LCD.Frames())
				return n, err
			}
		}
		if err := m.Step(); err != nil {
			m.log.Error("machine stopped",
				"err", err,
				"pc", fmt.Sprintf("%04x", m.CPU.PC),
				"bank", m.CPU.Bank,
				"cycle", m.CPU.Cycles())
			return n, err
		}
		n++
	}
	m.log.Debug("machine finished", "cycles", n, "frames", m.LCD.Frames())
	return n, nil
}

// RunFrame steps until the LCD completes a frame. With the display off no
// frame can complete, so it also stops once the display is off, after at most
// FrameCycles cycles, or when ctx is done. It returns the cycles run.
func (m *Machine) RunFrame(ctx context.Context) (int, error) {
	start := m.LCD.Frames()
	for n := 0; n < FrameCycles; n++ {
		if m.LCD.Frames() != start || !m.LCD.DisplayEnabled() {
			return n, nil
		}
		if n%114 == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
		if err := m.Step(); err != nil {
			return n + 1, err
		}
	}
	return FrameCycles, nil
}

// Stopped reports whether the machine has hit a fault it cannot step past.
func (m *Machine) Stopped() error {
	if m.err != nil {
		return m.err
	}
	return m.CPU.Locked()
}

// Snapshot is a plain copy of the machine's visible state.
type Snapshot struct {
	Registers cpu.State
	Halted    bool
	Cycles    uint64
	Bank      uint8
	Mode      string
	LY        uint8
	Frames    uint64
	Sprites   []lcd.Sprite
}

// Snapshot captures the current state.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		Registers: m.CPU.State,
		Halted:    m.CPU.Halted(),
		Cycles:    m.CPU.Cycles(),
		Bank:      m.Memory.Bank(),
		Mode:      m.LCD.Mode().String(),
		LY:        m.LCD.LY(),
		Frames:    m.LCD.Frames(),
		Sprites:   m.LCD.Sprites(),
	}
}

// IsFault reports whether err is one of the faults that stop a machine.
func IsFault(err error) bool {
	var ae *memory.AccessError
	return errors.As(err, &ae) || errors.Is(err, inst.ErrInvalidOpcode)
}
