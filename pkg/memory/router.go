// Package memory composes the DMG address space: banked cartridge ROM,
// cartridge and work RAM, high RAM, I/O registers and the LCD controller's
// VRAM, OAM and registers.
package memory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oisee/gbcore/pkg/cpu"
	"github.com/oisee/gbcore/pkg/lcd"
)

// BankSize is the size of one switchable ROM bank.
const BankSize = 0x4000

// DMA is the OAM DMA source register.
const DMA uint16 = 0xFF46

const joypad uint16 = 0xFF00

var (
	// ErrInvalidAddress is the sentinel carried by every *AccessError.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrEmptyROM is returned by New for a zero-length image.
	ErrEmptyROM = errors.New("empty rom image")
)

// AccessError records an access the router refuses. Read and Write cannot
// return errors, so the router panics with *AccessError and the driver
// recovers it.
type AccessError struct {
	Address uint16
	Write   bool
	Value   uint8
}

func (e *AccessError) Error() string {
	if e.Write {
		return fmt.Sprintf("write %02x to %04x: %v", e.Value, e.Address, ErrInvalidAddress)
	}
	return fmt.Sprintf("read from %04x: %v", e.Address, ErrInvalidAddress)
}

func (e *AccessError) Unwrap() error { return ErrInvalidAddress }

// Router implements cpu.Memory over the whole 16-bit address space.
type Router struct {
	// Strict makes accesses to the unusable 0xFEA0-0xFEFF range and ROM reads
	// past the end of the image panic with *AccessError instead of reading
	// 0xFF and dropping writes.
	Strict bool

	lcd   *lcd.Controller
	banks [][]uint8
	size  int // bytes in the original image
	bank  int // bank mapped at 0x4000-0x7FFF

	eram [0x2000]uint8
	wram [0x2000]uint8
	hram [0x7F]uint8
	io   [0x80]uint8
	ie   uint8
}

// New maps rom and routes the LCD ranges to l. The image is split into 16K
// banks; a short last bank is padded with 0xFF.
func New(rom []uint8, l *lcd.Controller) (*Router, error) {
	if len(rom) == 0 {
		return nil, ErrEmptyROM
	}
	r := &Router{lcd: l, size: len(rom), bank: 1}
	for off := 0; off < len(rom) || len(r.banks) < 2; off += BankSize {
		b := make([]uint8, BankSize)
		for i := range b {
			b[i] = 0xFF
		}
		if off < len(rom) {
			copy(b, rom[off:])
		}
		r.banks = append(r.banks, b)
	}
	return r, nil
}

// Bank returns the ROM bank mapped at 0x4000-0x7FFF.
func (r *Router) Bank() uint8 { return uint8(r.bank) }

// Banks returns the number of 16K banks in the image.
func (r *Router) Banks() int { return len(r.banks) }

// Title returns the cartridge title from the header, if any.
func (r *Router) Title() string {
	t := r.banks[0][0x134:0x144]
	for i, b := range t {
		if b == 0 || b >= 0x80 {
			t = t[:i]
			break
		}
	}
	return strings.TrimSpace(string(t))
}

func (r *Router) fail(address uint16, write bool, value uint8) {
	panic(&AccessError{Address: address, Write: write, Value: value})
}

func (r *Router) readROM(bank int, address uint16) uint8 {
	off := int(address) % BankSize
	if r.Strict && bank*BankSize+off >= r.size {
		r.fail(address, false, 0)
	}
	return r.banks[bank][off]
}

// Read implements cpu.Memory.
func (r *Router) Read(address uint16) uint8 {
	switch {
	case address < 0x4000:
		return r.readROM(0, address)
	case address < 0x8000:
		return r.readROM(r.bank, address)
	case address < 0xA000:
		return r.lcd.Read(address)
	case address < 0xC000:
		return r.eram[address-0xA000]
	case address < 0xE000:
		return r.wram[address-0xC000]
	case address < 0xFE00:
		return r.wram[address-0xE000] // echo of work RAM
	case address <= lcd.OAMEnd:
		return r.lcd.Read(address)
	case address < 0xFF00:
		if r.Strict {
			r.fail(address, false, 0)
		}
		return 0xFF
	case address == cpu.InterruptFlagAddress:
		return 0xE0 | r.io[address-0xFF00]
	case address == joypad:
		// no buttons pressed
		return 0xC0 | r.io[0]&0x30 | 0x0F
	case lcd.Handles(address):
		return r.lcd.Read(address)
	case address < 0xFF80:
		return r.io[address-0xFF00]
	case address < 0xFFFF:
		return r.hram[address-0xFF80]
	}
	return r.ie
}

// Write implements cpu.Memory.
func (r *Router) Write(value uint8, address uint16) {
	switch {
	case address < 0x8000:
		if address >= 0x2000 && address < 0x4000 {
			r.selectBank(value)
		}
	case address < 0xA000:
		r.lcd.Write(value, address)
	case address < 0xC000:
		r.eram[address-0xA000] = value
	case address < 0xE000:
		r.wram[address-0xC000] = value
	case address < 0xFE00:
		r.wram[address-0xE000] = value
	case address <= lcd.OAMEnd:
		r.lcd.Write(value, address)
	case address < 0xFF00:
		if r.Strict {
			r.fail(address, true, value)
		}
	case address == cpu.InterruptFlagAddress:
		r.io[address-0xFF00] = value & 0x1F
	case address == DMA:
		r.io[address-0xFF00] = value
		r.dma(value)
	case lcd.Handles(address):
		r.lcd.Write(value, address)
	case address < 0xFF80:
		r.io[address-0xFF00] = value
	case address < 0xFFFF:
		r.hram[address-0xFF80] = value
	default:
		r.ie = value
	}
}

// selectBank maps a bank at 0x4000. The low five bits select it, bank 0
// reads as bank 1 and selections past the image wrap.
func (r *Router) selectBank(value uint8) {
	b := int(value & 0x1F)
	if b == 0 {
		b = 1
	}
	r.bank = b % len(r.banks)
	if r.bank == 0 {
		r.bank = 1
	}
}

// dma copies 160 bytes from value<<8 into OAM at once, bypassing the mode
// gate the CPU path is subject to.
func (r *Router) dma(value uint8) {
	src := uint16(value) << 8
	for i := uint16(0); i < 0xA0; i++ {
		r.lcd.WriteOAM(uint8(i), r.Read(src+i))
	}
}

// ApplyPostBoot writes the I/O values the DMG boot ROM leaves behind.
func (r *Router) ApplyPostBoot() {
	for _, w := range postBoot {
		r.Write(w.value, w.address)
	}
}

var postBoot = []struct {
	address uint16
	value   uint8
}{
	{0xFF05, 0x00}, // TIMA
	{0xFF06, 0x00}, // TMA
	{0xFF07, 0x00}, // TAC
	{0xFF10, 0x80},
	{0xFF11, 0xBF},
	{0xFF12, 0xF3},
	{0xFF14, 0xBF},
	{0xFF16, 0x3F},
	{0xFF19, 0xBF},
	{0xFF1A, 0x7F},
	{0xFF1B, 0xFF},
	{0xFF1C, 0x9F},
	{0xFF1E, 0xBF},
	{0xFF20, 0xFF},
	{0xFF23, 0xBF},
	{0xFF24, 0x77},
	{0xFF25, 0xF3},
	{0xFF26, 0xF1},
	{lcd.LCDC, 0x91},
	{lcd.SCY, 0x00},
	{lcd.SCX, 0x00},
	{lcd.LYC, 0x00},
	{lcd.BGP, 0xFC},
	{lcd.OBP0, 0xFF},
	{lcd.OBP1, 0xFF},
	{lcd.WY, 0x00},
	{lcd.WX, 0x00},
	{cpu.InterruptEnableAddress, 0x00},
}
