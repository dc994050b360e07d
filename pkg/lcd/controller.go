// Package lcd implements the DMG pixel processing unit: the scanline mode
// state machine, its memory-mapped registers, OAM and VRAM gating and a
// background renderer.
package lcd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/oisee/gbcore/pkg/cpu"
)

// Mode is the PPU mode as reported in the low two bits of STAT.
type Mode uint8

const (
	HBlank                  Mode = 0
	VBlank                  Mode = 1
	SearchingOAM            Mode = 2
	TransferringToLCDDriver Mode = 3
)

var modeNames = [...]string{
	HBlank:                  "hblank",
	VBlank:                  "vblank",
	SearchingOAM:            "searching-oam",
	TransferringToLCDDriver: "transferring",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Line timing in machine cycles, counted from the start of the scanline.
const (
	searchingOAMEnd = 20
	transferEnd     = 63
	scanlineCycles  = 114

	VisibleLines = 144
	TotalLines   = 154

	ScreenWidth  = 160
	ScreenHeight = 144
)

// ErrDisplayDisableOutsideVBlank is returned when the display is switched
// off while a visible line is being drawn.
var ErrDisplayDisableOutsideVBlank = errors.New("display disable outside vblank")

// Controller is the PPU. It owns VRAM, OAM and the LCD registers; the memory
// router forwards those address ranges to Read and Write.
type Controller struct {
	Logger *slog.Logger // nil means slog.Default()

	// LCDC
	displayEnabled    bool
	windowMap9C00     bool
	windowEnabled     bool
	tileData8000      bool
	backgroundMap9C00 bool
	tallSprites       bool
	objectsEnabled    bool
	backgroundEnabled bool

	// STAT interrupt enables
	coincidenceIRQ bool
	oamIRQ         bool
	vblankIRQ      bool
	hblankIRQ      bool

	mode      Mode
	modeCycle int // cycles since the current line started
	ly, lyc   uint8
	scy, scx  uint8
	wy, wx    uint8

	bgp, obp0, obp1 Palette

	vram [0x2000]uint8
	oam  [oamSize]uint8

	sprites  []Sprite // working set for the current line
	oamIndex int

	screen [ScreenWidth * ScreenHeight]uint8
	frames uint64
}

// New returns a controller with the display on, at the start of line 0.
func New() *Controller {
	return &Controller{
		displayEnabled:    true,
		tileData8000:      true,
		backgroundEnabled: true,
		mode:              SearchingOAM,
		bgp:               identityPalette,
		obp0:              identityPalette,
		obp1:              identityPalette,
		sprites:           make([]Sprite, 0, maxSprites),
	}
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Mode returns the current PPU mode.
func (c *Controller) Mode() Mode { return c.mode }

// LY returns the current scanline.
func (c *Controller) LY() uint8 { return c.ly }

// DisplayEnabled reports LCDC bit 7.
func (c *Controller) DisplayEnabled() bool { return c.displayEnabled }

// Frames returns the number of times vblank has been entered.
func (c *Controller) Frames() uint64 { return c.frames }

// Screen returns the shade (0-3) of every pixel, row-major.
func (c *Controller) Screen() []uint8 { return c.screen[:] }

// Advance runs one machine cycle. Mode changes happen only when the line
// counter crosses a fixed threshold. Interrupts are raised by OR-ing into
// the interrupt flag byte through mem.
func (c *Controller) Advance(mem cpu.Memory) {
	if !c.displayEnabled {
		return
	}
	c.modeCycle++

	switch c.mode {
	case SearchingOAM:
		// one entry per dot, two dots per machine cycle
		c.searchNextOAM()
		c.searchNextOAM()
		if c.modeCycle >= searchingOAMEnd {
			c.enterMode(mem, TransferringToLCDDriver)
		}

	case TransferringToLCDDriver:
		if c.modeCycle >= transferEnd {
			c.renderLine()
			c.enterMode(mem, HBlank)
		}

	case HBlank:
		if c.modeCycle >= scanlineCycles {
			c.modeCycle = 0
			c.setLY(mem, c.ly+1)
			if c.ly < VisibleLines {
				c.enterMode(mem, SearchingOAM)
				return
			}
			c.enterMode(mem, VBlank)
			cpu.RequestInterrupt(mem, cpu.InterruptVBlank)
			c.frames++
		}

	case VBlank:
		if c.modeCycle >= scanlineCycles {
			c.modeCycle = 0
			if c.ly+1 >= TotalLines {
				c.setLY(mem, 0)
				c.enterMode(mem, SearchingOAM)
				return
			}
			c.setLY(mem, c.ly+1)
		}
	}
}

// enterMode switches mode and raises the STAT interrupt when the mode's
// enable bit is set. mem may be nil when no interrupt can be raised.
func (c *Controller) enterMode(mem cpu.Memory, m Mode) {
	c.mode = m
	if m == SearchingOAM {
		c.sprites = c.sprites[:0]
		c.oamIndex = 0
	}
	if mem == nil {
		return
	}
	var irq bool
	switch m {
	case HBlank:
		irq = c.hblankIRQ
	case VBlank:
		irq = c.vblankIRQ
	case SearchingOAM:
		irq = c.oamIRQ
	}
	if irq {
		cpu.RequestInterrupt(mem, cpu.InterruptLCDStat)
	}
}

func (c *Controller) setLY(mem cpu.Memory, ly uint8) {
	c.ly = ly
	if c.coincidenceIRQ && c.ly == c.lyc {
		cpu.RequestInterrupt(mem, cpu.InterruptLCDStat)
	}
}

// SetDisplayEnabled switches the display. Turning it off is only allowed in
// vblank and puts the PPU back at the start of line 0; turning it on is
// always allowed.
func (c *Controller) SetDisplayEnabled(on bool) error {
	switch {
	case c.displayEnabled && !on:
		if c.ly < VisibleLines {
			return fmt.Errorf("ly %d: %w", c.ly, ErrDisplayDisableOutsideVBlank)
		}
		c.displayEnabled = false
		c.ly = 0
		c.modeCycle = 0
		c.enterMode(nil, SearchingOAM)
	case !c.displayEnabled && on:
		c.displayEnabled = true
		c.modeCycle = 0
	}
	return nil
}
