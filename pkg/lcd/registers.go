package lcd

// Register addresses. DMA (0xFF46) belongs to the memory router.
const (
	LCDC uint16 = 0xFF40
	STAT uint16 = 0xFF41
	SCY  uint16 = 0xFF42
	SCX  uint16 = 0xFF43
	LY   uint16 = 0xFF44
	LYC  uint16 = 0xFF45
	BGP  uint16 = 0xFF47
	OBP0 uint16 = 0xFF48
	OBP1 uint16 = 0xFF49
	WY   uint16 = 0xFF4A
	WX   uint16 = 0xFF4B
)

// Address ranges owned by the controller.
const (
	VRAMStart uint16 = 0x8000 // tile data 0x8000-0x97FF, tile maps 0x9800-0x9FFF
	VRAMEnd   uint16 = 0x9FFF
	OAMStart  uint16 = 0xFE00
	OAMEnd    uint16 = 0xFE9F
)

// Palette maps each of the four colour numbers to a shade.
type Palette [4]uint8

var identityPalette = Palette{0, 1, 2, 3}

// PaletteFromByte decodes the 2-bits-per-entry register layout, entry 0 in
// the low bits.
func PaletteFromByte(b uint8) Palette {
	return Palette{b & 3, (b >> 2) & 3, (b >> 4) & 3, (b >> 6) & 3}
}

// Byte encodes p in register layout.
func (p Palette) Byte() uint8 {
	return p[0]&3 | (p[1]&3)<<2 | (p[2]&3)<<4 | (p[3]&3)<<6
}

// Handles reports whether address belongs to the controller.
func Handles(address uint16) bool {
	switch {
	case address >= VRAMStart && address <= VRAMEnd:
		return true
	case address >= OAMStart && address <= OAMEnd:
		return true
	case address >= LCDC && address <= LYC:
		return true
	case address >= BGP && address <= WX:
		return true
	}
	return false
}

// accessible reports whether the CPU may touch VRAM and OAM right now.
func (c *Controller) accessible() bool {
	return !c.displayEnabled || c.mode == HBlank || c.mode == VBlank
}

func bit(on bool, mask uint8) uint8 {
	if on {
		return mask
	}
	return 0
}

// Read implements the CPU view of the controller's address ranges. VRAM and
// OAM read 0xFF while the PPU owns them.
func (c *Controller) Read(address uint16) uint8 {
	switch {
	case address >= VRAMStart && address <= VRAMEnd:
		if !c.accessible() {
			return 0xFF
		}
		return c.vram[address-VRAMStart]
	case address >= OAMStart && address <= OAMEnd:
		if !c.accessible() {
			return 0xFF
		}
		return c.oam[address-OAMStart]
	}

	switch address {
	case LCDC:
		return bit(c.displayEnabled, 0x80) |
			bit(c.windowMap9C00, 0x40) |
			bit(c.windowEnabled, 0x20) |
			bit(c.tileData8000, 0x10) |
			bit(c.backgroundMap9C00, 0x08) |
			bit(c.tallSprites, 0x04) |
			bit(c.objectsEnabled, 0x02) |
			bit(c.backgroundEnabled, 0x01)
	case STAT:
		return bit(c.coincidenceIRQ, 0x40) |
			bit(c.oamIRQ, 0x20) |
			bit(c.vblankIRQ, 0x10) |
			bit(c.hblankIRQ, 0x08) |
			bit(c.ly == c.lyc, 0x04) |
			uint8(c.mode)
	case SCY:
		return c.scy
	case SCX:
		return c.scx
	case LY:
		return c.ly
	case LYC:
		return c.lyc
	case BGP:
		return c.bgp.Byte()
	case OBP0:
		return c.obp0.Byte()
	case OBP1:
		return c.obp1.Byte()
	case WY:
		return c.wy
	case WX:
		return c.wx
	}
	return 0xFF
}

// Write implements the CPU view of the controller's address ranges. VRAM and
// OAM writes are dropped while the PPU owns them.
func (c *Controller) Write(value uint8, address uint16) {
	switch {
	case address >= VRAMStart && address <= VRAMEnd:
		if c.accessible() {
			c.vram[address-VRAMStart] = value
		}
		return
	case address >= OAMStart && address <= OAMEnd:
		if c.accessible() {
			c.oam[address-OAMStart] = value
		}
		return
	}

	switch address {
	case LCDC:
		c.writeLCDC(value)
	case STAT:
		c.coincidenceIRQ = value&0x40 != 0
		c.oamIRQ = value&0x20 != 0
		c.vblankIRQ = value&0x10 != 0
		c.hblankIRQ = value&0x08 != 0
	case SCY:
		c.scy = value
	case SCX:
		c.scx = value
	case LY:
		c.ly = 0
	case LYC:
		c.lyc = value
	case BGP:
		c.bgp = PaletteFromByte(value)
	case OBP0:
		c.obp0 = PaletteFromByte(value)
	case OBP1:
		c.obp1 = PaletteFromByte(value)
	case WY:
		c.wy = value
	case WX:
		c.wx = value
	}
}

// writeLCDC applies every bit but refuses to turn the display off outside
// vblank; that case keeps the display running and logs a warning.
func (c *Controller) writeLCDC(value uint8) {
	c.windowMap9C00 = value&0x40 != 0
	c.windowEnabled = value&0x20 != 0
	c.tileData8000 = value&0x10 != 0
	c.backgroundMap9C00 = value&0x08 != 0
	c.tallSprites = value&0x04 != 0
	c.objectsEnabled = value&0x02 != 0
	c.backgroundEnabled = value&0x01 != 0
	if err := c.SetDisplayEnabled(value&0x80 != 0); err != nil {
		c.logger().Warn("lcdc write kept display enabled", "value", value, "ly", c.ly, "mode", c.mode.String(), "err", err)
	}
}
