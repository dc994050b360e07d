package lcd

const (
	oamSize    = 0xA0
	oamEntries = oamSize / 4
	maxSprites = 10
)

// Sprite is one OAM entry. Y and X are stored with their hardware offsets
// of 16 and 8.
type Sprite struct {
	Y, X  uint8
	Tile  uint8
	Flags uint8
}

func (c *Controller) sprite(i int) Sprite {
	b := c.oam[i*4 : i*4+4]
	return Sprite{Y: b[0], X: b[1], Tile: b[2], Flags: b[3]}
}

func (c *Controller) spriteHeight() int {
	if c.tallSprites {
		return 16
	}
	return 8
}

// searchNextOAM examines one OAM entry. A sprite joins the line's working set
// when it is on screen horizontally and the line falls inside its height.
func (c *Controller) searchNextOAM() {
	if len(c.sprites) >= maxSprites || c.oamIndex >= oamEntries {
		return
	}
	s := c.sprite(c.oamIndex)
	c.oamIndex++
	line := int(c.ly) + 16
	if s.X != 0 && line >= int(s.Y) && line < int(s.Y)+c.spriteHeight() {
		c.sprites = append(c.sprites, s)
	}
}

// Sprites returns a copy of the working set built by the last OAM search.
func (c *Controller) Sprites() []Sprite {
	out := make([]Sprite, len(c.sprites))
	copy(out, c.sprites)
	return out
}

// WriteOAM stores into OAM regardless of mode. It is the DMA path; the CPU
// path is Write.
func (c *Controller) WriteOAM(offset uint8, value uint8) {
	if int(offset) < oamSize {
		c.oam[offset] = value
	}
}
