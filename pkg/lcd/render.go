package lcd

// renderLine draws the background for the current line into the screen
// buffer. Sprites and the window are not composited.
func (c *Controller) renderLine() {
	if int(c.ly) >= ScreenHeight {
		return
	}
	row := c.screen[int(c.ly)*ScreenWidth : (int(c.ly)+1)*ScreenWidth]
	if !c.backgroundEnabled {
		for x := range row {
			row[x] = c.bgp[0]
		}
		return
	}

	mapBase := uint16(0x9800)
	if c.backgroundMap9C00 {
		mapBase = 0x9C00
	}
	y := c.ly + c.scy
	for x := range row {
		px := uint8(x) + c.scx
		index := c.vram[mapBase+uint16(y/8)*32+uint16(px/8)-VRAMStart]
		addr := c.tileAddress(index) + uint16(y%8)*2
		lo := c.vram[addr-VRAMStart]
		hi := c.vram[addr+1-VRAMStart]
		shift := 7 - px%8
		colour := (hi>>shift&1)<<1 | lo>>shift&1
		row[x] = c.bgp[colour]
	}
}

// tileAddress resolves a tile index from the map. With LCDC bit 4 set tiles
// are numbered 0-255 from 0x8000; otherwise the index is signed around
// 0x9000.
func (c *Controller) tileAddress(index uint8) uint16 {
	if c.tileData8000 {
		return 0x8000 + uint16(index)*16
	}
	return uint16(int(0x9000) + int(int8(index))*16)
}
