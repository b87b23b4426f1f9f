package ppu

// renderBGLine renders 160 BG color-index/attribute entries for ly
// using the isolated fetcher, resolving CGB tile attributes from VRAM
// bank 1 when the PPU is running in CGB mode.
func (p *PPU) renderBGLine(ly byte) [160]pixelEntry {
	var out [160]pixelEntry

	mapBase := uint16(0x9800)
	if p.lcdc&0x08 != 0 {
		mapBase = 0x9C00
	}
	tileData8000 := p.lcdc&0x10 != 0

	bgY := uint16(ly) + uint16(p.scy)
	fineY := byte(bgY & 7)
	mapY := (bgY >> 3) & 31
	startX := uint16(p.scx)
	tileX := (startX >> 3) & 31
	fineX := int(startX & 7)

	tileIndexAddr := mapBase + mapY*32 + tileX

	mem := bankReader{p, 0}
	var attrs, alt VRAMReader
	if p.cgb {
		attrs = bankReader{p, 1}
		alt = bankReader{p, 1}
	}

	var q fifo
	f := newBGFetcher(mem, attrs, alt, &q)
	f.Configure(mapBase, tileData8000, tileIndexAddr, fineY)
	f.Fetch()
	for i := 0; i < fineX; i++ {
		_, _ = q.Pop()
	}

	for x := 0; x < 160; x++ {
		if q.Len() == 0 {
			tileX = (tileX + 1) & 31
			tileIndexAddr = mapBase + mapY*32 + tileX
			f.Configure(mapBase, tileData8000, tileIndexAddr, fineY)
			f.Fetch()
		}
		e, _ := q.Pop()
		out[x] = e
	}
	return out
}

// renderWindowLine renders the window layer starting at wxStart
// (WX-7), using winLine as the vertical line within the window.
// Pixels before wxStart keep the zero value so the caller can tell
// them apart from real window pixels.
func (p *PPU) renderWindowLine(wxStart int, winLine byte) [160]pixelEntry {
	var out [160]pixelEntry
	if wxStart >= 160 {
		return out
	}
	if wxStart < 0 {
		wxStart = 0
	}

	mapBase := uint16(0x9800)
	if p.lcdc&0x40 != 0 {
		mapBase = 0x9C00
	}
	tileData8000 := p.lcdc&0x10 != 0

	mapY := (uint16(winLine) >> 3) & 31
	fineY := winLine & 7
	tileX := uint16(0)
	tileIndexAddr := mapBase + mapY*32 + tileX

	mem := bankReader{p, 0}
	var attrs, alt VRAMReader
	if p.cgb {
		attrs = bankReader{p, 1}
		alt = bankReader{p, 1}
	}

	var q fifo
	f := newBGFetcher(mem, attrs, alt, &q)
	f.Configure(mapBase, tileData8000, tileIndexAddr, fineY)
	f.Fetch()
	for x := wxStart; x < 160; x++ {
		if q.Len() == 0 {
			tileX = (tileX + 1) & 31
			tileIndexAddr = mapBase + mapY*32 + tileX
			f.Configure(mapBase, tileData8000, tileIndexAddr, fineY)
			f.Fetch()
		}
		e, _ := q.Pop()
		out[x] = e
	}
	return out
}

// renderScanline composites BG, window and sprites for ly into the
// frame buffer, in the DMG/CGB priority order §4.4 specifies.
func (p *PPU) renderScanline(ly byte) {
	bgOn := p.lcdc&0x01 != 0 || p.cgb // on CGB, LCDC bit0 instead toggles BG-under-sprite priority
	var bg [160]pixelEntry
	if bgOn {
		bg = p.renderBGLine(ly)
	}

	windowOn := p.lcdc&0x20 != 0 && p.wy <= ly
	if windowOn {
		wxStart := int(p.wx) - 7
		if wxStart < 160 {
			win := p.renderWindowLine(wxStart, byte(p.windowLine))
			for x := wxStart; x < 160; x++ {
				if x < 0 {
					continue
				}
				bg[x] = win[x]
			}
			p.windowLine++
		}
	}

	sprites := p.spritesOnLine(ly)

	for x := 0; x < 160; x++ {
		bgEntry := bg[x]
		if !bgOn && !p.cgb {
			bgEntry = pixelEntry{}
		}
		var color uint32
		if p.cgb {
			color = p.cgbBGColor(bgEntry.palette, bgEntry.color)
		} else {
			color = dmgColor(applyDMGPalette(p.bgp, bgEntry.color))
		}

		if sp, ok := p.spritePixelAt(sprites, x, ly); ok {
			var bgWins bool
			if p.cgb && p.lcdc&0x01 == 0 {
				bgWins = false // master priority off: sprites always on top
			} else {
				bgWins = bgEntry.color != 0 && (!sp.priority || (p.cgb && bgEntry.priority))
			}
			if !bgWins {
				if p.cgb {
					color = p.cgbOBJColor(sp.cgbPalette, sp.color)
				} else {
					pal := p.obp0
					if sp.dmgPalette == 1 {
						pal = p.obp1
					}
					color = dmgColor(applyDMGPalette(pal, sp.color))
				}
			}
		}

		p.frame[ly][x] = color
	}
}

func applyDMGPalette(pal, colorIndex byte) byte {
	return (pal >> (colorIndex * 2)) & 0x03
}
