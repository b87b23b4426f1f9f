// Package ppu implements the DMG and CGB picture processing unit: the
// STAT/LY mode state machine, VRAM/OAM with CGB bank switching, and a
// tile-fetcher-driven pixel pipeline producing one RGBA frame buffer
// per VBlank.
package ppu

import "github.com/greyhollow-dev/gbcore/internal/interrupt"

const (
	ScreenWidth  = 160
	ScreenHeight = 144
	dotsPerLine  = 456
	linesPerFrame = 154
)

// PPU models VRAM/OAM, LCDC/STAT/palette registers, and frame timing
// for both DMG and CGB models.
type PPU struct {
	cgb bool
	agb bool // Game Boy Advance DMG/CGB-compat mode: patches OBJ palette 0 luminance

	vram    [2][0x2000]byte // bank 0 always; bank 1 only meaningful in CGB mode
	vramBank byte
	oam     [0xA0]byte

	lcdc byte // FF40
	stat byte // FF41
	scy  byte // FF42
	scx  byte // FF43
	ly   byte // FF44
	lyc  byte // FF45
	bgp  byte // FF47 (DMG)
	obp0 byte // FF48 (DMG)
	obp1 byte // FF49 (DMG)
	wy   byte // FF4A
	wx   byte // FF4B

	bgpi, obpi   byte // FF68/FF6A index registers (autoinc in bit7)
	bgpd, obpd   [64]byte // FF69/FF6B backing stores, 8 palettes x 8 bytes

	dot int
	statLine bool // last computed STAT-interrupt OR output, for edge detection

	frame    [ScreenHeight][ScreenWidth]uint32
	frameReady bool

	windowLine int // internal window-line counter, only advances on rows the window was actually drawn

	irq *interrupt.Controller

	onHBlank func() // machine wires this to the HDMA HBlank-copy hook
	onVBlank func() // called on entering VBlank; the machine installs a no-op and hosts poll FrameReady/TakeFrame
}

func New(irq *interrupt.Controller, cgb bool) *PPU {
	return &PPU{irq: irq, cgb: cgb}
}

// SetAGBMode selects the Game Boy Advance's DMG/CGB-compatibility
// color quirk (§ SUPPLEMENTED FEATURES): AGB hardware boosts OBJ
// palette 0's luminance relative to a real CGB's LCD response.
func (p *PPU) SetAGBMode(agb bool) { p.agb = agb }

// SetHBlankHook/SetVBlankHook let the machine observe mode transitions
// without the ppu package importing dma or a host surface type.
func (p *PPU) SetHBlankHook(f func()) { p.onHBlank = f }
func (p *PPU) SetVBlankHook(f func()) { p.onVBlank = f }

func (p *PPU) Reset() {
	irq, cgb, agb, onHB, onVB := p.irq, p.cgb, p.agb, p.onHBlank, p.onVBlank
	*p = PPU{irq: irq, cgb: cgb, agb: agb, onHBlank: onHB, onVBlank: onVB}
}

func (p *PPU) mode() byte { return p.stat & 0x03 }

func (p *PPU) vramAccessible() bool { return p.mode() != 3 }
func (p *PPU) oamAccessible() bool  { m := p.mode(); return m != 2 && m != 3 }

// CPURead/CPUWrite serve the VRAM (0x8000-0x9FFF) and OAM (0xFE00-0xFE9F)
// windows; the MMU dispatches these ranges here directly.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if !p.vramAccessible() {
			return 0xFF
		}
		return p.vram[p.vramBank][addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if !p.oamAccessible() {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	default:
		return 0xFF
	}
}

func (p *PPU) CPUWrite(addr uint16, v byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if !p.vramAccessible() {
			return
		}
		p.vram[p.vramBank][addr-0x8000] = v
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if !p.oamAccessible() {
			return
		}
		p.oam[addr-0xFE00] = v
	}
}

// WriteOAM bypasses CPU-side mode locking; OAM DMA always wins bus
// arbitration against the CPU (§4.5).
func (p *PPU) WriteOAM(offset byte, v byte) { p.oam[offset] = v }

// WriteVRAM bypasses CPU-side mode locking for the HDMA/GDMA engine,
// which writes into whichever bank VBK currently selects.
func (p *PPU) WriteVRAM(addr uint16, v byte) {
	if addr >= 0x8000 && addr <= 0x9FFF {
		p.vram[p.vramBank][addr-0x8000] = v
	}
}

// ReadReg/WriteReg serve FF40-FF4B plus the CGB-only FF4F/FF68-FF6B
// registers; the MMU dispatches these addresses here directly.
func (p *PPU) ReadReg(addr uint16) byte {
	switch addr {
	case 0xFF40:
		return p.lcdc
	case 0xFF41:
		return 0x80 | (p.stat & 0x7F)
	case 0xFF42:
		return p.scy
	case 0xFF43:
		return p.scx
	case 0xFF44:
		return p.ly
	case 0xFF45:
		return p.lyc
	case 0xFF47:
		return p.bgp
	case 0xFF48:
		return p.obp0
	case 0xFF49:
		return p.obp1
	case 0xFF4A:
		return p.wy
	case 0xFF4B:
		return p.wx
	case 0xFF4F:
		if !p.cgb {
			return 0xFF
		}
		return 0xFE | p.vramBank
	case 0xFF68:
		return p.bgpi
	case 0xFF69:
		return p.readPaletteData(p.bgpd, p.bgpi)
	case 0xFF6A:
		return p.obpi
	case 0xFF6B:
		return p.readPaletteData(p.obpd, p.obpi)
	default:
		return 0xFF
	}
}

func (p *PPU) readPaletteData(store [64]byte, index byte) byte {
	if p.mode() == 3 {
		return 0xFF
	}
	return store[index&0x3F]
}

func (p *PPU) WriteReg(addr uint16, v byte) {
	switch addr {
	case 0xFF40:
		prev := p.lcdc
		p.lcdc = v
		if prev&0x80 != 0 && v&0x80 == 0 {
			p.ly, p.dot = 0, 0
			p.setMode(0)
			p.updateLYC()
		} else if prev&0x80 == 0 && v&0x80 != 0 {
			p.ly, p.dot = 0, 0
			p.setMode(2)
			p.updateLYC()
		}
	case 0xFF41:
		p.stat = (p.stat & 0x07) | (v & 0x78)
		p.refreshSTATLine()
	case 0xFF42:
		p.scy = v
	case 0xFF43:
		p.scx = v
	case 0xFF44:
		// read-only; writes reset LY on real hardware only via LCD-off, ignored here
	case 0xFF45:
		p.lyc = v
		p.updateLYC()
	case 0xFF47:
		p.bgp = v
	case 0xFF48:
		p.obp0 = v
	case 0xFF49:
		p.obp1 = v
	case 0xFF4A:
		p.wy = v
	case 0xFF4B:
		p.wx = v
	case 0xFF4F:
		if p.cgb {
			p.vramBank = v & 0x01
		}
	case 0xFF68:
		p.bgpi = v
	case 0xFF69:
		if p.mode() != 3 {
			idx := p.bgpi & 0x3F
			p.bgpd[idx] = v
			if p.bgpi&0x80 != 0 {
				p.bgpi = 0x80 | ((idx + 1) & 0x3F)
			}
		}
	case 0xFF6A:
		p.obpi = v
	case 0xFF6B:
		if p.mode() != 3 {
			idx := p.obpi & 0x3F
			p.obpd[idx] = v
			if p.obpi&0x80 != 0 {
				p.obpi = 0x80 | ((idx + 1) & 0x3F)
			}
		}
	}
}

// Advance steps the PPU by n T-cycles. CGB double-speed mode still
// drives the PPU at the single-speed dot rate; the machine is
// expected to halve the cycle count it passes in double-speed mode.
func (p *PPU) Advance(n int) {
	if p.lcdc&0x80 == 0 {
		return
	}
	for i := 0; i < n; i++ {
		p.tickDot()
	}
}

func (p *PPU) tickDot() {
	p.dot++

	var m byte
	switch {
	case p.ly >= 144:
		m = 1
	case p.dot < 80:
		m = 2
	case p.dot < 80+172:
		m = 3
	default:
		m = 0
	}
	p.setMode(m)

	if p.dot == 80+172 && m == 0 && p.onHBlank != nil {
		p.onHBlank()
	}

	if p.dot >= dotsPerLine {
		p.dot = 0
		if p.ly < 144 {
			p.renderScanline(p.ly)
		}
		p.ly++
		if p.ly == 144 {
			p.frameReady = true
			if p.onVBlank != nil {
				p.onVBlank()
			}
			p.irq.Request(interrupt.VBlank)
			p.setMode(1)
			p.windowLine = 0
		} else if p.ly >= linesPerFrame {
			p.ly = 0
			p.setMode(2)
		} else if p.ly < 144 {
			p.setMode(2)
		}
		p.updateLYC()
	}
}

func (p *PPU) setMode(m byte) {
	if p.stat&0x03 != m {
		p.stat = (p.stat &^ 0x03) | (m & 0x03)
	}
	p.refreshSTATLine()
}

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
	} else {
		p.stat &^= 1 << 2
	}
	p.refreshSTATLine()
}

// refreshSTATLine recomputes the single OR of all enabled STAT sources
// and requests the interrupt only on a 0->1 rising edge, per §4.4's
// "STAT is a single rising-edge-triggered signal" invariant.
func (p *PPU) refreshSTATLine() {
	m := p.mode()
	line := (p.stat&0x40 != 0 && p.stat&0x04 != 0) ||
		(p.stat&0x20 != 0 && m == 2) ||
		(p.stat&0x20 != 0 && m == 1) || // hardware quirk: mode-2 enable also fires on mode 1
		(p.stat&0x10 != 0 && m == 1) ||
		(p.stat&0x08 != 0 && m == 0)
	if line && !p.statLine {
		p.irq.Request(interrupt.STAT)
	}
	p.statLine = line
}

// FrameReady reports whether a full frame has been rendered since the
// last TakeFrame call.
func (p *PPU) FrameReady() bool { return p.frameReady }

// TakeFrame returns the last completed frame (RGBA8888 packed into
// uint32, 0xRRGGBBAA) and clears the ready flag.
func (p *PPU) TakeFrame() [ScreenHeight][ScreenWidth]uint32 {
	p.frameReady = false
	return p.frame
}
