package ppu

// State is the opaque snapshot format the machine embeds in its
// overall save-state blob.
type State struct {
	VRAM     [2][0x2000]byte
	VRAMBank byte
	OAM      [0xA0]byte

	LCDC, STAT, SCY, SCX, LY, LYC byte
	BGP, OBP0, OBP1, WY, WX       byte

	BGPI, OBPI byte
	BGPD, OBPD [64]byte

	Dot        int
	StatLine   bool
	WindowLine int
}

func (p *PPU) SaveState() State {
	return State{
		VRAM: p.vram, VRAMBank: p.vramBank, OAM: p.oam,
		LCDC: p.lcdc, STAT: p.stat, SCY: p.scy, SCX: p.scx, LY: p.ly, LYC: p.lyc,
		BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1, WY: p.wy, WX: p.wx,
		BGPI: p.bgpi, OBPI: p.obpi, BGPD: p.bgpd, OBPD: p.obpd,
		Dot: p.dot, StatLine: p.statLine, WindowLine: p.windowLine,
	}
}

func (p *PPU) LoadState(s State) {
	p.vram, p.vramBank, p.oam = s.VRAM, s.VRAMBank, s.OAM
	p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc = s.LCDC, s.STAT, s.SCY, s.SCX, s.LY, s.LYC
	p.bgp, p.obp0, p.obp1, p.wy, p.wx = s.BGP, s.OBP0, s.OBP1, s.WY, s.WX
	p.bgpi, p.obpi, p.bgpd, p.obpd = s.BGPI, s.OBPI, s.BGPD, s.OBPD
	p.dot, p.statLine, p.windowLine = s.Dot, s.StatLine, s.WindowLine
}
