package cart

// romOnly is cart type 0x00/0x08/0x09: no banking, optional static RAM.
type romOnly struct {
	baseROMRAM
}

func newROMOnly(rom []byte, ramSize int, battery bool) *romOnly {
	c := &romOnly{baseROMRAM{rom: rom, hasBattery: battery}}
	if ramSize > 0 {
		c.ram = make([]byte, ramSize)
	}
	return c
}

func (c *romOnly) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		return c.romAt(int(addr))
	case addr >= 0xA000 && addr <= 0xBFFF:
		if len(c.ram) == 0 {
			return 0xFF
		}
		off := int(addr - 0xA000)
		if off < len(c.ram) {
			return c.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (c *romOnly) Write(addr uint16, v byte) {
	if addr >= 0xA000 && addr <= 0xBFFF && len(c.ram) > 0 {
		if off := int(addr - 0xA000); off < len(c.ram) {
			c.ram[off] = v
		}
	}
	// 0x0000-0x7FFF writes are ignored: no mapper to latch into.
}

func (c *romOnly) SaveState() []byte     { return append([]byte(nil), c.ram...) }
func (c *romOnly) LoadState(data []byte) { c.LoadRAM(data) }
