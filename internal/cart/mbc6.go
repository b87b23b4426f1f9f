package cart

// mbc6 is a functional approximation of the rare MBC6 mapper (used
// only by Net de Get: Minigame @ 100). Real MBC6 splits the
// switchable window into two independent 8KiB halves and supports
// flash writes to cart RAM; this approximation gives each half its
// own bank register over plain ROM reads and treats cart RAM as
// ordinary battery-backed SRAM, which is sufficient for the titles
// this core targets running normal gameplay.
type mbc6 struct {
	baseROMRAM

	ramEnabled         bool
	romBankA, romBankB byte
	romBanks           int
}

func newMBC6(rom []byte, ramSize int) *mbc6 {
	m := &mbc6{baseROMRAM: baseROMRAM{rom: rom, hasBattery: true}, romBankA: 1, romBankB: 1}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	m.romBanks = len(rom) / 0x2000
	if m.romBanks == 0 {
		m.romBanks = 1
	}
	return m
}

func (m *mbc6) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.romAt(int(addr))
	case addr < 0x6000:
		bank := int(m.romBankA) % m.romBanks
		return m.romAt(bank*0x2000 + int(addr-0x4000))
	case addr < 0x8000:
		bank := int(m.romBankB) % m.romBanks
		return m.romAt(bank*0x2000 + int(addr-0x6000))
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		off := int(addr - 0xA000)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *mbc6) Write(addr uint16, v byte) {
	switch {
	case addr < 0x1000:
		m.ramEnabled = v&0x0F == 0x0A
	case addr < 0x3000:
		m.romBankA = v
	case addr < 0x4000:
		m.romBankB = v
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		off := int(addr - 0xA000)
		if off < len(m.ram) {
			m.ram[off] = v
		}
	}
}

type mbc6State struct {
	RAM                  []byte
	RAMEnabled           bool
	ROMBankA, ROMBankB   byte
}

func (m *mbc6) SaveState() []byte {
	return encodeGob(mbc6State{m.RAM(), m.ramEnabled, m.romBankA, m.romBankB})
}

func (m *mbc6) LoadState(data []byte) {
	var s mbc6State
	if decodeGob(data, &s) {
		m.LoadRAM(s.RAM)
		m.ramEnabled, m.romBankA, m.romBankB = s.RAMEnabled, s.ROMBankA, s.ROMBankB
	}
}
