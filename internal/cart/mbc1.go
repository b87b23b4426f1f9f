package cart

// mbc1 implements §4.3's MBC1: 5-bit low ROM bank (0 remaps to 1), a
// 2-bit upper field shared between ROM-bank-high and RAM-bank
// depending on the banking mode, and the mode-1 multicart quirk where
// the upper field also banks the fixed 0x0000-0x3FFF region.
type mbc1 struct {
	baseROMRAM

	ramEnabled bool
	bankLow5   byte
	upper2     byte
	mode       byte // 0: ROM banking, 1: RAM banking / multicart

	romBanks int
}

func newMBC1(rom []byte, ramSize int, battery bool) *mbc1 {
	m := &mbc1{baseROMRAM: baseROMRAM{rom: rom, hasBattery: battery}, bankLow5: 1}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	m.romBanks = len(rom) / 0x4000
	if m.romBanks == 0 {
		m.romBanks = 1
	}
	return m
}

func (m *mbc1) mask(bank int) int {
	if m.romBanks <= 0 {
		return 0
	}
	return bank % m.romBanks
}

func (m *mbc1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		bank := 0
		if m.mode == 1 {
			bank = int(m.upper2&0x03) << 5
		}
		return m.romAt(m.mask(bank)*0x4000 + int(addr))
	case addr < 0x8000:
		bank := int(m.bankLow5) | int(m.upper2&0x03)<<5
		return m.romAt(m.mask(bank)*0x4000 + int(addr-0x4000))
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		bank := 0
		if m.mode == 1 {
			bank = int(m.upper2 & 0x03)
		}
		off := bank*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *mbc1) Write(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = v&0x0F == 0x0A
	case addr < 0x4000:
		m.bankLow5 = v & 0x1F
		if m.bankLow5 == 0 {
			m.bankLow5 = 1
		}
	case addr < 0x6000:
		m.upper2 = v & 0x03
	case addr < 0x8000:
		m.mode = v & 0x01
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		bank := 0
		if m.mode == 1 {
			bank = int(m.upper2 & 0x03)
		}
		off := bank*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			m.ram[off] = v
		}
	}
}

type mbc1State struct {
	RAM                         []byte
	RAMEnabled                  bool
	BankLow5, Upper2, Mode      byte
}

func (m *mbc1) SaveState() []byte {
	return encodeGob(mbc1State{m.RAM(), m.ramEnabled, m.bankLow5, m.upper2, m.mode})
}

func (m *mbc1) LoadState(data []byte) {
	var s mbc1State
	if decodeGob(data, &s) {
		m.LoadRAM(s.RAM)
		m.ramEnabled, m.bankLow5, m.upper2, m.mode = s.RAMEnabled, s.BankLow5, s.Upper2, s.Mode
	}
}
