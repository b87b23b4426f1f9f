package cart

// huc1 approximates Hudson's HuC1: MBC1-style ROM/RAM banking with an
// IR-enable latch in place of RAM-enable when the low nibble written
// is 0x0E. The IR receiver itself is out of scope (§1 Non-goals list
// link-cable-class peripherals), so reads through it return the
// "no signal detected" value real hardware reports, 0xC0.
type huc1 struct {
	baseROMRAM

	ramEnabled bool
	irMode     bool
	romBank    byte
	ramBank    byte
	romBanks   int
}

func newHuC1(rom []byte, ramSize int) *huc1 {
	m := &huc1{baseROMRAM: baseROMRAM{rom: rom, hasBattery: true}, romBank: 1}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	m.romBanks = len(rom) / 0x4000
	if m.romBanks == 0 {
		m.romBanks = 1
	}
	return m
}

func (m *huc1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.romAt(int(addr))
	case addr < 0x8000:
		bank := int(m.romBank) % m.romBanks
		return m.romAt(bank*0x4000 + int(addr-0x4000))
	case addr >= 0xA000 && addr <= 0xBFFF:
		if m.irMode {
			return 0xC0
		}
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		off := int(m.ramBank&0x03)*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *huc1) Write(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		switch v & 0x0F {
		case 0x0E:
			m.irMode = true
		case 0x0A:
			m.irMode = false
			m.ramEnabled = true
		default:
			m.ramEnabled = false
		}
	case addr < 0x4000:
		m.romBank = v & 0x3F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case addr < 0x6000:
		m.ramBank = v & 0x03
	case addr >= 0xA000 && addr <= 0xBFFF:
		if m.irMode || !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		off := int(m.ramBank&0x03)*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			m.ram[off] = v
		}
	}
}

type huc1State struct {
	RAM                        []byte
	RAMEnabled, IRMode         bool
	ROMBank, RAMBank           byte
}

func (m *huc1) SaveState() []byte {
	return encodeGob(huc1State{m.RAM(), m.ramEnabled, m.irMode, m.romBank, m.ramBank})
}

func (m *huc1) LoadState(data []byte) {
	var s huc1State
	if decodeGob(data, &s) {
		m.LoadRAM(s.RAM)
		m.ramEnabled, m.irMode, m.romBank, m.ramBank = s.RAMEnabled, s.IRMode, s.ROMBank, s.RAMBank
	}
}
