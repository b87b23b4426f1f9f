package cart

// mbc2 implements §4.3's MBC2: a built-in 512x4-bit RAM, 4-bit ROM
// banking, with the RAM-enable/ROM-bank-select choice made by address
// bit 8 of the write (addr<0x4000, bit8=1 selects ROM bank, bit8=0
// toggles RAM enable).
type mbc2 struct {
	baseROMRAM

	ramEnabled bool
	romBank    byte // 4 bits, 0 remaps to 1
	nibbles    [512]byte

	romBanks int
}

func newMBC2(rom []byte, battery bool) *mbc2 {
	m := &mbc2{baseROMRAM: baseROMRAM{rom: rom, hasBattery: battery}, romBank: 1}
	m.romBanks = len(rom) / 0x4000
	if m.romBanks == 0 {
		m.romBanks = 1
	}
	return m
}

func (m *mbc2) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.romAt(int(addr))
	case addr < 0x8000:
		bank := int(m.romBank) % m.romBanks
		return m.romAt(bank*0x4000 + int(addr-0x4000))
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		return 0xF0 | (m.nibbles[(addr-0xA000)&0x1FF] & 0x0F)
	default:
		return 0xFF
	}
}

func (m *mbc2) Write(addr uint16, v byte) {
	switch {
	case addr < 0x4000:
		if addr&0x0100 != 0 {
			m.romBank = v & 0x0F
			if m.romBank == 0 {
				m.romBank = 1
			}
		} else {
			m.ramEnabled = v&0x0F == 0x0A
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if m.ramEnabled {
			m.nibbles[(addr-0xA000)&0x1FF] = v & 0x0F
		}
	}
}

func (m *mbc2) HasBattery() bool { return m.hasBattery }

func (m *mbc2) RAM() []byte {
	out := make([]byte, len(m.nibbles))
	copy(out, m.nibbles[:])
	return out
}

func (m *mbc2) LoadRAM(data []byte) {
	n := copy(m.nibbles[:], data)
	_ = n
}

type mbc2State struct {
	Nibbles    [512]byte
	RAMEnabled bool
	ROMBank    byte
}

func (m *mbc2) SaveState() []byte {
	return encodeGob(mbc2State{m.nibbles, m.ramEnabled, m.romBank})
}

func (m *mbc2) LoadState(data []byte) {
	var s mbc2State
	if decodeGob(data, &s) {
		m.nibbles, m.ramEnabled, m.romBank = s.Nibbles, s.RAMEnabled, s.ROMBank
	}
}
