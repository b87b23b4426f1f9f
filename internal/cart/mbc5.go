package cart

// mbc5 implements §4.3's MBC5: a full 9-bit ROM bank register (unlike
// MBC1/MBC3, bank 0 is NOT remapped to 1 -- addressing bank 0 through
// the switchable window really does read bank 0) plus a 4-bit RAM
// bank, the top bit of which doubles as the rumble motor control on
// cart types 0x1C-0x1E.
type mbc5 struct {
	baseROMRAM

	ramEnabled bool
	romBankLo  byte
	romBankHi  byte // bit 8 only
	ramBank    byte // 4 bits; bit 3 is rumble on rumble carts

	rumble    bool
	rumbleOn  bool
	romBanks  int
}

func newMBC5(rom []byte, ramSize int, battery, rumble bool) *mbc5 {
	m := &mbc5{baseROMRAM: baseROMRAM{rom: rom, hasBattery: battery}, romBankLo: 1, rumble: rumble}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	m.romBanks = len(rom) / 0x4000
	if m.romBanks == 0 {
		m.romBanks = 1
	}
	return m
}

func (m *mbc5) bank() int {
	return (int(m.romBankHi&0x01)<<8 | int(m.romBankLo)) % m.romBanks
}

func (m *mbc5) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.romAt(int(addr))
	case addr < 0x8000:
		return m.romAt(m.bank()*0x4000 + int(addr-0x4000))
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		off := int(m.ramBank&0x0F)*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *mbc5) Write(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = v&0x0F == 0x0A
	case addr < 0x3000:
		m.romBankLo = v
	case addr < 0x4000:
		m.romBankHi = v & 0x01
	case addr < 0x6000:
		sel := v & 0x0F
		if m.rumble {
			m.rumbleOn = sel&0x08 != 0
			sel &= 0x07
		}
		m.ramBank = sel
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		off := int(m.ramBank&0x0F)*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			m.ram[off] = v
		}
	}
}

// Rumbling reports the motor state for a host collaborator that wants
// to surface haptic feedback; the core itself has no actuator.
func (m *mbc5) Rumbling() bool { return m.rumble && m.rumbleOn }

type mbc5State struct {
	RAM                           []byte
	RAMEnabled, RumbleOn          bool
	ROMBankLo, ROMBankHi, RAMBank byte
}

func (m *mbc5) SaveState() []byte {
	return encodeGob(mbc5State{m.RAM(), m.ramEnabled, m.rumbleOn, m.romBankLo, m.romBankHi, m.ramBank})
}

func (m *mbc5) LoadState(data []byte) {
	var s mbc5State
	if decodeGob(data, &s) {
		m.LoadRAM(s.RAM)
		m.ramEnabled, m.rumbleOn = s.RAMEnabled, s.RumbleOn
		m.romBankLo, m.romBankHi, m.ramBank = s.ROMBankLo, s.ROMBankHi, s.RAMBank
	}
}
