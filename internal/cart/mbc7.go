package cart

// mbc7 implements the accelerometer cart used by Kirby Tilt 'n' Tumble
// and Command Master: 7-bit ROM banking (bank 0 maps to 1), no cart RAM in
// the conventional sense, and an 8-bit serial interface at 0xA000-
// 0xAFFF exposing a fake EEPROM plus two tilt registers. SetTilt lets
// a host collaborator (out of scope per §1, gamepad/accelerometer
// input is a host concern) drive the simulated sensor.
type mbc7 struct {
	baseROMRAM

	romBank  byte
	romBanks int

	ramEnabled  bool
	ramReady    bool
	tiltX, tiltY uint16

	eeprom      [256]byte
	eepromCS    bool
	eepromClk   bool
	eepromDI    bool
	eepromState int
	eepromBuf   uint16
	eepromBits  int
}

func newMBC7(rom []byte) *mbc7 {
	m := &mbc7{romBank: 1, tiltX: 0x8000, tiltY: 0x8000}
	m.baseROMRAM = baseROMRAM{rom: rom, hasBattery: true, ram: make([]byte, 256)}
	m.romBanks = len(rom) / 0x4000
	if m.romBanks == 0 {
		m.romBanks = 1
	}
	return m
}

// SetTilt reports the cart's simulated accelerometer axes, centered
// at 0x8000, to a host collaborator driving the sensor.
func (m *mbc7) SetTilt(x, y uint16) { m.tiltX, m.tiltY = x, y }

func (m *mbc7) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.romAt(int(addr))
	case addr < 0x8000:
		bank := int(m.romBank) % m.romBanks
		return m.romAt(bank*0x4000 + int(addr-0x4000))
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || !m.ramReady {
			return 0xFF
		}
		switch addr & 0xFF {
		case 0x20:
			return byte(m.tiltX)
		case 0x21:
			return byte(m.tiltX >> 8)
		case 0x22:
			return byte(m.tiltY)
		case 0x23:
			return byte(m.tiltY >> 8)
		case 0x80:
			return m.eepromReadBit()
		default:
			return 0xFF
		}
	default:
		return 0xFF
	}
}

func (m *mbc7) eepromReadBit() byte {
	if m.eepromBits == 0 {
		return 1
	}
	bit := byte((m.eepromBuf >> (m.eepromBits - 1)) & 1)
	return bit
}

func (m *mbc7) Write(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = v&0x0F == 0x0A
	case addr < 0x3000:
		bank := v & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case addr < 0x4000:
		m.ramReady = v == 0x40
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || !m.ramReady {
			return
		}
		if addr&0xFF == 0x80 {
			m.eepromClock(v)
		}
	}
}

// eepromClock is a minimal 93LC56-style shift interface: enough to
// let games probe for the cart's presence without exercising the
// full program/erase command set real 93LC56 EEPROMs support.
func (m *mbc7) eepromClock(v byte) {
	cs := v&0x80 != 0
	clk := v&0x40 != 0
	di := v&0x02 != 0
	if cs && clk && !m.eepromClk {
		m.eepromBuf = (m.eepromBuf << 1) | boolBit(di)
		m.eepromBits++
	}
	m.eepromCS, m.eepromClk, m.eepromDI = cs, clk, di
}

func boolBit(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

type mbc7State struct {
	RAMEnabled, RAMReady bool
	ROMBank              byte
	EEPROM               [256]byte
}

func (m *mbc7) SaveState() []byte {
	return encodeGob(mbc7State{m.ramEnabled, m.ramReady, m.romBank, m.eeprom})
}

func (m *mbc7) LoadState(data []byte) {
	var s mbc7State
	if decodeGob(data, &s) {
		m.ramEnabled, m.ramReady, m.romBank, m.eeprom = s.RAMEnabled, s.RAMReady, s.ROMBank, s.EEPROM
	}
}
