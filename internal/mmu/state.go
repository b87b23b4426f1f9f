package mmu

// State is the opaque snapshot of everything the MMU owns directly
// (WRAM, HRAM, bank/speed-switch latches); cart/ppu/timer/serial/dma
// states are saved separately by the machine and stitched back in.
type State struct {
	WRAM [8][0x1000]byte
	SVBK byte
	HRAM [0x7F]byte

	BootEnabled bool
	Key1        byte
	DoubleSpeed bool

	JoypSelect  byte
	JoypadState byte
	JoypLower4  byte
}

func (m *MMU) SaveState() State {
	return State{
		WRAM: m.wram, SVBK: m.svbk, HRAM: m.hram,
		BootEnabled: m.bootEnabled, Key1: m.key1, DoubleSpeed: m.doubleSpeed,
		JoypSelect: m.joypSelect, JoypadState: m.joypadState, JoypLower4: m.joypLower4,
	}
}

func (m *MMU) LoadState(s State) {
	m.wram, m.svbk, m.hram = s.WRAM, s.SVBK, s.HRAM
	m.bootEnabled, m.key1, m.doubleSpeed = s.BootEnabled, s.Key1, s.DoubleSpeed
	m.joypSelect, m.joypadState, m.joypLower4 = s.JoypSelect, s.JoypadState, s.JoypLower4
}
