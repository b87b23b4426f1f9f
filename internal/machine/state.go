package machine

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/greyhollow-dev/gbcore/internal/cpu"
	"github.com/greyhollow-dev/gbcore/internal/dma"
	"github.com/greyhollow-dev/gbcore/internal/interrupt"
	"github.com/greyhollow-dev/gbcore/internal/mmu"
	"github.com/greyhollow-dev/gbcore/internal/ppu"
	"github.com/greyhollow-dev/gbcore/internal/serial"
	"github.com/greyhollow-dev/gbcore/internal/timer"
)

// snapshot aggregates every subsystem's opaque state into one blob;
// cart and APU already serialize themselves to []byte, the rest hand
// back small value types that gob can encode directly.
type snapshot struct {
	CGB bool

	CPU       cpu.State
	MMU       mmu.State
	PPU       ppu.State
	Timer     timer.State
	Serial    serial.State
	OAMDMA    dma.OAMState
	HDMA      dma.HDMAState
	Interrupt interrupt.State

	CartState []byte
	APUState  []byte
}

// SaveState serializes the entire machine to an opaque blob suitable
// for a later LoadState call; it does not touch the
// .sav file.
func (m *Machine) SaveState() ([]byte, error) {
	s := snapshot{
		CGB:       m.cgb,
		CPU:       m.cpu.SaveState(),
		MMU:       m.mmu.SaveState(),
		PPU:       m.ppu.SaveState(),
		Timer:     m.timer.SaveState(),
		Serial:    m.serial.SaveState(),
		OAMDMA:    m.oamDMA.SaveState(),
		HDMA:      m.hdma.SaveState(),
		Interrupt: m.irq.SaveState(),
		CartState: m.cart.SaveState(),
		APUState:  m.apu.SaveState(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("machine: encode save state: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadState restores a blob produced by SaveState. The cartridge must
// already be loaded (same ROM) before calling this.
func (m *Machine) LoadState(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("machine: decode save state: %w", err)
	}
	m.cgb = s.CGB
	m.cpu.LoadState(s.CPU)
	m.mmu.LoadState(s.MMU)
	m.ppu.LoadState(s.PPU)
	m.timer.LoadState(s.Timer)
	m.serial.LoadState(s.Serial)
	m.oamDMA.LoadState(s.OAMDMA)
	m.hdma.LoadState(s.HDMA)
	m.irq.LoadState(s.Interrupt)
	if m.cart != nil {
		m.cart.LoadState(s.CartState)
	}
	m.apu.LoadState(s.APUState)
	return nil
}
