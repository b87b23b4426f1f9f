// Package mmu implements the full CPU-visible address map (§4.2):
// cartridge ROM/RAM dispatch, VRAM/WRAM/OAM/HRAM, echo RAM, the
// prohibited region, and every MMIO register, gluing together the
// timer, serial, DMA, and PPU subsystems behind one Read/Write
// surface the CPU drives.
package mmu

import (
	"github.com/greyhollow-dev/gbcore/internal/cart"
	"github.com/greyhollow-dev/gbcore/internal/dma"
	"github.com/greyhollow-dev/gbcore/internal/interrupt"
	"github.com/greyhollow-dev/gbcore/internal/ppu"
	"github.com/greyhollow-dev/gbcore/internal/serial"
	"github.com/greyhollow-dev/gbcore/internal/timer"
)

// Joypad button bitmasks; bits set mean "pressed". The host collaborator
// drives this, joypad polling itself is explicitly out of scope (§1).
const (
	ButtonRight  = 1 << 0
	ButtonLeft   = 1 << 1
	ButtonUp     = 1 << 2
	ButtonDown   = 1 << 3
	ButtonA      = 1 << 4
	ButtonB      = 1 << 5
	ButtonSelect = 1 << 6
	ButtonStart  = 1 << 7
)

// MMU is the CPU-facing bus. ScheduleChanged latches true whenever a
// write could move up the next scheduled event (e.g. disabling the
// timer, stopping the PPU, starting a DMA), the "break_cpu_loop" signal
// of §5 for a scheduler that batches by ClocksToNextEvent.
// Machine.RunFor advances one instruction at a time and does not read it.
type MMU struct {
	cart   cart.Cartridge
	ppu    *ppu.PPU
	timer  *timer.Timer
	serial *serial.Port
	oamDMA *dma.OAM
	hdma   *dma.HDMA
	irq    *interrupt.Controller

	cgb  bool
	wram [8][0x1000]byte // bank 0 fixed at C000-CFFF, SVBK banks 1-7 at D000-DFFF
	svbk byte

	hram [0x7F]byte

	bootROM     []byte
	bootEnabled bool

	key1        byte
	doubleSpeed bool

	joypSelect  byte
	joypadState byte
	joypLower4  byte

	scheduleChanged bool
	gdmaStall       int
}

// New returns an unwired MMU. The DMA engines need a reference back to
// the MMU to read their source bytes (see DMASource), so wiring happens
// in two steps: construct with New, build the DMA engines against a
// DMASource{M: mmu}, then call Init with everything else.
func New(cgb bool) *MMU { return &MMU{cgb: cgb} }

// Init completes wiring once the DMA engines exist.
func (m *MMU) Init(c cart.Cartridge, p *ppu.PPU, t *timer.Timer, s *serial.Port, oamDMA *dma.OAM, hdma *dma.HDMA, irq *interrupt.Controller) {
	m.cart, m.ppu, m.timer, m.serial, m.oamDMA, m.hdma, m.irq = c, p, t, s, oamDMA, hdma, irq
}

// SetBootROM installs a boot ROM image to overlay 0x0000-0x00FF (DMG)
// or 0x0000-0x08FF (CGB) until disabled via the 0xFF50 write.
func (m *MMU) SetBootROM(data []byte) {
	m.bootROM = append([]byte(nil), data...)
	m.bootEnabled = len(data) > 0
}

// SetCartridge swaps in a freshly loaded cartridge, used on ROM reload.
func (m *MMU) SetCartridge(c cart.Cartridge) { m.cart = c }

func (m *MMU) SetJoypadState(mask byte) {
	m.joypadState = mask
	m.updateJoypadIRQ()
}

// DoubleSpeed reports the current CGB CPU clock speed selection.
func (m *MMU) DoubleSpeed() bool { return m.doubleSpeed }

// BootROMActive reports whether a boot ROM image is currently mapped
// over the low address space.
func (m *MMU) BootROMActive() bool { return m.bootEnabled }

// ScheduleChanged reports (and clears) whether a write since the last
// call could have shortened the time to the next scheduled event.
func (m *MMU) ScheduleChanged() bool {
	v := m.scheduleChanged
	m.scheduleChanged = false
	return v
}

// TakeGDMAStall reports (and clears) the T-cycles a general-purpose
// HDMA transfer consumed synchronously on the last write to HDMA5; the
// scheduler adds this on top of the instruction that triggered it,
// since the transfer blocks the CPU for its whole duration (§4.5).
func (m *MMU) TakeGDMAStall() int {
	v := m.gdmaStall
	m.gdmaStall = 0
	return v
}

func (m *MMU) wramBank() byte {
	b := m.svbk & 0x07
	if b == 0 {
		b = 1
	}
	return b
}

func isHRAM(addr uint16) bool { return addr >= 0xFF80 && addr <= 0xFFFE }

// Read is the CPU-facing read: during an active OAM DMA, only HRAM is
// reachable (§4.5), matching real hardware's bus-conflict behavior.
func (m *MMU) Read(addr uint16) byte {
	if m.oamDMA.Active() && !isHRAM(addr) {
		return 0xFF
	}
	return m.readRaw(addr)
}

// readRaw bypasses the DMA-active restriction; it backs both the CPU
// path (once cleared for access) and the DMA engines' own source reads.
func (m *MMU) readRaw(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if m.bootEnabled && m.inBootROM(addr) {
			return m.bootROM[addr]
		}
		return m.cart.Read(addr)
	case addr <= 0x9FFF:
		return m.ppu.CPURead(addr)
	case addr <= 0xBFFF:
		return m.cart.Read(addr)
	case addr <= 0xCFFF:
		return m.wram[0][addr-0xC000]
	case addr <= 0xDFFF:
		return m.wram[m.wramBank()][addr-0xD000]
	case addr <= 0xFDFF:
		return m.readRaw(addr - 0x2000)
	case addr <= 0xFE9F:
		return m.ppu.CPURead(addr)
	case addr <= 0xFEFF:
		// prohibited region (§3): DMG returns 0xFF; CGB returns the last
		// OAM byte accessed or 0x00 depending on PPU mode, a quirk we
		// don't model precisely, so 0x00 stands in for the CGB case.
		if !m.cgb {
			return 0xFF
		}
		return 0x00
	case addr <= 0xFF7F:
		return m.readIO(addr)
	case addr <= 0xFFFE:
		return m.hram[addr-0xFF80]
	default:
		return m.irq.ReadIE()
	}
}

func (m *MMU) inBootROM(addr uint16) bool {
	if m.cgb {
		return addr < 0x0100 || (addr >= 0x0200 && int(addr) < len(m.bootROM))
	}
	return int(addr) < len(m.bootROM)
}

func (m *MMU) Write(addr uint16, v byte) {
	if m.oamDMA.Active() && !isHRAM(addr) {
		return
	}
	switch {
	case addr < 0x8000:
		m.cart.Write(addr, v)
	case addr <= 0x9FFF:
		m.ppu.CPUWrite(addr, v)
	case addr <= 0xBFFF:
		m.cart.Write(addr, v)
	case addr <= 0xCFFF:
		m.wram[0][addr-0xC000] = v
	case addr <= 0xDFFF:
		m.wram[m.wramBank()][addr-0xD000] = v
	case addr <= 0xFDFF:
		m.Write(addr-0x2000, v)
	case addr <= 0xFE9F:
		m.ppu.CPUWrite(addr, v)
	case addr <= 0xFEFF:
		// prohibited region, writes ignored
	case addr <= 0xFF7F:
		m.writeIO(addr, v)
	case addr <= 0xFFFE:
		m.hram[addr-0xFF80] = v
	default:
		m.irq.WriteIE(v)
	}
}

func (m *MMU) readIO(addr uint16) byte {
	switch {
	case addr == 0xFF00:
		return m.readJoyp()
	case addr == 0xFF01:
		return m.serial.ReadSB()
	case addr == 0xFF02:
		return m.serial.ReadSC()
	case addr == 0xFF04:
		return m.timer.ReadDIV()
	case addr == 0xFF05:
		return m.timer.ReadTIMA()
	case addr == 0xFF06:
		return m.timer.ReadTMA()
	case addr == 0xFF07:
		return m.timer.ReadTAC()
	case addr == 0xFF0F:
		return m.irq.ReadIF()
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return 0xFF // APU register window; see internal/apu for the real decoder wired at the machine level
	case addr >= 0xFF40 && addr <= 0xFF45, addr >= 0xFF47 && addr <= 0xFF4B:
		return m.ppu.ReadReg(addr)
	case addr == 0xFF46:
		return 0xFF // DMA register is write-only/self-clearing on real hardware
	case addr == 0xFF4D:
		if !m.cgb {
			return 0xFF
		}
		v := byte(0x7E)
		if m.doubleSpeed {
			v |= 0x80
		}
		return v | (m.key1 & 0x01)
	case addr == 0xFF4F:
		return m.ppu.ReadReg(addr)
	case addr == 0xFF50:
		return 0xFF
	case addr >= 0xFF51 && addr <= 0xFF54:
		return 0xFF // HDMA source/dest registers are write-only
	case addr == 0xFF55:
		if !m.cgb {
			return 0xFF
		}
		return m.hdma.ReadHDMA5()
	case addr == 0xFF68, addr == 0xFF69, addr == 0xFF6A, addr == 0xFF6B:
		if !m.cgb {
			return 0xFF
		}
		return m.ppu.ReadReg(addr)
	case addr == 0xFF70:
		if !m.cgb {
			return 0xFF
		}
		return 0xF8 | (m.svbk & 0x07)
	default:
		return 0xFF
	}
}

func (m *MMU) writeIO(addr uint16, v byte) {
	switch {
	case addr == 0xFF00:
		m.joypSelect = v & 0x30
		m.updateJoypadIRQ()
	case addr == 0xFF01:
		m.serial.WriteSB(v)
	case addr == 0xFF02:
		m.serial.WriteSC(v)
		m.scheduleChanged = true
	case addr == 0xFF04:
		m.timer.WriteDIV()
		m.scheduleChanged = true
	case addr == 0xFF05:
		m.timer.WriteTIMA(v)
	case addr == 0xFF06:
		m.timer.WriteTMA(v)
	case addr == 0xFF07:
		m.timer.WriteTAC(v)
		m.scheduleChanged = true
	case addr == 0xFF0F:
		m.irq.WriteIF(v)
		m.scheduleChanged = true
	case addr >= 0xFF10 && addr <= 0xFF3F:
		// forwarded to the APU by the machine package, which intercepts
		// this range before falling through to MMU.Write
	case addr >= 0xFF40 && addr <= 0xFF45, addr >= 0xFF47 && addr <= 0xFF4B:
		m.ppu.WriteReg(addr, v)
		if addr == 0xFF40 {
			m.scheduleChanged = true
		}
	case addr == 0xFF46:
		m.oamDMA.Start(v)
		m.scheduleChanged = true
	case addr == 0xFF4D:
		if m.cgb {
			m.key1 = (m.key1 & 0x80) | (v & 0x01)
		}
	case addr == 0xFF4F:
		m.ppu.WriteReg(addr, v)
	case addr == 0xFF50:
		if v != 0 {
			m.bootEnabled = false
		}
	case addr == 0xFF51:
		if m.cgb {
			m.hdma.WriteHDMA1(v)
		}
	case addr == 0xFF52:
		if m.cgb {
			m.hdma.WriteHDMA2(v)
		}
	case addr == 0xFF53:
		if m.cgb {
			m.hdma.WriteHDMA3(v)
		}
	case addr == 0xFF54:
		if m.cgb {
			m.hdma.WriteHDMA4(v)
		}
	case addr == 0xFF55:
		if m.cgb {
			consumed, _ := m.hdma.WriteHDMA5(v, m.doubleSpeed)
			m.gdmaStall += consumed
			m.scheduleChanged = true
		}
	case addr == 0xFF68, addr == 0xFF69, addr == 0xFF6A, addr == 0xFF6B:
		if m.cgb {
			m.ppu.WriteReg(addr, v)
		}
	case addr == 0xFF70:
		if m.cgb {
			m.svbk = v & 0x07
		}
	}
}

func (m *MMU) readJoyp() byte {
	res := byte(0xC0 | (m.joypSelect & 0x30) | 0x0F)
	if m.joypSelect&0x10 == 0 {
		if m.joypadState&ButtonRight != 0 {
			res &^= 0x01
		}
		if m.joypadState&ButtonLeft != 0 {
			res &^= 0x02
		}
		if m.joypadState&ButtonUp != 0 {
			res &^= 0x04
		}
		if m.joypadState&ButtonDown != 0 {
			res &^= 0x08
		}
	}
	if m.joypSelect&0x20 == 0 {
		if m.joypadState&ButtonA != 0 {
			res &^= 0x01
		}
		if m.joypadState&ButtonB != 0 {
			res &^= 0x02
		}
		if m.joypadState&ButtonSelect != 0 {
			res &^= 0x04
		}
		if m.joypadState&ButtonStart != 0 {
			res &^= 0x08
		}
	}
	return res
}

func (m *MMU) updateJoypadIRQ() {
	newLower := byte(0x0F)
	if m.joypSelect&0x10 == 0 {
		if m.joypadState&ButtonRight != 0 {
			newLower &^= 0x01
		}
		if m.joypadState&ButtonLeft != 0 {
			newLower &^= 0x02
		}
		if m.joypadState&ButtonUp != 0 {
			newLower &^= 0x04
		}
		if m.joypadState&ButtonDown != 0 {
			newLower &^= 0x08
		}
	}
	if m.joypSelect&0x20 == 0 {
		if m.joypadState&ButtonA != 0 {
			newLower &^= 0x01
		}
		if m.joypadState&ButtonB != 0 {
			newLower &^= 0x02
		}
		if m.joypadState&ButtonSelect != 0 {
			newLower &^= 0x04
		}
		if m.joypadState&ButtonStart != 0 {
			newLower &^= 0x08
		}
	}
	if m.joypLower4&^newLower != 0 {
		m.irq.Request(interrupt.Joypad)
	}
	m.joypLower4 = newLower
}

// ReadSourceByte lets the HDMA/OAM DMA engines read from the full
// address space without tripping the CPU's DMA-active lockout.
func (m *MMU) ReadSourceByte(addr uint16) byte { return m.readRaw(addr) }

// DMASource adapts the MMU into a dma.BusReader that bypasses the
// CPU-facing DMA-active lockout, for wiring into dma.New/dma.NewHDMA.
type DMASource struct{ M *MMU }

func (d DMASource) Read(addr uint16) byte { return d.M.readRaw(addr) }

// ArmSpeedSwitch is invoked by the CPU's STOP handler when KEY1 bit0
// is set; it consumes the arm bit and reports whether the CPU should
// begin its speed-switch stall (§4.7). The double-speed toggle itself
// doesn't take effect until CompleteSpeedSwitch, once that stall's
// countdown reaches zero.
func (m *MMU) ArmSpeedSwitch() bool {
	if !m.cgb || m.key1&0x01 == 0 {
		return false
	}
	m.key1 &^= 0x01
	return true
}

// CompleteSpeedSwitch flips the CGB double-speed latch once the CPU's
// speed-switch stall (§3's speed_switch_clocks_remaining) has finished
// counting down.
func (m *MMU) CompleteSpeedSwitch() {
	m.doubleSpeed = !m.doubleSpeed
}
