// Package cpu implements the Sharp LR35902 core: full opcode and
// CB-prefixed decode, interrupt dispatch, HALT/STOP (including the
// halt bug and CGB double-speed switch) and the EI enable delay.
package cpu

import "github.com/greyhollow-dev/gbcore/internal/interrupt"

// Bus is the memory-mapped address space the CPU fetches from and
// stores to. The machine package wires its MMU in here.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
}

// SpeedSwitcher lets STOP trigger the CGB double-speed toggle when
// KEY1 has been armed; DMG machines never implement it. ArmSpeedSwitch
// consumes the arm bit and reports whether the stall should begin;
// CompleteSpeedSwitch fires once the stall's countdown reaches zero.
type SpeedSwitcher interface {
	ArmSpeedSwitch() bool
	CompleteSpeedSwitch()
}

// Logger receives non-fatal diagnostics, namely undefined-opcode traps.
type Logger interface {
	Printf(format string, args ...interface{})
}

// CPU is a single Sharp LR35902 core.
type CPU struct {
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	PC uint16

	halted  bool
	haltBug bool
	stopped bool

	// speedSwitchRemaining is CGB's speed_switch_clocks_remaining (§3):
	// T-cycles still to burn, halted, before a KEY1-armed STOP completes
	// its double-speed toggle (§4.1, §5 step 2).
	speedSwitchRemaining int

	bus    Bus
	irq    *interrupt.Controller
	speed  SpeedSwitcher
	logger Logger
}

// speedSwitchCycles is the 128*1024-84 T-cycle wait §4.1 and §5 step 2
// specify for a CGB speed switch to complete.
const speedSwitchCycles = 128*1024 - 84

const (
	flagZ byte = 1 << 7
	flagN byte = 1 << 6
	flagH byte = 1 << 5
	flagC byte = 1 << 4
)

// New creates a CPU wired to bus and irq. speed and logger are
// optional collaborators (DMG machines pass a nil SpeedSwitcher; a nil
// Logger silently drops undefined-opcode traps).
func New(bus Bus, irq *interrupt.Controller, speed SpeedSwitcher, logger Logger) *CPU {
	return &CPU{bus: bus, irq: irq, speed: speed, logger: logger, SP: 0xFFFE}
}

// RegisterProfile is the post-boot AF/BC/DE/HL register state a given
// hardware model's boot ROM leaves behind, per §4.2's per-model table.
type RegisterProfile struct {
	A, F byte
	B, C byte
	D, E byte
	H, L byte
}

var (
	ProfileDMG  = RegisterProfile{A: 0x01, F: 0xB0, B: 0x00, C: 0x13, D: 0x00, E: 0xD8, H: 0x01, L: 0x4D}
	ProfileMGB  = RegisterProfile{A: 0xFF, F: 0xB0, B: 0x00, C: 0x13, D: 0x00, E: 0xD8, H: 0x01, L: 0x4D}
	ProfileSGB  = RegisterProfile{A: 0x01, F: 0x00, B: 0x00, C: 0x14, D: 0x00, E: 0x00, H: 0xC0, L: 0x60}
	ProfileSGB2 = RegisterProfile{A: 0xFF, F: 0x00, B: 0x00, C: 0x14, D: 0x00, E: 0x00, H: 0xC0, L: 0x60}
	ProfileCGB  = RegisterProfile{A: 0x11, F: 0x80, B: 0x00, C: 0x00, D: 0xFF, E: 0x56, H: 0x00, L: 0x0D}
	ProfileAGB  = RegisterProfile{A: 0x11, F: 0x00, B: 0x01, C: 0x00, D: 0xFF, E: 0x56, H: 0x00, L: 0x0D}
)

// ResetNoBoot sets registers to profile's post-boot state, used when
// the machine runs without a boot ROM image.
func (c *CPU) ResetNoBoot(profile RegisterProfile) {
	c.A, c.F = profile.A, profile.F
	c.B, c.C = profile.B, profile.C
	c.D, c.E = profile.D, profile.E
	c.H, c.L = profile.H, profile.L
	c.SP = 0xFFFE
	c.PC = 0x0100
	c.halted, c.haltBug, c.stopped = false, false, false
}

// ResetForBoot parks PC at the boot ROM entry point; the boot ROM
// itself establishes the rest of register state.
func (c *CPU) ResetForBoot() {
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = 0, 0, 0, 0, 0, 0, 0, 0
	c.SP, c.PC = 0, 0
	c.halted, c.haltBug, c.stopped = false, false, false
}

func (c *CPU) Halted() bool  { return c.halted }
func (c *CPU) Stopped() bool { return c.stopped }

func (c *CPU) setZNHC(z, n, h, carry bool) {
	var f byte
	if z {
		f |= flagZ
	}
	if n {
		f |= flagN
	}
	if h {
		f |= flagH
	}
	if carry {
		f |= flagC
	}
	c.F = f
}

func (c *CPU) add8(a, b byte) (res byte, z, n, h, cy bool) {
	r := uint16(a) + uint16(b)
	res = byte(r)
	z = res == 0
	h = ((a & 0x0F) + (b & 0x0F)) > 0x0F
	cy = r > 0xFF
	return
}

func (c *CPU) adc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := uint16(a) + uint16(b) + uint16(ci)
	res = byte(r)
	z = res == 0
	h = ((a & 0x0F) + (b & 0x0F) + ci) > 0x0F
	cy = r > 0xFF
	return
}

func (c *CPU) sub8(a, b byte) (res byte, z, n, h, cy bool) {
	r := int16(a) - int16(b)
	res = byte(r)
	z = res == 0
	n = true
	h = (a & 0x0F) < (b & 0x0F)
	cy = int16(a) < int16(b)
	return
}

func (c *CPU) sbc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := int16(a) - int16(b) - int16(ci)
	res = byte(r)
	z = res == 0
	n = true
	h = (a & 0x0F) < ((b & 0x0F) + ci)
	cy = int16(a) < int16(b)+int16(ci)
	return
}

func (c *CPU) and8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a & b
	z = res == 0
	h = true
	return
}

func (c *CPU) xor8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a ^ b
	z = res == 0
	return
}

func (c *CPU) or8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a | b
	z = res == 0
	return
}

func (c *CPU) cp8(a, b byte) (z, n, h, cy bool) {
	_, z, n, h, cy = c.sub8(a, b)
	return
}

func (c *CPU) read8(addr uint16) byte     { return c.bus.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) fetch8() byte {
	b := c.read8(c.PC)
	c.PC++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | (hi << 8)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | (hi << 8)
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v&0x00FF))
	c.write8(addr+1, byte(v>>8))
}

func (c *CPU) getAF() uint16  { return uint16(c.A)<<8 | uint16(c.F&0xF0) }
func (c *CPU) setAF(v uint16) { c.A = byte(v >> 8); c.F = byte(v) & 0xF0 }
func (c *CPU) getBC() uint16  { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) setBC(v uint16) { c.B = byte(v >> 8); c.C = byte(v) }
func (c *CPU) getDE() uint16  { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) setDE(v uint16) { c.D = byte(v >> 8); c.E = byte(v) }
func (c *CPU) getHL() uint16  { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) setHL(v uint16) { c.H = byte(v >> 8); c.L = byte(v) }

func (c *CPU) push16(v uint16) {
	c.SP -= 2
	c.write16(c.SP, v)
}

func (c *CPU) pop16() uint16 {
	v := c.read16(c.SP)
	c.SP += 2
	return v
}

// regGet/regSet index the 8 single-register operand slots used by the
// 0x40-0xBF blocks and by every CB-prefixed opcode: 0-5=B,C,D,E,H,L;
// 6=(HL); 7=A.
func (c *CPU) regGet(idx byte) byte {
	switch idx {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.read8(c.getHL())
	default:
		return c.A
	}
}

func (c *CPU) regSet(idx byte, v byte) {
	switch idx {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.write8(c.getHL(), v)
	default:
		c.A = v
	}
}
