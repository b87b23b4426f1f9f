// Package cart implements cartridge header parsing and the memory
// bank controller (MBC) family of §4.3.
package cart

import "fmt"

// Cartridge is what the MMU needs from a loaded cart: ROM/RAM banking
// dispatch plus state persistence for save states and battery RAM.
type Cartridge interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)

	// HasBattery reports whether external RAM should be persisted.
	HasBattery() bool
	// RAM returns a snapshot of external RAM for the .sav file (nil if
	// the cart has none).
	RAM() []byte
	// LoadRAM restores external RAM from a .sav file.
	LoadRAM(data []byte)

	// RTC returns the real-time-clock block for carts that have one
	// (MBC3+TIMER, MBC6 does not, MBC7 does not); nil otherwise.
	RTC() *RTCState
	LoadRTC(*RTCState)

	// Advance lets carts with internal timing (the camera's exposure
	// countdown) catch up to the CPU clock; MBC3's RTC follows wall-clock
	// time, so its Advance does nothing.
	Advance(tCycles int)

	SaveState() []byte
	LoadState(data []byte)
}

// ErrUnsupportedMapper is returned by New for a cart type this
// core does not implement (§7).
type ErrUnsupportedMapper struct{ CartType byte }

func (e ErrUnsupportedMapper) Error() string {
	return fmt.Sprintf("cart: unsupported mapper type 0x%02X", e.CartType)
}

// ErrUnsupportedRamSize is returned when a cart declares a RAM size
// code this core cannot map to a bank count (§7).
type ErrUnsupportedRamSize struct{ RAMSizeCode byte }

func (e ErrUnsupportedRamSize) Error() string {
	return fmt.Sprintf("cart: unsupported RAM size code 0x%02X", e.RAMSizeCode)
}

// New builds the right Cartridge implementation from a parsed header
// and the ROM bytes, per the cart-type table in §4.3.
func New(rom []byte, h *Header) (Cartridge, error) {
	ramSize := h.RAMSizeBytes
	switch h.CartType {
	case 0x00, 0x08, 0x09:
		return newROMOnly(rom, ramSize, h.CartType == 0x09), nil
	case 0x01, 0x02, 0x03:
		return newMBC1(rom, ramSize, h.CartType == 0x03), nil
	case 0x05, 0x06:
		return newMBC2(rom, h.CartType == 0x06), nil
	case 0x0B, 0x0C, 0x0D:
		return newMMM01(rom, ramSize, h.CartType == 0x0D), nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		hasTimer := h.CartType == 0x0F || h.CartType == 0x10
		return newMBC3(rom, ramSize, true, hasTimer), nil
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		rumble := h.CartType >= 0x1C
		return newMBC5(rom, ramSize, h.CartType == 0x1B || h.CartType == 0x1E, rumble), nil
	case 0x20:
		return newMBC6(rom, ramSize), nil
	case 0x22:
		return newMBC7(rom), nil
	case 0xFC:
		return newCamera(rom, ramSize), nil
	case 0xFF:
		return newHuC1(rom, ramSize), nil
	default:
		return nil, ErrUnsupportedMapper{CartType: h.CartType}
	}
}

// baseROMRAM holds the ROM image and external RAM shared by every
// variant; variants embed it and add their own banking latches.
type baseROMRAM struct {
	rom        []byte
	ram        []byte
	hasBattery bool
}

func (b *baseROMRAM) romAt(off int) byte {
	if off >= 0 && off < len(b.rom) {
		return b.rom[off]
	}
	return 0xFF
}

func (b *baseROMRAM) HasBattery() bool { return b.hasBattery }

func (b *baseROMRAM) RAM() []byte {
	if len(b.ram) == 0 {
		return nil
	}
	out := make([]byte, len(b.ram))
	copy(out, b.ram)
	return out
}

func (b *baseROMRAM) LoadRAM(data []byte) {
	if len(b.ram) == 0 || len(data) == 0 {
		return
	}
	copy(b.ram, data)
}

// RTC/LoadRTC/Advance default to no-ops; MBC3 overrides them.
func (b *baseROMRAM) RTC() *RTCState   { return nil }
func (b *baseROMRAM) LoadRTC(*RTCState) {}
func (b *baseROMRAM) Advance(int)      {}
