package cart

import (
	"encoding/binary"
	"fmt"
)

// rtcBlockSize is the on-disk RTC block: five little-endian uint32
// fields (sec, min, hour, days-low, then day-high/halt/carry packed into
// the fifth slot) written twice, followed by an 8-byte UNIX timestamp
// used to fast-forward on load. Both copies hold the live registers;
// the latched view is not stored, and DecodeSave reads only the first.
const rtcFieldCount = 5
const rtcBlockSize = rtcFieldCount*4*2 + 8

// EncodeSave serializes a cartridge's battery-backed state to the
// exact .sav byte layout §6 defines: concatenated RAM banks, followed
// by an optional RTC block for carts that have one.
func EncodeSave(c Cartridge) []byte {
	ram := c.RAM()
	rtc := c.RTC()
	if rtc == nil {
		return ram
	}
	out := make([]byte, len(ram)+rtcBlockSize)
	copy(out, ram)
	encodeRTCBlock(out[len(ram):], rtc, nowUnix())
	return out
}

func encodeRTCBlock(dst []byte, r *RTCState, savedAt int64) {
	putFields := func(b []byte, r *RTCState) {
		binary.LittleEndian.PutUint32(b[0:4], uint32(r.Sec))
		binary.LittleEndian.PutUint32(b[4:8], uint32(r.Min))
		binary.LittleEndian.PutUint32(b[8:12], uint32(r.Hour))
		binary.LittleEndian.PutUint32(b[12:16], uint32(r.Days&0xFF))
		flags := uint32(r.Days >> 8 & 0x01)
		if r.Halt {
			flags |= 0x02
		}
		if r.Carry {
			flags |= 0x04
		}
		binary.LittleEndian.PutUint32(b[16:20], flags)
	}
	putFields(dst[0:20], r)
	putFields(dst[20:40], r) // second copy repeats the live registers
	binary.LittleEndian.PutUint64(dst[40:48], uint64(savedAt))
}

// DecodeSave restores a cartridge's RAM (and RTC, fast-forwarded to
// the present) from a .sav blob. ramSize is the cart's expected RAM
// size in bytes, used to tell a plain RAM-only save apart from one
// with a trailing RTC block.
func DecodeSave(c Cartridge, data []byte, ramSize int) error {
	if c.RTC() == nil {
		c.LoadRAM(data)
		return nil
	}
	if len(data) < ramSize {
		return fmt.Errorf("cart: save file too small for RAM (%d < %d)", len(data), ramSize)
	}
	c.LoadRAM(data[:ramSize])
	rest := data[ramSize:]
	if len(rest) == 0 {
		return nil
	}
	if len(rest) < rtcBlockSize {
		return fmt.Errorf("cart: %w", errRTCIO)
	}
	live := decodeRTCFields(rest[0:20])
	savedAt := int64(binary.LittleEndian.Uint64(rest[40:48]))
	if d := nowUnix() - savedAt; d > 0 {
		live.advanceSeconds(d)
	}
	c.LoadRTC(&live)
	return nil
}

func decodeRTCFields(b []byte) RTCState {
	sec := binary.LittleEndian.Uint32(b[0:4])
	min := binary.LittleEndian.Uint32(b[4:8])
	hour := binary.LittleEndian.Uint32(b[8:12])
	daysLow := binary.LittleEndian.Uint32(b[12:16])
	flags := binary.LittleEndian.Uint32(b[16:20])
	return RTCState{
		Sec:   byte(sec),
		Min:   byte(min),
		Hour:  byte(hour),
		Days:  uint16(daysLow) | uint16(flags&0x01)<<8,
		Halt:  flags&0x02 != 0,
		Carry: flags&0x04 != 0,
	}
}

// errRTCIO is the warning-class error §7 assigns to a malformed or
// truncated RTC block: the save proceeds using RAM alone.
var errRTCIO = fmt.Errorf("RTC block truncated or missing")
