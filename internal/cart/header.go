package cart

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Header is the parsed 0x100-0x14F cartridge header (§4.3).
type Header struct {
	Title       string
	CGBFlag     byte
	NewLicensee string
	SGBFlag     byte
	CartType    byte
	ROMSizeCode byte
	RAMSizeCode byte
	Destination byte
	OldLicensee byte
	ROMVersion  byte

	HeaderChecksum byte
	GlobalChecksum uint16

	ROMBanks     int
	RAMSizeBytes int

	// Non-fatal validation results (§7 ChecksumMismatch/LogoMismatch).
	HeaderChecksumOK bool
	LogoOK           bool
}

// CGB reports whether the cart declares itself CGB-compatible or
// CGB-only (bit 7 set in the CGB flag byte).
func (h *Header) CGB() bool { return h.CGBFlag&0x80 != 0 }

// SGB reports whether the cart requests SGB function packets.
func (h *Header) SGB() bool { return h.SGBFlag == 0x03 }

var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// headerSize is the number of bytes consumed by the header (§4.3).
const headerSize = 0x150

// ParseHeader decodes the cartridge header. It only fails
// (FileSizeMismatch territory, handled by the caller) when the ROM is
// too short to contain a header at all; checksum and logo mismatches
// are reported via the returned Header's *OK fields rather than an
// error, per §7's policy that those are warnings.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerSize {
		return nil, fmt.Errorf("cart: ROM too small (%d bytes) to contain header", len(rom))
	}

	h := &Header{
		Title:          strings.TrimRight(string(rom[0x134:0x144]), "\x00"),
		CGBFlag:        rom[0x143],
		NewLicensee:    string(rom[0x144:0x146]),
		SGBFlag:        rom[0x146],
		CartType:       rom[0x147],
		ROMSizeCode:    rom[0x148],
		RAMSizeCode:    rom[0x149],
		Destination:    rom[0x14A],
		OldLicensee:    rom[0x14B],
		ROMVersion:     rom[0x14C],
		HeaderChecksum: rom[0x14D],
		GlobalChecksum: binary.BigEndian.Uint16(rom[0x14E:0x150]),
	}

	h.ROMBanks = DecodeROMBanks(h.ROMSizeCode)
	h.RAMSizeBytes = DecodeRAMSize(h.RAMSizeCode)

	h.LogoOK = true
	for i := 0; i < 48; i++ {
		if rom[0x104+i] != nintendoLogo[i] {
			h.LogoOK = false
			break
		}
	}

	h.HeaderChecksumOK = computeHeaderChecksum(rom) == h.HeaderChecksum
	return h, nil
}

// computeHeaderChecksum implements §4.3's formula exactly:
// sum = (-sum(bytes[0x134..0x14C])) - 0x19, mod 256.
func computeHeaderChecksum(rom []byte) byte {
	var sum byte
	for addr := 0x134; addr <= 0x14C; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum
}

// DecodeROMBanks converts the 0x148 ROM-size code to a bank count
// (banks = 2 << n for the standard codes; §4.3 lists the oddball
// 0x52/0x53/0x54 codes used by a handful of pre-release carts).
func DecodeROMBanks(code byte) int {
	switch code {
	case 0x52:
		return 72
	case 0x53:
		return 80
	case 0x54:
		return 96
	default:
		if code > 0x08 {
			return 0
		}
		return 2 << code
	}
}

// DecodeRAMSize converts the 0x149 RAM-size code to a byte count.
// Code 0x01 (2 KiB) is present in a handful of early RAM+battery carts
// and is absent from some published tables; original_source's
// rom.c treats it as one 2 KiB bank, which this follows.
func DecodeRAMSize(code byte) int {
	switch code {
	case 0x00:
		return 0
	case 0x01:
		return 2 * 1024
	case 0x02:
		return 8 * 1024
	case 0x03:
		return 32 * 1024
	case 0x04:
		return 128 * 1024
	case 0x05:
		return 64 * 1024
	default:
		return 0
	}
}
