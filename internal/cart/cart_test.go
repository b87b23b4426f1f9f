package cart

import "testing"

func buildHeaderROM(banks int, cartType, ramCode byte) []byte {
	size := banks * 0x4000
	if size < 0x150 {
		size = 0x4000
	}
	rom := make([]byte, size)
	copy(rom[0x104:0x134], nintendoLogo[:])
	copy(rom[0x134:0x144], []byte("TESTROM"))
	rom[0x147] = cartType
	switch banks {
	case 2:
		rom[0x148] = 0x00
	case 4:
		rom[0x148] = 0x01
	case 128:
		rom[0x148] = 0x06
	}
	rom[0x149] = ramCode
	rom[0x14D] = computeHeaderChecksum(rom)
	return rom
}

func TestParseHeaderChecksumAndLogoOK(t *testing.T) {
	rom := buildHeaderROM(2, 0x00, 0x00)
	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if !h.LogoOK {
		t.Fatalf("logo should validate against the real Nintendo bitmap")
	}
	if !h.HeaderChecksumOK {
		t.Fatalf("header checksum should validate for a freshly computed value")
	}
	if h.Title != "TESTROM" {
		t.Fatalf("title got %q want TESTROM", h.Title)
	}
}

func TestParseHeaderDetectsLogoMismatch(t *testing.T) {
	rom := buildHeaderROM(2, 0x00, 0x00)
	rom[0x104] ^= 0xFF
	rom[0x14D] = computeHeaderChecksum(rom)
	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.LogoOK {
		t.Fatalf("corrupted logo bytes should fail validation")
	}
}

func TestParseHeaderTooShort(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 0x10)); err == nil {
		t.Fatalf("expected an error for a too-short ROM")
	}
}

func TestMBC1BankZeroAliasesToBankOne(t *testing.T) {
	rom := make([]byte, 4*0x4000)
	rom[0x4000] = 0xAA // start of bank 1
	m := newMBC1(rom, 0, false)
	// Selecting logical bank 0 on the switchable window must read bank 1.
	m.Write(0x2000, 0x00)
	if got := m.Read(0x4000); got != 0xAA {
		t.Fatalf("bank-0 write should alias to bank 1, got %02x", got)
	}
}

func TestMBC1RAMRequiresEnableLatch(t *testing.T) {
	m := newMBC1(make([]byte, 2*0x4000), 0x2000, false)
	m.Write(0xA000, 0x42)
	if got := m.Read(0xA000); got != 0xFF {
		t.Fatalf("RAM write before enabling should be dropped, read back got %02x", got)
	}
	m.Write(0x0000, 0x0A) // enable
	m.Write(0xA000, 0x42)
	if got := m.Read(0xA000); got != 0x42 {
		t.Fatalf("RAM read after enabling got %02x want 42", got)
	}
}

func TestMBC3RTCLatchAndAdvance(t *testing.T) {
	savedNow := nowUnix
	defer func() { nowUnix = savedNow }()
	var clock int64 = 1000
	nowUnix = func() int64 { return clock }

	m := newMBC3(make([]byte, 2*0x4000), 0, false, true)
	m.Write(0x0000, 0x0A) // enable RAM/RTC
	m.Write(0x4000, 0x08) // select RTC seconds register
	m.Write(0xA000, 30)   // seconds = 30

	clock += 90 // 1 minute 30 seconds pass
	m.Write(0x6000, 0x00)
	m.Write(0x6000, 0x01) // latch
	if got := m.Read(0xA000); got != 0 {
		t.Fatalf("latched seconds got %d want 0 (30+90=120s -> 2:00)", got)
	}
	m.Write(0x4000, 0x09) // minutes register
	if got := m.Read(0xA000); got != 2 {
		t.Fatalf("latched minutes got %d want 2", got)
	}
}

func TestEncodeDecodeSaveFastForwardsRTC(t *testing.T) {
	savedNow := nowUnix
	defer func() { nowUnix = savedNow }()
	var clock int64 = 5000
	nowUnix = func() int64 { return clock }

	m := newMBC3(make([]byte, 2*0x4000), 8*1024, true, true)
	m.Write(0x0000, 0x0A)
	m.Write(0x4000, 0x08)
	m.Write(0xA000, 10) // seconds = 10

	data := EncodeSave(m)

	clock += 55 // 55 real seconds pass while "powered off"
	m2 := newMBC3(make([]byte, 2*0x4000), 8*1024, true, true)
	if err := DecodeSave(m2, data, 8*1024); err != nil {
		t.Fatalf("DecodeSave: %v", err)
	}
	m2.Write(0x0000, 0x0A) // enable RAM/RTC
	m2.Write(0x4000, 0x09) // minutes
	if got := m2.Read(0xA000); got != 1 {
		t.Fatalf("minutes after fast-forward got %d want 1 (10+55=65s)", got)
	}
}
