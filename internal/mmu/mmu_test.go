package mmu

import (
	"testing"

	"github.com/greyhollow-dev/gbcore/internal/cart"
	"github.com/greyhollow-dev/gbcore/internal/dma"
	"github.com/greyhollow-dev/gbcore/internal/interrupt"
	"github.com/greyhollow-dev/gbcore/internal/ppu"
	"github.com/greyhollow-dev/gbcore/internal/serial"
	"github.com/greyhollow-dev/gbcore/internal/timer"
)

func newTestMMU() *MMU {
	m := New(false)
	irq := &interrupt.Controller{}
	tm := timer.New(irq)
	sp := serial.New(irq)
	p := ppu.New(irq, false)
	src := DMASource{M: m}
	oamDMA := dma.New(src, p)
	hdma := dma.NewHDMA(src, p)
	m.Init(&testCart{}, p, tm, sp, oamDMA, hdma, irq)
	return m
}

// testCart is a minimal cart.Cartridge backed by a flat byte array,
// enough to exercise bus dispatch without pulling in a real MBC.
type testCart struct{ mem [0x8000]byte }

func (c *testCart) Read(addr uint16) byte {
	if addr < 0x8000 {
		return c.mem[addr]
	}
	return 0xFF
}
func (c *testCart) Write(addr uint16, v byte) {
	if addr < 0x8000 {
		c.mem[addr] = v
	}
}
func (c *testCart) HasBattery() bool       { return false }
func (c *testCart) RAM() []byte            { return nil }
func (c *testCart) LoadRAM([]byte)         {}
func (c *testCart) RTC() *cart.RTCState    { return nil }
func (c *testCart) LoadRTC(*cart.RTCState) {}
func (c *testCart) Advance(int)            {}
func (c *testCart) SaveState() []byte      { return nil }
func (c *testCart) LoadState([]byte)       {}

func TestIFReadBackMask(t *testing.T) {
	m := newTestMMU()
	m.Write(0xFF0F, 0x00)
	if got := m.Read(0xFF0F); got != 0xE0 {
		t.Fatalf("IF readback got %#02x want 0xE0 (unused bits read as 1)", got)
	}
}

func TestEchoRAMAliasesWRAM(t *testing.T) {
	m := newTestMMU()
	m.Write(0xC010, 0x99)
	if got := m.Read(0xE010); got != 0x99 {
		t.Fatalf("echo RAM read got %#02x want 0x99", got)
	}
	m.Write(0xE020, 0x55)
	if got := m.Read(0xC020); got != 0x55 {
		t.Fatalf("echo RAM write got %#02x want 0x55", got)
	}
}

func TestOAMDMACopiesSourceWindow(t *testing.T) {
	m := newTestMMU()
	for i := 0; i < 0xA0; i++ {
		m.Write(0xC100+uint16(i), byte(i^0x3C))
	}
	m.Write(0xFF46, 0xC1) // start DMA from 0xC100
	m.oamDMA.Advance(640) // full 640 T-cycle transfer

	for i := 0; i < 0xA0; i++ {
		got := m.ppu.CPURead(0xFE00 + uint16(i))
		want := byte(i ^ 0x3C)
		if got != want {
			t.Fatalf("OAM byte %d got %#02x want %#02x", i, got, want)
		}
	}
}

func TestOAMDMABlocksNonHRAMReads(t *testing.T) {
	m := newTestMMU()
	m.Write(0xC000, 0xAB)
	m.Write(0xFF80, 0x11) // HRAM byte, reachable during DMA
	m.Write(0xFF46, 0xC0)
	if got := m.Read(0xC000); got != 0xFF {
		t.Fatalf("non-HRAM read during DMA got %#02x want 0xFF", got)
	}
	if got := m.Read(0xFF80); got != 0x11 {
		t.Fatalf("HRAM read during DMA got %#02x want 0x11", got)
	}
}
