package timer

import (
	"testing"

	"github.com/greyhollow-dev/gbcore/internal/interrupt"
)

func TestDIVIncrementsEvery256Cycles(t *testing.T) {
	irq := &interrupt.Controller{}
	tm := New(irq)
	tm.Advance(256)
	if got := tm.ReadDIV(); got != 1 {
		t.Fatalf("DIV after 256 cycles got %d want 1", got)
	}
}

func TestWriteDIVResetsCounter(t *testing.T) {
	irq := &interrupt.Controller{}
	tm := New(irq)
	tm.Advance(1000)
	tm.WriteDIV()
	if got := tm.ReadDIV(); got != 0 {
		t.Fatalf("DIV after write got %d want 0", got)
	}
}

// TIMA clocks off bit 3 of the internal divider when TAC selects the
// 262144 Hz rate (TAC=0x05): every 16 T-cycles.
func TestTIMAClocksAtSelectedRate(t *testing.T) {
	irq := &interrupt.Controller{}
	tm := New(irq)
	tm.WriteTAC(0x05)
	tm.Advance(16)
	if got := tm.ReadTIMA(); got != 1 {
		t.Fatalf("TIMA after 16 cycles at 262144Hz got %d want 1", got)
	}
}

// TIMA overflow reloads from TMA one cycle later and raises the Timer
// interrupt, not immediately on the cycle it wraps.
func TestTIMAOverflowReloadsFromTMAAndRaisesIRQ(t *testing.T) {
	irq := &interrupt.Controller{}
	tm := New(irq)
	tm.WriteTMA(0x7C)
	tm.WriteTAC(0x05) // enabled, /16
	tm.WriteTIMA(0xFF)

	tm.Advance(15) // one short of the next falling edge
	if tm.ReadTIMA() != 0xFF {
		t.Fatalf("TIMA should not have overflowed yet, got %02x", tm.ReadTIMA())
	}
	tm.Advance(1) // falling edge: TIMA -> 0x00, reload armed
	if tm.ReadTIMA() != 0x00 {
		t.Fatalf("TIMA immediately after overflow got %02x want 00", tm.ReadTIMA())
	}
	if irq.ReadIF()&interrupt.Timer != 0 {
		t.Fatalf("Timer IRQ should not fire before the reload delay elapses")
	}
	tm.Advance(4)
	if tm.ReadTIMA() != 0x7C {
		t.Fatalf("TIMA after reload delay got %02x want 7C", tm.ReadTIMA())
	}
	if irq.ReadIF()&interrupt.Timer == 0 {
		t.Fatalf("Timer IRQ should be requested once the reload fires")
	}
}

// Disabling the timer via TAC while its tap bit is high causes a
// falling edge and clocks TIMA once, the documented TAC-write quirk.
func TestTACDisableCausesFallingEdgeClock(t *testing.T) {
	irq := &interrupt.Controller{}
	tm := New(irq)
	tm.WriteTAC(0x04) // enabled, bit 9 tap
	tm.Advance(1 << 9)
	before := tm.ReadTIMA()
	tm.WriteTAC(0x00) // disable while tap bit is still high -> falling edge
	if got := tm.ReadTIMA(); got != before+1 {
		t.Fatalf("TIMA after disabling mid-high-phase got %d want %d", got, before+1)
	}
}
