package serial

import (
	"bytes"
	"testing"

	"github.com/greyhollow-dev/gbcore/internal/interrupt"
)

func TestInternalClockTransferCompletesAndRaisesIRQ(t *testing.T) {
	irq := &interrupt.Controller{}
	p := New(irq)
	var buf bytes.Buffer
	p.SetSink(&buf)

	p.WriteSB(0x42)
	p.WriteSC(0x81) // start, internal clock

	p.Advance(bitPeriodDMG*8 - 1)
	if buf.Len() != 0 {
		t.Fatalf("transfer completed early")
	}
	p.Advance(1)
	if buf.String() != "\x42" {
		t.Fatalf("sink got %q want 0x42", buf.Bytes())
	}
	if irq.ReadIF()&interrupt.Serial == 0 {
		t.Fatalf("Serial IRQ should be requested on completion")
	}
	if p.ReadSC()&0x80 != 0 {
		t.Fatalf("SC start bit should clear once the transfer completes")
	}
}

func TestExternalClockTransferNeverCompletes(t *testing.T) {
	irq := &interrupt.Controller{}
	p := New(irq)
	var buf bytes.Buffer
	p.SetSink(&buf)

	p.WriteSC(0x80) // start, external clock: no partner
	p.Advance(1_000_000)
	if buf.Len() != 0 {
		t.Fatalf("external-clock transfer should never complete without a peer")
	}
}

func TestCGBFastClockUsesSixteenCycleBitPeriod(t *testing.T) {
	irq := &interrupt.Controller{}
	p := New(irq)
	p.SetModel(true, false)
	p.WriteSC(0x83) // start, internal, CGB fast
	if got := p.ClocksToNextEvent(); got != bitPeriodCGBFast*8 {
		t.Fatalf("remaining got %d want %d", got, bitPeriodCGBFast*8)
	}
}
