// Package serial implements the SB/SC link port. Only the internal
// clock is modeled — without a link partner, an external-clock
// transfer never completes, matching real hardware.
package serial

import "github.com/greyhollow-dev/gbcore/internal/interrupt"

// Internal-clock bit periods, in T-cycles per bit (§4.2).
const (
	bitPeriodDMG           = 512
	bitPeriodCGBFast       = 16
	bitPeriodCGBNormal     = 128
)

// Sink receives completed transfer bytes, e.g. a blargg-test capture
// buffer or a link-cable peer stub.
type Sink interface {
	Write(p []byte) (int, error)
}

// Port models SB (FF01) and SC (FF02).
type Port struct {
	sb byte
	sc byte // bit7 transfer-start, bit1 CGB speed select, bit0 clock source

	doubleSpeed bool
	cgb         bool

	remaining int // T-cycles left in the current transfer
	sink      Sink

	irq *interrupt.Controller
}

func New(irq *interrupt.Controller) *Port { return &Port{irq: irq} }

func (p *Port) Reset() { p.sb, p.sc, p.remaining = 0, 0, 0 }

// SetSink installs (or clears, with nil) a byte sink for completed
// transfers. Test harnesses use this to capture blargg-style output.
func (p *Port) SetSink(s Sink) { p.sink = s }

// SetModel tells the port whether CGB double-speed transfer rates
// apply.
func (p *Port) SetModel(cgb, doubleSpeed bool) { p.cgb, p.doubleSpeed = cgb, doubleSpeed }

func (p *Port) ReadSB() byte { return p.sb }
func (p *Port) ReadSC() byte { return 0x7E | (p.sc & 0x81) }

func (p *Port) WriteSB(v byte) { p.sb = v }

// WriteSC starts a transfer when bit 7 is set and the clock source is
// internal (bit0=1); external-clock transfers (bit0=0) are accepted
// but never complete, per §4.6.
func (p *Port) WriteSC(v byte) {
	p.sc = v & 0x83
	if p.sc&0x80 == 0 {
		p.remaining = 0
		return
	}
	if p.sc&0x01 == 0 {
		// External clock: no partner, stalls forever.
		p.remaining = 0
		return
	}
	bitPeriod := bitPeriodDMG
	if p.cgb {
		if p.sc&0x02 != 0 {
			bitPeriod = bitPeriodCGBFast
		} else {
			bitPeriod = bitPeriodCGBNormal
		}
	}
	if p.doubleSpeed {
		bitPeriod /= 2
	}
	p.remaining = bitPeriod * 8
}

// Advance steps the port by n T-cycles, completing the transfer and
// raising IF bit 3 when the shift finishes.
func (p *Port) Advance(n int) {
	if p.remaining <= 0 {
		return
	}
	p.remaining -= n
	if p.remaining > 0 {
		return
	}
	p.remaining = 0
	p.sc &^= 0x80
	if p.sink != nil {
		_, _ = p.sink.Write([]byte{p.sb})
	}
	p.irq.Request(interrupt.Serial)
}

// ClocksToNextEvent reports cycles until the in-flight transfer
// completes, or a large value if idle.
func (p *Port) ClocksToNextEvent() int {
	if p.remaining <= 0 {
		return 1 << 16
	}
	return p.remaining
}

type State struct {
	SB, SC    byte
	Remaining int
}

func (p *Port) SaveState() State  { return State{p.sb, p.sc, p.remaining} }
func (p *Port) LoadState(s State) { p.sb, p.sc, p.remaining = s.SB, s.SC, s.Remaining }
