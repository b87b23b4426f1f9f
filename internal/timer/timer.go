// Package timer implements DIV/TIMA/TMA/TAC, including the
// falling-edge TIMA clocking quirk and the delayed TMA reload.
package timer

import "github.com/greyhollow-dev/gbcore/internal/interrupt"

// tapBit maps TAC's clock-select bits to the internal divider bit that
// feeds TIMA, per §4.6 (00:bit9, 01:bit3, 10:bit5, 11:bit7).
var tapBit = [4]uint{9, 3, 5, 7}

// Timer owns the 16-bit internal divider and TIMA/TMA/TAC state.
type Timer struct {
	div uint16 // internal divider; DIV (FF04) reads the upper 8 bits
	tima byte
	tma  byte
	tac  byte // lower 3 bits significant

	reloadDelay int // T-cycles remaining until TIMA reloads from TMA; 0 = none pending

	irq *interrupt.Controller
}

// New returns a Timer wired to raise IF bit 2 on TIMA overflow.
func New(irq *interrupt.Controller) *Timer {
	return &Timer{irq: irq}
}

// Reset zeroes all timer state.
func (t *Timer) Reset() {
	t.div, t.tima, t.tma, t.tac, t.reloadDelay = 0, 0, 0, 0, 0
}

func (t *Timer) enabled() bool { return t.tac&0x04 != 0 }

func (t *Timer) input() bool {
	if !t.enabled() {
		return false
	}
	return (t.div>>tapBit[t.tac&0x03])&1 != 0
}

// ReadDIV / ReadTIMA / ReadTMA / ReadTAC implement §4.2's read masks.
func (t *Timer) ReadDIV() byte  { return byte(t.div >> 8) }
func (t *Timer) ReadTIMA() byte { return t.tima }
func (t *Timer) ReadTMA() byte  { return t.tma }
func (t *Timer) ReadTAC() byte  { return 0xF8 | (t.tac & 0x07) }

// WriteDIV resets the whole internal counter to 0. If the reset causes
// a 1->0 transition on the selected tap bit, TIMA clocks once — the
// "DIV write" hardware quirk tests exercise (§4.6).
func (t *Timer) WriteDIV() {
	was := t.input()
	t.div = 0
	if was && !t.input() {
		t.clockTIMA()
	}
}

// WriteTIMA sets TIMA directly. A write landing during the one-cycle
// reload window cancels the pending reload (§4.2).
func (t *Timer) WriteTIMA(v byte) {
	t.tima = v
	t.reloadDelay = 0
}

// WriteTMA sets the reload value.
func (t *Timer) WriteTMA(v byte) { t.tma = v }

// WriteTAC may also cause a falling edge on the timer input (changing
// the tap bit or disabling the timer), clocking TIMA once.
func (t *Timer) WriteTAC(v byte) {
	was := t.input()
	t.tac = v & 0x07
	if was && !t.input() {
		t.clockTIMA()
	}
}

func (t *Timer) clockTIMA() {
	if t.reloadDelay > 0 {
		return
	}
	if t.tima == 0xFF {
		t.tima = 0x00
		t.reloadDelay = 4 // reload happens "one cycle later"; see Advance
		return
	}
	t.tima++
}

// Advance steps the timer by n T-cycles, raising the Timer interrupt on
// TIMA overflow once the delayed reload fires.
func (t *Timer) Advance(n int) {
	for i := 0; i < n; i++ {
		was := t.input()
		t.div++
		falling := was && !t.input()

		if t.reloadDelay > 0 {
			t.reloadDelay--
			if t.reloadDelay == 0 {
				t.tima = t.tma
				t.irq.Request(interrupt.Timer)
			}
		}

		if falling {
			t.clockTIMA()
		}
	}
}

// ClocksToNextEvent reports how many T-cycles until TIMA next
// increments (the next falling edge of its tap bit) or a pending
// reload fires, whichever is sooner. A
// conservative caller can always pass 1 to Advance instead; this
// exists to let the machine scheduler batch work when the timer is
// disabled or far from an edge.
func (t *Timer) ClocksToNextEvent() int {
	if t.reloadDelay > 0 {
		return t.reloadDelay
	}
	if !t.enabled() {
		return 1 << 16
	}
	bit := tapBit[t.tac&0x03]
	period := uint16(1) << (bit + 1)
	return int(period - t.div%period)
}

// SaveState/LoadState support the opaque snapshot format (see machine).
type State struct {
	Div         uint16
	Tima, Tma   byte
	Tac         byte
	ReloadDelay int
}

func (t *Timer) SaveState() State {
	return State{t.div, t.tima, t.tma, t.tac, t.reloadDelay}
}

func (t *Timer) LoadState(s State) {
	t.div, t.tima, t.tma, t.tac, t.reloadDelay = s.Div, s.Tima, s.Tma, s.Tac, s.ReloadDelay
}
