package cpu

import (
	"testing"

	"github.com/greyhollow-dev/gbcore/internal/interrupt"
)

type fakeBus struct {
	mem [0x10000]byte
}

func (b *fakeBus) Read(addr uint16) byte     { return b.mem[addr] }
func (b *fakeBus) Write(addr uint16, v byte) { b.mem[addr] = v }

func newCPUWithROM(code []byte) (*CPU, *fakeBus) {
	b := &fakeBus{}
	copy(b.mem[:], code)
	irq := &interrupt.Controller{}
	c := New(b, irq, nil, nil)
	return c, b
}

func TestNopAndPC(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x00})
	if cycles := c.Step(); cycles != 4 {
		t.Fatalf("NOP cycles got %d want 4", cycles)
	}
	if c.PC != 1 {
		t.Fatalf("PC after NOP got %#04x want 0x0001", c.PC)
	}
}

func TestLDAd8AndXORA(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x3E, 0x12, 0xAF})
	c.Step()
	if c.A != 0x12 {
		t.Fatalf("A after LD got %02x want 12", c.A)
	}
	c.Step()
	if c.A != 0x00 || c.F&flagZ == 0 {
		t.Fatalf("XOR A should zero A and set Z, A=%02x F=%02x", c.A, c.F)
	}
}

func TestCallRet(t *testing.T) {
	c, b := newCPUWithROM(nil)
	b.mem[0x0000] = 0xCD
	b.mem[0x0001] = 0x05
	b.mem[0x0002] = 0x00
	b.mem[0x0005] = 0xC9
	c.Step()
	if c.PC != 0x0005 {
		t.Fatalf("PC after CALL got %04x want 0005", c.PC)
	}
	cyc := c.Step()
	if c.PC != 0x0003 || cyc != 16 {
		t.Fatalf("RET did not return to 0003; PC=%04x cyc=%d", c.PC, cyc)
	}
}

// DAA must correct A back into packed-BCD range after an 8-bit BCD
// add, e.g. 0x45 + 0x38 = 0x7D raw -> 0x83 decimal-corrected.
func TestDAAAfterAdd(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x27})
	c.A = 0x7D
	c.F = 0 // N clear (addition path), H/C clear
	c.Step()
	if c.A != 0x83 {
		t.Fatalf("DAA got %02x want 83", c.A)
	}
}

func TestEIDelayTakesEffectAfterNextInstruction(t *testing.T) {
	c, b := newCPUWithROM([]byte{0xFB, 0x00, 0x00})
	b.mem[0xFF0F] = 0
	c.irq.WriteIE(interrupt.VBlank)
	c.Step() // EI
	if c.irq.IME() {
		t.Fatalf("IME should not be active immediately after EI")
	}
	c.Step() // NOP (the instruction following EI)
	if !c.irq.IME() {
		t.Fatalf("IME should be active once the instruction after EI completes")
	}
}

// TestHaltBug reproduces the documented quirk: entering HALT with
// IME=0 and an interrupt already pending causes the next opcode fetch
// to not advance PC, so that byte is effectively executed twice.
func TestHaltBug(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x76, 0x3C, 0x3C}) // HALT; INC A; INC A
	c.irq.WriteIE(interrupt.VBlank)
	c.irq.Request(interrupt.VBlank) // pending, but IME is off
	c.Step()                        // HALT: IME=0 and pending != 0 -> halt bug armed, not a real halt
	if c.halted {
		t.Fatalf("halt bug path should not actually halt the CPU")
	}
	c.Step() // first fetch after HALT: PC does not advance past this opcode
	if c.A != 1 {
		t.Fatalf("A after first post-HALT step got %d want 1", c.A)
	}
	if c.PC != 1 {
		t.Fatalf("PC should not have advanced past the HALT-bug opcode, got %#04x", c.PC)
	}
	c.Step() // re-fetches the same INC A byte, now advancing normally
	if c.A != 2 || c.PC != 2 {
		t.Fatalf("second step got A=%d PC=%#04x want A=2 PC=0x0002", c.A, c.PC)
	}
}

func TestInterruptDispatchPushesPCAndClearsIME(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x00})
	c.SP = 0xFFFE
	c.PC = 0x0150
	c.irq.SetIME(true)
	c.irq.WriteIE(interrupt.Timer)
	c.irq.Request(interrupt.Timer)
	cyc := c.Step()
	if cyc != 20 {
		t.Fatalf("interrupt dispatch cycles got %d want 20", cyc)
	}
	if c.PC != 0x0050 {
		t.Fatalf("PC after Timer dispatch got %#04x want 0x0050", c.PC)
	}
	if c.irq.IME() {
		t.Fatalf("IME should be cleared by dispatch")
	}
	if c.irq.ReadIF()&interrupt.Timer != 0 {
		t.Fatalf("Timer IF bit should be cleared by dispatch")
	}
}

// TestFLowNibbleAlwaysZero checks every ALU flag-setting path masks F
// down to its top 4 bits, matching real hardware's read-back behavior.
func TestFLowNibbleAlwaysZero(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0xAF}) // XOR A
	c.Step()
	if c.F&0x0F != 0 {
		t.Fatalf("F low nibble got %02x want 0", c.F&0x0F)
	}
}

type fakeSpeedSwitcher struct {
	armed     bool
	completed int
}

func (f *fakeSpeedSwitcher) ArmSpeedSwitch() bool {
	if !f.armed {
		return false
	}
	f.armed = false
	return true
}

func (f *fakeSpeedSwitcher) CompleteSpeedSwitch() { f.completed++ }

// TestSpeedSwitchStallsBeforeCompleting checks a KEY1-armed STOP burns
// the full speed_switch_clocks_remaining wait in 4-cycle idle ticks,
// servicing no interrupts, before CompleteSpeedSwitch fires once.
func TestSpeedSwitchStallsBeforeCompleting(t *testing.T) {
	b := &fakeBus{}
	b.mem[0] = 0x10 // STOP
	b.mem[1] = 0x00
	irq := &interrupt.Controller{}
	speed := &fakeSpeedSwitcher{armed: true}
	c := New(b, irq, speed, nil)

	if cyc := c.Step(); cyc != 4 {
		t.Fatalf("STOP cycles got %d want 4", cyc)
	}
	if !c.stopped {
		t.Fatalf("CPU should report stopped during the speed-switch stall")
	}

	irq.SetIME(true)
	irq.WriteIE(interrupt.Joypad)
	irq.Request(interrupt.Joypad) // must not cut the stall short

	consumed := 0
	for consumed < speedSwitchCycles {
		consumed += c.Step()
	}
	if consumed != speedSwitchCycles {
		t.Fatalf("stall consumed %d T-cycles want %d", consumed, speedSwitchCycles)
	}
	if speed.completed != 1 {
		t.Fatalf("CompleteSpeedSwitch called %d times want 1", speed.completed)
	}
	if c.stopped {
		t.Fatalf("CPU should no longer report stopped once the switch completes")
	}
}
