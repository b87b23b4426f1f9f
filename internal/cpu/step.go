package cpu

import "github.com/greyhollow-dev/gbcore/internal/interrupt"

// Step runs one instruction (or one idle tick while halted/stopped or
// one interrupt dispatch) and returns the T-cycles it consumed.
func (c *CPU) Step() int {
	if c.speedSwitchRemaining > 0 {
		step := 4
		if step > c.speedSwitchRemaining {
			step = c.speedSwitchRemaining
		}
		c.speedSwitchRemaining -= step
		if c.speedSwitchRemaining == 0 {
			c.stopped = false
			c.speed.CompleteSpeedSwitch()
		}
		return step
	}

	if cyc, serviced := c.serviceInterrupt(); serviced {
		return cyc
	}

	if c.stopped {
		if c.irq.Pending()&interrupt.Joypad != 0 { // joypad wakes STOP
			c.stopped = false
		} else {
			return 4
		}
	}

	if c.halted {
		if c.irq.Pending() != 0 {
			c.halted = false
		} else {
			return 4
		}
	}

	c.irq.TickEIDelay()

	var op byte
	if c.haltBug {
		// PC fails to advance across this fetch: the byte after HALT
		// gets decoded twice, exactly as real hardware misbehaves.
		op = c.read8(c.PC)
		c.haltBug = false
	} else {
		op = c.fetch8()
	}
	return c.execute(op)
}

// serviceInterrupt dispatches the highest-priority pending, enabled
// interrupt if IME is set, pushing PC and jumping to its vector. The
// 20 T-cycle cost matches §4.1's dispatch sequence.
func (c *CPU) serviceInterrupt() (int, bool) {
	if !c.irq.IME() {
		return 0, false
	}
	bit := c.irq.NextVector()
	if bit == 0 {
		return 0, false
	}
	c.halted = false
	c.irq.Acknowledge(bit)
	c.push16(c.PC)
	c.PC = interrupt.Vector(bit)
	return 20, true
}

func (c *CPU) undefined(op byte) int {
	if c.logger != nil {
		c.logger.Printf("undefined opcode 0x%02X at PC=0x%04X", op, c.PC-1)
	}
	return 4
}

func (c *CPU) doHalt() int {
	if !c.irq.IME() && c.irq.Pending() != 0 {
		c.haltBug = true
	} else {
		c.halted = true
	}
	return 4
}

func (c *CPU) doStop() int {
	c.fetch8() // STOP's mandatory (and ignored) second byte
	if c.speed != nil && c.speed.ArmSpeedSwitch() {
		c.stopped = true
		c.speedSwitchRemaining = speedSwitchCycles
		return 4
	}
	c.stopped = true
	return 4
}
