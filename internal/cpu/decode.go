package cpu

// execute decodes and runs one unprefixed opcode, returning its
// T-cycle cost.
func (c *CPU) execute(op byte) int {
	switch op {
	case 0x00: // NOP
		return 4
	case 0x10: // STOP
		return c.doStop()
	case 0x76: // HALT
		return c.doHalt()
	case 0xCB:
		return c.execCB()

	// LD r,d8
	case 0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x3E:
		d := (op >> 3) & 7
		c.regSet(d, c.fetch8())
		return 8
	// LD (HL),d8
	case 0x36:
		c.write8(c.getHL(), c.fetch8())
		return 12

	// LD r,r' block (0x40-0x7F minus 0x76=HALT already handled above)
	case 0x40, 0x41, 0x42, 0x43, 0x44, 0x45, 0x47,
		0x48, 0x49, 0x4A, 0x4B, 0x4C, 0x4D, 0x4F,
		0x50, 0x51, 0x52, 0x53, 0x54, 0x55, 0x57,
		0x58, 0x59, 0x5A, 0x5B, 0x5C, 0x5D, 0x5F,
		0x60, 0x61, 0x62, 0x63, 0x64, 0x65, 0x67,
		0x68, 0x69, 0x6A, 0x6B, 0x6C, 0x6D, 0x6F,
		0x70, 0x71, 0x72, 0x73, 0x74, 0x75, 0x77,
		0x78, 0x79, 0x7A, 0x7B, 0x7C, 0x7D, 0x7F:
		d := (op >> 3) & 7
		s := op & 7
		c.regSet(d, c.regGet(s))
		if d == 6 || s == 6 {
			return 8
		}
		return 4

	// 16-bit immediate loads
	case 0x01:
		c.setBC(c.fetch16())
		return 12
	case 0x11:
		c.setDE(c.fetch16())
		return 12
	case 0x21:
		c.setHL(c.fetch16())
		return 12
	case 0x31:
		c.SP = c.fetch16()
		return 12
	case 0x08: // LD (a16),SP
		c.write16(c.fetch16(), c.SP)
		return 20

	case 0x02:
		c.write8(c.getBC(), c.A)
		return 8
	case 0x12:
		c.write8(c.getDE(), c.A)
		return 8
	case 0x0A:
		c.A = c.read8(c.getBC())
		return 8
	case 0x1A:
		c.A = c.read8(c.getDE())
		return 8

	case 0x22: // LD (HL+),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl + 1)
		return 8
	case 0x2A: // LD A,(HL+)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl + 1)
		return 8
	case 0x32: // LD (HL-),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl - 1)
		return 8
	case 0x3A: // LD A,(HL-)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl - 1)
		return 8

	case 0xE0: // LDH (a8),A
		c.write8(0xFF00+uint16(c.fetch8()), c.A)
		return 12
	case 0xF0: // LDH A,(a8)
		c.A = c.read8(0xFF00 + uint16(c.fetch8()))
		return 12
	case 0xE2: // LD (C),A
		c.write8(0xFF00+uint16(c.C), c.A)
		return 8
	case 0xF2: // LD A,(C)
		c.A = c.read8(0xFF00 + uint16(c.C))
		return 8
	case 0xEA: // LD (a16),A
		c.write8(c.fetch16(), c.A)
		return 16
	case 0xFA: // LD A,(a16)
		c.A = c.read8(c.fetch16())
		return 16

	case 0x07: // RLCA
		cv := (c.A >> 7) & 1
		c.A = (c.A << 1) | cv
		c.setZNHC(false, false, false, cv == 1)
		return 4
	case 0x0F: // RRCA
		cv := c.A & 1
		c.A = (c.A >> 1) | (cv << 7)
		c.setZNHC(false, false, false, cv == 1)
		return 4
	case 0x17: // RLA
		cv := (c.A >> 7) & 1
		cin := byte(0)
		if c.F&flagC != 0 {
			cin = 1
		}
		c.A = (c.A << 1) | cin
		c.setZNHC(false, false, false, cv == 1)
		return 4
	case 0x1F: // RRA
		cv := c.A & 1
		cin := byte(0)
		if c.F&flagC != 0 {
			cin = 1
		}
		c.A = (c.A >> 1) | (cin << 7)
		c.setZNHC(false, false, false, cv == 1)
		return 4
	case 0x27: // DAA
		a := c.A
		cf := c.F&flagC != 0
		hf := c.F&flagH != 0
		nf := c.F&flagN != 0
		if !nf {
			if cf || a > 0x99 {
				a += 0x60
				cf = true
			}
			if hf || (a&0x0F) > 0x09 {
				a += 0x06
			}
		} else {
			if cf {
				a -= 0x60
			}
			if hf {
				a -= 0x06
			}
		}
		c.A = a
		c.setZNHC(c.A == 0, nf, false, cf)
		return 4
	case 0x2F: // CPL
		c.A = ^c.A
		c.F = (c.F & (flagZ | flagC)) | flagN | flagH
		return 4
	case 0x37: // SCF
		c.F = (c.F & flagZ) | flagC
		return 4
	case 0x3F: // CCF
		cf := c.F&flagC != 0
		c.F = (c.F & flagZ)
		if !cf {
			c.F |= flagC
		}
		return 4

	// INC/DEC r
	case 0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x3C:
		d := (op >> 3) & 7
		old := c.regGet(d)
		v := old + 1
		c.regSet(d, v)
		c.setZNHC(v == 0, false, (old&0x0F) == 0x0F, c.F&flagC != 0)
		return 4
	case 0x34: // INC (HL)
		old := c.read8(c.getHL())
		v := old + 1
		c.write8(c.getHL(), v)
		c.setZNHC(v == 0, false, (old&0x0F) == 0x0F, c.F&flagC != 0)
		return 12
	case 0x05, 0x0D, 0x15, 0x1D, 0x25, 0x2D, 0x3D:
		d := (op >> 3) & 7
		old := c.regGet(d)
		v := old - 1
		c.regSet(d, v)
		c.setZNHC(v == 0, true, (old&0x0F) == 0x00, c.F&flagC != 0)
		return 4
	case 0x35: // DEC (HL)
		old := c.read8(c.getHL())
		v := old - 1
		c.write8(c.getHL(), v)
		c.setZNHC(v == 0, true, (old&0x0F) == 0x00, c.F&flagC != 0)
		return 12

	// ALU A,r / A,(HL) / A,d8
	case 0x80, 0x81, 0x82, 0x83, 0x84, 0x85, 0x86, 0x87, 0xC6:
		src, cyc := c.aluOperand(op, 0x80, 0xC6)
		r, z, n, h, cy := c.add8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return cyc
	case 0x88, 0x89, 0x8A, 0x8B, 0x8C, 0x8D, 0x8E, 0x8F, 0xCE:
		src, cyc := c.aluOperand(op, 0x88, 0xCE)
		r, z, n, h, cy := c.adc8(c.A, src, c.F&flagC != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return cyc
	case 0x90, 0x91, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97, 0xD6:
		src, cyc := c.aluOperand(op, 0x90, 0xD6)
		r, z, n, h, cy := c.sub8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return cyc
	case 0x98, 0x99, 0x9A, 0x9B, 0x9C, 0x9D, 0x9E, 0x9F, 0xDE:
		src, cyc := c.aluOperand(op, 0x98, 0xDE)
		r, z, n, h, cy := c.sbc8(c.A, src, c.F&flagC != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return cyc
	case 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7, 0xE6:
		src, cyc := c.aluOperand(op, 0xA0, 0xE6)
		r, z, n, h, cy := c.and8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return cyc
	case 0xA8, 0xA9, 0xAA, 0xAB, 0xAC, 0xAD, 0xAE, 0xAF, 0xEE:
		src, cyc := c.aluOperand(op, 0xA8, 0xEE)
		r, z, n, h, cy := c.xor8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return cyc
	case 0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5, 0xB6, 0xB7, 0xF6:
		src, cyc := c.aluOperand(op, 0xB0, 0xF6)
		r, z, n, h, cy := c.or8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return cyc
	case 0xB8, 0xB9, 0xBA, 0xBB, 0xBC, 0xBD, 0xBE, 0xBF, 0xFE:
		src, cyc := c.aluOperand(op, 0xB8, 0xFE)
		z, n, h, cy := c.cp8(c.A, src)
		c.setZNHC(z, n, h, cy)
		return cyc

	case 0xC3: // JP a16
		c.PC = c.fetch16()
		return 16
	case 0xE9: // JP (HL)
		c.PC = c.getHL()
		return 4
	case 0x18: // JR r8
		off := int8(c.fetch8())
		c.PC = uint16(int32(c.PC) + int32(off))
		return 12
	case 0x20, 0x28, 0x30, 0x38: // JR cc,r8
		off := int8(c.fetch8())
		if c.condTrue(op) {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 12
		}
		return 8
	case 0xC2, 0xCA, 0xD2, 0xDA: // JP cc,a16
		addr := c.fetch16()
		if c.condTrue(op) {
			c.PC = addr
			return 16
		}
		return 12

	case 0xCD: // CALL a16
		addr := c.fetch16()
		c.push16(c.PC)
		c.PC = addr
		return 24
	case 0xC4, 0xCC, 0xD4, 0xDC: // CALL cc,a16
		addr := c.fetch16()
		if c.condTrue(op) {
			c.push16(c.PC)
			c.PC = addr
			return 24
		}
		return 12
	case 0xC9: // RET
		c.PC = c.pop16()
		return 16
	case 0xD9: // RETI
		c.PC = c.pop16()
		c.irq.SetIME(true)
		return 16
	case 0xC0, 0xC8, 0xD0, 0xD8: // RET cc
		if c.condTrue(op) {
			c.PC = c.pop16()
			return 20
		}
		return 8

	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF: // RST t
		c.push16(c.PC)
		c.PC = uint16(op & 0x38)
		return 16

	case 0x03:
		c.setBC(c.getBC() + 1)
		return 8
	case 0x13:
		c.setDE(c.getDE() + 1)
		return 8
	case 0x23:
		c.setHL(c.getHL() + 1)
		return 8
	case 0x33:
		c.SP++
		return 8
	case 0x0B:
		c.setBC(c.getBC() - 1)
		return 8
	case 0x1B:
		c.setDE(c.getDE() - 1)
		return 8
	case 0x2B:
		c.setHL(c.getHL() - 1)
		return 8
	case 0x3B:
		c.SP--
		return 8

	case 0x09, 0x19, 0x29, 0x39: // ADD HL,rr
		hl := c.getHL()
		var rr uint16
		switch op {
		case 0x09:
			rr = c.getBC()
		case 0x19:
			rr = c.getDE()
		case 0x29:
			rr = hl
		case 0x39:
			rr = c.SP
		}
		r := uint32(hl) + uint32(rr)
		h := ((hl & 0x0FFF) + (rr & 0x0FFF)) > 0x0FFF
		c.setHL(uint16(r))
		c.setZNHC(c.F&flagZ != 0, false, h, r > 0xFFFF)
		return 8

	case 0xF8: // LD HL,SP+r8
		off := int8(c.fetch8())
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.setHL(uint16(int32(int16(c.SP)) + int32(off)))
		c.setZNHC(false, false, h, cy)
		return 12
	case 0xF9: // LD SP,HL
		c.SP = c.getHL()
		return 8
	case 0xE8: // ADD SP,r8
		off := int8(c.fetch8())
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.SP = uint16(int32(int16(c.SP)) + int32(off))
		c.setZNHC(false, false, h, cy)
		return 16

	case 0xF3: // DI
		c.irq.SetIME(false)
		return 4
	case 0xFB: // EI
		c.irq.RequestEI()
		return 4

	case 0xF5:
		c.push16(c.getAF())
		return 16
	case 0xC5:
		c.push16(c.getBC())
		return 16
	case 0xD5:
		c.push16(c.getDE())
		return 16
	case 0xE5:
		c.push16(c.getHL())
		return 16
	case 0xF1:
		c.setAF(c.pop16())
		return 12
	case 0xC1:
		c.setBC(c.pop16())
		return 12
	case 0xD1:
		c.setDE(c.pop16())
		return 12
	case 0xE1:
		c.setHL(c.pop16())
		return 12

	case 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD:
		return c.undefined(op)

	default:
		return c.undefined(op)
	}
}

// aluOperand resolves the right-hand operand for an ALU opcode block:
// regBase..regBase+7 index registers (regBase+6 is (HL), 8 cycles like
// the immediate form; plain registers take 4), immOp is the d8-immediate form.
func (c *CPU) aluOperand(op, regBase, immOp byte) (byte, int) {
	if op == immOp {
		return c.fetch8(), 8
	}
	idx := op - regBase
	if idx == 6 {
		return c.read8(c.getHL()), 8
	}
	return c.regGet(idx), 4
}

// condTrue evaluates the cc field shared by JR/JP/CALL/RET cc opcodes:
// bits 4-3 select NZ,Z,NC,C in that order.
func (c *CPU) condTrue(op byte) bool {
	switch (op >> 3) & 3 {
	case 0:
		return c.F&flagZ == 0
	case 1:
		return c.F&flagZ != 0
	case 2:
		return c.F&flagC == 0
	default:
		return c.F&flagC != 0
	}
}
