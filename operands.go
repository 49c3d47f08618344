package z80

import "github.com/user-none/go-chip-z80/decoder"

// indexBase returns the active index register (IX or IY) for an
// instruction decoded under that prefix.
func (c *CPU) indexBase(instr *decoder.Instruction) uint16 {
	if instr.UsesIndexIX {
		return c.reg.IX
	}
	return c.reg.IY
}

// effAddr computes an (IX+d)/(IY+d) effective address, paying the 5 extra
// T-states of internal computation real hardware spends before the
// address is actually used.
func (c *CPU) effAddr(instr *decoder.Instruction) uint16 {
	addr := c.indexBase(instr) + uint16(int16(instr.Disp))
	c.y(5)
	return addr
}

// hlIndAddr resolves the address a RegHLInd operand refers to: (HL)
// normally, or the already-fetched (IX+d)/(IY+d) displacement target.
func (c *CPU) hlIndAddr(instr *decoder.Instruction) uint16 {
	if instr.HasDisp {
		return c.effAddr(instr)
	}
	return c.reg.hl()
}

func (c *CPU) readReg8(instr *decoder.Instruction, r decoder.Reg8) byte {
	switch r {
	case decoder.RegB:
		return c.reg.B
	case decoder.RegC:
		return c.reg.C
	case decoder.RegD:
		return c.reg.D
	case decoder.RegE:
		return c.reg.E
	case decoder.RegH:
		return c.reg.H
	case decoder.RegL:
		return c.reg.L
	case decoder.RegA:
		return c.reg.A
	case decoder.RegIXH:
		return byte(c.reg.IX >> 8)
	case decoder.RegIXL:
		return byte(c.reg.IX)
	case decoder.RegIYH:
		return byte(c.reg.IY >> 8)
	case decoder.RegIYL:
		return byte(c.reg.IY)
	case decoder.RegHLInd:
		return c.memoryRead(c.hlIndAddr(instr))
	}
	return 0
}

func (c *CPU) writeReg8(instr *decoder.Instruction, r decoder.Reg8, v byte) {
	switch r {
	case decoder.RegB:
		c.reg.B = v
	case decoder.RegC:
		c.reg.C = v
	case decoder.RegD:
		c.reg.D = v
	case decoder.RegE:
		c.reg.E = v
	case decoder.RegH:
		c.reg.H = v
	case decoder.RegL:
		c.reg.L = v
	case decoder.RegA:
		c.reg.A = v
	case decoder.RegIXH:
		c.reg.IX = uint16(v)<<8 | c.reg.IX&0x00ff
	case decoder.RegIXL:
		c.reg.IX = c.reg.IX&0xff00 | uint16(v)
	case decoder.RegIYH:
		c.reg.IY = uint16(v)<<8 | c.reg.IY&0x00ff
	case decoder.RegIYL:
		c.reg.IY = c.reg.IY&0xff00 | uint16(v)
	case decoder.RegHLInd:
		c.memoryWrite(c.hlIndAddr(instr), v)
	}
}

// rmw8 performs a read-modify-write on an 8-bit operand, resolving a
// (HL)/(IX+d)/(IY+d) address exactly once so the 5 T-state indexed
// penalty is not paid twice.
func (c *CPU) rmw8(instr *decoder.Instruction, r decoder.Reg8, fn func(byte) byte) byte {
	if r == decoder.RegHLInd {
		addr := c.hlIndAddr(instr)
		v := fn(c.memoryRead(addr))
		c.memoryWrite(addr, v)
		return v
	}
	v := fn(c.readReg8(instr, r))
	c.writeReg8(instr, r, v)
	return v
}

func (c *CPU) readReg16(rp decoder.Reg16) uint16 {
	switch rp {
	case decoder.RegBC:
		return c.reg.bc()
	case decoder.RegDE:
		return c.reg.de()
	case decoder.RegHL:
		return c.reg.hl()
	case decoder.RegSP:
		return c.reg.SP
	case decoder.RegAF:
		return c.reg.af()
	case decoder.RegIX:
		return c.reg.IX
	case decoder.RegIY:
		return c.reg.IY
	}
	return 0
}

func (c *CPU) writeReg16(rp decoder.Reg16, v uint16) {
	switch rp {
	case decoder.RegBC:
		c.reg.setBC(v)
	case decoder.RegDE:
		c.reg.setDE(v)
	case decoder.RegHL:
		c.reg.setHL(v)
	case decoder.RegSP:
		c.reg.SP = v
	case decoder.RegAF:
		c.reg.setAF(v)
	case decoder.RegIX:
		c.reg.IX = v
	case decoder.RegIY:
		c.reg.IY = v
	}
}
