package z80

import "github.com/user-none/go-chip-z80/decoder"

// execCtrl handles DI/EI/IM, the port I/O instructions, and the block
// transfer/search/IO group.
func (c *CPU) execCtrl(instr *decoder.Instruction) {
	t := instr.Token
	switch t.Kind {
	case decoder.KindDI:
		c.reg.IFF1 = false
		c.reg.IFF2 = false

	case decoder.KindEI:
		c.reg.IFF1 = true
		c.reg.IFF2 = true
		c.suppressInt = true

	case decoder.KindIM:
		c.reg.IM = t.IMMode

	case decoder.KindInANImm:
		port := uint16(c.reg.A)<<8 | uint16(instr.Data.Byte)
		c.reg.A = c.ioRead(port)

	case decoder.KindOutNAImm:
		port := uint16(c.reg.A)<<8 | uint16(instr.Data.Byte)
		c.ioWrite(port, c.reg.A)

	case decoder.KindInRC:
		v := c.ioRead(c.reg.bc())
		if t.RegPresent {
			c.writeReg8(instr, t.Reg, v)
		}
		f := szFlags(v) | xy(v) | (c.reg.F & flagC)
		if parityTable[v] {
			f |= flagPV
		}
		c.reg.F = f

	case decoder.KindOutCR:
		var v byte
		if t.RegPresent {
			v = c.readReg8(instr, t.Reg)
		}
		c.ioWrite(c.reg.bc(), v)

	case decoder.KindBlock:
		c.execBlock(t.Block)
	}
}

// execBlock implements the sixteen LDx/CPx/INx/OUTx group members.
func (c *CPU) execBlock(op decoder.BlockOp) {
	switch op {
	case decoder.BlockLDI:
		c.blockLoad(1)
	case decoder.BlockLDD:
		c.blockLoad(-1)
	case decoder.BlockLDIR:
		c.blockLoad(1)
		c.blockRepeat()
	case decoder.BlockLDDR:
		c.blockLoad(-1)
		c.blockRepeat()

	case decoder.BlockCPI:
		c.blockCompare(1)
	case decoder.BlockCPD:
		c.blockCompare(-1)
	case decoder.BlockCPIR:
		c.blockCompare(1)
		if c.reg.F&flagZ == 0 {
			c.blockRepeat()
		}
	case decoder.BlockCPDR:
		c.blockCompare(-1)
		if c.reg.F&flagZ == 0 {
			c.blockRepeat()
		}

	case decoder.BlockINI:
		c.blockIn(1)
	case decoder.BlockIND:
		c.blockIn(-1)
	case decoder.BlockINIR:
		c.blockIn(1)
		if c.reg.B != 0 {
			c.blockRepeat()
		}
	case decoder.BlockINDR:
		c.blockIn(-1)
		if c.reg.B != 0 {
			c.blockRepeat()
		}

	case decoder.BlockOUTI:
		c.blockOut(1)
	case decoder.BlockOUTD:
		c.blockOut(-1)
	case decoder.BlockOTIR:
		c.blockOut(1)
		if c.reg.B != 0 {
			c.blockRepeat()
		}
	case decoder.BlockOTDR:
		c.blockOut(-1)
		if c.reg.B != 0 {
			c.blockRepeat()
		}
	}
}

// blockRepeat pays the 5 extra T-states a repeating block instruction
// spends on the loop-back, and rewinds PC 2 bytes so the next fetch
// re-executes the same instruction.
func (c *CPU) blockRepeat() {
	c.y(5)
	c.reg.PC -= 2
}

// blockLoad implements LDI/LDD: (DE) = (HL); HL,DE += dir; BC--.
func (c *CPU) blockLoad(dir int) {
	val := c.memoryRead(c.reg.hl())
	c.memoryWrite(c.reg.de(), val)
	c.reg.setHL(uint16(int32(c.reg.hl()) + int32(dir)))
	c.reg.setDE(uint16(int32(c.reg.de()) + int32(dir)))
	c.reg.setBC(c.reg.bc() - 1)
	c.y(2)

	n := c.reg.A + val
	f := c.reg.F & (flagS | flagZ | flagC)
	if c.reg.bc() != 0 {
		f |= flagPV
	}
	if n&0x02 != 0 {
		f |= flagY
	}
	if n&0x08 != 0 {
		f |= flagX
	}
	c.reg.F = f
}

// blockCompare implements CPI/CPD: compares A against (HL) like CP, but
// leaves C untouched and sets PV from the BC countdown instead of overflow.
func (c *CPU) blockCompare(dir int) {
	val := c.memoryRead(c.reg.hl())
	c.reg.setHL(uint16(int32(c.reg.hl()) + int32(dir)))
	c.reg.setBC(c.reg.bc() - 1)

	a := c.reg.A
	result := a - val
	halfBorrow := a&0xf < val&0xf

	f := (c.reg.F & flagC) | flagN
	f |= szFlags(result)
	if halfBorrow {
		f |= flagH
	}
	if c.reg.bc() != 0 {
		f |= flagPV
	}
	n := result
	if halfBorrow {
		n--
	}
	if n&0x02 != 0 {
		f |= flagY
	}
	if n&0x08 != 0 {
		f |= flagX
	}
	c.reg.F = f
	c.y(5)
}

// blockIn implements INI/IND: reads (C), stores to (HL), HL += dir, B--.
func (c *CPU) blockIn(dir int) {
	val := c.ioRead(c.reg.bc())
	c.memoryWrite(c.reg.hl(), val)
	c.reg.setHL(uint16(int32(c.reg.hl()) + int32(dir)))
	c.reg.B--
	c.y(1)

	c.setBlockIOFlags(val, uint16(c.reg.C)+uint16(int32(dir)))
}

// blockOut implements OUTI/OUTD: reads (HL), writes to (C), HL += dir, B--.
func (c *CPU) blockOut(dir int) {
	val := c.memoryRead(c.reg.hl())
	c.reg.setHL(uint16(int32(c.reg.hl()) + int32(dir)))
	c.reg.B--
	c.y(1)
	c.ioWrite(c.reg.bc(), val)

	c.setBlockIOFlags(val, uint16(c.reg.L))
}

// setBlockIOFlags sets the documented and undocumented flags shared by
// INI/IND/OUTI/OUTD, following the classic k = val + addend carry-out
// formula: PV is the parity of ((k&7)^B), H/C come from k>255, N is bit 7
// of the transferred byte, and S/Z/X/Y all read from the post-decrement B.
func (c *CPU) setBlockIOFlags(val byte, addend uint16) {
	b := c.reg.B
	k := uint16(val) + addend

	f := szFlags(b) | xy(b)
	if val&0x80 != 0 {
		f |= flagN
	}
	if k > 0xff {
		f |= flagH | flagC
	}
	if parityTable[byte(k&7)^b] {
		f |= flagPV
	}
	c.reg.F = f
}
