package z80

import "github.com/user-none/go-chip-z80/decoder"

// execBit handles the CB-prefixed rotate/shift group (and its DDCB/FDCB
// indexed forms), BIT/RES/SET, the fast accumulator rotates, and RLD/RRD.
func (c *CPU) execBit(instr *decoder.Instruction) {
	t := instr.Token
	switch t.Kind {
	case decoder.KindRotAcc:
		c.rotAcc(t.Rot)

	case decoder.KindRot:
		result := c.rmw8(instr, t.Reg, func(v byte) byte { return c.rotate(t.Rot, v) })
		if t.HasCopy {
			c.writeReg8(instr, t.CopyReg, result)
		}

	case decoder.KindBit:
		v := c.readReg8(instr, t.Reg)
		bit := v & (1 << t.Bit)
		f := (c.reg.F & flagC) | flagH
		if bit == 0 {
			f |= flagZ | flagPV
		}
		if t.Bit == 7 && bit != 0 {
			f |= flagS
		}
		if t.Reg == decoder.RegHLInd {
			// undocumented X/Y come from the high byte of the address
			// computed to fetch the tested byte, not from the value itself
			f |= xy(byte(c.hlIndAddr(instr) >> 8))
		} else {
			f |= xy(v)
		}
		c.reg.F = f

	case decoder.KindRes:
		result := c.rmw8(instr, t.Reg, func(v byte) byte { return v &^ (1 << t.Bit) })
		if t.HasCopy {
			c.writeReg8(instr, t.CopyReg, result)
		}

	case decoder.KindSet:
		result := c.rmw8(instr, t.Reg, func(v byte) byte { return v | (1 << t.Bit) })
		if t.HasCopy {
			c.writeReg8(instr, t.CopyReg, result)
		}

	case decoder.KindRLD:
		c.rld()

	case decoder.KindRRD:
		c.rrd()
	}
}

// rotAcc implements RLCA/RRCA/RLA/RRA: like their CB-prefixed
// counterparts but only S/Z/PV are left untouched (they affect only
// C/H/N/X/Y).
func (c *CPU) rotAcc(op decoder.RotOp) {
	a := c.reg.A
	var result byte
	var carryOut bool
	switch op {
	case decoder.RotRLC:
		carryOut = a&0x80 != 0
		result = a<<1 | a>>7
	case decoder.RotRRC:
		carryOut = a&0x01 != 0
		result = a>>1 | a<<7
	case decoder.RotRL:
		carryOut = a&0x80 != 0
		var ci byte
		if c.reg.F&flagC != 0 {
			ci = 1
		}
		result = a<<1 | ci
	case decoder.RotRR:
		carryOut = a&0x01 != 0
		var ci byte
		if c.reg.F&flagC != 0 {
			ci = 0x80
		}
		result = a>>1 | ci
	}
	c.reg.A = result
	f := (c.reg.F & (flagS | flagZ | flagPV)) | xy(result)
	if carryOut {
		f |= flagC
	}
	c.reg.F = f
}

// rotate implements the eight CB-table rotate/shift operations on an
// arbitrary 8-bit operand, setting the full SZYHXPNC flag set.
func (c *CPU) rotate(op decoder.RotOp, v byte) byte {
	var result byte
	var carryOut bool
	switch op {
	case decoder.RotRLC:
		carryOut = v&0x80 != 0
		result = v<<1 | v>>7
	case decoder.RotRRC:
		carryOut = v&0x01 != 0
		result = v>>1 | v<<7
	case decoder.RotRL:
		carryOut = v&0x80 != 0
		var ci byte
		if c.reg.F&flagC != 0 {
			ci = 1
		}
		result = v<<1 | ci
	case decoder.RotRR:
		carryOut = v&0x01 != 0
		var ci byte
		if c.reg.F&flagC != 0 {
			ci = 0x80
		}
		result = v>>1 | ci
	case decoder.RotSLA:
		carryOut = v&0x80 != 0
		result = v << 1
	case decoder.RotSRA:
		carryOut = v&0x01 != 0
		result = v>>1 | v&0x80
	case decoder.RotSLL:
		carryOut = v&0x80 != 0
		result = v<<1 | 1
	case decoder.RotSRL:
		carryOut = v&0x01 != 0
		result = v >> 1
	}
	f := szFlags(result) | xy(result)
	if parityTable[result] {
		f |= flagPV
	}
	if carryOut {
		f |= flagC
	}
	c.reg.F = f
	return result
}

// rld rotates a 12-bit quantity spanning A's low nibble and (HL): (HL)'s
// high nibble moves into A's low nibble, (HL)'s low nibble moves into
// (HL)'s high nibble, and A's old low nibble moves into (HL)'s low
// nibble. A's high nibble is untouched.
func (c *CPU) rld() {
	addr := c.reg.hl()
	m := c.memoryRead(addr)
	a := c.reg.A
	newA := (a & 0xf0) | (m >> 4)
	newM := (m&0x0f)<<4 | (a & 0x0f)
	c.y(4)
	c.memoryWrite(addr, newM)
	c.reg.A = newA
	c.setRldRrdFlags()
}

// rrd is RLD's mirror image: rotates the same 12-bit quantity the other
// way.
func (c *CPU) rrd() {
	addr := c.reg.hl()
	m := c.memoryRead(addr)
	a := c.reg.A
	newA := (a & 0xf0) | (m & 0x0f)
	newM := (a&0x0f)<<4 | (m >> 4)
	c.y(4)
	c.memoryWrite(addr, newM)
	c.reg.A = newA
	c.setRldRrdFlags()
}

func (c *CPU) setRldRrdFlags() {
	a := c.reg.A
	f := szFlags(a) | xy(a) | (c.reg.F & flagC)
	if parityTable[a] {
		f |= flagPV
	}
	c.reg.F = f
}
