package z80

import "github.com/user-none/go-chip-z80/decoder"

// execArith handles the 8-bit ALU group, INC/DEC, 16-bit arithmetic, and
// the single-byte accumulator/flag operations (DAA, CPL, NEG, CCF, SCF).
func (c *CPU) execArith(instr *decoder.Instruction) {
	t := instr.Token
	switch t.Kind {
	case decoder.KindAlu:
		var v byte
		if t.RegPresent {
			v = c.readReg8(instr, t.Reg)
		} else {
			v = instr.Data.Byte
		}
		c.alu(t.Alu, v)

	case decoder.KindInc8:
		c.rmw8(instr, t.Reg, func(v byte) byte {
			r := v + 1
			c.setFlagsIncDec(v, r, false)
			return r
		})

	case decoder.KindDec8:
		c.rmw8(instr, t.Reg, func(v byte) byte {
			r := v - 1
			c.setFlagsIncDec(v, r, true)
			return r
		})

	case decoder.KindInc16:
		c.writeReg16(t.RP, c.readReg16(t.RP)+1)
		c.y(2)

	case decoder.KindDec16:
		c.writeReg16(t.RP, c.readReg16(t.RP)-1)
		c.y(2)

	case decoder.KindAddHL:
		// Under an active DD/FD prefix, the decoder already substitutes
		// IX/IY for t.RP's HL slot, so src is read correctly either way.
		dst := c.indexSrcOrHL(instr)
		src := c.readReg16(t.RP)
		result := dst + src
		c.setFlagsAddHL(dst, src, result)
		c.setIndexSrcOrHL(instr, result)
		c.y(7)

	case decoder.KindAdcHL:
		dst := c.reg.hl()
		src := c.readReg16(t.RP)
		carry := byte(0)
		if c.reg.F&flagC != 0 {
			carry = 1
		}
		result := dst + src + uint16(carry)
		c.setFlagsAdc16(dst, src, carry, result)
		c.reg.setHL(result)
		c.y(7)

	case decoder.KindSbcHL:
		dst := c.reg.hl()
		src := c.readReg16(t.RP)
		borrow := byte(0)
		if c.reg.F&flagC != 0 {
			borrow = 1
		}
		result := dst - src - uint16(borrow)
		c.setFlagsSbc16(dst, src, borrow, result)
		c.reg.setHL(result)
		c.y(7)

	case decoder.KindDAA:
		c.daa()

	case decoder.KindCPL:
		c.reg.A = ^c.reg.A
		c.reg.F = (c.reg.F & (flagS | flagZ | flagPV | flagC)) | flagN | flagH | xy(c.reg.A)

	case decoder.KindNEG:
		a := c.reg.A
		c.reg.A = 0 - a
		c.setFlagsSub8(0, a, 0, c.reg.A)

	case decoder.KindCCF:
		oldC := c.reg.F & flagC
		f := (c.reg.F &^ (flagN | flagH | flagC | flagX | flagY)) | xy(c.reg.A)
		if oldC != 0 {
			f |= flagH
		} else {
			f |= flagC
		}
		c.reg.F = f

	case decoder.KindSCF:
		c.reg.F = (c.reg.F &^ (flagN | flagH)) | flagC | xy(c.reg.A)
	}
}

// alu performs one 8-bit ALU operation against A, storing the result back
// into A except for CP (compare only).
func (c *CPU) alu(op decoder.AluOp, v byte) {
	a := c.reg.A
	switch op {
	case decoder.AluADD:
		r := a + v
		c.setFlagsAdd8(a, v, 0, r)
		c.reg.A = r
	case decoder.AluADC:
		carry := byte(0)
		if c.reg.F&flagC != 0 {
			carry = 1
		}
		r := a + v + carry
		c.setFlagsAdd8(a, v, carry, r)
		c.reg.A = r
	case decoder.AluSUB:
		r := a - v
		c.setFlagsSub8(a, v, 0, r)
		c.reg.A = r
	case decoder.AluSBC:
		borrow := byte(0)
		if c.reg.F&flagC != 0 {
			borrow = 1
		}
		r := a - v - borrow
		c.setFlagsSub8(a, v, borrow, r)
		c.reg.A = r
	case decoder.AluAND:
		r := a & v
		c.reg.A = r
		c.setFlagsLogical(r, true)
	case decoder.AluXOR:
		r := a ^ v
		c.reg.A = r
		c.setFlagsLogical(r, false)
	case decoder.AluOR:
		r := a | v
		c.reg.A = r
		c.setFlagsLogical(r, false)
	case decoder.AluCP:
		r := a - v
		c.setFlagsCp8(a, v, r)
	}
}

// daa adjusts A after a BCD add/subtract, following the classic
// N/C/H-driven correction table.
func (c *CPU) daa() {
	a := c.reg.A
	sub := c.reg.F&flagN != 0
	halfCarry := c.reg.F&flagH != 0
	carry := c.reg.F&flagC != 0

	var corr byte
	if halfCarry || (!sub && a&0x0f > 9) {
		corr |= 0x06
	}
	if carry || (!sub && a > 0x99) {
		corr |= 0x60
		carry = true
	}

	var result byte
	var newH bool
	if sub {
		result = a - corr
		newH = halfCarry && a&0x0f < 6
	} else {
		result = a + corr
		newH = a&0x0f > 9
	}

	f := szFlags(result) | xy(result)
	if parityTable[result] {
		f |= flagPV
	}
	if carry {
		f |= flagC
	}
	if sub {
		f |= flagN
	}
	if newH {
		f |= flagH
	}

	c.reg.A = result
	c.reg.F = f
}
