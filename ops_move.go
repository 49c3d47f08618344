package z80

import "github.com/user-none/go-chip-z80/decoder"

// execMove handles the LD family, EX family, and PUSH/POP.
func (c *CPU) execMove(instr *decoder.Instruction) {
	t := instr.Token
	switch t.Kind {
	case decoder.KindLdRegReg:
		v := c.readReg8(instr, t.Src)
		c.writeReg8(instr, t.Reg, v)

	case decoder.KindLdRegImm:
		c.writeReg8(instr, t.Reg, instr.Data.Byte)

	case decoder.KindLdRegPairImm:
		c.writeReg16(t.RP, instr.Data.Word)

	case decoder.KindLdRegPairMem:
		if t.ToMem {
			v := c.readReg16(t.RP)
			c.memoryWrite(instr.Data.Word, byte(v))
			c.memoryWrite(instr.Data.Word+1, byte(v>>8))
		} else {
			lo := c.memoryRead(instr.Data.Word)
			hi := c.memoryRead(instr.Data.Word + 1)
			c.writeReg16(t.RP, uint16(hi)<<8|uint16(lo))
		}

	case decoder.KindLdIndBC:
		if t.ToMem {
			c.memoryWrite(c.reg.bc(), c.reg.A)
		} else {
			c.reg.A = c.memoryRead(c.reg.bc())
		}

	case decoder.KindLdIndDE:
		if t.ToMem {
			c.memoryWrite(c.reg.de(), c.reg.A)
		} else {
			c.reg.A = c.memoryRead(c.reg.de())
		}

	case decoder.KindLdAbsA:
		if t.ToMem {
			c.memoryWrite(instr.Data.Word, c.reg.A)
		} else {
			c.reg.A = c.memoryRead(instr.Data.Word)
		}

	case decoder.KindLdSPHL:
		c.reg.SP = c.indexSrcOrHL(instr)
		c.y(2)

	case decoder.KindLdAIR:
		switch t.AIR {
		case decoder.AIRLdIA:
			c.reg.I = c.reg.A
		case decoder.AIRLdRA:
			c.reg.R = c.reg.A
		case decoder.AIRLdAI:
			c.reg.A = c.reg.I
			c.setIRFlags(c.reg.I)
		default:
			c.reg.A = c.reg.R
			c.setIRFlags(c.reg.R)
		}
		c.y(1)

	case decoder.KindPush:
		c.y(1)
		c.pushWord(c.readReg16(t.RP))

	case decoder.KindPop:
		c.writeReg16(t.RP, c.popWord())

	case decoder.KindExDEHL:
		c.reg.D, c.reg.H = c.reg.H, c.reg.D
		c.reg.E, c.reg.L = c.reg.L, c.reg.E

	case decoder.KindExAFAF:
		c.reg.A, c.reg.A2 = c.reg.A2, c.reg.A
		c.reg.F, c.reg.F2 = c.reg.F2, c.reg.F

	case decoder.KindExx:
		c.reg.B, c.reg.B2 = c.reg.B2, c.reg.B
		c.reg.C, c.reg.C2 = c.reg.C2, c.reg.C
		c.reg.D, c.reg.D2 = c.reg.D2, c.reg.D
		c.reg.E, c.reg.E2 = c.reg.E2, c.reg.E
		c.reg.H, c.reg.H2 = c.reg.H2, c.reg.H
		c.reg.L, c.reg.L2 = c.reg.L2, c.reg.L

	case decoder.KindExSPHL:
		v := c.indexSrcOrHL(instr)
		lo := c.memoryRead(c.reg.SP)
		hi := c.memoryRead(c.reg.SP + 1)
		c.memoryWrite(c.reg.SP, byte(v))
		c.memoryWrite(c.reg.SP+1, byte(v>>8))
		c.setIndexSrcOrHL(instr, uint16(hi)<<8|uint16(lo))
		c.y(2)
	}
}

// indexSrcOrHL reads HL, or the active index register under a DD/FD
// prefix, for the instructions whose (HL) slot is substitutable (LD
// SP,HL/IX/IY, EX (SP),HL/IX/IY, JP (HL)/(IX)/(IY)).
func (c *CPU) indexSrcOrHL(instr *decoder.Instruction) uint16 {
	switch {
	case instr.UsesIndexIX:
		return c.reg.IX
	case instr.UsesIndexIY:
		return c.reg.IY
	default:
		return c.reg.hl()
	}
}

func (c *CPU) setIndexSrcOrHL(instr *decoder.Instruction, v uint16) {
	switch {
	case instr.UsesIndexIX:
		c.reg.IX = v
	case instr.UsesIndexIY:
		c.reg.IY = v
	default:
		c.reg.setHL(v)
	}
}

// setIRFlags sets SZYHXN from v and PV from IFF2, per LD A,I / LD A,R.
func (c *CPU) setIRFlags(v byte) {
	f := szFlags(v) | xy(v) | (c.reg.F & flagC)
	if c.reg.IFF2 {
		f |= flagPV
	}
	c.reg.F = f
}
