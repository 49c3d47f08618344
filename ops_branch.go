package z80

import "github.com/user-none/go-chip-z80/decoder"

// execBranch handles JP/JR/DJNZ/CALL/RET/RETI/RETN/RST and HALT.
func (c *CPU) execBranch(instr *decoder.Instruction) {
	t := instr.Token
	switch t.Kind {
	case decoder.KindJP:
		if !t.HasCond || c.testCondition(int(t.Cond)) {
			c.reg.PC = instr.Data.Word
		}

	case decoder.KindJPHL:
		c.reg.PC = c.indexSrcOrHL(instr)

	case decoder.KindJR:
		taken := !t.HasCond || c.testCondition(int(t.Cond))
		if taken {
			c.reg.PC = uint16(int32(c.reg.PC) + int32(instr.Disp))
			c.y(5)
		}

	case decoder.KindDJNZ:
		c.reg.B--
		if c.reg.B != 0 {
			c.reg.PC = uint16(int32(c.reg.PC) + int32(instr.Disp))
			c.y(5)
		}

	case decoder.KindCall:
		taken := !t.HasCond || c.testCondition(int(t.Cond))
		if taken {
			c.y(1)
			c.pushWord(c.reg.PC)
			c.reg.PC = instr.Data.Word
		}

	case decoder.KindRet:
		if !t.HasCond {
			c.reg.PC = c.popWord()
			return
		}
		c.y(1)
		if c.testCondition(int(t.Cond)) {
			c.reg.PC = c.popWord()
		}

	case decoder.KindRETI, decoder.KindRETN:
		c.reg.IFF1 = c.reg.IFF2
		c.reg.PC = c.popWord()

	case decoder.KindRST:
		c.y(1)
		c.pushWord(c.reg.PC)
		c.reg.PC = uint16(t.RST)

	case decoder.KindHALT:
		c.reg.Halted = true
		c.reg.PC--
	}
}
