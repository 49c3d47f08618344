package z80

import "github.com/user-none/go-chip-z80/decoder"

// execute dispatches a decoded instruction to its handler. Every handler
// is responsible for yielding whatever extra T-states its timing table
// entry calls for beyond the bytes already fetched.
func (c *CPU) execute(instr *decoder.Instruction) {
	t := instr.Token
	switch t.Kind {
	case decoder.KindNOP:
		// nothing to do

	case decoder.KindLdRegReg, decoder.KindLdRegImm, decoder.KindLdRegPairImm,
		decoder.KindLdRegPairMem, decoder.KindLdIndBC, decoder.KindLdIndDE,
		decoder.KindLdAbsA, decoder.KindLdSPHL, decoder.KindLdAIR,
		decoder.KindPush, decoder.KindPop, decoder.KindExDEHL, decoder.KindExAFAF,
		decoder.KindExx, decoder.KindExSPHL:
		c.execMove(instr)

	case decoder.KindAlu, decoder.KindInc8, decoder.KindDec8, decoder.KindInc16,
		decoder.KindDec16, decoder.KindAddHL, decoder.KindAdcHL, decoder.KindSbcHL,
		decoder.KindDAA, decoder.KindCPL, decoder.KindNEG, decoder.KindCCF, decoder.KindSCF:
		c.execArith(instr)

	case decoder.KindRotAcc, decoder.KindRot, decoder.KindBit, decoder.KindRes,
		decoder.KindSet, decoder.KindRLD, decoder.KindRRD:
		c.execBit(instr)

	case decoder.KindJP, decoder.KindJPHL, decoder.KindJR, decoder.KindDJNZ,
		decoder.KindCall, decoder.KindRet, decoder.KindRETI, decoder.KindRETN,
		decoder.KindRST, decoder.KindHALT:
		c.execBranch(instr)

	case decoder.KindDI, decoder.KindEI, decoder.KindIM, decoder.KindInANImm,
		decoder.KindOutNAImm, decoder.KindInRC, decoder.KindOutCR, decoder.KindBlock:
		c.execCtrl(instr)

	default:
		panic("z80: unhandled token kind")
	}
}
