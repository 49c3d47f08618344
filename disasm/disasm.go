// Package disasm renders decoder.Instruction values as text and tracks the
// running address of a byte stream being disassembled.
package disasm

import (
	"fmt"

	"github.com/user-none/go-chip-z80/decoder"
)

var reg8Names = map[decoder.Reg8]string{
	decoder.RegB: "B", decoder.RegC: "C", decoder.RegD: "D", decoder.RegE: "E",
	decoder.RegH: "H", decoder.RegL: "L", decoder.RegA: "A",
	decoder.RegIXH: "IXH", decoder.RegIXL: "IXL",
	decoder.RegIYH: "IYH", decoder.RegIYL: "IYL",
}

var reg16Names = map[decoder.Reg16]string{
	decoder.RegBC: "BC", decoder.RegDE: "DE", decoder.RegHL: "HL", decoder.RegSP: "SP",
	decoder.RegAF: "AF", decoder.RegIX: "IX", decoder.RegIY: "IY",
}

var condNames = map[decoder.Cond]string{
	decoder.CondNZ: "NZ", decoder.CondZ: "Z", decoder.CondNC: "NC", decoder.CondC: "C",
	decoder.CondPO: "PO", decoder.CondPE: "PE", decoder.CondP: "P", decoder.CondM: "M",
}

var aluNames = map[decoder.AluOp]string{
	decoder.AluADD: "ADD", decoder.AluADC: "ADC", decoder.AluSUB: "SUB", decoder.AluSBC: "SBC",
	decoder.AluAND: "AND", decoder.AluXOR: "XOR", decoder.AluOR: "OR", decoder.AluCP: "CP",
}

var rotNames = map[decoder.RotOp]string{
	decoder.RotRLC: "RLC", decoder.RotRRC: "RRC", decoder.RotRL: "RL", decoder.RotRR: "RR",
	decoder.RotSLA: "SLA", decoder.RotSRA: "SRA", decoder.RotSLL: "SLL", decoder.RotSRL: "SRL",
}

var blockNames = map[decoder.BlockOp]string{
	decoder.BlockLDI: "LDI", decoder.BlockLDD: "LDD", decoder.BlockLDIR: "LDIR", decoder.BlockLDDR: "LDDR",
	decoder.BlockCPI: "CPI", decoder.BlockCPD: "CPD", decoder.BlockCPIR: "CPIR", decoder.BlockCPDR: "CPDR",
	decoder.BlockINI: "INI", decoder.BlockIND: "IND", decoder.BlockINIR: "INIR", decoder.BlockINDR: "INDR",
	decoder.BlockOUTI: "OUTI", decoder.BlockOUTD: "OUTD", decoder.BlockOTIR: "OTIR", decoder.BlockOTDR: "OTDR",
}

func hex8(b uint8) string  { return fmt.Sprintf("%02Xh", b) }
func hex16(w uint16) string { return fmt.Sprintf("%04Xh", w) }

// indexName returns "IX" or "IY" for an instruction decoded under the
// corresponding prefix, or "" if neither is active.
func indexName(instr *decoder.Instruction) string {
	switch {
	case instr.UsesIndexIX:
		return "IX"
	case instr.UsesIndexIY:
		return "IY"
	default:
		return ""
	}
}

// operand renders an 8-bit operand, substituting "(IX+d)"/"(IY+d)" for
// RegHLInd when the instruction carries a displacement.
func operand(instr *decoder.Instruction, r decoder.Reg8) string {
	if r == decoder.RegHLInd {
		idx := indexName(instr)
		if idx == "" {
			return "(HL)"
		}
		return fmt.Sprintf("(%s%s)", idx, dispSuffix(instr.Disp))
	}
	return reg8Names[r]
}

func dispSuffix(d int8) string {
	if d >= 0 {
		return fmt.Sprintf("+%02Xh", uint8(d))
	}
	return fmt.Sprintf("-%02Xh", uint8(-int16(d)))
}

func regPair(instr *decoder.Instruction, rp decoder.Reg16) string {
	return reg16Names[rp]
}

// Format renders a single decoded instruction as canonical text: upper
// case mnemonics, "h"-suffixed hex, parenthesised indirection.
func Format(instr *decoder.Instruction) string {
	t := instr.Token
	switch t.Kind {
	case decoder.KindNOP:
		return "NOP"
	case decoder.KindLdRegReg:
		return fmt.Sprintf("LD %s,%s", operand(instr, t.Reg), operand(instr, t.Src))
	case decoder.KindLdRegImm:
		return fmt.Sprintf("LD %s,%s", operand(instr, t.Reg), hex8(instr.Data.Byte))
	case decoder.KindLdRegPairImm:
		return fmt.Sprintf("LD %s,%s", regPair(instr, t.RP), hex16(instr.Data.Word))
	case decoder.KindLdRegPairMem:
		if t.ToMem {
			return fmt.Sprintf("LD (%s),%s", hex16(instr.Data.Word), regPair(instr, t.RP))
		}
		return fmt.Sprintf("LD %s,(%s)", regPair(instr, t.RP), hex16(instr.Data.Word))
	case decoder.KindLdIndBC:
		if t.ToMem {
			return "LD (BC),A"
		}
		return "LD A,(BC)"
	case decoder.KindLdIndDE:
		if t.ToMem {
			return "LD (DE),A"
		}
		return "LD A,(DE)"
	case decoder.KindLdAbsA:
		if t.ToMem {
			return fmt.Sprintf("LD (%s),A", hex16(instr.Data.Word))
		}
		return fmt.Sprintf("LD A,(%s)", hex16(instr.Data.Word))
	case decoder.KindLdSPHL:
		idx := indexName(instr)
		if idx == "" {
			return "LD SP,HL"
		}
		return fmt.Sprintf("LD SP,%s", idx)
	case decoder.KindLdAIR:
		switch t.AIR {
		case decoder.AIRLdIA:
			return "LD I,A"
		case decoder.AIRLdRA:
			return "LD R,A"
		case decoder.AIRLdAI:
			return "LD A,I"
		default:
			return "LD A,R"
		}
	case decoder.KindAlu:
		name := aluNames[t.Alu]
		if t.RegPresent {
			return fmt.Sprintf("%s A,%s", name, operand(instr, t.Reg))
		}
		return fmt.Sprintf("%s A,%s", name, hex8(instr.Data.Byte))
	case decoder.KindInc8:
		return fmt.Sprintf("INC %s", operand(instr, t.Reg))
	case decoder.KindDec8:
		return fmt.Sprintf("DEC %s", operand(instr, t.Reg))
	case decoder.KindInc16:
		return fmt.Sprintf("INC %s", regPair(instr, t.RP))
	case decoder.KindDec16:
		return fmt.Sprintf("DEC %s", regPair(instr, t.RP))
	case decoder.KindAddHL:
		idx := indexName(instr)
		dst := "HL"
		if idx != "" {
			dst = idx
		}
		return fmt.Sprintf("ADD %s,%s", dst, regPair(instr, t.RP))
	case decoder.KindAdcHL:
		return fmt.Sprintf("ADC HL,%s", regPair(instr, t.RP))
	case decoder.KindSbcHL:
		return fmt.Sprintf("SBC HL,%s", regPair(instr, t.RP))
	case decoder.KindExDEHL:
		return "EX DE,HL"
	case decoder.KindExAFAF:
		return "EX AF,AF'"
	case decoder.KindExx:
		return "EXX"
	case decoder.KindExSPHL:
		idx := indexName(instr)
		if idx == "" {
			return "EX (SP),HL"
		}
		return fmt.Sprintf("EX (SP),%s", idx)
	case decoder.KindDAA:
		return "DAA"
	case decoder.KindCPL:
		return "CPL"
	case decoder.KindNEG:
		return "NEG"
	case decoder.KindCCF:
		return "CCF"
	case decoder.KindSCF:
		return "SCF"
	case decoder.KindHALT:
		return "HALT"
	case decoder.KindDI:
		return "DI"
	case decoder.KindEI:
		return "EI"
	case decoder.KindIM:
		return fmt.Sprintf("IM %d", t.IMMode)
	case decoder.KindRotAcc:
		return rotNames[t.Rot] + "A"
	case decoder.KindRot:
		s := fmt.Sprintf("%s %s", rotNames[t.Rot], operand(instr, t.Reg))
		if t.HasCopy {
			s += "," + reg8Names[t.CopyReg]
		}
		return s
	case decoder.KindBit:
		return fmt.Sprintf("BIT %d,%s", t.Bit, operand(instr, t.Reg))
	case decoder.KindRes:
		s := fmt.Sprintf("RES %d,%s", t.Bit, operand(instr, t.Reg))
		if t.HasCopy {
			s += "," + reg8Names[t.CopyReg]
		}
		return s
	case decoder.KindSet:
		s := fmt.Sprintf("SET %d,%s", t.Bit, operand(instr, t.Reg))
		if t.HasCopy {
			s += "," + reg8Names[t.CopyReg]
		}
		return s
	case decoder.KindJP:
		if !t.HasCond {
			return fmt.Sprintf("JP %s", hex16(instr.Data.Word))
		}
		return fmt.Sprintf("JP %s,%s", condNames[t.Cond], hex16(instr.Data.Word))
	case decoder.KindJPHL:
		idx := indexName(instr)
		if idx == "" {
			return "JP (HL)"
		}
		return fmt.Sprintf("JP (%s)", idx)
	case decoder.KindJR:
		return fmt.Sprintf("JR %s", jrTarget(instr))
	case decoder.KindDJNZ:
		return fmt.Sprintf("DJNZ %s", dispSuffix(instr.Disp))
	case decoder.KindCall:
		if !t.HasCond {
			return fmt.Sprintf("CALL %s", hex16(instr.Data.Word))
		}
		return fmt.Sprintf("CALL %s,%s", condNames[t.Cond], hex16(instr.Data.Word))
	case decoder.KindRet:
		if !t.HasCond {
			return "RET"
		}
		return fmt.Sprintf("RET %s", condNames[t.Cond])
	case decoder.KindRETI:
		return "RETI"
	case decoder.KindRETN:
		return "RETN"
	case decoder.KindRST:
		return fmt.Sprintf("RST %s", hex8(t.RST))
	case decoder.KindPush:
		return fmt.Sprintf("PUSH %s", regPair(instr, t.RP))
	case decoder.KindPop:
		return fmt.Sprintf("POP %s", regPair(instr, t.RP))
	case decoder.KindInANImm:
		return fmt.Sprintf("IN A,(%s)", hex8(instr.Data.Byte))
	case decoder.KindOutNAImm:
		return fmt.Sprintf("OUT (%s),A", hex8(instr.Data.Byte))
	case decoder.KindInRC:
		if !t.RegPresent {
			return "IN (C)"
		}
		return fmt.Sprintf("IN %s,(C)", reg8Names[t.Reg])
	case decoder.KindOutCR:
		if !t.RegPresent {
			return "OUT (C),0"
		}
		return fmt.Sprintf("OUT (C),%s", reg8Names[t.Reg])
	case decoder.KindBlock:
		return blockNames[t.Block]
	case decoder.KindRLD:
		return "RLD"
	case decoder.KindRRD:
		return "RRD"
	default:
		return "???"
	}
}

func jrTarget(instr *decoder.Instruction) string {
	if instr.Token.HasCond {
		return fmt.Sprintf("%s,%s", condNames[instr.Token.Cond], dispSuffix(instr.Disp))
	}
	return dispSuffix(instr.Disp)
}
