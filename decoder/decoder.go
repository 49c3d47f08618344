package decoder

// NeedKind describes what kind of byte Feed expects next, so a caller that
// drives a real bus knows whether to run an opcode-fetch (M1) cycle or a
// plain memory-read cycle for the next byte.
type NeedKind int

const (
	NeedOpcode NeedKind = iota
	NeedDisplacement
	NeedData
)

type indexPrefix int

const (
	indexNone indexPrefix = iota
	indexIX
	indexIY
)

type phase int

const (
	phaseOpcode phase = iota
	phaseCbOpcode
	phaseEdOpcode
	phaseIndexedDisp // DDCB/FDCB: displacement first, then the cb-style opcode
	phaseIndexedOp
	phaseMainDisp    // plain DD/FD path: displacement after an opcode that uses slot 6
	phaseDataByte
	phaseDataWordLo
	phaseDataWordHi
	phaseDispThenByte // LD (IX+d),n: displacement consumed, one data byte still due
)

// Decoder is a pure byte-stream state machine: Feed each incoming byte and,
// once a full instruction has been recognised, it returns the decoded
// Instruction. It never blocks and never rejects a byte - every Z80 byte
// sequence decodes to something, including the undocumented opcodes and
// the unused ED subspace (which decodes to NOP).
type Decoder struct {
	ph     phase
	prefix indexPrefix
	bytes  int

	mainOpcode byte
	needsDisp  bool // main-table opcode touches slot 6 under an active index prefix

	disp    int8
	dataLo  byte

	// deferred builder state captured while still waiting on disp/data
	pendingTok      Token
	pendingDataByte bool
}

// NextNeed reports what Feed expects the next byte to be. This also tells
// a bus-driving caller which kind of fetch cycle to run: true opcode
// fetches (M1, with refresh) happen for a prefix byte, the byte following
// a DD/FD prefix, and the byte immediately following a bare CB/ED prefix.
// The trailing opcode byte of a
// DDCB/FDCB sequence is fetched with a plain memory read on real
// hardware, not M1 - it is reported as NeedData here for that reason.
func (d *Decoder) NextNeed() NeedKind {
	switch d.ph {
	case phaseOpcode, phaseCbOpcode, phaseEdOpcode:
		return NeedOpcode
	case phaseIndexedDisp, phaseMainDisp:
		return NeedDisplacement
	default:
		return NeedData
	}
}

func (d *Decoder) reset() {
	*d = Decoder{}
}

// Feed consumes one byte. It returns a non-nil Instruction exactly when
// that byte completes one; the Decoder is then ready, with reset internal
// state, to decode the next instruction.
func (d *Decoder) Feed(b byte) *Instruction {
	d.bytes++

	switch d.ph {
	case phaseOpcode:
		return d.feedOpcode(b)
	case phaseCbOpcode:
		return d.finishCb(b, false, 0)
	case phaseEdOpcode:
		return d.feedEd(b)
	case phaseIndexedDisp:
		d.disp = int8(b)
		d.ph = phaseIndexedOp
		return nil
	case phaseIndexedOp:
		return d.finishCb(b, true, d.disp)
	case phaseMainDisp:
		d.disp = int8(b)
		if d.pendingDataByte {
			d.ph = phaseDispThenByte
			return nil
		}
		return d.finishMain(true, d.disp)
	case phaseDispThenByte:
		d.dataLo = b
		return d.finishMainWithByte(true, d.disp, b)
	case phaseDataByte:
		return d.finishMainWithByte(d.needsDisp, d.disp, b)
	case phaseDataWordLo:
		d.dataLo = b
		d.ph = phaseDataWordHi
		return nil
	case phaseDataWordHi:
		word := uint16(d.dataLo) | uint16(b)<<8
		return d.finishMainWithWord(word)
	}
	panic("decoder: unreachable phase")
}

func (d *Decoder) feedOpcode(b byte) *Instruction {
	switch b {
	case 0xDD:
		d.prefix = indexIX
		return nil
	case 0xFD:
		d.prefix = indexIY
		return nil
	case 0xED:
		d.prefix = indexNone // DD/FD followed by ED: earlier prefix is discarded
		d.ph = phaseEdOpcode
		return nil
	case 0xCB:
		if d.prefix != indexNone {
			d.ph = phaseIndexedDisp
		} else {
			d.ph = phaseCbOpcode
		}
		return nil
	default:
		return d.decodeMain(b)
	}
}

// --- unprefixed / DD / FD main table (x/y/z/p/q scheme) ---

func (d *Decoder) decodeMain(op byte) *Instruction {
	x := (op >> 6) & 3
	y := (op >> 3) & 7
	z := op & 7
	p := y >> 1
	q := y & 1

	tok, needDisp, dataKind := classifyMain(x, y, z, p, q, d.prefix)
	d.pendingTok = tok

	if needDisp {
		d.needsDisp = true
		d.ph = phaseMainDisp
		d.pendingDataByte = dataKind == needByte // only LD (IX+d),n pairs a displacement with data
		return nil
	}

	switch dataKind {
	case needByte:
		d.ph = phaseDataByte
		return nil
	case needWord:
		d.ph = phaseDataWordLo
		return nil
	case needRelDisp:
		d.ph = phaseMainDisp // reuse: single signed byte, stored as Disp not Data
		d.needsDisp = false
		return nil
	default:
		return d.finishMain(false, 0)
	}
}

type dataKind int

const (
	needNone dataKind = iota
	needByte
	needWord
	needRelDisp
)

var ccTable = [8]Cond{CondNZ, CondZ, CondNC, CondC, CondPO, CondPE, CondP, CondM}
var aluTable = [8]AluOp{AluADD, AluADC, AluSUB, AluSBC, AluAND, AluXOR, AluOR, AluCP}
var rotTable = [8]RotOp{RotRLC, RotRRC, RotRL, RotRR, RotSLA, RotSRA, RotSLL, RotSRL}

// r8 maps an r[8]-table slot to a Reg8, applying the active index prefix's
// H/L/(HL) rewrite. indirect reports whether this slot is the indirect-memory
// slot (6), which is the only case requiring a displacement fetch.
func r8(slot byte, prefix indexPrefix) (reg Reg8, indirect bool) {
	switch slot {
	case 0:
		return RegB, false
	case 1:
		return RegC, false
	case 2:
		return RegD, false
	case 3:
		return RegE, false
	case 4:
		if prefix == indexIX {
			return RegIXH, false
		} else if prefix == indexIY {
			return RegIYH, false
		}
		return RegH, false
	case 5:
		if prefix == indexIX {
			return RegIXL, false
		} else if prefix == indexIY {
			return RegIYL, false
		}
		return RegL, false
	case 6:
		return RegHLInd, true
	case 7:
		return RegA, false
	}
	panic("decoder: bad r8 slot")
}

// rp maps the rp[4] table (BC,DE,HL,SP), substituting IX/IY for the HL slot.
func rp(p byte, prefix indexPrefix) Reg16 {
	switch p {
	case 0:
		return RegBC
	case 1:
		return RegDE
	case 2:
		switch prefix {
		case indexIX:
			return RegIX
		case indexIY:
			return RegIY
		default:
			return RegHL
		}
	case 3:
		return RegSP
	}
	panic("decoder: bad rp slot")
}

// rp2 maps the rp2[4] table (BC,DE,HL,AF), used by PUSH/POP, substituting
// IX/IY for the HL slot.
func rp2(p byte, prefix indexPrefix) Reg16 {
	switch p {
	case 0:
		return RegBC
	case 1:
		return RegDE
	case 2:
		switch prefix {
		case indexIX:
			return RegIX
		case indexIY:
			return RegIY
		default:
			return RegHL
		}
	case 3:
		return RegAF
	}
	panic("decoder: bad rp2 slot")
}

func classifyMain(x, y, z, p, q byte, prefix indexPrefix) (Token, bool, dataKind) {
	switch x {
	case 0:
		switch z {
		case 0:
			switch y {
			case 0:
				return Token{Kind: KindNOP}, false, needNone
			case 1:
				return Token{Kind: KindExAFAF}, false, needNone
			case 2:
				return Token{Kind: KindDJNZ}, false, needRelDisp
			case 3:
				return Token{Kind: KindJR}, false, needRelDisp
			default:
				return Token{Kind: KindJR, Cond: ccTable[y-4], HasCond: true}, false, needRelDisp
			}
		case 1:
			if q == 0 {
				return Token{Kind: KindLdRegPairImm, RP: rp(p, prefix)}, false, needWord
			}
			return Token{Kind: KindAddHL, RP: rp(p, prefix)}, false, needNone
		case 2:
			switch {
			case q == 0 && p == 0:
				return Token{Kind: KindLdIndBC, ToMem: true}, false, needNone
			case q == 0 && p == 1:
				return Token{Kind: KindLdIndDE, ToMem: true}, false, needNone
			case q == 0 && p == 2:
				return Token{Kind: KindLdRegPairMem, RP: rp(p, prefix), ToMem: true}, false, needWord
			case q == 0 && p == 3:
				return Token{Kind: KindLdAbsA, ToMem: true}, false, needWord
			case q == 1 && p == 0:
				return Token{Kind: KindLdIndBC}, false, needNone
			case q == 1 && p == 1:
				return Token{Kind: KindLdIndDE}, false, needNone
			case q == 1 && p == 2:
				return Token{Kind: KindLdRegPairMem, RP: rp(p, prefix)}, false, needWord
			default:
				return Token{Kind: KindLdAbsA}, false, needWord
			}
		case 3:
			if q == 0 {
				return Token{Kind: KindInc16, RP: rp(p, prefix)}, false, needNone
			}
			return Token{Kind: KindDec16, RP: rp(p, prefix)}, false, needNone
		case 4:
			reg, ind := r8(y, prefix)
			return Token{Kind: KindInc8, Reg: reg}, ind && prefix != indexNone, needNone
		case 5:
			reg, ind := r8(y, prefix)
			return Token{Kind: KindDec8, Reg: reg}, ind && prefix != indexNone, needNone
		case 6:
			reg, ind := r8(y, prefix)
			return Token{Kind: KindLdRegImm, Reg: reg}, ind && prefix != indexNone, needByte
		default: // z==7
			kinds := []Kind{KindRotAcc, KindRotAcc, KindRotAcc, KindRotAcc, KindDAA, KindCPL, KindSCF, KindCCF}
			rots := []RotOp{RotRLC, RotRRC, RotRL, RotRR}
			tok := Token{Kind: kinds[y]}
			if y < 4 {
				tok.Rot = rots[y]
			}
			return tok, false, needNone
		}

	case 1:
		if z == 6 && y == 6 {
			return Token{Kind: KindHALT}, false, needNone
		}
		dst, dstInd := r8(y, prefix)
		src, srcInd := r8(z, prefix)
		return Token{Kind: KindLdRegReg, Reg: dst, Src: src}, (dstInd || srcInd) && prefix != indexNone, needNone

	case 2:
		reg, ind := r8(z, prefix)
		return Token{Kind: KindAlu, Alu: aluTable[y], Reg: reg, RegPresent: true}, ind && prefix != indexNone, needNone

	default: // x==3
		switch z {
		case 0:
			return Token{Kind: KindRet, Cond: ccTable[y], HasCond: true}, false, needNone
		case 1:
			if q == 0 {
				return Token{Kind: KindPop, RP: rp2(p, prefix)}, false, needNone
			}
			switch p {
			case 0:
				return Token{Kind: KindRet}, false, needNone
			case 1:
				return Token{Kind: KindExx}, false, needNone
			case 2:
				return Token{Kind: KindJPHL}, false, needNone
			default:
				return Token{Kind: KindLdSPHL}, false, needNone
			}
		case 2:
			return Token{Kind: KindJP, Cond: ccTable[y], HasCond: true}, false, needWord
		case 3:
			switch y {
			case 0:
				return Token{Kind: KindJP}, false, needWord
			case 2:
				return Token{Kind: KindOutNAImm}, false, needByte
			case 3:
				return Token{Kind: KindInANImm}, false, needByte
			case 4:
				return Token{Kind: KindExSPHL}, false, needNone
			case 5:
				return Token{Kind: KindExDEHL}, false, needNone
			case 6:
				return Token{Kind: KindDI}, false, needNone
			default:
				return Token{Kind: KindEI}, false, needNone
			}
		case 4:
			return Token{Kind: KindCall, Cond: ccTable[y], HasCond: true}, false, needWord
		case 5:
			if q == 0 {
				return Token{Kind: KindPush, RP: rp2(p, prefix)}, false, needNone
			}
			return Token{Kind: KindCall}, false, needWord
		case 6:
			return Token{Kind: KindAlu, Alu: aluTable[y]}, false, needByte
		default: // z==7
			return Token{Kind: KindRST, RST: y * 8}, false, needNone
		}
	}
}

func (d *Decoder) finishMain(hasDisp bool, disp int8) *Instruction {
	tok := d.pendingTok
	if tok.Kind == KindJR || tok.Kind == KindDJNZ {
		instr := &Instruction{Token: tok, HasDisp: true, Disp: disp, Bytes: d.bytes, UsesIndexIX: d.prefix == indexIX, UsesIndexIY: d.prefix == indexIY}
		d.reset()
		return instr
	}
	instr := &Instruction{Token: tok, HasDisp: hasDisp, Disp: disp, Bytes: d.bytes, UsesIndexIX: d.prefix == indexIX, UsesIndexIY: d.prefix == indexIY}
	d.reset()
	return instr
}

func (d *Decoder) finishMainWithByte(hasDisp bool, disp int8, b byte) *Instruction {
	tok := d.pendingTok
	instr := &Instruction{
		Token:       tok,
		HasDisp:     hasDisp,
		Disp:        disp,
		Data:        Data{HasByte: true, Byte: b},
		Bytes:       d.bytes,
		UsesIndexIX: d.prefix == indexIX,
		UsesIndexIY: d.prefix == indexIY,
	}
	d.reset()
	return instr
}

func (d *Decoder) finishMainWithWord(word uint16) *Instruction {
	tok := d.pendingTok
	instr := &Instruction{
		Token:       tok,
		Data:        Data{HasWord: true, Word: word},
		Bytes:       d.bytes,
		UsesIndexIX: d.prefix == indexIX,
		UsesIndexIY: d.prefix == indexIY,
	}
	d.reset()
	return instr
}

// --- CB / DDCB / FDCB tables ---

// finishCb decodes a CB-style opcode byte (rotate/BIT/RES/SET) uniformly
// for the plain-CB and DDCB/FDCB forms. indexed selects the latter; disp
// is only meaningful when indexed is true.
func (d *Decoder) finishCb(op byte, indexed bool, disp int8) *Instruction {
	x := (op >> 6) & 3
	y := (op >> 3) & 7
	z := op & 7

	var reg Reg8
	var copyReg Reg8
	hasCopy := false

	if indexed {
		reg = RegHLInd
		if z != 6 {
			copyReg, _ = r8(z, indexNone)
			hasCopy = true
		}
	} else {
		reg, _ = r8(z, indexNone)
	}

	var tok Token
	switch x {
	case 0:
		tok = Token{Kind: KindRot, Rot: rotTable[y], Reg: reg, CopyReg: copyReg, HasCopy: hasCopy}
	case 1:
		tok = Token{Kind: KindBit, Bit: y, Reg: reg}
	case 2:
		tok = Token{Kind: KindRes, Bit: y, Reg: reg, CopyReg: copyReg, HasCopy: hasCopy}
	default:
		tok = Token{Kind: KindSet, Bit: y, Reg: reg, CopyReg: copyReg, HasCopy: hasCopy}
	}

	instr := &Instruction{
		Token:       tok,
		HasDisp:     indexed,
		Disp:        disp,
		Bytes:       d.bytes,
		UsesIndexIX: d.prefix == indexIX,
		UsesIndexIY: d.prefix == indexIY,
	}
	d.reset()
	return instr
}

// --- ED table ---

var blockTable = [4][4]BlockOp{
	{BlockLDI, BlockCPI, BlockINI, BlockOUTI},
	{BlockLDD, BlockCPD, BlockIND, BlockOUTD},
	{BlockLDIR, BlockCPIR, BlockINIR, BlockOTIR},
	{BlockLDDR, BlockCPDR, BlockINDR, BlockOTDR},
}

var imTable = [8]uint8{0, 0, 1, 2, 0, 0, 1, 2}

func (d *Decoder) feedEd(op byte) *Instruction {
	x := (op >> 6) & 3
	y := (op >> 3) & 7
	z := op & 7
	p := y >> 1
	q := y & 1

	switch x {
	case 1:
		switch z {
		case 0:
			if y == 6 {
				return d.finishEdSimple(Token{Kind: KindInRC, RegPresent: false})
			}
			reg, _ := r8(y, indexNone)
			return d.finishEdSimple(Token{Kind: KindInRC, Reg: reg, RegPresent: true})
		case 1:
			if y == 6 {
				return d.finishEdSimple(Token{Kind: KindOutCR, RegPresent: false})
			}
			reg, _ := r8(y, indexNone)
			return d.finishEdSimple(Token{Kind: KindOutCR, Reg: reg, RegPresent: true})
		case 2:
			if q == 0 {
				return d.finishEdSimple(Token{Kind: KindSbcHL, RP: rp(p, indexNone)})
			}
			return d.finishEdSimple(Token{Kind: KindAdcHL, RP: rp(p, indexNone)})
		case 3:
			d.pendingTok = Token{Kind: KindLdRegPairMem, RP: rp(p, indexNone), ToMem: q == 0}
			d.ph = phaseDataWordLo
			return nil
		case 4:
			return d.finishEdSimple(Token{Kind: KindNEG})
		case 5:
			if y == 1 {
				return d.finishEdSimple(Token{Kind: KindRETI})
			}
			return d.finishEdSimple(Token{Kind: KindRETN})
		case 6:
			return d.finishEdSimple(Token{Kind: KindIM, IMMode: imTable[y]})
		default: // z==7
			switch y {
			case 0:
				return d.finishEdSimple(Token{Kind: KindLdAIR, AIR: AIRLdIA})
			case 1:
				return d.finishEdSimple(Token{Kind: KindLdAIR, AIR: AIRLdRA})
			case 2:
				return d.finishEdSimple(Token{Kind: KindLdAIR, AIR: AIRLdAI})
			case 3:
				return d.finishEdSimple(Token{Kind: KindLdAIR, AIR: AIRLdAR})
			case 4:
				return d.finishEdSimple(Token{Kind: KindRRD})
			case 5:
				return d.finishEdSimple(Token{Kind: KindRLD})
			default:
				return d.finishEdSimple(Token{Kind: KindNOP})
			}
		}
	case 2:
		if y >= 4 && z <= 3 {
			return d.finishEdSimple(Token{Kind: KindBlock, Block: blockTable[y-4][z]})
		}
		return d.finishEdSimple(Token{Kind: KindNOP})
	default:
		return d.finishEdSimple(Token{Kind: KindNOP})
	}
}

func (d *Decoder) finishEdSimple(tok Token) *Instruction {
	instr := &Instruction{Token: tok, Bytes: d.bytes}
	d.reset()
	return instr
}
