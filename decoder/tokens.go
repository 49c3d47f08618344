// Package decoder turns a Z80 byte stream into structured Instruction
// records. It is pure: it never touches a bus, and it never blocks for
// longer than it takes to classify the bytes it has already been given.
package decoder

// Reg8 names an 8-bit operand slot, already resolved for any active DD/FD
// prefix: H/L become IXH/IXL/IYH/IYL and (HL) becomes (IX+d)/(IY+d) per
// the decoder's prefix-rewriting rules.
type Reg8 int

const (
	RegB Reg8 = iota
	RegC
	RegD
	RegE
	RegH
	RegL
	RegHLInd // (HL), or (IX+d)/(IY+d) under an active index prefix
	RegA
	RegIXH
	RegIXL
	RegIYH
	RegIYL
)

// Reg16 names a 16-bit register pair operand.
type Reg16 int

const (
	RegBC Reg16 = iota
	RegDE
	RegHL
	RegSP
	RegAF // PUSH AF / POP AF only
	RegIX
	RegIY
)

// Cond names one of the eight Z80 condition codes.
type Cond int

const (
	CondNZ Cond = iota
	CondZ
	CondNC
	CondC
	CondPO
	CondPE
	CondP
	CondM
)

// AluOp names one of the eight 8-bit ALU operations (the x=2 table, and
// ALU[y] A,n).
type AluOp int

const (
	AluADD AluOp = iota
	AluADC
	AluSUB
	AluSBC
	AluAND
	AluXOR
	AluOR
	AluCP
)

// RotOp names one of the eight CB-prefixed rotate/shift operations,
// including the undocumented SLL.
type RotOp int

const (
	RotRLC RotOp = iota
	RotRRC
	RotRL
	RotRR
	RotSLA
	RotSRA
	RotSLL // undocumented: inserts 1 into bit 0
	RotSRL
)

// AIRForm selects which of the four ED "LD A,I / LD A,R / LD I,A / LD R,A"
// variants a KindLdAIR token represents.
type AIRForm int

const (
	AIRLdIA AIRForm = iota // LD I,A
	AIRLdRA                // LD R,A
	AIRLdAI                // LD A,I
	AIRLdAR                // LD A,R
)

// BlockOp names one of the sixteen block transfer/search/IO group members.
type BlockOp int

const (
	BlockLDI BlockOp = iota
	BlockLDD
	BlockLDIR
	BlockLDDR
	BlockCPI
	BlockCPD
	BlockCPIR
	BlockCPDR
	BlockINI
	BlockIND
	BlockINIR
	BlockINDR
	BlockOUTI
	BlockOUTD
	BlockOTIR
	BlockOTDR
)

// Kind is the tag of the Token union. Every documented and undocumented
// Z80 mnemonic family has exactly one Kind; register/operand selection and
// immediate data live alongside it on Token and Instruction.
type Kind int

const (
	KindNOP Kind = iota
	KindLdRegReg        // LD r,r'  (dst, src)
	KindLdRegImm        // LD r,n   (dst; immediate in Instruction.Data)
	KindLdRegPairImm    // LD rr,nn (RP; immediate word in Instruction.Data)
	KindLdRegPairMem    // LD HL/dd,(nn) and LD (nn),HL/dd (RP, ToMem; address word in Data)
	KindLdIndBC         // LD A,(BC) / LD (BC),A
	KindLdIndDE         // LD A,(DE) / LD (DE),A
	KindLdAbsA          // LD A,(nn) / LD (nn),A  (address word in Data)
	KindLdSPHL          // LD SP,HL/IX/IY
	KindLdAIR           // LD A,I / LD A,R / LD I,A / LD R,A
	KindAlu             // ALU op on A; RegPresent true => register operand, else immediate in Data
	KindInc8
	KindDec8
	KindInc16
	KindDec16
	KindAddHL // ADD HL/IX/IY,rr
	KindAdcHL // ED ADC HL,rr
	KindSbcHL // ED SBC HL,rr
	KindExDEHL
	KindExAFAF
	KindExx
	KindExSPHL // EX (SP),HL/IX/IY
	KindDAA
	KindCPL
	KindNEG
	KindCCF
	KindSCF
	KindHALT
	KindDI
	KindEI
	KindIM // mode 0/1/2 in IMMode
	KindRotAcc // RLCA/RRCA/RLA/RRA (RotOp in Rot)
	KindRot    // CB rotate/shift; Reg is operand, CopyReg valid for DDCB/FDCB store-and-copy
	KindBit
	KindRes // CopyReg valid for DDCB/FDCB store-and-copy
	KindSet // CopyReg valid for DDCB/FDCB store-and-copy
	KindJP
	KindJPHL // JP (HL)/(IX)/(IY), unconditional, no displacement fetch
	KindJR
	KindDJNZ
	KindCall
	KindRet
	KindRETI
	KindRETN
	KindRST
	KindPush
	KindPop
	KindInANImm  // IN A,(n)
	KindOutNAImm // OUT (n),A
	KindInRC     // IN r,(C); RegPresent false means undocumented IN (C) (flags only)
	KindOutCR    // OUT (C),r; RegPresent false means undocumented OUT (C),0
	KindBlock
	KindRLD
	KindRRD
)

// Token is the decoded mnemonic plus whatever operand selectors that
// mnemonic needs. Only the fields relevant to Kind are meaningful.
type Token struct {
	Kind Kind

	Reg    Reg8  // primary 8-bit operand (dst for two-operand LD)
	Src    Reg8  // secondary 8-bit operand (src for LdRegReg)
	RP     Reg16 // register pair operand
	Cond   Cond
	Alu    AluOp
	Rot    RotOp
	Block  BlockOp
	Bit    uint8 // 0-7, for BIT/RES/SET
	RST    uint8 // restart address (0,8,...,0x38)
	IMMode uint8 // 0,1,2
	AIR    AIRForm

	HasCond    bool // true if Cond is meaningful (JP/JR/CALL/RET); false = unconditional
	RegPresent bool // ALU/IN/OUT: true if Reg names a register operand rather than immediate/none
	CopyReg    Reg8 // DDCB/FDCB store-and-copy destination register
	HasCopy    bool // true if CopyReg is meaningful
	ToMem      bool // LdRegPairMem/LdIndBC/LdIndDE/LdAbsA: true = store A/HL to memory, false = load
}

// Data is the immediate payload an Instruction may carry: either a single
// byte or a 16-bit word, never both.
type Data struct {
	HasByte bool
	Byte    uint8
	HasWord bool
	Word    uint16
}

// Instruction is a complete decoded record: the mnemonic Token, an
// optional signed displacement (IX+d/IY+d effective address, or a JR/DJNZ
// relative offset), and optional immediate Data.
type Instruction struct {
	Token        Token
	HasDisp      bool
	Disp         int8
	Data         Data
	Bytes        int // total bytes consumed, including any prefix
	UsesIndexIX  bool
	UsesIndexIY  bool
}
