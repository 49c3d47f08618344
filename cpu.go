// Package z80 implements a cycle-accurate Zilog Z80 CPU core together with
// the cooperative, clock-driven scheduler and shared bus model used to
// coordinate it with memory and I/O devices.
//
// The CPU is itself a scheduler.Device: its Run method is an infinite loop
// that fetches, decodes, and executes instructions, suspending at every
// bus transaction via the Yield it is given. Decoding is delegated to the
// decoder package, which is pure and never touches the bus; the CPU feeds
// it bytes one at a time as they are fetched.
package z80

import (
	"log"

	"github.com/user-none/go-chip-z80/bus"
	"github.com/user-none/go-chip-z80/decoder"
	"github.com/user-none/go-chip-z80/scheduler"
)

// CPU is the Z80 processor core.
type CPU struct {
	id  uint32
	bus *bus.CpuBus
	clk *bus.Clock
	reg Registers

	dec decoder.Decoder

	pendingNMI bool
	pendingINT bool

	// suppressInt blocks interrupt acceptance for exactly the one
	// instruction following EI, matching the real hardware's one
	// instruction delay before a newly enabled interrupt is taken.
	suppressInt bool

	// instrCount tallies completed instructions and interrupt responses
	// (each of HALT's NOP-fetch repeats counts as one), for tests that
	// need to know exactly when one unit of work has finished.
	instrCount uint64

	y scheduler.Yield
}

// InstrCount returns the number of instructions and interrupt responses
// completed so far, for tests that need to detect instruction boundaries
// from outside the scheduler loop.
func (c *CPU) InstrCount() uint64 { return c.instrCount }

// New creates a CPU wired to b and clk and performs a power-on reset.
func New(id uint32, b *bus.CpuBus, clk *bus.Clock) *CPU {
	c := &CPU{id: id, bus: b, clk: clk}
	c.Reset()
	return c
}

// Identity implements scheduler.Device.
func (c *CPU) Identity() uint32 { return c.id }

// Reset puts the CPU in its power-on state: PC=0, IFF1/IFF2 cleared,
// IM 0, SP undefined-but-conventional at 0xFFFF.
func (c *CPU) Reset() {
	c.reg = Registers{SP: 0xffff}
	c.dec = decoder.Decoder{}
	c.pendingNMI = false
	c.pendingINT = false
	c.suppressInt = false
}

// Registers returns a copy of the programmer-visible register file, for
// diagnostics and tests.
func (c *CPU) Registers() Registers { return c.reg }

// SetRegisters overwrites the programmer-visible register file, for
// debuggers and snapshot restore paths that don't go through the binary
// Serialize/Deserialize format.
func (c *CPU) SetRegisters(r Registers) { c.reg = r }

// Run implements scheduler.Device: an infinite fetch/decode/execute loop.
// Each iteration first services a pending NMI or maskable interrupt, then
// fetches and executes one instruction. Every machine cycle samples the
// interrupt lines (T4 of an opcode fetch or interrupt acknowledge, T3 of
// the other cycles): a pending INT reflects the most recent sample, and a
// pending NMI stays latched once seen.
func (c *CPU) Run(y scheduler.Yield) {
	c.y = y
	for {
		if c.pendingNMI {
			c.reg.Halted = false
			c.reg.IFF2 = c.reg.IFF1
			c.reg.IFF1 = false
			c.bus.Halt.Drive(c.id, false)
			c.pushWord(c.reg.PC)
			// The push's own write cycles sample NMI too; clear the latch
			// after them so the request being serviced is not taken again
			// before the handler's first instruction.
			c.pendingNMI = false
			c.reg.PC = 0x0066
			c.instrCount++
			c.y(0)
			continue
		}
		suppress := c.suppressInt
		c.suppressInt = false
		if c.pendingINT && c.reg.IFF1 && !suppress {
			c.pendingINT = false
			c.reg.Halted = false
			c.reg.IFF1 = false
			c.reg.IFF2 = false
			c.bus.Halt.Drive(c.id, false)
			c.acceptMaskableInterrupt()
			c.instrCount++
			c.y(0)
			continue
		}

		if c.reg.Halted {
			// HALT loops on NOP, still taking the full opcode fetch's
			// worth of bus cycles so interrupts keep getting sampled.
			c.bus.Halt.Drive(c.id, true)
			c.opcodeRead(c.reg.PC)
			c.instrCount++
			continue
		}
		c.bus.Halt.Drive(c.id, false)

		instr := c.fetch()
		c.execute(instr)
		c.instrCount++
	}
}

// acceptMaskableInterrupt dispatches per IM. The bus data byte sampled
// during the interrupt-acknowledge cycle supplies the IM 0 opcode / IM 2
// vector low byte; a plain reference implementation with no device
// driving a genuine instruction/vector during INTACK falls back to the
// conventional RST 38h / vector 0xFF behaviour noted in real hardware.
func (c *CPU) acceptMaskableInterrupt() {
	data := c.interruptAck()
	switch c.reg.IM {
	case 0:
		instr := &decoder.Instruction{}
		var dec decoder.Decoder
		instr = dec.Feed(data)
		if instr == nil {
			// multi-byte IM 0 instruction stream: extremely rare in
			// practice, treat as RST 38h same as most real software paths.
			instr = &decoder.Instruction{Token: decoder.Token{Kind: decoder.KindRST, RST: 0x38}}
		}
		c.execute(instr)
	case 1:
		c.pushWord(c.reg.PC)
		c.reg.PC = 0x0038
	case 2:
		vecAddr := uint16(c.reg.I)<<8 | uint16(data)
		lo := c.memoryRead(vecAddr)
		hi := c.memoryRead(vecAddr + 1)
		c.pushWord(c.reg.PC)
		c.reg.PC = uint16(hi)<<8 | uint16(lo)
	default:
		log.Printf("[z80] device %d: invalid interrupt mode %d, treating as IM 1", c.id, c.reg.IM)
		c.pushWord(c.reg.PC)
		c.reg.PC = 0x0038
	}
}

// fetch drives the opcode_read protocol for PC, then continues with plain
// memory reads, feeding every byte to the decoder until it reports a
// complete instruction. PC is incremented (with wraparound) after each
// byte.
func (c *CPU) fetch() *decoder.Instruction {
	b := c.opcodeRead(c.reg.PC)
	c.reg.PC++
	instr := c.dec.Feed(b)
	for instr == nil {
		switch c.dec.NextNeed() {
		case decoder.NeedOpcode:
			b = c.opcodeRead(c.reg.PC)
		default:
			b = c.memoryRead(c.reg.PC)
		}
		c.reg.PC++
		instr = c.dec.Feed(b)
	}
	return instr
}
