package z80

import "github.com/user-none/go-chip-z80/bus"

// waitForReady samples wait starting at the edge the caller has just
// reached and loops at falling edges for as long as it stays asserted,
// matching the Z80's automatic wait-state insertion.
func (c *CPU) waitForReady() {
	for bus.ProbeBool(c.bus.Wait) {
		c.y(c.clk.Falling(1))
	}
}

// opcodeRead drives the M1 (opcode fetch, 4 T-state) protocol: drive addr,
// assert MREQ|RD, wait out any inserted TW states, latch the byte,
// increment R, then run the refresh cycle. It also performs the
// documented T4 sampling of busrq and the interrupt lines, servicing a
// bus request before returning if one is pending.
func (c *CPU) opcodeRead(addr uint16) byte {
	d := c.id

	c.y(c.clk.Rising(1)) // T1 rising
	c.bus.Data.Release(d)
	c.bus.Addr.Drive(d, addr)
	c.bus.Ctrl.Drive(d, 0)
	c.bus.M1.Drive(d, true)

	c.y(c.clk.Falling(1)) // T1 falling
	c.bus.Ctrl.Drive(d, bus.MREQ|bus.RD)

	c.y(c.clk.Falling(1)) // T2 falling
	c.waitForReady()

	c.y(c.clk.Rising(1)) // T3 rising
	val, _ := c.bus.Data.Probe()
	c.reg.bumpR()
	c.bus.Addr.Drive(d, uint16(c.reg.I)<<8|uint16(c.reg.R))
	c.bus.Ctrl.Drive(d, bus.RFSH) // clears MREQ & RD
	c.bus.M1.Drive(d, false)

	c.y(c.clk.Falling(1)) // T3 falling
	c.bus.Ctrl.Drive(d, bus.RFSH|bus.MREQ)

	c.y(c.clk.Rising(1)) // T4 rising
	busrq := bus.ProbeBool(c.bus.Busrq)
	c.pendingINT = bus.ProbeBool(c.bus.Int)
	if bus.ProbeBool(c.bus.Nmi) {
		c.pendingNMI = true
	}

	c.y(c.clk.Falling(1)) // T4 falling
	c.bus.Ctrl.Drive(d, bus.RFSH) // clears MREQ

	if busrq {
		c.releaseBus()
	}

	return val
}

// releaseBus implements the bus-request handshake: release the lines this
// CPU drives, assert busak, and wait for busrq to clear.
func (c *CPU) releaseBus() {
	d := c.id

	c.y(c.clk.Rising(1))
	c.bus.Data.Release(d)
	c.bus.Addr.Release(d)
	c.bus.Ctrl.Release(d)
	c.bus.Busak.Drive(d, true)

	for bus.ProbeBool(c.bus.Busrq) {
		c.y(c.clk.Rising(1)) // wait 1 T-state
	}

	c.y(c.clk.Falling(1))
	c.bus.Busak.Drive(d, false)
}

// memoryRead drives a plain 3 T-state memory read.
func (c *CPU) memoryRead(addr uint16) byte {
	d := c.id

	c.y(c.clk.Rising(1)) // T1 rising
	c.bus.Data.Release(d)
	c.bus.Addr.Drive(d, addr)
	c.bus.Ctrl.Drive(d, 0)

	c.y(c.clk.Falling(1)) // T1 falling
	c.bus.Ctrl.Drive(d, bus.MREQ|bus.RD)

	c.y(c.clk.Falling(1)) // T2 falling
	c.waitForReady()

	c.y(c.clk.Rising(1)) // T3 rising
	busrq := bus.ProbeBool(c.bus.Busrq)
	c.pendingINT = bus.ProbeBool(c.bus.Int)
	if bus.ProbeBool(c.bus.Nmi) {
		c.pendingNMI = true
	}

	c.y(c.clk.Falling(1)) // T3 falling
	val, _ := c.bus.Data.Probe()
	c.bus.Ctrl.Drive(d, 0)

	if busrq {
		c.releaseBus()
	}

	return val
}

// memoryWrite drives a plain 3 T-state memory write.
func (c *CPU) memoryWrite(addr uint16, val byte) {
	d := c.id

	c.y(c.clk.Rising(1)) // T1 rising
	c.bus.Data.Release(d)
	c.bus.Addr.Drive(d, addr)
	c.bus.Ctrl.Drive(d, 0)

	c.y(c.clk.Falling(1)) // T1 falling
	c.bus.Data.Drive(d, val)
	c.bus.Ctrl.Drive(d, bus.MREQ)

	c.y(c.clk.Falling(1)) // T2 falling
	c.bus.Ctrl.Drive(d, bus.MREQ|bus.WR)
	c.waitForReady()

	c.y(c.clk.Rising(1)) // T3 rising
	busrq := bus.ProbeBool(c.bus.Busrq)
	c.pendingINT = bus.ProbeBool(c.bus.Int)
	if bus.ProbeBool(c.bus.Nmi) {
		c.pendingNMI = true
	}

	c.y(c.clk.Falling(1)) // T3 falling
	c.bus.Ctrl.Drive(d, 0)

	if busrq {
		c.releaseBus()
	}
}

// ioRead drives a 4 T-state I/O read, including the automatic TW cycle.
func (c *CPU) ioRead(port uint16) byte {
	d := c.id

	c.y(c.clk.Rising(1)) // T1 rising
	c.bus.Data.Release(d)
	c.bus.Addr.Drive(d, port)
	c.bus.Ctrl.Drive(d, 0)

	c.y(c.clk.Rising(1)) // T2 rising
	c.bus.Ctrl.Drive(d, bus.IORQ|bus.RD)

	c.y(c.clk.Falling(2)) // TW falling
	c.waitForReady()

	c.y(c.clk.Rising(1)) // T3 rising
	busrq := bus.ProbeBool(c.bus.Busrq)
	c.pendingINT = bus.ProbeBool(c.bus.Int)
	if bus.ProbeBool(c.bus.Nmi) {
		c.pendingNMI = true
	}

	c.y(c.clk.Falling(1)) // T3 falling
	val, _ := c.bus.Data.Probe()
	c.bus.Ctrl.Drive(d, 0)

	if busrq {
		c.releaseBus()
	}

	return val
}

// ioWrite drives a 4 T-state I/O write, including the automatic TW cycle.
func (c *CPU) ioWrite(port uint16, val byte) {
	d := c.id

	c.y(c.clk.Rising(1)) // T1 rising
	c.bus.Data.Release(d)
	c.bus.Addr.Drive(d, port)
	c.bus.Ctrl.Drive(d, 0)

	c.y(c.clk.Falling(1)) // T1 falling
	c.bus.Data.Drive(d, val)

	c.y(c.clk.Rising(1)) // T2 rising
	c.bus.Ctrl.Drive(d, bus.IORQ|bus.WR)

	c.y(c.clk.Falling(2)) // TW falling
	c.waitForReady()

	c.y(c.clk.Rising(1)) // T3 rising
	busrq := bus.ProbeBool(c.bus.Busrq)
	c.pendingINT = bus.ProbeBool(c.bus.Int)
	if bus.ProbeBool(c.bus.Nmi) {
		c.pendingNMI = true
	}

	c.y(c.clk.Falling(1)) // T3 falling
	c.bus.Ctrl.Drive(d, 0)

	if busrq {
		c.releaseBus()
	}
}

// interruptAck drives the 6 T-state interrupt acknowledge cycle (M1 shape
// with IORQ instead of MREQ|RD, two extra TW states in place of the
// single wait state a plain I/O cycle gets) and returns whatever byte the
// interrupting device placed on the data bus. PC is driven onto the
// address bus for the duration, matching the real M1-alike INTACK cycle.
func (c *CPU) interruptAck() byte {
	d := c.id

	c.y(c.clk.Rising(1)) // T1 rising
	c.bus.Data.Release(d)
	c.bus.Addr.Drive(d, c.reg.PC)
	c.bus.Ctrl.Drive(d, 0)
	c.bus.M1.Drive(d, true)

	c.y(c.clk.Falling(3)) // TW1 falling
	c.bus.Ctrl.Drive(d, bus.IORQ)

	c.y(c.clk.Falling(1)) // TW2 falling
	c.waitForReady()

	c.y(c.clk.Rising(1)) // T3 rising
	val, ok := c.bus.Data.Probe()
	if !ok {
		val = 0xff // no device answered: the pulled-up bus reads 0xFF
	}
	c.reg.bumpR()
	c.bus.Addr.Drive(d, uint16(c.reg.I)<<8|uint16(c.reg.R))
	c.bus.Ctrl.Drive(d, bus.RFSH) // clears IORQ
	c.bus.M1.Drive(d, false)

	c.y(c.clk.Falling(1)) // T3 falling
	c.bus.Ctrl.Drive(d, bus.RFSH|bus.MREQ)

	c.y(c.clk.Rising(1)) // T4 rising
	busrq := bus.ProbeBool(c.bus.Busrq)
	c.pendingINT = bus.ProbeBool(c.bus.Int)
	if bus.ProbeBool(c.bus.Nmi) {
		c.pendingNMI = true
	}

	c.y(c.clk.Falling(1)) // T4 falling
	c.bus.Ctrl.Drive(d, bus.RFSH) // clears MREQ

	if busrq {
		c.releaseBus()
	}

	return val
}

// pushWord decrements SP by 2 and stores v high-byte-first.
func (c *CPU) pushWord(v uint16) {
	c.reg.SP--
	c.memoryWrite(c.reg.SP, byte(v>>8))
	c.reg.SP--
	c.memoryWrite(c.reg.SP, byte(v))
}

// popWord reads a word from (SP) and increments SP by 2.
func (c *CPU) popWord() uint16 {
	lo := c.memoryRead(c.reg.SP)
	c.reg.SP++
	hi := c.memoryRead(c.reg.SP)
	c.reg.SP++
	return uint16(hi)<<8 | uint16(lo)
}
