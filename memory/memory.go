// Package memory implements a minimal 48K ROM/RAM device that participates
// on a bus.CpuBus as a scheduler.Device: ROM-protected below 0x4000, plain
// RAM above.
package memory

import (
	"github.com/user-none/go-chip-z80/bus"
	"github.com/user-none/go-chip-z80/scheduler"
)

const romTop = 0x4000

// Memory is a 64K flat address space device. The low 16K is treated as
// ROM: writes to it are silently dropped.
type Memory struct {
	id   uint32
	bus  *bus.CpuBus
	data [0x10000]byte
}

// New creates a Memory device with the given bus-driver identity.
func New(id uint32, b *bus.CpuBus) *Memory {
	return &Memory{id: id, bus: b}
}

// Identity implements scheduler.Device.
func (m *Memory) Identity() uint32 { return m.id }

// Load copies data into the address space starting at addr, bypassing the
// ROM write guard - this is how a ROM image or a test fixture gets
// installed before the scheduler starts running.
func (m *Memory) Load(addr uint16, data []byte) {
	for i, b := range data {
		m.data[int(addr)+i] = b
	}
}

func writable(addr uint16) bool {
	return addr >= romTop
}

// Read returns the byte at addr without going through the bus, for
// diagnostics, save-state snapshots, and tests.
func (m *Memory) Read(addr uint16) byte {
	return m.data[addr]
}

// Run implements scheduler.Device. It polls the control line every
// half-T-state: while MREQ is asserted it drives or samples data as
// RD/WR dictate, and releases the data line the instant MREQ drops.
func (m *Memory) Run(y scheduler.Yield) {
	for {
		ctrl, driven := m.bus.Ctrl.Probe()
		if !driven || ctrl&bus.MREQ == 0 {
			m.bus.Data.Release(m.id)
			y(1)
			continue
		}

		addr, ok := m.bus.Addr.Probe()
		if !ok {
			y(1)
			continue
		}

		switch {
		case ctrl&bus.RD != 0:
			m.bus.Data.Drive(m.id, m.data[addr])
		case ctrl&bus.WR != 0:
			if v, ok := m.bus.Data.Probe(); ok && writable(addr) {
				m.data[addr] = v
			}
		}
		y(1)
	}
}
