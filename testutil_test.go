package z80

import (
	"testing"

	"github.com/user-none/go-chip-z80/bus"
	"github.com/user-none/go-chip-z80/memory"
	"github.com/user-none/go-chip-z80/scheduler"
)

// testSystem bundles a CPU and Memory sharing one bus, ready to drive
// through a scheduler. Programs are loaded above 0x4000 so the memory
// device's ROM write guard never gets in the way of stack or data writes.
type testSystem struct {
	t   *testing.T
	cpu *CPU
	mem *memory.Memory
	clk *bus.Clock
	b   *bus.CpuBus
	sch *scheduler.Scheduler
}

const testOrigin = 0x8000

func newTestSystem(t *testing.T, program []byte, extra ...func(*bus.CpuBus) scheduler.Device) *testSystem {
	t.Helper()
	b := bus.NewCpuBus()
	clk := &bus.Clock{}
	// Machine cycles always end on a falling edge, so steady-state fetches
	// begin their next cycle on an odd half-T-state. A fresh zero-value
	// clock sits on an even (rising) phase, which would cost the very
	// first cycle of the test one spurious half-T-state it would never see
	// in real operation; prime past that before anything runs.
	clk.Set(1)
	mem := memory.New(1, b)
	mem.Load(testOrigin, program)

	cpu := New(2, b, clk)
	cpu.reg.PC = testOrigin
	cpu.reg.SP = 0xfffe

	devices := []scheduler.Device{cpu, mem}
	for _, f := range extra {
		devices = append(devices, f(b))
	}

	sch := scheduler.New(clk, devices)
	return &testSystem{t: t, cpu: cpu, mem: mem, clk: clk, b: b, sch: sch}
}

// runTStates advances the system by n full T-states. Advance only runs a
// task whose wake time falls strictly before the target, so the action
// that completes exactly at the 2n-th half-T-state needs the target pushed
// one half-T-state further out to actually execute; without it, the very
// last bus action of the nth T-state (and anything synchronous after it,
// like a PC increment or the next instruction's decode) would be left
// pending for the next call.
func (s *testSystem) runTStates(n int) {
	s.t.Helper()
	if err := s.sch.Advance(uint64(2*n + 1)); err != nil {
		s.t.Fatalf("scheduler.Advance: %v", err)
	}
}

func (s *testSystem) readMem(addr uint16) byte {
	return s.mem.Read(addr)
}
