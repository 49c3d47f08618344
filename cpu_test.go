package z80

import (
	"testing"

	"github.com/user-none/go-chip-z80/bus"
	"github.com/user-none/go-chip-z80/scheduler"
)

func TestNOPAdvancesPC(t *testing.T) {
	s := newTestSystem(t, []byte{0x00})
	s.runTStates(4)
	if s.cpu.reg.PC != testOrigin+1 {
		t.Errorf("PC = %#04x, want %#04x", s.cpu.reg.PC, testOrigin+1)
	}
}

func TestLdRegImmAndRegReg(t *testing.T) {
	// LD B,0x42 ; LD A,B
	s := newTestSystem(t, []byte{0x06, 0x42, 0x78})
	s.runTStates(7 + 4)
	if s.cpu.reg.A != 0x42 {
		t.Errorf("A = %#02x, want 0x42", s.cpu.reg.A)
	}
	if s.cpu.reg.B != 0x42 {
		t.Errorf("B = %#02x, want 0x42", s.cpu.reg.B)
	}
}

func TestAddOverflowFlags(t *testing.T) {
	// LD A,0x7F ; ADD A,1
	s := newTestSystem(t, []byte{0x3e, 0x7f, 0xc6, 0x01})
	s.runTStates(7 + 7)
	if s.cpu.reg.A != 0x80 {
		t.Errorf("A = %#02x, want 0x80", s.cpu.reg.A)
	}
	f := s.cpu.reg.F
	if f&flagS == 0 {
		t.Error("S flag not set")
	}
	if f&flagPV == 0 {
		t.Error("PV flag not set for signed overflow")
	}
	if f&flagZ != 0 {
		t.Error("Z flag unexpectedly set")
	}
	if f&flagC != 0 {
		t.Error("C flag unexpectedly set")
	}
}

func TestIncDecFlags(t *testing.T) {
	// LD A,0xFF ; INC A
	s := newTestSystem(t, []byte{0x3e, 0xff, 0x3c})
	s.runTStates(7 + 4)
	if s.cpu.reg.A != 0x00 {
		t.Errorf("A = %#02x, want 0x00", s.cpu.reg.A)
	}
	if s.cpu.reg.F&flagZ == 0 {
		t.Error("Z flag not set after wraparound INC")
	}
	if s.cpu.reg.F&flagH == 0 {
		t.Error("H flag not set")
	}
	if s.cpu.reg.F&flagPV != 0 {
		t.Error("PV flag should only be set for INC 0x7F, not INC 0xFF")
	}
}

func TestCpFlagsPreserveA(t *testing.T) {
	// LD A,0x10 ; CP 0x10
	s := newTestSystem(t, []byte{0x3e, 0x10, 0xfe, 0x10})
	s.runTStates(7 + 7)
	if s.cpu.reg.A != 0x10 {
		t.Errorf("CP must not modify A, got %#02x", s.cpu.reg.A)
	}
	if s.cpu.reg.F&flagZ == 0 {
		t.Error("Z flag not set for equal comparison")
	}
}

func TestAddHLLeavesSZPVUntouched(t *testing.T) {
	// LD HL,1 ; LD DE,0xFFFF ; ADD HL,DE
	s := newTestSystem(t, []byte{0x21, 0x01, 0x00, 0x11, 0xff, 0xff, 0x19})
	s.cpu.reg.F = flagS | flagZ | flagPV
	s.runTStates(10 + 10 + 11)
	if s.cpu.reg.hl() != 0 {
		t.Errorf("HL = %#04x, want 0", s.cpu.reg.hl())
	}
	if s.cpu.reg.F&flagC == 0 {
		t.Error("C flag not set on 16-bit carry out")
	}
	if s.cpu.reg.F&(flagS|flagZ|flagPV) != flagS|flagZ|flagPV {
		t.Error("ADD HL,rr must leave S/Z/PV untouched")
	}
}

func TestJP(t *testing.T) {
	// JP 0x8010
	s := newTestSystem(t, []byte{0xc3, 0x10, 0x80})
	s.runTStates(10)
	if s.cpu.reg.PC != 0x8010 {
		t.Errorf("PC = %#04x, want 0x8010", s.cpu.reg.PC)
	}
}

func TestCallAndRet(t *testing.T) {
	// CALL 0x8010 ; at 0x8010: RET
	prog := make([]byte, 0x8020-testOrigin)
	prog[0] = 0xcd
	prog[1] = 0x10
	prog[2] = 0x80
	prog[0x10] = 0xc9
	s := newTestSystem(t, prog)
	sp0 := s.cpu.reg.SP
	s.runTStates(17 + 10)
	if s.cpu.reg.PC != testOrigin+3 {
		t.Errorf("PC = %#04x, want %#04x after CALL/RET round trip", s.cpu.reg.PC, testOrigin+3)
	}
	if s.cpu.reg.SP != sp0 {
		t.Errorf("SP = %#04x, want %#04x restored", s.cpu.reg.SP, sp0)
	}
}

func TestPushPop(t *testing.T) {
	// LD BC,0x1234 ; PUSH BC ; POP DE
	s := newTestSystem(t, []byte{0x01, 0x34, 0x12, 0xc5, 0xd1})
	sp0 := s.cpu.reg.SP
	s.runTStates(10 + 11 + 10)
	if s.cpu.reg.de() != 0x1234 {
		t.Errorf("DE = %#04x, want 0x1234", s.cpu.reg.de())
	}
	if s.cpu.reg.SP != sp0 {
		t.Errorf("SP = %#04x, want %#04x restored", s.cpu.reg.SP, sp0)
	}
}

func TestDJNZLoop(t *testing.T) {
	// LD B,3 ; loop: DJNZ loop ; NOP
	s := newTestSystem(t, []byte{0x06, 0x03, 0x10, 0xfe, 0x00})
	s.runTStates(7 + 13 + 13 + 8 + 4)
	if s.cpu.reg.B != 0 {
		t.Errorf("B = %d, want 0", s.cpu.reg.B)
	}
	if s.cpu.reg.PC != testOrigin+5 {
		t.Errorf("PC = %#04x, want %#04x", s.cpu.reg.PC, testOrigin+5)
	}
}

func TestLDIR(t *testing.T) {
	// LD HL,0x8010 ; LD DE,0x8020 ; LD BC,2 ; LDIR
	s := newTestSystem(t, []byte{
		0x21, 0x10, 0x80,
		0x11, 0x20, 0x80,
		0x01, 0x02, 0x00,
		0xed, 0xb0,
	})
	s.mem.Load(0x8010, []byte{0xaa, 0xbb})
	s.runTStates(10 + 10 + 10 + 21 + 16)
	if got := s.readMem(0x8020); got != 0xaa {
		t.Errorf("(0x8020) = %#02x, want 0xaa", got)
	}
	if got := s.readMem(0x8021); got != 0xbb {
		t.Errorf("(0x8021) = %#02x, want 0xbb", got)
	}
	if s.cpu.reg.bc() != 0 {
		t.Errorf("BC = %#04x, want 0", s.cpu.reg.bc())
	}
	if s.cpu.reg.hl() != 0x8012 {
		t.Errorf("HL = %#04x, want 0x8012", s.cpu.reg.hl())
	}
	if s.cpu.reg.de() != 0x8022 {
		t.Errorf("DE = %#04x, want 0x8022", s.cpu.reg.de())
	}
}

func TestDIThenEIReenables(t *testing.T) {
	// DI ; IM 1 ; EI
	s := newTestSystem(t, []byte{0xf3, 0xed, 0x56, 0xfb})
	s.runTStates(4 + 8 + 4)
	if s.cpu.reg.IM != 1 {
		t.Errorf("IM = %d, want 1", s.cpu.reg.IM)
	}
	if !s.cpu.reg.IFF1 || !s.cpu.reg.IFF2 {
		t.Error("IFF1/IFF2 must be set after EI")
	}
}

func TestHaltLoopsInPlace(t *testing.T) {
	s := newTestSystem(t, []byte{0x76})
	s.runTStates(4)
	if !s.cpu.reg.Halted {
		t.Fatal("expected Halted after HALT")
	}
	pc := s.cpu.reg.PC
	s.runTStates(4)
	if s.cpu.reg.PC != pc {
		t.Errorf("PC moved while halted: %#04x -> %#04x", pc, s.cpu.reg.PC)
	}
	if !s.cpu.reg.Halted {
		t.Error("CPU should remain halted")
	}
}

func TestMaskableInterruptIM1(t *testing.T) {
	const peripheralID = 99
	s := newTestSystem(t, []byte{0x00, 0x00, 0x00, 0x00})
	s.cpu.reg.IFF1 = true
	s.cpu.reg.IM = 1
	s.b.Int.Drive(peripheralID, true)

	sp0 := s.cpu.reg.SP
	s.runTStates(4 + 6 + 6) // NOP (samples INT at T4) + INTACK + push PC

	if s.cpu.reg.PC != 0x0038 {
		t.Errorf("PC = %#04x, want 0x0038", s.cpu.reg.PC)
	}
	if s.cpu.reg.IFF1 {
		t.Error("IFF1 must be cleared on interrupt entry")
	}
	if s.cpu.reg.SP != sp0-2 {
		t.Errorf("SP = %#04x, want %#04x", s.cpu.reg.SP, sp0-2)
	}
	lo := s.readMem(s.cpu.reg.SP)
	hi := s.readMem(s.cpu.reg.SP + 1)
	if ret := uint16(hi)<<8 | uint16(lo); ret != testOrigin+1 {
		t.Errorf("pushed return address = %#04x, want %#04x", ret, testOrigin+1)
	}
}

func TestNMIPreservesIFF1IntoIFF2(t *testing.T) {
	const peripheralID = 99
	s := newTestSystem(t, []byte{0x00, 0x00, 0x00, 0x00})
	s.cpu.reg.IFF1 = true
	s.cpu.reg.IFF2 = true
	s.b.Nmi.Drive(peripheralID, true)

	s.runTStates(4 + 6)

	if s.cpu.reg.PC != 0x0066 {
		t.Errorf("PC = %#04x, want 0x0066", s.cpu.reg.PC)
	}
	if s.cpu.reg.IFF1 {
		t.Error("IFF1 must be cleared on NMI entry")
	}
	if !s.cpu.reg.IFF2 {
		t.Error("IFF2 should retain the pre-NMI IFF1 value")
	}
}

// ioStubDevice is a minimal IN/OUT responder for port tests: every read
// returns a fixed byte, and the most recent write is recorded.
type ioStubDevice struct {
	id      uint32
	b       *bus.CpuBus
	in      byte
	lastOut byte
	wrote   bool
}

func (d *ioStubDevice) Identity() uint32 { return d.id }

func (d *ioStubDevice) Run(y scheduler.Yield) {
	for {
		if ctrl, ok := d.b.Ctrl.Probe(); ok && ctrl&bus.IORQ != 0 {
			switch {
			case ctrl&bus.RD != 0:
				d.b.Data.Drive(d.id, d.in)
			case ctrl&bus.WR != 0:
				if v, ok := d.b.Data.Probe(); ok {
					d.lastOut = v
					d.wrote = true
				}
			}
		} else {
			d.b.Data.Release(d.id)
		}
		y(1)
	}
}

func TestInOutPort(t *testing.T) {
	var io *ioStubDevice
	s := newTestSystem(t, []byte{
		0xdb, 0xfe, // IN A,(0xFE)
		0x47,       // LD B,A
		0xd3, 0xfe, // OUT (0xFE),A
	}, func(b *bus.CpuBus) scheduler.Device {
		io = &ioStubDevice{id: 3, b: b, in: 0x99}
		return io
	})
	s.cpu.reg.A = 0x5a

	s.runTStates(11 + 4 + 11)

	if s.cpu.reg.B != 0x99 {
		t.Errorf("IN A,(n) result = %#02x, want 0x99", s.cpu.reg.B)
	}
	if !io.wrote || io.lastOut != 0x99 {
		t.Errorf("OUT (n),A did not deliver A, got wrote=%v val=%#02x", io.wrote, io.lastOut)
	}
}
