package z80

import (
	"testing"

	"github.com/user-none/go-chip-z80/bus"
)

func TestSerializeSize(t *testing.T) {
	cpu := New(1, bus.NewCpuBus(), &bus.Clock{})
	if got := cpu.SerializeSize(); got != cpuSerializeSize {
		t.Fatalf("SerializeSize() = %d, want %d", got, cpuSerializeSize)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	cpu := New(1, bus.NewCpuBus(), &bus.Clock{})

	cpu.reg = Registers{
		A: 0x11, F: 0x22, B: 0x33, C: 0x44, D: 0x55, E: 0x66, H: 0x77, L: 0x88,
		A2: 0x99, F2: 0xaa, B2: 0xbb, C2: 0xcc, D2: 0xdd, E2: 0xee, H2: 0xff, L2: 0x01,
		IX: 0x1234, IY: 0x5678, SP: 0x9abc, PC: 0xdef0,
		I: 0x3f, R: 0x2a,
		IFF1: true, IFF2: false, IM: 2, Halted: true,
	}
	cpu.pendingNMI = true
	cpu.pendingINT = false
	cpu.suppressInt = true

	buf := make([]byte, cpu.SerializeSize())
	if err := cpu.Serialize(buf); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	restored := New(1, bus.NewCpuBus(), &bus.Clock{})
	if err := restored.Deserialize(buf); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if restored.reg != cpu.reg {
		t.Errorf("register round trip mismatch:\n got  %+v\n want %+v", restored.reg, cpu.reg)
	}
	if restored.pendingNMI != cpu.pendingNMI || restored.pendingINT != cpu.pendingINT || restored.suppressInt != cpu.suppressInt {
		t.Errorf("pending-flag round trip mismatch: got nmi=%v int=%v suppress=%v",
			restored.pendingNMI, restored.pendingINT, restored.suppressInt)
	}
}

func TestSerializeBufferTooSmall(t *testing.T) {
	cpu := New(1, bus.NewCpuBus(), &bus.Clock{})
	if err := cpu.Serialize(make([]byte, 1)); err == nil {
		t.Error("expected error serializing into undersized buffer")
	}
	if err := cpu.Deserialize(make([]byte, 1)); err == nil {
		t.Error("expected error deserializing from undersized buffer")
	}
}

func TestDeserializeRejectsWrongVersion(t *testing.T) {
	cpu := New(1, bus.NewCpuBus(), &bus.Clock{})
	buf := make([]byte, cpu.SerializeSize())
	buf[0] = cpuSerializeVersion + 1
	if err := cpu.Deserialize(buf); err == nil {
		t.Error("expected error deserializing an unrecognised version byte")
	}
}
