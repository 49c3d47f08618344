package z80

import (
	"encoding/binary"
	"errors"

	"github.com/user-none/go-chip-z80/decoder"
)

// cpuSerializeVersion is incremented whenever the binary layout changes.
const cpuSerializeVersion = 1

// cpuSerializeSize is the number of bytes produced by CPU.Serialize.
// Update this constant whenever the binary layout changes.
const cpuSerializeSize = 34

// SerializeSize returns the number of bytes needed for Serialize.
func (c *CPU) SerializeSize() int { return cpuSerializeSize }

// Serialize writes the full CPU state into buf, which must be at least
// SerializeSize() bytes. Returns an error if the buffer is too small. Bus
// and decoder mid-instruction state are not included: serialization is
// only valid between instruction boundaries.
func (c *CPU) Serialize(buf []byte) error {
	if len(buf) < cpuSerializeSize {
		return errors.New("z80: serialize buffer too small")
	}

	buf[0] = cpuSerializeVersion
	be := binary.BigEndian
	off := 1

	regBytes := []byte{
		c.reg.A, c.reg.F, c.reg.B, c.reg.C, c.reg.D, c.reg.E, c.reg.H, c.reg.L,
		c.reg.A2, c.reg.F2, c.reg.B2, c.reg.C2, c.reg.D2, c.reg.E2, c.reg.H2, c.reg.L2,
	}
	off += copy(buf[off:], regBytes)

	be.PutUint16(buf[off:], c.reg.IX)
	off += 2
	be.PutUint16(buf[off:], c.reg.IY)
	off += 2
	be.PutUint16(buf[off:], c.reg.SP)
	off += 2
	be.PutUint16(buf[off:], c.reg.PC)
	off += 2

	buf[off] = c.reg.I
	off++
	buf[off] = c.reg.R
	off++

	buf[off] = boolByte(c.reg.IFF1)
	off++
	buf[off] = boolByte(c.reg.IFF2)
	off++
	buf[off] = c.reg.IM
	off++
	buf[off] = boolByte(c.reg.Halted)
	off++

	buf[off] = boolByte(c.pendingNMI)
	off++
	buf[off] = boolByte(c.pendingINT)
	off++
	buf[off] = boolByte(c.suppressInt)

	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Deserialize restores CPU state from buf, which must be at least
// SerializeSize() bytes. Returns an error if the buffer is too small or
// the version does not match. The bus, clock, and decoder are left
// unchanged; the decoder is reset since a serialize point is always an
// instruction boundary.
func (c *CPU) Deserialize(buf []byte) error {
	if len(buf) < cpuSerializeSize {
		return errors.New("z80: deserialize buffer too small")
	}
	if buf[0] != cpuSerializeVersion {
		return errors.New("z80: unsupported serialize version")
	}

	be := binary.BigEndian
	off := 1

	c.reg.A, c.reg.F, c.reg.B, c.reg.C = buf[off], buf[off+1], buf[off+2], buf[off+3]
	c.reg.D, c.reg.E, c.reg.H, c.reg.L = buf[off+4], buf[off+5], buf[off+6], buf[off+7]
	c.reg.A2, c.reg.F2, c.reg.B2, c.reg.C2 = buf[off+8], buf[off+9], buf[off+10], buf[off+11]
	c.reg.D2, c.reg.E2, c.reg.H2, c.reg.L2 = buf[off+12], buf[off+13], buf[off+14], buf[off+15]
	off += 16

	c.reg.IX = be.Uint16(buf[off:])
	off += 2
	c.reg.IY = be.Uint16(buf[off:])
	off += 2
	c.reg.SP = be.Uint16(buf[off:])
	off += 2
	c.reg.PC = be.Uint16(buf[off:])
	off += 2

	c.reg.I = buf[off]
	off++
	c.reg.R = buf[off]
	off++

	c.reg.IFF1 = buf[off] != 0
	off++
	c.reg.IFF2 = buf[off] != 0
	off++
	c.reg.IM = buf[off]
	off++
	c.reg.Halted = buf[off] != 0
	off++

	c.pendingNMI = buf[off] != 0
	off++
	c.pendingINT = buf[off] != 0
	off++
	c.suppressInt = buf[off] != 0

	c.dec = decoder.Decoder{}

	return nil
}
