package disasm

import (
	"fmt"

	"github.com/user-none/go-chip-z80/decoder"
)

// Line is one disassembled record: its address, the raw bytes it was
// decoded from, and its rendered text.
type Line struct {
	Addr int
	Raw  []byte
	Text string
}

// Disassembler walks a byte slice from a base address, feeding it through
// a decoder.Decoder and rendering each resulting Instruction as a Line. If
// the stream ends mid-instruction it emits a single sentinel "unknown"
// Line for the remaining bytes rather than panicking or silently dropping
// them.
type Disassembler struct {
	base int
}

// NewDisassembler creates a Disassembler that labels its first line with
// base as the address.
func NewDisassembler(base int) *Disassembler {
	return &Disassembler{base: base}
}

// Run disassembles every instruction in data, in order.
func (a *Disassembler) Run(data []byte) []Line {
	var lines []Line
	addr := a.base
	i := 0
	var dec decoder.Decoder

	for i < len(data) {
		start := i
		var instr *decoder.Instruction
		for i < len(data) {
			instr = dec.Feed(data[i])
			i++
			if instr != nil {
				break
			}
		}
		if instr == nil {
			lines = append(lines, Line{
				Addr: addr,
				Raw:  data[start:i],
				Text: "??? (truncated instruction)",
			})
			break
		}
		lines = append(lines, Line{
			Addr: addr,
			Raw:  data[start:i],
			Text: Format(instr),
		})
		addr += instr.Bytes
	}
	return lines
}

// String renders a Line the way a listing file would: "AAAAh  XX XX  TEXT".
func (l Line) String() string {
	hexBytes := ""
	for _, b := range l.Raw {
		hexBytes += fmt.Sprintf("%02X ", b)
	}
	return fmt.Sprintf("%04Xh  %-12s%s", l.Addr, hexBytes, l.Text)
}
