package cpu

import "fmt"

// Disassemble renders the instruction at addr as "ADDR: XX NAME bytes". It
// peeks at bus memory without advancing any CPU state — a pure function
// over the opcode table, kept here because it's the one sliver of the
// (out-of-scope) disassembler pretty-printer simple enough to re-derive
// (spec.md §1).
func (c *CPU) Disassemble(addr uint16) string {
	code := c.read(addr)
	e := opcodeTable[code]

	out := fmt.Sprintf("%04X: %02X %s", addr, code, e.name)
	for i := uint8(1); i < e.bytes; i++ {
		out += fmt.Sprintf(" %02X", c.read(addr+uint16(i)))
	}
	return out
}

// InstructionLength returns the byte width of the instruction at addr,
// for callers that need to step a disassembly listing forward without
// parsing Disassemble's output (spec.md §1).
func (c *CPU) InstructionLength(addr uint16) uint16 {
	return uint16(opcodeTable[c.read(addr)].bytes)
}
