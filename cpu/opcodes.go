package cpu

import "reflect"

// opEntry is one row of the 256-entry static dispatch table: an
// addressing-mode function, an operate function, the instruction's base
// cycle count, and whether its addressing mode is implied/accumulator
// (which changes where shift/rotate write their result and what fetch()
// reads). Both function fields are plain func values over an explicit
// *CPU — there is no vtable or reflection in the inner loop (spec.md §9).
type opEntry struct {
	name    string
	mode    func(*CPU) uint8
	operate func(*CPU) uint8
	cycles  uint8
	implied bool
	bytes   uint8 // total instruction length, opcode byte included; used by Disassemble and InstructionLength
}

// fetch reads the operand for the current instruction: the accumulator
// for implied/accumulator-mode instructions (already latched by imp()),
// or the byte at the effective address otherwise.
func (c *CPU) fetch() uint8 {
	if opcodeTable[c.opcode].implied {
		return c.fetched
	}
	c.fetched = c.read(c.addrAbs)
	return c.fetched
}

// writeResult stores the output of a read-modify-write instruction back
// where its operand came from.
func (c *CPU) writeResult(v uint8) {
	if opcodeTable[c.opcode].implied {
		c.A = v
	} else {
		c.write(c.addrAbs, v)
	}
}

func (c *CPU) setZN(v uint8) {
	c.setFlag(FlagZ, v == 0)
	c.setFlag(FlagN, v&0x80 != 0)
}

func (c *CPU) addWithCarry(m uint8) {
	carry := uint16(0)
	if c.getFlag(FlagC) {
		carry = 1
	}
	sum := uint16(c.A) + uint16(m) + carry
	result := uint8(sum)

	c.setFlag(FlagC, sum > 0xFF)
	c.setFlag(FlagV, (^(uint16(c.A)^uint16(m))&(uint16(c.A)^sum))&0x80 != 0)
	c.A = result
	c.setZN(c.A)
}

func (c *CPU) compare(reg, m uint8) {
	c.setFlag(FlagC, reg >= m)
	c.setZN(reg - m)
}

func pageCrossed(a, b uint16) bool { return a&0xFF00 != b&0xFF00 }

// branch implements the shared shape of the eight conditional branches:
// +1 cycle if taken, +1 more if the branch target crosses a page.
func (c *CPU) branch(taken bool) uint8 {
	if !taken {
		return 0
	}
	c.cycles++
	target := c.PC + c.addrRel
	if pageCrossed(target, c.PC) {
		c.cycles++
	}
	c.PC = target
	return 0
}

func opADC(c *CPU) uint8 { c.addWithCarry(c.fetch()); return 1 }
func opSBC(c *CPU) uint8 { c.addWithCarry(c.fetch() ^ 0xFF); return 1 }

func opAND(c *CPU) uint8 { c.A &= c.fetch(); c.setZN(c.A); return 1 }
func opEOR(c *CPU) uint8 { c.A ^= c.fetch(); c.setZN(c.A); return 1 }
func opORA(c *CPU) uint8 { c.A |= c.fetch(); c.setZN(c.A); return 1 }

func opASL(c *CPU) uint8 {
	v := c.fetch()
	c.setFlag(FlagC, v&0x80 != 0)
	r := v << 1
	c.writeResult(r)
	c.setZN(r)
	return 0
}

func opLSR(c *CPU) uint8 {
	v := c.fetch()
	c.setFlag(FlagC, v&0x01 != 0)
	r := v >> 1
	c.writeResult(r)
	c.setZN(r)
	return 0
}

func opROL(c *CPU) uint8 {
	v := c.fetch()
	carryIn := uint8(0)
	if c.getFlag(FlagC) {
		carryIn = 1
	}
	c.setFlag(FlagC, v&0x80 != 0)
	r := v<<1 | carryIn
	c.writeResult(r)
	c.setZN(r)
	return 0
}

func opROR(c *CPU) uint8 {
	v := c.fetch()
	carryIn := uint8(0)
	if c.getFlag(FlagC) {
		carryIn = 0x80
	}
	c.setFlag(FlagC, v&0x01 != 0)
	r := v>>1 | carryIn
	c.writeResult(r)
	c.setZN(r)
	return 0
}

func opBCC(c *CPU) uint8 { return c.branch(!c.getFlag(FlagC)) }
func opBCS(c *CPU) uint8 { return c.branch(c.getFlag(FlagC)) }
func opBEQ(c *CPU) uint8 { return c.branch(c.getFlag(FlagZ)) }
func opBNE(c *CPU) uint8 { return c.branch(!c.getFlag(FlagZ)) }
func opBMI(c *CPU) uint8 { return c.branch(c.getFlag(FlagN)) }
func opBPL(c *CPU) uint8 { return c.branch(!c.getFlag(FlagN)) }
func opBVC(c *CPU) uint8 { return c.branch(!c.getFlag(FlagV)) }
func opBVS(c *CPU) uint8 { return c.branch(c.getFlag(FlagV)) }

func opBIT(c *CPU) uint8 {
	v := c.fetch()
	c.setFlag(FlagZ, c.A&v == 0)
	c.setFlag(FlagV, v&0x40 != 0)
	c.setFlag(FlagN, v&0x80 != 0)
	return 0
}

func opBRK(c *CPU) uint8 {
	c.PC++
	c.setFlag(FlagI, true)
	c.push16(c.PC)
	c.push(c.P | FlagB | FlagU)
	c.PC = c.read16(vectorIRQ)
	return 0
}

func opCLC(c *CPU) uint8 { c.setFlag(FlagC, false); return 0 }
func opCLD(c *CPU) uint8 { c.setFlag(FlagD, false); return 0 }
func opCLI(c *CPU) uint8 { c.setFlag(FlagI, false); return 0 }
func opCLV(c *CPU) uint8 { c.setFlag(FlagV, false); return 0 }
func opSEC(c *CPU) uint8 { c.setFlag(FlagC, true); return 0 }
func opSED(c *CPU) uint8 { c.setFlag(FlagD, true); return 0 }
func opSEI(c *CPU) uint8 { c.setFlag(FlagI, true); return 0 }

func opCMP(c *CPU) uint8 { c.compare(c.A, c.fetch()); return 1 }
func opCPX(c *CPU) uint8 { c.compare(c.X, c.fetch()); return 0 }
func opCPY(c *CPU) uint8 { c.compare(c.Y, c.fetch()); return 0 }

func opDEC(c *CPU) uint8 { v := c.fetch() - 1; c.writeResult(v); c.setZN(v); return 0 }
func opINC(c *CPU) uint8 { v := c.fetch() + 1; c.writeResult(v); c.setZN(v); return 0 }
func opDEX(c *CPU) uint8 { c.X--; c.setZN(c.X); return 0 }
func opDEY(c *CPU) uint8 { c.Y--; c.setZN(c.Y); return 0 }
func opINX(c *CPU) uint8 { c.X++; c.setZN(c.X); return 0 }
func opINY(c *CPU) uint8 { c.Y++; c.setZN(c.Y); return 0 }

func opJMP(c *CPU) uint8 { c.PC = c.addrAbs; return 0 }

func opJSR(c *CPU) uint8 {
	c.push16(c.PC - 1)
	c.PC = c.addrAbs
	return 0
}

func opRTS(c *CPU) uint8 { c.PC = c.pop16() + 1; return 0 }

func opRTI(c *CPU) uint8 {
	c.P = c.pop() &^ (FlagB | FlagU)
	c.PC = c.pop16()
	return 0
}

func opLDA(c *CPU) uint8 { c.A = c.fetch(); c.setZN(c.A); return 1 }
func opLDX(c *CPU) uint8 { c.X = c.fetch(); c.setZN(c.X); return 1 }
func opLDY(c *CPU) uint8 { c.Y = c.fetch(); c.setZN(c.Y); return 1 }

func opSTA(c *CPU) uint8 { c.write(c.addrAbs, c.A); return 0 }
func opSTX(c *CPU) uint8 { c.write(c.addrAbs, c.X); return 0 }
func opSTY(c *CPU) uint8 { c.write(c.addrAbs, c.Y); return 0 }

func opPHA(c *CPU) uint8 { c.push(c.A); return 0 }
func opPHP(c *CPU) uint8 { c.push(c.P | FlagB | FlagU); return 0 }
func opPLA(c *CPU) uint8 { c.A = c.pop(); c.setZN(c.A); return 0 }
func opPLP(c *CPU) uint8 { c.P = c.pop() | FlagU; return 0 }

func opTAX(c *CPU) uint8 { c.X = c.A; c.setZN(c.X); return 0 }
func opTAY(c *CPU) uint8 { c.Y = c.A; c.setZN(c.Y); return 0 }
func opTXA(c *CPU) uint8 { c.A = c.X; c.setZN(c.A); return 0 }
func opTYA(c *CPU) uint8 { c.A = c.Y; c.setZN(c.A); return 0 }
func opTSX(c *CPU) uint8 { c.X = c.SP; c.setZN(c.X); return 0 }
func opTXS(c *CPU) uint8 { c.SP = c.X; return 0 }

func opNOP(c *CPU) uint8 { return 0 }

// nopPageCross implements the $1C/$3C/$5C/$7C/$DC/$FC illegal NOPs, which
// read (and discard) an absolute,X operand and therefore do cost the
// page-cross cycle like a real read instruction would (spec.md §4.3).
func nopPageCross(c *CPU) uint8 { c.fetch(); return 1 }

// xxx is the catch-all for opcodes not named in spec.md's 56 official
// instructions or its six required illegal NOPs. Runtime never fails
// (spec.md §7): an unrecognized byte just burns cycles as a no-op.
func xxx(c *CPU) uint8 { return 0 }

var opcodeTable [256]opEntry

func modePtr(f func(*CPU) uint8) uintptr {
	return reflect.ValueOf(f).Pointer()
}

// modeBytes maps each addressing-mode function to the number of bytes its
// operand occupies (the opcode byte itself is counted separately).
var modeBytes = map[uintptr]uint8{
	modePtr(imp): 0,
	modePtr(imm): 1, modePtr(zp0): 1, modePtr(zpx): 1, modePtr(zpy): 1,
	modePtr(rel): 1, modePtr(izx): 1, modePtr(izy): 1,
	modePtr(abs): 2, modePtr(abx): 2, modePtr(aby): 2, modePtr(ind): 2,
}

func op(name string, mode func(*CPU) uint8, operate func(*CPU) uint8, cycles uint8, implied bool) opEntry {
	return opEntry{name: name, mode: mode, operate: operate, cycles: cycles, implied: implied, bytes: 1 + modeBytes[modePtr(mode)]}
}

func init() {
	for i := range opcodeTable {
		opcodeTable[i] = op("???", imp, xxx, 2, true)
	}

	set := func(code uint8, e opEntry) { opcodeTable[code] = e }

	// ADC
	set(0x69, op("ADC", imm, opADC, 2, false))
	set(0x65, op("ADC", zp0, opADC, 3, false))
	set(0x75, op("ADC", zpx, opADC, 4, false))
	set(0x6D, op("ADC", abs, opADC, 4, false))
	set(0x7D, op("ADC", abx, opADC, 4, false))
	set(0x79, op("ADC", aby, opADC, 4, false))
	set(0x61, op("ADC", izx, opADC, 6, false))
	set(0x71, op("ADC", izy, opADC, 5, false))

	// AND
	set(0x29, op("AND", imm, opAND, 2, false))
	set(0x25, op("AND", zp0, opAND, 3, false))
	set(0x35, op("AND", zpx, opAND, 4, false))
	set(0x2D, op("AND", abs, opAND, 4, false))
	set(0x3D, op("AND", abx, opAND, 4, false))
	set(0x39, op("AND", aby, opAND, 4, false))
	set(0x21, op("AND", izx, opAND, 6, false))
	set(0x31, op("AND", izy, opAND, 5, false))

	// ASL
	set(0x0A, op("ASL", imp, opASL, 2, true))
	set(0x06, op("ASL", zp0, opASL, 5, false))
	set(0x16, op("ASL", zpx, opASL, 6, false))
	set(0x0E, op("ASL", abs, opASL, 6, false))
	set(0x1E, op("ASL", abx, opASL, 7, false))

	// Branches
	set(0x90, op("BCC", rel, opBCC, 2, false))
	set(0xB0, op("BCS", rel, opBCS, 2, false))
	set(0xF0, op("BEQ", rel, opBEQ, 2, false))
	set(0x30, op("BMI", rel, opBMI, 2, false))
	set(0xD0, op("BNE", rel, opBNE, 2, false))
	set(0x10, op("BPL", rel, opBPL, 2, false))
	set(0x50, op("BVC", rel, opBVC, 2, false))
	set(0x70, op("BVS", rel, opBVS, 2, false))

	// BIT
	set(0x24, op("BIT", zp0, opBIT, 3, false))
	set(0x2C, op("BIT", abs, opBIT, 4, false))

	// BRK
	set(0x00, op("BRK", imp, opBRK, 7, true))

	// Flag ops
	set(0x18, op("CLC", imp, opCLC, 2, true))
	set(0xD8, op("CLD", imp, opCLD, 2, true))
	set(0x58, op("CLI", imp, opCLI, 2, true))
	set(0xB8, op("CLV", imp, opCLV, 2, true))
	set(0x38, op("SEC", imp, opSEC, 2, true))
	set(0xF8, op("SED", imp, opSED, 2, true))
	set(0x78, op("SEI", imp, opSEI, 2, true))

	// CMP
	set(0xC9, op("CMP", imm, opCMP, 2, false))
	set(0xC5, op("CMP", zp0, opCMP, 3, false))
	set(0xD5, op("CMP", zpx, opCMP, 4, false))
	set(0xCD, op("CMP", abs, opCMP, 4, false))
	set(0xDD, op("CMP", abx, opCMP, 4, false))
	set(0xD9, op("CMP", aby, opCMP, 4, false))
	set(0xC1, op("CMP", izx, opCMP, 6, false))
	set(0xD1, op("CMP", izy, opCMP, 5, false))

	// CPX / CPY
	set(0xE0, op("CPX", imm, opCPX, 2, false))
	set(0xE4, op("CPX", zp0, opCPX, 3, false))
	set(0xEC, op("CPX", abs, opCPX, 4, false))
	set(0xC0, op("CPY", imm, opCPY, 2, false))
	set(0xC4, op("CPY", zp0, opCPY, 3, false))
	set(0xCC, op("CPY", abs, opCPY, 4, false))

	// DEC / INC
	set(0xC6, op("DEC", zp0, opDEC, 5, false))
	set(0xD6, op("DEC", zpx, opDEC, 6, false))
	set(0xCE, op("DEC", abs, opDEC, 6, false))
	set(0xDE, op("DEC", abx, opDEC, 7, false))
	set(0xE6, op("INC", zp0, opINC, 5, false))
	set(0xF6, op("INC", zpx, opINC, 6, false))
	set(0xEE, op("INC", abs, opINC, 6, false))
	set(0xFE, op("INC", abx, opINC, 7, false))

	// Register inc/dec
	set(0xCA, op("DEX", imp, opDEX, 2, true))
	set(0x88, op("DEY", imp, opDEY, 2, true))
	set(0xE8, op("INX", imp, opINX, 2, true))
	set(0xC8, op("INY", imp, opINY, 2, true))

	// EOR
	set(0x49, op("EOR", imm, opEOR, 2, false))
	set(0x45, op("EOR", zp0, opEOR, 3, false))
	set(0x55, op("EOR", zpx, opEOR, 4, false))
	set(0x4D, op("EOR", abs, opEOR, 4, false))
	set(0x5D, op("EOR", abx, opEOR, 4, false))
	set(0x59, op("EOR", aby, opEOR, 4, false))
	set(0x41, op("EOR", izx, opEOR, 6, false))
	set(0x51, op("EOR", izy, opEOR, 5, false))

	// JMP / JSR / RTS / RTI
	set(0x4C, op("JMP", abs, opJMP, 3, false))
	set(0x6C, op("JMP", ind, opJMP, 5, false))
	set(0x20, op("JSR", abs, opJSR, 6, false))
	set(0x60, op("RTS", imp, opRTS, 6, true))
	set(0x40, op("RTI", imp, opRTI, 6, true))

	// LDA / LDX / LDY
	set(0xA9, op("LDA", imm, opLDA, 2, false))
	set(0xA5, op("LDA", zp0, opLDA, 3, false))
	set(0xB5, op("LDA", zpx, opLDA, 4, false))
	set(0xAD, op("LDA", abs, opLDA, 4, false))
	set(0xBD, op("LDA", abx, opLDA, 4, false))
	set(0xB9, op("LDA", aby, opLDA, 4, false))
	set(0xA1, op("LDA", izx, opLDA, 6, false))
	set(0xB1, op("LDA", izy, opLDA, 5, false))

	set(0xA2, op("LDX", imm, opLDX, 2, false))
	set(0xA6, op("LDX", zp0, opLDX, 3, false))
	set(0xB6, op("LDX", zpy, opLDX, 4, false))
	set(0xAE, op("LDX", abs, opLDX, 4, false))
	set(0xBE, op("LDX", aby, opLDX, 4, false))

	set(0xA0, op("LDY", imm, opLDY, 2, false))
	set(0xA4, op("LDY", zp0, opLDY, 3, false))
	set(0xB4, op("LDY", zpx, opLDY, 4, false))
	set(0xAC, op("LDY", abs, opLDY, 4, false))
	set(0xBC, op("LDY", abx, opLDY, 4, false))

	// LSR
	set(0x4A, op("LSR", imp, opLSR, 2, true))
	set(0x46, op("LSR", zp0, opLSR, 5, false))
	set(0x56, op("LSR", zpx, opLSR, 6, false))
	set(0x4E, op("LSR", abs, opLSR, 6, false))
	set(0x5E, op("LSR", abx, opLSR, 7, false))

	// NOP (official) and the common illegal NOPs that read ABX operands
	set(0xEA, op("NOP", imp, opNOP, 2, true))
	set(0x1C, op("*NOP", abx, nopPageCross, 4, false))
	set(0x3C, op("*NOP", abx, nopPageCross, 4, false))
	set(0x5C, op("*NOP", abx, nopPageCross, 4, false))
	set(0x7C, op("*NOP", abx, nopPageCross, 4, false))
	set(0xDC, op("*NOP", abx, nopPageCross, 4, false))
	set(0xFC, op("*NOP", abx, nopPageCross, 4, false))

	// ORA
	set(0x09, op("ORA", imm, opORA, 2, false))
	set(0x05, op("ORA", zp0, opORA, 3, false))
	set(0x15, op("ORA", zpx, opORA, 4, false))
	set(0x0D, op("ORA", abs, opORA, 4, false))
	set(0x1D, op("ORA", abx, opORA, 4, false))
	set(0x19, op("ORA", aby, opORA, 4, false))
	set(0x01, op("ORA", izx, opORA, 6, false))
	set(0x11, op("ORA", izy, opORA, 5, false))

	// Stack
	set(0x48, op("PHA", imp, opPHA, 3, true))
	set(0x08, op("PHP", imp, opPHP, 3, true))
	set(0x68, op("PLA", imp, opPLA, 4, true))
	set(0x28, op("PLP", imp, opPLP, 4, true))

	// ROL / ROR
	set(0x2A, op("ROL", imp, opROL, 2, true))
	set(0x26, op("ROL", zp0, opROL, 5, false))
	set(0x36, op("ROL", zpx, opROL, 6, false))
	set(0x2E, op("ROL", abs, opROL, 6, false))
	set(0x3E, op("ROL", abx, opROL, 7, false))
	set(0x6A, op("ROR", imp, opROR, 2, true))
	set(0x66, op("ROR", zp0, opROR, 5, false))
	set(0x76, op("ROR", zpx, opROR, 6, false))
	set(0x6E, op("ROR", abs, opROR, 6, false))
	set(0x7E, op("ROR", abx, opROR, 7, false))

	// SBC
	set(0xE9, op("SBC", imm, opSBC, 2, false))
	set(0xE5, op("SBC", zp0, opSBC, 3, false))
	set(0xF5, op("SBC", zpx, opSBC, 4, false))
	set(0xED, op("SBC", abs, opSBC, 4, false))
	set(0xFD, op("SBC", abx, opSBC, 4, false))
	set(0xF9, op("SBC", aby, opSBC, 4, false))
	set(0xE1, op("SBC", izx, opSBC, 6, false))
	set(0xF1, op("SBC", izy, opSBC, 5, false))

	// STA / STX / STY
	set(0x85, op("STA", zp0, opSTA, 3, false))
	set(0x95, op("STA", zpx, opSTA, 4, false))
	set(0x8D, op("STA", abs, opSTA, 4, false))
	set(0x9D, op("STA", abx, opSTA, 5, false))
	set(0x99, op("STA", aby, opSTA, 5, false))
	set(0x81, op("STA", izx, opSTA, 6, false))
	set(0x91, op("STA", izy, opSTA, 6, false))

	set(0x86, op("STX", zp0, opSTX, 3, false))
	set(0x96, op("STX", zpy, opSTX, 4, false))
	set(0x8E, op("STX", abs, opSTX, 4, false))

	set(0x84, op("STY", zp0, opSTY, 3, false))
	set(0x94, op("STY", zpx, opSTY, 4, false))
	set(0x8C, op("STY", abs, opSTY, 4, false))

	// Register transfers
	set(0xAA, op("TAX", imp, opTAX, 2, true))
	set(0xA8, op("TAY", imp, opTAY, 2, true))
	set(0xBA, op("TSX", imp, opTSX, 2, true))
	set(0x8A, op("TXA", imp, opTXA, 2, true))
	set(0x9A, op("TXS", imp, opTXS, 2, true))
	set(0x98, op("TYA", imp, opTYA, 2, true))
}
