package cpu

// Each addressing mode function sets c.addrAbs (or, for IMP, leaves the
// operand in the accumulator) and returns a 0/1 "page-cross bonus" bit.
// The CPU only pays that bonus cycle if the instruction's operate phase
// also requests one (spec.md §4.3: the AND-combining is intentional).

func imp(c *CPU) uint8 {
	c.fetched = c.A
	return 0
}

func imm(c *CPU) uint8 {
	c.addrAbs = c.PC
	c.PC++
	return 0
}

func zp0(c *CPU) uint8 {
	c.addrAbs = uint16(c.read(c.PC))
	c.PC++
	c.addrAbs &= 0x00FF
	return 0
}

func zpx(c *CPU) uint8 {
	c.addrAbs = uint16(c.read(c.PC) + c.X)
	c.PC++
	c.addrAbs &= 0x00FF
	return 0
}

func zpy(c *CPU) uint8 {
	c.addrAbs = uint16(c.read(c.PC) + c.Y)
	c.PC++
	c.addrAbs &= 0x00FF
	return 0
}

func rel(c *CPU) uint8 {
	off := uint16(c.read(c.PC))
	c.PC++
	if off&0x80 != 0 {
		off |= 0xFF00
	}
	c.addrRel = off
	return 0
}

func abs(c *CPU) uint8 {
	c.addrAbs = c.read16(c.PC)
	c.PC += 2
	return 0
}

func abx(c *CPU) uint8 {
	base := c.read16(c.PC)
	c.PC += 2
	c.addrAbs = base + uint16(c.X)
	if c.addrAbs&0xFF00 != base&0xFF00 {
		return 1
	}
	return 0
}

func aby(c *CPU) uint8 {
	base := c.read16(c.PC)
	c.PC += 2
	c.addrAbs = base + uint16(c.Y)
	if c.addrAbs&0xFF00 != base&0xFF00 {
		return 1
	}
	return 0
}

// ind reproduces the original 6502's page-boundary bug: when the low byte
// of the pointer is $FF, the high byte of the target is fetched from the
// start of the same page instead of crossing into the next one.
func ind(c *CPU) uint8 {
	ptr := c.read16(c.PC)
	c.PC += 2

	var lo, hi uint16
	lo = uint16(c.read(ptr))
	if ptr&0x00FF == 0x00FF {
		hi = uint16(c.read(ptr & 0xFF00))
	} else {
		hi = uint16(c.read(ptr + 1))
	}
	c.addrAbs = hi<<8 | lo
	return 0
}

func izx(c *CPU) uint8 {
	t := uint16(c.read(c.PC))
	c.PC++
	lo := uint16(c.read((t + uint16(c.X)) & 0x00FF))
	hi := uint16(c.read((t + uint16(c.X) + 1) & 0x00FF))
	c.addrAbs = hi<<8 | lo
	return 0
}

func izy(c *CPU) uint8 {
	t := uint16(c.read(c.PC))
	c.PC++
	lo := uint16(c.read(t & 0x00FF))
	hi := uint16(c.read((t + 1) & 0x00FF))
	base := hi<<8 | lo
	c.addrAbs = base + uint16(c.Y)
	if c.addrAbs&0xFF00 != base&0xFF00 {
		return 1
	}
	return 0
}
