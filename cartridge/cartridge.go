// Package cartridge parses iNES ROM files and owns the loaded PRG/CHR
// byte arrays, delegating every bus address to its Mapper.
package cartridge

import (
	"fmt"
	"os"

	"github.com/bdwalton/nescore/mapper"
)

// Mirroring selects how $2000-$2FFF aliases onto the PPU's 2 KiB of
// nametable RAM.
type Mirroring uint8

const (
	MirrorHorizontal Mirroring = iota
	MirrorVertical
	MirrorOneScreenLo
	MirrorOneScreenHi
)

func (m Mirroring) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorOneScreenLo:
		return "one-screen-lo"
	case MirrorOneScreenHi:
		return "one-screen-hi"
	default:
		return "unknown"
	}
}

const (
	headerSize     = 16
	trainerSize    = 512
	prgBankSize    = 16384
	chrBankSize    = 8192
	chrRAMSize     = 8192
	inesMagic      = "NES\x1a"
)

// Cartridge owns the ROM's PRG/CHR byte arrays and the Mapper that
// translates bus addresses into offsets within them.
type Cartridge struct {
	prg []uint8
	chr []uint8

	mirroring Mirroring
	mapper    mapper.Mapper
}

// Load reads and parses an iNES file at path, constructing the Mapper
// named by the header. Any read failure, bad magic, or unknown mapper id
// is an unrecoverable construction error (spec.md §4.2, §7).
func Load(path string) (*Cartridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cartridge: reading %q: %w", path, err)
	}
	return LoadBytes(data)
}

// LoadBytes parses an iNES image already resident in memory.
func LoadBytes(data []byte) (*Cartridge, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("cartridge: file too small for an iNES header")
	}
	if string(data[0:4]) != inesMagic {
		return nil, fmt.Errorf("cartridge: bad iNES magic %q", data[0:4])
	}

	prgBanks := data[4]
	chrBanks := data[5]
	flags6 := data[6]
	flags7 := data[7]

	mirroring := MirrorHorizontal
	if flags6&0x01 != 0 {
		mirroring = MirrorVertical
	}
	mapperID := (flags7 & 0xF0) | (flags6 >> 4)

	off := headerSize
	if flags6&0x04 != 0 {
		off += trainerSize
	}

	prgLen := int(prgBanks) * prgBankSize
	if off+prgLen > len(data) {
		return nil, fmt.Errorf("cartridge: truncated PRG-ROM: want %d bytes, have %d", prgLen, len(data)-off)
	}
	prg := make([]uint8, prgLen)
	copy(prg, data[off:off+prgLen])
	off += prgLen

	var chr []uint8
	if chrBanks == 0 {
		chr = make([]uint8, chrRAMSize)
	} else {
		chrLen := int(chrBanks) * chrBankSize
		if off+chrLen > len(data) {
			return nil, fmt.Errorf("cartridge: truncated CHR-ROM: want %d bytes, have %d", chrLen, len(data)-off)
		}
		chr = make([]uint8, chrLen)
		copy(chr, data[off:off+chrLen])
	}

	m, err := mapper.New(mapperID, mapper.Geometry{PRGBanks: prgBanks, CHRBanks: chrBanks})
	if err != nil {
		return nil, fmt.Errorf("cartridge: %w", err)
	}

	return &Cartridge{
		prg:       prg,
		chr:       chr,
		mirroring: mirroring,
		mapper:    m,
	}, nil
}

func (c *Cartridge) Mirroring() Mirroring { return c.mirroring }
func (c *Cartridge) MapperName() string   { return c.mapper.Name() }

// CPURead is consulted by the bus before its own WRAM/MMIO decoding, so a
// future bank-switching mapper's control registers take precedence over
// mirror decoding (spec.md §4.2).
func (c *Cartridge) CPURead(addr uint16) (uint8, bool) {
	r := c.mapper.CPURead(addr)
	if !r.Hit || int(r.Offset) >= len(c.prg) {
		return 0, false
	}
	return c.prg[r.Offset], true
}

func (c *Cartridge) CPUWrite(addr uint16, val uint8) bool {
	r := c.mapper.CPUWrite(addr, val)
	if !r.Hit || !r.Writable || int(r.Offset) >= len(c.prg) {
		return false
	}
	c.prg[r.Offset] = val
	return true
}

func (c *Cartridge) PPURead(addr uint16) (uint8, bool) {
	r := c.mapper.PPURead(addr)
	if !r.Hit || int(r.Offset) >= len(c.chr) {
		return 0, false
	}
	return c.chr[r.Offset], true
}

func (c *Cartridge) PPUWrite(addr uint16, val uint8) bool {
	r := c.mapper.PPUWrite(addr, val)
	if !r.Hit || !r.Writable || int(r.Offset) >= len(c.chr) {
		return false
	}
	c.chr[r.Offset] = val
	return true
}
