package cartridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildROM assembles a minimal iNES image: header + prgBanks*16K PRG +
// chrBanks*8K CHR. prg lets a test seed specific bytes (e.g. reset
// vector) at the end of the single PRG bank.
func buildROM(prgBanks, chrBanks, flags6, flags7 uint8, prg []uint8) []byte {
	h := []byte{'N', 'E', 'S', 0x1A, prgBanks, chrBanks, flags6, flags7, 0, 0, 0, 0, 0, 0, 0, 0}
	body := make([]byte, int(prgBanks)*prgBankSize+int(chrBanks)*chrBankSize)
	copy(body, prg)
	return append(h, body...)
}

func TestLoadBytesPowerOnVector(t *testing.T) {
	prg := make([]uint8, prgBankSize)
	// Reset vector at $FFFC/$FFFD within a single 16K bank mapped to
	// $C000-$FFFF: offset 0x3FFC/0x3FFD.
	prg[0x3FFC] = 0x00
	prg[0x3FFD] = 0xC0

	c, err := LoadBytes(buildROM(1, 1, 0, 0, prg))
	require.NoError(t, err)

	lo, ok := c.CPURead(0xFFFC)
	require.True(t, ok)
	hi, ok := c.CPURead(0xFFFD)
	require.True(t, ok)
	assert.Equal(t, uint16(0xC000), uint16(hi)<<8|uint16(lo))
}

func TestLoadBytesMirroring(t *testing.T) {
	horiz, err := LoadBytes(buildROM(1, 1, 0x00, 0, nil))
	require.NoError(t, err)
	assert.Equal(t, MirrorHorizontal, horiz.Mirroring())

	vert, err := LoadBytes(buildROM(1, 1, 0x01, 0, nil))
	require.NoError(t, err)
	assert.Equal(t, MirrorVertical, vert.Mirroring())
}

func TestLoadBytesCHRRAMWhenZeroBanks(t *testing.T) {
	c, err := LoadBytes(buildROM(1, 0, 0, 0, nil))
	require.NoError(t, err)

	assert.True(t, c.PPUWrite(0x0000, 0xAB))
	v, ok := c.PPURead(0x0000)
	require.True(t, ok)
	assert.Equal(t, uint8(0xAB), v)
}

func TestLoadBytesUnknownMapperFails(t *testing.T) {
	_, err := LoadBytes(buildROM(1, 1, 0xF0, 0xF0, nil))
	assert.Error(t, err)
}

func TestLoadBytesBadMagicFails(t *testing.T) {
	rom := buildROM(1, 1, 0, 0, nil)
	rom[0] = 'X'
	_, err := LoadBytes(rom)
	assert.Error(t, err)
}

func TestLoadBytesTruncatedFails(t *testing.T) {
	rom := buildROM(2, 1, 0, 0, nil)
	_, err := LoadBytes(rom[:len(rom)-100])
	assert.Error(t, err)
}

func TestROMWritesRejected(t *testing.T) {
	c, err := LoadBytes(buildROM(1, 1, 0, 0, nil))
	require.NoError(t, err)
	assert.False(t, c.CPUWrite(0x8000, 0x42))
}
