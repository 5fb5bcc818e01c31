package bus

import (
	"testing"

	"github.com/bdwalton/nescore/cartridge"
	"github.com/bdwalton/nescore/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildROM assembles a two-bank (32 KiB) NROM image so $8000-$FFFF maps
// directly onto prg without mirroring.
func buildROM(prg []uint8) []byte {
	h := []byte{'N', 'E', 'S', 0x1A, 2, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	chr := make([]byte, 8192)
	out := append(h, prg...)
	return append(out, chr...)
}

func setVector(prg []uint8, vectorAddr, target uint16) {
	off := vectorAddr - 0x8000
	prg[off] = uint8(target)
	prg[off+1] = uint8(target >> 8)
}

func nopROM() []uint8 {
	prg := make([]uint8, 2*16384)
	for i := range prg {
		prg[i] = 0xEA
	}
	return prg
}

func TestOAMDMACopiesWRAMBlockInOrder(t *testing.T) {
	prg := nopROM()
	setVector(prg, 0xFFFC, 0x8000)
	cart, err := cartridge.LoadBytes(buildROM(prg))
	require.NoError(t, err)

	b := New(cart, nil)
	for i := 0; i < 256; i++ {
		b.wram[0x0200+i] = uint8(i)
	}

	b.Write(0x4014, 0x02)
	for i := 0; i < 2000 && b.dmaActive; i++ {
		b.Tick()
	}
	require.False(t, b.dmaActive)

	for i := 0; i < 256; i++ {
		b.Write(0x2003, uint8(i))
		assert.Equal(t, uint8(i), b.Read(0x2004), "oam byte %d", i)
	}
}

func TestOAMDMAStallsCPU(t *testing.T) {
	prg := nopROM()
	setVector(prg, 0xFFFC, 0x8000)
	cart, err := cartridge.LoadBytes(buildROM(prg))
	require.NoError(t, err)

	b := New(cart, nil)
	b.Write(0x4014, 0x02)

	ticksUntilDMADone := 0
	for b.dmaActive {
		before := b.cpu.Clocks()
		b.Tick()
		ticksUntilDMADone++
		assert.Equal(t, before, b.cpu.Clocks(), "CPU advanced during DMA")
	}
	assert.Greater(t, ticksUntilDMADone, 0)
}

func TestVBlankTriggersNMI(t *testing.T) {
	prg := nopROM()
	setVector(prg, 0xFFFC, 0x8000)
	// The NMI target lies beyond any address the NOP sled reaches before
	// vblank, so arriving there can only mean the NMI was taken.
	setVector(prg, 0xFFFA, 0xC000)
	cart, err := cartridge.LoadBytes(buildROM(prg))
	require.NoError(t, err)

	b := New(cart, nil)
	b.Write(0x2000, 0x80) // CTRL.enable_nmi

	const maxTicks = 262 * 341
	found := false
	for i := 0; i < maxTicks; i++ {
		b.Tick()
		if b.CPU().PC == 0xC000 {
			found = true
			break
		}
	}

	require.True(t, found)
	assert.Equal(t, uint8(0xFD-3), b.CPU().SP)
	assert.True(t, b.CPU().P&cpu.FlagI != 0)
}

func TestResetClearsDMAState(t *testing.T) {
	prg := nopROM()
	setVector(prg, 0xFFFC, 0x8000)
	cart, err := cartridge.LoadBytes(buildROM(prg))
	require.NoError(t, err)

	b := New(cart, nil)
	b.Write(0x4014, 0x02)
	require.True(t, b.dmaActive)

	b.Reset()

	assert.False(t, b.dmaActive)
	assert.Equal(t, uint32(0), b.masterClock)
}
