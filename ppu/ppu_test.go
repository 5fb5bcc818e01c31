package ppu

import (
	"testing"

	"github.com/bdwalton/nescore/cartridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCart struct {
	chr       [0x2000]uint8
	mirroring cartridge.Mirroring
}

func (f *fakeCart) PPURead(addr uint16) (uint8, bool)  { return f.chr[addr], true }
func (f *fakeCart) PPUWrite(addr uint16, val uint8) bool { f.chr[addr] = val; return true }
func (f *fakeCart) Mirroring() cartridge.Mirroring       { return f.mirroring }

type countingSink struct {
	seen map[[2]int]int
}

func newCountingSink() *countingSink { return &countingSink{seen: map[[2]int]int{}} }

func (s *countingSink) PutPixel(x, y int, c RGB) { s.seen[[2]int{x, y}]++ }

func newTestPPU() (*PPU, *fakeCart, *countingSink) {
	cart := &fakeCart{mirroring: cartridge.MirrorHorizontal}
	sink := newCountingSink()
	return New(cart, sink), cart, sink
}

func TestOAMDataRoundTrip(t *testing.T) {
	p, _, _ := newTestPPU()

	p.WriteRegister(0x2003, 0x10) // OAMADDR
	p.WriteRegister(0x2004, 0x99) // OAMDATA

	p.WriteRegister(0x2003, 0x10)
	assert.Equal(t, uint8(0x99), p.ReadRegister(0x2004))
}

func TestAddrDataRoundTrip(t *testing.T) {
	p, _, _ := newTestPPU()

	// write $2010 = $AB via PPUADDR/PPUDATA
	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x10)
	p.WriteRegister(0x2007, 0xAB)

	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x10)
	p.ReadRegister(0x2007) // primes the read-delay buffer with $AB
	got := p.ReadRegister(0x2007)

	assert.Equal(t, uint8(0xAB), got)
}

func TestPaletteReadHasNoDelay(t *testing.T) {
	p, _, _ := newTestPPU()
	p.palette[0x05] = 0x2C

	p.WriteRegister(0x2006, 0x3F)
	p.WriteRegister(0x2006, 0x05)

	assert.Equal(t, uint8(0x2C), p.ReadRegister(0x2007))
}

func TestPaletteMirrorFold(t *testing.T) {
	p, _, _ := newTestPPU()
	p.busWrite(0x3F00, 0x11)

	assert.Equal(t, uint8(0x11), p.busRead(0x3F10))
}

func TestStatusReadClearsVBlankAndToggle(t *testing.T) {
	p, _, _ := newTestPPU()
	p.status.set(statusVBlank, true)
	p.w = true

	got := p.ReadRegister(0x2002)

	assert.True(t, got&0x80 != 0)
	assert.False(t, p.status.has(statusVBlank))
	assert.False(t, p.w)
}

func TestFrameCompletesEveryMasterTickCount(t *testing.T) {
	p, _, _ := newTestPPU()

	const dotsPerFrame = 262 * 341
	for i := 0; i < dotsPerFrame; i++ {
		require.False(t, p.FrameCompleted(), "tick %d", i)
		p.Clock()
	}
	assert.True(t, p.FrameCompleted())
}

func TestVBlankSetsStatusAndNMI(t *testing.T) {
	p, _, _ := newTestPPU()
	p.ctrl = ctrlEnableNMI

	for p.scanLine != 241 || p.dot != 1 {
		p.Clock()
	}
	p.Clock() // the dot==1 tick itself runs the check before dot advances

	assert.True(t, p.status.has(statusVBlank))
	assert.True(t, p.PendingNMI())
}

func TestNoNMIWhenDisabled(t *testing.T) {
	p, _, _ := newTestPPU()

	for p.scanLine != 241 || p.dot != 2 {
		p.Clock()
	}

	assert.True(t, p.status.has(statusVBlank))
	assert.False(t, p.PendingNMI())
}

func TestPreRenderClearsStatusFlags(t *testing.T) {
	p, _, _ := newTestPPU()
	p.status.set(statusVBlank, true)
	p.status.set(statusSpriteZeroHit, true)
	p.status.set(statusSpriteOverflow, true)

	for p.scanLine != -1 || p.dot != 1 {
		p.Clock()
	}
	p.Clock()

	assert.False(t, p.status.has(statusVBlank))
	assert.False(t, p.status.has(statusSpriteZeroHit))
	assert.False(t, p.status.has(statusSpriteOverflow))
}

func TestSpriteEvaluationFindsOverflow(t *testing.T) {
	p, _, _ := newTestPPU()
	for i := 0; i < 9; i++ {
		p.oam[i*4] = 10 // all on scanline 10 once scanLine==10
	}
	p.scanLine = 10

	p.evaluateSprites()

	assert.Equal(t, secondaryOAMSize, p.secondaryCount)
	assert.True(t, p.status.has(statusSpriteOverflow))
}

func TestEachPixelPaintedOncePerFrame(t *testing.T) {
	p, _, sink := newTestPPU()
	p.mask = maskRenderBG | maskRenderSprites

	const dotsPerFrame = 262 * 341
	for i := 0; i < dotsPerFrame; i++ {
		p.Clock()
	}

	for y := 0; y < 240; y++ {
		for x := 0; x < 256; x++ {
			assert.Equal(t, 1, sink.seen[[2]int{x, y}], "pixel (%d,%d)", x, y)
		}
	}
}
