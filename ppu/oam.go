package ppu

// Primary OAM is 64 sprites of 4 bytes each (y, tile id, attribute, x),
// addressed byte-wise by OAMADDR/OAMDATA so it is kept as a flat array
// rather than a struct slice.
const (
	oamSize          = 256
	secondaryOAMSize = 8
)

// secondarySprite is one of the (up to) 8 sprites selected for the next
// scanline during evaluation, plus the fetch/shift state the foreground
// pipeline threads through dot 340 and the following visible line.
type secondarySprite struct {
	y       uint8
	tileID  uint8
	attr    uint8
	x       uint8
	lo, hi  uint8 // pattern shift registers, reloaded at dot 340
	isZero  bool  // true iff this slot was copied from primary OAM index 0
}

func (s secondarySprite) paletteIndex() uint8 { return s.attr & 0x03 }
func (s secondarySprite) priorityBehind() bool { return s.attr&0x20 != 0 }
func (s secondarySprite) flipH() bool          { return s.attr&0x40 != 0 }
func (s secondarySprite) flipV() bool          { return s.attr&0x80 != 0 }
