// Package ppu implements a 2C02 picture processing unit: a per-dot scanline
// state machine producing one pixel per visible dot, driven exclusively by
// Clock.
package ppu

import "github.com/bdwalton/nescore/cartridge"

// Cartridge is the PPU-side bus surface a cartridge exposes: CHR
// read/write and the nametable mirroring mode selected by the header.
type Cartridge interface {
	PPURead(addr uint16) (uint8, bool)
	PPUWrite(addr uint16, val uint8) bool
	Mirroring() cartridge.Mirroring
}

// PPU holds every piece of 2C02 state: MMIO registers, the loopy v/t
// scroll/address pair, OAM, the background fetch pipeline and its shift
// registers, and the foreground (sprite) evaluation/fetch pipeline.
type PPU struct {
	cart Cartridge
	sink PixelSink

	ctrl   ctrlReg
	mask   maskReg
	status statusReg

	v, t  loopy
	fineX uint8
	w     bool // write-toggle latch shared by $2005 and $2006

	nameTables [2][1024]uint8
	palette    [32]uint8

	oam     [oamSize]uint8
	oamAddr uint8

	secondary           [secondaryOAMSize]secondarySprite
	secondaryCount      int
	spriteZeroCandidate bool

	nextTileID    uint8
	nextAttr      uint8
	nextPatternLo uint8
	nextPatternHi uint8

	shiftPatternLo uint16
	shiftPatternHi uint16
	shiftAttrLo    uint16
	shiftAttrHi    uint16

	dataBuffer uint8

	scanLine int32 // [-1, 260]
	dot      int32 // [0, 340]

	frameCompleted bool
	pendingNMI     bool
}

// New wires a PPU against its cartridge and pixel sink and resets it.
func New(cart Cartridge, sink PixelSink) *PPU {
	p := &PPU{cart: cart, sink: sink}
	p.Reset()
	return p
}

// Reset returns the PPU to its documented post-power state. Nametable,
// palette and OAM contents are left as-is, matching real hardware.
func (p *PPU) Reset() {
	p.ctrl, p.mask, p.status = 0, 0, 0
	p.v, p.t = loopy{}, loopy{}
	p.fineX, p.w = 0, false
	p.oamAddr = 0
	p.dataBuffer = 0
	p.nextTileID, p.nextAttr, p.nextPatternLo, p.nextPatternHi = 0, 0, 0, 0
	p.shiftPatternLo, p.shiftPatternHi, p.shiftAttrLo, p.shiftAttrHi = 0, 0, 0, 0
	p.secondaryCount = 0
	p.spriteZeroCandidate = false
	p.scanLine, p.dot = -1, 0
	p.frameCompleted = false
	p.pendingNMI = false
}

// FrameCompleted reports whether the PPU finished rendering a full frame
// since the last AckFrame call.
func (p *PPU) FrameCompleted() bool { return p.frameCompleted }

// AckFrame clears the frame-completed flag.
func (p *PPU) AckFrame() { p.frameCompleted = false }

// PendingNMI reports whether the PPU has raised NMI since the last AckNMI.
func (p *PPU) PendingNMI() bool { return p.pendingNMI }

// AckNMI clears the pending-NMI flag; the bus calls this once it has
// delivered the interrupt to the CPU.
func (p *PPU) AckNMI() { p.pendingNMI = false }

// OAMPoke writes directly into primary OAM, bypassing OAMADDR. Used by the
// bus during OAM-DMA.
func (p *PPU) OAMPoke(addr uint8, val uint8) { p.oam[addr] = val }

// --- CPU-facing MMIO ($2000-$2007, mirrored every 8 bytes) ---

// ReadRegister services a CPU read of $2000-$3FFF (addr & 7 selects the
// register).
func (p *PPU) ReadRegister(addr uint16) uint8 {
	switch addr & 7 {
	case 2:
		result := uint8(p.status)&0xE0 | (p.dataBuffer & 0x1F)
		p.status.set(statusVBlank, false)
		p.w = false
		return result
	case 4:
		return p.oam[p.oamAddr]
	case 7:
		return p.readData()
	default:
		return 0
	}
}

// WriteRegister services a CPU write of $2000-$3FFF.
func (p *PPU) WriteRegister(addr uint16, val uint8) {
	switch addr & 7 {
	case 0:
		p.ctrl = ctrlReg(val)
		p.t.setNametableX(uint16(val) & 1)
		p.t.setNametableY(uint16(val>>1) & 1)
	case 1:
		p.mask = maskReg(val)
	case 3:
		p.oamAddr = val
	case 4:
		p.oam[p.oamAddr] = val
		p.oamAddr++
	case 5:
		p.writeScroll(val)
	case 6:
		p.writeAddr(val)
	case 7:
		p.writeData(val)
	}
}

func (p *PPU) writeScroll(val uint8) {
	if !p.w {
		p.fineX = val & 0x07
		p.t.setCoarseX(uint16(val) >> 3)
	} else {
		p.t.setFineY(uint16(val) & 0x07)
		p.t.setCoarseY(uint16(val) >> 3)
	}
	p.w = !p.w
}

func (p *PPU) writeAddr(val uint8) {
	if !p.w {
		p.t.setRaw((p.t.raw() & 0x00FF) | (uint16(val&0x3F) << 8))
	} else {
		p.t.setRaw((p.t.raw() & 0xFF00) | uint16(val))
		p.v.setRaw(p.t.raw())
	}
	p.w = !p.w
}

// readData implements the PPUDATA read-delay buffer: the byte returned is
// the one fetched by the *previous* read, except across the palette
// boundary where the fetch is immediate.
func (p *PPU) readData() uint8 {
	result := p.dataBuffer
	p.dataBuffer = p.busRead(p.v.raw())
	if p.v.raw() >= 0x3F00 {
		result = p.dataBuffer
	}
	p.v.setRaw(p.v.raw() + p.ctrl.incrementStep())
	return result
}

func (p *PPU) writeData(val uint8) {
	p.busWrite(p.v.raw(), val)
	p.v.setRaw(p.v.raw() + p.ctrl.incrementStep())
}

// --- PPU-side bus ($0000-$3FFF) ---

func (p *PPU) busRead(addr uint16) uint8 {
	addr &= 0x3FFF
	switch {
	case addr <= 0x1FFF:
		if v, ok := p.cart.PPURead(addr); ok {
			return v
		}
		return 0
	case addr <= 0x3EFF:
		t, o := p.nameTableSlot(addr)
		return p.nameTables[t][o]
	default:
		return p.palette[paletteIndex(addr)]
	}
}

func (p *PPU) busWrite(addr uint16, val uint8) {
	addr &= 0x3FFF
	switch {
	case addr <= 0x1FFF:
		p.cart.PPUWrite(addr, val)
	case addr <= 0x3EFF:
		t, o := p.nameTableSlot(addr)
		p.nameTables[t][o] = val
	default:
		p.palette[paletteIndex(addr)] = val
	}
}

// nameTableSlot folds a $2000-$3EFF address down to one of the two
// physical 1 KiB nametables per the cartridge's mirroring mode.
func (p *PPU) nameTableSlot(addr uint16) (table int, offset uint16) {
	a := addr & 0x0FFF
	offset = a & 0x03FF
	switch p.cart.Mirroring() {
	case cartridge.MirrorVertical:
		if a < 0x0400 || (a >= 0x0800 && a < 0x0C00) {
			table = 0
		} else {
			table = 1
		}
	case cartridge.MirrorOneScreenHi:
		table = 1
	case cartridge.MirrorOneScreenLo:
		table = 0
	default: // Horizontal
		if a < 0x0800 {
			table = 0
		} else {
			table = 1
		}
	}
	return table, offset
}

func paletteIndex(addr uint16) uint16 {
	idx := addr & 0x1F
	if idx >= 0x10 && idx%4 == 0 {
		idx -= 0x10
	}
	return idx
}

// --- the per-dot state machine ---

// Clock advances the PPU by one dot (spec.md §4.4).
func (p *PPU) Clock() {
	if p.scanLine >= -1 && p.scanLine <= 239 {
		p.renderScanline()
	}

	if p.scanLine == 241 && p.dot == 1 {
		p.status.set(statusVBlank, true)
		if p.ctrl.enableNMI() {
			p.pendingNMI = true
		}
	}

	if p.scanLine >= 0 && p.scanLine <= 239 && p.dot >= 1 && p.dot <= 256 {
		p.renderPixel()
	}

	p.dot++
	if p.dot == 341 {
		p.dot = 0
		p.scanLine++
		if p.scanLine == 261 {
			p.scanLine = -1
			p.frameCompleted = true
		}
	}
}

func (p *PPU) renderScanline() {
	if p.scanLine == -1 && p.dot == 1 {
		p.status.set(statusVBlank, false)
		p.status.set(statusSpriteOverflow, false)
		p.status.set(statusSpriteZeroHit, false)
		for i := range p.secondary {
			p.secondary[i].lo, p.secondary[i].hi = 0, 0
		}
	}

	if (p.dot >= 2 && p.dot <= 257) || (p.dot >= 321 && p.dot <= 337) {
		if p.mask.renderBG() {
			p.shiftPatternLo <<= 1
			p.shiftPatternHi <<= 1
			p.shiftAttrLo <<= 1
			p.shiftAttrHi <<= 1
		}

		switch (p.dot - 1) % 8 {
		case 0:
			p.loadBackgroundShifters()
			p.nextTileID = p.busRead(0x2000 | (p.v.raw() & 0x0FFF))
		case 2:
			p.fetchAttribute()
		case 4:
			p.fetchPatternPlane(0)
		case 6:
			p.fetchPatternPlane(8)
		case 7:
			p.incrementScrollX()
		}
	}

	if p.dot == 256 {
		p.incrementScrollY()
	}
	if p.dot == 257 {
		p.loadBackgroundShifters()
		p.v.setCoarseX(p.t.coarseX())
		p.v.setNametableX(p.t.nametableX())
	}
	if p.dot == 338 || p.dot == 340 {
		p.nextTileID = p.busRead(0x2000 | (p.v.raw() & 0x0FFF))
	}
	if p.scanLine == -1 && p.dot >= 280 && p.dot <= 304 {
		p.v.setFineY(p.t.fineY())
		p.v.setNametableY(p.t.nametableY())
		p.v.setCoarseY(p.t.coarseY())
	}

	if p.scanLine >= 0 {
		if p.dot == 257 {
			p.evaluateSprites()
		}
		if p.dot == 340 {
			p.fetchSpritePatterns()
		}
	}
}

func (p *PPU) loadBackgroundShifters() {
	p.shiftPatternLo = (p.shiftPatternLo & 0xFF00) | uint16(p.nextPatternLo)
	p.shiftPatternHi = (p.shiftPatternHi & 0xFF00) | uint16(p.nextPatternHi)

	attrLoFill, attrHiFill := uint16(0), uint16(0)
	if p.nextAttr&0x01 != 0 {
		attrLoFill = 0xFF
	}
	if p.nextAttr&0x02 != 0 {
		attrHiFill = 0xFF
	}
	p.shiftAttrLo = (p.shiftAttrLo & 0xFF00) | attrLoFill
	p.shiftAttrHi = (p.shiftAttrHi & 0xFF00) | attrHiFill
}

func (p *PPU) fetchAttribute() {
	addr := 0x23C0 | (p.v.nametableY() << 11) | (p.v.nametableX() << 10) |
		((p.v.coarseY() >> 2) << 3) | (p.v.coarseX() >> 2)
	attr := p.busRead(addr)
	if p.v.coarseY()&0x02 != 0 {
		attr >>= 4
	}
	if p.v.coarseX()&0x02 != 0 {
		attr >>= 2
	}
	p.nextAttr = attr & 0x03
}

// fetchPatternPlane fetches the low (planeOffset 0) or high (planeOffset
// 8) bit-plane byte of the background tile currently latched in
// nextTileID.
func (p *PPU) fetchPatternPlane(planeOffset uint16) {
	addr := (p.ctrl.patternBG() << 12) + (uint16(p.nextTileID) << 4) + p.v.fineY() + planeOffset
	if planeOffset == 0 {
		p.nextPatternLo = p.busRead(addr)
	} else {
		p.nextPatternHi = p.busRead(addr)
	}
}

func (p *PPU) incrementScrollX() {
	if p.v.coarseX() == 31 {
		p.v.setCoarseX(0)
		p.v.setNametableX(p.v.nametableX() ^ 1)
	} else {
		p.v.setCoarseX(p.v.coarseX() + 1)
	}
}

func (p *PPU) incrementScrollY() {
	if p.v.fineY() < 7 {
		p.v.setFineY(p.v.fineY() + 1)
		return
	}
	p.v.setFineY(0)
	switch p.v.coarseY() {
	case 29:
		p.v.setCoarseY(0)
		p.v.setNametableY(p.v.nametableY() ^ 1)
	case 31:
		p.v.setCoarseY(0)
	default:
		p.v.setCoarseY(p.v.coarseY() + 1)
	}
}

func (p *PPU) evaluateSprites() {
	height := p.ctrl.spriteHeight()
	count := 0
	zeroCandidate := false
	overflow := false

	for i := range p.secondary {
		p.secondary[i] = secondarySprite{y: 0xFF, tileID: 0xFF, attr: 0xFF, x: 0xFF}
	}

	for i := 0; i < 64; i++ {
		y := p.oam[i*4]
		diff := p.scanLine - int32(y)
		if diff < 0 || diff >= int32(height) {
			continue
		}
		if count < secondaryOAMSize {
			s := &p.secondary[count]
			s.y = y
			s.tileID = p.oam[i*4+1]
			s.attr = p.oam[i*4+2]
			s.x = p.oam[i*4+3]
			s.isZero = i == 0
			if i == 0 {
				zeroCandidate = true
			}
			count++
		} else {
			overflow = true
			break
		}
	}

	p.secondaryCount = count
	p.spriteZeroCandidate = zeroCandidate
	p.status.set(statusSpriteOverflow, overflow)
}

func (p *PPU) fetchSpritePatterns() {
	height := int32(p.ctrl.spriteHeight())
	for i := 0; i < p.secondaryCount; i++ {
		s := &p.secondary[i]
		row := p.scanLine - int32(s.y)
		if s.flipV() {
			row = height - 1 - row
		}

		var addr uint16
		if height == 16 {
			table := uint16(s.tileID & 0x01)
			tile := uint16(s.tileID &^ 0x01)
			if row >= 8 {
				tile++
				row -= 8
			}
			addr = (table << 12) + (tile << 4) + uint16(row)
		} else {
			addr = (p.ctrl.patternSprite() << 12) + (uint16(s.tileID) << 4) + uint16(row)
		}

		lo := p.busRead(addr)
		hi := p.busRead(addr + 8)
		if s.flipH() {
			lo, hi = reverseBits(lo), reverseBits(hi)
		}
		s.lo, s.hi = lo, hi
	}
	for i := p.secondaryCount; i < secondaryOAMSize; i++ {
		p.secondary[i].lo, p.secondary[i].hi = 0, 0
	}
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

func (p *PPU) renderPixel() {
	x := int(p.dot - 1)
	y := int(p.scanLine)

	var bgPixel, bgPalette uint8
	if p.mask.renderBG() {
		muxBit := uint16(0x8000) >> p.fineX
		lo, hi := uint8(0), uint8(0)
		if p.shiftPatternLo&muxBit != 0 {
			lo = 1
		}
		if p.shiftPatternHi&muxBit != 0 {
			hi = 1
		}
		bgPixel = hi<<1 | lo

		a0, a1 := uint8(0), uint8(0)
		if p.shiftAttrLo&muxBit != 0 {
			a0 = 1
		}
		if p.shiftAttrHi&muxBit != 0 {
			a1 = 1
		}
		bgPalette = a1<<1 | a0
	}

	var fgPixel, fgPalette uint8
	fgPriorityFront := false
	spriteZeroRendered := false

	if p.mask.renderSprites() {
		for i := 0; i < p.secondaryCount; i++ {
			s := &p.secondary[i]
			if s.x != 0 {
				continue
			}
			pixel := uint8(0)
			if s.lo&0x80 != 0 {
				pixel |= 1
			}
			if s.hi&0x80 != 0 {
				pixel |= 2
			}
			if pixel != 0 && fgPixel == 0 {
				fgPixel = pixel
				fgPalette = s.paletteIndex() + 4
				fgPriorityFront = !s.priorityBehind()
				if s.isZero {
					spriteZeroRendered = true
				}
			}
		}
		for i := 0; i < p.secondaryCount; i++ {
			s := &p.secondary[i]
			if s.x > 0 {
				s.x--
			} else {
				s.lo <<= 1
				s.hi <<= 1
			}
		}
	}

	var pixel, palette uint8
	switch {
	case bgPixel == 0 && fgPixel == 0:
		pixel, palette = 0, 0
	case bgPixel == 0:
		pixel, palette = fgPixel, fgPalette
	case fgPixel == 0:
		pixel, palette = bgPixel, bgPalette
	default:
		if fgPriorityFront {
			pixel, palette = fgPixel, fgPalette
		} else {
			pixel, palette = bgPixel, bgPalette
		}

		windowLo := int32(1)
		if !(p.mask.renderBGLeft() && p.mask.renderSprLeft()) {
			windowLo = 9
		}
		if p.spriteZeroCandidate && spriteZeroRendered && p.dot >= windowLo && p.dot < 257 {
			p.status.set(statusSpriteZeroHit, true)
		}
	}

	colorAddr := uint16(0x3F00) + uint16(palette)<<2 + uint16(pixel)
	colorIndex := p.busRead(colorAddr)
	if p.mask.grayscale() {
		colorIndex &= 0x30
	} else {
		colorIndex &= 0x3F
	}

	if p.sink != nil {
		p.sink.PutPixel(x, y, systemPalette[colorIndex])
	}
}
