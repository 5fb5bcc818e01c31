package ppu

// loopy stores one of the two 15-bit scroll/address registers (v or t)
// popularized on the NESdev wiki:
//
//	yyy NN YYYYY XXXXX
//	||| || ||||| +++++-- coarse X scroll
//	||| || +++++-------- coarse Y scroll
//	||| ++-------------- nametable select
//	+++----------------- fine Y scroll
type loopy struct {
	data uint16 // only 15 bits used
}

func (l *loopy) raw() uint16 { return l.data }

func (l *loopy) setRaw(v uint16) { l.data = v & 0x7FFF }

func (l *loopy) coarseX() uint16 { return l.data & 0x001F }

func (l *loopy) setCoarseX(n uint16) { l.data = (l.data &^ 0x001F) | (n & 0x001F) }

func (l *loopy) coarseY() uint16 { return (l.data & 0x03E0) >> 5 }

func (l *loopy) setCoarseY(n uint16) { l.data = (l.data &^ 0x03E0) | ((n & 0x001F) << 5) }

func (l *loopy) nametableX() uint16 { return (l.data & 0x0400) >> 10 }

func (l *loopy) setNametableX(n uint16) { l.data = (l.data &^ 0x0400) | ((n & 1) << 10) }

func (l *loopy) nametableY() uint16 { return (l.data & 0x0800) >> 11 }

func (l *loopy) setNametableY(n uint16) { l.data = (l.data &^ 0x0800) | ((n & 1) << 11) }

func (l *loopy) fineY() uint16 { return (l.data & 0x7000) >> 12 }

func (l *loopy) setFineY(n uint16) { l.data = (l.data &^ 0x7000) | ((n & 0x0007) << 12) }
