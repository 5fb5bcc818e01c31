// Package mapper implements cartridge-side address translation.
//
// A Mapper answers four questions for the bus: where in PRG/CHR space does
// a CPU or PPU address land, and is that location writable. Growing the
// set of supported cartridge families is pure addition to the registry
// below; the bus and PPU never switch on a mapper's concrete type.
package mapper

import "fmt"

// Result is the outcome of translating a bus address. A Miss means the
// address isn't claimed by this mapper at all; the caller (Cartridge)
// reports the access as unhandled, so the bus falls through to its own
// decoding and the PPU reads open-bus 0.
type Result struct {
	Offset   uint32
	Writable bool
	Hit      bool
}

func Hit(offset uint32, writable bool) Result {
	return Result{Offset: offset, Writable: writable, Hit: true}
}

func Miss() Result {
	return Result{}
}

// Mapper is the polymorphic address-translation policy selected by a
// cartridge's header mapper id. Every method is a pure function of the
// supplied address and the mapper's own (fixed, for NROM) bank layout.
type Mapper interface {
	// Name identifies the mapper for diagnostics (e.g. "NROM").
	Name() string
	CPURead(addr uint16) Result
	CPUWrite(addr uint16, val uint8) Result
	PPURead(addr uint16) Result
	PPUWrite(addr uint16, val uint8) Result
}

// Geometry describes the bank counts a Mapper needs to build its address
// translation; Cartridge supplies it at construction time.
type Geometry struct {
	PRGBanks uint8 // number of 16 KiB PRG-ROM banks
	CHRBanks uint8 // number of 8 KiB CHR-ROM banks; 0 means CHR-RAM
}

type factory func(Geometry) (Mapper, error)

var registry = map[uint8]factory{}

func register(id uint8, f factory) {
	if _, ok := registry[id]; ok {
		panic(fmt.Sprintf("mapper id %d already registered", id))
	}
	registry[id] = f
}

// New constructs the Mapper for the given iNES mapper id. An unknown id is
// a clean, reported construction failure (spec.md §4.1, §7) rather than a
// panic: the core must tolerate ROMs using mapper families it doesn't
// implement yet.
func New(id uint8, geom Geometry) (Mapper, error) {
	f, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("mapper: unsupported mapper id %d", id)
	}
	return f(geom)
}
