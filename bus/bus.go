// Package bus wires the CPU, PPU and cartridge together and drives the
// master clock. It owns work RAM, the CPU-side MMIO decode, OAM-DMA, and
// the controller shift registers.
package bus

import (
	"github.com/bdwalton/nescore/cartridge"
	"github.com/bdwalton/nescore/cpu"
	"github.com/bdwalton/nescore/ppu"
)

const wramSize = 2048

// Bus is the single owner of the three chips (spec.md §4.5, §9): the CPU
// and PPU never hold pointers to each other. The CPU holds only this bus;
// the PPU holds only the cartridge and its pixel sink.
type Bus struct {
	wram [wramSize]uint8

	cart *cartridge.Cartridge
	ppu  *ppu.PPU
	cpu  *cpu.CPU

	controllerState [2]uint8
	controllerShift [2]uint8

	masterClock uint32

	dmaActive bool
	dmaIdle   bool
	dmaPage   uint8
	dmaAddr   uint8
	dmaData   uint8
}

// New wires a Bus around an already-loaded cartridge and pixel sink, then
// resets it.
func New(cart *cartridge.Cartridge, sink ppu.PixelSink) *Bus {
	b := &Bus{cart: cart}
	b.ppu = ppu.New(cart, sink)
	b.cpu = cpu.New(b)
	b.Reset()
	return b
}

// CPU exposes the wired CPU for host tooling (the debugger's disassembly
// view, register dump, and stepped execution).
func (b *Bus) CPU() *cpu.CPU { return b.cpu }

// PPU exposes the wired PPU for host tooling.
func (b *Bus) PPU() *ppu.PPU { return b.ppu }

// Reset cancels any in-flight DMA and returns every chip to its
// post-power state (spec.md §4.5, §5).
func (b *Bus) Reset() {
	b.cpu.Reset()
	b.ppu.Reset()
	b.masterClock = 0
	b.dmaActive, b.dmaIdle = false, false
	b.dmaPage, b.dmaAddr, b.dmaData = 0, 0, 0
	b.controllerShift = [2]uint8{}
}

// SetControllerState latches a host-polled input snapshot for the given
// port (0 or 1); bit order is A,B,Select,Start,Up,Down,Left,Right from
// bit 7 to bit 0 (spec.md §6).
func (b *Bus) SetControllerState(port int, bits uint8) {
	b.controllerState[port&1] = bits
}

// Read implements cpu.Bus. The cartridge is consulted before any of the
// bus's own decoding so a future bank-switching mapper's registers take
// precedence over mirror decoding.
func (b *Bus) Read(addr uint16) uint8 {
	if v, ok := b.cart.CPURead(addr); ok {
		return v
	}
	switch {
	case addr <= 0x1FFF:
		return b.wram[addr&0x07FF]
	case addr <= 0x3FFF:
		return b.ppu.ReadRegister(addr)
	case addr == 0x4016 || addr == 0x4017:
		return b.readController(addr)
	default:
		return 0
	}
}

// Write implements cpu.Bus.
func (b *Bus) Write(addr uint16, val uint8) {
	if b.cart.CPUWrite(addr, val) {
		return
	}
	switch {
	case addr <= 0x1FFF:
		b.wram[addr&0x07FF] = val
	case addr <= 0x3FFF:
		b.ppu.WriteRegister(addr, val)
	case addr == 0x4014:
		b.dmaPage = val
		b.dmaAddr = 0
		b.dmaActive = true
		b.dmaIdle = true
	case addr == 0x4016 || addr == 0x4017:
		port := addr & 1
		b.controllerShift[port] = b.controllerState[port]
	}
}

func (b *Bus) readController(addr uint16) uint8 {
	port := addr & 1
	var bit uint8
	if b.controllerShift[port]&0x80 != 0 {
		bit = 1
	}
	b.controllerShift[port] <<= 1
	return bit
}

// Tick advances every chip by one master clock tick (spec.md §4.5): the
// PPU every tick, the CPU every third tick unless OAM-DMA owns those
// cycles, then NMI delivery.
func (b *Bus) Tick() {
	b.ppu.Clock()

	if b.masterClock%3 == 0 {
		switch {
		case b.dmaActive && b.dmaIdle:
			if b.masterClock%2 == 1 {
				b.dmaIdle = false
			}
		case b.dmaActive:
			if b.masterClock%2 == 0 {
				b.dmaData = b.Read(uint16(b.dmaPage)<<8 | uint16(b.dmaAddr))
			} else {
				b.ppu.OAMPoke(b.dmaAddr, b.dmaData)
				b.dmaAddr++
				if b.dmaAddr == 0 {
					b.dmaActive = false
					b.dmaIdle = true
				}
			}
		default:
			b.cpu.Clock()
		}
	}

	if b.ppu.PendingNMI() {
		b.cpu.NMI()
		b.ppu.AckNMI()
	}

	b.masterClock++
}

// Step advances the bus until the CPU reaches its next instruction
// boundary and returns the number of master ticks consumed, useful for
// the debugger's single-step command (spec.md §6).
func (b *Bus) Step() int {
	ticks := 0
	start := b.cpu.Clocks()
	for {
		b.Tick()
		ticks++
		if b.cpu.Clocks() != start && b.cpu.InstructionComplete() {
			return ticks
		}
	}
}

// RunFrame advances the bus until the PPU reports a completed frame, then
// acknowledges it.
func (b *Bus) RunFrame() {
	for !b.ppu.FrameCompleted() {
		b.Tick()
	}
	b.ppu.AckFrame()
}
