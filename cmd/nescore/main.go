// Command nescore is the ebiten-backed frontend: it loads an iNES ROM,
// wires it to a bus.Bus, and drives the emulation one frame per ebiten
// Update call. Windowing, input polling and pixel blitting all live here;
// the core never knows about them (spec.md §9).
package main

import (
	"flag"
	"image"
	"image/color"
	"log"

	"github.com/bdwalton/nescore/bus"
	"github.com/bdwalton/nescore/cartridge"
	"github.com/bdwalton/nescore/ppu"
	"github.com/hajimehoshi/ebiten/v2"
)

var romFile = flag.String("rom", "", "path to an iNES ROM to run")

const (
	screenWidth  = 256
	screenHeight = 240
)

// frameBuffer accumulates one frame of PPU output as an RGBA image and
// implements ppu.PixelSink.
type frameBuffer struct {
	img *image.RGBA
}

func newFrameBuffer() *frameBuffer {
	return &frameBuffer{img: image.NewRGBA(image.Rect(0, 0, screenWidth, screenHeight))}
}

func (f *frameBuffer) PutPixel(x, y int, c ppu.RGB) {
	f.img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF})
}

// controllerBits reads the host keyboard and packs it into the NES
// controller byte order: A,B,Select,Start,Up,Down,Left,Right from bit 7
// to bit 0 (spec.md §6).
func controllerBits() uint8 {
	var bits uint8
	press := func(bit uint8, key ebiten.Key) {
		if ebiten.IsKeyPressed(key) {
			bits |= bit
		}
	}
	press(0x80, ebiten.KeyZ)
	press(0x40, ebiten.KeyX)
	press(0x20, ebiten.KeyShift)
	press(0x10, ebiten.KeyEnter)
	press(0x08, ebiten.KeyArrowUp)
	press(0x04, ebiten.KeyArrowDown)
	press(0x02, ebiten.KeyArrowLeft)
	press(0x01, ebiten.KeyArrowRight)
	return bits
}

// game adapts bus.Bus to ebiten.Game; the bus itself stays free of any
// windowing dependency.
type game struct {
	bus   *bus.Bus
	frame *frameBuffer
	out   *ebiten.Image
}

func (g *game) Update() error {
	g.bus.SetControllerState(0, controllerBits())
	g.bus.RunFrame()
	g.out.WritePixels(g.frame.img.Pix)
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.DrawImage(g.out, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	flag.Parse()
	if *romFile == "" {
		log.Fatalf("nescore: -rom is required")
	}

	cart, err := cartridge.Load(*romFile)
	if err != nil {
		log.Fatalf("nescore: loading ROM: %v", err)
	}

	fb := newFrameBuffer()
	g := &game{
		bus:   bus.New(cart, fb),
		frame: fb,
		out:   ebiten.NewImage(screenWidth, screenHeight),
	}

	ebiten.SetWindowSize(screenWidth*3, screenHeight*3)
	ebiten.SetWindowTitle("nescore")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
