// Command nescore-debug is a terminal debugger: a bubbletea TUI driving
// the same bus.Bus the ebiten frontend uses, stepping by instruction or
// by frame and dumping CPU/PPU state between steps.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/bdwalton/nescore/bus"
	"github.com/bdwalton/nescore/cartridge"
	"github.com/bdwalton/nescore/ppu"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
)

var romFile = flag.String("rom", "", "path to an iNES ROM to run")

type nullSink struct{}

func (nullSink) PutPixel(x, y int, c ppu.RGB) {}

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

type model struct {
	bus *bus.Bus

	lastTicks int
	lastErr   error
	quit      bool
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		case " ", "s":
			m.lastTicks = m.bus.Step()
		case "f":
			m.bus.RunFrame()
			m.lastTicks = 0
		case "r":
			m.bus.Reset()
			m.lastTicks = 0
		}
	}
	return m, nil
}

func (m model) disassembly() string {
	c := m.bus.CPU()
	var lines []string
	addr := c.PC
	for i := 0; i < 8; i++ {
		lines = append(lines, c.Disassemble(addr))
		addr += c.InstructionLength(addr)
	}
	return strings.Join(lines, "\n")
}

func (m model) View() string {
	if m.quit {
		return ""
	}
	c := m.bus.CPU()
	status := fmt.Sprintf("%s\nlast step: %d master ticks", c, m.lastTicks)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render("nescore debugger"),
		lipgloss.JoinHorizontal(lipgloss.Top, m.disassembly(), "   ", status),
		"",
		headerStyle.Render("ppu state"),
		spew.Sdump(m.bus.PPU()),
		"",
		"(s)tep instruction  (f)rame  (r)eset  (q)uit",
	)
}

func main() {
	flag.Parse()
	if *romFile == "" {
		log.Fatalf("nescore-debug: -rom is required")
	}

	cart, err := cartridge.Load(*romFile)
	if err != nil {
		log.Fatalf("nescore-debug: loading ROM: %v", err)
	}

	b := bus.New(cart, nullSink{})
	if _, err := tea.NewProgram(model{bus: b}).Run(); err != nil {
		log.Fatalf("nescore-debug: %v", err)
	}
}
