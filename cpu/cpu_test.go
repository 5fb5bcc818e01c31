package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flatMem struct {
	data [65536]uint8
}

func (m *flatMem) Read(addr uint16) uint8       { return m.data[addr] }
func (m *flatMem) Write(addr uint16, val uint8) { m.data[addr] = val }

func newTestCPU() (*CPU, *flatMem) {
	m := &flatMem{}
	return New(m), m
}

// drainStartup burns off the cycle debt Reset() leaves behind so the next
// Step() call dispatches the instruction at PC instead of just counting
// down the power-on/interrupt latency.
func drainStartup(c *CPU) {
	for c.cycles > 0 {
		c.Clock()
	}
}

func TestResetReadsPowerOnVector(t *testing.T) {
	c, m := newTestCPU()
	m.data[0xFFFC] = 0x00
	m.data[0xFFFD] = 0xC0
	c.Reset()

	assert.Equal(t, uint16(0xC000), c.PC)
	assert.Equal(t, uint8(0xFD), c.SP)
	assert.True(t, c.getFlag(FlagU))
}

func TestImmediateLDA(t *testing.T) {
	c, m := newTestCPU()
	m.data[0xFFFC], m.data[0xFFFD] = 0x00, 0x80
	c.Reset()
	drainStartup(c)
	m.data[0x8000] = 0xA9
	m.data[0x8001] = 0x42

	ticks := c.Step()

	assert.Equal(t, uint8(0x42), c.A)
	assert.False(t, c.getFlag(FlagZ))
	assert.False(t, c.getFlag(FlagN))
	assert.Equal(t, 2, ticks)
}

func TestBranchPageCross(t *testing.T) {
	c, m := newTestCPU()
	m.data[0xFFFC], m.data[0xFFFD] = 0x00, 0x80
	c.Reset()
	drainStartup(c)
	c.PC = 0x80F0
	c.setFlag(FlagZ, true)
	m.data[0x80F0] = 0xF0 // BEQ
	m.data[0x80F1] = 0x20 // +$20

	ticks := c.Step()

	assert.Equal(t, uint16(0x8112), c.PC)
	assert.Equal(t, 4, ticks)
}

func TestADCOverflow(t *testing.T) {
	c, m := newTestCPU()
	m.data[0xFFFC], m.data[0xFFFD] = 0x00, 0x80
	c.Reset()
	drainStartup(c)
	c.A = 0x50
	c.setFlag(FlagC, false)
	c.PC = 0x8000
	m.data[0x8000] = 0x69 // ADC #imm
	m.data[0x8001] = 0x50

	c.Step()

	assert.Equal(t, uint8(0xA0), c.A)
	assert.True(t, c.getFlag(FlagV))
	assert.True(t, c.getFlag(FlagN))
	assert.False(t, c.getFlag(FlagC))
	assert.False(t, c.getFlag(FlagZ))
}

func TestUnusedFlagAlwaysSetBetweenInstructions(t *testing.T) {
	c, m := newTestCPU()
	m.data[0xFFFC], m.data[0xFFFD] = 0x00, 0x80
	c.Reset()
	drainStartup(c)
	c.P &^= FlagU
	m.data[0x8000] = 0xEA // NOP

	c.Step()

	require.True(t, c.InstructionComplete())
	assert.True(t, c.getFlag(FlagU))
}

func TestIRQIgnoredWhenInterruptsDisabled(t *testing.T) {
	c, m := newTestCPU()
	m.data[0xFFFC], m.data[0xFFFD] = 0x00, 0x80
	c.Reset()
	drainStartup(c)
	c.setFlag(FlagI, true)
	startPC := c.PC
	m.data[int(startPC)] = 0xEA

	c.IRQ()
	c.Step()

	assert.Equal(t, startPC+1, c.PC)
}

func TestNMIPushesPCAndStatus(t *testing.T) {
	c, m := newTestCPU()
	m.data[0xFFFC], m.data[0xFFFD] = 0x00, 0x80
	m.data[0xFFFA], m.data[0xFFFB] = 0x00, 0x90
	c.Reset()
	drainStartup(c)
	startSP := c.SP

	c.NMI()
	c.Step()

	assert.Equal(t, uint16(0x9000), c.PC)
	assert.Equal(t, startSP-3, c.SP)
	assert.True(t, c.getFlag(FlagI))
}

func TestIndirectJMPPageBoundaryBug(t *testing.T) {
	c, m := newTestCPU()
	m.data[0xFFFC], m.data[0xFFFD] = 0x00, 0x80
	c.Reset()
	drainStartup(c)
	c.PC = 0x8000
	m.data[0x8000] = 0x6C // JMP (IND)
	m.data[0x8001] = 0xFF
	m.data[0x8002] = 0x30 // pointer = $30FF
	m.data[0x30FF] = 0x80
	m.data[0x3000] = 0x12 // bug: high byte read from $3000, not $3100
	m.data[0x3100] = 0xFF

	c.Step()

	assert.Equal(t, uint16(0x1280), c.PC)
}

func TestDisassemble(t *testing.T) {
	c, m := newTestCPU()
	m.data[0x1000] = 0xA9
	m.data[0x1001] = 0x42

	assert.Equal(t, "1000: A9 LDA 42", c.Disassemble(0x1000))
}
