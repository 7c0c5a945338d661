// Package gbcore wires a cartridge, memory bus, and CPU into a
// runnable emulator instance, and exposes the conformance-testing
// trace format used by the instruction and end-to-end test suites.
package gbcore

import (
	"fmt"
	"io"

	"github.com/coreboy/gbcore/internal/bus"
	"github.com/coreboy/gbcore/internal/cart"
	"github.com/coreboy/gbcore/internal/cpu"
)

// Machine owns the bus and CPU for one emulator instance. The bus in
// turn owns the cartridge and every peripheral; Machine is the single
// point of construction so callers never assemble those pieces by hand.
type Machine struct {
	bus *bus.Bus
	cpu *cpu.CPU
}

// New constructs a Machine from a ROM image, rejecting malformed
// headers immediately (spec class 1 errors: these are content/
// developer errors, not runtime conditions). If bootROM is non-nil it
// must be exactly 256 bytes; the CPU then starts at PC=0x0000 with the
// boot region mapped. Otherwise the CPU starts in the published
// post-boot register state.
func New(rom, bootROM []byte) (*Machine, error) {
	c, err := cart.New(rom)
	if err != nil {
		return nil, fmt.Errorf("gbcore: %w", err)
	}

	b := bus.New(c)
	m := &Machine{bus: b}

	if bootROM != nil {
		if err := b.SetBootROM(bootROM); err != nil {
			return nil, fmt.Errorf("gbcore: %w", err)
		}
		m.cpu = cpu.New(b)
		m.cpu.SetBootPC()
	} else {
		m.cpu = cpu.New(b)
	}

	return m, nil
}

// SetSerialWriter directs bytes written through the serial test
// channel (0xFF01/0xFF02) to w, e.g. to scan a test ROM's pass/fail
// output.
func (m *Machine) SetSerialWriter(w io.Writer) { m.bus.SetSerialWriter(w) }

// CPU exposes the underlying CPU, e.g. for breakpoint inspection.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// Bus exposes the underlying bus, e.g. for tools that peek memory.
func (m *Machine) Bus() *bus.Bus { return m.bus }

// Step runs exactly one instruction boundary and returns the number
// of M-cycles it charged to the bus.
func (m *Machine) Step() int { return m.cpu.Step() }

// Trace renders the current CPU state in the fixed conformance-test
// format: "A:XX F:XX B:XX C:XX D:XX E:XX H:XX L:XX SP:XXXX PC:XXXX
// PCMEM:XX,XX,XX,XX", with PCMEM read via PeekByte so trace rendering
// never perturbs peripheral timing.
func (m *Machine) Trace() string {
	c := m.cpu
	pc := c.PC
	return fmt.Sprintf(
		"A:%02X F:%02X B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X SP:%04X PC:%04X PCMEM:%02X,%02X,%02X,%02X",
		c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L, c.SP, pc,
		m.bus.PeekByte(pc), m.bus.PeekByte(pc+1), m.bus.PeekByte(pc+2), m.bus.PeekByte(pc+3),
	)
}
