// Package display is the opaque stub the bus ticks on every memory
// access. It owns VRAM/OAM storage and the scroll-Y register, and
// produces a VBlank interrupt on a fixed cadence. The pixel-producing
// pipeline (tile fetch, sprite compositing, LCDC/STAT modeling) is a
// separate future subsystem; this type exists only to give the bus and
// CPU something real to read, write, and tick.
package display

import "github.com/coreboy/gbcore/internal/interrupt"

const (
	vramSize = 0x2000
	oamSize  = 0xA0

	// DotsPerFrame is an approximation of one frame's worth of ticks.
	// Since this core's tick unit is one bus access rather than one
	// real T-cycle, this period is illustrative, not cycle-exact.
	DotsPerFrame = 17556

	// lyPlaceholder is the fixed value 0xFF44 reads as, standing in for
	// a real scanline counter until the pixel pipeline exists.
	lyPlaceholder = 0x90
)

// Display holds VRAM, OAM, and the SCY register, and produces a VBlank
// pulse on a fixed schedule.
type Display struct {
	vram [vramSize]byte
	oam  [oamSize]byte
	scy  byte

	dots int
}

// New returns an empty Display.
func New() *Display {
	return &Display{}
}

// Tick advances the internal dot counter by one and returns
// (interrupt.VBlank, true) once per DotsPerFrame ticks.
func (d *Display) Tick() (interrupt.Kind, bool) {
	d.dots++
	if d.dots >= DotsPerFrame {
		d.dots = 0
		return interrupt.VBlank, true
	}
	return 0, false
}

// ReadVRAM/WriteVRAM address 0x8000-0x9FFF-relative offsets (0x0000-0x1FFF).
func (d *Display) ReadVRAM(off uint16) byte     { return d.vram[off] }
func (d *Display) WriteVRAM(off uint16, v byte) { d.vram[off] = v }

// ReadOAM/WriteOAM address 0xFE00-0xFE9F-relative offsets (0x00-0x9F).
func (d *Display) ReadOAM(off uint16) byte     { return d.oam[off] }
func (d *Display) WriteOAM(off uint16, v byte) { d.oam[off] = v }

// ReadSCY/WriteSCY implement the bus-visible 0xFF42 register.
func (d *Display) ReadSCY() byte   { return d.scy }
func (d *Display) WriteSCY(v byte) { d.scy = v }

// ReadLY implements the bus-visible 0xFF44 placeholder register.
func (d *Display) ReadLY() byte { return lyPlaceholder }
