// Package cpu implements the SM83 fetch/decode/execute engine: register
// file, flags, interrupt master enable, and the two opcode tables
// (unprefixed and CB-prefixed) that cover the full non-illegal ISA.
package cpu

import (
	"github.com/coreboy/gbcore/internal/interrupt"
)

// Memory is the bus surface the fetch/decode/execute engine drives:
// byte/word access that ticks peripherals, a side-effect-free peek for
// disassembly, and the IE/IF probe used for interrupt dispatch.
// *bus.Bus satisfies this; conformance tests substitute a flat stand-in.
type Memory interface {
	ReadByte(addr uint16) byte
	WriteByte(addr uint16, v byte)
	ReadWord(addr uint16) uint16
	WriteWord(addr uint16, v uint16)
	PeekByte(addr uint16) byte
	Tick()
	Ticks() uint64
	IE() byte
	IF() byte
	ClearIF(k interrupt.Kind)
}

// Flag bit positions within F. The low nibble is always zero.
const (
	flagZ byte = 1 << 7
	flagN byte = 1 << 6
	flagH byte = 1 << 5
	flagC byte = 1 << 4
)

// CPU holds SM83 register state and drives execution against a Bus.
type CPU struct {
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	PC uint16

	IME bool

	halted         bool
	imeDelayed     bool
	haltBugPending bool

	// HaltBugEnabled opts into the documented HALT-bug quirk: when HALT
	// is entered with IME=0 and an interrupt already pending, the byte
	// following HALT is fetched twice because PC fails to advance once.
	// Off by default.
	HaltBugEnabled bool

	bus Memory
}

// New constructs a CPU wired to b, with the published post-boot
// register state (A=0x01, F=0xB0, BC=0x0013, DE=0x00D8, HL=0x014D,
// SP=0xFFFE, PC=0x0100). Call SetBootPC to start from the boot ROM
// instead.
func New(b Memory) *CPU {
	return &CPU{
		bus: b,
		A:   0x01, F: 0xB0,
		B: 0x00, C: 0x13,
		D: 0x00, E: 0xD8,
		H: 0x01, L: 0x4D,
		SP: 0xFFFE,
		PC: 0x0100,
	}
}

// SetBootPC resets PC to 0x0000, the entry point used when a boot ROM
// is mapped over the cartridge's low address space.
func (c *CPU) SetBootPC() { c.PC = 0x0000 }

// Bus exposes the underlying memory, e.g. for trace rendering.
func (c *CPU) Bus() Memory { return c.bus }

// Halted reports whether the CPU is suspended awaiting an interrupt.
func (c *CPU) Halted() bool { return c.halted }

func (c *CPU) flag(mask byte) bool { return c.F&mask != 0 }

func (c *CPU) setFlags(z, n, h, cy bool) {
	var f byte
	if z {
		f |= flagZ
	}
	if n {
		f |= flagN
	}
	if h {
		f |= flagH
	}
	if cy {
		f |= flagC
	}
	c.F = f
}

func (c *CPU) setFlag(mask byte, v bool) {
	if v {
		c.F |= mask
	} else {
		c.F &^= mask
	}
}

// Register-pair views. These compose from the 8-bit fields on every
// read rather than being stored, so there is never a second source of
// truth to keep in sync with the flag bits.
func (c *CPU) bc() uint16 { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) de() uint16 { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) hl() uint16 { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) af() uint16 { return uint16(c.A)<<8 | uint16(c.F&0xF0) }

func (c *CPU) setBC(v uint16) { c.B, c.C = byte(v>>8), byte(v) }
func (c *CPU) setDE(v uint16) { c.D, c.E = byte(v>>8), byte(v) }
func (c *CPU) setHL(v uint16) { c.H, c.L = byte(v>>8), byte(v) }
func (c *CPU) setAF(v uint16) { c.A, c.F = byte(v>>8), byte(v)&0xF0 }

func (c *CPU) fetch8() byte {
	v := c.bus.ReadByte(c.PC)
	if c.haltBugPending {
		c.haltBugPending = false
	} else {
		c.PC++
	}
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | hi<<8
}

func (c *CPU) push16(v uint16) {
	c.SP--
	c.bus.WriteByte(c.SP, byte(v>>8))
	c.SP--
	c.bus.WriteByte(c.SP, byte(v))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.bus.ReadByte(c.SP))
	c.SP++
	hi := uint16(c.bus.ReadByte(c.SP))
	c.SP++
	return lo | hi<<8
}

// Step executes exactly one instruction boundary: it services a
// pending interrupt if one is due, otherwise fetches and executes one
// opcode. It returns the number of M-cycles charged to the bus during
// the call.
func (c *CPU) Step() int {
	before := c.bus.Ticks()

	pendingEnable := c.imeDelayed
	c.imeDelayed = false

	if c.halted {
		if interrupt.Pending(c.bus.IE(), c.bus.IF()) {
			c.halted = false
		} else {
			c.bus.Tick()
			if pendingEnable {
				c.IME = true
			}
			return int(c.bus.Ticks() - before)
		}
	}

	if c.IME {
		if kind, ok := interrupt.Highest(c.bus.IE(), c.bus.IF()); ok {
			c.dispatch(kind)
			if pendingEnable {
				c.IME = true
			}
			return int(c.bus.Ticks() - before)
		}
	}

	opcode := c.fetch8()
	c.execute(opcode)

	if pendingEnable {
		c.IME = true
	}
	return int(c.bus.Ticks() - before)
}

// dispatch services the given interrupt: clears IME and the source's
// IF bit, pushes PC, and jumps to the fixed vector. The two push
// writes each tick the bus once; three further bare ticks bring the
// total to the documented five M-cycles (see DESIGN.md Open Question 1).
func (c *CPU) dispatch(kind interrupt.Kind) {
	c.halted = false
	c.IME = false
	c.bus.ClearIF(kind)

	c.bus.Tick()
	c.bus.Tick()
	c.bus.Tick()

	c.push16(c.PC)
	c.PC = kind.Vector()
}

func (c *CPU) enterHalt() {
	if !c.IME && interrupt.Pending(c.bus.IE(), c.bus.IF()) && c.HaltBugEnabled {
		c.haltBugPending = true
	}
	c.halted = true
}
