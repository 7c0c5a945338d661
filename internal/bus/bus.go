// Package bus routes every CPU-visible memory access to the correct
// region of the 16-bit address space, and advances the timer and
// display exactly once per byte-sized access — the sole pacing signal
// peripherals receive, per the core's cycle-ordering model.
package bus

import (
	"fmt"
	"io"

	"github.com/coreboy/gbcore/internal/cart"
	"github.com/coreboy/gbcore/internal/display"
	"github.com/coreboy/gbcore/internal/interrupt"
	"github.com/coreboy/gbcore/internal/timer"
)

const bootROMSize = 0x100

// Bus wires the cartridge, work RAM, high RAM, display, timer, and
// interrupt/serial registers into one 64 KiB address space.
type Bus struct {
	cart cart.Cartridge

	wram [0x2000]byte // 0xC000-0xDFFF; echo RAM at 0xE000-0xFDFF aliases this
	hram [0x7F]byte   // 0xFF80-0xFFFE

	disp *display.Display
	tmr  *timer.Timer

	ie    byte // 0xFFFF
	ifReg byte // 0xFF0F, low 5 bits significant

	sb byte // 0xFF01 serial data
	sc byte // 0xFF02 serial control
	sw io.Writer

	bootROM     [bootROMSize]byte
	bootPresent bool
	bootEnabled bool

	ticks uint64
}

// New constructs a Bus around the given cartridge.
func New(c cart.Cartridge) *Bus {
	return &Bus{
		cart: c,
		disp: display.New(),
		tmr:  timer.New(),
	}
}

// SetBootROM installs a 256-byte boot ROM that overlays 0x0000-0x00FF
// for reads until a non-zero write to 0xFF50 permanently disables it.
func (b *Bus) SetBootROM(data []byte) error {
	if len(data) != bootROMSize {
		return fmt.Errorf("bus: boot ROM must be exactly %d bytes, got %d", bootROMSize, len(data))
	}
	copy(b.bootROM[:], data)
	b.bootPresent = true
	b.bootEnabled = true
	return nil
}

// SetSerialWriter sets the sink that receives bytes written through the
// serial test channel (0xFF01/0xFF02).
func (b *Bus) SetSerialWriter(w io.Writer) { b.sw = w }

// BootROMActive reports whether the boot ROM currently overlays the
// low 256 bytes of the address space.
func (b *Bus) BootROMActive() bool { return b.bootEnabled }

// Cart exposes the underlying cartridge, e.g. for header introspection.
func (b *Bus) Cart() cart.Cartridge { return b.cart }

// ReadByte performs a read and ticks every peripheral once.
func (b *Bus) ReadByte(addr uint16) byte {
	v := b.peek(addr)
	b.Tick()
	return v
}

// WriteByte performs a write and ticks every peripheral once.
func (b *Bus) WriteByte(addr uint16, v byte) {
	b.write(addr, v)
	b.Tick()
}

// ReadWord performs two successive byte reads at addr and addr+1
// (little-endian), each of which ticks peripherals independently.
func (b *Bus) ReadWord(addr uint16) uint16 {
	lo := uint16(b.ReadByte(addr))
	hi := uint16(b.ReadByte(addr + 1))
	return lo | hi<<8
}

// WriteWord performs two successive byte writes at addr and addr+1
// (little-endian).
func (b *Bus) WriteWord(addr uint16, v uint16) {
	b.WriteByte(addr, byte(v))
	b.WriteByte(addr+1, byte(v>>8))
}

// PeekByte decodes the same address space as ReadByte but produces no
// side effects: no peripheral tick. Used for disassembly, trace
// rendering, and the JSMoo conformance harness.
func (b *Bus) PeekByte(addr uint16) byte { return b.peek(addr) }

// Tick advances every peripheral by one M-cycle and ORs any raised
// interrupt into IF. It is exported so the CPU can charge bare cycles
// (e.g. during interrupt dispatch) that carry no address-space side
// effect of their own.
func (b *Bus) Tick() {
	b.ticks++
	if kind, ok := b.disp.Tick(); ok {
		b.ifReg |= kind.Mask()
	}
	if kind, ok := b.tmr.Tick(); ok {
		b.ifReg |= kind.Mask()
	}
}

// Ticks returns the running count of M-cycles charged so far. CPU.Step
// samples this before and after an instruction to report its cost.
func (b *Bus) Ticks() uint64 { return b.ticks }

// IE returns the interrupt-enable register.
func (b *Bus) IE() byte { return b.ie }

// IF returns the interrupt-flag register's significant low 5 bits.
func (b *Bus) IF() byte { return b.ifReg & 0x1F }

// ClearIF clears the given interrupt's bit in IF, as dispatch does.
func (b *Bus) ClearIF(k interrupt.Kind) { b.ifReg &^= k.Mask() }

func (b *Bus) peek(addr uint16) byte {
	switch {
	case addr < bootROMSize && b.bootEnabled:
		return b.bootROM[addr]
	case addr < 0x8000:
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.disp.ReadVRAM(addr - 0x8000)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		return b.wram[addr-0x2000-0xC000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return b.disp.ReadOAM(addr - 0xFE00)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		return 0x00
	case addr == 0xFF01:
		return b.sb
	case addr == 0xFF02:
		return b.sc
	case addr >= 0xFF04 && addr <= 0xFF07:
		return b.tmr.ReadRegister(addr)
	case addr == 0xFF0F:
		return 0xE0 | (b.ifReg & 0x1F)
	case addr == 0xFF42:
		return b.disp.ReadSCY()
	case addr == 0xFF44:
		return b.disp.ReadLY()
	case addr == 0xFF50:
		return 0xFF
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return b.ie
	default:
		return 0x00
	}
}

func (b *Bus) write(addr uint16, v byte) {
	switch {
	case addr < 0x8000:
		// Writes below 0x8000 always reach the cartridge, even while
		// the boot ROM overlays reads of the low 256 bytes: the boot
		// overlay only intercepts reads (see DESIGN.md Open Question 3).
		b.cart.Write(addr, v)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.disp.WriteVRAM(addr-0x8000, v)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, v)
	case addr >= 0xC000 && addr <= 0xDFFF:
		b.wram[addr-0xC000] = v
	case addr >= 0xE000 && addr <= 0xFDFF:
		b.wram[addr-0x2000-0xC000] = v
	case addr >= 0xFE00 && addr <= 0xFE9F:
		b.disp.WriteOAM(addr-0xFE00, v)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		// unused region; writes ignored
	case addr == 0xFF01:
		b.sb = v
	case addr == 0xFF02:
		b.sc = v
		if v != 0 {
			if b.sw != nil {
				_, _ = b.sw.Write([]byte{b.sb})
			}
			b.ifReg |= interrupt.Serial.Mask()
		}
	case addr >= 0xFF04 && addr <= 0xFF07:
		b.tmr.WriteRegister(addr, v)
	case addr == 0xFF0F:
		b.ifReg = v & 0x1F
	case addr == 0xFF42:
		b.disp.WriteSCY(v)
	case addr == 0xFF44:
		// LY is read-only in this stub; writes ignored.
	case addr == 0xFF50:
		if v != 0 {
			b.bootEnabled = false
		}
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = v
	case addr == 0xFFFF:
		b.ie = v
	default:
		// other 0xFF00-0xFF7F: ignored
	}
}
