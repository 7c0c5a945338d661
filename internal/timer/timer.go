// Package timer derives the DMG's TIMA-overflow interrupt from a 16-bit
// monotonic system counter, with the falling-edge semantics documented in
// the original hardware: the counter bit selected by TAC's clock-select
// feeds TIMA only while the timer is enabled, and the edge is detected on
// that gated composite signal, not on the raw bit.
package timer

import (
	"fmt"
	"os"

	"github.com/coreboy/gbcore/internal/interrupt"
)

var debugTimer = os.Getenv("GB_DEBUG_TIMER") != ""

// Timer holds the free-running divider plus the TIMA/TMA/TAC register
// trio visible on the bus at 0xFF04-0xFF07.
type Timer struct {
	sysclock uint16
	tima     byte
	tma      byte
	enable   bool
	selector byte // 2-bit clock select, TAC bits 0-1
	edge     bool // previous value of the gated composite signal
}

// New returns a Timer with sysclock preset to the post-boot DMG value
// (DIV reads 0xAB).
func New() *Timer {
	return &Timer{sysclock: 0xABCC}
}

// selectedBit maps TAC's 2-bit clock-select to the sysclock bit that
// feeds TIMA.
func selectedBit(selector byte) uint {
	switch selector {
	case 0:
		return 9
	case 1:
		return 3
	case 2:
		return 5
	default: // 3
		return 7
	}
}

func (t *Timer) compositeInput() bool {
	if !t.enable {
		return false
	}
	return (t.sysclock>>selectedBit(t.selector))&1 != 0
}

// Tick advances the system counter by one M-cycle (4 T-cycles) and
// returns (interrupt.Timer, true) the cycle TIMA overflows.
func (t *Timer) Tick() (interrupt.Kind, bool) {
	t.sysclock += 4

	newEdge := t.compositeInput()
	falling := t.edge && !newEdge
	t.edge = newEdge

	if !falling {
		return 0, false
	}
	if t.tima == 0xFF {
		t.tima = t.tma
		return interrupt.Timer, true
	}
	t.tima++
	return 0, false
}

// ReadRegister implements the bus-visible read semantics for
// 0xFF04-0xFF07.
func (t *Timer) ReadRegister(addr uint16) byte {
	switch addr {
	case 0xFF04:
		return byte(t.sysclock >> 8)
	case 0xFF05:
		return t.tima
	case 0xFF06:
		return t.tma
	case 0xFF07:
		var e byte
		if t.enable {
			e = 1
		}
		return 0xF8 | (e << 2) | t.selector
	default:
		return 0xFF
	}
}

// WriteRegister implements the bus-visible write semantics for
// 0xFF04-0xFF07.
func (t *Timer) WriteRegister(addr uint16, value byte) {
	switch addr {
	case 0xFF04:
		// Resetting sysclock without re-deriving edge reproduces the
		// hardware quirk where a DIV write can itself trigger a TIMA
		// increment on the next tick.
		t.sysclock = 0
		if debugTimer {
			fmt.Printf("[TMR] DIV write -> reset (div=0000) tima=%02X tma=%02X tac=%02X\n", t.tima, t.tma, t.tac())
		}
	case 0xFF05:
		t.tima = value
		if debugTimer {
			fmt.Printf("[TMR] TIMA write %02X tma=%02X tac=%02X\n", value, t.tma, t.tac())
		}
	case 0xFF06:
		t.tma = value
		if debugTimer {
			fmt.Printf("[TMR] TMA write %02X (tima=%02X tac=%02X)\n", value, t.tima, t.tac())
		}
	case 0xFF07:
		oldSelector, oldEnable := t.selector, t.enable
		t.enable = value&0x04 != 0
		t.selector = value & 0x03
		if debugTimer {
			fmt.Printf("[TMR] TAC write %02X (select %d->%d enable %v->%v) tima=%02X tma=%02X\n",
				value, oldSelector, t.selector, oldEnable, t.enable, t.tima, t.tma)
		}
	}
}

// tac reconstructs the raw TAC byte for debug logging.
func (t *Timer) tac() byte {
	var e byte
	if t.enable {
		e = 1
	}
	return 0xF8 | (e << 2) | t.selector
}
