package cart

// MBC1 is the banked cartridge controller: a single ROM-bank register
// and a RAM-enable latch. Bank 0 of ROM is always mapped at
// 0x0000-0x3FFF; the switchable window at 0x4000-0x7FFF selects
// whatever bank the register holds, with the documented
// 0x00/0x20/0x40/0x60 -> bank+1 quirk applied at read time. RAM, when
// enabled, is a single flat region (no RAM banking).
type MBC1 struct {
	rom []byte
	ram []byte

	romBank    byte // raw value last written to the bank-select register
	ramEnabled bool
}

// NewMBC1 constructs an MBC1 cartridge from a full ROM image and an
// optional RAM size (in bytes, may be 0).
func NewMBC1(rom []byte, ramSize int) *MBC1 {
	m := &MBC1{rom: rom, romBank: 1}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	return m
}

func (m *MBC1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		off := int(m.selectedBank())*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		off := int(addr - 0xA000)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		// RAM enable: low nibble 0xA enables, anything else disables.
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		m.romBank = value
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		off := int(addr - 0xA000)
		if off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

// selectedBank applies the documented remap: a bank-select register
// value of 0x00, 0x20, 0x40, or 0x60 selects bank+1 instead, since bank
// 0 can never be reached through the switchable window.
func (m *MBC1) selectedBank() byte {
	switch m.romBank {
	case 0x00, 0x20, 0x40, 0x60:
		return m.romBank + 1
	default:
		return m.romBank
	}
}
