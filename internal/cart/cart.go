package cart

import "fmt"

// Cartridge is the minimal capability interface the bus needs for
// ROM/RAM banking. Implementations are polymorphic variants chosen at
// load time by New; addresses are CPU addresses.
type Cartridge interface {
	// Read returns a byte for ROM (0x0000-0x7FFF) and external RAM
	// (0xA000-0xBFFF).
	Read(addr uint16) byte
	// Write handles MBC control writes (0x0000-0x7FFF) and external
	// RAM writes (0xA000-0xBFFF).
	Write(addr uint16, value byte)
}

// New parses the ROM header and constructs the cartridge variant it
// declares. Only cart types 0x00 (NoMBC) and 0x01 (MBC1) are accepted;
// any other declared type is a load-time error: unknown MBC kinds are
// malformed input, not a runtime condition to paper over.
func New(rom []byte) (Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, fmt.Errorf("cart: %w", err)
	}
	switch h.CartType {
	case 0x00:
		return NewNoMBC(rom, h.RAMSizeBytes), nil
	case 0x01:
		return NewMBC1(rom, h.RAMSizeBytes), nil
	default:
		return nil, fmt.Errorf("cart: unsupported cartridge type 0x%02X", h.CartType)
	}
}
