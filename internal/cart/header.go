package cart

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	headerStart = 0x0100
	headerEnd   = 0x014F
)

var nintendoLogo = [48]byte{
	0xCE,0xED,0x66,0x66,0xCC,0x0D,0x00,0x0B,0x03,0x73,0x00,0x83,0x00,0x0C,0x00,0x0D,
	0x00,0x08,0x11,0x1F,0x88,0x89,0x00,0x0E,0xDC,0xCC,0x6E,0xE6,0xDD,0xDD,0xD9,0x99,
	0xBB,0xBB,0x67,0x63,0x6E,0x0E,0xEC,0xCC,0xDD,0xDC,0x99,0x9F,0xBB,0xB9,0x33,0x3E,
}

type Header struct {
	Title           string // (trimmed ASCII)
	CGBFlag         byte   // 0x0143
	NewLicensee     string // 0x0144-0x0145 (ASCII), if old==0x33
	SGBFlag         byte   // 0x0146
	CartType        byte   // 0x0147
	ROMSizeCode     byte   // 0x0148
	RAMSizeCode     byte   // 0x0149
	Destination     byte   // 0x014A
	OldLicensee     byte   // 0x014B
	ROMVersion      byte   // 0x014C
	HeaderChecksum  byte   // 0x014D
	GlobalChecksum  uint16 // 0x014E-0x014F

	// Decoded helpers (for logs)
	ROMSizeBytes int
	ROMBanks     int
	RAMSizeBytes int
	CartTypeStr  string
	// LogoOK reports whether 0x0104-0x0133 holds the boot logo. Homebrew
	// and test ROMs often omit it, so a mismatch is not a load error.
	LogoOK bool
}

func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd+1 {
		return nil, errors.New("ROM too small to contain header")
	}

	// Title region is 0x0134–0x0143, but parts overlap on newer carts.
	rawTitle := rom[0x0134 : 0x0144]
	title := strings.TrimRight(string(rawTitle), "\x00")

	h := &Header{
		Title:          title,
		CGBFlag:        rom[0x0143],
		NewLicensee:    string(rom[0x0144:0x0146]),
		SGBFlag:        rom[0x0146],
		CartType:       rom[0x0147],
		ROMSizeCode:    rom[0x0148],
		RAMSizeCode:    rom[0x0149],
		Destination:    rom[0x014A],
		OldLicensee:    rom[0x014B],
		ROMVersion:     rom[0x014C],
		HeaderChecksum: rom[0x014D],
		GlobalChecksum: binary.BigEndian.Uint16(rom[0x014E:0x0150]),
	}

	if h.ROMSizeCode > 0x08 {
		return nil, fmt.Errorf("cart: unsupported ROM size code 0x%02X", h.ROMSizeCode)
	}
	wantLen := 1 << (15 + uint(h.ROMSizeCode))
	if len(rom) != wantLen {
		return nil, fmt.Errorf("cart: ROM length %d does not match header size code 0x%02X (want %d)", len(rom), h.ROMSizeCode, wantLen)
	}

	ramSize, ok := decodeRAMSize(h.RAMSizeCode)
	if !ok {
		return nil, fmt.Errorf("cart: unsupported RAM size code 0x%02X", h.RAMSizeCode)
	}

	// Decode a few convenience fields:
	h.ROMSizeBytes, h.ROMBanks = wantLen, wantLen/0x4000
	h.RAMSizeBytes = ramSize
	h.CartTypeStr = cartTypeString(h.CartType)
	h.LogoOK = bytes.Equal(rom[0x0104:0x0134], nintendoLogo[:])

	return h, nil
}

func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < 0x014E {
		return false
	}
	var sum byte = 0
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum == rom[0x014D]
}

// decodeRAMSize maps header[0x149] to a RAM size in bytes. The second
// return is false for any code outside the known table, which
// ParseHeader treats as malformed input.
func decodeRAMSize(code byte) (int, bool) {
	switch code {
	case 0x00:
		return 0, true
	case 0x02:
		return 8 * 1024, true
	case 0x03:
		return 32 * 1024, true
	case 0x04:
		return 128 * 1024, true
	case 0x05:
		return 64 * 1024, true
	default:
		return 0, false
	}
}

func cartTypeString(code byte) string {
	switch code {
	case 0x00:
		return "ROM ONLY"
	case 0x01, 0x02, 0x03:
		return "MBC1 (variants)"
	case 0x05, 0x06:
		return "MBC2 (variants)"
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return "MBC3 (variants)"
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return "MBC5 (variants)"
	default:
		return "Other/unknown"
	}
}
