package cart

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makeROM(t *testing.T, romSizeCode, ramSizeCode, cartType byte) []byte {
	t.Helper()
	size := 1 << (15 + int(romSizeCode))
	rom := make([]byte, size)
	rom[0x0147] = cartType
	rom[0x0148] = romSizeCode
	rom[0x0149] = ramSizeCode
	return rom
}

func TestParseHeader_OK(t *testing.T) {
	rom := makeROM(t, 0x01, 0x02, 0x01) // 64 KiB ROM, 8 KiB RAM, MBC1
	h, err := ParseHeader(rom)
	require.NoError(t, err)
	require.Equal(t, 64*1024, h.ROMSizeBytes)
	require.Equal(t, 8*1024, h.RAMSizeBytes)
	require.Equal(t, byte(0x01), h.CartType)
}

func TestParseHeader_LogoCheck(t *testing.T) {
	rom := makeROM(t, 0x00, 0x00, 0x00)
	h, err := ParseHeader(rom)
	require.NoError(t, err)
	require.False(t, h.LogoOK, "zeroed logo region should not verify")

	copy(rom[0x0104:0x0134], nintendoLogo[:])
	h, err = ParseHeader(rom)
	require.NoError(t, err)
	require.True(t, h.LogoOK)
}

func TestParseHeader_RejectsLengthMismatch(t *testing.T) {
	rom := makeROM(t, 0x01, 0x00, 0x00)
	rom = rom[:len(rom)-1] // corrupt length
	_, err := ParseHeader(rom)
	require.Error(t, err)
}

func TestParseHeader_RejectsBadROMSizeCode(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0148] = 0x09 // > 8, invalid
	_, err := ParseHeader(rom)
	require.Error(t, err)
}

func TestParseHeader_RejectsBadRAMSizeCode(t *testing.T) {
	rom := makeROM(t, 0x00, 0x01, 0x00) // 0x01 is not a defined RAM size code
	_, err := ParseHeader(rom)
	require.Error(t, err)
}

func TestNew_RejectsUnknownCartType(t *testing.T) {
	rom := makeROM(t, 0x00, 0x00, 0x05) // MBC2, unsupported by New
	_, err := New(rom)
	require.Error(t, err)
}

func TestNew_AcceptsNoMBCAndMBC1(t *testing.T) {
	rom := makeROM(t, 0x00, 0x00, 0x00)
	c, err := New(rom)
	require.NoError(t, err)
	_, ok := c.(*NoMBC)
	require.True(t, ok)

	rom = makeROM(t, 0x01, 0x02, 0x01)
	c, err = New(rom)
	require.NoError(t, err)
	_, ok = c.(*MBC1)
	require.True(t, ok)
}
