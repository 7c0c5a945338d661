package cart

import "testing"

func TestNoMBC_ReadWrite(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x1234] = 0x42
	c := NewNoMBC(rom, 0)

	if v := c.Read(0x1234); v != 0x42 {
		t.Fatalf("Read(0x1234) = %#02x, want 0x42", v)
	}

	c.Write(0x1234, 0xFF) // ROM write must be ignored
	if v := c.Read(0x1234); v != 0x42 {
		t.Fatalf("ROM write was not ignored: Read(0x1234) = %#02x", v)
	}

	if v := c.Read(0xA000); v != 0xFF {
		t.Fatalf("RAM read with no declared RAM = %#02x, want 0xFF", v)
	}
}

func TestNoMBC_WithRAM(t *testing.T) {
	rom := make([]byte, 0x8000)
	c := NewNoMBC(rom, 8*1024)

	c.Write(0xA100, 0x55)
	if v := c.Read(0xA100); v != 0x55 {
		t.Fatalf("Read(0xA100) = %#02x, want 0x55", v)
	}
}
