package bits

import "testing"

func TestBit(t *testing.T) {
	tests := []struct {
		n        uint
		expected byte
	}{
		{1, 0x01}, {4, 0x08}, {8, 0x80},
		{0, 0x00}, {9, 0x00}, // out of range
	}

	for _, tt := range tests {
		if res := Bit(tt.n); res != tt.expected {
			t.Errorf("Bit(%d) = 0x%02X; want 0x%02X", tt.n, res, tt.expected)
		}
	}
}

func TestIsSet(t *testing.T) {
	val := byte(0b1000_0001)
	if !IsSet(val, 8) || !IsSet(val, 1) {
		t.Error("bits 8 and 1 should be set")
	}
	if IsSet(val, 2) {
		t.Error("bit 2 should NOT be set")
	}
}

func TestGetRange(t *testing.T) {
	tests := []struct {
		name     string
		input    byte
		high     uint
		low      uint
		expected byte
	}{
		{"Retry nibble of 0xC2", 0xC2, 4, 1, 2},
		{"Counter marker of 0xC2", 0xC2, 8, 5, 0x0C},
		{"Bits 2-1 of 0x03", 0b0000_0011, 2, 1, 3},
		{"Full Byte", 0xAA, 8, 1, 0xAA},
		{"Inverted range", 0xFF, 1, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := GetRange(tt.input, tt.high, tt.low); res != tt.expected {
				t.Errorf("GetRange(0x%02X, %d, %d) = %d; want %d", tt.input, tt.high, tt.low, res, tt.expected)
			}
		})
	}
}

func TestNibbles(t *testing.T) {
	if got := HighNibble(0xA2); got != 0x0A {
		t.Errorf("HighNibble(0xA2) = %X; want A", got)
	}
	if got := LowNibble(0xA2); got != 0x02 {
		t.Errorf("LowNibble(0xA2) = %X; want 2", got)
	}
}
