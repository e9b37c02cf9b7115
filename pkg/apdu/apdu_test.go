package apdu

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/gregLibert/sle4442/pkg/tlv"
)

func TestParseResponseAPDU(t *testing.T) {
	// Raw: 01 02 03 (Data) | 90 00 (SW)
	resp, err := ParseResponseAPDU(tlv.Hex("010203", "9000"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !bytes.Equal(resp.Data, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("Wrong data: got %X", resp.Data)
	}
	if resp.Status != SW_NO_ERROR {
		t.Errorf("Wrong status: got %04X, want %04X", uint16(resp.Status), uint16(SW_NO_ERROR))
	}
}

func TestParseResponseAPDU_StatusOnly(t *testing.T) {
	resp, err := ParseResponseAPDU(tlv.Hex("63C2"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(resp.Data) != 0 {
		t.Errorf("expected empty data, got %X", resp.Data)
	}
	if resp.Status.SW1() != 0x63 || resp.Status.SW2() != 0xC2 {
		t.Errorf("Wrong status: got %04X", uint16(resp.Status))
	}
}

func TestParseResponseAPDU_TooShort(t *testing.T) {
	for _, raw := range [][]byte{nil, {0x90}} {
		_, err := ParseResponseAPDU(raw)

		var perr *ProtocolError
		if !errors.As(err, &perr) {
			t.Errorf("ParseResponseAPDU(%X): expected *ProtocolError, got %v", raw, err)
		}
	}
}

func TestParseResponseAPDU_InverseOfConstruction(t *testing.T) {
	for n := 0; n <= 300; n += 7 {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i * 31)
		}
		raw := append(append([]byte{}, data...), 0x6A, 0x81)

		resp, err := ParseResponseAPDU(raw)
		if err != nil {
			t.Fatalf("length %d: %v", n, err)
		}
		if !bytes.Equal(resp.Data, data) || resp.Status != NewStatusWord(0x6A, 0x81) {
			t.Fatalf("length %d: split mismatch, data %d bytes, status %04X", n, len(resp.Data), uint16(resp.Status))
		}
		if !bytes.Equal(resp.Bytes(), raw) {
			t.Fatalf("length %d: re-encoding mismatch", n)
		}
	}
}

func TestParseResponseAPDU_DoesNotAlias(t *testing.T) {
	raw := tlv.Hex("AABB", "9000")
	resp, _ := ParseResponseAPDU(raw)
	raw[0] = 0x00

	if resp.Data[0] != 0xAA {
		t.Error("response data aliases the receive buffer")
	}
}

func TestCommandAPDU_RedactsPIN(t *testing.T) {
	verify, _ := VerifyPIN([]byte{0x12, 0x34, 0x56})
	modify, _ := ModifyPIN([]byte{0x12, 0x34, 0x56}, []byte{0xAB, 0xCD, 0xEF})
	write, _ := Write(0x40, []byte{0x12, 0x34})

	tests := []struct {
		cmd      *CommandAPDU
		expected string
	}{
		{verify, "VERIFY_PIN | FF 20 00 00 03 ** ** **"},
		{modify, "MODIFY_PIN | FF 21 00 00 06 ** ** ** ** ** **"},
		{write, "WRITE | FF D6 00 40 02 12 34"},
		{Select(), "SELECT | FF A4 00 00 01 06"},
	}

	for _, tt := range tests {
		got := tt.cmd.String()
		if got != tt.expected {
			t.Errorf("String() = %q, want %q", got, tt.expected)
		}
		if tt.cmd.Kind.Sensitive() && (strings.Contains(got, "12 34") || strings.Contains(got, "AB")) {
			t.Errorf("PIN leaked in %q", got)
		}
	}
}

func TestKind_String(t *testing.T) {
	if KindReadProtected.String() != "READ_PROTECTED" {
		t.Errorf("unexpected name %q", KindReadProtected.String())
	}
	if Kind(42).String() != "Kind(42)" {
		t.Errorf("unexpected fallback %q", Kind(42).String())
	}
	if Kind(42).Prefix() != nil {
		t.Error("unknown kind should have no prefix")
	}
}
