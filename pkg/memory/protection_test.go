package memory

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/sle4442/pkg/tlv"
)

func TestParseProtectionBits(t *testing.T) {
	// Addresses 0-3 locked (ATR), 0x08 locked, everything else writable.
	p, err := ParseProtectionBits(tlv.Hex("F0 FE FF FF"))
	if err != nil {
		t.Fatalf("ParseProtectionBits failed: %v", err)
	}

	if diff := cmp.Diff([]int{0, 1, 2, 3, 8}, p.Locked()); diff != "" {
		t.Errorf("locked addresses mismatch (-want +got):\n%s", diff)
	}
	if !p.IsLocked(0x02) || p.IsLocked(0x04) {
		t.Error("unexpected lock state around the ATR")
	}
	if p.IsLocked(0x50) || p.IsLocked(-1) {
		t.Error("addresses outside the protectable area are never locked")
	}
	if got := p.String(); got != "locked: 00 01 02 03 08" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseProtectionBits_Fresh(t *testing.T) {
	p, _ := ParseProtectionBits(tlv.Hex("FF FF FF FF"))
	if p.String() != "locked: none" {
		t.Errorf("fresh card should have nothing locked: %s", p)
	}
}

func TestParseProtectionBits_Short(t *testing.T) {
	if _, err := ParseProtectionBits([]byte{0xFF}); !errors.Is(err, ErrShortDump) {
		t.Errorf("expected ErrShortDump, got %v", err)
	}
}
