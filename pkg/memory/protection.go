package memory

import (
	"fmt"
	"strings"

	"github.com/gregLibert/sle4442/pkg/bits"
)

// PROTECTION MEMORY:
// 32 bits, one per address of the protectable area. Byte i/8, bit i%8 (LSB first)
// covers address i. A cleared bit write-locks the address permanently; it can never
// be set again.

// ProtectionBitsSize is the number of bytes returned by READ_PROTECTED for the whole area.
const ProtectionBitsSize = ProtectedAreaSize / 8

// Protection is the decoded protection memory.
type Protection [ProtectedAreaSize]bool

// ParseProtectionBits decodes the 4 bytes returned by READ_PROTECTED.
func ParseProtectionBits(data []byte) (Protection, error) {
	var p Protection
	if len(data) < ProtectionBitsSize {
		return p, fmt.Errorf("%w: protection memory is %d bytes, got %d", ErrShortDump, ProtectionBitsSize, len(data))
	}

	for addr := 0; addr < ProtectedAreaSize; addr++ {
		p[addr] = !bits.IsSet(data[addr/8], uint(addr%8)+1)
	}
	return p, nil
}

// IsLocked reports whether addr is write-locked. Addresses outside the protectable
// area are never locked by protection memory.
func (p Protection) IsLocked(addr int) bool {
	if addr < 0 || addr >= ProtectedAreaSize {
		return false
	}
	return p[addr]
}

// Locked returns the locked addresses in ascending order.
func (p Protection) Locked() []int {
	var out []int
	for addr, locked := range p {
		if locked {
			out = append(out, addr)
		}
	}
	return out
}

// String lists locked addresses as hex, e.g. "locked: 00 01 02 03".
func (p Protection) String() string {
	locked := p.Locked()
	if len(locked) == 0 {
		return "locked: none"
	}

	parts := make([]string, len(locked))
	for i, addr := range locked {
		parts[i] = fmt.Sprintf("%02X", addr)
	}
	return "locked: " + strings.Join(parts, " ")
}
