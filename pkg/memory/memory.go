// Package memory describes the memory map of SLE4442 cards and analyses main memory dumps.
//
// Main memory is 256 bytes. The first 32 bytes can be write-locked forever through the
// protection memory; by convention they hold the ATR header (ISO/IEC 7816-10) and
// issuer/manufacturer identification. Applications use the remaining user area.
package memory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gregLibert/sle4442/pkg/bits"
	"github.com/gregLibert/sle4442/pkg/tlv"
	"github.com/moov-io/bertlv"
)

const (
	// MainMemorySize is the size of the addressable main memory.
	MainMemorySize = 256

	// ProtectedAreaSize is the number of leading bytes covered by protection bits.
	ProtectedAreaSize = 32

	// SafeWriteStart is the first address outside the protectable area. Writing below
	// it may destroy the card identification; callers must decide explicitly.
	SafeWriteStart = ProtectedAreaSize

	// HeaderSize is the length of the ATR header (H1..H4).
	HeaderSize = 4

	// erased is the value of unwritten EEPROM cells.
	erased = 0xFF
)

var (
	// ErrShortDump is returned when a dump does not even hold the ATR header.
	ErrShortDump = errors.New("memory dump too short")

	// ErrOutOfRange is returned for slices outside the dump.
	ErrOutOfRange = errors.New("address range outside memory dump")
)

// IsSafeWrite reports whether writing n bytes at addr stays inside the user area.
// The driver never calls it: it is a helper for callers honouring their obligation.
func IsSafeWrite(addr, n int) bool {
	return addr >= SafeWriteStart && n >= 0 && addr+n <= MainMemorySize
}

// ProtocolType is the high nibble of H1.
type ProtocolType byte

const (
	ProtocolSerialDataAccess ProtocolType = 0x08
	Protocol3WireBus         ProtocolType = 0x09
	Protocol2WireBus         ProtocolType = 0x0A
)

func (p ProtocolType) String() string {
	switch p {
	case ProtocolSerialDataAccess:
		return "Serial data access"
	case Protocol3WireBus:
		return "3-wire bus (SLE4418/4428 family)"
	case Protocol2WireBus:
		return "2-wire bus (SLE4432/4442 family)"
	default:
		return fmt.Sprintf("Unknown protocol (0x%X)", byte(p))
	}
}

// Header is the 4-byte answer-to-reset stored at address 0.
type Header struct {
	H1, H2, H3, H4 byte
}

// Protocol returns the protocol type encoded in H1.
func (h Header) Protocol() ProtocolType {
	return ProtocolType(bits.HighNibble(h.H1))
}

// StructureID returns the data structure identifier encoded in H1.
func (h Header) StructureID() byte {
	return bits.LowNibble(h.H1)
}

// Bytes returns H1..H4.
func (h Header) Bytes() []byte {
	return []byte{h.H1, h.H2, h.H3, h.H4}
}

// Dump is a copy of (a prefix of) the main memory read from address 0.
type Dump struct {
	Data   []byte
	Header Header
}

// ParseDump wraps data read from address 0. The slice is copied.
func ParseDump(data []byte) (*Dump, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrShortDump, len(data), HeaderSize)
	}

	d := &Dump{Data: make([]byte, len(data))}
	copy(d.Data, data)
	d.Header = Header{H1: data[0], H2: data[1], H3: data[2], H4: data[3]}
	return d, nil
}

// Slice returns n bytes starting at addr.
func (d *Dump) Slice(addr, n int) ([]byte, error) {
	if addr < 0 || n < 0 || addr+n > len(d.Data) {
		return nil, fmt.Errorf("%w: [%d, %d) of %d bytes", ErrOutOfRange, addr, addr+n, len(d.Data))
	}
	return d.Data[addr : addr+n], nil
}

// UserArea returns the bytes from SafeWriteStart to the end of the dump.
func (d *Dump) UserArea() []byte {
	if len(d.Data) <= SafeWriteStart {
		return nil
	}
	return d.Data[SafeWriteStart:]
}

// UserRecords decodes the user area as BER-TLV records. Trailing erased bytes (0xFF)
// are ignored; an entirely erased area yields no records.
func (d *Dump) UserRecords() ([]bertlv.TLV, error) {
	area := d.UserArea()
	end := len(area)
	for end > 0 && area[end-1] == erased {
		end--
	}

	packets, err := tlv.Decode(area[:end])
	if err != nil {
		return nil, fmt.Errorf("user area at 0x%02X: %w", SafeWriteStart, err)
	}
	return packets, nil
}

// Describe generates a report of the header and the user area.
func (d *Dump) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== SLE4442 MEMORY REPORT ===\n")
	sb.WriteString(fmt.Sprintf("    + Size:      %d bytes\n", len(d.Data)))
	sb.WriteString(fmt.Sprintf("    + ATR:       %X\n", d.Header.Bytes()))
	sb.WriteString(fmt.Sprintf("    + Protocol:  %s\n", d.Header.Protocol()))
	sb.WriteString(fmt.Sprintf("    + Structure: %X\n", d.Header.StructureID()))

	area := d.UserArea()
	if len(area) == 0 {
		sb.WriteString("    - No user area in dump.")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("[=] USER AREA (0x%02X, %d bytes):\n", SafeWriteStart, len(area)))
	records, err := d.UserRecords()
	switch {
	case err != nil:
		sb.WriteString(fmt.Sprintf("    - Not BER-TLV: %v\n", err))
		sb.WriteString(fmt.Sprintf("    + ASCII: %q", tlv.MakeSafeASCII(area)))
	case len(records) == 0:
		sb.WriteString("    - Erased.")
	default:
		sb.WriteString(tlv.Describe(records))
	}

	return sb.String()
}
