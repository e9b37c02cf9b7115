package apdu

import (
	"fmt"
	"strings"
)

// Limits of the memory card command set.
const (
	// MaxAddress is the highest addressable byte of the main memory.
	MaxAddress = 255

	// MaxDataLength is the largest payload a single WRITE can carry (1-byte length field).
	MaxDataLength = 255

	// PINLength is the size of the Programmable Security Code of SLE4442 cards.
	PINLength = 3

	// verifyAttemptByte is the fixed length byte preceding the PIN in VERIFY_PIN.
	verifyAttemptByte = 0x03

	// statusWordLength is the size of the SW1 SW2 trailer.
	statusWordLength = 2
)

// Kind enumerates the operations understood by the reader for memory cards.
type Kind int

// kindNone marks errors raised before the command is known.
const kindNone Kind = -1

const (
	KindSelect Kind = iota
	KindRead
	KindReadProtected
	KindVerifyPIN
	KindModifyPIN
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindRead:
		return "READ"
	case KindReadProtected:
		return "READ_PROTECTED"
	case KindVerifyPIN:
		return "VERIFY_PIN"
	case KindModifyPIN:
		return "MODIFY_PIN"
	case KindWrite:
		return "WRITE"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Prefix returns a copy of the fixed class/instruction bytes of the command kind.
func (k Kind) Prefix() []byte {
	switch k {
	case KindSelect:
		return []byte{0xFF, 0xA4, 0x00, 0x00, 0x01, 0x06}
	case KindRead:
		return []byte{0xFF, 0xB0, 0x00}
	case KindReadProtected:
		return []byte{0xFF, 0x3A, 0x00}
	case KindVerifyPIN:
		return []byte{0xFF, 0x20, 0x00, 0x00}
	case KindModifyPIN:
		return []byte{0xFF, 0x21, 0x00, 0x00}
	case KindWrite:
		return []byte{0xFF, 0xD6, 0x00}
	default:
		return nil
	}
}

// Sensitive reports whether the parameters of the command carry PIN material.
func (k Kind) Sensitive() bool {
	return k == KindVerifyPIN || k == KindModifyPIN
}

// CommandAPDU represents a command sent to the card.
type CommandAPDU struct {
	Kind   Kind
	Params []byte // Bytes appended after the fixed prefix
}

// Bytes encodes the command as transmitted: prefix ++ parameters.
func (c *CommandAPDU) Bytes() []byte {
	prefix := c.Kind.Prefix()
	out := make([]byte, 0, len(prefix)+len(c.Params))
	out = append(out, prefix...)
	return append(out, c.Params...)
}

// Len returns the encoded length without allocating the frame.
func (c *CommandAPDU) Len() int {
	return len(c.Kind.Prefix()) + len(c.Params)
}

// Redacted returns the hex encoding of the command with PIN bytes masked.
// This is the only representation of a command that may reach a log.
func (c *CommandAPDU) Redacted() string {
	prefix := c.Kind.Prefix()
	parts := make([]string, 0, len(prefix)+len(c.Params))
	for _, b := range prefix {
		parts = append(parts, fmt.Sprintf("%02X", b))
	}

	for i, b := range c.Params {
		// The first parameter of PIN commands is the length byte.
		if c.Kind.Sensitive() && i > 0 {
			parts = append(parts, "**")
			continue
		}
		parts = append(parts, fmt.Sprintf("%02X", b))
	}
	return strings.Join(parts, " ")
}

// String returns a readable, PIN-safe representation of the command.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | %s", c.Kind, c.Redacted())
}

// ResponseAPDU represents the reply from the card: optional data followed by SW1 SW2.
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU splits raw bytes received from the card into data and status word.
// The input must contain at least 2 bytes (SW1, SW2).
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < statusWordLength {
		return nil, &ProtocolError{Kind: kindNone, Raw: raw, Reason: "response shorter than status word"}
	}

	indexSW1 := len(raw) - statusWordLength
	data := make([]byte, indexSW1)
	copy(data, raw[:indexSW1])

	return &ResponseAPDU{
		Data:   data,
		Status: NewStatusWord(raw[indexSW1], raw[indexSW1+1]),
	}, nil
}

// Bytes re-encodes the response as data ++ SW1 ++ SW2.
func (r *ResponseAPDU) Bytes() []byte {
	out := make([]byte, 0, len(r.Data)+statusWordLength)
	out = append(out, r.Data...)
	return append(out, r.Status.SW1(), r.Status.SW2())
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
