package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseHex decodes a series of hex strings. Whitespace is ignored to allow
// formats like "FF B0 00".
func ParseHex(parts ...string) ([]byte, error) {
	clean := strings.Join(strings.Fields(strings.Join(parts, " ")), "")

	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid input '%s': %w", clean, err)
	}
	return data, nil
}

// Hex is ParseHex for fixtures and tests. It panics on invalid input.
func Hex(parts ...string) []byte {
	data, err := ParseHex(parts...)
	if err != nil {
		panic(err.Error())
	}
	return data
}
