// Package tlv provides BER-TLV helpers for the records applications store in the
// user area of memory cards.
package tlv

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"
)

// Decode parses raw BER-TLV data into packets.
func Decode(data []byte) ([]bertlv.TLV, error) {
	if len(data) == 0 {
		return nil, nil
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("bertlv decode failed: %w", err)
	}
	return packets, nil
}

// Encode serializes packets back to BER-TLV.
func Encode(packets []bertlv.TLV) ([]byte, error) {
	data, err := bertlv.Encode(packets)
	if err != nil {
		return nil, fmt.Errorf("bertlv encode failed: %w", err)
	}
	return data, nil
}

// Find scans packets depth-first for a tag (case insensitive hex, e.g. "5F20").
func Find(packets []bertlv.TLV, tag string) (bertlv.TLV, bool) {
	for _, p := range packets {
		if strings.EqualFold(p.Tag, tag) {
			return p, true
		}
		if found, ok := Find(p.TLVs, tag); ok {
			return found, true
		}
	}
	return bertlv.TLV{}, false
}
