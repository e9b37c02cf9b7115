package tlv

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"
)

// Describe renders packets one per line, constructed tags indented under their parent.
// It DOES NOT add a trailing newline.
func Describe(packets []bertlv.TLV) string {
	var lines []string
	describeInto(&lines, packets, 1)
	return strings.Join(lines, "\n")
}

func describeInto(lines *[]string, packets []bertlv.TLV, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, p := range packets {
		if len(p.TLVs) > 0 {
			*lines = append(*lines, fmt.Sprintf("%s- Tag %s: (%d children)", indent, strings.ToUpper(p.Tag), len(p.TLVs)))
			describeInto(lines, p.TLVs, depth+1)
			continue
		}
		*lines = append(*lines, fmt.Sprintf("%s- Tag %s: %X (%q)", indent, strings.ToUpper(p.Tag), p.Value, MakeSafeASCII(p.Value)))
	}
}

// MakeSafeASCII replaces non-printable bytes by '.'.
func MakeSafeASCII(data []byte) string {
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '.'
	}, string(data))
}
