package tlv

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/moov-io/bertlv"
)

func TestDescribe(t *testing.T) {
	packets := []bertlv.TLV{
		{Tag: "70", TLVs: []bertlv.TLV{
			{Tag: "50", Value: []byte("ABC")},
			{Tag: "5f20", Value: []byte{0x41, 0x00}},
		}},
		{Tag: "9F02", Value: []byte{0x01, 0x00}},
	}

	expectedLines := []string{
		"    - Tag 70: (2 children)",
		`        - Tag 50: 414243 ("ABC")`,
		`        - Tag 5F20: 4100 ("A.")`,
		`    - Tag 9F02: 0100 ("..")`,
	}

	actualLines := strings.Split(Describe(packets), "\n")
	if diff := cmp.Diff(expectedLines, actualLines); diff != "" {
		t.Errorf("Describe() mismatch (-want +got):\n%s", diff)
	}
}

func TestMakeSafeASCII(t *testing.T) {
	tests := map[string]string{
		"VISA\x00": "VISA.",
		"\xff\xff": "..",
		"a b~":     "a b~",
		"\t\n":     "..",
	}
	for in, want := range tests {
		if got := MakeSafeASCII([]byte(in)); got != want {
			t.Errorf("MakeSafeASCII(%q) = %q, want %q", in, got, want)
		}
	}
}
