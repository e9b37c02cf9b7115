package cardsim

import (
	"testing"

	"github.com/gregLibert/sle4442/pkg/apdu"
	"github.com/gregLibert/sle4442/pkg/tlv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selected(t *testing.T) *Card {
	t.Helper()
	c := New()
	require.Equal(t, tlv.Hex("9000"), c.Process(tlv.Hex("FF A4 00 00 01 06")))
	return c
}

func TestCard_RequiresSelect(t *testing.T) {
	c := New()
	assert.Equal(t, tlv.Hex("6A81"), c.Process(tlv.Hex("FF B0 00 00 03")))
	assert.Equal(t, tlv.Hex("6B00"), c.Process(tlv.Hex("FF A4 00 00 01 05")))
	assert.Equal(t, tlv.Hex("6E00"), c.Process(tlv.Hex("00 A4 00 00")))
}

func TestCard_Read(t *testing.T) {
	c := selected(t)

	assert.Equal(t, tlv.Hex("A2131091", "9000"), c.Process(tlv.Hex("FF B0 00 00 03")))

	full := c.Process(tlv.Hex("FF B0 00 00 FF"))
	require.Len(t, full, 258)
	assert.Equal(t, tlv.Hex("9000"), full[256:])

	assert.Equal(t, tlv.Hex("6B00"), c.Process(tlv.Hex("FF B0 00 10 01")))
	assert.Equal(t, tlv.Hex("6700"), c.Process(tlv.Hex("FF B0 00 10")))
}

func TestCard_VerifyCounter(t *testing.T) {
	c := selected(t)

	assert.Equal(t, tlv.Hex("63C2"), c.Process(tlv.Hex("FF 20 00 00 03 01 02 03")))
	assert.Equal(t, 2, c.ErrorCounter())
	assert.False(t, c.Verified())

	// A correct presentation restores the counter.
	assert.Equal(t, tlv.Hex("9000"), c.Process(tlv.Hex("FF 20 00 00 03 FF FF FF")))
	assert.Equal(t, apdu.MaxRetries, c.ErrorCounter())
	assert.True(t, c.Verified())
}

func TestCard_Lockout(t *testing.T) {
	c := selected(t)

	assert.Equal(t, tlv.Hex("63C2"), c.Process(tlv.Hex("FF 20 00 00 03 00 00 00")))
	assert.Equal(t, tlv.Hex("63C1"), c.Process(tlv.Hex("FF 20 00 00 03 00 00 00")))
	assert.Equal(t, tlv.Hex("63C0"), c.Process(tlv.Hex("FF 20 00 00 03 00 00 00")))

	// Locked for good, even with the right code.
	assert.Equal(t, tlv.Hex("6983"), c.Process(tlv.Hex("FF 20 00 00 03 FF FF FF")))
	assert.Zero(t, c.ErrorCounter())
}

func TestCard_Write(t *testing.T) {
	c := selected(t)

	assert.Equal(t, tlv.Hex("6982"), c.Process(tlv.Hex("FF D6 00 50 02 AA BB")), "write before verify")

	require.Equal(t, tlv.Hex("9000"), c.Process(tlv.Hex("FF 20 00 00 03 FF FF FF")))
	assert.Equal(t, tlv.Hex("9000"), c.Process(tlv.Hex("FF D6 00 50 02 AA BB")))
	assert.Equal(t, tlv.Hex("AABB"), c.Memory()[0x50:0x52])

	assert.Equal(t, tlv.Hex("6700"), c.Process(tlv.Hex("FF D6 00 50 03 AA BB")), "length mismatch")
	assert.Equal(t, tlv.Hex("6B00"), c.Process(tlv.Hex("FF D6 00 FF 02 AA BB")), "past end of memory")
}

func TestCard_WriteProtected(t *testing.T) {
	c := selected(t)
	c.Lock(0x02)
	require.Equal(t, tlv.Hex("9000"), c.Process(tlv.Hex("FF 20 00 00 03 FF FF FF")))

	assert.Equal(t, tlv.Hex("6581"), c.Process(tlv.Hex("FF D6 00 00 04 00 00 00 00")))
	assert.Equal(t, DefaultATR, c.Memory()[:4], "ATR must survive")

	assert.Equal(t, tlv.Hex("FB FF FF FF", "9000"), c.Process(tlv.Hex("FF 3A 00 00 03")))
	assert.Equal(t, tlv.Hex("6B00"), c.Process(tlv.Hex("FF 3A 00 00 04")))
}

func TestCard_Modify(t *testing.T) {
	c := selected(t)
	modify := tlv.Hex("FF 21 00 00 06 FF FF FF 12 34 56")

	assert.Equal(t, tlv.Hex("6982"), c.Process(modify))

	require.Equal(t, tlv.Hex("9000"), c.Process(tlv.Hex("FF 20 00 00 03 FF FF FF")))
	assert.Equal(t, tlv.Hex("9000"), c.Process(modify))
	assert.Equal(t, tlv.Hex("63C2"), c.Process(tlv.Hex("FF 20 00 00 03 FF FF FF")), "old code no longer valid")
	assert.Equal(t, tlv.Hex("9000"), c.Process(tlv.Hex("FF 20 00 00 03 12 34 56")))
}

func TestCard_UnknownInstruction(t *testing.T) {
	c := selected(t)
	assert.Equal(t, tlv.Hex("6D00"), c.Process(tlv.Hex("FF CA 00 00 00")))
	assert.Len(t, c.Frames(), 2)
}
