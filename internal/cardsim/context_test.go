package cardsim

import (
	"errors"
	"testing"

	"github.com/gregLibert/sle4442/pkg/tlv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_ConnectLifecycle(t *testing.T) {
	card := New()
	ctx := NewContext(card)

	readers, err := ctx.ListReaders()
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultReader}, readers)

	_, err = ctx.Connect("other reader")
	assert.ErrorIs(t, err, ErrUnknownReader)

	s, err := ctx.Connect(DefaultReader)
	require.NoError(t, err)
	assert.True(t, ctx.Connected())

	_, err = ctx.Connect(DefaultReader)
	assert.ErrorIs(t, err, ErrSharing)

	resp, err := s.Transmit(tlv.Hex("FF A4 00 00 01 06"))
	require.NoError(t, err)
	assert.Equal(t, tlv.Hex("9000"), resp)

	require.NoError(t, s.Disconnect())
	assert.ErrorIs(t, s.Disconnect(), ErrNoCard)
	assert.False(t, ctx.Connected())

	_, err = s.Transmit(tlv.Hex("FF B0 00 00 00"))
	assert.ErrorIs(t, err, ErrNoCard)

	require.NoError(t, ctx.Release())
	assert.ErrorIs(t, ctx.Release(), ErrReleased)
	assert.True(t, ctx.Released())
}

func TestContext_PowerDownResetsSecurity(t *testing.T) {
	card := New()
	ctx := NewContext(card)

	s, err := ctx.Connect(DefaultReader)
	require.NoError(t, err)
	_, _ = s.Transmit(tlv.Hex("FF A4 00 00 01 06"))
	_, _ = s.Transmit(tlv.Hex("FF 20 00 00 03 FF FF FF"))
	require.True(t, card.Verified())

	require.NoError(t, s.Disconnect())
	assert.False(t, card.Verified())
}

func TestContext_EmptyReader(t *testing.T) {
	ctx := NewContext(nil)
	_, err := ctx.Connect(DefaultReader)
	assert.ErrorIs(t, err, ErrNoCard)

	ctx.Reader = ""
	readers, err := ctx.ListReaders()
	require.NoError(t, err)
	assert.Empty(t, readers)
}

func TestContext_InjectedFailures(t *testing.T) {
	ctx := NewContext(New())
	boom := errors.New("boom")

	ctx.ListErr = boom
	_, err := ctx.ListReaders()
	assert.ErrorIs(t, err, boom)

	s, err := ctx.Connect(DefaultReader)
	require.NoError(t, err)

	ctx.TransmitErr = boom
	_, err = s.Transmit(tlv.Hex("FF A4 00 00 01 06"))
	assert.ErrorIs(t, err, boom)

	ctx.DisconnectErr = boom
	assert.ErrorIs(t, s.Disconnect(), boom)
	assert.False(t, ctx.Connected(), "session is gone even when disconnect reports an error")
}
