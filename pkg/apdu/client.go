package apdu

import (
	"errors"
)

// CLIENT:
// The Client is the thin exchange layer over the physical session: encode, transmit,
// split the answer. Memory card pseudo-APDUs are answered in a single exchange, so no
// GET RESPONSE chaining is performed.

// Transmitter abstracts the physical card connection.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the exchange of commands with the card.
type Client struct {
	Card Transmitter
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card}
}

// Send transmits a command and splits the answer into data and status word.
//
// Transport failures are returned as *TransportError and malformed answers as
// *ProtocolError. A non-success status word is NOT an error.
func (c *Client) Send(cmd *CommandAPDU) (*Transaction, error) {
	rawResp, err := c.Card.Transmit(cmd.Bytes())
	if err != nil {
		return nil, &TransportError{Kind: cmd.Kind, Err: err}
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		var perr *ProtocolError
		if errors.As(err, &perr) {
			perr.Kind = cmd.Kind
		}
		return nil, err
	}

	return &Transaction{Command: cmd, Response: resp}, nil
}
