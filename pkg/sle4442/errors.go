package sle4442

import (
	"errors"
	"fmt"

	"github.com/gregLibert/sle4442/pkg/apdu"
)

// Driver-level errors. Transmission and framing failures are reported with the
// apdu package types (*apdu.TransportError, *apdu.ProtocolError, apdu.ErrInvalidArgument).
var (
	ErrNotConnected     = errors.New("card not connected")
	ErrAlreadyConnected = errors.New("card already connected")
	ErrNoReader         = errors.New("no smart card reader found")
	ErrContextReleased  = errors.New("reader context already released")
	ErrExperimental     = errors.New("experimental operation not enabled")
)

// ConnectError reports a failure to reach the Ready state: no reader, context
// failure, or a SELECT rejected by the card.
type ConnectError struct {
	Reader string
	Err    error
}

func (e *ConnectError) Error() string {
	if e.Reader != "" {
		return fmt.Sprintf("connect %q: %v", e.Reader, e.Err)
	}
	return fmt.Sprintf("connect: %v", e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// StatusError carries a non-success status word with the decoded PIN counter
// when the status belongs to the '63XX' family.
type StatusError struct {
	Kind       apdu.Kind
	Status     apdu.StatusWord
	Retries    apdu.RetryCount
	HasRetries bool
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s rejected by card: %s", e.Kind, e.Status.Verbose())
	if e.HasRetries {
		msg += fmt.Sprintf(" (remaining attempts: %d)", e.Retries.Remaining)
	}
	return msg
}
