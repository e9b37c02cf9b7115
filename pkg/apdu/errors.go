package apdu

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument reports malformed caller input (wrong PIN length, out-of-range address or length).
var ErrInvalidArgument = errors.New("invalid argument")

// ProtocolError reports an answer from the card that does not follow the response layout.
type ProtocolError struct {
	Kind   Kind   // Command that produced the answer
	Raw    []byte // Answer as received
	Reason string
}

func (e *ProtocolError) Error() string {
	if e.Kind == kindNone {
		return fmt.Sprintf("protocol error: %s (%d bytes received)", e.Reason, len(e.Raw))
	}
	return fmt.Sprintf("%s: protocol error: %s (%d bytes received)", e.Kind, e.Reason, len(e.Raw))
}

// TransportError reports a failure of the underlying session while exchanging a command.
// It is never folded into a StatusWord.
type TransportError struct {
	Kind Kind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transmission error: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
