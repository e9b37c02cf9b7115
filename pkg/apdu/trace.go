package apdu

import (
	"fmt"
	"strings"
)

// TRANSACTION:
// One Command APDU sent by the host followed by one Response APDU from the card.
//
// TRACE:
// The chronological sequence of Transactions of a card session. It replaces ad-hoc
// printing: a Trace can be rendered at any time with Describe, which never exposes
// PIN bytes.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace.
// Returns nil if the trace is empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the FINAL transaction in the trace was successful.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Describe renders one line per transaction. PIN bytes are masked.
func (t Trace) Describe() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("=== SESSION TRACE (%d transactions) ===", len(t)))
	for i, tx := range t {
		sb.WriteString(fmt.Sprintf("\n[%d] %s", i+1, tx.Command))
		if tx.Response == nil {
			sb.WriteString("\n    -> no response")
			continue
		}

		mark := "[OK]"
		if !tx.IsSuccess() {
			mark = "[!!]"
		}
		sb.WriteString(fmt.Sprintf("\n    -> %s %s | %d bytes", mark, tx.Response.Status.Verbose(), len(tx.Response.Data)))
	}

	return sb.String()
}
