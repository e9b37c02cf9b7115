package sle4442

import (
	"fmt"
	"strings"

	"github.com/gregLibert/sle4442/pkg/apdu"
	"github.com/gregLibert/sle4442/pkg/tlv"
)

// Result is the outcome of one card operation. A Result is returned whenever the card
// answered, including with a failure status; use IsSuccess or Err to evaluate it.
type Result struct {
	Command *apdu.CommandAPDU
	Status  apdu.StatusWord
	Data    []byte

	// Retries is decoded for VERIFY_PIN answers in the '63XX' family.
	Retries    apdu.RetryCount
	HasRetries bool
}

func newResult(tx *apdu.Transaction, policy apdu.RetryPolicy) *Result {
	r := &Result{
		Command: tx.Command,
		Status:  tx.Response.Status,
		Data:    tx.Response.Data,
	}
	if tx.Command.Kind == apdu.KindVerifyPIN {
		r.Retries, r.HasRetries = r.Status.Retries(policy)
	}
	return r
}

// IsSuccess reports a 9000 status word.
func (r *Result) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// Err returns nil on success and a *StatusError otherwise.
func (r *Result) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return &StatusError{
		Kind:       r.Command.Kind,
		Status:     r.Status,
		Retries:    r.Retries,
		HasRetries: r.HasRetries,
	}
}

// Describe generates a report of the operation. PIN bytes are masked.
func (r *Result) Describe() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("=== %s COMMAND REPORT ===\n", r.Command.Kind))
	sb.WriteString(fmt.Sprintf("[1] Command: %s\n", r.Command.Redacted()))

	resultMsg := "[OK]"
	if !r.IsSuccess() {
		resultMsg = "[!!]"
	}
	sb.WriteString(fmt.Sprintf("    + Result:  [%02X %02X] %s %s\n", r.Status.SW1(), r.Status.SW2(), resultMsg, r.Status.Verbose()))

	if r.HasRetries {
		left := fmt.Sprintf("%d", r.Retries.Remaining)
		if r.Retries.Ambiguous {
			left += " (unconfirmed)"
		}
		sb.WriteString(fmt.Sprintf("    + Retries: %s\n", left))
	}

	sb.WriteString("[=] DATA OUTCOME:\n")
	if len(r.Data) > 0 {
		sb.WriteString(fmt.Sprintf("    + Length: %d bytes\n", len(r.Data)))
		sb.WriteString(fmt.Sprintf("    + Dump:   %X\n", r.Data))
		sb.WriteString(fmt.Sprintf("    + ASCII:  %q\n", tlv.MakeSafeASCII(r.Data)))
	} else {
		sb.WriteString("    - No Data Received.\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
