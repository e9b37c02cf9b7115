package apdu

import (
	"fmt"

	"github.com/gregLibert/sle4442/pkg/bits"
)

// PIN Retry Logic:
//
// After a failed VERIFY_PIN, the reader answers '63 XX'. The low nibble of SW2 encodes
// the remaining presentation attempts of the card's error counter:
//
//	x1 -> 1 attempt left
//	x2 -> 2 attempts left
//	x0 -> ambiguous. Some readers use it for a fresh counter (3 left), others for a
//	      locked card. Reported as 0 unless the caller opts into TrustZeroNibble.
//	any other -> 0 (locked or unknown)
//
// Over-reporting attempts on a locked card invites further PIN entry, so every
// unknown case resolves to 0.

// StatusWord represents the two-byte status response (SW1-SW2) returned by the card.
type StatusWord uint16

// NewStatusWord creates a StatusWord instance from two separate bytes.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(uint16(sw1)<<8 | uint16(sw2))
}

// SW1 returns the first byte (high byte) of the status word.
func (sw StatusWord) SW1() byte {
	return byte(sw >> 8)
}

// SW2 returns the second byte (low byte) of the status word.
func (sw StatusWord) SW2() byte {
	return byte(sw)
}

// IsSuccess returns true only for 9000.
func (sw StatusWord) IsSuccess() bool {
	return sw == SW_NO_ERROR
}

// IsPINFailure reports the '63XX' family returned by a rejected VERIFY_PIN.
func (sw StatusWord) IsPINFailure() bool {
	return sw.SW1() == 0x63
}

// RetryPolicy selects how the ambiguous '0' retry nibble is read.
type RetryPolicy int

const (
	// Conservative reads nibble 0 as no attempts left.
	Conservative RetryPolicy = iota
	// TrustZeroNibble reads nibble 0 as a fresh counter (3 attempts). Use it only
	// when the reader documentation confirms that encoding.
	TrustZeroNibble
)

// MaxRetries is the size of the SLE4442 error counter.
const MaxRetries = 3

// RetryCount is the decoded PIN error counter.
type RetryCount struct {
	Remaining int
	// Ambiguous is set when the nibble did not map to a confirmed value and
	// Remaining was forced to 0.
	Ambiguous bool
}

// Retries decodes the remaining PIN attempts. ok is false when the status word is
// not a PIN failure, in which case the count is meaningless.
func (sw StatusWord) Retries(policy RetryPolicy) (rc RetryCount, ok bool) {
	if !sw.IsPINFailure() {
		return RetryCount{}, false
	}

	switch bits.LowNibble(sw.SW2()) {
	case 0x02:
		return RetryCount{Remaining: 2}, true
	case 0x01:
		return RetryCount{Remaining: 1}, true
	case 0x00:
		if policy == TrustZeroNibble {
			return RetryCount{Remaining: MaxRetries}, true
		}
		return RetryCount{Remaining: 0, Ambiguous: true}, true
	default:
		return RetryCount{Remaining: 0, Ambiguous: true}, true
	}
}

// DecodeRetries returns the remaining attempts under the Conservative policy.
// It returns 0 for any status word outside the '63XX' family.
func DecodeRetries(sw StatusWord) int {
	rc, _ := sw.Retries(Conservative)
	return rc.Remaining
}

// String returns the constant name of well-known status words.
func (sw StatusWord) String() string {
	if name, ok := statusNames[sw]; ok {
		return name
	}
	return fmt.Sprintf("StatusWord(0x%04X)", uint16(sw))
}

// Verbose returns a human-readable description of the status word.
func (sw StatusWord) Verbose() string {
	if sw.IsPINFailure() && sw != SW_WARN_NOT_VERIFIED {
		rc, _ := sw.Retries(Conservative)
		if rc.Ambiguous {
			return fmt.Sprintf("[%04X] PIN verification failed, retry count unconfirmed (treated as 0)", uint16(sw))
		}
		return fmt.Sprintf("[%04X] PIN verification failed, %d attempt(s) left", uint16(sw), rc.Remaining)
	}

	if desc, ok := statusDescriptions[sw]; ok {
		return fmt.Sprintf("[%04X] %s: %s", uint16(sw), sw, desc)
	}

	return fmt.Sprintf("[%04X] %s", uint16(sw), sw.genericCategoryDescription())
}

// genericCategoryDescription provides a fallback description based on SW1.
func (sw StatusWord) genericCategoryDescription() string {
	switch sw.SW1() {
	case 0x62:
		return "Warning: memory unchanged"
	case 0x63:
		return "Warning: memory changed"
	case 0x64:
		return "Execution Error: memory unchanged"
	case 0x65:
		return "Execution Error: memory changed"
	case 0x67:
		return "Checking Error: wrong length"
	case 0x69:
		return "Checking Error: command not allowed"
	case 0x6A:
		return "Checking Error: wrong parameters"
	default:
		return "Unknown Status"
	}
}

// Status Word codes returned by PC/SC readers for synchronous memory cards.
const (
	SW_NO_ERROR StatusWord = 0x9000

	SW_WARN_DATA_CORRUPTED StatusWord = 0x6281
	SW_WARN_END_OF_MEMORY  StatusWord = 0x6282
	SW_WARN_NOT_VERIFIED   StatusWord = 0x6300
	SW_WARN_COUNTER_0      StatusWord = 0x63C0

	SW_ERR_MEMORY_FAILURE          StatusWord = 0x6581
	SW_ERR_WRONG_LENGTH            StatusWord = 0x6700
	SW_ERR_SECURITY_STATUS_NOT_SAT StatusWord = 0x6982
	SW_ERR_AUTH_METHOD_BLOCKED     StatusWord = 0x6983
	SW_ERR_FUNC_NOT_SUPPORTED      StatusWord = 0x6A81
	SW_ERR_WRONG_P1P2              StatusWord = 0x6B00
	SW_ERR_INS_INVALID             StatusWord = 0x6D00
	SW_ERR_CLA_NOT_SUPPORTED       StatusWord = 0x6E00
	SW_ERR_UNKNOWN                 StatusWord = 0x6F00
)

var statusNames = map[StatusWord]string{
	SW_NO_ERROR:                    "SW_NO_ERROR",
	SW_WARN_DATA_CORRUPTED:         "SW_WARN_DATA_CORRUPTED",
	SW_WARN_END_OF_MEMORY:          "SW_WARN_END_OF_MEMORY",
	SW_WARN_NOT_VERIFIED:           "SW_WARN_NOT_VERIFIED",
	SW_WARN_COUNTER_0:              "SW_WARN_COUNTER_0",
	SW_ERR_MEMORY_FAILURE:          "SW_ERR_MEMORY_FAILURE",
	SW_ERR_WRONG_LENGTH:            "SW_ERR_WRONG_LENGTH",
	SW_ERR_SECURITY_STATUS_NOT_SAT: "SW_ERR_SECURITY_STATUS_NOT_SAT",
	SW_ERR_AUTH_METHOD_BLOCKED:     "SW_ERR_AUTH_METHOD_BLOCKED",
	SW_ERR_FUNC_NOT_SUPPORTED:      "SW_ERR_FUNC_NOT_SUPPORTED",
	SW_ERR_WRONG_P1P2:              "SW_ERR_WRONG_P1P2",
	SW_ERR_INS_INVALID:             "SW_ERR_INS_INVALID",
	SW_ERR_CLA_NOT_SUPPORTED:       "SW_ERR_CLA_NOT_SUPPORTED",
	SW_ERR_UNKNOWN:                 "SW_ERR_UNKNOWN",
}

var statusDescriptions = map[StatusWord]string{
	SW_NO_ERROR:                    "Success",
	SW_WARN_DATA_CORRUPTED:         "Part of returned data may be corrupted",
	SW_WARN_END_OF_MEMORY:          "End of memory reached before end of range",
	SW_WARN_NOT_VERIFIED:           "Verification failed, no retry information",
	SW_ERR_MEMORY_FAILURE:          "Memory failure, write did not complete",
	SW_ERR_WRONG_LENGTH:            "Wrong length",
	SW_ERR_SECURITY_STATUS_NOT_SAT: "Security status not satisfied (verify PIN first)",
	SW_ERR_AUTH_METHOD_BLOCKED:     "PIN blocked",
	SW_ERR_FUNC_NOT_SUPPORTED:      "Function not supported by card",
	SW_ERR_WRONG_P1P2:              "Wrong parameters (address out of range)",
	SW_ERR_INS_INVALID:             "Instruction not supported",
	SW_ERR_CLA_NOT_SUPPORTED:       "Class not supported",
	SW_ERR_UNKNOWN:                 "No precise diagnosis",
}
