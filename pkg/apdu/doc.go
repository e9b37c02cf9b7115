/*
Package apdu builds and interprets the PC/SC pseudo-APDUs used to drive SLE4442-family memory cards.

Memory cards have no on-card application: the reader firmware translates a small set of
class 'FF' commands into the synchronous 2-wire protocol of the chip. This package provides
the byte framing for those commands and the analysis of the card's answer.

# Command Layout

Every command is a fixed prefix followed by operation-specific parameters:

	SELECT          FF A4 00 00 01 06
	READ            FF B0 00 <start> <end>
	READ_PROTECTED  FF 3A 00 <start> <end>
	VERIFY_PIN      FF 20 00 00 03 <p0> <p1> <p2>
	MODIFY_PIN      FF 21 00 00 <len> <old...> <new...>
	WRITE           FF D6 00 <addr> <len> <data...>

The prefixes are constants; builders only ever append parameter bytes to a fresh copy.

# Status Words

Every response ends with a 2-byte Status Word (SW1 SW2):
  - 0x9000: Success.
  - 0x63XX: PIN verification failed. The low nibble of SW2 carries the remaining attempts.
  - 0x6983: PIN blocked.
  - Other: Various error conditions, see StatusWord.Verbose.

Decoding never fails: ParseResponseAPDU only rejects answers shorter than two bytes, and a
non-success status word is a value, not an error.

# Usage Example: Verifying a PIN

	cmd, err := apdu.VerifyPIN([]byte{0xFF, 0xFF, 0xFF})
	if err != nil {
	    log.Fatal(err) // wrong PIN length
	}

	tx, err := apdu.NewClient(card).Send(cmd)
	if err != nil {
	    log.Fatal(err) // transport or malformed answer
	}

	if !tx.IsSuccess() {
	    left := apdu.DecodeRetries(tx.Response.Status)
	    fmt.Printf("PIN rejected, %d attempt(s) left\n", left)
	}

Callers own the attempt policy: the card locks permanently after three failures.
*/
package apdu
