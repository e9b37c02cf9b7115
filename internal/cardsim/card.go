// Package cardsim simulates an SLE4442 card behind a PC/SC reader.
//
// The simulator answers the same pseudo-APDUs a real reader accepts and keeps the
// security state of the chip: a 3-try error counter, the verified flag (reset when the
// session ends) and the write-once protection bits of the first 32 bytes.
package cardsim

import (
	"bytes"

	"github.com/gregLibert/sle4442/internal/syncutil"
	"github.com/gregLibert/sle4442/pkg/apdu"
	"github.com/gregLibert/sle4442/pkg/memory"
)

// DefaultPIN is the transport code of blank SLE4442 cards.
var DefaultPIN = []byte{0xFF, 0xFF, 0xFF}

// DefaultATR is the header of most SLE4442 cards.
var DefaultATR = []byte{0xA2, 0x13, 0x10, 0x91}

// Instruction bytes understood by the simulated reader.
const (
	insSelect        = 0xA4
	insRead          = 0xB0
	insReadProtected = 0x3A
	insVerify        = 0x20
	insModify        = 0x21
	insWrite         = 0xD6
)

var selectFrame = []byte{0xFF, 0xA4, 0x00, 0x00, 0x01, 0x06}

// Card is a virtual SLE4442 card.
type Card struct {
	mu         syncutil.Mutex
	memory     [memory.MainMemorySize]byte
	protection [memory.ProtectionBitsSize]byte
	pin        [apdu.PINLength]byte
	counter    int
	verified   bool
	selected   bool
	frames     [][]byte
}

// New creates a blank card: default ATR, erased user area, default PIN, full counter.
func New() *Card {
	c := &Card{counter: apdu.MaxRetries}
	for i := range c.memory {
		c.memory[i] = 0xFF
	}
	copy(c.memory[:], DefaultATR)
	for i := range c.protection {
		c.protection[i] = 0xFF
	}
	copy(c.pin[:], DefaultPIN)
	return c
}

// SetPIN replaces the security code without any check.
func (c *Card) SetPIN(pin []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(c.pin[:], pin)
}

// SetMemory stores data at addr without any check.
func (c *Card) SetMemory(addr int, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(c.memory[addr:], data)
}

// Memory returns a copy of the main memory.
func (c *Card) Memory() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, len(c.memory))
	copy(out, c.memory[:])
	return out
}

// Lock clears the protection bit of addr (0-31), making it read-only forever.
func (c *Card) Lock(addr int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.protection[addr/8] &^= 1 << (addr % 8)
}

// ErrorCounter returns the remaining PIN attempts.
func (c *Card) ErrorCounter() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter
}

// Verified reports whether the current session presented the right PIN.
func (c *Card) Verified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verified
}

// Frames returns every command received, in order.
func (c *Card) Frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.frames))
	copy(out, c.frames)
	return out
}

// powerDown resets the volatile security state, as removing power from the chip does.
func (c *Card) powerDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verified = false
	c.selected = false
}

// Process answers one command frame with data ++ SW1 SW2.
func (c *Card) Process(frame []byte) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames = append(c.frames, append([]byte(nil), frame...))

	if len(frame) < 4 || frame[0] != 0xFF {
		return status(apdu.SW_ERR_CLA_NOT_SUPPORTED)
	}

	if frame[1] == insSelect {
		if !bytes.Equal(frame, selectFrame) {
			return status(apdu.SW_ERR_WRONG_P1P2)
		}
		c.selected = true
		return status(apdu.SW_NO_ERROR)
	}

	if !c.selected {
		return status(apdu.SW_ERR_FUNC_NOT_SUPPORTED)
	}

	switch frame[1] {
	case insRead:
		return c.read(frame)
	case insReadProtected:
		return c.readProtected(frame)
	case insVerify:
		return c.verify(frame)
	case insModify:
		return c.modify(frame)
	case insWrite:
		return c.write(frame)
	default:
		return status(apdu.SW_ERR_INS_INVALID)
	}
}

func (c *Card) read(frame []byte) []byte {
	if len(frame) != 5 {
		return status(apdu.SW_ERR_WRONG_LENGTH)
	}
	start, end := int(frame[3]), int(frame[4])
	if start > end {
		return status(apdu.SW_ERR_WRONG_P1P2)
	}
	return withStatus(c.memory[start:end+1], apdu.SW_NO_ERROR)
}

func (c *Card) readProtected(frame []byte) []byte {
	if len(frame) != 5 {
		return status(apdu.SW_ERR_WRONG_LENGTH)
	}
	start, end := int(frame[3]), int(frame[4])
	if start > end || end >= len(c.protection) {
		return status(apdu.SW_ERR_WRONG_P1P2)
	}
	return withStatus(c.protection[start:end+1], apdu.SW_NO_ERROR)
}

func (c *Card) verify(frame []byte) []byte {
	if len(frame) != 5+apdu.PINLength || frame[4] != apdu.PINLength {
		return status(apdu.SW_ERR_WRONG_LENGTH)
	}
	if c.counter == 0 {
		return status(apdu.SW_ERR_AUTH_METHOD_BLOCKED)
	}

	if bytes.Equal(frame[5:], c.pin[:]) {
		c.counter = apdu.MaxRetries
		c.verified = true
		return status(apdu.SW_NO_ERROR)
	}

	c.counter--
	c.verified = false
	return status(apdu.NewStatusWord(0x63, 0xC0|byte(c.counter)))
}

func (c *Card) modify(frame []byte) []byte {
	if len(frame) != 5+2*apdu.PINLength || frame[4] != 2*apdu.PINLength {
		return status(apdu.SW_ERR_WRONG_LENGTH)
	}
	if !c.verified {
		return status(apdu.SW_ERR_SECURITY_STATUS_NOT_SAT)
	}
	if !bytes.Equal(frame[5:5+apdu.PINLength], c.pin[:]) {
		return status(apdu.SW_WARN_NOT_VERIFIED)
	}
	copy(c.pin[:], frame[5+apdu.PINLength:])
	return status(apdu.SW_NO_ERROR)
}

func (c *Card) write(frame []byte) []byte {
	if len(frame) < 5 || len(frame) != 5+int(frame[4]) {
		return status(apdu.SW_ERR_WRONG_LENGTH)
	}
	addr, data := int(frame[3]), frame[5:]
	if addr+len(data) > len(c.memory) {
		return status(apdu.SW_ERR_WRONG_P1P2)
	}
	if !c.verified {
		return status(apdu.SW_ERR_SECURITY_STATUS_NOT_SAT)
	}
	for i := range data {
		if a := addr + i; a < memory.ProtectedAreaSize && c.protection[a/8]&(1<<(a%8)) == 0 {
			return status(apdu.SW_ERR_MEMORY_FAILURE)
		}
	}
	copy(c.memory[addr:], data)
	return status(apdu.SW_NO_ERROR)
}

func status(sw apdu.StatusWord) []byte {
	return []byte{sw.SW1(), sw.SW2()}
}

func withStatus(data []byte, sw apdu.StatusWord) []byte {
	out := make([]byte, 0, len(data)+2)
	out = append(out, data...)
	return append(out, sw.SW1(), sw.SW2())
}
