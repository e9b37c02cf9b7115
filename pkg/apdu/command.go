package apdu

// COMMAND BUILDERS:
// Each builder validates its parameters and returns a CommandAPDU whose encoding is
// the immutable prefix of the kind followed by the encoded parameters. Validation fails
// fast with ErrInvalidArgument; nothing is sent to the card for a malformed request.
//
// Ranges are NOT checked for consistency (start <= end): the card answers an invalid
// range with a status word, which is the authoritative outcome.

// Select creates the SELECT command that tells the reader an SLE4432/4442 card is present.
func Select() *CommandAPDU {
	return &CommandAPDU{Kind: KindSelect}
}

// Read creates a READ command for the main memory range [start, end].
func Read(start, end int) (*CommandAPDU, error) {
	return newRangeCommand(KindRead, start, end)
}

// ReadProtected creates a READ_PROTECTED command, reading the protection memory.
func ReadProtected(start, end int) (*CommandAPDU, error) {
	return newRangeCommand(KindReadProtected, start, end)
}

func newRangeCommand(kind Kind, start, end int) (*CommandAPDU, error) {
	if err := checkAddress("start", start); err != nil {
		return nil, err
	}
	if err := checkAddress("end", end); err != nil {
		return nil, err
	}
	return &CommandAPDU{Kind: kind, Params: []byte{byte(start), byte(end)}}, nil
}

// VerifyPIN creates a VERIFY_PIN command presenting the 3-byte security code.
//
// Only three consecutive failures are allowed before the card locks its write
// capability forever. This builder does not count attempts.
func VerifyPIN(pin []byte) (*CommandAPDU, error) {
	if err := checkPIN("pin", pin); err != nil {
		return nil, err
	}

	params := make([]byte, 0, 1+PINLength)
	params = append(params, verifyAttemptByte)
	params = append(params, pin...)
	return &CommandAPDU{Kind: KindVerifyPIN, Params: params}, nil
}

// ModifyPIN creates a MODIFY_PIN command replacing oldPin by newPin.
//
// Experimental: this framing has not been validated against real hardware.
func ModifyPIN(oldPin, newPin []byte) (*CommandAPDU, error) {
	if err := checkPIN("old pin", oldPin); err != nil {
		return nil, err
	}
	if err := checkPIN("new pin", newPin); err != nil {
		return nil, err
	}

	params := make([]byte, 0, 1+2*PINLength)
	params = append(params, byte(len(oldPin)+len(newPin)))
	params = append(params, oldPin...)
	params = append(params, newPin...)
	return &CommandAPDU{Kind: KindModifyPIN, Params: params}, nil
}

// Write creates a WRITE command storing data at address.
//
// CALLER OBLIGATION: the low addresses of the card hold the ATR header and
// manufacturer data (see memory.SafeWriteStart). Overwriting them can brick the
// card. This builder deliberately does not guard them.
func Write(address int, data []byte) (*CommandAPDU, error) {
	if err := checkAddress("address", address); err != nil {
		return nil, err
	}
	if len(data) > MaxDataLength {
		return nil, invalidArgument("data length %d exceeds %d", len(data), MaxDataLength)
	}

	params := make([]byte, 0, 2+len(data))
	params = append(params, byte(address), byte(len(data)))
	params = append(params, data...)
	return &CommandAPDU{Kind: KindWrite, Params: params}, nil
}

func checkAddress(name string, v int) error {
	if v < 0 || v > MaxAddress {
		return invalidArgument("%s %d out of range [0, %d]", name, v, MaxAddress)
	}
	return nil
}

func checkPIN(name string, pin []byte) error {
	if len(pin) != PINLength {
		return invalidArgument("%s must be %d bytes, got %d", name, PINLength, len(pin))
	}
	return nil
}
