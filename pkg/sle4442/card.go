/*
Package sle4442 drives SLE4442-family memory cards through a PC/SC reader.

The Card composes the apdu builders and status word interpreter over a reader
session and exposes the card operations:

	Disconnected --Connect--> Connected --SELECT--> Ready
	Ready: VerifyPIN, Read, ReadProtected, Write, ModifyPIN (any order, repeatedly)
	any state --Disconnect--> Disconnected

# Safety

The card allows three consecutive PIN failures; the third one locks the card's write
capability forever. The driver never retries VERIFY_PIN and never counts attempts:
the caller owns this policy and should stop as soon as Result.Retries reports 0.

Writes below memory.SafeWriteStart can destroy the card identification. The driver
does not block them.

# Concurrency

A card session is strictly serial. A Card is not safe for concurrent use; callers
sharing one must hold their own lock around whole sequences (VERIFY then WRITE).
*/
package sle4442

import (
	"errors"
	"fmt"

	"github.com/gregLibert/sle4442/pkg/apdu"
	"github.com/rs/zerolog"
)

// Session is a connected channel to the card in one reader.
type Session interface {
	Transmit(cmd []byte) ([]byte, error)
	Disconnect() error
}

// Context is the reader context owning reader discovery and connection.
type Context interface {
	ListReaders() ([]string, error)
	Connect(reader string) (Session, error)
	Release() error
}

// State of the driver.
type State int

const (
	StateDisconnected State = iota
	// StateConnected means the session is open but SELECT was not accepted yet.
	StateConnected
	StateReady
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type options struct {
	log            zerolog.Logger
	retryPolicy    apdu.RetryPolicy
	allowModifyPIN bool
}

// Option configures a Card.
type Option func(*options)

// WithLogger sets the logger. Commands are logged at debug level, PIN bytes masked.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithRetryPolicy selects how the ambiguous retry nibble is decoded.
func WithRetryPolicy(p apdu.RetryPolicy) Option {
	return func(o *options) {
		o.retryPolicy = p
	}
}

// WithExperimentalModifyPIN enables ModifyPIN, whose framing is unverified on hardware.
func WithExperimentalModifyPIN() Option {
	return func(o *options) {
		o.allowModifyPIN = true
	}
}

// Card is the driver for one memory card. It exclusively owns its context and session.
type Card struct {
	ctx      Context
	session  Session
	client   *apdu.Client
	reader   string
	state    State
	released bool
	trace    apdu.Trace
	opts     options
}

// New creates a driver over ctx. No reader is contacted until Connect.
func New(ctx Context, opts ...Option) *Card {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Card{ctx: ctx, opts: o}
}

// State returns the current driver state.
func (c *Card) State() State {
	return c.state
}

// Reader returns the name of the connected reader, empty when disconnected.
func (c *Card) Reader() string {
	return c.reader
}

// Trace returns the transactions exchanged since New.
func (c *Card) Trace() apdu.Trace {
	return c.trace
}

// Connect opens a session on reader (the first listed reader when empty) and
// selects the memory card. The session is released again if SELECT fails.
func (c *Card) Connect(reader string) error {
	if c.released {
		return &ConnectError{Reader: reader, Err: ErrContextReleased}
	}
	if c.state != StateDisconnected {
		return &ConnectError{Reader: reader, Err: ErrAlreadyConnected}
	}

	if reader == "" {
		readers, err := c.ctx.ListReaders()
		if err != nil {
			return &ConnectError{Err: fmt.Errorf("list readers: %w", err)}
		}
		if len(readers) == 0 {
			return &ConnectError{Err: ErrNoReader}
		}
		reader = readers[0]
		c.opts.log.Debug().Strs("readers", readers).Msg("using first reader")
	}

	session, err := c.ctx.Connect(reader)
	if err != nil {
		return &ConnectError{Reader: reader, Err: err}
	}

	c.session = session
	c.client = apdu.NewClient(session)
	c.reader = reader
	c.state = StateConnected
	c.opts.log.Info().Str("reader", reader).Msg("connected")

	res, err := c.exchange(apdu.Select())
	if err == nil {
		err = res.Err()
	}
	if err != nil {
		if derr := c.Disconnect(); derr != nil {
			err = errors.Join(err, derr)
		}
		return &ConnectError{Reader: reader, Err: err}
	}

	c.state = StateReady
	return nil
}

// VerifyPIN presents the 3-byte security code. On failure the Result carries the
// remaining attempts; the caller decides whether another attempt is acceptable.
func (c *Card) VerifyPIN(pin []byte) (*Result, error) {
	cmd, err := apdu.VerifyPIN(pin)
	if err != nil {
		return nil, err
	}
	res, err := c.run(cmd)
	if err != nil {
		return nil, err
	}

	if !res.IsSuccess() {
		c.opts.log.Warn().
			Int("remaining", res.Retries.Remaining).
			Bool("unconfirmed", res.Retries.Ambiguous).
			Msg("pin rejected")
	}
	return res, nil
}

// Read reads main memory from start to end inclusive. On success Data holds
// end-start+1 bytes.
func (c *Card) Read(start, end int) (*Result, error) {
	cmd, err := apdu.Read(start, end)
	if err != nil {
		return nil, err
	}
	res, err := c.run(cmd)
	if err != nil {
		return nil, err
	}

	if want := end - start + 1; res.IsSuccess() && len(res.Data) != want {
		c.opts.log.Warn().Int("want", want).Int("got", len(res.Data)).Msg("unexpected read length")
	}
	return res, nil
}

// ReadProtected reads the protection memory (see memory.ParseProtectionBits).
func (c *Card) ReadProtected(start, end int) (*Result, error) {
	cmd, err := apdu.ReadProtected(start, end)
	if err != nil {
		return nil, err
	}
	return c.run(cmd)
}

// Write stores data at address.
//
// Precondition: a successful VerifyPIN in the same session. The card enforces it
// (answering 6982); the driver does not check it again.
func (c *Card) Write(address int, data []byte) (*Result, error) {
	cmd, err := apdu.Write(address, data)
	if err != nil {
		return nil, err
	}
	return c.run(cmd)
}

// ModifyPIN replaces the security code. Experimental: it fails with ErrExperimental
// unless the Card was created WithExperimentalModifyPIN.
func (c *Card) ModifyPIN(oldPin, newPin []byte) (*Result, error) {
	if !c.opts.allowModifyPIN {
		return nil, fmt.Errorf("%s: %w", apdu.KindModifyPIN, ErrExperimental)
	}

	cmd, err := apdu.ModifyPIN(oldPin, newPin)
	if err != nil {
		return nil, err
	}
	return c.run(cmd)
}

// Disconnect unpowers the card and closes the session. It is idempotent and
// always leaves the driver Disconnected, even when the reader reports an error.
func (c *Card) Disconnect() error {
	if c.session == nil {
		return nil
	}

	err := c.session.Disconnect()
	c.session = nil
	c.client = nil
	c.state = StateDisconnected
	c.opts.log.Info().Str("reader", c.reader).Msg("disconnected")
	c.reader = ""

	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// ReleaseContext disconnects any open session and releases the reader context.
// It is idempotent; the Card cannot connect again afterwards.
func (c *Card) ReleaseContext() error {
	if c.released {
		return nil
	}

	derr := c.Disconnect()
	c.released = true

	var rerr error
	if err := c.ctx.Release(); err != nil {
		rerr = fmt.Errorf("release context: %w", err)
	}
	c.opts.log.Debug().Msg("context released")

	return errors.Join(derr, rerr)
}

// Close is Disconnect followed by ReleaseContext.
func (c *Card) Close() error {
	return c.ReleaseContext()
}

func (c *Card) run(cmd *apdu.CommandAPDU) (*Result, error) {
	if c.state != StateReady {
		return nil, fmt.Errorf("%s: %w", cmd.Kind, ErrNotConnected)
	}
	return c.exchange(cmd)
}

func (c *Card) exchange(cmd *apdu.CommandAPDU) (*Result, error) {
	tx, err := c.client.Send(cmd)
	if err != nil {
		c.trace = append(c.trace, apdu.Transaction{Command: cmd})
		c.opts.log.Error().Err(err).Str("cmd", cmd.String()).Msg("exchange failed")
		return nil, err
	}
	c.trace = append(c.trace, *tx)

	c.opts.log.Debug().
		Str("cmd", cmd.String()).
		Hex("sw", []byte{tx.Response.Status.SW1(), tx.Response.Status.SW2()}).
		Int("len", len(tx.Response.Data)).
		Msg("exchange")

	return newResult(tx, c.opts.retryPolicy), nil
}
