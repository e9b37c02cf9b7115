// Package pcsc connects the sle4442 driver to real readers through the PC/SC
// daemon (pcsc-lite on Linux and macOS, WinSCard on Windows).
package pcsc

import (
	"errors"
	"fmt"

	"github.com/ebfe/scard"
	"github.com/gregLibert/sle4442/internal/syncutil"
	"github.com/gregLibert/sle4442/pkg/sle4442"
	"github.com/rs/zerolog"
)

// Memory card readers only answer the FF pseudo-APDUs under T=0 or T=1.
// Asking for any other protocol fails with "Parameter Incorrect".
const protocols = scard.ProtocolT0 | scard.ProtocolT1

// ErrSessionClosed is returned by Transmit after Disconnect.
var ErrSessionClosed = errors.New("pcsc session closed")

type cardHandle interface {
	Transmit(cmd []byte) ([]byte, error)
	Disconnect(d scard.Disposition) error
}

type readerContext interface {
	ListReaders() ([]string, error)
	connect(reader string, mode scard.ShareMode) (cardHandle, error)
	Release() error
}

// scardContext adapts *scard.Context to readerContext.
type scardContext struct {
	*scard.Context
}

func (c scardContext) connect(reader string, mode scard.ShareMode) (cardHandle, error) {
	card, err := c.Connect(reader, mode, protocols)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger used for connection events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Context) {
		c.log = l
	}
}

// WithExclusive opens sessions in exclusive mode. Other applications cannot talk
// to the card until the session is closed.
func WithExclusive() Option {
	return func(c *Context) {
		c.mode = scard.ShareExclusive
	}
}

// Context is a PC/SC resource manager context. It implements sle4442.Context.
type Context struct {
	ctx  readerContext
	mode scard.ShareMode
	log  zerolog.Logger
}

// Establish opens a PC/SC context. The daemon must be running.
func Establish(opts ...Option) (*Context, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish context: %w", err)
	}
	return newContext(scardContext{ctx}, opts...), nil
}

func newContext(ctx readerContext, opts ...Option) *Context {
	c := &Context{ctx: ctx, mode: scard.ShareShared, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListReaders returns the attached readers. An empty list is not an error.
func (c *Context) ListReaders() ([]string, error) {
	readers, err := c.ctx.ListReaders()
	if errors.Is(err, scard.ErrNoReadersAvailable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return readers, nil
}

// Connect opens a session on the card inserted in reader.
func (c *Context) Connect(reader string) (sle4442.Session, error) {
	card, err := c.ctx.connect(reader, c.mode)
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("reader", reader).
		Bool("exclusive", c.mode == scard.ShareExclusive).
		Msg("pcsc session opened")

	return &Session{card: card, reader: reader, log: c.log}, nil
}

// Release frees the context. Open sessions must be disconnected first.
func (c *Context) Release() error {
	return c.ctx.Release()
}

// Session is a connection to one card. Transmit calls are serialized.
type Session struct {
	mu     syncutil.Mutex
	card   cardHandle
	reader string
	log    zerolog.Logger
}

// Transmit sends a raw command and returns the raw answer including SW1 SW2.
func (s *Session) Transmit(cmd []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.card == nil {
		return nil, ErrSessionClosed
	}
	return s.card.Transmit(cmd)
}

// Disconnect unpowers the card. Only the first call reaches the reader.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.card == nil {
		return nil
	}

	// Unpowering the card drops its verified state, so a later session has to
	// present the PIN again.
	err := s.card.Disconnect(scard.UnpowerCard)
	s.card = nil
	s.log.Debug().Str("reader", s.reader).Err(err).Msg("pcsc session closed")
	return err
}
