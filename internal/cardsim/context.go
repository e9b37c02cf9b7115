package cardsim

import (
	"errors"

	"github.com/gregLibert/sle4442/internal/syncutil"
	"github.com/gregLibert/sle4442/pkg/sle4442"
)

// Simulated PC/SC failures.
var (
	ErrUnknownReader = errors.New("unknown reader")
	ErrNoCard        = errors.New("no card in reader")
	ErrReleased      = errors.New("context released")
	ErrSharing       = errors.New("reader already in use")
)

// DefaultReader is the reader name used by NewContext.
const DefaultReader = "Simulated OMNIKEY 3121 00 00"

// Context simulates a PC/SC context with one reader.
type Context struct {
	mu       syncutil.Mutex
	Reader   string
	Card     *Card // nil when the reader is empty
	released bool
	open     *Session

	// Hooks to inject failures.
	ListErr       error
	TransmitErr   error
	DisconnectErr error
}

// NewContext creates a context whose single reader holds card (may be nil).
func NewContext(card *Card) *Context {
	return &Context{Reader: DefaultReader, Card: card}
}

// ListReaders returns the reader name.
func (x *Context) ListReaders() ([]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.released {
		return nil, ErrReleased
	}
	if x.ListErr != nil {
		return nil, x.ListErr
	}
	if x.Reader == "" {
		return nil, nil
	}
	return []string{x.Reader}, nil
}

// Connect opens an exclusive session on the card.
func (x *Context) Connect(reader string) (sle4442.Session, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	switch {
	case x.released:
		return nil, ErrReleased
	case reader != x.Reader:
		return nil, ErrUnknownReader
	case x.Card == nil:
		return nil, ErrNoCard
	case x.open != nil:
		return nil, ErrSharing
	}

	x.open = &Session{ctx: x, card: x.Card}
	return x.open, nil
}

// Release closes the context. Releasing twice fails, like SCardReleaseContext.
func (x *Context) Release() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.released {
		return ErrReleased
	}
	x.released = true
	return nil
}

// Released reports whether Release was called.
func (x *Context) Released() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.released
}

// Connected reports whether a session is open.
func (x *Context) Connected() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.open != nil
}

// Session is a simulated card connection.
type Session struct {
	ctx    *Context
	card   *Card
	closed bool
}

// Transmit forwards the frame to the card.
func (s *Session) Transmit(cmd []byte) ([]byte, error) {
	s.ctx.mu.Lock()
	closed, terr := s.closed, s.ctx.TransmitErr
	s.ctx.mu.Unlock()

	if closed {
		return nil, ErrNoCard
	}
	if terr != nil {
		return nil, terr
	}
	return s.card.Process(cmd), nil
}

// Disconnect unpowers the card. A second call fails, like SCardDisconnect.
func (s *Session) Disconnect() error {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()

	if s.closed {
		return ErrNoCard
	}
	s.closed = true
	s.ctx.open = nil
	s.card.powerDown()
	return s.ctx.DisconnectErr
}
