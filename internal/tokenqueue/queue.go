// Package tokenqueue buffers the output of a tokenizer for a parser.
//
// All modes expose the same Queue contract and dequeue tokens in the order
// they were produced. Once EOF has been dequeued, Dequeue and Peek keep
// returning it.
package tokenqueue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aleksaelezovic/quadstream/internal/token"
)

var (
	ErrClosed          = errors.New("tokenqueue: queue closed")
	ErrUnknownMode     = errors.New("tokenqueue: unknown mode")
	ErrInvalidCapacity = errors.New("tokenqueue: capacity must be positive")
)

// DefaultBufferSize bounds the Buffered and Async modes unless overridden.
const DefaultBufferSize = 256

// Producer yields tokens until it has produced EOF. *tokenizer.Tokenizer
// satisfies it.
type Producer interface {
	Next() (token.Token, error)
}

// Mode selects the buffering strategy.
type Mode int

const (
	// Eager drains the producer completely on Init.
	Eager Mode = iota
	// Buffered refills a bounded ring buffer on the consumer's goroutine.
	Buffered
	// Async runs the producer on its own goroutine behind a bounded channel.
	Async
)

func (m Mode) String() string {
	switch m {
	case Eager:
		return "eager"
	case Buffered:
		return "buffered"
	case Async:
		return "async"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a configuration value onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "buffered", "sync", "synchronous":
		return Buffered, nil
	case "eager":
		return Eager, nil
	case "async", "asynchronous":
		return Async, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Queue is the contract shared by every mode.
type Queue interface {
	// Init prepares the queue. Dequeue and Peek call it when needed.
	Init() error
	Dequeue() (token.Token, error)
	Peek() (token.Token, error)
	// Close releases the producer. It is safe to call more than once. In
	// Async mode Close does not wait for a producer that is blocked reading
	// its input; that goroutine exits when the read returns.
	Close() error
	Mode() Mode
}

// strategy is what differs between modes: how the next raw token is pulled.
type strategy interface {
	start() error
	pull() (token.Token, error)
	stop()
}

type queue struct {
	mode   Mode
	strat  strategy
	tracer Tracer

	started bool
	closed  bool
	hasHead bool
	head    token.Token
	eof     bool
	err     error
}

// New creates a queue over p.
func New(p Producer, mode Mode, opts ...Option) (Queue, error) {
	o := options{capacity: DefaultBufferSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	var s strategy
	switch mode {
	case Eager:
		s = &eager{producer: p}
	case Buffered:
		s = newBuffered(p, o.capacity)
	case Async:
		s = newAsync(o.ctx, p, o.capacity)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	return &queue{mode: mode, strat: s, tracer: o.tracer}, nil
}

func (q *queue) Mode() Mode { return q.mode }

func (q *queue) Init() error {
	if q.closed {
		return ErrClosed
	}
	if q.started {
		return nil
	}
	q.started = true
	if err := q.strat.start(); err != nil {
		q.err = err
		return err
	}
	return nil
}

func (q *queue) fill() error {
	if q.hasHead {
		return nil
	}
	if q.err != nil {
		return q.err
	}
	if err := q.Init(); err != nil {
		return err
	}
	tok, err := q.strat.pull()
	if err != nil {
		q.err = err
		return err
	}
	q.head, q.hasHead = tok, true
	q.eof = tok.Kind == token.EOF
	return nil
}

func (q *queue) Peek() (token.Token, error) {
	if q.closed {
		return token.Token{}, ErrClosed
	}
	if err := q.fill(); err != nil {
		return token.Token{}, err
	}
	return q.head, nil
}

func (q *queue) Dequeue() (token.Token, error) {
	if q.closed {
		return token.Token{}, ErrClosed
	}
	if err := q.fill(); err != nil {
		return token.Token{}, err
	}
	tok := q.head
	// EOF stays at the head.
	q.hasHead = q.eof
	if q.tracer != nil {
		q.tracer.Dequeued(tok)
	}
	return tok, nil
}

func (q *queue) Close() error {
	if q.closed {
		return nil
	}
	q.closed = true
	if q.started {
		q.strat.stop()
	}
	return nil
}
