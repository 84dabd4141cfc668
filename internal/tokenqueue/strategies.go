package tokenqueue

import (
	"context"
	"sync"

	"github.com/emirpasic/gods/queues/circularbuffer"
	"go.uber.org/atomic"

	"github.com/aleksaelezovic/quadstream/internal/token"
)

type eager struct {
	producer Producer
	tokens   []token.Token
	err      error
	pos      int
}

func (e *eager) start() error {
	for {
		tok, err := e.producer.Next()
		if err != nil {
			// delivered once the tokens before it are consumed
			e.err = err
			return nil
		}
		e.tokens = append(e.tokens, tok)
		if tok.Kind == token.EOF {
			return nil
		}
	}
}

func (e *eager) pull() (token.Token, error) {
	if e.pos < len(e.tokens) {
		tok := e.tokens[e.pos]
		e.pos++
		return tok, nil
	}
	return token.Token{}, e.err
}

func (e *eager) stop() {
	e.tokens = nil
}

type buffered struct {
	producer Producer
	ring     *circularbuffer.Queue
	done     bool
	err      error
}

func newBuffered(p Producer, capacity int) *buffered {
	return &buffered{producer: p, ring: circularbuffer.New(capacity)}
}

func (b *buffered) start() error { return nil }

// refill tops the ring up on the calling goroutine.
func (b *buffered) refill() {
	for !b.done && !b.ring.Full() {
		tok, err := b.producer.Next()
		if err != nil {
			b.err = err
			b.done = true
			return
		}
		b.ring.Enqueue(tok)
		if tok.Kind == token.EOF {
			b.done = true
		}
	}
}

func (b *buffered) pull() (token.Token, error) {
	if b.ring.Empty() {
		b.refill()
	}
	v, ok := b.ring.Dequeue()
	if !ok {
		return token.Token{}, b.err
	}
	return v.(token.Token), nil
}

func (b *buffered) stop() {
	b.ring.Clear()
}

type item struct {
	tok token.Token
	err error
}

type async struct {
	parent   context.Context
	producer Producer
	items    chan item
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	// reading is true while the producer is inside, or about to enter, Next.
	reading atomic.Bool
}

func newAsync(ctx context.Context, p Producer, capacity int) *async {
	if ctx == nil {
		ctx = context.Background()
	}
	return &async{parent: ctx, producer: p, items: make(chan item, capacity)}
}

func (a *async) start() error {
	ctx, cancel := context.WithCancel(a.parent)
	a.cancel = cancel
	a.wg.Add(1)
	go a.produce(ctx)
	return nil
}

func (a *async) produce(ctx context.Context) {
	defer a.wg.Done()
	defer close(a.items)
	for {
		a.reading.Store(true)
		if ctx.Err() != nil {
			return
		}
		tok, err := a.producer.Next()
		a.reading.Store(false)
		select {
		case a.items <- item{tok: tok, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil || tok.Kind == token.EOF {
			return
		}
	}
}

func (a *async) pull() (token.Token, error) {
	it, ok := <-a.items
	if !ok {
		if err := a.parent.Err(); err != nil {
			return token.Token{}, err
		}
		return token.Token{}, ErrClosed
	}
	return it.tok, it.err
}

// stop cancels the producer. It waits for the producer to exit unless the
// producer is inside Next, which may be blocked on a read that never returns;
// that goroutine discards its token and exits once the read completes.
func (a *async) stop() {
	a.cancel()
	if a.reading.Load() {
		return
	}
	a.wg.Wait()
}
