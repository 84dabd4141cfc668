package tokenqueue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aleksaelezovic/quadstream/internal/grammar"
	"github.com/aleksaelezovic/quadstream/internal/source"
	"github.com/aleksaelezovic/quadstream/internal/token"
	"github.com/aleksaelezovic/quadstream/internal/tokenizer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const trigDoc = `@prefix ex: <http://example.org/> .
ex:g1 { ex:s ex:p "o"@en ; ex:q ( 1 2.5 ) . }
{ _:b ex:p [ ex:q ex:r ] . }
`

var allModes = []Mode{Eager, Buffered, Async}

func drain(t *testing.T, q Queue) []token.Token {
	t.Helper()
	var out []token.Token
	for {
		tok, err := q.Dequeue()
		require.NoError(t, err)
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func newTokenizer(input string) *tokenizer.Tokenizer {
	return tokenizer.New(source.NewPassThroughReader(strings.NewReader(input)),
		tokenizer.Options{Dialect: grammar.W3C, Syntax: tokenizer.TriG})
}

func TestBufferingTransparency(t *testing.T) {
	reference := drain(t, mustNew(t, newTokenizer(trigDoc), Eager))
	require.Greater(t, len(reference), 20)

	for _, mode := range allModes {
		for _, size := range []int{1, 3, DefaultBufferSize} {
			q := mustNew(t, newTokenizer(trigDoc), mode, WithBufferSize(size))
			got := drain(t, q)
			assert.Equal(t, reference, got, "mode %s size %d", mode, size)
			require.NoError(t, q.Close())
		}
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	for _, mode := range allModes {
		t.Run(mode.String(), func(t *testing.T) {
			q := mustNew(t, newTokenizer("<a> <b> <c> ."), mode)
			defer q.Close()
			first, err := q.Peek()
			require.NoError(t, err)
			again, err := q.Peek()
			require.NoError(t, err)
			assert.Equal(t, first, again)
			tok, err := q.Dequeue()
			require.NoError(t, err)
			assert.Equal(t, first, tok)
			assert.Equal(t, token.BOF, tok.Kind)
		})
	}
}

func TestEOFIsSticky(t *testing.T) {
	for _, mode := range allModes {
		t.Run(mode.String(), func(t *testing.T) {
			q := mustNew(t, newTokenizer(""), mode)
			defer q.Close()
			drain(t, q)
			for i := 0; i < 3; i++ {
				tok, err := q.Dequeue()
				require.NoError(t, err)
				assert.Equal(t, token.EOF, tok.Kind)
				tok, err = q.Peek()
				require.NoError(t, err)
				assert.Equal(t, token.EOF, tok.Kind)
			}
		})
	}
}

var errBoom = errors.New("boom")

type scripted struct {
	toks []token.Token
	err  error
	pos  int
}

func (s *scripted) Next() (token.Token, error) {
	if s.pos < len(s.toks) {
		s.pos++
		return s.toks[s.pos-1], nil
	}
	return token.Token{}, s.err
}

func TestProducerErrorsAreDeliveredInOrder(t *testing.T) {
	for _, mode := range allModes {
		t.Run(mode.String(), func(t *testing.T) {
			p := &scripted{
				toks: []token.Token{token.Sentinel(token.BOF), token.New(token.URI, "a", 1, 1, 1, 3)},
				err:  errBoom,
			}
			q := mustNew(t, p, mode, WithBufferSize(1))
			defer q.Close()

			tok, err := q.Dequeue()
			require.NoError(t, err)
			assert.Equal(t, token.BOF, tok.Kind)
			tok, err = q.Dequeue()
			require.NoError(t, err)
			assert.Equal(t, "a", tok.Text)

			_, err = q.Dequeue()
			assert.ErrorIs(t, err, errBoom)
			_, err = q.Peek()
			assert.ErrorIs(t, err, errBoom)
		})
	}
}

func TestTracerSeesEveryDequeue(t *testing.T) {
	for _, mode := range allModes {
		t.Run(mode.String(), func(t *testing.T) {
			var seen []token.Kind
			tracer := TracerFunc(func(tok token.Token) { seen = append(seen, tok.Kind) })
			q := mustNew(t, newTokenizer("<a> <b> <c> ."), mode, WithTracer(tracer))
			defer q.Close()

			_, err := q.Peek()
			require.NoError(t, err)
			assert.Empty(t, seen)

			toks := drain(t, q)
			require.Len(t, seen, len(toks))
			for i, tok := range toks {
				assert.Equal(t, tok.Kind, seen[i])
			}
		})
	}
}

// endless never produces EOF.
type endless struct{ n int }

func (e *endless) Next() (token.Token, error) {
	e.n++
	return token.New(token.Dot, ".", 1, e.n, 1, e.n), nil
}

func TestAsyncCloseStopsProducer(t *testing.T) {
	q := mustNew(t, &endless{}, Async, WithBufferSize(4))
	for i := 0; i < 10; i++ {
		_, err := q.Dequeue()
		require.NoError(t, err)
	}
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	_, err := q.Dequeue()
	assert.ErrorIs(t, err, ErrClosed)
}

// stalled yields one token and then blocks in Next until release is closed.
type stalled struct {
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (s *stalled) Next() (token.Token, error) {
	s.calls++
	if s.calls == 1 {
		return token.Sentinel(token.BOF), nil
	}
	close(s.entered)
	<-s.release
	return token.Sentinel(token.EOF), nil
}

func TestAsyncCloseDoesNotWaitForBlockedRead(t *testing.T) {
	p := &stalled{entered: make(chan struct{}), release: make(chan struct{})}
	defer close(p.release)
	q := mustNew(t, p, Async, WithBufferSize(1))

	tok, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, token.BOF, tok.Kind)
	<-p.entered

	closed := make(chan error, 1)
	go func() { closed <- q.Close() }()
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close waited for a producer blocked in Next")
	}

	_, err = q.Dequeue()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestAsyncContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := mustNew(t, &endless{}, Async, WithBufferSize(2), WithContext(ctx))
	defer q.Close()
	_, err := q.Dequeue()
	require.NoError(t, err)
	cancel()

	for {
		_, err = q.Dequeue()
		if err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseBeforeInit(t *testing.T) {
	for _, mode := range allModes {
		q := mustNew(t, &endless{}, mode)
		require.NoError(t, q.Close())
		assert.ErrorIs(t, q.Init(), ErrClosed)
	}
}

func TestNewValidates(t *testing.T) {
	_, err := New(&endless{}, Mode(42))
	assert.ErrorIs(t, err, ErrUnknownMode)
	_, err = New(&endless{}, Buffered, WithBufferSize(0))
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: Buffered},
		{in: "eager", want: Eager},
		{in: "Synchronous", want: Buffered},
		{in: "async", want: Async},
		{in: "lazy", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func mustNew(t *testing.T, p Producer, mode Mode, opts ...Option) Queue {
	t.Helper()
	q, err := New(p, mode, opts...)
	require.NoError(t, err)
	return q
}
