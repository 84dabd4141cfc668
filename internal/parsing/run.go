package parsing

import (
	"github.com/aleksaelezovic/quadstream/internal/token"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// Decision is threaded through every parse step. Stop means the sink asked
// to end the parse early; it is not an error.
type Decision int

const (
	Continue Decision = iota
	Stop
)

func (d Decision) String() string {
	if d == Stop {
		return "stop"
	}
	return "continue"
}

func decide(accepted bool) Decision {
	if accepted {
		return Continue
	}
	return Stop
}

// Run wraps body in the sink lifecycle: Start, then body, then End(true) when
// body finished or stopped and End(false) when it failed or panicked.
func Run(sink rdf.Sink, body func() (Decision, error)) (err error) {
	sink.Start()
	ended := false
	defer func() {
		if r := recover(); r != nil {
			if !ended {
				sink.End(false)
			}
			panic(r)
		}
	}()
	if _, err = body(); err != nil {
		ended = true
		sink.End(false)
		return err
	}
	ended = true
	sink.End(true)
	return nil
}

// Expect dequeues the next token and fails unless it is one of kinds.
func Expect(src TokenSource, expected string, kinds ...token.Kind) (token.Token, error) {
	tok, err := src.Dequeue()
	if err != nil {
		return tok, err
	}
	for _, k := range kinds {
		if tok.Kind == k {
			return tok, nil
		}
	}
	return tok, token.Unexpected(tok, expected)
}

// Window is a token source over the tokens of a bracketed region of its
// parent. It is created after the open bracket was consumed, streams the
// parent's tokens, consumes the matching close bracket and then reports EOF.
// Nested pairs of the same brackets are passed through.
type Window struct {
	parent      TokenSource
	open, close token.Kind
	depth       int
	done        bool
	end         token.Token
}

func NewWindow(parent TokenSource, open, close token.Kind) *Window {
	return &Window{parent: parent, open: open, close: close}
}

// Closed reports whether the matching close bracket has been consumed.
func (w *Window) Closed() bool { return w.done }

func (w *Window) Peek() (token.Token, error) {
	if w.done {
		return w.end, nil
	}
	tok, err := w.parent.Peek()
	if err != nil {
		return tok, err
	}
	switch {
	case tok.Kind == w.close && w.depth == 0:
		if _, err := w.parent.Dequeue(); err != nil {
			return token.Token{}, err
		}
		w.done = true
		w.end = token.Token{Kind: token.EOF, Span: tok.Span}
		return w.end, nil
	case tok.Kind == token.EOF:
		return tok, token.Unexpected(tok, w.close.String())
	}
	return tok, nil
}

func (w *Window) Dequeue() (token.Token, error) {
	tok, err := w.Peek()
	if err != nil || w.done {
		return tok, err
	}
	if _, err := w.parent.Dequeue(); err != nil {
		return token.Token{}, err
	}
	switch tok.Kind {
	case w.open:
		w.depth++
	case w.close:
		w.depth--
	}
	return tok, nil
}
