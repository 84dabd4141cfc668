// Package tokenizer splits Turtle, TriG, N-Triples and N-Quads text into
// tokens.
package tokenizer

import (
	"errors"
	"fmt"
	"io"

	"github.com/aleksaelezovic/quadstream/internal/grammar"
	"github.com/aleksaelezovic/quadstream/internal/source"
	"github.com/aleksaelezovic/quadstream/internal/token"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// ErrExhausted is returned by Next after the EOF token has been produced.
var ErrExhausted = errors.New("tokenizer: input already exhausted")

// Syntax selects the lexicon.
type Syntax int

const (
	Turtle Syntax = iota
	TriG
	// NTriples covers both N-Triples and N-Quads; see Options.NQuadsMode.
	NTriples
)

func (s Syntax) String() string {
	switch s {
	case TriG:
		return "trig"
	case NTriples:
		return "ntriples"
	default:
		return "turtle"
	}
}

type Options struct {
	Dialect grammar.Dialect
	Syntax  Syntax
	// NQuadsMode admits a fourth, context, term per NTriples statement.
	NQuadsMode bool
}

// Tokenizer produces BOF, the tokens of its input, then EOF. It is not
// restartable and not safe for concurrent use.
type Tokenizer struct {
	src  source.Reader
	opts Options

	pending []rune // pushed back characters, last in first out

	line, col         int // position of the next character
	lastLine, lastCol int // position of the last consumed character
	startLine         int
	startCol          int
	afterCR           bool

	started  bool
	finished bool
	last     token.Kind // kind of the previous token
	scanning token.Kind // kind of the token being scanned, for errors
	fields   int
}

func New(src source.Reader, opts Options) *Tokenizer {
	return &Tokenizer{src: src, opts: opts, line: 1, col: 1, last: token.BOF}
}

// SetNQuadsMode toggles whether NTriples statements may carry a context term.
func (t *Tokenizer) SetNQuadsMode(on bool) {
	t.opts.NQuadsMode = on
}

// Next returns the next token.
func (t *Tokenizer) Next() (token.Token, error) {
	if !t.started {
		t.started = true
		return token.Sentinel(token.BOF), nil
	}
	if t.finished {
		return token.Token{}, ErrExhausted
	}
	if err := t.skipIgnorable(); err != nil {
		return token.Token{}, err
	}
	r, err := t.peek()
	if err == io.EOF {
		t.finished = true
		t.last = token.EOF
		return token.Sentinel(token.EOF), nil
	}
	if err != nil {
		return token.Token{}, t.ioError(err)
	}
	t.startLine, t.startCol = t.line, t.col

	tok, err := t.scan(r)
	if err != nil {
		return token.Token{}, err
	}
	if err := t.countField(tok); err != nil {
		return token.Token{}, err
	}
	t.last = tok.Kind
	return tok, nil
}

func (t *Tokenizer) countField(tok token.Token) error {
	if t.opts.Syntax != NTriples {
		return nil
	}
	switch tok.Kind {
	case token.Dot:
		t.fields = 0
	case token.URI, token.BlankNodeWithID, token.Literal:
		t.fields++
		limit := 3
		if t.opts.NQuadsMode {
			limit = 4
		}
		if t.fields > limit {
			if t.opts.NQuadsMode {
				return token.Errorf(tok, "too many terms, a statement holds at most a subject, predicate, object and graph")
			}
			return token.Errorf(tok, "too many terms, a statement holds a subject, predicate and object")
		}
	}
	return nil
}

func (t *Tokenizer) peek() (rune, error) {
	if n := len(t.pending); n > 0 {
		return t.pending[n-1], nil
	}
	return t.src.PeekRune()
}

// read consumes one character and advances the position.
func (t *Tokenizer) read() (rune, error) {
	var r rune
	if n := len(t.pending); n > 0 {
		r = t.pending[n-1]
		t.pending = t.pending[:n-1]
	} else {
		c, _, err := t.src.ReadRune()
		if err != nil {
			return 0, err
		}
		r = c
	}
	t.lastLine, t.lastCol = t.line, t.col
	switch {
	case r == '\n' && t.afterCR:
		// second half of \r\n, the line was already advanced
	case r == '\n' || r == '\r':
		t.line++
		t.col = 1
	default:
		t.col++
	}
	t.afterCR = r == '\r'
	return r, nil
}

// unread pushes back the character consumed last. It must not be a line break.
func (t *Tokenizer) unread(r rune) {
	t.col--
	t.pending = append(t.pending, r)
	t.lastCol = t.col - 1
}

// mustRead consumes one character, turning the end of input into a grammar error.
func (t *Tokenizer) mustRead(what string) (rune, error) {
	r, err := t.read()
	if err == io.EOF {
		return 0, t.errorf("unexpected end of input in %s", what)
	}
	if err != nil {
		return 0, t.ioError(err)
	}
	return r, nil
}

func (t *Tokenizer) skipIgnorable() error {
	for {
		r, err := t.peek()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return t.ioError(err)
		}
		switch r {
		case ' ', '\t', '\r', '\n':
			if _, err := t.read(); err != nil {
				return t.ioError(err)
			}
		case '#':
			if err := t.skipComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (t *Tokenizer) skipComment() error {
	for {
		r, err := t.peek()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return t.ioError(err)
		}
		if r == '\n' || r == '\r' {
			return nil
		}
		if _, err := t.read(); err != nil {
			return t.ioError(err)
		}
	}
}

func (t *Tokenizer) emit(kind token.Kind, text string) token.Token {
	return token.New(kind, text, t.startLine, t.startCol, t.lastLine, t.lastCol)
}

func (t *Tokenizer) errorf(format string, args ...any) error {
	return &rdf.ParseError{
		Category:  rdf.ErrGrammar,
		TokenKind: t.scanning.String(),
		Span:      rdf.Span{StartLine: t.startLine, StartCol: t.startCol, EndLine: t.lastLine, EndCol: t.lastCol},
		Message:   fmt.Sprintf(format, args...),
	}
}

func (t *Tokenizer) ioError(err error) error {
	return &rdf.ParseError{
		Category:  rdf.ErrGrammar,
		TokenKind: t.scanning.String(),
		Span:      rdf.Span{StartLine: t.line, StartCol: t.col, EndLine: t.line, EndCol: t.col},
		Message:   "failed to read input: " + err.Error(),
		Err:       err,
	}
}
