// Package token defines the lexical units shared by the tokenizer, the token
// queues and the format parsers.
package token

import (
	"fmt"

	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// Kind classifies a token.
type Kind int

const (
	BOF Kind = iota
	EOF
	URI             // <iri>, text is the unescaped IRI
	QName           // prefix:local, text as written
	Prefix          // prefix: following a prefix directive
	BlankNodeWithID // _:label, text includes the marker
	Literal         // "..." or '...', text is unescaped
	LongLiteral     // """...""" or '''...'''
	PlainLiteral    // number or boolean, text as written
	LangSpec        // @lang after a literal, text without the @
	DataType        // ^^<iri> or ^^qname, text keeps the brackets of an IRI
	PrefixDirective // @prefix or PREFIX
	BaseDirective   // @base or BASE
	KeywordA        // a
	KeywordGraph    // GRAPH
	Dot
	Semicolon
	Comma
	LeftSquare
	RightSquare
	LeftParen
	RightParen
	LeftCurly
	RightCurly
	Equals
)

var kindNames = [...]string{
	BOF:             "BOF",
	EOF:             "EOF",
	URI:             "URI",
	QName:           "QName",
	Prefix:          "Prefix",
	BlankNodeWithID: "BlankNodeWithID",
	Literal:         "Literal",
	LongLiteral:     "LongLiteral",
	PlainLiteral:    "PlainLiteral",
	LangSpec:        "LangSpec",
	DataType:        "DataType",
	PrefixDirective: "PrefixDirective",
	BaseDirective:   "BaseDirective",
	KeywordA:        "KeywordA",
	KeywordGraph:    "KeywordGraph",
	Dot:             "Dot",
	Semicolon:       "Semicolon",
	Comma:           "Comma",
	LeftSquare:      "LeftSquareBracket",
	RightSquare:     "RightSquareBracket",
	LeftParen:       "LeftBracket",
	RightParen:      "RightBracket",
	LeftCurly:       "LeftCurlyBracket",
	RightCurly:      "RightCurlyBracket",
	Equals:          "Equals",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsTerm reports whether a token of this kind denotes an RDF term on its own.
func (k Kind) IsTerm() bool {
	switch k {
	case URI, QName, BlankNodeWithID, Literal, LongLiteral, PlainLiteral:
		return true
	}
	return false
}

// Token is an immutable lexical unit.
type Token struct {
	Kind Kind
	Text string
	Span rdf.Span
}

// New creates a token spanning from (line, col) to (endLine, endCol).
func New(kind Kind, text string, line, col, endLine, endCol int) Token {
	return Token{Kind: kind, Text: text, Span: rdf.Span{StartLine: line, StartCol: col, EndLine: endLine, EndCol: endCol}}
}

// Sentinel returns a BOF or EOF token.
func Sentinel(kind Kind) Token {
	return Token{Kind: kind}
}

func (t Token) String() string {
	if t.Text == "" {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

// Errorf builds a grammar error located at t.
func Errorf(t Token, format string, args ...any) error {
	return &rdf.ParseError{
		Category:  rdf.ErrGrammar,
		TokenKind: t.Kind.String(),
		Span:      t.Span,
		Message:   fmt.Sprintf(format, args...),
	}
}

// Unexpected builds an error for a token the parser cannot accept in its
// current state.
func Unexpected(t Token, expected string) error {
	return &rdf.ParseError{
		Category:  rdf.ErrUnexpectedToken,
		TokenKind: t.Kind.String(),
		Span:      t.Span,
		Message:   fmt.Sprintf("unexpected %s, expected %s", t.Kind, expected),
	}
}
