package rdf

import (
	"errors"
	"fmt"
)

// Error categories carried by *ParseError.
var (
	ErrGrammar         = errors.New("grammar error")
	ErrUnexpectedToken = errors.New("unexpected token")
)

// Span locates a token in the input. Lines and columns are 1-based; the zero
// Span is used for the BOF and EOF sentinels.
type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// ParseError reports a failure at a particular token.
type ParseError struct {
	Category  error  // ErrGrammar or ErrUnexpectedToken
	TokenKind string // name of the offending token type
	Span      Span
	Message   string
	Err       error // underlying cause, e.g. an I/O error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("[%s at Line %d Column %d to Line %d Column %d] %s",
		e.TokenKind, e.Span.StartLine, e.Span.StartCol, e.Span.EndLine, e.Span.EndCol, e.Message)
}

func (e *ParseError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Category != nil {
		errs = append(errs, e.Category)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
