// Package turtle parses Turtle documents into a stream of triples. The
// triples grammar is exported so the TriG parser can reuse it inside graph
// blocks.
package turtle

import (
	"context"
	"io"

	"github.com/aleksaelezovic/quadstream/internal/parsing"
	"github.com/aleksaelezovic/quadstream/internal/token"
	"github.com/aleksaelezovic/quadstream/internal/tokenizer"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// Parser is a Turtle parser
type Parser struct {
	settings parsing.Settings
}

// NewParser creates a new Turtle parser
func NewParser(settings parsing.Settings) *Parser {
	return &Parser{settings: settings}
}

// Parse reads r until EOF or until sink asks to stop. Triples are handed to
// the sink with HandleTriple.
func (p *Parser) Parse(ctx context.Context, r io.Reader, sink rdf.Sink) error {
	return parsing.Run(sink, func() (parsing.Decision, error) {
		tokens, err := parsing.OpenTokens(ctx, r, tokenizer.Turtle, false, p.settings)
		if err != nil {
			return parsing.Continue, err
		}
		defer tokens.Close()
		return parse(ctx, parsing.NewGraphContext(sink, tokens, p.settings))
	})
}

func parse(ctx context.Context, c *parsing.GraphContext) (parsing.Decision, error) {
	if _, err := parsing.Expect(c, "BOF", token.BOF); err != nil {
		return parsing.Continue, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return parsing.Continue, err
		}
		tok, err := c.Dequeue()
		if err != nil {
			return parsing.Continue, err
		}
		switch tok.Kind {
		case token.EOF:
			return parsing.Continue, nil
		case token.PrefixDirective, token.BaseDirective:
			if err := Directive(c, tok); err != nil {
				return parsing.Continue, err
			}
		default:
			d, err := Statement(c, tok, false)
			if err != nil || d == parsing.Stop {
				return d, err
			}
		}
	}
}
