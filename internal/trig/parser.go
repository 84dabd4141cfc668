// Package trig parses TriG documents: Turtle statements grouped into named
// graph blocks. Everything is delivered to the sink as quads.
package trig

import (
	"context"
	"io"

	"github.com/aleksaelezovic/quadstream/internal/grammar"
	"github.com/aleksaelezovic/quadstream/internal/parsing"
	"github.com/aleksaelezovic/quadstream/internal/token"
	"github.com/aleksaelezovic/quadstream/internal/tokenizer"
	"github.com/aleksaelezovic/quadstream/internal/turtle"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// Parser is a TriG parser. The W3C dialect allows triples outside of graph
// blocks and directives inside them, scoped to the block. The legacy dialect
// requires every statement to be inside a block, forbids directives in
// blocks and allows a single unnamed block.
type Parser struct {
	settings parsing.Settings
}

// NewParser creates a new TriG parser
func NewParser(settings parsing.Settings) *Parser {
	return &Parser{settings: settings}
}

// Parse reads r until EOF or until sink asks to stop.
func (p *Parser) Parse(ctx context.Context, r io.Reader, sink rdf.Sink) error {
	return parsing.Run(sink, func() (parsing.Decision, error) {
		tokens, err := parsing.OpenTokens(ctx, r, tokenizer.TriG, false, p.settings)
		if err != nil {
			return parsing.Continue, err
		}
		defer tokens.Close()
		return p.parse(ctx, parsing.NewStoreContext(sink, tokens, p.settings))
	})
}

func (p *Parser) legacy() bool { return p.settings.Dialect == grammar.Legacy }

func (p *Parser) parse(ctx context.Context, c *parsing.StoreContext) (parsing.Decision, error) {
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
		c.Trace("top level", tok)

		var d parsing.Decision
		switch tok.Kind {
		case token.EOF:
			return parsing.Continue, nil
		case token.PrefixDirective, token.BaseDirective:
			err = turtle.Directive(c, tok)
		case token.LeftCurly:
			d, err = p.block(ctx, c, tok, nil)
		case token.KeywordGraph:
			d, err = p.graphKeyword(ctx, c)
		case token.URI, token.QName, token.BlankNodeWithID:
			d, err = p.namedBlockOrTriples(ctx, c, tok)
		case token.LeftSquare:
			d, err = p.anonymousBlockOrTriples(ctx, c, tok)
		default:
			d, err = p.triples(c, tok)
		}
		if err != nil || d == parsing.Stop {
			return d, err
		}
	}
}

// triples parses a statement in the default graph outside of any block.
func (p *Parser) triples(c *parsing.StoreContext, first token.Token) (parsing.Decision, error) {
	if p.legacy() {
		return parsing.Continue, token.Unexpected(first, "a graph")
	}
	c.DefaultGraphSeen().Set()
	return turtle.Statement(c, first, false)
}

func opensBlock(k token.Kind) bool { return k == token.LeftCurly || k == token.Equals }

func (p *Parser) namedBlockOrTriples(ctx context.Context, c *parsing.StoreContext, name token.Token) (parsing.Decision, error) {
	next, err := c.Peek()
	if err != nil {
		return parsing.Continue, err
	}
	if !opensBlock(next.Kind) {
		return p.triples(c, name)
	}
	graph, err := p.graphName(c, name)
	if err != nil {
		return parsing.Continue, err
	}
	open, err := p.openBrace(c)
	if err != nil {
		return parsing.Continue, err
	}
	return p.block(ctx, c, open, graph)
}

// anonymousBlockOrTriples handles a leading '['. Only [] followed by a brace
// names a graph; anything else is a blank node subject, so the tokens looked
// at are pushed back.
func (p *Parser) anonymousBlockOrTriples(ctx context.Context, c *parsing.StoreContext, open token.Token) (parsing.Decision, error) {
	next, err := c.Peek()
	if err != nil {
		return parsing.Continue, err
	}
	if next.Kind != token.RightSquare {
		return p.triples(c, open)
	}
	closer, err := c.Dequeue()
	if err != nil {
		return parsing.Continue, err
	}
	if next, err = c.Peek(); err != nil {
		return parsing.Continue, err
	}
	if !opensBlock(next.Kind) {
		c.Requeue(closer)
		return p.triples(c, open)
	}
	graph := p.synthetic(c, c.FreshBlankNode())
	brace, err := p.openBrace(c)
	if err != nil {
		return parsing.Continue, err
	}
	return p.block(ctx, c, brace, graph)
}

func (p *Parser) graphKeyword(ctx context.Context, c *parsing.StoreContext) (parsing.Decision, error) {
	name, err := c.Dequeue()
	if err != nil {
		return parsing.Continue, err
	}
	var graph rdf.Term
	switch name.Kind {
	case token.URI, token.QName, token.BlankNodeWithID:
		if graph, err = p.graphName(c, name); err != nil {
			return parsing.Continue, err
		}
	case token.LeftSquare:
		if _, err := parsing.Expect(c, "a RightSquareBracket", token.RightSquare); err != nil {
			return parsing.Continue, err
		}
		graph = p.synthetic(c, c.FreshBlankNode())
	default:
		return parsing.Continue, token.Unexpected(name, "a URI or blank node after GRAPH")
	}
	open, err := parsing.Expect(c, "a LeftCurlyBracket", token.LeftCurly)
	if err != nil {
		return parsing.Continue, err
	}
	return p.block(ctx, c, open, graph)
}

// openBrace consumes an optional '=' and the '{' that opens a block.
func (p *Parser) openBrace(c *parsing.StoreContext) (token.Token, error) {
	tok, err := c.Dequeue()
	if err != nil {
		return tok, err
	}
	if tok.Kind == token.Equals {
		if tok, err = c.Dequeue(); err != nil {
			return tok, err
		}
	}
	if tok.Kind != token.LeftCurly {
		return tok, token.Unexpected(tok, "a LeftCurlyBracket to start a graph")
	}
	return tok, nil
}

func (p *Parser) graphName(c *parsing.StoreContext, name token.Token) (rdf.Term, error) {
	if name.Kind == token.BlankNodeWithID {
		return p.synthetic(c, c.BlankNode(name)), nil
	}
	return c.URINode(name)
}

func (p *Parser) synthetic(c *parsing.StoreContext, name rdf.Term) rdf.Term {
	return c.Sink().CreateURINode(rdf.SyntheticGraphName(name).IRI)
}

// block parses the statements of a graph block whose opening brace has been
// consumed. A nil graph is the default graph.
func (p *Parser) block(ctx context.Context, c *parsing.StoreContext, open token.Token, graph rdf.Term) (parsing.Decision, error) {
	if graph == nil {
		if !c.DefaultGraphSeen().Set() && p.legacy() {
			return parsing.Continue, token.Errorf(open, "only one default graph block is allowed")
		}
		graph = rdf.NewDefaultGraph()
	}
	c.Trace("graph", open)

	if !p.legacy() {
		c.PushScope()
		defer func() { _ = c.PopScope() }()
	}
	c.Graphs().Push(graph)
	defer func() { _, _ = c.Graphs().Pop() }()

	sub := c.Subordinate(parsing.NewWindow(c, token.LeftCurly, token.RightCurly))
	for {
		if err := ctx.Err(); err != nil {
			return parsing.Continue, err
		}
		tok, err := sub.Dequeue()
		if err != nil {
			return parsing.Continue, err
		}
		switch tok.Kind {
		case token.EOF:
			return parsing.Continue, nil
		case token.PrefixDirective, token.BaseDirective:
			if p.legacy() {
				return parsing.Continue, token.Errorf(tok, "directives are not allowed inside a graph block")
			}
			if err := turtle.Directive(sub, tok); err != nil {
				return parsing.Continue, err
			}
			continue
		case token.LeftCurly, token.KeywordGraph:
			return parsing.Continue, token.Errorf(tok, "nested graph blocks are not allowed")
		case token.URI, token.QName, token.BlankNodeWithID:
			next, err := sub.Peek()
			if err != nil {
				return parsing.Continue, err
			}
			if opensBlock(next.Kind) {
				return parsing.Continue, token.Errorf(next, "nested graph blocks are not allowed")
			}
		}
		d, err := turtle.Statement(sub, tok, true)
		if err != nil || d == parsing.Stop {
			return d, err
		}
	}
}
