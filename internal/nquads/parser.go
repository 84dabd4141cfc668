package nquads

import (
	"context"
	"io"

	"github.com/aleksaelezovic/quadstream/internal/parsing"
	"github.com/aleksaelezovic/quadstream/internal/token"
	"github.com/aleksaelezovic/quadstream/internal/tokenizer"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// Options selects between N-Quads and N-Triples.
type Options struct {
	// TriplesOnly parses N-Triples: statements have no graph field and are
	// handed to the sink as triples.
	TriplesOnly bool
}

// Parser is an N-Quads parser: <subject> <predicate> <object> [<graph>] .
// Statements without a graph field belong to the default graph.
type Parser struct {
	settings parsing.Settings
	opts     Options
}

// NewParser creates a new N-Quads parser
func NewParser(settings parsing.Settings, opts Options) *Parser {
	return &Parser{settings: settings, opts: opts}
}

// Parse reads r until EOF or until sink asks to stop.
func (p *Parser) Parse(ctx context.Context, r io.Reader, sink rdf.Sink) error {
	return parsing.Run(sink, func() (parsing.Decision, error) {
		tokens, err := parsing.OpenTokens(ctx, r, tokenizer.NTriples, !p.opts.TriplesOnly, p.settings)
		if err != nil {
			return parsing.Continue, err
		}
		defer tokens.Close()
		return p.parse(ctx, parsing.NewStoreContext(sink, tokens, p.settings))
	})
}

type state int

const (
	expectSubject state = iota
	expectPredicate
	expectObject
	expectGraphOrDot
	expectDot
)

var stateNames = [...]string{
	expectSubject:    "subject",
	expectPredicate:  "predicate",
	expectObject:     "object",
	expectGraphOrDot: "graph or terminator",
	expectDot:        "terminator",
}

func (s state) String() string { return stateNames[s] }

func (p *Parser) parse(ctx context.Context, c *parsing.StoreContext) (parsing.Decision, error) {
	if _, err := parsing.Expect(c, "BOF", token.BOF); err != nil {
		return parsing.Continue, err
	}

	var subj, pred, obj, graph rdf.Term
	st := expectSubject
	for {
		if st == expectSubject {
			if err := ctx.Err(); err != nil {
				return parsing.Continue, err
			}
		}
		tok, err := c.Dequeue()
		if err != nil {
			return parsing.Continue, err
		}
		c.Trace(st.String(), tok)

		switch st {
		case expectSubject:
			switch tok.Kind {
			case token.EOF:
				return parsing.Continue, nil
			case token.URI:
				if subj, err = c.URINode(tok); err != nil {
					return parsing.Continue, err
				}
			case token.BlankNodeWithID:
				subj = c.BlankNode(tok)
			default:
				return parsing.Continue, token.Unexpected(tok, "a URI or blank node as the subject")
			}
			st = expectPredicate

		case expectPredicate:
			if tok.Kind != token.URI {
				return parsing.Continue, token.Unexpected(tok, "a URI as the predicate")
			}
			if pred, err = c.URINode(tok); err != nil {
				return parsing.Continue, err
			}
			st = expectObject

		case expectObject:
			if obj, err = p.term(c, tok, "a URI, blank node or literal as the object"); err != nil {
				return parsing.Continue, err
			}
			st = expectGraphOrDot

		case expectGraphOrDot:
			if tok.Kind == token.Dot {
				if p.emit(c, subj, pred, obj, nil) == parsing.Stop {
					return parsing.Stop, nil
				}
				st = expectSubject
				continue
			}
			if p.opts.TriplesOnly {
				return parsing.Continue, token.Unexpected(tok, "a Dot")
			}
			name, err := p.term(c, tok, "a graph name or a Dot")
			if err != nil {
				return parsing.Continue, err
			}
			graph = p.graphName(c, name)
			st = expectDot

		case expectDot:
			if tok.Kind != token.Dot {
				return parsing.Continue, token.Unexpected(tok, "a Dot after the graph name")
			}
			if p.emit(c, subj, pred, obj, graph) == parsing.Stop {
				return parsing.Stop, nil
			}
			st = expectSubject
		}
	}
}

func (p *Parser) term(c *parsing.StoreContext, tok token.Token, expected string) (rdf.Term, error) {
	switch tok.Kind {
	case token.URI:
		return c.URINode(tok)
	case token.BlankNodeWithID:
		return c.BlankNode(tok), nil
	case token.Literal, token.LongLiteral:
		return c.LiteralNode(tok, c)
	}
	return nil, token.Unexpected(tok, expected)
}

// graphName maps blank node and literal graph names onto synthetic IRIs.
func (p *Parser) graphName(c *parsing.StoreContext, name rdf.Term) rdf.Term {
	if name.Type() == rdf.TermTypeNamedNode {
		return name
	}
	return c.Sink().CreateURINode(rdf.SyntheticGraphName(name).IRI)
}

func (p *Parser) emit(c *parsing.StoreContext, s, pr, o, g rdf.Term) parsing.Decision {
	if p.opts.TriplesOnly {
		return c.EmitTriple(s, pr, o)
	}
	if g == nil {
		c.DefaultGraphSeen().Set()
	}
	return c.EmitQuad(s, pr, o, g)
}
