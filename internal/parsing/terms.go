package parsing

import (
	"strings"

	"github.com/aleksaelezovic/quadstream/internal/grammar"
	"github.com/aleksaelezovic/quadstream/internal/token"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// IRI returns the absolute IRI denoted by a URI or QName token.
func (c *GraphContext) IRI(tok token.Token) (string, error) {
	switch tok.Kind {
	case token.URI:
		iri, err := c.scopes.Resolve(tok.Text)
		if err != nil {
			return "", token.Errorf(tok, "%v", err)
		}
		return iri, nil
	case token.QName:
		return c.expand(tok)
	}
	return "", token.Unexpected(tok, "a URI or QName")
}

// expand resolves the prefixed name held in tok.Text.
func (c *GraphContext) expand(tok token.Token) (string, error) {
	prefix, local, _ := strings.Cut(tok.Text, ":")
	iri, err := c.scopes.Expand(prefix, grammar.UnescapeLocalName(local))
	if err != nil {
		return "", token.Errorf(tok, "%v", err)
	}
	return iri, nil
}

// URINode builds a named node from a URI or QName token.
func (c *GraphContext) URINode(tok token.Token) (rdf.Term, error) {
	iri, err := c.IRI(tok)
	if err != nil {
		return nil, err
	}
	return c.sink.CreateURINode(iri), nil
}

// BlankNode builds the node for a _:label token.
func (c *GraphContext) BlankNode(tok token.Token) rdf.Term {
	return c.sink.CreateBlankNode(c.ids.Explicit(strings.TrimPrefix(tok.Text, "_:")))
}

// FreshBlankNode builds an anonymous blank node.
func (c *GraphContext) FreshBlankNode() rdf.Term {
	return c.sink.CreateBlankNode(c.ids.Fresh())
}

// LiteralNode builds a literal from lit, consuming a LangSpec or DataType
// token from src when one follows a quoted literal.
func (c *GraphContext) LiteralNode(lit token.Token, src TokenSource) (rdf.Term, error) {
	switch lit.Kind {
	case token.PlainLiteral:
		dt, err := grammar.InferPlainLiteralType(lit.Text, c.settings.Dialect)
		if err != nil {
			return nil, token.Errorf(lit, "%v", err)
		}
		return c.sink.CreateLiteralNode(lit.Text, dt), nil
	case token.Literal, token.LongLiteral:
	default:
		return nil, token.Unexpected(lit, "a literal")
	}

	next, err := src.Peek()
	if err != nil {
		return nil, err
	}
	switch next.Kind {
	case token.LangSpec:
		if _, err := src.Dequeue(); err != nil {
			return nil, err
		}
		return c.sink.CreateLiteralNode(lit.Text, next.Text), nil
	case token.DataType:
		if _, err := src.Dequeue(); err != nil {
			return nil, err
		}
		dt, err := c.datatype(next)
		if err != nil {
			return nil, err
		}
		return c.sink.CreateLiteralNode(lit.Text, dt), nil
	}
	return c.sink.CreateLiteralNode(lit.Text, ""), nil
}

// datatype resolves a ^^ datatype. The result must be absolute; the node
// factory reads a value without a colon as a language tag.
func (c *GraphContext) datatype(tok token.Token) (string, error) {
	var iri string
	var err error
	if strings.HasPrefix(tok.Text, "<") {
		iri, err = c.scopes.Resolve(strings.TrimSuffix(strings.TrimPrefix(tok.Text, "<"), ">"))
		if err != nil {
			return "", token.Errorf(tok, "%v", err)
		}
	} else if iri, err = c.expand(tok); err != nil {
		return "", err
	}
	if !strings.Contains(iri, ":") {
		return "", token.Errorf(tok, "datatype IRI %q is not absolute", iri)
	}
	return iri, nil
}
