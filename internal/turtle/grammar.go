package turtle

import (
	"strings"

	"github.com/aleksaelezovic/quadstream/internal/grammar"
	"github.com/aleksaelezovic/quadstream/internal/parsing"
	"github.com/aleksaelezovic/quadstream/internal/token"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// Context is what the triples grammar needs from a parser context. Both
// *parsing.GraphContext and *parsing.StoreContext satisfy it; they differ in
// where Emit sends statements.
type Context interface {
	parsing.TokenSource
	Sink() rdf.Sink
	Scopes() *parsing.ScopeStack
	Dialect() grammar.Dialect
	URINode(tok token.Token) (rdf.Term, error)
	BlankNode(tok token.Token) rdf.Term
	FreshBlankNode() rdf.Term
	LiteralNode(lit token.Token, src parsing.TokenSource) (rdf.Term, error)
	Emit(s, p, o rdf.Term) parsing.Decision
	Trace(step string, tok token.Token)
}

// Directive handles @prefix, @base, PREFIX and BASE. tok is the directive
// token, already dequeued. The @ forms end with a Dot, the SPARQL forms do
// not.
func Directive(c Context, tok token.Token) error {
	c.Trace("directive", tok)
	atForm := strings.HasPrefix(tok.Text, "@")
	switch tok.Kind {
	case token.PrefixDirective:
		prefix, err := parsing.Expect(c, "a prefix", token.Prefix)
		if err != nil {
			return err
		}
		iri, err := parsing.Expect(c, "a URI", token.URI)
		if err != nil {
			return err
		}
		ns, err := c.Scopes().Resolve(iri.Text)
		if err != nil {
			return token.Errorf(iri, "%v", err)
		}
		c.Scopes().SetPrefix(strings.TrimSuffix(prefix.Text, ":"), ns)
	case token.BaseDirective:
		iri, err := parsing.Expect(c, "a URI", token.URI)
		if err != nil {
			return err
		}
		if err := c.Scopes().SetBase(iri.Text); err != nil {
			return token.Errorf(iri, "%v", err)
		}
	default:
		return token.Unexpected(tok, "a directive")
	}
	if atForm {
		if _, err := parsing.Expect(c, "a Dot", token.Dot); err != nil {
			return err
		}
	}
	return nil
}

// Statement parses one triples statement whose first token has already been
// dequeued. When dotOptional is set the statement may also end at EOF, which
// is how the last statement of a graph block ends.
func Statement(c Context, first token.Token, dotOptional bool) (parsing.Decision, error) {
	c.Trace("subject", first)
	var (
		subj     rdf.Term
		d        parsing.Decision
		err      error
		needVerb = true
	)
	switch first.Kind {
	case token.URI, token.QName:
		subj, err = c.URINode(first)
	case token.BlankNodeWithID:
		subj = c.BlankNode(first)
	case token.LeftSquare:
		var empty bool
		subj, empty, d, err = propertyList(c)
		needVerb = empty
	case token.LeftParen:
		subj, d, err = collection(c)
	default:
		return parsing.Continue, token.Unexpected(first, "a subject")
	}
	if err != nil || d == parsing.Stop {
		return d, err
	}

	next, err := c.Peek()
	if err != nil {
		return parsing.Continue, err
	}
	if needVerb || isVerb(next.Kind) {
		if d, err := predicateObjectList(c, subj); err != nil || d == parsing.Stop {
			return d, err
		}
	}

	end, err := c.Dequeue()
	if err != nil {
		return parsing.Continue, err
	}
	if end.Kind == token.Dot || (dotOptional && end.Kind == token.EOF) {
		return parsing.Continue, nil
	}
	return parsing.Continue, token.Unexpected(end, "a Dot")
}

func isVerb(k token.Kind) bool {
	return k == token.URI || k == token.QName || k == token.KeywordA
}

func verb(c Context, tok token.Token) (rdf.Term, error) {
	switch tok.Kind {
	case token.KeywordA:
		return c.Sink().CreateURINode(rdf.RDFType.IRI), nil
	case token.URI, token.QName:
		return c.URINode(tok)
	}
	return nil, token.Unexpected(tok, "a predicate")
}

// predicateObjectList parses verb objectList (';' verb objectList)* ';'*.
func predicateObjectList(c Context, subj rdf.Term) (parsing.Decision, error) {
	for {
		tok, err := c.Dequeue()
		if err != nil {
			return parsing.Continue, err
		}
		c.Trace("predicate", tok)
		pred, err := verb(c, tok)
		if err != nil {
			return parsing.Continue, err
		}
		if d, err := objectList(c, subj, pred); err != nil || d == parsing.Stop {
			return d, err
		}

		next, err := c.Peek()
		if err != nil {
			return parsing.Continue, err
		}
		if next.Kind != token.Semicolon {
			return parsing.Continue, nil
		}
		for next.Kind == token.Semicolon {
			if _, err := c.Dequeue(); err != nil {
				return parsing.Continue, err
			}
			if next, err = c.Peek(); err != nil {
				return parsing.Continue, err
			}
		}
		if !isVerb(next.Kind) {
			return parsing.Continue, nil
		}
	}
}

func objectList(c Context, subj, pred rdf.Term) (parsing.Decision, error) {
	for {
		tok, err := c.Dequeue()
		if err != nil {
			return parsing.Continue, err
		}
		obj, d, err := object(c, tok)
		if err != nil || d == parsing.Stop {
			return d, err
		}
		if c.Emit(subj, pred, obj) == parsing.Stop {
			return parsing.Stop, nil
		}

		next, err := c.Peek()
		if err != nil {
			return parsing.Continue, err
		}
		if next.Kind != token.Comma {
			return parsing.Continue, nil
		}
		if _, err := c.Dequeue(); err != nil {
			return parsing.Continue, err
		}
	}
}

func object(c Context, tok token.Token) (rdf.Term, parsing.Decision, error) {
	c.Trace("object", tok)
	switch tok.Kind {
	case token.URI, token.QName:
		t, err := c.URINode(tok)
		return t, parsing.Continue, err
	case token.BlankNodeWithID:
		return c.BlankNode(tok), parsing.Continue, nil
	case token.Literal, token.LongLiteral, token.PlainLiteral:
		t, err := c.LiteralNode(tok, c)
		return t, parsing.Continue, err
	case token.LeftSquare:
		t, _, d, err := propertyList(c)
		return t, d, err
	case token.LeftParen:
		return collection(c)
	}
	return nil, parsing.Continue, token.Unexpected(tok, "an object")
}

// propertyList parses the rest of [ ... ] after the opening bracket. empty
// reports the anonymous node [].
func propertyList(c Context) (rdf.Term, bool, parsing.Decision, error) {
	node := c.FreshBlankNode()
	next, err := c.Peek()
	if err != nil {
		return nil, false, parsing.Continue, err
	}
	if next.Kind == token.RightSquare {
		_, err := c.Dequeue()
		return node, true, parsing.Continue, err
	}
	if d, err := predicateObjectList(c, node); err != nil || d == parsing.Stop {
		return node, false, d, err
	}
	if _, err := parsing.Expect(c, "a RightSquareBracket", token.RightSquare); err != nil {
		return nil, false, parsing.Continue, err
	}
	return node, false, parsing.Continue, nil
}

// collection parses the rest of ( ... ) after the opening bracket, emitting
// the rdf:first/rdf:rest chain as the items arrive.
func collection(c Context) (rdf.Term, parsing.Decision, error) {
	sink := c.Sink()
	var head, prev rdf.Term
	for {
		tok, err := c.Dequeue()
		if err != nil {
			return nil, parsing.Continue, err
		}
		if tok.Kind == token.RightParen {
			break
		}
		node := c.FreshBlankNode()
		if prev == nil {
			head = node
		} else if c.Emit(prev, sink.CreateURINode(rdf.RDFRest.IRI), node) == parsing.Stop {
			return nil, parsing.Stop, nil
		}
		item, d, err := object(c, tok)
		if err != nil || d == parsing.Stop {
			return nil, d, err
		}
		if c.Emit(node, sink.CreateURINode(rdf.RDFFirst.IRI), item) == parsing.Stop {
			return nil, parsing.Stop, nil
		}
		prev = node
	}
	nilNode := sink.CreateURINode(rdf.RDFNil.IRI)
	if prev == nil {
		return nilNode, parsing.Continue, nil
	}
	if c.Emit(prev, sink.CreateURINode(rdf.RDFRest.IRI), nilNode) == parsing.Stop {
		return nil, parsing.Stop, nil
	}
	return head, parsing.Continue, nil
}
