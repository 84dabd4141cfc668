package rdf

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestNodes_CreateLiteralNode(t *testing.T) {
	var nodes Nodes

	plain := nodes.CreateLiteralNode("x", "").(*Literal)
	if plain.Language != "" || plain.Datatype != nil {
		t.Errorf("Expected plain literal, got %s", plain)
	}

	lang := nodes.CreateLiteralNode("x", "en-GB").(*Literal)
	if lang.Language != "en-GB" {
		t.Errorf("Expected language en-GB, got %q", lang.Language)
	}

	typed := nodes.CreateLiteralNode("1", XSDInteger.IRI).(*Literal)
	if typed.Datatype == nil || typed.Datatype.IRI != XSDInteger.IRI {
		t.Errorf("Expected datatype %s, got %s", XSDInteger.IRI, typed)
	}
}

func TestQuadCollector(t *testing.T) {
	c := NewQuadCollector()
	c.Start()
	c.HandleTriple(NewTriple(NewBlankNode("a"), NewNamedNode("http://example.org/p"), NewLiteral("1")))
	c.HandleQuad(NewQuad(NewBlankNode("a"), NewNamedNode("http://example.org/p"), NewLiteral("2"), NewNamedNode("http://example.org/g")))
	c.End(true)

	quads := c.Quads()
	if len(quads) != 2 {
		t.Fatalf("Expected 2 quads, got %d", len(quads))
	}
	if !IsDefaultGraph(quads[0].Graph) {
		t.Errorf("Expected triple in the default graph, got %v", quads[0].Graph)
	}
	started, ended, ok := c.Lifecycle()
	if started != 1 || ended != 1 || !ok {
		t.Errorf("Unexpected lifecycle: started=%d ended=%d ok=%v", started, ended, ok)
	}

	quads[0] = nil
	if c.Quads()[0] == nil {
		t.Error("Quads should return a copy")
	}
}

func TestLimitSink(t *testing.T) {
	c := NewQuadCollector()
	l := &LimitSink{Next: c, Limit: 2}
	triple := NewTriple(NewBlankNode("a"), NewNamedNode("http://example.org/p"), NewLiteral("1"))

	if !l.HandleTriple(triple) {
		t.Error("first statement should continue")
	}
	if l.HandleTriple(triple) {
		t.Error("second statement should stop")
	}
	if len(c.Quads()) != 2 {
		t.Errorf("Expected 2 forwarded quads, got %d", len(c.Quads()))
	}
}

func TestFuncSink(t *testing.T) {
	var got []*Quad
	var ended []bool
	f := &FuncSink{
		OnQuad: func(q *Quad) bool {
			got = append(got, q)
			return len(got) < 1
		},
		OnEnd: func(ok bool) { ended = append(ended, ok) },
	}
	f.Start()
	if f.HandleTriple(NewTriple(NewBlankNode("a"), NewNamedNode("http://example.org/p"), NewBlankNode("b"))) {
		t.Error("OnQuad result should be returned")
	}
	f.End(false)
	if len(got) != 1 || len(ended) != 1 || ended[0] {
		t.Errorf("Unexpected calls: quads=%d ends=%v", len(got), ended)
	}

	// nil callbacks accept everything
	empty := &FuncSink{}
	if !empty.HandleQuad(NewQuad(NewBlankNode("a"), NewNamedNode("http://example.org/p"), NewBlankNode("b"), nil)) {
		t.Error("Expected empty FuncSink to continue")
	}
	empty.End(true)
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Category:  ErrGrammar,
		TokenKind: "IRIREF",
		Span:      Span{StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 9},
		Message:   "Relative IRI with no base",
		Err:       io.ErrUnexpectedEOF,
	}
	expected := "[IRIREF at Line 3 Column 5 to Line 3 Column 9] Relative IRI with no base"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, ErrGrammar) {
		t.Error("Expected category to match")
	}
	if errors.Is(err, ErrUnexpectedToken) {
		t.Error("Unexpected category match")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("Expected cause to match")
	}

	var pe *ParseError
	if !errors.As(error(err), &pe) || pe.TokenKind != "IRIREF" {
		t.Error("Expected errors.As to find the ParseError")
	}
	if len((&ParseError{}).Unwrap()) != 0 {
		t.Error("Expected no wrapped errors")
	}
}

func TestSyntheticGraphName(t *testing.T) {
	iri := NewNamedNode("http://example.org/g")
	if SyntheticGraphName(iri) != iri {
		t.Error("IRIs should be returned unchanged")
	}

	b1 := SyntheticGraphName(NewBlankNode("g"))
	b2 := SyntheticGraphName(NewBlankNode("g"))
	if b1.IRI != b2.IRI {
		t.Errorf("Expected stable names, got %s and %s", b1.IRI, b2.IRI)
	}
	if !strings.HasPrefix(b1.IRI, SyntheticGraphPrefix+"bnode:") {
		t.Errorf("Unexpected name %s", b1.IRI)
	}
	if hash := strings.TrimPrefix(b1.IRI, SyntheticGraphPrefix+"bnode:"); len(hash) != 32 {
		t.Errorf("Expected 32 hex digits, got %q", hash)
	}

	lit := SyntheticGraphName(NewLiteral("g"))
	if !strings.HasPrefix(lit.IRI, SyntheticGraphPrefix+"literal:") {
		t.Errorf("Unexpected name %s", lit.IRI)
	}
	if SyntheticGraphName(NewBlankNode("h")).IRI == b1.IRI {
		t.Error("different blank nodes should map to different graphs")
	}
}
