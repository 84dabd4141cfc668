package rdf

import (
	"testing"
)

func iri(s string) *NamedNode { return NewNamedNode("http://example.org/" + s) }

func TestIsomorphic_Empty(t *testing.T) {
	if !Isomorphic(nil, []*Quad{}) {
		t.Error("Empty sets should be isomorphic")
	}
}

func TestIsomorphic_NoBlankNodes(t *testing.T) {
	a := []*Quad{NewQuad(iri("s"), iri("p"), NewLiteral("o"), nil)}
	b := []*Quad{NewQuad(iri("s"), iri("p"), NewLiteral("o"), NewDefaultGraph())}
	if !Isomorphic(a, b) {
		t.Error("nil and explicit default graph should compare equal")
	}

	c := []*Quad{NewQuad(iri("s"), iri("p"), NewLiteral("o"), iri("g"))}
	if Isomorphic(a, c) {
		t.Error("Quads in different graphs should not be isomorphic")
	}
}

func TestIsomorphic_RenamedBlankNodes(t *testing.T) {
	expected := []*Quad{
		NewQuad(NewBlankNode("a"), iri("knows"), NewBlankNode("b"), nil),
		NewQuad(NewBlankNode("b"), iri("name"), NewLiteral("Bob"), nil),
		NewQuad(NewBlankNode("a"), iri("name"), NewLiteral("Alice"), nil),
	}
	actual := []*Quad{
		NewQuad(NewBlankNode("genid2"), iri("name"), NewLiteral("Bob"), nil),
		NewQuad(NewBlankNode("genid1"), iri("name"), NewLiteral("Alice"), nil),
		NewQuad(NewBlankNode("genid1"), iri("knows"), NewBlankNode("genid2"), nil),
	}
	if !Isomorphic(expected, actual) {
		t.Error("Graphs differing only in blank node labels should be isomorphic")
	}

	swapped := []*Quad{
		NewQuad(NewBlankNode("x"), iri("knows"), NewBlankNode("y"), nil),
		NewQuad(NewBlankNode("x"), iri("name"), NewLiteral("Bob"), nil),
		NewQuad(NewBlankNode("y"), iri("name"), NewLiteral("Alice"), nil),
	}
	if Isomorphic(expected, swapped) {
		t.Error("Graphs with a different structure should not be isomorphic")
	}
}

func TestIsomorphic_BlankGraphNames(t *testing.T) {
	expected := []*Quad{NewQuad(iri("s"), iri("p"), iri("o"), NewBlankNode("g1"))}
	actual := []*Quad{NewQuad(iri("s"), iri("p"), iri("o"), NewBlankNode("graph"))}
	if !Isomorphic(expected, actual) {
		t.Error("Blank graph names should be matched like other blank nodes")
	}
}

func TestIsomorphic_Duplicates(t *testing.T) {
	q := NewQuad(iri("s"), iri("p"), iri("o"), nil)
	if !Isomorphic([]*Quad{q, q}, []*Quad{q}) {
		t.Error("Duplicate quads should not affect the comparison")
	}
}

func TestIsomorphic_BlankCountMismatch(t *testing.T) {
	expected := []*Quad{
		NewQuad(NewBlankNode("a"), iri("p"), NewBlankNode("a"), nil),
	}
	actual := []*Quad{
		NewQuad(NewBlankNode("a"), iri("p"), NewBlankNode("b"), nil),
	}
	if Isomorphic(expected, actual) {
		t.Error("A self loop should not match an edge between two nodes")
	}
}
