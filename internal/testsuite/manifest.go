// Package testsuite runs W3C RDF syntax test manifests against the parsers.
package testsuite

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleksaelezovic/quadstream/internal/grammar"
	"github.com/aleksaelezovic/quadstream/internal/parsing"
	"github.com/aleksaelezovic/quadstream/internal/turtle"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// Manifest is the flattened list of tests of a manifest and the manifests
// it includes.
type Manifest struct {
	Path  string
	Tests []TestCase
}

// TestCase is a single manifest entry.
type TestCase struct {
	Name string
	Type TestType
	// Action is the input file; ActionIRI is its IRI, which is also the
	// base IRI the document is parsed with.
	Action    string
	ActionIRI string
	Result    string
	Comment   string
}

type TestType string

const (
	TestTypeTurtleEval           TestType = "TestTurtleEval"
	TestTypeTurtlePositiveSyntax TestType = "TestTurtlePositiveSyntax"
	TestTypeTurtleNegativeSyntax TestType = "TestTurtleNegativeSyntax"
	TestTypeTurtleNegativeEval   TestType = "TestTurtleNegativeEval"

	TestTypeNTriplesPositiveSyntax TestType = "TestNTriplesPositiveSyntax"
	TestTypeNTriplesNegativeSyntax TestType = "TestNTriplesNegativeSyntax"
	TestTypeNTriplesPositiveC14N   TestType = "TestNTriplesPositiveC14N"

	TestTypeNQuadsPositiveSyntax TestType = "TestNQuadsPositiveSyntax"
	TestTypeNQuadsNegativeSyntax TestType = "TestNQuadsNegativeSyntax"
	TestTypeNQuadsPositiveC14N   TestType = "TestNQuadsPositiveC14N"

	TestTypeTrigEval           TestType = "TestTrigEval"
	TestTypeTrigPositiveSyntax TestType = "TestTrigPositiveSyntax"
	TestTypeTrigNegativeSyntax TestType = "TestTrigNegativeSyntax"
	TestTypeTrigNegativeEval   TestType = "TestTrigNegativeEval"
)

const (
	mfNS   = "http://www.w3.org/2001/sw/DataAccess/tests/test-manifest#"
	rdftNS = "http://www.w3.org/ns/rdftest#"
	rdfsNS = "http://www.w3.org/2000/01/rdf-schema#"
)

// ParseManifest reads a Turtle manifest with the package's own Turtle
// parser and follows mf:include lists. A manifest included twice is read
// once.
func ParseManifest(ctx context.Context, path string) (*Manifest, error) {
	m := &Manifest{Path: path}
	if err := m.read(ctx, path, map[string]bool{}); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) read(ctx context.Context, path string, visited map[string]bool) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	if visited[absPath] {
		return nil
	}
	visited[absPath] = true

	f, err := os.Open(absPath) // #nosec G304 - manifests are named by the caller
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	collector := rdf.NewQuadCollector()
	parser := turtle.NewParser(parsing.Settings{Dialect: grammar.W3C, BaseURI: fileIRI(absPath)})
	if err := parser.Parse(ctx, f, collector); err != nil {
		return fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	g := newGraph(collector.Quads())
	dir := filepath.Dir(absPath)

	for _, manifest := range g.subjects(rdf.RDFType.IRI, mfNS+"Manifest") {
		for _, include := range g.objects(manifest, mfNS+"include") {
			for _, item := range g.list(include) {
				if n, ok := item.(*rdf.NamedNode); ok {
					if err := m.read(ctx, localFile(dir, n.IRI), visited); err != nil {
						return err
					}
				}
			}
		}
		for _, entries := range g.objects(manifest, mfNS+"entries") {
			for _, entry := range g.list(entries) {
				if test, ok := g.testCase(entry, dir); ok {
					m.Tests = append(m.Tests, test)
				}
			}
		}
	}
	return nil
}

// graph indexes manifest statements by subject and predicate.
type graph struct {
	index map[string]map[string][]rdf.Term
	quads []*rdf.Quad
}

func newGraph(quads []*rdf.Quad) *graph {
	g := &graph{index: map[string]map[string][]rdf.Term{}, quads: quads}
	for _, q := range quads {
		key := q.Subject.String()
		preds, ok := g.index[key]
		if !ok {
			preds = map[string][]rdf.Term{}
			g.index[key] = preds
		}
		p := q.Predicate.(*rdf.NamedNode).IRI
		preds[p] = append(preds[p], q.Object)
	}
	return g
}

func (g *graph) objects(subject rdf.Term, predicate string) []rdf.Term {
	return g.index[subject.String()][predicate]
}

func (g *graph) subjects(predicate, object string) []rdf.Term {
	var out []rdf.Term
	for _, q := range g.quads {
		if n, ok := q.Object.(*rdf.NamedNode); ok && n.IRI == object && q.Predicate.(*rdf.NamedNode).IRI == predicate {
			out = append(out, q.Subject)
		}
	}
	return out
}

func (g *graph) first(subject rdf.Term, predicate string) rdf.Term {
	if objs := g.objects(subject, predicate); len(objs) > 0 {
		return objs[0]
	}
	return nil
}

// list walks an rdf:first / rdf:rest chain. A cycle ends the walk.
func (g *graph) list(head rdf.Term) []rdf.Term {
	var out []rdf.Term
	seen := map[string]bool{}
	for head != nil && !head.Equals(rdf.RDFNil) && !seen[head.String()] {
		seen[head.String()] = true
		if item := g.first(head, rdf.RDFFirst.IRI); item != nil {
			out = append(out, item)
		}
		head = g.first(head, rdf.RDFRest.IRI)
	}
	return out
}

func (g *graph) testCase(entry rdf.Term, dir string) (TestCase, bool) {
	var test TestCase
	for _, t := range g.objects(entry, rdf.RDFType.IRI) {
		if n, ok := t.(*rdf.NamedNode); ok && strings.HasPrefix(n.IRI, rdftNS) {
			test.Type = TestType(strings.TrimPrefix(n.IRI, rdftNS))
		}
	}
	if lit, ok := g.first(entry, mfNS+"name").(*rdf.Literal); ok {
		test.Name = lit.Value
	}
	if lit, ok := g.first(entry, rdfsNS+"comment").(*rdf.Literal); ok {
		test.Comment = lit.Value
	}
	if n, ok := g.first(entry, mfNS+"action").(*rdf.NamedNode); ok {
		test.ActionIRI = n.IRI
		test.Action = localFile(dir, n.IRI)
	}
	if n, ok := g.first(entry, mfNS+"result").(*rdf.NamedNode); ok {
		test.Result = localFile(dir, n.IRI)
	}
	if test.Name == "" || test.Type == "" {
		return TestCase{}, false
	}
	return test, true
}

func fileIRI(absPath string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}).String()
}

// localFile maps an IRI from a manifest onto a file. file: IRIs are used as
// they are; anything else is taken to name a file next to the manifest.
func localFile(dir, iri string) string {
	u, err := url.Parse(iri)
	if err == nil && u.Scheme == "file" {
		return filepath.FromSlash(u.Path)
	}
	name := iri
	if i := strings.LastIndex(iri, "/"); i >= 0 {
		name = iri[i+1:]
	}
	return filepath.Join(dir, name)
}
