package nquads

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aleksaelezovic/quadstream/internal/grammar"
	"github.com/aleksaelezovic/quadstream/internal/parsing"
	"github.com/aleksaelezovic/quadstream/internal/tokenqueue"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

func parse(t *testing.T, input string, opts Options) ([]*rdf.Quad, error) {
	t.Helper()
	sink := rdf.NewQuadCollector()
	p := NewParser(parsing.Settings{Dialect: grammar.W3C, QueueMode: tokenqueue.Buffered}, opts)
	err := p.Parse(context.Background(), strings.NewReader(input), sink)
	return sink.Quads(), err
}

func TestParseNQuads(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int // number of quads expected
		wantErr  bool
	}{
		{
			name: "simple triple (N-Triples format)",
			input: `<http://example.org/s> <http://example.org/p> <http://example.org/o> .
`,
			expected: 1,
		},
		{
			name: "quad with named graph",
			input: `<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://example.org/g> .
`,
			expected: 1,
		},
		{
			name: "multiple quads",
			input: `<http://example.org/s1> <http://example.org/p1> "literal1" .
<http://example.org/s2> <http://example.org/p2> "literal2"^^<http://www.w3.org/2001/XMLSchema#string> <http://example.org/g> .
<http://example.org/s3> <http://example.org/p3> "hello"@en .
`,
			expected: 3,
		},
		{
			name: "blank nodes",
			input: `_:b1 <http://example.org/p> "value" .
<http://example.org/s> <http://example.org/p> _:b2 _:graph .
`,
			expected: 2,
		},
		{
			name:     "comments and blank lines",
			input:    "# header\n\n<http://example.org/s> <http://example.org/p> <http://example.org/o> . # trailing\n",
			expected: 1,
		},
		{
			name:     "empty document",
			input:    "",
			expected: 0,
		},
		{
			name:    "literal subject",
			input:   `"s" <http://example.org/p> <http://example.org/o> .`,
			wantErr: true,
		},
		{
			name:    "blank node predicate",
			input:   `<http://example.org/s> _:p <http://example.org/o> .`,
			wantErr: true,
		},
		{
			name:    "missing terminator",
			input:   `<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://example.org/g>`,
			wantErr: true,
		},
		{
			name:    "five terms",
			input:   `<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://example.org/g> <http://example.org/h> .`,
			wantErr: true,
		},
		{
			name:    "prefixed names are not N-Quads",
			input:   "PREFIX ex: <http://example.org/>\nex:s ex:p ex:o .\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quads, err := parse(t, tt.input, Options{})

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if len(quads) != tt.expected {
				t.Errorf("expected %d quads, got %d", tt.expected, len(quads))
			}

			for i, quad := range quads {
				if quad.Subject == nil || quad.Predicate == nil || quad.Object == nil {
					t.Errorf("quad %d has a nil component", i)
				}
				if quad.Graph == nil {
					t.Errorf("quad %d has nil graph", i)
				}
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	quads, err := parse(t, `<http://a> <http://b> "c" <http://g/> .`, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quads) != 1 {
		t.Fatalf("expected 1 quad, got %d", len(quads))
	}
	want := rdf.NewQuad(rdf.NewNamedNode("http://a"), rdf.NewNamedNode("http://b"), rdf.NewLiteral("c"), rdf.NewNamedNode("http://g/"))
	if !quads[0].Equals(want) {
		t.Errorf("got %s, want %s", quads[0], want)
	}

	quads, err = parse(t, `<http://a> <http://b> "c" .`, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quads) != 1 {
		t.Fatalf("expected 1 quad, got %d", len(quads))
	}
	if quads[0].Graph.Type() != rdf.TermTypeDefaultGraph {
		t.Errorf("expected the default graph sentinel, got %v", quads[0].Graph)
	}
}

func TestLiteralSuffixes(t *testing.T) {
	input := `<http://s> <http://p> "chat"@fr .
<http://s> <http://p> "42"^^<http://www.w3.org/2001/XMLSchema#integer> <http://g> .
<http://s> <http://p> "line\nbreak" .
`
	quads, err := parse(t, input, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		`<http://s> <http://p> "chat"@fr .`,
		`<http://s> <http://p> "42"^^<http://www.w3.org/2001/XMLSchema#integer> <http://g> .`,
		`<http://s> <http://p> "line\nbreak" .`,
	}
	if len(quads) != len(want) {
		t.Fatalf("expected %d quads, got %d", len(want), len(quads))
	}
	for i, q := range quads {
		if q.String() != want[i] {
			t.Errorf("quad %d: got %s, want %s", i, q, want[i])
		}
	}
}

func TestRelativeDatatypeIsRejected(t *testing.T) {
	quads, err := parse(t, "<http://s> <http://p> \"x\"^^<dt> .\n", Options{})
	if err == nil {
		t.Fatalf("expected error, got quads %v", quads)
	}
	if !errors.Is(err, rdf.ErrGrammar) {
		t.Errorf("expected a grammar error, got %v", err)
	}
	if len(quads) != 0 {
		t.Errorf("expected no quads, got %d", len(quads))
	}
}

func TestSyntheticGraphNames(t *testing.T) {
	input := `<http://s> <http://p> <http://o> _:g1 .
<http://s> <http://p> <http://o> "graph" .
<http://s> <http://p> <http://o> _:g1 .
`
	quads, err := parse(t, input, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quads) != 3 {
		t.Fatalf("expected 3 quads, got %d", len(quads))
	}
	for i, q := range quads {
		g, ok := q.Graph.(*rdf.NamedNode)
		if !ok {
			t.Fatalf("quad %d: graph %v is not an IRI", i, q.Graph)
		}
		if !strings.HasPrefix(g.IRI, rdf.SyntheticGraphPrefix) {
			t.Errorf("quad %d: graph %s lacks the synthetic prefix", i, g.IRI)
		}
	}
	if !quads[0].Graph.Equals(quads[2].Graph) {
		t.Errorf("same blank node graph mapped to %v and %v", quads[0].Graph, quads[2].Graph)
	}
	if quads[0].Graph.Equals(quads[1].Graph) {
		t.Errorf("blank node and literal graphs collide")
	}
	if !strings.Contains(quads[1].Graph.(*rdf.NamedNode).IRI, ":literal:") {
		t.Errorf("literal graph name %v does not record its kind", quads[1].Graph)
	}

	again, err := parse(t, input, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again[1].Graph.Equals(quads[1].Graph) {
		t.Errorf("synthetic graph names differ between runs")
	}
}

func TestTriplesOnly(t *testing.T) {
	var triples int
	sink := &tripleCounter{count: &triples}
	p := NewParser(parsing.Settings{}, Options{TriplesOnly: true})
	err := p.Parse(context.Background(), strings.NewReader("<http://s> <http://p> <http://o> .\n_:a <http://p> \"x\" .\n"), sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if triples != 2 {
		t.Errorf("expected 2 triples, got %d", triples)
	}

	err = p.Parse(context.Background(), strings.NewReader("<http://s> <http://p> <http://o> <http://g> .\n"), sink)
	if !errors.Is(err, rdf.ErrGrammar) {
		t.Errorf("expected a grammar error for a graph field, got %v", err)
	}
}

type tripleCounter struct {
	rdf.Nodes
	count *int
}

func (c *tripleCounter) Start() {}

func (c *tripleCounter) HandleTriple(*rdf.Triple) bool {
	*c.count++
	return true
}

func (c *tripleCounter) HandleQuad(*rdf.Quad) bool {
	panic("quad in N-Triples")
}

func (c *tripleCounter) End(bool) {}

func TestEarlyTermination(t *testing.T) {
	for _, mode := range []tokenqueue.Mode{tokenqueue.Eager, tokenqueue.Buffered, tokenqueue.Async} {
		t.Run(mode.String(), func(t *testing.T) {
			var delivered, ends int
			var endOK bool
			sink := &rdf.FuncSink{
				OnQuad: func(*rdf.Quad) bool { delivered++; return false },
				OnEnd:  func(ok bool) { ends++; endOK = ok },
			}
			core, logs := observer.New(zapcore.DebugLevel)
			settings := parsing.Settings{QueueMode: mode, BufferSize: 2, TraceTokens: true, Logger: zap.New(core)}
			p := NewParser(settings, Options{TriplesOnly: true})

			input := strings.Repeat("<http://s> <http://p> <http://o> .\n", 50)
			if err := p.Parse(context.Background(), strings.NewReader(input), sink); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if delivered != 1 {
				t.Errorf("expected exactly 1 triple, got %d", delivered)
			}
			if ends != 1 || !endOK {
				t.Errorf("expected a single End(true), got %d calls ok=%v", ends, endOK)
			}
			// BOF, three terms and the Dot of the first statement
			if n := logs.FilterMessage("dequeue token").Len(); n != 5 {
				t.Errorf("expected 5 dequeued tokens, got %d", n)
			}
		})
	}
}

func TestErrorReportsPosition(t *testing.T) {
	_, err := parse(t, "<http://s> <http://p> <http://o> .\n<http://s> \"p\" <http://o> .\n", Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	var perr *rdf.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *rdf.ParseError, got %T", err)
	}
	if !errors.Is(err, rdf.ErrUnexpectedToken) {
		t.Errorf("expected an unexpected token error, got %v", err)
	}
	want := "[Literal at Line 2 Column 12 to Line 2 Column 14]"
	if !strings.HasPrefix(err.Error(), want) {
		t.Errorf("got %q, want prefix %q", err.Error(), want)
	}
}

func TestSinkLifecycleOnError(t *testing.T) {
	sink := rdf.NewQuadCollector()
	p := NewParser(parsing.Settings{}, Options{})
	err := p.Parse(context.Background(), strings.NewReader(`<http://s> <http://p> .`), sink)
	if err == nil {
		t.Fatal("expected error")
	}
	started, ended, ok := sink.Lifecycle()
	if started != 1 || ended != 1 || ok {
		t.Errorf("expected Start once and End(false) once, got %d/%d ok=%v", started, ended, ok)
	}
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := rdf.NewQuadCollector()
	err := NewParser(parsing.Settings{}, Options{}).Parse(ctx, strings.NewReader(`<http://s> <http://p> <http://o> .`), sink)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
