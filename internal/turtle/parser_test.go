package turtle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aleksaelezovic/quadstream/internal/grammar"
	"github.com/aleksaelezovic/quadstream/internal/parsing"
	"github.com/aleksaelezovic/quadstream/internal/tokenqueue"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

const xsd = "http://www.w3.org/2001/XMLSchema#"

func parseWith(t *testing.T, input string, settings parsing.Settings) ([]string, error) {
	t.Helper()
	sink := rdf.NewQuadCollector()
	err := NewParser(settings).Parse(context.Background(), strings.NewReader(input), sink)
	var out []string
	for _, q := range sink.Quads() {
		out = append(out, q.String())
	}
	return out, err
}

func parseW3C(t *testing.T, input string) ([]string, error) {
	t.Helper()
	return parseWith(t, input, parsing.Settings{Dialect: grammar.W3C, QueueMode: tokenqueue.Buffered, BufferSize: 3})
}

func expectStatements(t *testing.T, input string, want []string) {
	t.Helper()
	got, err := parseW3C(t, input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d triples, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Triple %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestTurtleParser_PredicateObjectLists(t *testing.T) {
	expectStatements(t, `@prefix : <http://www.example.org/> .
:s :p1 :o1, :o2 ; :p2 :o3 ;; .`, []string{
		`<http://www.example.org/s> <http://www.example.org/p1> <http://www.example.org/o1> .`,
		`<http://www.example.org/s> <http://www.example.org/p1> <http://www.example.org/o2> .`,
		`<http://www.example.org/s> <http://www.example.org/p2> <http://www.example.org/o3> .`,
	})
}

func TestTurtleParser_KeywordA(t *testing.T) {
	expectStatements(t, `PREFIX foaf: <http://xmlns.com/foaf/0.1/>
<http://example.org/alice> a foaf:Person .`, []string{
		`<http://example.org/alice> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://xmlns.com/foaf/0.1/Person> .`,
	})
}

func TestTurtleParser_Literals(t *testing.T) {
	expectStatements(t, `@prefix ex: <http://example.org/> .
ex:s ex:p "chat"@fr, 42, -1.5, 1e3, true, "x"^^ex:dt, """multi
line""" .`, []string{
		`<http://example.org/s> <http://example.org/p> "chat"@fr .`,
		`<http://example.org/s> <http://example.org/p> "42"^^<` + xsd + `integer> .`,
		`<http://example.org/s> <http://example.org/p> "-1.5"^^<` + xsd + `decimal> .`,
		`<http://example.org/s> <http://example.org/p> "1e3"^^<` + xsd + `double> .`,
		`<http://example.org/s> <http://example.org/p> "true"^^<` + xsd + `boolean> .`,
		`<http://example.org/s> <http://example.org/p> "x"^^<http://example.org/dt> .`,
		`<http://example.org/s> <http://example.org/p> "multi\nline" .`,
	})
}

func TestTurtleParser_BlankNodePropertyList(t *testing.T) {
	expectStatements(t, `@prefix : <http://example.org/> .
:s :p [ :q "x" ; :r [] ] .
[ :p :o ] .`, []string{
		`_:genid1 <http://example.org/q> "x" .`,
		`_:genid1 <http://example.org/r> _:genid2 .`,
		`<http://example.org/s> <http://example.org/p> _:genid1 .`,
		`_:genid3 <http://example.org/p> <http://example.org/o> .`,
	})
}

func TestTurtleParser_Collections(t *testing.T) {
	rdfNS := rdf.RDFNamespace
	expectStatements(t, `@prefix : <http://example.org/> .
:s :p ( 1 "two" ) .
:s :q () .`, []string{
		`_:genid1 <` + rdfNS + `first> "1"^^<` + xsd + `integer> .`,
		`_:genid1 <` + rdfNS + `rest> _:genid2 .`,
		`_:genid2 <` + rdfNS + `first> "two" .`,
		`_:genid2 <` + rdfNS + `rest> <` + rdfNS + `nil> .`,
		`<http://example.org/s> <http://example.org/p> _:genid1 .`,
		`<http://example.org/s> <http://example.org/q> <` + rdfNS + `nil> .`,
	})
}

func TestTurtleParser_BaseResolution(t *testing.T) {
	expectStatements(t, `@base <http://example.org/dir/> .
<a> <b> <../c> .
BASE <sub/>
<d> <#e> <> .`, []string{
		`<http://example.org/dir/a> <http://example.org/dir/b> <http://example.org/c> .`,
		`<http://example.org/dir/sub/d> <http://example.org/dir/sub/#e> <http://example.org/dir/sub/> .`,
	})
}

func TestTurtleParser_BlankNodeLabelsDoNotCollide(t *testing.T) {
	got, err := parseW3C(t, `_:genid1 <http://example.org/p> [] .
_:genid1 <http://example.org/p> _:x .`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []string{
		`_:genid1 <http://example.org/p> _:genid2 .`,
		`_:genid1 <http://example.org/p> _:x .`,
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Triple %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestTurtleParser_DatatypeAgainstBase(t *testing.T) {
	expectStatements(t, `@base <http://example.org/> .
<s> <p> "x"^^<dt> .`, []string{
		`<http://example.org/s> <http://example.org/p> "x"^^<http://example.org/dt> .`,
	})
}

func TestTurtleParser_ByteOrderMark(t *testing.T) {
	expectStatements(t, "\ufeff<http://s> <http://p> <http://o> .", []string{
		`<http://s> <http://p> <http://o> .`,
	})
}

func TestTurtleParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  error
	}{
		{"undefined prefix", `ex:s ex:p ex:o .`, rdf.ErrGrammar},
		{"missing dot", `<http://s> <http://p> <http://o>`, rdf.ErrUnexpectedToken},
		{"literal subject", `"s" <http://p> <http://o> .`, rdf.ErrUnexpectedToken},
		{"anonymous node alone", `[] .`, rdf.ErrUnexpectedToken},
		{"unterminated property list", `<http://s> <http://p> [ <http://q> <http://o> .`, rdf.ErrUnexpectedToken},
		{"literal predicate", `<http://s> "p" <http://o> .`, rdf.ErrUnexpectedToken},
		{"prefix without dot", `@prefix ex: <http://example.org/> ex:s ex:p ex:o .`, rdf.ErrUnexpectedToken},
		{"relative datatype IRI", `<http://s> <http://p> "x"^^<foo> .`, rdf.ErrGrammar},
		{"relative datatype QName", `@prefix d: <rel/> .
<http://s> <http://p> "x"^^d:t .`, rdf.ErrGrammar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseW3C(t, tt.input)
			if err == nil {
				t.Fatal("expected error, got none")
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
			var perr *rdf.ParseError
			if !errors.As(err, &perr) {
				t.Errorf("expected *rdf.ParseError, got %T", err)
			}
		})
	}
}

func TestTurtleParser_LegacyDialect(t *testing.T) {
	settings := parsing.Settings{Dialect: grammar.Legacy}
	if _, err := parseWith(t, "@prefix ex: <http://example.org/> .\nex:s ex:p ex:o .\n", settings); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := parseWith(t, "PREFIX ex: <http://example.org/>\nex:s ex:p ex:o .\n", settings); err == nil {
		t.Error("expected SPARQL-style PREFIX to be rejected by the legacy grammar")
	}
}

func TestTurtleParser_StopsWhenSinkDeclines(t *testing.T) {
	for _, mode := range []tokenqueue.Mode{tokenqueue.Eager, tokenqueue.Buffered, tokenqueue.Async} {
		t.Run(mode.String(), func(t *testing.T) {
			collector := rdf.NewQuadCollector()
			sink := &rdf.LimitSink{Next: collector, Limit: 2}
			input := "<http://s> <http://p> ( 1 2 3 4 5 ) .\n" + strings.Repeat("<http://s> <http://p> <http://o> .\n", 20)
			err := NewParser(parsing.Settings{QueueMode: mode, BufferSize: 2}).Parse(context.Background(), strings.NewReader(input), sink)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n := len(collector.Quads()); n != 2 {
				t.Errorf("expected 2 triples, got %d", n)
			}
			_, ended, ok := collector.Lifecycle()
			if ended != 1 || !ok {
				t.Errorf("expected End(true) once, got %d ok=%v", ended, ok)
			}
		})
	}
}
