package trig

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/quadstream/internal/grammar"
	"github.com/aleksaelezovic/quadstream/internal/parsing"
	"github.com/aleksaelezovic/quadstream/internal/tokenqueue"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

func parseWith(t *testing.T, input string, dialect grammar.Dialect) ([]*rdf.Quad, error) {
	t.Helper()
	sink := rdf.NewQuadCollector()
	settings := parsing.Settings{Dialect: dialect, QueueMode: tokenqueue.Buffered, BufferSize: 4}
	err := NewParser(settings).Parse(context.Background(), strings.NewReader(input), sink)
	return sink.Quads(), err
}

func lines(quads []*rdf.Quad) []string {
	out := make([]string, len(quads))
	for i, q := range quads {
		out[i] = q.String()
	}
	return out
}

func TestTriGParser_DefaultAndNamedGraphs(t *testing.T) {
	input := `@prefix : <http://example.org/> .
:s :p :o .
:g { :s :p "in g" . :s :q :o }
{ :a :b :c }
GRAPH :h { :x :y :z . }
`
	quads, err := parseWith(t, input, grammar.W3C)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`<http://example.org/s> <http://example.org/p> <http://example.org/o> .`,
		`<http://example.org/s> <http://example.org/p> "in g" <http://example.org/g> .`,
		`<http://example.org/s> <http://example.org/q> <http://example.org/o> <http://example.org/g> .`,
		`<http://example.org/a> <http://example.org/b> <http://example.org/c> .`,
		`<http://example.org/x> <http://example.org/y> <http://example.org/z> <http://example.org/h> .`,
	}, lines(quads))
	for _, q := range quads {
		assert.NotNil(t, q.Graph)
	}
}

func TestTriGParser_NestedStructuresInBlocks(t *testing.T) {
	input := `PREFIX : <http://example.org/>
:g {
  :s :list ( :a ) ;
     :knows [ :name "Bob" ] .
}
`
	quads, err := parseWith(t, input, grammar.W3C)
	require.NoError(t, err)
	require.Len(t, quads, 5)
	for _, q := range quads {
		assert.Equal(t, "<http://example.org/g>", q.Graph.String())
	}
}

func TestTriGParser_DirectivesAreScopedToBlocks(t *testing.T) {
	input := `@prefix : <http://example.org/> .
:g { @prefix ex: <http://other.example/> . ex:s ex:p ex:o . }
:s :p :o .
`
	quads, err := parseWith(t, input, grammar.W3C)
	require.NoError(t, err)
	require.Len(t, quads, 2)
	assert.Equal(t, `<http://other.example/s> <http://other.example/p> <http://other.example/o> <http://example.org/g> .`, quads[0].String())

	_, err = parseWith(t, input+"ex:s ex:p ex:o .\n", grammar.W3C)
	require.Error(t, err)
	assert.ErrorIs(t, err, rdf.ErrGrammar)
}

func TestTriGParser_BlankNodeGraphNames(t *testing.T) {
	input := `@prefix : <http://example.org/> .
_:g1 { :s :p :o }
[] { :s :p :o }
_:g1 { :s :q :o }
`
	quads, err := parseWith(t, input, grammar.W3C)
	require.NoError(t, err)
	require.Len(t, quads, 3)
	for _, q := range quads {
		require.Equal(t, rdf.TermTypeNamedNode, q.Graph.Type())
		assert.True(t, strings.HasPrefix(q.Graph.(*rdf.NamedNode).IRI, rdf.SyntheticGraphPrefix))
	}
	assert.True(t, quads[0].Graph.Equals(quads[2].Graph))
	assert.False(t, quads[0].Graph.Equals(quads[1].Graph))
}

func TestTriGParser_AnonymousSubjectOutsideBlocks(t *testing.T) {
	quads, err := parseWith(t, `[] <http://example.org/p> <http://example.org/o> .
[ <http://example.org/p> "x" ] .
`, grammar.W3C)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`_:genid1 <http://example.org/p> <http://example.org/o> .`,
		`_:genid2 <http://example.org/p> "x" .`,
	}, lines(quads))
}

func TestTriGParser_LegacyDialect(t *testing.T) {
	quads, err := parseWith(t, `@prefix : <http://example.org/> .
{ :a :b :c . }
:g = { :s :p :o . }
`, grammar.Legacy)
	require.NoError(t, err)
	require.Len(t, quads, 2)
	assert.True(t, rdf.IsDefaultGraph(quads[0].Graph))
	assert.Equal(t, "<http://example.org/g>", quads[1].Graph.String())

	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{
			name:  "second default graph",
			input: "{ <http://a> <http://b> <http://c> . }\n{ <http://a> <http://b> <http://d> . }\n",
			msg:   "only one default graph block is allowed",
		},
		{
			name:  "directive inside a block",
			input: "<http://g> { @prefix ex: <http://example.org/> . }\n",
			msg:   "directives are not allowed inside a graph block",
		},
		{
			name:  "triples outside a block",
			input: "<http://a> <http://b> <http://c> .\n",
			msg:   "expected a graph",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseWith(t, tt.input, grammar.Legacy)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestTriGParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  error
		msg   string
	}{
		{"nested block", "<http://g> { <http://h> { } }", rdf.ErrGrammar, "nested graph blocks are not allowed"},
		{"nested default block", "<http://g> { { } }", rdf.ErrGrammar, "nested graph blocks are not allowed"},
		{"unterminated block", "<http://g> { <http://a> <http://b> <http://c> .", rdf.ErrUnexpectedToken, "expected RightCurlyBracket"},
		{"collection as graph name", "GRAPH ( ) { }", rdf.ErrUnexpectedToken, "after GRAPH"},
		{"missing brace after GRAPH", "GRAPH <http://g> <http://a> <http://b> <http://c> .", rdf.ErrUnexpectedToken, "LeftCurlyBracket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseWith(t, tt.input, grammar.W3C)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestTriGParser_StopsWhenSinkDeclines(t *testing.T) {
	collector := rdf.NewQuadCollector()
	sink := &rdf.LimitSink{Next: collector, Limit: 3}
	input := "<http://g> {\n" + strings.Repeat("<http://s> <http://p> <http://o> .\n", 10) + "}\n"
	err := NewParser(parsing.Settings{QueueMode: tokenqueue.Async, BufferSize: 2}).Parse(context.Background(), strings.NewReader(input), sink)
	require.NoError(t, err)
	assert.Len(t, collector.Quads(), 3)
	_, ended, ok := collector.Lifecycle()
	assert.Equal(t, 1, ended)
	assert.True(t, ok)
}

func TestTriGParser_ErrorEndsSink(t *testing.T) {
	collector := rdf.NewQuadCollector()
	err := NewParser(parsing.Settings{}).Parse(context.Background(), strings.NewReader("<http://g> { <http://s> <http://p> }"), collector)
	require.Error(t, err)
	var perr *rdf.ParseError
	assert.True(t, errors.As(err, &perr))
	started, ended, ok := collector.Lifecycle()
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, ended)
	assert.False(t, ok)
}
