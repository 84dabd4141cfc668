// Package parsing holds the state shared by the format parsers: the sink, the
// session settings, the token source and the nested scopes.
package parsing

import (
	"github.com/emirpasic/gods/stacks/arraystack"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/quadstream/internal/grammar"
	"github.com/aleksaelezovic/quadstream/internal/token"
	"github.com/aleksaelezovic/quadstream/internal/tokenqueue"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// Settings are fixed for the lifetime of a parse session.
type Settings struct {
	Dialect   grammar.Dialect
	QueueMode tokenqueue.Mode
	// BufferSize bounds the token queue.
	BufferSize int
	// ReadBufferSize selects a blocking source reader of that size; zero
	// reads straight from the input.
	ReadBufferSize int
	// Charset names the input encoding; see source.DecodeOptions.
	Charset string
	// BaseURI resolves relative IRIs until the document sets its own base.
	BaseURI      string
	TraceTokens  bool
	TraceParsing bool
	Logger       *zap.Logger
}

func (s Settings) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// TokenSource is the part of a token queue a parser reads from.
type TokenSource interface {
	Dequeue() (token.Token, error)
	Peek() (token.Token, error)
}

// Base carries what every parser needs: the sink, the settings, a token
// source and the blank node generator.
type Base struct {
	sink     rdf.Sink
	settings Settings
	logger   *zap.Logger
	tokens   TokenSource
	ids      *IDGenerator
}

func newBase(sink rdf.Sink, tokens TokenSource, settings Settings) Base {
	return Base{
		sink:     sink,
		settings: settings,
		logger:   settings.logger(),
		tokens:   tokens,
		ids:      NewIDGenerator(""),
	}
}

func (b *Base) Sink() rdf.Sink           { return b.sink }
func (b *Base) Settings() Settings       { return b.settings }
func (b *Base) Logger() *zap.Logger      { return b.logger }
func (b *Base) IDs() *IDGenerator        { return b.ids }
func (b *Base) Tokens() TokenSource      { return b.tokens }
func (b *Base) Dialect() grammar.Dialect { return b.settings.Dialect }

func (b *Base) Dequeue() (token.Token, error) { return b.tokens.Dequeue() }
func (b *Base) Peek() (token.Token, error)    { return b.tokens.Peek() }

// Trace logs a parser step when TraceParsing is on.
func (b *Base) Trace(step string, tok token.Token) {
	if !b.settings.TraceParsing {
		return
	}
	b.logger.Debug("parse step",
		zap.String("step", step),
		zap.Stringer("token", tok),
		zap.Int("line", tok.Span.StartLine),
		zap.Int("column", tok.Span.StartCol))
}

// EmitTriple hands a triple to the sink.
func (b *Base) EmitTriple(s, p, o rdf.Term) Decision {
	return decide(b.sink.HandleTriple(rdf.NewTriple(s, p, o)))
}

// EmitQuad hands a quad to the sink. A nil graph is the default graph.
func (b *Base) EmitQuad(s, p, o, g rdf.Term) Decision {
	if g == nil {
		g = rdf.NewDefaultGraph()
	}
	return decide(b.sink.HandleQuad(rdf.NewQuad(s, p, o, g)))
}

// GraphContext serves single-graph syntaxes. It adds the scope stack and the
// graph nesting stack.
type GraphContext struct {
	Base
	scopes *ScopeStack
	graphs *GraphStack
}

func NewGraphContext(sink rdf.Sink, tokens TokenSource, settings Settings) *GraphContext {
	return &GraphContext{
		Base:   newBase(sink, tokens, settings),
		scopes: NewScopeStack(settings.BaseURI),
		graphs: NewGraphStack(),
	}
}

func (c *GraphContext) Scopes() *ScopeStack { return c.scopes }
func (c *GraphContext) Graphs() *GraphStack { return c.graphs }

func (c *GraphContext) PushScope()      { c.scopes.Push() }
func (c *GraphContext) PopScope() error { return c.scopes.Pop() }

// Emit sends a statement to the innermost graph: as a triple at the top
// level, as a quad inside a graph block.
func (c *GraphContext) Emit(s, p, o rdf.Term) Decision {
	if g := c.graphs.Current(); g != nil {
		return c.EmitQuad(s, p, o, g)
	}
	return c.EmitTriple(s, p, o)
}

// Subordinate derives a context reading from tokens and sharing everything
// else with c.
func (c *GraphContext) Subordinate(tokens TokenSource) *GraphContext {
	sub := *c
	sub.tokens = tokens
	return &sub
}

// StoreContext serves multi-graph syntaxes. It adds the default graph latch
// and a local pushback stack giving one token of lookahead-then-requeue.
type StoreContext struct {
	GraphContext
	defaultGraph *Latch
	local        *arraystack.Stack
}

func NewStoreContext(sink rdf.Sink, tokens TokenSource, settings Settings) *StoreContext {
	return &StoreContext{
		GraphContext: *NewGraphContext(sink, tokens, settings),
		defaultGraph: &Latch{},
		local:        arraystack.New(),
	}
}

// DefaultGraphSeen is raised once a statement or block of the default graph
// has been parsed.
func (c *StoreContext) DefaultGraphSeen() *Latch { return c.defaultGraph }

// Requeue pushes tok back; the next Dequeue or Peek returns it.
func (c *StoreContext) Requeue(tok token.Token) {
	c.local.Push(tok)
}

func (c *StoreContext) Dequeue() (token.Token, error) {
	if v, ok := c.local.Pop(); ok {
		return v.(token.Token), nil
	}
	return c.tokens.Dequeue()
}

func (c *StoreContext) Peek() (token.Token, error) {
	if v, ok := c.local.Peek(); ok {
		return v.(token.Token), nil
	}
	return c.tokens.Peek()
}

// Emit always produces quads; outside a graph block they go to the default
// graph.
func (c *StoreContext) Emit(s, p, o rdf.Term) Decision {
	return c.EmitQuad(s, p, o, c.graphs.Current())
}

// Subordinate shares the latch, scopes, graphs and generator with c. The new
// context has its own token source and pushback stack.
func (c *StoreContext) Subordinate(tokens TokenSource) *StoreContext {
	return &StoreContext{
		GraphContext: *c.GraphContext.Subordinate(tokens),
		defaultGraph: c.defaultGraph,
		local:        arraystack.New(),
	}
}
