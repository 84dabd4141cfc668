package rdf

import (
	"strings"
	"sync"
)

// NodeFactory creates the terms a parser hands to its Sink.
type NodeFactory interface {
	CreateBlankNode(id string) Term
	CreateURINode(uri string) Term
	// CreateLiteralNode builds a literal. langOrDatatype is a datatype IRI when
	// it contains a colon, a language tag otherwise, and empty for a plain literal.
	CreateLiteralNode(value, langOrDatatype string) Term
}

// Sink receives the output of a parse.
//
// Start is called exactly once before anything else and End exactly once
// after everything else. HandleTriple and HandleQuad return false to ask the
// parser to stop; a stopped parse still ends with End(true). End(false) is
// only used when the parse failed.
type Sink interface {
	NodeFactory
	Start()
	HandleTriple(t *Triple) bool
	HandleQuad(q *Quad) bool
	End(ok bool)
}

// Nodes is the default NodeFactory. Embed it to get term construction for free.
type Nodes struct{}

func (Nodes) CreateBlankNode(id string) Term {
	return NewBlankNode(id)
}

func (Nodes) CreateURINode(uri string) Term {
	return NewNamedNode(uri)
}

func (Nodes) CreateLiteralNode(value, langOrDatatype string) Term {
	switch {
	case langOrDatatype == "":
		return NewLiteral(value)
	case strings.Contains(langOrDatatype, ":"):
		return NewLiteralWithDatatype(value, NewNamedNode(langOrDatatype))
	default:
		return NewLiteralWithLanguage(value, langOrDatatype)
	}
}

// QuadCollector buffers everything it is handed. Triples are stored in the
// default graph. It is safe for concurrent use.
type QuadCollector struct {
	Nodes

	mu      sync.Mutex
	quads   []*Quad
	started int
	ended   int
	ok      bool
}

func NewQuadCollector() *QuadCollector {
	return &QuadCollector{}
}

func (c *QuadCollector) Start() {
	c.mu.Lock()
	c.started++
	c.mu.Unlock()
}

func (c *QuadCollector) HandleTriple(t *Triple) bool {
	return c.HandleQuad(t.InGraph(nil))
}

func (c *QuadCollector) HandleQuad(q *Quad) bool {
	c.mu.Lock()
	c.quads = append(c.quads, q)
	c.mu.Unlock()
	return true
}

func (c *QuadCollector) End(ok bool) {
	c.mu.Lock()
	c.ended++
	c.ok = ok
	c.mu.Unlock()
}

// Quads returns a copy of the collected quads in arrival order.
func (c *QuadCollector) Quads() []*Quad {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Quad(nil), c.quads...)
}

// Lifecycle reports how many times Start and End were called and the last
// value passed to End.
func (c *QuadCollector) Lifecycle() (started, ended int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started, c.ended, c.ok
}

// FuncSink adapts a function to the Sink interface. OnEnd is optional.
type FuncSink struct {
	Nodes
	OnQuad func(q *Quad) bool
	OnEnd  func(ok bool)
}

func (f *FuncSink) Start() {}

func (f *FuncSink) HandleTriple(t *Triple) bool {
	return f.HandleQuad(t.InGraph(nil))
}

func (f *FuncSink) HandleQuad(q *Quad) bool {
	if f.OnQuad == nil {
		return true
	}
	return f.OnQuad(q)
}

func (f *FuncSink) End(ok bool) {
	if f.OnEnd != nil {
		f.OnEnd(ok)
	}
}

// LimitSink forwards to Next until Limit statements have been accepted and
// then asks the parser to stop.
type LimitSink struct {
	Next  Sink
	Limit int

	seen int
}

func (l *LimitSink) CreateBlankNode(id string) Term { return l.Next.CreateBlankNode(id) }
func (l *LimitSink) CreateURINode(uri string) Term  { return l.Next.CreateURINode(uri) }
func (l *LimitSink) CreateLiteralNode(value, langOrDatatype string) Term {
	return l.Next.CreateLiteralNode(value, langOrDatatype)
}

func (l *LimitSink) Start() { l.Next.Start() }

func (l *LimitSink) HandleTriple(t *Triple) bool {
	if !l.Next.HandleTriple(t) {
		return false
	}
	l.seen++
	return l.seen < l.Limit
}

func (l *LimitSink) HandleQuad(q *Quad) bool {
	if !l.Next.HandleQuad(q) {
		return false
	}
	l.seen++
	return l.seen < l.Limit
}

func (l *LimitSink) End(ok bool) { l.Next.End(ok) }
