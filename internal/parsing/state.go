package parsing

import (
	"errors"
	"strconv"

	"github.com/emirpasic/gods/stacks/arraystack"
	"go.uber.org/atomic"

	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

var ErrGraphStackEmpty = errors.New("parsing: graph stack is empty")

// GraphStack tracks the graph names of nested graph blocks.
type GraphStack struct {
	stack *arraystack.Stack
}

func NewGraphStack() *GraphStack {
	return &GraphStack{stack: arraystack.New()}
}

func (g *GraphStack) Push(name rdf.Term) {
	g.stack.Push(name)
}

func (g *GraphStack) Pop() (rdf.Term, error) {
	v, ok := g.stack.Pop()
	if !ok {
		return nil, ErrGraphStackEmpty
	}
	return v.(rdf.Term), nil
}

// Current is the innermost graph, or nil outside of any graph block.
func (g *GraphStack) Current() rdf.Term {
	v, ok := g.stack.Peek()
	if !ok {
		return nil
	}
	return v.(rdf.Term)
}

func (g *GraphStack) Depth() int { return g.stack.Size() }

// IDGenerator hands out blank node identifiers for one parse session.
//
// Fresh ids never repeat and never equal a label returned by Explicit.
// Explicit keeps document labels as they are unless the label was already
// handed out by Fresh, in which case the label is given a stable alias.
type IDGenerator struct {
	prefix   string
	counter  uint64
	aliasSeq uint64
	issued   map[string]struct{} // ids minted by Fresh or as aliases
	explicit map[string]struct{}
	aliases  map[string]string
}

const DefaultBlankNodePrefix = "genid"

func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = DefaultBlankNodePrefix
	}
	return &IDGenerator{
		prefix:   prefix,
		issued:   map[string]struct{}{},
		explicit: map[string]struct{}{},
		aliases:  map[string]string{},
	}
}

// Fresh returns an id that was never returned before.
func (g *IDGenerator) Fresh() string {
	for {
		g.counter++
		id := g.prefix + strconv.FormatUint(g.counter, 10)
		if g.taken(id) {
			continue
		}
		g.issued[id] = struct{}{}
		return id
	}
}

// Explicit returns the id to use for a label written in the document.
func (g *IDGenerator) Explicit(label string) string {
	if id, ok := g.aliases[label]; ok {
		return id
	}
	if _, ok := g.issued[label]; !ok {
		g.explicit[label] = struct{}{}
		return label
	}
	for {
		g.aliasSeq++
		id := label + "a" + strconv.FormatUint(g.aliasSeq, 10)
		if g.taken(id) {
			continue
		}
		g.issued[id] = struct{}{}
		g.aliases[label] = id
		return id
	}
}

func (g *IDGenerator) taken(id string) bool {
	if _, ok := g.issued[id]; ok {
		return true
	}
	_, ok := g.explicit[id]
	return ok
}

// Latch is a flag that can only go from false to true. It is safe for
// concurrent use.
type Latch struct {
	v atomic.Bool
}

// Set raises the latch and reports whether this call raised it.
func (l *Latch) Set() bool {
	return l.v.CompareAndSwap(false, true)
}

// Store sets the latch when v is true. Storing false has no effect.
func (l *Latch) Store(v bool) {
	if v {
		l.v.Store(true)
	}
}

func (l *Latch) Load() bool { return l.v.Load() }
