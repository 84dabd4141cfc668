package parsing

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"
)

var (
	ErrScopeUnderflow  = errors.New("parsing: pop with no enclosing scope")
	ErrUndefinedPrefix = errors.New("parsing: undefined prefix")
)

// Scope is the namespace, base IRI and language state of one nesting level.
// It is a plain value; ScopeStack never shares its map with another level.
type Scope struct {
	Namespaces map[string]string
	BaseURI    string
	Language   string
}

func (s Scope) clone() Scope {
	s.Namespaces = maps.Clone(s.Namespaces)
	if s.Namespaces == nil {
		s.Namespaces = map[string]string{}
	}
	return s
}

// ScopeStack saves and restores Scope values around nested constructs.
type ScopeStack struct {
	current Scope
	saved   *arraystack.Stack
}

func NewScopeStack(base string) *ScopeStack {
	return &ScopeStack{
		current: Scope{Namespaces: map[string]string{}, BaseURI: base},
		saved:   arraystack.New(),
	}
}

// Push starts a child scope that begins as a copy of the current one.
func (s *ScopeStack) Push() {
	s.saved.Push(s.current)
	s.current = s.current.clone()
}

// Pop discards the current scope and restores the enclosing one.
func (s *ScopeStack) Pop() error {
	v, ok := s.saved.Pop()
	if !ok {
		return ErrScopeUnderflow
	}
	s.current = v.(Scope)
	return nil
}

// Depth is the number of pushes not yet popped.
func (s *ScopeStack) Depth() int { return s.saved.Size() }

// Current returns a copy of the current scope.
func (s *ScopeStack) Current() Scope { return s.current.clone() }

func (s *ScopeStack) SetPrefix(prefix, iri string) {
	s.current.Namespaces[prefix] = iri
}

func (s *ScopeStack) Namespace(prefix string) (string, bool) {
	iri, ok := s.current.Namespaces[prefix]
	return iri, ok
}

func (s *ScopeStack) Base() string { return s.current.BaseURI }

// SetBase resolves iri against the current base before storing it.
func (s *ScopeStack) SetBase(iri string) error {
	resolved, err := s.Resolve(iri)
	if err != nil {
		return err
	}
	s.current.BaseURI = resolved
	return nil
}

func (s *ScopeStack) Language() string { return s.current.Language }

func (s *ScopeStack) SetLanguage(lang string) { s.current.Language = lang }

// Resolve turns a possibly relative IRI reference into an absolute one using
// the current base. Without a base the reference is returned as is.
func (s *ScopeStack) Resolve(ref string) (string, error) {
	base := s.current.BaseURI
	if base == "" {
		return ref, nil
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid IRI %q: %w", ref, err)
	}
	if rel.Scheme != "" {
		return ref, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base IRI %q: %w", base, err)
	}
	resolved := b.ResolveReference(rel).String()
	// net/url drops an empty fragment
	if strings.HasSuffix(ref, "#") && !strings.HasSuffix(resolved, "#") {
		resolved += "#"
	}
	return resolved, nil
}

// Expand maps prefix:local onto a full IRI. local must already be unescaped.
func (s *ScopeStack) Expand(prefix, local string) (string, error) {
	ns, ok := s.current.Namespaces[prefix]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUndefinedPrefix, prefix+":")
	}
	return ns + local, nil
}
