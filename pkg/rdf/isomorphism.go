package rdf

import (
	"sort"
	"strings"
)

// Isomorphic reports whether two quad sets are equal up to a renaming of
// blank nodes. Duplicates are ignored and nil graphs mean the default graph.
func Isomorphic(expected, actual []*Quad) bool {
	expected, actual = distinct(expected), distinct(actual)
	if len(expected) != len(actual) {
		return false
	}

	expectedBlanks := blankLabels(expected)
	actualBlanks := blankLabels(actual)
	if len(expectedBlanks) != len(actualBlanks) {
		return false
	}

	actualSet := make(map[string]bool, len(actual))
	for _, q := range actual {
		actualSet[quadKey(q, nil)] = true
	}
	if len(expectedBlanks) == 0 {
		for _, q := range expected {
			if !actualSet[quadKey(q, nil)] {
				return false
			}
		}
		return true
	}

	// match highly connected nodes first
	expectedBlanks = sortByDegree(expectedBlanks, expected)
	actualBlanks = sortByDegree(actualBlanks, actual)

	m := &matcher{
		expected:  expected,
		actualSet: actualSet,
		from:      expectedBlanks,
		to:        actualBlanks,
		mapping:   make(map[string]string, len(expectedBlanks)),
		used:      make(map[string]bool, len(actualBlanks)),
	}
	return m.backtrack(0)
}

type matcher struct {
	expected  []*Quad
	actualSet map[string]bool
	from, to  []string
	mapping   map[string]string
	used      map[string]bool
}

func (m *matcher) backtrack(index int) bool {
	if index == len(m.from) {
		return m.consistent()
	}
	current := m.from[index]
	for _, candidate := range m.to {
		if m.used[candidate] {
			continue
		}
		m.mapping[current] = candidate
		m.used[candidate] = true
		if m.consistent() && m.backtrack(index+1) {
			return true
		}
		delete(m.mapping, current)
		delete(m.used, candidate)
	}
	return false
}

// consistent checks every expected quad whose blank nodes are all mapped.
// Once every node is mapped this is a full check since both sides hold the
// same number of distinct quads.
func (m *matcher) consistent() bool {
	for _, q := range m.expected {
		if !m.mapped(q.Subject) || !m.mapped(q.Object) || !m.mapped(q.Graph) {
			continue
		}
		if !m.actualSet[quadKey(q, m.mapping)] {
			return false
		}
	}
	return true
}

func (m *matcher) mapped(t Term) bool {
	b, ok := t.(*BlankNode)
	if !ok {
		return true
	}
	_, ok = m.mapping[b.ID]
	return ok
}

func distinct(quads []*Quad) []*Quad {
	seen := make(map[string]bool, len(quads))
	out := make([]*Quad, 0, len(quads))
	for _, q := range quads {
		key := quadKey(q, nil)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}

func blankLabels(quads []*Quad) []string {
	set := map[string]bool{}
	for _, q := range quads {
		for _, t := range [3]Term{q.Subject, q.Object, q.Graph} {
			if b, ok := t.(*BlankNode); ok {
				set[b.ID] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for label := range set {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

func sortByDegree(blanks []string, quads []*Quad) []string {
	degrees := make(map[string]int, len(blanks))
	for _, q := range quads {
		for _, t := range [3]Term{q.Subject, q.Object, q.Graph} {
			if b, ok := t.(*BlankNode); ok {
				degrees[b.ID]++
			}
		}
	}
	sort.SliceStable(blanks, func(i, j int) bool {
		return degrees[blanks[i]] > degrees[blanks[j]]
	})
	return blanks
}

func quadKey(q *Quad, mapping map[string]string) string {
	var sb strings.Builder
	for i, t := range [4]Term{q.Subject, q.Predicate, q.Object, q.Graph} {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(termKey(t, mapping))
	}
	return sb.String()
}

func termKey(t Term, mapping map[string]string) string {
	if IsDefaultGraph(t) {
		return ""
	}
	if b, ok := t.(*BlankNode); ok && mapping != nil {
		if mapped, ok := mapping[b.ID]; ok {
			return "_:" + mapped
		}
	}
	return t.String()
}
