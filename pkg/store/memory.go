package store

import (
	"sync"

	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// MemoryStore is a QuadWriter that keeps distinct quads in memory. It is
// meant for tests and dry runs.
type MemoryStore struct {
	mu    sync.RWMutex
	quads map[string]*rdf.Quad
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{quads: make(map[string]*rdf.Quad)}
}

func (m *MemoryStore) InsertQuadsBatch(quads []*rdf.Quad) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range quads {
		if rdf.IsDefaultGraph(q.Graph) {
			q = q.Triple().InGraph(nil)
		}
		key := q.String()
		if _, ok := m.quads[key]; ok {
			continue
		}
		m.quads[key] = q
		m.order = append(m.order, key)
	}
	return nil
}

func (m *MemoryStore) ContainsQuad(q *rdf.Quad) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.quads[q.String()]
	return ok
}

func (m *MemoryStore) Count() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.quads))
}

// Quads returns the stored quads in insertion order.
func (m *MemoryStore) Quads() []*rdf.Quad {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*rdf.Quad, len(m.order))
	for i, key := range m.order {
		out[i] = m.quads[key]
	}
	return out
}
