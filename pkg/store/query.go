package store

import (
	"fmt"

	"github.com/aleksaelezovic/quadstream/internal/encoding"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// Pattern is a quad pattern. A nil position matches any term; use
// rdf.NewDefaultGraph() to match the default graph only.
type Pattern struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
	Graph     rdf.Term
}

func (p *Pattern) positions() [4]rdf.Term {
	return [4]rdf.Term{p.Subject, p.Predicate, p.Object, p.Graph}
}

// QuadIterator iterates over quads matching a pattern
type QuadIterator interface {
	Next() bool
	Quad() (*rdf.Quad, error)
	Close() error
}

var positionNames = [4]string{"subject", "predicate", "object", "graph"}

// index is one key permutation. order maps key position to quad position
// (S=0, P=1, O=2, G=3).
type index struct {
	table Table
	order [4]int
}

var indexes = []index{
	{TableSPOG, [4]int{0, 1, 2, 3}},
	{TablePOSG, [4]int{1, 2, 0, 3}},
	{TableOSPG, [4]int{2, 0, 1, 3}},
	{TableGSPO, [4]int{3, 0, 1, 2}},
	{TableGPOS, [4]int{3, 1, 2, 0}},
	{TableGOSP, [4]int{3, 2, 0, 1}},
}

func (s *TripleStore) indexKey(idx index, terms [4]EncodedTerm) []byte {
	ordered := make([]EncodedTerm, 4)
	for i, pos := range idx.order {
		ordered[i] = terms[pos]
	}
	return s.encoder.EncodeQuadKey(ordered...)
}

// selectIndex chooses an index whose leading positions are exactly the
// bound positions of the pattern. Every subset of {S, P, O, G} is a prefix
// of one of the six permutations.
func selectIndex(pattern *Pattern) (index, int) {
	terms := pattern.positions()
	bound := 0
	for _, t := range terms {
		if t != nil {
			bound++
		}
	}
	for _, idx := range indexes {
		ok := true
		for _, pos := range idx.order[:bound] {
			if terms[pos] == nil {
				ok = false
				break
			}
		}
		if ok {
			return idx, bound
		}
	}
	return indexes[0], 0
}

// Match executes a pattern match and returns matching quads
func (s *TripleStore) Match(pattern *Pattern) (QuadIterator, error) {
	idx, bound := selectIndex(pattern)

	// Build the prefix for scanning from the bound terms in key order
	terms := pattern.positions()
	var prefix []byte
	for _, pos := range idx.order[:bound] {
		encoded, _, err := s.encoder.EncodeTerm(terms[pos])
		if err != nil {
			return nil, err
		}
		prefix = append(prefix, encoded[:]...)
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	it, err := txn.Scan(idx.table, prefix, nil)
	if err != nil {
		_ = txn.Rollback() // #nosec G104 - rollback error less important than original error
		return nil, err
	}

	return &quadIterator{store: s, txn: txn, it: it, idx: idx}, nil
}

// quadIterator implements QuadIterator
type quadIterator struct {
	store  *TripleStore
	txn    Transaction
	it     Iterator
	idx    index
	closed bool
}

func (qi *quadIterator) Next() bool {
	if qi.closed {
		return false
	}
	return qi.it.Next()
}

func (qi *quadIterator) Quad() (*rdf.Quad, error) {
	if qi.closed {
		return nil, fmt.Errorf("iterator closed")
	}

	key := qi.it.Key()
	if len(key) != 4*encoding.EncodedTermSize {
		return nil, fmt.Errorf("invalid key length: %d", len(key))
	}

	// Map key slots back to S, P, O, G positions
	var terms [4]rdf.Term
	for i, pos := range qi.idx.order {
		var enc EncodedTerm
		offset := i * encoding.EncodedTermSize
		copy(enc[:], key[offset:offset+encoding.EncodedTermSize])
		term, err := qi.store.decodeTerm(qi.txn, enc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", positionNames[pos], err)
		}
		terms[pos] = term
	}

	return rdf.NewQuad(terms[0], terms[1], terms[2], terms[3]), nil
}

func (qi *quadIterator) Close() error {
	if qi.closed {
		return nil
	}
	qi.closed = true
	_ = qi.it.Close() // #nosec G104 - iterator close error less critical than transaction rollback error
	return qi.txn.Rollback()
}

// decodeTerm looks up the term record and decodes an encoded term
func (s *TripleStore) decodeTerm(txn Transaction, encoded EncodedTerm) (rdf.Term, error) {
	if encoding.GetTermType(encoded) == rdf.TermTypeDefaultGraph {
		return s.decoder.DecodeTerm(encoded, nil)
	}
	record, err := txn.Get(TableID2Str, encoded[1:])
	if err != nil {
		return nil, fmt.Errorf("term record: %w", err)
	}
	return s.decoder.DecodeTerm(encoded, record)
}
