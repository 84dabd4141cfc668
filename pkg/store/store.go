package store

import (
	"errors"
	"fmt"

	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// QuadWriter is a destination for parsed quads. Implementations must accept
// concurrent callers.
type QuadWriter interface {
	InsertQuadsBatch(quads []*rdf.Quad) error
}

// TripleStore manages the RDF quad store with 6 indexes
type TripleStore struct {
	storage Storage
	encoder TermEncoder
	decoder TermDecoder
}

// NewTripleStore creates a new triplestore
func NewTripleStore(storage Storage, encoder TermEncoder, decoder TermDecoder) *TripleStore {
	return &TripleStore{
		storage: storage,
		encoder: encoder,
		decoder: decoder,
	}
}

// Close closes the triplestore
func (s *TripleStore) Close() error {
	return s.storage.Close()
}

// InsertQuad inserts a quad into the store
func (s *TripleStore) InsertQuad(quad *rdf.Quad) error {
	return s.InsertQuadsBatch([]*rdf.Quad{quad})
}

// InsertTriple inserts a triple into the default graph
func (s *TripleStore) InsertTriple(triple *rdf.Triple) error {
	return s.InsertQuad(triple.InGraph(nil))
}

// InsertQuadsBatch inserts quads in as few transactions as the storage
// allows. When a transaction fills up it is committed and a new one started.
func (s *TripleStore) InsertQuadsBatch(quads []*rdf.Quad) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer func() { _ = txn.Rollback() }()

	for _, quad := range quads {
		err := s.insertQuadInTxn(txn, quad)
		if errors.Is(err, ErrTxnTooBig) {
			if err := txn.Commit(); err != nil {
				return fmt.Errorf("failed to commit partial batch: %w", err)
			}
			if txn, err = s.storage.Begin(true); err != nil {
				return err
			}
			err = s.insertQuadInTxn(txn, quad)
		}
		if err != nil {
			return err
		}
	}

	return txn.Commit()
}

// insertQuadInTxn inserts a quad within an existing transaction
func (s *TripleStore) insertQuadInTxn(txn Transaction, quad *rdf.Quad) error {
	graph := quad.Graph
	if graph == nil {
		graph = rdf.NewDefaultGraph()
	}

	var encoded [4]EncodedTerm
	for i, term := range [4]rdf.Term{quad.Subject, quad.Predicate, quad.Object, graph} {
		enc, record, err := s.encoder.EncodeTerm(term)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", positionNames[i], err)
		}
		if err := s.storeRecord(txn, enc, record); err != nil {
			return err
		}
		encoded[i] = enc
	}

	// Empty value for all index entries
	emptyValue := []byte{}
	for _, idx := range indexes {
		if err := txn.Set(idx.table, s.indexKey(idx, encoded), emptyValue); err != nil {
			return err
		}
	}

	return txn.Set(TableGraphs, encoded[3][:], emptyValue)
}

// storeRecord stores a term record in the id2str table if provided. The
// write is blind: a read here would make concurrent batches conflict.
func (s *TripleStore) storeRecord(txn Transaction, encoded EncodedTerm, record []byte) error {
	if record == nil {
		return nil
	}
	return txn.Set(TableID2Str, encoded[1:], record)
}

// ContainsQuad checks if a quad exists in the store
func (s *TripleStore) ContainsQuad(quad *rdf.Quad) (bool, error) {
	graph := quad.Graph
	if graph == nil {
		graph = rdf.NewDefaultGraph()
	}
	pattern := &Pattern{Subject: quad.Subject, Predicate: quad.Predicate, Object: quad.Object, Graph: graph}
	it, err := s.Match(pattern)
	if err != nil {
		return false, err
	}
	defer it.Close()
	return it.Next(), nil
}

// Count returns the number of quads in the store
func (s *TripleStore) Count() (int64, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return 0, err
	}
	defer func() { _ = txn.Rollback() }()

	// Count entries in SPOG index (primary index for quads)
	it, err := txn.Scan(TableSPOG, nil, nil)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := int64(0)
	for it.Next() {
		count++
	}

	return count, nil
}

// Graphs returns every graph name that holds at least one quad, including
// the default graph.
func (s *TripleStore) Graphs() ([]rdf.Term, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = txn.Rollback() }()

	it, err := txn.Scan(TableGraphs, nil, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var graphs []rdf.Term
	for it.Next() {
		var enc EncodedTerm
		copy(enc[:], it.Key())
		g, err := s.decodeTerm(txn, enc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode graph: %w", err)
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}
