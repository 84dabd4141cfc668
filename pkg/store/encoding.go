package store

import (
	"github.com/aleksaelezovic/quadstream/internal/encoding"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// EncodedTerm is a type byte followed by a 128-bit term hash.
type EncodedTerm = encoding.EncodedTerm

// TermEncoder handles encoding of RDF terms into a compact binary format
type TermEncoder interface {
	// EncodeTerm encodes an RDF term into a fixed-size byte array
	// Returns the encoded term and the record to store in the id2str table
	EncodeTerm(term rdf.Term) (EncodedTerm, []byte, error)

	// EncodeQuadKey encodes a quad key for one of the indexes
	EncodeQuadKey(terms ...EncodedTerm) []byte
}

// TermDecoder handles decoding of RDF terms from binary format
type TermDecoder interface {
	// DecodeTerm decodes an encoded term back to an rdf.Term
	DecodeTerm(encoded EncodedTerm, record []byte) (rdf.Term, error)
}
