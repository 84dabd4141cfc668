package encoding

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// TermDecoder handles decoding of RDF terms
type TermDecoder struct{}

// NewTermDecoder creates a new term decoder
func NewTermDecoder() *TermDecoder {
	return &TermDecoder{}
}

// DecodeTerm decodes an encoded term back to an rdf.Term. record is the
// id2str entry for the term; the default graph needs none.
func (d *TermDecoder) DecodeTerm(encoded EncodedTerm, record []byte) (rdf.Term, error) {
	termType := GetTermType(encoded)
	if termType == rdf.TermTypeDefaultGraph {
		return rdf.NewDefaultGraph(), nil
	}
	if record == nil {
		return nil, fmt.Errorf("term record required for %s", termType)
	}

	var rec termRecord
	if err := msgpack.Unmarshal(record, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode term record: %w", err)
	}

	switch termType {
	case rdf.TermTypeNamedNode:
		return rdf.NewNamedNode(rec.Value), nil
	case rdf.TermTypeBlankNode:
		return rdf.NewBlankNode(rec.Value), nil
	case rdf.TermTypeLiteral:
		switch {
		case rec.Language != "":
			return rdf.NewLiteralWithLanguage(rec.Value, rec.Language), nil
		case rec.Datatype != "":
			return rdf.NewLiteralWithDatatype(rec.Value, rdf.NewNamedNode(rec.Datatype)), nil
		}
		return rdf.NewLiteral(rec.Value), nil
	default:
		return nil, fmt.Errorf("unknown term type: %d", termType)
	}
}
