package encoding

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"

	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// EncodedTermSize is a type byte followed by a 128-bit hash.
const EncodedTermSize = 17

// EncodedTerm represents a term encoded as a type byte followed by 16 bytes
// of xxh3 hash. The default graph is all zero after its type byte.
type EncodedTerm [EncodedTermSize]byte

// termRecord is what the id2str table keeps for a hashed term.
type termRecord struct {
	Value    string `msgpack:"v"`
	Language string `msgpack:"l,omitempty"`
	Datatype string `msgpack:"d,omitempty"`
}

// TermEncoder handles encoding of RDF terms
type TermEncoder struct{}

func NewTermEncoder() *TermEncoder {
	return &TermEncoder{}
}

// Hash128 computes a 128-bit xxhash3 hash of the input string
func (e *TermEncoder) Hash128(s string) [16]byte {
	hash := xxh3.HashString128(s)
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// EncodeTerm encodes an RDF term into a fixed-size byte array.
// It also returns the msgpack record to store in the id2str table, or nil
// for the default graph.
func (e *TermEncoder) EncodeTerm(term rdf.Term) (EncodedTerm, []byte, error) {
	var encoded EncodedTerm

	var (
		key string
		rec termRecord
	)
	switch t := term.(type) {
	case *rdf.NamedNode:
		key, rec = t.IRI, termRecord{Value: t.IRI}
	case *rdf.BlankNode:
		key, rec = t.ID, termRecord{Value: t.ID}
	case *rdf.Literal:
		rec = termRecord{Value: t.Value, Language: strings.ToLower(t.Language)}
		if t.Datatype != nil && t.Datatype.IRI != rdf.XSDString.IRI && rec.Language == "" {
			rec.Datatype = t.Datatype.IRI
		}
		key = rec.Value + "\x00" + rec.Language + "\x00" + rec.Datatype
	case *rdf.DefaultGraph:
		encoded[0] = byte(rdf.TermTypeDefaultGraph)
		return encoded, nil, nil
	case nil:
		return encoded, nil, fmt.Errorf("nil term")
	default:
		return encoded, nil, fmt.Errorf("unknown term type: %T", term)
	}

	encoded[0] = byte(term.Type())
	hash := e.Hash128(key)
	copy(encoded[1:], hash[:])

	value, err := msgpack.Marshal(&rec)
	if err != nil {
		return encoded, nil, fmt.Errorf("failed to encode term record: %w", err)
	}
	return encoded, value, nil
}

// EncodeQuadKey concatenates encoded terms into an index key.
func (e *TermEncoder) EncodeQuadKey(terms ...EncodedTerm) []byte {
	result := make([]byte, 0, len(terms)*EncodedTermSize)
	for _, term := range terms {
		result = append(result, term[:]...)
	}
	return result
}

// GetTermType extracts the type from an encoded term
func GetTermType(encoded EncodedTerm) rdf.TermType {
	return rdf.TermType(encoded[0])
}
