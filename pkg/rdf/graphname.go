package rdf

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

// SyntheticGraphPrefix starts every IRI minted by SyntheticGraphName.
const SyntheticGraphPrefix = "urn:quadstream:graph:"

// SyntheticGraphName maps a graph name that is not an IRI (a blank node or a
// literal) onto a stable IRI. The result only depends on the N-Triples form
// of t, so the same input yields the same graph across runs. IRIs are
// returned unchanged.
func SyntheticGraphName(t Term) *NamedNode {
	if n, ok := t.(*NamedNode); ok {
		return n
	}
	h := xxh3.HashString128(t.String())
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], h.Hi)
	binary.BigEndian.PutUint64(buf[8:], h.Lo)
	return NewNamedNode(SyntheticGraphPrefix + t.Type().String() + ":" + hex.EncodeToString(buf[:]))
}
