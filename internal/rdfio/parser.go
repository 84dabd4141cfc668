package rdfio

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aleksaelezovic/quadstream/internal/nquads"
	"github.com/aleksaelezovic/quadstream/internal/parsing"
	"github.com/aleksaelezovic/quadstream/internal/trig"
	"github.com/aleksaelezovic/quadstream/internal/turtle"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// RDFParser is the interface for parsing RDF data in various formats
type RDFParser interface {
	// Parse streams the statements read from reader into sink
	Parse(ctx context.Context, reader io.Reader, sink rdf.Sink) error

	// ContentType returns the MIME type this parser handles
	ContentType() string
}

// NewParser creates an RDF parser based on the content type
func NewParser(contentType string, settings parsing.Settings) (RDFParser, error) {
	// Normalize content type (remove parameters like charset)
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = strings.TrimSpace(ct[:idx])
	}

	switch ct {
	case "application/n-triples", "text/plain":
		return &NTriplesParser{nquads.NewParser(settings, nquads.Options{TriplesOnly: true})}, nil
	case "application/n-quads":
		return &NQuadsParser{nquads.NewParser(settings, nquads.Options{})}, nil
	case "text/turtle", "application/x-turtle":
		return &TurtleParser{turtle.NewParser(settings)}, nil
	case "application/trig", "application/x-trig":
		return &TriGParser{trig.NewParser(settings)}, nil
	default:
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
}

var extensions = map[string]string{
	".nt":   "application/n-triples",
	".nq":   "application/n-quads",
	".ttl":  "text/turtle",
	".trig": "application/trig",
}

// ContentTypeForFile maps a file name to a content type by its extension. A
// trailing .gz is ignored; compressed reports whether it was present. The
// parsers detect gzip input themselves.
func ContentTypeForFile(name string) (contentType string, compressed bool, err error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".gz" {
		compressed = true
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(name, filepath.Ext(name))))
	}
	ct, ok := extensions[ext]
	if !ok {
		return "", compressed, fmt.Errorf("unsupported file extension: %s", name)
	}
	return ct, compressed, nil
}

// ForFile picks a parser by file extension.
func ForFile(name string, settings parsing.Settings) (RDFParser, error) {
	ct, _, err := ContentTypeForFile(name)
	if err != nil {
		return nil, err
	}
	return NewParser(ct, settings)
}

// NTriplesParser parses N-Triples format (triples only, default graph)
type NTriplesParser struct{ *nquads.Parser }

func (p *NTriplesParser) ContentType() string {
	return "application/n-triples"
}

// NQuadsParser parses N-Quads format (quads with optional graph)
type NQuadsParser struct{ *nquads.Parser }

func (p *NQuadsParser) ContentType() string {
	return "application/n-quads"
}

// TurtleParser parses Turtle format (triples with prefixes, default graph)
type TurtleParser struct{ *turtle.Parser }

func (p *TurtleParser) ContentType() string {
	return "text/turtle"
}

// TriGParser parses TriG format (Turtle with named graph blocks)
type TriGParser struct{ *trig.Parser }

func (p *TriGParser) ContentType() string {
	return "application/trig"
}

// GetSupportedContentTypes returns a list of all supported content types
func GetSupportedContentTypes() []string {
	return []string{
		"application/n-triples",
		"application/n-quads",
		"text/turtle",
		"application/x-turtle",
		"application/trig",
		"application/x-trig",
		"text/plain", // Alias for N-Triples
	}
}
