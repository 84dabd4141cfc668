package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var gzipMagic = []byte{0x1f, 0x8b}

// DecodeOptions controls how raw input bytes become UTF-8 text.
type DecodeOptions struct {
	// Charset is one of "", "auto", "utf-8", "utf-16", "utf-16le",
	// "utf-16be" or "latin1". The empty value and "auto" honour a byte order
	// mark and otherwise assume UTF-8.
	Charset string
}

type decoded struct {
	io.Reader
	closers []io.Closer
}

func (d *decoded) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Decode prepares raw input for the tokenizer: gzip compressed input is
// detected by its magic number and inflated, then the text is transcoded to
// UTF-8. Closing the result does not close r.
func Decode(r io.Reader, opts DecodeOptions) (io.ReadCloser, error) {
	enc, err := lookupCharset(opts.Charset)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(r)
	out := &decoded{Reader: br}
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to sniff input: %w", err)
	}
	if bytes.Equal(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		out.Reader = zr
		out.closers = append(out.closers, zr)
	}
	out.Reader = transform.NewReader(out.Reader, enc.NewDecoder())
	return out, nil
}

// CheckCharset reports whether Decode accepts name as a charset.
func CheckCharset(name string) error {
	_, err := lookupCharset(name)
	return err
}

func lookupCharset(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return bomSniffer{}, nil
	case "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	}
	return nil, fmt.Errorf("unsupported charset %q", name)
}

// bomSniffer decodes UTF-8 unless a UTF-16 byte order mark says otherwise.
type bomSniffer struct{}

func (bomSniffer) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: unicode.BOMOverride(unicode.UTF8.NewDecoder())}
}

func (bomSniffer) NewEncoder() *encoding.Encoder {
	return unicode.UTF8.NewEncoder()
}
