// Package source turns byte streams into the character streams the tokenizer
// reads from.
package source

import (
	"errors"
	"io"
	"unicode/utf8"
)

// DefaultBufferSize is the block size used by NewBlockingReader when the
// caller does not pick one.
const DefaultBufferSize = 4096

var ErrInvalidBufferSize = errors.New("buffer size must be at least 1")

// Reader is a character source with one character of lookahead.
//
// AtEnd reports true only once no further character can be produced, and
// stays true from then on. It may block to find out.
type Reader interface {
	io.Reader
	io.RuneReader
	PeekRune() (rune, error)
	ReadBlock(buf []rune) (int, error)
	AtEnd() bool
}

// BlockingReader reads its source in fixed-size blocks, waiting for each
// block to be filled completely. Use it when the source delivers data in
// small irregular pieces, such as a network stream.
type BlockingReader struct {
	src   io.Reader
	buf   []byte // raw block, including a carried partial rune
	start int
	end   int
	eof   bool
	err   error
}

// NewBlockingReader wraps r. If r already is a Reader it is returned as is.
func NewBlockingReader(r io.Reader, size int) (Reader, error) {
	if sr, ok := r.(Reader); ok {
		return sr, nil
	}
	if size < 1 {
		return nil, ErrInvalidBufferSize
	}
	// room for a carried partial rune
	return &BlockingReader{src: r, buf: make([]byte, size+utf8.UTFMax)}, nil
}

// fill moves any partial rune to the front of the buffer and reads a full
// block behind it.
func (b *BlockingReader) fill() {
	if b.eof || b.err != nil {
		return
	}
	carried := copy(b.buf, b.buf[b.start:b.end])
	b.start, b.end = 0, carried
	want := len(b.buf) - utf8.UTFMax
	n, err := io.ReadFull(b.src, b.buf[carried:carried+want])
	b.end += n
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		b.eof = true
	case err != nil:
		b.err = err
	case n < want:
		b.eof = true
	}
}

// buffered reports whether a complete rune, or trailing bytes that can
// never become one, are available.
func (b *BlockingReader) buffered() bool {
	p := b.buf[b.start:b.end]
	if len(p) == 0 {
		return false
	}
	return utf8.FullRune(p) || b.eof
}

func (b *BlockingReader) ensure() bool {
	for !b.buffered() {
		if b.eof || b.err != nil {
			return false
		}
		b.fill()
	}
	return true
}

func (b *BlockingReader) failure() error {
	if b.err != nil {
		return b.err
	}
	return io.EOF
}

func (b *BlockingReader) PeekRune() (rune, error) {
	if !b.ensure() {
		return 0, b.failure()
	}
	r, _ := utf8.DecodeRune(b.buf[b.start:b.end])
	return r, nil
}

func (b *BlockingReader) ReadRune() (rune, int, error) {
	if !b.ensure() {
		return 0, 0, b.failure()
	}
	r, size := utf8.DecodeRune(b.buf[b.start:b.end])
	b.start += size
	return r, size, nil
}

// ReadBlock copies up to len(buf) characters into buf. It only returns fewer
// than requested at the end of the input.
func (b *BlockingReader) ReadBlock(buf []rune) (int, error) {
	return readBlock(b, buf)
}

// Read implements io.Reader by re-encoding characters as UTF-8.
func (b *BlockingReader) Read(p []byte) (int, error) {
	return readBytes(b, p)
}

func (b *BlockingReader) AtEnd() bool {
	return !b.ensure() && b.err == nil
}

// PassThroughReader reads characters straight from its source without a
// buffer of its own.
type PassThroughReader struct {
	src    io.RuneReader
	peeked bool
	r      rune
	size   int
	err    error
}

// NewPassThroughReader wraps r. If r already is a Reader it is returned as is.
func NewPassThroughReader(r io.Reader) Reader {
	if sr, ok := r.(Reader); ok {
		return sr
	}
	rr, ok := r.(io.RuneReader)
	if !ok {
		rr = &byteRuneReader{src: r}
	}
	return &PassThroughReader{src: rr}
}

func (p *PassThroughReader) peek() error {
	if p.peeked {
		return p.err
	}
	p.r, p.size, p.err = p.src.ReadRune()
	p.peeked = true
	return p.err
}

func (p *PassThroughReader) PeekRune() (rune, error) {
	if err := p.peek(); err != nil {
		return 0, err
	}
	return p.r, nil
}

func (p *PassThroughReader) ReadRune() (rune, int, error) {
	if err := p.peek(); err != nil {
		return 0, 0, err
	}
	p.peeked = false
	return p.r, p.size, nil
}

func (p *PassThroughReader) ReadBlock(buf []rune) (int, error) {
	return readBlock(p, buf)
}

func (p *PassThroughReader) Read(b []byte) (int, error) {
	return readBytes(p, b)
}

func (p *PassThroughReader) AtEnd() bool {
	return p.peek() == io.EOF
}

// byteRuneReader decodes one rune at a time with single byte reads.
type byteRuneReader struct {
	src io.Reader
	one [1]byte
}

func (b *byteRuneReader) ReadRune() (rune, int, error) {
	var p [utf8.UTFMax]byte
	n := 0
	for n < utf8.UTFMax {
		if _, err := io.ReadFull(b.src, b.one[:]); err != nil {
			if n > 0 && err == io.EOF {
				break
			}
			return 0, 0, err
		}
		p[n] = b.one[0]
		n++
		if utf8.FullRune(p[:n]) {
			break
		}
	}
	r, size := utf8.DecodeRune(p[:n])
	return r, size, nil
}

func readBlock(r io.RuneReader, buf []rune) (int, error) {
	if len(buf) == 0 {
		return 0, ErrInvalidBufferSize
	}
	n := 0
	for n < len(buf) {
		c, _, err := r.ReadRune()
		if err != nil {
			if err == io.EOF && n > 0 {
				return n, nil
			}
			return n, err
		}
		buf[n] = c
		n++
	}
	return n, nil
}

func readBytes(r Reader, p []byte) (int, error) {
	n := 0
	for n < len(p) {
		c, err := r.PeekRune()
		if err != nil {
			if err == io.EOF && n > 0 {
				return n, nil
			}
			return n, err
		}
		if utf8.RuneLen(c) > len(p)-n {
			if n == 0 {
				return 0, io.ErrShortBuffer
			}
			break
		}
		_, _, _ = r.ReadRune()
		n += utf8.EncodeRune(p[n:], c)
	}
	return n, nil
}
