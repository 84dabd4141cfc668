package tokenizer

import (
	"io"
	"strings"
	"unicode/utf16"

	"github.com/aleksaelezovic/quadstream/internal/grammar"
	"github.com/aleksaelezovic/quadstream/internal/token"
)

var punctuation = map[rune]token.Kind{
	';': token.Semicolon,
	',': token.Comma,
	'[': token.LeftSquare,
	']': token.RightSquare,
	'(': token.LeftParen,
	')': token.RightParen,
	'{': token.LeftCurly,
	'}': token.RightCurly,
	'=': token.Equals,
}

func (t *Tokenizer) scan(r rune) (token.Token, error) {
	nt := t.opts.Syntax == NTriples
	switch {
	case r == '<':
		t.scanning = token.URI
		iri, err := t.scanIRI()
		if err != nil {
			return token.Token{}, err
		}
		return t.emit(token.URI, iri), nil
	case r == '_':
		t.scanning = token.BlankNodeWithID
		return t.scanBlankNode()
	case r == '"' || (r == '\'' && !nt):
		t.scanning = token.Literal
		return t.scanLiteral()
	case r == '@':
		t.scanning = token.LangSpec
		return t.scanAt()
	case r == '^':
		t.scanning = token.DataType
		return t.scanDataType()
	case r == '.':
		t.scanning = token.Dot
		t.read()
		if next, err := t.peek(); err == nil && grammar.IsDigit(next) && !nt {
			return t.scanNumber(".")
		}
		return t.emit(token.Dot, "."), nil
	case nt:
		t.read()
		return token.Token{}, t.errorf("unexpected character %q", r)
	case r == '+' || r == '-' || grammar.IsDigit(r):
		t.scanning = token.PlainLiteral
		return t.scanNumber("")
	case r == ':' || grammar.IsPNCharsBase(r):
		t.scanning = token.QName
		return t.scanName()
	}
	if kind, ok := punctuation[r]; ok {
		t.scanning = kind
		t.read()
		if (kind == token.LeftCurly || kind == token.RightCurly || kind == token.Equals) && t.opts.Syntax != TriG {
			return token.Token{}, t.errorf("%q is only valid in TriG", r)
		}
		return t.emit(kind, string(r)), nil
	}
	t.read()
	return token.Token{}, t.errorf("unexpected character %q", r)
}

func isIRIForbidden(r rune) bool {
	return r <= 0x20 || strings.ContainsRune("<\"{}|^`", r)
}

// scanIRI reads <...> and returns the unescaped IRI.
func (t *Tokenizer) scanIRI() (string, error) {
	t.read() // <
	var sb strings.Builder
	for {
		r, err := t.mustRead("IRI")
		if err != nil {
			return "", err
		}
		switch {
		case r == '>':
			return sb.String(), nil
		case r == '\\':
			e, err := t.mustRead("IRI escape")
			if err != nil {
				return "", err
			}
			switch {
			case e == 'u' || e == 'U':
				c, err := t.scanUnicodeEscape(e)
				if err != nil {
					return "", err
				}
				sb.WriteRune(c)
			case e == '>' && t.opts.Dialect == grammar.Legacy:
				sb.WriteRune('>')
			default:
				return "", t.errorf("invalid escape \\%c in IRI", e)
			}
		case isIRIForbidden(r):
			return "", t.errorf("character %q is not allowed in an IRI", r)
		default:
			sb.WriteRune(r)
		}
	}
}

// scanUnicodeEscape reads the hex digits of a \u or \U escape, joining a
// UTF-16 surrogate pair written as two consecutive \u escapes.
func (t *Tokenizer) scanUnicodeEscape(kind rune) (rune, error) {
	r, err := t.scanHex(kind)
	if err != nil {
		return 0, err
	}
	if !utf16.IsSurrogate(r) {
		if r > 0x10FFFF {
			return 0, t.errorf("escape exceeds the Unicode range")
		}
		return r, nil
	}
	if r >= 0xDC00 {
		return 0, t.errorf("unpaired low surrogate in escape")
	}
	if c, err := t.mustRead("surrogate pair"); err != nil || c != '\\' {
		return 0, t.errorf("high surrogate must be followed by a low surrogate escape")
	}
	if c, err := t.mustRead("surrogate pair"); err != nil || c != 'u' {
		return 0, t.errorf("high surrogate must be followed by a low surrogate escape")
	}
	lo, err := t.scanHex('u')
	if err != nil {
		return 0, err
	}
	if lo < 0xDC00 || lo > 0xDFFF {
		return 0, t.errorf("invalid surrogate pair in escape")
	}
	return utf16.DecodeRune(r, lo), nil
}

func (t *Tokenizer) scanHex(kind rune) (rune, error) {
	n := 4
	if kind == 'U' {
		n = 8
	}
	var v rune
	for i := 0; i < n; i++ {
		c, err := t.mustRead("unicode escape")
		if err != nil {
			return 0, err
		}
		if !grammar.IsHex(c) {
			return 0, t.errorf("invalid hex digit %q in unicode escape", c)
		}
		v = v*16 + hexValue(c)
	}
	return v, nil
}

func hexValue(c rune) rune {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func (t *Tokenizer) scanBlankNode() (token.Token, error) {
	t.read() // _
	if c, err := t.mustRead("blank node"); err != nil {
		return token.Token{}, err
	} else if c != ':' {
		return token.Token{}, t.errorf("expected ':' after '_' in a blank node")
	}
	label, err := t.collect(func(r rune) bool { return grammar.IsPNChars(r) || r == '.' }, false)
	if err != nil {
		return token.Token{}, err
	}
	if !grammar.IsValidBlankNodeLabel(label, t.opts.Dialect) {
		return token.Token{}, t.errorf("%q is not a valid blank node label", label)
	}
	return t.emit(token.BlankNodeWithID, "_:"+label), nil
}

// collect consumes characters while accept holds. Trailing dots are given
// back since they terminate the statement. With escapes, a backslash and the
// character after it are taken verbatim.
func (t *Tokenizer) collect(accept func(rune) bool, escapes bool) (string, error) {
	var cs []rune
	for {
		r, err := t.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", t.ioError(err)
		}
		if escapes && r == '\\' {
			t.read()
			e, err := t.mustRead("escape")
			if err != nil {
				return "", err
			}
			cs = append(cs, '\\', e)
			continue
		}
		if !accept(r) {
			break
		}
		t.read()
		cs = append(cs, r)
	}
	for len(cs) > 0 && cs[len(cs)-1] == '.' && (len(cs) < 2 || cs[len(cs)-2] != '\\') {
		t.unread('.')
		cs = cs[:len(cs)-1]
	}
	return string(cs), nil
}

func (t *Tokenizer) scanLiteral() (token.Token, error) {
	q, _ := t.read()
	r, err := t.peek()
	if err != nil && err != io.EOF {
		return token.Token{}, t.ioError(err)
	}
	if err == nil && r == q {
		t.read()
		next, err := t.peek()
		if err == nil && next == q && t.opts.Syntax != NTriples {
			t.read()
			t.scanning = token.LongLiteral
			s, err := t.scanLongBody(q)
			if err != nil {
				return token.Token{}, err
			}
			return t.emit(token.LongLiteral, s), nil
		}
		return t.emit(token.Literal, ""), nil
	}
	var sb strings.Builder
	for {
		c, err := t.mustRead("literal")
		if err != nil {
			return token.Token{}, err
		}
		switch c {
		case q:
			return t.emit(token.Literal, sb.String()), nil
		case '\n', '\r':
			return token.Token{}, t.errorf("line break in a short literal, use a long literal or an escape")
		case '\\':
			if err := t.scanStringEscape(&sb); err != nil {
				return token.Token{}, err
			}
		default:
			sb.WriteRune(c)
		}
	}
}

func (t *Tokenizer) scanLongBody(q rune) (string, error) {
	var sb strings.Builder
	quotes := 0
	for {
		c, err := t.mustRead("long literal")
		if err != nil {
			return "", err
		}
		if c == q {
			quotes++
			if quotes == 3 {
				return sb.String(), nil
			}
			continue
		}
		for ; quotes > 0; quotes-- {
			sb.WriteRune(q)
		}
		if c == '\\' {
			if err := t.scanStringEscape(&sb); err != nil {
				return "", err
			}
			continue
		}
		sb.WriteRune(c)
	}
}

func (t *Tokenizer) scanStringEscape(sb *strings.Builder) error {
	e, err := t.mustRead("string escape")
	if err != nil {
		return err
	}
	switch e {
	case 't':
		sb.WriteByte('\t')
	case 'b':
		sb.WriteByte('\b')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 'f':
		sb.WriteByte('\f')
	case '"', '\'', '\\':
		sb.WriteRune(e)
	case 'u', 'U':
		c, err := t.scanUnicodeEscape(e)
		if err != nil {
			return err
		}
		sb.WriteRune(c)
	default:
		return t.errorf("invalid escape \\%c in literal", e)
	}
	return nil
}

func isLangChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || grammar.IsDigit(r) || r == '-'
}

// scanAt handles @lang and the @prefix / @base directives.
func (t *Tokenizer) scanAt() (token.Token, error) {
	t.read() // @
	word, err := t.collect(isLangChar, false)
	if err != nil {
		return token.Token{}, err
	}
	if t.last != token.Literal && t.last != token.LongLiteral && t.opts.Syntax != NTriples {
		switch word {
		case "prefix":
			return t.emit(token.PrefixDirective, "@prefix"), nil
		case "base":
			return t.emit(token.BaseDirective, "@base"), nil
		}
	}
	if !validLangTag(word) {
		return token.Token{}, t.errorf("%q is not a valid language tag", word)
	}
	if t.last != token.Literal && t.last != token.LongLiteral {
		return token.Token{}, t.errorf("language tag @%s must follow a literal", word)
	}
	return t.emit(token.LangSpec, word), nil
}

// validLangTag matches [a-zA-Z]+ ('-' [a-zA-Z0-9]+)*.
func validLangTag(s string) bool {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			alpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			if i == 0 && !alpha || i > 0 && !alpha && !grammar.IsDigit(r) {
				return false
			}
		}
	}
	return true
}

func (t *Tokenizer) scanDataType() (token.Token, error) {
	t.read() // first ^
	if c, err := t.mustRead("datatype"); err != nil {
		return token.Token{}, err
	} else if c != '^' {
		return token.Token{}, t.errorf("expected ^^ before a datatype")
	}
	if t.last != token.Literal && t.last != token.LongLiteral {
		return token.Token{}, t.errorf("datatype must follow a literal")
	}
	r, err := t.peek()
	if err == io.EOF {
		return token.Token{}, t.errorf("unexpected end of input after ^^")
	}
	if err != nil {
		return token.Token{}, t.ioError(err)
	}
	if r == '<' {
		iri, err := t.scanIRI()
		if err != nil {
			return token.Token{}, err
		}
		return t.emit(token.DataType, "<"+iri+">"), nil
	}
	if t.opts.Syntax == NTriples {
		return token.Token{}, t.errorf("datatype must be an IRI")
	}
	name, err := t.scanNameText()
	if err != nil {
		return token.Token{}, err
	}
	if !grammar.IsValidQName(name, t.opts.Dialect) {
		return token.Token{}, t.errorf("%q is not a valid datatype name", name)
	}
	return t.emit(token.DataType, name), nil
}

func isNameChar(r rune) bool {
	return grammar.IsPNChars(r) || r == '.' || r == ':' || r == '%'
}

func (t *Tokenizer) scanNameText() (string, error) {
	return t.collect(isNameChar, true)
}

// scanName reads prefixed names, bare prefixes and keywords.
func (t *Tokenizer) scanName() (token.Token, error) {
	name, err := t.scanNameText()
	if err != nil {
		return token.Token{}, err
	}
	if !strings.ContainsRune(name, ':') {
		return t.keyword(name)
	}
	if t.last == token.PrefixDirective {
		t.scanning = token.Prefix
		if !grammar.IsValidPrefix(name, t.opts.Dialect) {
			return token.Token{}, t.errorf("%q is not a valid prefix", name)
		}
		return t.emit(token.Prefix, name), nil
	}
	if !grammar.IsValidQName(name, t.opts.Dialect) {
		return token.Token{}, t.errorf("%q is not a valid prefixed name", name)
	}
	return t.emit(token.QName, name), nil
}

func (t *Tokenizer) keyword(word string) (token.Token, error) {
	switch {
	case word == "a":
		return t.emit(token.KeywordA, word), nil
	case word == "true" || word == "false":
		return t.emit(token.PlainLiteral, word), nil
	case t.opts.Dialect == grammar.W3C && strings.EqualFold(word, "prefix"):
		return t.emit(token.PrefixDirective, word), nil
	case t.opts.Dialect == grammar.W3C && strings.EqualFold(word, "base"):
		return t.emit(token.BaseDirective, word), nil
	case t.opts.Syntax == TriG && t.opts.Dialect == grammar.W3C && strings.EqualFold(word, "graph"):
		return t.emit(token.KeywordGraph, word), nil
	}
	return token.Token{}, t.errorf("unknown keyword %q", word)
}

// scanNumber reads an integer, decimal or double. prefix holds characters
// the caller already consumed.
func (t *Tokenizer) scanNumber(prefix string) (token.Token, error) {
	t.scanning = token.PlainLiteral
	var sb strings.Builder
	sb.WriteString(prefix)
	if prefix == "" {
		if r, err := t.peek(); err == nil && (r == '+' || r == '-') {
			t.read()
			sb.WriteRune(r)
		}
	}
	t.digits(&sb)
	if prefix == "" {
		if r, err := t.peek(); err == nil && r == '.' {
			t.read()
			next, err := t.peek()
			if err == nil && (grammar.IsDigit(next) || next == 'e' || next == 'E') {
				sb.WriteRune('.')
				t.digits(&sb)
			} else {
				t.unread('.')
			}
		}
	}
	if r, err := t.peek(); err == nil && (r == 'e' || r == 'E') {
		t.read()
		sb.WriteRune(r)
		if s, err := t.peek(); err == nil && (s == '+' || s == '-') {
			t.read()
			sb.WriteRune(s)
		}
		t.digits(&sb)
	}
	text := sb.String()
	if !grammar.IsValidPlainLiteral(text, t.opts.Dialect) {
		return token.Token{}, t.errorf("%q is not a valid number", text)
	}
	return t.emit(token.PlainLiteral, text), nil
}

func (t *Tokenizer) digits(sb *strings.Builder) {
	for {
		r, err := t.peek()
		if err != nil || !grammar.IsDigit(r) {
			return
		}
		t.read()
		sb.WriteRune(r)
	}
}
