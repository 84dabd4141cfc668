// Package grammar classifies characters and names of the Turtle family of
// syntaxes.
//
// Inputs are slices of code units rather than strings: a rune slice may hold
// UTF-16 surrogate halves, for example ones produced by \uD83D\uDE00 style
// escapes, and every predicate that looks at such a slice reports how many
// units it consumed so callers can step over a pair.
package grammar

import (
	"unicode/utf16"
)

// Dialect selects between the two Turtle grammars.
type Dialect int

const (
	// Legacy is the original Turtle team submission grammar.
	Legacy Dialect = iota
	// W3C is the standardised Turtle / TriG grammar.
	W3C
)

func (d Dialect) String() string {
	if d == W3C {
		return "w3c"
	}
	return "legacy"
}

// ParseDialect accepts "w3c" or "legacy".
func ParseDialect(s string) (Dialect, bool) {
	switch s {
	case "w3c", "W3C", "":
		return W3C, true
	case "legacy", "original":
		return Legacy, true
	}
	return W3C, false
}

// Class is a single character production.
type Class func(r rune) bool

// IsPNCharsBase implements PN_CHARS_BASE.
func IsPNCharsBase(r rune) bool {
	return (r >= 'A' && r <= 'Z') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 0x00C0 && r <= 0x00D6) ||
		(r >= 0x00D8 && r <= 0x00F6) ||
		(r >= 0x00F8 && r <= 0x02FF) ||
		(r >= 0x0370 && r <= 0x037D) ||
		(r >= 0x037F && r <= 0x1FFF) ||
		(r >= 0x200C && r <= 0x200D) ||
		(r >= 0x2070 && r <= 0x218F) ||
		(r >= 0x2C00 && r <= 0x2FEF) ||
		(r >= 0x3001 && r <= 0xD7FF) ||
		(r >= 0xF900 && r <= 0xFDCF) ||
		(r >= 0xFDF0 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0xEFFFF)
}

// IsPNCharsU implements PN_CHARS_U ::= PN_CHARS_BASE | '_'.
func IsPNCharsU(r rune) bool {
	return r == '_' || IsPNCharsBase(r)
}

// IsPNChars implements PN_CHARS.
func IsPNChars(r rune) bool {
	return IsPNCharsU(r) ||
		r == '-' ||
		(r >= '0' && r <= '9') ||
		r == 0x00B7 ||
		(r >= 0x0300 && r <= 0x036F) ||
		(r >= 0x203F && r <= 0x2040)
}

// IsNameStartChar implements the legacy nameStartChar production, which
// is PN_CHARS_U under another name.
func IsNameStartChar(r rune) bool {
	return IsPNCharsU(r)
}

// IsNameChar implements the legacy nameChar production.
func IsNameChar(r rune) bool {
	return r == '-' ||
		(r >= '0' && r <= '9') ||
		r == 0x00B7 ||
		(r >= 0x0300 && r <= 0x036F) ||
		(r >= 0x203F && r <= 0x2040) ||
		IsNameStartChar(r)
}

func IsDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func IsHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// Pair reports whether hi and lo form a surrogate pair whose code point is in
// the supplementary range accepted by class.
func Pair(class Class, hi, lo rune) bool {
	if !utf16.IsSurrogate(hi) || !utf16.IsSurrogate(lo) {
		return false
	}
	r := utf16.DecodeRune(hi, lo)
	if r < 0x10000 || r > 0xEFFFF {
		return false
	}
	return class(r)
}

// CharAt checks the character at cs[i] against class, joining a surrogate
// pair when one starts there. It returns the number of units consumed.
func CharAt(cs []rune, i int, class Class) (bool, int) {
	if i >= len(cs) {
		return false, 0
	}
	r := cs[i]
	if isHighSurrogate(r) && i+1 < len(cs) {
		if Pair(class, r, cs[i+1]) {
			return true, 2
		}
		return false, 0
	}
	if utf16.IsSurrogate(r) {
		return false, 0
	}
	if class(r) {
		return true, 1
	}
	return false, 0
}

func isHighSurrogate(r rune) bool {
	return r >= 0xD800 && r <= 0xDBFF
}
