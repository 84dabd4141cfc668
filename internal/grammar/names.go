package grammar

import (
	"strings"
)

const plxEscapable = "_~-.!$&'()*+,;=/?#@%"

// IsPLX matches PLX ::= PERCENT | PN_LOCAL_ESC at cs[i]. It returns the number
// of units consumed, 3 for a percent encoding and 2 for an escape.
func IsPLX(cs []rune, i int) (bool, int) {
	if i >= len(cs) {
		return false, 0
	}
	switch cs[i] {
	case '%':
		if i+2 < len(cs) && IsHex(cs[i+1]) && IsHex(cs[i+2]) {
			return true, 3
		}
	case '\\':
		if i+1 < len(cs) && strings.ContainsRune(plxEscapable, cs[i+1]) {
			return true, 2
		}
	}
	return false, 0
}

// ScanPNPrefix returns the length of the longest prefix name at the start of
// cs: PN_PREFIX for W3C, (nameStartChar - '_') nameChar* for Legacy.
func ScanPNPrefix(cs []rune, d Dialect) int {
	if d == Legacy {
		if len(cs) > 0 && cs[0] == '_' {
			return 0
		}
		return scanName(cs)
	}
	ok, n := CharAt(cs, 0, IsPNCharsBase)
	if !ok {
		return 0
	}
	return n + scanDotted(cs[n:], nil)
}

// ScanLocalName returns the length of the longest local name at the start of
// cs: PN_LOCAL for W3C, nameStartChar nameChar* for Legacy.
func ScanLocalName(cs []rune, d Dialect) int {
	if d == Legacy {
		return scanName(cs)
	}
	if len(cs) == 0 {
		return 0
	}
	n := 0
	switch {
	case cs[0] == ':' || IsDigit(cs[0]):
		n = 1
	default:
		if ok, k := IsPLX(cs, 0); ok {
			n = k
		} else if ok, k := CharAt(cs, 0, IsPNCharsU); ok {
			n = k
		} else {
			return 0
		}
	}
	return n + scanDotted(cs[n:], func(cs []rune, i int) (bool, int) {
		if cs[i] == ':' {
			return true, 1
		}
		return IsPLX(cs, i)
	})
}

// ScanBlankNodeLabel returns the length of the longest blank node label at
// the start of cs, not including the "_:" marker.
func ScanBlankNodeLabel(cs []rune, d Dialect) int {
	if d == Legacy {
		return scanName(cs)
	}
	if len(cs) == 0 {
		return 0
	}
	n := 0
	if IsDigit(cs[0]) {
		n = 1
	} else if ok, k := CharAt(cs, 0, IsPNCharsU); ok {
		n = k
	} else {
		return 0
	}
	return n + scanDotted(cs[n:], nil)
}

// scanDotted matches ((PN_CHARS | '.' | extra)* (PN_CHARS | extra))?, never
// ending on a dot.
func scanDotted(cs []rune, extra func(cs []rune, i int) (bool, int)) int {
	i, last := 0, 0
	for i < len(cs) {
		if cs[i] == '.' {
			i++
			continue
		}
		if extra != nil {
			if ok, k := extra(cs, i); ok {
				i += k
				last = i
				continue
			}
		}
		ok, k := CharAt(cs, i, IsPNChars)
		if !ok {
			break
		}
		i += k
		last = i
	}
	return last
}

func scanName(cs []rune) int {
	ok, n := CharAt(cs, 0, IsNameStartChar)
	if !ok {
		return 0
	}
	for n < len(cs) {
		ok, k := CharAt(cs, n, IsNameChar)
		if !ok {
			break
		}
		n += k
	}
	return n
}

// IsPNPrefix reports whether all of cs is a prefix name. The empty prefix
// is valid.
func IsPNPrefix(cs []rune, d Dialect) (bool, int) {
	n := ScanPNPrefix(cs, d)
	return n == len(cs), n
}

// IsPNLocal reports whether all of cs is a local name. The empty local name
// is valid.
func IsPNLocal(cs []rune, d Dialect) (bool, int) {
	n := ScanLocalName(cs, d)
	return n == len(cs), n
}

// IsValidPrefix reports whether s is a prefix declaration such as "ex:" or ":".
func IsValidPrefix(s string, d Dialect) bool {
	if !strings.HasSuffix(s, ":") {
		return false
	}
	ok, _ := IsPNPrefix([]rune(s[:len(s)-1]), d)
	return ok
}

// IsValidLocalName reports whether s is the local part of a prefixed name.
func IsValidLocalName(s string, d Dialect) bool {
	ok, _ := IsPNLocal([]rune(s), d)
	return ok
}

// IsValidQName reports whether s is a prefixed name "prefix:local".
func IsValidQName(s string, d Dialect) bool {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return false
	}
	return IsValidPrefix(s[:idx+1], d) && IsValidLocalName(s[idx+1:], d)
}

// IsValidBlankNodeLabel checks a label without its "_:" marker.
func IsValidBlankNodeLabel(s string, d Dialect) bool {
	cs := []rune(s)
	return len(cs) > 0 && ScanBlankNodeLabel(cs, d) == len(cs)
}

// UnescapeLocalName removes the backslash of every PN_LOCAL_ESC. Percent
// encodings are kept as they are part of the IRI.
func UnescapeLocalName(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	cs := []rune(s)
	for i := 0; i < len(cs); i++ {
		if cs[i] == '\\' && i+1 < len(cs) {
			i++
		}
		sb.WriteRune(cs[i])
	}
	return sb.String()
}
