package grammar

import (
	"fmt"
)

const xsd = "http://www.w3.org/2001/XMLSchema#"

// Datatype IRIs of the plain literal forms.
const (
	XSDInteger = xsd + "integer"
	XSDDecimal = xsd + "decimal"
	XSDDouble  = xsd + "double"
	XSDBoolean = xsd + "boolean"
)

func digits(cs []rune, i int) int {
	n := 0
	for i+n < len(cs) && IsDigit(cs[i+n]) {
		n++
	}
	return n
}

func sign(cs []rune) int {
	if len(cs) > 0 && (cs[0] == '+' || cs[0] == '-') {
		return 1
	}
	return 0
}

// ScanInteger matches [+-]?[0-9]+ at the start of cs and returns the number
// of units consumed, 0 when there is no match.
func ScanInteger(cs []rune) int {
	s := sign(cs)
	n := digits(cs, s)
	if n == 0 {
		return 0
	}
	return s + n
}

// ScanDecimal matches a decimal at the start of cs. W3C requires digits after
// the point ([+-]?[0-9]*'.'[0-9]+); Legacy also accepts a trailing point.
func ScanDecimal(cs []rune, d Dialect) int {
	s := sign(cs)
	whole := digits(cs, s)
	i := s + whole
	if i >= len(cs) || cs[i] != '.' {
		return 0
	}
	frac := digits(cs, i+1)
	if frac == 0 && (d == W3C || whole == 0) {
		return 0
	}
	return i + 1 + frac
}

// ScanDouble matches a double, which always carries an exponent:
// [+-]? ([0-9]+ '.' [0-9]* EXPONENT | '.' [0-9]+ EXPONENT | [0-9]+ EXPONENT).
func ScanDouble(cs []rune) int {
	s := sign(cs)
	whole := digits(cs, s)
	i := s + whole
	frac := 0
	if i < len(cs) && cs[i] == '.' {
		frac = digits(cs, i+1)
		if whole == 0 && frac == 0 {
			return 0
		}
		i += 1 + frac
	} else if whole == 0 {
		return 0
	}
	if i >= len(cs) || (cs[i] != 'e' && cs[i] != 'E') {
		return 0
	}
	i++
	if i < len(cs) && (cs[i] == '+' || cs[i] == '-') {
		i++
	}
	exp := digits(cs, i)
	if exp == 0 {
		return 0
	}
	return i + exp
}

func IsValidInteger(s string) bool {
	cs := []rune(s)
	return len(cs) > 0 && ScanInteger(cs) == len(cs)
}

func IsValidDecimal(s string, d Dialect) bool {
	cs := []rune(s)
	return len(cs) > 0 && ScanDecimal(cs, d) == len(cs)
}

func IsValidDouble(s string) bool {
	cs := []rune(s)
	return len(cs) > 0 && ScanDouble(cs) == len(cs)
}

// IsValidPlainLiteral reports whether s may appear unquoted: a boolean or a number.
func IsValidPlainLiteral(s string, d Dialect) bool {
	_, err := InferPlainLiteralType(s, d)
	return err == nil
}

// InferPlainLiteralType returns the datatype IRI of an unquoted literal.
func InferPlainLiteralType(s string, d Dialect) (string, error) {
	switch {
	case s == "true" || s == "false":
		return XSDBoolean, nil
	case IsValidInteger(s):
		return XSDInteger, nil
	case IsValidDecimal(s, d):
		return XSDDecimal, nil
	case IsValidDouble(s):
		return XSDDouble, nil
	}
	return "", fmt.Errorf("%q is not a valid plain literal", s)
}
