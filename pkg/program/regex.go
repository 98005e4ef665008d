package program

import (
	"regexp"
	"strings"
)

type literalKind int

const (
	litNone literalKind = iota
	litInt
	litFloat
)

type literalRegex struct {
	Pattern *regexp.Regexp
	Raw     string
}

// Numeric literal patterns; operands matching neither are variable names.
var literalRegexes = map[literalKind]literalRegex{
	litInt:   {regexp.MustCompile(`^-?\d+$`), `^-?\d+$`},
	litFloat: {regexp.MustCompile(`^-?\d+\.\d*$`), `^-?\d+\.\d*$`},
}

// Literal precedence order for matching
var literalPrecedenceOrder = []literalKind{litInt, litFloat}

var instructionRegex = regexp.MustCompile(`^(\w+)\s*(.*)$`)

// matchNumber classifies an operand as an integer or float literal.
func matchNumber(s string) literalKind {
	for _, kind := range literalPrecedenceOrder {
		if literalRegexes[kind].Pattern.MatchString(s) {
			return kind
		}
	}
	return litNone
}

// isStringLiteral reports whether s is a complete double-quoted literal.
func isStringLiteral(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)
}

// splitOperands splits on commas outside double quotes. It reports false for
// an unterminated string literal.
func splitOperands(s string) ([]string, bool) {
	var (
		parts   []string
		current strings.Builder
		quoted  bool
	)

	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			current.WriteRune(r)
		case r == ',' && !quoted:
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	if quoted {
		return nil, false
	}

	return append(parts, strings.TrimSpace(current.String())), true
}
