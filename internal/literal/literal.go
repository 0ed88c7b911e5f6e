// Package literal parses restricted literal values from configuration
// and command-line plot parameters.
//
// The accepted grammar covers numbers, booleans, quoted strings, and
// bracketed lists of those. Anything else is returned as the plain input
// string; a value that fails to parse is never an error here, because
// configuration frequently carries free-form strings (titles, labels).
// No expression is ever evaluated.
package literal

import (
	"strconv"
	"strings"
)

// Parse interprets s as a restricted literal. The return value is one of
// int, float64, bool, string, or []any for bracketed lists. Unparseable
// input comes back unchanged as a string.
func Parse(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "none", "null":
		return nil
	}

	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}

	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
		if (s[0] == '[' && s[len(s)-1] == ']') || (s[0] == '(' && s[len(s)-1] == ')') {
			return parseList(s[1 : len(s)-1])
		}
	}

	return s
}

// parseList splits a bracket body on top-level commas and parses each
// element. Nested brackets and quotes are respected.
func parseList(body string) []any {
	out := []any{}
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[' || c == '(':
			depth++
		case c == ']' || c == ')':
			depth--
		case c == ',' && depth == 0:
			if elem := strings.TrimSpace(body[start:i]); elem != "" {
				out = append(out, Parse(elem))
			}
			start = i + 1
		}
	}
	if elem := strings.TrimSpace(body[start:]); elem != "" {
		out = append(out, Parse(elem))
	}
	return out
}

// ParseParam splits a "key=value" plot parameter. The split happens on
// the first '=' only, leading dashes are stripped from the key, and the
// value is parsed as a restricted literal. ok is false when s carries no
// '=' at all.
func ParseParam(s string) (key string, value any, ok bool) {
	i := strings.Index(s, "=")
	if i < 0 {
		return "", nil, false
	}
	key = strings.TrimLeft(s[:i], "-")
	key = strings.TrimSpace(key)
	return key, Parse(s[i+1:]), true
}

// Ints coerces a parsed literal into an integer slice, for layout-style
// options that accept "2" as well as "[1, 2, 2]".
func Ints(v any) ([]int, bool) {
	switch x := v.(type) {
	case int:
		return []int{x}, true
	case []any:
		out := make([]int, 0, len(x))
		for _, e := range x {
			n, ok := e.(int)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	}
	return nil, false
}
