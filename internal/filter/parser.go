package filter

import (
	"errors"
	"strings"
)

// Parser errors
var (
	ErrEmptyFilter      = errors.New("filter: empty filter")
	ErrInvalidFilter    = errors.New("filter: invalid filter syntax")
	ErrUnbalancedParens = errors.New("filter: unbalanced parentheses")
	ErrMissingAttribute = errors.New("filter: missing attribute name")
	ErrInvalidEscape    = errors.New("filter: invalid escape sequence")
)

// Parse parses an LDAP filter string into a Filter structure.
// Supports RFC 4515 filter syntax:
//   - (attr=value)     - equality
//   - (attr=*)         - presence
//   - (attr=*val*)     - substring
//   - (attr>=value)    - greater or equal
//   - (attr<=value)    - less or equal
//   - (attr~=value)    - approximate match
//   - (&(f1)(f2)...)   - AND
//   - (|(f1)(f2)...)   - OR
//   - (!(filter))      - NOT
//
// Values may carry \XX hex escapes, which are decoded.
func Parse(filterStr string) (*Filter, error) {
	filterStr = strings.TrimSpace(filterStr)
	if filterStr == "" {
		return nil, ErrEmptyFilter
	}

	return parseFilter(filterStr)
}

func parseFilter(s string) (*Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyFilter
	}

	// Must start and end with parentheses
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		// Try wrapping simple filters
		if !strings.Contains(s, "(") {
			s = "(" + s + ")"
		} else {
			return nil, ErrInvalidFilter
		}
	}

	// Remove outer parentheses
	inner := s[1 : len(s)-1]
	if inner == "" {
		return nil, ErrEmptyFilter
	}

	// Check for composite filters
	switch inner[0] {
	case '&':
		return parseAndFilter(inner[1:])
	case '|':
		return parseOrFilter(inner[1:])
	case '!':
		return parseNotFilter(inner[1:])
	default:
		return parseSimpleFilter(inner)
	}
}

func parseAndFilter(s string) (*Filter, error) {
	children, err := parseFilterList(s)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, ErrInvalidFilter
	}
	return NewAndFilter(children...), nil
}

func parseOrFilter(s string) (*Filter, error) {
	children, err := parseFilterList(s)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, ErrInvalidFilter
	}
	return NewOrFilter(children...), nil
}

func parseNotFilter(s string) (*Filter, error) {
	s = strings.TrimSpace(s)
	child, err := parseFilter(s)
	if err != nil {
		return nil, err
	}
	return NewNotFilter(child), nil
}

func parseFilterList(s string) ([]*Filter, error) {
	var filters []*Filter
	s = strings.TrimSpace(s)

	for len(s) > 0 {
		if s[0] != '(' {
			return nil, ErrInvalidFilter
		}

		// Find matching closing paren
		depth := 0
		end := -1
		for i, c := range s {
			if c == '(' {
				depth++
			} else if c == ')' {
				depth--
				if depth == 0 {
					end = i
					break
				}
			}
		}

		if end == -1 {
			return nil, ErrUnbalancedParens
		}

		filterStr := s[:end+1]
		f, err := parseFilter(filterStr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)

		s = strings.TrimSpace(s[end+1:])
	}

	return filters, nil
}

func parseSimpleFilter(s string) (*Filter, error) {
	// Check for different operators
	if idx := strings.Index(s, ">="); idx > 0 {
		attr := strings.TrimSpace(s[:idx])
		value := s[idx+2:]
		if attr == "" {
			return nil, ErrMissingAttribute
		}
		decoded, err := unescape(value)
		if err != nil {
			return nil, err
		}
		return NewGreaterOrEqualFilter(attr, decoded), nil
	}

	if idx := strings.Index(s, "<="); idx > 0 {
		attr := strings.TrimSpace(s[:idx])
		value := s[idx+2:]
		if attr == "" {
			return nil, ErrMissingAttribute
		}
		decoded, err := unescape(value)
		if err != nil {
			return nil, err
		}
		return NewLessOrEqualFilter(attr, decoded), nil
	}

	if idx := strings.Index(s, "~="); idx > 0 {
		attr := strings.TrimSpace(s[:idx])
		value := s[idx+2:]
		if attr == "" {
			return nil, ErrMissingAttribute
		}
		decoded, err := unescape(value)
		if err != nil {
			return nil, err
		}
		return NewApproxMatchFilter(attr, decoded), nil
	}

	// Equality or substring or presence
	idx := strings.Index(s, "=")
	if idx <= 0 {
		return nil, ErrInvalidFilter
	}

	attr := strings.TrimSpace(s[:idx])
	value := s[idx+1:]

	if attr == "" {
		return nil, ErrMissingAttribute
	}

	// Presence filter: (attr=*)
	if value == "*" {
		return NewPresentFilter(attr), nil
	}

	// Check for substring filter
	if strings.Contains(value, "*") {
		return parseSubstringFilter(attr, value)
	}

	decoded, err := unescape(value)
	if err != nil {
		return nil, err
	}
	return NewEqualityFilter(attr, decoded), nil
}

func parseSubstringFilter(attr, value string) (*Filter, error) {
	parts := strings.Split(value, "*")
	sf := &SubstringFilter{Attribute: attr}

	last := len(parts) - 1
	for i, part := range parts {
		if part == "" {
			continue
		}
		decoded, err := unescape(part)
		if err != nil {
			return nil, err
		}
		switch i {
		case 0:
			sf.Initial = decoded
		case last:
			sf.Final = decoded
		default:
			sf.Any = append(sf.Any, decoded)
		}
	}

	return NewSubstringFilter(sf), nil
}

// unescape decodes RFC 4515 \XX escapes.
func unescape(s string) ([]byte, error) {
	if strings.IndexByte(s, '\\') < 0 {
		return []byte(s), nil
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			out = append(out, s[i])
			continue
		}
		if i+2 >= len(s) {
			return nil, ErrInvalidEscape
		}
		hi, ok1 := fromHex(s[i+1])
		lo, ok2 := fromHex(s[i+2])
		if !ok1 || !ok2 {
			return nil, ErrInvalidEscape
		}
		out = append(out, hi<<4|lo)
		i += 2
	}
	return out, nil
}

func fromHex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// EscapeValue escapes the characters RFC 4515 reserves in assertion values
// so that arbitrary data can be embedded in a filter string.
func EscapeValue(v string) string {
	const hex = "0123456789abcdef"
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch c {
		case '*', '(', ')', '\\', 0:
			b.WriteByte('\\')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
