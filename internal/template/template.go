// Package template expands value templates that contain "{}" placeholders.
package template

import (
	"errors"
	"strings"
)

// Placeholder is the token replaced by the source value.
const Placeholder = "{}"

// MaxValueLength caps the size of an expanded value.
const MaxValueLength = 1 << 20

// ErrValueTooLarge is returned when an expansion would exceed MaxValueLength.
var ErrValueTooLarge = errors.New("template: expanded value too large")

// Template is an immutable value template. The zero value expands every
// source to the empty string.
type Template struct {
	text string
	// n is the number of non-overlapping placeholders in text.
	n int
}

// Parse returns the template for s. Any string is a valid template; a
// template without placeholders expands to itself.
func Parse(s string) *Template {
	return &Template{text: s, n: strings.Count(s, Placeholder)}
}

// String returns the template text.
func (t *Template) String() string {
	return t.text
}

// Placeholders returns the number of placeholders in the template.
func (t *Template) Placeholders() int {
	return t.n
}

// IsIdentity reports whether the template is exactly the placeholder.
func (t *Template) IsIdentity() bool {
	return t.text == Placeholder
}

// Len returns the length of the expansion of a value of length n.
func (t *Template) Len(n int) int {
	return len(t.text) - len(Placeholder)*t.n + t.n*n
}

// Expand substitutes value for every placeholder, scanning left to right.
func (t *Template) Expand(value string) (string, error) {
	if t.IsIdentity() {
		return value, nil
	}
	if t.n == 0 {
		return t.text, nil
	}

	size := t.Len(len(value))
	if size > MaxValueLength {
		return "", ErrValueTooLarge
	}

	var b strings.Builder
	b.Grow(size)
	rest := t.text
	for {
		i := strings.Index(rest, Placeholder)
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])
		b.WriteString(value)
		rest = rest[i+len(Placeholder):]
	}
	return b.String(), nil
}
