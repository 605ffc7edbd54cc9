package automember

import (
	"strings"

	"github.com/KilimcininKorOglu/automember/internal/schema"
)

// Classifier decides whether attribute types are covered by a search's
// requested attribute list. It holds no mutable state.
type Classifier struct {
	schema *schema.Schema
}

// NewClassifier creates a Classifier resolving names through s.
func NewClassifier(s *schema.Schema) *Classifier {
	return &Classifier{schema: s}
}

// Requested reports, for each type, whether attrs asks for it. An empty
// list requests every user attribute. "*" requests user attributes, "+"
// operational ones, and an explicit name requests the type it resolves to.
// The scan stops once every type is requested.
func (c *Classifier) Requested(attrs []string, types ...*schema.AttributeType) []bool {
	result := make([]bool, len(types))

	if len(attrs) == 0 {
		for i, at := range types {
			result[i] = at != nil && !at.IsOperational()
		}
		return result
	}

	pending := 0
	for _, at := range types {
		if at != nil {
			pending++
		}
	}

	for _, attr := range attrs {
		if pending == 0 {
			break
		}
		attr = strings.TrimSpace(attr)
		if idx := strings.IndexByte(attr, ';'); idx >= 0 {
			attr = attr[:idx]
		}

		var match func(at *schema.AttributeType) bool
		switch attr {
		case "*":
			match = func(at *schema.AttributeType) bool { return !at.IsOperational() }
		case "+":
			match = func(at *schema.AttributeType) bool { return at.IsOperational() }
		case "1.1", "":
			continue
		default:
			if named := c.lookup(attr); named != nil {
				match = func(at *schema.AttributeType) bool { return at == named }
			} else {
				match = func(at *schema.AttributeType) bool { return at.HasName(attr) }
			}
		}

		for i, at := range types {
			if at != nil && !result[i] && match(at) {
				result[i] = true
				pending--
			}
		}
	}
	return result
}

func (c *Classifier) lookup(name string) *schema.AttributeType {
	if c.schema == nil {
		return nil
	}
	return c.schema.GetAttributeType(name)
}
