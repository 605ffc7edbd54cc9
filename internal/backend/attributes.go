package backend

import (
	"strings"

	"github.com/KilimcininKorOglu/automember/internal/schema"
)

// Special attribute selectors (RFC 4511 section 4.5.1.8).
const (
	// AllUserAttributes selects every user attribute.
	AllUserAttributes = "*"
	// AllOperationalAttributes selects every operational attribute.
	AllOperationalAttributes = "+"
	// NoAttributes selects nothing when it is the only selector.
	NoAttributes = "1.1"
)

// operationalNames lists operational attributes recognized without a schema.
var operationalNames = map[string]bool{
	"createtimestamp":       true,
	"modifytimestamp":       true,
	"creatorsname":          true,
	"modifiersname":         true,
	"entrydn":               true,
	"entryuuid":             true,
	"subschemasubentry":     true,
	"hassubordinates":       true,
	"numsubordinates":       true,
	"structuralobjectclass": true,
	"memberof":              true,
}

// AttributeSelector decides which attributes a search returns.
// A nil or empty request selects all user attributes.
type AttributeSelector struct {
	schema   *schema.Schema
	none     bool
	allUser  bool
	allOp    bool
	specific []string
}

// NewAttributeSelector parses a requested attribute list. The schema, if
// not nil, resolves aliases and attribute usage.
func NewAttributeSelector(s *schema.Schema, requested []string) *AttributeSelector {
	sel := &AttributeSelector{schema: s}

	if len(requested) == 0 {
		sel.allUser = true
		return sel
	}

	for _, attr := range requested {
		attr = strings.TrimSpace(attr)
		switch attr {
		case AllUserAttributes:
			sel.allUser = true
		case AllOperationalAttributes:
			sel.allOp = true
		case NoAttributes, "":
		default:
			if idx := strings.IndexByte(attr, ';'); idx >= 0 {
				attr = attr[:idx]
			}
			sel.specific = append(sel.specific, attr)
		}
	}

	sel.none = !sel.allUser && !sel.allOp && len(sel.specific) == 0
	return sel
}

// SelectsNothing reports whether the request was "1.1" alone.
func (s *AttributeSelector) SelectsNothing() bool {
	return s.none
}

// Wants reports whether the attribute stored under name is selected.
func (s *AttributeSelector) Wants(name string) bool {
	var at *schema.AttributeType
	if s.schema != nil {
		at = s.schema.GetAttributeType(name)
	}
	if at != nil {
		return s.WantsType(at)
	}
	if s.none {
		return false
	}

	operational := operationalNames[strings.ToLower(name)]
	if (s.allUser && !operational) || (s.allOp && operational) {
		return true
	}
	for _, want := range s.specific {
		if strings.EqualFold(want, name) {
			return true
		}
	}
	return false
}

// WantsType reports whether attribute type at is selected, by usage or by
// any of its names or OID.
func (s *AttributeSelector) WantsType(at *schema.AttributeType) bool {
	if at == nil || s.none {
		return false
	}

	operational := at.IsOperational() || operationalNames[at.Key()]
	if (s.allUser && !operational) || (s.allOp && operational) {
		return true
	}
	for _, want := range s.specific {
		if at.HasName(want) {
			return true
		}
	}
	return false
}

// Select returns entry projected onto the selected attributes. When every
// attribute of entry is selected, entry itself is returned with unchanged
// set; otherwise the result is a new entry owned by the caller.
func (s *AttributeSelector) Select(entry *Entry) (result *Entry, unchanged bool) {
	if entry == nil {
		return nil, true
	}

	keep := make([]string, 0, len(entry.Attributes))
	for name := range entry.Attributes {
		if s.Wants(name) {
			keep = append(keep, name)
		}
	}
	if len(keep) == len(entry.Attributes) {
		return entry, true
	}

	result = &Entry{DN: entry.DN, Attributes: make(map[string][]string, len(keep))}
	for _, name := range keep {
		values := make([]string, len(entry.Attributes[name]))
		copy(values, entry.Attributes[name])
		result.Attributes[name] = values
	}
	return result, false
}
