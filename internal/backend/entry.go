package backend

import (
	"strings"

	"github.com/KilimcininKorOglu/automember/internal/schema"
)

// Entry represents an LDAP entry with multi-valued attributes.
// Values keep their insertion order.
type Entry struct {
	// DN is the distinguished name of the entry.
	DN string `json:"dn"`

	// Attributes contains the entry's attribute values.
	// Key is the lower-cased attribute name.
	Attributes map[string][]string `json:"attributes"`
}

// NewEntry creates a new Entry with the given DN.
func NewEntry(dn string) *Entry {
	return &Entry{
		DN:         dn,
		Attributes: make(map[string][]string),
	}
}

// GetAttribute returns the values for the given attribute name.
// Returns nil if the attribute does not exist.
func (e *Entry) GetAttribute(name string) []string {
	if e.Attributes == nil {
		return nil
	}
	return e.Attributes[strings.ToLower(name)]
}

// GetFirstAttribute returns the first value for the given attribute name.
// Returns an empty string if the attribute does not exist or has no values.
func (e *Entry) GetFirstAttribute(name string) string {
	values := e.GetAttribute(name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// HasAttribute returns true if the entry has the given attribute.
func (e *Entry) HasAttribute(name string) bool {
	return len(e.GetAttribute(name)) > 0
}

// SetAttribute sets the values for the given attribute name.
// The attribute name is normalized to lowercase.
func (e *Entry) SetAttribute(name string, values ...string) {
	if e.Attributes == nil {
		e.Attributes = make(map[string][]string)
	}
	e.Attributes[strings.ToLower(name)] = values
}

// AddAttributeValue adds a value to the given attribute.
func (e *Entry) AddAttributeValue(name string, value string) {
	e.MergeAttribute(name, value)
}

// MergeAttribute appends values to the attribute, creating it if needed.
// Existing values are kept and duplicates are not removed.
func (e *Entry) MergeAttribute(name string, values ...string) {
	if e.Attributes == nil {
		e.Attributes = make(map[string][]string)
	}
	name = strings.ToLower(name)
	merged := make([]string, 0, len(e.Attributes[name])+len(values))
	merged = append(merged, e.Attributes[name]...)
	e.Attributes[name] = append(merged, values...)
}

// DeleteAttribute removes an attribute from the entry.
func (e *Entry) DeleteAttribute(name string) {
	if e.Attributes == nil {
		return
	}
	delete(e.Attributes, strings.ToLower(name))
}

// Values returns the values stored under any name or the OID of at.
func (e *Entry) Values(at *schema.AttributeType) []string {
	if at == nil || e.Attributes == nil {
		return nil
	}
	for _, name := range at.Names {
		if values, ok := e.Attributes[strings.ToLower(name)]; ok {
			return values
		}
	}
	return e.Attributes[strings.ToLower(at.OID)]
}

// Has reports whether the entry carries at least one value of at.
func (e *Entry) Has(at *schema.AttributeType) bool {
	return len(e.Values(at)) > 0
}

// IsA reports whether one of the entry's object classes is oc or a subclass
// of it.
func (e *Entry) IsA(s *schema.Schema, oc *schema.ObjectClass) bool {
	if oc == nil {
		return false
	}
	for _, name := range e.GetAttribute("objectClass") {
		if oc.HasName(name) {
			return true
		}
		if s != nil && s.IsSubclassOf(s.GetObjectClass(name), oc) {
			return true
		}
	}
	return false
}

// Clone creates a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}

	clone := &Entry{
		DN:         e.DN,
		Attributes: make(map[string][]string, len(e.Attributes)),
	}

	for k, v := range e.Attributes {
		values := make([]string, len(v))
		copy(values, v)
		clone.Attributes[k] = values
	}

	return clone
}

// AttributeNames returns a list of all attribute names in the entry.
func (e *Entry) AttributeNames() []string {
	if e.Attributes == nil {
		return nil
	}

	names := make([]string, 0, len(e.Attributes))
	for name := range e.Attributes {
		names = append(names, name)
	}
	return names
}
