package schema

import "strings"

// ObjectClassKind represents the type of an LDAP object class.
type ObjectClassKind int

const (
	// ObjectClassAbstract represents an abstract object class.
	ObjectClassAbstract ObjectClassKind = iota
	// ObjectClassStructural represents a structural object class.
	ObjectClassStructural
	// ObjectClassAuxiliary represents an auxiliary object class.
	ObjectClassAuxiliary
)

// String returns the string representation of the ObjectClassKind.
func (k ObjectClassKind) String() string {
	switch k {
	case ObjectClassAbstract:
		return "ABSTRACT"
	case ObjectClassStructural:
		return "STRUCTURAL"
	case ObjectClassAuxiliary:
		return "AUXILIARY"
	default:
		return "UNKNOWN"
	}
}

// ObjectClass represents an LDAP object class definition.
type ObjectClass struct {
	OID      string          // Object Identifier (e.g., "2.5.6.6")
	Name     string          // Primary name (e.g., "person")
	Names    []string        // All names including aliases
	Desc     string          // Human-readable description
	Obsolete bool            // Whether this object class is obsolete
	Superior string          // Parent object class name or OID
	Kind     ObjectClassKind // Abstract, Structural, or Auxiliary
	Must     []string        // Required attribute names
	May      []string        // Optional attribute names
}

// NewObjectClass creates a new ObjectClass with the given OID and name.
// The default kind is ObjectClassStructural.
func NewObjectClass(oid, name string) *ObjectClass {
	return &ObjectClass{
		OID:   oid,
		Name:  name,
		Names: []string{name},
		Kind:  ObjectClassStructural,
		Must:  []string{},
		May:   []string{},
	}
}

// HasName reports whether name (case-insensitive) is one of the class's
// names or its OID.
func (oc *ObjectClass) HasName(name string) bool {
	if oc == nil {
		return false
	}
	if strings.EqualFold(oc.OID, name) {
		return true
	}
	for _, n := range oc.Names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// String returns the primary name, falling back to the OID.
func (oc *ObjectClass) String() string {
	if oc.Name != "" {
		return oc.Name
	}
	return oc.OID
}

func (oc *ObjectClass) keys() []string {
	keys := make([]string, 0, len(oc.Names)+1)
	if oc.OID != "" {
		keys = append(keys, key(oc.OID))
	}
	for _, n := range oc.Names {
		keys = append(keys, key(n))
	}
	return keys
}
