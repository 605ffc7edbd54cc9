// Package schema provides the LDAP schema registry used to resolve attribute
// type and object class names into stable handles.
package schema

import (
	"errors"
	"strings"
	"sync"
)

// Registry errors.
var (
	// ErrDuplicateAttributeType is returned when a definition reuses a registered OID or name.
	ErrDuplicateAttributeType = errors.New("schema: duplicate attribute type")
	// ErrDuplicateObjectClass is returned when a definition reuses a registered OID or name.
	ErrDuplicateObjectClass = errors.New("schema: duplicate object class")
)

// Schema holds attribute type and object class definitions. Lookups are case-insensitive and accept any alias or the OID.
// A Schema is safe for concurrent use; handles returned by lookups are never
// replaced, so callers may compare them by pointer.
type Schema struct {
	mu             sync.RWMutex
	objectClasses  map[string]*ObjectClass
	attributeTypes map[string]*AttributeType
}

// NewSchema creates a new empty Schema.
func NewSchema() *Schema {
	return &Schema{
		objectClasses:  make(map[string]*ObjectClass),
		attributeTypes: make(map[string]*AttributeType),
	}
}

// Common syntax OIDs.
const (
	SyntaxDirectoryString = "1.3.6.1.4.1.1466.115.121.1.15"
	SyntaxDN              = "1.3.6.1.4.1.1466.115.121.1.12"
	SyntaxIA5String       = "1.3.6.1.4.1.1466.115.121.1.26"
	SyntaxOID             = "1.3.6.1.4.1.1466.115.121.1.38"
)

func key(nameOrOID string) string {
	return strings.ToLower(strings.TrimSpace(nameOrOID))
}

// GetObjectClass retrieves an object class by name, alias or OID.
// Returns nil if not found.
func (s *Schema) GetObjectClass(nameOrOID string) *ObjectClass {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objectClasses[key(nameOrOID)]
}

// GetAttributeType retrieves an attribute type by name, alias or OID.
// Attribute options ("member;binary") are ignored.
// Returns nil if not found.
func (s *Schema) GetAttributeType(nameOrOID string) *AttributeType {
	if idx := strings.IndexByte(nameOrOID, ';'); idx >= 0 {
		nameOrOID = nameOrOID[:idx]
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attributeTypes[key(nameOrOID)]
}

// AddObjectClass adds an object class to the schema, indexed by its OID and
// every name. Existing keys are overwritten.
func (s *Schema) AddObjectClass(oc *ObjectClass) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range oc.keys() {
		s.objectClasses[k] = oc
	}
}

// AddAttributeType adds an attribute type to the schema, indexed by its OID
// and every name. Existing keys are overwritten.
func (s *Schema) AddAttributeType(at *AttributeType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range at.keys() {
		s.attributeTypes[k] = at
	}
}

// RegisterAttributeType parses an RFC 4512 attribute type description and
// adds it. If the OID or any name is already registered it returns the
// existing handle together with ErrDuplicateAttributeType.
func (s *Schema) RegisterAttributeType(def string) (*AttributeType, error) {
	at, err := parseAttributeType(def)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range at.keys() {
		if existing, ok := s.attributeTypes[k]; ok {
			return existing, ErrDuplicateAttributeType
		}
	}
	if at.Superior != "" {
		if sup := s.attributeTypes[key(at.Superior)]; sup != nil {
			at.inherit(sup)
		}
	}
	for _, k := range at.keys() {
		s.attributeTypes[k] = at
	}
	return at, nil
}

// RegisterObjectClass parses an RFC 4512 object class description and adds
// it. Duplicates are reported like RegisterAttributeType.
func (s *Schema) RegisterObjectClass(def string) (*ObjectClass, error) {
	oc, err := parseObjectClass(def)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range oc.keys() {
		if existing, ok := s.objectClasses[k]; ok {
			return existing, ErrDuplicateObjectClass
		}
	}
	for _, k := range oc.keys() {
		s.objectClasses[k] = oc
	}
	return oc, nil
}

// IsSubclassOf reports whether oc equals sup or inherits from it through
// its SUP chain.
func (s *Schema) IsSubclassOf(oc, sup *ObjectClass) bool {
	if oc == nil || sup == nil {
		return false
	}
	seen := make(map[*ObjectClass]bool)
	for cur := oc; cur != nil && !seen[cur]; {
		if cur == sup {
			return true
		}
		seen[cur] = true
		if cur.Superior == "" {
			return false
		}
		cur = s.GetObjectClass(cur.Superior)
	}
	return false
}

// ObjectClasses returns every distinct object class in the schema.
func (s *Schema) ObjectClasses() []*ObjectClass {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[*ObjectClass]bool, len(s.objectClasses))
	out := make([]*ObjectClass, 0, len(s.objectClasses))
	for _, oc := range s.objectClasses {
		if !seen[oc] {
			seen[oc] = true
			out = append(out, oc)
		}
	}
	return out
}

// AttributeTypes returns every distinct attribute type in the schema.
func (s *Schema) AttributeTypes() []*AttributeType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[*AttributeType]bool, len(s.attributeTypes))
	out := make([]*AttributeType, 0, len(s.attributeTypes))
	for _, at := range s.attributeTypes {
		if !seen[at] {
			seen[at] = true
			out = append(out, at)
		}
	}
	return out
}

var (
	globalOnce   sync.Once
	globalSchema *Schema
)

// Global returns the process-wide schema, loading the default definitions on
// first use.
func Global() *Schema {
	globalOnce.Do(func() {
		globalSchema = LoadDefaultSchema()
	})
	return globalSchema
}
