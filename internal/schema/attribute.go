package schema

import "strings"

// AttributeUsage defines how an attribute is used in the directory.
type AttributeUsage int

const (
	// UserApplications indicates a user attribute that applications can read and write.
	// This is the default usage for most attributes.
	UserApplications AttributeUsage = iota

	// DirectoryOperation indicates an operational attribute used by the directory
	// for its own purposes.
	DirectoryOperation

	// DistributedOperation indicates an operational attribute shared across
	// multiple directory servers.
	DistributedOperation

	// DSAOperation indicates an operational attribute local to a single
	// Directory System Agent.
	DSAOperation
)

// String returns the string representation of the AttributeUsage.
func (u AttributeUsage) String() string {
	switch u {
	case UserApplications:
		return "userApplications"
	case DirectoryOperation:
		return "directoryOperation"
	case DistributedOperation:
		return "distributedOperation"
	case DSAOperation:
		return "dSAOperation"
	default:
		return "unknown"
	}
}

// IsOperational returns true if this usage indicates an operational attribute.
func (u AttributeUsage) IsOperational() bool {
	return u != UserApplications
}

// AttributeType represents an LDAP attribute type definition.
type AttributeType struct {
	OID         string         // Object Identifier (e.g., "2.5.4.3")
	Name        string         // Primary name (e.g., "cn")
	Names       []string       // All names including aliases (e.g., ["cn", "commonName"])
	Desc        string         // Human-readable description
	Obsolete    bool           // Whether this attribute type is obsolete
	Superior    string         // Parent attribute type name or OID
	Equality    string         // Matching rule OID/name for equality matching
	Ordering    string         // Matching rule OID/name for ordering matching
	Substring   string         // Matching rule OID/name for substring matching
	Syntax      string         // Syntax OID
	SingleValue bool           // If true, attribute can have only one value
	Collective  bool           // If true, attribute is collective
	NoUserMod   bool           // If true, attribute cannot be modified by users
	Usage       AttributeUsage // How the attribute is used
	Origin      string         // X-ORIGIN extension
}

// NewAttributeType creates a new AttributeType with the given OID and name.
// The default usage is UserApplications.
func NewAttributeType(oid, name string) *AttributeType {
	return &AttributeType{
		OID:   oid,
		Name:  name,
		Names: []string{name},
		Usage: UserApplications,
	}
}

// IsOperational returns true if this is an operational attribute.
func (at *AttributeType) IsOperational() bool {
	return at.Usage.IsOperational()
}

// HasName reports whether name (case-insensitive) is one of the type's
// names or its OID.
func (at *AttributeType) HasName(name string) bool {
	if at == nil {
		return false
	}
	if strings.EqualFold(at.OID, name) {
		return true
	}
	for _, n := range at.Names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// Key returns the lower-cased primary name used as the attribute key on
// directory entries.
func (at *AttributeType) Key() string {
	if at.Name != "" {
		return strings.ToLower(at.Name)
	}
	return strings.ToLower(at.OID)
}

// String returns the primary name, falling back to the OID.
func (at *AttributeType) String() string {
	if at.Name != "" {
		return at.Name
	}
	return at.OID
}

// AddName adds an alias name to this attribute type.
func (at *AttributeType) AddName(name string) {
	for _, n := range at.Names {
		if n == name {
			return
		}
	}
	at.Names = append(at.Names, name)
}

func (at *AttributeType) keys() []string {
	keys := make([]string, 0, len(at.Names)+1)
	if at.OID != "" {
		keys = append(keys, key(at.OID))
	}
	for _, n := range at.Names {
		keys = append(keys, key(n))
	}
	return keys
}

// inherit copies syntax and matching rules from sup where unset.
func (at *AttributeType) inherit(sup *AttributeType) {
	if at.Syntax == "" {
		at.Syntax = sup.Syntax
	}
	if at.Equality == "" {
		at.Equality = sup.Equality
	}
	if at.Ordering == "" {
		at.Ordering = sup.Ordering
	}
	if at.Substring == "" {
		at.Substring = sup.Substring
	}
}
