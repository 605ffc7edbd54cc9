// Package schema provides LDAP schema data structures including object classes,
// attribute types, syntaxes, and matching rules.
//
// # Overview
//
// A Schema maps every name, alias and OID of a definition to a single
// handle. Handles are stable for the life of the schema, so consumers
// resolve configuration strings once and compare pointers afterwards:
//
//	s := schema.Global()
//	member := s.GetAttributeType("member")
//	group := s.GetObjectClass("posixGroup")
//
// # Registration
//
// Definitions use the RFC 4512 description syntax:
//
//	at, err := s.RegisterAttributeType(`( 1.2.840.113556.1.2.102 NAME 'memberOf' ... )`)
//	if errors.Is(err, schema.ErrDuplicateAttributeType) {
//		// at is the definition registered earlier
//	}
//
// # Inheritance
//
// Attribute types inherit syntax and matching rules from their SUP chain.
// Object class membership is tested with IsSubclassOf, which walks the SUP
// chain of the entry's class up to the candidate superior.
//
// # Loading
//
// LoadDefaultSchema returns the built-in core, cosine, inetOrgPerson and
// NIS definitions. Additional subschema LDIF files can be merged with
// LoadSchema.
package schema
