package automember

import (
	"errors"
	"sync"

	"github.com/KilimcininKorOglu/automember/internal/schema"
)

// Attribute type definitions registered by Initialize.
const (
	memberOfDefinition = "( 1.2.840.113556.1.2.102 " +
		"NAME 'memberOf' " +
		"DESC 'Group that the entry belongs to' " +
		"SYNTAX '1.3.6.1.4.1.1466.115.121.1.12' " +
		"EQUALITY distinguishedNameMatch " +
		"USAGE dSAOperation " +
		"NO-USER-MODIFICATION " +
		"X-ORIGIN 'iPlanet Delegated Administrator' )"

	memberUIDDefinition = "( 1.3.6.1.1.1.1.12 " +
		"NAME 'memberUid' " +
		"EQUALITY caseExactIA5Match " +
		"SUBSTR caseExactIA5SubstringsMatch " +
		"SYNTAX 1.3.6.1.4.1.1466.115.121.1.26 )"
)

// Initialize registers the attribute types the overlay needs in s.
// Definitions already present are left alone, so calling it again is a
// no-op.
func Initialize(s *schema.Schema) error {
	for _, def := range []string{memberOfDefinition, memberUIDDefinition} {
		if _, err := s.RegisterAttributeType(def); err != nil && !errors.Is(err, schema.ErrDuplicateAttributeType) {
			return err
		}
	}
	return nil
}

var (
	globalInitOnce sync.Once
	globalInitErr  error
)

// InitializeGlobal runs Initialize once per process against schema.Global.
// Later calls return the first result.
func InitializeGlobal() error {
	globalInitOnce.Do(func() {
		globalInitErr = Initialize(schema.Global())
	})
	return globalInitErr
}
