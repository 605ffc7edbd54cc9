package schema

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Loader errors
var (
	ErrSchemaFileNotFound = errors.New("schema: file not found")
	ErrInheritanceCycle   = errors.New("schema: inheritance cycle detected")
)

// LoadSchema reads an LDIF schema file at path into s.
func (s *Schema) LoadSchema(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrSchemaFileNotFound
		}
		return err
	}
	defer file.Close()

	if err := s.LoadLDIF(file); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadLDIF reads schema definitions from an LDIF-formatted subschema entry
// and adds them to s. Definitions that collide with registered ones are
// skipped.
//
//	dn: cn=schema
//	attributeTypes: ( 1.3.6.1.1.1.1.12 NAME 'memberUid' ... )
//	objectClasses: ( 1.3.6.1.1.1.2.2 NAME 'posixGroup' ... )
func (s *Schema) LoadLDIF(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	var currentAttr string
	var currentValue strings.Builder

	flush := func() error {
		defer func() {
			currentAttr = ""
			currentValue.Reset()
		}()
		value := strings.TrimSpace(currentValue.String())
		if currentAttr == "" || value == "" {
			return nil
		}

		var err error
		switch strings.ToLower(currentAttr) {
		case "attributetypes":
			_, err = s.RegisterAttributeType(value)
			if errors.Is(err, ErrDuplicateAttributeType) {
				err = nil
			}
		case "objectclasses":
			_, err = s.RegisterObjectClass(value)
			if errors.Is(err, ErrDuplicateObjectClass) {
				err = nil
			}
		}
		return err
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" || strings.HasPrefix(line, "#") {
			if err := flush(); err != nil {
				return err
			}
			continue
		}

		// Folded line
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			currentValue.WriteString(" ")
			currentValue.WriteString(strings.TrimLeft(line, " \t"))
			continue
		}

		if err := flush(); err != nil {
			return err
		}

		colonIdx := strings.Index(line, ":")
		if colonIdx == -1 {
			continue
		}
		currentAttr = strings.TrimSpace(line[:colonIdx])
		currentValue.WriteString(strings.TrimSpace(line[colonIdx+1:]))
	}
	if err := flush(); err != nil {
		return err
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	return s.resolveInheritance()
}

// LoadDefaultSchema returns a schema holding the built-in core, cosine and
// NIS definitions.
func LoadDefaultSchema() *Schema {
	s := NewSchema()

	for _, def := range defaultAttributeTypes {
		if at, err := parseAttributeType(def); err == nil {
			s.AddAttributeType(at)
		}
	}
	for _, def := range defaultObjectClasses {
		if oc, err := parseObjectClass(def); err == nil {
			s.AddObjectClass(oc)
		}
	}

	_ = s.resolveInheritance()
	return s
}

// resolveInheritance copies syntax and matching rules down attribute type
// SUP chains and checks object class chains for cycles.
func (s *Schema) resolveInheritance() error {
	resolved := make(map[*AttributeType]bool)
	var resolveAT func(at *AttributeType, visiting map[*AttributeType]bool) error
	resolveAT = func(at *AttributeType, visiting map[*AttributeType]bool) error {
		if at == nil || resolved[at] {
			return nil
		}
		if visiting[at] {
			return ErrInheritanceCycle
		}
		visiting[at] = true
		if at.Superior != "" {
			if sup := s.GetAttributeType(at.Superior); sup != nil {
				if err := resolveAT(sup, visiting); err != nil {
					return err
				}
				at.inherit(sup)
			}
		}
		resolved[at] = true
		return nil
	}
	for _, at := range s.AttributeTypes() {
		if err := resolveAT(at, make(map[*AttributeType]bool)); err != nil {
			return fmt.Errorf("%w: %s", err, at)
		}
	}

	for _, oc := range s.ObjectClasses() {
		seen := make(map[*ObjectClass]bool)
		for cur := oc; cur != nil && cur.Superior != ""; {
			if seen[cur] {
				return fmt.Errorf("%w: %s", ErrInheritanceCycle, oc)
			}
			seen[cur] = true
			cur = s.GetObjectClass(cur.Superior)
		}
	}
	return nil
}

// AllMust returns the required attributes of the named object class,
// including those inherited from superiors.
func (s *Schema) AllMust(ocName string) []string {
	return s.collect(ocName, func(oc *ObjectClass) []string { return oc.Must })
}

// AllMay returns the optional attributes of the named object class,
// including those inherited from superiors.
func (s *Schema) AllMay(ocName string) []string {
	return s.collect(ocName, func(oc *ObjectClass) []string { return oc.May })
}

func (s *Schema) collect(ocName string, pick func(*ObjectClass) []string) []string {
	var chain []*ObjectClass
	seen := make(map[*ObjectClass]bool)
	for oc := s.GetObjectClass(ocName); oc != nil && !seen[oc]; oc = s.GetObjectClass(oc.Superior) {
		seen[oc] = true
		chain = append(chain, oc)
		if oc.Superior == "" {
			break
		}
	}

	var result []string
	names := make(map[string]bool)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, attr := range pick(chain[i]) {
			if k := key(attr); !names[k] {
				names[k] = true
				result = append(result, attr)
			}
		}
	}
	return result
}
