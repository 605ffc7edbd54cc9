package filter

import (
	"strings"

	"github.com/KilimcininKorOglu/automember/internal/schema"
)

// Evaluator evaluates LDAP search filters against entries.
type Evaluator struct {
	schema *schema.Schema
}

// NewEvaluator creates a new filter evaluator with the given schema.
// The schema resolves attribute aliases, selects exact or case-insensitive
// equality, and makes objectClass assertions match subclasses. If nil,
// attribute names are matched literally and values case-insensitively.
func NewEvaluator(s *schema.Schema) *Evaluator {
	return &Evaluator{
		schema: s,
	}
}

// Evaluate tests whether an entry matches a filter.
func (e *Evaluator) Evaluate(filter *Filter, entry Entry) bool {
	if filter == nil || entry == nil {
		return false
	}

	switch filter.Type {
	case FilterAnd:
		for _, child := range filter.Children {
			if !e.Evaluate(child, entry) {
				return false
			}
		}
		return true
	case FilterOr:
		for _, child := range filter.Children {
			if e.Evaluate(child, entry) {
				return true
			}
		}
		return false
	case FilterNot:
		if filter.Child == nil {
			return false
		}
		return !e.Evaluate(filter.Child, entry)
	case FilterEquality:
		return e.evaluateEquality(filter.Attribute, string(filter.Value), entry)
	case FilterSubstring:
		return e.evaluateSubstring(filter.Substring, entry)
	case FilterPresent:
		return len(e.values(filter.Attribute, entry)) > 0
	case FilterGreaterOrEqual:
		return e.any(filter.Attribute, entry, func(v string) bool {
			return matchGreaterOrEqual(v, string(filter.Value))
		})
	case FilterLessOrEqual:
		return e.any(filter.Attribute, entry, func(v string) bool {
			return matchLessOrEqual(v, string(filter.Value))
		})
	case FilterApproxMatch:
		return e.any(filter.Attribute, entry, func(v string) bool {
			return matchApprox(v, string(filter.Value))
		})
	default:
		return false
	}
}

func (e *Evaluator) evaluateEquality(attr, value string, entry Entry) bool {
	at := e.attributeType(attr)

	if at != nil && at.HasName("objectClass") {
		if want := e.schema.GetObjectClass(value); want != nil {
			return e.any(attr, entry, func(v string) bool {
				return e.schema.IsSubclassOf(e.schema.GetObjectClass(v), want) || matchEquality(v, value)
			})
		}
	}

	match := matchEquality
	if at != nil && exactMatch(at.Equality) {
		match = matchEqualityExact
	}
	return e.any(attr, entry, func(v string) bool { return match(v, value) })
}

func (e *Evaluator) evaluateSubstring(sf *SubstringFilter, entry Entry) bool {
	if sf == nil {
		return false
	}
	anyParts := make([]string, len(sf.Any))
	for i, a := range sf.Any {
		anyParts[i] = string(a)
	}
	return e.any(sf.Attribute, entry, func(v string) bool {
		return matchSubstring(v, string(sf.Initial), anyParts, string(sf.Final))
	})
}

func (e *Evaluator) any(attr string, entry Entry, pred func(string) bool) bool {
	for _, v := range e.values(attr, entry) {
		if pred(v) {
			return true
		}
	}
	return false
}

// values looks the attribute up under the asserted name and, with a schema,
// under every alias and the OID of its type.
func (e *Evaluator) values(attr string, entry Entry) []string {
	if idx := strings.IndexByte(attr, ';'); idx >= 0 {
		attr = attr[:idx]
	}
	if values := entry.GetAttribute(attr); values != nil {
		return values
	}
	at := e.attributeType(attr)
	if at == nil {
		return nil
	}
	for _, name := range at.Names {
		if values := entry.GetAttribute(name); values != nil {
			return values
		}
	}
	return entry.GetAttribute(at.OID)
}

func (e *Evaluator) attributeType(attr string) *schema.AttributeType {
	if e.schema == nil {
		return nil
	}
	return e.schema.GetAttributeType(attr)
}

// Schema returns the evaluator's schema.
func (e *Evaluator) Schema() *schema.Schema {
	return e.schema
}
