package backend

import (
	"strings"
)

// Scope is the LDAP search scope.
type Scope int

// Scope constants.
const (
	// ScopeBase returns only the base entry itself.
	ScopeBase Scope = iota
	// ScopeOneLevel returns only the immediate children of the base entry.
	ScopeOneLevel
	// ScopeSubtree returns the base entry and all its descendants.
	ScopeSubtree
)

// String returns the LDAP URL name of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeBase:
		return "base"
	case ScopeOneLevel:
		return "one"
	case ScopeSubtree:
		return "sub"
	default:
		return "unknown"
	}
}

// ParseScope parses "base", "one"/"onelevel" or "sub"/"subtree".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "base":
		return ScopeBase, nil
	case "one", "onelevel":
		return ScopeOneLevel, nil
	case "sub", "subtree", "":
		return ScopeSubtree, nil
	default:
		return ScopeSubtree, ErrInvalidScope
	}
}

// NormalizeDN returns the comparison form of dn: RDNs lower-cased with
// whitespace around separators removed. Escaped commas are preserved.
func NormalizeDN(dn string) string {
	rdns := splitDN(dn)
	for i, rdn := range rdns {
		if eq := strings.IndexByte(rdn, '='); eq > 0 {
			rdn = strings.TrimSpace(rdn[:eq]) + "=" + strings.TrimSpace(rdn[eq+1:])
		}
		rdns[i] = strings.ToLower(rdn)
	}
	return strings.Join(rdns, ",")
}

// ParentDN returns the normalized parent of dn, or "" for a root entry.
func ParentDN(dn string) string {
	rdns := splitDN(NormalizeDN(dn))
	if len(rdns) <= 1 {
		return ""
	}
	return strings.Join(rdns[1:], ",")
}

// InScope reports whether the entry named dn lies within scope of base.
// Both names must be normalized.
func InScope(dn, base string, scope Scope) bool {
	switch scope {
	case ScopeBase:
		return dn == base
	case ScopeOneLevel:
		return ParentDN(dn) == base
	case ScopeSubtree:
		if base == "" || dn == base {
			return true
		}
		return strings.HasSuffix(dn, ","+base) && !strings.HasSuffix(dn, "\\,"+base)
	default:
		return false
	}
}

// splitDN splits a DN string by commas, handling escaped commas.
func splitDN(dn string) []string {
	var components []string
	var current strings.Builder
	escaped := false

	for i := 0; i < len(dn); i++ {
		c := dn[i]

		if escaped {
			current.WriteByte(c)
			escaped = false
			continue
		}

		if c == '\\' {
			current.WriteByte(c)
			escaped = true
			continue
		}

		if c == ',' {
			if comp := strings.TrimSpace(current.String()); comp != "" {
				components = append(components, comp)
			}
			current.Reset()
			continue
		}

		current.WriteByte(c)
	}

	if comp := strings.TrimSpace(current.String()); comp != "" {
		components = append(components, comp)
	}

	return components
}
