package acl

import (
	"fmt"
	"strings"

	"github.com/KilimcininKorOglu/automember/internal/backend"
)

// Right represents an access right as a bit flag.
type Right int

const (
	// Read allows returning the entry from a search.
	Read Right = 1 << iota
	// Search allows using the entry's attributes in a filter.
	Search
	// Compare allows compare operations against the entry.
	Compare

	// All grants every right.
	All = Read | Search | Compare
)

func (r Right) String() string {
	switch r {
	case Read:
		return "read"
	case Search:
		return "search"
	case Compare:
		return "compare"
	case All:
		return "all"
	default:
		return "unknown"
	}
}

// Has reports whether r includes other.
func (r Right) Has(other Right) bool {
	return r&other != 0
}

// ParseRights combines right names into one Right.
func ParseRights(names []string) (Right, error) {
	var r Right
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "read":
			r |= Read
		case "search":
			r |= Search
		case "compare":
			r |= Compare
		case "all", "*":
			r |= All
		default:
			return 0, fmt.Errorf("%w: unknown right %q", ErrInvalidConfig, name)
		}
	}
	return r, nil
}

// ACL is one access rule.
type ACL struct {
	// Target is the DN the rule applies to, or "*" for every entry.
	Target string
	// Scope selects the target itself, its children, or its subtree.
	Scope backend.Scope
	// Subject is who the rule applies to.
	Subject string
	// Rights granted, or denied when Deny is set.
	Rights Right
	Deny   bool
}

// NewACL creates a subtree rule granting rights on target to subject.
func NewACL(target, subject string, rights Right) *ACL {
	return &ACL{
		Target:  target,
		Scope:   backend.ScopeSubtree,
		Subject: subject,
		Rights:  rights,
	}
}

// WithScope sets the rule's scope.
func (a *ACL) WithScope(scope backend.Scope) *ACL {
	a.Scope = scope
	return a
}

// WithDeny turns the rule into a deny rule.
func (a *ACL) WithDeny(deny bool) *ACL {
	a.Deny = deny
	return a
}

// Config holds the default policy and the ordered rules.
type Config struct {
	// DefaultPolicy is "allow" or "deny". Default is "deny".
	DefaultPolicy string
	Rules         []*ACL
}

// NewConfig creates a configuration with default deny policy.
func NewConfig() *Config {
	return &Config{DefaultPolicy: "deny"}
}

// AddRule appends a rule to the configuration.
func (c *Config) AddRule(rule *ACL) {
	c.Rules = append(c.Rules, rule)
}

// SetDefaultPolicy sets the default policy.
func (c *Config) SetDefaultPolicy(policy string) {
	c.DefaultPolicy = policy
}

// IsDefaultAllow returns true if the default policy is "allow".
func (c *Config) IsDefaultAllow() bool {
	return c.DefaultPolicy == "allow"
}
