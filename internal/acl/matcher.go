package acl

import (
	"github.com/KilimcininKorOglu/automember/internal/backend"
)

// matchesTarget reports whether targetDN falls under the rule's target.
func matchesTarget(rule *ACL, targetDN string) bool {
	if rule.Target == "*" {
		return true
	}
	return backend.InScope(backend.NormalizeDN(targetDN), backend.NormalizeDN(rule.Target), rule.Scope)
}

// matchesSubject reports whether bindDN is covered by the rule's subject.
func matchesSubject(rule *ACL, bindDN, targetDN string) bool {
	switch backend.NormalizeDN(rule.Subject) {
	case "*":
		return true
	case "anonymous":
		return bindDN == ""
	case "authenticated":
		return bindDN != ""
	case "self":
		return bindDN != "" && backend.NormalizeDN(bindDN) == backend.NormalizeDN(targetDN)
	default:
		return bindDN != "" && backend.NormalizeDN(bindDN) == backend.NormalizeDN(rule.Subject)
	}
}
