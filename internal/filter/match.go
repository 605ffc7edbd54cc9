package filter

import "strings"

// matchEquality performs case-insensitive equality matching.
// This is the default matching behavior for string attributes in LDAP.
func matchEquality(a, b string) bool {
	return strings.EqualFold(a, b)
}

// matchEqualityExact performs exact (case-sensitive) equality matching.
func matchEqualityExact(a, b string) bool {
	return a == b
}

// matchSubstring checks if a value matches a substring filter pattern.
// The pattern consists of optional initial, any (middle), and final components.
func matchSubstring(value string, initial string, any []string, final string) bool {
	value = strings.ToLower(value)
	pos := 0

	if initial != "" {
		if !strings.HasPrefix(value, strings.ToLower(initial)) {
			return false
		}
		pos = len(initial)
	}

	for _, substr := range any {
		if substr == "" {
			continue
		}
		idx := strings.Index(value[pos:], strings.ToLower(substr))
		if idx < 0 {
			return false
		}
		pos += idx + len(substr)
	}

	if final != "" {
		if !strings.HasSuffix(value[pos:], strings.ToLower(final)) {
			return false
		}
	}

	return true
}

// matchGreaterOrEqual performs case-insensitive lexicographic comparison.
func matchGreaterOrEqual(value, threshold string) bool {
	return strings.Compare(strings.ToLower(value), strings.ToLower(threshold)) >= 0
}

// matchLessOrEqual performs case-insensitive lexicographic comparison.
func matchLessOrEqual(value, threshold string) bool {
	return strings.Compare(strings.ToLower(value), strings.ToLower(threshold)) <= 0
}

// matchApprox compares values after lower-casing and collapsing whitespace.
func matchApprox(a, b string) bool {
	return normalizeForApprox(a) == normalizeForApprox(b)
}

func normalizeForApprox(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

// exactMatch reports whether an equality rule compares values byte for byte.
func exactMatch(rule string) bool {
	rule = strings.ToLower(rule)
	return strings.HasPrefix(rule, "caseexact") || strings.HasPrefix(rule, "octetstring") ||
		rule == "2.5.13.5" || rule == "2.5.13.17" || rule == "1.3.6.1.4.1.1466.109.114.1"
}
