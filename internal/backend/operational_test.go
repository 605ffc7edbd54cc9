package backend

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestSetOperationalAttrsAdd tests setting operational attributes for add operations.
func TestSetOperationalAttrsAdd(t *testing.T) {
	entry := NewEntry("uid=test,ou=users,dc=example,dc=com")
	bindDN := "cn=admin,dc=example,dc=com"

	SetOperationalAttrs(entry, OpAdd, bindDN)

	if entry.GetFirstAttribute(AttrCreateTimestamp) == "" {
		t.Error("createTimestamp should be set")
	}
	if entry.GetFirstAttribute(AttrModifyTimestamp) == "" {
		t.Error("modifyTimestamp should be set")
	}
	if got := entry.GetFirstAttribute(AttrCreatorsName); got != bindDN {
		t.Errorf("creatorsName = %s, expected %s", got, bindDN)
	}
	if got := entry.GetFirstAttribute(AttrModifiersName); got != bindDN {
		t.Errorf("modifiersName = %s, expected %s", got, bindDN)
	}
	if got := entry.GetFirstAttribute(AttrEntryDN); got != entry.DN {
		t.Errorf("entryDN = %s, expected %s", got, entry.DN)
	}

	id, err := uuid.Parse(entry.GetFirstAttribute(AttrEntryUUID))
	if err != nil {
		t.Fatalf("entryUUID is not a UUID: %v", err)
	}
	if id.Version() != 4 {
		t.Errorf("entryUUID version = %d, expected 4", id.Version())
	}
}

// TestSetOperationalAttrsModify tests that modify keeps the creation attributes.
func TestSetOperationalAttrsModify(t *testing.T) {
	entry := NewEntry("uid=test,ou=users,dc=example,dc=com")
	bindDN := "cn=admin,dc=example,dc=com"

	SetOperationalAttrs(entry, OpAdd, "cn=creator,dc=example,dc=com")

	originalCreateTimestamp := entry.GetFirstAttribute(AttrCreateTimestamp)
	originalCreatorsName := entry.GetFirstAttribute(AttrCreatorsName)
	originalEntryUUID := entry.GetFirstAttribute(AttrEntryUUID)

	SetOperationalAttrs(entry, OpModify, bindDN)

	if entry.GetFirstAttribute(AttrCreateTimestamp) != originalCreateTimestamp {
		t.Error("createTimestamp should not change on modify")
	}
	if entry.GetFirstAttribute(AttrCreatorsName) != originalCreatorsName {
		t.Error("creatorsName should not change on modify")
	}
	if entry.GetFirstAttribute(AttrEntryUUID) != originalEntryUUID {
		t.Error("entryUUID should not change on modify")
	}
	if got := entry.GetFirstAttribute(AttrModifiersName); got != bindDN {
		t.Errorf("modifiersName = %s, expected %s", got, bindDN)
	}
}

// TestSetOperationalAttrsNilEntry tests that nil entry is handled gracefully.
func TestSetOperationalAttrsNilEntry(t *testing.T) {
	SetOperationalAttrs(nil, OpAdd, "cn=admin,dc=example,dc=com")
	SetSubordinateAttrs(nil, 5)
}

// TestEntryUUIDUniqueness tests that every add receives a distinct entryUUID.
func TestEntryUUIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		entry := NewEntry("cn=x")
		SetOperationalAttrs(entry, OpAdd, "")
		id := entry.GetFirstAttribute(AttrEntryUUID)
		if seen[id] {
			t.Fatalf("Duplicate entryUUID generated: %s", id)
		}
		seen[id] = true
	}
}

// TestSetSubordinateAttrs tests setting subordinate attributes.
func TestSetSubordinateAttrs(t *testing.T) {
	tests := []struct {
		name        string
		count       int
		expectedHas string
		expectedNum string
	}{
		{name: "no subordinates", count: 0, expectedHas: "FALSE", expectedNum: "0"},
		{name: "has subordinates", count: 5, expectedHas: "TRUE", expectedNum: "5"},
		{name: "many subordinates", count: 100, expectedHas: "TRUE", expectedNum: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := NewEntry("ou=test,dc=example,dc=com")
			SetSubordinateAttrs(entry, tt.count)

			if got := entry.GetFirstAttribute(AttrHasSubordinates); got != tt.expectedHas {
				t.Errorf("hasSubordinates = %s, expected %s", got, tt.expectedHas)
			}
			if got := entry.GetFirstAttribute(AttrNumSubordinates); got != tt.expectedNum {
				t.Errorf("numSubordinates = %s, expected %s", got, tt.expectedNum)
			}
		})
	}
}

// TestFormatTimestamp tests timestamp formatting.
func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected string
	}{
		{name: "basic timestamp", time: time.Date(2026, 2, 18, 10, 30, 0, 0, time.UTC), expected: "20260218103000Z"},
		{name: "midnight", time: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), expected: "20260101000000Z"},
		{name: "end of day", time: time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC), expected: "20261231235959Z"},
		{name: "fixed offset", time: time.Date(2026, 2, 18, 10, 30, 0, 0, time.FixedZone("EST", -5*3600)), expected: "20260218153000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := FormatTimestamp(tt.time); result != tt.expected {
				t.Errorf("FormatTimestamp() = %s, expected %s", result, tt.expected)
			}
		})
	}
}

// TestParseTimestamp tests timestamp parsing.
func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{name: "basic timestamp", input: "20260218103000Z", expected: time.Date(2026, 2, 18, 10, 30, 0, 0, time.UTC)},
		{name: "invalid format", input: "invalid", expected: time.Time{}},
		{name: "empty string", input: "", expected: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := ParseTimestamp(tt.input); !result.Equal(tt.expected) {
				t.Errorf("ParseTimestamp(%s) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

// TestTimestampRoundTrip tests that timestamps can be formatted and parsed back.
func TestTimestampRoundTrip(t *testing.T) {
	original := time.Date(2026, 2, 18, 10, 30, 45, 0, time.UTC)
	formatted := FormatTimestamp(original)
	if !strings.HasSuffix(formatted, "Z") {
		t.Errorf("Timestamp should end with Z: %s", formatted)
	}
	if parsed := ParseTimestamp(formatted); !parsed.Equal(original) {
		t.Errorf("Round trip failed: original=%v, parsed=%v", original, parsed)
	}
}
