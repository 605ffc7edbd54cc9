package backend

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Operational attributes stamped on stored entries.
const (
	// AttrCreateTimestamp is the creation timestamp of an entry.
	AttrCreateTimestamp = "createTimestamp"
	// AttrModifyTimestamp is the last modification timestamp of an entry.
	AttrModifyTimestamp = "modifyTimestamp"
	// AttrCreatorsName is the DN of the entry creator.
	AttrCreatorsName = "creatorsName"
	// AttrModifiersName is the DN of the last modifier.
	AttrModifiersName = "modifiersName"
	// AttrEntryDN is the DN of the entry itself.
	AttrEntryDN = "entryDN"
	// AttrEntryUUID is the unique identifier of the entry (RFC 4530).
	AttrEntryUUID = "entryUUID"
	// AttrHasSubordinates indicates whether the entry has children.
	AttrHasSubordinates = "hasSubordinates"
	// AttrNumSubordinates is the count of immediate children.
	AttrNumSubordinates = "numSubordinates"
)

// generalizedTime is the GeneralizedTime layout used for timestamps.
const generalizedTime = "20060102150405Z"

// OperationType selects which operational attributes are (re)written.
type OperationType string

const (
	// OpAdd stamps creation and modification attributes.
	OpAdd OperationType = "add"
	// OpModify stamps modification attributes only.
	OpModify OperationType = "modify"
)

// SetOperationalAttrs stamps operational attributes on entry. Add sets the
// creation attributes and a fresh entryUUID; both add and modify set the
// modification attributes. entryDN always mirrors the entry's DN.
func SetOperationalAttrs(entry *Entry, op OperationType, bindDN string) {
	if entry == nil {
		return
	}

	now := FormatTimestamp(time.Now())

	if op == OpAdd {
		entry.SetAttribute(AttrCreateTimestamp, now)
		entry.SetAttribute(AttrCreatorsName, bindDN)
		entry.SetAttribute(AttrEntryUUID, uuid.NewString())
	}
	entry.SetAttribute(AttrModifyTimestamp, now)
	entry.SetAttribute(AttrModifiersName, bindDN)
	entry.SetAttribute(AttrEntryDN, entry.DN)
}

// SetSubordinateAttrs sets hasSubordinates and numSubordinates on entry.
func SetSubordinateAttrs(entry *Entry, numSubordinates int) {
	if entry == nil {
		return
	}
	entry.SetAttribute(AttrHasSubordinates, strings.ToUpper(strconv.FormatBool(numSubordinates > 0)))
	entry.SetAttribute(AttrNumSubordinates, strconv.Itoa(numSubordinates))
}

// FormatTimestamp formats t as a UTC GeneralizedTime string,
// e.g. "20260218103000Z".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(generalizedTime)
}

// ParseTimestamp parses a GeneralizedTime string.
// Returns the zero time if parsing fails.
func ParseTimestamp(s string) time.Time {
	t, err := time.Parse(generalizedTime, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
