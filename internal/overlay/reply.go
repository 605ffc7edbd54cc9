package overlay

import (
	"github.com/KilimcininKorOglu/automember/internal/backend"
)

// ReplyType distinguishes entry results from the completion signal.
type ReplyType int

const (
	// ReplyEntry carries one search result entry.
	ReplyEntry ReplyType = iota
	// ReplyDone signals the end of the result stream.
	ReplyDone
)

// String returns the reply type name.
func (t ReplyType) String() string {
	switch t {
	case ReplyEntry:
		return "entry"
	case ReplyDone:
		return "done"
	default:
		return "unknown"
	}
}

// Flags describe who owns a reply's entry.
type Flags uint8

const (
	// EntryModifiable marks an entry exclusively owned by the current
	// operation. Without it the entry belongs to a store or its cache.
	EntryModifiable Flags = 1 << iota
	// EntryMustRelease marks an entry the pipeline releases after it has
	// been sent.
	EntryMustRelease
)

// Reply is one record flowing through the response pipeline.
type Reply struct {
	Type  ReplyType
	Entry *backend.Entry
	Flags Flags

	// Err is the search outcome on a ReplyDone reply.
	Err error

	superseded *backend.Entry
}

// NewEntryReply wraps e. A shared entry belongs to the store and is
// copied before the first mutation.
func NewEntryReply(e *backend.Entry, shared bool) *Reply {
	rep := &Reply{Type: ReplyEntry, Entry: e}
	if !shared {
		rep.Flags = EntryModifiable | EntryMustRelease
	}
	return rep
}

// Modifiable reports whether the entry may be mutated in place.
func (r *Reply) Modifiable() bool {
	return r.Flags&EntryModifiable != 0
}

// EnsureModifiable returns an entry the caller may mutate. An entry the
// operation already owns is returned as is. A shared entry is cloned; the
// clone replaces it for the rest of the pipeline and the original is
// recorded as superseded.
func (r *Reply) EnsureModifiable() *backend.Entry {
	if r.Modifiable() || r.Entry == nil {
		return r.Entry
	}

	r.superseded = r.Entry
	r.Entry = r.Entry.Clone()
	r.Flags |= EntryModifiable | EntryMustRelease
	return r.Entry
}

// Superseded returns the shared entry replaced by EnsureModifiable, if any.
func (r *Reply) Superseded() *backend.Entry {
	return r.superseded
}

// project narrows an entry reply to the attributes sel selects. A narrowed
// entry is a new copy owned by the operation.
func (r *Reply) project(sel *backend.AttributeSelector) {
	if sel == nil || r.Type != ReplyEntry || r.Entry == nil {
		return
	}
	projected, unchanged := sel.Select(r.Entry)
	if unchanged {
		return
	}
	r.Entry = projected
	r.Flags |= EntryModifiable | EntryMustRelease
}

// Release drops the reply's references once it has been sent. Shared
// entries are left to their owner.
func (r *Reply) Release() {
	if r.Flags&EntryMustRelease != 0 {
		r.Flags &^= EntryModifiable | EntryMustRelease
	}
	r.Entry = nil
	r.superseded = nil
}
