package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/KilimcininKorOglu/automember/internal/filter"
	"github.com/KilimcininKorOglu/automember/internal/logging"
	"github.com/KilimcininKorOglu/automember/internal/schema"
)

// Backend errors.
var (
	// ErrEntryNotFound is returned when an entry is not found.
	ErrEntryNotFound = errors.New("backend: entry not found")
	// ErrEntryExists is returned when an entry already exists.
	ErrEntryExists = errors.New("backend: entry already exists")
	// ErrInvalidDN is returned when a DN is invalid.
	ErrInvalidDN = errors.New("backend: invalid DN")
	// ErrInvalidEntry is returned when an entry is invalid.
	ErrInvalidEntry = errors.New("backend: invalid entry")
	// ErrInvalidScope is returned for an unknown search scope.
	ErrInvalidScope = errors.New("backend: invalid search scope")
	// ErrStorageError is returned when a storage operation fails.
	ErrStorageError = errors.New("backend: storage error")
	// ErrNotAllowedOnNonLeaf is returned when trying to delete an entry with children.
	ErrNotAllowedOnNonLeaf = errors.New("backend: operation not allowed on non-leaf entry")
	// ErrNoSuchObject is returned when a search base does not exist.
	ErrNoSuchObject = errors.New("backend: no such object")
	// ErrSizeLimitExceeded is returned when a search matches more entries
	// than its size limit. Entries up to the limit have been emitted.
	ErrSizeLimitExceeded = errors.New("backend: size limit exceeded")
)

// errStopIteration ends a store walk early without reporting an error.
var errStopIteration = errors.New("backend: stop iteration")

// SearchRequest describes a search against the backend.
type SearchRequest struct {
	// BaseDN is the search base. An empty base searches every entry.
	BaseDN string
	// Scope is the search scope.
	Scope Scope
	// Filter selects entries. Nil matches every entry.
	Filter *filter.Filter
	// Attributes is the requested attribute list.
	Attributes []string
	// SizeLimit caps the number of returned entries. Zero means no limit.
	SizeLimit int
	// NoCache reads past the entry cache.
	NoCache bool
}

// EmitFunc receives one search result. When shared is true the entry is
// owned by the store and must be cloned before it is modified.
type EmitFunc func(entry *Entry, shared bool) error

// Backend provides directory operations on top of a Store.
type Backend struct {
	store     Store
	schema    *schema.Schema
	evaluator *filter.Evaluator
	logger    logging.Logger

	// writeMu serializes read-check-write sequences.
	writeMu sync.Mutex
}

// New creates a Backend over store. A nil schema disables entry
// validation and matches attribute names literally.
func New(store Store, s *schema.Schema, logger logging.Logger) *Backend {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Backend{
		store:     store,
		schema:    s,
		evaluator: filter.NewEvaluator(s),
		logger:    logger.WithFields("component", "backend"),
	}
}

// Schema returns the backend's schema.
func (b *Backend) Schema() *schema.Schema {
	return b.schema
}

// Store returns the underlying store.
func (b *Backend) Store() Store {
	return b.store
}

// Get returns a copy of the entry named dn.
func (b *Backend) Get(ctx context.Context, dn string) (*Entry, error) {
	if dn == "" {
		return nil, ErrInvalidDN
	}
	e, err := b.store.Get(ctx, dn, ReadOptions{})
	if err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

// Add validates entry, stamps its operational attributes and stores it.
func (b *Backend) Add(ctx context.Context, entry *Entry, bindDN string) error {
	if entry == nil || entry.DN == "" {
		return ErrInvalidEntry
	}
	if err := b.validateEntry(entry); err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	_, err := b.store.Get(ctx, entry.DN, ReadOptions{NoCache: true})
	if err == nil {
		return ErrEntryExists
	}
	if !errors.Is(err, ErrEntryNotFound) {
		return err
	}

	stored := entry.Clone()
	SetOperationalAttrs(stored, OpAdd, bindDN)
	if err := b.store.Put(ctx, stored); err != nil {
		return err
	}

	b.logger.Debug("entry added", "dn", entry.DN)
	return nil
}

// Replace overwrites an existing entry's user attributes, keeping its
// creation attributes.
func (b *Backend) Replace(ctx context.Context, entry *Entry, bindDN string) error {
	if entry == nil || entry.DN == "" {
		return ErrInvalidEntry
	}
	if err := b.validateEntry(entry); err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	existing, err := b.store.Get(ctx, entry.DN, ReadOptions{NoCache: true})
	if err != nil {
		return err
	}

	stored := entry.Clone()
	for _, name := range []string{AttrCreateTimestamp, AttrCreatorsName, AttrEntryUUID} {
		stored.SetAttribute(name, existing.GetAttribute(name)...)
	}
	SetOperationalAttrs(stored, OpModify, bindDN)
	if err := b.store.Put(ctx, stored); err != nil {
		return err
	}

	b.logger.Debug("entry replaced", "dn", entry.DN)
	return nil
}

// Delete removes a leaf entry.
func (b *Backend) Delete(ctx context.Context, dn string) error {
	if dn == "" {
		return ErrInvalidDN
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	hasChildren, err := b.HasChildren(ctx, dn)
	if err != nil {
		return err
	}
	if hasChildren {
		return ErrNotAllowedOnNonLeaf
	}
	if err := b.store.Delete(ctx, dn); err != nil {
		return err
	}

	b.logger.Debug("entry deleted", "dn", dn)
	return nil
}

// HasChildren reports whether dn has immediate children.
func (b *Backend) HasChildren(ctx context.Context, dn string) (bool, error) {
	found := false
	err := b.store.Iterate(ctx, dn, ScopeOneLevel, ReadOptions{}, func(*Entry) error {
		found = true
		return errStopIteration
	})
	if err != nil && !errors.Is(err, errStopIteration) {
		return false, err
	}
	return found, nil
}

// Search emits every entry within scope of the request base that matches
// its filter, projected onto the requested attributes, in store order.
// Returning an error from emit aborts the search with that error.
func (b *Backend) Search(ctx context.Context, req *SearchRequest, emit EmitFunc) error {
	if req == nil {
		return fmt.Errorf("%w: nil search request", ErrInvalidEntry)
	}
	if req.Scope < ScopeBase || req.Scope > ScopeSubtree {
		return ErrInvalidScope
	}

	opts := ReadOptions{NoCache: req.NoCache}
	if req.BaseDN != "" {
		if _, err := b.store.Get(ctx, req.BaseDN, opts); err != nil {
			if errors.Is(err, ErrEntryNotFound) {
				return fmt.Errorf("%w: %s", ErrNoSuchObject, req.BaseDN)
			}
			return err
		}
	}

	selector := NewAttributeSelector(b.schema, req.Attributes)
	sent := 0

	return b.store.Iterate(ctx, req.BaseDN, req.Scope, opts, func(e *Entry) error {
		if req.Filter != nil && !b.evaluator.Evaluate(req.Filter, e) {
			return nil
		}
		if req.SizeLimit > 0 && sent >= req.SizeLimit {
			return ErrSizeLimitExceeded
		}
		sent++

		projected, unchanged := selector.Select(e)
		return emit(projected, unchanged)
	})
}

// EntryGet reads the entry named dn past any cache. When oc is not nil the
// entry must be of that class (or a subclass) or ErrEntryNotFound is
// returned. When at is not nil only at's values are copied into the result,
// which is always owned by the caller.
func (b *Backend) EntryGet(ctx context.Context, dn string, oc *schema.ObjectClass, at *schema.AttributeType) (*Entry, error) {
	e, err := b.store.Get(ctx, dn, ReadOptions{NoCache: true})
	if err != nil {
		return nil, err
	}
	if oc != nil && !e.IsA(b.schema, oc) {
		return nil, fmt.Errorf("%w: %s is not a %s", ErrEntryNotFound, dn, oc)
	}
	if at == nil {
		return e.Clone(), nil
	}

	result := NewEntry(e.DN)
	if values := e.Values(at); len(values) > 0 {
		result.SetAttribute(at.Key(), append([]string(nil), values...)...)
	}
	return result, nil
}

// Close closes the underlying store.
func (b *Backend) Close() error {
	return b.store.Close()
}

// validateEntry checks that entry names object classes and carries every
// attribute they require.
func (b *Backend) validateEntry(entry *Entry) error {
	classes := entry.GetAttribute("objectClass")
	if len(classes) == 0 {
		return fmt.Errorf("%w: %s has no objectClass", ErrInvalidEntry, entry.DN)
	}
	if b.schema == nil {
		return nil
	}

	for _, name := range classes {
		if b.schema.GetObjectClass(name) == nil {
			return fmt.Errorf("%w: %s: unknown object class %q", ErrInvalidEntry, entry.DN, name)
		}
		for _, must := range b.schema.AllMust(name) {
			if !b.hasAttribute(entry, must) {
				return fmt.Errorf("%w: %s: object class %s requires %s", ErrInvalidEntry, entry.DN, name, must)
			}
		}
	}
	return nil
}

func (b *Backend) hasAttribute(entry *Entry, name string) bool {
	if entry.HasAttribute(name) {
		return true
	}
	return entry.Has(b.schema.GetAttributeType(name))
}
