package backend

import (
	"context"
	"errors"
)

// Storage errors.
var (
	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("backend: store is closed")
)

// ReadOptions tune a single store read.
type ReadOptions struct {
	// NoCache reads past any entry cache and does not populate it.
	NoCache bool
}

// Store persists directory entries keyed by normalized DN.
//
// Entries returned by Get and passed to the Iterate callback are owned by
// the store and must not be modified; Clone them first.
type Store interface {
	// Get returns the entry named dn or ErrEntryNotFound.
	Get(ctx context.Context, dn string, opts ReadOptions) (*Entry, error)

	// Put stores a copy of e, replacing any entry with the same DN.
	Put(ctx context.Context, e *Entry) error

	// Delete removes the entry named dn or returns ErrEntryNotFound.
	Delete(ctx context.Context, dn string) error

	// Iterate calls fn for every entry within scope of baseDN in a stable
	// order. Iteration stops at the first error returned by fn.
	Iterate(ctx context.Context, baseDN string, scope Scope, opts ReadOptions, fn func(*Entry) error) error

	// Close releases the store's resources.
	Close() error
}
