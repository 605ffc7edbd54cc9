// Package backend stores directory entries and answers searches over them.
//
// A Backend wraps a Store, which is either an in-process MemoryStore or a
// BadgerStore persisted in BadgerDB with an LRU cache of decoded entries.
// Entries are keyed by normalized DN. Searches walk the store in a stable
// order, evaluate the filter with the schema-aware evaluator and project
// each match onto the requested attributes:
//
//	err := b.Search(ctx, &backend.SearchRequest{
//	    BaseDN: "dc=example,dc=com",
//	    Scope:  backend.ScopeSubtree,
//	    Filter: f,
//	}, func(e *backend.Entry, shared bool) error {
//	    // shared entries belong to the store
//	    return nil
//	})
//
// EntryGet is the uncached point read used by overlays.
package backend
