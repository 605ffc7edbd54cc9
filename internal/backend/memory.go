package backend

import (
	"context"
	"sync"
)

// MemoryStore is a Store kept entirely in process memory. Iteration follows
// insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
	closed  bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Get returns the stored entry named dn.
func (m *MemoryStore) Get(ctx context.Context, dn string, _ ReadOptions) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	e, ok := m.entries[NormalizeDN(dn)]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return e, nil
}

// Put stores a copy of e.
func (m *MemoryStore) Put(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e == nil || e.DN == "" {
		return ErrInvalidEntry
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	key := NormalizeDN(e.DN)
	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
	}
	m.entries[key] = e.Clone()
	return nil
}

// Delete removes the entry named dn.
func (m *MemoryStore) Delete(ctx context.Context, dn string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	key := NormalizeDN(dn)
	if _, ok := m.entries[key]; !ok {
		return ErrEntryNotFound
	}
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Iterate walks entries in scope in insertion order. The snapshot of
// matching entries is taken before fn is first called, so fn may write to
// the store.
func (m *MemoryStore) Iterate(ctx context.Context, baseDN string, scope Scope, _ ReadOptions, fn func(*Entry) error) error {
	base := NormalizeDN(baseDN)

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrStoreClosed
	}
	matched := make([]*Entry, 0, len(m.order))
	for _, key := range m.order {
		if InScope(key, base, scope) {
			matched = append(matched, m.entries[key])
		}
	}
	m.mu.RUnlock()

	for _, e := range matched {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
	m.order = nil
	return nil
}

var _ Store = (*MemoryStore)(nil)
