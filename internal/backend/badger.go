package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/KilimcininKorOglu/automember/internal/logging"
)

// DefaultCacheSize is the number of decoded entries a BadgerStore caches.
const DefaultCacheSize = 1024

// entryKeyPrefix namespaces entry records in the key space.
const entryKeyPrefix = "dn/"

// BadgerOptions configures a BadgerStore.
type BadgerOptions struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the database off disk.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// CacheSize bounds the decoded entry cache. Zero selects
	// DefaultCacheSize; negative disables the cache.
	CacheSize int

	// Logger receives badger's internal log output. Nil silences it.
	Logger logging.Logger
}

// BadgerStore is a Store persisted in BadgerDB. Entries are stored as JSON
// under their reversed normalized DN so that a subtree is a contiguous key
// range. Decoded entries are kept in an LRU cache.
type BadgerStore struct {
	db    *badger.DB
	cache *lru.Cache[string, *Entry]
}

// badgerLogger adapts logging.Logger to badger's Logger interface.
type badgerLogger struct {
	logger logging.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

// OpenBadgerStore opens or creates a BadgerStore.
func OpenBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, errors.New("backend: badger path is required for persistent storage")
	}

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0750); err != nil {
			return nil, fmt.Errorf("backend: create database directory %s: %w", opts.Path, err)
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.WithSyncWrites(opts.SyncWrites).WithNumVersionsToKeep(1)

	if opts.Logger != nil {
		bopts = bopts.WithLogger(&badgerLogger{logger: opts.Logger})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("backend: open badger database: %w", err)
	}

	s := &BadgerStore{db: db}

	size := opts.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		cache, err := lru.New[string, *Entry](size)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("backend: create entry cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// Get returns the entry named dn.
func (s *BadgerStore) Get(ctx context.Context, dn string, opts ReadOptions) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := entryKey(dn)
	if s.cache != nil && !opts.NoCache {
		if e, ok := s.cache.Get(key); ok {
			return e, nil
		}
	}

	var entry *Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			entry, err = decodeEntry(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, wrapStoreError(err)
	}

	if s.cache != nil && !opts.NoCache {
		s.cache.Add(key, entry)
	}
	return entry, nil
}

// Put stores e as JSON.
func (s *BadgerStore) Put(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e == nil || e.DN == "" {
		return ErrInvalidEntry
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("backend: encode entry %s: %w", e.DN, err)
	}

	key := entryKey(e.DN)
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	}); err != nil {
		return wrapStoreError(err)
	}

	if s.cache != nil {
		s.cache.Remove(key)
	}
	return nil
}

// Delete removes the entry named dn.
func (s *BadgerStore) Delete(ctx context.Context, dn string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := entryKey(dn)
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if s.cache != nil {
		s.cache.Remove(key)
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrEntryNotFound
	}
	if err != nil {
		return wrapStoreError(err)
	}
	return nil
}

// Iterate walks entries in scope in key order, which places every entry
// after its parent. The read transaction stays open while fn runs.
func (s *BadgerStore) Iterate(ctx context.Context, baseDN string, scope Scope, _ ReadOptions, fn func(*Entry) error) error {
	base := NormalizeDN(baseDN)
	prefix := []byte(entryKey(base))

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var entry *Entry
			if err := it.Item().Value(func(val []byte) error {
				var err error
				entry, err = decodeEntry(val)
				return err
			}); err != nil {
				return err
			}

			if !InScope(NormalizeDN(entry.DN), base, scope) {
				continue
			}
			if err := fn(entry); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrStoreClosed
	}
	return err
}

// CacheLen returns the number of cached entries.
func (s *BadgerStore) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if s.cache != nil {
		s.cache.Purge()
	}
	return s.db.Close()
}

// entryKey maps a DN to its record key: the normalized RDNs in reverse
// order, so "uid=a,ou=people,dc=example" becomes "dn/dc=example,ou=people,uid=a".
func entryKey(dn string) string {
	rdns := splitDN(NormalizeDN(dn))
	for i, j := 0, len(rdns)-1; i < j; i, j = i+1, j-1 {
		rdns[i], rdns[j] = rdns[j], rdns[i]
	}
	return entryKeyPrefix + strings.Join(rdns, ",")
}

func decodeEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("backend: decode entry: %w", err)
	}
	if e.Attributes == nil {
		e.Attributes = make(map[string][]string)
	}
	return &e, nil
}

func wrapStoreError(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrStoreClosed
	}
	return fmt.Errorf("%w: %v", ErrStorageError, err)
}

var _ Store = (*BadgerStore)(nil)
