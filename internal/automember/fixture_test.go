package automember

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/automember/internal/backend"
	"github.com/KilimcininKorOglu/automember/internal/logging"
	"github.com/KilimcininKorOglu/automember/internal/overlay"
	"github.com/KilimcininKorOglu/automember/internal/schema"
)

const (
	suffix       = "dc=example,dc=com"
	peopleTmpl   = "uid={},ou=People,dc=example,dc=com"
	adminsDN     = "cn=admins,ou=Groups,dc=example,dc=com"
	staffDN      = "cn=staff,ou=Groups,dc=example,dc=com"
	emptyGroupDN = "cn=empty,ou=Groups,dc=example,dc=com"
	aliceDN      = "uid=alice,ou=People,dc=example,dc=com"
	bobDN        = "uid=bob,ou=People,dc=example,dc=com"
	carolDN      = "uid=carol,ou=People,dc=example,dc=com"
	noUIDDN      = "cn=svc,ou=People,dc=example,dc=com"
	multiUIDDN   = "cn=multi,ou=People,dc=example,dc=com"
)

// countingHost wraps a Database and counts collaborator calls.
type countingHost struct {
	*overlay.Database

	mu        sync.Mutex
	reads     int
	searches  int
	lastReq   *backend.SearchRequest
	readErr   error
	searchErr error
}

func (h *countingHost) EntryGet(ctx context.Context, dn string, oc *schema.ObjectClass, at *schema.AttributeType) (*backend.Entry, error) {
	h.mu.Lock()
	h.reads++
	err := h.readErr
	h.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return h.Database.EntryGet(ctx, dn, oc, at)
}

func (h *countingHost) SearchDNs(ctx context.Context, req *backend.SearchRequest) ([]string, error) {
	h.mu.Lock()
	h.searches++
	h.lastReq = req
	err := h.searchErr
	h.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return h.Database.SearchDNs(ctx, req)
}

type fixture struct {
	t      *testing.T
	schema *schema.Schema
	store  *backend.MemoryStore
	db     *overlay.Database
	host   *countingHost
	ov     *Overlay
	logs   *bytes.Buffer
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	s := schema.LoadDefaultSchema()
	require.NoError(t, Initialize(s))

	store := backend.NewMemoryStore()
	ctx := context.Background()
	for _, e := range []*backend.Entry{
		newEntry(suffix, "objectClass", "domain", "dc", "example"),
		newEntry("ou=People,"+suffix, "objectClass", "organizationalUnit", "ou", "People"),
		newEntry("ou=Groups,"+suffix, "objectClass", "organizationalUnit", "ou", "Groups"),
		newEntry(aliceDN, "objectClass", "inetOrgPerson", "objectClass", "posixAccount", "uid", "alice", "cn", "Alice", "sn", "A"),
		newEntry(bobDN, "objectClass", "inetOrgPerson", "objectClass", "posixAccount", "uid", "bob", "cn", "Bob", "sn", "B"),
		newEntry(carolDN, "objectClass", "inetOrgPerson", "objectClass", "posixAccount", "uid", "carol", "cn", "Carol", "sn", "C"),
		newEntry(noUIDDN, "objectClass", "posixAccount", "cn", "svc"),
		newEntry(multiUIDDN, "objectClass", "posixAccount", "cn", "multi", "uid", "m1", "uid", "m2"),
		newEntry(adminsDN, "objectClass", "posixGroup", "cn", "admins", "gidNumber", "1000", "memberUid", "alice"),
		newEntry(staffDN, "objectClass", "posixGroup", "cn", "staff", "gidNumber", "1001", "memberUid", "alice", "memberUid", "bob"),
		newEntry(emptyGroupDN, "objectClass", "posixGroup", "cn", "empty", "gidNumber", "1002"),
	} {
		require.NoError(t, store.Put(ctx, e))
	}

	logs := &bytes.Buffer{}
	logger := logging.New(logging.Config{Level: "debug", Format: "text", Writer: logs})

	db := overlay.NewDatabase(suffix, backend.New(store, s, logger), overlay.WithLogger(logger))
	host := &countingHost{Database: db}
	ov := New(host, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, db.Use(ov))

	return &fixture{t: t, schema: s, store: store, db: db, host: host, ov: ov, logs: logs}
}

func newEntry(dn string, kv ...string) *backend.Entry {
	e := backend.NewEntry(dn)
	for i := 0; i+1 < len(kv); i += 2 {
		e.MergeAttribute(kv[i], kv[i+1])
	}
	return e
}

func (f *fixture) configure(lines ...string) {
	f.t.Helper()
	for _, line := range lines {
		require.NoError(f.t, f.ov.Configure(line), line)
	}
}

// configureDefault enables forward and reverse synthesis with the People
// template.
func (f *fixture) configureDefault(mode string) {
	f.t.Helper()
	f.configure(
		"automember-member-objectclass posixGroup",
		`automember-synth-template "`+peopleTmpl+`"`,
		"automember-memberof-objectclass posixAccount",
		"automember-mode "+mode,
	)
}

// reply builds the reply response hooks see for dn: the whole stored entry,
// shared with the store.
func (f *fixture) reply(dn string, attrs []string) (*overlay.Operation, *overlay.Reply) {
	f.t.Helper()
	stored, err := f.store.Get(context.Background(), dn, backend.ReadOptions{})
	require.NoError(f.t, err)

	op := &overlay.Operation{Request: &backend.SearchRequest{BaseDN: dn, Scope: backend.ScopeBase, Attributes: attrs}}
	return op, overlay.NewEntryReply(stored, true)
}

// replyWithout builds a reply whose entry an earlier stage already stripped
// of the dropped attributes.
func (f *fixture) replyWithout(dn string, attrs []string, drop ...string) (*overlay.Operation, *overlay.Reply) {
	f.t.Helper()
	op, rep := f.reply(dn, attrs)
	e := rep.Entry.Clone()
	for _, name := range drop {
		e.DeleteAttribute(name)
	}
	return op, overlay.NewEntryReply(e, false)
}

// respond runs the response hook on dn's reply.
func (f *fixture) respond(dn string, attrs []string) *overlay.Reply {
	f.t.Helper()
	op, rep := f.reply(dn, attrs)
	require.NoError(f.t, f.ov.Response(context.Background(), op, rep))
	return rep
}

// search runs a full pipeline search and returns copies of the entries.
func (f *fixture) search(base string, scope backend.Scope, attrs []string) []*backend.Entry {
	f.t.Helper()
	var out []*backend.Entry
	op := &overlay.Operation{Request: &backend.SearchRequest{BaseDN: base, Scope: scope, Attributes: attrs}}
	require.NoError(f.t, f.db.Search(context.Background(), op, func(rep *overlay.Reply) error {
		if rep.Type == overlay.ReplyEntry {
			out = append(out, rep.Entry.Clone())
		}
		return nil
	}))
	return out
}

func (f *fixture) storedUnchanged(dn string, attr string) {
	f.t.Helper()
	stored, err := f.store.Get(context.Background(), dn, backend.ReadOptions{})
	require.NoError(f.t, err)
	require.False(f.t, stored.HasAttribute(attr), "%s must never be written to the store", attr)
}
