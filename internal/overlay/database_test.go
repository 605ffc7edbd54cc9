package overlay

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/automember/internal/backend"
	"github.com/KilimcininKorOglu/automember/internal/filter"
	"github.com/KilimcininKorOglu/automember/internal/schema"
)

const suffix = "dc=example,dc=com"

func newDatabase(t *testing.T, opts ...Option) *Database {
	t.Helper()
	store := backend.NewMemoryStore()
	ctx := context.Background()
	for _, e := range []*backend.Entry{
		newEntry(suffix, "objectClass", "domain", "dc", "example"),
		newEntry("ou=groups,"+suffix, "objectClass", "organizationalUnit", "ou", "groups"),
		newEntry("cn=admins,ou=groups,"+suffix, "objectClass", "posixGroup", "cn", "admins", "gidNumber", "1", "memberUid", "alice"),
		newEntry("cn=staff,ou=groups,"+suffix, "objectClass", "posixGroup", "cn", "staff", "gidNumber", "2", "memberUid", "alice", "memberUid", "bob"),
	} {
		require.NoError(t, store.Put(ctx, e))
	}
	return NewDatabase(suffix, backend.New(store, schema.LoadDefaultSchema(), nil), opts...)
}

func newEntry(dn string, kv ...string) *backend.Entry {
	e := backend.NewEntry(dn)
	for i := 0; i+1 < len(kv); i += 2 {
		e.MergeAttribute(kv[i], kv[i+1])
	}
	return e
}

type recorder struct {
	name   string
	log    *[]string
	search func(op *Operation)
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Search(_ context.Context, op *Operation) error {
	*r.log = append(*r.log, r.name+":search")
	if r.search != nil {
		r.search(op)
	}
	return nil
}

func (r *recorder) Response(_ context.Context, _ *Operation, rep *Reply) error {
	*r.log = append(*r.log, r.name+":"+rep.Type.String())
	return nil
}

func TestDatabaseSearchPipelineOrder(t *testing.T) {
	db := newDatabase(t)
	var log []string

	first := &recorder{name: "first", log: &log, search: func(op *Operation) {
		op.PushObserver(ObserverFunc(func(_ context.Context, _ *Operation, rep *Reply) error {
			log = append(log, "observer:"+rep.Type.String())
			return nil
		}))
	}}
	require.NoError(t, db.Use(first))
	require.NoError(t, db.Use(&recorder{name: "second", log: &log}))
	assert.ErrorIs(t, db.Use(&recorder{name: "first", log: &log}), ErrDuplicateOverlay)

	var got []string
	op := &Operation{Request: &backend.SearchRequest{BaseDN: "cn=admins,ou=groups," + suffix, Scope: backend.ScopeBase}}
	err := db.Search(context.Background(), op, func(rep *Reply) error {
		log = append(log, "sink:"+rep.Type.String())
		if rep.Type == ReplyEntry {
			got = append(got, rep.Entry.DN)
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"cn=admins,ou=groups," + suffix}, got)
	assert.Equal(t, []string{
		"first:search", "second:search",
		"observer:entry", "first:entry", "second:entry", "sink:entry",
		"observer:done", "first:done", "second:done", "sink:done",
	}, log)
}

func TestDatabaseSearchPreservesStoreOrder(t *testing.T) {
	db := newDatabase(t)

	var got []string
	op := &Operation{Request: &backend.SearchRequest{BaseDN: suffix, Scope: backend.ScopeSubtree}}
	require.NoError(t, db.Search(context.Background(), op, func(rep *Reply) error {
		if rep.Type == ReplyEntry {
			got = append(got, rep.Entry.DN)
		}
		return nil
	}))
	assert.Equal(t, []string{
		suffix,
		"ou=groups," + suffix,
		"cn=admins,ou=groups," + suffix,
		"cn=staff,ou=groups," + suffix,
	}, got)
}

func TestDatabaseObserverReplacementReachesSink(t *testing.T) {
	db := newDatabase(t)

	op := &Operation{Request: &backend.SearchRequest{BaseDN: "cn=admins,ou=groups," + suffix, Scope: backend.ScopeBase, Attributes: []string{"*", "+"}}}
	op.PushObserver(ObserverFunc(func(_ context.Context, _ *Operation, rep *Reply) error {
		if rep.Type == ReplyEntry {
			rep.EnsureModifiable().MergeAttribute("description", "tagged")
		}
		return nil
	}))

	var seen *backend.Entry
	require.NoError(t, db.Search(context.Background(), op, func(rep *Reply) error {
		if rep.Type == ReplyEntry {
			seen = rep.Entry.Clone()
			assert.True(t, rep.Modifiable())
			assert.NotNil(t, rep.Superseded())
		}
		return nil
	}))
	require.NotNil(t, seen)
	assert.Equal(t, []string{"tagged"}, seen.GetAttribute("description"))

	stored, err := db.Backend().Get(context.Background(), "cn=admins,ou=groups,"+suffix)
	require.NoError(t, err)
	assert.False(t, stored.HasAttribute("description"))
}

func TestDatabaseSearchErrors(t *testing.T) {
	db := newDatabase(t)
	ctx := context.Background()

	assert.ErrorIs(t, db.Search(ctx, &Operation{}, nil), ErrInvalidOperation)

	var done *Reply
	op := &Operation{Request: &backend.SearchRequest{BaseDN: "ou=none," + suffix, Scope: backend.ScopeSubtree}}
	err := db.Search(ctx, op, func(rep *Reply) error {
		if rep.Type == ReplyDone {
			done = &Reply{Type: rep.Type, Err: rep.Err}
		}
		return nil
	})
	assert.ErrorIs(t, err, backend.ErrNoSuchObject)
	require.NotNil(t, done)
	assert.ErrorIs(t, done.Err, backend.ErrNoSuchObject)

	stop := errors.New("client gone")
	op = &Operation{Request: &backend.SearchRequest{BaseDN: suffix, Scope: backend.ScopeSubtree}}
	assert.ErrorIs(t, db.Search(ctx, op, func(*Reply) error { return stop }), stop)
}

type denyGroups struct{}

func (denyGroups) CanRead(bindDN, targetDN string) bool {
	return !strings.HasPrefix(targetDN, "cn=")
}

func TestDatabaseAccessChecker(t *testing.T) {
	db := newDatabase(t, WithAccessChecker(denyGroups{}))
	ctx := context.Background()

	count := func(op *Operation) int {
		n := 0
		require.NoError(t, db.Search(ctx, op, func(rep *Reply) error {
			if rep.Type == ReplyEntry {
				n++
			}
			return nil
		}))
		return n
	}

	req := &backend.SearchRequest{BaseDN: suffix, Scope: backend.ScopeSubtree}
	assert.Equal(t, 2, count(&Operation{Request: req, BindDN: "uid=alice," + suffix}))
	assert.Equal(t, 4, count(&Operation{Request: req, Root: true}))
}

func TestDatabaseCollaborators(t *testing.T) {
	db := newDatabase(t, WithAccessChecker(denyGroups{}))
	ctx := context.Background()
	s := db.Schema()

	f, err := filter.Parse("(&(objectClass=posixGroup)(memberUid=alice))")
	require.NoError(t, err)
	dns, err := db.SearchDNs(ctx, &backend.SearchRequest{BaseDN: suffix, Scope: backend.ScopeSubtree, Filter: f, Attributes: []string{"1.1"}, NoCache: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"cn=admins,ou=groups," + suffix, "cn=staff,ou=groups," + suffix}, dns, "collaborators bypass access checks")

	e, err := db.EntryGet(ctx, "cn=staff,ou=groups,"+suffix, s.GetObjectClass("posixGroup"), s.GetAttributeType("memberUid"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, e.GetAttribute("memberUid"))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = db.SearchDNs(cctx, &backend.SearchRequest{Scope: backend.ScopeSubtree, Filter: f})
	assert.ErrorIs(t, err, context.Canceled)
}

type tagger struct {
	seen []string
}

func (t *tagger) Name() string { return "tagger" }

func (t *tagger) Response(_ context.Context, _ *Operation, rep *Reply) error {
	if rep.Type != ReplyEntry {
		return nil
	}
	t.seen = append(t.seen, rep.Entry.GetAttribute("objectClass")...)
	rep.EnsureModifiable().MergeAttribute("description", "tagged")
	return nil
}

func TestDatabaseProjectsAfterHooks(t *testing.T) {
	db := newDatabase(t)
	hook := &tagger{}
	require.NoError(t, db.Use(hook))

	search := func(attrs ...string) *backend.Entry {
		var out *backend.Entry
		op := &Operation{Request: &backend.SearchRequest{BaseDN: "cn=admins,ou=groups," + suffix, Scope: backend.ScopeBase, Attributes: attrs}}
		require.NoError(t, db.Search(context.Background(), op, func(rep *Reply) error {
			if rep.Type == ReplyEntry {
				out = rep.Entry.Clone()
			}
			return nil
		}))
		require.NotNil(t, out)
		return out
	}

	e := search("cn")
	assert.Equal(t, []string{"posixGroup"}, hook.seen, "hooks see the whole entry")
	assert.Equal(t, []string{"cn"}, e.AttributeNames())

	e = search("description")
	assert.Equal(t, []string{"description"}, e.AttributeNames())
	assert.Equal(t, []string{"tagged"}, e.GetAttribute("description"))

	e = search("1.1")
	assert.Empty(t, e.AttributeNames())

	e = search()
	assert.True(t, e.HasAttribute("memberUid"))
}
