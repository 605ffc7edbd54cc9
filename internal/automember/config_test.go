package automember

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/automember/internal/schema"
)

func TestSetDirective(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ov.SetDirective(DirectiveMemberObjectClass, "posixGroup"))
	require.NoError(t, f.ov.SetDirective(DirectiveSynthTemplate, peopleTmpl))
	require.NoError(t, f.ov.SetDirective(DirectiveMemberOfObjectClass, "PosixAccount"))

	snap := f.ov.Snapshot()
	require.NotNil(t, snap)
	assert.Same(t, f.schema.GetObjectClass("posixGroup"), snap.Forward.Class)
	assert.Same(t, f.schema.GetObjectClass("posixAccount"), snap.Reverse.Class)
	assert.Equal(t, peopleTmpl, snap.Template.String())
	assert.Same(t, f.schema.GetAttributeType("memberUid"), snap.Source)
	assert.Same(t, f.schema.GetAttributeType("member"), snap.Member)
	assert.Same(t, f.schema.GetAttributeType("memberOf"), snap.MemberOf)
	assert.Same(t, f.schema.GetAttributeType("uid"), snap.UID)
	assert.Equal(t, ModeResponse, snap.Mode)
}

func TestSetDirectiveErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: DirectiveMemberObjectClass, args: nil, wantErr: ErrDirectiveArity},
		{name: DirectiveMemberObjectClass, args: []string{"a", "b"}, wantErr: ErrDirectiveArity},
		{name: DirectiveSynthTemplate, args: nil, wantErr: ErrDirectiveArity},
		{name: DirectiveMemberObjectClass, args: []string{"noSuchClass"}, wantErr: ErrUnknownObjectClass},
		{name: DirectiveMemberOfObjectClass, args: []string{"noSuchClass"}, wantErr: ErrUnknownObjectClass},
		{name: DirectiveSourceAttribute, args: []string{"noSuchAttr"}, wantErr: ErrUnknownAttribute},
		{name: DirectiveUIDAttribute, args: []string{"noSuchAttr"}, wantErr: ErrUnknownAttribute},
		{name: DirectiveMode, args: []string{"sometimes"}, wantErr: ErrUnknownMode},
		{name: "automember-bogus", args: []string{"x"}, wantErr: ErrUnknownDirective},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.configureDefault("response")
			before := f.ov.Snapshot()

			err := f.ov.SetDirective(tt.name, tt.args...)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr != ErrUnknownDirective {
				assert.Contains(t, err.Error(), tt.name, "errors name the directive")
			}
			assert.Same(t, before, f.ov.Snapshot(), "a rejected directive leaves the configuration untouched")
		})
	}
}

func TestConfigureLine(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ov.Configure(""))
	require.NoError(t, f.ov.Configure("# comment"))
	require.NoError(t, f.ov.Configure(`automember-synth-template "cn={} \"x\",dc=example"`))
	assert.Equal(t, `cn={} "x",dc=example`, f.ov.Snapshot().Template.String())

	require.NoError(t, f.ov.Configure("  automember-member-objectclass\tposixGroup  "))
	assert.True(t, f.ov.Snapshot().Forward.Enabled())

	assert.ErrorIs(t, f.ov.Configure(`automember-synth-template "unterminated`), ErrDirectiveArity)
	assert.ErrorIs(t, f.ov.Configure("automember-member-objectclass"), ErrDirectiveArity)
}

func TestSplitDirective(t *testing.T) {
	tests := []struct {
		line string
		name string
		args []string
	}{
		{line: "a b c", name: "a", args: []string{"b", "c"}},
		{line: `a "b c"`, name: "a", args: []string{"b c"}},
		{line: `a ""`, name: "a", args: []string{""}},
		{line: `a "x\\y"`, name: "a", args: []string{`x\y`}},
		{line: "   ", name: ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			name, args, err := SplitDirective(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			if len(tt.args) > 0 {
				assert.Equal(t, tt.args, args)
			} else {
				assert.Empty(t, args)
			}
		})
	}
}

func TestDirectivesRoundTrip(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.ov.Directives(), "defaults are not emitted")

	f.configureDefault("both")
	f.configure("automember-uid-attribute userid")

	lines := f.ov.Directives()
	assert.Equal(t, []string{
		"automember-member-objectclass posixGroup",
		DirectiveSynthTemplate + " " + peopleTmpl,
		"automember-memberof-objectclass posixAccount",
		"automember-uid-attribute userid",
		"automember-mode both",
	}, lines)

	g := newFixture(t)
	for _, line := range lines {
		require.NoError(t, g.ov.Configure(line))
	}
	assert.Equal(t, f.ov.Snapshot().Config(), g.ov.Snapshot().Config())
	assert.Same(t, g.schema.GetAttributeType("uid"), g.ov.Snapshot().UID, "alias resolves to the same type")
}

func TestApply(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ov.Apply(Config{MemberObjectClass: "posixGroup", Mode: ModeSearch}))
	snap := f.ov.Snapshot()
	assert.True(t, snap.Template.IsIdentity(), "the template defaults to {}")
	assert.Equal(t, ModeSearch, snap.Mode)
	assert.False(t, snap.Reverse.Enabled())

	err := f.ov.Apply(Config{MemberObjectClass: "posixGroup", MemberAttribute: "nope"})
	assert.ErrorIs(t, err, ErrUnknownAttribute)
	assert.Same(t, snap, f.ov.Snapshot())

	assert.ErrorIs(t, f.ov.Apply(Config{Mode: Mode(9)}), ErrUnknownMode)
}

func TestReverseWithoutForwardWarns(t *testing.T) {
	f := newFixture(t)
	f.configure("automember-memberof-objectclass posixAccount")

	assert.Contains(t, f.logs.String(), "reverse synthesis disabled")

	rep := f.respond(aliceDN, []string{"memberOf"})
	assert.False(t, rep.Entry.HasAttribute("memberOf"))
	assert.Zero(t, f.host.searches)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeResponse, "Response": ModeResponse, "search": ModeSearch, "BOTH": ModeBoth} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("never")
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Equal(t, "unknown", Mode(7).String())
}

func TestConfigWithDirective(t *testing.T) {
	cfg, err := Config{}.WithDirective("automember-member-objectclass posixGroup")
	require.NoError(t, err)
	cfg, err = cfg.WithDirective("  # comment")
	require.NoError(t, err)
	cfg, err = cfg.WithDirective(`automember-synth-template "` + peopleTmpl + `"`)
	require.NoError(t, err)

	assert.Equal(t, Config{MemberObjectClass: "posixGroup", SynthTemplate: peopleTmpl}, cfg)

	_, err = cfg.WithDirective("automember-bogus x")
	assert.ErrorIs(t, err, ErrUnknownDirective)
}

func TestCheck(t *testing.T) {
	s := schema.LoadDefaultSchema()
	require.NoError(t, Initialize(s))

	assert.NoError(t, Check(s, Config{MemberObjectClass: "posixGroup"}))
	assert.ErrorIs(t, Check(s, Config{MemberObjectClass: "nosuchClass"}), ErrUnknownObjectClass)
	assert.ErrorIs(t, Check(s, Config{UIDAttribute: "nosuchAttr"}), ErrUnknownAttribute)
}
