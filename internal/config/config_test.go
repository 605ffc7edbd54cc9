package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/automember/internal/acl"
	"github.com/KilimcininKorOglu/automember/internal/automember"
	"github.com/KilimcininKorOglu/automember/internal/backend"
)

const sample = `
logging:
  level: debug
  format: json
directory:
  suffix: "dc=example,dc=org"
  rootDN: "cn=admin,dc=example,dc=org"
storage:
  backend: badger
  path: "${AUTOMEMBER_TEST_DATA:-/tmp/automember}"
automember:
  memberObjectClass: posixGroup
  synthTemplate: "uid={},ou=People,dc=example,dc=org"
  memberOfObjectClass: posixAccount
  mode: both
  directives:
    - automember-uid-attribute userid
metrics:
  address: ":9464"
`

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 1024, cfg.Storage.CacheSize)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Empty(t, ValidateConfig(cfg))
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output, "unset keys keep their default")
	assert.Equal(t, "dc=example,dc=org", cfg.Directory.Suffix)
	assert.Equal(t, "/tmp/automember", cfg.Storage.Path)
	assert.Equal(t, 1024, cfg.Storage.CacheSize)
	assert.Equal(t, []string{"automember-uid-attribute userid"}, cfg.Automember.Directives)
	assert.Empty(t, ValidateConfig(cfg))
}

func TestParseConfigEmpty(t *testing.T) {
	cfg, err := ParseConfig([]byte("  \n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfigRejectsUnknownKeys(t *testing.T) {
	_, err := ParseConfig([]byte("logging:\n  colour: red\n"))
	assert.ErrorIs(t, err, ErrInvalidYAML)

	_, err = ParseConfig([]byte("logging: [\n"))
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("AUTOMEMBER_SET", "value")
	t.Setenv("AUTOMEMBER_EMPTY", "")

	tests := []struct {
		in   string
		want string
	}{
		{"${AUTOMEMBER_SET}", "value"},
		{"${AUTOMEMBER_SET:-other}", "value"},
		{"${AUTOMEMBER_EMPTY:-fallback}", "fallback"},
		{"${AUTOMEMBER_UNSET_VARIABLE}", ""},
		{"a ${AUTOMEMBER_SET} b", "a value b"},
		{"${AUTOMEMBER_UNSET_VARIABLE:-}", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(substituteEnvVars([]byte(tt.in))), tt.in)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "posixGroup", cfg.Automember.MemberObjectClass)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, field: "logging.level"},
		{name: "log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, field: "logging.format"},
		{name: "log output", mutate: func(c *Config) { c.Logging.Output = "" }, field: "logging.output"},
		{name: "suffix required", mutate: func(c *Config) { c.Directory.Suffix = "" }, field: "directory.suffix"},
		{name: "suffix format", mutate: func(c *Config) { c.Directory.Suffix = "example.com" }, field: "directory.suffix"},
		{name: "root dn format", mutate: func(c *Config) { c.Directory.RootDN = "admin" }, field: "directory.rootDN"},
		{name: "storage backend", mutate: func(c *Config) { c.Storage.Backend = "bolt" }, field: "storage.backend"},
		{name: "cache size", mutate: func(c *Config) { c.Storage.CacheSize = -1 }, field: "storage.cacheSize"},
		{name: "badger path", mutate: func(c *Config) { c.Storage.Backend = BackendBadger; c.Storage.Path = "" }, field: "storage.path"},
		{name: "seed file", mutate: func(c *Config) { c.Storage.LDIF = "/nonexistent/seed.ldif" }, field: "storage.ldif"},
		{name: "schema file", mutate: func(c *Config) { c.Schema.Files = []string{"/nonexistent/nis.ldif"} }, field: "schema.files[0]"},
		{name: "mode", mutate: func(c *Config) { c.Automember.Mode = "always" }, field: "automember.mode"},
		{name: "directive", mutate: func(c *Config) { c.Automember.Directives = []string{"automember-nope x"} }, field: "automember.directives[0]"},
		{name: "access policy", mutate: func(c *Config) { c.Access.DefaultPolicy = "maybe" }, field: "access.defaultPolicy"},
		{name: "access rule target", mutate: func(c *Config) {
			c.Access.Rules = []AccessRuleConfig{{Subject: "*", Rights: []string{"read"}}}
		}, field: "access.rules[0].target"},
		{name: "access rule rights", mutate: func(c *Config) {
			c.Access.Rules = []AccessRuleConfig{{Target: "*", Subject: "*", Rights: []string{"write"}}}
		}, field: "access.rules[0].rights"},
		{name: "access rule empty rights", mutate: func(c *Config) {
			c.Access.Rules = []AccessRuleConfig{{Target: "*", Subject: "*"}}
		}, field: "access.rules[0].rights"},
		{name: "metrics address", mutate: func(c *Config) { c.Metrics.Address = "nope" }, field: "metrics.address"},
		{name: "metrics path", mutate: func(c *Config) { c.Metrics.Path = "metrics" }, field: "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			errs := ValidateConfig(cfg)
			require.NotEmpty(t, errs)

			var fields []string
			for _, err := range errs {
				var ve ValidationError
				require.True(t, errors.As(err, &ve), "%v", err)
				fields = append(fields, ve.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestOverlayConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sample))
	require.NoError(t, err)

	oc, err := cfg.Automember.OverlayConfig()
	require.NoError(t, err)
	assert.Equal(t, automember.Config{
		MemberObjectClass:   "posixGroup",
		SynthTemplate:       "uid={},ou=People,dc=example,dc=org",
		MemberOfObjectClass: "posixAccount",
		UIDAttribute:        "userid",
		Mode:                automember.ModeBoth,
	}, oc)

	_, err = AutomemberConfig{Mode: "never"}.OverlayConfig()
	assert.ErrorIs(t, err, automember.ErrUnknownMode)

	_, err = AutomemberConfig{Directives: []string{"automember-mode"}}.OverlayConfig()
	assert.ErrorIs(t, err, automember.ErrDirectiveArity)
}

func TestConfigWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600))

	var mu sync.Mutex
	var changes [][2]*Config
	w, err := NewConfigWatcher(&WatcherConfig{
		FilePath: path,
		Debounce: 20 * time.Millisecond,
		OnChange: func(oldCfg, newCfg *Config) {
			mu.Lock()
			defer mu.Unlock()
			changes = append(changes, [2]*Config{oldCfg, newCfg})
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "info", w.GetCurrentConfig().Logging.Level)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	assert.True(t, w.IsRunning())

	// Invalid content is ignored.
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o600))
	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	assert.Empty(t, changes)
	mu.Unlock()

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "info", changes[0][0].Logging.Level)
	assert.Equal(t, "debug", changes[0][1].Logging.Level)
	mu.Unlock()
	assert.Equal(t, "debug", w.GetCurrentConfig().Logging.Level)

	w.Stop()
	assert.False(t, w.IsRunning())
}

func TestNewConfigWatcherErrors(t *testing.T) {
	_, err := NewConfigWatcher(&WatcherConfig{OnChange: func(_, _ *Config) {}})
	assert.ErrorIs(t, err, ErrMissingConfigFile)

	_, err = NewConfigWatcher(&WatcherConfig{FilePath: "x.yaml"})
	assert.ErrorIs(t, err, ErrMissingOnChange)

	_, err = NewConfigWatcher(&WatcherConfig{FilePath: filepath.Join(t.TempDir(), "none.yaml"), OnChange: func(_, _ *Config) {}})
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestAccessConfigACL(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
access:
  defaultPolicy: deny
  rules:
    - target: "ou=People,dc=example,dc=com"
      scope: one
      subject: authenticated
      rights: [read]
    - target: "*"
      subject: self
      rights: [read, search]
      deny: true
`))
	require.NoError(t, err)
	require.Empty(t, ValidateConfig(cfg))

	ac, err := cfg.Access.ACL()
	require.NoError(t, err)
	assert.False(t, ac.IsDefaultAllow())
	require.Len(t, ac.Rules, 2)
	assert.Equal(t, backend.ScopeOneLevel, ac.Rules[0].Scope)
	assert.Equal(t, acl.Read|acl.Search, ac.Rules[1].Rights)
	assert.True(t, ac.Rules[1].Deny)

	_, err = AccessConfig{Rules: []AccessRuleConfig{{Target: "*", Subject: "*", Scope: "children", Rights: []string{"read"}}}}.ACL()
	assert.ErrorIs(t, err, backend.ErrInvalidScope)
}
