package config

// Config holds the complete configuration.
type Config struct {
	Logging    LogConfig        `yaml:"logging"`
	Directory  DirectoryConfig  `yaml:"directory"`
	Storage    StorageConfig    `yaml:"storage"`
	Schema     SchemaConfig     `yaml:"schema"`
	Automember AutomemberConfig `yaml:"automember"`
	Access     AccessConfig     `yaml:"access"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
	Output string `yaml:"output" validate:"required"`
}

// DirectoryConfig names the database served.
type DirectoryConfig struct {
	Suffix string `yaml:"suffix" validate:"required"`
	RootDN string `yaml:"rootDN"`
}

// Storage backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// StorageConfig holds entry store configuration.
type StorageConfig struct {
	Backend    string `yaml:"backend" validate:"oneof=memory badger"`
	Path       string `yaml:"path"`
	CacheSize  int    `yaml:"cacheSize" validate:"gte=0"`
	SyncWrites bool   `yaml:"syncWrites"`

	// LDIF is loaded into an empty store at startup.
	LDIF string `yaml:"ldif"`
}

// SchemaConfig lists schema files loaded on top of the built-in schema.
type SchemaConfig struct {
	Files []string `yaml:"files" validate:"dive,required"`
}

// AutomemberConfig configures the overlay. Each field maps to one
// directive; Directives are applied after the fields.
type AutomemberConfig struct {
	MemberObjectClass   string   `yaml:"memberObjectClass"`
	SynthTemplate       string   `yaml:"synthTemplate"`
	MemberOfObjectClass string   `yaml:"memberOfObjectClass"`
	SourceAttribute     string   `yaml:"sourceAttribute"`
	MemberAttribute     string   `yaml:"memberAttribute"`
	MemberOfAttribute   string   `yaml:"memberOfAttribute"`
	UIDAttribute        string   `yaml:"uidAttribute"`
	Mode                string   `yaml:"mode" validate:"omitempty,oneof=response search both"`
	Directives          []string `yaml:"directives"`
}

// AccessConfig holds the read access rules applied to non-root searches.
type AccessConfig struct {
	DefaultPolicy string             `yaml:"defaultPolicy" validate:"oneof=allow deny"`
	Rules         []AccessRuleConfig `yaml:"rules" validate:"dive"`
}

// AccessRuleConfig holds a single access rule.
type AccessRuleConfig struct {
	Target  string   `yaml:"target" validate:"required"`
	Scope   string   `yaml:"scope" validate:"omitempty,oneof=base one onelevel sub subtree"`
	Subject string   `yaml:"subject" validate:"required"`
	Rights  []string `yaml:"rights" validate:"min=1"`
	Deny    bool     `yaml:"deny"`
}

// MetricsConfig holds the Prometheus endpoint configuration. An empty
// address disables the endpoint.
type MetricsConfig struct {
	Address string `yaml:"address" validate:"omitempty,hostname_port"`
	Path    string `yaml:"path" validate:"omitempty,startswith=/"`
}
