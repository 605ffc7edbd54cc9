package config

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Logging: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Directory: DirectoryConfig{
			Suffix: "dc=example,dc=com",
		},
		Storage: StorageConfig{
			Backend:   BackendMemory,
			Path:      "/var/lib/automember",
			CacheSize: 1024,
		},
		Access: AccessConfig{
			DefaultPolicy: "allow",
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
	}
}
