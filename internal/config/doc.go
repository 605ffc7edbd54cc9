// Package config loads, validates and watches the automember configuration
// file.
//
// # Loading Configuration
//
//	cfg, err := config.LoadConfig("/etc/automember/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
//	    ...
//	}
//
// Missing keys keep the values from DefaultConfig.
//
// # Environment Variables
//
// ${VAR} and ${VAR:-default} are substituted before parsing:
//
//	storage:
//	  path: "${AUTOMEMBER_DATA:-/var/lib/automember}"
//
// # Example Configuration
//
//	logging:
//	  level: info
//	  format: text
//	  output: stderr
//
//	directory:
//	  suffix: "dc=example,dc=com"
//	  rootDN: "cn=admin,dc=example,dc=com"
//
//	storage:
//	  backend: badger
//	  path: /var/lib/automember
//	  cacheSize: 1024
//	  ldif: /etc/automember/seed.ldif
//
//	schema:
//	  files: [/etc/automember/nis.ldif]
//
//	automember:
//	  memberObjectClass: posixGroup
//	  synthTemplate: "uid={},ou=People,dc=example,dc=com"
//	  memberOfObjectClass: posixAccount
//	  mode: response
//	  directives:
//	    - automember-uid-attribute uid
//
//	metrics:
//	  address: ":9464"
//
// # Hot Reload
//
// ConfigWatcher follows the file with fsnotify and calls OnChange with the
// previous and the new configuration once writes settle. Files that fail
// to parse or validate are ignored and the previous configuration stays
// in effect.
package config
