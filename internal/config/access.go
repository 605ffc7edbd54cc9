package config

import (
	"fmt"

	"github.com/KilimcininKorOglu/automember/internal/acl"
	"github.com/KilimcininKorOglu/automember/internal/backend"
)

// ACL converts the section into an access control configuration.
func (a AccessConfig) ACL() (*acl.Config, error) {
	cfg := acl.NewConfig()
	if a.DefaultPolicy != "" {
		cfg.SetDefaultPolicy(a.DefaultPolicy)
	}

	for i, r := range a.Rules {
		scope, err := backend.ParseScope(r.Scope)
		if err != nil {
			return nil, fmt.Errorf("access.rules[%d].scope: %w", i, err)
		}
		rights, err := acl.ParseRights(r.Rights)
		if err != nil {
			return nil, fmt.Errorf("access.rules[%d].rights: %w", i, err)
		}
		cfg.AddRule(acl.NewACL(r.Target, r.Subject, rights).WithScope(scope).WithDeny(r.Deny))
	}
	return cfg, nil
}
