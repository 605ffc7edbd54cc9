package acl

import (
	"errors"
	"fmt"

	"github.com/KilimcininKorOglu/automember/internal/backend"
)

// ErrInvalidConfig is wrapped by configuration errors.
var ErrInvalidConfig = errors.New("acl: invalid configuration")

// ValidateConfig validates an ACL configuration.
// Returns a slice of errors found during validation.
func ValidateConfig(config *Config) []error {
	var errs []error

	if config == nil {
		return []error{fmt.Errorf("%w: config is nil", ErrInvalidConfig)}
	}

	policy := config.DefaultPolicy
	if policy != "" && policy != "allow" && policy != "deny" {
		errs = append(errs, fmt.Errorf("%w: defaultPolicy %q must be allow or deny", ErrInvalidConfig, policy))
	}

	for i, rule := range config.Rules {
		if rule == nil {
			errs = append(errs, fmt.Errorf("%w: rule %d is nil", ErrInvalidConfig, i))
			continue
		}
		if rule.Target == "" {
			errs = append(errs, fmt.Errorf("%w: rule %d: target is required", ErrInvalidConfig, i))
		}
		if rule.Subject == "" {
			errs = append(errs, fmt.Errorf("%w: rule %d: subject is required", ErrInvalidConfig, i))
		}
		if rule.Rights == 0 {
			errs = append(errs, fmt.Errorf("%w: rule %d: at least one right is required", ErrInvalidConfig, i))
		}
		if rule.Scope < backend.ScopeBase || rule.Scope > backend.ScopeSubtree {
			errs = append(errs, fmt.Errorf("%w: rule %d: invalid scope %d", ErrInvalidConfig, i, rule.Scope))
		}
	}

	return errs
}
