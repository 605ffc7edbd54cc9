package config

import (
	"fmt"

	"github.com/KilimcininKorOglu/automember/internal/automember"
)

// OverlayConfig converts the section into the overlay's configuration. The
// named fields are applied first, then each directive line in order.
func (a AutomemberConfig) OverlayConfig() (automember.Config, error) {
	cfg := automember.Config{
		MemberObjectClass:   a.MemberObjectClass,
		SynthTemplate:       a.SynthTemplate,
		MemberOfObjectClass: a.MemberOfObjectClass,
		SourceAttribute:     a.SourceAttribute,
		MemberAttribute:     a.MemberAttribute,
		MemberOfAttribute:   a.MemberOfAttribute,
		UIDAttribute:        a.UIDAttribute,
	}
	if a.Mode != "" {
		mode, err := automember.ParseMode(a.Mode)
		if err != nil {
			return cfg, fmt.Errorf("automember.mode: %w", err)
		}
		cfg.Mode = mode
	}

	for i, line := range a.Directives {
		var err error
		if cfg, err = cfg.WithDirective(line); err != nil {
			return cfg, fmt.Errorf("automember.directives[%d]: %w", i, err)
		}
	}
	return cfg, nil
}
