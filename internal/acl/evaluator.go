package acl

import (
	"sync/atomic"
)

// Evaluator checks access against a Config. The configuration can be
// swapped while checks are running.
type Evaluator struct {
	config atomic.Pointer[Config]
}

// NewEvaluator creates an evaluator. A nil config denies everything.
func NewEvaluator(config *Config) *Evaluator {
	e := &Evaluator{}
	e.SetConfig(config)
	return e
}

// SetConfig replaces the active configuration.
func (e *Evaluator) SetConfig(config *Config) {
	if config == nil {
		config = NewConfig()
	}
	e.config.Store(config)
}

// Config returns the active configuration.
func (e *Evaluator) Config() *Config {
	return e.config.Load()
}

// CheckAccess reports whether bindDN holds right on targetDN. The first
// matching rule decides.
func (e *Evaluator) CheckAccess(bindDN, targetDN string, right Right) bool {
	cfg := e.config.Load()
	for _, rule := range cfg.Rules {
		if !matchesTarget(rule, targetDN) || !matchesSubject(rule, bindDN, targetDN) {
			continue
		}
		if !rule.Rights.Has(right) {
			continue
		}
		return !rule.Deny
	}
	return cfg.IsDefaultAllow()
}

// CanRead reports whether bindDN may see targetDN in search results.
func (e *Evaluator) CanRead(bindDN, targetDN string) bool {
	return e.CheckAccess(bindDN, targetDN, Read)
}
