package core

import "registrar/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set
// followed by any extra rules.
func NewDefaultRulesEngine(extra ...domain.Rule) *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(EnrollmentIntegrityRule())
	for _, rule := range extra {
		engine.Register(rule)
	}
	return engine
}
