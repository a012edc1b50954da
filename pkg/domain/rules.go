package domain

import (
	"context"
	"iter"
	"slices"
)

// RuleView provides read-only access to domain entities for rule evaluation.
type RuleView = TransactionView

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends rule, or replaces a registered rule of the same name in
// place so enabling a rule twice evaluates it once.
func (e *RulesEngine) Register(rule Rule) {
	if rule == nil {
		return
	}
	if i := slices.IndexFunc(e.rules, func(r Rule) bool { return r.Name() == rule.Name() }); i >= 0 {
		e.rules[i] = rule
		return
	}
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rule names in evaluation order.
func (e *RulesEngine) Rules() []string {
	names := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		names = append(names, r.Name())
	}
	return names
}

// Evaluate runs every rule in order and merges their violations. Violations
// that leave Rule empty are attributed to the rule that produced them.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		for i := range res.Violations {
			if res.Violations[i].Rule == "" {
				res.Violations[i].Rule = rule.Name()
			}
		}
		combined.Merge(res)
	}
	return combined, nil
}

// Written yields the post-write value of every create or update change whose
// After holds a T. Deletes are skipped.
func Written[T Student | Course | Enrollment](changes []Change) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, c := range changes {
			if c.Action == ActionDelete {
				continue
			}
			v, ok := c.After.(T)
			if !ok {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}
