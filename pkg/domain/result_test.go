package domain

import (
	"context"
	"errors"
	"testing"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock, Message: "no"}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	err := RuleViolationError{Result: result}
	if err.Error() != "transaction blocked by rules: block: no" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
}

func TestRulesEngineEvaluate(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"warn"})
	engine.Register(staticRule{"other"})
	res, err := engine.Evaluate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected two violations, got %d", len(res.Violations))
	}
	if names := engine.Rules(); len(names) != 2 || names[0] != "warn" || names[1] != "other" {
		t.Fatalf("unexpected rule order %v", names)
	}
}

func TestRulesEngineEvaluateStopsOnError(t *testing.T) {
	engine := NewRulesEngine()
	boom := errors.New("boom")
	engine.Register(failingRule{err: boom})
	engine.Register(staticRule{"never"})
	if _, err := engine.Evaluate(context.Background(), nil, nil); !errors.Is(err, boom) {
		t.Fatalf("expected rule error, got %v", err)
	}
}

func TestRegisterReplacesRuleWithSameName(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"a"})
	engine.Register(staticRule{"b"})
	engine.Register(staticRule{"a"})
	engine.Register(nil)
	if names := engine.Rules(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected rules %v", names)
	}
}

func TestEvaluateAttributesAnonymousViolations(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(anonymousRule{})
	res, err := engine.Evaluate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Rule != "anonymous" {
		t.Fatalf("expected violation attributed to anonymous, got %+v", res.Violations)
	}
}

func TestWrittenSkipsDeletesAndOtherKinds(t *testing.T) {
	changes := []Change{
		{Entity: EntityStudent, Action: ActionCreate, After: Student{ID: 1, Name: "Ali"}},
		{Entity: EntityCourse, Action: ActionCreate, After: Course{ID: 1}},
		{Entity: EntityStudent, Action: ActionDelete, Before: Student{ID: 2}},
		{Entity: EntityStudent, Action: ActionUpdate, After: Student{ID: 3, Name: "Sara"}},
	}
	var ids []int64
	for s := range Written[Student](changes) {
		ids = append(ids, s.ID)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("unexpected written students %v", ids)
	}
}

type anonymousRule struct{}

func (anonymousRule) Name() string { return "anonymous" }

func (anonymousRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{Violations: []Violation{{Severity: SeverityLog}}}, nil
}

type staticRule struct{ name string }

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{Violations: []Violation{{Rule: r.name, Severity: SeverityWarn}}}, nil
}

type failingRule struct{ err error }

func (failingRule) Name() string { return "failing" }

func (r failingRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{}, r.err
}
