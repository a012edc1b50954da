package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ReferenceError reports an identity or name that does not resolve to an
// existing record. Field names the attribute that carried the reference.
type ReferenceError struct {
	Entity EntityType
	Field  string
	ID     int64
	Key    string
}

func (e ReferenceError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s %q does not exist", e.Entity, e.Field, e.Key)
	}
	return fmt.Sprintf("%s %s %d does not exist", e.Entity, e.Field, e.ID)
}

// NotFoundError is returned when an operation targets an identity that is
// not present in the store.
type NotFoundError struct {
	Entity EntityType
	ID     int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// AmbiguousLookupError is returned when a name lookup matches more than one
// record.
type AmbiguousLookupError struct {
	Entity  EntityType
	Key     string
	Matches []int64
}

func (e AmbiguousLookupError) Error() string {
	ids := make([]string, 0, len(e.Matches))
	for _, id := range e.Matches {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return fmt.Sprintf("%s %q is ambiguous: matches ids %s", e.Entity, e.Key, strings.Join(ids, ","))
}

// ValidationError reports an unknown field or a value that does not fit the
// field it targets.
type ValidationError struct {
	Entity EntityType
	Field  string
	Value  any
	Reason string
}

func (e ValidationError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s.%s %v: %s", e.Entity, e.Field, e.Value, e.Reason)
}

// ConflictError is returned by deletes under DeleteRestrict while dependent
// enrollments still reference the record.
type ConflictError struct {
	Entity     EntityType
	ID         int64
	Dependents int
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s %d still referenced by %d enrollment(s)", e.Entity, e.ID, e.Dependents)
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return fmt.Sprintf("transaction blocked by rules: %s: %s", v.Rule, v.Message)
		}
	}
	return "transaction blocked by rules"
}
