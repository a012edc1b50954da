package core

import (
	"context"
	"fmt"

	"registrar/pkg/domain"
)

// UniqueNamesRule blocks writes that would give two students the same name or
// two courses the same title. Empty names are exempt.
func UniqueNamesRule() domain.Rule {
	return uniqueNamesRule{}
}

type uniqueNamesRule struct{}

func (uniqueNamesRule) Name() string { return "unique_names" }

func (uniqueNamesRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for after := range domain.Written[domain.Student](changes) {
		if after.Name == "" {
			continue
		}
		for other := range view.Students() {
			if other.ID != after.ID && other.Name == after.Name {
				res.Violations = append(res.Violations, uniqueViolation(domain.EntityStudent, after.ID, fmt.Sprintf("student name %q already used by student %d", after.Name, other.ID)))
				break
			}
		}
	}
	for after := range domain.Written[domain.Course](changes) {
		if after.Title == "" {
			continue
		}
		for other := range view.Courses() {
			if other.ID != after.ID && other.Title == after.Title {
				res.Violations = append(res.Violations, uniqueViolation(domain.EntityCourse, after.ID, fmt.Sprintf("course title %q already used by course %d", after.Title, other.ID)))
				break
			}
		}
	}
	return res, nil
}

func uniqueViolation(entity domain.EntityType, id int64, msg string) domain.Violation {
	return domain.Violation{
		Rule:     "unique_names",
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   entity,
		EntityID: id,
	}
}
