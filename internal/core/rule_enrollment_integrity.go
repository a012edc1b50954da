package core

import (
	"context"
	"fmt"

	"registrar/pkg/domain"
)

// EnrollmentIntegrityRule re-checks enrollments written in the transaction:
// unresolved references block the commit and a repeated student/course pair
// is reported as a warning.
func EnrollmentIntegrityRule() domain.Rule {
	return enrollmentIntegrityRule{}
}

type enrollmentIntegrityRule struct{}

func (enrollmentIntegrityRule) Name() string { return "enrollment_integrity" }

func (enrollmentIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	// touched enrollments get the duplicate check; only those created or
	// re-pointed in this transaction need resolvable references, so orphans
	// kept by the orphan policy stay writable.
	touched := make(map[int64]struct{})
	repointed := make(map[int64]struct{})
	for _, change := range changes {
		if change.Entity != domain.EntityEnrollment || change.Action == domain.ActionDelete {
			continue
		}
		after, ok := change.After.(domain.Enrollment)
		if !ok {
			continue
		}
		touched[after.ID] = struct{}{}
		before, hadBefore := change.Before.(domain.Enrollment)
		if change.Action == domain.ActionCreate || !hadBefore ||
			before.StudentID != after.StudentID || before.CourseID != after.CourseID {
			repointed[after.ID] = struct{}{}
		}
	}
	if len(touched) == 0 {
		return res, nil
	}

	type pair struct{ student, course int64 }
	firstByPair := make(map[pair]int64)
	for e := range view.Enrollments() {
		p := pair{e.StudentID, e.CourseID}
		first, dup := firstByPair[p]
		if !dup {
			firstByPair[p] = e.ID
		}
		if _, ok := touched[e.ID]; !ok {
			continue
		}
		if _, ok := repointed[e.ID]; ok {
			if _, ok := view.FindStudent(e.StudentID); !ok {
				res.Violations = append(res.Violations, integrityViolation(domain.SeverityBlock, e.ID, fmt.Sprintf("enrollment %d references missing student %d", e.ID, e.StudentID)))
			}
			if _, ok := view.FindCourse(e.CourseID); !ok {
				res.Violations = append(res.Violations, integrityViolation(domain.SeverityBlock, e.ID, fmt.Sprintf("enrollment %d references missing course %d", e.ID, e.CourseID)))
			}
		}
		if dup {
			res.Violations = append(res.Violations, integrityViolation(domain.SeverityWarn, e.ID, fmt.Sprintf("student %d already enrolled in course %d by enrollment %d", e.StudentID, e.CourseID, first)))
		}
	}
	return res, nil
}

func integrityViolation(severity domain.Severity, id int64, msg string) domain.Violation {
	return domain.Violation{
		Rule:     "enrollment_integrity",
		Severity: severity,
		Message:  msg,
		Entity:   domain.EntityEnrollment,
		EntityID: id,
	}
}
