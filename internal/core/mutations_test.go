package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"registrar/internal/query"
	"registrar/pkg/domain"
)

func TestUpdateFieldValidatesKindFieldAndValue(t *testing.T) {
	svc, store := newSeededService(t, domain.DeleteCascade)
	m := svc.Mutations()
	ctx := context.Background()

	cases := []struct {
		name  string
		kind  EntityType
		id    int64
		field string
		value any
	}{
		{"text age", EntityStudent, 1, "age", "twenty"},
		{"fractional age", EntityStudent, 1, "age", 20.5},
		{"negative age", EntityStudent, 1, "age", -1},
		{"unknown student field", EntityStudent, 1, "nickname", "Al"},
		{"numeric name", EntityStudent, 1, "name", 7},
		{"text credits", EntityCourse, 1, "credits", "three"},
		{"numeric grade", EntityEnrollment, 1, "grade", 4},
		{"unknown kind", EntityType("lecturer"), 1, "name", "x"},
	}
	before := store.ExportState()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := m.UpdateField(ctx, tc.kind, tc.id, tc.field, tc.value)
			var valErr ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	assertSnapshotUnchanged(t, before, store.ExportState())
}

func TestUpdateFieldAppliesValues(t *testing.T) {
	svc, store := newSeededService(t, domain.DeleteCascade)
	m := svc.Mutations()
	ctx := context.Background()

	if err := m.UpdateField(ctx, EntityStudent, 1, "age", float64(21)); err != nil {
		t.Fatalf("update age from decoded JSON number: %v", err)
	}
	if err := m.UpdateField(ctx, EntityCourse, 2, "credits", json.Number("5")); err != nil {
		t.Fatalf("update credits from json.Number: %v", err)
	}
	if err := m.UpdateField(ctx, EntityEnrollment, 2, "grade", "A"); err != nil {
		t.Fatalf("update grade: %v", err)
	}
	if s, _ := store.GetStudent(1); s.Age != 21 {
		t.Fatalf("expected age 21, got %d", s.Age)
	}
	if c, _ := store.GetCourse(2); c.Credits != 5 {
		t.Fatalf("expected credits 5, got %d", c.Credits)
	}
	if e, _ := store.GetEnrollment(2); e.Grade != "A" {
		t.Fatalf("expected grade A, got %s", e.Grade)
	}
}

func TestUpdateFieldMissingIdentity(t *testing.T) {
	svc, _ := newSeededService(t, domain.DeleteCascade)
	err := svc.Mutations().UpdateField(context.Background(), EntityCourse, 99, "credits", 3)
	var nf NotFoundError
	if !errors.As(err, &nf) || nf.ID != 99 {
		t.Fatalf("expected not found for id 99, got %v", err)
	}
}

func TestUpdateFieldReferenceChecked(t *testing.T) {
	svc, store := newSeededService(t, domain.DeleteCascade)
	err := svc.Mutations().UpdateField(context.Background(), EntityEnrollment, 1, "course_id", int64(42))
	var refErr ReferenceError
	if !errors.As(err, &refErr) || refErr.Field != "course_id" {
		t.Fatalf("expected course reference error, got %v", err)
	}
	assertReferentialIntegrity(t, store)
}

func TestEnrollUnknownIdentityLeavesEnrollmentsUnchanged(t *testing.T) {
	svc, store := newSeededService(t, domain.DeleteCascade)
	m := svc.Mutations()
	ctx := context.Background()
	before := query.Count(store.Enrollments())

	for _, ids := range [][2]int64{{99, 1}, {1, 99}} {
		_, err := m.Enroll(ctx, ids[0], ids[1], "A")
		var refErr ReferenceError
		if !errors.As(err, &refErr) {
			t.Fatalf("expected reference error for %v, got %v", ids, err)
		}
	}
	if after := query.Count(store.Enrollments()); after != before {
		t.Fatalf("expected %d enrollments, got %d", before, after)
	}
}

func TestBulkUpdateWhereAcrossKinds(t *testing.T) {
	svc, store := newSeededService(t, domain.DeleteCascade)
	m := svc.Mutations()
	ctx := context.Background()

	n, err := BulkUpdateWhere(ctx, m, domain.All[Student](), domain.SetAge(30))
	if err != nil || n != 3 {
		t.Fatalf("expected 3 students changed, got %d err=%v", n, err)
	}
	n, err = BulkUpdateWhere(ctx, m, domain.CourseTitled("Programming"), func(c *Course) { c.Credits++ })
	if err != nil || n != 1 {
		t.Fatalf("expected 1 course changed, got %d err=%v", n, err)
	}
	if c, _ := store.GetCourse(1); c.Credits != 4 {
		t.Fatalf("expected Programming at 4 credits, got %d", c.Credits)
	}
	_, err = BulkUpdateWhere(ctx, m, domain.All[Student](), domain.SetAge(-1))
	var valErr ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for s := range store.Students() {
		if s.Age != 30 {
			t.Fatalf("expected rejected bulk update to leave age 30, got %d", s.Age)
		}
	}
}

func TestRemoveWhereStudentsCascades(t *testing.T) {
	svc, store := newSeededService(t, domain.DeleteCascade)
	n, err := RemoveWhere(context.Background(), svc.Mutations(), domain.StudentNamed("Sara"))
	if err != nil || n != 1 {
		t.Fatalf("expected one student removed, got %d err=%v", n, err)
	}
	if got := query.Count(store.Enrollments()); got != 4 {
		t.Fatalf("expected 4 enrollments, got %d", got)
	}
	assertReferentialIntegrity(t, store)
}

func TestBulkUpdateWhereIgnoresIdentityRewrites(t *testing.T) {
	svc, store := newSeededService(t, domain.DeleteCascade)
	before := store.ExportState()
	ctx := context.Background()

	n, err := BulkUpdateWhere(ctx, svc.Mutations(), domain.All[Student](), func(s *Student) { s.ID += 100 })
	if err != nil || n != 0 {
		t.Fatalf("expected identity-only mutation to change nothing, got %d err=%v", n, err)
	}
	n, err = BulkUpdateWhere(ctx, svc.Mutations(), domain.All[Enrollment](), func(e *Enrollment) { e.ID = 0 })
	if err != nil || n != 0 {
		t.Fatalf("expected identity-only enrollment mutation to change nothing, got %d err=%v", n, err)
	}
	assertSnapshotUnchanged(t, before, store.ExportState())
}

func TestWritesValidateCourseCredits(t *testing.T) {
	svc, store := newSeededService(t, domain.DeleteCascade)
	m := svc.Mutations()
	ctx := context.Background()
	before := store.ExportState()

	var valErr ValidationError
	_, err := BulkUpdateWhere(ctx, m, domain.All[Course](), func(c *Course) { c.Credits = -1 })
	if !errors.As(err, &valErr) || valErr.Field != "credits" {
		t.Fatalf("expected credits validation error from bulk update, got %v", err)
	}
	if err := m.UpdateField(ctx, EntityCourse, 1, "credits", -2); !errors.As(err, &valErr) {
		t.Fatalf("expected credits validation error from field update, got %v", err)
	}
	if _, err := m.AddCourse(ctx, "Negative", -3); !errors.As(err, &valErr) {
		t.Fatalf("expected credits validation error from add, got %v", err)
	}
	if _, err := svc.AddCourse(ctx, "Negative", -3); !errors.As(err, &valErr) {
		t.Fatalf("expected credits validation error from catalogue add, got %v", err)
	}
	assertSnapshotUnchanged(t, before, store.ExportState())
}
