package memory

import (
	"context"
	"errors"
	"slices"
	"testing"

	"registrar/pkg/domain"
)

func deleteCourse(store *Store, id int64) error {
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteCourse(id)
	})
	return err
}

func TestDeleteCascadeRemovesDependents(t *testing.T) {
	store := NewStore(nil, WithDeletePolicy(domain.DeleteCascade))
	_, programming, web := seedStore(t, store)
	if err := deleteCourse(store, programming.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	enrollments := slices.Collect(store.Enrollments())
	if len(enrollments) != 1 || enrollments[0].CourseID != web.ID {
		t.Fatalf("expected only web enrollment to remain, got %+v", enrollments)
	}
}

func TestDeleteRestrictRefusesWhileReferenced(t *testing.T) {
	store := NewStore(nil, WithDeletePolicy(domain.DeleteRestrict))
	ali, programming, _ := seedStore(t, store)
	err := deleteCourse(store, programming.ID)
	var conflict domain.ConflictError
	if !errors.As(err, &conflict) || conflict.Dependents != 1 || conflict.ID != programming.ID {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if _, ok := store.GetCourse(programming.ID); !ok {
		t.Fatalf("expected course to survive")
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error { return tx.DeleteStudent(ali.ID) })
	if !errors.As(err, &conflict) || conflict.Entity != domain.EntityStudent || conflict.Dependents != 2 {
		t.Fatalf("expected student ConflictError, got %v", err)
	}
}

func TestDeleteRestrictAllowsUnreferenced(t *testing.T) {
	store := NewStore(nil, WithDeletePolicy(domain.DeleteRestrict))
	var lonely Course
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		lonely, err = tx.CreateCourse(Course{Title: "Lonely"})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := deleteCourse(store, lonely.ID); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
}

func TestDeleteOrphanKeepsDependents(t *testing.T) {
	store := NewStore(nil, WithDeletePolicy(domain.DeleteOrphan))
	_, programming, _ := seedStore(t, store)
	if err := deleteCourse(store, programming.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	enrollments := slices.Collect(store.Enrollments())
	if len(enrollments) != 2 {
		t.Fatalf("expected dependents kept, got %d", len(enrollments))
	}
	if _, ok := store.GetCourse(enrollments[0].CourseID); ok {
		t.Fatalf("expected orphaned reference")
	}
	// grade edits on an orphan leave its references alone and succeed
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateEnrollment(enrollments[0].ID, func(e *Enrollment) error { e.Grade = "C"; return nil })
		return err
	})
	if err != nil {
		t.Fatalf("update orphan grade: %v", err)
	}
}

func TestWithDeletePolicyIgnoresEmpty(t *testing.T) {
	store := NewStore(nil, WithDeletePolicy(""))
	if store.DeletePolicy() != domain.DeleteCascade {
		t.Fatalf("expected cascade, got %s", store.DeletePolicy())
	}
}
