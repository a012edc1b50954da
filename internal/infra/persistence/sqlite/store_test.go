package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"registrar/internal/infra/persistence/memory"
	"registrar/pkg/domain"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		s, err := tx.CreateStudent(domain.Student{Name: "Ali", Age: 20})
		if err != nil {
			return err
		}
		c, err := tx.CreateCourse(domain.Course{Title: "Programming", Credits: 3})
		if err != nil {
			return err
		}
		_, err = tx.CreateEnrollment(domain.Enrollment{StudentID: s.ID, CourseID: c.ID, Grade: "A"})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if reloaded.Path() != path {
		t.Fatalf("unexpected path %s", reloaded.Path())
	}
	enrollments := slices.Collect(reloaded.Enrollments())
	if len(enrollments) != 1 || enrollments[0].Grade != "A" {
		t.Fatalf("expected reloaded enrollment, got %+v", enrollments)
	}
	if got := reloaded.ExportState().Sequences; got != (memory.Sequences{Students: 1, Courses: 1, Enrollments: 1}) {
		t.Fatalf("unexpected sequences %+v", got)
	}
}

func storedBuckets(t *testing.T, store *Store) []string {
	t.Helper()
	rows, err := store.DB().Query(`SELECT bucket FROM registrar_state ORDER BY bucket`)
	if err != nil {
		t.Fatalf("select buckets: %v", err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return out
}

func TestSQLiteStoreWritesOnlyTouchedBuckets(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "state.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateCourse(domain.Course{Title: "Empty"})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := storedBuckets(t, store); !slices.Equal(got, []string{"courses", "sequences"}) {
		t.Fatalf("expected courses and sequences only, got %v", got)
	}

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateStudent(domain.Student{Name: "Ali", Age: 20})
		return err
	}); err != nil {
		t.Fatalf("create student: %v", err)
	}
	if got := storedBuckets(t, store); !slices.Equal(got, []string{"courses", "sequences", "students"}) {
		t.Fatalf("unexpected buckets %v", got)
	}
}

func TestSQLiteStoreSkipsPersistOnFailure(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), nil, memory.WithDeletePolicy(domain.DeleteRestrict))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if store.DeletePolicy() != domain.DeleteRestrict {
		t.Fatalf("expected restrict policy")
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteCourse(1)
	})
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	var n int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM registrar_state`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected nothing persisted, got %d rows", n)
	}
}

func TestSQLiteStoreKeepsMemoryCommitWhenWriteFails(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if err := store.DB().Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateCourse(domain.Course{Title: "Networks", Credits: 4})
		return err
	})
	if err == nil {
		t.Fatalf("expected snapshot write to fail on a closed database")
	}
	if c, ok := store.GetCourse(1); !ok || c.Title != "Networks" {
		t.Fatalf("expected in-memory commit to stand, got %+v ok=%v", c, ok)
	}
}
