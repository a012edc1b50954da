package snapshot

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"registrar/internal/infra/persistence/memory"
	"registrar/pkg/domain"
)

func TestTouchedBuckets(t *testing.T) {
	cases := []struct {
		name    string
		changes []domain.Change
		want    []string
	}{
		{"none", nil, []string{}},
		{"update student", []domain.Change{{Entity: domain.EntityStudent, Action: domain.ActionUpdate}}, []string{"students"}},
		{"create course", []domain.Change{{Entity: domain.EntityCourse, Action: domain.ActionCreate}}, []string{"courses", "sequences"}},
		{"cascade delete", []domain.Change{
			{Entity: domain.EntityEnrollment, Action: domain.ActionDelete},
			{Entity: domain.EntityEnrollment, Action: domain.ActionDelete},
			{Entity: domain.EntityCourse, Action: domain.ActionDelete},
		}, []string{"courses", "enrollments"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TouchedBuckets(tc.changes)
			if !slices.Equal(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSaveUsesDialectPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO registrar_state\(bucket, payload, updated_at\) VALUES\(\$1, \$2`).
		WithArgs("courses", []byte(`[{"id":1,"title":"Programming","credits":3}]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	snap := memory.Snapshot{Courses: []domain.Course{{ID: 1, Title: "Programming", Credits: 3}}}
	if err := Save(context.Background(), db, Postgres, snap, []string{"courses"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	boom := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO registrar_state`).WithArgs("students", sqlmock.AnyArg()).WillReturnError(boom)
	mock.ExpectRollback()

	err = Save(context.Background(), db, SQLite, memory.Snapshot{}, []string{"students", "sequences"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped failure, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveWithoutBucketsIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()
	if err := Save(context.Background(), db, SQLite, memory.Snapshot{}, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoadDecodesBuckets(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT bucket, payload FROM registrar_state`).WillReturnRows(
		sqlmock.NewRows([]string{"bucket", "payload"}).
			AddRow("students", []byte(`[{"id":2,"name":"Sara","age":22}]`)).
			AddRow("sequences", []byte(`{"students":5}`)))

	snap, found, err := Load(context.Background(), db)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if len(snap.Students) != 1 || snap.Students[0].Name != "Sara" || snap.Sequences.Students != 5 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
