package postgres

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/infra/persistence/memory"
	"registrar/pkg/domain"
)

func newMockStore(t *testing.T, rows *sqlmock.Rows, opts ...memory.Option) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS registrar_state`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT bucket, payload FROM registrar_state`).WillReturnRows(rows)

	store, err := NewStore(context.Background(), "", domain.NewRulesEngine(), opts...)
	require.NoError(t, err)
	return store, mock
}

func TestNewStoreLoadsSnapshot(t *testing.T) {
	rows := sqlmock.NewRows([]string{"bucket", "payload"}).
		AddRow("students", []byte(`[{"id":4,"name":"Sara","age":22}]`)).
		AddRow("courses", []byte(`[{"id":2,"title":"Database Systems","credits":4}]`)).
		AddRow("enrollments", []byte(`[{"id":9,"student_id":4,"course_id":2,"grade":"A"}]`)).
		AddRow("sequences", []byte(`{"students":6,"courses":2,"enrollments":9}`)).
		AddRow("legacy", []byte(`{}`))

	store, mock := newMockStore(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())

	s, ok := store.GetStudent(4)
	require.True(t, ok)
	assert.Equal(t, "Sara", s.Name)
	assert.Len(t, slices.Collect(store.Enrollments()), 1)
	assert.Equal(t, memory.Sequences{Students: 6, Courses: 2, Enrollments: 9}, store.ExportState().Sequences)
}

func TestRunInTransactionPersistsTouchedBuckets(t *testing.T) {
	store, mock := newMockStore(t, sqlmock.NewRows([]string{"bucket", "payload"}))

	mock.ExpectBegin()
	for _, bucket := range []string{"courses", "sequences"} {
		mock.ExpectExec(`INSERT INTO registrar_state`).WithArgs(bucket, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateCourse(domain.Course{Title: "Programming", Credits: 3})
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	c, ok := store.GetCourse(1)
	require.True(t, ok)
	assert.Equal(t, "Programming", c.Title)
}

func TestRunInTransactionRollsBackOnUpsertFailure(t *testing.T) {
	store, mock := newMockStore(t, sqlmock.NewRows([]string{"bucket", "payload"}))

	boom := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO registrar_state`).WithArgs("students", sqlmock.AnyArg()).WillReturnError(boom)
	mock.ExpectRollback()

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateStudent(domain.Student{Name: "Ali", Age: 20})
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "upsert students")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTransactionSkipsPersistOnDomainError(t *testing.T) {
	store, mock := newMockStore(t, sqlmock.NewRows([]string{"bucket", "payload"}), memory.WithDeletePolicy(domain.DeleteOrphan))
	assert.Equal(t, domain.DeleteOrphan, store.DeletePolicy())

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteStudent(12)
	})
	var nf domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTransactionWithoutChangesWritesNothing(t *testing.T) {
	store, mock := newMockStore(t, sqlmock.NewRows([]string{"bucket", "payload"}))

	_, err := store.RunInTransaction(context.Background(), func(domain.Transaction) error { return nil })
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStoreSurfacesSchemaErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS registrar_state`).WillReturnError(errors.New("permission denied"))
	mock.ExpectClose()

	_, err = NewStore(context.Background(), "postgres://example", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure registrar_state table")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStoreSurfacesOpenErrors(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("no driver") })
	defer restore()
	_, err := NewStore(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open postgres")
}

func TestRunInTransactionKeepsMemoryCommitWhenWriteFails(t *testing.T) {
	store, mock := newMockStore(t, sqlmock.NewRows([]string{"bucket", "payload"}))

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateCourse(domain.Course{Title: "Networks", Credits: 4})
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist postgres snapshot")
	c, ok := store.GetCourse(1)
	require.True(t, ok, "in-memory commit stands after a failed write")
	assert.Equal(t, "Networks", c.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}
