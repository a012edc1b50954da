package domain

import (
	"context"
	"iter"
)

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateStudent(Student) (Student, error)
	UpdateStudent(id int64, mutator func(*Student) error) (Student, error)
	DeleteStudent(id int64) error
	CreateCourse(Course) (Course, error)
	UpdateCourse(id int64, mutator func(*Course) error) (Course, error)
	DeleteCourse(id int64) error
	CreateEnrollment(Enrollment) (Enrollment, error)
	UpdateEnrollment(id int64, mutator func(*Enrollment) error) (Enrollment, error)
	DeleteEnrollment(id int64) error
}

// TransactionView provides read-only access to snapshot data. Sequences are
// lazy and yield records in insertion order.
type TransactionView interface {
	Students() iter.Seq[Student]
	Courses() iter.Seq[Course]
	Enrollments() iter.Seq[Enrollment]
	FindStudent(id int64) (Student, bool)
	FindCourse(id int64) (Course, bool)
	FindEnrollment(id int64) (Enrollment, bool)
}

// PersistentStore is the Entity Store abstraction shared by every backend.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetStudent(id int64) (Student, bool)
	GetCourse(id int64) (Course, bool)
	GetEnrollment(id int64) (Enrollment, bool)
	Students() iter.Seq[Student]
	Courses() iter.Seq[Course]
	Enrollments() iter.Seq[Enrollment]
	DeletePolicy() DeletePolicy
}
