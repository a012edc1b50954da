package core

import (
	"context"
	"iter"
	"slices"

	"registrar/internal/query"
	"registrar/pkg/domain"
)

// Mutations is the write side of the service. Each call runs in one store
// transaction, so it applies fully or not at all.
type Mutations struct {
	store  PersistentStore
	logger Logger
}

// NewMutations binds a mutation service to store.
func NewMutations(store PersistentStore, logger Logger) *Mutations {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Mutations{store: store, logger: logger}
}

// transact runs fn in a store transaction and logs non-blocking rule findings.
func (m *Mutations) transact(ctx context.Context, fn func(Transaction) error) error {
	res, err := m.store.RunInTransaction(ctx, fn)
	for _, v := range res.Violations {
		if v.Severity == domain.SeverityBlock {
			continue
		}
		m.logger.Warn("rule violation", "rule", v.Rule, "severity", v.Severity, "entity", v.Entity, "id", v.EntityID, "message", v.Message)
	}
	return err
}

// AddStudent inserts a student and returns it with its new identity.
func (m *Mutations) AddStudent(ctx context.Context, name string, age int) (Student, error) {
	var created Student
	err := m.transact(ctx, func(tx Transaction) error {
		var err error
		created, err = addStudentTx(tx, name, age)
		return err
	})
	return created, err
}

// AddCourse inserts a course and returns it with its new identity.
func (m *Mutations) AddCourse(ctx context.Context, title string, credits int) (Course, error) {
	var created Course
	err := m.transact(ctx, func(tx Transaction) error {
		var err error
		created, err = addCourseTx(tx, title, credits)
		return err
	})
	return created, err
}

// Enroll links existing identities. Unknown identities fail with ReferenceError.
func (m *Mutations) Enroll(ctx context.Context, studentID, courseID int64, grade string) (Enrollment, error) {
	var created Enrollment
	err := m.transact(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateEnrollment(Enrollment{StudentID: studentID, CourseID: courseID, Grade: grade})
		return err
	})
	return created, err
}

// UpdateField sets one named field on the record of the given kind.
//
//	student:    name (text), age (integer >= 0)
//	course:     title (text), credits (integer)
//	enrollment: grade (text), student_id, course_id (integer identities)
func (m *Mutations) UpdateField(ctx context.Context, kind EntityType, id int64, field string, value any) error {
	return m.transact(ctx, func(tx Transaction) error {
		return updateFieldTx(tx, kind, id, field, value)
	})
}

// BulkUpdateWhere applies mut to every record matching pred and returns how
// many records changed as a result.
func BulkUpdateWhere[T domain.Record](ctx context.Context, m *Mutations, pred domain.Predicate[T], mut domain.Mutation[T]) (int, error) {
	var n int
	err := m.transact(ctx, func(tx Transaction) error {
		var err error
		n, err = bulkUpdateTx(tx, pred, mut)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// RemoveWhere deletes every record matching pred and returns how many were removed.
func RemoveWhere[T domain.Record](ctx context.Context, m *Mutations, pred domain.Predicate[T]) (int, error) {
	var n int
	err := m.transact(ctx, func(tx Transaction) error {
		var err error
		n, err = removeTx(tx, pred)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func addStudentTx(tx Transaction, name string, age int) (Student, error) {
	s := Student{Name: name, Age: age}
	if err := validateRecord(EntityStudent, s); err != nil {
		return Student{}, err
	}
	return tx.CreateStudent(s)
}

func addCourseTx(tx Transaction, title string, credits int) (Course, error) {
	c := Course{Title: title, Credits: credits}
	if err := validateRecord(EntityCourse, c); err != nil {
		return Course{}, err
	}
	return tx.CreateCourse(c)
}

func updateFieldTx(tx Transaction, kind EntityType, id int64, field string, value any) error {
	invalid := func(reason string) error {
		return ValidationError{Entity: kind, Field: field, Value: value, Reason: reason}
	}
	switch kind {
	case EntityStudent:
		if _, ok := tx.Snapshot().FindStudent(id); !ok {
			return NotFoundError{Entity: kind, ID: id}
		}
		var set func(*Student)
		switch field {
		case "name":
			v, ok := asText(value)
			if !ok {
				return invalid("must be text")
			}
			set = func(s *Student) { s.Name = v }
		case "age":
			v, ok := asInt(value)
			if !ok {
				return invalid("must be an integer")
			}
			set = func(s *Student) { s.Age = v }
		default:
			return invalid("unknown field")
		}
		_, err := tx.UpdateStudent(id, func(s *Student) error {
			set(s)
			return validateRecord(kind, *s)
		})
		return err
	case EntityCourse:
		if _, ok := tx.Snapshot().FindCourse(id); !ok {
			return NotFoundError{Entity: kind, ID: id}
		}
		var set func(*Course)
		switch field {
		case "title":
			v, ok := asText(value)
			if !ok {
				return invalid("must be text")
			}
			set = func(c *Course) { c.Title = v }
		case "credits":
			v, ok := asInt(value)
			if !ok {
				return invalid("must be an integer")
			}
			set = func(c *Course) { c.Credits = v }
		default:
			return invalid("unknown field")
		}
		_, err := tx.UpdateCourse(id, func(c *Course) error {
			set(c)
			return validateRecord(kind, *c)
		})
		return err
	case EntityEnrollment:
		if _, ok := tx.Snapshot().FindEnrollment(id); !ok {
			return NotFoundError{Entity: kind, ID: id}
		}
		var set func(*Enrollment)
		switch field {
		case "grade":
			v, ok := asText(value)
			if !ok {
				return invalid("must be text")
			}
			set = func(e *Enrollment) { e.Grade = v }
		case "student_id", "course_id":
			v, ok := asInt64(value)
			if !ok {
				return invalid("must be an integer identity")
			}
			if field == "student_id" {
				set = func(e *Enrollment) { e.StudentID = v }
			} else {
				set = func(e *Enrollment) { e.CourseID = v }
			}
		default:
			return invalid("unknown field")
		}
		_, err := tx.UpdateEnrollment(id, func(e *Enrollment) error {
			set(e)
			return nil
		})
		return err
	default:
		return ValidationError{Field: "kind", Value: kind, Reason: "unknown entity kind"}
	}
}

func bulkUpdateTx[T domain.Record](tx Transaction, pred domain.Predicate[T], mut domain.Mutation[T]) (int, error) {
	view := tx.Snapshot()
	switch p := any(pred).(type) {
	case domain.Predicate[Student]:
		mu := any(mut).(domain.Mutation[Student])
		return updateMatching(view.Students(), p, mu, func(s Student) int64 { return s.ID }, func(s *Student, id int64) { s.ID = id }, func(id int64, fn func(*Student) error) error {
			_, err := tx.UpdateStudent(id, func(s *Student) error {
				if err := fn(s); err != nil {
					return err
				}
				return validateRecord(EntityStudent, *s)
			})
			return err
		})
	case domain.Predicate[Course]:
		mu := any(mut).(domain.Mutation[Course])
		return updateMatching(view.Courses(), p, mu, func(c Course) int64 { return c.ID }, func(c *Course, id int64) { c.ID = id }, func(id int64, fn func(*Course) error) error {
			_, err := tx.UpdateCourse(id, func(c *Course) error {
				if err := fn(c); err != nil {
					return err
				}
				return validateRecord(EntityCourse, *c)
			})
			return err
		})
	case domain.Predicate[Enrollment]:
		mu := any(mut).(domain.Mutation[Enrollment])
		return updateMatching(view.Enrollments(), p, mu, func(e Enrollment) int64 { return e.ID }, func(e *Enrollment, id int64) { e.ID = id }, func(id int64, fn func(*Enrollment) error) error {
			_, err := tx.UpdateEnrollment(id, func(e *Enrollment) error {
				if err := fn(e); err != nil {
					return err
				}
				return validateRecord(EntityEnrollment, *e)
			})
			return err
		})
	}
	return 0, nil
}

// updateMatching collects the matches first so updates never race the iterator.
// Identities are store-owned, so a mutation that only rewrites the identity
// changes nothing and is not counted.
func updateMatching[T comparable](rows iter.Seq[T], pred func(T) bool, mut func(*T), id func(T) int64, setID func(*T, int64), update func(int64, func(*T) error) error) (int, error) {
	changed := 0
	for _, row := range slices.Collect(query.Filter(rows, pred)) {
		next := row
		mut(&next)
		setID(&next, id(row))
		if next == row {
			continue
		}
		if err := update(id(row), func(v *T) error {
			mut(v)
			return nil
		}); err != nil {
			return 0, err
		}
		changed++
	}
	return changed, nil
}

func removeTx[T domain.Record](tx Transaction, pred domain.Predicate[T]) (int, error) {
	view := tx.Snapshot()
	switch p := any(pred).(type) {
	case domain.Predicate[Student]:
		return removeMatching(view.Students(), p, func(s Student) int64 { return s.ID }, tx.DeleteStudent)
	case domain.Predicate[Course]:
		return removeMatching(view.Courses(), p, func(c Course) int64 { return c.ID }, tx.DeleteCourse)
	case domain.Predicate[Enrollment]:
		return removeMatching(view.Enrollments(), p, func(e Enrollment) int64 { return e.ID }, tx.DeleteEnrollment)
	}
	return 0, nil
}

func removeMatching[T any](rows iter.Seq[T], pred func(T) bool, id func(T) int64, remove func(int64) error) (int, error) {
	ids := slices.Collect(query.Map(query.Filter(rows, pred), id))
	for _, rid := range ids {
		if err := remove(rid); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
