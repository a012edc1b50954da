package memory

import (
	"iter"

	"registrar/pkg/domain"
)

// transaction represents a mutation set applied to a cloned store state.
type transaction struct {
	state   memoryState
	policy  domain.DeletePolicy
	changes []Change
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// Students yields every student in the snapshot.
func (v transactionView) Students() iter.Seq[Student] { return v.state.students.all() }

// Courses yields every course in the snapshot.
func (v transactionView) Courses() iter.Seq[Course] { return v.state.courses.all() }

// Enrollments yields every enrollment in the snapshot.
func (v transactionView) Enrollments() iter.Seq[Enrollment] { return v.state.enrollments.all() }

// FindStudent retrieves a student by identity from the snapshot.
func (v transactionView) FindStudent(id int64) (Student, bool) { return v.state.students.get(id) }

// FindCourse retrieves a course by identity from the snapshot.
func (v transactionView) FindCourse(id int64) (Course, bool) { return v.state.courses.get(id) }

// FindEnrollment retrieves an enrollment by identity from the snapshot.
func (v transactionView) FindEnrollment(id int64) (Enrollment, bool) {
	return v.state.enrollments.get(id)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// CreateStudent stores a new student under a fresh identity.
func (tx *transaction) CreateStudent(s Student) (Student, error) {
	s.ID = tx.state.students.nextID()
	tx.state.students.insert(s.ID, s)
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionCreate, After: s})
	return s, nil
}

// UpdateStudent mutates a student using the provided mutator function.
func (tx *transaction) UpdateStudent(id int64, mutator func(*Student) error) (Student, error) {
	current, ok := tx.state.students.get(id)
	if !ok {
		return Student{}, domain.NotFoundError{Entity: domain.EntityStudent, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Student{}, err
	}
	current.ID = id
	tx.state.students.replace(id, current)
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteStudent removes a student and applies the delete policy to its enrollments.
func (tx *transaction) DeleteStudent(id int64) error {
	current, ok := tx.state.students.get(id)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityStudent, ID: id}
	}
	if err := tx.releaseDependents(domain.EntityStudent, id, domain.EnrollmentOfStudent(id)); err != nil {
		return err
	}
	tx.state.students.remove(id)
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateCourse stores a new course under a fresh identity.
func (tx *transaction) CreateCourse(c Course) (Course, error) {
	c.ID = tx.state.courses.nextID()
	tx.state.courses.insert(c.ID, c)
	tx.recordChange(Change{Entity: domain.EntityCourse, Action: domain.ActionCreate, After: c})
	return c, nil
}

// UpdateCourse mutates an existing course.
func (tx *transaction) UpdateCourse(id int64, mutator func(*Course) error) (Course, error) {
	current, ok := tx.state.courses.get(id)
	if !ok {
		return Course{}, domain.NotFoundError{Entity: domain.EntityCourse, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Course{}, err
	}
	current.ID = id
	tx.state.courses.replace(id, current)
	tx.recordChange(Change{Entity: domain.EntityCourse, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteCourse removes a course and applies the delete policy to its enrollments.
func (tx *transaction) DeleteCourse(id int64) error {
	current, ok := tx.state.courses.get(id)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityCourse, ID: id}
	}
	if err := tx.releaseDependents(domain.EntityCourse, id, domain.EnrollmentInCourse(id)); err != nil {
		return err
	}
	tx.state.courses.remove(id)
	tx.recordChange(Change{Entity: domain.EntityCourse, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateEnrollment links an existing student to an existing course.
func (tx *transaction) CreateEnrollment(e Enrollment) (Enrollment, error) {
	if err := tx.checkReferences(e); err != nil {
		return Enrollment{}, err
	}
	e.ID = tx.state.enrollments.nextID()
	tx.state.enrollments.insert(e.ID, e)
	tx.recordChange(Change{Entity: domain.EntityEnrollment, Action: domain.ActionCreate, After: e})
	return e, nil
}

// UpdateEnrollment mutates an enrollment. Changed references must resolve.
func (tx *transaction) UpdateEnrollment(id int64, mutator func(*Enrollment) error) (Enrollment, error) {
	current, ok := tx.state.enrollments.get(id)
	if !ok {
		return Enrollment{}, domain.NotFoundError{Entity: domain.EntityEnrollment, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Enrollment{}, err
	}
	current.ID = id
	if current.StudentID != before.StudentID || current.CourseID != before.CourseID {
		if err := tx.checkReferences(current); err != nil {
			return Enrollment{}, err
		}
	}
	tx.state.enrollments.replace(id, current)
	tx.recordChange(Change{Entity: domain.EntityEnrollment, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteEnrollment removes an enrollment.
func (tx *transaction) DeleteEnrollment(id int64) error {
	current, ok := tx.state.enrollments.get(id)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityEnrollment, ID: id}
	}
	tx.state.enrollments.remove(id)
	tx.recordChange(Change{Entity: domain.EntityEnrollment, Action: domain.ActionDelete, Before: current})
	return nil
}

func (tx *transaction) checkReferences(e Enrollment) error {
	if _, ok := tx.state.students.get(e.StudentID); !ok {
		return domain.ReferenceError{Entity: domain.EntityEnrollment, Field: "student_id", ID: e.StudentID}
	}
	if _, ok := tx.state.courses.get(e.CourseID); !ok {
		return domain.ReferenceError{Entity: domain.EntityEnrollment, Field: "course_id", ID: e.CourseID}
	}
	return nil
}

// releaseDependents applies the delete policy to the enrollments selected by
// dependent before their parent record is removed.
func (tx *transaction) releaseDependents(entity domain.EntityType, id int64, dependent domain.Predicate[Enrollment]) error {
	var ids []int64
	for e := range tx.state.enrollments.all() {
		if dependent(e) {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	switch tx.policy {
	case domain.DeleteRestrict:
		return domain.ConflictError{Entity: entity, ID: id, Dependents: len(ids)}
	case domain.DeleteOrphan:
		return nil
	default:
		for _, eid := range ids {
			if err := tx.DeleteEnrollment(eid); err != nil {
				return err
			}
		}
		return nil
	}
}
