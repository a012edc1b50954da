package domain

// Record is the set of entity types held by the store.
type Record interface {
	Student | Course | Enrollment
}

// Predicate selects records of one entity kind.
type Predicate[T Record] func(T) bool

// Mutation edits a record of one entity kind in place. Identities are
// restored by the store after the mutation runs.
type Mutation[T Record] func(*T)

// All matches every record.
func All[T Record]() Predicate[T] {
	return func(T) bool { return true }
}

// None matches no record.
func None[T Record]() Predicate[T] {
	return func(T) bool { return false }
}

// And matches records accepted by every predicate.
func And[T Record](preds ...Predicate[T]) Predicate[T] {
	return func(v T) bool {
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}
}

// Not inverts a predicate.
func Not[T Record](p Predicate[T]) Predicate[T] {
	return func(v T) bool { return !p(v) }
}

// StudentNamed matches students with exactly the given name.
func StudentNamed(name string) Predicate[Student] {
	return func(s Student) bool { return s.Name == name }
}

// CourseTitled matches courses with exactly the given title.
func CourseTitled(title string) Predicate[Course] {
	return func(c Course) bool { return c.Title == title }
}

// EnrollmentGraded matches enrollments carrying exactly the given grade.
func EnrollmentGraded(grade string) Predicate[Enrollment] {
	return func(e Enrollment) bool { return e.Grade == grade }
}

// EnrollmentInCourse matches enrollments referencing the course identity.
func EnrollmentInCourse(courseID int64) Predicate[Enrollment] {
	return func(e Enrollment) bool { return e.CourseID == courseID }
}

// EnrollmentOfStudent matches enrollments referencing the student identity.
func EnrollmentOfStudent(studentID int64) Predicate[Enrollment] {
	return func(e Enrollment) bool { return e.StudentID == studentID }
}

// SetGrade returns a mutation assigning the grade.
func SetGrade(grade string) Mutation[Enrollment] {
	return func(e *Enrollment) { e.Grade = grade }
}

// SetAge returns a mutation assigning the age.
func SetAge(age int) Mutation[Student] {
	return func(s *Student) { s.Age = age }
}
