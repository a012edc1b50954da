package core

import (
	"context"
	"slices"

	"registrar/pkg/domain"
)

// read runs a query over one consistent view inside the service run wrapper.
func read[T any](ctx context.Context, s *Service, op string, fn func(Queries) T) (T, error) {
	var out T
	err := s.run(ctx, op, func(ctx context.Context) (outcome, error) {
		return outcome{}, s.store.View(ctx, func(view TransactionView) error {
			out = fn(NewQueries(view))
			return nil
		})
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// ListStudents returns all students in store order.
func (s *Service) ListStudents(ctx context.Context) ([]Student, error) {
	return read(ctx, s, "list_students", func(q Queries) []Student { return nonNil(q.Students()) })
}

// ListCourses returns all courses in store order.
func (s *Service) ListCourses(ctx context.Context) ([]Course, error) {
	return read(ctx, s, "list_courses", func(q Queries) []Course { return nonNil(q.Courses()) })
}

// StudentsAndCourses joins every enrollment to its student name and course title.
func (s *Service) StudentsAndCourses(ctx context.Context) ([]EnrollmentRow, error) {
	return read(ctx, s, "students_and_courses", func(q Queries) []EnrollmentRow {
		return nonNil(slices.Collect(q.Rows()))
	})
}

// StudentsOlderThan lists students strictly older than age, in store order.
func (s *Service) StudentsOlderThan(ctx context.Context, age int) ([]Student, error) {
	return read(ctx, s, "students_older_than", func(q Queries) []Student { return nonNil(q.StudentsOlderThan(age)) })
}

// StudentsInCourse lists the students enrolled in every course titled title.
// An unknown title yields an empty result.
func (s *Service) StudentsInCourse(ctx context.Context, title string) ([]Student, error) {
	return read(ctx, s, "students_in_course", func(q Queries) []Student { return nonNil(q.StudentsInCourse(title)) })
}

// AverageStudentAge averages every student age. An empty store yields an
// average with Count zero.
func (s *Service) AverageStudentAge(ctx context.Context) (Average, error) {
	return read(ctx, s, "average_student_age", Queries.AverageStudentAge)
}

// AverageCourseCredits averages the credits of every course.
func (s *Service) AverageCourseCredits(ctx context.Context) (Average, error) {
	return read(ctx, s, "average_course_credits", Queries.AverageCourseCredits)
}

// HighestCreditCourse reports false when there are no courses.
func (s *Service) HighestCreditCourse(ctx context.Context) (Course, bool, error) {
	type found struct {
		course Course
		ok     bool
	}
	res, err := read(ctx, s, "highest_credit_course", func(q Queries) found {
		c, ok := q.HighestCreditCourse()
		return found{c, ok}
	})
	return res.course, res.ok, err
}

// StudentsWithGrade lists each student holding grade once, first-seen order.
func (s *Service) StudentsWithGrade(ctx context.Context, grade string) ([]Student, error) {
	return read(ctx, s, "students_with_grade", func(q Queries) []Student { return nonNil(q.StudentsWithGrade(grade)) })
}

// StudentsWithGradeBelow lists students with any grade lexically after grade.
func (s *Service) StudentsWithGradeBelow(ctx context.Context, grade string) ([]Student, error) {
	return read(ctx, s, "students_with_grade_below", func(q Queries) []Student { return nonNil(q.StudentsWithGradeBelow(grade)) })
}

// EnrollmentCountsByCourse counts enrollments per course, zero counts included.
func (s *Service) EnrollmentCountsByCourse(ctx context.Context) ([]CourseCount, error) {
	return read(ctx, s, "enrollment_counts_by_course", func(q Queries) []CourseCount { return nonNil(q.EnrollmentCountsByCourse()) })
}

// TotalCreditsByStudent sums enrolled course credits per student.
func (s *Service) TotalCreditsByStudent(ctx context.Context) ([]StudentCredits, error) {
	return read(ctx, s, "total_credits_by_student", func(q Queries) []StudentCredits { return nonNil(q.TotalCreditsByStudent()) })
}

// CreditsRanking is TotalCreditsByStudent ordered by credits descending.
func (s *Service) CreditsRanking(ctx context.Context) ([]StudentCredits, error) {
	return read(ctx, s, "credits_ranking", func(q Queries) []StudentCredits { return nonNil(q.CreditsRanking()) })
}

// StudentsWithNoCourses lists students without a resolvable enrollment.
func (s *Service) StudentsWithNoCourses(ctx context.Context) ([]Student, error) {
	return read(ctx, s, "students_with_no_courses", func(q Queries) []Student { return nonNil(q.StudentsWithNoCourses()) })
}

// CoursesWithNoStudents lists courses nobody is enrolled in.
func (s *Service) CoursesWithNoStudents(ctx context.Context) ([]Course, error) {
	return read(ctx, s, "courses_with_no_students", func(q Queries) []Course { return nonNil(q.CoursesWithNoStudents()) })
}

// GradeMinMaxCredits reports the lowest and highest course credit values.
func (s *Service) GradeMinMaxCredits(ctx context.Context) (CreditRange, error) {
	return read(ctx, s, "grade_min_max_credits", Queries.CreditRange)
}

// StudentsWithMultipleCourses lists students enrolled more than once, with
// their enrollment counts.
func (s *Service) StudentsWithMultipleCourses(ctx context.Context) ([]StudentCourseCount, error) {
	return read(ctx, s, "students_with_multiple_courses", func(q Queries) []StudentCourseCount {
		return nonNil(q.StudentsWithMultipleCourses())
	})
}

// StudentsSortedByName orders students by name; equal names keep store order.
func (s *Service) StudentsSortedByName(ctx context.Context) ([]Student, error) {
	return read(ctx, s, "students_sorted_by_name", func(q Queries) []Student { return nonNil(q.StudentsSortedByName()) })
}

// StudentCount reports how many students are stored.
func (s *Service) StudentCount(ctx context.Context) (int, error) {
	return read(ctx, s, "student_count", Queries.StudentCount)
}

// EnrollmentCount reports how many enrollments are stored, orphans included.
func (s *Service) EnrollmentCount(ctx context.Context) (int, error) {
	return read(ctx, s, "enrollment_count", Queries.EnrollmentCount)
}

// StudentCourseTitles lists the course titles of every student.
func (s *Service) StudentCourseTitles(ctx context.Context) ([]StudentCourses, error) {
	return read(ctx, s, "student_course_titles", func(q Queries) []StudentCourses { return nonNil(q.StudentCourseTitles()) })
}

// StudentsGroupedByGrade groups distinct student names by grade, grades
// ascending.
func (s *Service) StudentsGroupedByGrade(ctx context.Context) ([]GradeGroup, error) {
	return read(ctx, s, "students_grouped_by_grade", Queries.StudentsGroupedByGrade)
}

// AddCourse inserts a course and returns it with its assigned identity.
func (s *Service) AddCourse(ctx context.Context, title string, credits int) (Course, error) {
	var created Course
	err := s.run(ctx, "add_course", func(ctx context.Context) (outcome, error) {
		err := s.mutations.transact(ctx, func(tx Transaction) error {
			var err error
			created, err = addCourseTx(tx, title, credits)
			return err
		})
		return outcome{id: created.ID, affected: 1}, err
	})
	if err != nil {
		return Course{}, err
	}
	return created, nil
}

// AddStudent inserts a student and returns it with its assigned identity.
func (s *Service) AddStudent(ctx context.Context, name string, age int) (Student, error) {
	var created Student
	err := s.run(ctx, "add_student", func(ctx context.Context) (outcome, error) {
		err := s.mutations.transact(ctx, func(tx Transaction) error {
			var err error
			created, err = addStudentTx(tx, name, age)
			return err
		})
		return outcome{id: created.ID, affected: 1}, err
	})
	if err != nil {
		return Student{}, err
	}
	return created, nil
}

// EnrollStudent resolves the student by name and the course by title, then
// enrolls. Each lookup must match exactly one record.
func (s *Service) EnrollStudent(ctx context.Context, name, title, grade string) (Enrollment, error) {
	var created Enrollment
	err := s.run(ctx, "enroll_student", func(ctx context.Context) (outcome, error) {
		err := s.mutations.transact(ctx, func(tx Transaction) error {
			view := tx.Snapshot()
			student, err := lookupStudent(view, name)
			if err != nil {
				return err
			}
			course, err := lookupCourse(view, title)
			if err != nil {
				return err
			}
			created, err = tx.CreateEnrollment(Enrollment{StudentID: student.ID, CourseID: course.ID, Grade: grade})
			return err
		})
		return outcome{id: created.ID, affected: 1}, err
	})
	if err != nil {
		return Enrollment{}, err
	}
	return created, nil
}

// UpdateStudentAge sets the age of the student with the given name.
func (s *Service) UpdateStudentAge(ctx context.Context, name string, age int) (Student, error) {
	var updated Student
	err := s.run(ctx, "update_student_age", func(ctx context.Context) (outcome, error) {
		err := s.mutations.transact(ctx, func(tx Transaction) error {
			student, err := lookupStudent(tx.Snapshot(), name)
			if err != nil {
				return err
			}
			updated, err = tx.UpdateStudent(student.ID, func(st *Student) error {
				st.Age = age
				return validateRecord(EntityStudent, *st)
			})
			return err
		})
		return outcome{id: updated.ID, affected: 1}, err
	})
	if err != nil {
		return Student{}, err
	}
	return updated, nil
}

// DeleteCourse removes the course with the given title. Its enrollments are
// handled by the store's delete policy.
func (s *Service) DeleteCourse(ctx context.Context, title string) (Course, error) {
	var deleted Course
	err := s.run(ctx, "delete_course", func(ctx context.Context) (outcome, error) {
		err := s.mutations.transact(ctx, func(tx Transaction) error {
			course, err := lookupCourse(tx.Snapshot(), title)
			if err != nil {
				return err
			}
			deleted = course
			return tx.DeleteCourse(course.ID)
		})
		return outcome{id: deleted.ID, affected: 1}, err
	})
	if err != nil {
		return Course{}, err
	}
	return deleted, nil
}

// DeleteStudent removes the student with the given name.
func (s *Service) DeleteStudent(ctx context.Context, name string) (Student, error) {
	var deleted Student
	err := s.run(ctx, "delete_student", func(ctx context.Context) (outcome, error) {
		err := s.mutations.transact(ctx, func(tx Transaction) error {
			student, err := lookupStudent(tx.Snapshot(), name)
			if err != nil {
				return err
			}
			deleted = student
			return tx.DeleteStudent(student.ID)
		})
		return outcome{id: deleted.ID, affected: 1}, err
	})
	if err != nil {
		return Student{}, err
	}
	return deleted, nil
}

// UpdateGrade rewrites every enrollment graded from to grade to and returns
// how many changed.
func (s *Service) UpdateGrade(ctx context.Context, from, to string) (int, error) {
	var n int
	err := s.run(ctx, "update_grade", func(ctx context.Context) (outcome, error) {
		err := s.mutations.transact(ctx, func(tx Transaction) error {
			var err error
			n, err = bulkUpdateTx(tx, domain.EnrollmentGraded(from), domain.SetGrade(to))
			return err
		})
		return outcome{affected: n}, err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteEnrollmentsForCourse removes the enrollments of every course titled
// title and returns how many were removed.
func (s *Service) DeleteEnrollmentsForCourse(ctx context.Context, title string) (int, error) {
	var n int
	err := s.run(ctx, "delete_enrollments_for_course", func(ctx context.Context) (outcome, error) {
		err := s.mutations.transact(ctx, func(tx Transaction) error {
			ids := make(map[int64]struct{})
			for c := range tx.Snapshot().Courses() {
				if c.Title == title {
					ids[c.ID] = struct{}{}
				}
			}
			var err error
			n, err = removeTx(tx, domain.Predicate[Enrollment](func(e Enrollment) bool {
				_, ok := ids[e.CourseID]
				return ok
			}))
			return err
		})
		return outcome{affected: n}, err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
