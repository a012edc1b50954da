package core

import (
	"iter"
	"slices"
	"strings"

	"registrar/internal/query"
	"registrar/pkg/domain"
)

// Queries answers catalogue reads against a single consistent view. Joins
// resolve identities through the view; rows whose references do not resolve
// are skipped.
type Queries struct {
	view TransactionView
}

// NewQueries binds the read helpers to view.
func NewQueries(view TransactionView) Queries {
	return Queries{view: view}
}

// Students returns every student in store order.
func (q Queries) Students() []Student {
	return slices.Collect(q.view.Students())
}

// Courses returns every course in store order.
func (q Queries) Courses() []Course {
	return slices.Collect(q.view.Courses())
}

// Rows joins each enrollment to its student and course.
func (q Queries) Rows() iter.Seq[EnrollmentRow] {
	return query.FilterMap(q.view.Enrollments(), q.join)
}

func (q Queries) join(e Enrollment) (EnrollmentRow, bool) {
	s, ok := q.view.FindStudent(e.StudentID)
	if !ok {
		return EnrollmentRow{}, false
	}
	c, ok := q.view.FindCourse(e.CourseID)
	if !ok {
		return EnrollmentRow{}, false
	}
	return EnrollmentRow{
		EnrollmentID: e.ID,
		StudentID:    s.ID,
		StudentName:  s.Name,
		CourseID:     c.ID,
		CourseTitle:  c.Title,
		Grade:        e.Grade,
	}, true
}

// rowStudent resolves the student of a joined row. The row was produced from
// the same view, so the lookup always succeeds.
func (q Queries) rowStudent(r EnrollmentRow) Student {
	s, _ := q.view.FindStudent(r.StudentID)
	return s
}

// StudentsOlderThan filters students with Age > age.
func (q Queries) StudentsOlderThan(age int) []Student {
	return slices.Collect(query.Filter(q.view.Students(), func(s Student) bool { return s.Age > age }))
}

// StudentsInCourse yields the student of every enrollment in a course with
// the given title. A student enrolled twice appears twice.
func (q Queries) StudentsInCourse(title string) []Student {
	rows := query.Filter(q.Rows(), func(r EnrollmentRow) bool { return r.CourseTitle == title })
	return slices.Collect(query.Map(rows, q.rowStudent))
}

// AverageStudentAge is the mean age; Count is zero when there are no students.
func (q Queries) AverageStudentAge() Average {
	mean, n, _ := query.Mean(q.view.Students(), func(s Student) int { return s.Age })
	return Average{Value: mean, Count: n}
}

// AverageCourseCredits is the mean course credit value.
func (q Queries) AverageCourseCredits() Average {
	mean, n, _ := query.Mean(q.view.Courses(), func(c Course) int { return c.Credits })
	return Average{Value: mean, Count: n}
}

// HighestCreditCourse returns the course with the most credits. Ties go to
// the course inserted first.
func (q Queries) HighestCreditCourse() (Course, bool) {
	return query.MaxBy(q.view.Courses(), func(c Course) int { return c.Credits })
}

// StudentsWithGrade returns the distinct students holding grade, first-seen order.
func (q Queries) StudentsWithGrade(grade string) []Student {
	return q.distinctStudents(func(r EnrollmentRow) bool { return r.Grade == grade })
}

// StudentsWithGradeBelow returns students with a grade lexically after
// threshold ("C" is below "B").
func (q Queries) StudentsWithGradeBelow(threshold string) []Student {
	return q.distinctStudents(func(r EnrollmentRow) bool { return strings.Compare(r.Grade, threshold) > 0 })
}

func (q Queries) distinctStudents(pred func(EnrollmentRow) bool) []Student {
	ids := query.Distinct(query.Map(query.Filter(q.Rows(), pred), func(r EnrollmentRow) int64 { return r.StudentID }))
	return slices.Collect(query.FilterMap(ids, q.view.FindStudent))
}

// EnrollmentCountsByCourse counts resolvable enrollments per course, in
// course store order. Courses without enrollments report zero.
func (q Queries) EnrollmentCountsByCourse() []CourseCount {
	counts := make(map[int64]int)
	for r := range q.Rows() {
		counts[r.CourseID]++
	}
	return slices.Collect(query.Map(q.view.Courses(), func(c Course) CourseCount {
		return CourseCount{CourseID: c.ID, Title: c.Title, Count: counts[c.ID]}
	}))
}

// TotalCreditsByStudent sums course credits per student, in student store order.
func (q Queries) TotalCreditsByStudent() []StudentCredits {
	return slices.Collect(query.Map(q.view.Students(), func(s Student) StudentCredits {
		credits := query.Sum(q.Rows(), func(r EnrollmentRow) int {
			if r.StudentID != s.ID {
				return 0
			}
			c, _ := q.view.FindCourse(r.CourseID)
			return c.Credits
		})
		return StudentCredits{StudentID: s.ID, Name: s.Name, Credits: credits}
	}))
}

// CreditsRanking orders TotalCreditsByStudent by credits descending. Equal
// totals keep store order.
func (q Queries) CreditsRanking() []StudentCredits {
	return query.SortStableBy(slices.Values(q.TotalCreditsByStudent()), func(c StudentCredits) int64 { return c.Credits }, query.Desc)
}

// StudentsWithNoCourses keeps students no resolvable enrollment points at.
func (q Queries) StudentsWithNoCourses() []Student {
	return slices.Collect(query.Filter(q.view.Students(), func(s Student) bool {
		return !query.Any(q.Rows(), func(r EnrollmentRow) bool { return r.StudentID == s.ID })
	}))
}

// CoursesWithNoStudents keeps courses no resolvable enrollment points at.
func (q Queries) CoursesWithNoStudents() []Course {
	return slices.Collect(query.Filter(q.view.Courses(), func(c Course) bool {
		return !query.Any(q.Rows(), func(r EnrollmentRow) bool { return r.CourseID == c.ID })
	}))
}

// CreditRange reports the lowest and highest course credits. The zero value
// means there are no courses.
func (q Queries) CreditRange() CreditRange {
	lo, hi, ok := query.MinMax(q.view.Courses(), func(c Course) int { return c.Credits })
	if !ok {
		return CreditRange{}
	}
	return CreditRange{Lowest: lo, Highest: hi, Courses: query.Count(q.view.Courses())}
}

// courseCounts counts resolvable enrollments per student in student store order.
func (q Queries) courseCounts() []StudentCourseCount {
	counts := make(map[int64]int)
	for r := range q.Rows() {
		counts[r.StudentID]++
	}
	return slices.Collect(query.Map(q.view.Students(), func(s Student) StudentCourseCount {
		return StudentCourseCount{StudentID: s.ID, Name: s.Name, Courses: counts[s.ID]}
	}))
}

// StudentsWithMultipleCourses lists students with more than one enrollment.
func (q Queries) StudentsWithMultipleCourses() []StudentCourseCount {
	return slices.Collect(query.Filter(slices.Values(q.courseCounts()), func(c StudentCourseCount) bool { return c.Courses > 1 }))
}

// StudentsSortedByName orders students by name ascending; equal names keep
// store order.
func (q Queries) StudentsSortedByName() []Student {
	return query.SortStableBy(q.view.Students(), func(s Student) string { return s.Name }, query.Asc)
}

// StudentCount counts stored students.
func (q Queries) StudentCount() int { return query.Count(q.view.Students()) }

// EnrollmentCount counts stored enrollments, resolvable or not.
func (q Queries) EnrollmentCount() int { return query.Count(q.view.Enrollments()) }

// StudentCourseTitles lists, per student, the titles of the courses they take.
func (q Queries) StudentCourseTitles() []StudentCourses {
	return slices.Collect(query.Map(q.view.Students(), func(s Student) StudentCourses {
		titles := query.Map(query.Filter(q.Rows(), func(r EnrollmentRow) bool { return r.StudentID == s.ID }),
			func(r EnrollmentRow) string { return r.CourseTitle })
		return StudentCourses{StudentID: s.ID, Name: s.Name, Titles: nonNil(slices.Collect(titles))}
	}))
}

// StudentsGroupedByGrade groups distinct student names by grade, grades ascending.
func (q Queries) StudentsGroupedByGrade() []GradeGroup {
	groups := query.GroupBy(q.Rows(),
		func(r EnrollmentRow) string { return r.Grade },
		func(r EnrollmentRow) string { return r.StudentName })
	out := make([]GradeGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, GradeGroup{Grade: g.Key, Students: g.Values})
	}
	return out
}

// lookupStudent resolves a student by exact name.
func lookupStudent(view TransactionView, name string) (Student, error) {
	matches := slices.Collect(query.Filter(view.Students(), domain.StudentNamed(name)))
	switch len(matches) {
	case 0:
		return Student{}, ReferenceError{Entity: EntityStudent, Field: "name", Key: name}
	case 1:
		return matches[0], nil
	default:
		return Student{}, AmbiguousLookupError{Entity: EntityStudent, Key: name, Matches: studentIDs(matches)}
	}
}

// lookupCourse resolves a course by exact title.
func lookupCourse(view TransactionView, title string) (Course, error) {
	matches := slices.Collect(query.Filter(view.Courses(), domain.CourseTitled(title)))
	switch len(matches) {
	case 0:
		return Course{}, ReferenceError{Entity: EntityCourse, Field: "title", Key: title}
	case 1:
		return matches[0], nil
	default:
		return Course{}, AmbiguousLookupError{Entity: EntityCourse, Key: title, Matches: courseIDs(matches)}
	}
}

func studentIDs(students []Student) []int64 {
	return slices.Collect(query.Map(slices.Values(students), func(s Student) int64 { return s.ID }))
}

func courseIDs(courses []Course) []int64 {
	return slices.Collect(query.Map(slices.Values(courses), func(c Course) int64 { return c.ID }))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
