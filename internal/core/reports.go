package core

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"registrar/internal/query"
)

// ReportArgs carries the optional parameters some reports take.
type ReportArgs struct {
	Age   int    `json:"age"`
	Title string `json:"title"`
	Grade string `json:"grade"`
}

// Report is a tabular rendering of one catalogue read. Data holds the typed
// result for encoders that prefer structure over cells.
type Report struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Data    any        `json:"data"`
}

// ReportDefinition describes a registered report.
type ReportDefinition struct {
	Name        string
	Description string
	Params      []string
	Columns     []string
	run         func(context.Context, *Service, ReportArgs) (any, [][]string, error)
}

var reports = []ReportDefinition{
	{
		Name: "students", Description: "all students", Columns: []string{"id", "name", "age"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.ListStudents(ctx)
			return v, studentRows(v), err
		},
	},
	{
		Name: "courses", Description: "all courses", Columns: []string{"id", "title", "credits"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.ListCourses(ctx)
			return v, courseRows(v), err
		},
	},
	{
		Name: "students_and_courses", Description: "students with courses and grades", Columns: []string{"student", "course", "grade"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.StudentsAndCourses(ctx)
			return v, rowsOf(v, func(r EnrollmentRow) []string { return []string{r.StudentName, r.CourseTitle, r.Grade} }), err
		},
	},
	{
		Name: "students_older_than", Description: "students older than an age", Params: []string{"age"}, Columns: []string{"id", "name", "age"},
		run: func(ctx context.Context, s *Service, a ReportArgs) (any, [][]string, error) {
			v, err := s.StudentsOlderThan(ctx, a.Age)
			return v, studentRows(v), err
		},
	},
	{
		Name: "students_in_course", Description: "students enrolled in a course", Params: []string{"title"}, Columns: []string{"id", "name", "age"},
		run: func(ctx context.Context, s *Service, a ReportArgs) (any, [][]string, error) {
			v, err := s.StudentsInCourse(ctx, a.Title)
			return v, studentRows(v), err
		},
	},
	{
		Name: "average_student_age", Description: "average age of students", Columns: []string{"average", "students"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.AverageStudentAge(ctx)
			return v, averageRows(v), err
		},
	},
	{
		Name: "highest_credit_course", Description: "course with the most credits", Columns: []string{"id", "title", "credits"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			c, ok, err := s.HighestCreditCourse(ctx)
			if !ok {
				return []Course{}, nil, err
			}
			return []Course{c}, courseRows([]Course{c}), err
		},
	},
	{
		Name: "students_with_grade", Description: "students holding a grade", Params: []string{"grade"}, Columns: []string{"id", "name", "age"},
		run: func(ctx context.Context, s *Service, a ReportArgs) (any, [][]string, error) {
			v, err := s.StudentsWithGrade(ctx, a.Grade)
			return v, studentRows(v), err
		},
	},
	{
		Name: "enrollment_counts_by_course", Description: "enrollments per course", Columns: []string{"title", "students"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.EnrollmentCountsByCourse(ctx)
			return v, rowsOf(v, func(c CourseCount) []string { return []string{c.Title, strconv.Itoa(c.Count)} }), err
		},
	},
	{
		Name: "total_credits_by_student", Description: "total credits per student", Columns: []string{"name", "credits"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.TotalCreditsByStudent(ctx)
			return v, creditRows(v), err
		},
	},
	{
		Name: "students_with_no_courses", Description: "students not enrolled in any course", Columns: []string{"id", "name", "age"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.StudentsWithNoCourses(ctx)
			return v, studentRows(v), err
		},
	},
	{
		Name: "courses_with_no_students", Description: "courses without enrolled students", Columns: []string{"id", "title", "credits"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.CoursesWithNoStudents(ctx)
			return v, courseRows(v), err
		},
	},
	{
		Name: "grade_min_max_credits", Description: "lowest and highest course credits", Columns: []string{"lowest", "highest"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.GradeMinMaxCredits(ctx)
			if v.Courses == 0 {
				return v, nil, err
			}
			return v, [][]string{{strconv.Itoa(v.Lowest), strconv.Itoa(v.Highest)}}, err
		},
	},
	{
		Name: "students_with_multiple_courses", Description: "students enrolled in more than one course", Columns: []string{"name", "courses"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.StudentsWithMultipleCourses(ctx)
			return v, rowsOf(v, func(c StudentCourseCount) []string { return []string{c.Name, strconv.Itoa(c.Courses)} }), err
		},
	},
	{
		Name: "average_course_credits", Description: "average course credits", Columns: []string{"average", "courses"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.AverageCourseCredits(ctx)
			return v, averageRows(v), err
		},
	},
	{
		Name: "students_with_grade_below", Description: "students with a grade below a threshold", Params: []string{"grade"}, Columns: []string{"id", "name", "age"},
		run: func(ctx context.Context, s *Service, a ReportArgs) (any, [][]string, error) {
			v, err := s.StudentsWithGradeBelow(ctx, a.Grade)
			return v, studentRows(v), err
		},
	},
	{
		Name: "students_sorted_by_name", Description: "students in alphabetical order", Columns: []string{"id", "name", "age"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.StudentsSortedByName(ctx)
			return v, studentRows(v), err
		},
	},
	{
		Name: "student_count", Description: "total number of students", Columns: []string{"students"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.StudentCount(ctx)
			return v, [][]string{{strconv.Itoa(v)}}, err
		},
	},
	{
		Name: "enrollment_count", Description: "total number of enrollments", Columns: []string{"enrollments"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.EnrollmentCount(ctx)
			return v, [][]string{{strconv.Itoa(v)}}, err
		},
	},
	{
		Name: "student_course_titles", Description: "each student's courses", Columns: []string{"name", "courses"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.StudentCourseTitles(ctx)
			return v, rowsOf(v, func(c StudentCourses) []string { return []string{c.Name, strings.Join(c.Titles, ", ")} }), err
		},
	},
	{
		Name: "students_grouped_by_grade", Description: "students grouped by grade", Columns: []string{"grade", "students"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.StudentsGroupedByGrade(ctx)
			return v, rowsOf(v, func(g GradeGroup) []string { return []string{g.Grade, strings.Join(g.Students, ", ")} }), err
		},
	},
	{
		Name: "credits_ranking", Description: "students by total credits, highest first", Columns: []string{"name", "credits"},
		run: func(ctx context.Context, s *Service, _ ReportArgs) (any, [][]string, error) {
			v, err := s.CreditsRanking(ctx)
			return v, creditRows(v), err
		},
	},
}

// Reports returns the registered reports in catalogue order.
func Reports() []ReportDefinition {
	return slices.Clone(reports)
}

// ReportNames lists the registered report names in catalogue order.
func ReportNames() []string {
	return slices.Collect(query.Map(slices.Values(reports), func(r ReportDefinition) string { return r.Name }))
}

// LookupReport finds a registered report by name.
func LookupReport(name string) (ReportDefinition, bool) {
	return query.First(slices.Values(reports), func(r ReportDefinition) bool { return r.Name == name })
}

// RunReport executes the named report. Unknown names fail with ValidationError.
func (s *Service) RunReport(ctx context.Context, name string, args ReportArgs) (Report, error) {
	def, ok := LookupReport(name)
	if !ok {
		return Report{}, ValidationError{Field: "report", Value: name, Reason: "unknown report"}
	}
	data, rows, err := def.run(ctx, s, args)
	if err != nil {
		return Report{}, fmt.Errorf("report %s: %w", name, err)
	}
	if rows == nil {
		rows = [][]string{}
	}
	return Report{Name: name, Columns: slices.Clone(def.Columns), Rows: rows, Data: data}, nil
}

func rowsOf[T any](items []T, cells func(T) []string) [][]string {
	return slices.Collect(query.Map(slices.Values(items), cells))
}

func studentRows(students []Student) [][]string {
	return rowsOf(students, func(s Student) []string {
		return []string{strconv.FormatInt(s.ID, 10), s.Name, strconv.Itoa(s.Age)}
	})
}

func courseRows(courses []Course) [][]string {
	return rowsOf(courses, func(c Course) []string {
		return []string{strconv.FormatInt(c.ID, 10), c.Title, strconv.Itoa(c.Credits)}
	})
}

func creditRows(credits []StudentCredits) [][]string {
	return rowsOf(credits, func(c StudentCredits) []string {
		return []string{c.Name, strconv.FormatInt(c.Credits, 10)}
	})
}

// averageRows renders to one decimal place; an empty average has no rows.
func averageRows(a Average) [][]string {
	if !a.Defined() {
		return nil
	}
	return [][]string{{strconv.FormatFloat(query.Round(a.Value, 1), 'f', 1, 64), strconv.Itoa(a.Count)}}
}
