package core

// EnrollmentRow is one enrollment joined to its student and course.
type EnrollmentRow struct {
	EnrollmentID int64  `json:"enrollment_id"`
	StudentID    int64  `json:"student_id"`
	StudentName  string `json:"student_name"`
	CourseID     int64  `json:"course_id"`
	CourseTitle  string `json:"course_title"`
	Grade        string `json:"grade"`
}

// CourseCount is the number of enrollments per course.
type CourseCount struct {
	CourseID int64  `json:"course_id"`
	Title    string `json:"title"`
	Count    int    `json:"count"`
}

// StudentCredits is the credit total over a student's enrollments.
type StudentCredits struct {
	StudentID int64  `json:"student_id"`
	Name      string `json:"name"`
	Credits   int64  `json:"credits"`
}

// StudentCourseCount pairs a student with the number of courses taken.
type StudentCourseCount struct {
	StudentID int64  `json:"student_id"`
	Name      string `json:"name"`
	Courses   int    `json:"courses"`
}

// StudentCourses lists the course titles a student is enrolled in.
type StudentCourses struct {
	StudentID int64    `json:"student_id"`
	Name      string   `json:"name"`
	Titles    []string `json:"titles"`
}

// GradeGroup holds the distinct student names that received a grade.
type GradeGroup struct {
	Grade    string   `json:"grade"`
	Students []string `json:"students"`
}

// CreditRange is the lowest and highest course credit value. Courses is zero
// when there are no courses, in which case Lowest and Highest are meaningless.
type CreditRange struct {
	Lowest  int `json:"lowest"`
	Highest int `json:"highest"`
	Courses int `json:"courses"`
}

// Average is an arithmetic mean over Count values. It is undefined when Count
// is zero.
type Average struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Defined reports whether the average was computed over at least one value.
func (a Average) Defined() bool { return a.Count > 0 }
