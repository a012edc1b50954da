package domain

import "testing"

func TestPredicateCombinators(t *testing.T) {
	ali := Student{ID: 1, Name: "Ali", Age: 20}
	sara := Student{ID: 2, Name: "Sara", Age: 22}

	if !All[Student]()(ali) || None[Student]()(ali) {
		t.Fatalf("All/None misbehave")
	}
	older := Predicate[Student](func(s Student) bool { return s.Age > 21 })
	both := And(older, StudentNamed("Sara"))
	if !both(sara) || both(ali) {
		t.Fatalf("And misbehaves")
	}
	if Not(older)(sara) || !Not(older)(ali) {
		t.Fatalf("Not misbehaves")
	}
}

func TestEnrollmentHelpers(t *testing.T) {
	e := Enrollment{ID: 1, StudentID: 2, CourseID: 3, Grade: "F"}
	if !EnrollmentGraded("F")(e) || !EnrollmentInCourse(3)(e) || !EnrollmentOfStudent(2)(e) {
		t.Fatalf("expected helpers to match %+v", e)
	}
	SetGrade("Repeat")(&e)
	if e.Grade != "Repeat" || !e.HasGrade() {
		t.Fatalf("expected grade update, got %+v", e)
	}
	s := Student{Name: "Ali"}
	SetAge(25)(&s)
	if s.Age != 25 {
		t.Fatalf("expected age update")
	}
	if !CourseTitled("Programming")(Course{Title: "Programming"}) {
		t.Fatalf("expected title match")
	}
}
