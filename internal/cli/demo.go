package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"registrar/internal/core"
)

type demoStep struct {
	title string
	run   func(ctx context.Context, a *app) error
}

type demoSection struct {
	heading string
	steps   []demoStep
}

func reportStep(title, name string, args core.ReportArgs) demoStep {
	return demoStep{title: title, run: func(ctx context.Context, a *app) error {
		rep, err := a.svc.RunReport(ctx, name, args)
		if err != nil {
			return err
		}
		return a.out.Report(rep)
	}}
}

func writeStep(title string, fn func(ctx context.Context, svc *core.Service) (string, error)) demoStep {
	return demoStep{title: title, run: func(ctx context.Context, a *app) error {
		msg, err := fn(ctx, a.svc)
		if err != nil {
			return err
		}
		a.out.Line("%s", msg)
		return nil
	}}
}

// demoScript is the walkthrough over the seed data. Later steps see the
// effects of earlier writes.
func demoScript() []demoSection {
	return []demoSection{
		{heading: "QUERIES", steps: []demoStep{
			reportStep("1. All students", "students", core.ReportArgs{}),
			reportStep("2. All courses", "courses", core.ReportArgs{}),
			reportStep("3. Students with courses and grades", "students_and_courses", core.ReportArgs{}),
			reportStep("4. Students older than 20", "students_older_than", core.ReportArgs{Age: 20}),
			reportStep("5. Students in 'Programming'", "students_in_course", core.ReportArgs{Title: "Programming"}),
			reportStep("6. Average student age", "average_student_age", core.ReportArgs{}),
			reportStep("7. Highest credit course", "highest_credit_course", core.ReportArgs{}),
			reportStep("8. Students with grade 'A'", "students_with_grade", core.ReportArgs{Grade: "A"}),
			reportStep("9. Course enrollment counts", "enrollment_counts_by_course", core.ReportArgs{}),
			reportStep("10. Students with their total credits", "total_credits_by_student", core.ReportArgs{}),
		}},
		{heading: "ASSIGNMENT QUERIES", steps: []demoStep{
			reportStep("Q1. Students enrolled in 'Database Systems'", "students_in_course", core.ReportArgs{Title: "Database Systems"}),
			writeStep("Q2. Add course 'Web Development' (3 credits)", func(ctx context.Context, svc *core.Service) (string, error) {
				c, err := svc.AddCourse(ctx, "Web Development", 3)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("added course %d: %s", c.ID, c.Title), nil
			}),
			writeStep("Q3. Enroll Sara into 'Web Development' with grade 'A+'", func(ctx context.Context, svc *core.Service) (string, error) {
				e, err := svc.EnrollStudent(ctx, "Sara", "Web Development", "A+")
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("enrolled Sara (enrollment %d)", e.ID), nil
			}),
			writeStep("Q4. Update Ali's age to 21", func(ctx context.Context, svc *core.Service) (string, error) {
				s, err := svc.UpdateStudentAge(ctx, "Ali", 21)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%s is now %d", s.Name, s.Age), nil
			}),
			writeStep("Q5. Delete course 'Programming'", func(ctx context.Context, svc *core.Service) (string, error) {
				c, err := svc.DeleteCourse(ctx, "Programming")
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("deleted course %d: %s", c.ID, c.Title), nil
			}),
			reportStep("Q6. Students enrolled in each course", "enrollment_counts_by_course", core.ReportArgs{}),
			reportStep("Q7. Average course credits", "average_course_credits", core.ReportArgs{}),
			reportStep("Q8. Students with grades below 'B'", "students_with_grade_below", core.ReportArgs{Grade: "B"}),
			reportStep("Q9. Students sorted by name", "students_sorted_by_name", core.ReportArgs{}),
			reportStep("Q10. Total number of students", "student_count", core.ReportArgs{}),
		}},
		{heading: "BONUS PRACTICE TASKS", steps: []demoStep{
			reportStep("Bonus 1. Highest and lowest course credits", "grade_min_max_credits", core.ReportArgs{}),
			reportStep("Bonus 2. Students not enrolled in any course", "students_with_no_courses", core.ReportArgs{}),
			writeStep("Bonus 3. Update grade 'F' to 'Repeat'", func(ctx context.Context, svc *core.Service) (string, error) {
				n, err := svc.UpdateGrade(ctx, "F", "Repeat")
				if err != nil {
					return "", err
				}
				if n == 0 {
					return "no 'F' grades found to update", nil
				}
				return fmt.Sprintf("updated %d grade(s) from 'F' to 'Repeat'", n), nil
			}),
			writeStep("Bonus 4. Delete all enrollments for 'Web Development'", func(ctx context.Context, svc *core.Service) (string, error) {
				n, err := svc.DeleteEnrollmentsForCourse(ctx, "Web Development")
				if err != nil {
					return "", err
				}
				if n == 0 {
					return "no enrollments found for 'Web Development'", nil
				}
				return fmt.Sprintf("deleted %d enrollment(s) for 'Web Development'", n), nil
			}),
			reportStep("Bonus 5. Courses with no enrolled students", "courses_with_no_students", core.ReportArgs{}),
			reportStep("Bonus 6. Students and their courses", "student_course_titles", core.ReportArgs{}),
			reportStep("Bonus 7. Total enrollments", "enrollment_count", core.ReportArgs{}),
			reportStep("Bonus 8. Students grouped by grade", "students_grouped_by_grade", core.ReportArgs{}),
			reportStep("Bonus 9. Total credits earned by each student", "credits_ranking", core.ReportArgs{}),
			reportStep("Bonus 10. Students enrolled in more than one course", "students_with_multiple_courses", core.ReportArgs{}),
		}},
	}
}

func newDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the scripted walkthrough over the seed data",
		Long: `Run every catalogue query and the scripted writes in order. A step that
fails prints its error and the walkthrough carries on.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			failed := runDemo(cmd.Context(), a, demoScript())
			if failed > 0 {
				a.out.Line("\ndemo completed with %d failed step(s)", failed)
			} else {
				a.out.Line("\ndemo completed")
			}
			return nil
		}),
	}
}

func runDemo(ctx context.Context, a *app, sections []demoSection) int {
	failed := 0
	rule := strings.Repeat("=", 60)
	for _, sec := range sections {
		a.out.Line("\n%s\n%s\n%s", rule, sec.heading, rule)
		for _, step := range sec.steps {
			a.out.Line("\n%s", step.title)
			if err := step.run(ctx, a); err != nil {
				failed++
				a.out.Line("error: %v", err)
				a.logger.Warn("demo step failed", "step", step.title, "error", err)
			}
		}
	}
	return failed
}
