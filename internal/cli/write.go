package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"registrar/internal/core"
)

func parseInt(field, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.ValidationError{Field: field, Value: raw, Reason: "must be an integer"}
	}
	return n, nil
}

func newAddCourseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add-course <title> <credits>",
		Short: "Add a course",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			credits, err := parseInt("credits", args[1])
			if err != nil {
				return err
			}
			c, err := a.svc.AddCourse(cmd.Context(), args[0], credits)
			if err != nil {
				return err
			}
			return a.out.Result(c, fmt.Sprintf("added course %d: %s (%d credits)", c.ID, c.Title, c.Credits))
		}),
	}
}

func newAddStudentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add-student <name> <age>",
		Short: "Add a student",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			age, err := parseInt("age", args[1])
			if err != nil {
				return err
			}
			s, err := a.svc.AddStudent(cmd.Context(), args[0], age)
			if err != nil {
				return err
			}
			return a.out.Result(s, fmt.Sprintf("added student %d: %s, age %d", s.ID, s.Name, s.Age))
		}),
	}
}

func newEnrollCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enroll <student> <course> [grade]",
		Short: "Enroll a student, by name, in a course, by title",
		Args:  cobra.RangeArgs(2, 3),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			grade := ""
			if len(args) == 3 {
				grade = args[2]
			}
			e, err := a.svc.EnrollStudent(cmd.Context(), args[0], args[1], grade)
			if err != nil {
				return err
			}
			return a.out.Result(e, fmt.Sprintf("enrolled %s in %s (enrollment %d)", args[0], args[1], e.ID))
		}),
	}
}

func newUpdateAgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update-age <name> <age>",
		Short: "Change a student's age",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			age, err := parseInt("age", args[1])
			if err != nil {
				return err
			}
			s, err := a.svc.UpdateStudentAge(cmd.Context(), args[0], age)
			if err != nil {
				return err
			}
			return a.out.Result(s, fmt.Sprintf("%s is now %d", s.Name, s.Age))
		}),
	}
}

func newDeleteCourseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-course <title>",
		Short: "Delete a course; enrollments follow the delete policy",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			c, err := a.svc.DeleteCourse(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.out.Result(c, fmt.Sprintf("deleted course %d: %s", c.ID, c.Title))
		}),
	}
}

func newDeleteStudentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-student <name>",
		Short: "Delete a student; enrollments follow the delete policy",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			s, err := a.svc.DeleteStudent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.out.Result(s, fmt.Sprintf("deleted student %d: %s", s.ID, s.Name))
		}),
	}
}

type affected struct {
	Affected int `json:"affected"`
}

func newRenameGradeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename-grade <from> <to>",
		Short: "Replace one grade with another on every enrollment",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			n, err := a.svc.UpdateGrade(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.out.Result(affected{n}, fmt.Sprintf("updated %d enrollment(s) from %q to %q", n, args[0], args[1]))
		}),
	}
}

func newDropEnrollmentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "drop-enrollments <title>",
		Short: "Delete every enrollment in the courses with this title",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			n, err := a.svc.DeleteEnrollmentsForCourse(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.out.Result(affected{n}, fmt.Sprintf("deleted %d enrollment(s) for %q", n, args[0]))
		}),
	}
}
