package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"registrar/internal/core"
)

func newReportsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "reports",
		Short:       "List the report catalogue",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := newRenderer(cmd.OutOrStdout(), "table")
			rows := make([][]string, 0, len(core.Reports()))
			for _, def := range core.Reports() {
				rows = append(rows, []string{def.Name, strings.Join(def.Params, ","), def.Description})
			}
			return out.Table([]string{"name", "params", "description"}, rows)
		},
	}
}

func newReportCommand() *cobra.Command {
	var args core.ReportArgs
	cmd := &cobra.Command{
		Use:   "report <name>",
		Short: "Run one report from the catalogue",
		Example: `  registrar report students
  registrar report students_older_than --age 20
  registrar report students_in_course --title "Database Systems" -o json`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return core.ReportNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: withApp(func(cmd *cobra.Command, a *app, names []string) error {
			rep, err := a.svc.RunReport(cmd.Context(), names[0], args)
			if err != nil {
				return err
			}
			return a.out.Report(rep)
		}),
	}
	cmd.Flags().IntVar(&args.Age, "age", 0, "age threshold for students_older_than")
	cmd.Flags().StringVar(&args.Title, "title", "", "course title for students_in_course")
	cmd.Flags().StringVar(&args.Grade, "grade", "", "grade for students_with_grade and students_with_grade_below")
	return cmd
}
