// Package cli provides the registrar command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// Command annotations.
const (
	skipSetup  = "registrar/skip-setup"  // runs without a store
	manualSeed = "registrar/manual-seed" // seeds on its own terms
)

type appKey struct{}

// NewRootCmd creates the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:   "registrar",
		Short: "Student, course and enrollment records",
		Long: `registrar keeps students, courses and enrollments and answers the
report catalogue against them.

With the default memory storage every invocation starts from the seed
fixture; use --storage sqlite or postgres to keep changes between runs.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipSetup] != "" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			a, err := newApp(cmd.Context(), cmd, cfgFile)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./registrar.yaml)")
	pf.String("storage", "", "storage driver (memory|sqlite|postgres)")
	pf.String("sqlite-path", "", "sqlite database file")
	pf.String("postgres-dsn", "", "postgres connection string")
	pf.String("delete-policy", "", "what deletes do to enrollments (cascade|restrict|orphan)")
	pf.Bool("unique-names", false, "reject duplicate student names and course titles")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("log-format", "", "log format (console|json)")
	pf.String("blob", "", "export blob driver (memory|fs|s3)")
	pf.String("blob-root", "", "directory for the fs blob driver")
	pf.String("s3-bucket", "", "bucket for the s3 blob driver")
	pf.Bool("no-seed", false, "do not load the seed fixture into an empty store")
	pf.String("seed-file", "", "seed fixture to load instead of the built-in one")
	pf.StringP("output", "o", "", "output format (table|json|csv)")
	pf.Bool("trace", false, "write a JSON trace line per catalogue call to stderr")

	_ = root.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		newVersionCommand(),
		newReportsCommand(),
		newReportCommand(),
		newSeedCommand(),
		newAddCourseCommand(),
		newAddStudentCommand(),
		newEnrollCommand(),
		newUpdateAgeCommand(),
		newDeleteCourseCommand(),
		newDeleteStudentCommand(),
		newRenameGradeCommand(),
		newDropEnrollmentsCommand(),
		newDemoCommand(),
		newExportCommand(),
		newServeCommand(),
	)
	return root
}

// Execute runs the root command and reports errors on stderr.
func Execute(ctx context.Context) error {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func appFrom(cmd *cobra.Command) *app {
	if cmd.Context() == nil {
		return nil
	}
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

var errNoApp = errors.New("command ran without application setup")

// withApp adapts fn to a cobra RunE and closes the app afterwards.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a := appFrom(cmd)
		if a == nil {
			return errNoApp
		}
		defer func() { err = errors.Join(err, a.Close()) }()
		return fn(cmd, a, args)
	}
}
