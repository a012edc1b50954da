package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"registrar/internal/seed"
)

func newSeedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a seed fixture into an empty store",
		Long: `Load the built-in fixture, or the YAML file given with --file, when the
store holds no students. A store that already has students is left as is.`,
		Example: `  registrar seed --storage sqlite
  registrar seed --storage sqlite --file fixtures/term2.yaml`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{manualSeed: "true"},
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			fx := seed.Default()
			if file != "" {
				var err error
				if fx, err = seed.LoadFile(file); err != nil {
					return err
				}
			}
			sum, err := seed.Apply(cmd.Context(), a.store, fx)
			if err != nil {
				return err
			}
			text := "store already has students; nothing seeded"
			if sum.Applied {
				text = fmt.Sprintf("seeded %d students, %d courses, %d enrollments", sum.Students, sum.Courses, sum.Enrollments)
			}
			return a.out.Result(sum, text)
		}),
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML fixture to load")
	return cmd
}
