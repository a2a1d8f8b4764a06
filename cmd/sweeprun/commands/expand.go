package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweeprun/sweeprun/pkg/config"
	"github.com/sweeprun/sweeprun/pkg/sweep"
)

func newExpandCommand() *cobra.Command {
	var (
		paramFlags []string
		sweepFile  string
		countOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "expand [flags]",
		Short: "Print every combination without running anything",
		Long: `Expand the declared parameters into their full combination list and
print one combination per line, in sweep order. Useful to check what a
sweep will do before running it.`,
		Example: `  # Preview a sweep
  sweeprun expand -P gpu=1,2 -P batch=2^gpu

  # Just count the combinations of a sweep file
  sweeprun expand -f sweep.yaml --count`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &config.SweepConfig{}
			if sweepFile != "" {
				var err error
				cfg, err = config.Load(sweepFile)
				if err != nil {
					return err
				}
			}
			for _, p := range paramFlags {
				name, expr, err := parseParamFlag(p)
				if err != nil {
					return err
				}
				cfg.Parameters = append(cfg.Parameters, config.ParameterConfig{Name: name, Value: expr})
			}
			if len(cfg.Parameters) == 0 {
				return errors.New("at least one parameter is required (use --param or a sweep file)")
			}

			set, err := buildSet(cfg.Parameters)
			if err != nil {
				return err
			}
			gen, err := sweep.NewGenerator(set)
			if err != nil {
				return err
			}
			combos, err := gen.All()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !countOnly {
				for _, c := range combos {
					line := ""
					for i, name := range c.DeclarationOrder {
						if i > 0 {
							line += " "
						}
						line += name + "=" + c.Values[name]
					}
					fmt.Fprintln(out, line)
				}
			}
			fmt.Fprintf(out, "%d combinations\n", len(combos))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&paramFlags, "param", "P", nil, "parameter declaration name=expression (repeatable, order matters)")
	cmd.Flags().StringVarP(&sweepFile, "sweep", "f", "", "sweep definition file (YAML)")
	cmd.Flags().BoolVar(&countOnly, "count", false, "print only the combination count")

	return cmd
}
