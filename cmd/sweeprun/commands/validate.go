package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sweeprun/sweeprun/pkg/config"
	"github.com/sweeprun/sweeprun/pkg/sweep"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <sweep-file>",
		Short: "Validate a sweep definition file",
		Long: `Validate a sweep definition file: structural checks, parameter
expression evaluation, and dependency resolution. Reports the resolved
evaluation order and the total combination count without running
anything.`,
		Example: `  sweeprun validate sweep.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
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
			fmt.Fprintf(out, "%s: valid\n", args[0])
			fmt.Fprintf(out, "parameters:      %d (%s)\n", set.Len(), strings.Join(set.Names(), ", "))
			fmt.Fprintf(out, "evaluation order: %s\n", strings.Join(gen.ResolvedOrder(), ", "))
			fmt.Fprintf(out, "combinations:    %d\n", len(combos))
			return nil
		},
	}

	return cmd
}
