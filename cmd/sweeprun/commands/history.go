package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeprun/sweeprun/pkg/journal"
)

func newHistoryCommand() *cobra.Command {
	var (
		journalPath string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past sweep runs from the journal",
		Long: `List sweep runs recorded in the journal, newest first. With a run ID,
show that run's per-combination records instead.`,
		Example: `  # Recent runs
  sweeprun history --journal sweeps.db

  # Details of one run
  sweeprun history --journal sweeps.db 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			jnl, err := journal.Open(ctx, journalPath)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer jnl.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			if len(args) == 1 {
				recs, err := jnl.ListCombinations(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "POS\tSTATUS\tEXIT\tDURATION\tPARAMS")
				for _, rec := range recs {
					exit := "-"
					if rec.ExitCode != nil {
						exit = fmt.Sprintf("%d", *rec.ExitCode)
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
						rec.Position,
						rec.Status,
						exit,
						time.Duration(rec.DurationMS)*time.Millisecond,
						rec.Params,
					)
				}
				return w.Flush()
			}

			runs, err := jnl.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tTOTAL\tOUTPUT\tCOMMAND")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					run.ID,
					run.StartedAt.Format(time.RFC3339),
					run.Status,
					run.Total,
					run.OutputPath,
					run.Command,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", "sweeprun.db", "sqlite run-journal path")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")

	return cmd
}
