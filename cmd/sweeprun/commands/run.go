package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sweeprun/sweeprun/pkg/config"
	"github.com/sweeprun/sweeprun/pkg/executor"
	"github.com/sweeprun/sweeprun/pkg/journal"
	"github.com/sweeprun/sweeprun/pkg/results"
	"github.com/sweeprun/sweeprun/pkg/runner"
	"github.com/sweeprun/sweeprun/pkg/sweep"
)

func newRunCommand() *cobra.Command {
	var (
		paramFlags  []string
		sweepFile   string
		metricTerms []string
		output      string
		stdoutOnly  bool
		stderrOnly  bool
		preserve    bool
		journalPath string
	)

	cmd := &cobra.Command{
		Use:   "run [flags] [-- command [args...]]",
		Short: "Run a command for every parameter combination",
		Long: `Run a command once per combination of the declared parameter values.

Each parameter's value is a comma-separated list of sub-expressions:
plain numbers, literal strings, numeric ranges (start:end:step, end
exclusive), and arithmetic referencing other parameters (2^n, 32n).
Values reach the command as upper-cased environment variables.

Metrics are read from the command's output: any number preceded by a
label counts, and --metrics selects which labels to record. Results
accumulate in a CSV file; rerunning with the same file skips
combinations that already completed, so an interrupted sweep resumes
where it left off.

The command comes after --, from the sweep file, or as a shell script
piped on stdin. A failing combination is reported and the sweep
continues with the next one.`,
		Example: `  # Sweep two parameters, recording the "accuracy" metric
  sweeprun run -P gpu=1,2 -P batch-size=32,64,128 -m accuracy -- python train.py

  # Ranges and dependent parameters
  sweeprun run -P n=1:5 -P workers=2^n -m throughput -- ./bench.sh

  # Keep raw output instead of extracting metrics
  sweeprun run -P seed=1:10 --preserve-output --stdout -- ./sim

  # Script on stdin, sweep definition from a file
  echo 'python train.py --gpu $GPU' | sweeprun run -f sweep.yaml`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

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
			cfg.Metrics = append(cfg.Metrics, metricTerms...)

			if stdoutOnly && stderrOnly {
				return errors.New("--stdout and --stderr are mutually exclusive")
			}
			if stdoutOnly {
				cfg.Capture = "stdout"
			}
			if stderrOnly {
				cfg.Capture = "stderr"
			}
			if preserve {
				cfg.PreserveOutput = true
			}
			if cmd.Flags().Changed("output") || cfg.Output == "" {
				cfg.Output = output
			}
			if cmd.Flags().Changed("journal") {
				cfg.Journal = journalPath
			}

			if len(cfg.Parameters) == 0 {
				return errors.New("at least one parameter is required (use --param or a sweep file)")
			}
			if len(cfg.Metrics) == 0 && !cfg.PreserveOutput {
				return errors.New("nothing to record: request metrics with --metrics or keep raw output with --preserve-output")
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
			if len(combos) == 0 {
				log.Warn("parameter set expands to zero combinations, nothing to do")
				return nil
			}

			argv, err := resolveArgv(args, cfg, cmd.InOrStdin())
			if err != nil {
				return err
			}
			exec, err := executor.New(argv)
			if err != nil {
				return err
			}

			capture := cfg.CaptureMode()
			store, err := results.Open(results.Options{
				Params:         set.Names(),
				Metrics:        cfg.Metrics,
				Capture:        capture,
				PreserveOutput: cfg.PreserveOutput,
				Path:           cfg.Output,
			})
			if err != nil {
				return err
			}
			if store.Existing() > 0 {
				log.Infof("found %d completed combinations in %s, resuming", store.Existing(), cfg.Output)
			}

			var jnl *journal.Journal
			if cfg.Journal != "" {
				jnl, err = journal.Open(cmd.Context(), cfg.Journal)
				if err != nil {
					return fmt.Errorf("open journal: %w", err)
				}
				defer jnl.Close()
			}

			log.Infof("sweeping %d combinations of %s", len(combos), strings.Join(set.Names(), ", "))

			summary, err := runner.New(store, exec, jnl, runner.Options{
				Metrics:        cfg.Metrics,
				Capture:        capture,
				PreserveOutput: cfg.PreserveOutput,
				OutputPath:     cfg.Output,
				Logger:         log,
			}).Run(cmd.Context(), combos)
			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				log.Warnf("%d of %d combinations failed", summary.Failed, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&paramFlags, "param", "P", nil, "parameter declaration name=expression (repeatable, order matters)")
	cmd.Flags().StringVarP(&sweepFile, "sweep", "f", "", "sweep definition file (YAML)")
	cmd.Flags().StringSliceVarP(&metricTerms, "metrics", "m", nil, "metric terms to record from the output")
	cmd.Flags().StringVarP(&output, "output", "o", "results.csv", "result file path")
	cmd.Flags().BoolVar(&stdoutOnly, "stdout", false, "capture stdout only")
	cmd.Flags().BoolVar(&stderrOnly, "stderr", false, "capture stderr only")
	cmd.Flags().BoolVarP(&preserve, "preserve-output", "p", false, "store raw captured output in the result file")
	cmd.Flags().StringVar(&journalPath, "journal", "", "sqlite run-journal path (empty disables the journal)")

	return cmd
}

// parseParamFlag splits a --param value into name and expression.
func parseParamFlag(s string) (string, string, error) {
	name, expr, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid parameter %q: expected name=expression", s)
	}
	return name, expr, nil
}

// buildSet declares the configured parameters into a sweep set,
// preserving declaration order.
func buildSet(params []config.ParameterConfig) (*sweep.Set, error) {
	set := sweep.NewSet()
	for _, p := range params {
		if err := set.Add(p.Name, p.Value); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// resolveArgv picks the command to run: trailing args beat the sweep
// file, which beats a script piped on stdin.
func resolveArgv(args []string, cfg *config.SweepConfig, stdin io.Reader) ([]string, error) {
	switch {
	case len(args) > 0:
		if len(cfg.Command) > 0 || cfg.Script != "" {
			return nil, errors.New("command given both on the command line and in the sweep file")
		}
		return args, nil
	case len(cfg.Command) > 0:
		return cfg.Command, nil
	case cfg.Script != "":
		return executor.ScriptCommand(cfg.Script), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read script from stdin: %w", err)
		}
		script := strings.TrimSpace(string(data))
		if script == "" {
			return nil, errors.New("no command specified: pass one after --, set it in the sweep file, or pipe a script on stdin")
		}
		return executor.ScriptCommand(script), nil
	}
}
