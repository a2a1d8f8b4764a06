// Package runner drives a sweep: one sequential command invocation per
// combination, with resume checks against the result store, metric
// extraction, and continue-on-failure semantics.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sweeprun/sweeprun/pkg/executor"
	"github.com/sweeprun/sweeprun/pkg/journal"
	"github.com/sweeprun/sweeprun/pkg/metrics"
	"github.com/sweeprun/sweeprun/pkg/results"
	"github.com/sweeprun/sweeprun/pkg/sweep"
	"github.com/sweeprun/sweeprun/pkg/telemetry"
)

// Options configures a sweep run.
type Options struct {
	// Metrics are the metric terms every combination must produce.
	Metrics []string

	// Capture selects which streams feed metric extraction.
	Capture metrics.CaptureMode

	// PreserveOutput stores raw captured output alongside metrics.
	PreserveOutput bool

	// OutputPath is the result file location, recorded in the journal.
	OutputPath string

	// Diagnostics receives failure dumps of the failing combination's
	// output. Defaults to stderr.
	Diagnostics io.Writer

	// Logger is the structured logger. Defaults to a stderr logger.
	Logger *telemetry.Logger
}

// Summary is the outcome of a sweep.
type Summary struct {
	RunID     string
	Total     int
	Completed int
	Skipped   int
	Failed    int
}

// Runner executes combinations against a result store.
type Runner struct {
	store *results.Store
	exec  *executor.Executor
	jnl   *journal.Journal
	opts  Options
	diag  io.Writer
	log   *telemetry.Logger
}

// New creates a runner. jnl may be nil to run without a journal.
func New(store *results.Store, exec *executor.Executor, jnl *journal.Journal, opts Options) *Runner {
	diag := opts.Diagnostics
	if diag == nil {
		diag = os.Stderr
	}
	log := opts.Logger
	if log == nil {
		log = telemetry.NewLogger(telemetry.LoggingConfig{})
	}
	return &Runner{
		store: store,
		exec:  exec,
		jnl:   jnl,
		opts:  opts,
		diag:  diag,
		log:   log.NewComponentLogger("runner"),
	}
}

// Run executes every combination in order. Combinations whose exact
// parameter values already exist in the result store are skipped. A
// failing combination (spawn failure, non-zero exit, or missing
// metrics) is reported and the sweep continues; only a result-file
// write error or context cancellation aborts the run.
func (r *Runner) Run(ctx context.Context, combos []*sweep.Combination) (*Summary, error) {
	summary := &Summary{RunID: uuid.New().String(), Total: len(combos)}
	log := r.log.WithRunID(summary.RunID)

	r.journalStart(ctx, log, summary)

	for i, combo := range combos {
		if err := ctx.Err(); err != nil {
			r.journalFinish(ctx, log, summary, err)
			return summary, fmt.Errorf("sweep interrupted: %w", err)
		}

		pos := i + 1
		comboLog := log.WithField("combination", fmt.Sprintf("%d/%d", pos, len(combos)))

		if r.store.Resume(combo.Values) {
			comboLog.Infof("skipping already completed combination %s", formatParams(combo))
			summary.Skipped++
			r.journalCombination(ctx, log, &journal.CombinationRecord{
				RunID:    summary.RunID,
				Position: pos,
				Params:   encodeParams(combo),
				Status:   journal.CombinationStatusSkipped,
			})
			continue
		}

		comboLog.Infof("running combination %s", formatParams(combo))

		res, err := r.exec.Run(ctx, combo.Values)
		if err != nil {
			if ctx.Err() != nil {
				r.journalFinish(ctx, log, summary, ctx.Err())
				return summary, fmt.Errorf("sweep interrupted: %w", ctx.Err())
			}
			comboLog.WithError(err).Error("command could not be started")
			summary.Failed++
			msg := err.Error()
			r.journalCombination(ctx, log, &journal.CombinationRecord{
				RunID:    summary.RunID,
				Position: pos,
				Params:   encodeParams(combo),
				Status:   journal.CombinationStatusFailed,
				Error:    &msg,
			})
			continue
		}

		rec := &journal.CombinationRecord{
			RunID:      summary.RunID,
			Position:   pos,
			Params:     encodeParams(combo),
			ExitCode:   &res.ExitCode,
			DurationMS: res.Duration.Milliseconds(),
		}

		if res.ExitCode != 0 {
			comboLog.Errorf("command exited with code %d", res.ExitCode)
			r.dumpOutput(res)
			summary.Failed++
			msg := fmt.Sprintf("exit code %d", res.ExitCode)
			rec.Status = journal.CombinationStatusFailed
			rec.Error = &msg
			r.journalCombination(ctx, log, rec)
			continue
		}

		extracted := metrics.Extract(r.opts.Capture.Select(res.Stdout, res.Stderr), r.opts.Metrics)
		if missing := metrics.Missing(extracted, r.opts.Metrics); len(missing) > 0 {
			comboLog.Errorf("output is missing metrics: %s", strings.Join(missing, ", "))
			r.dumpOutput(res)
			summary.Failed++
			msg := "missing metrics: " + strings.Join(missing, ", ")
			rec.Status = journal.CombinationStatusFailed
			rec.Error = &msg
			r.journalCombination(ctx, log, rec)
			continue
		}

		err = r.store.Append(&results.Result{
			Params:  combo.Values,
			Metrics: extracted,
			Stdout:  res.Stdout,
			Stderr:  res.Stderr,
		})
		if err != nil {
			r.journalFinish(ctx, log, summary, err)
			return summary, err
		}

		summary.Completed++
		rec.Status = journal.CombinationStatusCompleted
		r.journalCombination(ctx, log, rec)
		comboLog.Debugf("combination completed in %s", res.Duration.Round(time.Millisecond))
	}

	r.journalFinish(ctx, log, summary, nil)
	log.Infof("sweep finished: %d completed, %d skipped, %d failed", summary.Completed, summary.Skipped, summary.Failed)
	return summary, nil
}

// dumpOutput writes the failing combination's captured streams so the
// failure can be diagnosed without rerunning.
func (r *Runner) dumpOutput(res *executor.Result) {
	fmt.Fprintln(r.diag, "=== stdout ===")
	fmt.Fprintln(r.diag, res.Stdout)
	fmt.Fprintln(r.diag, "=== stderr ===")
	fmt.Fprintln(r.diag, res.Stderr)
}

// Journal writes are best effort: a journal failure never aborts the
// sweep, the result file is the source of truth.

func (r *Runner) journalStart(ctx context.Context, log *telemetry.Logger, summary *Summary) {
	if r.jnl == nil {
		return
	}
	err := r.jnl.CreateRun(ctx, &journal.Run{
		ID:         summary.RunID,
		Command:    strings.Join(r.exec.Argv(), " "),
		OutputPath: r.opts.OutputPath,
		Status:     journal.RunStatusRunning,
		Total:      summary.Total,
		StartedAt:  time.Now(),
	})
	if err != nil {
		log.WithError(err).Warn("failed to record run in journal")
	}
}

func (r *Runner) journalCombination(ctx context.Context, log *telemetry.Logger, rec *journal.CombinationRecord) {
	if r.jnl == nil {
		return
	}
	if err := r.jnl.RecordCombination(ctx, rec); err != nil {
		log.WithError(err).Warn("failed to record combination in journal")
	}
}

func (r *Runner) journalFinish(ctx context.Context, log *telemetry.Logger, summary *Summary, runErr error) {
	if r.jnl == nil {
		return
	}
	status := journal.RunStatusCompleted
	var msg *string
	if runErr != nil {
		status = journal.RunStatusFailed
		s := runErr.Error()
		msg = &s
	}
	if err := r.jnl.UpdateRunStatus(context.WithoutCancel(ctx), summary.RunID, status, msg); err != nil {
		log.WithError(err).Warn("failed to update run status in journal")
	}
}

// formatParams renders a combination's values in declaration order for
// log lines.
func formatParams(c *sweep.Combination) string {
	parts := make([]string, 0, len(c.DeclarationOrder))
	for _, name := range c.DeclarationOrder {
		parts = append(parts, name+"="+c.Values[name])
	}
	return strings.Join(parts, " ")
}

// encodeParams renders a combination's values as JSON for the journal.
func encodeParams(c *sweep.Combination) string {
	data, err := json.Marshal(c.Values)
	if err != nil {
		return "{}"
	}
	return string(data)
}
