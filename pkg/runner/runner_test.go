package runner

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sweeprun/sweeprun/pkg/executor"
	"github.com/sweeprun/sweeprun/pkg/journal"
	"github.com/sweeprun/sweeprun/pkg/metrics"
	"github.com/sweeprun/sweeprun/pkg/results"
	"github.com/sweeprun/sweeprun/pkg/sweep"
	"github.com/sweeprun/sweeprun/pkg/telemetry"
)

func quietLogger() *telemetry.Logger {
	return telemetry.NewLogger(telemetry.LoggingConfig{Level: "error", Output: io.Discard})
}

func combosFor(t *testing.T, values ...string) []*sweep.Combination {
	t.Helper()
	combos := make([]*sweep.Combination, 0, len(values))
	for _, v := range values {
		combos = append(combos, &sweep.Combination{
			Values:           map[string]string{"GPU": v},
			DeclarationOrder: []string{"GPU"},
		})
	}
	return combos
}

func openStore(t *testing.T, path string, metricTerms []string) *results.Store {
	t.Helper()
	store, err := results.Open(results.Options{
		Params:  []string{"GPU"},
		Metrics: metricTerms,
		Path:    path,
	})
	if err != nil {
		t.Fatalf("results.Open returned error: %v", err)
	}
	return store
}

func TestRun_CompletesAllCombinations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := openStore(t, path, []string{"accuracy"})

	exec, err := executor.New(executor.ScriptCommand(`echo "accuracy: 0.9$GPU"`))
	if err != nil {
		t.Fatalf("executor.New returned error: %v", err)
	}

	r := New(store, exec, nil, Options{
		Metrics:     []string{"accuracy"},
		Diagnostics: io.Discard,
		Logger:      quietLogger(),
	})

	summary, err := r.Run(context.Background(), combosFor(t, "1", "2"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Completed != 2 || summary.Failed != 0 || summary.Skipped != 0 {
		t.Errorf("summary = %+v", summary)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "GPU,accuracy\n1,0.91\n2,0.92\n"
	if string(data) != want {
		t.Errorf("results file = %q, want %q", data, want)
	}
}

func TestRun_SkipsCompletedCombinations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	if err := os.WriteFile(path, []byte("GPU,accuracy\n1,0.91\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	store := openStore(t, path, []string{"accuracy"})

	exec, err := executor.New(executor.ScriptCommand(`echo "accuracy: 0.9$GPU"`))
	if err != nil {
		t.Fatalf("executor.New returned error: %v", err)
	}

	r := New(store, exec, nil, Options{
		Metrics:     []string{"accuracy"},
		Diagnostics: io.Discard,
		Logger:      quietLogger(),
	})

	summary, err := r.Run(context.Background(), combosFor(t, "1", "2"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Skipped != 1 || summary.Completed != 1 {
		t.Errorf("summary = %+v", summary)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "GPU,accuracy\n1,0.91\n2,0.92\n"
	if string(data) != want {
		t.Errorf("results file = %q, want %q", data, want)
	}
}

func TestRun_ContinuesAfterCommandFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := openStore(t, path, []string{"accuracy"})

	script := `if [ "$GPU" = "1" ]; then echo boom >&2; exit 3; fi; echo "accuracy: 0.9$GPU"`
	exec, err := executor.New(executor.ScriptCommand(script))
	if err != nil {
		t.Fatalf("executor.New returned error: %v", err)
	}

	var diag bytes.Buffer
	r := New(store, exec, nil, Options{
		Metrics:     []string{"accuracy"},
		Diagnostics: &diag,
		Logger:      quietLogger(),
	})

	summary, err := r.Run(context.Background(), combosFor(t, "1", "2"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Failed != 1 || summary.Completed != 1 {
		t.Errorf("summary = %+v", summary)
	}

	dump := diag.String()
	if !strings.Contains(dump, "=== stdout ===") || !strings.Contains(dump, "=== stderr ===") {
		t.Errorf("diagnostics missing stream markers: %q", dump)
	}
	if !strings.Contains(dump, "boom") {
		t.Errorf("diagnostics missing captured stderr: %q", dump)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if want := "GPU,accuracy\n2,0.92\n"; string(data) != want {
		t.Errorf("results file = %q, want %q", data, want)
	}
}

func TestRun_MissingMetricIsFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := openStore(t, path, []string{"accuracy"})

	exec, err := executor.New(executor.ScriptCommand(`echo "loss: 0.1"`))
	if err != nil {
		t.Fatalf("executor.New returned error: %v", err)
	}

	var diag bytes.Buffer
	r := New(store, exec, nil, Options{
		Metrics:     []string{"accuracy"},
		Diagnostics: &diag,
		Logger:      quietLogger(),
	})

	summary, err := r.Run(context.Background(), combosFor(t, "1"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Failed != 1 || summary.Completed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(diag.String(), "loss: 0.1") {
		t.Errorf("diagnostics missing output dump: %q", diag.String())
	}
}

func TestRun_SpawnFailureContinues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := openStore(t, path, []string{"accuracy"})

	exec, err := executor.New([]string{"/nonexistent/sweeprun-test-binary"})
	if err != nil {
		t.Fatalf("executor.New returned error: %v", err)
	}

	r := New(store, exec, nil, Options{
		Metrics:     []string{"accuracy"},
		Diagnostics: io.Discard,
		Logger:      quietLogger(),
	})

	summary, err := r.Run(context.Background(), combosFor(t, "1", "2"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Failed != 2 {
		t.Errorf("summary = %+v, want 2 failed", summary)
	}
}

func TestRun_PreservesOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store, err := results.Open(results.Options{
		Params:         []string{"GPU"},
		Capture:        metrics.CaptureStdout,
		PreserveOutput: true,
		Path:           path,
	})
	if err != nil {
		t.Fatalf("results.Open returned error: %v", err)
	}

	exec, err := executor.New(executor.ScriptCommand(`printf "gpu %s done" "$GPU"`))
	if err != nil {
		t.Fatalf("executor.New returned error: %v", err)
	}

	r := New(store, exec, nil, Options{
		Capture:        metrics.CaptureStdout,
		PreserveOutput: true,
		Diagnostics:    io.Discard,
		Logger:         quietLogger(),
	})

	summary, err := r.Run(context.Background(), combosFor(t, "1"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Completed != 1 {
		t.Errorf("summary = %+v", summary)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if want := "GPU,stdout\n1,gpu 1 done\n"; string(data) != want {
		t.Errorf("results file = %q, want %q", data, want)
	}
}

func TestRun_RecordsJournal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.csv")
	store := openStore(t, path, []string{"accuracy"})

	ctx := context.Background()
	jnl, err := journal.Open(ctx, filepath.Join(dir, "journal.db"))
	if err != nil {
		t.Fatalf("journal.Open returned error: %v", err)
	}
	defer jnl.Close()

	script := `if [ "$GPU" = "2" ]; then exit 1; fi; echo "accuracy: 0.9"`
	exec, err := executor.New(executor.ScriptCommand(script))
	if err != nil {
		t.Fatalf("executor.New returned error: %v", err)
	}

	r := New(store, exec, jnl, Options{
		Metrics:     []string{"accuracy"},
		OutputPath:  path,
		Diagnostics: io.Discard,
		Logger:      quietLogger(),
	})

	summary, err := r.Run(ctx, combosFor(t, "1", "2"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	run, err := jnl.GetRun(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("GetRun returned error: %v", err)
	}
	if run.Status != journal.RunStatusCompleted {
		t.Errorf("run status = %q, want completed", run.Status)
	}
	if run.Total != 2 {
		t.Errorf("run total = %d, want 2", run.Total)
	}

	recs, err := jnl.ListCombinations(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("ListCombinations returned error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("combination records = %d, want 2", len(recs))
	}
	if recs[0].Status != journal.CombinationStatusCompleted {
		t.Errorf("first record status = %q", recs[0].Status)
	}
	if recs[1].Status != journal.CombinationStatusFailed {
		t.Errorf("second record status = %q", recs[1].Status)
	}
	if !strings.Contains(recs[1].Params, `"GPU":"2"`) {
		t.Errorf("second record params = %q", recs[1].Params)
	}
}

func TestRun_CancelledContextStops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := openStore(t, path, []string{"accuracy"})

	exec, err := executor.New(executor.ScriptCommand(`echo "accuracy: 0.9"`))
	if err != nil {
		t.Fatalf("executor.New returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(store, exec, nil, Options{
		Metrics:     []string{"accuracy"},
		Diagnostics: io.Discard,
		Logger:      quietLogger(),
	})

	if _, err := r.Run(ctx, combosFor(t, "1")); err == nil {
		t.Fatal("Run ignored a cancelled context")
	}
}
