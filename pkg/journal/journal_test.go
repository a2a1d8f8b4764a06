package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func newTestRun() *Run {
	return &Run{
		ID:         uuid.New().String(),
		Command:    "python train.py",
		OutputPath: "results.csv",
		Status:     RunStatusRunning,
		Total:      4,
		StartedAt:  time.Now(),
	}
}

func TestJournal_CreateAndGetRun(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	run := newTestRun()
	if err := j.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun returned error: %v", err)
	}

	got, err := j.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun returned error: %v", err)
	}
	if got.Command != run.Command {
		t.Errorf("command = %q, want %q", got.Command, run.Command)
	}
	if got.Status != RunStatusRunning {
		t.Errorf("status = %q, want running", got.Status)
	}
	if got.Total != 4 {
		t.Errorf("total = %d, want 4", got.Total)
	}
	if got.CompletedAt != nil {
		t.Errorf("completed_at = %v, want nil", got.CompletedAt)
	}
}

func TestJournal_GetRunNotFound(t *testing.T) {
	j := openTestJournal(t)

	if _, err := j.GetRun(context.Background(), "missing"); err == nil {
		t.Fatal("GetRun found a run that does not exist")
	}
}

func TestJournal_UpdateRunStatus(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	run := newTestRun()
	if err := j.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun returned error: %v", err)
	}

	if err := j.UpdateRunStatus(ctx, run.ID, RunStatusCompleted, nil); err != nil {
		t.Fatalf("UpdateRunStatus returned error: %v", err)
	}

	got, err := j.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun returned error: %v", err)
	}
	if got.Status != RunStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at was not stamped")
	}
}

func TestJournal_UpdateRunStatusNotFound(t *testing.T) {
	j := openTestJournal(t)

	err := j.UpdateRunStatus(context.Background(), "missing", RunStatusFailed, nil)
	if err == nil {
		t.Fatal("UpdateRunStatus updated a run that does not exist")
	}
}

func TestJournal_RecordAndListCombinations(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	run := newTestRun()
	if err := j.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun returned error: %v", err)
	}

	exitCode := 0
	records := []*CombinationRecord{
		{RunID: run.ID, Position: 1, Params: `{"GPU":"1"}`, Status: CombinationStatusCompleted, ExitCode: &exitCode, DurationMS: 120},
		{RunID: run.ID, Position: 2, Params: `{"GPU":"2"}`, Status: CombinationStatusSkipped},
	}
	for _, rec := range records {
		if err := j.RecordCombination(ctx, rec); err != nil {
			t.Fatalf("RecordCombination returned error: %v", err)
		}
	}

	got, err := j.ListCombinations(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListCombinations returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("combinations = %d, want 2", len(got))
	}
	if got[0].Position != 1 || got[0].Status != CombinationStatusCompleted {
		t.Errorf("first record = %+v", got[0])
	}
	if got[0].ExitCode == nil || *got[0].ExitCode != 0 {
		t.Errorf("first record exit code = %v, want 0", got[0].ExitCode)
	}
	if got[1].Status != CombinationStatusSkipped {
		t.Errorf("second record status = %q, want skipped", got[1].Status)
	}
}

func TestJournal_ListRuns(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	older := newTestRun()
	older.StartedAt = time.Now().Add(-time.Hour)
	newer := newTestRun()

	if err := j.CreateRun(ctx, older); err != nil {
		t.Fatalf("CreateRun returned error: %v", err)
	}
	if err := j.CreateRun(ctx, newer); err != nil {
		t.Fatalf("CreateRun returned error: %v", err)
	}

	runs, err := j.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns returned error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].ID != newer.ID {
		t.Errorf("runs not ordered newest first: got %s", runs[0].ID)
	}

	limited, err := j.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListRuns returned error: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limited runs = %d, want 1", len(limited))
	}
}

func TestJournal_MigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := j.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate returned error: %v", err)
	}
	_ = j.Close()
}

func TestNew_RequiresPath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New accepted an empty path")
	}
}
