package journal

import "time"

// RunStatus represents the status of a sweep run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// CombinationStatus represents the outcome of one combination within a
// run.
type CombinationStatus string

const (
	CombinationStatusCompleted CombinationStatus = "completed"
	CombinationStatusFailed    CombinationStatus = "failed"
	CombinationStatusSkipped   CombinationStatus = "skipped"
)

// Run is one sweep invocation recorded in the journal.
type Run struct {
	ID          string     `json:"id"`
	Command     string     `json:"command"`
	OutputPath  string     `json:"output_path"`
	Status      RunStatus  `json:"status"`
	Total       int        `json:"total"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CombinationRecord is the recorded outcome of one combination.
type CombinationRecord struct {
	ID         int64             `json:"id"`
	RunID      string            `json:"run_id"`
	Position   int               `json:"position"` // 1-based position in sweep order
	Params     string            `json:"params"`   // JSON object of parameter values
	Status     CombinationStatus `json:"status"`
	ExitCode   *int              `json:"exit_code,omitempty"`
	DurationMS int64             `json:"duration_ms"`
	Error      *string           `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
