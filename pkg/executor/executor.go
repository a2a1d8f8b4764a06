// Package executor runs the external command for one combination, with
// parameter values injected as environment variables and stdout/stderr
// captured separately.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"
)

// Result is the captured outcome of one command invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// SpawnError reports a command that could not be launched at all, as
// opposed to one that ran and exited non-zero.
type SpawnError struct {
	// Command is the program that failed to start.
	Command string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to execute %s: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Executor spawns the sweep command, one invocation per combination.
// Execution is strictly sequential: Run blocks until the child exits.
type Executor struct {
	argv []string
}

// New creates an executor for the given argv.
func New(argv []string) (*Executor, error) {
	if len(argv) == 0 {
		return nil, errors.New("executor: no command specified")
	}
	return &Executor{argv: append([]string(nil), argv...)}, nil
}

// ScriptCommand wraps a shell script (typically read from stdin) into
// an argv that executes it.
func ScriptCommand(script string) []string {
	return []string{"sh", "-c", script}
}

// Run executes the command once. env holds one entry per combination
// value (names already upper-case and underscore-normalized); it is
// layered over the current process environment explicitly, without
// mutating process-wide state. A non-zero exit is reported through
// Result.ExitCode, not as an error; only spawn failures return one.
func (e *Executor) Run(ctx context.Context, env map[string]string) (*Result, error) {
	cmd := exec.CommandContext(ctx, e.argv[0], e.argv[1:]...)

	environ := os.Environ()
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		environ = append(environ, name+"="+env[name])
	}
	cmd.Env = environ

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, &SpawnError{Command: e.argv[0], Err: err}
	}
	return result, nil
}

// Argv returns the command line the executor runs.
func (e *Executor) Argv() []string {
	return append([]string(nil), e.argv...)
}
