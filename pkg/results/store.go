// Package results persists sweep outcomes to a schema-validated,
// resumable RFC 4180 CSV file.
//
// The column schema is derived fresh from the current run's parameters
// and options; a pre-existing file is only reused when its header
// matches field for field. After every newly completed combination the
// entire accumulated result set is rewritten from scratch, which keeps
// the file well-formed at all times.
package results

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/sweeprun/sweeprun/pkg/metrics"
)

// Options describes the schema-determining inputs of a sweep run.
type Options struct {
	// Params are the declaration-order, normalized parameter names.
	Params []string

	// Metrics are the requested metric terms, in request order. Each
	// becomes one column, filled from the extracted label that contains
	// the term.
	Metrics []string

	// Capture selects which output streams were captured; with
	// PreserveOutput it determines the stdout/stderr columns.
	Capture metrics.CaptureMode

	// PreserveOutput adds raw stdout/stderr columns.
	PreserveOutput bool

	// Path is the CSV file location.
	Path string
}

// Result is the outcome of one completed combination.
type Result struct {
	// Params maps normalized parameter names to the combination's values.
	Params map[string]string

	// Metrics maps extracted labels to numeric value strings.
	Metrics map[string]string

	Stdout string
	Stderr string
}

// SchemaMismatchError reports an existing result file whose header is
// incompatible with the current run's schema.
type SchemaMismatchError struct {
	Path     string
	Expected []string
	Found    []string
}

// Error implements the error interface.
func (e *SchemaMismatchError) Error() string {
	if len(e.Found) == 0 {
		return fmt.Sprintf("existing result file %s is incompatible: empty file; use a different output file or remove the existing one", e.Path)
	}
	return fmt.Sprintf("existing result file %s is incompatible: header mismatch\nexpected: %s\nfound:    %s\nuse a different output file or remove the existing one",
		e.Path, strings.Join(e.Expected, ","), strings.Join(e.Found, ","))
}

// Header computes the column schema for opts: declaration-order
// parameter names, then requested metric names in request order, then
// the preserved output columns.
func Header(opts Options) []string {
	header := make([]string, 0, len(opts.Params)+len(opts.Metrics)+2)
	header = append(header, opts.Params...)
	header = append(header, opts.Metrics...)
	if opts.PreserveOutput {
		switch opts.Capture {
		case metrics.CaptureStdout:
			header = append(header, "stdout")
		case metrics.CaptureStderr:
			header = append(header, "stderr")
		default:
			header = append(header, "stdout", "stderr")
		}
	}
	return header
}

// Store accumulates sweep results in memory and mirrors them to disk.
type Store struct {
	opts   Options
	header []string

	// existing holds rows loaded from a compatible pre-existing file,
	// consulted for resuming.
	existing []*Result

	// results is the accumulated set rewritten to disk on every append.
	results []*Result
}

// Open computes the schema and, when the output file already exists,
// validates its header and loads its rows for resuming. An incompatible
// header is a SchemaMismatchError; the file is never reinterpreted.
func Open(opts Options) (*Store, error) {
	s := &Store{opts: opts, header: Header(opts)}

	data, err := os.ReadFile(opts.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read existing results %s: %w", opts.Path, err)
	}
	if err := s.load(string(data)); err != nil {
		return nil, err
	}
	return s, nil
}

// Header returns the column schema in use.
func (s *Store) Header() []string {
	return append([]string(nil), s.header...)
}

// Len returns the number of accumulated results.
func (s *Store) Len() int {
	return len(s.results)
}

// Existing returns how many rows were loaded from the pre-existing file.
func (s *Store) Existing() int {
	return len(s.existing)
}

// Resume reports whether a combination with exactly these parameter
// values was already completed in the loaded file. On a match the
// loaded row is carried into the accumulated set so the rewrite
// preserves it.
func (s *Store) Resume(params map[string]string) bool {
	for _, r := range s.existing {
		if maps.Equal(r.Params, params) {
			s.results = append(s.results, r)
			return true
		}
	}
	return false
}

// Append records a newly completed result and rewrites the output file.
// A write failure is fatal to the sweep: durability of completed work is
// this store's contract.
func (s *Store) Append(r *Result) error {
	s.results = append(s.results, r)
	return s.Save()
}

// Save rewrites the entire accumulated result set from scratch.
func (s *Store) Save() error {
	f, err := os.Create(s.opts.Path)
	if err != nil {
		return fmt.Errorf("create results file %s: %w", s.opts.Path, err)
	}

	w := bufio.NewWriter(f)
	if len(s.results) > 0 {
		fmt.Fprintln(w, encodeRecord(s.header))
		for _, r := range s.results {
			fmt.Fprintln(w, encodeRecord(s.row(r)))
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write results file %s: %w", s.opts.Path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close results file %s: %w", s.opts.Path, err)
	}
	return nil
}

// row renders one result in schema order. Metric columns are filled by
// scanning the extracted labels (sorted, so column fill is
// deterministic) for the first case-insensitive substring match of the
// column's metric term; absent metrics stay empty.
func (s *Store) row(r *Result) []string {
	row := make([]string, 0, len(s.header))
	for _, name := range s.opts.Params {
		row = append(row, r.Params[name])
	}

	labels := make([]string, 0, len(r.Metrics))
	for label := range r.Metrics {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	for _, term := range s.opts.Metrics {
		lower := strings.ToLower(term)
		val := ""
		for _, label := range labels {
			if strings.Contains(strings.ToLower(label), lower) {
				val = r.Metrics[label]
				break
			}
		}
		row = append(row, val)
	}

	if s.opts.PreserveOutput {
		switch s.opts.Capture {
		case metrics.CaptureStdout:
			row = append(row, r.Stdout)
		case metrics.CaptureStderr:
			row = append(row, r.Stderr)
		default:
			row = append(row, r.Stdout, r.Stderr)
		}
	}
	return row
}

// load validates the header of pre-existing content and decodes its
// data rows. Rows with the wrong field count are skipped.
func (s *Store) load(content string) error {
	records := ParseRecords(content)
	if len(records) == 0 {
		return &SchemaMismatchError{Path: s.opts.Path, Expected: s.header}
	}
	if !slices.Equal(records[0], s.header) {
		return &SchemaMismatchError{Path: s.opts.Path, Expected: s.header, Found: records[0]}
	}

	numParams := len(s.opts.Params)
	dataEnd := numParams + len(s.opts.Metrics)

	for _, row := range records[1:] {
		if len(row) != len(s.header) {
			continue
		}
		r := &Result{
			Params:  make(map[string]string, numParams),
			Metrics: make(map[string]string),
		}
		for idx, name := range s.header {
			val := row[idx]
			switch {
			case name == "stdout":
				r.Stdout = val
			case name == "stderr":
				r.Stderr = val
			case idx < numParams:
				r.Params[name] = val
			case idx < dataEnd:
				r.Metrics[name] = val
			}
		}
		s.existing = append(s.existing, r)
	}
	return nil
}
