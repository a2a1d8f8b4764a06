// Package metrics derives labeled numeric values from raw process
// output without assuming any particular output format.
package metrics

import (
	"strconv"
	"strings"
	"unicode"
)

// CaptureMode selects which output streams feed metric extraction.
type CaptureMode int

const (
	// CaptureBoth concatenates stdout and stderr with a newline
	// separator so the last stdout line cannot join the first stderr
	// line.
	CaptureBoth CaptureMode = iota

	// CaptureStdout extracts from stdout only.
	CaptureStdout

	// CaptureStderr extracts from stderr only.
	CaptureStderr
)

// Select returns the text the mode extracts from.
func (m CaptureMode) Select(stdout, stderr string) string {
	switch m {
	case CaptureStdout:
		return stdout
	case CaptureStderr:
		return stderr
	default:
		return stdout + "\n" + stderr
	}
}

// String implements fmt.Stringer.
func (m CaptureMode) String() string {
	switch m {
	case CaptureStdout:
		return "stdout"
	case CaptureStderr:
		return "stderr"
	default:
		return "both"
	}
}

// Extract scans text for numeric tokens and returns a label-to-value
// mapping. The text is split into pseudo-lines on both newlines and
// carriage returns, so progress-bar style in-place updates are seen as
// separate lines and a label's last occurrence wins. The label for a
// token is the raw text between the end of the previous token (or line
// start) and the token; an empty label becomes "value". With filters,
// only labels containing (case-insensitive) at least one filter term
// are kept.
func Extract(text string, filters []string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.FieldsFunc(text, isLineBreak) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		extractLine(line, filters, out)
	}
	return out
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}

// extractLine finds numeric tokens in one pseudo-line. A token starts
// at a digit, or at a '.' immediately followed by a digit, but only
// when the preceding character (if any) is not alphanumeric, so the
// trailing digit of an identifier like "F1" is not read as the number
// 1. A token consumes contiguous digits and at most one decimal point.
func extractLine(line string, filters []string, out map[string]string) {
	chars := []rune(line)
	searchStart := 0

	for i := 0; i < len(chars); {
		starts := (isDigit(chars[i]) || (chars[i] == '.' && i+1 < len(chars) && isDigit(chars[i+1]))) &&
			(i == 0 || !isAlphanumeric(chars[i-1]))
		if !starts {
			i++
			continue
		}

		numStart := i
		numEnd := i
		hasDot := chars[i] == '.'
		if hasDot {
			numEnd = i + 1
			i++
		}

	scan:
		for i < len(chars) {
			switch {
			case isDigit(chars[i]):
				numEnd = i + 1
				i++
			case chars[i] == '.' && !hasDot && i+1 < len(chars) && isDigit(chars[i+1]):
				hasDot = true
				numEnd = i + 1
				i++
			default:
				break scan
			}
		}

		token := string(chars[numStart:numEnd])
		if _, err := strconv.ParseFloat(token, 64); err == nil {
			label := string(chars[searchStart:numStart])
			if label == "" {
				label = "value"
			}
			if keepLabel(label, filters) {
				out[label] = token
			}
		}
		searchStart = numEnd
	}
}

// keepLabel reports whether a label passes the metric-name filters. An
// empty filter list keeps everything; matching is case-insensitive
// substring containment.
func keepLabel(label string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	lower := strings.ToLower(label)
	for _, f := range filters {
		if strings.Contains(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// Missing returns the required metric terms that no extracted label
// matches (case-insensitive substring), preserving the request order.
func Missing(extracted map[string]string, required []string) []string {
	var missing []string
	for _, term := range required {
		lower := strings.ToLower(term)
		found := false
		for label := range extracted {
			if strings.Contains(strings.ToLower(label), lower) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, term)
		}
	}
	return missing
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
