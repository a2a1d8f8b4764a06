package expr

import "fmt"

// ParseError reports a malformed numeric or identifier token in an
// integer expression.
type ParseError struct {
	// Expr is the expression being parsed.
	Expr string

	// Pos is the byte offset at which parsing failed.
	Pos int

	// Message is the human-readable failure description.
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid expression %q at offset %d: %s", e.Expr, e.Pos, e.Message)
}

// RangeError reports a malformed range sub-expression: a zero step, a
// step whose sign disagrees with the direction from start to end, or a
// bound that does not evaluate to an integer.
type RangeError struct {
	// Expr is the range sub-expression.
	Expr string

	// Message is the human-readable failure description.
	Message string

	// Err is the underlying evaluation error, if any.
	Err error
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid range %q: %s: %v", e.Expr, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid range %q: %s", e.Expr, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *RangeError) Unwrap() error {
	return e.Err
}
