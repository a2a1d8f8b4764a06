// Package expr implements the parameter value expression language: comma
// lists, integer ranges, and arithmetic over already-resolved parameter
// values.
//
// A raw expression is split on commas into independent sub-expressions.
// A sub-expression containing ':' is a range (start:end or
// start:end:step, exclusive end); anything else is evaluated as an
// integer arithmetic expression and falls back to its literal text when
// evaluation fails, so mixed lists like "train,test,1,2" work.
//
// Grammar, lowest to highest precedence:
//
//	expr   := term ('+' term)*
//	term   := factor ('*' factor)*
//	factor := atom ('^' factor)?          exponent is right-associative
//	atom   := ['-'] (digits identifier    implicit multiplication, "32n"
//	               | identifier
//	               | digits)
//
// Identifiers are upper-cased and looked up in the variable context;
// arithmetic is integer-only.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Eval expands a raw parameter value expression into its concrete
// values. vars maps already-resolved parameter names (upper-case) to
// their values. Range errors are returned; a non-range sub-expression
// that fails to evaluate numerically is kept as a literal string.
func Eval(raw string, vars map[string]string) ([]string, error) {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))

	for _, sub := range parts {
		sub = strings.TrimSpace(sub)

		if strings.Contains(sub, ":") {
			expanded, err := evalRange(sub, vars)
			if err != nil {
				return nil, err
			}
			values = append(values, expanded...)
			continue
		}

		n, err := EvalInt(sub, vars)
		if err != nil {
			// Not a numeric expression: the whole sub-expression
			// is taken as a literal value.
			values = append(values, sub)
			continue
		}
		values = append(values, strconv.FormatInt(n, 10))
	}

	return values, nil
}

// EvalInt evaluates a single integer arithmetic expression against vars.
func EvalInt(s string, vars map[string]string) (int64, error) {
	p := &parser{input: s, vars: vars}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return 0, p.errorf("unexpected character %q", p.input[p.pos])
	}
	return v, nil
}

// evalRange expands start:end or start:end:step. The end is exclusive;
// the two-part form infers the step direction from start vs end.
func evalRange(sub string, vars map[string]string) ([]string, error) {
	parts := strings.Split(sub, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return nil, &RangeError{Expr: sub, Message: "want start:end or start:end:step"}
	}

	start, err := EvalInt(parts[0], vars)
	if err != nil {
		return nil, &RangeError{Expr: sub, Message: "invalid start", Err: err}
	}
	end, err := EvalInt(parts[1], vars)
	if err != nil {
		return nil, &RangeError{Expr: sub, Message: "invalid end", Err: err}
	}

	var step int64 = 1
	if start > end {
		step = -1
	}
	if len(parts) == 3 {
		step, err = EvalInt(parts[2], vars)
		if err != nil {
			return nil, &RangeError{Expr: sub, Message: "invalid step", Err: err}
		}
		if step == 0 {
			return nil, &RangeError{Expr: sub, Message: "step must be non-zero"}
		}
		if (start < end && step < 0) || (start > end && step > 0) {
			return nil, &RangeError{Expr: sub, Message: "step direction does not match range"}
		}
	}

	var values []string
	for v := start; (step > 0 && v < end) || (step < 0 && v > end); v += step {
		values = append(values, strconv.FormatInt(v, 10))
	}
	return values, nil
}

// parser is a recursive-descent parser over a single integer expression.
type parser struct {
	input string
	pos   int
	vars  map[string]string
}

func (p *parser) parseExpr() (int64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for p.peek() == '+' {
		p.pos++
		t, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		v += t
	}
	return v, nil
}

func (p *parser) parseTerm() (int64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for p.peek() == '*' {
		p.pos++
		f, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		v *= f
	}
	return v, nil
}

func (p *parser) parseFactor() (int64, error) {
	v, err := p.parseAtom()
	if err != nil {
		return 0, err
	}
	if p.peek() == '^' {
		p.pos++
		// Right-associative: 2^3^2 is 2^(3^2).
		exp, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if exp < 0 {
			return 0, p.errorf("negative exponent %d", exp)
		}
		v = ipow(v, exp)
	}
	return v, nil
}

func (p *parser) parseAtom() (int64, error) {
	p.skipSpace()

	neg := false
	if p.pos < len(p.input) && p.input[p.pos] == '-' {
		neg = true
		p.pos++
		p.skipSpace()
	}

	if p.pos >= len(p.input) {
		return 0, p.errorf("expected number or identifier")
	}

	var v int64
	switch c := p.input[p.pos]; {
	case isDigitByte(c):
		lit, err := p.readNumber()
		if err != nil {
			return 0, err
		}
		v = lit
		// A trailing identifier is implicit multiplication: 32n.
		if p.pos < len(p.input) && isIdentByte(p.input[p.pos]) {
			ref, err := p.readVariable()
			if err != nil {
				return 0, err
			}
			v *= ref
		}
	case isIdentByte(c):
		ref, err := p.readVariable()
		if err != nil {
			return 0, err
		}
		v = ref
	default:
		return 0, p.errorf("expected number or identifier, got %q", c)
	}

	if neg {
		v = -v
	}
	return v, nil
}

// readNumber consumes a run of digits and parses it as an integer.
func (p *parser) readNumber() (int64, error) {
	start := p.pos
	for p.pos < len(p.input) && isDigitByte(p.input[p.pos]) {
		p.pos++
	}
	n, err := strconv.ParseInt(p.input[start:p.pos], 10, 64)
	if err != nil {
		return 0, &ParseError{Expr: p.input, Pos: start, Message: fmt.Sprintf("malformed number %q", p.input[start:p.pos])}
	}
	return n, nil
}

// readVariable consumes an identifier and resolves it in the context.
// Names are compared case-insensitively: the identifier is upper-cased
// at this single lookup boundary.
func (p *parser) readVariable() (int64, error) {
	start := p.pos
	for p.pos < len(p.input) && isIdentByte(p.input[p.pos]) {
		p.pos++
	}
	name := p.input[start:p.pos]

	val, ok := p.vars[strings.ToUpper(name)]
	if !ok {
		return 0, &ParseError{Expr: p.input, Pos: start, Message: fmt.Sprintf("unknown identifier %q", name)}
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, &ParseError{Expr: p.input, Pos: start, Message: fmt.Sprintf("variable %s is not a number", name)}
	}
	return n, nil
}

// peek returns the next non-space byte without consuming it, or 0 at the
// end of input.
func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Expr: p.input, Pos: p.pos, Message: fmt.Sprintf(format, args...)}
}

// ipow computes base to a non-negative power by repeated multiplication.
func ipow(base, exp int64) int64 {
	var result int64 = 1
	for i := int64(0); i < exp; i++ {
		result *= base
	}
	return result
}

func isDigitByte(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
