// Package sweep expands a declared parameter set into the ordered
// sequence of concrete combinations that drives a sweep.
//
// Parameters may reference each other in their value expressions;
// evaluation order is resolved from those references, while the user's
// original declaration order is carried separately for output columns.
package sweep

import "strings"

// Param is one declared sweep parameter. Name is stored normalized;
// Expr is the raw value expression evaluated by pkg/expr.
type Param struct {
	Name string
	Expr string
}

// NormalizeName canonicalizes a parameter name: upper-case, dashes
// folded to underscores. Applied once at declaration time so all later
// comparisons and lookups use the canonical form.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// Set is an ordered collection of declared parameters. The insertion
// order is the declaration order.
type Set struct {
	params []Param
	index  map[string]int
}

// NewSet creates an empty parameter set.
func NewSet() *Set {
	return &Set{index: make(map[string]int)}
}

// Add declares a parameter. The name is normalized; duplicate names are
// rejected.
func (s *Set) Add(name, expr string) error {
	n := NormalizeName(name)
	if _, ok := s.index[n]; ok {
		return &DuplicateParamError{Name: n}
	}
	s.index[n] = len(s.params)
	s.params = append(s.params, Param{Name: n, Expr: expr})
	return nil
}

// Len returns the number of declared parameters.
func (s *Set) Len() int {
	return len(s.params)
}

// Names returns the normalized parameter names in declaration order.
func (s *Set) Names() []string {
	names := make([]string, len(s.params))
	for i, p := range s.params {
		names[i] = p.Name
	}
	return names
}

// Params returns the declared parameters in declaration order.
func (s *Set) Params() []Param {
	params := make([]Param, len(s.params))
	copy(params, s.params)
	return params
}
