package sweep

import (
	"sort"
	"strings"
)

// ReferencedParams returns the declared parameters referenced by an
// expression: maximal runs of letters and underscores are extracted,
// upper-cased, and intersected with the declared names. Identifiers
// that are not declared parameters are opaque literal tokens and are
// ignored. The result is deduplicated and in order of first appearance.
func (s *Set) ReferencedParams(expr string) []string {
	var refs []string
	seen := make(map[string]bool)

	for _, run := range identRuns(expr) {
		name := strings.ToUpper(run)
		if _, declared := s.index[name]; !declared || seen[name] {
			continue
		}
		seen[name] = true
		refs = append(refs, name)
	}
	return refs
}

// identRuns extracts the maximal alphabetic/underscore runs from an
// expression. This covers identifiers anywhere in the expression,
// including range bounds and implicit-multiplication suffixes.
func identRuns(expr string) []string {
	var runs []string
	start := -1
	for i := 0; i < len(expr); i++ {
		if isIdentChar(expr[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, expr[start:i])
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, expr[start:])
	}
	return runs
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Resolve returns the parameters in a safe evaluation order using
// Kahn's algorithm. Ties between ready nodes are broken by the smallest
// original declaration index, so the order is deterministic. A cycle in
// the dependency graph yields a CycleError.
func (s *Set) Resolve() ([]Param, error) {
	n := len(s.params)
	dependents := make([][]int, n)
	indegree := make([]int, n)

	for i, p := range s.params {
		for _, ref := range s.ReferencedParams(p.Expr) {
			j := s.index[ref]
			dependents[j] = append(dependents[j], i)
			indegree[i]++
		}
	}

	var ready []int
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]Param, 0, n)
	for len(ready) > 0 {
		sort.Ints(ready)
		i := ready[0]
		ready = ready[1:]
		order = append(order, s.params[i])

		for _, d := range dependents[i] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(order) < n {
		var remaining []string
		for i, p := range s.params {
			if indegree[i] > 0 {
				remaining = append(remaining, p.Name)
			}
		}
		return nil, &CycleError{Names: remaining}
	}
	return order, nil
}
