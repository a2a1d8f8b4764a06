package sweep

import (
	"fmt"
	"strings"
)

// DuplicateParamError reports a parameter declared twice (after name
// normalization).
type DuplicateParamError struct {
	// Name is the normalized parameter name.
	Name string
}

// Error implements the error interface.
func (e *DuplicateParamError) Error() string {
	return fmt.Sprintf("duplicate parameter: %s", e.Name)
}

// CycleError reports a parameter dependency graph that is not acyclic.
type CycleError struct {
	// Names are the parameters left unresolved by the topological sort,
	// in declaration order.
	Names []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("parameter dependency cycle involving: %s", strings.Join(e.Names, ", "))
}
