package sweep

import (
	"github.com/sweeprun/sweeprun/pkg/expr"
)

// Combination is one fully-resolved assignment of a value to every
// declared parameter.
type Combination struct {
	// Values maps normalized parameter names to their resolved values.
	Values map[string]string

	// DeclarationOrder is the user's original parameter order. It is
	// metadata for output columns only; evaluation uses resolved order.
	DeclarationOrder []string
}

// frame is the generator's state for one parameter in resolved order:
// the candidate values evaluated under the current prefix, and the
// index of the value currently selected.
type frame struct {
	values []string
	idx    int
}

// Generator enumerates combinations lazily in nested resolved order:
// the last-resolved parameter varies fastest, the first-resolved
// slowest. Nothing beyond one frame per parameter is materialized.
type Generator struct {
	order    []Param
	declared []string
	frames   []frame
	started  bool
	done     bool
}

// NewGenerator resolves the set's dependency order and returns a
// generator over its combinations. A dependency cycle is reported here,
// before any combination is produced.
func NewGenerator(set *Set) (*Generator, error) {
	order, err := set.Resolve()
	if err != nil {
		return nil, err
	}
	return &Generator{order: order, declared: set.Names()}, nil
}

// ResolvedOrder returns the parameter names in evaluation order.
func (g *Generator) ResolvedOrder() []string {
	names := make([]string, len(g.order))
	for i, p := range g.order {
		names[i] = p.Name
	}
	return names
}

// Next returns the next combination, or nil when the sweep is
// exhausted. Expression evaluation errors stop the generator.
func (g *Generator) Next() (*Combination, error) {
	if g.done {
		return nil, nil
	}

	var ok bool
	var err error
	if !g.started {
		g.started = true
		ok, err = g.fill(0)
		if err == nil && !ok {
			ok, err = g.advance()
		}
	} else {
		ok, err = g.advance()
	}

	if err != nil {
		g.done = true
		return nil, err
	}
	if !ok {
		g.done = true
		return nil, nil
	}
	return g.snapshot(), nil
}

// All drains the generator into a slice. The CLI uses this so that
// every expression and range error surfaces before any command runs.
func (g *Generator) All() ([]*Combination, error) {
	var combos []*Combination
	for {
		c, err := g.Next()
		if err != nil {
			return nil, err
		}
		if c == nil {
			return combos, nil
		}
		combos = append(combos, c)
	}
}

// fill evaluates frames for depths [d, len(order)) under the values
// currently selected above them. It returns false when some parameter
// expands to zero values for this prefix, leaving the frames truncated
// at that depth so the caller can backtrack.
func (g *Generator) fill(d int) (bool, error) {
	g.frames = g.frames[:d]
	for ; d < len(g.order); d++ {
		values, err := expr.Eval(g.order[d].Expr, g.context())
		if err != nil {
			return false, err
		}
		if len(values) == 0 {
			return false, nil
		}
		g.frames = append(g.frames, frame{values: values})
	}
	return true, nil
}

// advance steps the deepest frame that still has values left, popping
// exhausted frames and refilling everything below the stepped frame.
func (g *Generator) advance() (bool, error) {
	for {
		d := len(g.frames) - 1
		for d >= 0 && g.frames[d].idx+1 >= len(g.frames[d].values) {
			g.frames = g.frames[:d]
			d--
		}
		if d < 0 {
			return false, nil
		}
		g.frames[d].idx++

		ok, err := g.fill(d + 1)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
}

// context snapshots the currently selected values as an evaluation
// context for the next parameter. Names are already normalized
// upper-case, so this is the case-insensitive lookup map pkg/expr
// expects.
func (g *Generator) context() map[string]string {
	ctx := make(map[string]string, len(g.frames))
	for i, f := range g.frames {
		ctx[g.order[i].Name] = f.values[f.idx]
	}
	return ctx
}

func (g *Generator) snapshot() *Combination {
	values := make(map[string]string, len(g.frames))
	for i, f := range g.frames {
		values[g.order[i].Name] = f.values[f.idx]
	}
	declared := make([]string, len(g.declared))
	copy(declared, g.declared)
	return &Combination{Values: values, DeclarationOrder: declared}
}
