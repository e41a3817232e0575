package stockflow

import (
	"fmt"
	"sort"
)

// State is a named stock. Color is only used by renderers.
type State struct {
	Name  string
	Value float64
	Color string
}

// Rule computes a flow magnitude from resolved dependency values, in declared
// order. A negative result moves quantity from destination to source.
type Rule func(args ...float64) (float64, error)

type depKind uint8

const (
	depState depKind = iota
	depParam
)

// Dependency is a rule input: either a state's current value or a parameter.
type Dependency struct {
	kind  depKind
	index int
	name  string
}

// StateRef depends on the current value of state i.
func StateRef(i int) Dependency { return Dependency{kind: depState, index: i} }

// ParamRef depends on the named parameter.
func ParamRef(name string) Dependency { return Dependency{kind: depParam, name: name} }

// IsParam reports whether d refers to a parameter.
func (d Dependency) IsParam() bool { return d.kind == depParam }

// Index returns the referenced state index, or -1 for parameters.
func (d Dependency) Index() int {
	if d.kind == depParam {
		return -1
	}
	return d.index
}

// Name returns the referenced parameter name, or "" for states.
func (d Dependency) Name() string { return d.name }

func (d Dependency) String() string {
	if d.kind == depParam {
		return "param:" + d.name
	}
	return fmt.Sprintf("state:%d", d.index)
}

// Transition moves Rule(deps...) from Source to Destination each step.
type Transition struct {
	Source      int
	Destination int
	Rule        Rule
	Deps        []Dependency
}

// Point is a 2-D placement hint for renderers.
type Point struct {
	X, Y float64
}

// Parameters holds named constants used as rule inputs.
type Parameters map[string]float64

func (p Parameters) Clone() Parameters {
	c := make(Parameters, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Names returns the parameter names in sorted order.
func (p Parameters) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Record is the outcome of one step: state values by state index and flow
// magnitudes by transition index.
type Record struct {
	States []float64
	Flows  []float64
}

// Row returns the state values followed by the flow values.
func (r Record) Row() []float64 {
	row := make([]float64, 0, len(r.States)+len(r.Flows))
	row = append(row, r.States...)
	return append(row, r.Flows...)
}

// Trajectory is the ordered per-step log of a run.
type Trajectory []Record

// Rows flattens the trajectory into table rows.
func (t Trajectory) Rows() [][]float64 {
	rows := make([][]float64, len(t))
	for i, r := range t {
		rows[i] = r.Row()
	}
	return rows
}

// Table is a labelled view of a trajectory. Columns are state names followed by
// "<src> to <dst>" for every transition.
type Table struct {
	Columns []string
	Rows    [][]float64
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the series of one column across all rows.
func (t *Table) Column(i int) []float64 {
	out := make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}
