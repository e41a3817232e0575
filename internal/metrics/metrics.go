// Package metrics reduces a run's table to scalar figures such as the peak of a
// state or the total carried by a flow.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/stockflow/internal/stockflow"
)

var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrUnknownColumn = errors.New("unknown column")
)

// Metric observes table rows one step at a time.
type Metric interface {
	Name() string
	Observe(row []float64, step int)
	Value() float64
	Reset()
}

// Peak is the largest value a column reaches.
type Peak struct {
	name string
	col  int
	max  float64
	step int
	seen bool
}

func NewPeak(label string, col int) *Peak {
	return &Peak{name: "peak:" + label, col: col, step: -1}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(row []float64, step int) {
	v := row[p.col]
	if !p.seen || v > p.max {
		p.max, p.step, p.seen = v, step, true
	}
}

func (p *Peak) Value() float64 {
	if !p.seen {
		return math.NaN()
	}
	return p.max
}

// Step is the first step at which the peak was reached, or -1.
func (p *Peak) Step() int { return p.step }

func (p *Peak) Reset() { p.max, p.step, p.seen = 0, -1, false }

// PeakStep reports when a column peaks rather than how high.
type PeakStep struct{ Peak }

func NewPeakStep(label string, col int) *PeakStep {
	return &PeakStep{Peak{name: "peakstep:" + label, col: col, step: -1}}
}

func (p *PeakStep) Value() float64 { return float64(p.step) }

type Trough struct {
	name string
	col  int
	min  float64
	seen bool
}

func NewTrough(label string, col int) *Trough {
	return &Trough{name: "trough:" + label, col: col}
}

func (t *Trough) Name() string { return t.name }

func (t *Trough) Observe(row []float64, _ int) {
	v := row[t.col]
	if !t.seen || v < t.min {
		t.min, t.seen = v, true
	}
}

func (t *Trough) Value() float64 {
	if !t.seen {
		return math.NaN()
	}
	return t.min
}

func (t *Trough) Reset() { t.min, t.seen = 0, false }

type Final struct {
	name string
	col  int
	last float64
	seen bool
}

func NewFinal(label string, col int) *Final {
	return &Final{name: "final:" + label, col: col}
}

func (f *Final) Name() string { return f.name }

func (f *Final) Observe(row []float64, _ int) { f.last, f.seen = row[f.col], true }

func (f *Final) Value() float64 {
	if !f.seen {
		return math.NaN()
	}
	return f.last
}

func (f *Final) Reset() { f.last, f.seen = 0, false }

// Total sums a column over all steps. On a flow column this is the cumulative
// amount moved.
type Total struct {
	name string
	col  int
	sum  float64
}

func NewTotal(label string, col int) *Total {
	return &Total{name: "total:" + label, col: col}
}

func (t *Total) Name() string                 { return t.name }
func (t *Total) Observe(row []float64, _ int) { t.sum += row[t.col] }
func (t *Total) Value() float64               { return t.sum }
func (t *Total) Reset()                       { t.sum = 0 }

// Drift is the largest relative deviation of the summed stocks from their sum
// at the first observed step. Closed models keep it at rounding level.
type Drift struct {
	states   int
	initial  float64
	maxDrift float64
	samples  int
}

func NewDrift(states int) *Drift { return &Drift{states: states} }

func (d *Drift) Name() string { return "drift" }

func (d *Drift) Observe(row []float64, _ int) {
	total := 0.0
	for _, v := range row[:d.states] {
		total += v
	}
	if d.samples == 0 {
		d.initial = total
	}
	d.samples++

	dev := math.Abs(total - d.initial)
	if d.initial != 0 {
		dev /= math.Abs(d.initial)
	}
	d.maxDrift = math.Max(d.maxDrift, dev)
}

func (d *Drift) Value() float64 { return d.maxDrift }

func (d *Drift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}

// Parse builds a metric from "kind:column" (peak, peakstep, trough, final,
// total) or the bare word "drift". Columns are looked up in table.
func Parse(spec string, table *stockflow.Table, states int) (Metric, error) {
	if spec == "drift" {
		return NewDrift(states), nil
	}

	kind, label, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q (want kind:column or drift)", ErrUnknownMetric, spec)
	}
	col := table.ColumnIndex(label)
	if col < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, label)
	}

	switch kind {
	case "peak":
		return NewPeak(label, col), nil
	case "peakstep":
		return NewPeakStep(label, col), nil
	case "trough":
		return NewTrough(label, col), nil
	case "final":
		return NewFinal(label, col), nil
	case "total":
		return NewTotal(label, col), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, kind)
	}
}

// Observe feeds every row of table to ms.
func Observe(table *stockflow.Table, ms ...Metric) {
	for step, row := range table.Rows {
		for _, m := range ms {
			m.Observe(row, step)
		}
	}
}

// Evaluate parses specs against table and returns their values by name.
func Evaluate(table *stockflow.Table, states int, specs ...string) (map[string]float64, error) {
	ms := make([]Metric, 0, len(specs))
	for _, s := range specs {
		m, err := Parse(s, table, states)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}

	Observe(table, ms...)

	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out, nil
}
