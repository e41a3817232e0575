// Package sweep runs a model over a grid of parameter values and scores every
// point with metrics.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/stockflow/internal/metrics"
	"github.com/san-kum/stockflow/internal/stockflow"
)

var ErrEmptyGrid = errors.New("empty sweep grid")

// Axis is one swept parameter.
type Axis struct {
	Param  string
	Values []float64
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// ParseAxis reads "param=lo:hi:n" or "param=v1,v2,...".
func ParseAxis(s string) (Axis, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return Axis{}, fmt.Errorf("axis %q: expected param=lo:hi:n or param=v1,v2", s)
	}

	if parts := strings.Split(raw, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return Axis{}, fmt.Errorf("axis %q: %w", s, err)
		}
		if n < 1 {
			return Axis{}, fmt.Errorf("axis %q: need at least one point", s)
		}
		return Axis{Param: name, Values: Linspace(lo, hi, n)}, nil
	}

	var values []float64
	for _, f := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis %q: %w", s, err)
		}
		values = append(values, v)
	}
	return Axis{Param: name, Values: values}, nil
}

// Grid is the cartesian product of its axes.
type Grid struct {
	Axes []Axis
}

// Points enumerates every combination, first axis outermost.
func (g Grid) Points() []map[string]float64 {
	if len(g.Axes) == 0 {
		return nil
	}
	points := []map[string]float64{{}}
	for _, ax := range g.Axes {
		next := make([]map[string]float64, 0, len(points)*len(ax.Values))
		for _, p := range points {
			for _, v := range ax.Values {
				q := make(map[string]float64, len(p)+1)
				for k, pv := range p {
					q[k] = pv
				}
				q[ax.Param] = v
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// Result is one grid point with its metric values.
type Result struct {
	Name    string
	Params  map[string]float64
	Metrics map[string]float64
}

// Run evaluates every grid point concurrently on clones of base. base itself
// is not run.
func Run(ctx context.Context, base *stockflow.Model, steps int, g Grid, specs []string) ([]Result, error) {
	points := g.Points()
	if len(points) == 0 {
		return nil, ErrEmptyGrid
	}
	for _, ax := range g.Axes {
		if _, ok := base.Parameter(ax.Param); !ok {
			return nil, fmt.Errorf("%w: %q", stockflow.ErrUnknownParameter, ax.Param)
		}
	}

	scenarios := make([]stockflow.Scenario, len(points))
	for i, p := range points {
		p := p
		scenarios[i] = stockflow.Scenario{
			Name: pointName(g, p),
			Variant: func(m *stockflow.Model) error {
				for k, v := range p {
					m.SetParameter(k, v)
				}
				return nil
			},
		}
	}

	outcomes, err := stockflow.NewEnsemble(base, steps).Run(ctx, scenarios)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(outcomes))
	for i, o := range outcomes {
		vals, err := metrics.Evaluate(o.Table, o.Model.NumStates(), specs...)
		if err != nil {
			return nil, err
		}
		results[i] = Result{Name: o.Name, Params: points[i], Metrics: vals}
	}
	return results, nil
}

func pointName(g Grid, p map[string]float64) string {
	parts := make([]string, len(g.Axes))
	for i, ax := range g.Axes {
		parts[i] = fmt.Sprintf("%s=%g", ax.Param, p[ax.Param])
	}
	return strings.Join(parts, ",")
}

// Best returns the result with the lowest value of metric, or the highest when
// maximize is set. NaN values never win.
func Best(results []Result, metric string, maximize bool) (Result, bool) {
	best := math.Inf(1)
	if maximize {
		best = math.Inf(-1)
	}

	var out Result
	found := false
	for _, r := range results {
		v, ok := r.Metrics[metric]
		if !ok || math.IsNaN(v) {
			continue
		}
		if (!maximize && v < best) || (maximize && v > best) || !found {
			best, out, found = v, r, true
		}
	}
	return out, found
}

// Sorted returns a copy of results ordered by metric ascending.
func Sorted(results []Result, metric string) []Result {
	out := append([]Result(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Metrics[metric] < out[j].Metrics[metric]
	})
	return out
}
