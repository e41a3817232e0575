// Package plot renders trajectories as terminal line charts.
package plot

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/stockflow/internal/stockflow"
)

var palette = []asciigraph.AnsiColor{
	asciigraph.Blue,
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Yellow,
	asciigraph.Orange,
	asciigraph.Purple,
}

type Options struct {
	Height int
	Width  int
	Color  bool
}

func DefaultOptions() Options {
	return Options{Height: 12, Width: 80, Color: true}
}

// Named is one scenario's table, labelled for overlays.
type Named struct {
	Name    string
	Table   *stockflow.Table
	Markers []int
}

// Columns plots the named columns of one table on a shared axis. An empty
// names list plots every state column (the first states columns).
func Columns(table *stockflow.Table, names []string, states int, markers []int, opts Options) (string, error) {
	if len(table.Rows) == 0 {
		return "", fmt.Errorf("no data to plot")
	}
	if len(names) == 0 {
		if states > len(table.Columns) {
			states = len(table.Columns)
		}
		names = table.Columns[:states]
	}

	series := make([][]float64, 0, len(names))
	for _, name := range names {
		idx := table.ColumnIndex(name)
		if idx < 0 {
			return "", fmt.Errorf("unknown column %q", name)
		}
		series = append(series, table.Column(idx))
	}

	return render(series, names, caption(strings.Join(names, ", "), markers), opts), nil
}

// Compare overlays one column across several scenarios.
func Compare(runs []Named, column string, opts Options) (string, error) {
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs to compare")
	}

	series := make([][]float64, 0, len(runs))
	legends := make([]string, 0, len(runs))
	var markers []int
	for _, r := range runs {
		idx := r.Table.ColumnIndex(column)
		if idx < 0 {
			return "", fmt.Errorf("%s: unknown column %q", r.Name, column)
		}
		if len(r.Table.Rows) == 0 {
			return "", fmt.Errorf("%s: no data to plot", r.Name)
		}
		series = append(series, r.Table.Column(idx))
		legends = append(legends, r.Name)
		markers = append(markers, r.Markers...)
	}

	return render(series, legends, caption(column, dedupe(markers)), opts), nil
}

func render(series [][]float64, legends []string, caption string, opts Options) string {
	options := []asciigraph.Option{
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
	}
	// legends index into the series colours, so both are always set together
	if len(series) > 1 {
		colors := make([]asciigraph.AnsiColor, len(series))
		for i := range colors {
			colors[i] = asciigraph.Default
			if opts.Color {
				colors[i] = palette[i%len(palette)]
			}
		}
		options = append(options,
			asciigraph.SeriesColors(colors...),
			asciigraph.SeriesLegends(legends...))
	} else if opts.Color {
		options = append(options, asciigraph.SeriesColors(palette[0]))
	}
	return asciigraph.PlotMany(series, options...)
}

func caption(title string, markers []int) string {
	if len(markers) == 0 {
		return title
	}
	steps := make([]string, len(markers))
	for i, s := range markers {
		steps[i] = fmt.Sprint(s)
	}
	return fmt.Sprintf("%s (policy changes after steps %s)", title, strings.Join(steps, ", "))
}

func dedupe(xs []int) []int {
	seen := make(map[int]bool, len(xs))
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}
