package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/san-kum/stockflow/internal/stockflow"
)

const (
	nodeWidth  = 80.0
	nodeHeight = 36.0
	margin     = 60.0
)

// TopologyToSVG draws states as labelled rectangles and transitions as arrows.
// Layout hints are used when every state has one; otherwise states are placed
// on a circle.
func TopologyToSVG(topo stockflow.Topology, width, height int) string {
	pos := placeNodes(topo, float64(width), float64(height))

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<defs><marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse"><path d="M0,0 L10,5 L0,10 z" fill="#888888"/></marker></defs>
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for _, e := range topo.Edges {
		if e.Source == e.Destination {
			continue
		}
		x1, y1, x2, y2 := clipEdge(pos[e.Source], pos[e.Destination])
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#888888" stroke-width="1.5" marker-end="url(#arrow)"><title>%s</title></line>
`, x1, y1, x2, y2, html.EscapeString(e.Label)))
	}

	for i, n := range topo.Nodes {
		fill := n.Color
		if fill == "" {
			fill = "#444466"
		}
		p := pos[i]
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.0f" height="%.0f" rx="4" fill="%s"/>
<text x="%.1f" y="%.1f" fill="#ffffff" font-family="monospace" font-size="14" text-anchor="middle" dominant-baseline="middle">%s</text>
`, p.X-nodeWidth/2, p.Y-nodeHeight/2, nodeWidth, nodeHeight, html.EscapeString(fill),
			p.X, p.Y, html.EscapeString(n.Name)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func placeNodes(topo stockflow.Topology, width, height float64) []stockflow.Point {
	n := len(topo.Nodes)
	pos := make([]stockflow.Point, n)
	if n == 0 {
		return pos
	}

	if topo.HasLayout() {
		for i, node := range topo.Nodes {
			pos[i] = *node.Position
		}
	} else {
		for i := range pos {
			angle := 2 * math.Pi * float64(i) / float64(n)
			pos[i] = stockflow.Point{X: math.Cos(angle), Y: math.Sin(angle)}
		}
	}

	// fit hints into the drawing area, keeping y pointing down as in screen space
	minX, maxX := pos[0].X, pos[0].X
	minY, maxY := pos[0].Y, pos[0].Y
	for _, p := range pos {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	innerW, innerH := width-2*margin, height-2*margin

	for i, p := range pos {
		x, y := width/2, height/2
		if rangeX > 0 {
			x = margin + (p.X-minX)/rangeX*innerW
		}
		if rangeY > 0 {
			y = margin + (p.Y-minY)/rangeY*innerH
		}
		pos[i] = stockflow.Point{X: x, Y: y}
	}
	return pos
}

// clipEdge shortens the segment so it starts and ends on the node borders.
func clipEdge(a, b stockflow.Point) (float64, float64, float64, float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	scale := func() float64 {
		sx, sy := math.Inf(1), math.Inf(1)
		if dx != 0 {
			sx = (nodeWidth / 2) / math.Abs(dx)
		}
		if dy != 0 {
			sy = (nodeHeight / 2) / math.Abs(dy)
		}
		return math.Min(math.Min(sx, sy), 0.5)
	}()
	return a.X + dx*scale, a.Y + dy*scale, b.X - dx*scale, b.Y - dy*scale
}

// TrajectoryToSVG draws one series against step index. Markers are drawn as
// dashed vertical lines after the given steps.
func TrajectoryToSVG(series []float64, markers []int, width, height int, strokeColor string) string {
	if len(series) < 2 {
		return ""
	}

	minY, maxY := series[0], series[0]
	for _, v := range series {
		minY, maxY = math.Min(minY, v), math.Max(maxY, v)
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY
	rangeX := float64(len(series) - 1)

	toX := func(step float64) float64 { return step / rangeX * float64(width) }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for _, m := range markers {
		if m < 0 || m >= len(series) {
			continue
		}
		x := toX(float64(m))
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="0" x2="%.1f" y2="%d" stroke="#ffaa00" stroke-dasharray="4 4"/>
`, x, x, height))
	}

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, html.EscapeString(strokeColor)))

	for i, v := range series {
		x := toX(float64(i))
		y := float64(height) - (v-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
