package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/stockflow/internal/stockflow"
)

// Summary renders a topology snapshot: a row of state boxes followed by the
// flows. Values, when given, are shown inside the boxes by state index.
func Summary(topo stockflow.Topology, values []float64, theme Theme) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Primary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(theme.Border)

	var sb strings.Builder
	sb.WriteString(title.Render(topo.Name))
	sb.WriteString("\n")

	if len(topo.Nodes) == 0 {
		sb.WriteString(lipgloss.NewStyle().Foreground(theme.Muted).Render("(no states)"))
		return sb.String()
	}

	boxes := make([]string, len(topo.Nodes))
	for i, n := range topo.Nodes {
		label := n.Name
		if i < len(values) {
			label = fmt.Sprintf("%s\n%.4g", n.Name, values[i])
		}
		boxes[i] = nodeStyle(n, theme).Render(label)
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	sb.WriteString("\n")

	arrow := lipgloss.NewStyle().Foreground(theme.Accent)
	muted := lipgloss.NewStyle().Foreground(theme.Muted)
	for i, e := range topo.Edges {
		src, dst := topo.Nodes[e.Source].Name, topo.Nodes[e.Destination].Name
		fmt.Fprintf(&sb, "%s %s %s %s\n", muted.Render(fmt.Sprintf("%2d", i)), src, arrow.Render("──▶"), dst)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func nodeStyle(n stockflow.Node, theme Theme) lipgloss.Style {
	border := theme.Border
	if n.Color != "" {
		border = lipgloss.Color(n.Color)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Foreground(theme.Text).
		Padding(0, 1).
		MarginRight(1).
		Align(lipgloss.Center)
}
