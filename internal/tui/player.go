// Package tui provides an interactive step-by-step playback of a run.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/stockflow/internal/stockflow"
	"github.com/san-kum/stockflow/internal/viz"
)

const barWidth = 40

type tickMsg time.Time

// Player replays a table one step at a time.
type Player struct {
	name     string
	table    *stockflow.Table
	states   int
	markers  map[int]bool
	step     int
	playing  bool
	interval time.Duration
	theme    viz.Theme
	scale    float64
}

// NewPlayer builds a player for a table whose first states columns are state
// values and the rest flows.
func NewPlayer(name string, table *stockflow.Table, states int, markers []int, interval time.Duration, theme viz.Theme) Player {
	p := Player{
		name:     name,
		table:    table,
		states:   states,
		markers:  make(map[int]bool, len(markers)),
		interval: interval,
		theme:    theme,
	}
	for _, m := range markers {
		p.markers[m] = true
	}
	for _, row := range table.Rows {
		for i := 0; i < states && i < len(row); i++ {
			p.scale = math.Max(p.scale, math.Abs(row[i]))
		}
	}
	return p
}

func (p Player) Step() int     { return p.step }
func (p Player) Playing() bool { return p.playing }

func (p Player) last() int { return len(p.table.Rows) - 1 }

func (p Player) tick() tea.Cmd {
	return tea.Tick(p.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (p Player) Init() tea.Cmd { return nil }

func (p Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p.handleKey(msg)
	case tickMsg:
		if !p.playing {
			return p, nil
		}
		if p.step >= p.last() {
			p.playing = false
			return p, nil
		}
		p.step++
		return p, p.tick()
	}
	return p, nil
}

func (p Player) handleKey(msg tea.KeyMsg) (Player, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "right", "l":
		if p.step < p.last() {
			p.step++
		}
	case "left", "h":
		if p.step > 0 {
			p.step--
		}
	case "home", "g":
		p.step = 0
	case "end", "G":
		p.step = max(p.last(), 0)
	case " ":
		p.playing = !p.playing
		if p.playing {
			return p, p.tick()
		}
	}
	return p, nil
}

func (p Player) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(p.theme.Primary)
	muted := lipgloss.NewStyle().Foreground(p.theme.Muted)
	accent := lipgloss.NewStyle().Foreground(p.theme.Accent)
	warn := lipgloss.NewStyle().Bold(true).Foreground(p.theme.Warning)

	var sb strings.Builder
	status := "paused"
	if p.playing {
		status = "playing"
	}
	fmt.Fprintf(&sb, "%s  %s\n\n", title.Render(p.name),
		muted.Render(fmt.Sprintf("step %d/%d  %s", p.step, len(p.table.Rows), status)))

	if len(p.table.Rows) == 0 {
		sb.WriteString(muted.Render("no steps recorded"))
		return sb.String()
	}

	row := p.table.Rows[p.step]
	for i, col := range p.table.Columns {
		if i >= len(row) {
			break
		}
		if i == p.states {
			sb.WriteString("\n")
		}
		if i < p.states {
			fmt.Fprintf(&sb, "%-12s %12.4f %s\n", col, row[i], accent.Render(p.bar(row[i])))
		} else {
			fmt.Fprintf(&sb, "%-24s %12.4f\n", col, row[i])
		}
	}

	if p.markers[p.step] {
		sb.WriteString("\n" + warn.Render("policy change after this step") + "\n")
	}

	sb.WriteString("\n" + muted.Render("←/→ step  space play  g/G first/last  q quit"))
	return sb.String()
}

func (p Player) bar(v float64) string {
	if p.scale == 0 {
		return ""
	}
	n := int(math.Round(math.Abs(v) / p.scale * barWidth))
	return strings.Repeat("█", n)
}
