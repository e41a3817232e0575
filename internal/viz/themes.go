package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the colour scheme for terminal output.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Warning lipgloss.Color
	Border  lipgloss.Color
}

var (
	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Warning: lipgloss.Color("#ffaa00"),
		Border:  lipgloss.Color("#444466"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"), // green phosphor
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Warning: lipgloss.Color("#ffff00"),
		Border:  lipgloss.Color("#00cc00"),
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Primary: lipgloss.Color("#00b4d8"),
		Accent:  lipgloss.Color("#90e0ef"),
		Text:    lipgloss.Color("#caf0f8"),
		Muted:   lipgloss.Color("#4a6fa5"),
		Warning: lipgloss.Color("#ffb703"),
		Border:  lipgloss.Color("#0077b6"),
	}

	Themes = []Theme{ThemeMinimal, ThemeRetroGreen, ThemeOcean}
)

// GetTheme returns a theme by name, falling back to minimal.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeMinimal
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
