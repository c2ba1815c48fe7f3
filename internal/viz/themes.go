package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the live view.
type Theme struct {
	Name     string
	Mesh     lipgloss.Color
	Header   lipgloss.Color
	Accent   lipgloss.Color
	Text     lipgloss.Color
	Muted    lipgloss.Color
	Good     lipgloss.Color
	Warning  lipgloss.Color
	Critical lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:     "cyberpunk",
		Mesh:     lipgloss.Color("#00ffff"),
		Header:   lipgloss.Color("#ff00ff"),
		Accent:   lipgloss.Color("#ffff00"),
		Text:     lipgloss.Color("#ffffff"),
		Muted:    lipgloss.Color("#666666"),
		Good:     lipgloss.Color("#00ff00"),
		Warning:  lipgloss.Color("#ff8800"),
		Critical: lipgloss.Color("#ff0000"),
	}

	ThemeRetroGreen = Theme{
		Name:     "retro",
		Mesh:     lipgloss.Color("#00ff00"),
		Header:   lipgloss.Color("#00cc00"),
		Accent:   lipgloss.Color("#88ff88"),
		Text:     lipgloss.Color("#00ff00"),
		Muted:    lipgloss.Color("#005500"),
		Good:     lipgloss.Color("#88ff88"),
		Warning:  lipgloss.Color("#ffff00"),
		Critical: lipgloss.Color("#ff0000"),
	}

	ThemeOcean = Theme{
		Name:     "ocean",
		Mesh:     lipgloss.Color("#00a8cc"),
		Header:   lipgloss.Color("#0077be"),
		Accent:   lipgloss.Color("#ffd700"),
		Text:     lipgloss.Color("#e0f0ff"),
		Muted:    lipgloss.Color("#4488aa"),
		Good:     lipgloss.Color("#00ff88"),
		Warning:  lipgloss.Color("#ffcc00"),
		Critical: lipgloss.Color("#ff4444"),
	}

	ThemeSunset = Theme{
		Name:     "sunset",
		Mesh:     lipgloss.Color("#feca57"),
		Header:   lipgloss.Color("#ff6b6b"),
		Accent:   lipgloss.Color("#ff9ff3"),
		Text:     lipgloss.Color("#fff5f5"),
		Muted:    lipgloss.Color("#8b6b8c"),
		Good:     lipgloss.Color("#5fd068"),
		Warning:  lipgloss.Color("#ffc048"),
		Critical: lipgloss.Color("#ff4757"),
	}

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeOcean,
		ThemeSunset,
	}
)

// GetTheme falls back to the first theme for unknown names.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after t, wrapping around.
func NextTheme(t Theme) Theme {
	for i, candidate := range Themes {
		if candidate.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
