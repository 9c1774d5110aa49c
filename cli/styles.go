package cli

import "github.com/charmbracelet/lipgloss"

// Palette holds the accent colors of the CLI.
type Palette struct {
	Red    lipgloss.AdaptiveColor
	Green  lipgloss.AdaptiveColor
	Yellow lipgloss.AdaptiveColor
	Orange lipgloss.AdaptiveColor
	Blue   lipgloss.AdaptiveColor
	Cyan   lipgloss.AdaptiveColor
	Violet lipgloss.AdaptiveColor
	Gray   lipgloss.AdaptiveColor
}

// Theme is the shared set of CLI styles.
type Theme struct {
	Colors Palette

	Bold   lipgloss.Style
	Italic lipgloss.Style
	Muted  lipgloss.Style
	// Accent marks the focused workspace or window in command output.
	Accent lipgloss.Style
	Stale  lipgloss.Style
}

// DefaultTheme is used by help rendering and command output.
var DefaultTheme = newTheme()

func newTheme() *Theme {
	colors := Palette{
		Red:    lipgloss.AdaptiveColor{Light: "#c0392b", Dark: "#ff6b6b"},
		Green:  lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#8bd17c"},
		Yellow: lipgloss.AdaptiveColor{Light: "#b58900", Dark: "#f0c674"},
		Orange: lipgloss.AdaptiveColor{Light: "#cb4b16", Dark: "#ffa557"},
		Blue:   lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#7aa2f7"},
		Cyan:   lipgloss.AdaptiveColor{Light: "#00838f", Dark: "#7dcfff"},
		Violet: lipgloss.AdaptiveColor{Light: "#6c3fc5", Dark: "#bb9af7"},
		Gray:   lipgloss.AdaptiveColor{Light: "#7f8c8d", Dark: "#6b7089"},
	}
	return &Theme{
		Colors: colors,
		Bold:   lipgloss.NewStyle().Bold(true),
		Italic: lipgloss.NewStyle().Italic(true),
		Muted:  lipgloss.NewStyle().Foreground(colors.Gray),
		Accent: lipgloss.NewStyle().Bold(true).Foreground(colors.Green),
		Stale:  lipgloss.NewStyle().Foreground(colors.Yellow),
	}
}

// LevelStyle returns the style of a log level label.
func (t *Theme) LevelStyle(level string) lipgloss.Style {
	switch level {
	case "error", "fatal", "panic":
		return t.Bold.Foreground(t.Colors.Red)
	case "warning", "warn":
		return t.Bold.Foreground(t.Colors.Yellow)
	case "debug", "trace":
		return t.Muted
	default:
		return lipgloss.NewStyle().Foreground(t.Colors.Blue)
	}
}
