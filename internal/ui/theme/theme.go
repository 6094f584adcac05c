package theme

import "github.com/charmbracelet/lipgloss"

var (
	Base     = lipgloss.Color("#0a0e14")
	Mantle   = lipgloss.Color("#11151c")
	Surface1 = lipgloss.Color("#2d3640")
	Text     = lipgloss.Color("#d9e1e8")
	Subtext0 = lipgloss.Color("#8a96a3")
	Red      = lipgloss.Color("#ff5c57")
	Green    = lipgloss.Color("#5af78e")
)

// DefaultAccent matches the cyber preset.
const DefaultAccent = "#00f3ff"

// Styles is the style set derived from one accent color. Views receive it
// by value and rebuild nothing themselves.
type Styles struct {
	Accent     lipgloss.Color
	App        lipgloss.Style
	Pane       lipgloss.Style
	PaneActive lipgloss.Style
	Title      lipgloss.Style
	Muted      lipgloss.Style
	Hot        lipgloss.Style
	Error      lipgloss.Style
	Good       lipgloss.Style
	Bar        lipgloss.Style
}

// New builds the style set for an accent hex such as "#ff9900". An empty
// value falls back to DefaultAccent.
func New(accentHex string) Styles {
	if accentHex == "" {
		accentHex = DefaultAccent
	}
	accent := lipgloss.Color(accentHex)
	pane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Foreground(Text).
		Padding(1, 2)

	return Styles{
		Accent:     accent,
		App:        lipgloss.NewStyle().Background(Base).Foreground(Text),
		Pane:       pane,
		PaneActive: pane.BorderForeground(accent),
		Title:      lipgloss.NewStyle().Foreground(accent).Bold(true),
		Muted:      lipgloss.NewStyle().Foreground(Subtext0),
		Hot:        lipgloss.NewStyle().Foreground(accent).Bold(true),
		Error:      lipgloss.NewStyle().Foreground(Red).Bold(true),
		Good:       lipgloss.NewStyle().Foreground(Green),
		Bar:        lipgloss.NewStyle().Background(Mantle).Foreground(Text),
	}
}
