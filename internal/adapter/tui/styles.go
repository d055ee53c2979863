package tui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the listing view.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Footer  lipgloss.Style
	Status  lipgloss.Style
	Error   lipgloss.Style
	Loading lipgloss.Style
	Help    lipgloss.Style
	Form    lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#BD0026")).MarginBottom(1),
		Label:   lipgloss.NewStyle().Bold(true).Width(10),
		Footer:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Status:  lipgloss.NewStyle().Foreground(lipgloss.Color("#2E7D32")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E31A1C")).Bold(true),
		Loading: lipgloss.NewStyle().Foreground(lipgloss.Color("#FD8D3C")).Italic(true),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Form:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// bandSwatch renders a label on the band's choropleth color.
func bandSwatch(label, color string) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(color)).
		Foreground(lipgloss.Color("#000000")).
		Padding(0, 1).
		Render(label)
}
