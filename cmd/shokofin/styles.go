package main

import "github.com/charmbracelet/lipgloss"

// Oxocarbon palette
var (
	colorMuted  = lipgloss.Color("#767676")
	colorFg     = lipgloss.Color("#f2f4f8")
	colorPurple = lipgloss.Color("#be95ff")
	colorMauve  = lipgloss.Color("#d1aaff")
	colorGreen  = lipgloss.Color("#42be65")
	colorBlue   = lipgloss.Color("#78a9ff")
	colorRed    = lipgloss.Color("#ff5252")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(colorPurple).
			Padding(0, 1).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorMauve).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	okStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	infoStyle = lipgloss.NewStyle().Foreground(colorBlue)
	errStyle  = lipgloss.NewStyle().Foreground(colorRed)

	boxStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#393939"))
)

// field renders one label/value line
func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}

// statusStyle colors a task or sync run status
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "Completed", "completed":
		return okStyle
	case "Failed", "failed":
		return errStyle
	case "Running", "running":
		return infoStyle
	default:
		return labelStyle.UnsetWidth()
	}
}

