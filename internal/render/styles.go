package render

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	assistant lipgloss.Style
	user      lipgloss.Style
	body      lipgloss.Style
	button    lipgloss.Style
	tooltip   lipgloss.Style
	section   lipgloss.Style
	empty     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114")),
		body:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		button:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("159")),
		tooltip:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		section:   lipgloss.NewStyle().MarginTop(1),
		empty:     lipgloss.NewStyle().Faint(true),
	}
}
