package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobboard/internal/model"
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")) // bright blue

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("161"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	unreadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("161"))

	errorLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	toastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

var statusColors = map[model.Status]lipgloss.Color{
	model.StatusPending:  lipgloss.Color("214"), // amber
	model.StatusAccepted: lipgloss.Color("42"),  // green
	model.StatusRejected: lipgloss.Color("196"), // red
}

var variantColors = map[model.Variant]lipgloss.Color{
	model.VariantInfo:    lipgloss.Color("39"),
	model.VariantSuccess: lipgloss.Color("42"),
	model.VariantError:   lipgloss.Color("196"),
}

func statusStyle(s model.Status) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(statusColors[s])
}

func toastBox(v model.Variant) lipgloss.Style {
	c, ok := variantColors[v]
	if !ok {
		c = variantColors[model.VariantInfo]
	}
	return toastStyle.BorderForeground(c)
}
