package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"socialsched/console/internal/workflow"
)

var palette = map[workflow.Color]lipgloss.Color{
	workflow.ColorGray:   lipgloss.Color("#6B7280"),
	workflow.ColorOrange: lipgloss.Color("#EA580C"),
	workflow.ColorBlue:   lipgloss.Color("#2563EB"),
	workflow.ColorPurple: lipgloss.Color("#7C3AED"),
	workflow.ColorGreen:  lipgloss.Color("#16A34A"),
	workflow.ColorRed:    lipgloss.Color("#DC2626"),
	workflow.ColorYellow: lipgloss.Color("#CA8A04"),
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(palette[workflow.ColorRed]).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(palette[workflow.ColorGreen])
	mutedStyle  = lipgloss.NewStyle().Foreground(palette[workflow.ColorGray])
)

func colorStyle(c workflow.Color) lipgloss.Style {
	fg, ok := palette[c]
	if !ok {
		fg = palette[workflow.ColorGray]
	}
	return lipgloss.NewStyle().Foreground(fg)
}

// badge renders a status with its label, e.g. "Planlandı".
func badge(s workflow.Status) string {
	return colorStyle(s.Color()).Bold(true).Render(s.Label())
}

// tag renders one offered transition as "[to] Label".
func tag(t workflow.Transition) string {
	return colorStyle(t.Color).Render("[" + string(t.To) + "] " + t.Label)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}
