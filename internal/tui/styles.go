package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/christopherklint97/asistr/internal/register"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Reverse(true).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1)
)

// statusGlyphs maps each status to the single glyph drawn in its cell.
var statusGlyphs = map[string]string{
	register.StatusPresent:      "✓",
	register.StatusAbsent:       "✗",
	register.StatusLate:         "T",
	register.StatusExcused:      "J",
	register.StatusEarlyExit:    "S",
	register.StatusUnregistered: "·",
	register.StatusNoClassDay:   "—",
}

var statusStyles = map[string]lipgloss.Style{
	register.StatusPresent:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	register.StatusAbsent:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	register.StatusLate:         lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	register.StatusExcused:      lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	register.StatusEarlyExit:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	register.StatusUnregistered: dimStyle,
	register.StatusNoClassDay:   dimStyle,
}

func glyph(code string) string {
	if g, ok := statusGlyphs[code]; ok {
		return g
	}
	return statusGlyphs[register.StatusUnregistered]
}

func statusStyle(code string) lipgloss.Style {
	if s, ok := statusStyles[code]; ok {
		return s
	}
	return dimStyle
}
