// Package viz styles the terminal output of the postproc commands.
package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	StatusOK = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusWarn = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	StatusError = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))
)

// Field is one labelled line of a panel.
type Field struct {
	Label string
	Value string
}

func F(label string, value any) Field {
	return Field{Label: label, Value: fmt.Sprint(value)}
}

// KeyValues renders a titled panel of aligned label/value lines.
func KeyValues(title string, fields []Field) string {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.Label))
	}
	var sb strings.Builder
	sb.WriteString(Title.Render(title))
	for _, f := range fields {
		sb.WriteString("\n")
		sb.WriteString(MetricLabel.Render(fmt.Sprintf("%-*s", width, f.Label)))
		sb.WriteString("  ")
		sb.WriteString(MetricValue.Render(f.Value))
	}
	return Panel.Render(sb.String())
}

// ProgressBar renders the share of records actually read.
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case percent >= 1:
		return StatusOK.Render(bar)
	case percent > 0.5:
		return StatusWarn.Render(bar)
	}
	return StatusError.Render(bar)
}
