package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/ciclofficina/tracker/internal/ui/theme"
)

// ProgressBar is a horizontal bar with an optional label and percentage.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
}

func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{Label: label, Percent: percent, ShowPercent: showPercent, Width: width}
}

// Ratio returns done/total as a fraction, 0 when total is 0.
func Ratio(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}

func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6
	}
	barWidth := max(p.Width-lipgloss.Width(result)-percentWidth, 4)
	filled := min(max(int(float64(barWidth)*p.Percent), 0), barWidth)

	result += lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled)) +
		lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))

	if p.ShowPercent {
		result += theme.Dim.Render(fmt.Sprintf("  %d%%", int(p.Percent*100)))
	}
	return result
}
