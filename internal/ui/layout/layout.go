package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/ciclofficina/tracker/internal/ui/theme"
)

const (
	MinWidth  = 60
	MinHeight = 16
)

// KeyHint is a key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage renders the "terminal too small" message.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Terminal too small\n\nResize to at least %d x %d\n\nCurrent: %d x %d",
			MinWidth, MinHeight, width, height,
		))
}

// RenderHeader renders the title bar with the completed/total counter on
// the right.
func RenderHeader(title string, completed, total int, width int) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render("  Ciclofficina")

	center := lipgloss.NewStyle().
		Foreground(theme.Text).
		Render(title)

	right := lipgloss.NewStyle().
		Foreground(theme.Success).
		Render(fmt.Sprintf("✓ %d/%d", completed, total))

	leftLen := lipgloss.Width(left)
	centerLen := lipgloss.Width(center)
	rightLen := lipgloss.Width(right)

	innerWidth := max(width-4, 0)
	leftGap := max((innerWidth-centerLen)/2-leftLen, 1)
	rightGap := max(innerWidth-leftLen-leftGap-centerLen-rightLen, 1)

	content := left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right

	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderFooter renders the key hints, with an optional status message
// on its own line.
func RenderFooter(hints []KeyHint, status string, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Key)+
			" "+
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(h.Description))
	}
	content := "  " + strings.Join(parts, "   ")
	if status != "" {
		content = "  " + theme.Flash.Render(status) + "\n" + content
	}

	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderFrame stacks header, content and footer, sizing the content to
// fill the remaining height.
func RenderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	styled := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		Render(content)
	return header + "\n" + styled + "\n" + footer
}

// Truncate shortens s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
