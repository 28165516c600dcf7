package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		Padding(1, 2)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// FormatMinutes renders a duration as "45m", "2h" or "1h 30m".
func FormatMinutes(min int) string {
	if min < 60 {
		return fmt.Sprintf("%dm", max(min, 0))
	}
	h, m := min/60, min%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// FormatCountdown renders seconds as MM:SS.
func FormatCountdown(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Truncate shortens s to at most width visible runes, ending in "…".
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// EnergyDots renders an energy level on a 0..10 scale as filled dots.
func EnergyDots(level int) string {
	level = max(0, min(level, 10))
	return strings.Repeat("●", level) + Dim(strings.Repeat("○", 10-level))
}
