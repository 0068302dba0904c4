package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/atsform/internal/form"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	// Selected marks the field under the cursor.
	Selected = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff00ff")).
			Background(lipgloss.Color("#1a001a"))

	Editing = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#000000")).
		Background(lipgloss.Color("#ffcc00"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	StatusDone = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusPending = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	StatusFailed = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	StatusNeutral = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff"))

	Value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00ccff")).
		Bold(true)

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899"))

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffffff")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("#444466"))

	Tab = lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(lipgloss.Color("#888899"))

	ActiveTab = Tab.
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#444466"))
)

// StatusStyle picks the style for a status line value.
func StatusStyle(status string) lipgloss.Style {
	s := strings.TrimSpace(status)
	switch {
	case form.IsDone(s):
		return StatusDone
	case s == form.StatusPending:
		return StatusPending
	case strings.HasPrefix(s, form.StatusFailed):
		return StatusFailed
	default:
		return StatusNeutral
	}
}

// Spinner returns one frame of the pending indicator.
func Spinner(frame int) string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return frames[frame%len(frames)]
}

// BoxWithTitle renders content in a rounded box under a title line.
func BoxWithTitle(title, content string, width int) string {
	fill := width - lipgloss.Width(title) - 6
	if fill < 0 {
		fill = 0
	}
	header := "╭─ " + Title.Render(title) + " " + strings.Repeat("─", fill) + "╮"
	return header + "\n" + Panel.Width(width).Render(content)
}

func Separator(width int) string {
	if width < 8 {
		return Subtle.Render(strings.Repeat("─", width))
	}
	mid := width / 2
	return Subtle.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}
