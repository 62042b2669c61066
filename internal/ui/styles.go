// Package ui formats the status lines nbfix prints.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	// Accent style for file paths
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))

	// Muted style for hints and summaries
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

// colorEnabled is decided once from stdout; piped output stays plain.
var colorEnabled = isTerminal(os.Stdout)

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// SetColor forces styling on or off.
func SetColor(enabled bool) {
	colorEnabled = enabled
}

// ColorEnabled reports whether styles are applied.
func ColorEnabled() bool {
	return colorEnabled
}

func render(style lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return style.Render(s)
}
