// Package tui provides a bubbletea + lipgloss terminal UI for the test deck.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/logstore"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/metrics"
)

// defaultAccentColor is the default accent color (indigo).
const defaultAccentColor = "#7D56F4"

var (
	colorWhite  = lipgloss.Color("#FAFAFA")
	colorGray   = lipgloss.Color("#888888")
	colorBlue   = lipgloss.Color("#5B9BD5")
	colorGreen  = lipgloss.Color("#6BCB77")
	colorYellow = lipgloss.Color("#FFD93D")
	colorRed    = lipgloss.Color("#FF6B6B")
	colorOrange = lipgloss.Color("#FFA54F")
)

// Styles used across the TUI. Accent-dependent styles live on Theme.
var (
	timestampStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	startStyle = lipgloss.NewStyle().
			Foreground(colorBlue)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	resultStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	alertStyle = lipgloss.NewStyle().
			Foreground(colorOrange)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)
)

// levelIcon returns the marker for a log level.
func levelIcon(l logstore.Level) string {
	switch l {
	case logstore.LevelError:
		return "✗"
	case logstore.LevelWarning:
		return "!"
	default:
		return "i"
	}
}

// levelStyle returns the lipgloss style for a log level.
func levelStyle(l logstore.Level) lipgloss.Style {
	switch l {
	case logstore.LevelError:
		return errorStyle
	case logstore.LevelWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

// tierStyle returns the badge style for a success-rate tier.
func tierStyle(t metrics.Tier) lipgloss.Style {
	switch t {
	case metrics.TierHigh:
		return resultStyle
	case metrics.TierMedium:
		return warningStyle
	default:
		return errorStyle
	}
}

// singleLine collapses newlines and runs of whitespace into single spaces.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n < 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
