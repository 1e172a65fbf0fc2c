package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/logstore"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/store"
)

// Theme holds accent-color-derived styles for the multi-panel TUI.
type Theme struct {
	accentStyle     lipgloss.Style // header background / focused elements
	batchStyle      lipgloss.Style // run-all batch lines
	borderFocused   lipgloss.Style
	borderUnfocused lipgloss.Style
}

// NewTheme creates a Theme from a hex accent color string (e.g. "#7D56F4").
// If accentColor is empty, the default accent color is used.
func NewTheme(accentColor string) Theme {
	color := defaultAccentColor
	if accentColor != "" {
		color = accentColor
	}
	c := lipgloss.Color(color)
	return Theme{
		accentStyle: lipgloss.NewStyle().
			Background(c).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true),
		batchStyle: lipgloss.NewStyle().
			Foreground(c).
			Bold(true),
		borderFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c),
		borderUnfocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray),
	}
}

// AccentHeaderStyle returns the style for the header bar.
func (t Theme) AccentHeaderStyle() lipgloss.Style {
	return t.accentStyle
}

// PanelBorderStyle returns the border style for a panel based on whether it
// currently holds keyboard focus.
func (t Theme) PanelBorderStyle(focused bool) lipgloss.Style {
	if focused {
		return t.borderFocused
	}
	return t.borderUnfocused
}

// FormatEvent renders ev as one line of plain text, without timestamp or
// styling. The headless run command prints these lines as-is.
func FormatEvent(ev coordinator.Event) string {
	switch ev.Kind {
	case coordinator.EventSuiteStarted:
		return fmt.Sprintf("▶ %s started (run %d)", ev.Suite, ev.Run)

	case coordinator.EventSuiteCompleted:
		r := ev.Result
		if r == nil {
			return fmt.Sprintf("■ %s completed", ev.Suite)
		}
		if r.TimedOut {
			return fmt.Sprintf("⏱ %s timed out after %s", ev.Suite, formatSeconds(r.LastDuration.Seconds()))
		}
		mark := "✓"
		if r.Failed > 0 {
			mark = "✗"
		}
		return fmt.Sprintf("%s %s  %d/%d passed  %d failed  %d%%  %s",
			mark, ev.Suite, r.Passed, r.Total, r.Failed, r.SuccessRate(), formatSeconds(r.LastDuration.Seconds()))

	case coordinator.EventRunAllStarted:
		line := fmt.Sprintf("── run all %s: %s ──", shortID(ev.SessionID), strings.Join(ev.Suites, ", "))
		if len(ev.Skipped) > 0 {
			line += fmt.Sprintf("  (already running: %s)", strings.Join(ev.Skipped, ", "))
		}
		return line

	case coordinator.EventAllCompleted:
		return fmt.Sprintf("── run all %s completed in %s ──", shortID(ev.SessionID), formatSeconds(ev.Duration.Seconds()))

	case coordinator.EventRunAllCancelled:
		return fmt.Sprintf("── run all %s cancelled ──", shortID(ev.SessionID))

	default:
		return ev.Kind.String()
	}
}

// RenderEventLine renders a coordinator event as a single styled terminal
// line no wider than width.
func (t Theme) RenderEventLine(ev coordinator.Event, width int) string {
	ts := timestampStyle.Render(fmt.Sprintf("[%s]", ev.Timestamp.Format("15:04:05")))
	maxText := width - 12
	if maxText < 20 {
		maxText = 20
	}
	text := truncate(FormatEvent(ev), maxText)

	var style lipgloss.Style
	switch ev.Kind {
	case coordinator.EventSuiteStarted:
		style = startStyle
	case coordinator.EventSuiteCompleted:
		switch {
		case ev.Result == nil:
			style = infoStyle
		case ev.Result.TimedOut:
			style = alertStyle
		case ev.Result.Failed > 0:
			style = errorStyle
		default:
			style = resultStyle
		}
	case coordinator.EventRunAllStarted, coordinator.EventAllCompleted:
		style = t.batchStyle
	case coordinator.EventRunAllCancelled:
		style = warningStyle
	default:
		style = infoStyle
	}
	return fmt.Sprintf("%s  %s", ts, style.Render(text))
}

// RenderLogEntry renders a diagnostic log entry as one line. Resolved
// entries are dimmed.
func (t Theme) RenderLogEntry(e logstore.Entry, width int) string {
	ts := timestampStyle.Render(e.Timestamp.Format("15:04:05"))
	component := e.Component
	if component == "" {
		component = "-"
	}
	maxText := width - 26
	if maxText < 20 {
		maxText = 20
	}
	text := truncate(fmt.Sprintf("%s %-11s %s", levelIcon(e.Level), truncate(component, 11), singleLine(e.Message)), maxText)
	if e.Resolved {
		return fmt.Sprintf("%s  %s", ts, dimStyle.Render(text+"  (resolved)"))
	}
	return fmt.Sprintf("%s  %s", ts, levelStyle(e.Level).Render(text))
}

// renderLogDetail formats one entry for the detail tab, stack trace included.
func renderLogDetail(e logstore.Entry) []string {
	status := "active"
	if e.Resolved {
		status = "resolved"
	}
	lines := []string{
		fmt.Sprintf("%-11s %d", "Entry:", e.ID),
		fmt.Sprintf("%-11s %s", "Level:", e.Level),
		fmt.Sprintf("%-11s %s", "Component:", e.Component),
		fmt.Sprintf("%-11s %s", "Time:", e.Timestamp.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("%-11s %s", "Status:", status),
		"",
	}
	lines = append(lines, strings.Split(e.Message, "\n")...)
	if e.Stack != "" {
		lines = append(lines, "", dimStyle.Render("Stack trace:"))
		lines = append(lines, strings.Split(e.Stack, "\n")...)
	}
	return lines
}

// renderRunDetail formats one completed run for the detail tab.
func renderRunDetail(r coordinator.RunRecord) []string {
	result := "passed"
	switch {
	case r.TimedOut:
		result = "timed out"
	case r.Failed > 0:
		result = "failed"
	}
	lines := []string{
		fmt.Sprintf("%-11s %s", "Suite:", r.Suite),
		fmt.Sprintf("%-11s %s", "Result:", result),
		fmt.Sprintf("%-11s %d/%d passed, %d failed", "Tests:", r.Passed, r.Total, r.Failed),
		fmt.Sprintf("%-11s %s", "Duration:", formatSeconds(r.Duration.Seconds())),
		fmt.Sprintf("%-11s %s", "Finished:", r.FinishedAt.Format("15:04:05")),
	}
	if r.SessionID != "" {
		lines = append(lines, fmt.Sprintf("%-11s %s", "Batch:", r.SessionID))
	}
	return lines
}

// renderBatchSummary formats a journaled batch as key-value lines.
func renderBatchSummary(s store.BatchSummary) []string {
	lines := []string{
		fmt.Sprintf("%-11s %s", "Batch:", s.ID),
		fmt.Sprintf("%-11s %s", "Result:", s.Result),
		fmt.Sprintf("%-11s %s", "Suites:", strings.Join(s.Suites, ", ")),
		fmt.Sprintf("%-11s %d reported, %d failing", "Runs:", s.Reported, s.Failing),
		fmt.Sprintf("%-11s %s", "Duration:", formatSeconds(s.Duration.Seconds())),
	}
	if len(s.Skipped) > 0 {
		lines = append(lines, fmt.Sprintf("%-11s %s", "Skipped:", strings.Join(s.Skipped, ", ")))
	}
	return lines
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.1fs", s)
}

// shortID returns the first 8 characters of a batch id.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
