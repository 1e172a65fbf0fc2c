// Package panels provides the panel components for the test deck TUI.
package panels

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// HeaderProps holds all data needed to render the header bar.
// State and focus are plain strings so this package never imports tui.
type HeaderProps struct {
	ProjectName string
	WorkDir     string
	StateSymbol string // e.g. "✓", "●", "◆"
	StateLabel  string // e.g. "IDLE", "RUNNING", "RUN ALL"
	Pending     int    // suites still outstanding in the active batch
	BatchSize   int
	Errors      int // unresolved error entries
	Warnings    int // unresolved warning entries
	Monitoring  bool
	Elapsed     time.Duration
	Clock       time.Time
}

// AbbreviatePath returns a display-friendly path, replacing the home directory
// with "~" and converting backslashes to forward slashes.
func AbbreviatePath(path string) string {
	if path == "" {
		return ""
	}
	if home, err := os.UserHomeDir(); err == nil && strings.HasPrefix(path, home) {
		path = "~" + path[len(home):]
	}
	return strings.ReplaceAll(path, "\\", "/")
}

// FormatElapsed renders a duration as a compact string: "5s", "2m30s", "1h15m".
func FormatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// RenderHeader renders the header bar. accentStyle is applied to the full
// header width.
func RenderHeader(props HeaderProps, width int, accentStyle lipgloss.Style) string {
	name := "TestDeck"
	if props.ProjectName != "" {
		name = props.ProjectName
	}

	parts := []string{"◈ " + name}
	if props.WorkDir != "" {
		parts = append(parts, "dir: "+AbbreviatePath(props.WorkDir))
	}

	stateLabel := props.StateLabel
	if props.StateSymbol != "" && props.StateLabel != "" {
		stateLabel = props.StateSymbol + " " + props.StateLabel
	}
	if stateLabel != "" {
		if props.BatchSize > 0 {
			stateLabel += fmt.Sprintf(" %d/%d", props.BatchSize-props.Pending, props.BatchSize)
		}
		parts = append(parts, stateLabel)
	}

	parts = append(parts, fmt.Sprintf("errors: %d", props.Errors), fmt.Sprintf("warnings: %d", props.Warnings))
	if props.Monitoring {
		parts = append(parts, "monitoring: on")
	} else {
		parts = append(parts, "monitoring: paused")
	}
	if props.Elapsed > 0 {
		parts = append(parts, fmt.Sprintf("elapsed: %s", FormatElapsed(props.Elapsed)))
	}
	if !props.Clock.IsZero() {
		parts = append(parts, props.Clock.Format("15:04"))
	}

	content := strings.Join(parts, "  │  ")
	return accentStyle.Width(width).MaxHeight(1).Render(content)
}
