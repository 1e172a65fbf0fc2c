package panels

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	footerErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// FooterProps holds all data needed to render the footer bar.
type FooterProps struct {
	Focus     string // "suites", "runs", "main", "logs"
	Notice    string // outcome of the last command, shown on the left
	NoticeErr bool
	Following bool // activity feed auto-scroll
}

// RenderFooter renders the context-sensitive footer bar.
// Left side: last command notice. Right side: keybinding hints for the
// current focus plus the global keys.
func RenderFooter(props FooterProps, width int) string {
	left := props.Notice
	if left == "" {
		left = "ready"
	}
	if props.NoticeErr {
		left = footerErrorStyle.Render(left)
	}

	right := panelHints(props.Focus)
	if props.Focus == "main" && !props.Following {
		right += "  (follow off)"
	}
	right += "  a:run all  x:cancel  m:monitor  C:clear  1-4:panel  q:quit"

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}

	return footerStyle.Width(width).MaxHeight(1).Render(left + strings.Repeat(" ", gap) + right)
}

// panelHints returns the context-sensitive keybinding hints for a given focus.
func panelHints(focus string) string {
	switch focus {
	case "suites":
		return "j/k:navigate  enter:detail  r:run"
	case "runs":
		return "j/k:navigate  enter:view"
	case "main":
		return "f:follow  [/]:tab  ctrl+u/d:scroll"
	case "logs":
		return "[/]:filter  j/k:navigate  enter:detail  r:resolve"
	default:
		return "tab:next panel"
	}
}
