package panels

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/metrics"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

// SuiteSelectedMsg is emitted when the user highlights or opens a suite.
type SuiteSelectedMsg struct{ Name string }

// SuiteRunRequestMsg is emitted when the user presses 'r' on a suite.
type SuiteRunRequestMsg struct{ Name string }

var (
	tierHighStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77")).Bold(true)
	tierMediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD93D")).Bold(true)
	tierLowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	alertMarkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA54F"))
	selectedStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	dimTextStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func badgeStyle(t metrics.Tier) lipgloss.Style {
	switch t {
	case metrics.TierHigh:
		return tierHighStyle
	case metrics.TierMedium:
		return tierMediumStyle
	default:
		return tierLowStyle
	}
}

// suiteItem wraps a metrics.SuiteView as a list.Item.
type suiteItem struct {
	view metrics.SuiteView
}

func (s suiteItem) Title() string       { return s.view.Name }
func (s suiteItem) FilterValue() string { return s.view.Name }

func (s suiteItem) Description() string {
	return fmt.Sprintf("%d/%d passed, %d failed", s.view.Passed, s.view.Total, s.view.Failed)
}

// suiteDelegate renders one suite per line: status, name, rate bar, badge.
// frame is the current spinner frame shown next to running suites.
type suiteDelegate struct {
	frame string
	bar   progress.Model
}

func (d suiteDelegate) Height() int                             { return 1 }
func (d suiteDelegate) Spacing() int                            { return 0 }
func (d suiteDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d suiteDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	si, ok := item.(suiteItem)
	if !ok {
		return
	}
	v := si.view

	status := "·"
	switch {
	case v.Status == suite.StatusRunning:
		status = d.frame
	case v.TimedOut:
		status = "⏱"
	case v.Status == suite.StatusCompleted && v.Failed > 0:
		status = "✗"
	case v.Status == suite.StatusCompleted:
		status = "✓"
	}

	name := v.Name
	if len(name) > 12 {
		name = name[:11] + "…"
	}
	badge := badgeStyle(v.Tier).Render(fmt.Sprintf("%3d%%", v.Rate))
	alert := " "
	if v.Alert {
		alert = alertMarkStyle.Render("⚠")
	}

	prefix := "  "
	label := fmt.Sprintf("%s %-12s", status, name)
	if index == m.Index() {
		prefix = "> "
		label = selectedStyle.Render(label)
	}
	_, _ = fmt.Fprintf(w, "%s%s %s %s %s", prefix, label, d.bar.ViewAs(float64(v.Rate)/100), badge, alert)
}

// barWidth sizes the rate bar to whatever the panel has left after the
// fixed-width columns (prefix, status, name, badge, alert).
func barWidth(panelW int) int {
	w := panelW - 26
	if w < 4 {
		w = 4
	}
	return w
}

// SuitesPanel lists every registered suite with its success rate, badge
// tier and performance alert marker.
type SuitesPanel struct {
	list    list.Model
	views   []metrics.SuiteView
	spinner spinner.Model
	bar     progress.Model
	width   int
	height  int
}

// NewSuitesPanel creates an empty suites panel.
func NewSuitesPanel(w, h int) SuitesPanel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	bar := progress.New(progress.WithSolidFill("#7D56F4"), progress.WithoutPercentage())
	bar.Width = barWidth(w)

	l := list.New(nil, suiteDelegate{frame: sp.View(), bar: bar}, w, h)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return SuitesPanel{
		list:    l,
		spinner: sp,
		bar:     bar,
		width:   w,
		height:  h,
	}
}

// Tick starts the running-suite spinner.
func (p SuitesPanel) Tick() tea.Cmd {
	return p.spinner.Tick
}

// SetViews replaces the displayed suites, keeping the cursor position.
func (p SuitesPanel) SetViews(views []metrics.SuiteView) SuitesPanel {
	p.views = append([]metrics.SuiteView(nil), views...)
	items := make([]list.Item, len(views))
	for i, v := range views {
		items[i] = suiteItem{view: v}
	}
	p.list.SetItems(items)
	return p
}

// Views returns the suites currently displayed.
func (p SuitesPanel) Views() []metrics.SuiteView {
	return p.views
}

// SelectedSuite returns the highlighted suite name, or "".
func (p SuitesPanel) SelectedSuite() string {
	if item, ok := p.list.SelectedItem().(suiteItem); ok {
		return item.view.Name
	}
	return ""
}

// SetSize resizes the panel.
func (p SuitesPanel) SetSize(w, h int) SuitesPanel {
	p.width = w
	p.height = h
	p.bar.Width = barWidth(w)
	p.list.SetSize(w, h)
	p.list.SetDelegate(p.delegate())
	return p
}

func (p SuitesPanel) delegate() suiteDelegate {
	return suiteDelegate{frame: p.spinner.View(), bar: p.bar}
}

// Update handles spinner ticks and key messages for the panel.
func (p SuitesPanel) Update(msg tea.Msg) (SuitesPanel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case spinner.TickMsg:
		p.spinner, cmd = p.spinner.Update(msg)
		p.list.SetDelegate(p.delegate())
		return p, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			p.list, cmd = p.list.Update(tea.KeyMsg{Type: tea.KeyDown})
			return p, p.selected(cmd)
		case "k", "up":
			p.list, cmd = p.list.Update(tea.KeyMsg{Type: tea.KeyUp})
			return p, p.selected(cmd)
		case "enter":
			return p, p.selected(nil)
		case "r":
			if name := p.SelectedSuite(); name != "" {
				return p, func() tea.Msg { return SuiteRunRequestMsg{Name: name} }
			}
			return p, nil
		default:
			p.list, cmd = p.list.Update(msg)
		}
	default:
		p.list, cmd = p.list.Update(msg)
	}
	return p, cmd
}

func (p SuitesPanel) selected(cmd tea.Cmd) tea.Cmd {
	name := p.SelectedSuite()
	if name == "" {
		return cmd
	}
	return tea.Batch(cmd, func() tea.Msg { return SuiteSelectedMsg{Name: name} })
}

// View renders the suites panel.
func (p SuitesPanel) View() string {
	if len(p.views) == 0 {
		return lipgloss.NewStyle().
			Width(p.width).Height(p.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(lipgloss.Color("#888888")).
			Render("No suites")
	}
	return p.list.View()
}
