package panels

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
)

// RunSelectedMsg is emitted when the user opens a completed run.
type RunSelectedMsg struct{ Run coordinator.RunRecord }

// runItem implements list.Item for a completed run.
type runItem struct {
	run coordinator.RunRecord
}

func (i runItem) Title() string {
	status := "✓"
	switch {
	case i.run.TimedOut:
		status = "⏱"
	case i.run.Failed > 0:
		status = "✗"
	}
	batch := ""
	if i.run.SessionID != "" {
		batch = " ◆"
	}
	return fmt.Sprintf("%s %s%s", status, i.run.Suite, batch)
}

func (i runItem) Description() string {
	if i.run.TimedOut {
		return fmt.Sprintf("timeout  %.1fs", i.run.Duration.Seconds())
	}
	return fmt.Sprintf("%d/%d  %.1fs", i.run.Passed, i.run.Total, i.run.Duration.Seconds())
}

func (i runItem) FilterValue() string {
	return i.run.Suite
}

// RunsPanel lists the most recent completed runs, newest first. Runs that
// belonged to a run-all batch carry a ◆ marker.
type RunsPanel struct {
	list   list.Model
	runs   []coordinator.RunRecord
	width  int
	height int
}

// runDelegate is a compact single-line delegate.
type runDelegate struct{}

func (d runDelegate) Height() int                             { return 1 }
func (d runDelegate) Spacing() int                            { return 0 }
func (d runDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d runDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(runItem)
	if !ok {
		return
	}
	s := fmt.Sprintf("%s  %s  %s", item.run.FinishedAt.Format("15:04:05"), item.Title(), item.Description())
	if index == m.Index() {
		s = selectedStyle.Render("> " + s)
	} else {
		s = "  " + s
	}
	fmt.Fprint(w, s)
}

// NewRunsPanel creates an empty runs panel.
func NewRunsPanel(w, h int) RunsPanel {
	l := list.New(nil, runDelegate{}, w, h)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return RunsPanel{
		list:   l,
		width:  w,
		height: h,
	}
}

// SetRuns replaces the displayed runs.
func (p RunsPanel) SetRuns(runs []coordinator.RunRecord) RunsPanel {
	p.runs = append([]coordinator.RunRecord(nil), runs...)
	items := make([]list.Item, len(runs))
	for i, r := range runs {
		items[i] = runItem{run: r}
	}
	p.list.SetItems(items)
	return p
}

// SelectedRun returns the highlighted run, or nil.
func (p RunsPanel) SelectedRun() *coordinator.RunRecord {
	if item, ok := p.list.SelectedItem().(runItem); ok {
		r := item.run
		return &r
	}
	return nil
}

// SetSize resizes the panel.
func (p RunsPanel) SetSize(w, h int) RunsPanel {
	p.width = w
	p.height = h
	p.list.SetSize(w, h)
	return p
}

// Update handles key/mouse messages for the panel.
func (p RunsPanel) Update(msg tea.Msg) (RunsPanel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			p.list, cmd = p.list.Update(tea.KeyMsg{Type: tea.KeyDown})
		case "k", "up":
			p.list, cmd = p.list.Update(tea.KeyMsg{Type: tea.KeyUp})
		case "enter":
			if sel := p.SelectedRun(); sel != nil {
				run := *sel
				return p, func() tea.Msg { return RunSelectedMsg{Run: run} }
			}
		default:
			p.list, cmd = p.list.Update(msg)
		}
	default:
		p.list, cmd = p.list.Update(msg)
	}
	return p, cmd
}

// View renders the runs panel.
func (p RunsPanel) View() string {
	if len(p.runs) == 0 {
		return lipgloss.NewStyle().
			Width(p.width).Height(p.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(lipgloss.Color("#888888")).
			Render("No runs yet")
	}
	return p.list.View()
}
