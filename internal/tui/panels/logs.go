package panels

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/logstore"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/tui/components"
)

// LogSelectedMsg is emitted when the user opens a log entry.
type LogSelectedMsg struct{ Entry logstore.Entry }

// ResolveRequestMsg is emitted when the user presses 'r' on a log entry.
type ResolveRequestMsg struct{ ID int }

// LogTab identifies the active filter tab in the logs panel.
type LogTab int

const (
	TabAll LogTab = iota
	TabUnresolved
	TabErrors
	TabWarnings
	TabInfo
)

var logTabLabels = []string{"All", "Unresolved", "Errors", "Warnings", "Info"}

// Filter returns the log store filter for the tab.
func (t LogTab) Filter() logstore.Filter {
	switch t {
	case TabUnresolved:
		return logstore.ByResolved(false)
	case TabErrors:
		return logstore.ByLevel(logstore.LevelError)
	case TabWarnings:
		return logstore.ByLevel(logstore.LevelWarning)
	case TabInfo:
		return logstore.ByLevel(logstore.LevelInfo)
	default:
		return logstore.Filter{}
	}
}

// EntryRenderer renders one log entry as a single line of the given width.
type EntryRenderer func(e logstore.Entry, width int) string

type logItem struct {
	entry logstore.Entry
}

func (i logItem) Title() string       { return i.entry.Message }
func (i logItem) Description() string { return i.entry.Component }
func (i logItem) FilterValue() string { return i.entry.Message }

type logDelegate struct {
	render EntryRenderer
	width  int
}

func (d logDelegate) Height() int                             { return 1 }
func (d logDelegate) Spacing() int                            { return 0 }
func (d logDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d logDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(logItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprint(w, prefix+d.render(item.entry, d.width-2))
}

// LogsPanel is the bottom-right panel: the diagnostic log with one tab per
// filter. The panel holds every entry and applies the active tab's filter
// locally.
type LogsPanel struct {
	tabbar  components.TabBar
	list    list.Model
	entries []logstore.Entry
	render  EntryRenderer
	width   int
	height  int
}

// NewLogsPanel creates an empty logs panel. render draws each entry.
func NewLogsPanel(w, h int, render EntryRenderer) LogsPanel {
	l := list.New(nil, logDelegate{render: render, width: w}, w, contentHeight(h))
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return LogsPanel{
		tabbar: components.NewTabBar(logTabLabels).SetWidth(w),
		list:   l,
		render: render,
		width:  w,
		height: h,
	}
}

// ActiveTab returns the visible filter tab.
func (p LogsPanel) ActiveTab() LogTab {
	return LogTab(p.tabbar.Active())
}

// SetEntries replaces the panel's entries. entries must be in insertion
// order; the panel shows the newest first.
func (p LogsPanel) SetEntries(entries []logstore.Entry) LogsPanel {
	p.entries = append([]logstore.Entry(nil), entries...)
	return p.refresh()
}

// Visible returns the entries matching the active tab, newest first.
func (p LogsPanel) Visible() []logstore.Entry {
	f := p.ActiveTab().Filter()
	var out []logstore.Entry
	for i := len(p.entries) - 1; i >= 0; i-- {
		if f.Match(p.entries[i]) {
			out = append(out, p.entries[i])
		}
	}
	return out
}

func (p LogsPanel) refresh() LogsPanel {
	visible := p.Visible()
	items := make([]list.Item, len(visible))
	for i, e := range visible {
		items[i] = logItem{entry: e}
	}
	p.list.SetItems(items)
	return p
}

// SelectedEntry returns the highlighted entry, or nil.
func (p LogsPanel) SelectedEntry() *logstore.Entry {
	if item, ok := p.list.SelectedItem().(logItem); ok {
		e := item.entry
		return &e
	}
	return nil
}

// SetSize resizes the panel.
func (p LogsPanel) SetSize(w, h int) LogsPanel {
	p.width = w
	p.height = h
	p.tabbar = p.tabbar.SetWidth(w)
	p.list.SetSize(w, contentHeight(h))
	p.list.SetDelegate(logDelegate{render: p.render, width: w})
	return p
}

// Update handles key messages for the logs panel.
func (p LogsPanel) Update(msg tea.Msg) (LogsPanel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "]":
			p.tabbar = p.tabbar.Next()
			p.list.ResetSelected()
			return p.refresh(), nil
		case "[":
			p.tabbar = p.tabbar.Prev()
			p.list.ResetSelected()
			return p.refresh(), nil
		case "j", "down":
			p.list, cmd = p.list.Update(tea.KeyMsg{Type: tea.KeyDown})
		case "k", "up":
			p.list, cmd = p.list.Update(tea.KeyMsg{Type: tea.KeyUp})
		case "enter":
			if sel := p.SelectedEntry(); sel != nil {
				e := *sel
				return p, func() tea.Msg { return LogSelectedMsg{Entry: e} }
			}
		case "r":
			if sel := p.SelectedEntry(); sel != nil && !sel.Resolved {
				id := sel.ID
				return p, func() tea.Msg { return ResolveRequestMsg{ID: id} }
			}
		default:
			p.list, cmd = p.list.Update(msg)
		}
	default:
		p.list, cmd = p.list.Update(msg)
	}
	return p, cmd
}

// View renders the logs panel: tab bar + filtered entries.
func (p LogsPanel) View() string {
	var content string
	if len(p.list.Items()) == 0 {
		content = lipgloss.NewStyle().
			Width(p.width).Height(contentHeight(p.height)).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(lipgloss.Color("#888888")).
			Render("No log entries")
	} else {
		content = p.list.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, p.tabbar.View(), content)
}
