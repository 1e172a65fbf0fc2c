package panels

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/tui/components"
)

// MainTab identifies the active content tab in the main view.
type MainTab int

const (
	TabActivity MainTab = iota // Live coordinator events
	TabBatch                   // A journaled run-all batch
	TabDetail                  // Suite, run or log entry drill-down
)

var mainTabLabels = []string{"Activity", "Batch", "Detail"}

// MainView is the main (right-top) panel. Each tab keeps its own scroll
// state, so switching tabs never loses the live activity feed.
type MainView struct {
	tabbar   components.TabBar
	activity components.LogView
	batch    components.LogView
	detail   components.LogView
	width    int
	height   int
}

// NewMainView creates a MainView with the activity tab active.
func NewMainView(w, h int) MainView {
	contentH := contentHeight(h)
	return MainView{
		tabbar:   components.NewTabBar(mainTabLabels).SetWidth(w),
		activity: components.NewLogView(w, contentH),
		batch:    components.NewLogView(w, contentH),
		detail:   components.NewLogView(w, contentH),
		width:    w,
		height:   h,
	}
}

// contentHeight subtracts the tab bar row.
func contentHeight(h int) int {
	if h-1 < 1 {
		return 1
	}
	return h - 1
}

// ActiveTab returns the visible tab.
func (v MainView) ActiveTab() MainTab {
	return MainTab(v.tabbar.Active())
}

// AppendLine appends a pre-rendered line to the activity feed.
func (v MainView) AppendLine(rendered string) MainView {
	v.activity = v.activity.AppendLine(rendered)
	return v
}

// ShowBatch loads pre-rendered batch lines and switches to TabBatch.
func (v MainView) ShowBatch(lines []string) MainView {
	v.batch = v.batch.SetContent(lines)
	v.tabbar = v.tabbar.Select(int(TabBatch))
	return v
}

// ShowDetail loads pre-rendered detail lines and switches to TabDetail.
func (v MainView) ShowDetail(lines []string) MainView {
	v.detail = v.detail.SetContent(lines)
	v.tabbar = v.tabbar.Select(int(TabDetail))
	return v
}

// SwitchToActivity returns to the live activity tab.
func (v MainView) SwitchToActivity() MainView {
	v.tabbar = v.tabbar.Select(int(TabActivity))
	return v
}

// SetSize resizes the main view.
func (v MainView) SetSize(w, h int) MainView {
	v.width = w
	v.height = h
	contentH := contentHeight(h)
	v.tabbar = v.tabbar.SetWidth(w)
	v.activity = v.activity.SetSize(w, contentH)
	v.batch = v.batch.SetSize(w, contentH)
	v.detail = v.detail.SetSize(w, contentH)
	return v
}

// Update handles key messages for the main panel.
func (v MainView) Update(msg tea.Msg) (MainView, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "]":
			v.tabbar = v.tabbar.Next()
			return v, nil
		case "[":
			v.tabbar = v.tabbar.Prev()
			return v, nil
		case "f":
			if v.ActiveTab() == TabActivity {
				v.activity = v.activity.ToggleFollow()
			}
			return v, nil
		}
	}
	var cmd tea.Cmd
	switch v.ActiveTab() {
	case TabActivity:
		v.activity, cmd = v.activity.Update(msg)
	case TabBatch:
		v.batch, cmd = v.batch.Update(msg)
	case TabDetail:
		v.detail, cmd = v.detail.Update(msg)
	}
	return v, cmd
}

// Following reports whether the activity feed auto-scrolls.
func (v MainView) Following() bool {
	return v.activity.Following()
}

// View renders the main panel: tab bar + content area.
func (v MainView) View() string {
	var content string
	switch v.ActiveTab() {
	case TabBatch:
		content = v.tabContent(v.batch, "Select a batch run in the runs panel")
	case TabDetail:
		content = v.tabContent(v.detail, "Select a suite, run or log entry")
	default:
		content = v.tabContent(v.activity, "Waiting for activity")
	}
	return lipgloss.JoinVertical(lipgloss.Left, v.tabbar.View(), content)
}

func (v MainView) tabContent(lv components.LogView, empty string) string {
	if lv.Len() == 0 {
		return dimTextStyle.Width(v.width).Height(contentHeight(v.height)).Render(empty)
	}
	return lv.View()
}
