package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/logstore"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/metrics"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/store"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/tui/panels"
)

// Options configures New. Deck is required; the channels and Journal may
// be nil.
type Options struct {
	Deck        Deck
	Events      <-chan coordinator.Event
	LogChanges  <-chan struct{}
	Journal     store.Reader
	AccentColor string
	ProjectName string
	WorkDir     string
}

// Model is the root bubbletea model for the test deck dashboard.
type Model struct {
	// Sources
	deck    Deck
	events  <-chan coordinator.Event
	changes <-chan struct{}
	journal store.Reader

	// Sub-panels
	suites   panels.SuitesPanel
	runs     panels.RunsPanel
	mainView panels.MainView
	logs     panels.LogsPanel

	// Layout and focus
	layout Layout
	focus  FocusTarget
	theme  Theme
	width  int
	height int

	// Deck state, refreshed from the deck after every change
	state      DeckState
	batchSize  int
	pending    int
	errCount   int
	warnCount  int
	monitoring bool

	notice    string
	noticeErr bool

	// Time
	startedAt time.Time
	now       time.Time

	// Identity
	projectName string
	workDir     string
}

// New creates the dashboard model and loads the deck's current state.
func New(opts Options) Model {
	now := time.Now()
	th := NewTheme(opts.AccentColor)
	layout := Calculate(80, 24)

	suitesW, suitesH := innerDims(layout.Suites)
	runsW, runsH := innerDims(layout.Runs)
	mainW, mainH := innerDims(layout.Main)
	logsW, logsH := innerDims(layout.Logs)

	m := Model{
		deck:        opts.Deck,
		events:      opts.Events,
		changes:     opts.LogChanges,
		journal:     opts.Journal,
		suites:      panels.NewSuitesPanel(suitesW, suitesH),
		runs:        panels.NewRunsPanel(runsW, runsH),
		mainView:    panels.NewMainView(mainW, mainH),
		logs:        panels.NewLogsPanel(logsW, logsH, th.RenderLogEntry),
		layout:      layout,
		focus:       FocusSuites,
		theme:       th,
		width:       80,
		height:      24,
		state:       StateIdle,
		startedAt:   now,
		now:         now,
		projectName: opts.ProjectName,
		workDir:     opts.WorkDir,
	}
	return m.refresh()
}

// Init returns the initial commands: event and log listeners, clock ticker
// and the suite spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), waitForChange(m.changes), tickCmd(), m.suites.Tick())
}

// tickCmd schedules the next one-second clock tick.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent blocks on the event channel and returns the next message.
func waitForEvent(ch <-chan coordinator.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// waitForChange blocks until the log store reports a change.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return logsChangedMsg{}
	}
}

// Update handles all incoming bubbletea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case eventMsg:
		return m.handleEvent(coordinator.Event(msg))
	case eventsClosedMsg:
		m.events = nil
		return m.refresh(), nil
	case logsChangedMsg:
		return m.refresh(), waitForChange(m.changes)
	case tickMsg:
		m.now = time.Time(msg)
		return m.refresh(), tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.suites, cmd = m.suites.Update(msg)
		return m, cmd
	case noticeMsg:
		m.notice, m.noticeErr = msg.text, msg.isErr
		return m.refresh(), nil
	case panels.SuiteRunRequestMsg:
		return m, m.runSuite(msg.Name)
	case panels.SuiteSelectedMsg:
		return m.handleSuiteSelected(msg)
	case panels.RunSelectedMsg:
		return m.handleRunSelected(msg)
	case batchLogLoadedMsg:
		return m.handleBatchLogLoaded(msg)
	case panels.LogSelectedMsg:
		m.mainView = m.mainView.ShowDetail(renderLogDetail(msg.Entry))
		return m, nil
	case panels.ResolveRequestMsg:
		return m, m.resolve(msg.ID)
	}
	return m.delegateToFocused(msg)
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.layout = Calculate(msg.Width, msg.Height)
	if !m.layout.TooSmall {
		suitesW, suitesH := innerDims(m.layout.Suites)
		runsW, runsH := innerDims(m.layout.Runs)
		mainW, mainH := innerDims(m.layout.Main)
		logsW, logsH := innerDims(m.layout.Logs)
		m.suites = m.suites.SetSize(suitesW, suitesH)
		m.runs = m.runs.SetSize(runsW, runsH)
		m.mainView = m.mainView.SetSize(mainW, mainH)
		m.logs = m.logs.SetSize(logsW, logsH)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if !IsGlobalKey(key) {
		return m.delegateToFocused(msg)
	}
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "a":
		return m, m.runAll()
	case "x":
		return m, m.cancelAll()
	case "m":
		return m, m.toggleMonitoring()
	case "C":
		return m, m.clearLogs()
	case "tab":
		m.focus = m.focus.Next()
		return m, nil
	case "shift+tab":
		m.focus = m.focus.Prev()
		return m, nil
	case "1":
		m.focus = FocusSuites
		return m, nil
	case "2":
		m.focus = FocusRuns
		return m, nil
	case "3":
		m.focus = FocusMain
		return m, nil
	case "4":
		m.focus = FocusLogs
		return m, nil
	}
	return m.delegateToFocused(msg)
}

func (m Model) delegateToFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case FocusSuites:
		m.suites, cmd = m.suites.Update(msg)
	case FocusRuns:
		m.runs, cmd = m.runs.Update(msg)
	case FocusMain:
		m.mainView, cmd = m.mainView.Update(msg)
	case FocusLogs:
		m.logs, cmd = m.logs.Update(msg)
	}
	return m, cmd
}

func (m Model) handleEvent(ev coordinator.Event) (tea.Model, tea.Cmd) {
	m.mainView = m.mainView.AppendLine(m.theme.RenderEventLine(ev, m.layout.Main.Width))
	return m.refresh(), waitForEvent(m.events)
}

// refresh reloads every projection from the deck and derives the state.
func (m Model) refresh() Model {
	views := m.deck.Views()
	m.suites = m.suites.SetViews(views)
	m.runs = m.runs.SetRuns(m.deck.Recent())
	m.logs = m.logs.SetEntries(m.deck.LogEntries(logstore.Filter{}))
	m.errCount, m.warnCount = m.deck.ActiveCounts()
	m.monitoring = m.deck.Monitoring()

	next := StateIdle
	m.batchSize, m.pending = 0, 0
	if info, ok := m.deck.Active(); ok {
		next = StateRunningAll
		m.batchSize, m.pending = len(info.Suites), len(info.Pending)
	} else if anyRunning(views) {
		next = StateRunning
	}
	m.state = next
	return m
}

func anyRunning(views []metrics.SuiteView) bool {
	for _, v := range views {
		if v.Status == suite.StatusRunning {
			return true
		}
	}
	return false
}

// Commands. Each one calls the deck off the update loop and reports back
// through a noticeMsg.

func (m Model) runAll() tea.Cmd {
	deck := m.deck
	return func() tea.Msg {
		b, err := deck.RunAll()
		if err != nil {
			return noticeMsg{text: err.Error(), isErr: true}
		}
		return noticeMsg{text: fmt.Sprintf("run all %s started", shortID(b.ID))}
	}
}

func (m Model) runSuite(name string) tea.Cmd {
	deck := m.deck
	return func() tea.Msg {
		if err := deck.RunSuite(name); err != nil {
			return noticeMsg{text: err.Error(), isErr: true}
		}
		return noticeMsg{text: fmt.Sprintf("suite %s started", name)}
	}
}

func (m Model) cancelAll() tea.Cmd {
	deck := m.deck
	return func() tea.Msg {
		if deck.CancelAll() {
			return noticeMsg{text: "run all cancelled"}
		}
		return noticeMsg{text: "no batch to cancel"}
	}
}

func (m Model) toggleMonitoring() tea.Cmd {
	deck := m.deck
	return func() tea.Msg {
		if deck.ToggleMonitoring() {
			return noticeMsg{text: "monitoring resumed"}
		}
		return noticeMsg{text: "monitoring paused"}
	}
}

func (m Model) clearLogs() tea.Cmd {
	deck := m.deck
	return func() tea.Msg {
		n := deck.Clear()
		return noticeMsg{text: fmt.Sprintf("cleared %d log entries", n)}
	}
}

func (m Model) resolve(id int) tea.Cmd {
	deck := m.deck
	return func() tea.Msg {
		deck.Resolve(id)
		return noticeMsg{text: fmt.Sprintf("resolved log entry %d", id)}
	}
}

func (m Model) handleSuiteSelected(msg panels.SuiteSelectedMsg) (tea.Model, tea.Cmd) {
	for _, v := range m.suites.Views() {
		if v.Name == msg.Name {
			m.mainView = m.mainView.ShowDetail(renderSuiteDetail(v))
			break
		}
	}
	return m, nil
}

func (m Model) handleRunSelected(msg panels.RunSelectedMsg) (tea.Model, tea.Cmd) {
	m.mainView = m.mainView.ShowDetail(renderRunDetail(msg.Run))
	id := msg.Run.SessionID
	if id == "" || m.journal == nil {
		return m, nil
	}
	journal := m.journal
	return m, func() tea.Msg {
		events, err := journal.BatchLog(id)
		var summary store.BatchSummary
		if batches, bErr := journal.Batches(); bErr == nil {
			for _, b := range batches {
				if b.ID == id {
					summary = b
					break
				}
			}
		}
		return batchLogLoadedMsg{ID: id, Events: events, Summary: summary, Err: err}
	}
}

func (m Model) handleBatchLogLoaded(msg batchLogLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.notice, m.noticeErr = msg.Err.Error(), true
		return m, nil
	}
	lines := renderBatchSummary(msg.Summary)
	lines = append(lines, "")
	for _, ev := range msg.Events {
		lines = append(lines, m.theme.RenderEventLine(ev, m.layout.Main.Width))
	}
	m.mainView = m.mainView.ShowBatch(lines)
	return m, nil
}

// renderSuiteDetail formats a suite's current state for the detail tab.
func renderSuiteDetail(v metrics.SuiteView) []string {
	lines := []string{
		fmt.Sprintf("%-11s %s", "Suite:", v.Name),
		fmt.Sprintf("%-11s %s", "Status:", v.Status),
		fmt.Sprintf("%-11s %d passed, %d failed, %d total", "Tests:", v.Passed, v.Failed, v.Total),
		fmt.Sprintf("%-11s %s", "Rate:", tierStyle(v.Tier).Render(fmt.Sprintf("%d%% (%s)", v.Rate, v.Tier))),
		fmt.Sprintf("%-11s %d", "Runs:", v.Runs),
	}
	if !v.FinishedAt.IsZero() {
		lines = append(lines,
			fmt.Sprintf("%-11s %s", "Last run:", formatSeconds(v.LastDuration.Seconds())),
			fmt.Sprintf("%-11s %s", "Finished:", v.FinishedAt.Format("15:04:05")),
		)
	}
	if v.TimedOut {
		lines = append(lines, alertStyle.Render("Last run timed out"))
	}
	if v.Alert {
		lines = append(lines, alertStyle.Render("⚠ Last run exceeded the performance threshold"))
	}
	return lines
}

// View renders the full multi-panel TUI.
func (m Model) View() string {
	if m.layout.TooSmall {
		msg := fmt.Sprintf("Terminal too small (%dx%d).\nPlease resize to at least 80x24.", m.width, m.height)
		return lipgloss.NewStyle().
			Width(m.width).
			Align(lipgloss.Center).
			Render(msg)
	}

	header := panels.RenderHeader(panels.HeaderProps{
		ProjectName: m.projectName,
		WorkDir:     m.workDir,
		StateSymbol: m.state.Symbol(),
		StateLabel:  m.state.Label(),
		Pending:     m.pending,
		BatchSize:   m.batchSize,
		Errors:      m.errCount,
		Warnings:    m.warnCount,
		Monitoring:  m.monitoring,
		Elapsed:     m.now.Sub(m.startedAt),
		Clock:       m.now,
	}, m.layout.Header.Width, m.theme.AccentHeaderStyle())

	footer := panels.RenderFooter(panels.FooterProps{
		Focus:     m.focus.String(),
		Notice:    m.notice,
		NoticeErr: m.noticeErr,
		Following: m.mainView.Following(),
	}, m.layout.Footer.Width)

	suitesW, suitesH := innerDims(m.layout.Suites)
	runsW, runsH := innerDims(m.layout.Runs)
	mainW, mainH := innerDims(m.layout.Main)
	logsW, logsH := innerDims(m.layout.Logs)

	sidebar := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.PanelBorderStyle(m.focus == FocusSuites).
			Width(suitesW).Height(suitesH).
			Render(m.suites.View()),
		m.theme.PanelBorderStyle(m.focus == FocusRuns).
			Width(runsW).Height(runsH).
			Render(m.runs.View()),
	)

	rightCol := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.PanelBorderStyle(m.focus == FocusMain).
			Width(mainW).Height(mainH).
			Render(m.mainView.View()),
		m.theme.PanelBorderStyle(m.focus == FocusLogs).
			Width(logsW).Height(logsH).
			Render(m.logs.View()),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, rightCol)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// innerDims returns the content dimensions for a panel rect accounting for
// the 1-character border on each side (2 total per dimension).
func innerDims(r Rect) (w, h int) {
	w = r.Width - 2
	if w < 1 {
		w = 1
	}
	h = r.Height - 2
	if h < 1 {
		h = 1
	}
	return
}
