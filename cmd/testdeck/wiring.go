package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/logstore"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/metrics"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/notify"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/store"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/tui"
)

// forwarder fans coordinator events out to the run journal, the metrics
// exporter, the webhook notifier, a line printer and the TUI channel. Every
// sink is optional.
type forwarder struct {
	journal  store.Writer
	exporter *metrics.Exporter
	notifier *notify.Notifier
	rep      *logstore.Reporter
	out      io.Writer
	tui      chan<- coordinator.Event

	journalFailed bool
}

// handle delivers one event to every sink. The TUI send never blocks: a full
// channel drops the activity line, the panels still refresh from state.
func (f *forwarder) handle(ev coordinator.Event) {
	if f.journal != nil && !f.journalFailed {
		if err := f.journal.Append(ev); err != nil {
			f.journalFailed = true
			if f.rep != nil {
				f.rep.Error(componentJournal, fmt.Sprintf("Run journal disabled: %v", err), "")
			}
		}
	}
	if f.exporter != nil {
		f.exporter.Observe(ev)
	}
	if f.notifier != nil {
		f.notifier.Hook(ev)
	}
	if f.out != nil {
		fmt.Fprintln(f.out, formatEventLine(ev))
	}
	if f.tui != nil {
		select {
		case f.tui <- ev:
		default:
		}
	}
}

// run drains events until the channel is closed or stop is closed.
func (f *forwarder) run(events <-chan coordinator.Event, stop <-chan struct{}) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			f.handle(ev)
		case <-stop:
			return
		}
	}
}

// formatEventLine renders an event for stdout.
func formatEventLine(ev coordinator.Event) string {
	return fmt.Sprintf("[%s] %s", ev.Timestamp.Format("15:04:05"), tui.FormatEvent(ev))
}

// runHeadless runs the named suites, or every suite when names is empty,
// printing one line per event to out. It returns once every launched run
// has reported.
func runHeadless(a *app, names []string, out io.Writer) error {
	f := a.forwarder()
	f.out = out

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.run(a.events, nil)
	}()

	launchErr := launch(a, names)
	a.sess.Wait()
	close(a.events)
	<-done
	return launchErr
}

func launch(a *app, names []string) error {
	if len(names) == 0 {
		_, err := a.sess.RunAll()
		return err
	}
	for _, name := range names {
		if err := a.sess.RunSuite(name); err != nil {
			return err
		}
	}
	return nil
}

// runDashboard runs the TUI until the user quits or ctx is cancelled. cancel
// stops any run still in flight before the event fan-out is torn down.
func runDashboard(ctx context.Context, cancel context.CancelFunc, a *app) error {
	tuiEvents := make(chan coordinator.Event, eventBuffer)
	f := a.forwarder()
	f.tui = tuiEvents

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.run(a.events, stop)
	}()

	model := tui.New(tui.Options{
		Deck:        a.sess,
		Events:      tuiEvents,
		LogChanges:  a.sess.Logs.Changes(),
		Journal:     a.journalReader(),
		AccentColor: a.cfg.TUI.AccentColor,
		ProjectName: a.cfg.Project.Name,
		WorkDir:     a.dir,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	tuiErr := finishTUI(program)

	cancel()
	a.sess.Wait()
	close(stop)
	<-done
	return tuiErr
}

// finishTUI runs the bubbletea program. Cancellation (user quit, signal) is
// normal shutdown and not reported.
func finishTUI(program *tea.Program) error {
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// metricsServer serves the exporter's registry on /metrics.
type metricsServer struct {
	srv  *http.Server
	addr string
}

// serveMetrics binds addr and serves h on /metrics in the background.
func serveMetrics(addr string, h http.Handler) (*metricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	return &metricsServer{srv: srv, addr: ln.Addr().String()}, nil
}

// Addr returns the bound listen address.
func (m *metricsServer) Addr() string { return m.addr }

// Close shuts the server down, waiting briefly for in-flight scrapes.
func (m *metricsServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.srv.Shutdown(ctx)
}
