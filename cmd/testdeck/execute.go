package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/config"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/executor"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/logstore"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/metrics"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/notify"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/session"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/store"
)

// eventBuffer sizes the coordinator event channel.
const eventBuffer = 128

// componentJournal tags log entries about the run journal.
const componentJournal = "journal"

// app is everything one testdeck invocation builds from its config.
type app struct {
	cfg      *config.Config
	dir      string
	sess     *session.Session
	events   chan coordinator.Event
	journal  *store.JSONL // nil when the journal could not be opened
	exporter *metrics.Exporter
	notifier *notify.Notifier // nil when notifications.url is empty
}

// appOptions tunes newApp.
type appOptions struct {
	Timeout  time.Duration
	Executor executor.Executor
	// NoJournal skips opening a run journal.
	NoJournal bool
}

// newApp builds the session for cfg and opens this invocation's journal
// under dir. A journal that cannot be opened is reported to the log store
// and the session runs without one.
func newApp(ctx context.Context, cfg *config.Config, dir string, opts appOptions) (*app, error) {
	events := make(chan coordinator.Event, eventBuffer)
	sess, err := session.New(ctx, cfg, session.Options{
		Events:   events,
		Executor: opts.Executor,
		Timeout:  opts.Timeout,
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		dir:      dir,
		sess:     sess,
		events:   events,
		exporter: metrics.NewExporter(sess.Thresholds, sess.Logs),
	}
	a.exporter.ObserveSuites(sess.Coord.Snapshot())
	a.exporter.RefreshLogs()

	if n := cfg.Notifications; n.URL != "" {
		a.notifier = notify.New(n.URL, cfg.Project.Name, notify.Options{
			OnBatch:   n.OnBatch,
			OnFailure: n.OnFailure,
			OnCancel:  n.OnCancel,
		})
	}

	if opts.NoJournal {
		return a, nil
	}
	journalDir := filepath.Join(dir, config.JournalDir)
	j, err := store.NewJSONL(journalDir)
	if err != nil {
		sess.Reporter.Warn(componentJournal, fmt.Sprintf("Run journal disabled: %v", err))
		return a, nil
	}
	a.journal = j
	if err := store.EnforceRetention(journalDir, cfg.TUI.LogRetention); err != nil {
		sess.Reporter.Warn(componentJournal, fmt.Sprintf("Journal retention: %v", err))
	}
	return a, nil
}

// journalReader returns the journal as a store.Reader, or nil.
func (a *app) journalReader() store.Reader {
	if a.journal == nil {
		return nil
	}
	return a.journal
}

// forwarder builds the event fan-out for this invocation.
func (a *app) forwarder() *forwarder {
	f := &forwarder{
		exporter: a.exporter,
		notifier: a.notifier,
		rep:      a.sess.Reporter,
	}
	if a.journal != nil {
		f.journal = a.journal
	}
	return f
}

// Close waits for pending notifications and releases the journal.
func (a *app) Close() error {
	if a.notifier != nil {
		a.notifier.Wait()
	}
	if a.journal == nil {
		return nil
	}
	return a.journal.Close()
}

// runFlags carries the flags shared by dashboard and run.
type runFlags struct {
	timeout     time.Duration
	metricsAddr string
	noJournal   bool
	strict      bool
}

// startMetrics serves the exporter when an address is configured. The
// returned server is nil when metrics are disabled.
func startMetrics(a *app, flagAddr string) (*metricsServer, error) {
	addr := flagAddr
	if addr == "" {
		addr = a.cfg.Metrics.Addr
	}
	if addr == "" {
		return nil, nil
	}
	return serveMetrics(addr, a.exporter.Handler())
}

// executeDashboard loads config and runs the TUI.
func executeDashboard(cmd *cobra.Command, flags runFlags) error {
	cfg, dir, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg, dir, appOptions{Timeout: flags.timeout, NoJournal: flags.noJournal})
	if err != nil {
		return err
	}
	defer a.Close()

	ms, err := startMetrics(a, flags.metricsAddr)
	if err != nil {
		return err
	}
	if ms != nil {
		defer ms.Close()
		a.sess.Reporter.Info("metrics", fmt.Sprintf("Serving metrics on http://%s/metrics", ms.Addr()))
	}

	return runDashboard(ctx, cancel, a)
}

// executeRun loads config, runs the suites headless and prints a summary.
func executeRun(cmd *cobra.Command, names []string, flags runFlags) error {
	cfg, dir, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	registerQuitHandler()

	a, err := newApp(ctx, cfg, dir, appOptions{Timeout: flags.timeout, NoJournal: flags.noJournal})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	ms, err := startMetrics(a, flags.metricsAddr)
	if err != nil {
		return err
	}
	if ms != nil {
		defer ms.Close()
		fmt.Fprintf(out, "Serving metrics on http://%s/metrics\n", ms.Addr())
	}

	return reportRun(a, names, flags.strict, out)
}

// reportRun runs names headless, then prints the summary table and the
// active diagnostics. With strict set, suites that failed or timed out make
// it return an error.
func reportRun(a *app, names []string, strict bool, out io.Writer) error {
	if err := runHeadless(a, names, out); err != nil {
		return err
	}

	views := a.sess.Views()
	fmt.Fprintln(out)
	fmt.Fprint(out, formatRunSummary(views))
	fmt.Fprint(out, formatDiagnostics(a.sess.LogEntries(logstore.ByResolved(false))))
	if a.journal != nil {
		fmt.Fprintf(out, "Journal: %s\n", a.journal.Path())
	}

	if !strict {
		return nil
	}
	if bad := failing(views, names); len(bad) > 0 {
		return fmt.Errorf("run: %d suite(s) failed: %s", len(bad), strings.Join(bad, ", "))
	}
	return nil
}
