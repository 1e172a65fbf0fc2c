package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/config"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/logstore"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/metrics"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/store"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive test deck",
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			addr, _ := cmd.Flags().GetString("metrics-addr")
			noJournal, _ := cmd.Flags().GetBool("no-journal")
			return executeDashboard(cmd, runFlags{timeout: timeout, metricsAddr: addr, noJournal: noJournal})
		},
	}
	addRunFlags(cmd)
	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [suite...]",
		Short: "Run every suite, or the named ones, without the TUI",
		Long: "Run every configured suite as one batch, or only the named suites, " +
			"streaming events to stdout and printing a summary table when all runs have reported.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			addr, _ := cmd.Flags().GetString("metrics-addr")
			noJournal, _ := cmd.Flags().GetBool("no-journal")
			strict, _ := cmd.Flags().GetBool("strict")
			return executeRun(cmd, args, runFlags{timeout: timeout, metricsAddr: addr, noJournal: noJournal, strict: strict})
		},
	}
	addRunFlags(cmd)
	cmd.Flags().Bool("strict", false, "exit non-zero when a suite that ran has failures or timed out")
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("timeout", 0, "per-run timeout (0 = use config)")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (default: [metrics] addr)")
	cmd.Flags().Bool("no-journal", false, "do not record a run journal")
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [batch-id]",
		Short: "List run-all batches from the newest journal, or replay one batch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, dir, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path, err := store.Latest(filepath.Join(dir, config.JournalDir))
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No run journal found. Run 'testdeck run' or 'testdeck dashboard' first.")
				return nil
			}
			j, err := store.Open(path)
			if err != nil {
				return err
			}
			defer j.Close()

			if len(args) == 1 {
				return printBatch(cmd, j, args[0])
			}
			summary, err := j.Summary()
			if err != nil {
				return err
			}
			batches, err := j.Batches()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatHistory(summary, batches))
			return nil
		},
	}
}

func printBatch(cmd *cobra.Command, j store.Reader, prefix string) error {
	batches, err := j.Batches()
	if err != nil {
		return err
	}
	var match []store.BatchSummary
	for _, b := range batches {
		if strings.HasPrefix(b.ID, prefix) {
			match = append(match, b)
		}
	}
	switch len(match) {
	case 0:
		return fmt.Errorf("history: no batch matches %q", prefix)
	case 1:
	default:
		return fmt.Errorf("history: %q matches %d batches", prefix, len(match))
	}
	events, err := j.BatchLog(match[0].ID)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), formatBatchLog(events))
	return nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create testdeck.toml and the journal directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			created, err := config.ScaffoldProject(dir)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatScaffoldResult(created))
			return nil
		},
	}
}

// formatScaffoldResult returns a display string for the files created by
// ScaffoldProject.
func formatScaffoldResult(created []string) string {
	if len(created) == 0 {
		return "All files already exist, nothing to create.\n"
	}
	var b strings.Builder
	for _, p := range created {
		fmt.Fprintf(&b, "Created %s\n", p)
	}
	return b.String()
}

// formatRunSummary renders one row per suite with its counts, success rate,
// tier badge and last duration.
func formatRunSummary(views []metrics.SuiteView) string {
	t := table.NewWriter()
	t.SetTitle("Suite results")
	t.AppendHeader(table.Row{"Suite", "Status", "Passed", "Failed", "Total", "Rate", "Tier", "Duration", "Alert"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Passed", Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Name: "Total", Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Name: "Rate", Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})

	var passed, failed, total int
	for _, v := range views {
		status := v.Status.String()
		if v.TimedOut {
			status = "timed out"
		}
		alert := ""
		if v.Alert {
			alert = "slow"
		}
		dur := "-"
		if v.Runs > 0 {
			dur = formatDuration(v.LastDuration)
		}
		t.AppendRow(table.Row{v.Name, status, v.Passed, v.Failed, v.Total, fmt.Sprintf("%d%%", v.Rate), v.Tier.String(), dur, alert})
		passed += v.Passed
		failed += v.Failed
		total += v.Total
	}
	t.AppendFooter(table.Row{"Total", "", passed, failed, total, fmt.Sprintf("%d%%", suite.Rate(passed, total)), "", "", ""})
	style := table.StyleLight
	style.Format.Footer = text.FormatDefault
	t.SetStyle(style)
	return t.Render() + "\n"
}

// formatDiagnostics lists active log entries, errors first.
func formatDiagnostics(entries []logstore.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Diagnostics\n")
	b.WriteString("───────────\n")
	for _, level := range []logstore.Level{logstore.LevelError, logstore.LevelWarning, logstore.LevelInfo} {
		for _, e := range entries {
			if e.Level != level {
				continue
			}
			fmt.Fprintf(&b, "  %-7s %s  %s: %s\n", e.Level, e.Timestamp.Format("15:04:05"), e.Component, e.Message)
		}
	}
	return b.String()
}

// failing returns the suites among names (all views when names is empty)
// whose latest run had failures or timed out.
func failing(views []metrics.SuiteView, names []string) []string {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []string
	for _, v := range views {
		if len(names) > 0 && !want[v.Name] {
			continue
		}
		if v.Status == suite.StatusCompleted && (v.TimedOut || v.Failed > 0) {
			out = append(out, v.Name)
		}
	}
	return out
}

// formatHistory renders the journal header and one row per recorded batch.
func formatHistory(s store.JournalSummary, batches []store.BatchSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Journal %s  started %s  %d runs, %d failing\n",
		s.JournalID, s.StartedAt.Format("2006-01-02 15:04:05"), s.Runs, s.Failing)
	if len(batches) == 0 {
		b.WriteString("No run-all batches recorded.\n")
		return b.String()
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Batch", "Started", "Suites", "Skipped", "Reported", "Failing", "Result", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Reported", Align: text.AlignRight},
		{Name: "Failing", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})
	for _, bs := range batches {
		t.AppendRow(table.Row{
			shortBatchID(bs.ID),
			bs.StartAt.Format("15:04:05"),
			strings.Join(bs.Suites, ", "),
			strings.Join(bs.Skipped, ", "),
			bs.Reported,
			bs.Failing,
			bs.Result,
			formatDuration(bs.Duration),
		})
	}
	t.SetStyle(table.StyleLight)
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

// formatBatchLog renders the journaled events of one batch, one per line.
func formatBatchLog(events []coordinator.Event) string {
	var b strings.Builder
	for _, ev := range events {
		b.WriteString(formatEventLine(ev))
		b.WriteString("\n")
	}
	return b.String()
}

func shortBatchID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
