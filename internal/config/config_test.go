package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"suites", len(cfg.Suites), 3},
		{"suites[0].name", cfg.Suites[0].Name, "unit"},
		{"suites[0].counts", cfg.Suites[0].Counts(), suite.Counts{Passed: 42, Failed: 3, Total: 45}},
		{"suites[1].counts", cfg.Suites[1].Counts(), suite.Counts{Passed: 28, Failed: 2, Total: 30}},
		{"suites[2].counts", cfg.Suites[2].Counts(), suite.Counts{Passed: 15, Failed: 1, Total: 16}},
		{"suites[2].alert", cfg.Suites[2].AlertSeconds, 10.0},
		{"suites[0].duration", cfg.Suites[0].Duration(), 3 * time.Second},
		{"thresholds.high", cfg.Thresholds.High, 90},
		{"thresholds.medium", cfg.Thresholds.Medium, 70},
		{"thresholds.performance_alert", cfg.Thresholds.PerformanceAlert(), 10 * time.Second},
		{"executor.timeout", cfg.Executor.Timeout(), time.Duration(0)},
		{"logs", len(cfg.Logs), 3},
		{"logs[0].resolved", cfg.Logs[0].Resolved, false},
		{"logs[1].resolved", cfg.Logs[1].Resolved, true},
		{"tui.accent_color", cfg.TUI.AccentColor, DefaultAccentColor},
		{"tui.log_retention", cfg.TUI.LogRetention, 20},
		{"metrics.addr", cfg.Metrics.Addr, ""},
		{"notifications.url", cfg.Notifications.URL, ""},
		{"notifications.on_batch", cfg.Notifications.OnBatch, true},
		{"notifications.on_failure", cfg.Notifications.OnFailure, true},
		{"notifications.on_cancel", cfg.Notifications.OnCancel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		dir := t.TempDir()
		content := `
[project]
name = "TestProject"

[[suites]]
name = "smoke"
passed = 5
failed = 0
total = 5
duration_seconds = 0.5

[thresholds]
high = 95
medium = 80
performance_alert_seconds = 2.5

[executor]
timeout_seconds = 30
parallelism = 2

[[logs]]
level = "warning"
message = "flaky network"
component = "smoke"

[tui]
accent_color = "#FF00AA"
log_retention = 5

[metrics]
addr = ":9464"
`
		path := filepath.Join(dir, FileName)
		writeFile(t, path, content)

		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}

		tests := []struct {
			name string
			got  any
			want any
		}{
			{"project.name", cfg.Project.Name, "TestProject"},
			{"suites", len(cfg.Suites), 1},
			{"suites[0].name", cfg.Suites[0].Name, "smoke"},
			{"suites[0].title", cfg.Suites[0].DisplayTitle(), "smoke"},
			{"suites[0].description", cfg.Suites[0].Description, ""},
			{"suites[0].duration", cfg.Suites[0].Duration(), 500 * time.Millisecond},
			{"thresholds.high", cfg.Thresholds.High, 95},
			{"thresholds.medium", cfg.Thresholds.Medium, 80},
			{"thresholds.performance_alert", cfg.Thresholds.PerformanceAlert(), 2500 * time.Millisecond},
			{"executor.timeout", cfg.Executor.Timeout(), 30 * time.Second},
			{"executor.parallelism", cfg.Executor.Parallelism, 2},
			{"logs", len(cfg.Logs), 1},
			{"logs[0].message", cfg.Logs[0].Message, "flaky network"},
			{"tui.accent_color", cfg.TUI.AccentColor, "#FF00AA"},
			{"tui.log_retention", cfg.TUI.LogRetention, 5},
			{"metrics.addr", cfg.Metrics.Addr, ":9464"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if tt.got != tt.want {
					t.Errorf("got %v, want %v", tt.got, tt.want)
				}
			})
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})

	t.Run("partial config uses defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, FileName)
		writeFile(t, path, "[project]\nname = \"Partial\"\n")

		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}

		if cfg.Project.Name != "Partial" {
			t.Errorf("project.name: got %q, want %q", cfg.Project.Name, "Partial")
		}
		if len(cfg.Suites) != 3 || cfg.Suites[0].Description == "" {
			t.Errorf("suites should fall back to the defaults, got %+v", cfg.Suites)
		}
		if len(cfg.Logs) != 3 {
			t.Errorf("logs: got %d, want 3 defaults", len(cfg.Logs))
		}
		if cfg.Thresholds.High != 90 {
			t.Errorf("thresholds.high: got %d, want 90 (default)", cfg.Thresholds.High)
		}
	})

	t.Run("explicit empty logs disables seeds", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, FileName)
		writeFile(t, path, "logs = []\n")

		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(cfg.Logs) != 0 {
			t.Errorf("logs: got %d, want 0", len(cfg.Logs))
		}
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, FileName)
		writeFile(t, path, "[executor]\ntimeout_secs = 5\n")

		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "executor.timeout_secs") {
			t.Errorf("expected unknown key error, got %v", err)
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		if _, err := Load("/nonexistent/testdeck.toml"); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid toml returns error", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, FileName)
		writeFile(t, path, "not valid [[[ toml")

		if _, err := Load(path); err == nil {
			t.Error("expected error for invalid TOML")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string // substring of the error; "" means valid
	}{
		{"defaults", func(c *Config) {}, ""},
		{"no suites", func(c *Config) { c.Suites = nil }, "at least one [[suites]]"},
		{"empty suite name", func(c *Config) { c.Suites[0].Name = "" }, "suites[0].name must not be empty"},
		{"duplicate suite", func(c *Config) { c.Suites[1].Name = "unit" }, "duplicated"},
		{"bad seed counts", func(c *Config) { c.Suites[0].Total = 10 }, "suites.unit"},
		{"negative duration", func(c *Config) { c.Suites[0].DurationSeconds = -1 }, "duration_seconds"},
		{"negative alert", func(c *Config) { c.Suites[2].AlertSeconds = -1 }, "alert_threshold_seconds"},
		{"threshold out of range", func(c *Config) { c.Thresholds.High = 101 }, "within 0..100"},
		{"medium above high", func(c *Config) { c.Thresholds.Medium = 95 }, "must not exceed"},
		{"negative performance alert", func(c *Config) { c.Thresholds.PerformanceAlertSeconds = -1 }, "performance_alert_seconds"},
		{"negative timeout", func(c *Config) { c.Executor.TimeoutSeconds = -1 }, "timeout_seconds"},
		{"negative parallelism", func(c *Config) { c.Executor.Parallelism = -1 }, "executor.parallelism"},
		{"bad log level", func(c *Config) { c.Logs[0].Level = "fatal" }, "logs[0].level"},
		{"empty log message", func(c *Config) { c.Logs[2].Message = "" }, "logs[2].message"},
		{"bad accent color", func(c *Config) { c.TUI.AccentColor = "indigo" }, "tui.accent_color"},
		{"negative retention", func(c *Config) { c.TUI.LogRetention = -1 }, "tui.log_retention"},
		{"bad metrics addr", func(c *Config) { c.Metrics.Addr = "9464" }, "metrics.addr"},
		{"notification url", func(c *Config) { c.Notifications.URL = "https://ntfy.sh/deck" }, ""},
		{"bad notification url", func(c *Config) { c.Notifications.URL = "ftp://example.com" }, "notifications.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestValidate_JoinsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Executor.TimeoutSeconds = -1
	cfg.TUI.LogRetention = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "executor.timeout_seconds") || !strings.Contains(msg, "tui.log_retention") {
		t.Errorf("expected both problems reported, got %q", msg)
	}
}

func TestValidate_SeedCountsWrapSentinel(t *testing.T) {
	cfg := Defaults()
	cfg.Suites[0].Passed = -1
	if err := cfg.Validate(); !errors.Is(err, suite.ErrInvalidOutcome) {
		t.Errorf("error = %v, want wrapped suite.ErrInvalidOutcome", err)
	}
}

func TestSuiteByName(t *testing.T) {
	cfg := Defaults()
	s, ok := cfg.SuiteByName("e2e")
	if !ok || s.DisplayTitle() != "E2E Tests" {
		t.Errorf("SuiteByName(e2e) = %+v, %v", s, ok)
	}
	if _, ok := cfg.SuiteByName("missing"); ok {
		t.Error("SuiteByName(missing) should be false")
	}
}

func TestLoadAutoDiscovery(t *testing.T) {
	t.Run("finds testdeck.toml in parent directory", func(t *testing.T) {
		root := t.TempDir()
		child := filepath.Join(root, "sub", "dir")
		if err := os.MkdirAll(child, 0755); err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(root, FileName), "[project]\nname = \"FoundIt\"\n")

		origDir, _ := os.Getwd()
		t.Cleanup(func() { os.Chdir(origDir) })
		if err := os.Chdir(child); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Project.Name != "FoundIt" {
			t.Errorf("project.name: got %q, want %q", cfg.Project.Name, "FoundIt")
		}
	})

	t.Run("returns ErrNotFound when testdeck.toml not found anywhere", func(t *testing.T) {
		dir := t.TempDir()
		origDir, _ := os.Getwd()
		t.Cleanup(func() { os.Chdir(origDir) })
		if err := os.Chdir(dir); err != nil {
			t.Fatal(err)
		}

		_, err := Load("")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestInitFile(t *testing.T) {
	t.Run("creates testdeck.toml", func(t *testing.T) {
		dir := t.TempDir()
		path, err := InitFile(dir)
		if err != nil {
			t.Fatal(err)
		}

		if filepath.Base(path) != FileName {
			t.Errorf("expected %s, got %s", FileName, filepath.Base(path))
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("generated file is not valid: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("generated file does not validate: %v", err)
		}
		if len(cfg.Suites) != 3 || cfg.Suites[2].AlertSeconds != 10 {
			t.Errorf("template suites = %+v", cfg.Suites)
		}
		if len(cfg.Logs) != 1 || !strings.Contains(cfg.Logs[0].Stack, "UserProfile.js:23:5") {
			t.Errorf("template logs = %+v", cfg.Logs)
		}
	})

	t.Run("refuses to overwrite existing", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), "existing")

		if _, err := InitFile(dir); err == nil {
			t.Errorf("expected error when %s already exists", FileName)
		}
	})
}
