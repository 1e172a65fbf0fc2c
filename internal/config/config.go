// Package config parses testdeck.toml project configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/logstore"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

// FileName is the configuration file looked up by Load.
const FileName = "testdeck.toml"

// DefaultAccentColor is the default TUI accent color (indigo).
const DefaultAccentColor = "#7D56F4"

// hexColorRe matches a 6-digit hex color string like "#7D56F4".
var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Config is the top-level testdeck.toml configuration.
type Config struct {
	Project    ProjectConfig    `toml:"project"`
	Suites     []SuiteConfig    `toml:"suites"`
	Thresholds ThresholdsConfig `toml:"thresholds"`
	Executor   ExecutorConfig   `toml:"executor"`
	Logs       []LogConfig      `toml:"logs"`
	TUI        TUIConfig        `toml:"tui"`
	Metrics    MetricsConfig    `toml:"metrics"`

	Notifications NotificationsConfig `toml:"notifications"`
}

// ProjectConfig identifies the project.
type ProjectConfig struct {
	Name string `toml:"name"`
}

// SuiteConfig declares one test suite and its seed counts.
type SuiteConfig struct {
	Name        string `toml:"name"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Passed      int    `toml:"passed"`
	Failed      int    `toml:"failed"`
	Total       int    `toml:"total"`

	// DurationSeconds is how long a simulated run takes; 0 uses the
	// executor default.
	DurationSeconds float64 `toml:"duration_seconds"`

	// AlertSeconds overrides thresholds.performance_alert_seconds for this
	// suite; 0 inherits it.
	AlertSeconds float64 `toml:"alert_threshold_seconds"`
}

// Counts returns the suite's seed counts.
func (s SuiteConfig) Counts() suite.Counts {
	return suite.Counts{Passed: s.Passed, Failed: s.Failed, Total: s.Total}
}

// Duration returns the simulated run duration, or 0 for the default.
func (s SuiteConfig) Duration() time.Duration {
	return seconds(s.DurationSeconds)
}

// DisplayTitle returns Title, or Name when no title is set.
func (s SuiteConfig) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Name
}

// ThresholdsConfig overrides the badge tiers and the slow-run alert.
type ThresholdsConfig struct {
	High                    int     `toml:"high"`
	Medium                  int     `toml:"medium"`
	PerformanceAlertSeconds float64 `toml:"performance_alert_seconds"` // 0 disables alerts
}

// PerformanceAlert returns the default slow-run threshold.
func (t ThresholdsConfig) PerformanceAlert() time.Duration {
	return seconds(t.PerformanceAlertSeconds)
}

// ExecutorConfig controls how runs are executed.
type ExecutorConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"` // 0 = no timeout
	Parallelism    int `toml:"parallelism"`     // 0 = every suite of a batch at once
}

// Timeout returns the per-run timeout, or 0 when disabled.
func (e ExecutorConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// LogConfig is a log entry recorded when the session starts.
type LogConfig struct {
	Level     string `toml:"level"`
	Message   string `toml:"message"`
	Component string `toml:"component"`
	Stack     string `toml:"stack"`
	Resolved  bool   `toml:"resolved"`
}

// TUIConfig controls the terminal UI appearance.
type TUIConfig struct {
	AccentColor  string `toml:"accent_color"`
	LogRetention int    `toml:"log_retention"` // number of journal files to keep; 0 = unlimited
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `toml:"addr"` // empty = disabled
}

// NotificationsConfig controls webhook/ntfy.sh notifications.
type NotificationsConfig struct {
	URL       string `toml:"url"`
	OnBatch   bool   `toml:"on_batch"`   // run-all batch completed
	OnFailure bool   `toml:"on_failure"` // a suite finished with failures or timed out
	OnCancel  bool   `toml:"on_cancel"`  // run-all batch cancelled
}

// Validate checks the configuration for issues that would cause confusing
// runtime failures. It returns all found issues joined together.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Suites) == 0 {
		errs = append(errs, fmt.Errorf("at least one [[suites]] entry is required"))
	}
	seen := make(map[string]bool, len(c.Suites))
	for i, s := range c.Suites {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("suites[%d].name must not be empty", i))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("suites[%d].name %q is duplicated", i, s.Name))
		}
		seen[s.Name] = true
		if err := s.Counts().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("suites.%s: %w", s.Name, err))
		}
		if s.DurationSeconds < 0 {
			errs = append(errs, fmt.Errorf("suites.%s.duration_seconds must be >= 0", s.Name))
		}
		if s.AlertSeconds < 0 {
			errs = append(errs, fmt.Errorf("suites.%s.alert_threshold_seconds must be >= 0", s.Name))
		}
	}

	th := c.Thresholds
	if th.High < 0 || th.High > 100 || th.Medium < 0 || th.Medium > 100 {
		errs = append(errs, fmt.Errorf("thresholds.high and thresholds.medium must be within 0..100"))
	} else if th.Medium > th.High {
		errs = append(errs, fmt.Errorf("thresholds.medium (%d) must not exceed thresholds.high (%d)", th.Medium, th.High))
	}
	if th.PerformanceAlertSeconds < 0 {
		errs = append(errs, fmt.Errorf("thresholds.performance_alert_seconds must be >= 0 (0 = disabled)"))
	}

	if c.Executor.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("executor.timeout_seconds must be >= 0 (0 = no timeout)"))
	}
	if c.Executor.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("executor.parallelism must be >= 0 (0 = unbounded)"))
	}

	for i, l := range c.Logs {
		if _, err := logstore.ParseLevel(l.Level); err != nil {
			errs = append(errs, fmt.Errorf("logs[%d].level: %w", i, err))
		}
		if l.Message == "" {
			errs = append(errs, fmt.Errorf("logs[%d].message must not be empty", i))
		}
	}

	if c.TUI.AccentColor != "" && !hexColorRe.MatchString(c.TUI.AccentColor) {
		errs = append(errs, fmt.Errorf("tui.accent_color must be a hex color (e.g. \"#7D56F4\")"))
	}
	if c.TUI.LogRetention < 0 {
		errs = append(errs, fmt.Errorf("tui.log_retention must be >= 0 (0 = unlimited)"))
	}

	if c.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			errs = append(errs, fmt.Errorf("metrics.addr must be host:port (e.g. \":9464\")"))
		}
	}

	if c.Notifications.URL != "" {
		u, parseErr := url.ParseRequestURI(c.Notifications.URL)
		if parseErr != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("notifications.url must be a valid http or https URL"))
		}
	}

	return errors.Join(errs...)
}

// SuiteByName returns the configured suite with the given name.
func (c *Config) SuiteByName(name string) (SuiteConfig, bool) {
	for _, s := range c.Suites {
		if s.Name == name {
			return s, true
		}
	}
	return SuiteConfig{}, false
}

// Defaults returns a Config seeded with the three standard suites and the
// sample diagnostic entries.
func Defaults() Config {
	return Config{
		Suites: DefaultSuites(),
		Thresholds: ThresholdsConfig{
			High:                    90,
			Medium:                  70,
			PerformanceAlertSeconds: 10,
		},
		Executor: ExecutorConfig{TimeoutSeconds: 0},
		Logs:     DefaultLogs(),
		TUI: TUIConfig{
			AccentColor:  DefaultAccentColor,
			LogRetention: 20,
		},
		Notifications: NotificationsConfig{
			OnBatch:   true,
			OnFailure: true,
		},
	}
}

// DefaultSuites returns the unit, integration and e2e seed suites.
func DefaultSuites() []SuiteConfig {
	return []SuiteConfig{
		{
			Name:            "unit",
			Title:           "Unit Tests",
			Description:     "Individual component and function tests",
			Passed:          42,
			Failed:          3,
			Total:           45,
			DurationSeconds: 3,
		},
		{
			Name:            "integration",
			Title:           "Integration Tests",
			Description:     "Component interaction and API integration tests",
			Passed:          28,
			Failed:          2,
			Total:           30,
			DurationSeconds: 3,
		},
		{
			Name:            "e2e",
			Title:           "E2E Tests",
			Description:     "Full user workflow and browser automation tests",
			Passed:          15,
			Failed:          1,
			Total:           16,
			DurationSeconds: 3,
			AlertSeconds:    10,
		},
	}
}

// DefaultLogs returns the sample entries a fresh session starts with.
func DefaultLogs() []LogConfig {
	return []LogConfig{
		{
			Level:     "error",
			Message:   "Failed to fetch user data",
			Component: "UserProfile",
			Stack:     "Error: Network request failed\n    at fetchUserData (UserProfile.js:23:5)",
		},
		{
			Level:     "warning",
			Message:   "Deprecated prop usage in Button component",
			Component: "Button",
			Stack:     "Warning: Prop `variant` will be removed in v2.0",
			Resolved:  true,
		},
		{
			Level:     "info",
			Message:   "User authentication successful",
			Component: "AuthContext",
			Resolved:  true,
		},
	}
}

// Load reads testdeck.toml from the given path. If path is empty, it walks up
// from the current working directory looking for testdeck.toml. Returns an
// error if the file contains unknown keys (likely typos).
//
// A file that declares [[suites]] or [[logs]] replaces the default list
// rather than merging into it.
func Load(path string) (*Config, error) {
	if path == "" {
		found, err := Find()
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg := Defaults()
	cfg.Suites = nil
	cfg.Logs = nil
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s (possible typos?)", path, joinKeys(keys))
	}

	if !meta.IsDefined("suites") {
		cfg.Suites = DefaultSuites()
	}
	if !meta.IsDefined("logs") {
		cfg.Logs = DefaultLogs()
	}

	if cfg.Project.Name == "" {
		cfg.Project.Name = DetectProjectName(filepath.Dir(path))
	}

	return &cfg, nil
}

// ErrNotFound is returned by Load when no testdeck.toml exists in the working
// directory or any of its parents.
var ErrNotFound = errors.New("config: " + FileName + " not found")

// joinKeys formats a slice of key names for display.
func joinKeys(keys []string) string {
	return strings.Join(keys, ", ")
}

// Find walks up from the current directory looking for testdeck.toml.
func Find() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("config: get working directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (searched up from %s)", ErrNotFound, dir)
		}
		dir = parent
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// InitFile writes a default testdeck.toml template to the given directory.
func InitFile(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config: %s already exists at %s", FileName, path)
	}

	if err := os.WriteFile(path, []byte(initTemplate), 0644); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, nil
}

const initTemplate = `# testdeck.toml: TestDeck project configuration
# Place this file in the root of your project.

[project]
name = ""

# Each [[suites]] entry is one suite on the dashboard. Counts are the seed
# values shown before the first run.
[[suites]]
name = "unit"
title = "Unit Tests"
description = "Individual component and function tests"
passed = 42
failed = 3
total = 45
duration_seconds = 3

[[suites]]
name = "integration"
title = "Integration Tests"
description = "Component interaction and API integration tests"
passed = 28
failed = 2
total = 30
duration_seconds = 3

[[suites]]
name = "e2e"
title = "E2E Tests"
description = "Full user workflow and browser automation tests"
passed = 15
failed = 1
total = 16
duration_seconds = 3
alert_threshold_seconds = 10  # overrides thresholds.performance_alert_seconds

[thresholds]
high = 90                      # success rate >= high shows a "high" badge
medium = 70                    # success rate >= medium shows a "medium" badge
performance_alert_seconds = 10 # 0 = no slow-run alerts

[executor]
timeout_seconds = 0  # 0 = runs never time out
parallelism = 0      # max suites of one run-all executing at once; 0 = all

# [[logs]] entries are recorded when a session starts.
[[logs]]
level = "error"
message = "Failed to fetch user data"
component = "UserProfile"
stack = """Error: Network request failed
    at fetchUserData (UserProfile.js:23:5)"""

[tui]
accent_color = "#7D56F4"  # hex color for header/accent elements
log_retention = 20        # number of run journals to keep; 0 = unlimited

[metrics]
addr = ""  # e.g. ":9464" to serve Prometheus metrics during "testdeck run"

[notifications]
url = ""          # ntfy.sh topic URL or any HTTP webhook (empty = disabled)
on_batch = true   # notify when a run-all batch completes
on_failure = true # notify when a suite finishes with failures or times out
on_cancel = false # notify when a run-all batch is cancelled
`
