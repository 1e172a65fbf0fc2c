package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/logstore"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

func TestTier_Boundaries(t *testing.T) {
	tests := []struct {
		rate int
		want Tier
	}{
		{100, TierHigh},
		{90, TierHigh},
		{89, TierMedium},
		{70, TierMedium},
		{69, TierLow},
		{0, TierLow},
	}
	for _, tt := range tests {
		if got := TierOf(tt.rate); got != tt.want {
			t.Errorf("TierOf(%d) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestThresholds_Override(t *testing.T) {
	th := Thresholds{High: 95, Medium: 80}
	if got := th.Tier(93); got != TierMedium {
		t.Errorf("Tier(93) = %v, want medium with High=95", got)
	}
	if got := th.Tier(79); got != TierLow {
		t.Errorf("Tier(79) = %v, want low with Medium=80", got)
	}
	if d := DefaultThresholds(); d.High != 90 || d.Medium != 70 {
		t.Errorf("DefaultThresholds = %+v", d)
	}
}

func TestTier_String(t *testing.T) {
	if TierHigh.String() != "high" || TierMedium.String() != "medium" || TierLow.String() != "low" {
		t.Error("unexpected tier labels")
	}
}

func TestPerformanceAlert(t *testing.T) {
	tests := []struct {
		d, threshold time.Duration
		want         bool
	}{
		{12300 * time.Millisecond, 10 * time.Second, true},
		{10 * time.Second, 10 * time.Second, false},
		{4800 * time.Millisecond, 10 * time.Second, false},
	}
	for _, tt := range tests {
		if got := PerformanceAlert(tt.d, tt.threshold); got != tt.want {
			t.Errorf("PerformanceAlert(%v, %v) = %v, want %v", tt.d, tt.threshold, got, tt.want)
		}
	}
	if !PerformanceAlertSeconds(12.3, 10) {
		t.Error("12.3s should alert over 10s")
	}
	if PerformanceAlertSeconds(10, 10) {
		t.Error("equal duration should not alert")
	}
}

func TestSuccessRate_DelegatesToRunner(t *testing.T) {
	r, err := suite.New("unit", suite.Counts{Passed: 42, Failed: 3, Total: 45})
	if err != nil {
		t.Fatal(err)
	}
	if got := SuccessRate(r); got != 93 {
		t.Errorf("SuccessRate = %d, want 93", got)
	}
}

func TestProject(t *testing.T) {
	res := suite.Result{
		Name:         "e2e",
		Counts:       suite.Counts{Passed: 15, Failed: 1, Total: 16},
		Status:       suite.StatusCompleted,
		LastDuration: 12300 * time.Millisecond,
	}
	v := Project(res, DefaultThresholds(), 10*time.Second)
	if v.Rate != 94 || v.Tier != TierHigh {
		t.Errorf("Project rate/tier = %d/%v, want 94/high", v.Rate, v.Tier)
	}
	if !v.Alert {
		t.Error("12.3s over a 10s threshold should alert")
	}

	res.Status = suite.StatusRunning
	if Project(res, DefaultThresholds(), 10*time.Second).Alert {
		t.Error("running suites should not alert")
	}
	res.Status = suite.StatusCompleted
	if Project(res, DefaultThresholds(), 0).Alert {
		t.Error("zero threshold disables alerts")
	}
}

func TestExporter_ObserveEvents(t *testing.T) {
	logs := logstore.New()
	logs.Append(logstore.Draft{Level: logstore.LevelError})
	logs.Append(logstore.Draft{Level: logstore.LevelWarning})
	logs.Append(logstore.Draft{Level: logstore.LevelWarning})

	e := NewExporter(DefaultThresholds(), logs)
	e.ObserveSuites([]suite.Result{{Name: "unit", Counts: suite.Counts{Passed: 42, Failed: 3, Total: 45}}})

	if got := testutil.ToFloat64(e.rate.WithLabelValues("unit")); got != 93 {
		t.Errorf("success rate gauge = %v, want 93", got)
	}
	if got := testutil.ToFloat64(e.tier.WithLabelValues("unit")); got != float64(TierHigh) {
		t.Errorf("tier gauge = %v, want %v", got, float64(TierHigh))
	}

	res := suite.Result{Name: "e2e", Counts: suite.Counts{Passed: 10, Failed: 6, Total: 16}, Status: suite.StatusCompleted}
	e.Observe(coordinator.Event{Kind: coordinator.EventSuiteCompleted, Suite: "e2e", Result: &res, Duration: 3 * time.Second})
	e.Observe(coordinator.Event{Kind: coordinator.EventAllCompleted})
	e.Observe(coordinator.Event{Kind: coordinator.EventRunAllCancelled})

	if got := testutil.ToFloat64(e.runs.WithLabelValues("e2e", "fail")); got != 1 {
		t.Errorf("runs{e2e,fail} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(e.failed.WithLabelValues("e2e")); got != 6 {
		t.Errorf("failed{e2e} = %v, want 6", got)
	}
	if got := testutil.ToFloat64(e.tier.WithLabelValues("e2e")); got != float64(TierLow) {
		t.Errorf("tier{e2e} = %v, want low", got)
	}
	if got := testutil.ToFloat64(e.batches.WithLabelValues("completed")); got != 1 {
		t.Errorf("batches{completed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(e.batches.WithLabelValues("cancelled")); got != 1 {
		t.Errorf("batches{cancelled} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(e.active.WithLabelValues("warning")); got != 2 {
		t.Errorf("active{warning} = %v, want 2", got)
	}

	timedOut := suite.Result{Name: "e2e", Counts: res.Counts, Status: suite.StatusCompleted, TimedOut: true}
	e.Observe(coordinator.Event{Kind: coordinator.EventSuiteCompleted, Suite: "e2e", Result: &timedOut})
	if got := testutil.ToFloat64(e.runs.WithLabelValues("e2e", "timeout")); got != 1 {
		t.Errorf("runs{e2e,timeout} = %v, want 1", got)
	}
}

func TestExporter_Handler(t *testing.T) {
	e := NewExporter(DefaultThresholds(), nil)
	e.ObserveSuites([]suite.Result{{Name: "integration", Counts: suite.Counts{Passed: 28, Failed: 2, Total: 30}}})
	e.RefreshLogs() // nil logs is a no-op

	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `testdeck_suite_passed{suite="integration"} 28`) {
		t.Errorf("metrics output missing suite_passed:\n%s", body)
	}
}
