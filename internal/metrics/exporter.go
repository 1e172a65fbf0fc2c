package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "testdeck"

// LogCounts is the subset of the log store the exporter reads.
type LogCounts interface {
	ActiveErrorCount() int
	ActiveWarningCount() int
}

// Exporter mirrors suite and log state into a private Prometheus registry.
type Exporter struct {
	reg  *prometheus.Registry
	th   Thresholds
	logs LogCounts

	passed   *prometheus.GaugeVec
	failed   *prometheus.GaugeVec
	total    *prometheus.GaugeVec
	rate     *prometheus.GaugeVec
	tier     *prometheus.GaugeVec
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	batches  *prometheus.CounterVec
	active   *prometheus.GaugeVec
}

// NewExporter creates an Exporter. logs may be nil.
func NewExporter(th Thresholds, logs LogCounts) *Exporter {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Exporter{
		reg:  reg,
		th:   th,
		logs: logs,
		passed: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "suite_passed",
			Help:      "Passed tests in the suite's latest counts",
		}, []string{"suite"}),
		failed: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "suite_failed",
			Help:      "Failed tests in the suite's latest counts",
		}, []string{"suite"}),
		total: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "suite_total",
			Help:      "Total tests in the suite's latest counts",
		}, []string{"suite"}),
		rate: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "suite_success_rate_percent",
			Help:      "Rounded success rate of the suite",
		}, []string{"suite"}),
		tier: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "suite_tier",
			Help:      "Badge tier of the suite (0=low, 1=medium, 2=high)",
		}, []string{"suite"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "suite_runs_total",
			Help:      "Completed suite runs by result",
		}, []string{"suite", "result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "suite_run_duration_seconds",
			Help:      "Wall time of completed suite runs",
			Buckets:   []float64{0.5, 1, 2, 3, 5, 10, 20, 60},
		}, []string{"suite"}),
		batches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "run_all_total",
			Help:      "Run-all batches by result",
		}, []string{"result"}),
		active: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "log_entries_active",
			Help:      "Unresolved log entries by level",
		}, []string{"level"}),
	}
}

// Handler serves the registry in the Prometheus text format. Active log
// counts are re-read on every scrape.
func (e *Exporter) Handler() http.Handler {
	h := promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.RefreshLogs()
		h.ServeHTTP(w, r)
	})
}

// ObserveSuites sets the per-suite gauges from snapshots.
func (e *Exporter) ObserveSuites(results []suite.Result) {
	for _, r := range results {
		e.setSuite(r)
	}
}

// Observe updates metrics for one coordinator event.
func (e *Exporter) Observe(ev coordinator.Event) {
	switch ev.Kind {
	case coordinator.EventSuiteCompleted:
		if ev.Result == nil {
			return
		}
		e.setSuite(*ev.Result)
		result := "pass"
		switch {
		case ev.Result.TimedOut:
			result = "timeout"
		case ev.Result.Failed > 0:
			result = "fail"
		}
		e.runs.WithLabelValues(ev.Suite, result).Inc()
		e.duration.WithLabelValues(ev.Suite).Observe(ev.Duration.Seconds())
	case coordinator.EventAllCompleted:
		e.batches.WithLabelValues("completed").Inc()
	case coordinator.EventRunAllCancelled:
		e.batches.WithLabelValues("cancelled").Inc()
	}
	e.RefreshLogs()
}

// RefreshLogs copies the active log counts into the gauges.
func (e *Exporter) RefreshLogs() {
	if e.logs == nil {
		return
	}
	e.active.WithLabelValues("error").Set(float64(e.logs.ActiveErrorCount()))
	e.active.WithLabelValues("warning").Set(float64(e.logs.ActiveWarningCount()))
}

func (e *Exporter) setSuite(r suite.Result) {
	rate := r.SuccessRate()
	e.passed.WithLabelValues(r.Name).Set(float64(r.Passed))
	e.failed.WithLabelValues(r.Name).Set(float64(r.Failed))
	e.total.WithLabelValues(r.Name).Set(float64(r.Total))
	e.rate.WithLabelValues(r.Name).Set(float64(rate))
	e.tier.WithLabelValues(r.Name).Set(float64(e.th.Tier(rate)))
}
