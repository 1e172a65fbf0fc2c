// Package metrics derives read-only projections from suite and log state:
// success rate, badge tier and slow-suite alerts. It also exports those
// values to Prometheus.
package metrics

import (
	"time"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

// Default thresholds. Badge tiers are inclusive lower bounds in percent.
const (
	DefaultHighThreshold    = 90
	DefaultMediumThreshold  = 70
	DefaultPerformanceAlert = 10 * time.Second
)

// Tier is the badge bucket of a success rate.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

// String returns the badge label.
func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

// Thresholds holds the tier bounds.
type Thresholds struct {
	High   int
	Medium int
}

// DefaultThresholds returns High=90, Medium=70.
func DefaultThresholds() Thresholds {
	return Thresholds{High: DefaultHighThreshold, Medium: DefaultMediumThreshold}
}

// Tier buckets rate: High if rate >= High, Medium if rate >= Medium, else Low.
func (t Thresholds) Tier(rate int) Tier {
	switch {
	case rate >= t.High:
		return TierHigh
	case rate >= t.Medium:
		return TierMedium
	default:
		return TierLow
	}
}

// TierOf buckets rate with the default thresholds.
func TierOf(rate int) Tier {
	return DefaultThresholds().Tier(rate)
}

// SuccessRate returns the runner's current success rate in percent.
func SuccessRate(r *suite.Runner) int {
	return r.SuccessRate()
}

// PerformanceAlert reports whether a run took longer than threshold.
func PerformanceAlert(d, threshold time.Duration) bool {
	return d > threshold
}

// PerformanceAlertSeconds is PerformanceAlert for fractional seconds.
func PerformanceAlertSeconds(durationSeconds, thresholdSeconds float64) bool {
	return durationSeconds > thresholdSeconds
}

// SuiteView bundles the projections the dashboard shows per suite.
type SuiteView struct {
	suite.Result
	Rate  int
	Tier  Tier
	Alert bool // last run exceeded the suite's performance threshold
}

// Project computes a SuiteView for r. threshold <= 0 disables the alert.
func Project(r suite.Result, th Thresholds, threshold time.Duration) SuiteView {
	rate := r.SuccessRate()
	v := SuiteView{Result: r, Rate: rate, Tier: th.Tier(rate)}
	if threshold > 0 && r.Status == suite.StatusCompleted {
		v.Alert = PerformanceAlert(r.LastDuration, threshold)
	}
	return v
}
