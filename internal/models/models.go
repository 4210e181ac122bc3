package models

import (
	"math"
	"strconv"
	"time"
)

// PeriodType identifies the rolling window a provider meters usage against.
type PeriodType string

const (
	PeriodSession PeriodType = "session"
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// Duration returns the canonical length of the period window.
// Unknown period types fall back to a day.
func (p PeriodType) Duration() time.Duration {
	switch p {
	case PeriodSession:
		return 5 * time.Hour
	case PeriodDaily:
		return 24 * time.Hour
	case PeriodWeekly:
		return 7 * 24 * time.Hour
	case PeriodMonthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// sortPriority orders period types shortest-first for PrimaryPeriod.
func (p PeriodType) sortPriority() int {
	switch p {
	case PeriodSession:
		return 0
	case PeriodDaily:
		return 1
	case PeriodWeekly:
		return 2
	case PeriodMonthly:
		return 3
	default:
		return 99
	}
}

// UsagePeriod is one rate window for one provider. Model is set only on
// model-specific breakdowns of a general period of the same type.
type UsagePeriod struct {
	Name        string     `json:"name"`
	Utilization int        `json:"utilization"`
	PeriodType  PeriodType `json:"period_type"`
	ResetsAt    *time.Time `json:"resets_at,omitempty"`
	Model       string     `json:"model,omitempty"`
}

func (p UsagePeriod) Remaining() int {
	return 100 - p.Utilization
}

// ElapsedRatio returns how far into the window we are, in [0, 1].
// Nil when the reset time is unknown.
func (p UsagePeriod) ElapsedRatio() *float64 {
	return p.elapsedRatioAt(time.Now())
}

func (p UsagePeriod) elapsedRatioAt(now time.Time) *float64 {
	if p.ResetsAt == nil {
		return nil
	}
	window := p.PeriodType.Duration()
	start := p.ResetsAt.Add(-window)
	ratio := now.Sub(start).Seconds() / window.Seconds()
	ratio = math.Max(0.0, math.Min(ratio, 1.0))
	return &ratio
}

// PaceRatio is utilization divided by expected utilization at this point in
// the window. > 1 means burning faster than linear pace. Nil when the reset
// time is unknown or less than 10% of the window has elapsed, where the
// ratio is too noisy to be meaningful.
func (p UsagePeriod) PaceRatio() *float64 {
	return p.paceRatioAt(time.Now())
}

func (p UsagePeriod) paceRatioAt(now time.Time) *float64 {
	elapsed := p.elapsedRatioAt(now)
	if elapsed == nil || *elapsed < 0.10 {
		return nil
	}
	ratio := float64(p.Utilization) / (*elapsed * 100.0)
	return &ratio
}

// TimeUntilReset returns the remaining time in the window, floored at zero.
// Nil when the reset time is unknown.
func (p UsagePeriod) TimeUntilReset() *time.Duration {
	if p.ResetsAt == nil {
		return nil
	}
	d := time.Until(*p.ResetsAt)
	if d < 0 {
		d = 0
	}
	return &d
}

// OverageUsage is monetary or credit overflow beyond the primary quota.
// Currency is "USD", "credits", or an ISO-like code.
type OverageUsage struct {
	Used      float64 `json:"used"`
	Limit     float64 `json:"limit"`
	Currency  string  `json:"currency"`
	IsEnabled bool    `json:"is_enabled"`
}

func (o OverageUsage) Remaining() float64 {
	r := o.Limit - o.Used
	if r < 0 {
		return 0
	}
	return r
}

// UtilizationPct returns consumed overage as a percentage in [0, 100].
// A zero limit maps to 100 when anything is used, 0 otherwise.
func (o OverageUsage) UtilizationPct() int {
	if o.Limit <= 0 {
		if o.Used > 0 {
			return 100
		}
		return 0
	}
	return ClampPct(int(o.Used / o.Limit * 100))
}

// ProviderIdentity holds whatever account details a strategy could recover.
// All fields are optional.
type ProviderIdentity struct {
	Email        string `json:"email,omitempty"`
	Organization string `json:"organization,omitempty"`
	Plan         string `json:"plan,omitempty"`
}

type StatusLevel string

const (
	StatusOperational   StatusLevel = "operational"
	StatusDegraded      StatusLevel = "degraded"
	StatusPartialOutage StatusLevel = "partial_outage"
	StatusMajorOutage   StatusLevel = "major_outage"
	StatusUnknown       StatusLevel = "unknown"
)

type ProviderStatus struct {
	Level       StatusLevel `json:"level"`
	Description string      `json:"description,omitempty"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

// UsageSnapshot is the normalized, provider-neutral result carried from the
// fetch core to the renderer. FetchedAt is always UTC.
type UsageSnapshot struct {
	Provider  string            `json:"provider"`
	FetchedAt time.Time         `json:"fetched_at"`
	Periods   []UsagePeriod     `json:"periods"`
	Overage   *OverageUsage     `json:"overage,omitempty"`
	Identity  *ProviderIdentity `json:"identity,omitempty"`
	Status    *ProviderStatus   `json:"status,omitempty"`
	Source    string            `json:"source,omitempty"`
}

// PrimaryPeriod returns the shortest-duration period present
// (session < daily < weekly < monthly). Nil for an empty snapshot.
func (s UsageSnapshot) PrimaryPeriod() *UsagePeriod {
	if len(s.Periods) == 0 {
		return nil
	}
	best := 0
	for i, p := range s.Periods {
		if p.PeriodType.sortPriority() < s.Periods[best].PeriodType.sortPriority() {
			best = i
		}
	}
	return &s.Periods[best]
}

// SecondaryPeriod returns the next non-model-specific period after the
// primary, or nil when there is none.
func (s UsageSnapshot) SecondaryPeriod() *UsagePeriod {
	primary := s.PrimaryPeriod()
	if primary == nil {
		return nil
	}
	var second *UsagePeriod
	for i := range s.Periods {
		p := &s.Periods[i]
		if p == primary || p.Model != "" {
			continue
		}
		if p.PeriodType.sortPriority() <= primary.PeriodType.sortPriority() {
			continue
		}
		if second == nil || p.PeriodType.sortPriority() < second.PeriodType.sortPriority() {
			second = p
		}
	}
	return second
}

// ModelPeriods returns the subsequence of periods carrying a model tag,
// in snapshot order.
func (s UsageSnapshot) ModelPeriods() []UsagePeriod {
	var result []UsagePeriod
	for _, p := range s.Periods {
		if p.Model != "" {
			result = append(result, p)
		}
	}
	return result
}

// IsStale reports whether the snapshot is older than maxAgeMinutes.
func (s UsageSnapshot) IsStale(maxAgeMinutes int) bool {
	return time.Since(s.FetchedAt).Minutes() > float64(maxAgeMinutes)
}

// FormatResetCountdown renders a duration as "2d 4h", "4h 30m", or "12m".
// Nil renders as "" and non-positive durations as "now".
func FormatResetCountdown(d *time.Duration) string {
	if d == nil {
		return ""
	}
	total := int(d.Seconds())
	if total <= 0 {
		return "now"
	}
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	switch {
	case days > 0:
		return strconv.Itoa(days) + "d " + strconv.Itoa(hours) + "h"
	case hours > 0:
		return strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
	default:
		return strconv.Itoa(minutes) + "m"
	}
}

// PaceToColor picks a display color from pace and utilization.
// Exhausted quota is always red; ≥90% utilization is at least yellow since
// pace captures burn rate, not how much budget remains.
func PaceToColor(paceRatio *float64, utilization int) string {
	if utilization >= 100 {
		return "red"
	}
	if paceRatio == nil {
		switch {
		case utilization < 50:
			return "green"
		case utilization < 80:
			return "yellow"
		default:
			return "red"
		}
	}
	if utilization >= 90 {
		if *paceRatio > 1.15 {
			return "red"
		}
		return "yellow"
	}
	switch {
	case *paceRatio <= 1.15:
		return "green"
	case *paceRatio <= 1.30:
		return "yellow"
	default:
		return "red"
	}
}
