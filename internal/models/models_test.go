package models

import (
	"testing"
	"time"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestPeriodTypeDuration(t *testing.T) {
	tests := []struct {
		pt   PeriodType
		want time.Duration
	}{
		{PeriodSession, 5 * time.Hour},
		{PeriodDaily, 24 * time.Hour},
		{PeriodWeekly, 7 * 24 * time.Hour},
		{PeriodMonthly, 30 * 24 * time.Hour},
		{PeriodType("bogus"), 24 * time.Hour},
	}
	for _, tt := range tests {
		if got := tt.pt.Duration(); got != tt.want {
			t.Errorf("%s.Duration() = %v, want %v", tt.pt, got, tt.want)
		}
	}
}

func TestUsagePeriodRemaining(t *testing.T) {
	p := UsagePeriod{Utilization: 62}
	if p.Remaining() != 38 {
		t.Errorf("Remaining() = %d, want 38", p.Remaining())
	}
}

func TestElapsedRatio_NoResetTime(t *testing.T) {
	p := UsagePeriod{PeriodType: PeriodSession}
	if p.ElapsedRatio() != nil {
		t.Error("expected nil elapsed ratio without reset time")
	}
}

func TestElapsedRatio_Midway(t *testing.T) {
	now := time.Now()
	// Session window is 5h; a reset 2.5h out means we're halfway through.
	p := UsagePeriod{
		PeriodType: PeriodSession,
		ResetsAt:   timePtr(now.Add(2*time.Hour + 30*time.Minute)),
	}
	ratio := p.elapsedRatioAt(now)
	if ratio == nil {
		t.Fatal("expected non-nil ratio")
	}
	if *ratio < 0.49 || *ratio > 0.51 {
		t.Errorf("elapsed ratio = %f, want ≈0.5", *ratio)
	}
}

func TestElapsedRatio_PastReset(t *testing.T) {
	now := time.Now()
	p := UsagePeriod{
		PeriodType: PeriodDaily,
		ResetsAt:   timePtr(now.Add(-time.Hour)),
	}
	ratio := p.elapsedRatioAt(now)
	if ratio == nil {
		t.Fatal("expected non-nil ratio")
	}
	if *ratio != 1.0 {
		t.Errorf("elapsed ratio = %f, want 1.0 for a reset in the past", *ratio)
	}
}

func TestPaceRatio_UndefinedEarlyInWindow(t *testing.T) {
	now := time.Now()
	// 5% into the daily window — below the 10% floor.
	p := UsagePeriod{
		PeriodType:  PeriodDaily,
		Utilization: 40,
		ResetsAt:    timePtr(now.Add(24*time.Hour - 72*time.Minute)),
	}
	if p.paceRatioAt(now) != nil {
		t.Error("expected nil pace ratio below 10% elapsed")
	}
}

func TestPaceRatio_DoubleLinearPace(t *testing.T) {
	now := time.Now()
	// Halfway through the session window at 100% utilization = pace 2.0.
	p := UsagePeriod{
		PeriodType:  PeriodSession,
		Utilization: 100,
		ResetsAt:    timePtr(now.Add(2*time.Hour + 30*time.Minute)),
	}
	ratio := p.paceRatioAt(now)
	if ratio == nil {
		t.Fatal("expected non-nil pace ratio")
	}
	if *ratio < 1.95 || *ratio > 2.05 {
		t.Errorf("pace ratio = %f, want ≈2.0", *ratio)
	}
}

func TestTimeUntilReset_FloorsAtZero(t *testing.T) {
	p := UsagePeriod{
		PeriodType: PeriodDaily,
		ResetsAt:   timePtr(time.Now().Add(-time.Minute)),
	}
	d := p.TimeUntilReset()
	if d == nil {
		t.Fatal("expected non-nil duration")
	}
	if *d != 0 {
		t.Errorf("TimeUntilReset = %v, want 0 for past reset", *d)
	}
}

func TestOverageRemaining(t *testing.T) {
	tests := []struct {
		name string
		o    OverageUsage
		want float64
	}{
		{"under limit", OverageUsage{Used: 3.50, Limit: 10.00}, 6.50},
		{"over limit", OverageUsage{Used: 12.00, Limit: 10.00}, 0},
		{"zero limit", OverageUsage{Used: 1.00, Limit: 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.o.Remaining(); got != tt.want {
				t.Errorf("Remaining() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestOverageUtilizationPct(t *testing.T) {
	tests := []struct {
		name string
		o    OverageUsage
		want int
	}{
		{"half used", OverageUsage{Used: 5, Limit: 10}, 50},
		{"over limit clamps", OverageUsage{Used: 15, Limit: 10}, 100},
		{"zero limit zero used", OverageUsage{Used: 0, Limit: 0}, 0},
		{"zero limit positive used", OverageUsage{Used: 0.01, Limit: 0}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.o.UtilizationPct(); got != tt.want {
				t.Errorf("UtilizationPct() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPrimaryPeriod_ShortestWins(t *testing.T) {
	s := UsageSnapshot{
		Periods: []UsagePeriod{
			{Name: "Monthly", PeriodType: PeriodMonthly},
			{Name: "Session", PeriodType: PeriodSession},
			{Name: "Weekly", PeriodType: PeriodWeekly},
		},
	}
	p := s.PrimaryPeriod()
	if p == nil || p.Name != "Session" {
		t.Errorf("PrimaryPeriod() = %+v, want Session", p)
	}
}

func TestPrimaryPeriod_Empty(t *testing.T) {
	if (UsageSnapshot{}).PrimaryPeriod() != nil {
		t.Error("expected nil primary period for empty snapshot")
	}
}

func TestSecondaryPeriod_SkipsModelBreakdowns(t *testing.T) {
	s := UsageSnapshot{
		Periods: []UsagePeriod{
			{Name: "Session", PeriodType: PeriodSession},
			{Name: "Opus weekly", PeriodType: PeriodWeekly, Model: "opus"},
			{Name: "Weekly", PeriodType: PeriodWeekly},
		},
	}
	p := s.SecondaryPeriod()
	if p == nil || p.Name != "Weekly" {
		t.Errorf("SecondaryPeriod() = %+v, want Weekly", p)
	}
}

func TestSecondaryPeriod_NonePresent(t *testing.T) {
	s := UsageSnapshot{
		Periods: []UsagePeriod{{Name: "Session", PeriodType: PeriodSession}},
	}
	if s.SecondaryPeriod() != nil {
		t.Error("expected nil secondary period with a single period")
	}
}

func TestModelPeriods(t *testing.T) {
	s := UsageSnapshot{
		Periods: []UsagePeriod{
			{Name: "Weekly", PeriodType: PeriodWeekly},
			{Name: "Opus", PeriodType: PeriodWeekly, Model: "opus"},
			{Name: "Sonnet", PeriodType: PeriodWeekly, Model: "sonnet"},
		},
	}
	mp := s.ModelPeriods()
	if len(mp) != 2 {
		t.Fatalf("len(ModelPeriods()) = %d, want 2", len(mp))
	}
	if mp[0].Model != "opus" || mp[1].Model != "sonnet" {
		t.Errorf("model periods out of order: %+v", mp)
	}
}

func TestModelPeriods_Empty(t *testing.T) {
	s := UsageSnapshot{
		Periods: []UsagePeriod{{Name: "Weekly", PeriodType: PeriodWeekly}},
	}
	if len(s.ModelPeriods()) != 0 {
		t.Error("expected no model periods")
	}
}

func TestIsStale(t *testing.T) {
	fresh := UsageSnapshot{FetchedAt: time.Now().Add(-10 * time.Minute)}
	if fresh.IsStale(60) {
		t.Error("10-minute-old snapshot should not be stale at 60m threshold")
	}
	old := UsageSnapshot{FetchedAt: time.Now().Add(-2 * time.Hour)}
	if !old.IsStale(60) {
		t.Error("2-hour-old snapshot should be stale at 60m threshold")
	}
}

func TestFormatResetCountdown(t *testing.T) {
	mk := func(d time.Duration) *time.Duration { return &d }
	tests := []struct {
		name string
		d    *time.Duration
		want string
	}{
		{"nil", nil, ""},
		{"zero", mk(0), "now"},
		{"minutes", mk(42 * time.Minute), "42m"},
		{"hours", mk(3*time.Hour + 5*time.Minute), "3h 5m"},
		{"days", mk(49 * time.Hour), "2d 1h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatResetCountdown(tt.d); got != tt.want {
				t.Errorf("FormatResetCountdown = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPaceToColor(t *testing.T) {
	mk := func(f float64) *float64 { return &f }
	tests := []struct {
		name        string
		pace        *float64
		utilization int
		want        string
	}{
		{"exhausted always red", mk(0.5), 100, "red"},
		{"no pace low util", nil, 30, "green"},
		{"no pace mid util", nil, 65, "yellow"},
		{"no pace high util", nil, 85, "red"},
		{"on pace", mk(1.0), 40, "green"},
		{"slightly hot", mk(1.2), 40, "yellow"},
		{"burning", mk(1.5), 40, "red"},
		{"near exhaustion floor", mk(0.9), 92, "yellow"},
		{"near exhaustion hot", mk(1.2), 92, "red"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PaceToColor(tt.pace, tt.utilization); got != tt.want {
				t.Errorf("PaceToColor = %q, want %q", got, tt.want)
			}
		})
	}
}
