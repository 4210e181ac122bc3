package display

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
)

func init() {
	// Deterministic output regardless of the test terminal.
	lipgloss.SetColorProfile(termenv.Ascii)
}

func timePtr(t time.Time) *time.Time { return &t }

func sampleOutcome(periods ...models.UsagePeriod) fetch.FetchOutcome {
	return fetch.FetchOutcome{
		ProviderID: "claude",
		Success:    true,
		Source:     "oauth",
		Snapshot: &models.UsageSnapshot{
			Provider:  "claude",
			FetchedAt: time.Now().UTC(),
			Periods:   periods,
			Source:    "oauth",
		},
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		utilization int
		wantFilled  int
	}{
		{0, 0},
		{50, 10},
		{100, 20},
		{150, 20},
		{-10, 0},
	}
	for _, tt := range tests {
		bar := RenderBar(tt.utilization, 20, "")
		filled := strings.Count(bar, "█")
		if filled != tt.wantFilled {
			t.Errorf("RenderBar(%d) filled = %d, want %d", tt.utilization, filled, tt.wantFilled)
		}
		if empty := strings.Count(bar, "░"); empty != 20-tt.wantFilled {
			t.Errorf("RenderBar(%d) empty = %d, want %d", tt.utilization, empty, 20-tt.wantFilled)
		}
	}
}

func TestFormatOverageLine(t *testing.T) {
	withLimit := &models.OverageUsage{Used: 12.5, Limit: 50, Currency: "USD", IsEnabled: true}
	line := formatOverageLine(withLimit, "Extra")
	if line != "Extra: $12.50 / $50.00 USD" {
		t.Errorf("line = %q", line)
	}

	noLimit := &models.OverageUsage{Used: 3, Currency: "credits", IsEnabled: true}
	line = formatOverageLine(noLimit, "Extra")
	if line != "Extra: 3.00 credits (Unlimited)" {
		t.Errorf("line = %q", line)
	}
}

func TestSubPeriodName(t *testing.T) {
	tests := []struct {
		period models.UsagePeriod
		header string
		want   string
	}{
		{models.UsagePeriod{Name: "Sonnet", Model: "sonnet"}, "Weekly", "  Sonnet"},
		{models.UsagePeriod{Name: "Monthly (Premium)"}, "Monthly", "  Premium"},
		{models.UsagePeriod{Name: "Weekly"}, "Weekly", "  All Models"},
		{models.UsagePeriod{Name: "All Models"}, "Weekly", "  All Models"},
	}
	for _, tt := range tests {
		if got := subPeriodName(tt.period, tt.header); got != tt.want {
			t.Errorf("subPeriodName(%q) = %q, want %q", tt.period.Name, got, tt.want)
		}
	}
}

func TestCompactPeriodsPrefersAggregates(t *testing.T) {
	snapshot := models.UsageSnapshot{
		Periods: []models.UsagePeriod{
			{Name: "Session (5h)", PeriodType: models.PeriodSession},
			{Name: "seven_day", PeriodType: models.PeriodWeekly},
			{Name: "Sonnet", PeriodType: models.PeriodWeekly, Model: "sonnet"},
		},
	}
	out := compactPeriods(snapshot)
	if len(out) != 2 {
		t.Fatalf("expected 2 aggregate periods, got %d", len(out))
	}
	if out[1].Name != "Weekly" {
		t.Errorf("generic weekly name = %q, want normalized Weekly", out[1].Name)
	}
}

func TestCompactPeriodsModelOnlyFallback(t *testing.T) {
	snapshot := models.UsageSnapshot{
		Periods: []models.UsagePeriod{
			{Name: "Sonnet", PeriodType: models.PeriodWeekly, Model: "sonnet"},
		},
	}
	out := compactPeriods(snapshot)
	if len(out) != 1 {
		t.Fatalf("model-only snapshot should keep its periods, got %d", len(out))
	}
}

func TestIsGenericPeriodName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Weekly", true},
		{"seven_day", true},
		{"Monthly (Premium)", false},
		{"All Models", false},
	}
	for _, tt := range tests {
		if got := isGenericPeriodName(tt.name); got != tt.want {
			t.Errorf("isGenericPeriodName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRenderProviderPanel(t *testing.T) {
	resets := time.Now().Add(2 * time.Hour)
	out := RenderProviderPanel(sampleOutcome(
		models.UsagePeriod{Name: "Session (5h)", Utilization: 42, PeriodType: models.PeriodSession, ResetsAt: timePtr(resets)},
	))

	if !strings.Contains(out, "Claude") {
		t.Error("panel missing provider name")
	}
	if !strings.Contains(out, "42%") {
		t.Error("panel missing utilization")
	}
	if !strings.Contains(out, "resets in") {
		t.Error("panel missing reset countdown")
	}
	if !strings.Contains(out, "╭") || !strings.Contains(out, "╰") {
		t.Error("panel missing border")
	}
}

func TestRenderProviderPanelCachedMarker(t *testing.T) {
	outcome := sampleOutcome(models.UsagePeriod{Name: "Session (5h)", Utilization: 10, PeriodType: models.PeriodSession})
	outcome.Cached = true
	outcome.Snapshot.FetchedAt = time.Now().Add(-2 * time.Hour)

	out := RenderProviderPanel(outcome)
	if !strings.Contains(out, "cached 2h ago") {
		t.Errorf("panel missing cache marker:\n%s", out)
	}

	outcome.Stale = true
	out = RenderProviderPanel(outcome)
	if !strings.Contains(out, "stale") {
		t.Errorf("panel missing stale marker:\n%s", out)
	}

	outcome.Gated = true
	out = RenderProviderPanel(outcome)
	if !strings.Contains(out, "paused") {
		t.Errorf("panel missing gate marker:\n%s", out)
	}
}

func TestRenderSingleProvider(t *testing.T) {
	outcome := sampleOutcome(
		models.UsagePeriod{Name: "Session (5h)", Utilization: 42, PeriodType: models.PeriodSession},
		models.UsagePeriod{Name: "All Models", Utilization: 80, PeriodType: models.PeriodWeekly},
		models.UsagePeriod{Name: "Sonnet", Utilization: 30, PeriodType: models.PeriodWeekly, Model: "sonnet"},
	)
	outcome.Snapshot.Identity = &models.ProviderIdentity{Plan: "max_20x"}
	outcome.Snapshot.Overage = &models.OverageUsage{Used: 1, Limit: 10, Currency: "USD", IsEnabled: true}

	status := models.ProviderStatus{Level: models.StatusOperational, Description: "All good"}
	out := RenderSingleProvider(outcome, DetailOptions{Status: &status})

	for _, want := range []string{"Claude", "max_20x", "OAuth", "All good", "Weekly", "Sonnet", "Extra Usage"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail view missing %q:\n%s", want, out)
		}
	}
}

func TestRenderProviderError(t *testing.T) {
	outcome := fetch.FetchOutcome{
		ProviderID: "codex",
		Err: &apierr.Error{
			Category:    apierr.CategoryAuthentication,
			Severity:    apierr.SeverityFatal,
			Message:     "token expired",
			Remediation: "Run `codex login`",
		},
	}
	out := RenderProviderError(outcome)
	if !strings.Contains(out, "Codex") || !strings.Contains(out, "token expired") {
		t.Errorf("error line = %q", out)
	}
	if !strings.Contains(out, "codex login") {
		t.Errorf("error line missing remediation: %q", out)
	}
}

func TestStatusSymbol(t *testing.T) {
	tests := []struct {
		level models.StatusLevel
		want  string
	}{
		{models.StatusOperational, "●"},
		{models.StatusDegraded, "◐"},
		{models.StatusPartialOutage, "◑"},
		{models.StatusMajorOutage, "○"},
		{models.StatusUnknown, "?"},
	}
	for _, tt := range tests {
		if got := StatusSymbol(tt.level, true); got != tt.want {
			t.Errorf("StatusSymbol(%q) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "<1m"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{49 * time.Hour, "2d"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.d); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
