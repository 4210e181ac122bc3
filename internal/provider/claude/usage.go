package claude

import (
	"strings"
	"time"

	"github.com/joshuadavidthomas/vibeusage/internal/models"
)

// parseUsageResponse converts a UsageResponse into a snapshot. The source
// identifies which strategy produced the data ("oauth" or "web"). An
// optional overage override serves strategies that fetch overage from a
// separate endpoint.
func parseUsageResponse(resp UsageResponse, source string, overageOverride *models.OverageUsage) models.UsageSnapshot {
	var periods []models.UsagePeriod

	standard := []struct {
		data       *UsagePeriodResponse
		name       string
		periodType models.PeriodType
	}{
		{resp.FiveHour, "Session (5h)", models.PeriodSession},
		{resp.SevenDay, "All Models", models.PeriodWeekly},
		{resp.Monthly, "Monthly", models.PeriodMonthly},
	}
	for _, sp := range standard {
		if sp.data == nil {
			continue
		}
		periods = append(periods, models.UsagePeriod{
			Name:        sp.name,
			Utilization: models.ClampPct(int(sp.data.Utilization)),
			PeriodType:  sp.periodType,
			ResetsAt:    models.ParseRFC3339Ptr(sp.data.ResetsAt),
		})
	}

	perModel := []struct {
		data  *UsagePeriodResponse
		model string
	}{
		{resp.SevenDaySonnet, "Sonnet"},
		{resp.SevenDayOpus, "Opus"},
		{resp.SevenDayHaiku, "Haiku"},
	}
	for _, mp := range perModel {
		if mp.data == nil {
			continue
		}
		periods = append(periods, models.UsagePeriod{
			Name:        mp.model,
			Utilization: models.ClampPct(int(mp.data.Utilization)),
			PeriodType:  models.PeriodWeekly,
			Model:       strings.ToLower(mp.model),
			ResetsAt:    models.ParseRFC3339Ptr(mp.data.ResetsAt),
		})
	}

	// Inline extra_usage wins over the caller's override.
	var overage *models.OverageUsage
	if resp.ExtraUsage != nil && resp.ExtraUsage.IsEnabled {
		overage = &models.OverageUsage{
			Used:      resp.ExtraUsage.UsedCredits / 100.0,
			Currency:  "USD",
			IsEnabled: true,
		}
		if resp.ExtraUsage.MonthlyLimit != nil {
			overage.Limit = *resp.ExtraUsage.MonthlyLimit / 100.0
		}
	} else if overageOverride != nil {
		overage = overageOverride
	}

	plan := resp.Plan
	if plan == "" {
		plan = resp.BillingType
	}
	var identity *models.ProviderIdentity
	if plan != "" {
		identity = &models.ProviderIdentity{Plan: plan}
	}

	return models.UsageSnapshot{
		Provider:  "claude",
		FetchedAt: time.Now().UTC(),
		Periods:   periods,
		Overage:   overage,
		Identity:  identity,
		Source:    source,
	}
}
