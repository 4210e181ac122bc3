// Package display renders fetch outcomes for terminals and machines:
// lipgloss panels with usage bars for humans, the JSON contract for
// scripts, and a transient spinner while fetches are in flight.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	greenStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	yellowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	redStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func colorStyle(color string) lipgloss.Style {
	switch color {
	case "green":
		return greenStyle
	case "yellow":
		return yellowStyle
	case "red":
		return redStyle
	default:
		return lipgloss.NewStyle()
	}
}

const barWidth = 20

// RenderBar renders a utilization bar of the given width.
func RenderBar(utilization, width int, color string) string {
	filled := max(0, min(utilization*width/100, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return colorStyle(color).Render(bar)
}

type periodRow struct {
	displayName string
	period      models.UsagePeriod
}

// buildPeriodTable renders period rows as borderless one-row lipgloss
// tables so the columns align without a visible grid.
func buildPeriodTable(rows []periodRow) string {
	if len(rows) == 0 {
		return ""
	}

	nameWidth := 0
	for _, r := range rows {
		nameWidth = max(nameWidth, len(r.displayName))
	}

	styleFunc := func(_ int, col int) lipgloss.Style {
		switch col {
		case 0:
			return lipgloss.NewStyle().Width(nameWidth)
		case 2:
			return lipgloss.NewStyle().Align(lipgloss.Right)
		case 3:
			return dimStyle
		}
		return lipgloss.NewStyle()
	}

	var lines []string
	for _, r := range rows {
		p := r.period
		color := models.PaceToColor(p.PaceRatio(), p.Utilization)
		pct := colorStyle(color).Render(fmt.Sprintf("%d%%", p.Utilization))
		bar := RenderBar(p.Utilization, barWidth, color)

		reset := ""
		if d := p.TimeUntilReset(); d != nil {
			reset = "resets in " + models.FormatResetCountdown(d)
		}

		t := table.New().
			Border(lipgloss.HiddenBorder()).
			StyleFunc(styleFunc).
			Row(r.displayName, bar, pct, reset)
		lines = append(lines, cleanTableOutput(t.Render()))
	}
	return strings.Join(lines, "\n")
}

// cleanTableOutput strips the hidden-border padding lipgloss leaves around
// a borderless table render.
func cleanTableOutput(rendered string) string {
	var cleaned []string
	for _, line := range strings.Split(rendered, "\n") {
		line = strings.TrimPrefix(line, " ")
		line = strings.TrimRight(line, " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

func groupPeriods(periods []models.UsagePeriod) (session, weekly, daily, monthly []models.UsagePeriod) {
	for _, p := range periods {
		switch p.PeriodType {
		case models.PeriodSession:
			session = append(session, p)
		case models.PeriodWeekly:
			weekly = append(weekly, p)
		case models.PeriodDaily:
			daily = append(daily, p)
		case models.PeriodMonthly:
			monthly = append(monthly, p)
		}
	}
	return
}

type longerPeriods struct {
	header  string
	periods []models.UsagePeriod
}

func pickLonger(weekly, daily, monthly []models.UsagePeriod) longerPeriods {
	if len(weekly) > 0 {
		return longerPeriods{"Weekly", weekly}
	}
	if len(daily) > 0 {
		return longerPeriods{"Daily", daily}
	}
	if len(monthly) > 0 {
		return longerPeriods{"Monthly", monthly}
	}
	return longerPeriods{}
}

// subPeriodName indents a period name for display under a section header.
// "All Models"-style aggregates keep their name; parenthesized qualifiers
// are unwrapped ("Monthly (Premium)" shows as "Premium").
func subPeriodName(p models.UsagePeriod, sectionHeader string) string {
	name := p.Name
	if p.Model == "" && strings.Contains(name, "(") && strings.Contains(name, ")") {
		start := strings.Index(name, "(") + 1
		end := strings.Index(name, ")")
		name = name[start:end]
	}
	if name == sectionHeader {
		name = "All Models"
	}
	return "  " + name
}

func formatOverageLine(o *models.OverageUsage, label string) string {
	sym := ""
	if o.Currency == "USD" {
		sym = "$"
	}
	if o.Limit > 0 {
		return fmt.Sprintf("%s: %s%.2f / %s%.2f %s", label, sym, o.Used, sym, o.Limit, o.Currency)
	}
	return fmt.Sprintf("%s: %s%.2f %s (Unlimited)", label, sym, o.Used, o.Currency)
}

// snapshotMarker annotates a panel title with cache/gate state.
func snapshotMarker(outcome fetch.FetchOutcome, snapshot models.UsageSnapshot) string {
	switch {
	case outcome.Gated:
		return dimStyle.Render(" (paused, cached " + formatAge(time.Since(snapshot.FetchedAt)) + " ago)")
	case outcome.Stale:
		return dimStyle.Render(" (stale, " + formatAge(time.Since(snapshot.FetchedAt)) + " ago)")
	case outcome.Cached:
		return dimStyle.Render(" (cached " + formatAge(time.Since(snapshot.FetchedAt)) + " ago)")
	}
	return ""
}

// DetailOptions configures the single-provider detail view.
type DetailOptions struct {
	// Status is the provider's upstream health, fetched separately.
	Status *models.ProviderStatus
}

// RenderSingleProvider renders the expanded detail view for one provider.
func RenderSingleProvider(outcome fetch.FetchOutcome, opts DetailOptions) string {
	snapshot := *outcome.Snapshot
	var out strings.Builder

	out.WriteString(titleStyle.Render(provider.DisplayName(snapshot.Provider)))
	out.WriteString(snapshotMarker(outcome, snapshot))
	out.WriteByte('\n')

	if meta := renderMetaLines(snapshot); meta != "" {
		out.WriteString(meta)
		out.WriteByte('\n')
	}

	if opts.Status != nil {
		out.WriteByte('\n')
		out.WriteString(renderStatusLine(*opts.Status))
		out.WriteByte('\n')
	}

	out.WriteByte('\n')
	out.WriteString(renderUsagePanel(snapshot))
	return out.String()
}

func renderMetaLines(snapshot models.UsageSnapshot) string {
	type field struct{ label, value string }
	var fields []field

	if id := snapshot.Identity; id != nil {
		if id.Plan != "" {
			fields = append(fields, field{"Plan", id.Plan})
		}
		if id.Organization != "" {
			fields = append(fields, field{"Org", id.Organization})
		}
		if id.Email != "" {
			fields = append(fields, field{"Account", id.Email})
		}
	}
	if snapshot.Source != "" {
		fields = append(fields, field{"Auth", sourceName(snapshot.Source)})
	}
	if len(fields) == 0 {
		return ""
	}

	maxLabel := 0
	for _, f := range fields {
		maxLabel = max(maxLabel, len(f.label))
	}
	lines := make([]string, len(fields))
	for i, f := range fields {
		pad := strings.Repeat(" ", maxLabel-len(f.label))
		lines[i] = dimStyle.Render(f.label) + pad + "  " + f.value
	}
	return strings.Join(lines, "\n")
}

func sourceName(source string) string {
	switch source {
	case "oauth":
		return "OAuth"
	case "web":
		return "Web Session"
	case "apikey":
		return "API Key"
	case "token":
		return "Token"
	default:
		return source
	}
}

func renderStatusLine(status models.ProviderStatus) string {
	sym := StatusSymbol(status.Level, false)
	desc := string(status.Level)
	if status.Description != "" {
		desc = status.Description
	}
	line := sym + " " + desc
	if status.UpdatedAt != nil {
		line += dimStyle.Render("  " + formatUpdatedAgo(status.UpdatedAt))
	}
	return line
}

func renderUsagePanel(snapshot models.UsageSnapshot) string {
	var b strings.Builder

	session, weekly, daily, monthly := groupPeriods(snapshot.Periods)
	longer := pickLonger(weekly, daily, monthly)

	if len(session) > 0 {
		var rows []periodRow
		for _, p := range session {
			rows = append(rows, periodRow{p.Name, p})
		}
		b.WriteString(buildPeriodTable(rows))
	}

	if len(session) > 0 && len(longer.periods) > 0 {
		b.WriteString("\n\n")
	}
	if len(longer.periods) > 0 {
		b.WriteString(longer.header)
		var rows []periodRow
		for _, p := range longer.periods {
			rows = append(rows, periodRow{subPeriodName(p, longer.header), p})
		}
		b.WriteByte('\n')
		b.WriteString(buildPeriodTable(rows))
	}

	if snapshot.Overage != nil && snapshot.Overage.IsEnabled {
		b.WriteString("\n\n")
		b.WriteString(formatOverageLine(snapshot.Overage, "Extra Usage"))
	}

	return renderTitledPanel(titleStyle.Render("Usage"), b.String(), 0)
}

// compactPeriods returns the aggregate periods shown in the dashboard
// panel, normalizing bare type names.
func compactPeriods(snapshot models.UsageSnapshot) []models.UsagePeriod {
	session, weekly, daily, monthly := groupPeriods(snapshot.Periods)

	groups := []struct {
		periods []models.UsagePeriod
		rename  string
	}{
		{session, ""},
		{weekly, "Weekly"},
		{daily, "Daily"},
		{monthly, ""},
	}

	var out []models.UsagePeriod
	for _, g := range groups {
		for _, p := range g.periods {
			if p.Model != "" {
				continue
			}
			if g.rename != "" && isGenericPeriodName(p.Name) {
				p.Name = g.rename
			}
			out = append(out, p)
		}
	}

	// A snapshot with only per-model periods still gets a panel.
	if len(out) == 0 {
		out = snapshot.Periods
	}
	return out
}

// isGenericPeriodName reports whether a period name is a bare window label
// worth normalizing ("seven_day", "Weekly"). Parenthesized qualifiers are
// kept as-is.
func isGenericPeriodName(name string) bool {
	if strings.Contains(name, "(") {
		return false
	}
	lower := strings.ToLower(name)
	for _, generic := range []string{"daily", "weekly", "monthly", "session"} {
		if strings.Contains(lower, generic) {
			return true
		}
	}
	return !strings.Contains(name, " ")
}

// RenderProviderPanel renders the compact panel for the dashboard view.
func RenderProviderPanel(outcome fetch.FetchOutcome) string {
	snapshot := *outcome.Snapshot
	var b strings.Builder

	var rows []periodRow
	for _, p := range compactPeriods(snapshot) {
		rows = append(rows, periodRow{p.Name, p})
	}
	b.WriteString(buildPeriodTable(rows))

	if snapshot.Overage != nil && snapshot.Overage.IsEnabled {
		b.WriteByte('\n')
		b.WriteString(formatOverageLine(snapshot.Overage, "Extra"))
	}

	title := titleStyle.Render(provider.DisplayName(snapshot.Provider)) +
		snapshotMarker(outcome, snapshot)
	return renderTitledPanel(title, b.String(), 0)
}

func renderTitledPanel(title, body string, minWidth int) string {
	lines := strings.Split(body, "\n")
	if len(lines) == 0 {
		lines = []string{""}
	}

	bodyWidth := minWidth
	for _, line := range lines {
		bodyWidth = max(bodyWidth, lipgloss.Width(line))
	}

	innerWidth := max(bodyWidth+2, lipgloss.Width(title)+1)
	top := separatorStyle.Render("╭─") + title +
		separatorStyle.Render(strings.Repeat("─", max(0, innerWidth-lipgloss.Width(title)-1))+"╮")
	bottom := separatorStyle.Render("╰" + strings.Repeat("─", innerWidth) + "╯")

	rows := make([]string, 0, len(lines)+2)
	rows = append(rows, top)
	for _, line := range lines {
		pad := strings.Repeat(" ", max(0, bodyWidth-lipgloss.Width(line)))
		rows = append(rows, separatorStyle.Render("│")+" "+line+pad+" "+separatorStyle.Render("│"))
	}
	rows = append(rows, bottom)
	return strings.Join(rows, "\n")
}

// RenderProviderError renders a compact error line for a failed provider,
// with the remediation hint when the error carries one.
func RenderProviderError(outcome fetch.FetchOutcome) string {
	name := provider.DisplayName(outcome.ProviderID)
	line := dimStyle.Render(name + ": " + outcome.ErrorMessage())
	if outcome.Err != nil && outcome.Err.Remediation != "" {
		line += "\n" + dimStyle.Render("  "+outcome.Err.Remediation)
	}
	return line
}

// StatusSymbol returns a status indicator symbol, colored unless noColor.
func StatusSymbol(level models.StatusLevel, noColor bool) string {
	sym := "?"
	style := dimStyle
	switch level {
	case models.StatusOperational:
		sym, style = "●", greenStyle
	case models.StatusDegraded:
		sym, style = "◐", yellowStyle
	case models.StatusPartialOutage:
		sym, style = "◑", yellowStyle
	case models.StatusMajorOutage:
		sym, style = "○", redStyle
	}
	if noColor {
		return sym
	}
	return style.Render(sym)
}

func formatAge(d time.Duration) string {
	switch {
	case d.Hours() >= 24:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d.Hours() >= 1:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d.Minutes() >= 1:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return "<1m"
}

func formatUpdatedAgo(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	d := time.Since(*t)
	switch {
	case d.Hours() >= 24:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	case d.Hours() >= 1:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d.Minutes() >= 1:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return "just now"
}
