package display

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// NewTable renders a bordered table for list-style commands (auth status,
// provider status, cache show). Color follows the global lipgloss profile,
// so --no-color is handled by DisableColor rather than per call.
func NewTable(title string, headers []string, rows [][]string) string {
	t := table.New().
		Headers(headers...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(separatorStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, row := range rows {
		t.Row(row...)
	}

	if title == "" {
		return t.String()
	}
	return titleStyle.Render(title) + "\n" + t.String()
}

// FormatStatusUpdated renders a status-page timestamp as a relative age.
func FormatStatusUpdated(t *time.Time) string {
	return formatUpdatedAgo(t)
}
