package cli

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/vibeusage/internal/display"
	"github.com/joshuadavidthomas/vibeusage/internal/modelmap"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show Copilot premium request multipliers per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries := modelmap.All()
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

		if jsonOutput {
			return display.WriteJSON(outWriter, entries)
		}

		if len(entries) == 0 {
			outln("No model multiplier data available")
			return nil
		}

		if quiet {
			for _, e := range entries {
				out("%s: %s\n", e.Name, formatMultiplier(e.Paid))
			}
			return nil
		}

		var rows [][]string
		for _, e := range entries {
			rows = append(rows, []string{e.Name, formatMultiplier(e.Paid), formatMultiplier(e.Free)})
		}
		outln(display.NewTable("Copilot Model Multipliers", []string{"Model", "Paid", "Free"}, rows))
		return nil
	},
}

func formatMultiplier(v *float64) string {
	if v == nil {
		return "—"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + "x"
}
