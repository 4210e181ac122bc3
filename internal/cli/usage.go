package cli

import (
	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

// usage is an explicit alias for the root command's default behavior,
// with per-provider subcommands (vibeusage usage claude, etc.).
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show subscription usage across providers",
	Long:  "Fetch and display usage data for every configured provider, or a single provider when named as a subcommand.",
	RunE:  runDefaultUsage,
}

func init() {
	for _, id := range provider.ListIDs() {
		usageCmd.AddCommand(makeProviderCmd(id))
	}
}
