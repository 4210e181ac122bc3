package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/vibeusage/internal/cache"
	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/display"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached usage data",
}

type cacheInfo struct {
	Snapshot string `json:"snapshot"`
	OrgID    bool   `json:"org_id_cached"`
	Age      *int   `json:"age_minutes"`
}

// buildCacheInfo inspects the cache entries for one provider. Snapshot is
// "none", "fresh", or "stale" relative to the staleness threshold.
func buildCacheInfo(providerID string, staleThresholdMinutes int) cacheInfo {
	info := cacheInfo{Snapshot: "none"}

	if snap := cache.LoadSnapshot(providerID); snap != nil {
		age := int(time.Since(snap.FetchedAt).Minutes())
		info.Age = &age
		if age < staleThresholdMinutes {
			info.Snapshot = "fresh"
		} else {
			info.Snapshot = "stale"
		}
	}

	if _, err := os.Stat(cache.OrgIDPath(providerID)); err == nil {
		info.OrgID = true
	}

	return info
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache status per provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		staleThreshold := config.Get().Fetch.StaleThresholdMinutes
		ids := provider.ListIDs()

		cacheData := make(map[string]cacheInfo, len(ids))
		for _, pid := range ids {
			cacheData[pid] = buildCacheInfo(pid, staleThreshold)
		}

		if jsonOutput {
			return display.WriteJSON(outWriter, cacheData)
		}

		if quiet {
			for _, pid := range ids {
				out("%s: %s\n", pid, cacheData[pid].Snapshot)
			}
			return nil
		}

		var rows [][]string
		for _, pid := range ids {
			info := cacheData[pid]

			snapStatus := "—"
			switch info.Snapshot {
			case "fresh":
				snapStatus = "✓ Fresh"
			case "stale":
				snapStatus = "⚠ Stale"
			}

			orgStatus := "—"
			if info.OrgID {
				orgStatus = "✓"
			}

			ageStr := "—"
			if info.Age != nil {
				ageStr = formatCacheAge(*info.Age)
			}

			rows = append(rows, []string{pid, snapStatus, orgStatus, ageStr})
		}

		outln(display.NewTable("Cache Status", []string{"Provider", "Snapshot", "Org ID", "Age"}, rows))

		out("\nCache directory: %s\n", config.CacheDir())
		return nil
	},
}

func formatCacheAge(minutes int) string {
	switch {
	case minutes >= 1440:
		return fmt.Sprintf("%dd", minutes/1440)
	case minutes >= 60:
		return fmt.Sprintf("%dh", minutes/60)
	case minutes >= 1:
		return fmt.Sprintf("%dm", minutes)
	}
	return "<1m"
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [provider]",
	Short: "Clear cached snapshots and org ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		var providerID string
		if len(args) > 0 {
			providerID = args[0]
			if _, ok := provider.Get(providerID); !ok {
				return fmt.Errorf("unknown provider: %s", providerID)
			}
		}

		cache.ClearAll(providerID)

		// Gate state survives a plain cache clear so a gated provider
		// stays paused; --gates opts into resetting it.
		if clearGates, _ := cmd.Flags().GetBool("gates"); clearGates {
			cache.ClearGate(providerID)
			gates.Clear(providerID)
		}

		msg := "Cleared all cache"
		if providerID != "" {
			msg = fmt.Sprintf("Cleared cache for %s", providerID)
		}

		if jsonOutput {
			return display.WriteJSON(outWriter, display.ActionResultJSON{
				Success:  true,
				Message:  msg,
				Provider: providerID,
			})
		}

		out("✓ %s\n", msg)
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().Bool("gates", false, "Also reset failure gate state")

	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
